// Package storetest provides in-memory fakes of the store repositories for
// tests of packages that sit above the store.
package storetest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/abhisek/adaptiq/internal/store"
)

// Events is an in-memory store.EventRepo.
type Events struct {
	mu  sync.Mutex
	seq int64

	Stars    []store.StarEventRecord
	Mastery  []store.MasteryEventRecord
	Sessions []store.SessionEventData
	LLM      []store.LLMEventRecord

	// Err, when set, is returned by every append.
	Err error
}

var _ store.EventRepo = (*Events)(nil)

// NewEvents returns an empty event log.
func NewEvents() *Events {
	return &Events{}
}

func (e *Events) next() int64 {
	e.seq++
	return e.seq
}

func (e *Events) AppendStarEvent(_ context.Context, data store.StarEventData) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.Err != nil {
		return e.Err
	}
	e.Stars = append(e.Stars, store.StarEventRecord{
		ID: len(e.Stars) + 1, Sequence: e.next(), Timestamp: time.Now(), StarEventData: data,
	})
	return nil
}

func (e *Events) StarsForSession(_ context.Context, sessionID string) ([]store.StarEventRecord, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []store.StarEventRecord
	for _, s := range e.Stars {
		if s.SessionID == sessionID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (e *Events) StarsForStudent(_ context.Context, studentID string, limit int) ([]store.StarEventRecord, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []store.StarEventRecord
	for _, s := range e.Stars {
		if s.StudentID == studentID {
			out = append(out, s)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (e *Events) AppendMasteryEvent(_ context.Context, data store.MasteryEventData) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.Err != nil {
		return e.Err
	}
	e.Mastery = append(e.Mastery, store.MasteryEventRecord{
		ID: len(e.Mastery) + 1, Sequence: e.next(), Timestamp: time.Now(), MasteryEventData: data,
	})
	return nil
}

func (e *Events) MasteryEvents(_ context.Context, studentID string) ([]store.MasteryEventRecord, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []store.MasteryEventRecord
	for _, m := range e.Mastery {
		if m.StudentID == studentID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (e *Events) AppendSessionEvent(_ context.Context, data store.SessionEventData) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.Err != nil {
		return e.Err
	}
	e.next()
	e.Sessions = append(e.Sessions, data)
	return nil
}

func (e *Events) AppendLLMRequest(_ context.Context, data store.LLMRequestEventData) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.Err != nil {
		return e.Err
	}
	e.LLM = append(e.LLM, store.LLMEventRecord{
		ID: len(e.LLM) + 1, Sequence: e.next(), Timestamp: time.Now(), LLMRequestEventData: data,
	})
	return nil
}

func (e *Events) QueryLLMEvents(_ context.Context, opts store.LLMQueryOpts) ([]store.LLMEventRecord, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []store.LLMEventRecord
	for i := len(e.LLM) - 1; i >= 0; i-- {
		ev := e.LLM[i]
		if opts.Purpose != "" && ev.Purpose != opts.Purpose {
			continue
		}
		out = append(out, ev)
		if opts.Limit > 0 && len(out) == opts.Limit {
			break
		}
	}
	return out, nil
}

func (e *Events) GetLLMEvent(_ context.Context, id int) (*store.LLMEventRecord, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, ev := range e.LLM {
		if ev.ID == id {
			cp := ev
			return &cp, nil
		}
	}
	return nil, nil
}

func (e *Events) LLMUsageByPurpose(_ context.Context) ([]store.LLMUsage, error) {
	return e.usage(func(ev store.LLMEventRecord) store.LLMUsage { return store.LLMUsage{Purpose: ev.Purpose} }), nil
}

func (e *Events) LLMUsageByModel(_ context.Context) ([]store.LLMUsage, error) {
	return e.usage(func(ev store.LLMEventRecord) store.LLMUsage { return store.LLMUsage{Model: ev.Model} }), nil
}

func (e *Events) usage(key func(store.LLMEventRecord) store.LLMUsage) []store.LLMUsage {
	e.mu.Lock()
	defer e.mu.Unlock()
	agg := map[store.LLMUsage]*store.LLMUsage{}
	var latency = map[store.LLMUsage]int64{}
	for _, ev := range e.LLM {
		k := key(ev)
		u, ok := agg[k]
		if !ok {
			cp := k
			u = &cp
			agg[k] = u
		}
		u.Calls++
		u.InputTokens += ev.InputTokens
		u.OutputTokens += ev.OutputTokens
		latency[k] += ev.LatencyMs
	}
	var out []store.LLMUsage
	for k, u := range agg {
		u.AvgLatencyMs = latency[k] / int64(u.Calls)
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Purpose+out[i].Model < out[j].Purpose+out[j].Model
	})
	return out
}
