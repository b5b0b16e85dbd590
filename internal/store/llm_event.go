package store

import (
	"context"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
)

// eventRepo implements EventRepo backed by the event tables and the global
// sequence counter.
type eventRepo struct {
	drv dialect.ExecQuerier
	sql *entsql.DialectBuilder
	seq *sequenceCounter
}

// appendEvent inserts one event row, assigning its sequence and timestamp.
func (r *eventRepo) appendEvent(ctx context.Context, table string, columns []string, values ...any) error {
	seqNum, err := r.seq.Next(ctx)
	if err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}
	ins := r.sql.Insert(table).
		Columns(append([]string{"sequence", "timestamp"}, columns...)...).
		Values(append([]any{seqNum, time.Now().UTC()}, values...)...)
	_, err = execResult(ctx, r.drv, ins)
	return err
}

func (r *eventRepo) AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error {
	err := r.appendEvent(ctx, LlmRequestEventsTable.Name,
		[]string{"provider", "model", "purpose", "input_tokens", "output_tokens", "latency_ms", "success", "error_message", "request_body", "response_body"},
		data.Provider, data.Model, data.Purpose, data.InputTokens, data.OutputTokens, data.LatencyMs, data.Success, data.ErrorMessage, data.RequestBody, data.ResponseBody,
	)
	if err != nil {
		return fmt.Errorf("save LLM request event: %w", err)
	}
	return nil
}

var llmEventColumns = []string{
	"id", "sequence", "timestamp", "provider", "model", "purpose",
	"input_tokens", "output_tokens", "latency_ms", "success", "error_message",
	"request_body", "response_body",
}

func (r *eventRepo) QueryLLMEvents(ctx context.Context, opts LLMQueryOpts) ([]LLMEventRecord, error) {
	q := r.sql.Select(llmEventColumns...).
		From(r.sql.Table(LlmRequestEventsTable.Name)).
		OrderBy(entsql.Desc("sequence"))
	if p := opts.predicate(); p != nil {
		q.Where(p)
	}
	if opts.Limit > 0 {
		q.Limit(opts.Limit)
	}
	out, err := r.scanLLMEvents(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query LLM events: %w", err)
	}
	return out, nil
}

func (r *eventRepo) GetLLMEvent(ctx context.Context, id int) (*LLMEventRecord, error) {
	q := r.sql.Select(llmEventColumns...).
		From(r.sql.Table(LlmRequestEventsTable.Name)).
		Where(entsql.EQ("id", id))
	out, err := r.scanLLMEvents(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query LLM event %d: %w", id, err)
	}
	if len(out) == 0 {
		return nil, nil
	}
	return &out[0], nil
}

func (r *eventRepo) LLMUsageByPurpose(ctx context.Context) ([]LLMUsage, error) {
	return r.llmUsage(ctx, "purpose", func(u *LLMUsage) *string { return &u.Purpose })
}

func (r *eventRepo) LLMUsageByModel(ctx context.Context) ([]LLMUsage, error) {
	return r.llmUsage(ctx, "model", func(u *LLMUsage) *string { return &u.Model })
}

func (r *eventRepo) llmUsage(ctx context.Context, key string, dst func(*LLMUsage) *string) ([]LLMUsage, error) {
	q := r.sql.Select(
		key,
		entsql.As(entsql.Count("*"), "calls"),
		entsql.As(entsql.Sum("input_tokens"), "input_tokens"),
		entsql.As(entsql.Sum("output_tokens"), "output_tokens"),
		entsql.As(entsql.Avg("latency_ms"), "avg_latency_ms"),
	).
		From(r.sql.Table(LlmRequestEventsTable.Name)).
		GroupBy(key).
		OrderBy(key)

	var out []LLMUsage
	err := queryRows(ctx, r.drv, q, func(rows *entsql.Rows) error {
		var (
			u          LLMUsage
			in, outTok entsql.NullFloat64
			avgLatency entsql.NullFloat64
		)
		if err := rows.Scan(dst(&u), &u.Calls, &in, &outTok, &avgLatency); err != nil {
			return err
		}
		u.InputTokens = int(in.Float64)
		u.OutputTokens = int(outTok.Float64)
		u.AvgLatencyMs = int64(avgLatency.Float64)
		out = append(out, u)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("aggregate LLM usage by %s: %w", key, err)
	}
	return out, nil
}

func (r *eventRepo) scanLLMEvents(ctx context.Context, q querier) ([]LLMEventRecord, error) {
	var out []LLMEventRecord
	err := queryRows(ctx, r.drv, q, func(rows *entsql.Rows) error {
		var e LLMEventRecord
		err := rows.Scan(&e.ID, &e.Sequence, &e.Timestamp, &e.Provider, &e.Model, &e.Purpose,
			&e.InputTokens, &e.OutputTokens, &e.LatencyMs, &e.Success, &e.ErrorMessage,
			&e.RequestBody, &e.ResponseBody)
		if err != nil {
			return err
		}
		out = append(out, e)
		return nil
	})
	return out, err
}

// predicate builds the WHERE clause for the common query options.
func (o QueryOpts) predicate() *entsql.Predicate {
	var ps []*entsql.Predicate
	if o.After > 0 {
		ps = append(ps, entsql.GT("sequence", o.After))
	}
	if o.Before > 0 {
		ps = append(ps, entsql.LT("sequence", o.Before))
	}
	if !o.From.IsZero() {
		ps = append(ps, entsql.GTE("timestamp", o.From.UTC()))
	}
	if !o.To.IsZero() {
		ps = append(ps, entsql.LTE("timestamp", o.To.UTC()))
	}
	return andAll(ps)
}

func (o LLMQueryOpts) predicate() *entsql.Predicate {
	p := o.QueryOpts.predicate()
	if o.Purpose == "" {
		return p
	}
	if p == nil {
		return entsql.EQ("purpose", o.Purpose)
	}
	return entsql.And(p, entsql.EQ("purpose", o.Purpose))
}

func andAll(ps []*entsql.Predicate) *entsql.Predicate {
	switch len(ps) {
	case 0:
		return nil
	case 1:
		return ps[0]
	default:
		return entsql.And(ps...)
	}
}
