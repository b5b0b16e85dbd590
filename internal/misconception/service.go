package misconception

import (
	"context"
	"sync"

	"github.com/abhisek/adaptiq/internal/content"
	"github.com/abhisek/adaptiq/internal/logger"
)

// queueSize bounds pending LLM explanations. Requests beyond it are dropped.
const queueSize = 32

// Service hands out explanations. The TUI uses Request, which answers at
// once with the fallback and delivers the generated text later; the API
// uses the synchronous Explain.
type Service struct {
	explainer *Explainer
	log       *logger.Logger
	pending   chan explainJob
	closeOnce sync.Once
	done      chan struct{}
}

type explainJob struct {
	ctx         context.Context
	question    *content.Question
	conceptName string
	optionID    string
	cb          func(*Explanation)
}

// NewService starts the background worker when the explainer has a
// provider.
func NewService(explainer *Explainer, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	s := &Service{
		explainer: explainer,
		log:       log.With("component", "misconception"),
		pending:   make(chan explainJob, queueSize),
		done:      make(chan struct{}),
	}
	if explainer != nil && explainer.Enabled() {
		go s.processLoop()
	} else {
		close(s.done)
	}
	return s
}

// Explain generates an explanation synchronously.
func (s *Service) Explain(ctx context.Context, q *content.Question, conceptName, selectedOptionID string) *Explanation {
	if s.explainer == nil {
		return NewExplainer(nil, ExplainerConfig{}, nil).Explain(ctx, q, conceptName, selectedOptionID)
	}
	return s.explainer.Explain(ctx, q, conceptName, selectedOptionID)
}

// Async reports whether Request can deliver a generated explanation after
// the fallback.
func (s *Service) Async() bool {
	return s.explainer != nil && s.explainer.Enabled()
}

// Request returns the fallback explanation immediately. When an LLM is
// configured and the option is an incorrect one, a generated explanation
// is queued and cb fires with it once ready. cb is not called when
// generation falls back.
func (s *Service) Request(ctx context.Context, q *content.Question, conceptName, selectedOptionID string, cb func(*Explanation)) *Explanation {
	immediate := NewExplainer(nil, ExplainerConfig{}, nil).Explain(ctx, q, conceptName, selectedOptionID)

	if s.explainer == nil || !s.explainer.Enabled() || q == nil {
		return immediate
	}
	if opt := q.Option(selectedOptionID); opt == nil || opt.IsCorrect {
		return immediate
	}

	select {
	case s.pending <- explainJob{ctx: ctx, question: q, conceptName: conceptName, optionID: selectedOptionID, cb: cb}:
	default:
		s.log.Debug("explanation queue full, dropping", "question_id", q.ID)
	}
	return immediate
}

func (s *Service) processLoop() {
	defer close(s.done)
	for job := range s.pending {
		ex := s.explainer.Explain(job.ctx, job.question, job.conceptName, job.optionID)
		if ex.Source != SourceLLM || job.cb == nil {
			continue
		}
		job.cb(ex)
	}
}

// Close stops the worker after the queued explanations finish. Request
// must not be called afterwards.
func (s *Service) Close() {
	s.closeOnce.Do(func() {
		close(s.pending)
	})
	<-s.done
}
