// Package session is the practice engine facade. A Service serves one
// student: it records attempts through the ledger, derives stars, updates
// mastery and chooses the next question.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/abhisek/adaptiq/internal/content"
	"github.com/abhisek/adaptiq/internal/ledger"
	"github.com/abhisek/adaptiq/internal/logger"
	"github.com/abhisek/adaptiq/internal/mastery"
	"github.com/abhisek/adaptiq/internal/selector"
	"github.com/abhisek/adaptiq/internal/stars"
	"github.com/abhisek/adaptiq/internal/store"
	"github.com/abhisek/adaptiq/internal/tracing"
)

// ErrSessionEnded is returned when an attempt targets a closed session. It
// always travels together with ledger.ErrNoActiveSession.
var ErrSessionEnded = errors.New("session has ended")

// ErrWrongStudent is returned when a session is used on behalf of a
// student it does not belong to.
var ErrWrongStudent = errors.New("session belongs to another student")

// Deps are the collaborators of a Service.
type Deps struct {
	Content  content.Repo
	Sessions store.SessionRepo
	History  store.HistoryRepo
	Events   store.EventRepo

	// Log and Tracer default to no-ops.
	Log    *logger.Logger
	Tracer trace.Tracer
}

// Service is the engine API for one student.
type Service struct {
	studentID string

	ledger   *ledger.Ledger
	pool     *content.Pool
	selector *selector.Selector
	tracker  *mastery.Tracker
	sessions store.SessionRepo
	events   store.EventRepo

	log    *logger.Logger
	tracer trace.Tracer
}

// NewService creates the engine for studentID. No session is current until
// StartSession or Restore is called.
func NewService(studentID string, deps Deps) *Service {
	log := deps.Log
	if log == nil {
		log = logger.Nop()
	}
	tracer := deps.Tracer
	if tracer == nil {
		tracer = tracing.Tracer()
	}
	return &Service{
		studentID: studentID,
		ledger:    ledger.New(deps.Sessions, deps.Content),
		pool:      content.NewPool(deps.Content),
		selector:  selector.New(deps.Content),
		tracker:   mastery.NewTracker(deps.History, deps.Content, deps.Events),
		sessions:  deps.Sessions,
		events:    deps.Events,
		log:       log.With("student_id", studentID),
		tracer:    tracer,
	}
}

// StudentID returns the student this service serves.
func (s *Service) StudentID() string {
	return s.studentID
}

// Tracker exposes the mastery tracker for read-only views.
func (s *Service) Tracker() *mastery.Tracker {
	return s.tracker
}

// Scored is everything that follows from recording one attempt.
type Scored struct {
	Attempt    *ledger.Attempt
	Question   *content.Question
	Star       stars.Star
	Mastery    mastery.ConceptMastery
	Transition *mastery.StateTransition
}

// Next runs the selector for conceptID against the attempts of sess.
func (s *Service) Next(ctx context.Context, conceptID string, sess *ledger.Session) (selector.Result, error) {
	attempts, err := s.ledger.AttemptsForConcept(ctx, sess, conceptID)
	if err != nil {
		return selector.Result{}, err
	}
	return s.selector.Next(ctx, conceptID, attempts)
}

// ComputeNextQuestion returns the next question for the concept, or nil
// with OutcomeNoContent or OutcomeExhausted. A session of another student
// fails with ErrWrongStudent. On error the outcome is OutcomeUnknown.
func (s *Service) ComputeNextQuestion(ctx context.Context, studentID, conceptID string, sess *ledger.Session) (*content.Question, selector.Outcome, error) {
	ctx, span := s.tracer.Start(ctx, "session.ComputeNextQuestion", trace.WithAttributes(
		attribute.String("student.id", studentID),
		attribute.String("concept.id", conceptID),
	))
	defer span.End()

	if sess != nil && sess.StudentID != studentID {
		err := fmt.Errorf("session %s used for %s: %w", sess.ID, studentID, ErrWrongStudent)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, selector.OutcomeUnknown, err
	}

	res, err := s.Next(ctx, conceptID, sess)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, selector.OutcomeUnknown, fmt.Errorf("compute next question for %s: %w", conceptID, err)
	}
	span.SetAttributes(
		attribute.String("selector.outcome", res.Outcome.String()),
		attribute.String("selector.rule", res.Rule.String()),
		attribute.String("target.bloom", res.Target.Bloom.String()),
		attribute.String("target.difficulty", res.Target.Difficulty.String()),
	)

	if res.Question == nil {
		s.log.Debug("no question selected", "concept_id", conceptID, "outcome", res.Outcome.String())
		return nil, res.Outcome, nil
	}
	s.log.Debug("question selected",
		"concept_id", conceptID,
		"question_id", res.Question.ID,
		"rule", res.Rule.String(),
		"remaining", res.Remaining,
	)
	return res.Question, res.Outcome, nil
}

// RecordAndScore appends an attempt to sess and returns its star and the
// concept's updated mastery. A nil session fails with
// ledger.ErrNoActiveSession; an ended one also matches ErrSessionEnded.
func (s *Service) RecordAndScore(ctx context.Context, sess *ledger.Session, questionID string, isCorrect bool, selectedOptionID string) (*Scored, error) {
	ctx, span := s.tracer.Start(ctx, "session.RecordAndScore", trace.WithAttributes(
		attribute.String("question.id", questionID),
		attribute.Bool("attempt.correct", isCorrect),
	))
	defer span.End()

	scored, err := s.recordAndScore(ctx, sess, questionID, isCorrect, selectedOptionID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(
		attribute.String("concept.id", scored.Question.ConceptID),
		attribute.String("star", string(scored.Star.Type)),
		attribute.Int("proficiency", scored.Mastery.ProficiencyScore),
	)
	return scored, nil
}

func (s *Service) recordAndScore(ctx context.Context, sess *ledger.Session, questionID string, isCorrect bool, selectedOptionID string) (*Scored, error) {
	if sess == nil {
		return nil, ledger.ErrNoActiveSession
	}
	if sess.Ended() {
		return nil, fmt.Errorf("session %s: %w: %w", sess.ID, ErrSessionEnded, ledger.ErrNoActiveSession)
	}

	q, err := s.pool.QuestionByID(ctx, questionID)
	if err != nil {
		return nil, err
	}

	a, err := s.ledger.Record(ctx, sess, questionID, isCorrect, selectedOptionID)
	if err != nil {
		if errors.Is(err, ledger.ErrNoActiveSession) {
			// Closed elsewhere; the close time is only known to the store.
			s.ledger.End(sess, time.Now().UTC())
			s.log.Warn("session closed in store", "session_id", sess.ID)
		}
		return nil, err
	}

	star := stars.FromAttempt(a, q.Difficulty)
	if s.events != nil {
		err := s.events.AppendStarEvent(ctx, store.StarEventData{
			StudentID:  sess.StudentID,
			SessionID:  sess.ID,
			AttemptID:  a.ID,
			QuestionID: q.ID,
			ConceptID:  q.ConceptID,
			StarType:   string(star.Type),
			Difficulty: q.Difficulty.String(),
		})
		if err != nil {
			return nil, fmt.Errorf("append star event: %w", err)
		}
	}

	cm, tr, err := s.tracker.AfterAttempt(ctx, sess.StudentID, sess.ID, q.ConceptID, a.ID)
	if err != nil {
		return nil, err
	}

	s.log.Info("attempt recorded",
		"session_id", sess.ID,
		"question_id", q.ID,
		"correct", isCorrect,
		"star", string(star.Type),
		"proficiency", cm.ProficiencyScore,
		"mastered", cm.Mastered,
	)
	if tr != nil {
		s.log.Info("mastery transition",
			"concept_id", tr.ConceptID,
			"from", string(tr.From),
			"to", string(tr.To),
			"trigger", tr.Trigger,
		)
	}

	return &Scored{Attempt: a, Question: q, Star: star, Mastery: cm, Transition: tr}, nil
}

// Answer grades selectedOptionID against the stored question and records
// the result.
func (s *Service) Answer(ctx context.Context, sess *ledger.Session, questionID, selectedOptionID string) (*Scored, error) {
	q, err := s.pool.QuestionByID(ctx, questionID)
	if err != nil {
		return nil, err
	}
	correct, err := q.Grade(selectedOptionID)
	if err != nil {
		return nil, err
	}
	return s.RecordAndScore(ctx, sess, questionID, correct, selectedOptionID)
}

// IsConceptMastered reports whether the student mastered the concept over
// all sessions.
func (s *Service) IsConceptMastered(ctx context.Context, studentID, conceptID string) (bool, error) {
	ctx, span := s.tracer.Start(ctx, "session.IsConceptMastered", trace.WithAttributes(
		attribute.String("student.id", studentID),
		attribute.String("concept.id", conceptID),
	))
	defer span.End()

	ok, err := s.tracker.IsMastered(ctx, studentID, conceptID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return false, err
	}
	span.SetAttributes(attribute.Bool("mastered", ok))
	return ok, nil
}

// Mastery returns the student's aggregate for the concept.
func (s *Service) Mastery(ctx context.Context, conceptID string) (mastery.ConceptMastery, error) {
	return s.tracker.Mastery(ctx, s.studentID, conceptID)
}
