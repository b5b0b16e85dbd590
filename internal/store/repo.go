package store

import (
	"context"
	"time"

	"github.com/abhisek/adaptiq/internal/content"
	"github.com/abhisek/adaptiq/internal/ledger"
)

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit  int       // max results (0 = unlimited)
	After  int64     // sequence > After
	Before int64     // sequence < Before
	From   time.Time // timestamp >= From
	To     time.Time // timestamp <= To
}

// ContentRepo reads the immutable question bank.
type ContentRepo interface {
	content.Repo

	// Chapters returns all chapters ordered by grade, subject and title.
	Chapters(ctx context.Context) ([]content.Chapter, error)

	// Chapter returns content.ErrNotFound when the chapter does not exist.
	Chapter(ctx context.Context, id string) (*content.Chapter, error)

	// Concept returns content.ErrNotFound when the concept does not exist.
	Concept(ctx context.Context, id string) (*content.Concept, error)

	// ConceptsByChapter returns the chapter's concepts by position.
	ConceptsByChapter(ctx context.Context, chapterID string) ([]content.Concept, error)

	// QuestionCounts returns the number of questions per concept of a chapter.
	QuestionCounts(ctx context.Context, chapterID string) (map[string]int, error)
}

// ContentWriter stores imported chapters. Questions are immutable, so
// saving an id that already exists leaves the stored copy untouched.
type ContentWriter interface {
	SaveChapter(ctx context.Context, ch content.Chapter, concepts []content.Concept, questions []content.Question) (*SaveResult, error)
}

// SaveResult reports what a SaveChapter call changed.
type SaveResult struct {
	ChapterCreated   bool
	ConceptsCreated  int
	QuestionsCreated int
	QuestionsSkipped int
}

// SessionRepo manages practice sessions and their append-only attempts.
type SessionRepo interface {
	ledger.Repo

	// StartSession opens a new session. Any session the student still has
	// open is ended first.
	StartSession(ctx context.Context, studentID, chapterID string) (*ledger.Session, error)

	// CurrentSession returns the student's open session, or nil if none.
	CurrentSession(ctx context.Context, studentID string) (*ledger.Session, error)

	// EndSession closes the session at the given time.
	EndSession(ctx context.Context, sessionID string, at time.Time) error

	// SessionsByStudent returns every session of the student, oldest first.
	SessionsByStudent(ctx context.Context, studentID string) ([]ledger.Session, error)
}

// HistoryRepo reads attempts across all sessions of a student.
type HistoryRepo interface {
	// AttemptsForConceptByStudent returns the student's attempts on the
	// concept's questions, joined with their Bloom level and difficulty,
	// in global order.
	AttemptsForConceptByStudent(ctx context.Context, studentID, conceptID string) ([]ledger.HistoricalAttempt, error)

	// AttemptsByStudent returns every attempt of the student in global order.
	AttemptsByStudent(ctx context.Context, studentID string) ([]ledger.HistoricalAttempt, error)

	// StudentsByChapter returns the ids of students with at least one
	// session in the chapter, sorted.
	StudentsByChapter(ctx context.Context, chapterID string) ([]string, error)
}

// StarEventData captures one star earned for an attempt.
type StarEventData struct {
	StudentID  string
	SessionID  string
	AttemptID  string
	QuestionID string
	ConceptID  string
	StarType   string
	Difficulty string
}

// StarEventRecord is a stored star event.
type StarEventRecord struct {
	ID        int
	Sequence  int64
	Timestamp time.Time
	StarEventData
}

// MasteryEventData captures a change of a concept's mastery state.
type MasteryEventData struct {
	StudentID        string
	SessionID        string
	ConceptID        string
	FromState        string
	ToState          string
	Trigger          string
	ProficiencyScore int
}

// MasteryEventRecord is a stored mastery event.
type MasteryEventRecord struct {
	ID        int
	Sequence  int64
	Timestamp time.Time
	MasteryEventData
}

// SessionEventData captures a session lifecycle change.
type SessionEventData struct {
	SessionID    string
	StudentID    string
	ChapterID    string
	Action       string // "start" or "end"
	Attempts     int
	Correct      int
	DurationSecs int
}

// LLMRequestEventData captures the data for a single LLM request event.
type LLMRequestEventData struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// LLMEventRecord is a stored LLM request event.
type LLMEventRecord struct {
	ID        int
	Sequence  int64
	Timestamp time.Time
	LLMRequestEventData
}

// LLMQueryOpts filters LLM events.
type LLMQueryOpts struct {
	QueryOpts
	Purpose string
}

// LLMUsage aggregates LLM calls by purpose or model.
type LLMUsage struct {
	Purpose      string
	Model        string
	Calls        int
	InputTokens  int
	OutputTokens int
	AvgLatencyMs int64
}

// EventRepo provides append and query access to domain events.
type EventRepo interface {
	// AppendStarEvent records a star earned for an attempt.
	AppendStarEvent(ctx context.Context, data StarEventData) error

	// StarsForSession returns the session's stars in the order earned.
	StarsForSession(ctx context.Context, sessionID string) ([]StarEventRecord, error)

	// StarsForStudent returns the student's latest stars, oldest first.
	// A limit of 0 returns all of them.
	StarsForStudent(ctx context.Context, studentID string, limit int) ([]StarEventRecord, error)

	// AppendMasteryEvent records a mastery state transition.
	AppendMasteryEvent(ctx context.Context, data MasteryEventData) error

	// MasteryEvents returns the student's mastery transitions in order.
	MasteryEvents(ctx context.Context, studentID string) ([]MasteryEventRecord, error)

	// AppendSessionEvent records a session start or end.
	AppendSessionEvent(ctx context.Context, data SessionEventData) error

	// AppendLLMRequest records an LLM API call event.
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error

	// QueryLLMEvents returns LLM events, newest first.
	QueryLLMEvents(ctx context.Context, opts LLMQueryOpts) ([]LLMEventRecord, error)

	// GetLLMEvent returns one LLM event, or nil if it does not exist.
	GetLLMEvent(ctx context.Context, id int) (*LLMEventRecord, error)

	// LLMUsageByPurpose aggregates LLM usage per purpose.
	LLMUsageByPurpose(ctx context.Context) ([]LLMUsage, error)

	// LLMUsageByModel aggregates LLM usage per model.
	LLMUsageByModel(ctx context.Context) ([]LLMUsage, error)
}
