package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/adaptiq/internal/content"
	"github.com/abhisek/adaptiq/internal/content/contenttest"
	"github.com/abhisek/adaptiq/internal/ledger"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	s, err := OpenSQLite(context.Background(), dsn)
	require.NoError(t, err, "open test store")
	t.Cleanup(func() { s.Close() })
	return s
}

// seedChapter stores a chapter with two concepts: "fractions" with the full
// twelve-question grid and "decimals" with a single question.
func seedChapter(t *testing.T, s *Store) {
	t.Helper()
	ch := content.Chapter{ID: "ch-1", Title: "Numbers", Subject: "math", Grade: 5}
	concepts := []content.Concept{
		{ID: "fractions", ChapterID: "ch-1", Name: "Fractions", Position: 0},
		{ID: "decimals", ChapterID: "ch-1", Name: "Decimals", Position: 1},
	}
	qs := contenttest.Grid("fractions")
	qs = append(qs, contenttest.Question("dec-1", "decimals", content.BloomRecall, content.Easy))

	res, err := s.ContentWriter().SaveChapter(context.Background(), ch, concepts, qs)
	require.NoError(t, err)
	require.True(t, res.ChapterCreated)
	require.Equal(t, 13, res.QuestionsCreated)
}

func TestOpenUnsupportedDriver(t *testing.T) {
	_, err := Open(context.Background(), Options{Driver: "oracle", DSN: "x"})
	assert.ErrorContains(t, err, "unsupported database driver")
}

func TestPragmasApplied(t *testing.T) {
	s := openTestStore(t)
	db := s.DB()

	tests := []struct {
		pragma string
		want   string
	}{
		// WAL mode falls back to "memory" for in-memory databases,
		// so journal_mode is not checked here.
		{"foreign_keys", "1"},
		{"synchronous", "1"}, // NORMAL = 1
	}

	for _, tt := range tests {
		var got string
		err := db.QueryRow("PRAGMA " + tt.pragma).Scan(&got)
		require.NoError(t, err, "PRAGMA %s", tt.pragma)
		assert.Equal(t, tt.want, got, "PRAGMA %s", tt.pragma)
	}
	assert.Equal(t, "sqlite3", s.Dialect())
}

func TestSequenceMonotonic(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	var prev int64
	for i := 0; i < 5; i++ {
		n, err := s.seq.Next(ctx)
		require.NoError(t, err)
		assert.Greater(t, n, prev)
		prev = n
	}
}

func TestContentRoundTrip(t *testing.T) {
	s := openTestStore(t)
	seedChapter(t, s)
	repo := s.ContentRepo()
	ctx := context.Background()

	qs, err := repo.QuestionsByConcept(ctx, "fractions")
	require.NoError(t, err)
	require.Len(t, qs, 12)
	for i := 1; i < len(qs); i++ {
		assert.Less(t, qs[i-1].ID, qs[i].ID, "questions ordered by id")
	}

	q, err := repo.QuestionByID(ctx, contenttest.GridID(content.BloomApplication, content.Hard))
	require.NoError(t, err)
	assert.Equal(t, "fractions", q.ConceptID)
	assert.Equal(t, content.BloomApplication, q.Bloom)
	assert.Equal(t, content.Hard, q.Difficulty)
	require.Len(t, q.Options, content.OptionsPerQuestion)
	assert.Equal(t, q.ID+"-a", q.Options[0].ID, "options keep display order")
	assert.True(t, q.Options[0].IsCorrect)
	assert.Equal(t, "calculation-error", q.Options[1].MisconceptionTag)
	assert.Empty(t, q.Options[3].MisconceptionTag)

	name, err := repo.ConceptName(ctx, "decimals")
	require.NoError(t, err)
	assert.Equal(t, "Decimals", name)

	cs, err := repo.ConceptsByChapter(ctx, "ch-1")
	require.NoError(t, err)
	require.Len(t, cs, 2)
	assert.Equal(t, "fractions", cs[0].ID)
	assert.Equal(t, "decimals", cs[1].ID)

	chs, err := repo.Chapters(ctx)
	require.NoError(t, err)
	require.Len(t, chs, 1)
	assert.Equal(t, content.Chapter{ID: "ch-1", Title: "Numbers", Subject: "math", Grade: 5}, chs[0])
}

func TestContentNotFound(t *testing.T) {
	s := openTestStore(t)
	seedChapter(t, s)
	repo := s.ContentRepo()
	ctx := context.Background()

	_, err := repo.QuestionsByConcept(ctx, "missing")
	assert.True(t, content.IsNotFound(err))

	_, err = repo.QuestionByID(ctx, "missing")
	assert.True(t, content.IsNotFound(err))

	_, err = repo.ConceptName(ctx, "missing")
	assert.True(t, content.IsNotFound(err))

	_, err = repo.Chapter(ctx, "missing")
	assert.True(t, content.IsNotFound(err))
}

func TestSaveChapterSkipsExistingQuestions(t *testing.T) {
	s := openTestStore(t)
	seedChapter(t, s)
	ctx := context.Background()

	// Re-importing must not overwrite an existing question.
	changed := contenttest.Question(contenttest.GridID(content.BloomRecall, content.Easy), "fractions",
		content.BloomRecall, content.Easy)
	changed.Stem = "rewritten"
	extra := contenttest.Question("frac-extra", "fractions", content.BloomRecall, content.Easy)

	res, err := s.ContentWriter().SaveChapter(ctx,
		content.Chapter{ID: "ch-1", Title: "Numbers"},
		[]content.Concept{{ID: "fractions", ChapterID: "ch-1", Name: "Fractions"}},
		[]content.Question{changed, extra})
	require.NoError(t, err)
	assert.False(t, res.ChapterCreated)
	assert.Equal(t, 0, res.ConceptsCreated)
	assert.Equal(t, 1, res.QuestionsCreated)
	assert.Equal(t, 1, res.QuestionsSkipped)

	q, err := s.ContentRepo().QuestionByID(ctx, changed.ID)
	require.NoError(t, err)
	assert.Equal(t, "Question "+changed.ID, q.Stem)
	assert.Len(t, q.Options, content.OptionsPerQuestion)
}

func TestQuestionCounts(t *testing.T) {
	s := openTestStore(t)
	seedChapter(t, s)

	counts, err := s.ContentRepo().QuestionCounts(context.Background(), "ch-1")
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"fractions": 12, "decimals": 1}, counts)

	counts, err = s.ContentRepo().QuestionCounts(context.Background(), "other")
	require.NoError(t, err)
	assert.Empty(t, counts)
}

func TestSessionLifecycle(t *testing.T) {
	s := openTestStore(t)
	seedChapter(t, s)
	repo := s.SessionRepo()
	ctx := context.Background()

	cur, err := repo.CurrentSession(ctx, "alice")
	require.NoError(t, err)
	assert.Nil(t, cur)

	first, err := repo.StartSession(ctx, "alice", "ch-1")
	require.NoError(t, err)

	cur, err = repo.CurrentSession(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, cur)
	assert.Equal(t, first.ID, cur.ID)
	assert.False(t, cur.Ended())

	// Starting again ends the open session.
	second, err := repo.StartSession(ctx, "alice", "ch-1")
	require.NoError(t, err)
	cur, err = repo.CurrentSession(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, cur)
	assert.Equal(t, second.ID, cur.ID)

	require.NoError(t, repo.EndSession(ctx, second.ID, time.Now()))
	require.NoError(t, repo.EndSession(ctx, second.ID, time.Now()), "ending twice is a no-op")

	cur, err = repo.CurrentSession(ctx, "alice")
	require.NoError(t, err)
	assert.Nil(t, cur)

	all, err := repo.SessionsByStudent(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, all, 2)
	for _, sess := range all {
		assert.True(t, sess.Ended(), "session %s ended", sess.ID)
	}

	err = repo.EndSession(ctx, "nope", time.Now())
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestAttemptsAppendOnlyOrder(t *testing.T) {
	s := openTestStore(t)
	seedChapter(t, s)
	repo := s.SessionRepo()
	ctx := context.Background()

	sess, err := repo.StartSession(ctx, "alice", "ch-1")
	require.NoError(t, err)

	ids := []string{
		contenttest.GridID(content.BloomRecall, content.Easy),
		contenttest.GridID(content.BloomConceptual, content.Easy),
		"dec-1",
	}
	for i, id := range ids {
		_, err := repo.AppendAttempt(ctx, sess.ID, id, i%2 == 0, id+"-a")
		require.NoError(t, err)
	}
	_, err = repo.AppendAttempt(ctx, sess.ID, ids[0], false, "")
	require.NoError(t, err)

	got, err := repo.Attempts(ctx, sess.ID)
	require.NoError(t, err)
	require.Len(t, got, 4)
	for i := 1; i < len(got); i++ {
		assert.Greater(t, got[i].Sequence, got[i-1].Sequence)
	}
	assert.Equal(t, ids[0], got[0].QuestionID)
	assert.True(t, got[0].IsCorrect)
	assert.Equal(t, ids[0]+"-a", got[0].SelectedOptionID)
	assert.Empty(t, got[3].SelectedOptionID)
}

func TestAppendAttemptRequiresOpenSession(t *testing.T) {
	s := openTestStore(t)
	seedChapter(t, s)
	repo := s.SessionRepo()
	ctx := context.Background()
	easy := contenttest.GridID(content.BloomRecall, content.Easy)

	sess, err := repo.StartSession(ctx, "alice", "ch-1")
	require.NoError(t, err)
	_, err = repo.AppendAttempt(ctx, sess.ID, easy, true, easy+"-a")
	require.NoError(t, err)
	require.NoError(t, repo.EndSession(ctx, sess.ID, time.Now()))

	_, err = repo.AppendAttempt(ctx, sess.ID, easy, false, easy+"-b")
	assert.ErrorIs(t, err, ledger.ErrNoActiveSession)

	// A session replaced by a newer one is closed too.
	old, err := repo.StartSession(ctx, "bob", "ch-1")
	require.NoError(t, err)
	_, err = repo.StartSession(ctx, "bob", "ch-1")
	require.NoError(t, err)
	_, err = repo.AppendAttempt(ctx, old.ID, easy, true, easy+"-a")
	assert.ErrorIs(t, err, ledger.ErrNoActiveSession)

	_, err = repo.AppendAttempt(ctx, "missing", easy, true, easy+"-a")
	assert.ErrorIs(t, err, ledger.ErrNoActiveSession)

	got, err := repo.Attempts(ctx, sess.ID)
	require.NoError(t, err)
	assert.Len(t, got, 1, "nothing lands in an ended session")
	got, err = repo.Attempts(ctx, old.ID)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestHistoryAcrossSessions(t *testing.T) {
	s := openTestStore(t)
	seedChapter(t, s)
	repo := s.SessionRepo()
	ctx := context.Background()

	medium := contenttest.GridID(content.BloomRecall, content.Medium)

	s1, err := repo.StartSession(ctx, "alice", "ch-1")
	require.NoError(t, err)
	_, err = repo.AppendAttempt(ctx, s1.ID, medium, true, medium+"-a")
	require.NoError(t, err)
	_, err = repo.AppendAttempt(ctx, s1.ID, "dec-1", true, "dec-1-a")
	require.NoError(t, err)

	s2, err := repo.StartSession(ctx, "alice", "ch-1")
	require.NoError(t, err)
	_, err = repo.AppendAttempt(ctx, s2.ID, medium, false, medium+"-b")
	require.NoError(t, err)

	bob, err := repo.StartSession(ctx, "bob", "ch-1")
	require.NoError(t, err)
	_, err = repo.AppendAttempt(ctx, bob.ID, medium, true, medium+"-a")
	require.NoError(t, err)

	hist := s.HistoryRepo()
	got, err := hist.AttemptsForConceptByStudent(ctx, "alice", "fractions")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, s1.ID, got[0].SessionID)
	assert.Equal(t, s2.ID, got[1].SessionID)
	assert.Equal(t, content.Medium, got[0].Difficulty)
	assert.Equal(t, content.BloomRecall, got[0].Bloom)
	assert.Equal(t, "alice", got[0].StudentID)
	assert.Equal(t, "fractions", got[0].ConceptID)

	all, err := hist.AttemptsByStudent(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	students, err := hist.StudentsByChapter(ctx, "ch-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob"}, students)
}

func TestLedgerOverStore(t *testing.T) {
	s := openTestStore(t)
	seedChapter(t, s)
	ctx := context.Background()

	sess, err := s.SessionRepo().StartSession(ctx, "alice", "ch-1")
	require.NoError(t, err)

	l := ledger.New(s.SessionRepo(), s.ContentRepo())
	_, err = l.Record(ctx, sess, "dec-1", true, "dec-1-a")
	require.NoError(t, err)
	_, err = l.Record(ctx, sess, contenttest.GridID(content.BloomRecall, content.Easy), false, "")
	require.NoError(t, err)

	got, err := l.AttemptsForConcept(ctx, sess, "fractions")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.False(t, got[0].IsCorrect)

	got, err = l.AttemptsForConcept(ctx, sess, "missing")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestStarEvents(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	types := []string{"white", "bronze", "silver", "gold"}
	for i, st := range types {
		require.NoError(t, repo.AppendStarEvent(ctx, StarEventData{
			StudentID:  "alice",
			SessionID:  "s-1",
			AttemptID:  fmt.Sprintf("a-%d", i),
			QuestionID: "q",
			ConceptID:  "fractions",
			StarType:   st,
			Difficulty: "easy",
		}))
	}
	require.NoError(t, repo.AppendStarEvent(ctx, StarEventData{StudentID: "bob", SessionID: "s-2", StarType: "gold"}))

	sess, err := repo.StarsForSession(ctx, "s-1")
	require.NoError(t, err)
	require.Len(t, sess, 4)
	for i, e := range sess {
		assert.Equal(t, types[i], e.StarType)
	}

	latest, err := repo.StarsForStudent(ctx, "alice", 2)
	require.NoError(t, err)
	require.Len(t, latest, 2)
	assert.Equal(t, "silver", latest[0].StarType, "oldest of the latest two first")
	assert.Equal(t, "gold", latest[1].StarType)

	all, err := repo.StarsForStudent(ctx, "alice", 0)
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestMasteryEvents(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	require.NoError(t, repo.AppendMasteryEvent(ctx, MasteryEventData{
		StudentID: "alice", SessionID: "s-1", ConceptID: "fractions",
		FromState: "new", ToState: "learning", Trigger: "first-attempt", ProficiencyScore: 0,
	}))
	require.NoError(t, repo.AppendMasteryEvent(ctx, MasteryEventData{
		StudentID: "alice", SessionID: "s-1", ConceptID: "fractions",
		FromState: "learning", ToState: "mastered", Trigger: "mastery-threshold", ProficiencyScore: 67,
	}))

	got, err := repo.MasteryEvents(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "learning", got[0].ToState)
	assert.Equal(t, "mastered", got[1].ToState)
	assert.Equal(t, "mastery-threshold", got[1].Trigger)
	assert.Equal(t, 67, got[1].ProficiencyScore)
	assert.Less(t, got[0].Sequence, got[1].Sequence)

	none, err := repo.MasteryEvents(ctx, "bob")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSessionEvents(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	require.NoError(t, repo.AppendSessionEvent(ctx, SessionEventData{
		SessionID: "s-1", StudentID: "alice", ChapterID: "ch-1", Action: "start",
	}))
	require.NoError(t, repo.AppendSessionEvent(ctx, SessionEventData{
		SessionID: "s-1", StudentID: "alice", ChapterID: "ch-1", Action: "end",
		Attempts: 5, Correct: 3, DurationSecs: 120,
	}))

	var n int
	require.NoError(t, s.DB().QueryRow("SELECT COUNT(*) FROM session_events").Scan(&n))
	assert.Equal(t, 2, n)
}

func TestLLMEvents(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	events := []LLMRequestEventData{
		{Provider: "openai", Model: "gpt-4o-mini", Purpose: "misconception", InputTokens: 100, OutputTokens: 20, LatencyMs: 300, Success: true},
		{Provider: "openai", Model: "gpt-4o-mini", Purpose: "misconception", InputTokens: 200, OutputTokens: 40, LatencyMs: 500, Success: true},
		{Provider: "gemini", Model: "gemini-2.0-flash", Purpose: "hint", InputTokens: 50, OutputTokens: 10, LatencyMs: 100, ErrorMessage: "boom"},
	}
	for _, e := range events {
		require.NoError(t, repo.AppendLLMRequest(ctx, e))
	}

	all, err := repo.QueryLLMEvents(ctx, LLMQueryOpts{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "hint", all[0].Purpose, "newest first")

	filtered, err := repo.QueryLLMEvents(ctx, LLMQueryOpts{Purpose: "misconception", QueryOpts: QueryOpts{Limit: 1}})
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, 200, filtered[0].InputTokens)

	after, err := repo.QueryLLMEvents(ctx, LLMQueryOpts{QueryOpts: QueryOpts{After: all[1].Sequence}})
	require.NoError(t, err)
	require.Len(t, after, 1)
	assert.Equal(t, all[0].ID, after[0].ID)

	ev, err := repo.GetLLMEvent(ctx, all[2].ID)
	require.NoError(t, err)
	require.NotNil(t, ev)
	assert.Equal(t, "openai", ev.Provider)
	assert.True(t, ev.Success)

	missing, err := repo.GetLLMEvent(ctx, 9999)
	require.NoError(t, err)
	assert.Nil(t, missing)

	byPurpose, err := repo.LLMUsageByPurpose(ctx)
	require.NoError(t, err)
	usage := make(map[string]LLMUsage)
	for _, u := range byPurpose {
		usage[u.Purpose] = u
	}
	require.Contains(t, usage, "misconception")
	assert.Equal(t, 2, usage["misconception"].Calls)
	assert.Equal(t, 300, usage["misconception"].InputTokens)
	assert.Equal(t, 60, usage["misconception"].OutputTokens)
	assert.Equal(t, int64(400), usage["misconception"].AvgLatencyMs)

	byModel, err := repo.LLMUsageByModel(ctx)
	require.NoError(t, err)
	assert.Len(t, byModel, 2)
}
