package analytics

import (
	"bytes"
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/abhisek/adaptiq/internal/content"
	"github.com/abhisek/adaptiq/internal/content/contenttest"
	"github.com/abhisek/adaptiq/internal/store"
)

type fixture struct {
	store *store.Store
	svc   *Service
}

// newFixture seeds chapter ch-1 (addition, subtraction, multiplication)
// and two students:
//
//	alice: add-1 ✓, add-2 ✗(b), add-3 ✓, sub-1 ✗(c); session ended after 10m
//	bob:   add-1 ✗(d), add-2 ✗(b), sub-1 ✓; session still open
func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	s, err := store.OpenSQLite(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	ch := content.Chapter{ID: "ch-1", Title: "Operations", Grade: 3}
	concepts := []content.Concept{
		{ID: "add", ChapterID: "ch-1", Name: "Addition", Position: 0},
		{ID: "sub", ChapterID: "ch-1", Name: "Subtraction", Position: 1},
		{ID: "mul", ChapterID: "ch-1", Name: "Multiplication", Position: 2},
	}
	qs := []content.Question{
		contenttest.Question("add-1", "add", content.BloomRecall, content.Easy),
		contenttest.Question("add-2", "add", content.BloomRecall, content.Medium),
		contenttest.Question("add-3", "add", content.BloomRecall, content.Hard),
		contenttest.Question("sub-1", "sub", content.BloomRecall, content.Easy),
		contenttest.Question("mul-1", "mul", content.BloomRecall, content.Easy),
	}
	_, err = s.ContentWriter().SaveChapter(ctx, ch, concepts, qs)
	require.NoError(t, err)

	sessions := s.SessionRepo()
	record := func(sessionID, questionID string, correct bool, option string) {
		_, err := sessions.AppendAttempt(ctx, sessionID, questionID, correct, questionID+"-"+option)
		require.NoError(t, err)
	}

	alice, err := sessions.StartSession(ctx, "alice", "ch-1")
	require.NoError(t, err)
	record(alice.ID, "add-1", true, "a")
	record(alice.ID, "add-2", false, "b")
	record(alice.ID, "add-3", true, "a")
	record(alice.ID, "sub-1", false, "c")
	require.NoError(t, sessions.EndSession(ctx, alice.ID, alice.StartedAt.Add(10*time.Minute)))

	bob, err := sessions.StartSession(ctx, "bob", "ch-1")
	require.NoError(t, err)
	record(bob.ID, "add-1", false, "d")
	record(bob.ID, "add-2", false, "b")
	record(bob.ID, "sub-1", true, "a")

	return &fixture{
		store: s,
		svc:   NewService(s.ContentRepo(), sessions, s.HistoryRepo(), nil),
	}
}

func TestStudentAnalytics(t *testing.T) {
	f := newFixture(t)

	got, err := f.svc.StudentAnalytics(context.Background(), "alice")
	require.NoError(t, err)

	assert.Equal(t, 4, got.TotalAttempts)
	assert.Equal(t, 2, got.CorrectAttempts)
	assert.InDelta(t, 600, got.TimeSpentSecs, 1)
	assert.Equal(t, []string{"calculation-error", "overgeneralization"}, got.MisconceptionsEncountered)

	require.Len(t, got.ConceptMasteries, 2)
	add := got.ConceptMasteries[0]
	assert.Equal(t, "add", add.ConceptID)
	assert.Equal(t, "Addition", add.ConceptName)
	assert.Equal(t, 3, add.TotalStars)
	assert.Equal(t, 2, add.ColoredStars)
	assert.Equal(t, 67, add.ProficiencyScore)
	assert.True(t, add.Mastered, "a correct Hard answer masters the concept")

	sub := got.ConceptMasteries[1]
	assert.Equal(t, "sub", sub.ConceptID)
	assert.Equal(t, 0, sub.ProficiencyScore)
	assert.False(t, sub.Mastered)
}

func TestStudentAnalyticsOpenSessionHasNoTime(t *testing.T) {
	f := newFixture(t)

	got, err := f.svc.StudentAnalytics(context.Background(), "bob")
	require.NoError(t, err)
	assert.Zero(t, got.TimeSpent)
	assert.Equal(t, 3, got.TotalAttempts)
	assert.Equal(t, []string{"calculation-error"}, got.MisconceptionsEncountered)
}

func TestStudentAnalyticsUnknownStudent(t *testing.T) {
	f := newFixture(t)

	got, err := f.svc.StudentAnalytics(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Equal(t, "nobody", got.StudentID)
	assert.Empty(t, got.ConceptMasteries)
	assert.Empty(t, got.MisconceptionsEncountered)
	assert.Zero(t, got.TotalAttempts)
}

func TestClassAnalytics(t *testing.T) {
	f := newFixture(t)
	f.svc.Concurrency = 1

	got, err := f.svc.ClassAnalytics(context.Background(), "ch-1")
	require.NoError(t, err)
	assert.Equal(t, 2, got.Students)

	assert.Equal(t, []HeatmapEntry{
		{ConceptID: "add", ConceptName: "Addition", AverageProficiency: 34, Students: 2},
		{ConceptID: "sub", ConceptName: "Subtraction", AverageProficiency: 50, Students: 2},
		{ConceptID: "mul", ConceptName: "Multiplication", AverageProficiency: 0, Students: 0},
	}, got.ConceptHeatmap)

	assert.Equal(t, []HardestEntry{
		{ConceptID: "add", ConceptName: "Addition", AverageAttempts: 2.5},
		{ConceptID: "sub", ConceptName: "Subtraction", AverageAttempts: 1},
		{ConceptID: "mul", ConceptName: "Multiplication", AverageAttempts: 0},
	}, got.HardestConcepts)

	assert.Equal(t, []Intervention{
		{ConceptID: "mul", ConceptName: "Multiplication", Reason: "Low class proficiency (0%)"},
		{ConceptID: "add", ConceptName: "Addition", Reason: "Low class proficiency (34%)"},
	}, got.SuggestedInterventions)
}

func TestClassAnalyticsUnknownChapter(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.ClassAnalytics(context.Background(), "nope")
	assert.True(t, content.IsNotFound(err))
}

func TestInterventionsTopThree(t *testing.T) {
	heat := []HeatmapEntry{
		{ConceptID: "a", AverageProficiency: 40},
		{ConceptID: "b", AverageProficiency: 10},
		{ConceptID: "c", AverageProficiency: 49},
		{ConceptID: "d", AverageProficiency: 20},
		{ConceptID: "e", AverageProficiency: 50},
	}
	got := interventions(heat)
	require.Len(t, got, 3)
	assert.Equal(t, "b", got[0].ConceptID)
	assert.Equal(t, "d", got[1].ConceptID)
	assert.Equal(t, "a", got[2].ConceptID)
}

func TestExportXLSX(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	class, err := f.svc.ClassAnalytics(ctx, "ch-1")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, ExportXLSX(&buf, content.Chapter{ID: "ch-1", Title: "=Operations"}, class))

	wb, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer wb.Close()

	assert.Equal(t, []string{SheetHeatmap, SheetHardest, SheetInterventions}, wb.GetSheetList())

	heat, err := wb.GetRows(SheetHeatmap)
	require.NoError(t, err)
	assert.Equal(t, "'=Operations", heat[0][1])
	assert.Equal(t, []string{"add", "Addition", "34", "2"}, heat[3])

	hard, err := wb.GetRows(SheetHardest)
	require.NoError(t, err)
	require.Len(t, hard, 4)
	assert.Equal(t, "2.5", hard[1][2])

	iv, err := wb.GetRows(SheetInterventions)
	require.NoError(t, err)
	require.Len(t, iv, 3)
	assert.Equal(t, "Low class proficiency (0%)", iv[1][2])
}
