package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/abhisek/adaptiq/internal/analytics"
	"github.com/abhisek/adaptiq/internal/content"
	"github.com/abhisek/adaptiq/internal/content/contenttest"
	"github.com/abhisek/adaptiq/internal/llm"
	"github.com/abhisek/adaptiq/internal/misconception"
	"github.com/abhisek/adaptiq/internal/session"
	"github.com/abhisek/adaptiq/internal/store"
)

type testServer struct {
	*httptest.Server
	store *store.Store
	llm   *llm.MockProvider
}

// newTestServer serves chapter ch-1 with concept "fractions" holding the
// twelve-question grid.
func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ctx := context.Background()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	s, err := store.OpenSQLite(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	_, err = s.ContentWriter().SaveChapter(ctx,
		content.Chapter{ID: "ch-1", Title: "Fractions", Grade: 4},
		[]content.Concept{{ID: "fractions", ChapterID: "ch-1", Name: "Fractions"}},
		contenttest.Grid("fractions"))
	require.NoError(t, err)

	mock := llm.NewMockProvider()
	explainer := misconception.NewService(misconception.NewExplainer(mock, misconception.DefaultExplainerConfig(), nil), nil)
	t.Cleanup(explainer.Close)

	srv := New(Deps{
		Content: s.ContentRepo(),
		Registry: session.NewRegistry(session.Deps{
			Content:  s.ContentRepo(),
			Sessions: s.SessionRepo(),
			History:  s.HistoryRepo(),
			Events:   s.EventRepo(),
		}),
		Analytics:      analytics.NewService(s.ContentRepo(), s.SessionRepo(), s.HistoryRepo(), nil),
		Misconceptions: explainer,
	}, Config{})

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return &testServer{Server: ts, store: s, llm: mock}
}

func (ts *testServer) do(t *testing.T, method, path string, body any) (*http.Response, []byte) {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, ts.URL+path, rd)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func decodeInto[T any](t *testing.T, data []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(data, &v), string(data))
	return v
}

type nextBody struct {
	Outcome   string `json:"outcome"`
	SessionID string `json:"session_id"`
	Question  *struct {
		ID         string `json:"id"`
		Bloom      string `json:"bloom_level"`
		Difficulty string `json:"difficulty"`
		Options    []map[string]any
	} `json:"question"`
}

type attemptBody struct {
	Correct bool `json:"correct"`
	Star    struct {
		Type string `json:"type"`
		Name string `json:"name"`
	} `json:"star"`
	Mastery struct {
		ProficiencyScore int  `json:"proficiency_score"`
		Mastered         bool `json:"mastered"`
	} `json:"mastery"`
	Transition *struct {
		To string `json:"to"`
	} `json:"transition"`
	Explanation *struct {
		Tag    string `json:"misconception_tag"`
		Source string `json:"source"`
		Text   string `json:"text"`
	} `json:"explanation"`
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t)
	resp, body := ts.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))
}

func TestChaptersAndConcepts(t *testing.T) {
	ts := newTestServer(t)

	resp, body := ts.do(t, http.MethodGet, "/chapters", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	chs := decodeInto[[]content.Chapter](t, body)
	require.Len(t, chs, 1)
	assert.Equal(t, "Fractions", chs[0].Title)

	resp, body = ts.do(t, http.MethodGet, "/chapters/ch-1/concepts", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	concepts := decodeInto[[]map[string]any](t, body)
	require.Len(t, concepts, 1)
	assert.Equal(t, "fractions", concepts[0]["id"])
	assert.EqualValues(t, 12, concepts[0]["questions"])

	resp, _ = ts.do(t, http.MethodGet, "/chapters/nope/concepts", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAttemptWithoutSessionConflicts(t *testing.T) {
	ts := newTestServer(t)

	resp, body := ts.do(t, http.MethodPost, "/students/alice/attempts", attemptReq{
		QuestionID: contenttest.GridID(content.BloomRecall, content.Easy), SelectedOptionID: "q-1-1-a",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode, string(body))

	resp, _ = ts.do(t, http.MethodDelete, "/students/alice/sessions/current", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestStartSessionValidation(t *testing.T) {
	ts := newTestServer(t)

	resp, _ := ts.do(t, http.MethodPost, "/students/alice/sessions", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = ts.do(t, http.MethodPost, "/students/alice/sessions", map[string]string{"chapter_id": "nope"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = ts.do(t, http.MethodPost, "/students/alice/sessions", map[string]string{"chapter": "ch-1"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "unknown fields are rejected")
}

func TestPracticeFlow(t *testing.T) {
	ts := newTestServer(t)

	resp, body := ts.do(t, http.MethodPost, "/students/alice/sessions", map[string]string{"chapter_id": "ch-1"})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	sess := decodeInto[map[string]any](t, body)
	sessionID := sess["id"].(string)

	// First question is (recall, easy) and hides correctness.
	resp, body = ts.do(t, http.MethodGet, "/students/alice/concepts/fractions/next", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	next := decodeInto[nextBody](t, body)
	assert.Equal(t, "selected", next.Outcome)
	assert.Equal(t, sessionID, next.SessionID)
	require.NotNil(t, next.Question)
	assert.Equal(t, "q-1-1", next.Question.ID)
	assert.Equal(t, "recall", next.Question.Bloom)
	assert.Equal(t, "easy", next.Question.Difficulty)
	require.Len(t, next.Question.Options, 4)
	assert.NotContains(t, next.Question.Options[0], "is_correct")

	// A wrong answer gets a white star and a fallback explanation.
	ts.llm.AddResponse(llm.MockResponse{Err: &llm.Error{Kind: llm.KindUnavailable}})
	resp, body = ts.do(t, http.MethodPost, "/students/alice/attempts", attemptReq{QuestionID: "q-1-1", SelectedOptionID: "q-1-1-b"})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	att := decodeInto[attemptBody](t, body)
	assert.False(t, att.Correct)
	assert.Equal(t, "white", att.Star.Type)
	require.NotNil(t, att.Explanation)
	assert.Equal(t, "calculation-error", att.Explanation.Tag)
	assert.Equal(t, "fallback", att.Explanation.Source)

	// Incorrect at (recall, easy) holds the target: next unattempted
	// recall question at the nearest difficulty.
	resp, body = ts.do(t, http.MethodGet, "/students/alice/concepts/fractions/next", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	next = decodeInto[nextBody](t, body)
	require.NotNil(t, next.Question)
	assert.NotEqual(t, "q-1-1", next.Question.ID)

	// A correct hard answer masters the concept on its own.
	resp, body = ts.do(t, http.MethodPost, "/students/alice/attempts", attemptReq{QuestionID: "q-1-3", SelectedOptionID: "q-1-3-a"})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	att = decodeInto[attemptBody](t, body)
	assert.True(t, att.Correct)
	assert.Equal(t, "gold", att.Star.Type)
	assert.Nil(t, att.Explanation)
	assert.Equal(t, 50, att.Mastery.ProficiencyScore)
	assert.True(t, att.Mastery.Mastered)
	require.NotNil(t, att.Transition)
	assert.Equal(t, "mastered", att.Transition.To)

	resp, body = ts.do(t, http.MethodGet, "/students/alice/concepts/fractions/mastery", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	m := decodeInto[map[string]any](t, body)
	assert.Equal(t, true, m["mastered"])
	assert.EqualValues(t, 2, m["total_stars"])

	resp, _ = ts.do(t, http.MethodGet, "/students/alice/concepts/nope/mastery", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// Ending the session returns its summary.
	resp, body = ts.do(t, http.MethodDelete, "/students/alice/sessions/current", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	sum := decodeInto[summaryView](t, body)
	assert.Equal(t, sessionID, sum.SessionID)
	assert.Equal(t, 2, sum.TotalAttempts)
	assert.Equal(t, 1, sum.TotalCorrect)
	require.Len(t, sum.Concepts, 1)
	assert.True(t, sum.Concepts[0].Mastered)

	resp, _ = ts.do(t, http.MethodPost, "/students/alice/attempts", attemptReq{QuestionID: "q-1-2", SelectedOptionID: "q-1-2-a"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestUnknownOptionIsNotFound(t *testing.T) {
	ts := newTestServer(t)
	resp, _ := ts.do(t, http.MethodPost, "/students/bob/sessions", map[string]string{"chapter_id": "ch-1"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, _ = ts.do(t, http.MethodPost, "/students/bob/attempts", attemptReq{QuestionID: "q-1-1", SelectedOptionID: "zzz"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = ts.do(t, http.MethodPost, "/students/bob/attempts", attemptReq{QuestionID: "missing", SelectedOptionID: "a"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestNextNoContent(t *testing.T) {
	ts := newTestServer(t)
	resp, body := ts.do(t, http.MethodGet, "/students/alice/concepts/unknown/next", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	next := decodeInto[nextBody](t, body)
	assert.Equal(t, "no_content", next.Outcome)
	assert.Nil(t, next.Question)
}

func TestAnalyticsEndpoints(t *testing.T) {
	ts := newTestServer(t)
	resp, _ := ts.do(t, http.MethodPost, "/students/alice/sessions", map[string]string{"chapter_id": "ch-1"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp, _ = ts.do(t, http.MethodPost, "/students/alice/attempts", attemptReq{QuestionID: "q-1-1", SelectedOptionID: "q-1-1-c"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body := ts.do(t, http.MethodGet, "/students/alice/analytics", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	sa := decodeInto[analytics.StudentAnalytics](t, body)
	assert.Equal(t, 1, sa.TotalAttempts)
	assert.Equal(t, []string{"overgeneralization"}, sa.MisconceptionsEncountered)

	resp, body = ts.do(t, http.MethodGet, "/chapters/ch-1/analytics", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	ca := decodeInto[analytics.ClassAnalytics](t, body)
	assert.Equal(t, 1, ca.Students)
	require.Len(t, ca.SuggestedInterventions, 1)
	assert.Equal(t, "Low class proficiency (0%)", ca.SuggestedInterventions[0].Reason)

	resp, body = ts.do(t, http.MethodGet, "/chapters/ch-1/analytics.xlsx", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "ch-1-analytics.xlsx")
	wb, err := excelize.OpenReader(bytes.NewReader(body))
	require.NoError(t, err)
	defer wb.Close()
	assert.Contains(t, wb.GetSheetList(), analytics.SheetHardest)

	resp, _ = ts.do(t, http.MethodGet, "/chapters/nope/analytics", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
