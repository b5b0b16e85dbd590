package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/abhisek/adaptiq/internal/analytics"
	"github.com/abhisek/adaptiq/internal/content"
	"github.com/abhisek/adaptiq/internal/ledger"
	"github.com/abhisek/adaptiq/internal/mastery"
	"github.com/abhisek/adaptiq/internal/misconception"
	"github.com/abhisek/adaptiq/internal/selector"
	"github.com/abhisek/adaptiq/internal/session"
	"github.com/abhisek/adaptiq/internal/stars"
)

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type conceptView struct {
	content.Concept
	Questions int `json:"questions"`
}

func (s *Server) listChapters(w http.ResponseWriter, r *http.Request) {
	chs, err := s.deps.Content.Chapters(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if chs == nil {
		chs = []content.Chapter{}
	}
	writeJSON(w, http.StatusOK, chs)
}

func (s *Server) listConcepts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	chapterID := chi.URLParam(r, "chapterID")
	if _, err := s.deps.Content.Chapter(ctx, chapterID); err != nil {
		s.writeError(w, r, err)
		return
	}
	concepts, err := s.deps.Content.ConceptsByChapter(ctx, chapterID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	counts, err := s.deps.Content.QuestionCounts(ctx, chapterID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := make([]conceptView, 0, len(concepts))
	for _, c := range concepts {
		out = append(out, conceptView{Concept: c, Questions: counts[c.ID]})
	}
	writeJSON(w, http.StatusOK, out)
}

type startSessionReq struct {
	ChapterID string `json:"chapter_id"`
}

func (s *Server) startSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req startSessionReq
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if strings.TrimSpace(req.ChapterID) == "" {
		s.writeError(w, r, fmt.Errorf("%w: chapter_id is required", errBadRequest))
		return
	}
	if _, err := s.deps.Content.Chapter(ctx, req.ChapterID); err != nil {
		s.writeError(w, r, err)
		return
	}

	svc, err := s.deps.Registry.Get(ctx, chi.URLParam(r, "studentID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	sess, err := svc.StartSession(ctx, req.ChapterID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, sess)
}

type conceptResultView struct {
	ConceptID        string             `json:"concept_id"`
	ConceptName      string             `json:"concept_name"`
	Attempts         int                `json:"attempts"`
	Correct          int                `json:"correct"`
	Stars            map[stars.Type]int `json:"stars"`
	ProficiencyScore int                `json:"proficiency_score"`
	Mastered         bool               `json:"mastered"`
}

type summaryView struct {
	SessionID     string              `json:"session_id"`
	ChapterID     string              `json:"chapter_id"`
	DurationSecs  int                 `json:"duration_secs"`
	TotalAttempts int                 `json:"total_attempts"`
	TotalCorrect  int                 `json:"total_correct"`
	Accuracy      float64             `json:"accuracy"`
	Stars         []stars.Star        `json:"stars"`
	Concepts      []conceptResultView `json:"concepts"`
}

func newSummaryView(sum *session.Summary) summaryView {
	v := summaryView{
		SessionID:     sum.SessionID,
		ChapterID:     sum.ChapterID,
		DurationSecs:  int(sum.Duration / time.Second),
		TotalAttempts: sum.TotalAttempts,
		TotalCorrect:  sum.TotalCorrect,
		Accuracy:      sum.Accuracy,
		Stars:         sum.Stars,
		Concepts:      make([]conceptResultView, 0, len(sum.Concepts)),
	}
	if v.Stars == nil {
		v.Stars = []stars.Star{}
	}
	for _, c := range sum.Concepts {
		v.Concepts = append(v.Concepts, conceptResultView{
			ConceptID:        c.ConceptID,
			ConceptName:      c.ConceptName,
			Attempts:         c.Attempts,
			Correct:          c.Correct,
			Stars:            c.Stars,
			ProficiencyScore: c.ProficiencyScore,
			Mastered:         c.Mastered,
		})
	}
	return v
}

func (s *Server) endSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	svc, err := s.deps.Registry.Get(ctx, chi.URLParam(r, "studentID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	sum, err := svc.EndSession(ctx)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newSummaryView(sum))
}

// optionView hides which option is correct.
type optionView struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

type questionView struct {
	ID         string             `json:"id"`
	ConceptID  string             `json:"concept_id"`
	Bloom      content.BloomLevel `json:"bloom_level"`
	Difficulty content.Difficulty `json:"difficulty"`
	Stem       string             `json:"stem"`
	Options    []optionView       `json:"options"`
}

func newQuestionView(q *content.Question) *questionView {
	v := &questionView{
		ID:         q.ID,
		ConceptID:  q.ConceptID,
		Bloom:      q.Bloom,
		Difficulty: q.Difficulty,
		Stem:       q.Stem,
		Options:    make([]optionView, 0, len(q.Options)),
	}
	for _, o := range q.Options {
		v.Options = append(v.Options, optionView{ID: o.ID, Text: o.Text})
	}
	return v
}

type nextResp struct {
	Outcome   selector.Outcome `json:"outcome"`
	SessionID string           `json:"session_id,omitempty"`
	Question  *questionView    `json:"question,omitempty"`
}

func (s *Server) nextQuestion(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	studentID := chi.URLParam(r, "studentID")
	svc, err := s.deps.Registry.Get(ctx, studentID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	sess := svc.CurrentSession()
	q, outcome, err := svc.ComputeNextQuestion(ctx, studentID, chi.URLParam(r, "conceptID"), sess)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	resp := nextResp{Outcome: outcome}
	if sess != nil {
		resp.SessionID = sess.ID
	}
	if q != nil {
		resp.Question = newQuestionView(q)
	}
	writeJSON(w, http.StatusOK, resp)
}

type attemptReq struct {
	QuestionID       string `json:"question_id"`
	SelectedOptionID string `json:"selected_option_id"`
}

type transitionView struct {
	ConceptID string        `json:"concept_id"`
	From      mastery.State `json:"from"`
	To        mastery.State `json:"to"`
	Trigger   string        `json:"trigger"`
}

type starView struct {
	stars.Star
	Name string `json:"name"`
	Icon string `json:"icon"`
}

type attemptResp struct {
	Attempt         *ledger.Attempt            `json:"attempt"`
	Correct         bool                       `json:"correct"`
	CorrectOptionID string                     `json:"correct_option_id"`
	Star            starView                   `json:"star"`
	Mastery         mastery.ConceptMastery     `json:"mastery"`
	Transition      *transitionView            `json:"transition,omitempty"`
	Explanation     *misconception.Explanation `json:"explanation,omitempty"`
}

// recordAttempt grades the selected option against the stored question and
// records the result on the student's current session.
func (s *Server) recordAttempt(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req attemptReq
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.QuestionID == "" || req.SelectedOptionID == "" {
		s.writeError(w, r, fmt.Errorf("%w: question_id and selected_option_id are required", errBadRequest))
		return
	}

	svc, err := s.deps.Registry.Get(ctx, chi.URLParam(r, "studentID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	scored, err := svc.Answer(ctx, svc.CurrentSession(), req.QuestionID, req.SelectedOptionID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	resp := attemptResp{
		Attempt: scored.Attempt,
		Correct: scored.Attempt.IsCorrect,
		Star: starView{
			Star: scored.Star,
			Name: scored.Star.Type.DisplayName(),
			Icon: scored.Star.Type.Icon(),
		},
		Mastery: scored.Mastery,
	}
	if opt := scored.Question.CorrectOption(); opt != nil {
		resp.CorrectOptionID = opt.ID
	}
	if tr := scored.Transition; tr != nil {
		resp.Transition = &transitionView{ConceptID: tr.ConceptID, From: tr.From, To: tr.To, Trigger: tr.Trigger}
	}
	if !scored.Attempt.IsCorrect {
		resp.Explanation = s.deps.Misconceptions.Explain(ctx, scored.Question, scored.Mastery.ConceptName, req.SelectedOptionID)
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) conceptMastery(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	conceptID := chi.URLParam(r, "conceptID")
	if _, err := s.deps.Content.Concept(ctx, conceptID); err != nil {
		s.writeError(w, r, err)
		return
	}
	svc, err := s.deps.Registry.Get(ctx, chi.URLParam(r, "studentID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	m, err := svc.Mastery(ctx, conceptID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) studentAnalytics(w http.ResponseWriter, r *http.Request) {
	out, err := s.deps.Analytics.StudentAnalytics(r.Context(), chi.URLParam(r, "studentID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) classAnalytics(w http.ResponseWriter, r *http.Request) {
	out, err := s.deps.Analytics.ClassAnalytics(r.Context(), chi.URLParam(r, "chapterID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) classAnalyticsXLSX(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	chapterID := chi.URLParam(r, "chapterID")
	ch, err := s.deps.Content.Chapter(ctx, chapterID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	class, err := s.deps.Analytics.ClassAnalytics(ctx, chapterID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	// Buffer so a failed export can still become a JSON error.
	var buf bytes.Buffer
	if err := analytics.ExportXLSX(&buf, *ch, class); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", chapterID+"-analytics.xlsx"))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: invalid JSON body: %v", errBadRequest, err)
	}
	return nil
}
