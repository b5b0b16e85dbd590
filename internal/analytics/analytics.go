// Package analytics aggregates attempt history into per-student reports and
// per-chapter class reports.
package analytics

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/abhisek/adaptiq/internal/content"
	"github.com/abhisek/adaptiq/internal/ledger"
	"github.com/abhisek/adaptiq/internal/logger"
	"github.com/abhisek/adaptiq/internal/mastery"
	"github.com/abhisek/adaptiq/internal/store"
)

const (
	// InterventionThreshold is the class proficiency below which a concept
	// is suggested for intervention.
	InterventionThreshold = 50
	maxHardest            = 5
	maxInterventions      = 3
	defaultConcurrency    = 8
)

// StudentAnalytics summarizes one student's work across all chapters.
type StudentAnalytics struct {
	StudentID                 string                   `json:"student_id"`
	ConceptMasteries          []mastery.ConceptMastery `json:"concept_masteries"`
	TimeSpent                 time.Duration            `json:"-"`
	TimeSpentSecs             int                      `json:"time_spent_secs"`
	TotalAttempts             int                      `json:"total_attempts"`
	CorrectAttempts           int                      `json:"correct_attempts"`
	MisconceptionsEncountered []string                 `json:"misconceptions_encountered"`
}

// HeatmapEntry is the class's average proficiency on one concept.
type HeatmapEntry struct {
	ConceptID          string `json:"concept_id"`
	ConceptName        string `json:"concept_name"`
	AverageProficiency int    `json:"average_proficiency"`
	Students           int    `json:"students"`
}

// HardestEntry is the average number of attempts students needed on a
// concept.
type HardestEntry struct {
	ConceptID       string  `json:"concept_id"`
	ConceptName     string  `json:"concept_name"`
	AverageAttempts float64 `json:"average_attempts"`
}

type Intervention struct {
	ConceptID   string `json:"concept_id"`
	ConceptName string `json:"concept_name"`
	Reason      string `json:"reason"`
}

// ClassAnalytics summarizes every student who practiced a chapter.
type ClassAnalytics struct {
	ChapterID              string         `json:"chapter_id"`
	Students               int            `json:"students"`
	ConceptHeatmap         []HeatmapEntry `json:"concept_heatmap"`
	HardestConcepts        []HardestEntry `json:"hardest_concepts"`
	SuggestedInterventions []Intervention `json:"suggested_interventions"`
}

// Service computes reports on demand. Nothing is cached.
type Service struct {
	content  store.ContentRepo
	sessions store.SessionRepo
	history  store.HistoryRepo
	log      *logger.Logger

	// Concurrency bounds how many students ClassAnalytics loads at once.
	Concurrency int
}

func NewService(contentRepo store.ContentRepo, sessions store.SessionRepo, history store.HistoryRepo, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		content:     contentRepo,
		sessions:    sessions,
		history:     history,
		log:         log.With("component", "analytics"),
		Concurrency: defaultConcurrency,
	}
}

// StudentAnalytics builds the report for one student. A student with no
// sessions gets an empty report.
func (s *Service) StudentAnalytics(ctx context.Context, studentID string) (*StudentAnalytics, error) {
	out := &StudentAnalytics{
		StudentID:                 studentID,
		ConceptMasteries:          []mastery.ConceptMastery{},
		MisconceptionsEncountered: []string{},
	}

	sessions, err := s.sessions.SessionsByStudent(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("load sessions of %s: %w", studentID, err)
	}
	for i := range sessions {
		out.TimeSpent += sessions[i].Duration()
	}
	out.TimeSpentSecs = int(out.TimeSpent / time.Second)

	attempts, err := s.history.AttemptsByStudent(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("load attempts of %s: %w", studentID, err)
	}
	out.TotalAttempts = len(attempts)

	order, byConcept := groupByConcept(attempts)
	for _, a := range attempts {
		if a.IsCorrect {
			out.CorrectAttempts++
		}
	}
	for _, conceptID := range order {
		name, err := s.conceptName(ctx, conceptID)
		if err != nil {
			return nil, err
		}
		out.ConceptMasteries = append(out.ConceptMasteries, mastery.Compute(conceptID, name, byConcept[conceptID]))
	}

	tags, err := s.misconceptions(ctx, attempts)
	if err != nil {
		return nil, err
	}
	out.MisconceptionsEncountered = tags
	return out, nil
}

// misconceptions returns the unique tags of the incorrect options the
// student picked, in first-seen order.
func (s *Service) misconceptions(ctx context.Context, attempts []ledger.HistoricalAttempt) ([]string, error) {
	tags := []string{}
	seen := make(map[string]bool)
	questions := make(map[string]*content.Question)
	for _, a := range attempts {
		if a.IsCorrect || a.SelectedOptionID == "" {
			continue
		}
		q, ok := questions[a.QuestionID]
		if !ok {
			var err error
			q, err = s.content.QuestionByID(ctx, a.QuestionID)
			if err != nil && !content.IsNotFound(err) {
				return nil, fmt.Errorf("load question %s: %w", a.QuestionID, err)
			}
			questions[a.QuestionID] = q
		}
		if q == nil {
			continue
		}
		opt := q.Option(a.SelectedOptionID)
		if opt == nil || opt.MisconceptionTag == "" || seen[opt.MisconceptionTag] {
			continue
		}
		seen[opt.MisconceptionTag] = true
		tags = append(tags, opt.MisconceptionTag)
	}
	return tags, nil
}

// studentChapterStats is what one student contributes to a class report.
type studentChapterStats struct {
	proficiency map[string]int // concept -> score, only for attempted concepts
	attempts    map[string]int // concept -> attempts within the chapter's sessions
}

// ClassAnalytics builds the report for every student with a session in the
// chapter. Students are loaded concurrently.
func (s *Service) ClassAnalytics(ctx context.Context, chapterID string) (*ClassAnalytics, error) {
	if _, err := s.content.Chapter(ctx, chapterID); err != nil {
		return nil, fmt.Errorf("load chapter %s: %w", chapterID, err)
	}
	concepts, err := s.content.ConceptsByChapter(ctx, chapterID)
	if err != nil {
		return nil, fmt.Errorf("load concepts of %s: %w", chapterID, err)
	}
	students, err := s.history.StudentsByChapter(ctx, chapterID)
	if err != nil {
		return nil, fmt.Errorf("load students of %s: %w", chapterID, err)
	}

	stats := make([]studentChapterStats, len(students))
	g, gctx := errgroup.WithContext(ctx)
	limit := s.Concurrency
	if limit <= 0 {
		limit = defaultConcurrency
	}
	g.SetLimit(limit)
	for i, studentID := range students {
		i, studentID := i, studentID
		g.Go(func() error {
			st, err := s.studentChapter(gctx, studentID, chapterID)
			if err != nil {
				return err
			}
			stats[i] = st
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := &ClassAnalytics{
		ChapterID:              chapterID,
		Students:               len(students),
		ConceptHeatmap:         []HeatmapEntry{},
		HardestConcepts:        []HardestEntry{},
		SuggestedInterventions: []Intervention{},
	}
	for _, c := range concepts {
		var profSum, profN, attSum, attN int
		for _, st := range stats {
			if p, ok := st.proficiency[c.ID]; ok {
				profSum += p
				profN++
			}
			if n := st.attempts[c.ID]; n > 0 {
				attSum += n
				attN++
			}
		}
		heat := HeatmapEntry{ConceptID: c.ID, ConceptName: c.Name, Students: profN}
		if profN > 0 {
			heat.AverageProficiency = int(math.Round(float64(profSum) / float64(profN)))
		}
		out.ConceptHeatmap = append(out.ConceptHeatmap, heat)

		hard := HardestEntry{ConceptID: c.ID, ConceptName: c.Name}
		if attN > 0 {
			hard.AverageAttempts = math.Round(float64(attSum)/float64(attN)*10) / 10
		}
		out.HardestConcepts = append(out.HardestConcepts, hard)
	}

	sort.SliceStable(out.HardestConcepts, func(i, j int) bool {
		return out.HardestConcepts[i].AverageAttempts > out.HardestConcepts[j].AverageAttempts
	})
	if len(out.HardestConcepts) > maxHardest {
		out.HardestConcepts = out.HardestConcepts[:maxHardest]
	}

	out.SuggestedInterventions = interventions(out.ConceptHeatmap)

	s.log.Debug("class analytics computed", "chapter_id", chapterID, "students", len(students), "concepts", len(concepts))
	return out, nil
}

func interventions(heatmap []HeatmapEntry) []Intervention {
	low := make([]HeatmapEntry, 0, len(heatmap))
	for _, h := range heatmap {
		if h.AverageProficiency < InterventionThreshold {
			low = append(low, h)
		}
	}
	sort.SliceStable(low, func(i, j int) bool {
		return low[i].AverageProficiency < low[j].AverageProficiency
	})
	if len(low) > maxInterventions {
		low = low[:maxInterventions]
	}
	out := make([]Intervention, 0, len(low))
	for _, h := range low {
		out = append(out, Intervention{
			ConceptID:   h.ConceptID,
			ConceptName: h.ConceptName,
			Reason:      fmt.Sprintf("Low class proficiency (%d%%)", h.AverageProficiency),
		})
	}
	return out
}

func (s *Service) studentChapter(ctx context.Context, studentID, chapterID string) (studentChapterStats, error) {
	st := studentChapterStats{
		proficiency: make(map[string]int),
		attempts:    make(map[string]int),
	}

	sessions, err := s.sessions.SessionsByStudent(ctx, studentID)
	if err != nil {
		return st, fmt.Errorf("load sessions of %s: %w", studentID, err)
	}
	inChapter := make(map[string]bool)
	for _, sess := range sessions {
		if sess.ChapterID == chapterID {
			inChapter[sess.ID] = true
		}
	}

	attempts, err := s.history.AttemptsByStudent(ctx, studentID)
	if err != nil {
		return st, fmt.Errorf("load attempts of %s: %w", studentID, err)
	}
	order, byConcept := groupByConcept(attempts)
	for _, conceptID := range order {
		group := byConcept[conceptID]
		st.proficiency[conceptID] = mastery.Compute(conceptID, "", group).ProficiencyScore
		for _, a := range group {
			if inChapter[a.SessionID] {
				st.attempts[conceptID]++
			}
		}
	}
	return st, nil
}

func (s *Service) conceptName(ctx context.Context, conceptID string) (string, error) {
	name, err := s.content.ConceptName(ctx, conceptID)
	if content.IsNotFound(err) {
		return conceptID, nil
	}
	if err != nil {
		return "", fmt.Errorf("load concept %s: %w", conceptID, err)
	}
	return name, nil
}

// groupByConcept splits attempts per concept and returns the concepts in
// first-attempted order.
func groupByConcept(attempts []ledger.HistoricalAttempt) ([]string, map[string][]ledger.HistoricalAttempt) {
	var order []string
	by := make(map[string][]ledger.HistoricalAttempt)
	for _, a := range attempts {
		if _, ok := by[a.ConceptID]; !ok {
			order = append(order, a.ConceptID)
		}
		by[a.ConceptID] = append(by[a.ConceptID], a)
	}
	return order, by
}
