package store

import (
	"context"
	"database/sql"
	"fmt"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/adaptiq/internal/content"
)

// contentRepo implements ContentRepo over the chapters, concepts, questions
// and options tables.
type contentRepo struct {
	drv dialect.ExecQuerier
	sql *entsql.DialectBuilder
}

var questionColumns = []string{"id", "concept_id", "bloom_level", "difficulty", "stem", "explanation"}

func (r *contentRepo) QuestionsByConcept(ctx context.Context, conceptID string) ([]content.Question, error) {
	if _, err := r.Concept(ctx, conceptID); err != nil {
		return nil, err
	}

	q := r.sql.Select(questionColumns...).
		From(r.sql.Table(QuestionsTable.Name)).
		Where(entsql.EQ("concept_id", conceptID)).
		OrderBy("id")
	qs, err := r.scanQuestions(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query questions for concept %s: %w", conceptID, err)
	}
	if err := r.attachOptions(ctx, qs); err != nil {
		return nil, err
	}
	return qs, nil
}

func (r *contentRepo) QuestionByID(ctx context.Context, id string) (*content.Question, error) {
	q := r.sql.Select(questionColumns...).
		From(r.sql.Table(QuestionsTable.Name)).
		Where(entsql.EQ("id", id))
	qs, err := r.scanQuestions(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query question %s: %w", id, err)
	}
	if len(qs) == 0 {
		return nil, fmt.Errorf("question %s: %w", id, content.ErrNotFound)
	}
	if err := r.attachOptions(ctx, qs); err != nil {
		return nil, err
	}
	return &qs[0], nil
}

func (r *contentRepo) ConceptName(ctx context.Context, id string) (string, error) {
	c, err := r.Concept(ctx, id)
	if err != nil {
		return "", err
	}
	return c.Name, nil
}

func (r *contentRepo) Concept(ctx context.Context, id string) (*content.Concept, error) {
	cs, err := r.concepts(ctx, entsql.EQ("id", id))
	if err != nil {
		return nil, fmt.Errorf("query concept %s: %w", id, err)
	}
	if len(cs) == 0 {
		return nil, fmt.Errorf("concept %s: %w", id, content.ErrNotFound)
	}
	return &cs[0], nil
}

func (r *contentRepo) ConceptsByChapter(ctx context.Context, chapterID string) ([]content.Concept, error) {
	cs, err := r.concepts(ctx, entsql.EQ("chapter_id", chapterID))
	if err != nil {
		return nil, fmt.Errorf("query concepts for chapter %s: %w", chapterID, err)
	}
	return cs, nil
}

func (r *contentRepo) concepts(ctx context.Context, where *entsql.Predicate) ([]content.Concept, error) {
	q := r.sql.Select("id", "chapter_id", "name", "position").
		From(r.sql.Table(ConceptsTable.Name)).
		Where(where).
		OrderBy("position", "id")
	var out []content.Concept
	err := queryRows(ctx, r.drv, q, func(rows *entsql.Rows) error {
		var c content.Concept
		if err := rows.Scan(&c.ID, &c.ChapterID, &c.Name, &c.Position); err != nil {
			return err
		}
		out = append(out, c)
		return nil
	})
	return out, err
}

func (r *contentRepo) Chapters(ctx context.Context) ([]content.Chapter, error) {
	q := r.sql.Select("id", "title", "subject", "grade").
		From(r.sql.Table(ChaptersTable.Name)).
		OrderBy("grade", "subject", "title")
	chs, err := r.scanChapters(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query chapters: %w", err)
	}
	return chs, nil
}

func (r *contentRepo) Chapter(ctx context.Context, id string) (*content.Chapter, error) {
	q := r.sql.Select("id", "title", "subject", "grade").
		From(r.sql.Table(ChaptersTable.Name)).
		Where(entsql.EQ("id", id))
	chs, err := r.scanChapters(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query chapter %s: %w", id, err)
	}
	if len(chs) == 0 {
		return nil, fmt.Errorf("chapter %s: %w", id, content.ErrNotFound)
	}
	return &chs[0], nil
}

func (r *contentRepo) QuestionCounts(ctx context.Context, chapterID string) (map[string]int, error) {
	qt := r.sql.Table(QuestionsTable.Name)
	ct := r.sql.Table(ConceptsTable.Name)
	q := r.sql.Select(qt.C("concept_id"), entsql.As(entsql.Count("*"), "n")).
		From(qt).
		Join(ct).On(qt.C("concept_id"), ct.C("id")).
		Where(entsql.EQ(ct.C("chapter_id"), chapterID)).
		GroupBy(qt.C("concept_id"))

	out := make(map[string]int)
	err := queryRows(ctx, r.drv, q, func(rows *entsql.Rows) error {
		var (
			id string
			n  int
		)
		if err := rows.Scan(&id, &n); err != nil {
			return err
		}
		out[id] = n
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("count questions for chapter %s: %w", chapterID, err)
	}
	return out, nil
}

func (r *contentRepo) scanChapters(ctx context.Context, q querier) ([]content.Chapter, error) {
	var out []content.Chapter
	err := queryRows(ctx, r.drv, q, func(rows *entsql.Rows) error {
		var ch content.Chapter
		if err := rows.Scan(&ch.ID, &ch.Title, &ch.Subject, &ch.Grade); err != nil {
			return err
		}
		out = append(out, ch)
		return nil
	})
	return out, err
}

func (r *contentRepo) scanQuestions(ctx context.Context, q querier) ([]content.Question, error) {
	var out []content.Question
	err := queryRows(ctx, r.drv, q, func(rows *entsql.Rows) error {
		var (
			qu         content.Question
			bloom, dif int
		)
		if err := rows.Scan(&qu.ID, &qu.ConceptID, &bloom, &dif, &qu.Stem, &qu.Explanation); err != nil {
			return err
		}
		qu.Bloom = content.BloomLevel(bloom)
		qu.Difficulty = content.Difficulty(dif)
		out = append(out, qu)
		return nil
	})
	return out, err
}

// attachOptions loads the options of qs in one query, in display order.
func (r *contentRepo) attachOptions(ctx context.Context, qs []content.Question) error {
	if len(qs) == 0 {
		return nil
	}
	ids := make([]any, len(qs))
	index := make(map[string]int, len(qs))
	for i, q := range qs {
		ids[i] = q.ID
		index[q.ID] = i
	}

	q := r.sql.Select("question_id", "option_id", "text", "is_correct", "misconception_tag").
		From(r.sql.Table(OptionsTable.Name)).
		Where(entsql.In("question_id", ids...)).
		OrderBy("question_id", "position")
	err := queryRows(ctx, r.drv, q, func(rows *entsql.Rows) error {
		var (
			qid string
			o   content.Option
			tag sql.NullString
		)
		if err := rows.Scan(&qid, &o.ID, &o.Text, &o.IsCorrect, &tag); err != nil {
			return err
		}
		o.MisconceptionTag = tag.String
		i := index[qid]
		qs[i].Options = append(qs[i].Options, o)
		return nil
	})
	if err != nil {
		return fmt.Errorf("query options: %w", err)
	}
	return nil
}
