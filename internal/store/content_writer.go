package store

import (
	"context"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/adaptiq/internal/content"
)

// contentWriter implements ContentWriter. A chapter is written in a single
// transaction.
type contentWriter struct {
	drv *entsql.Driver
	sql *entsql.DialectBuilder
}

func (w *contentWriter) SaveChapter(ctx context.Context, ch content.Chapter, concepts []content.Concept, questions []content.Question) (res *SaveResult, err error) {
	tx, err := w.drv.Tx(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	res = &SaveResult{}
	n, err := w.insertIgnore(ctx, tx, w.sql.Insert(ChaptersTable.Name).
		Columns("id", "title", "subject", "grade", "created_at").
		Values(ch.ID, ch.Title, ch.Subject, ch.Grade, time.Now().UTC()))
	if err != nil {
		return nil, fmt.Errorf("save chapter %s: %w", ch.ID, err)
	}
	res.ChapterCreated = n > 0

	for _, c := range concepts {
		n, err := w.insertIgnore(ctx, tx, w.sql.Insert(ConceptsTable.Name).
			Columns("id", "chapter_id", "name", "position").
			Values(c.ID, ch.ID, c.Name, c.Position))
		if err != nil {
			return nil, fmt.Errorf("save concept %s: %w", c.ID, err)
		}
		res.ConceptsCreated += int(n)
	}

	for _, q := range questions {
		n, err := w.insertIgnore(ctx, tx, w.sql.Insert(QuestionsTable.Name).
			Columns("id", "concept_id", "bloom_level", "difficulty", "stem", "explanation").
			Values(q.ID, q.ConceptID, int(q.Bloom), int(q.Difficulty), q.Stem, q.Explanation))
		if err != nil {
			return nil, fmt.Errorf("save question %s: %w", q.ID, err)
		}
		if n == 0 {
			res.QuestionsSkipped++
			continue
		}
		res.QuestionsCreated++

		ins := w.sql.Insert(OptionsTable.Name).
			Columns("question_id", "option_id", "position", "text", "is_correct", "misconception_tag")
		for i, o := range q.Options {
			var tag any
			if o.MisconceptionTag != "" {
				tag = o.MisconceptionTag
			}
			ins.Values(q.ID, o.ID, i, o.Text, o.IsCorrect, tag)
		}
		if _, err := execResult(ctx, tx, ins); err != nil {
			return nil, fmt.Errorf("save options of question %s: %w", q.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return res, nil
}

// insertIgnore inserts a row unless its primary key already exists and
// returns the number of rows written.
func (w *contentWriter) insertIgnore(ctx context.Context, tx dialect.ExecQuerier, ins *entsql.InsertBuilder) (int64, error) {
	res, err := execResult(ctx, tx, ins.OnConflict(entsql.DoNothing()))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
