package store

import (
	"context"
	"fmt"
	"sync"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
)

// sequenceCounter manages the global monotonic sequence number shared across
// attempts and all event types. Each type lives in its own table, so
// per-table auto-increment IDs can't establish cross-type ordering. This
// shared counter assigns a single increasing sequence to every row
// regardless of type, enabling:
//
//   - Cross-type ordering (did the star come before the mastery change?)
//   - Stable attempt order within a session even with equal timestamps
//   - Append-only guarantees (rows are never reordered)
//
// The mutex serializes within the process; the RETURNING clause makes the
// increment atomic at the database level.
type sequenceCounter struct {
	mu  sync.Mutex
	drv dialect.ExecQuerier
	sql *entsql.DialectBuilder
}

// newSequenceCounter seeds the counter row if it does not exist yet.
func newSequenceCounter(ctx context.Context, drv *entsql.Driver) (*sequenceCounter, error) {
	b := entsql.Dialect(drv.Dialect())
	q, args := b.Insert(GlobalSequenceTable.Name).
		Columns("id", "next_val").
		Values(1, 1).
		OnConflict(entsql.DoNothing()).
		Query()
	if err := drv.Exec(ctx, q, args, nil); err != nil {
		return nil, fmt.Errorf("seed sequence: %w", err)
	}
	return &sequenceCounter{drv: drv, sql: b}, nil
}

// Next atomically returns the next sequence number and increments the counter.
func (sc *sequenceCounter) Next(ctx context.Context) (int64, error) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	q, args := sc.sql.Update(GlobalSequenceTable.Name).
		Add("next_val", 1).
		Where(entsql.EQ("id", 1)).
		Returning("next_val").
		Query()
	rows := &entsql.Rows{}
	if err := sc.drv.Query(ctx, q, args, rows); err != nil {
		return 0, fmt.Errorf("next sequence: %w", err)
	}
	defer rows.Close()
	next, err := entsql.ScanInt64(rows)
	if err != nil {
		return 0, fmt.Errorf("next sequence: %w", err)
	}
	return next - 1, nil
}

// querier is any statement builder.
type querier interface {
	Query() (string, []any)
}

// queryRows runs q and calls scan for every row. Rows are closed before
// returning so the connection is free for the next statement.
func queryRows(ctx context.Context, ex dialect.ExecQuerier, q querier, scan func(*entsql.Rows) error) error {
	stmt, args := q.Query()
	rows := &entsql.Rows{}
	if err := ex.Query(ctx, stmt, args, rows); err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		if err := scan(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}

// execResult runs q and returns its result.
func execResult(ctx context.Context, ex dialect.ExecQuerier, q querier) (entsql.Result, error) {
	stmt, args := q.Query()
	var res entsql.Result
	if err := ex.Exec(ctx, stmt, args, &res); err != nil {
		return nil, err
	}
	return res, nil
}
