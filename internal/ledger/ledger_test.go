package ledger_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/abhisek/adaptiq/internal/content"
	"github.com/abhisek/adaptiq/internal/content/contenttest"
	"github.com/abhisek/adaptiq/internal/ledger"
	"github.com/abhisek/adaptiq/internal/ledger/ledgertest"
)

func setup(t *testing.T) (*ledger.Ledger, *ledgertest.MemStore, *ledger.Session) {
	t.Helper()
	repo := contenttest.NewMemRepo()
	repo.AddQuestions(contenttest.Grid("fractions")...)

	store := ledgertest.NewMemStore(repo)
	sess, err := store.StartSession(context.Background(), "stu-1", "ch-1")
	if err != nil {
		t.Fatalf("start session: %v", err)
	}
	return ledger.New(store, repo), store, sess
}

func TestRecordWithoutSessionFails(t *testing.T) {
	l, _, _ := setup(t)

	_, err := l.Record(context.Background(), nil, "q-1-1", true, "")
	if !errors.Is(err, ledger.ErrNoActiveSession) {
		t.Fatalf("Record(nil session) error = %v, want ErrNoActiveSession", err)
	}
}

func TestRecordOnEndedSessionFails(t *testing.T) {
	l, _, sess := setup(t)
	ended := time.Now()
	sess.EndedAt = &ended

	_, err := l.Record(context.Background(), sess, "q-1-1", true, "")
	if !errors.Is(err, ledger.ErrNoActiveSession) {
		t.Fatalf("Record(ended session) error = %v, want ErrNoActiveSession", err)
	}
}

func TestRecordPropagatesStoreErrors(t *testing.T) {
	l, store, sess := setup(t)
	boom := errors.New("disk full")
	store.AppendErr = boom

	_, err := l.Record(context.Background(), sess, "q-1-1", true, "")
	if !errors.Is(err, boom) {
		t.Fatalf("error = %v, want wrapped store error", err)
	}
}

func TestAttemptsForConceptFiltersAndOrders(t *testing.T) {
	l, store, sess := setup(t)
	ctx := context.Background()

	repo := contenttest.NewMemRepo()
	repo.AddQuestions(contenttest.Question("f1", "fractions", content.BloomRecall, content.Easy))
	repo.AddQuestions(contenttest.Question("f2", "fractions", content.BloomConceptual, content.Easy))
	repo.AddQuestions(contenttest.Question("d1", "decimals", content.BloomRecall, content.Easy))
	l = ledger.New(store, repo)

	for _, id := range []string{"f2", "d1", "f1"} {
		if _, err := l.Record(ctx, sess, id, true, ""); err != nil {
			t.Fatalf("record %s: %v", id, err)
		}
	}

	got, err := l.AttemptsForConcept(ctx, sess, "fractions")
	if err != nil {
		t.Fatalf("attempts: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d attempts, want 2", len(got))
	}
	if got[0].QuestionID != "f2" || got[1].QuestionID != "f1" {
		t.Errorf("order = [%s %s], want [f2 f1]", got[0].QuestionID, got[1].QuestionID)
	}
	if last := ledger.Last(got); last == nil || last.QuestionID != "f1" {
		t.Errorf("Last = %+v, want f1", last)
	}
}

func TestAttemptsForConceptWithoutSession(t *testing.T) {
	l, _, _ := setup(t)
	got, err := l.AttemptsForConcept(context.Background(), nil, "fractions")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %d attempts, want 0", len(got))
	}
}

func TestCurrentSessionPointer(t *testing.T) {
	l, _, sess := setup(t)
	if l.Current() != nil {
		t.Fatal("new ledger should have no current session")
	}
	l.Begin(sess)
	if l.Current() != sess {
		t.Fatal("Begin should set the current session")
	}
	at := sess.StartedAt.Add(time.Minute)
	l.End(sess, at)
	if l.Current() != nil {
		t.Error("End should clear the current session")
	}
	if !sess.Ended() || !sess.EndedAt.Equal(at) {
		t.Errorf("EndedAt = %v, want %v on the caller's pointer", sess.EndedAt, at)
	}
}

func TestEndKeepsOtherCurrentSession(t *testing.T) {
	l, store, sess := setup(t)
	other, err := store.StartSession(context.Background(), "stu-2", "ch-1")
	if err != nil {
		t.Fatalf("start session: %v", err)
	}
	l.Begin(other)
	l.End(sess, time.Now())
	if l.Current() != other {
		t.Error("ending a session that is not current must not clear the current one")
	}
}

func TestRecordIntoClosedStoredSessionFails(t *testing.T) {
	l, store, sess := setup(t)
	if err := store.EndSession(context.Background(), sess.ID, time.Now()); err != nil {
		t.Fatalf("end session: %v", err)
	}

	// The caller's copy still looks open; the store has the final say.
	_, err := l.Record(context.Background(), sess, "q-1-1", true, "")
	if !errors.Is(err, ledger.ErrNoActiveSession) {
		t.Fatalf("Record(closed in store) error = %v, want ErrNoActiveSession", err)
	}
}

func TestSortChronological(t *testing.T) {
	base := time.Now()
	attempts := []ledger.Attempt{
		{QuestionID: "c", Sequence: 30, CreatedAt: base},
		{QuestionID: "a", Sequence: 10, CreatedAt: base.Add(time.Minute)},
		{QuestionID: "b", Sequence: 20, CreatedAt: base.Add(-time.Minute)},
	}
	ledger.SortChronological(attempts)
	for i, want := range []string{"a", "b", "c"} {
		if attempts[i].QuestionID != want {
			t.Errorf("attempts[%d] = %s, want %s", i, attempts[i].QuestionID, want)
		}
	}
}
