package fetch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"dompet/internal/core"
	"dompet/internal/ports"
)

// gatedReader blocks ListTransactions while the gate for the query marker is open.
type gatedReader struct {
	gates   map[string]chan struct{}
	started chan string
	goals   []core.Goal
	err     error
}

func (r *gatedReader) ListTransactions(ctx context.Context, q ports.TransactionQuery) ([]core.Transaction, error) {
	if r.started != nil {
		r.started <- q.UserID
	}
	if gate, ok := r.gates[string(q.Type)]; ok {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if r.err != nil {
		return nil, r.err
	}
	return []core.Transaction{{ID: string(q.Type), UserID: q.UserID, Amount: decimal.NewFromInt(1)}}, nil
}

func (r *gatedReader) RecentTransactions(context.Context, string, core.TxType, int) ([]core.Transaction, error) {
	return nil, nil
}

func (r *gatedReader) ListGoals(context.Context, string) ([]core.Goal, error) {
	return r.goals, nil
}

func TestFetchLoadsTransactionsAndGoals(t *testing.T) {
	r := &gatedReader{goals: []core.Goal{{ID: "g1"}}}
	f := New(r)

	res, err := f.Fetch(context.Background(), "u1|monthly", Request{
		Query:     ports.TransactionQuery{UserID: "u1"},
		WithGoals: true,
	})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(res.Transactions) != 1 || len(res.Goals) != 1 {
		t.Errorf("result = %+v", res)
	}
	if f.InFlight() != 0 {
		t.Errorf("in flight = %d after completion", f.InFlight())
	}
}

func TestFetchWrapsStoreError(t *testing.T) {
	boom := errors.New("connection refused")
	f := New(&gatedReader{err: boom})

	_, err := f.Fetch(context.Background(), "k", Request{Query: ports.TransactionQuery{UserID: "u1"}})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped %v", err, boom)
	}
}

func TestLatestWins(t *testing.T) {
	slow := make(chan struct{})
	r := &gatedReader{
		gates:   map[string]chan struct{}{"first": slow},
		started: make(chan string, 2),
	}
	f := New(r)

	type outcome struct {
		res Result
		err error
	}
	firstDone := make(chan outcome, 1)
	go func() {
		res, err := f.Fetch(context.Background(), "u1|monthly", Request{Query: query("first")})
		firstDone <- outcome{res, err}
	}()
	<-r.started

	res, err := f.Fetch(context.Background(), "u1|monthly", Request{Query: query("second")})
	<-r.started
	if err != nil {
		t.Fatalf("second fetch: %v", err)
	}
	if res.Transactions[0].ID != "second" {
		t.Errorf("second result = %+v", res)
	}

	select {
	case out := <-firstDone:
		if !errors.Is(out.err, ErrSuperseded) {
			t.Errorf("first fetch err = %v, want ErrSuperseded", out.err)
		}
		if out.res.Transactions != nil {
			t.Error("superseded result must be discarded")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("first fetch was not cancelled")
	}
}

func TestDifferentKeysDoNotInterfere(t *testing.T) {
	f := New(&gatedReader{})
	for _, key := range []string{"u1|monthly", "u1|yearly", "u2|monthly"} {
		if _, err := f.Fetch(context.Background(), key, Request{Query: ports.TransactionQuery{UserID: "u1"}}); err != nil {
			t.Errorf("%s: %v", key, err)
		}
	}
}

// query encodes a marker in the transaction type filter so the fake can
// tell calls apart.
func query(marker string) ports.TransactionQuery {
	return ports.TransactionQuery{UserID: "u1", Type: core.TxType(marker)}
}
