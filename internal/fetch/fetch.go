// Package fetch loads the rows behind an analytics view. Requests sharing a
// key are latest-wins: starting a new one cancels the previous, and a
// result that lost the race is discarded with ErrSuperseded.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"dompet/internal/core"
	"dompet/internal/ports"
)

var ErrSuperseded = errors.New("fetch superseded by a newer request")

// Reader is the slice of the record store the fetcher needs.
type Reader interface {
	ports.TransactionReader
	ListGoals(ctx context.Context, userID string) ([]core.Goal, error)
}

type Request struct {
	Query ports.TransactionQuery
	// WithGoals also loads the user's goals alongside the transactions.
	WithGoals bool
}

type Result struct {
	Transactions []core.Transaction
	Goals        []core.Goal
}

type inflight struct {
	seq    uint64
	cancel context.CancelFunc
}

type Fetcher struct {
	store Reader

	mu      sync.Mutex
	seq     uint64
	pending map[string]inflight
}

func New(store Reader) *Fetcher {
	return &Fetcher{store: store, pending: make(map[string]inflight)}
}

// Fetch runs req under key. Any earlier call with the same key still in
// flight is cancelled and will return ErrSuperseded.
func (f *Fetcher) Fetch(ctx context.Context, key string, req Request) (Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	seq := f.begin(key, cancel)
	defer f.end(key, seq)

	res, err := f.load(ctx, req)

	if !f.current(key, seq) {
		return Result{}, ErrSuperseded
	}
	if err != nil {
		return Result{}, err
	}
	return res, nil
}

func (f *Fetcher) load(ctx context.Context, req Request) (Result, error) {
	var res Result
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		txs, err := f.store.ListTransactions(gctx, req.Query)
		if err != nil {
			return fmt.Errorf("list transactions: %w", err)
		}
		res.Transactions = txs
		return nil
	})
	if req.WithGoals {
		g.Go(func() error {
			goals, err := f.store.ListGoals(gctx, req.Query.UserID)
			if err != nil {
				return fmt.Errorf("list goals: %w", err)
			}
			res.Goals = goals
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return Result{}, err
	}
	return res, nil
}

func (f *Fetcher) begin(key string, cancel context.CancelFunc) uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()

	if prev, ok := f.pending[key]; ok {
		prev.cancel()
	}
	f.seq++
	f.pending[key] = inflight{seq: f.seq, cancel: cancel}
	return f.seq
}

func (f *Fetcher) current(key string, seq uint64) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.pending[key]
	return ok && p.seq == seq
}

func (f *Fetcher) end(key string, seq uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.pending[key]; ok && p.seq == seq {
		delete(f.pending, key)
	}
}

// InFlight returns the number of keys with a running fetch.
func (f *Fetcher) InFlight() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.pending)
}
