package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"dompet/internal/core"
	"dompet/internal/ports"
)

// DefaultRecentLimit is used when a caller asks for recent entries without a limit.
const DefaultRecentLimit = 5

// Publisher announces stored transactions to the export worker.
type Publisher interface {
	PublishTransactionCreated(ctx context.Context, id, userID string) error
}

// Invalidator drops cached views derived from a user's records.
type Invalidator interface {
	InvalidateUser(userID string) int
}

type LedgerStore interface {
	ports.TransactionWriter
	ports.TransactionReader
	ports.GoalStore
}

// LedgerService records transactions and goals, then tells the rest of the
// system about the change.
type LedgerService struct {
	store     LedgerStore
	publisher Publisher
	cache     Invalidator
	now       func() time.Time
	newID     func() string
}

func NewLedgerService(store LedgerStore, publisher Publisher, cache Invalidator) *LedgerService {
	return &LedgerService{
		store:     store,
		publisher: publisher,
		cache:     cache,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// RecordTransaction validates and stores t as a single row. The returned
// transaction carries the assigned id and creation time. A failed publish is
// logged only: the row is already stored and the export sweep picks it up.
func (s *LedgerService) RecordTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	t.Normalize()
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	t.ID = s.newID()
	t.CreatedAt = s.now().UTC()

	if err := s.store.CreateTransaction(ctx, t); err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}
	s.invalidate(t.UserID)

	if err := s.publish(ctx, t); err != nil {
		slog.ErrorContext(ctx, "Failed to publish transaction created message",
			"id", t.ID, "error", err)
	}

	slog.InfoContext(ctx, "Transaction recorded",
		"id", t.ID,
		"type", t.Type,
		"category", t.Category,
		"date", t.Date.Key())
	return t, nil
}

func (s *LedgerService) publish(ctx context.Context, t core.Transaction) error {
	if s.publisher == nil {
		slog.DebugContext(ctx, "No publisher configured, skipping transaction message")
		return nil
	}
	return s.publisher.PublishTransactionCreated(ctx, t.ID, t.UserID)
}

// RecentTransactions returns the user's newest entries; limit <= 0 means DefaultRecentLimit.
func (s *LedgerService) RecentTransactions(ctx context.Context, userID string, typ core.TxType, limit int) ([]core.Transaction, error) {
	if userID == "" {
		return nil, core.ErrMissingUser
	}
	if typ != "" && !typ.Valid() {
		return nil, core.ErrInvalidType
	}
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	txs, err := s.store.RecentTransactions(ctx, userID, typ, limit)
	if err != nil {
		return nil, fmt.Errorf("recent transactions: %w", err)
	}
	return txs, nil
}

func (s *LedgerService) AddGoal(ctx context.Context, g core.Goal) (core.Goal, error) {
	g.Title = strings.TrimSpace(g.Title)
	if err := g.Validate(); err != nil {
		return core.Goal{}, err
	}
	g.ID = s.newID()
	g.CreatedAt = s.now().UTC()

	if err := s.store.CreateGoal(ctx, g); err != nil {
		return core.Goal{}, fmt.Errorf("save goal: %w", err)
	}
	s.invalidate(g.UserID)
	return g, nil
}

// ListGoals returns the user's goals newest first.
func (s *LedgerService) ListGoals(ctx context.Context, userID string) ([]core.Goal, error) {
	if userID == "" {
		return nil, core.ErrMissingUser
	}
	goals, err := s.store.ListGoals(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	return goals, nil
}

func (s *LedgerService) DeleteGoal(ctx context.Context, userID, id string) error {
	if userID == "" {
		return core.ErrMissingUser
	}
	if err := s.store.DeleteGoal(ctx, userID, id); err != nil {
		return fmt.Errorf("delete goal %s: %w", id, err)
	}
	s.invalidate(userID)
	return nil
}

func (s *LedgerService) invalidate(userID string) {
	if s.cache != nil {
		s.cache.InvalidateUser(userID)
	}
}
