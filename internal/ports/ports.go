// Package ports declares the record-store boundary shared by the memory,
// SQLite and Postgres backends.
package ports

import (
	"context"
	"time"

	"dompet/internal/core"
)

// TransactionQuery filters a user's transactions. Zero dates leave that side
// of the range open and an empty Type matches both types. Results are
// ordered ascending by date, then by creation time.
type TransactionQuery struct {
	UserID string
	From   core.Date
	To     core.Date
	Type   core.TxType
}

// Matches reports whether t satisfies the query.
func (q TransactionQuery) Matches(t core.Transaction) bool {
	if t.UserID != q.UserID {
		return false
	}
	if q.Type != "" && t.Type != q.Type {
		return false
	}
	if !q.From.IsZero() && t.Date.Before(q.From) {
		return false
	}
	if !q.To.IsZero() && t.Date.After(q.To) {
		return false
	}
	return true
}

type (
	TransactionWriter interface {
		CreateTransaction(ctx context.Context, t core.Transaction) error
	}

	TransactionReader interface {
		ListTransactions(ctx context.Context, q TransactionQuery) ([]core.Transaction, error)
		// RecentTransactions returns the newest entries by creation time.
		// An empty typ matches both types.
		RecentTransactions(ctx context.Context, userID string, typ core.TxType, limit int) ([]core.Transaction, error)
	}

	TransactionGetter interface {
		// GetTransaction returns core.ErrNotFound for unknown ids.
		GetTransaction(ctx context.Context, id string) (core.Transaction, error)
	}

	GoalStore interface {
		CreateGoal(ctx context.Context, g core.Goal) error
		// ListGoals returns the user's goals newest first.
		ListGoals(ctx context.Context, userID string) ([]core.Goal, error)
		// DeleteGoal returns core.ErrNotFound when the goal does not exist
		// or belongs to another user.
		DeleteGoal(ctx context.Context, userID, id string) error
	}

	// ExportTracker records which transactions reached the spreadsheet report.
	ExportTracker interface {
		// PendingExports returns unexported transactions oldest first.
		PendingExports(ctx context.Context, limit int) ([]core.Transaction, error)
		IsExported(ctx context.Context, id string) (bool, error)
		// MarkExported returns core.ErrNotFound for unknown ids.
		MarkExported(ctx context.Context, id string, at time.Time) error
	}

	Pinger interface {
		Ping(ctx context.Context) error
	}

	// Store is everything a backend provides.
	Store interface {
		TransactionWriter
		TransactionReader
		TransactionGetter
		GoalStore
		ExportTracker
		Pinger
		Close() error
	}
)
