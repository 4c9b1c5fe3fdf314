// Package backend builds the record store and event publisher selected by configuration.
package backend

import (
	"context"

	"dompet/internal/ports"
	"dompet/internal/services"
)

type CleanupFunc func() error

// Result holds what the server needs from a backend. Publisher is nil when
// AMQP is not configured or unreachable.
type Result struct {
	Store     ports.Store
	Publisher services.Publisher
	Cleanup   CleanupFunc
}

type Factory interface {
	Create(ctx context.Context, config Config) (*Result, error)
}

type Type string

const (
	Memory   Type = "memory"
	SQLite   Type = "sqlite"
	Postgres Type = "postgres"
)

func (t Type) String() string { return string(t) }

func (t Type) IsValid() bool {
	switch t {
	case Memory, SQLite, Postgres:
		return true
	}
	return false
}

func Types() []Type { return []Type{Memory, SQLite, Postgres} }
