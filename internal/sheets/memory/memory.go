// Package memory is an in-process spreadsheet report used when no Google
// Sheet is configured.
package memory

import (
	"context"
	"fmt"
	"sync"

	"dompet/internal/core"
	"dompet/internal/export"
	"dompet/internal/sheets"
)

var _ sheets.ReportSink = (*Sink)(nil)

type Sink struct {
	mu   sync.Mutex
	rows [][]any
	// fail makes the next append return this error.
	fail error
}

func New() *Sink { return &Sink{} }

// AppendTransactions stores the report rows and returns a synthetic range reference.
func (s *Sink) AppendTransactions(_ context.Context, txs []core.Transaction) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.fail != nil {
		err := s.fail
		s.fail = nil
		return "", err
	}
	if len(txs) == 0 {
		return "", nil
	}
	first := len(s.rows) + 1
	for _, t := range txs {
		s.rows = append(s.rows, export.SheetRow(t))
	}
	return fmt.Sprintf("mem:%d-%d", first, len(s.rows)), nil
}

// FailNext makes the next AppendTransactions call fail with err.
func (s *Sink) FailNext(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail = err
}

// Rows returns a copy of everything appended so far.
func (s *Sink) Rows() [][]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]any, len(s.rows))
	for i, r := range s.rows {
		out[i] = append([]any(nil), r...)
	}
	return out
}
