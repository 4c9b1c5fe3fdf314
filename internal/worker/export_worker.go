// Package worker exports stored transactions to the spreadsheet report.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"dompet/internal/amqp"
	"dompet/internal/core"
	"dompet/internal/ports"
	"dompet/internal/sheets"
)

// Store is the slice of the record store the worker needs.
type Store interface {
	ports.TransactionGetter
	ports.ExportTracker
}

// Recorder observes export outcomes. source is "message" or "sweep".
type Recorder interface {
	RecordExport(source, result string, rows int)
}

type ExportWorker struct {
	store    Store
	sink     sheets.ReportSink
	recorder Recorder
	now      func() time.Time

	// mu serialises the message handler and the sweep so a row is not
	// appended twice by the same process.
	mu sync.Mutex
}

func NewExportWorker(store Store, sink sheets.ReportSink, recorder Recorder) *ExportWorker {
	return &ExportWorker{
		store:    store,
		sink:     sink,
		recorder: recorder,
		now:      time.Now,
	}
}

// HandleTransactionCreated exports the announced transaction. Returning an
// error requeues the message.
func (w *ExportWorker) HandleTransactionCreated(ctx context.Context, msg *amqp.TransactionCreatedMessage) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	slog.InfoContext(ctx, "Processing transaction message",
		"id", msg.ID,
		"user_id", msg.UserID)

	done, err := w.store.IsExported(ctx, msg.ID)
	if errors.Is(err, core.ErrNotFound) {
		// Nothing to export; requeueing would loop forever.
		slog.WarnContext(ctx, "Transaction not found, dropping message", "id", msg.ID)
		w.record("message", "missing", 0)
		return nil
	}
	if err != nil {
		return fmt.Errorf("read export state: %w", err)
	}
	if done {
		slog.DebugContext(ctx, "Transaction already exported", "id", msg.ID)
		w.record("message", "skipped", 0)
		return nil
	}

	t, err := w.store.GetTransaction(ctx, msg.ID)
	if err != nil {
		return fmt.Errorf("get transaction: %w", err)
	}
	if _, err := w.export(ctx, []core.Transaction{t}); err != nil {
		w.record("message", "error", 0)
		return err
	}
	w.record("message", "success", 1)
	return nil
}

// ExportPending exports up to limit rows that no message delivered. It is
// the backup path for lost messages and worker downtime. On error the
// returned count is the rows that did reach the report.
func (w *ExportWorker) ExportPending(ctx context.Context, limit int) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	pending, err := w.store.PendingExports(ctx, limit)
	if err != nil {
		return 0, fmt.Errorf("get pending exports: %w", err)
	}
	if len(pending) == 0 {
		return 0, nil
	}

	slog.InfoContext(ctx, "Exporting pending transactions", "count", len(pending))
	if n, err := w.export(ctx, pending); err != nil {
		w.record("sweep", "error", n)
		return n, err
	}
	w.record("sweep", "success", len(pending))
	return len(pending), nil
}

// export appends txs one sheet year at a time and marks each year as soon
// as its append succeeds, so a failure on a later tab does not leave
// earlier rows appended but pending. It returns how many rows were appended.
func (w *ExportWorker) export(ctx context.Context, txs []core.Transaction) (int, error) {
	n := 0
	for _, group := range byYear(txs) {
		ref, err := w.sink.AppendTransactions(ctx, group)
		if err != nil {
			return n, fmt.Errorf("append to report: %w", err)
		}
		n += len(group)

		at := w.now().UTC()
		for _, t := range group {
			if err := w.store.MarkExported(ctx, t.ID, at); err != nil {
				// The append worked; a later sweep may write this row again.
				slog.ErrorContext(ctx, "Failed to mark transaction exported", "id", t.ID, "error", err)
			}
		}

		slog.InfoContext(ctx, "Exported transactions",
			"count", len(group),
			"year", group[0].Date.Year(),
			"sheets_ref", ref)
	}
	return n, nil
}

// byYear splits txs into per-year groups in ascending year order, keeping
// the input order inside each group.
func byYear(txs []core.Transaction) [][]core.Transaction {
	idx := map[int]int{}
	var groups [][]core.Transaction
	for _, t := range txs {
		y := t.Date.Year()
		i, ok := idx[y]
		if !ok {
			i = len(groups)
			idx[y] = i
			groups = append(groups, nil)
		}
		groups[i] = append(groups[i], t)
	}
	slices.SortFunc(groups, func(a, b []core.Transaction) int {
		return a[0].Date.Year() - b[0].Date.Year()
	})
	return groups
}

func (w *ExportWorker) record(source, result string, rows int) {
	if w.recorder != nil {
		w.recorder.RecordExport(source, result, rows)
	}
}
