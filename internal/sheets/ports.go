// Package sheets holds the spreadsheet report boundary.
package sheets

import (
	"context"

	"dompet/internal/core"
)

// ReportSink appends transaction rows to an external spreadsheet report.
type ReportSink interface {
	// AppendTransactions writes one row per transaction and returns a
	// reference to the written range.
	AppendTransactions(ctx context.Context, txs []core.Transaction) (ref string, err error)
}
