// Package export renders transactions for download: a CSV file, a printable
// HTML report, and the row layout shared with the spreadsheet sink.
package export

import (
	"encoding/csv"
	"fmt"
	"html/template"
	"io"
	"strings"

	"github.com/shopspring/decimal"

	"dompet/internal/analytics"
	"dompet/internal/core"
	"dompet/web"
)

const (
	CSVFilename    = "data_transaksi.csv"
	ReportFilename = "laporan-keuangan.html"
)

var (
	// Header is the fixed CSV column order.
	Header = []string{"Tanggal", "Kategori", "Tipe", "Jumlah", "Keterangan"}
	// ReportColumns are the column titles of the printable report.
	ReportColumns = []string{"Tanggal", "Kategori", "Tipe", "Jumlah", "Ket"}
)

// Record is the CSV row for t, in Header order.
func Record(t core.Transaction) []string {
	return []string{
		t.Date.Key(),
		t.Category,
		string(t.Type),
		t.Amount.String(),
		t.Description,
	}
}

// WriteCSV writes the header and one row per transaction. Fields containing
// separators, quotes or newlines are quoted, so N transactions always read
// back as N+1 records.
func WriteCSV(w io.Writer, txs []core.Transaction) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, t := range txs {
		if err := cw.Write(Record(t)); err != nil {
			return fmt.Errorf("write csv row %s: %w", t.ID, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// TypeLabel is the Indonesian label for a transaction type.
func TypeLabel(t core.TxType) string {
	if t == core.Income {
		return "Masuk"
	}
	return "Keluar"
}

// DisplayDate renders a day as dd/mm/yyyy.
func DisplayDate(d core.Date) string {
	return d.Format("02/01/2006")
}

type ReportRow struct {
	Date        string
	Category    string
	Type        string
	Amount      string
	Description string
}

type reportData struct {
	Title                string
	From, To             string
	Columns              []string
	Rows                 []ReportRow
	Income, Expense, Net string
}

// Reporter renders the printable report from the embedded template.
type Reporter struct {
	tmpl *template.Template
}

func NewReporter() (*Reporter, error) {
	t, err := template.ParseFS(web.TemplatesFS, "templates/report.html")
	if err != nil {
		return nil, fmt.Errorf("parse report template: %w", err)
	}
	return &Reporter{tmpl: t}, nil
}

// Write renders the report for the window. Text fields are HTML-escaped by
// the template engine.
func (r *Reporter) Write(w io.Writer, win analytics.Window, txs []core.Transaction) error {
	data := reportData{
		Title:   win.Title(),
		From:    DisplayDate(win.From),
		To:      DisplayDate(win.To),
		Columns: ReportColumns,
		Rows:    make([]ReportRow, 0, len(txs)),
	}
	var income, expense decimal.Decimal
	for _, t := range txs {
		if t.Type == core.Income {
			income = income.Add(t.Amount)
		} else {
			expense = expense.Add(t.Amount)
		}
		data.Rows = append(data.Rows, ReportRow{
			Date:        DisplayDate(t.Date),
			Category:    t.Category,
			Type:        TypeLabel(t.Type),
			Amount:      core.FormatRupiah(t.Amount),
			Description: t.Description,
		})
	}
	data.Income = core.FormatRupiah(income)
	data.Expense = core.FormatRupiah(expense)
	data.Net = core.FormatRupiah(income.Sub(expense))

	if err := r.tmpl.ExecuteTemplate(w, "report", data); err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	return nil
}

// SheetRow is the spreadsheet layout of a transaction: date, category, type
// label, amount, description, account, necessity, transaction id. The amount
// is sent as its exact decimal text; free-text cells go through SheetText.
func SheetRow(t core.Transaction) []any {
	return []any{
		t.Date.Key(),
		SheetText(t.Category),
		TypeLabel(t.Type),
		t.Amount.String(),
		SheetText(t.Description),
		SheetText(t.Account),
		string(t.Necessity),
		t.ID,
	}
}

// formulaLead holds the first characters a sheet reading USER_ENTERED
// values treats as the start of a formula.
const formulaLead = "=+-@\t\r"

// SheetText keeps user text literal in the sheet by quoting a leading
// formula character.
func SheetText(s string) string {
	if s != "" && strings.IndexByte(formulaLead, s[0]) >= 0 {
		return "'" + s
	}
	return s
}
