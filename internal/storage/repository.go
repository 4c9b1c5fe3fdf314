// Package storage persists transactions and goals in SQLite or Postgres.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"dompet/internal/core"
	"dompet/internal/ports"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

type Dialect string

const (
	SQLite   Dialect = "sqlite"
	Postgres Dialect = "postgres"
)

// sqlite keeps timestamps as TEXT, so the layout must sort lexicographically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func (d Dialect) DriverName() string { return string(d) }

// rebind rewrites ? placeholders to $n for Postgres.
func (d Dialect) rebind(query string) string {
	if d != Postgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (d Dialect) timeArg(t time.Time) any {
	if d == SQLite {
		return t.UTC().Format(timeLayout)
	}
	return t.UTC()
}

func (d Dialect) dateArg(v core.Date) any {
	return v.Key()
}

var _ ports.Store = (*Repository)(nil)

type Repository struct {
	db      *sql.DB
	dialect Dialect
}

// OpenSQLite opens (and creates if needed) the database file at path.
func OpenSQLite(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open(SQLite.DriverName(), dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// modernc sqlite serialises writers; one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	return finishOpen(db, SQLite, dbPath)
}

func OpenPostgres(dsn string) (*Repository, error) {
	db, err := sql.Open(Postgres.DriverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres connection: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	return finishOpen(db, Postgres, dsn)
}

func finishOpen(db *sql.DB, d Dialect, dsn string) (*Repository, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(d, dsn); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db, dialect: d}, nil
}

func (r *Repository) Dialect() Dialect { return r.dialect }

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

const txColumns = `id, user_id, date, type, category, amount, description, account, necessity, is_recurring, created_at`

func (r *Repository) CreateTransaction(ctx context.Context, t core.Transaction) error {
	if err := t.Validate(); err != nil {
		return err
	}

	q := r.dialect.rebind(`INSERT INTO transactions (` + txColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err := r.db.ExecContext(ctx, q,
		t.ID, t.UserID, r.dialect.dateArg(t.Date), string(t.Type), t.Category,
		t.Amount.String(), t.Description, t.Account, string(t.Necessity), t.IsRecurring,
		r.dialect.timeArg(t.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}

	slog.DebugContext(ctx, "Transaction stored",
		"id", t.ID,
		"type", t.Type,
		"category", t.Category,
		"date", t.Date.Key())
	return nil
}

func (r *Repository) ListTransactions(ctx context.Context, q ports.TransactionQuery) ([]core.Transaction, error) {
	var (
		where = []string{"user_id = ?"}
		args  = []any{q.UserID}
	)
	if q.Type != "" {
		where = append(where, "type = ?")
		args = append(args, string(q.Type))
	}
	if !q.From.IsZero() {
		where = append(where, "date >= ?")
		args = append(args, r.dialect.dateArg(q.From))
	}
	if !q.To.IsZero() {
		where = append(where, "date <= ?")
		args = append(args, r.dialect.dateArg(q.To))
	}

	query := `SELECT ` + txColumns + ` FROM transactions WHERE ` + strings.Join(where, " AND ") +
		` ORDER BY date ASC, created_at ASC`
	return r.queryTransactions(ctx, query, args...)
}

func (r *Repository) RecentTransactions(ctx context.Context, userID string, typ core.TxType, limit int) ([]core.Transaction, error) {
	query := `SELECT ` + txColumns + ` FROM transactions WHERE user_id = ?`
	args := []any{userID}
	if typ != "" {
		query += ` AND type = ?`
		args = append(args, string(typ))
	}
	query += ` ORDER BY created_at DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	return r.queryTransactions(ctx, query, args...)
}

func (r *Repository) GetTransaction(ctx context.Context, id string) (core.Transaction, error) {
	txs, err := r.queryTransactions(ctx, `SELECT `+txColumns+` FROM transactions WHERE id = ?`, id)
	if err != nil {
		return core.Transaction{}, err
	}
	if len(txs) == 0 {
		return core.Transaction{}, core.ErrNotFound
	}
	return txs[0], nil
}

func (r *Repository) PendingExports(ctx context.Context, limit int) ([]core.Transaction, error) {
	query := `SELECT ` + txColumns + ` FROM transactions WHERE exported_at IS NULL ORDER BY created_at ASC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	return r.queryTransactions(ctx, query, args...)
}

func (r *Repository) IsExported(ctx context.Context, id string) (bool, error) {
	var exported bool
	err := r.db.QueryRowContext(ctx,
		r.dialect.rebind(`SELECT exported_at IS NOT NULL FROM transactions WHERE id = ?`), id).Scan(&exported)
	if errors.Is(err, sql.ErrNoRows) {
		return false, core.ErrNotFound
	}
	if err != nil {
		return false, fmt.Errorf("read export state: %w", err)
	}
	return exported, nil
}

func (r *Repository) MarkExported(ctx context.Context, id string, at time.Time) error {
	res, err := r.db.ExecContext(ctx,
		r.dialect.rebind(`UPDATE transactions SET exported_at = ? WHERE id = ?`),
		r.dialect.timeArg(at), id)
	if err != nil {
		return fmt.Errorf("mark transaction exported: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *Repository) queryTransactions(ctx context.Context, query string, args ...any) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, r.dialect.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	out := make([]core.Transaction, 0)
	for rows.Next() {
		var (
			t         core.Transaction
			date, ts  any
			typ, need string
		)
		if err := rows.Scan(&t.ID, &t.UserID, &date, &typ, &t.Category, &t.Amount,
			&t.Description, &t.Account, &need, &t.IsRecurring, &ts); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		if t.Date, err = scanDate(date); err != nil {
			return nil, fmt.Errorf("transaction %s: %w", t.ID, err)
		}
		if t.CreatedAt, err = scanTime(ts); err != nil {
			return nil, fmt.Errorf("transaction %s: %w", t.ID, err)
		}
		t.Type = core.TxType(typ)
		t.Necessity = core.Necessity(need)
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}

func (r *Repository) CreateGoal(ctx context.Context, g core.Goal) error {
	if err := g.Validate(); err != nil {
		return err
	}

	_, err := r.db.ExecContext(ctx,
		r.dialect.rebind(`INSERT INTO goals (id, user_id, title, target_amount, saved_amount, created_at) VALUES (?, ?, ?, ?, ?, ?)`),
		g.ID, g.UserID, g.Title, g.TargetAmount.String(), g.SavedAmount.String(), r.dialect.timeArg(g.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert goal: %w", err)
	}
	return nil
}

func (r *Repository) ListGoals(ctx context.Context, userID string) ([]core.Goal, error) {
	rows, err := r.db.QueryContext(ctx,
		r.dialect.rebind(`SELECT id, user_id, title, target_amount, saved_amount, created_at FROM goals WHERE user_id = ? ORDER BY created_at DESC`),
		userID)
	if err != nil {
		return nil, fmt.Errorf("query goals: %w", err)
	}
	defer rows.Close()

	out := make([]core.Goal, 0)
	for rows.Next() {
		var (
			g  core.Goal
			ts any
		)
		if err := rows.Scan(&g.ID, &g.UserID, &g.Title, &g.TargetAmount, &g.SavedAmount, &ts); err != nil {
			return nil, fmt.Errorf("scan goal: %w", err)
		}
		if g.CreatedAt, err = scanTime(ts); err != nil {
			return nil, fmt.Errorf("goal %s: %w", g.ID, err)
		}
		out = append(out, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate goals: %w", err)
	}
	return out, nil
}

func (r *Repository) DeleteGoal(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx,
		r.dialect.rebind(`DELETE FROM goals WHERE id = ? AND user_id = ?`), id, userID)
	if err != nil {
		return fmt.Errorf("delete goal: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete goal: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func scanTime(v any) (time.Time, error) {
	switch x := v.(type) {
	case time.Time:
		return x.UTC(), nil
	case string:
		return parseTime(x)
	case []byte:
		return parseTime(string(x))
	case nil:
		return time.Time{}, nil
	}
	return time.Time{}, fmt.Errorf("unsupported time value %T", v)
}

func parseTime(s string) (time.Time, error) {
	for _, layout := range []string{timeLayout, time.RFC3339Nano, "2006-01-02 15:04:05.999999999-07:00", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, errors.New("invalid timestamp " + strconv.Quote(s))
}

func scanDate(v any) (core.Date, error) {
	switch x := v.(type) {
	case time.Time:
		return core.NewDate(x.Year(), int(x.Month()), x.Day()), nil
	case string:
		return core.ParseDate(firstN(x, len(core.DateLayout)))
	case []byte:
		return core.ParseDate(firstN(string(x), len(core.DateLayout)))
	}
	return core.Date{}, fmt.Errorf("unsupported date value %T", v)
}

func firstN(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
