// Package store provides the SQLite-backed transaction store. The agent
// core only reads it through the safety-checked query tool; writes happen
// at seed time.
package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	errx "github.com/finsight-agent/server/internal/core/error"
	logx "github.com/finsight-agent/server/pkg/logger"
)

//go:embed migrations/001_create_transactions.sql
var migrationV1 string

// Transaction mirrors one row of the transactions relation. Amount is in
// integer minor currency units (cents), negative for expenses and positive
// for income.
type Transaction struct {
	ID       int64  `json:"id"`
	Date     string `json:"date"`
	Amount   int64  `json:"amount"`
	Category string `json:"category"`
	Merchant string `json:"merchant"`
	Account  string `json:"account"`
}

// TransactionStore wraps read access to the transactions relation.
type TransactionStore struct {
	db *sql.DB
}

// Open opens (creating if needed) the SQLite database at path and runs
// migrations.
func Open(path string) (*TransactionStore, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, errx.WrapStore(fmt.Errorf("open database: %w", err))
	}

	s := &TransactionStore{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *TransactionStore) migrate() error {
	if _, err := s.db.Exec(migrationV1); err != nil {
		return errx.WrapStore(fmt.Errorf("run migration: %w", err))
	}
	return nil
}

// Close releases the underlying database handle.
func (s *TransactionStore) Close() error {
	return s.db.Close()
}

// Query runs a read query with positional ? parameters on a connection
// scoped to this invocation; no connection is held across calls. Rows are
// returned as generic records for JSON serialization.
func (s *TransactionStore) Query(ctx context.Context, query string, params []any) ([]map[string]any, error) {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return nil, errx.WrapStore(fmt.Errorf("acquire connection: %w", err))
	}
	defer conn.Close()

	rows, err := conn.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, errx.WrapStore(fmt.Errorf("execute query: %w", err))
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, errx.WrapStore(fmt.Errorf("read columns: %w", err))
	}

	var out []map[string]any
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, errx.WrapStore(fmt.Errorf("scan row: %w", err))
		}
		record := make(map[string]any, len(cols))
		for i, col := range cols {
			record[col] = normalizeValue(values[i])
		}
		out = append(out, record)
	}
	if err := rows.Err(); err != nil {
		return nil, errx.WrapStore(fmt.Errorf("iterate rows: %w", err))
	}
	return out, nil
}

// normalizeValue converts driver byte slices to strings so results
// serialize to readable JSON.
func normalizeValue(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}

// Insert adds one transaction.
func (s *TransactionStore) Insert(ctx context.Context, t Transaction) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO transactions (date, amount, category, merchant, account) VALUES (?, ?, ?, ?, ?)`,
		t.Date, t.Amount, t.Category, t.Merchant, t.Account,
	)
	if err != nil {
		return errx.WrapStore(fmt.Errorf("insert transaction: %w", err))
	}
	return nil
}

// Count returns the number of stored transactions.
func (s *TransactionStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions`).Scan(&n); err != nil {
		return 0, errx.WrapStore(fmt.Errorf("count transactions: %w", err))
	}
	return n, nil
}

// SchemaDescription renders the transactions relation for tool metadata and
// prompts.
func SchemaDescription() string {
	return `Table: transactions
Columns:
  - id (integer) PRIMARY KEY AUTO INCREMENT
  - date (text, ISO-8601 date) NOT NULL
  - amount (integer, minor currency units i.e. cents; negative = expense, positive = income) NOT NULL
  - category (text) NOT NULL
  - merchant (text) NOT NULL
  - account (text) NOT NULL`
}

// DateFormat is the ISO-8601 day format used in the date column.
const DateFormat = "2006-01-02"

// FormatDate renders a time for the date column.
func FormatDate(t time.Time) string {
	return t.Format(DateFormat)
}

// LogStats logs a summary of store contents at startup.
func (s *TransactionStore) LogStats(ctx context.Context) {
	n, err := s.Count(ctx)
	if err != nil {
		logx.Warn().Err(err).Msg("failed to count transactions")
		return
	}
	logx.Info().Int("transactions", n).Msg("transaction store ready")
}
