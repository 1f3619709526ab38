package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/finsight-agent/server/internal/agent/model"
	"github.com/finsight-agent/server/internal/agent/schema"
	"github.com/finsight-agent/server/internal/store"
	logx "github.com/finsight-agent/server/pkg/logger"
)

// ToolQueryTransactions is the unique name of the transactions query tool.
const ToolQueryTransactions = "query_db_transactions"

// denylisted statement keywords, checked case-insensitively anywhere in the
// query text. This is a textual approximation, not a parser-level
// guarantee: a column literally named "update_count" false-positives, and
// creative SQL may slip through. Documented limitation.
var deniedKeywords = []string{"DELETE", "UPDATE", "INSERT", "DROP", "ALTER", "CREATE"}

// UnsafeQueryError reports a query rejected by the safety check. The raw
// query stays out of user-facing copy; it is only logged internally.
type UnsafeQueryError struct {
	Reason string
}

func (e *UnsafeQueryError) Error() string {
	return fmt.Sprintf("unsafe query rejected: %s", e.Reason)
}

// TransactionsQueryTool wraps read access to the transaction store behind a
// SELECT-only safety check.
type TransactionsQueryTool struct {
	store *store.TransactionStore
	info  model.ToolInfo
}

// NewTransactionsQueryTool creates the safety-checked database tool.
func NewTransactionsQueryTool(ts *store.TransactionStore) *TransactionsQueryTool {
	return &TransactionsQueryTool{
		store: ts,
		info: model.ToolInfo{
			Name: ToolQueryTransactions,
			Desc: fmt.Sprintf(
				"Execute a SQLite query to retrieve data from the transactions table. Must be a single SELECT statement. <table_schema>%s</table_schema>",
				store.SchemaDescription(),
			),
			Params: schema.Object("query arguments",
				map[string]*schema.Schema{
					"query": schema.String(
						"SQL query to execute (must be a SELECT query). Use ? placeholders for any variables that should be parameterized.",
					),
					"parameters": schema.Array(
						"Parameter values replacing ? placeholders in order.",
						schema.Any("string, number or null parameter value"),
					),
				},
				"query",
			),
		},
	}
}

func (t *TransactionsQueryTool) Info() model.ToolInfo { return t.info }

// Invoke validates and executes the query on a connection scoped to this
// call, returning the rows as a JSON array.
func (t *TransactionsQueryTool) Invoke(ctx context.Context, args map[string]any) (string, error) {
	if err := validateArgs(t.info, args); err != nil {
		return "", err
	}
	query, _ := args["query"].(string)

	var params []any
	if raw, ok := args["parameters"].([]any); ok {
		params = raw
	}

	if err := checkQuerySafety(query); err != nil {
		logx.Warn().Str("tool", t.info.Name).Err(err).Msg("rejected query")
		return "", err
	}

	logx.Debug().Str("tool", t.info.Name).Str("query", query).Int("params", len(params)).Msg("executing query")

	rows, err := t.store.Query(ctx, query, params)
	if err != nil {
		return "", fmt.Errorf("failed to execute query: %w", err)
	}
	if rows == nil {
		rows = []map[string]any{}
	}
	b, err := json.Marshal(rows)
	if err != nil {
		return "", fmt.Errorf("serialize query result: %w", err)
	}
	return string(b), nil
}

// checkQuerySafety enforces: single SELECT statement, no mutation keywords,
// targets the transactions relation.
func checkQuerySafety(query string) error {
	upper := strings.ToUpper(strings.TrimSpace(query))

	if !strings.HasPrefix(upper, "SELECT") {
		return &UnsafeQueryError{Reason: "only SELECT statements are allowed"}
	}
	for _, kw := range deniedKeywords {
		if strings.Contains(upper, kw) {
			return &UnsafeQueryError{Reason: fmt.Sprintf("statement contains denied keyword %s", kw)}
		}
	}
	if hasStatementSeparator(query) {
		return &UnsafeQueryError{Reason: "multiple statements are not allowed"}
	}
	if !strings.Contains(upper, "FROM TRANSACTIONS") {
		return &UnsafeQueryError{Reason: "query must target the transactions table"}
	}
	return nil
}

// hasStatementSeparator reports a ';' outside single/double-quoted string
// literals.
func hasStatementSeparator(query string) bool {
	var inSingle, inDouble bool
	for _, r := range query {
		switch r {
		case '\'':
			if !inDouble {
				inSingle = !inSingle
			}
		case '"':
			if !inSingle {
				inDouble = !inDouble
			}
		case ';':
			if !inSingle && !inDouble {
				return true
			}
		}
	}
	return false
}
