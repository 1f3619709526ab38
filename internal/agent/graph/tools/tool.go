// Package tools defines the fixed set of callable capabilities exposed to
// the model, with name/description/parameter-schema metadata.
package tools

import (
	"context"
	"fmt"

	"github.com/finsight-agent/server/internal/agent/model"
	"github.com/finsight-agent/server/internal/store"
)

// Tool is one callable capability. Invoke returns a plain serializable
// result (string/JSON), never a live handle.
type Tool interface {
	Info() model.ToolInfo
	Invoke(ctx context.Context, args map[string]any) (string, error)
}

// QueryTools returns the registered tool set for the financial workflow.
func QueryTools(ts *store.TransactionStore) []Tool {
	return []Tool{
		NewTransactionsQueryTool(ts),
		NewEvaluateExpressionTool(),
	}
}

// ByName indexes tools by their unique name.
func ByName(ts []Tool) map[string]Tool {
	m := make(map[string]Tool, len(ts))
	for _, t := range ts {
		m[t.Info().Name] = t
	}
	return m
}

// Infos collects the metadata of all tools, for model binding and prompts.
func Infos(ts []Tool) []model.ToolInfo {
	infos := make([]model.ToolInfo, 0, len(ts))
	for _, t := range ts {
		infos = append(infos, t.Info())
	}
	return infos
}

// validateArgs checks raw arguments against the tool's parameter schema.
func validateArgs(info model.ToolInfo, args map[string]any) error {
	if info.Params == nil {
		return nil
	}
	generic := make(map[string]any, len(args))
	for k, v := range args {
		generic[k] = v
	}
	if err := info.Params.Validate(generic); err != nil {
		return fmt.Errorf("invalid arguments for tool %s: %w", info.Name, err)
	}
	return nil
}
