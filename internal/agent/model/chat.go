package model

import (
	"context"

	"github.com/finsight-agent/server/internal/agent/schema"
)

// ToolCall is a tool invocation requested by the model.
type ToolCall struct {
	ID   string
	Name string
	Args map[string]any
}

// Generation is one model completion: free text plus any requested tool calls.
type Generation struct {
	Content   string
	ToolCalls []ToolCall
}

// ToolInfo is the metadata a tool exposes to the model.
type ToolInfo struct {
	Name   string
	Desc   string
	Params *schema.Schema
}

// GenerateOptions collects per-call options.
type GenerateOptions struct {
	Tools []ToolInfo
}

// GenerateOption configures a single Generate call.
type GenerateOption func(*GenerateOptions)

// WithTools makes the listed tools available to the model for this call.
func WithTools(tools []ToolInfo) GenerateOption {
	return func(o *GenerateOptions) { o.Tools = tools }
}

// ApplyGenerateOptions folds the options into a GenerateOptions value.
func ApplyGenerateOptions(opts ...GenerateOption) GenerateOptions {
	var o GenerateOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// ChatModel is the opaque text-generation capability. Messages may include
// a system instruction and a trailing assistant message acting as a prefill
// fragment to bias the output format. Implementations must honor ctx
// cancellation; this is one of the two blocking points of a turn.
type ChatModel interface {
	Generate(ctx context.Context, msgs []Message, opts ...GenerateOption) (*Generation, error)
}
