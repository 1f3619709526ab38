// Package parsers implements the structured-output protocol: one shared
// routine that turns a free-text model completion into a schema-validated
// JSON value. Every stage needing structured output goes through it.
package parsers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode"

	"github.com/finsight-agent/server/internal/agent/model"
	"github.com/finsight-agent/server/internal/agent/schema"
	logx "github.com/finsight-agent/server/pkg/logger"
)

// limit error snippet size so raw model output never floods logs or errors
const maxErrSnippet = 200

// ParseError reports a completion that did not parse as JSON.
type ParseError struct {
	Snippet string
	Err     error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("structured output is not valid JSON: %v (got: %s)", e.Err, e.Snippet)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Request describes one structured-output call. Prefill is a literal
// fragment used to prime the completion toward valid JSON; when the model
// echoes only the continuation, the fragment is prepended back before
// parsing.
type Request struct {
	System  string
	Prefill string
	Schema  *schema.Schema
}

// Structured sends the prompt, repairs the prefill, parses and validates.
// Neither failure kind is retried here; the calling stage decides whether
// to surface it as an AgentError or abort the turn.
func Structured(ctx context.Context, cm model.ChatModel, req Request) (json.RawMessage, error) {
	msgs := []model.Message{model.SystemMessage(req.System)}
	if req.Prefill != "" {
		msgs = append(msgs, model.AssistantMessage(req.Prefill))
	}

	gen, err := cm.Generate(ctx, msgs)
	if err != nil {
		return nil, err
	}

	content := strings.TrimSpace(gen.Content)
	full := content
	if req.Prefill != "" && !strings.HasPrefix(stripSpace(content), stripSpace(req.Prefill)) {
		full = req.Prefill + content
	}
	if full == "" {
		return nil, &ParseError{Snippet: "", Err: fmt.Errorf("empty completion")}
	}

	var v any
	if err := json.Unmarshal([]byte(full), &v); err != nil {
		logx.Debug().Str("snippet", safeSnippet(full)).Msg("structured output failed to parse")
		return nil, &ParseError{Snippet: safeSnippet(full), Err: err}
	}

	if req.Schema != nil {
		if err := req.Schema.Validate(v); err != nil {
			return nil, err
		}
	}

	return json.RawMessage(full), nil
}

// Decode unmarshals a validated raw payload into a typed value.
func Decode[T any](raw json.RawMessage) (T, error) {
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("decode structured payload: %w", err)
	}
	return out, nil
}

func stripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

func safeSnippet(s string) string {
	s = strings.TrimSpace(s)
	if len(s) <= maxErrSnippet {
		return s
	}
	return s[:maxErrSnippet]
}
