package parsers

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finsight-agent/server/internal/agent/model"
	"github.com/finsight-agent/server/internal/agent/schema"
)

// fakeChatModel returns a scripted completion, recording the messages it saw.
type fakeChatModel struct {
	content string
	err     error
	seen    []model.Message
}

func (f *fakeChatModel) Generate(ctx context.Context, msgs []model.Message, opts ...model.GenerateOption) (*model.Generation, error) {
	f.seen = msgs
	if f.err != nil {
		return nil, f.err
	}
	return &model.Generation{Content: f.content}, nil
}

var statusSchema = schema.Object("payload",
	map[string]*schema.Schema{
		"status": schema.Enum("", "ok"),
	},
	"status",
)

func TestStructuredPrefillRepair(t *testing.T) {
	t.Run("continuation only", func(t *testing.T) {
		cm := &fakeChatModel{content: `"ok" }`}
		raw, err := Structured(context.Background(), cm, Request{
			System:  "sys",
			Prefill: `{ "status": `,
			Schema:  statusSchema,
		})
		require.NoError(t, err)
		assert.JSONEq(t, `{"status":"ok"}`, string(raw))
	})

	t.Run("full echo is not double prepended", func(t *testing.T) {
		cm := &fakeChatModel{content: `{ "status": "ok" }`}
		raw, err := Structured(context.Background(), cm, Request{
			Prefill: `{ "status": `,
			Schema:  statusSchema,
		})
		require.NoError(t, err)
		assert.JSONEq(t, `{"status":"ok"}`, string(raw))
	})

	t.Run("whitespace variant echo", func(t *testing.T) {
		// same fragment, different spacing; still recognized as an echo
		cm := &fakeChatModel{content: "{\n  \"status\": \"ok\"\n}"}
		raw, err := Structured(context.Background(), cm, Request{
			Prefill: `{ "status": `,
			Schema:  statusSchema,
		})
		require.NoError(t, err)
		assert.JSONEq(t, `{"status":"ok"}`, string(raw))
	})
}

func TestStructuredSendsPrefillAsAssistant(t *testing.T) {
	cm := &fakeChatModel{content: `"ok" }`}
	_, err := Structured(context.Background(), cm, Request{
		System:  "sys",
		Prefill: `{ "status": `,
	})
	require.NoError(t, err)
	require.Len(t, cm.seen, 2)
	assert.Equal(t, model.RoleSystem, cm.seen[0].Role)
	assert.Equal(t, model.RoleAssistant, cm.seen[1].Role)
	assert.Equal(t, `{ "status": `, cm.seen[1].Content)
}

func TestStructuredParseError(t *testing.T) {
	cm := &fakeChatModel{content: `not json at all`}
	_, err := Structured(context.Background(), cm, Request{})

	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Contains(t, perr.Snippet, "not json")
}

func TestStructuredParseErrorSnippetTruncated(t *testing.T) {
	cm := &fakeChatModel{content: strings.Repeat("x", 10*maxErrSnippet)}
	_, err := Structured(context.Background(), cm, Request{})

	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.LessOrEqual(t, len(perr.Snippet), maxErrSnippet)
}

func TestStructuredEmptyCompletion(t *testing.T) {
	cm := &fakeChatModel{content: "   "}
	_, err := Structured(context.Background(), cm, Request{})

	var perr *ParseError
	require.ErrorAs(t, err, &perr)
}

func TestStructuredValidationError(t *testing.T) {
	cm := &fakeChatModel{content: `{"status": "nope"}`}
	_, err := Structured(context.Background(), cm, Request{Schema: statusSchema})

	var verr *schema.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "status", verr.Path)
}

func TestStructuredModelError(t *testing.T) {
	sentinel := errors.New("provider down")
	cm := &fakeChatModel{err: sentinel}
	_, err := Structured(context.Background(), cm, Request{})
	assert.ErrorIs(t, err, sentinel)
}

func TestDecode(t *testing.T) {
	type payload struct {
		Status string `json:"status"`
	}
	out, err := Decode[payload]([]byte(`{"status":"ok"}`))
	require.NoError(t, err)
	assert.Equal(t, "ok", out.Status)

	_, err = Decode[payload]([]byte(`{"status": 1}`))
	assert.Error(t, err)
}
