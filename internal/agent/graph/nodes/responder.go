package nodes

import (
	"context"
	"strings"

	"github.com/finsight-agent/server/internal/agent/graph/parsers"
	"github.com/finsight-agent/server/internal/agent/graph/prompts"
	"github.com/finsight-agent/server/internal/agent/model"
	logx "github.com/finsight-agent/server/pkg/logger"
)

// Fixed user-facing copy. The Responder is the only place error kinds turn
// into user-visible text; none of it carries internal detail.
const (
	genericApology = "Sorry, something went wrong while answering your question. Please try again."
	missingToolApology = "Sorry, I can't help with that — it's outside what I'm able to do. " +
		"I can answer questions about your transactions and spending."
	clarifyFallback = "Could you share a bit more detail about what you'd like to know?"
)

// Responder produces the final user-facing message. It branches purely on
// the presence and kind of the turn's error.
type Responder struct {
	cm model.ChatModel
}

func NewResponder(cm model.ChatModel) *Responder {
	return &Responder{cm: cm}
}

// Run implements the Responder stage.
func (r *Responder) Run(ctx context.Context, state *model.AgentState) (model.Delta, error) {
	if state.Error == nil {
		return r.handleSuccess(ctx, state), nil
	}

	switch state.Error.Kind {
	case model.ErrMissingInformation:
		return r.handleMissingInformation(ctx, state), nil
	case model.ErrMissingTool:
		return model.Delta{Text: &model.TextResponse{Message: missingToolApology}}, nil
	default:
		return model.Delta{Text: &model.TextResponse{Message: genericApology}}, nil
	}
}

func (r *Responder) handleSuccess(ctx context.Context, state *model.AgentState) model.Delta {
	raw, err := parsers.Structured(ctx, r.cm, parsers.Request{
		System:  prompts.RenderResponderSystem(state.Intent, state.Plan, responseSchema),
		Prefill: `{ "message": `,
		Schema:  responseSchema,
	})
	if err != nil {
		logx.Error().Err(err).Str("node", NodeResponder).Msg("response generation failed")
		return model.Delta{Text: &model.TextResponse{Message: genericApology}}
	}

	text, err := parsers.Decode[model.TextResponse](raw)
	if err != nil {
		logx.Error().Err(err).Str("node", NodeResponder).Msg("response decoding failed")
		return model.Delta{Text: &model.TextResponse{Message: genericApology}}
	}
	return model.Delta{Text: &text}
}

func (r *Responder) handleMissingInformation(ctx context.Context, state *model.AgentState) model.Delta {
	gen, err := r.cm.Generate(ctx, []model.Message{
		model.SystemMessage(prompts.RenderClarifySystem(state.Intent, state.Error.Message)),
	})
	if err != nil {
		logx.Warn().Err(err).Str("node", NodeResponder).Msg("clarifying question generation failed")
		return model.Delta{Text: &model.TextResponse{Message: clarifyFallback}}
	}
	question := strings.TrimSpace(gen.Content)
	if question == "" {
		question = clarifyFallback
	}
	return model.Delta{Text: &model.TextResponse{Message: question}}
}
