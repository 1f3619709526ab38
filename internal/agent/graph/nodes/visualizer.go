package nodes

import (
	"context"

	"github.com/finsight-agent/server/internal/agent/graph/parsers"
	"github.com/finsight-agent/server/internal/agent/graph/prompts"
	"github.com/finsight-agent/server/internal/agent/model"
	logx "github.com/finsight-agent/server/pkg/logger"
)

// Visualizer decides whether the turn's results are worth charting and, if
// so, produces a chart specification. It is strictly best-effort: any
// failure is logged and dropped so the text answer is never blocked.
type Visualizer struct {
	cm model.ChatModel
}

func NewVisualizer(cm model.ChatModel) *Visualizer {
	return &Visualizer{cm: cm}
}

type visualizerPayload struct {
	Status string           `json:"status"`
	Chart  *model.ChartSpec `json:"chart,omitempty"`
}

// Run implements the Visualizer stage.
func (v *Visualizer) Run(ctx context.Context, state *model.AgentState) (model.Delta, error) {
	if state.Error != nil || len(state.Plan) == 0 {
		return model.Delta{}, nil
	}

	raw, err := parsers.Structured(ctx, v.cm, parsers.Request{
		System:  prompts.RenderVisualizerSystem(state.Intent, state.Plan, visualizerResultSchema),
		Prefill: `{ "status": `,
		Schema:  visualizerResultSchema,
	})
	if err != nil {
		logx.Warn().Err(err).Str("node", NodeVisualizer).Msg("chart decision failed, skipping chart")
		return model.Delta{}, nil
	}

	payload, err := parsers.Decode[visualizerPayload](raw)
	if err != nil {
		logx.Warn().Err(err).Str("node", NodeVisualizer).Msg("chart decoding failed, skipping chart")
		return model.Delta{}, nil
	}

	if payload.Status != chartStatusHelpful || payload.Chart == nil {
		return model.Delta{}, nil
	}
	return model.Delta{Chart: payload.Chart}, nil
}
