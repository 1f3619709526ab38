package nodes

import (
	"context"
	"strings"
	"time"

	"github.com/finsight-agent/server/internal/agent/graph/conversations"
	"github.com/finsight-agent/server/internal/agent/graph/parsers"
	"github.com/finsight-agent/server/internal/agent/graph/prompts"
	"github.com/finsight-agent/server/internal/agent/model"
	logx "github.com/finsight-agent/server/pkg/logger"
)

// Planner extracts the user's current goal from the conversation and
// decomposes it into a fresh, all-pending plan — or reports that the
// request lacks detail or that no registered tool can satisfy it.
type Planner struct {
	cm       model.ChatModel
	toolInfo []model.ToolInfo
	mm       *conversations.MessagesManager
	now      func() time.Time
}

func NewPlanner(cm model.ChatModel, toolInfo []model.ToolInfo, mm *conversations.MessagesManager) *Planner {
	return &Planner{cm: cm, toolInfo: toolInfo, mm: mm, now: time.Now}
}

type plannerPayload struct {
	Status string `json:"status"`
	Plan   []struct {
		Action string `json:"action"`
	} `json:"plan"`
	Message string `json:"message"`
}

// Run implements the Planner stage.
func (p *Planner) Run(ctx context.Context, state *model.AgentState) (model.Delta, error) {
	goal, err := p.extractGoal(ctx, state)
	if err != nil {
		logx.Error().Err(err).Str("node", NodePlanner).Msg("goal extraction failed")
		return model.Delta{Error: model.NewGenericError("failed to analyze goal: " + err.Error())}, nil
	}
	if goal == "" {
		return model.Delta{Error: model.NewGenericError("goal extraction returned an empty goal")}, nil
	}

	raw, err := parsers.Structured(ctx, p.cm, parsers.Request{
		System:  prompts.RenderPlannerSystem(goal, p.toolInfo, planResultSchema, p.now()),
		Prefill: `{ "status": `,
		Schema:  planResultSchema,
	})
	if err != nil {
		logx.Error().Err(err).Str("node", NodePlanner).Msg("plan generation failed")
		return model.Delta{
			Intent: model.IntentDelta(goal),
			Error:  model.NewGenericError("failed to generate plan: " + err.Error()),
		}, nil
	}

	payload, err := parsers.Decode[plannerPayload](raw)
	if err != nil {
		return model.Delta{
			Intent: model.IntentDelta(goal),
			Error:  model.NewGenericError("failed to decode plan: " + err.Error()),
		}, nil
	}

	switch payload.Status {
	case planStatusMissingInfo:
		return model.Delta{
			Intent: model.IntentDelta(goal),
			Error:  model.NewMissingInformationError(payload.Message),
		}, nil
	case planStatusMissingTool:
		return model.Delta{
			Intent: model.IntentDelta(goal),
			Error:  model.NewMissingToolError(payload.Message),
		}, nil
	}

	plan := make(model.Plan, 0, len(payload.Plan))
	for _, step := range payload.Plan {
		plan = append(plan, model.PlanStep{Action: step.Action, Status: model.StepPending})
	}
	if len(plan) == 0 {
		return model.Delta{
			Intent: model.IntentDelta(goal),
			Error:  model.NewGenericError("planner produced an empty plan"),
		}, nil
	}

	logx.Debug().Str("node", NodePlanner).Str("goal", goal).Int("steps", len(plan)).Msg("plan ready")

	return model.Delta{
		Intent: model.IntentDelta(goal),
		Plan:   plan,
	}, nil
}

func (p *Planner) extractGoal(ctx context.Context, state *model.AgentState) (string, error) {
	window := p.mm.FormatWindow(state.Messages)
	gen, err := p.cm.Generate(ctx, []model.Message{
		model.SystemMessage(prompts.RenderIntentSystem(window)),
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(gen.Content), nil
}
