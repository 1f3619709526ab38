package nodes

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/finsight-agent/server/internal/agent/graph/prompts"
	"github.com/finsight-agent/server/internal/agent/graph/tools"
	"github.com/finsight-agent/server/internal/agent/model"
	logx "github.com/finsight-agent/server/pkg/logger"
)

// Executor advances the plan one step per invocation: it asks the model to
// complete the first pending action, runs any requested tool calls in
// order, and records the outcome on that step.
type Executor struct {
	cm     model.ChatModel
	tools  []tools.Tool
	byName map[string]tools.Tool
	now    func() time.Time
}

func NewExecutor(cm model.ChatModel, toolSet []tools.Tool) *Executor {
	return &Executor{
		cm:     cm,
		tools:  toolSet,
		byName: tools.ByName(toolSet),
		now:    time.Now,
	}
}

// Run implements the Executor stage. A missing plan or pending step is an
// invariant violation — routing should never have sent us here — so it
// aborts the turn instead of producing a user-facing error.
func (e *Executor) Run(ctx context.Context, state *model.AgentState) (model.Delta, error) {
	if state.Plan == nil {
		return model.Delta{}, fmt.Errorf("unable to proceed without a plan")
	}
	idx := state.Plan.NextPending()
	if idx < 0 {
		return model.Delta{}, fmt.Errorf("unable to proceed without a pending step")
	}
	step := state.Plan[idx]

	gen, err := e.cm.Generate(ctx,
		[]model.Message{model.SystemMessage(prompts.RenderExecutorSystem(state.Plan, step.Action, e.now()))},
		model.WithTools(tools.Infos(e.tools)),
	)
	if err != nil {
		logx.Error().Err(err).Str("node", NodeExecutor).Str("action", step.Action).Msg("step execution failed")
		return model.Delta{Error: model.NewGenericError("failed to execute plan: " + err.Error())}, nil
	}

	if len(gen.ToolCalls) > 0 {
		results := make([]model.StepToolResult, 0, len(gen.ToolCalls))
		for _, call := range gen.ToolCalls {
			tool, ok := e.byName[call.Name]
			if !ok {
				logx.Warn().Str("node", NodeExecutor).Str("tool", call.Name).Msg("model requested unknown tool")
				return model.Delta{Error: model.NewGenericError("failed to execute plan: unknown tool " + call.Name)}, nil
			}
			out, err := tool.Invoke(ctx, call.Args)
			if err != nil {
				logx.Error().Err(err).Str("node", NodeExecutor).Str("tool", call.Name).Msg("tool invocation failed")
				return model.Delta{Error: model.NewGenericError("failed to execute plan: " + err.Error())}, nil
			}
			results = append(results, model.StepToolResult{Tool: call.Name, Args: call.Args, Result: out})
		}

		step.Status = model.StepCompleted
		step.Result = results
		return model.Delta{Plan: state.Plan.WithStep(idx, step)}, nil
	}

	result := strings.TrimSpace(gen.Content)
	if result == "" {
		return model.Delta{Error: model.NewGenericError("failed to execute plan: empty result for action")}, nil
	}

	step.Status = model.StepCompleted
	step.Result = result
	return model.Delta{Plan: state.Plan.WithStep(idx, step)}, nil
}
