// Package prompts holds the embedded stage prompt templates and their
// renderers. Only known tokens are replaced so JSON braces in the
// templates stay intact.
package prompts

import (
	_ "embed"
	"encoding/json"
	"strings"
	"time"

	"github.com/finsight-agent/server/internal/agent/model"
	"github.com/finsight-agent/server/internal/agent/schema"
	"github.com/finsight-agent/server/internal/store"
)

//go:embed template/intent_prompt.txt
var intentSystemPrompt string

//go:embed template/planner_prompt.txt
var plannerSystemPrompt string

//go:embed template/executor_prompt.txt
var executorSystemPrompt string

//go:embed template/responder_prompt.txt
var responderSystemPrompt string

//go:embed template/clarify_prompt.txt
var clarifySystemPrompt string

//go:embed template/visualizer_prompt.txt
var visualizerSystemPrompt string

// RenderIntentSystem renders the goal-extraction prompt over the formatted
// conversation window.
func RenderIntentSystem(messages string) string {
	return strings.NewReplacer(
		"{messages}", messages,
	).Replace(intentSystemPrompt)
}

// RenderPlannerSystem renders the planning prompt with the tool catalog,
// the table schema and the extracted goal.
func RenderPlannerSystem(goal string, infos []model.ToolInfo, planSchema *schema.Schema, now time.Time) string {
	return strings.NewReplacer(
		"{date}", now.Format(time.RFC3339),
		"{tools}", renderToolCatalog(infos),
		"{table_schema}", store.SchemaDescription(),
		"{goal}", goal,
		"{schema}", planSchema.Describe(),
	).Replace(plannerSystemPrompt)
}

// RenderExecutorSystem renders the step-execution prompt.
func RenderExecutorSystem(plan model.Plan, action string, now time.Time) string {
	return strings.NewReplacer(
		"{date}", now.Format(time.RFC3339),
		"{plan}", renderPlan(plan),
		"{action}", action,
	).Replace(executorSystemPrompt)
}

// RenderResponderSystem renders the success-response prompt.
func RenderResponderSystem(goal string, plan model.Plan, responseSchema *schema.Schema) string {
	return strings.NewReplacer(
		"{goal}", goal,
		"{plan}", renderPlan(plan),
		"{schema}", responseSchema.Describe(),
	).Replace(responderSystemPrompt)
}

// RenderClarifySystem renders the follow-up-question prompt for missing
// information.
func RenderClarifySystem(goal, missing string) string {
	return strings.NewReplacer(
		"{goal}", goal,
		"{missing}", missing,
	).Replace(clarifySystemPrompt)
}

// RenderVisualizerSystem renders the chart-decision prompt.
func RenderVisualizerSystem(goal string, plan model.Plan, resultSchema *schema.Schema) string {
	return strings.NewReplacer(
		"{goal}", goal,
		"{plan}", renderPlan(plan),
		"{schema}", resultSchema.Describe(),
	).Replace(visualizerSystemPrompt)
}

func renderPlan(plan model.Plan) string {
	b, err := json.Marshal(plan)
	if err != nil {
		return "[]"
	}
	return string(b)
}

func renderToolCatalog(infos []model.ToolInfo) string {
	var b strings.Builder
	for _, info := range infos {
		b.WriteString("- " + info.Name + ": " + info.Desc + "\n")
		if info.Params != nil {
			b.WriteString("  parameters:\n")
			b.WriteString(indent(info.Params.Describe(), "    "))
		}
	}
	return b.String()
}

func indent(s, prefix string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i, line := range lines {
		lines[i] = prefix + line
	}
	return strings.Join(lines, "\n") + "\n"
}
