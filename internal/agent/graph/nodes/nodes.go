// Package nodes implements the processing stages of the financial
// workflow: Planner, Executor, Responder and Visualizer. Each stage reads
// the shared state and returns a partial update; ordinary failures become
// AgentError deltas, never Go errors.
package nodes

import (
	"github.com/finsight-agent/server/internal/agent/schema"
)

// Node names used when wiring the workflow graph.
const (
	NodePlanner    = "Planner"
	NodeExecutor   = "Executor"
	NodeResponder  = "Responder"
	NodeVisualizer = "Visualizer"
)

// Planner statuses of the structured plan payload.
const (
	planStatusOK          = "ok"
	planStatusMissingInfo = "missing_information"
	planStatusMissingTool = "missing_tool"
)

// Visualizer statuses of the structured chart payload.
const (
	chartStatusHelpful    = "chart_helpful"
	chartStatusNotHelpful = "chart_not_helpful"
)

var planResultSchema = schema.OneOf("planning outcome",
	schema.Object("a ready plan",
		map[string]*schema.Schema{
			"status": schema.Enum("planning succeeded", planStatusOK),
			"plan": schema.Array("ordered plan steps",
				schema.Object("one step",
					map[string]*schema.Schema{
						"action": schema.String("An action to perform to accomplish the goal. e.g. 'Fetch all transactions within the category of travel within the last week'"),
					},
					"action",
				),
			),
		},
		"status", "plan",
	),
	schema.Object("necessary detail is missing",
		map[string]*schema.Schema{
			"status":  schema.Enum("missing information", planStatusMissingInfo),
			"message": schema.String("Description of what information is missing"),
		},
		"status", "message",
	),
	schema.Object("no registered tool can satisfy the goal",
		map[string]*schema.Schema{
			"status":  schema.Enum("missing tool", planStatusMissingTool),
			"message": schema.String("Description of what tool(s) are missing"),
		},
		"status", "message",
	),
)

var responseSchema = schema.Object("user-facing response",
	map[string]*schema.Schema{
		"message":     schema.String("The user friendly answer to the goal."),
		"methodology": schema.String("Concise non-technical summary of the steps taken."),
	},
	"message",
)

var chartSchema = schema.Object("chart specification",
	map[string]*schema.Schema{
		"chartType": schema.Enum("The type of chart to render. Choose based on data visualization needs.",
			"line", "area", "bar", "pie", "radar"),
		"data": schema.Array("Data points to visualize; each record's keys match the dataKey values in axes and series.",
			schema.Object("one data point", nil),
		),
		"axes": schema.Object("axis configuration",
			map[string]*schema.Schema{
				"x": schema.Object("horizontal axis",
					map[string]*schema.Schema{
						"dataKey": schema.String("The key in the data objects providing x-axis values."),
						"label":   schema.String("Descriptive label for the axis."),
						"type":    schema.Enum("How to interpret the data on this axis.", "category", "number", "time"),
					},
					"dataKey",
				),
				"y": schema.Object("vertical axis",
					map[string]*schema.Schema{
						"label": schema.String("Descriptive label for the axis."),
						"type":  schema.Enum("How to interpret the data on this axis.", "category", "number", "time"),
					},
				),
			},
			"x", "y",
		),
		"series": schema.Array("Data series to plot.",
			schema.Object("one series",
				map[string]*schema.Schema{
					"dataKey":      schema.String("The key in the data objects providing values for this series."),
					"name":         schema.String("Display name for this series in legends and tooltips."),
					"type":         schema.Enum("Interpolation between points for line/area charts.", "monotone", "linear", "step", "stepBefore", "stepAfter"),
					"connectNulls": schema.Boolean("Whether to continue the line across missing data points."),
				},
				"dataKey", "name",
			),
		),
	},
	"chartType", "data", "axes", "series",
)

var visualizerResultSchema = schema.OneOf("visualization decision",
	schema.Object("no chart",
		map[string]*schema.Schema{
			"status": schema.Enum("a chart would not help", chartStatusNotHelpful),
		},
		"status",
	),
	schema.Object("chart recommended",
		map[string]*schema.Schema{
			"status": schema.Enum("a chart would help", chartStatusHelpful),
			"chart":  chartSchema,
		},
		"status", "chart",
	),
)
