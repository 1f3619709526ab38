package model

// ChartType enumerates the renderable chart kinds.
type ChartType string

const (
	ChartLine  ChartType = "line"
	ChartArea  ChartType = "area"
	ChartBar   ChartType = "bar"
	ChartPie   ChartType = "pie"
	ChartRadar ChartType = "radar"
)

// Axis configures one chart axis. Type is "category", "number" or "time".
type Axis struct {
	DataKey string `json:"dataKey,omitempty"`
	Label   string `json:"label,omitempty"`
	Type    string `json:"type,omitempty"`
}

// ChartAxes holds the x and y axis configuration. The x axis must name the
// dataKey providing its values.
type ChartAxes struct {
	X Axis `json:"x"`
	Y Axis `json:"y"`
}

// ChartSeries defines one plotted series.
type ChartSeries struct {
	DataKey       string `json:"dataKey"`
	Name          string `json:"name"`
	Interpolation string `json:"type,omitempty"`
	ConnectNulls  bool   `json:"connectNulls,omitempty"`
}

// ChartSpec is a pure output value describing a chart worth rendering.
// The system emits the specification only; rendering is someone else's job.
type ChartSpec struct {
	ChartType ChartType        `json:"chartType"`
	Data      []map[string]any `json:"data"`
	Axes      ChartAxes        `json:"axes"`
	Series    []ChartSeries    `json:"series"`
}
