package nodes

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finsight-agent/server/internal/agent/model"
)

func visualizerState() *model.AgentState {
	return &model.AgentState{
		Intent: "dining spend by month",
		Plan:   model.Plan{{Action: "fetch", Status: model.StepCompleted, Result: "rows"}},
	}
}

const helpfulChart = `"chart_helpful", "chart": {
	"chartType": "bar",
	"data": [{"month": "June", "total": 150.5}, {"month": "July", "total": 98.25}],
	"axes": {
		"x": {"dataKey": "month", "label": "Month", "type": "category"},
		"y": {"label": "Spend ($)", "type": "number"}
	},
	"series": [{"dataKey": "total", "name": "Dining"}]
} }`

func TestVisualizerProducesChart(t *testing.T) {
	cm := scripted(reply(helpfulChart))
	v := NewVisualizer(cm)

	delta, err := v.Run(context.Background(), visualizerState())
	require.NoError(t, err)
	require.NotNil(t, delta.Chart)
	assert.Equal(t, model.ChartBar, delta.Chart.ChartType)
	require.Len(t, delta.Chart.Data, 2)
	assert.Equal(t, "month", delta.Chart.Axes.X.DataKey)
	require.Len(t, delta.Chart.Series, 1)
	assert.Equal(t, "Dining", delta.Chart.Series[0].Name)
}

func TestVisualizerNotHelpful(t *testing.T) {
	cm := scripted(reply(`"chart_not_helpful" }`))
	v := NewVisualizer(cm)

	delta, err := v.Run(context.Background(), visualizerState())
	require.NoError(t, err)
	assert.Nil(t, delta.Chart)
	assert.Empty(t, delta.Keys())
}

func TestVisualizerSkipsOnErrorState(t *testing.T) {
	cm := scripted()
	v := NewVisualizer(cm)

	state := visualizerState()
	state.Error = model.NewGenericError("boom")
	delta, err := v.Run(context.Background(), state)
	require.NoError(t, err)
	assert.Empty(t, delta.Keys())
	assert.Zero(t, cm.callCount())
}

func TestVisualizerSkipsWithoutPlan(t *testing.T) {
	cm := scripted()
	v := NewVisualizer(cm)

	delta, err := v.Run(context.Background(), &model.AgentState{Intent: "goal"})
	require.NoError(t, err)
	assert.Empty(t, delta.Keys())
	assert.Zero(t, cm.callCount())
}

func TestVisualizerNeverFailsTheTurn(t *testing.T) {
	t.Run("model error", func(t *testing.T) {
		cm := scripted(replyErr(errors.New("provider down")))
		v := NewVisualizer(cm)

		delta, err := v.Run(context.Background(), visualizerState())
		require.NoError(t, err)
		assert.Empty(t, delta.Keys())
	})

	t.Run("unparseable payload", func(t *testing.T) {
		cm := scripted(reply("not json"))
		v := NewVisualizer(cm)

		delta, err := v.Run(context.Background(), visualizerState())
		require.NoError(t, err)
		assert.Empty(t, delta.Keys())
	})

	t.Run("schema violation", func(t *testing.T) {
		// helpful status but no chart payload
		cm := scripted(reply(`"chart_helpful" }`))
		v := NewVisualizer(cm)

		delta, err := v.Run(context.Background(), visualizerState())
		require.NoError(t, err)
		assert.Empty(t, delta.Keys())
	})
}
