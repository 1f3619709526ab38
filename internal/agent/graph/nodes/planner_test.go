package nodes

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finsight-agent/server/internal/agent/model"
)

func plannerState() *model.AgentState {
	return &model.AgentState{Messages: []model.Message{
		model.UserMessage("how much did I spend on dining this month?"),
	}}
}

func TestPlannerHappyPath(t *testing.T) {
	cm := scripted(
		reply("Total dining spend for the current month"),
		reply(`"ok", "plan": [{"action": "Fetch dining transactions"}, {"action": "Sum the amounts"}] }`),
	)
	p := NewPlanner(cm, nil, testMessagesManager())

	delta, err := p.Run(context.Background(), plannerState())
	require.NoError(t, err)
	require.NotNil(t, delta.Intent)
	assert.Equal(t, "Total dining spend for the current month", *delta.Intent)
	assert.Nil(t, delta.Error)

	require.Len(t, delta.Plan, 2)
	assert.Equal(t, "Fetch dining transactions", delta.Plan[0].Action)
	for _, step := range delta.Plan {
		assert.Equal(t, model.StepPending, step.Status)
	}
}

func TestPlannerMissingInformation(t *testing.T) {
	cm := scripted(
		reply("Spending for an unspecified period"),
		reply(`"missing_information", "message": "no time period given" }`),
	)
	p := NewPlanner(cm, nil, testMessagesManager())

	delta, err := p.Run(context.Background(), plannerState())
	require.NoError(t, err)
	require.NotNil(t, delta.Error)
	assert.Equal(t, model.ErrMissingInformation, delta.Error.Kind)
	assert.Equal(t, "no time period given", delta.Error.Message)
	assert.Nil(t, delta.Plan)
}

func TestPlannerMissingTool(t *testing.T) {
	cm := scripted(
		reply("Book a flight to Paris"),
		reply(`"missing_tool", "message": "no booking capability" }`),
	)
	p := NewPlanner(cm, nil, testMessagesManager())

	delta, err := p.Run(context.Background(), plannerState())
	require.NoError(t, err)
	require.NotNil(t, delta.Error)
	assert.Equal(t, model.ErrMissingTool, delta.Error.Kind)
}

func TestPlannerFailures(t *testing.T) {
	t.Run("goal extraction error", func(t *testing.T) {
		cm := scripted(replyErr(errors.New("provider down")))
		p := NewPlanner(cm, nil, testMessagesManager())

		delta, err := p.Run(context.Background(), plannerState())
		require.NoError(t, err)
		require.NotNil(t, delta.Error)
		assert.Equal(t, model.ErrGeneric, delta.Error.Kind)
	})

	t.Run("empty goal", func(t *testing.T) {
		cm := scripted(reply("   "))
		p := NewPlanner(cm, nil, testMessagesManager())

		delta, err := p.Run(context.Background(), plannerState())
		require.NoError(t, err)
		require.NotNil(t, delta.Error)
		assert.Equal(t, model.ErrGeneric, delta.Error.Kind)
		assert.Equal(t, 1, cm.callCount())
	})

	t.Run("unparseable plan", func(t *testing.T) {
		cm := scripted(
			reply("a goal"),
			reply(`definitely not json`),
		)
		p := NewPlanner(cm, nil, testMessagesManager())

		delta, err := p.Run(context.Background(), plannerState())
		require.NoError(t, err)
		require.NotNil(t, delta.Error)
		assert.Equal(t, model.ErrGeneric, delta.Error.Kind)
		require.NotNil(t, delta.Intent)
		assert.Equal(t, "a goal", *delta.Intent)
	})

	t.Run("empty plan", func(t *testing.T) {
		cm := scripted(
			reply("a goal"),
			reply(`"ok", "plan": [] }`),
		)
		p := NewPlanner(cm, nil, testMessagesManager())

		delta, err := p.Run(context.Background(), plannerState())
		require.NoError(t, err)
		require.NotNil(t, delta.Error)
		assert.Equal(t, model.ErrGeneric, delta.Error.Kind)
	})
}
