package graph

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finsight-agent/server/internal/agent/graph/conversations"
	"github.com/finsight-agent/server/internal/agent/graph/nodes"
	"github.com/finsight-agent/server/internal/agent/graph/tools"
	"github.com/finsight-agent/server/internal/agent/model"
	"github.com/finsight-agent/server/internal/agent/repo"
	"github.com/finsight-agent/server/internal/store"
)

// scriptedModel replays canned generations in order.
type scriptedModel struct {
	mu     sync.Mutex
	script []*model.Generation
	calls  int
}

func scripted(gens ...*model.Generation) *scriptedModel {
	return &scriptedModel{script: gens}
}

func text(content string) *model.Generation {
	return &model.Generation{Content: content}
}

func toolCall(name string, args map[string]any) *model.Generation {
	return &model.Generation{ToolCalls: []model.ToolCall{{Name: name, Args: args}}}
}

func (s *scriptedModel) Generate(ctx context.Context, msgs []model.Message, opts ...model.GenerateOption) (*model.Generation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if len(s.script) == 0 {
		return nil, fmt.Errorf("unexpected model call %d", s.calls)
	}
	next := s.script[0]
	s.script = s.script[1:]
	return next, nil
}

func (s *scriptedModel) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type testHarness struct {
	planner    *scriptedModel
	executor   *scriptedModel
	responder  *scriptedModel
	visualizer *scriptedModel
	store      *store.TransactionStore
	mm         *conversations.MessagesManager
}

func newHarness(t *testing.T) *testHarness {
	t.Helper()
	ts, err := store.Open(filepath.Join(t.TempDir(), "tx.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = ts.Close() })

	var cfg model.ConversationConfig
	cfg.Context.MaxTurns = 20

	return &testHarness{
		planner:    scripted(),
		executor:   scripted(),
		responder:  scripted(),
		visualizer: scripted(),
		store:      ts,
		mm:         conversations.NewMessagesManager(repo.NewMemoryConversationRepository(), cfg),
	}
}

func (h *testHarness) runner(t *testing.T, visualizerEnabled bool) *workflowRunner {
	t.Helper()
	wf, err := BuildGraph(&GraphConfig{
		ChatModels: &nodes.ChatModels{
			Planner:    h.planner,
			Executor:   h.executor,
			Responder:  h.responder,
			Visualizer: h.visualizer,
		},
		MessagesManager:   h.mm,
		Tools:             tools.QueryTools(h.store),
		VisualizerEnabled: visualizerEnabled,
	})
	require.NoError(t, err)
	return &workflowRunner{workflow: wf, mm: h.mm}
}

func TestWorkflowHappyPath(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	require.NoError(t, h.store.Insert(ctx, store.Transaction{
		Date: "2026-08-01", Amount: -1000, Category: "Dining", Merchant: "Chipotle", Account: "Checking 0012",
	}))
	require.NoError(t, h.store.Insert(ctx, store.Transaction{
		Date: "2026-08-02", Amount: -500, Category: "Dining", Merchant: "Starbucks", Account: "Checking 0012",
	}))

	h.planner.script = []*model.Generation{
		text("Total dining spend this month"),
		text(`"ok", "plan": [{"action": "Sum dining transaction amounts"}] }`),
	}
	h.executor.script = []*model.Generation{
		toolCall(tools.ToolQueryTransactions, map[string]any{
			"query":      "SELECT SUM(amount) AS total FROM transactions WHERE category = ?",
			"parameters": []any{"Dining"},
		}),
	}
	h.responder.script = []*model.Generation{
		text(`"You spent $15.00 on dining this month.", "methodology": "Summed all dining transactions." }`),
	}
	h.visualizer.script = []*model.Generation{
		text(`"chart_not_helpful" }`),
	}

	result, err := h.runner(t, true).RunTurn(ctx, model.TurnInput{
		ConversationID: "conv-1",
		Query:          "how much did I spend on dining?",
	})
	require.NoError(t, err)
	assert.Equal(t, "You spent $15.00 on dining this month.", result.Text.Message)
	assert.Nil(t, result.Chart)

	// fan-out reached both final stages
	assert.Equal(t, 1, h.responder.callCount())
	assert.Equal(t, 1, h.visualizer.callCount())

	// user turn and assistant reply are persisted
	history, err := h.mm.ProcessUserMessage(ctx, "conv-1", "next")
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, model.RoleAssistant, history[1].Role)
	assert.Equal(t, "You spent $15.00 on dining this month.", history[1].Content)
}

func TestWorkflowMultiStepPlanLoops(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.planner.script = []*model.Generation{
		text("Average monthly spend"),
		text(`"ok", "plan": [{"action": "Fetch totals"}, {"action": "Compute the average"}] }`),
	}
	h.executor.script = []*model.Generation{
		text("monthly totals: 100, 200"),
		toolCall(tools.ToolEvaluateExpression, map[string]any{"expression": "(100 + 200) / 2"}),
	}
	h.responder.script = []*model.Generation{
		text(`"Your average monthly spend is $1.50." }`),
	}
	h.visualizer.script = []*model.Generation{
		text(`"chart_not_helpful" }`),
	}

	result, err := h.runner(t, true).RunTurn(ctx, model.TurnInput{ConversationID: "c", Query: "average spend?"})
	require.NoError(t, err)
	assert.NotEmpty(t, result.Text.Message)
	// the executor ran once per plan step
	assert.Equal(t, 2, h.executor.callCount())
}

func TestWorkflowMissingToolBypassesExecutor(t *testing.T) {
	h := newHarness(t)

	h.planner.script = []*model.Generation{
		text("Book a flight"),
		text(`"missing_tool", "message": "no booking capability" }`),
	}

	result, err := h.runner(t, true).RunTurn(context.Background(), model.TurnInput{
		ConversationID: "c",
		Query:          "book me a flight to Paris",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, result.Text.Message)
	assert.Nil(t, result.Chart)

	assert.Zero(t, h.executor.callCount())
	assert.Zero(t, h.visualizer.callCount())
	// missing-tool copy is fixed, no responder model call either
	assert.Zero(t, h.responder.callCount())
}

func TestWorkflowMissingInformationAsksBack(t *testing.T) {
	h := newHarness(t)

	h.planner.script = []*model.Generation{
		text("Spend for an unspecified period"),
		text(`"missing_information", "message": "no time period" }`),
	}
	h.responder.script = []*model.Generation{
		text("Which month are you asking about?"),
	}

	result, err := h.runner(t, true).RunTurn(context.Background(), model.TurnInput{
		ConversationID: "c",
		Query:          "how much did I spend?",
	})
	require.NoError(t, err)
	assert.Equal(t, "Which month are you asking about?", result.Text.Message)
	assert.Zero(t, h.executor.callCount())
}

func TestWorkflowToolFailureEndsWithApology(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.planner.script = []*model.Generation{
		text("Wipe my data"),
		text(`"ok", "plan": [{"action": "Delete everything"}, {"action": "Confirm"}] }`),
	}
	h.executor.script = []*model.Generation{
		toolCall(tools.ToolQueryTransactions, map[string]any{"query": "DELETE FROM transactions"}),
	}

	runner := h.runner(t, true)
	state := &model.AgentState{Messages: []model.Message{model.UserMessage("wipe my data")}}
	require.NoError(t, runner.workflow.Invoke(ctx, state))

	require.NotNil(t, state.Error)
	assert.Equal(t, model.ErrGeneric, state.Error.Kind)
	require.NotNil(t, state.Text)
	assert.NotContains(t, state.Text.Message, "DELETE")

	// the failing step and everything after it stay pending
	assert.Equal(t, model.StepPending, state.Plan[0].Status)
	assert.Equal(t, model.StepPending, state.Plan[1].Status)
	assert.Zero(t, h.visualizer.callCount())
}

func TestWorkflowVisualizerDisabled(t *testing.T) {
	h := newHarness(t)

	h.planner.script = []*model.Generation{
		text("Total spend"),
		text(`"ok", "plan": [{"action": "Answer directly"}] }`),
	}
	h.executor.script = []*model.Generation{text("total is zero")}
	h.responder.script = []*model.Generation{text(`"You spent nothing." }`)}

	result, err := h.runner(t, false).RunTurn(context.Background(), model.TurnInput{
		ConversationID: "c",
		Query:          "total?",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, result.Text.Message)
	assert.Zero(t, h.visualizer.callCount())
}

func TestWorkflowChartDelivered(t *testing.T) {
	h := newHarness(t)

	h.planner.script = []*model.Generation{
		text("Spend by month"),
		text(`"ok", "plan": [{"action": "Fetch monthly totals"}] }`),
	}
	h.executor.script = []*model.Generation{text("June: $150.50, July: $98.25")}
	h.responder.script = []*model.Generation{text(`"Here is your spend by month." }`)}
	h.visualizer.script = []*model.Generation{
		text(`"chart_helpful", "chart": {
			"chartType": "bar",
			"data": [{"month": "June", "total": 150.5}, {"month": "July", "total": 98.25}],
			"axes": {"x": {"dataKey": "month", "label": "Month", "type": "category"}, "y": {"label": "Spend", "type": "number"}},
			"series": [{"dataKey": "total", "name": "Spend"}]
		} }`),
	}

	result, err := h.runner(t, true).RunTurn(context.Background(), model.TurnInput{
		ConversationID: "c",
		Query:          "chart my spend by month",
	})
	require.NoError(t, err)
	require.NotNil(t, result.Chart)
	assert.Equal(t, model.ChartBar, result.Chart.ChartType)
	assert.Len(t, result.Chart.Data, 2)
}

func TestBuildGraphValidation(t *testing.T) {
	h := newHarness(t)

	t.Run("nil config", func(t *testing.T) {
		_, err := BuildGraph(nil)
		assert.Error(t, err)
	})

	t.Run("missing chat models", func(t *testing.T) {
		_, err := BuildGraph(&GraphConfig{MessagesManager: h.mm, Tools: tools.QueryTools(h.store)})
		assert.Error(t, err)
	})

	t.Run("missing tools", func(t *testing.T) {
		_, err := BuildGraph(&GraphConfig{
			ChatModels: &nodes.ChatModels{
				Planner: h.planner, Executor: h.executor,
				Responder: h.responder, Visualizer: h.visualizer,
			},
			MessagesManager: h.mm,
		})
		assert.Error(t, err)
	})
}
