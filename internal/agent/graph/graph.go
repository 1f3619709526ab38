package graph

import (
	"context"
	"fmt"

	"github.com/finsight-agent/server/internal/agent/graph/conversations"
	"github.com/finsight-agent/server/internal/agent/graph/nodes"
	"github.com/finsight-agent/server/internal/agent/graph/tools"
	"github.com/finsight-agent/server/internal/agent/model"
	"github.com/finsight-agent/server/internal/store"
	logx "github.com/finsight-agent/server/pkg/logger"
)

// TurnResult is the outcome of one turn: the final text answer plus an
// optional chart specification.
type TurnResult struct {
	Text  *model.TextResponse
	Chart *model.ChartSpec
}

// Runner is a thin wrapper to execute the compiled workflow with the public TurnInput.
type Runner interface {
	RunTurn(ctx context.Context, in model.TurnInput, opts ...InvokeOption) (*TurnResult, error)
}

// Config holds everything needed to compose the full financial workflow end-to-end.
// This is a convenience layer over GraphConfig that also constructs ChatModels and MessagesManager.
type Config struct {
	APIKey           string
	BaseURL          string
	Planner          model.PlannerModelConfig
	Executor         model.ExecutorModelConfig
	Responder        model.ResponderModelConfig
	Visualizer       model.VisualizerModelConfig
	Conversation     model.ConversationConfig
	ConversationRepo model.ConversationRepository
	Store            *store.TransactionStore
}

// GraphConfig holds all configuration needed to build the workflow
type GraphConfig struct {
	ChatModels        *nodes.ChatModels
	MessagesManager   *conversations.MessagesManager
	Tools             []tools.Tool
	VisualizerEnabled bool
}

type workflowRunner struct {
	workflow *Workflow
	mm       *conversations.MessagesManager
}

func (r *workflowRunner) RunTurn(ctx context.Context, in model.TurnInput, opts ...InvokeOption) (*TurnResult, error) {
	messages, err := r.mm.ProcessUserMessage(ctx, in.ConversationID, in.Query)
	if err != nil {
		return nil, fmt.Errorf("processing user message: %w", err)
	}

	state := &model.AgentState{Messages: messages}
	if err := r.workflow.Invoke(ctx, state, opts...); err != nil {
		return nil, err
	}

	if state.Text == nil {
		return nil, &WorkflowError{Node: nodes.NodeResponder, Err: fmt.Errorf("turn finished without a text response")}
	}
	if err := r.mm.SaveResponse(ctx, in.ConversationID, state.Text.Message); err != nil {
		logx.Warn().Err(err).Str("conversation_id", in.ConversationID).Msg("failed to persist assistant response")
	}
	return &TurnResult{Text: state.Text, Chart: state.Chart}, nil
}

// BuildFinancialWorkflow composes ChatModels, MessagesManager, builds the
// workflow, and returns a Runner.
func BuildFinancialWorkflow(ctx context.Context, cfg Config) (Runner, error) {
	if cfg.ConversationRepo == nil {
		return nil, fmt.Errorf("conversation repo is nil")
	}
	if cfg.Store == nil {
		return nil, fmt.Errorf("transaction store is nil")
	}

	cms, err := nodes.NewChatModels(ctx, nodes.ChatModelConfig{
		APIKey:     cfg.APIKey,
		BaseURL:    cfg.BaseURL,
		Planner:    &cfg.Planner,
		Executor:   &cfg.Executor,
		Responder:  &cfg.Responder,
		Visualizer: &cfg.Visualizer,
	})
	if err != nil {
		return nil, err
	}

	mm := conversations.NewMessagesManager(cfg.ConversationRepo, cfg.Conversation)

	workflow, err := BuildGraph(&GraphConfig{
		ChatModels:        cms,
		MessagesManager:   mm,
		Tools:             tools.QueryTools(cfg.Store),
		VisualizerEnabled: cfg.Visualizer.Enabled,
	})
	if err != nil {
		return nil, err
	}

	logx.Debug().Msg("Financial workflow built successfully")
	return &workflowRunner{workflow: workflow, mm: mm}, nil
}

// BuildGraph constructs and returns the compiled workflow
func BuildGraph(config *GraphConfig) (*Workflow, error) {
	if config == nil {
		return nil, fmt.Errorf("graph config is nil")
	}
	if config.ChatModels == nil ||
		config.ChatModels.Planner == nil || config.ChatModels.Executor == nil ||
		config.ChatModels.Responder == nil || config.ChatModels.Visualizer == nil {
		return nil, fmt.Errorf("chat models are not properly initialized")
	}
	if config.MessagesManager == nil {
		return nil, fmt.Errorf("messages manager is nil")
	}
	if len(config.Tools) == 0 {
		return nil, fmt.Errorf("no tools registered")
	}

	planner := nodes.NewPlanner(config.ChatModels.Planner, tools.Infos(config.Tools), config.MessagesManager)
	executor := nodes.NewExecutor(config.ChatModels.Executor, config.Tools)
	responder := nodes.NewResponder(config.ChatModels.Responder)
	visualizer := nodes.NewVisualizer(config.ChatModels.Visualizer)

	g := NewGraph().
		AddNode(nodes.NodePlanner, planner.Run).
		AddNode(nodes.NodeExecutor, executor.Run).
		AddNode(nodes.NodeResponder, responder.Run).
		AddNode(nodes.NodeVisualizer, visualizer.Run)

	g.AddEdge(Start, nodes.NodePlanner)
	g.AddEdge(nodes.NodeResponder, End)
	g.AddEdge(nodes.NodeVisualizer, End)

	// Planning failures of any kind skip straight to the Responder.
	g.AddBranch(nodes.NodePlanner, func(state *model.AgentState) []string {
		if state.Error != nil {
			return []string{nodes.NodeResponder}
		}
		return []string{nodes.NodeExecutor}
	}, map[string]bool{
		nodes.NodeExecutor:  true,
		nodes.NodeResponder: true,
	})

	g.AddBranch(nodes.NodeExecutor, executorRoute(config.VisualizerEnabled), map[string]bool{
		nodes.NodeExecutor:   true,
		nodes.NodeResponder:  true,
		nodes.NodeVisualizer: true,
	})

	return g.Compile()
}

// executorRoute loops the Executor until the plan is exhausted, then fans
// out to the Responder and, when enabled, the Visualizer.
func executorRoute(visualizerEnabled bool) RouteFunc {
	return func(state *model.AgentState) []string {
		if state.Error == nil && state.Plan.NextPending() >= 0 {
			return []string{nodes.NodeExecutor}
		}
		if state.Error == nil && visualizerEnabled {
			return []string{nodes.NodeResponder, nodes.NodeVisualizer}
		}
		return []string{nodes.NodeResponder}
	}
}
