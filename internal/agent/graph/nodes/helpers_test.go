package nodes

import (
	"context"
	"fmt"
	"sync"

	"github.com/finsight-agent/server/internal/agent/graph/conversations"
	"github.com/finsight-agent/server/internal/agent/graph/tools"
	"github.com/finsight-agent/server/internal/agent/model"
	"github.com/finsight-agent/server/internal/agent/repo"
)

// scriptedModel replays canned generations in order, recording every call.
type scriptedModel struct {
	mu      sync.Mutex
	script  []scriptedReply
	calls   [][]model.Message
	optSeen []model.GenerateOptions
}

type scriptedReply struct {
	gen *model.Generation
	err error
}

func scripted(replies ...scriptedReply) *scriptedModel {
	return &scriptedModel{script: replies}
}

func reply(content string) scriptedReply {
	return scriptedReply{gen: &model.Generation{Content: content}}
}

func replyToolCalls(calls ...model.ToolCall) scriptedReply {
	return scriptedReply{gen: &model.Generation{ToolCalls: calls}}
}

func replyErr(err error) scriptedReply {
	return scriptedReply{err: err}
}

func (s *scriptedModel) Generate(ctx context.Context, msgs []model.Message, opts ...model.GenerateOption) (*model.Generation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, msgs)
	s.optSeen = append(s.optSeen, model.ApplyGenerateOptions(opts...))
	if len(s.script) == 0 {
		return nil, fmt.Errorf("unexpected model call %d", len(s.calls))
	}
	next := s.script[0]
	s.script = s.script[1:]
	return next.gen, next.err
}

func (s *scriptedModel) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func testMessagesManager() *conversations.MessagesManager {
	var cfg model.ConversationConfig
	cfg.Context.MaxTurns = 20
	return conversations.NewMessagesManager(repo.NewMemoryConversationRepository(), cfg)
}

// stubTool is a fixed-output tool for executor tests.
type stubTool struct {
	name   string
	result string
	err    error
	seen   []map[string]any
}

func (s *stubTool) Info() model.ToolInfo {
	return model.ToolInfo{Name: s.name, Desc: "stub"}
}

func (s *stubTool) Invoke(ctx context.Context, args map[string]any) (string, error) {
	s.seen = append(s.seen, args)
	if s.err != nil {
		return "", s.err
	}
	return s.result, nil
}

var _ tools.Tool = (*stubTool)(nil)
