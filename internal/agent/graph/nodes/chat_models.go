package nodes

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/finsight-agent/server/internal/agent/model"
	"github.com/finsight-agent/server/internal/agent/schema"
	logx "github.com/finsight-agent/server/pkg/logger"
)

// ChatModelConfig holds the configuration for chat model creation
type ChatModelConfig struct {
	APIKey     string
	BaseURL    string
	Planner    *model.PlannerModelConfig
	Executor   *model.ExecutorModelConfig
	Responder  *model.ResponderModelConfig
	Visualizer *model.VisualizerModelConfig
}

// ChatModels holds the per-stage chat models. All four share one Gemini
// client; they differ only in model name and sampling settings.
type ChatModels struct {
	Planner    model.ChatModel
	Executor   model.ChatModel
	Responder  model.ChatModel
	Visualizer model.ChatModel
}

// NewChatModels creates the per-stage chat models with the given configuration
func NewChatModels(ctx context.Context, config ChatModelConfig) (*ChatModels, error) {
	clientCfg := &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if config.BaseURL != "" {
		clientCfg.HTTPOptions.BaseURL = config.BaseURL
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		logx.Error().Err(err).Msg("Error creating Gemini client")
		return nil, fmt.Errorf("error creating Gemini client: %w", err)
	}

	return &ChatModels{
		Planner:    newGeminiChatModel(client, config.Planner.Model, config.Planner.Temperature, config.Planner.MaxTokens),
		Executor:   newGeminiChatModel(client, config.Executor.Model, config.Executor.Temperature, config.Executor.MaxTokens),
		Responder:  newGeminiChatModel(client, config.Responder.Model, config.Responder.Temperature, config.Responder.MaxTokens),
		Visualizer: newGeminiChatModel(client, config.Visualizer.Model, config.Visualizer.Temperature, config.Visualizer.MaxTokens),
	}, nil
}

// geminiChatModel adapts one Gemini model to the ChatModel interface.
type geminiChatModel struct {
	client      *genai.Client
	model       string
	temperature float32
	maxTokens   int
}

var _ model.ChatModel = (*geminiChatModel)(nil)

func newGeminiChatModel(client *genai.Client, modelName string, temperature float32, maxTokens int) *geminiChatModel {
	return &geminiChatModel{
		client:      client,
		model:       modelName,
		temperature: temperature,
		maxTokens:   maxTokens,
	}
}

// Generate implements model.ChatModel. System messages become the system
// instruction; a trailing assistant message is sent as a model-role turn so
// Gemini continues from it (prefill).
func (g *geminiChatModel) Generate(ctx context.Context, msgs []model.Message, opts ...model.GenerateOption) (*model.Generation, error) {
	options := model.ApplyGenerateOptions(opts...)

	cfg := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(g.temperature),
		MaxOutputTokens: int32(g.maxTokens),
	}

	var contents []*genai.Content
	var system string
	for _, msg := range msgs {
		switch msg.Role {
		case model.RoleSystem:
			system = msg.Content
		case model.RoleAssistant:
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleUser))
		}
	}
	if system != "" {
		if len(contents) == 0 {
			// The API rejects empty contents, so a system-only request is
			// sent as a single user turn instead.
			contents = append(contents, genai.NewContentFromText(system, genai.RoleUser))
		} else {
			cfg.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
		}
	}

	if len(options.Tools) > 0 {
		decls := make([]*genai.FunctionDeclaration, 0, len(options.Tools))
		for _, info := range options.Tools {
			decls = append(decls, &genai.FunctionDeclaration{
				Name:        info.Name,
				Description: info.Desc,
				Parameters:  toGenAISchema(info.Params),
			})
		}
		cfg.Tools = []*genai.Tool{{FunctionDeclarations: decls}}
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, cfg)
	if err != nil {
		return nil, fmt.Errorf("gemini generate: %w", err)
	}

	gen := &model.Generation{Content: resp.Text()}
	for _, fc := range resp.FunctionCalls() {
		gen.ToolCalls = append(gen.ToolCalls, model.ToolCall{
			ID:   fc.ID,
			Name: fc.Name,
			Args: fc.Args,
		})
	}
	return gen, nil
}

// toGenAISchema converts a tool parameter schema into the Gemini function
// declaration format.
func toGenAISchema(s *schema.Schema) *genai.Schema {
	if s == nil {
		return nil
	}

	out := &genai.Schema{Description: s.Desc}

	if len(s.AnyOf) > 0 {
		for _, alt := range s.AnyOf {
			out.AnyOf = append(out.AnyOf, toGenAISchema(alt))
		}
		return out
	}

	switch s.Type {
	case schema.TypeObject:
		out.Type = genai.TypeObject
		if len(s.Properties) > 0 {
			out.Properties = make(map[string]*genai.Schema, len(s.Properties))
			for name, prop := range s.Properties {
				out.Properties[name] = toGenAISchema(prop)
			}
		}
		out.Required = s.Required
	case schema.TypeArray:
		out.Type = genai.TypeArray
		out.Items = toGenAISchema(s.Items)
	case schema.TypeNumber:
		out.Type = genai.TypeNumber
	case schema.TypeInteger:
		out.Type = genai.TypeInteger
	case schema.TypeBoolean:
		out.Type = genai.TypeBoolean
	default:
		// TypeString, TypeAny and anything unrecognized degrade to string;
		// the function declaration format has no "any" type.
		out.Type = genai.TypeString
		out.Enum = s.Enum
	}
	return out
}
