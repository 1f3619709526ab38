package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/finsight-agent/server/internal/agent/graph"
	"github.com/finsight-agent/server/internal/agent/graph/observers"
	"github.com/finsight-agent/server/internal/agent/model"
	"github.com/finsight-agent/server/internal/agent/repo"
	"github.com/finsight-agent/server/internal/core"
	"github.com/finsight-agent/server/internal/store"
	logx "github.com/finsight-agent/server/pkg/logger"
	pkgredis "github.com/finsight-agent/server/pkg/redis"
)

// AppConfig defines all configurable parameters for the agent, sourced from
// environment variables (loaded from .env for local runs).
type AppConfig struct {
	Environment core.Environment `envconfig:"ENVIRONMENT" default:"development"`

	// Infrastructure
	Redis pkgredis.Config
	Store model.StoreConfig

	// LLM provider
	APIKey  string `envconfig:"GEMINI_API_KEY" required:"true"`
	BaseURL string `envconfig:"GEMINI_BASE_URL"`

	// Agent configs
	Planner      model.PlannerModelConfig
	Executor     model.ExecutorModelConfig
	Responder    model.ResponderModelConfig
	Visualizer   model.VisualizerModelConfig
	Conversation model.ConversationConfig
}

func main() {
	debug := flag.Bool("debug", false, "print per-node progress and chart specs")
	flag.Parse()

	ctx := context.Background()

	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	var envCfg AppConfig
	if err := envconfig.Process("", &envCfg); err != nil {
		log.Fatalf("Failed to process environment config: %v", err)
	}
	logx.Init(logx.LoggerOpts{Environment: envCfg.Environment})

	ts := mustOpenStore(ctx, envCfg.Store)
	defer ts.Close()

	conversationRepo := newConversationRepo(envCfg)

	cfg := graph.Config{
		APIKey:           envCfg.APIKey,
		BaseURL:          envCfg.BaseURL,
		Planner:          envCfg.Planner,
		Executor:         envCfg.Executor,
		Responder:        envCfg.Responder,
		Visualizer:       envCfg.Visualizer,
		Conversation:     envCfg.Conversation,
		ConversationRepo: conversationRepo,
		Store:            ts,
	}

	runner, err := graph.BuildFinancialWorkflow(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to build workflow: %v", err)
	}

	repl(ctx, runner, *debug)
}

func mustOpenStore(ctx context.Context, cfg model.StoreConfig) *store.TransactionStore {
	ts, err := store.Open(cfg.Path)
	if err != nil {
		log.Fatalf("Failed to open transaction store: %v", err)
	}

	if cfg.Seed {
		count, err := ts.Count(ctx)
		if err != nil {
			log.Fatalf("Failed to inspect transaction store: %v", err)
		}
		if count == 0 {
			inserted, err := ts.Seed(ctx, store.SeedOptions{})
			if err != nil {
				log.Fatalf("Failed to seed transaction store: %v", err)
			}
			logx.Info().Int("transactions", inserted).Msg("seeded transaction store")
		}
	}
	ts.LogStats(ctx)
	return ts
}

func newConversationRepo(envCfg AppConfig) model.ConversationRepository {
	if envCfg.Redis.URL == "" {
		logx.Info().Msg("REDIS_URL not set, keeping conversation history in memory")
		return repo.NewMemoryConversationRepository()
	}

	rdb, err := envCfg.Redis.New()
	if err != nil {
		log.Fatalf("Failed to initialise Redis client: %v", err)
	}
	ttl, err := time.ParseDuration(envCfg.Conversation.TTL)
	if err != nil {
		log.Fatalf("Invalid CONVERSATION_TTL '%s': %v", envCfg.Conversation.TTL, err)
	}
	return repo.NewRedisConversationRepository(rdb, ttl)
}

func repl(ctx context.Context, runner graph.Runner, debug bool) {
	conversationID := fmt.Sprintf("repl-%d", time.Now().Unix())

	fmt.Println("Ask about your finances. Type 'exit' or 'quit' to leave.")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		query := strings.TrimSpace(scanner.Text())
		if query == "" {
			continue
		}
		if query == "exit" || query == "quit" {
			break
		}

		var opts []graph.InvokeOption
		if debug {
			opts = append(opts, graph.WithProgress(observers.NewProgressLogger(true)))
		}

		result, err := runner.RunTurn(ctx, model.TurnInput{
			ConversationID: conversationID,
			Query:          query,
		}, opts...)
		if err != nil {
			logx.Error().Err(err).Msg("turn failed")
			fmt.Println("Something went wrong, please try again.")
			continue
		}

		fmt.Println(result.Text.Message)
		if result.Text.Methodology != "" {
			fmt.Printf("(%s)\n", result.Text.Methodology)
		}
		if debug && result.Chart != nil {
			if b, err := json.MarshalIndent(result.Chart, "", "  "); err == nil {
				fmt.Printf("chart:\n%s\n", b)
			}
		}
	}
}
