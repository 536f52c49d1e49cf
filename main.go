package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/tanpawarit/partselect-assistant/agent/agents/orchestrator"
	"github.com/tanpawarit/partselect-assistant/agent/agents/specialist"
	"github.com/tanpawarit/partselect-assistant/agent/cache"
	"github.com/tanpawarit/partselect-assistant/agent/catalog"
	llmx "github.com/tanpawarit/partselect-assistant/agent/llm"
	"github.com/tanpawarit/partselect-assistant/agent/memory"
	promptx "github.com/tanpawarit/partselect-assistant/agent/prompt"
	"github.com/tanpawarit/partselect-assistant/agent/search"
	"github.com/tanpawarit/partselect-assistant/agent/tool"
	"github.com/tanpawarit/partselect-assistant/api"
	configx "github.com/tanpawarit/partselect-assistant/pkg/config"
	"github.com/tanpawarit/partselect-assistant/pkg/database"
	_ "github.com/tanpawarit/partselect-assistant/pkg/logger/autoload"
	openrouterx "github.com/tanpawarit/partselect-assistant/pkg/openrouter"
)

type AppConfig struct {
	api.Config
	MaxTurns int  `split_words:"true" default:"5"`
	GinDebug bool `split_words:"true" default:"false"`
}

type EmbeddingConfig struct {
	BaseURL string        `split_words:"true" default:"https://api.openai.com/v1"`
	APIKey  string        `envconfig:"API_KEY"`
	Model   string        `split_words:"true" default:"text-embedding-3-small"`
	Timeout time.Duration `split_words:"true" default:"30s"`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	appCfg := configx.MustNew[AppConfig]("APP")
	llmCfg := configx.MustNew[llmx.Config]("LLM")
	dbCfg := configx.MustNew[database.Config]("DATABASE")
	embedCfg := configx.MustNew[EmbeddingConfig]("EMBEDDING")
	cacheCfg := configx.MustNew[cache.Config]("CACHE")
	memCfg := configx.MustNew[memory.Config]("MEMORY")

	db, err := database.Open(ctx, *dbCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	defer db.Close()

	store := catalog.NewStore(db)
	if dbCfg.SeedOnEmpty {
		seeded, err := store.EnsureSeeded(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to seed catalog")
		}
		if seeded {
			log.Info().Msg("catalog was empty, seed data loaded")
		}
	}
	if stats, err := store.Stats(ctx); err == nil {
		log.Info().Int("parts", stats.Parts).Int("models", stats.Models).Msg("catalog ready")
	}

	toolOpts := []tool.Option{}

	embedKey := embedCfg.APIKey
	if embedKey == "" {
		embedKey = llmCfg.APIKey
	}
	if client := openrouterx.NewClient(openrouterx.Config{
		BaseURL: embedCfg.BaseURL,
		APIKey:  embedKey,
		Timeout: embedCfg.Timeout,
	}); client != nil {
		index := search.NewIndex(search.NewOpenAIEmbedder(client, embedCfg.Model))
		if err := index.Build(ctx, store); err != nil {
			log.Warn().Err(err).Msg("semantic index unavailable, search falls back to exact matching")
		} else {
			toolOpts = append(toolOpts, tool.WithRetriever(index))
		}
	} else {
		log.Warn().Msg("no embedding api key, semantic search disabled")
	}

	resultCache, err := cache.New(ctx, *cacheCfg)
	if err != nil {
		log.Warn().Err(err).Msg("tool result cache unavailable")
	} else if resultCache != nil {
		toolOpts = append(toolOpts, tool.WithCache(resultCache))
	}

	executor, err := tool.NewExecutor(store, toolOpts...)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create tool executor")
	}

	var chat api.ChatService
	if llmCfg.Ready() {
		orch, err := newOrchestrator(ctx, *llmCfg, *memCfg, appCfg.MaxTurns, executor)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialise agent")
		}
		chat = orch
		log.Info().Msg("multi-agent system initialised (router + 3 specialists)")
	} else {
		log.Warn().Msg("LLM_API_KEY not set, chat endpoints will answer 503")
	}

	if !appCfg.GinDebug {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := api.NewServer(appCfg.Config, chat, store)
	if err := srv.Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("http server stopped")
	}
}

func newOrchestrator(
	ctx context.Context,
	llmCfg llmx.Config,
	memCfg memory.Config,
	maxTurns int,
	executor *tool.Executor,
) (*orchestrator.Orchestrator, error) {
	if err := llmCfg.Validate(); err != nil {
		return nil, err
	}
	prompts := promptx.LoadPromptSet()

	registry, err := specialist.NewRegistry(ctx, llmCfg, prompts, maxTurns)
	if err != nil {
		return nil, err
	}

	summaryModel, err := llmCfg.NewChatModel(ctx, llmx.RoleSummary)
	if err != nil {
		return nil, err
	}
	compactor, err := memory.NewCompactor(summaryModel, prompts.Summary, memCfg)
	if err != nil {
		return nil, err
	}

	return orchestrator.New(registry, compactor, executor)
}
