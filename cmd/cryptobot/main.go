// Command cryptobot runs the crypto trading assistant HTTP service.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/joho/godotenv"

	"github.com/neilh44/cryptobot/agent"
	"github.com/neilh44/cryptobot/config"
	"github.com/neilh44/cryptobot/knowledge"
	"github.com/neilh44/cryptobot/logging"
	"github.com/neilh44/cryptobot/model"
	modelanthropic "github.com/neilh44/cryptobot/model/anthropic"
	modelgroq "github.com/neilh44/cryptobot/model/groq"
	"github.com/neilh44/cryptobot/server"
	"github.com/neilh44/cryptobot/session"
	"github.com/neilh44/cryptobot/tool"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := logging.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Knowledge base.
	store, err := knowledge.OpenStore(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open knowledge store: %w", err)
	}
	defer store.Close()

	var embedder knowledge.Embedder
	if cfg.Embedder == "openai" {
		embedder = knowledge.NewOpenAIEmbedder(func(o *knowledge.OpenAIEmbedderOptions) {
			o.APIKey = cfg.OpenAIAPIKey
		})
	} else {
		embedder = knowledge.NewHashEmbedder(0)
	}
	index := knowledge.NewIndex(store, embedder)

	// Tools.
	registry := tool.NewRegistry()
	registry.MustRegister(
		tool.NewBinanceTool(func(o *tool.BinanceOptions) {
			o.APIKey = cfg.BinanceAPIKey
			o.APISecret = cfg.BinanceAPISecret
		}),
		tool.NewKnowledgeTool(index),
		tool.NewRejectionTool(),
		tool.NewEducationTool(),
	)

	// Model gateway.
	llm, err := buildModel(cfg)
	if err != nil {
		return err
	}
	logger.Info("model.selected", "provider", llm.Info().Provider, "model", llm.Info().Name)

	executor := agent.NewExecutor(registry, func(o *agent.ExecutorOptions) {
		o.ToolTimeout = cfg.ToolTimeout
		o.Logger = logger
	})
	loop := agent.New(llm, registry, executor, func(o *agent.Options) {
		o.MaxIterations = cfg.MaxIterations
		o.ModelTimeout = cfg.LLMTimeout
		o.Logger = logger
	})

	// Sessions.
	sessions := session.NewStore(func(o *session.StoreOptions) {
		o.Window = cfg.MemoryWindow
		o.TTL = cfg.SessionTTL
		o.MaxSessions = cfg.SessionMax
		o.Logger = logger
	})
	sessions.StartJanitor(ctx, time.Minute)

	// HTTP.
	ingest := func(ctx context.Context, dir string, chunkSize, chunkOverlap int, reset bool) (int, error) {
		return knowledge.Ingest(ctx, index, dir, knowledge.IngestOptions{
			ChunkSize:    chunkSize,
			ChunkOverlap: chunkOverlap,
			Reset:        reset,
		})
	}
	srv := server.New(loop, sessions, ingest, func(o *server.Options) {
		o.KBDataDir = cfg.KBDataDir
		o.ChunkSize = cfg.ChunkSize
		o.ChunkOverlap = cfg.ChunkOverlap
		o.Logger = logger
	})

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server.listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("server.shutdown")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

func buildModel(cfg *config.Config) (model.Model, error) {
	switch cfg.ModelProvider {
	case "groq":
		return modelgroq.NewModel(func(o *modelgroq.Options) {
			o.APIKey = cfg.GroqAPIKey
			if cfg.ModelName != "" {
				o.Model = cfg.ModelName
			}
			o.Temperature = cfg.Temperature
			o.MaxTokens = int64(cfg.MaxTokens)
		}), nil
	case "anthropic":
		return modelanthropic.NewModel(func(o *modelanthropic.Options) {
			o.APIKey = cfg.AnthropicAPIKey
			if cfg.ModelName != "" {
				o.Model = anthropicsdk.Model(cfg.ModelName)
			}
			o.Temperature = cfg.Temperature
			o.MaxTokens = int64(cfg.MaxTokens)
		}), nil
	default:
		return nil, fmt.Errorf("unsupported model provider %q", cfg.ModelProvider)
	}
}
