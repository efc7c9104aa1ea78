package main

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/becomeliminal/acc-agent/config"
	"github.com/becomeliminal/acc-agent/controller"
	"github.com/becomeliminal/acc-agent/memory"
	"github.com/becomeliminal/acc-agent/memory/embedder/cache"
	"github.com/becomeliminal/acc-agent/memory/embedder/gemini"
	"github.com/becomeliminal/acc-agent/memory/embedder/mock"
	"github.com/becomeliminal/acc-agent/memory/embedder/openai"
	"github.com/becomeliminal/acc-agent/memory/store/chromem"
	"github.com/becomeliminal/acc-agent/metrics"
	"github.com/becomeliminal/acc-agent/oracle"
	"github.com/becomeliminal/acc-agent/settings"

	_ "github.com/becomeliminal/acc-agent/oracle/anthropic"
	_ "github.com/becomeliminal/acc-agent/oracle/gemini"
	_ "github.com/becomeliminal/acc-agent/oracle/openai"
)

// app holds the process-wide components shared by every command.
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	registry *prometheus.Registry
	metrics  *metrics.Metrics
	embedder *cache.Embedder
	store    *chromem.Store
	memory   *memory.Manager
	dir      *settings.Dir
	sessions *controller.Registry
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, err
	}
	logger, err := newLogger(cfg.Debug)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	a := &app{cfg: cfg, logger: logger, registry: prometheus.NewRegistry()}
	a.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	a.metrics = metrics.New(a.registry)

	o, err := oracle.New(oracle.Config{
		Provider: cfg.LLMProvider,
		Model:    cfg.LLMModel,
		Debug:    cfg.Debug,
		Logger:   logger,
	})
	if err != nil {
		return nil, err
	}

	embedder, err := newEmbedder(ctx, cfg.EmbeddingProvider)
	if err != nil {
		return nil, err
	}
	a.embedder, err = cache.New(embedder, 0)
	if err != nil {
		return nil, err
	}

	a.store, err = chromem.OpenPersistent(cfg.VectorDir(), a.embedder, chromem.WithLogger(logger))
	if err != nil {
		a.embedder.Close()
		return nil, err
	}

	a.dir = settings.NewDir(cfg.SettingsDir, cfg.UserName)
	durable, err := memory.NewDurableStore(a.dir.UserDir())
	if err != nil {
		a.embedder.Close()
		return nil, err
	}
	a.memory = memory.NewManager(a.store, durable, memory.WithLogger(logger))

	a.sessions = controller.NewRegistry(o, a.memory, a.dir,
		controller.WithLogger(logger),
		controller.WithMetrics(a.metrics),
		controller.WithFinalizeTimeout(cfg.FinalizeTimeout),
	)

	logger.Info("agent ready",
		zap.String("llm_provider", cfg.LLMProvider),
		zap.String("embedding_provider", cfg.EmbeddingProvider),
		zap.String("user", a.dir.User()),
		zap.Int("artifacts", a.store.Count()),
	)
	return a, nil
}

// close drains pending Finalize tasks before releasing the embedder.
func (a *app) close() {
	a.sessions.Close()
	a.embedder.Close()
	_ = a.logger.Sync()
}

func newEmbedder(ctx context.Context, provider string) (memory.Embedder, error) {
	switch provider {
	case "openai":
		return openai.New("")
	case "gemini":
		return gemini.New(ctx, "", "")
	case "mock":
		return mock.New(), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", provider)
	}
}

func newLogger(debug bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if debug {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	return cfg.Build()
}
