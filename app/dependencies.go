package app

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/upb/classroom-reservation-agent/config"
	"github.com/upb/classroom-reservation-agent/internal/observability"
	"github.com/upb/classroom-reservation-agent/internal/regulations"
	"github.com/upb/classroom-reservation-agent/services/evaluation"
	"github.com/upb/classroom-reservation-agent/services/providers"
	"github.com/upb/classroom-reservation-agent/services/providers/openai"
)

// Dependencies holds all application dependencies.
// This is the central wiring point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config  *config.Config
	Logger  *zap.Logger
	Metrics *observability.Metrics

	// Policy
	Catalog *regulations.Catalog

	// Reasoning substrate; both nil when the provider is "none"
	Provider providers.Provider
	Judge    *evaluation.SubstrateJudge

	Engine *evaluation.Engine
}

// NewDependencies creates and wires up all application dependencies.
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	deps.initMetrics(cfg)

	if err := deps.initCatalog(cfg); err != nil {
		return nil, fmt.Errorf("failed to load regulations: %w", err)
	}

	if err := deps.initSubstrate(cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize substrate: %w", err)
	}

	deps.initEngine(cfg)

	logger.Info("all dependencies initialized successfully",
		zap.Bool("substrate_enabled", deps.Judge != nil),
		zap.Bool("metrics_enabled", deps.Metrics != nil),
	)
	return deps, nil
}

func (d *Dependencies) initMetrics(cfg *config.Config) {
	if !cfg.Observability.MetricsEnabled {
		return
	}
	d.Metrics = observability.NewMetrics(observability.DefaultNamespace, prometheus.NewRegistry())
}

func (d *Dependencies) initCatalog(cfg *config.Config) error {
	catalog, err := regulations.Load(cfg.Policy.File)
	if err != nil {
		return err
	}
	d.Catalog = catalog

	source := cfg.Policy.File
	if source == "" {
		source = "built-in"
	}
	d.Logger.Info("regulation catalog loaded",
		zap.String("source", source),
		zap.String("version", catalog.Version),
		zap.String("hash", catalog.Hash()),
		zap.Int("regulations", len(catalog.Regulations)),
	)
	return nil
}

// initSubstrate builds the configured provider and the judge on top of it
func (d *Dependencies) initSubstrate(cfg *config.Config) error {
	switch cfg.Substrate.Provider {
	case "", config.SubstrateNone:
		d.Logger.Warn("no reasoning substrate configured, decisions are deterministic only")
		return nil
	case config.SubstrateOpenAI:
		providerCfg := providers.DefaultProviderConfig()
		providerCfg.APIKey = cfg.Substrate.APIKey
		providerCfg.BaseURL = cfg.Substrate.BaseURL
		providerCfg.OrgID = cfg.Substrate.OrgID
		providerCfg.Timeout = cfg.Substrate.Timeout
		// any model name is accepted for self-hosted compatible endpoints
		d.Provider = openai.NewOpenAIAdapter(providerCfg, cfg.Substrate.Model)
	default:
		return fmt.Errorf("unknown substrate provider %q", cfg.Substrate.Provider)
	}

	judge, err := evaluation.NewSubstrateJudge(d.Provider, evaluation.SubstrateConfig{
		Model:        cfg.Substrate.Model,
		Temperature:  cfg.Substrate.Temperature,
		MaxTokens:    cfg.Substrate.MaxTokens,
		Timeout:      cfg.Substrate.Timeout,
		Instructions: d.Catalog.Instructions(cfg.Policy.MaxDuration),
	}, d.Logger)
	if err != nil {
		return err
	}
	d.Judge = judge

	d.Logger.Info("registered reasoning substrate",
		zap.String("provider", d.Provider.Name()),
		zap.String("model", judge.Model()),
	)
	return nil
}

func (d *Dependencies) initEngine(cfg *config.Config) {
	opts := evaluation.Options{
		MaxDuration: cfg.Policy.MaxDuration,
		Catalog:     d.Catalog,
		Logger:      d.Logger,
	}
	// a nil judge or recorder must stay an untyped nil
	if d.Judge != nil {
		opts.Judge = d.Judge
	}
	if d.Metrics != nil {
		opts.Recorder = d.Metrics
	}
	d.Engine = evaluation.NewEngine(opts)
}

// Close gracefully shuts down all dependencies
func (d *Dependencies) Close(ctx context.Context) error {
	if d.Logger != nil {
		d.Logger.Info("shutting down dependencies")
		_ = d.Logger.Sync()
	}
	return nil
}
