package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/community-enrich/internal/notify"
	"github.com/sells-group/community-enrich/internal/pipeline"
	"github.com/sells-group/community-enrich/internal/store"
	"github.com/sells-group/community-enrich/pkg/gemini"
	"github.com/sells-group/community-enrich/pkg/lookup"
	"github.com/sells-group/community-enrich/pkg/perplexity"
)

// pipelineEnv holds the initialized store, scheduler, and intake shared by
// the serve/run/extract commands.
type pipelineEnv struct {
	Store     store.Store
	Scheduler *pipeline.Scheduler
	Intake    *pipeline.Intake
}

// Close releases resources held by the pipeline environment.
func (pe *pipelineEnv) Close() {
	if pe.Store != nil {
		_ = pe.Store.Close()
	}
}

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "communities.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

func initLookup(ctx context.Context) (lookup.Client, error) {
	switch cfg.Lookup.Provider {
	case "gemini":
		return gemini.New(ctx, gemini.Config{
			APIKey:         cfg.Gemini.APIKey,
			Model:          cfg.Gemini.Model,
			BaseURL:        cfg.Gemini.BaseURL,
			RequestsPerSec: cfg.Gemini.RequestsPerSec,
		})
	case "perplexity":
		opts := []perplexity.Option{perplexity.WithModel(cfg.Perplexity.Model)}
		if cfg.Perplexity.BaseURL != "" {
			opts = append(opts, perplexity.WithBaseURL(cfg.Perplexity.BaseURL))
		}
		return perplexity.NewClient(cfg.Perplexity.Key, opts...), nil
	default:
		return nil, eris.Errorf("unsupported lookup provider: %s", cfg.Lookup.Provider)
	}
}

// initEnv sets up the store, lookup provider, notifier, and pipeline.
// Callers should defer env.Close().
func initEnv(ctx context.Context) (*pipelineEnv, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}

	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	client, err := initLookup(ctx)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	notifier := notify.NewWebhook(cfg.Notify.WebhookURL)
	if cfg.Notify.WebhookURL == "" {
		zap.L().Warn("notify webhook not configured, completion notifications will be dropped")
	}

	enricher := pipeline.NewEnricher(client, cfg.Lookup.MaxAttempts)
	scheduler := pipeline.NewScheduler(st, enricher, notifier, cfg.Pipeline.BatchSize, cfg.Pipeline.BatchDelay())

	zap.L().Info("pipeline initialized",
		zap.String("store", cfg.Store.Driver),
		zap.String("provider", cfg.Lookup.Provider),
		zap.Int("batch_size", cfg.Pipeline.BatchSize),
	)

	return &pipelineEnv{
		Store:     st,
		Scheduler: scheduler,
		Intake:    pipeline.NewIntake(st, scheduler),
	}, nil
}
