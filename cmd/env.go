package cmd

import (
	"context"
	"errors"
	"fmt"

	goredis "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/abhisek/adaptiq/internal/analytics"
	"github.com/abhisek/adaptiq/internal/cache"
	"github.com/abhisek/adaptiq/internal/config"
	"github.com/abhisek/adaptiq/internal/content"
	"github.com/abhisek/adaptiq/internal/llm"
	"github.com/abhisek/adaptiq/internal/logger"
	"github.com/abhisek/adaptiq/internal/misconception"
	"github.com/abhisek/adaptiq/internal/session"
	"github.com/abhisek/adaptiq/internal/store"
	"github.com/abhisek/adaptiq/internal/tracing"
)

// env is what a command runs against: config, logger, tracing and the
// open store. Close releases it in reverse order.
type env struct {
	cfg   *config.Config
	log   *logger.Logger
	store *store.Store
	rdb   *goredis.Client

	misconceptions  *misconception.Service
	shutdownTracing func(context.Context) error
}

func setup(cmd *cobra.Command) (*env, error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.Load(cmd)
	if err != nil {
		return nil, err
	}
	log, err := logger.New(logger.Config{Mode: cfg.Log.Mode, Level: cfg.Log.Level, File: cfg.Log.File})
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	if cfg.File != "" {
		log.Debug("config loaded", "file", cfg.File)
	}

	e := &env{cfg: cfg, log: log}
	e.shutdownTracing = tracing.Init(ctx, log, tracing.Config{
		Enabled:     cfg.Tracing.Enabled,
		ServiceName: cfg.Tracing.ServiceName,
		Version:     version,
		SampleRatio: cfg.Tracing.SampleRatio,
		Endpoint:    cfg.Tracing.Endpoint,
		Insecure:    cfg.Tracing.Insecure,
	})

	st, err := store.Open(ctx, cfg.StoreOptions())
	if err != nil {
		e.Close()
		return nil, fmt.Errorf("open store: %w", err)
	}
	e.store = st

	if cfg.Redis.Addr != "" {
		rdb, err := cache.NewClient(ctx, cache.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			TTL:      cfg.Redis.TTL,
		})
		if err != nil {
			// The cache is optional; questions are read from the store.
			log.Warn("redis unavailable, question cache disabled", "addr", cfg.Redis.Addr, "error", err)
		} else {
			e.rdb = rdb
		}
	}
	return e, nil
}

// questions returns the question source for the engine, cached in Redis
// when configured.
func (e *env) questions() content.Repo {
	if e.rdb == nil {
		return e.store.ContentRepo()
	}
	return cache.NewContentRepo(e.store.ContentRepo(), e.rdb, e.cfg.Redis.TTL, e.log)
}

// invalidate drops cached pools of re-imported concepts. A failure leaves
// them to expire by TTL.
func (e *env) invalidate(ctx context.Context, conceptIDs []string) {
	if e.rdb == nil {
		return
	}
	c := cache.NewContentRepo(e.store.ContentRepo(), e.rdb, e.cfg.Redis.TTL, e.log)
	if err := c.Invalidate(ctx, conceptIDs...); err != nil {
		e.log.Warn("content cache not invalidated", "error", err)
	}
}

func (e *env) sessionDeps() session.Deps {
	return session.Deps{
		Content:  e.questions(),
		Sessions: e.store.SessionRepo(),
		History:  e.store.HistoryRepo(),
		Events:   e.store.EventRepo(),
		Log:      e.log,
	}
}

func (e *env) analytics() *analytics.Service {
	return analytics.NewService(e.store.ContentRepo(), e.store.SessionRepo(), e.store.HistoryRepo(), e.log)
}

// misconceptionService builds the explanation service. Without a
// configured LLM it serves taxonomy fallbacks only.
func (e *env) misconceptionService(ctx context.Context) *misconception.Service {
	if e.misconceptions != nil {
		return e.misconceptions
	}
	var explainer *misconception.Explainer
	if cfg := e.cfg.LLMProvider(); cfg.Enabled() {
		provider, err := llm.NewProvider(ctx, cfg, e.store.EventRepo(), e.log)
		if err != nil {
			e.log.Warn("llm provider unavailable, using fallback explanations", "provider", cfg.Provider, "error", err)
		} else {
			explainer = misconception.NewExplainer(provider, misconception.DefaultExplainerConfig(), e.log)
		}
	}
	e.misconceptions = misconception.NewService(explainer, e.log)
	return e.misconceptions
}

func (e *env) Close() {
	if e.misconceptions != nil {
		e.misconceptions.Close()
	}
	if e.rdb != nil {
		_ = e.rdb.Close()
	}
	if e.store != nil {
		if err := e.store.Close(); err != nil {
			e.log.Warn("close store", "error", err)
		}
	}
	if e.shutdownTracing != nil {
		if err := e.shutdownTracing(context.Background()); err != nil && !errors.Is(err, context.Canceled) {
			e.log.Warn("tracing shutdown", "error", err)
		}
	}
	e.log.Sync()
}

