package main

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/shaiso/Conveyor/internal/collab"
	"github.com/shaiso/Conveyor/internal/config"
	"github.com/shaiso/Conveyor/internal/dispatch"
	"github.com/shaiso/Conveyor/internal/events"
	"github.com/shaiso/Conveyor/internal/pool"
	"github.com/shaiso/Conveyor/internal/repo"
	"github.com/shaiso/Conveyor/internal/retry"
	"github.com/shaiso/Conveyor/internal/scheduler"
)

// engine — собранный движок со всеми зависимостями процесса.
type engine struct {
	sched    *scheduler.Scheduler
	retrier  *retry.Executor
	cleanups []func()
}

// close освобождает ресурсы в обратном порядке создания.
func (e *engine) close() {
	for i := len(e.cleanups) - 1; i >= 0; i-- {
		e.cleanups[i]()
	}
}

// buildEngine собирает движок: реестр исполнителей, retry-политику,
// опциональные архив и события.
//
// Недоступные внешние исполнители (нет API-ключа, не стартует
// браузер) пропускаются с предупреждением: движок остаётся рабочим
// для остальных типов шагов.
func buildEngine(ctx context.Context, cfg config.Config, logger *slog.Logger) (*engine, error) {
	e := &engine{}

	reg := dispatch.NewRegistry()

	if search, err := collab.NewSearchDispatcher(); err != nil {
		logger.Warn("search dispatcher unavailable", "error", err)
	} else {
		reg.Register(search)
	}

	if cfg.Model.APIKey != "" {
		opts := []openai.Option{
			openai.WithToken(cfg.Model.APIKey),
			openai.WithModel(cfg.Model.Model),
		}
		if cfg.Model.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.Model.BaseURL))
		}
		model, err := openai.New(opts...)
		if err != nil {
			logger.Warn("model dispatcher unavailable", "error", err)
		} else {
			reg.Register(collab.NewGenerateDispatcher(model))
		}
	} else {
		logger.Warn("OPENAI_API_KEY not set, model_generation steps will fail")
	}

	browserPoolCfg := pool.Config{
		MinSize:        cfg.BrowserPool.MinSize,
		MaxSize:        cfg.BrowserPool.MaxSize,
		MaxUses:        cfg.BrowserPool.MaxUses,
		MaxIdleTime:    cfg.BrowserPool.MaxIdleTime.Std(),
		AcquireTimeout: cfg.BrowserPool.AcquireTimeout.Std(),
		Logger:         logger,
	}
	if browserPool, err := collab.NewBrowserPool(browserPoolCfg); err != nil {
		logger.Warn("browser pool unavailable", "error", err)
	} else {
		if browserPoolCfg.MinSize > 0 {
			if err := browserPool.WarmUp(ctx); err != nil {
				logger.Warn("browser pool warm-up failed", "error", err)
			}
		}
		e.cleanups = append(e.cleanups, browserPool.Close)
		reg.Register(collab.NewBrowserDispatcher(browserPool))
	}

	reg.Register(collab.NewCodeDispatcher(""))
	reg.Register(collab.NewFileDispatcher("data"))
	reg.Register(collab.NewAnalysisDispatcher())

	retryCfg := retry.Config{
		MaxRetries: cfg.Retry.MaxRetries,
		BaseDelay:  cfg.Retry.BaseDelay.Std(),
		MaxDelay:   cfg.Retry.MaxDelay.Std(),
		Strategy:   retry.Strategy(cfg.Retry.Strategy),
		Jitter:     cfg.Retry.Jitter,
		Logger:     logger,
	}
	if cfg.Retry.BreakerEnabled {
		retryCfg.Breaker = retry.NewBreaker(retry.BreakerConfig{
			FailureThreshold: cfg.Retry.BreakerThreshold,
			RecoveryTimeout:  cfg.Retry.BreakerRecovery.Std(),
			Logger:           logger,
		})
	}
	e.retrier = retry.New(retryCfg)

	var archiver scheduler.Archiver
	if cfg.Archive.Enabled {
		pool, err := repo.NewPool(ctx)
		if err != nil {
			logger.Warn("archive unavailable", "error", err)
		} else {
			e.cleanups = append(e.cleanups, pool.Close)
			planRepo := repo.NewPlanRepo(pool)
			if err := planRepo.EnsureSchema(ctx); err != nil {
				logger.Warn("archive schema setup failed", "error", err)
			} else {
				archiver = planRepo
			}
		}
	}

	var notifier scheduler.Notifier
	if cfg.Events.Enabled {
		conn, err := events.NewConnection(events.DefaultURL(), logger)
		if err != nil {
			logger.Warn("event publisher unavailable", "error", err)
		} else {
			e.cleanups = append(e.cleanups, func() { conn.Close() })
			if err := events.SetupTopology(conn); err != nil {
				logger.Warn("event topology setup failed", "error", err)
			}
			notifier = events.NewPublisher(conn, logger)
		}
	}

	e.sched = scheduler.New(scheduler.Config{
		Registry:           reg,
		Retrier:            e.retrier,
		MaxConcurrentTasks: cfg.Engine.MaxConcurrentTasks,
		BatchTimeout:       cfg.Engine.BatchTimeout.Std(),
		FailureThreshold:   cfg.Engine.FailureThreshold,
		Logger:             logger,
		Notifier:           notifier,
		Archiver:           archiver,
	})

	return e, nil
}

// startMetricsServer поднимает HTTP mux с /healthz и /metrics.
func startMetricsServer(addr string, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.Handler())

	go func() {
		logger.Info("metrics server listening", "addr", addr)
		if err := http.ListenAndServe(addr, mux); err != nil {
			logger.Error("metrics server error", "error", err)
		}
	}()
}
