package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"insightboard/internal/analysis"
	"insightboard/internal/auth"
	"insightboard/internal/config"
	"insightboard/internal/httpapi"
	"insightboard/internal/llm"
	"insightboard/internal/observability"
	"insightboard/internal/prompt"
	"insightboard/internal/queue"
	"insightboard/internal/ratelimit"
	"insightboard/internal/service"
	"insightboard/internal/store"
)

const workerPollTimeout = 5 * time.Second

type App struct {
	Config   config.Config
	Logger   *zap.Logger
	Store    *store.Store
	Queue    *queue.Queue
	Registry *prometheus.Registry
	Metrics  *observability.PipelineMetrics
	Analyzer *analysis.Analyzer
	Auth     *auth.Service
	Service  *service.Service
}

// NewAnalyzer wires the provider chain without any storage. It is used by
// the server and by the offline CLI commands.
func NewAnalyzer(cfg config.Config, logger *zap.Logger, recorder analysis.Recorder) (*analysis.Analyzer, error) {
	prompts, err := prompt.Load(cfg.Analysis.PromptPath)
	if err != nil {
		return nil, err
	}
	providers := llm.BuildProviders(cfg, prompts, logger)
	return analysis.NewAnalyzer(analysis.NewOrchestrator(providers, logger, recorder)), nil
}

func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics, err := observability.NewPipelineMetrics(registry)
	if err != nil {
		return nil, err
	}

	analyzer, err := NewAnalyzer(cfg, logger, metrics)
	if err != nil {
		return nil, fmt.Errorf("prompts: %w", err)
	}

	st, err := store.Open(cfg.Database.DSN)
	if err != nil {
		return nil, err
	}
	if err := store.Migrate(ctx, st.DB()); err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	var q *queue.Queue
	if cfg.Redis.URL != "" {
		q, err = queue.New(cfg.Redis.URL)
		if err != nil {
			_ = st.Close()
			return nil, err
		}
	} else if cfg.Analysis.Async {
		logger.Warn("async analysis requested without redis, analyzing inline")
	}

	svc := service.New(st, analyzer, logger)
	svc.Limiter = ratelimit.New(cfg.RateLimit.SubmissionsPerMinute, cfg.RateLimit.Burst)
	svc.Metrics = metrics
	if q != nil {
		svc.Queue = q
		svc.Async = cfg.Analysis.Async
	}

	return &App{
		Config:   cfg,
		Logger:   logger,
		Store:    st,
		Queue:    q,
		Registry: registry,
		Metrics:  metrics,
		Analyzer: analyzer,
		Auth:     auth.NewService(cfg),
		Service:  svc,
	}, nil
}

func (a *App) Close() error {
	var err error
	if a.Store != nil {
		err = a.Store.Close()
	}
	if a.Queue != nil {
		_ = a.Queue.Close()
	}
	return err
}

// Handler serves the API plus health, readiness and metrics endpoints.
func (a *App) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/readyz", a.handleReady)
	if a.Registry != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(a.Registry, promhttp.HandlerOpts{}))
	}
	if a.Service != nil {
		httpapi.NewHandler(a.Service, a.Auth, a.Logger).RegisterRoutes(mux)
	}
	return mux
}

func (a *App) handleReady(w http.ResponseWriter, r *http.Request) {
	if a.Store == nil {
		http.Error(w, "store not configured", http.StatusServiceUnavailable)
		return
	}
	if err := a.Store.Ping(r.Context()); err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	if a.Queue != nil {
		if err := a.Queue.Ping(r.Context()); err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func (a *App) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.Config.HTTP.Addr,
		Handler:           a.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	a.Logger.Info("http server listening", zap.String("addr", a.Config.HTTP.Addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// RunWorker consumes analysis jobs until ctx is cancelled.
func (a *App) RunWorker(ctx context.Context) error {
	if a.Queue == nil {
		return errors.New("worker requires redis.url")
	}
	a.Logger.Info("analysis worker started")
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}
		job, err := a.Queue.PopAnalysisJob(ctx, workerPollTimeout)
		if errors.Is(err, queue.ErrEmpty) {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			a.Logger.Warn("pop analysis job failed", zap.Error(err))
			time.Sleep(time.Second)
			continue
		}
		if err := a.Service.ProcessAnalysisJob(ctx, job); err != nil {
			a.Logger.Error("analysis job failed", zap.String("transcript_id", job.TranscriptID), zap.Error(err))
			continue
		}
	}
}
