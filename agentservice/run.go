// Package agentservice runs the wellness agent HTTP service.
package agentservice

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/gab-cat/cold-start-sub000/internal/actions"
	"github.com/gab-cat/cold-start-sub000/internal/agent"
	"github.com/gab-cat/cold-start-sub000/internal/api"
	"github.com/gab-cat/cold-start-sub000/internal/config"
	"github.com/gab-cat/cold-start-sub000/internal/events"
	"github.com/gab-cat/cold-start-sub000/internal/factory"
	"github.com/gab-cat/cold-start-sub000/internal/health"
	"github.com/gab-cat/cold-start-sub000/internal/intent"
	"github.com/gab-cat/cold-start-sub000/internal/logger"
	"github.com/gab-cat/cold-start-sub000/internal/messaging"
	"github.com/gab-cat/cold-start-sub000/internal/rag"
	"github.com/gab-cat/cold-start-sub000/internal/reasoning"
	"github.com/gab-cat/cold-start-sub000/internal/searchindex"
	"github.com/gab-cat/cold-start-sub000/internal/store"
	"github.com/gab-cat/cold-start-sub000/internal/tasks"
	"github.com/gab-cat/cold-start-sub000/internal/tracking"
	"github.com/gab-cat/cold-start-sub000/outboxworker"
)

// Run starts the agent service HTTP server and blocks until shutdown or error.
func Run() error {
	log := logger.New("agent-service")

	cfg, err := config.New()
	if err != nil {
		log.Error().Err(err).Msg("Failed to load configuration")
		return err
	}

	log.Info().
		Str("build_target", cfg.BuildTarget).
		Str("db_driver", cfg.DBDriver).
		Str("vector_store", cfg.VectorStore).
		Int("http_port", cfg.HTTPPort).
		Bool("outbox_embedded", cfg.OutboxEmbedded).
		Msg("Agent service starting")

	// Create cancellable root context bound to SIGINT/SIGTERM
	ctx, stop := newServerContext()
	defer stop()

	deps, err := initDependencies(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer deps.close(log)

	queue := tasks.New(tasks.Config{
		Shards:      cfg.TaskShards,
		QueueSize:   cfg.TaskQueueSize,
		MaxAttempts: cfg.TaskMaxAttempts,
		BaseBackoff: cfg.TaskBaseBackoff,
		ErrorHandler: func(key string, err error) {
			log.Error().Stack().Err(err).Str("user_id", key).Msg("background task abandoned")
		},
	}, log.With().Str("component", "tasks").Logger())

	// Start health checkers and bind service health
	svcHealth, storeChecker := startHealthCheckers(ctx, cfg, log, deps)

	router := buildRouter(cfg, log, deps, queue, svcHealth)

	// Only the store gates startup; model and index outages degrade turns instead.
	if err := waitUntilHealthy(ctx, cfg, storeChecker); err != nil {
		log.Error().Stack().Err(err).Msg("startup health check failed")
		queue.Stop()
		return err
	}

	workerDone := make(chan struct{})
	if cfg.OutboxEmbedded {
		w := outboxworker.NewWorker(cfg, deps.store, deps.embedder, deps.index, deps.publisher, log)
		go func() {
			defer close(workerDone)
			if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Stack().Err(err).Msg("embedded outbox worker exit")
			}
		}()
	} else {
		close(workerDone)
	}

	server := newHTTPServer(ctx, cfg, router)
	errCh := serveHTTP(server, log, cfg)

	// Graceful shutdown on context cancel or server error
	var runErr error
	select {
	case <-ctx.Done():
		log.Info().Msg("Shutting down server")
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctxShutdown); err != nil {
			log.Error().Stack().Err(err).Msg("Server forced to shutdown")
			runErr = err
		}
	case err := <-errCh:
		log.Error().Stack().Err(err).Msg("HTTP server failed")
		stop()
		runErr = err
	}

	// In-flight turns are done; drain the conversation log before closing the store.
	queue.Stop()
	<-workerDone
	log.Info().Msg("Server exited")
	return runErr
}

type dependencies struct {
	store     store.Store
	index     searchindex.Index
	embedder  factory.EmbeddingProvider
	generator factory.Generator
	publisher events.Publisher
	sender    messaging.Sender
}

func (d *dependencies) close(log zerolog.Logger) {
	if err := d.publisher.Close(); err != nil {
		log.Warn().Err(err).Msg("publisher close")
	}
	if err := d.store.Close(); err != nil {
		log.Warn().Err(err).Msg("store close")
	}
}

// initDependencies constructs required components and enforces fail-fast on missing deps.
func initDependencies(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*dependencies, error) {
	st, err := factory.NewStore(ctx, cfg, log)
	if err != nil {
		log.Error().Stack().Err(err).Msg("Store adapter unavailable")
		return nil, err
	}
	d := &dependencies{store: st}

	if d.index, err = factory.NewSearchIndex(ctx, cfg, st, log); err != nil {
		log.Error().Stack().Err(err).Msg("Search index adapter unavailable")
		_ = st.Close()
		return nil, err
	}
	if d.embedder, err = factory.NewEmbeddingProvider(ctx, cfg, log); err != nil {
		log.Error().Stack().Err(err).Msg("Embedding provider unavailable")
		_ = st.Close()
		return nil, err
	}
	if d.generator, err = factory.NewGenerator(ctx, cfg, log); err != nil {
		log.Error().Stack().Err(err).Msg("Generator unavailable")
		_ = st.Close()
		return nil, err
	}
	d.publisher = factory.NewPublisher(cfg, log)
	d.sender = factory.NewSender(cfg, log)
	return d, nil
}

// buildRouter wires the turn pipeline and the dashboard handlers.
func buildRouter(cfg *config.Config, log zerolog.Logger, d *dependencies, queue *tasks.Queue, svcHealth *health.ServiceChecker) *mux.Router {
	maintainer := tracking.NewMaintainer(d.store, log.With().Str("component", "tracking").Logger())
	executor := actions.NewExecutor(d.store, maintainer, log.With().Str("component", "actions").Logger())

	pipeline := agent.New(agent.Deps{
		Store:     d.store,
		Intents:   intent.NewParser(d.generator, log.With().Str("component", "intent").Logger(), cfg.LLMTimeout),
		Retriever: rag.NewRetriever(d.store, d.index, d.embedder, cfg.EmbedDimensions, cfg.DefaultLocation(), log.With().Str("component", "rag").Logger()),
		Reasoner:  reasoning.NewEngine(d.generator, log.With().Str("component", "reasoning").Logger(), cfg.LLMTimeout),
		Executor:  executor,
		Tasks:     queue,
	}, agent.Options{
		DefaultLocation: cfg.DefaultLocation(),
		MaxClockSkew:    cfg.MaxClockSkew,
		MaxClientAge:    cfg.MaxClientAge,
		TurnTimeout:     cfg.TurnTimeout,
	}, log)

	return api.NewRouter(api.Deps{
		Store:           d.store,
		Pipeline:        pipeline,
		Executor:        executor,
		Tracker:         maintainer,
		Sender:          d.sender,
		Health:          svcHealth,
		DefaultLocation: cfg.DefaultLocation(),
		Log:             log,
	})
}

// startHealthCheckers starts component checkers and the service-level
// aggregator. The store checker is returned separately to gate startup.
func startHealthCheckers(ctx context.Context, cfg *config.Config, log zerolog.Logger, d *dependencies) (*health.ServiceChecker, health.Checker) {
	probeTimeout := time.Duration(cfg.HealthProbeTimeoutSeconds) * time.Second
	interval := time.Duration(cfg.HealthIntervalSeconds) * time.Second

	storeChecker := health.NewPingChecker("store", d.store, log, probeTimeout)
	checkers := []health.Checker{
		storeChecker,
		health.NewPingChecker("embedder", d.embedder, log, probeTimeout),
		health.NewPingChecker("generator", d.generator, log, probeTimeout),
	}
	if p, ok := d.index.(health.Pinger); ok {
		checkers = append(checkers, health.NewPingChecker("search_index", p, log, probeTimeout))
	}

	svcHealth := health.NewServiceChecker(log, checkers...)
	go svcHealth.Start(ctx, interval)
	return svcHealth, storeChecker
}

func newHTTPServer(ctx context.Context, cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.GetHTTPAddr(),
		Handler:           handler,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		// a turn may use its whole budget before the reply is written
		WriteTimeout: cfg.TurnTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}
}

func serveHTTP(server *http.Server, log zerolog.Logger, cfg *config.Config) <-chan error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Int("port", cfg.HTTPPort).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	return errCh
}

// calculateStartupHealthTimeout returns the startup health timeout in seconds,
// calculated as interval*2 with a minimum of 60 seconds.
func calculateStartupHealthTimeout(healthIntervalSeconds int) int {
	timeout := healthIntervalSeconds * 2
	if timeout < 60 {
		return 60
	}
	return timeout
}

// waitUntilHealthy blocks until c reports healthy or the startup window expires.
func waitUntilHealthy(ctx context.Context, cfg *config.Config, c health.Checker) error {
	timeoutSeconds := calculateStartupHealthTimeout(cfg.HealthIntervalSeconds)
	deadline := time.Now().Add(time.Duration(timeoutSeconds) * time.Second)
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()
	for {
		if c.IsHealthy() {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("startup aborted: %s not healthy within %d seconds", c.Name(), timeoutSeconds)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// newServerContext returns a cancellable context that is cancelled on SIGINT/SIGTERM.
func newServerContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
