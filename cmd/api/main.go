package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/geocoder89/bloghub/internal/auth"
	"github.com/geocoder89/bloghub/internal/config"
	"github.com/geocoder89/bloghub/internal/db"
	httpx "github.com/geocoder89/bloghub/internal/http"
	"github.com/geocoder89/bloghub/internal/http/handlers"
	"github.com/geocoder89/bloghub/internal/notifications"
	"github.com/geocoder89/bloghub/internal/observability"
	"github.com/geocoder89/bloghub/internal/redisclient"
	"github.com/geocoder89/bloghub/internal/repo/memory"
	"github.com/geocoder89/bloghub/internal/repo/postgres"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

type stores struct {
	users   handlers.UserStore
	posts   handlers.PostStore
	checks  map[string]handlers.Pinger
	cleanup func()
}

func main() {
	// Load the config set up
	cfg := config.Load()

	// start up the observability logger
	log := observability.NewLogger(cfg.Env)
	slog.SetDefault(log)

	if err := cfg.Validate(); err != nil {
		log.Error("invalid config", "err", err)
		os.Exit(1)
	}
	if cfg.JWTSecret == "" {
		log.Warn("JWT_SECRET not set, using development signing key")
	}

	ctx := context.Background()

	shutdownTracer, err := observability.InitTracer(ctx, observability.ServiceName, cfg.OTLPEndpoint)
	if err != nil {
		log.Error("tracer init failed", "err", err)
		os.Exit(1)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	prom := observability.NewProm(reg)

	st, err := openStores(ctx, cfg, prom, log)
	if err != nil {
		log.Error("store init failed", "err", err)
		os.Exit(1)
	}
	defer st.cleanup()

	notifier, closeNotifier := buildNotifier(ctx, cfg, prom, log)
	defer closeNotifier()

	router := httpx.NewRouter(httpx.Deps{
		Log:          log,
		Env:          cfg.Env,
		Users:        st.users,
		Posts:        st.posts,
		Tokens:       auth.NewManager(cfg.SigningKey(), cfg.TokenTTL),
		Notifier:     notifier,
		Prom:         prom,
		Gatherer:     reg,
		ReadyChecks:  st.checks,
		CORSOrigins:  cfg.CORSOrigins,
		MaxBodyBytes: cfg.MaxBodyBytes,
	})

	// server set up
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "port", cfg.Port, "env", cfg.Env, "store", cfg.StoreDriver)
		err := srv.ListenAndServe()

		if err != nil && err != http.ErrServerClosed {
			log.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Info("server shutting down")

	shutdownCh := make(chan struct{})

	go func() {
		defer close(shutdownCh)

		ctx, cancel := config.WithTimeout(10 * time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("graceful shutdown failed", "err", err)
		}

		if err := shutdownTracer(ctx); err != nil {
			log.Error("tracer shutdown failed", "err", err)
		}
	}()

	select {
	case <-shutdownCh:
		log.Info("shutdown complete")

	case <-time.After(12 * time.Second):
		log.Error("shutdown timed out")
	}
}

func openStores(ctx context.Context, cfg config.Config, prom *observability.Prom, log *slog.Logger) (stores, error) {
	if cfg.StoreDriver == config.StoreDriverMemory {
		users := memory.NewUsersRepo()
		log.Warn("using in-memory store, data is lost on restart")

		return stores{
			users:   users,
			posts:   memory.NewPostsRepo(),
			checks:  map[string]handlers.Pinger{"store": users},
			cleanup: func() {},
		}, nil
	}

	if cfg.RunMigrations {
		mctx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()

		if err := db.Migrate(mctx, cfg.DBURL); err != nil {
			return stores{}, err
		}
		log.Info("migrations applied")
	}

	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	pool, err := db.NewPool(pctx, cfg.DBURL)
	if err != nil {
		return stores{}, err
	}

	return stores{
		users:   postgres.NewUsersRepo(pool, prom),
		posts:   postgres.NewPostsRepo(pool, prom),
		checks:  map[string]handlers.Pinger{"postgres": pool},
		cleanup: pool.Close,
	}, nil
}

// buildNotifier prefers the redis stream and falls back to logging. Redis is
// not a readiness dependency; publishing works without it.
func buildNotifier(ctx context.Context, cfg config.Config, prom *observability.Prom, log *slog.Logger) (notifications.Notifier, func()) {
	var inner notifications.Notifier = notifications.NewLogNotifier(log)
	closeFn := func() {}

	if cfg.RedisAddr != "" {
		rdb := redisclient.New(redisclient.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		pctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := rdb.Ping(pctx); err != nil {
			log.Warn("redis unreachable, notifications will fail until it recovers", "addr", cfg.RedisAddr, "err", err)
		}
		cancel()

		inner = notifications.NewRedisNotifier(rdb.Cmdable(), notifications.DefaultStream)
		closeFn = func() { _ = rdb.Close() }
	}

	protected := notifications.NewProtectedNotifier(inner, notifications.ProtectedNotifierConfig{
		Timeout:          2 * time.Second,
		FailureThreshold: 5,
		Cooldown:         30 * time.Second,
	})

	return notifications.NewObservedNotifier(protected, prom.ObserveNotification), closeFn
}
