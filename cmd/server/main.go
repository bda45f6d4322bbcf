package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	goredis "github.com/redis/go-redis/v9"

	"github.com/PabloB07/kick-wp/internal/config"
	"github.com/PabloB07/kick-wp/internal/database"
	"github.com/PabloB07/kick-wp/internal/kick"
	"github.com/PabloB07/kick-wp/internal/logging"
	"github.com/PabloB07/kick-wp/internal/metrics"
	"github.com/PabloB07/kick-wp/internal/redis"
	"github.com/PabloB07/kick-wp/internal/server"
	"github.com/PabloB07/kick-wp/internal/version"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)

	info := version.Get()
	slog.Info("Starting kick-wp",
		"version", info.Version,
		"commit", info.Commit,
		"env", cfg.AppEnv,
	)
	metrics.BuildInfo.WithLabelValues(info.Version, info.Commit, info.BuildTime, info.GoVersion).Set(1)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := database.RunMigrations(ctx, pool); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	rdb, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		slog.Error("Failed to connect to redis", "error", err)
		os.Exit(1)
	}
	defer rdb.Close()

	settings, err := database.NewSettingsRepo(pool, cfg.TokenEncryptionKey)
	if err != nil {
		slog.Error("Failed to initialize settings repository", "error", err)
		os.Exit(1)
	}

	clock := clockwork.NewRealClock()
	responseCache := redis.NewCache(rdb)
	stateStore := redis.NewStateStore(rdb)
	transport := kick.NewHTTPTransport(0)

	oauth := kick.NewOAuthManager(kick.OAuthConfig{
		ClientID:     cfg.KickClientID,
		ClientSecret: cfg.KickClientSecret,
		RedirectURI:  cfg.KickRedirectURI,
		AuthURL:      cfg.KickAuthURL,
		TokenURL:     cfg.KickTokenURL,
	}, settings, stateStore, transport, clock, func(ctx context.Context) {
		// Authenticated responses cached before revocation must not outlive it.
		if err := responseCache.DeleteByPrefix(ctx, kick.CachePrefix); err != nil {
			slog.Warn("Failed to flush cache after revocation", "error", err)
		}
	})

	client := kick.NewClient(transport, responseCache, settings, oauth, clock, kick.ClientConfig{
		BaseURL:            cfg.KickAPIBaseURL,
		CacheTTL:           cfg.CacheTTL,
		CategoriesCacheTTL: cfg.CategoriesCacheTTL,
		StreamsPerPage:     cfg.StreamsPerPage,
		DefaultCategory:    cfg.DefaultCategory,
	})

	srv := server.New(cfg, client, oauth, settings, pool, redisPinger{rdb})

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	case sig := <-sigCh:
		slog.Info("Shutting down", "signal", sig.String())
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Graceful shutdown failed", "error", err)
		os.Exit(1)
	}

	slog.Info("Shutdown complete")
}

// redisPinger adapts the go-redis client to the server's Pinger interface.
type redisPinger struct {
	rdb *goredis.Client
}

func (p redisPinger) Ping(ctx context.Context) error {
	return p.rdb.Ping(ctx).Err()
}
