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

	"eduarena/config"
	"eduarena/game"
	"eduarena/handlers"
	"eduarena/logger"
	"eduarena/middleware"
	"eduarena/routes"
	"eduarena/services"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const (
	releaseVersion  = "0.1.0"
	reapInterval    = 30 * time.Second
	shutdownTimeout = 5 * time.Second
)

func main() {
	cfg := &config.Config{}
	cobra.CheckErr(newCmd(cfg).Execute())
}

func newCmd(cfg *config.Config) *cobra.Command {
	v := config.NewViper()

	cmd := &cobra.Command{
		Use:     "eduarena",
		Short:   "Realtime multiplayer word, math and quiz games.",
		Args:    cobra.NoArgs,
		Version: releaseVersion,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := config.Bind(cmd.Flags(), v); err != nil {
				return err
			}
			return cfg.Validate()
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}

	cfg.RegisterFlags(cmd.Flags())

	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}

func serve(ctx context.Context, cfg *config.Config) error {
	if err := logger.Setup(cfg.LogLevel, cfg.LogPretty); err != nil {
		return err
	}

	db, err := config.InitDB(cfg)
	if err != nil {
		return err
	}
	storage := services.NewStorageService(db)
	if err := storage.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	redisClient, err := config.InitRedis(ctx, cfg)
	if err != nil {
		return err
	}
	if redisClient == nil {
		log.Warn().Msg("redis not configured, game state mirror disabled")
	} else {
		defer redisClient.Close()
	}

	scheduler := game.NewScheduler(cfg.TickInterval, nil)
	registry := game.NewRegistry(game.RegistryOptions{
		Defaults:  cfg.GameDefaults(),
		Scheduler: scheduler,
	})

	games := services.NewGameService(registry, storage, redisClient, services.GameServiceOptions{
		StateTTL:       cfg.StateTTL,
		PersistTimeout: cfg.PersistTimeout,
	})
	auth := services.NewAuthService(storage, cfg.JWTSecret, cfg.TokenTTL)

	hub := services.NewHub(registry, games, services.HubOptions{
		MessageRate:  cfg.MessageRate,
		MessageBurst: cfg.MessageBurst,
	})
	registry.SetObserver(hub)

	go hub.Run(ctx)
	go games.RunMirror(ctx)
	go registry.Reap(ctx, reapInterval, cfg.FinishedRetention, cfg.IdleTimeout, func([]int64) {
		hub.BroadcastActiveGames()
	})

	if cfg.LogLevel != "debug" && cfg.LogLevel != "trace" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger())

	routes.SetupRoutes(router, routes.Handlers{
		Auth:  handlers.NewAuthHandler(auth, storage),
		Game:  handlers.NewGameHandler(registry, games, cfg.PublicURL),
		Stats: handlers.NewStatsHandler(storage),
	}, hub, auth, auth, cfg.AllowedOrigins)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       10 * time.Minute,
	}

	errs := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("version", releaseVersion).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- err
		}
		close(errs)
	}()

	select {
	case err := <-errs:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)

	scheduler.Shutdown()
	games.Wait()
	return nil
}
