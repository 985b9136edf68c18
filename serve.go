package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/cors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"aichef/auth"
	"aichef/chefapi"
	"aichef/config"
	"aichef/db"
	"aichef/handlers"
	"aichef/logging"
	"aichef/middleware"
	"aichef/notify"
	"aichef/pending"
	"aichef/ratelim"
	"aichef/rdx"
	"aichef/recipes"
	"aichef/routes"
	"aichef/session"
	"aichef/share"
)

const (
	sweepInterval   = time.Minute
	limiterIdle     = 10 * time.Minute
	shutdownTimeout = 10 * time.Second
)

func newServeCommand() *cobra.Command {
	var envFile, port string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(envFile)
			if err != nil {
				return err
			}
			if port != "" {
				cfg.Port = port
			}
			log, err := logging.New(cfg.LogLevel, cfg.LogDev)
			if err != nil {
				return err
			}
			defer log.Sync()
			return serve(cmd.Context(), cfg, log)
		},
	}
	cmd.Flags().StringVar(&envFile, "env-file", ".env", "Environment file to load before reading the environment")
	cmd.Flags().StringVarP(&port, "port", "p", "", "Listen port (overrides PORT)")
	return cmd
}

func serve(ctx context.Context, cfg config.Config, log *zap.Logger) error {
	api := chefapi.New(chefapi.Options{
		BaseURL: cfg.ChefAPIURL,
		Timeout: cfg.ChefAPITimeout,
		Retries: cfg.ChefAPIRetries,
		Logger:  log,
	})

	var store recipes.Store = api
	if cfg.StorageType == config.StorageMongo {
		client, coll, err := db.Connect(ctx, db.Options{
			URI:        cfg.MongoURI,
			Database:   cfg.MongoDB,
			Collection: cfg.MongoCollection,
		})
		if err != nil {
			return err
		}
		defer client.Disconnect(context.Background())
		store = recipes.NewMongoStore(coll, log)
	}
	log.Info("recipe storage ready", zap.String("type", cfg.StorageType))

	var pendingStore func(string) pending.Store
	if cfg.RedisAddr != "" {
		rc, err := rdx.Connect(ctx, rdx.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		if err != nil {
			return err
		}
		defer rc.Close()
		stores := rdx.NewPendingStores(rc, cfg.PendingTTL)
		pendingStore = func(id string) pending.Store { return stores.For(id) }
		log.Info("pending recipes kept in redis", zap.String("addr", cfg.RedisAddr))
	}

	hub := notify.NewHub()
	go hub.Run()

	registry := session.NewRegistry(session.Deps{
		Store:        store,
		PendingStore: pendingStore,
		Notify:       notify.Options{Display: cfg.NotifyDisplay, Exit: cfg.NotifyExit},
		Publisher:    hub,
		Logger:       log,
		Idle:         cfg.SessionIdle,
	})
	defer registry.Close()

	identity := auth.NewIdentity(auth.Config{
		Secret:   []byte(cfg.JWTSecret),
		Issuer:   cfg.JWTIssuer,
		Audience: cfg.JWTAudience,
		Domain:   cfg.AuthDomain,
		ClientID: cfg.AuthClientID,
	})

	images := retryablehttp.NewClient()
	images.Logger = nil
	images.RetryMax = cfg.ChefAPIRetries
	images.HTTPClient.Timeout = cfg.ChefAPITimeout

	h := &handlers.Handler{
		Sessions:  registry,
		Generator: api,
		Thumbs:    share.NewThumbnailer(images.StandardClient()),
		Links:     identity,
		PublicURL: cfg.PublicURL,
		Log:       log,
	}
	limiter := ratelim.NewRateLimiter(cfg.RateLimit, cfg.RateBurst, routes.LimitKey)

	router := routes.RoutesWrapper(routes.Deps{
		Handler:       h,
		Auth:          &middleware.Auth{Verifier: identity, LoginURL: h.LoginURL, Log: log},
		Limiter:       limiter,
		Hub:           hub,
		SecureCookies: strings.HasPrefix(cfg.PublicURL, "https://"),
		AllowsOrigin:  cfg.AllowsOrigin,
		Log:           log,
	})

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}).Handler(router)

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           middleware.RequestLogger(log, middleware.SecurityHeaders(corsHandler)),
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      2 * time.Minute,
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
	}
	server.RegisterOnShutdown(func() {
		log.Info("stopping notification hub")
		hub.Stop()
	})

	bgCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go registry.Run(bgCtx, sweepInterval)
	go limiter.RunCleanup(bgCtx, sweepInterval, limiterIdle)

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("addr", server.Addr), zap.String("version", version))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutdown signal received")
	shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stop()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	log.Info("server stopped cleanly")
	return nil
}
