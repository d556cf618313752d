package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"recipehub/auth"
	"recipehub/comments"
	"recipehub/config"
	"recipehub/db"
	"recipehub/home"
	"recipehub/logging"
	"recipehub/media"
	"recipehub/middleware"
	"recipehub/mq"
	"recipehub/ratelim"
	"recipehub/rdx"
	"recipehub/recipes"
	"recipehub/routes"
	"recipehub/store"
	"recipehub/store/memstore"
	"recipehub/store/mongostore"
	"recipehub/suggestions"
	"recipehub/users"

	"github.com/rs/cors"
	"go.mongodb.org/mongo-driver/mongo"
)

type stores struct {
	users    store.Users
	recipes  store.Recipes
	comments store.Comments
	client   *mongo.Client
}

func openStores(ctx context.Context, cfg *config.Config) (*stores, error) {
	if cfg.InMemory() {
		logging.Warn().Msg("DB_CONNECT not set, using in-memory store")
		m := memstore.New()
		return &stores{users: m, recipes: m, comments: m}, nil
	}

	client, err := db.Connect(ctx, cfg.DBConnect)
	if err != nil {
		return nil, err
	}
	logging.Info().Str("db", cfg.DBName).Msg("connected to MongoDB")

	s := mongostore.New(client.Database(cfg.DBName))
	if err := s.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return &stores{users: s, recipes: s, comments: s, client: client}, nil
}

func openMedia(ctx context.Context, cfg *config.Config) *media.Proxy {
	if !cfg.MediaConfigured() {
		logging.Warn().Msg("media host not configured, uploads will fail")
		return media.NewProxy(nil)
	}
	host, err := media.NewS3Host(ctx, media.S3Config{
		Bucket:    cfg.CloudName,
		AccessKey: cfg.CloudAPIKey,
		SecretKey: cfg.CloudAPISecret,
		Region:    cfg.CloudRegion,
		Endpoint:  cfg.CloudEndpoint,
		PublicURL: cfg.CloudPublicURL,
	})
	if err != nil {
		logging.Error().Err(err).Msg("media host init failed, uploads will fail")
		return media.NewProxy(nil)
	}
	return media.NewProxy(host)
}

// setupRouter builds the handler chain around the route table.
func setupRouter(cfg *config.Config, h routes.Handlers) http.Handler {
	router := routes.New(h)

	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.Origins(),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", auth.HeaderName},
		ExposedHeaders:   []string{users.TokenHeader},
		AllowCredentials: true,
	})

	return middleware.RecoverMiddleware(middleware.RequestLogger(middleware.SecurityHeaders(c.Handler(router))))
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("load config")
	}
	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	ctx := context.Background()

	st, err := openStores(ctx, cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("open store")
	}

	cache, err := rdx.New(ctx, cfg.RedisAddr, cfg.CacheTTL)
	if err != nil {
		logging.Warn().Err(err).Msg("redis unavailable, stats are not cached")
		cache = nil
	}

	proxy := openMedia(ctx, cfg)
	hub := mq.NewHub()
	events := mq.Fanout{hub, home.NewInvalidator(cache)}

	authSvc := auth.NewService(st.users, auth.NewIssuer(cfg.TokenSecret, cfg.TokenTTL))
	recipeSvc := recipes.NewService(st.users, st.recipes, st.comments, events)

	rateLimiter := ratelim.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst).TrustProxies(cfg.Proxies()...)
	handler := setupRouter(cfg, routes.Handlers{
		Verifier:    authSvc,
		Limiter:     rateLimiter,
		Users:       users.NewHandler(authSvc, st.users, proxy, events),
		Recipes:     recipes.NewHandler(recipeSvc, proxy),
		Comments:    comments.NewHandler(recipeSvc),
		Home:        home.NewHandler(st.users, st.recipes, recipeSvc, cache),
		Suggestions: suggestions.NewHandler(recipeSvc),
		Feed:        hub,
	})

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler,
		ReadTimeout:       7 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
	}

	server.RegisterOnShutdown(func() {
		logging.Info().Msg("closing live feed")
		hub.Close()
	})

	stopCleanup := make(chan struct{})
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if n := rateLimiter.Cleanup(3 * time.Minute); n > 0 {
					logging.Debug().Int("evicted", n).Msg("rate limiter cleanup")
				}
			case <-stopCleanup:
				return
			}
		}
	}()

	go func() {
		logging.Info().Str("addr", server.Addr).Msg("server started")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal().Err(err).Str("addr", server.Addr).Msg("could not listen")
		}
	}()

	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, os.Interrupt, syscall.SIGTERM)
	<-shutdownChan

	logging.Info().Msg("shutdown signal received, shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	close(stopCleanup)
	if err := server.Shutdown(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("server shutdown failed")
	}
	if err := cache.Close(); err != nil {
		logging.Warn().Err(err).Msg("close redis")
	}
	if st.client != nil {
		if err := st.client.Disconnect(shutdownCtx); err != nil {
			logging.Warn().Err(err).Msg("disconnect mongo")
		}
	}

	logging.Info().Msg("server stopped cleanly")
}
