package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"calgrid/internal/auth"
	"calgrid/internal/cache"
	"calgrid/internal/config"
	"calgrid/internal/handlers"
	"calgrid/internal/middleware"
	"calgrid/internal/store"
	"calgrid/internal/validation"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(log)

	cfg, err := config.Load()
	if err != nil {
		log.Error("startup: config load failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if cfg.JWTSecret == "" {
		log.Error("startup: JWT_SECRET is required")
		os.Exit(1)
	}
	manager := &auth.Manager{Secret: []byte(cfg.JWTSecret), Issuer: cfg.JWTIssuer}

	appCache := newCache(cfg, log)

	srv := &handlers.Server{
		Cfg:   cfg,
		Store: store.New(cfg.StoreBaseURL, cfg.Timezone),
		Val:   validation.New(),
		Log:   log,
		Cache: appCache,
		Now:   time.Now,
	}

	limiter := middleware.NewRateLimiter(cfg.RateLimitMutations, time.Duration(cfg.RateLimitWindowSec)*time.Second)

	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(log))
	r.Use(chimw.Recoverer)
	r.Use(middleware.CORS(cfg.FrontendOrigins))
	r.Use(chimw.Timeout(30 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.UserAuth(manager))

		r.Get("/calendar/day", srv.GetDayView)
		r.Get("/calendar/week", srv.GetWeekView)
		r.Get("/calendar/month", srv.GetMonthView)
		r.Get("/users/suggestions", srv.SuggestUsers)

		r.Group(func(r chi.Router) {
			r.Use(limiter.Middleware)
			r.Post("/appointments", srv.CreateAppointment)
			r.Put("/appointments/{id}", srv.UpdateAppointment)
			r.Delete("/appointments/{id}", srv.DeleteAppointment)
		})
	})

	server := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("server: listening",
			slog.String("addr", cfg.ServerAddr),
			slog.String("env", cfg.Env),
			slog.String("store", cfg.StoreBaseURL),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server: listen failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Info("server: shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error("server: shutdown failed", slog.String("error", err.Error()))
	}
}

// newCache picks Redis when configured and reachable, otherwise a noop cache
// so the server still serves views without one.
func newCache(cfg *config.Config, log *slog.Logger) cache.Cache {
	var rc *cache.RedisCache
	switch {
	case cfg.RedisURL != "":
		c, err := cache.NewRedisFromURL(cfg.RedisURL)
		if err != nil {
			log.Warn("cache: bad REDIS_URL, running without cache", slog.String("error", err.Error()))
			return cache.NewNoop()
		}
		rc = c
	case cfg.RedisAddr != "":
		rc = cache.NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	default:
		return cache.NewNoop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rc.Ping(ctx); err != nil {
		log.Warn("cache: redis unreachable, running without cache", slog.String("error", err.Error()))
		return cache.NewNoop()
	}
	log.Info("cache: redis connected")
	return rc
}
