package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/addrbook/addrbook-go/internal/config"
	"github.com/addrbook/addrbook-go/internal/middleware"
	"github.com/addrbook/addrbook-go/internal/service"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Services bundles what the router dispatches to.
type Services struct {
	Auth      *service.AuthService
	Users     *service.UserService
	Addresses *service.AddressService
	Tokens    middleware.TokenValidator
	Store     Pinger
}

// NewRouter builds the HTTP API.
func NewRouter(cfg *config.Config, svc Services) http.Handler {
	authHandler := NewAuthHandler(svc.Auth)
	userHandler := NewUserHandler(svc.Users)
	addressHandler := NewAddressHandler(svc.Addresses)

	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(chimw.RequestID)
	r.Use(middleware.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(cfg.RequestTimeout))
	r.Use(middleware.SecureHeaders(cfg.IsProduction()))
	r.Use(middleware.GlobalRateLimit(cfg.RateLimitPerMinute))

	r.Get("/health", handleHealth(svc.Store))

	r.Route("/auth", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimit(cfg.AuthRateRPS, cfg.AuthRateBurst))
			r.Post("/register", authHandler.HandleRegister)
			r.Post("/login", authHandler.HandleLogin)
		})

		r.With(middleware.JWTAuth(svc.Tokens)).Get("/profile", authHandler.HandleProfile)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.JWTAuth(svc.Tokens))

		r.Route("/users", func(r chi.Router) {
			r.Post("/", userHandler.HandleCreate)
			r.Get("/", userHandler.HandleList)
			r.Get("/{id}", userHandler.HandleGet)
			r.Patch("/{id}", userHandler.HandleUpdate)
			r.Delete("/{id}", userHandler.HandleDelete)
		})

		r.Route("/addresses", func(r chi.Router) {
			r.Post("/", addressHandler.HandleCreate)
			r.Get("/", addressHandler.HandleList)
			r.Get("/user/{userID}", addressHandler.HandleListByUser)
			r.Get("/user/{userID}/default", addressHandler.HandleGetDefault)
			r.Get("/{id}", addressHandler.HandleGet)
			r.Patch("/{id}", addressHandler.HandleUpdate)
			r.Patch("/{id}/set-default", addressHandler.HandleSetDefault)
			r.Delete("/{id}", addressHandler.HandleDelete)
		})
	})

	return r
}

func handleHealth(store Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := store.Ping(ctx); err != nil {
			slog.Warn("health check failed", "error", err)
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte("unavailable"))
			return
		}

		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	}
}
