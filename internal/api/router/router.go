package router

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/wolfman30/nextchat-ai-platform/internal/bridge"
	"github.com/wolfman30/nextchat-ai-platform/internal/conversation"
	httpmiddleware "github.com/wolfman30/nextchat-ai-platform/internal/http/middleware"
	"github.com/wolfman30/nextchat-ai-platform/internal/webchat"
	"github.com/wolfman30/nextchat-ai-platform/pkg/logging"
)

// HealthCheck probes one dependency. A nil error means healthy.
type HealthCheck func(ctx context.Context) error

// Config holds router configuration
type Config struct {
	Logger              *logging.Logger
	ConversationHandler *conversation.Handler
	BridgeHandler       *bridge.Handler
	WebchatHandler      *webchat.Handler
	MetricsHandler      http.Handler
	CORSAllowedOrigins  []string

	// RateLimiter guards the public chat endpoints. Nil disables limiting.
	RateLimiter *httpmiddleware.RateLimiter

	// HealthChecks are reported by /health keyed by dependency name.
	HealthChecks map[string]HealthCheck
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	r.Use(middleware.Recoverer)
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}

	r.Get("/health", healthHandler(cfg.HealthChecks))
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	r.Group(func(public chi.Router) {
		if cfg.RateLimiter != nil {
			public.Use(cfg.RateLimiter.Middleware)
		}
		if cfg.ConversationHandler != nil {
			public.Route("/api/chat", func(chat chi.Router) {
				chat.Post("/", cfg.ConversationHandler.Chat)
				chat.Get("/{conversationID}", cfg.ConversationHandler.History)
			})
		}
		if cfg.WebchatHandler != nil {
			public.Route("/webchat", func(wc chi.Router) {
				wc.Get("/ws", cfg.WebchatHandler.HandleWebSocket)
				wc.Post("/message", cfg.WebchatHandler.HandleMessage)
				wc.Get("/history", cfg.WebchatHandler.HandleHistory)
			})
		}
	})

	if cfg.BridgeHandler != nil {
		r.Post("/api/mcp", cfg.BridgeHandler.Call)
	}

	return r
}

func healthHandler(checks map[string]HealthCheck) http.HandlerFunc {
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		resp := map[string]string{"status": "ok"}
		for _, name := range names {
			if err := checks[name](ctx); err != nil {
				resp[name] = err.Error()
				resp["status"] = "degraded"
				status = http.StatusServiceUnavailable
				continue
			}
			resp[name] = "ok"
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(resp)
	}
}
