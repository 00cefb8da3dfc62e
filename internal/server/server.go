// Package server provides HTTP server initialization and lifecycle
// management for the pressfeed service.
package server

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/pressfeed/pressfeed/internal/config"
	"github.com/pressfeed/pressfeed/internal/personalize"
	"github.com/pressfeed/pressfeed/web/handlers"
)

// securityHeadersMiddleware adds security headers to all HTTP responses.
func securityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-XSS-Protection", "1; mode=block")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

// Start initializes and starts the HTTP server. It returns the actual
// address being listened on (useful for testing with port 0) and the
// websocket hub for wiring feedback event broadcasts. The server shuts
// down when ctx is cancelled.
func Start(ctx context.Context, cfg *config.Config, svc *personalize.Service) (string, *handlers.Hub, error) {
	mux := http.NewServeMux()

	origin := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	wsHub := handlers.NewHub([]string{origin, "localhost:" + fmt.Sprint(cfg.Server.Port)})
	go wsHub.Run()

	// 10 req/sec sustained, burst of 20, across the whole server.
	rateLimiter := handlers.NewRateLimiter(10.0, 20)

	feedbackHandlers := handlers.NewFeedbackHandlers(svc)
	userHandlers := handlers.NewUserHandlers(svc)
	statsHandler := handlers.NewStatsHandler(svc, wsHub)

	// Webhook endpoint. No auth: the links live in digest emails.
	if cfg.Features.EnableWebhook {
		mux.HandleFunc("/feedback", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
				return
			}
			feedbackHandlers.Webhook(w, r)
		})
	}

	// JSON API (requires auth in production mode).
	if cfg.Features.EnableAPI {
		apiMux := http.NewServeMux()
		apiMux.HandleFunc("/api/users/{id}/summary", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
				return
			}
			userHandlers.GetSummary(w, r)
		})
		apiMux.HandleFunc("/api/users/{id}/recommendations", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
				return
			}
			userHandlers.GetRecommendations(w, r)
		})
		apiMux.HandleFunc("/api/users/{id}/conversations", func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				userHandlers.GetConversations(w, r)
			case http.MethodPost:
				userHandlers.PostConversation(w, r)
			default:
				http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			}
		})
		apiMux.HandleFunc("/api/users/{id}/profile", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPatch {
				http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
				return
			}
			userHandlers.PatchProfile(w, r)
		})
		apiMux.HandleFunc("/api/feedback", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
				return
			}
			feedbackHandlers.PostFeedback(w, r)
		})
		apiMux.HandleFunc("/api/stats", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
				return
			}
			statsHandler.GetStats(w, r)
		})

		mux.Handle("/api/", handlers.RequireAuth(apiMux, cfg))
	}

	// Health endpoint. No auth, used by monitoring.
	mux.HandleFunc("/api/health", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy","version":"1.0.0"}`))
	})

	// Websocket endpoint. No auth: origin validation handles access.
	if cfg.Features.EnableEvents {
		mux.Handle("/ws", wsHub)
	}

	handler := handlers.RateLimitMiddleware(mux, rateLimiter)
	handler = handlers.RequestID(handler)
	handler = securityHeadersMiddleware(handler)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return "", nil, fmt.Errorf("server: listen on %s: %w", addr, err)
	}
	actualAddr := listener.Addr().String()

	go func() {
		if err := srv.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Printf("server: serve error: %v", err)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("server: shutdown error: %v", err)
		}
		wsHub.Stop()
	}()

	return actualAddr, wsHub, nil
}
