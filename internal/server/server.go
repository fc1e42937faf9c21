package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"layoff-watch/tracker/internal/database"
	"layoff-watch/tracker/internal/dataset"
	"layoff-watch/tracker/internal/metrics"
	"layoff-watch/tracker/internal/server/api"
	"layoff-watch/tracker/internal/server/storage"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
)

// apiKeyMiddleware checks for the X-API-Key header and validates it against the provided key.
// If key is empty, it allows all requests.
func apiKeyMiddleware(apiKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if apiKey == "" {
				next.ServeHTTP(w, r)
				return
			}

			reqApiKey := r.Header.Get("X-API-Key")
			if reqApiKey == "" {
				http.Error(w, "API key required", http.StatusUnauthorized)
				return
			}

			if reqApiKey != apiKey {
				http.Error(w, "Invalid API key", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// Deps are the collaborators the HTTP API serves from.
type Deps struct {
	DB      *database.DB
	Store   *dataset.Store
	Metrics *metrics.Metrics
}

// NewHandler builds the routed handler with the logging middleware chain and,
// when apiKey is set, API key authentication.
func NewHandler(deps Deps, logger zerolog.Logger, apiKey string) http.Handler {
	eventsHandler := api.NewEventsHandler(storage.NewRepository(deps.DB))
	datasetHandler := api.NewDatasetHandler(deps.Store)
	feedsHandler := api.NewFeedsHandler(deps.DB)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/events", eventsHandler.GetEvents)
	mux.HandleFunc("GET /v1/events/{id}", eventsHandler.GetEvent)
	mux.HandleFunc("GET /v1/dataset", datasetHandler.GetDataset)
	mux.HandleFunc("GET /v1/feeds", feedsHandler.ExportFeeds)
	mux.HandleFunc("GET /health", healthCheckHandler(deps.DB))
	if deps.Metrics != nil {
		mux.Handle("GET /metrics", deps.Metrics.Handler())
	}

	// Set up middleware chain for logging and request tracking
	h := hlog.NewHandler(logger)(mux)
	h = hlog.MethodHandler("method")(h)
	h = hlog.URLHandler("url")(h)
	h = hlog.RemoteAddrHandler("remote_addr")(h)
	h = hlog.UserAgentHandler("user_agent")(h)
	h = hlog.RequestIDHandler("req_id", "Request-Id")(h)
	h = hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		idReq, _ := hlog.IDFromRequest(r)

		hlog.FromRequest(r).Info().
			Str("method", r.Method).
			Stringer("url", r.URL).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Str("req_id", idReq.String()).
			Msg("HTTP Request")
	})(h)

	if apiKey != "" {
		h = apiKeyMiddleware(apiKey)(h)
		logger.Info().Msg("API key authentication enabled")
	} else {
		logger.Info().Msg("API key authentication disabled")
	}
	return h
}

// RunServer starts the HTTP server and blocks until ctx is cancelled or the
// server fails, then shuts down gracefully.
func RunServer(ctx context.Context, deps Deps, listenAddr string, logger zerolog.Logger, apiKey string) error {
	logger = logger.With().Str("service", "layoffwatch-api-readonly").Logger()

	httpServer := &http.Server{
		Addr:              listenAddr,
		Handler:           NewHandler(deps, logger, apiKey),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info().Str("address", listenAddr).Msg("API Server starting")
		err := httpServer.ListenAndServe()
		if !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("server failed to start: %w", err)

	case <-ctx.Done():
		logger.Info().Msg("Shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("HTTP server shutdown error")
			if err := httpServer.Close(); err != nil {
				logger.Error().Err(err).Msg("HTTP server force close error")
			}
		} else {
			logger.Info().Msg("HTTP server shutdown complete.")
		}
		if err := <-serverErr; err != nil {
			logger.Error().Err(err).Msg("ListenAndServe error during shutdown")
		}
	}

	logger.Info().Msg("Server exiting.")
	return nil
}

// healthCheckHandler reports 200 OK while the archive answers a ping and
// 503 otherwise.
func healthCheckHandler(db *database.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := hlog.FromRequest(r)

		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			log.Error().Err(err).Msg("Health check failed")
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}

		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			log.Error().Err(err).Msg("Error writing health check response")
		}
	}
}
