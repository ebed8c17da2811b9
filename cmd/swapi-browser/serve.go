package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/Sternrassler/swapi-client/pkg/category"
	"github.com/Sternrassler/swapi-client/pkg/coordinator"
	"github.com/Sternrassler/swapi-client/pkg/metrics"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

const requestIDHeader = "X-Request-ID"

func newServeCommand(flags *globalFlags) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the browser state and intents over HTTP",
		Long: `Serve the browser state and intents over HTTP.

Endpoints:
  GET  /health             liveness
  GET  /ready              readiness (pings Redis when configured)
  GET  /metrics            Prometheus metrics
  GET  /state              current browser state as JSON
  POST /intents/switch     {"category": "planet"}
  POST /intents/increment  advance the page counter
  POST /intents/load       load the current page
  POST /intents/retry      {"category": "planet"}`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			if port > 0 {
				cfg.Server.Port = port
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer a.close()

			return runServer(ctx, a)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "Listen port (overrides PORT)")

	return cmd
}

func runServer(ctx context.Context, a *app) error {
	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(a.cfg.Server.Port),
		Handler:           newHandler(a),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info().
			Str("addr", srv.Addr).
			Str("base_url", a.cfg.Client.BaseURL).
			Str("user_agent", a.cfg.Client.UserAgent).
			Msg("Starting swapi-browser server")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	a.logger.Info().Msg("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newHandler(a *app) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", healthHandler)
	mux.HandleFunc("GET /ready", readyHandler(a))
	mux.Handle("GET /metrics", metrics.Handler())
	mux.HandleFunc("GET /state", stateHandler(a.coordinator))
	mux.HandleFunc("POST /intents/switch", switchHandler(a.coordinator))
	mux.HandleFunc("POST /intents/increment", incrementHandler(a.coordinator))
	mux.HandleFunc("POST /intents/load", loadHandler(a.coordinator))
	mux.HandleFunc("POST /intents/retry", retryHandler(a.coordinator))
	return requestIDMiddleware(a.logger, mux)
}

// requestIDMiddleware tags every request with an ID and logs it.
func requestIDMiddleware(logger zerolog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}
		w.Header().Set(requestIDHeader, id)

		reqLogger := logger.With().Str("request_id", id).Logger()
		r = r.WithContext(reqLogger.WithContext(r.Context()))

		start := time.Now()
		next.ServeHTTP(w, r)

		reqLogger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("duration", time.Since(start)).
			Msg("Handled request")
	})
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "OK")
}

func readyHandler(a *app) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := a.client.Ping(ctx); err != nil {
			zerolog.Ctx(r.Context()).Warn().Err(err).Msg("Readiness check failed")
			http.Error(w, "redis unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "OK")
	}
}

func stateHandler(coord *coordinator.Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respondState(w, http.StatusOK, coord)
	}
}

type categoryRequest struct {
	Category category.Category `json:"category"`
}

func decodeCategory(r *http.Request) (category.Category, error) {
	var req categoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return "", err
	}
	if !req.Category.Valid() {
		return "", fmt.Errorf("%w: %q", category.ErrInvalidCategory, req.Category)
	}
	return req.Category, nil
}

func switchHandler(coord *coordinator.Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		target, err := decodeCategory(r)
		if err != nil {
			respondError(w, http.StatusBadRequest, err)
			return
		}
		if err := coord.SwitchCategory(target); err != nil {
			respondError(w, http.StatusBadRequest, err)
			return
		}
		respondState(w, http.StatusAccepted, coord)
	}
}

func incrementHandler(coord *coordinator.Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		coord.IncrementPage()
		respondState(w, http.StatusOK, coord)
	}
}

func loadHandler(coord *coordinator.Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := coord.LoadNextPage(r.Context()); err != nil {
			var fetchErr *coordinator.FetchError
			if errors.As(err, &fetchErr) {
				respondError(w, http.StatusBadGateway, err)
				return
			}
			respondError(w, http.StatusInternalServerError, err)
			return
		}
		respondState(w, http.StatusOK, coord)
	}
}

func retryHandler(coord *coordinator.Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		target, err := decodeCategory(r)
		if err != nil {
			respondError(w, http.StatusBadRequest, err)
			return
		}
		if err := coord.Retry(target); err != nil {
			respondError(w, http.StatusBadRequest, err)
			return
		}
		respondState(w, http.StatusAccepted, coord)
	}
}

func respondState(w http.ResponseWriter, status int, coord *coordinator.Coordinator) {
	respondJSON(w, status, coord.Snapshot())
}

func respondError(w http.ResponseWriter, status int, err error) {
	respondJSON(w, status, map[string]string{"error": err.Error()})
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
