package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/leadflow-cli/internal/model"
	"github.com/sells-group/leadflow-cli/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start webhook server for remote automation triggers",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st := initLedger(ctx)
		defer closeLedger(st)

		rc, err := initOdoo()
		if err != nil {
			return err
		}

		// One automation pass at a time.
		var busy atomic.Bool

		mux := chi.NewRouter()
		mux.Use(middleware.RequestID)
		mux.Use(middleware.Recoverer)
		mux.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{http.MethodGet, http.MethodPost},
		}))

		mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		mux.Get("/runs", func(w http.ResponseWriter, r *http.Request) {
			if st == nil {
				http.Error(w, `{"error":"run ledger unavailable"}`, http.StatusServiceUnavailable)
				return
			}
			runs, err := st.ListRuns(r.Context(), store.RunFilter{
				Kind: model.RunKind(r.URL.Query().Get("kind")),
			})
			if err != nil {
				zap.L().Error("list runs failed", zap.Error(err))
				http.Error(w, `{"error":"list runs failed"}`, http.StatusInternalServerError)
				return
			}
			writeJSON(w, http.StatusOK, runs)
		})

		mux.Post("/hooks/automate", func(w http.ResponseWriter, r *http.Request) {
			if !busy.CompareAndSwap(false, true) {
				http.Error(w, `{"error":"automation pass already running"}`, http.StatusConflict)
				return
			}

			go func() {
				defer busy.Store(false)
				startedAt := time.Now().UTC()

				run, err := runAutomate(ctx, rc)
				if err != nil {
					zap.L().Error("webhook automation failed", zap.Error(err))
					return
				}
				run.StartedAt = startedAt
				run.FinishedAt = time.Now().UTC()
				saveRun(ctx, st, run)
			}()

			writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
		})

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: mux,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownGracefully(srv)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

// drainTimeout bounds how long in-flight requests may run after a stop signal.
const drainTimeout = 10 * time.Second

// shutdownGracefully drains the server on its own deadline. The signal
// context that triggers it is already cancelled and cannot be reused.
func shutdownGracefully(srv *http.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		zap.L().Error("server shutdown failed", zap.Error(err))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
