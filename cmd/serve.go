package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/innovareai/sam-prospector/internal/model"
	"github.com/innovareai/sam-prospector/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API for prospect searches",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		e, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		if err := e.Store.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		r := chi.NewRouter()
		r.Use(middleware.RequestID)
		r.Use(middleware.Recoverer)
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type", "Authorization"},
			MaxAge:         300,
		}))

		r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
			status := "ok"
			code := http.StatusOK
			if err := e.Store.Ping(req.Context()); err != nil {
				status = "degraded"
				code = http.StatusServiceUnavailable
			}
			writeJSON(w, code, map[string]string{"status": status})
		})

		r.Post("/api/search", func(w http.ResponseWriter, req *http.Request) {
			var sr model.SearchRequest
			if err := json.NewDecoder(req.Body).Decode(&sr); err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
				return
			}
			if sr.UserID == "" || sr.WorkspaceID == "" {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "user_id and workspace_id are required"})
				return
			}

			result, err := e.Pipeline.Run(req.Context(), sr)
			if err != nil {
				zap.L().Error("search failed",
					zap.String("workspace_id", sr.WorkspaceID),
					zap.Error(err),
				)
				writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
				return
			}
			writeJSON(w, http.StatusOK, result)
		})

		r.Get("/api/batches", func(w http.ResponseWriter, req *http.Request) {
			workspaceID := req.URL.Query().Get("workspace_id")
			if workspaceID == "" {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "workspace_id is required"})
				return
			}
			batches, err := e.Store.ListBatches(req.Context(), store.BatchFilter{WorkspaceID: workspaceID})
			if err != nil {
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"batches": batches})
		})

		r.Get("/api/batches/{id}", func(w http.ResponseWriter, req *http.Request) {
			batch, err := e.Store.GetBatch(req.Context(), chi.URLParam(req, "id"))
			if err != nil {
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
				return
			}
			if batch == nil {
				writeJSON(w, http.StatusNotFound, map[string]string{"error": "batch not found"})
				return
			}
			writeJSON(w, http.StatusOK, batch)
		})

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}
		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           r,
			ReadHeaderTimeout: 10 * time.Second,
		}

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			zap.L().Info("starting server", zap.Int("port", port))
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return eris.Wrap(err, "server listen")
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})

		return g.Wait()
	},
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
