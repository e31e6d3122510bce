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
	"github.com/go-playground/validator/v10"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xpanddigital/cratehq-enrich/internal/enrich"
	"github.com/xpanddigital/cratehq-enrich/internal/queue"
	"github.com/xpanddigital/cratehq-enrich/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the operator HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: newRouter(ctx, st, initPipeline()),
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx) //nolint:errcheck
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

type apiServer struct {
	store    store.Store
	pipeline *enrich.Pipeline
	ctrl     *queue.Controller
	validate *validator.Validate

	// baseCtx outlives individual requests for async enrichments.
	baseCtx context.Context
}

func newRouter(ctx context.Context, st store.Store, pipeline *enrich.Pipeline) http.Handler {
	api := &apiServer{
		store:    st,
		pipeline: pipeline,
		ctrl:     queue.NewController(st),
		validate: validator.New(),
		baseCtx:  ctx,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", api.handleHealth)
	r.Post("/batches", api.handleCreateBatch)
	r.Get("/batches", api.handleListBatches)
	r.Get("/batches/{id}", api.handleGetBatch)
	r.Post("/batches/{id}/pause", api.handleBatchControl(api.ctrl.Pause))
	r.Post("/batches/{id}/resume", api.handleBatchControl(api.ctrl.Resume))
	r.Post("/batches/{id}/cancel", api.handleBatchControl(api.ctrl.Cancel))
	r.Post("/batches/{id}/retry-failed", api.handleRetryFailed)
	r.Post("/artists/{id}/enrich", api.handleEnrichArtist)

	return r
}

func (s *apiServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "store unreachable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type createBatchRequest struct {
	Name      string   `json:"name" validate:"required"`
	ArtistIDs []string `json:"artist_ids" validate:"required,min=1,dive,required"`
	Priority  int      `json:"priority"`
	CreatedBy string   `json:"created_by"`
}

func (s *apiServer) handleCreateBatch(w http.ResponseWriter, r *http.Request) {
	var req createBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	b, err := s.store.CreateBatch(r.Context(), req.Name, req.CreatedBy, req.ArtistIDs, req.Priority)
	if err != nil {
		zap.L().Error("create batch", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "create batch failed")
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

func (s *apiServer) handleListBatches(w http.ResponseWriter, r *http.Request) {
	batches, err := s.store.ListBatches(r.Context(), store.BatchFilter{})
	if err != nil {
		zap.L().Error("list batches", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "list batches failed")
		return
	}
	writeJSON(w, http.StatusOK, batches)
}

func (s *apiServer) handleGetBatch(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	b, err := s.store.GetBatch(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusNotFound, "batch not found")
		return
	}
	stats, err := s.store.JobStats(r.Context(), id)
	if err != nil {
		zap.L().Error("job stats", zap.String("batch_id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "job stats failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"batch":     b,
		"job_stats": stats,
	})
}

// handleBatchControl adapts a controller transition into a handler. A
// transition refused by the guard is the caller's mistake, so it maps to 409.
func (s *apiServer) handleBatchControl(op func(ctx context.Context, batchID string) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := op(r.Context(), id); err != nil {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "batch_id": id})
	}
}

func (s *apiServer) handleRetryFailed(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	requeued, err := s.ctrl.RetryFailed(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"batch_id": id, "requeued": requeued})
}

func (s *apiServer) handleEnrichArtist(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	artist, err := s.store.GetArtist(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusNotFound, "artist not found")
		return
	}

	// Run enrichment asynchronously; the result lands on the artist record
	// and in the enrichment log.
	go func() {
		res, err := s.pipeline.Enrich(s.baseCtx, artist)
		if err != nil {
			zap.L().Error("async enrichment failed", zap.String("artist_id", id), zap.Error(err))
			return
		}
		enrich.ApplyResult(artist, res)
		if err := s.store.UpdateArtist(s.baseCtx, artist); err != nil {
			zap.L().Error("persist async enrichment", zap.String("artist_id", id), zap.Error(err))
			return
		}
		if err := s.store.InsertEnrichmentLog(s.baseCtx, id, "", res); err != nil {
			zap.L().Error("log async enrichment", zap.String("artist_id", id), zap.Error(err))
		}
	}()

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted", "artist_id": id})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
