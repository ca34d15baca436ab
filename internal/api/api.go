// Package api exposes the scanner's HTTP surface: scan submission, status
// and result polling, scan listing, health, and metrics.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/sells-group/presence-scanner/internal/metrics"
	"github.com/sells-group/presence-scanner/internal/model"
	"github.com/sells-group/presence-scanner/internal/queue"
	"github.com/sells-group/presence-scanner/internal/store"
)

// Server handles API requests. Store may be nil when running queue-only.
type Server struct {
	queue *queue.Queue
	store store.Store
}

// New creates a Server.
func New(q *queue.Queue, st store.Store) *Server {
	return &Server{queue: q, store: st}
}

// ScanRequest is the scan submission payload.
type ScanRequest struct {
	Business   model.BusinessInput `json:"business"`
	WebhookURL string              `json:"webhook_url,omitempty"`
}

// Router builds the chi router with middleware and all routes mounted.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Post("/scan", s.handleScan)
	r.Get("/status", s.handleStatus)
	r.Get("/result", s.handleResult)
	r.Get("/scans", s.handleList)
	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())
	return r
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	var req ScanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Business.Name == "" {
		writeError(w, http.StatusBadRequest, "business.business_name is required")
		return
	}

	task, err := s.queue.Enqueue(r.Context(), req.Business, req.WebhookURL)
	if err != nil {
		zap.L().Error("api: enqueue scan", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to enqueue scan")
		return
	}

	zap.L().Info("scan enqueued",
		zap.String("scan_id", task.ID),
		zap.String("business", req.Business.Name),
	)
	writeJSON(w, http.StatusAccepted, map[string]any{
		"scan_id": task.ID,
		"status":  string(model.ScanStatusQueued),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}

	status, err := s.queue.Status(r.Context(), id)
	if errors.Is(err, queue.ErrNotFound) {
		// Expired queue records may still exist in the store.
		if scan := s.storedScan(r, id); scan != nil {
			writeJSON(w, http.StatusOK, map[string]any{"scan_id": id, "status": string(scan.Status)})
			return
		}
		writeError(w, http.StatusNotFound, "scan not found")
		return
	}
	if err != nil {
		zap.L().Error("api: get status", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to read status")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"scan_id": id, "status": string(status)})
}

func (s *Server) handleResult(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}

	status, err := s.queue.Status(r.Context(), id)
	if errors.Is(err, queue.ErrNotFound) {
		// Expired queue records may still exist in the store.
		if scan := s.storedScan(r, id); scan != nil {
			if scan.Result != nil {
				writeJSON(w, http.StatusOK, scan.Result)
				return
			}
			writePending(w, scan.Status)
			return
		}
		writeError(w, http.StatusNotFound, "scan not found")
		return
	}
	if err != nil {
		zap.L().Error("api: get result status", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to read result")
		return
	}
	if status != model.ScanStatusCompleted {
		writePending(w, status)
		return
	}

	result, err := s.queue.Result(r.Context(), id)
	if err != nil {
		zap.L().Error("api: get result", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to read result")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// writePending tells the caller the scan exists but has no result yet.
func writePending(w http.ResponseWriter, status model.ScanStatus) {
	writeJSON(w, http.StatusBadRequest, map[string]string{
		"error":  "scan not completed yet",
		"status": string(status),
	})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusNotImplemented, "scan listing requires a store")
		return
	}

	filter := store.ScanFilter{
		Status: model.ScanStatus(r.URL.Query().Get("status")),
		Limit:  queryInt(r, "limit", 50),
		Offset: queryInt(r, "offset", 0),
	}
	scans, err := s.store.ListScans(r.Context(), filter)
	if err != nil {
		zap.L().Error("api: list scans", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list scans")
		return
	}
	if scans == nil {
		scans = []model.Scan{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"scans": scans})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.queue.Ping(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "degraded", "queue": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

// storedScan looks a scan up in the store, tolerating a nil store and
// lookup faults.
func (s *Server) storedScan(r *http.Request, id string) *model.Scan {
	if s.store == nil {
		return nil
	}
	scan, err := s.store.GetScan(r.Context(), id)
	if err != nil {
		return nil
	}
	return scan
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		zap.L().Warn("api: encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
