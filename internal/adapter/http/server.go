package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/fault-render-etl/internal/adapter/render"
	"github.com/couchcryptid/fault-render-etl/internal/domain"
	"github.com/couchcryptid/fault-render-etl/internal/observability"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DatasetReader returns the current dataset of a slot.
type DatasetReader interface {
	Get(slot domain.Slot) (*domain.ProjectedDataset, error)
}

// FolderLoader loads a result folder into a slot.
type FolderLoader interface {
	Load(ctx context.Context, slot domain.Slot, folder string) (*domain.ProjectedDataset, error)
}

// Server exposes health, readiness, metrics, and dataset HTTP endpoints.
type Server struct {
	httpServer *http.Server
	datasets   DatasetReader
	loader     FolderLoader
	encodings  *lruCache[[]byte]
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewServer creates an HTTP server with health routes and the /datasets API.
// Encoded datasets are cached by dataset ID, up to cacheSize entries.
func NewServer(addr string, ready sharedobs.ReadinessChecker, datasets DatasetReader, loader FolderLoader, cacheSize int, metrics *observability.Metrics, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 2 * time.Minute, // folder loads run inside the request
			IdleTimeout:  60 * time.Second,
		},
		datasets:  datasets,
		loader:    loader,
		encodings: newLRUCache[[]byte](cacheSize),
		metrics:   metrics,
		logger:    logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /datasets/compare", s.handleCompare)
	mux.HandleFunc("GET /datasets/{slot}", s.handleEncoded("geojson", "application/geo+json", render.GeoJSON))
	mux.HandleFunc("GET /datasets/{slot}/kml", s.handleEncoded("kml", "application/vnd.google-earth.kml+xml", render.KML))
	mux.HandleFunc("GET /datasets/{slot}/summary", s.handleSummary)
	mux.HandleFunc("POST /datasets/{slot}/load", s.handleLoad)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) dataset(r *http.Request) (*domain.ProjectedDataset, error) {
	slot, err := domain.ParseSlot(r.PathValue("slot"))
	if err != nil {
		return nil, err
	}
	return s.datasets.Get(slot)
}

func (s *Server) handleEncoded(format, contentType string, encode func(*domain.ProjectedDataset) ([]byte, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ds, err := s.dataset(r)
		if err != nil {
			s.writeError(w, err)
			return
		}

		key := format + ":" + ds.ID
		body, ok := s.encodings.get(key)
		if ok {
			s.metrics.EncodingCache.WithLabelValues(format, "hit").Inc()
		} else {
			s.metrics.EncodingCache.WithLabelValues(format, "miss").Inc()
			if body, err = encode(ds); err != nil {
				s.writeError(w, err)
				return
			}
			s.encodings.put(key, body)
		}

		w.Header().Set("Content-Type", contentType)
		w.Header().Set("ETag", `"`+key+`"`)
		w.WriteHeader(http.StatusOK)
		w.Write(body) //nolint:errcheck // client disconnects are not actionable
	}
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	ds, err := s.dataset(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, domain.Summarize(ds))
}

type loadBody struct {
	Folder string `json:"folder"`
}

func (s *Server) handleLoad(w http.ResponseWriter, r *http.Request) {
	slot, err := domain.ParseSlot(r.PathValue("slot"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	var body loadBody
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": fmt.Sprintf("decode body: %v", err)})
		return
	}
	if body.Folder == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "folder is required"})
		return
	}

	ds, err := s.loader.Load(r.Context(), slot, body.Folder)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, domain.Summarize(ds))
}

func (s *Server) handleCompare(w http.ResponseWriter, _ *http.Request) {
	a, err := s.datasets.Get(domain.SlotOne)
	if err != nil {
		s.writeError(w, err)
		return
	}
	b, err := s.datasets.Get(domain.SlotTwo)
	if err != nil {
		s.writeError(w, err)
		return
	}
	cmp, err := domain.CompareResiduals(a, b)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"slot_1":   a.ID,
		"slot_2":   b.ID,
		"stations": cmp,
	})
}

// writeError maps domain errors to status codes.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrUnknownSlot), errors.Is(err, domain.ErrSlotEmpty), errors.Is(err, fs.ErrNotExist):
		status = http.StatusNotFound
	case domain.IsInputError(err):
		status = http.StatusUnprocessableEntity
	}
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// writeJSON encodes v before writing the header so an unencodable value
// becomes a 500 rather than an empty 200.
func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		status = http.StatusInternalServerError
		body, _ = json.Marshal(map[string]string{"error": fmt.Sprintf("encode response: %v", err)})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(append(body, '\n')) //nolint:errcheck // client disconnects are not actionable
}
