package server

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/draftmark/draftmark/internal/draftstore"
)

// Config holds the dev server's tunables. Zero values get defaults; an
// empty APIKey disables auth.
type Config struct {
	APIKey     string
	WriteRate  float64 // writes per second per draft
	WriteBurst int
	MaxBytes   int64
}

const (
	defaultWriteRate  = 5.0
	defaultWriteBurst = 10
	defaultMaxBytes   = 1 << 20
)

// Server is the HTTP draft store.
type Server struct {
	router chi.Router
	store  *Store
	log    *slog.Logger
	cfg    Config
}

// NewServer creates and configures the HTTP server.
func NewServer(store *Store, log *slog.Logger, cfg Config) *Server {
	if cfg.WriteRate <= 0 {
		cfg.WriteRate = defaultWriteRate
	}
	if cfg.WriteBurst <= 0 {
		cfg.WriteBurst = defaultWriteBurst
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = defaultMaxBytes
	}
	s := &Server{store: store, log: log, cfg: cfg}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(requestLogger(s.log))

	r.Get("/health", s.handleHealth)

	r.Group(func(r chi.Router) {
		if s.cfg.APIKey != "" {
			r.Use(authMiddleware(s.cfg.APIKey))
		}
		limiter := newWriteLimiter(s.cfg.WriteRate, s.cfg.WriteBurst)

		r.Get("/v1/drafts/{draftID}", s.handleGetDraft)
		r.With(limiter.middleware).Put("/v1/drafts/{draftID}", s.handlePutDraft)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) handleGetDraft(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "draftID")
	nodes, rev, err := s.store.Get(r.Context(), id)
	if errors.Is(err, draftstore.ErrNotFound) {
		http.Error(w, `{"error":"draft not found"}`, http.StatusNotFound)
		return
	}
	if err != nil {
		s.log.Error("get draft", "id", id, "error", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("ETag", formatETag(rev))
	w.Write(nodes)
}

func (s *Server) handlePutDraft(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "draftID")

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.cfg.MaxBytes))
	if err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			http.Error(w, `{"error":"draft too large"}`, http.StatusRequestEntityTooLarge)
		} else {
			http.Error(w, `{"error":"reading body"}`, http.StatusBadRequest)
		}
		return
	}
	if !json.Valid(body) {
		http.Error(w, `{"error":"body is not valid JSON"}`, http.StatusBadRequest)
		return
	}
	expect, ok := parseETag(r.Header.Get("If-Match"))
	if !ok {
		http.Error(w, `{"error":"malformed If-Match"}`, http.StatusBadRequest)
		return
	}

	rev, created, err := s.store.Put(r.Context(), id, body, expect)
	switch {
	case errors.Is(err, draftstore.ErrConflict):
		http.Error(w, `{"error":"revision conflict"}`, http.StatusPreconditionFailed)
		return
	case errors.Is(err, draftstore.ErrNotFound):
		http.Error(w, `{"error":"draft not found"}`, http.StatusNotFound)
		return
	case err != nil:
		s.log.Error("put draft", "id", id, "error", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("ETag", formatETag(rev))
	if created {
		w.WriteHeader(http.StatusCreated)
	}
}

func formatETag(rev int64) string {
	return `"` + strconv.FormatInt(rev, 10) + `"`
}

// parseETag reads a revision from an If-Match value. An absent header
// means an unconditional write.
func parseETag(s string) (int64, bool) {
	if s == "" {
		return 0, true
	}
	rev, err := strconv.ParseInt(strings.Trim(s, `"`), 10, 64)
	if err != nil || rev < 1 {
		return 0, false
	}
	return rev, true
}
