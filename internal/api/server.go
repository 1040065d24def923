package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/pbaille/moodlog/internal/domain"
	"github.com/pbaille/moodlog/internal/query"
	"github.com/pbaille/moodlog/internal/store"
	"go.uber.org/zap"
	"golang.org/x/net/netutil"
)

// EmotionSource labels note text with an emotion, or "" when none fits
type EmotionSource interface {
	Classify(ctx context.Context, text string) (string, error)
}

// Server handles HTTP requests for the mood journal API
type Server struct {
	store      *store.Store
	facade     *query.Facade
	classifier EmotionSource
	log        *zap.Logger
	addr       string
	maxConns   int
}

// Option configures a Server
type Option func(*Server)

// WithClassifier enables emotion classification of notes on POST
func WithClassifier(c EmotionSource) Option {
	return func(s *Server) { s.classifier = c }
}

// WithLogger sets the request logger
func WithLogger(l *zap.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

// WithMaxConns caps simultaneously accepted connections
func WithMaxConns(n int) Option {
	return func(s *Server) { s.maxConns = n }
}

// New creates a new API server
func New(st *store.Store, addr string, opts ...Option) *Server {
	s := &Server{
		store:  st,
		facade: query.New(st),
		log:    zap.NewNop(),
		addr:   addr,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the routed handler with middleware applied
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /entries", s.listAll)
	mux.HandleFunc("GET /users/{user}/entries", s.listRecent)
	mux.HandleFunc("POST /users/{user}/entries", s.addEntry)
	mux.HandleFunc("DELETE /users/{user}/entries/{n}", s.deleteEntry)
	mux.HandleFunc("GET /users/{user}/recent", s.describeRecent)

	mux.HandleFunc("GET /health", s.health)

	return s.withLogging(withCORS(mux))
}

// Run serves until ctx is cancelled
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	if s.maxConns > 0 {
		ln = netutil.LimitListener(ln, s.maxConns)
	}

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()
	s.log.Info("server started", zap.String("addr", ln.Addr().String()), zap.Int("max_conns", s.maxConns))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.log.Info("server shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

// withCORS adds CORS headers for frontend development
func withCORS(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		h.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) withLogging(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		h.ServeHTTP(rec, r)
		s.log.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)))
	})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// AddEntryRequest is the request body for appending an entry.
// A null or missing emotion/note is stored as absent.
type AddEntryRequest struct {
	Mood     *int    `json:"mood"`
	Emotion  *string `json:"emotion,omitempty"`
	Note     *string `json:"note,omitempty"`
	Classify bool    `json:"classify,omitempty"`
}

func (s *Server) addEntry(w http.ResponseWriter, r *http.Request) {
	var req AddEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Mood == nil {
		writeError(w, http.StatusBadRequest, "mood is required")
		return
	}

	emotion := req.Emotion
	if emotion == nil && req.Classify && req.Note != nil && s.classifier != nil {
		label, err := s.classifier.Classify(r.Context(), *req.Note)
		if err != nil {
			s.log.Warn("classification failed", zap.Error(err))
		}
		emotion = domain.Optional(label)
	}

	entry, err := s.store.Append(r.Context(), r.PathValue("user"), *req.Mood, emotion, req.Note)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, entry)
}

func (s *Server) deleteEntry(w http.ResponseWriter, r *http.Request) {
	n, err := strconv.Atoi(r.PathValue("n"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "entry number must be an integer")
		return
	}

	deleted, err := s.store.Delete(r.Context(), r.PathValue("user"), n)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, "entry not found")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listAll(w http.ResponseWriter, r *http.Request) {
	entries, err := s.store.ListAll(r.Context())
	if err != nil {
		writeStoreError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"entries": entries,
	})
}

func (s *Server) listRecent(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	entries, err := s.store.FetchRecent(r.Context(), r.PathValue("user"), limit)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"entries": entries,
		"limit":   effectiveLimit(limit),
	})
}

func (s *Server) describeRecent(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	res, err := s.facade.DescribeRecent(r.Context(), r.PathValue("user"), limit)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	status := http.StatusOK
	if f, ok := res.(query.Failure); ok {
		status = http.StatusNotFound
		if errors.Is(f, domain.ErrEmptyUser) {
			status = http.StatusBadRequest
		}
	}
	writeJSON(w, status, res)
}

// parseLimit returns the ?limit value, or 0 for the default when absent.
// A present value must be a positive integer.
func parseLimit(r *http.Request) (int, error) {
	l := strings.TrimSpace(r.URL.Query().Get("limit"))
	if l == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(l)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("limit must be a positive integer, got %q", l)
	}
	return n, nil
}

func effectiveLimit(limit int) int {
	if limit <= 0 {
		return domain.DefaultRecentLimit
	}
	return limit
}

func writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidMood), errors.Is(err, domain.ErrEmptyUser):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
