// Package web serves the catalog and search JSON API over HTTP.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/corey/zeal/internal/app"
	"github.com/corey/zeal/internal/apperrors"
	"github.com/corey/zeal/internal/ports"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Queries is the slice of the App the HTTP API needs.
type Queries interface {
	Status() app.Status
	Load(ctx context.Context) (app.LoadInfo, error)
	Search(ctx context.Context, text string) ([]ports.Restaurant, error)
	SearchStructured(q ports.ExtractedQuery) []ports.Restaurant
	Find(text string) []ports.Restaurant
	LastSearch() app.SearchState
}

// Server serves the JSON API.
type Server struct {
	queries  Queries
	gatherer prometheus.Gatherer
	log      *zap.Logger
	listener net.Listener
	httpSrv  *http.Server
	port     int
	started  time.Time
	stopOnce sync.Once

	portFilePath string // .zeal/run/http.port
}

// NewServer creates an HTTP server. The portFilePath is where the bound port
// is written for discovery; empty disables it.
func NewServer(queries Queries, gatherer prometheus.Gatherer, log *zap.Logger, portFilePath string) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{
		queries:      queries,
		gatherer:     gatherer,
		log:          log.Named("web"),
		portFilePath: portFilePath,
		started:      time.Now(),
	}
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/restaurants", s.handleRestaurants)
		r.Route("/search", func(r chi.Router) {
			r.With(middleware.AllowContentType("application/json")).Post("/", s.handleSearch)
			r.Get("/last", s.handleLastSearch)
		})
		r.Post("/reload", s.handleReload)
	})

	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

// Start begins listening on addr. Writes the bound port to the port file.
func (s *Server) Start(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	s.listener = ln
	s.port = ln.Addr().(*net.TCPAddr).Port
	s.started = time.Now()
	s.httpSrv = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	if s.portFilePath != "" {
		if err := os.WriteFile(s.portFilePath, []byte(fmt.Sprintf("%d", s.port)), 0644); err != nil {
			s.log.Warn("port file not written", zap.String("path", s.portFilePath), zap.Error(err))
		}
	}

	go func() {
		if err := s.httpSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("http server stopped", zap.Error(err))
		}
	}()
	s.log.Info("listening", zap.String("url", s.URL()))
	return nil
}

// Stop gracefully shuts down the HTTP server. Idempotent.
func (s *Server) Stop(ctx context.Context) error {
	var err error
	s.stopOnce.Do(func() {
		if s.httpSrv != nil {
			err = s.httpSrv.Shutdown(ctx)
		}
		if s.portFilePath != "" {
			os.Remove(s.portFilePath)
		}
	})
	return err
}

// Port returns the bound port number.
func (s *Server) Port() int {
	return s.port
}

// URL returns the API base URL.
func (s *Server) URL() string {
	return fmt.Sprintf("http://localhost:%d", s.port)
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())))
	})
}

type healthResponse struct {
	Health string `json:"status"`
	Uptime string `json:"uptime"`
	app.Status
}

type resultsResponse struct {
	Query   *ports.ExtractedQuery `json:"query,omitempty"`
	Count   int                   `json:"count"`
	Results []ports.Restaurant    `json:"results"`
}

type searchRequest struct {
	Query string `json:"query"`
}

type lastSearchResponse struct {
	Text    string                   `json:"text,omitempty"`
	Query   ports.ExtractedQuery     `json:"query"`
	Results []ports.Restaurant       `json:"results"`
	Error   *apperrors.StandardError `json:"error,omitempty"`
	At      time.Time                `json:"at"`
}

type errorResponse struct {
	Error any `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, healthResponse{
		Health: "ok",
		Uptime: time.Since(s.started).Round(time.Second).String(),
		Status: s.queries.Status(),
	})
}

// handleRestaurants filters with the dish, cuisine and location parameters,
// or free text with q.
func (s *Server) handleRestaurants(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	if text := params.Get("q"); text != "" {
		results := s.queries.Find(text)
		s.writeJSON(w, http.StatusOK, resultsResponse{Count: len(results), Results: results})
		return
	}

	q := ports.ExtractedQuery{
		Dish:     param(params.Get("dish")),
		Cuisine:  param(params.Get("cuisine")),
		Location: param(params.Get("location")),
	}.Normalize()
	results := s.queries.SearchStructured(q)
	s.writeJSON(w, http.StatusOK, resultsResponse{Query: &q, Count: len(results), Results: results})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "query is required"})
		return
	}

	results, err := s.queries.Search(r.Context(), req.Query)
	if err != nil {
		s.writeError(w, err)
		return
	}
	last := s.queries.LastSearch()
	s.writeJSON(w, http.StatusOK, resultsResponse{Query: &last.Query, Count: len(results), Results: results})
}

func (s *Server) handleLastSearch(w http.ResponseWriter, r *http.Request) {
	last := s.queries.LastSearch()
	resp := lastSearchResponse{
		Text:    last.Text,
		Query:   last.Query,
		Results: last.Results,
		At:      last.At,
	}
	if last.Err != nil {
		var se *apperrors.StandardError
		if errors.As(last.Err, &se) {
			resp.Error = se
		} else {
			resp.Error = &apperrors.StandardError{Message: last.Err.Error()}
		}
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	info, err := s.queries.Load(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, info)
}

// statusFor maps an error code to an HTTP status.
func statusFor(err error) int {
	switch apperrors.CodeOf(err) {
	case apperrors.ErrCodeExtractionServiceFailure:
		return http.StatusBadGateway
	case apperrors.ErrCodeConfigMissing, apperrors.ErrCodeSourceUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	var se *apperrors.StandardError
	if errors.As(err, &se) {
		s.writeJSON(w, statusFor(err), errorResponse{Error: se})
		return
	}
	s.writeJSON(w, statusFor(err), errorResponse{Error: err.Error()})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error("failed to encode response", zap.Error(err))
	}
}

func param(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
