package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/waypoint-agents/server/internal/agent/model"
	"github.com/waypoint-agents/server/internal/agent/trip"
	errx "github.com/waypoint-agents/server/internal/core/error"
	logx "github.com/waypoint-agents/server/pkg/logger"
)

// ItineraryService is the part of trip.Service the HTTP surface needs.
type ItineraryService interface {
	Generate(ctx context.Context, req model.TripRequest) (*model.Itinerary, error)
	Get(ctx context.Context, id string) (*model.Itinerary, error)
	List(ctx context.Context, limit int) ([]*model.Itinerary, error)
}

// Server exposes itinerary generation over JSON.
type Server struct {
	svc    ItineraryService
	router *mux.Router
}

// NewServer wires the routes. metrics may be nil.
func NewServer(svc ItineraryService, metrics http.Handler) *Server {
	s := &Server{svc: svc, router: mux.NewRouter()}

	api := s.router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/itineraries", s.CreateItinerary).Methods(http.MethodPost)
	api.HandleFunc("/itineraries", s.ListItineraries).Methods(http.MethodGet)
	api.HandleFunc("/itineraries/{id}", s.GetItinerary).Methods(http.MethodGet)

	s.router.HandleFunc("/healthz", s.Health).Methods(http.MethodGet)
	if metrics != nil {
		s.router.Handle("/metrics", metrics).Methods(http.MethodGet)
	}
	s.router.Use(loggingMiddleware)
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// CreateItinerary handles POST /api/v1/itineraries
func (s *Server) CreateItinerary(w http.ResponseWriter, r *http.Request) {
	var body CreateItineraryRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	req, err := body.TripRequest()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	it, err := s.svc.Generate(r.Context(), req)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, it)
}

// GetItinerary handles GET /api/v1/itineraries/{id}
func (s *Server) GetItinerary(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	it, err := s.svc.Get(r.Context(), id)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, it)
}

// ListItineraries handles GET /api/v1/itineraries?limit=N
func (s *Server) ListItineraries(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	list, err := s.svc.List(r.Context(), limit)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"itineraries": list, "count": len(list)})
}

func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) fail(w http.ResponseWriter, err error) {
	status := errx.StatusOf(err)
	switch {
	case status == http.StatusBadRequest:
		writeError(w, status, err.Error())
	case status == http.StatusNotFound:
		writeError(w, status, "itinerary not found")
	default:
		logx.Error().Err(err).Int("status", status).Msg("Request failed")
		writeError(w, status, trip.FailureText(err))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logx.Warn().Err(err).Msg("failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logx.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("took", time.Since(start)).
			Msg("HTTP request")
	})
}
