// internal/api/server.go
package api

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"ecycle-workers/internal/common/errors"
	"ecycle-workers/internal/common/logger"
	"ecycle-workers/internal/common/observability"
	"ecycle-workers/internal/pickup"
	"ecycle-workers/internal/session"
	classifyitem "ecycle-workers/internal/workers/ewaste/classify-item"
	estimatevalue "ecycle-workers/internal/workers/ewaste/estimate-value"
	locatefacilities "ecycle-workers/internal/workers/ewaste/locate-facilities"
	schedulepickup "ecycle-workers/internal/workers/ewaste/schedule-pickup"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/attribute"
)

const maxBodyBytes = 1 << 20

// BookingReader looks up scheduled pickups.
type BookingReader interface {
	Get(ctx context.Context, id string) (*pickup.Booking, error)
}

// Check is a named readiness check.
type Check struct {
	Name string
	Ping func(ctx context.Context) error
}

// Deps are the collaborators behind the HTTP surface. Nil handlers disable their routes.
type Deps struct {
	Classify *classifyitem.Handler
	Estimate *estimatevalue.Handler
	Locate   *locatefacilities.Handler
	Schedule *schedulepickup.Handler
	Bookings BookingReader
	Sessions *session.Store
	Checks   []Check
	Metrics  http.Handler
	Obs      *observability.Observability
	Logger   logger.Logger
}

type Server struct {
	deps   Deps
	logger logger.Logger
}

func NewServer(deps Deps) *Server {
	if deps.Metrics == nil {
		deps.Metrics = promhttp.Handler()
	}
	return &Server{
		deps:   deps,
		logger: deps.Logger.WithFields(map[string]interface{}{"component": "api"}),
	}
}

// Routes returns the instrumented router.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	if s.deps.Estimate != nil {
		mux.HandleFunc("POST /valuation/estimate", s.handleEstimate)
	}
	if s.deps.Sessions != nil {
		mux.HandleFunc("GET /valuation/estimate", s.handleLastEstimate)
		mux.HandleFunc("GET /valuation/listing", s.handleListing)
	}
	if s.deps.Classify != nil {
		mux.HandleFunc("POST /classification/decide", s.handleClassify)
	}
	if s.deps.Locate != nil {
		mux.HandleFunc("GET /facilities", s.handleFacilities)
	}
	if s.deps.Schedule != nil {
		mux.HandleFunc("POST /pickups", s.handleSchedulePickup)
	}
	if s.deps.Bookings != nil {
		mux.HandleFunc("GET /pickups/{id}", s.handleGetPickup)
	}
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /ready", s.handleReady)
	mux.Handle("GET /metrics", s.deps.Metrics)

	return s.instrument(mux)
}

func (s *Server) handleEstimate(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out, err := s.deps.Estimate.ExecuteJSON(r.Context(), body)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleLastEstimate(w http.ResponseWriter, r *http.Request) {
	sessionID := strings.TrimSpace(r.URL.Query().Get("sessionId"))
	if sessionID == "" {
		s.writeError(w, r, errors.NewInputValidationError("sessionId is required"))
		return
	}

	est, err := s.deps.Sessions.LoadEstimate(r.Context(), sessionID)
	if stderrors.Is(err, session.ErrNotFound) {
		err = errors.NewSessionNotFoundError(sessionID, "valuation")
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, est)
}

// handleListing serves the marketplace listing prefill from the session's last estimate.
func (s *Server) handleListing(w http.ResponseWriter, r *http.Request) {
	sessionID := strings.TrimSpace(r.URL.Query().Get("sessionId"))
	if sessionID == "" {
		s.writeError(w, r, errors.NewInputValidationError("sessionId is required"))
		return
	}

	listing, err := s.deps.Sessions.LoadListing(r.Context(), sessionID)
	if stderrors.Is(err, session.ErrNotFound) {
		err = errors.NewSessionNotFoundError(sessionID, "listing")
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listing)
}

func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out, err := s.deps.Classify.ExecuteJSON(r.Context(), body)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleFacilities(w http.ResponseWriter, r *http.Request) {
	input, err := facilitiesInput(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out, err := s.deps.Locate.Execute(r.Context(), input)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleSchedulePickup(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out, err := s.deps.Schedule.ExecuteJSON(r.Context(), body)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

func (s *Server) handleGetPickup(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	booking, err := s.deps.Bookings.Get(r.Context(), id)
	if stderrors.Is(err, pickup.ErrNotFound) {
		err = errors.NewBookingNotFoundError(id)
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

// facilitiesInput maps lon, lat, verified, maxKm and limit query parameters.
func facilitiesInput(r *http.Request) (*locatefacilities.Input, error) {
	q := r.URL.Query()
	input := &locatefacilities.Input{}

	floatParam := func(name string) (*float64, error) {
		raw := q.Get(name)
		if raw == "" {
			return nil, nil
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, errors.NewInputValidationError(name + ": must be a number")
		}
		return &v, nil
	}

	var err error
	if input.Lon, err = floatParam("lon"); err != nil {
		return nil, err
	}
	if input.Lat, err = floatParam("lat"); err != nil {
		return nil, err
	}
	if input.MaxDistanceKm, err = floatParam("maxKm"); err != nil {
		return nil, err
	}
	if raw := q.Get("verified"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, errors.NewInputValidationError("verified: must be a boolean")
		}
		input.VerifiedOnly = v
	}
	if raw := q.Get("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			return nil, errors.NewInputValidationError("limit: must be a non-negative integer")
		}
		input.Limit = &v
	}
	return input, nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	status := http.StatusOK
	checks := make(map[string]string, len(s.deps.Checks))
	for _, check := range s.deps.Checks {
		if err := check.Ping(ctx); err != nil {
			checks[check.Name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		checks[check.Name] = "ok"
	}

	state := "ready"
	if status != http.StatusOK {
		state = "not_ready"
	}
	writeJSON(w, status, map[string]interface{}{
		"status": state,
		"checks": checks,
		"time":   time.Now().Format(time.RFC3339),
	})
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return nil, errors.NewInputParseError(err)
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return []byte("{}"), nil
	}
	return body, nil
}

type errorResponse struct {
	Error *errors.StandardError `json:"error"`
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	stdErr := errors.AsStandardError(err)
	status := errors.HTTPStatus(stdErr.Code)

	fields := map[string]interface{}{
		"path":      r.URL.Path,
		"errorCode": string(stdErr.Code),
		"status":    status,
		"details":   stdErr.Details,
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", fields)
	} else {
		s.logger.Warn("request rejected", fields)
	}
	writeJSON(w, status, errorResponse{Error: stdErr})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx, span := s.deps.Obs.StartSpan(r.Context(), "http.request",
			attribute.String("http.method", r.Method),
			attribute.String("url.path", r.URL.Path),
		)
		defer span.End()

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		req := r.WithContext(ctx)
		next.ServeHTTP(rec, req)

		route := req.Pattern
		if route == "" {
			route = "unmatched"
		}
		span.SetAttributes(
			attribute.String("http.route", route),
			attribute.Int("http.status_code", rec.status),
		)
		s.deps.Obs.RecordRequest(ctx, route, rec.status, time.Since(start))
		s.logger.Debug("request served", map[string]interface{}{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   rec.status,
			"duration": time.Since(start).String(),
		})
	})
}
