package chi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/listdex/internal/domain"
	healthuc "github.com/kailas-cloud/listdex/internal/usecase/health"
	listinguc "github.com/kailas-cloud/listdex/internal/usecase/listing"
)

// maxBodyBytes caps query request bodies.
const maxBodyBytes = 1 << 20

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server serves the listing HTTP API.
type Server struct {
	listing       *listinguc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(listing *listinguc.Service, health *healthuc.Service, logger *zap.Logger) *Server {
	s := &Server{
		listing: listing,
		health:  health,
		logger:  logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrDatasetNotFound, http.StatusNotFound, ErrorCodeDatasetNotFound),
		sentinelHandler(domain.ErrInvalidRequest, http.StatusBadRequest, ErrorCodeValidationFailed),
		sentinelHandler(domain.ErrSnapshotUnavailable,
			http.StatusServiceUnavailable, ErrorCodeSnapshotUnavailable),
	}
	return s
}

// Routes mounts every endpoint on r.
func (s *Server) Routes(r chi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
	r.Get("/datasets", s.ListDatasets)
	r.Route("/datasets/{dataset}", func(r chi.Router) {
		r.Post("/query", s.QueryDataset)
		r.Get("/fields/{field}/values", s.FieldValues)
		r.Get("/fields/{field}/range", s.FieldRange)
		r.Get("/lookup", s.Lookup)
		r.Post("/refresh", s.RefreshDataset)
	})
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, ErrorCodeBadRequest, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, ErrorCodeBadRequest, "method not allowed")
	})
}

// ListDatasets handles GET /datasets.
func (s *Server) ListDatasets(w http.ResponseWriter, _ *http.Request) {
	infos := s.listing.Datasets()
	items := make([]DatasetDTO, len(infos))
	for i, inf := range infos {
		items[i] = datasetToDTO(inf)
	}
	writeJSON(w, http.StatusOK, DatasetListResponse{Items: items})
}

// QueryDataset handles POST /datasets/{dataset}/query.
func (s *Server) QueryDataset(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "dataset")

	var body QueryRequest
	if err := decodeJSON(http.MaxBytesReader(w, r.Body, maxBodyBytes), &body); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	params, err := paramsFromDTO(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, err.Error())
		return
	}

	req, err := s.listing.NewRequest(name, params)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	res, meta, err := s.listing.Query(r.Context(), name, req)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	w.Header().Set("ETag", meta.ETag)
	if etagMatches(r.Header.Get("If-None-Match"), meta.ETag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	writeJSON(w, http.StatusOK, queryResponse(res, meta))
}

// FieldValues handles GET /datasets/{dataset}/fields/{field}/values.
func (s *Server) FieldValues(w http.ResponseWriter, r *http.Request) {
	field := chi.URLParam(r, "field")
	values, err := s.listing.Values(r.Context(), chi.URLParam(r, "dataset"), field)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ValuesResponse{Field: field, Values: values})
}

// FieldRange handles GET /datasets/{dataset}/fields/{field}/range.
func (s *Server) FieldRange(w http.ResponseWriter, r *http.Request) {
	field := chi.URLParam(r, "field")
	rng, ok, err := s.listing.Range(r.Context(), chi.URLParam(r, "dataset"), field)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	resp := RangeResponse{Field: field}
	if ok {
		resp.Min, resp.Max = &rng.Min, &rng.Max
	}
	writeJSON(w, http.StatusOK, resp)
}

// Lookup handles GET /datasets/{dataset}/lookup?field=&value=.
func (s *Server) Lookup(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	recs, err := s.listing.Lookup(r.Context(), chi.URLParam(r, "dataset"), q.Get("field"), q.Get("value"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, LookupResponse{Items: recs, Count: len(recs)})
}

// RefreshDataset handles POST /datasets/{dataset}/refresh.
func (s *Server) RefreshDataset(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "dataset")
	if err := s.listing.Refresh(r.Context(), name); err != nil {
		if !errors.Is(err, domain.ErrDatasetNotFound) {
			s.logger.Error("refresh failed", zap.String("dataset", name), zap.Error(err))
			writeError(w, http.StatusBadGateway, ErrorCodeSnapshotUnavailable, "snapshot source failed")
			return
		}
		s.handleDomainError(w, err)
		return
	}
	for _, inf := range s.listing.Datasets() {
		if inf.Name == name {
			writeJSON(w, http.StatusOK, datasetToDTO(inf))
			return
		}
	}
	writeError(w, http.StatusNotFound, ErrorCodeDatasetNotFound, domain.ErrDatasetNotFound.Error())
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// etagMatches implements the weak comparison of If-None-Match.
func etagMatches(header, etag string) bool {
	if header == "" || etag == "" {
		return false
	}
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "*" || strings.TrimPrefix(candidate, "W/") == etag {
			return true
		}
	}
	return false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
// Invalid requests keep their detail since it only echoes client input.
func safeDomainMessage(err error) string {
	if errors.Is(err, domain.ErrInvalidRequest) {
		return err.Error()
	}
	sentinels := []error{
		domain.ErrDatasetNotFound,
		domain.ErrSnapshotUnavailable,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, ErrorCodeInternalError, "internal error")
}
