package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/user/staffscout/internal/domain"
	"github.com/user/staffscout/internal/linkedin"
	"github.com/user/staffscout/internal/scrape"
	"github.com/user/staffscout/internal/service"
	"github.com/user/staffscout/internal/storage"
)

type scrapeResponse struct {
	RunID     string                  `json:"run_id"`
	Company   string                  `json:"company"`
	Status    string                  `json:"status"`
	Employees []domain.EmployeeRecord `json:"employees"`
}

type usernamesResponse struct {
	RunID     string   `json:"run_id"`
	Scheme    string   `json:"scheme"`
	Usernames []string `json:"usernames"`
}

func (s *Server) handleScrape(w http.ResponseWriter, r *http.Request) {
	var req domain.ScrapeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	res, err := s.runner.Scrape(r.Context(), req)
	if err != nil && !isPartial(err, res) {
		s.respondWithServiceError(w, "scrape failed", err)
		return
	}

	s.respondWithJSON(w, http.StatusOK, scrapeResponse{
		RunID:     res.RunID,
		Company:   res.Company,
		Status:    res.Status,
		Employees: res.Employees,
	})
}

// isPartial reports whether a cut-short scrape still has results worth returning.
func isPartial(err error, res domain.ScrapeResult) bool {
	return res.Status == domain.RunStatusPartial &&
		(errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded))
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.runner.GetRun(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondWithServiceError(w, "failed to get run", err)
		return
	}
	s.respondWithJSON(w, http.StatusOK, run)
}

func (s *Server) handleListEmployees(w http.ResponseWriter, r *http.Request) {
	records, err := s.runner.Employees(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondWithServiceError(w, "failed to list employees", err)
		return
	}
	if records == nil {
		records = []domain.EmployeeRecord{}
	}
	s.respondWithJSON(w, http.StatusOK, records)
}

func (s *Server) handleUsernames(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	scheme := r.URL.Query().Get("scheme")
	if scheme == "" {
		s.respondWithError(w, http.StatusBadRequest, "scheme query parameter is required")
		return
	}

	usernames, err := s.runner.Usernames(r.Context(), id, scheme)
	if err != nil {
		s.respondWithServiceError(w, "failed to derive usernames", err)
		return
	}
	s.respondWithJSON(w, http.StatusOK, usernamesResponse{RunID: id, Scheme: scheme, Usernames: usernames})
}

func (s *Server) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status, healthy := s.runner.Health(ctx)
	if !healthy {
		s.respondWithJSON(w, http.StatusServiceUnavailable, status)
		return
	}
	s.respondWithJSON(w, http.StatusOK, status)
}

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, scrape.ErrMissingCompany),
		errors.Is(err, scrape.ErrConflictingPartitions),
		errors.Is(err, scrape.ErrInvalidDepth),
		errors.Is(err, scrape.ErrInvalidSleep),
		errors.Is(err, service.ErrUnknownScheme):
		return http.StatusBadRequest
	case errors.Is(err, linkedin.ErrOrganizationNotFound),
		errors.Is(err, storage.ErrRunNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrScrapeInProgress):
		return http.StatusConflict
	case errors.Is(err, service.ErrPersistenceDisabled):
		return http.StatusNotImplemented
	case errors.Is(err, linkedin.ErrLiteVariant),
		errors.Is(err, linkedin.ErrUnexpectedStatus),
		errors.Is(err, linkedin.ErrNotLoggedIn),
		errors.Is(err, linkedin.ErrMissingCSRF),
		errors.Is(err, linkedin.ErrLoginFailed),
		errors.Is(err, linkedin.ErrLoginTimedOut):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// --- Helper Functions ---

func (s *Server) respondWithServiceError(w http.ResponseWriter, msg string, err error) {
	code := statusFor(err)
	if code >= http.StatusInternalServerError {
		s.logger.Error(msg, zap.Error(err), zap.Int("status", code))
	} else {
		s.logger.Debug(msg, zap.Error(err), zap.Int("status", code))
	}
	if code == http.StatusInternalServerError {
		s.respondWithError(w, code, "Internal server error")
		return
	}
	s.respondWithError(w, code, err.Error())
}

func (s *Server) respondWithError(w http.ResponseWriter, code int, message string) {
	s.respondWithJSON(w, code, map[string]string{"error": message})
}

func (s *Server) respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		s.logger.Error("failed to encode response", zap.Error(err))
		code = http.StatusInternalServerError
		response = []byte(`{"error":"Internal server error"}`)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}
