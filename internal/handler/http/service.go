package http

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/camilomoreno07/gorkis-api/internal/domain"
	"github.com/camilomoreno07/gorkis-api/internal/service"
	apperrors "github.com/camilomoreno07/gorkis-api/pkg/errors"
	"github.com/camilomoreno07/gorkis-api/pkg/httputil"
	"github.com/camilomoreno07/gorkis-api/pkg/validator"
)

const (
	msgServicesLoaded = "services loaded successfully"
	msgServiceDeleted = "service deleted successfully"
)

// ServiceHandler handles HTTP requests for the services resource.
type ServiceHandler struct {
	service *service.CatalogService
	logger  *slog.Logger
}

// NewServiceHandler creates a new services HTTP handler.
func NewServiceHandler(svc *service.CatalogService, logger *slog.Logger) *ServiceHandler {
	return &ServiceHandler{
		service: svc,
		logger:  logger,
	}
}

type listResponse struct {
	Success   bool             `json:"success"`
	Message   string           `json:"message"`
	Services  []domain.Service `json:"services"`
	NextToken string           `json:"nextToken,omitempty"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// CreateService handles POST /services.
func (h *ServiceHandler) CreateService(w http.ResponseWriter, r *http.Request) {
	fields, err := readFields(w, r)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	req, err := parseServiceRequest(fields)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, r, err)
		return
	}

	svc, err := h.service.CreateService(r.Context(), &service.CreateServiceInput{
		Author:      req.Author,
		Title:       req.Title,
		Description: req.Description,
		Rate:        req.Rate,
		ImageURL:    req.ImageURL,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, svc)
}

// ListServices handles GET /services. Without a limit every service is
// returned; with one, a single page plus nextToken when more remain.
func (h *ServiceHandler) ListServices(w http.ResponseWriter, r *http.Request) {
	var limit int32
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.ParseInt(v, 10, 32)
		if err != nil || n < 1 {
			httputil.WriteError(w, r, apperrors.InvalidInput("limit must be a positive integer"), h.logger)
			return
		}
		limit = int32(n)
	}

	res, err := h.service.ListServices(r.Context(), limit, r.URL.Query().Get("nextToken"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, listResponse{
		Success:   true,
		Message:   msgServicesLoaded,
		Services:  res.Services,
		NextToken: res.NextToken,
	})
}

// GetService handles GET /services/{serviceId}.
func (h *ServiceHandler) GetService(w http.ResponseWriter, r *http.Request) {
	svc, err := h.service.GetService(r.Context(), chi.URLParam(r, "serviceId"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, svc)
}

// UpdateService handles PUT /services/{serviceId}.
func (h *ServiceHandler) UpdateService(w http.ResponseWriter, r *http.Request) {
	fields, err := readFields(w, r)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	req, err := parseServiceRequest(fields)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, r, err)
		return
	}

	attrs, err := h.service.UpdateService(r.Context(), chi.URLParam(r, "serviceId"), req.patch())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, domain.UpdateResult{Attributes: attrs})
}

// RateService handles PUT /services/rate/{serviceId}.
func (h *ServiceHandler) RateService(w http.ResponseWriter, r *http.Request) {
	fields, err := readFields(w, r)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	req, err := parseRateRequest(fields)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, r, err)
		return
	}

	attrs, err := h.service.RateService(r.Context(), chi.URLParam(r, "serviceId"), *req.Rate)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, domain.UpdateResult{Attributes: attrs})
}

// DeleteService handles DELETE /services/{serviceId}.
func (h *ServiceHandler) DeleteService(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteService(r.Context(), chi.URLParam(r, "serviceId")); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, messageResponse{Message: msgServiceDeleted})
}
