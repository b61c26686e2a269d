package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fjod/go_pos/internal/apiclient"
	"github.com/fjod/go_pos/internal/catalog"
	"github.com/fjod/go_pos/internal/checkout"
	"github.com/fjod/go_pos/internal/composer"
	"github.com/fjod/go_pos/internal/domain"
	"github.com/fjod/go_pos/internal/pricing"
	"github.com/fjod/go_pos/internal/resource"
	"github.com/rs/zerolog"
)

type ErrorResponse struct {
	Error   string              `json:"error"`
	Code    string              `json:"code,omitempty"`
	Details string              `json:"details,omitempty"`
	Fields  map[string][]string `json:"fields,omitempty"`
}

// responder writes JSON bodies and maps errors to statuses. Handlers embed
// it to share one logger.
type responder struct {
	log zerolog.Logger
}

func (rs responder) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		rs.log.Error().Err(err).Int("status", status).Msg("failed to encode response")
	}
}

func (rs responder) respondError(w http.ResponseWriter, status int, code, message string) {
	rs.respondJSON(w, status, ErrorResponse{
		Error:   message,
		Code:    code,
		Details: "",
	})
}

// handleError converts a domain, workflow or API failure into an HTTP
// status and error body.
func (rs responder) handleError(w http.ResponseWriter, err error) {
	var (
		validation *domain.ValidationError
		apiErr     *apiclient.Error
	)

	switch {
	case errors.As(err, &validation):
		rs.respondJSON(w, http.StatusBadRequest, ErrorResponse{Error: "validation failed", Code: "validation_failed", Fields: validation.Fields})
	case checkout.IsValidation(err),
		errors.Is(err, composer.ErrUnknownReference),
		errors.Is(err, pricing.ErrNegativePercentage),
		errors.Is(err, pricing.ErrDiscountOverLimit):
		rs.respondError(w, http.StatusBadRequest, "invalid_argument", err.Error())
	case errors.Is(err, checkout.ErrCheckoutInProgress),
		errors.Is(err, checkout.ErrCheckoutCompleted),
		errors.Is(err, resource.ErrNotReady),
		errors.Is(err, resource.ErrNoForm),
		errors.Is(err, resource.ErrNoPendingDelete):
		rs.respondError(w, http.StatusConflict, "invalid_state", err.Error())
	case errors.Is(err, resource.ErrRecordNotFound), errors.Is(err, catalog.ErrProductNotFound):
		rs.respondError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.As(err, &apiErr):
		rs.handleAPIError(w, apiErr)
	default:
		rs.respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func (rs responder) handleAPIError(w http.ResponseWriter, err *apiclient.Error) {
	var httpStatus int
	var code string

	switch err.Kind {
	case apiclient.KindValidation:
		httpStatus = http.StatusUnprocessableEntity
		code = "upstream_validation"
	case apiclient.KindNotFound:
		httpStatus = http.StatusNotFound
		code = "not_found"
	case apiclient.KindConflict:
		httpStatus = http.StatusConflict
		code = "conflict"
	case apiclient.KindUnavailable:
		httpStatus = http.StatusServiceUnavailable
		code = "service_unavailable"
	case apiclient.KindTimeout:
		httpStatus = http.StatusGatewayTimeout
		code = "timeout"
	default:
		httpStatus = http.StatusBadGateway
		code = "upstream_error"
	}

	rs.respondJSON(w, httpStatus, ErrorResponse{
		Error:   err.OperatorMessage(),
		Code:    code,
		Details: string(err.Kind),
		Fields:  err.Fields,
	})
}
