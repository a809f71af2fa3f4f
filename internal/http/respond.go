package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/Buithihuong2210/AliceSkin-BE-Final/internal/logger"
	"github.com/Buithihuong2210/AliceSkin-BE-Final/internal/repository"
	"github.com/Buithihuong2210/AliceSkin-BE-Final/internal/service"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
)

// maxBodyBytes bounds every JSON request body.
const maxBodyBytes = 1 << 20

// ErrorResponse is the body of every non-2xx response. Retryable is true
// when nothing happened and the caller may repeat the whole request.
type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code,omitempty"`
	Details   any    `json:"details,omitempty"`
	Retryable bool   `json:"retryable"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.FromContext(r.Context()).Warn("failed to encode response", zap.Error(err))
	}
}

func respondError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	respondJSON(w, r, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// handleServiceError converts a service error into the HTTP status and error
// envelope. Internal errors are logged and their text is not exposed.
func handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	c := service.Code(err)
	httpStatus, code := httpStatusFor(c)

	resp := ErrorResponse{
		Error:     err.Error(),
		Code:      code,
		Retryable: service.Retryable(c),
	}

	var ve *service.ValidationError
	var stock *repository.InsufficientStockError
	switch {
	case errors.As(err, &ve):
		resp.Details = map[string]string{"field": ve.Field, "reason": ve.Reason}
	case errors.As(err, &stock):
		resp.Details = map[string]any{
			"product_id": stock.ProductID,
			"product":    stock.Name,
			"available":  stock.Available,
			"requested":  stock.Requested,
		}
	}

	log := logger.FromContext(r.Context())
	if httpStatus >= http.StatusInternalServerError {
		log.Error("request failed", zap.String("code", c.String()), zap.Error(err))
		if c == codes.Internal {
			resp.Error = "internal server error"
		}
	} else {
		log.Info("request rejected", zap.String("code", c.String()), zap.Error(err))
	}

	respondJSON(w, r, httpStatus, resp)
}

func httpStatusFor(c codes.Code) (int, string) {
	switch c {
	case codes.InvalidArgument:
		return http.StatusBadRequest, "invalid_argument"
	case codes.NotFound:
		return http.StatusNotFound, "not_found"
	case codes.AlreadyExists:
		return http.StatusConflict, "already_exists"
	case codes.FailedPrecondition:
		return http.StatusConflict, "conflict"
	case codes.Aborted:
		return http.StatusConflict, "aborted"
	case codes.Unauthenticated:
		return http.StatusUnauthorized, "unauthenticated"
	case codes.PermissionDenied:
		return http.StatusForbidden, "permission_denied"
	case codes.ResourceExhausted:
		return http.StatusTooManyRequests, "rate_limit_exceeded"
	case codes.Unavailable:
		return http.StatusServiceUnavailable, "service_unavailable"
	case codes.DeadlineExceeded:
		return http.StatusGatewayTimeout, "timeout"
	case codes.Canceled:
		return http.StatusRequestTimeout, "canceled"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// decodeJSON reads a bounded JSON body into dst, rejecting unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return false
	}
	return true
}

// pathID parses a positive integer URL parameter.
func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		respondError(w, r, http.StatusBadRequest, "invalid_"+name, name+" must be a positive integer")
		return 0, false
	}
	return id, true
}
