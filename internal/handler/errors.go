package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/Dan9191/bankcards/internal/apperror"
	"github.com/Dan9191/bankcards/internal/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
)

const requestValidationCode = "VALIDATION_ERROR"

// requestError is a malformed request caught before any service call.
type requestError struct {
	message string
}

func (e *requestError) Error() string { return e.message }

type errorResponse struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
}

func statusFor(kind apperror.Kind) int {
	switch kind {
	case apperror.KindValidation:
		return http.StatusBadRequest
	case apperror.KindBusinessRule:
		return http.StatusUnprocessableEntity
	case apperror.KindNotFound:
		return http.StatusNotFound
	case apperror.KindAccessDenied:
		return http.StatusForbidden
	case apperror.KindConflict:
		return http.StatusConflict
	case apperror.KindUnauthenticated:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders err. Internal and encryption failures are logged and
// answered with a generic message.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	requestID := middleware.RequestIDFrom(r.Context())

	var (
		reqErr *requestError
		verrs  validator.ValidationErrors
	)
	switch {
	case errors.As(err, &reqErr):
		writeJSON(w, http.StatusBadRequest, errorResponse{Code: requestValidationCode, Message: reqErr.message, RequestID: requestID})
		return
	case errors.As(err, &verrs):
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			fields[fieldName(fe)] = fieldMessage(fe)
		}
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Code: requestValidationCode, Message: "request validation failed", Fields: fields, RequestID: requestID,
		})
		return
	}

	appErr, ok := apperror.As(err)
	if !ok {
		appErr = apperror.ErrInternal.WithCause(err)
	}

	status := statusFor(appErr.Kind)
	if status == http.StatusInternalServerError {
		h.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"code":       appErr.Code,
			"kind":       appErr.Kind.String(),
		}).WithError(err).Error("Request failed")
		writeJSON(w, status, errorResponse{Code: appErr.Code, Message: apperror.ErrInternal.Message, RequestID: requestID})
		return
	}

	writeJSON(w, status, errorResponse{Code: appErr.Code, Message: appErr.Message, RequestID: requestID})
}

func fieldName(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		ns = ns[i+1:]
	}
	return toSnake(ns)
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_with":
		return "is required"
	case "email":
		return "must be a valid email"
	case "min", "gte":
		return "must be at least " + fe.Param()
	case "max", "lte":
		return "must be at most " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	case "len":
		return "must have length " + fe.Param()
	case "numeric":
		return "must contain only digits"
	case "oneof":
		return "must be one of: " + fe.Param()
	default:
		return "is invalid"
	}
}

func toSnake(s string) string {
	var b strings.Builder
	for i, c := range s {
		if c >= 'A' && c <= 'Z' {
			if i > 0 && s[i-1] != '.' && !(s[i-1] >= 'A' && s[i-1] <= 'Z') {
				b.WriteByte('_')
			}
			c += 'a' - 'A'
		}
		b.WriteRune(c)
	}
	return b.String()
}
