package utils

import (
	"errors"
	"net/http"

	apperrors "pool-service/pkg/errors"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type HttpResponse struct {
	Status  bool        `json:"status"`
	Body    interface{} `json:"body,omitempty"`
	Message string      `json:"message"`
}

func SuccessResponse(ctx echo.Context, body interface{}, message string, code int) error {
	return ctx.JSON(code, &HttpResponse{
		Status:  true,
		Body:    body,
		Message: message,
	})
}

// errorStatusList maps sentinel domain errors to HTTP statuses.
var errorStatusList = map[error]int{
	apperrors.ErrNotFound:             http.StatusNotFound,
	apperrors.ErrBadRequest:           http.StatusBadRequest,
	apperrors.ErrUnauthorized:         http.StatusUnauthorized,
	apperrors.ErrForbidden:            http.StatusForbidden,
	apperrors.ErrEmptyAuthHeader:      http.StatusUnauthorized,
	apperrors.ErrInvalidAuthHeader:    http.StatusUnauthorized,
	apperrors.ErrInvalidToken:         http.StatusUnauthorized,
	apperrors.ErrTokenExpired:         http.StatusUnauthorized,
	apperrors.ErrDuplicateAssignment:  http.StatusConflict,
	apperrors.ErrInvalidOrderSet:      http.StatusUnprocessableEntity,
	apperrors.ErrInstanceLocked:       http.StatusLocked,
	apperrors.ErrRateLimited:          http.StatusTooManyRequests,
	apperrors.ErrIdentityNotInContext: http.StatusUnauthorized,
}

// ErrorResponse translates a typed error into the uniform JSON envelope.
// Unknown errors become an opaque 500; the original is logged, never sent.
func ErrorResponse(ctx echo.Context, err error, logger *zap.Logger) error {
	code := http.StatusInternalServerError
	message := "internal server error"

	var httpErr *apperrors.HttpError
	var transitionErr *apperrors.InvalidTransitionError
	var inputErr *apperrors.InvalidInputError
	var validationErrs validator.ValidationErrors

	switch {
	case errors.As(err, &httpErr):
		code = httpErr.Code
		message = httpErr.Message
		fields := []zap.Field{zap.Error(httpErr.Err)}
		if httpErr.Context != nil {
			fields = append(fields, zap.Any("context", httpErr.Context))
		}
		logger.Warn(message, fields...)
	case errors.As(err, &transitionErr):
		code = http.StatusConflict
		message = transitionErr.Error()
	case errors.As(err, &inputErr):
		code = http.StatusBadRequest
		message = inputErr.Message
	case errors.As(err, &validationErrs):
		code = http.StatusBadRequest
		if len(validationErrs) > 0 {
			message = "validation failed on field '" + validationErrs[0].Field() + "'"
		} else {
			message = "validation failed"
		}
	default:
		matched := false
		for sentinel, status := range errorStatusList {
			if errors.Is(err, sentinel) {
				code = status
				message = sentinel.Error()
				matched = true
				break
			}
		}
		if !matched {
			logger.Error("unhandled error", zap.Error(err))
		}
	}

	return ctx.JSON(code, &HttpResponse{
		Status:  false,
		Body:    struct{}{},
		Message: message,
	})
}
