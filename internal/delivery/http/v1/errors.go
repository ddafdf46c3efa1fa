package v1

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/adanyl0v/tasklist/internal/services"
)

var (
	errInvalidRequestBody = errors.New("invalid request body")
	errInvalidCredentials = errors.New("invalid credentials")
	errTaskNotFound       = errors.New("task not found")
	errTransient          = errors.New("temporarily unavailable, retry")
	errValidationFailed   = errors.New("validation failed")
)

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func newAPIError(code int, message string) apiError {
	return apiError{
		Code:    code,
		Message: message,
	}
}

func (e apiError) Error() string {
	return e.Message
}

func abort(c *gin.Context, err apiError) {
	c.AbortWithStatusJSON(err.Code, gin.H{"error": err.Message})
}

func newStatusTextError(status int) apiError {
	return newAPIError(status, http.StatusText(status))
}

func newBadRequestError(message string) apiError {
	return newAPIError(http.StatusBadRequest, message)
}

func newUnauthorizedError(message string) apiError {
	return newAPIError(http.StatusUnauthorized, message)
}

func newNotFoundError(message string) apiError {
	return newAPIError(http.StatusNotFound, message)
}

func newConflictError(message string) apiError {
	return newAPIError(http.StatusConflict, message)
}

func newServiceUnavailableError(message string) apiError {
	return newAPIError(http.StatusServiceUnavailable, message)
}

type fieldErrorResponse struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func abortValidation(c *gin.Context, verr *services.ValidationError) {
	fields := make([]fieldErrorResponse, len(verr.Fields))
	for i, fe := range verr.Fields {
		fields[i] = fieldErrorResponse{
			Field:   fe.Field,
			Message: fe.Message,
		}
	}
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
		"error":  errValidationFailed.Error(),
		"fields": fields,
	})
}

// abortBindError reports a failed gin binding, listing each rejected field
// when the binding validator produced them.
func abortBindError(c *gin.Context, err error) {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}

	verr := &services.ValidationError{}
	for _, fe := range validationErrs {
		verr.Add(jsonFieldName(fe.Field()), bindingMessage(fe))
	}
	abortValidation(c, verr)
}

func jsonFieldName(field string) string {
	if field == "" {
		return field
	}
	return strings.ToLower(field[:1]) + field[1:]
}

func bindingMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return "must be at least " + fe.Param() + " characters"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	default:
		return "is invalid"
	}
}

// abortServiceError maps a service error onto the stable set of
// caller-visible outcomes. Unexpected errors never leak their text.
func (h *handlerImpl) abortServiceError(c *gin.Context, err error) {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		abortValidation(c, verr)
	case errors.Is(err, services.ErrTaskNotFound):
		abort(c, newNotFoundError(errTaskNotFound.Error()))
	case errors.Is(err, services.ErrTransient):
		abort(c, newServiceUnavailableError(errTransient.Error()))
	case errors.Is(err, services.ErrInvalidCredentials):
		abort(c, newUnauthorizedError(errInvalidCredentials.Error()))
	case errors.Is(err, services.ErrUserAlreadyExists):
		abort(c, newConflictError(services.ErrUserAlreadyExists.Error()))
	case errors.Is(err, services.ErrUserNotFound), errors.Is(err, services.ErrInvalidToken):
		abort(c, newStatusTextError(http.StatusUnauthorized))
	default:
		h.logger.Error().
			Err(err).
			Str("path", c.FullPath()).
			Msg("internal error")
		abort(c, newStatusTextError(http.StatusInternalServerError))
	}
}
