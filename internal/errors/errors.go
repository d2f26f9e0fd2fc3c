package errors

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
)

// APIError is the error shape returned to clients. Code is the stable
// machine-readable identifier; two APIErrors match under errors.Is when
// their codes are equal.
type APIError struct {
	Status   int    `json:"-"`
	Code     string `json:"error"`
	Message  string `json:"message,omitempty"`
	Internal error  `json:"-"`
}

// Error returns the error message
func (e *APIError) Error() string {
	msg := e.Code
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Internal != nil {
		msg += ": " + e.Internal.Error()
	}
	return msg
}

// Unwrap returns the original error
func (e *APIError) Unwrap() error {
	return e.Internal
}

func (e *APIError) Is(target error) bool {
	var t *APIError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

func newAPIError(status int, code, message string, err error) *APIError {
	return &APIError{Status: status, Code: code, Message: message, Internal: err}
}

// Sentinels for errors.Is checks
var (
	ErrUnauthorized         = &APIError{Status: http.StatusUnauthorized, Code: "unauthorized"}
	ErrValidation           = &APIError{Status: http.StatusBadRequest, Code: "missing_fields"}
	ErrInvalidID            = &APIError{Status: http.StatusBadRequest, Code: "invalid_id"}
	ErrNotFound             = &APIError{Status: http.StatusNotFound, Code: "not_found"}
	ErrConfirmationMismatch = &APIError{Status: http.StatusBadRequest, Code: "confirm_mismatch"}
	ErrStorage              = &APIError{Status: http.StatusInternalServerError, Code: "storage_error"}
	ErrDataset              = &APIError{Status: http.StatusInternalServerError, Code: "load_failed"}
	ErrSend                 = &APIError{Status: http.StatusBadGateway, Code: "send_failed"}
	ErrNoToken              = &APIError{Status: http.StatusBadRequest, Code: "no_token"}
	ErrRateLimited          = &APIError{Status: http.StatusTooManyRequests, Code: "rate_limited"}
	ErrInternal             = &APIError{Status: http.StatusInternalServerError, Code: "internal_error"}
)

func Unauthorized(message string, err error) *APIError {
	return newAPIError(http.StatusUnauthorized, ErrUnauthorized.Code, message, err)
}

func Validation(message string, err error) *APIError {
	return newAPIError(http.StatusBadRequest, ErrValidation.Code, message, err)
}

// NewValidationError converts binding/validator failures into a readable
// list of offending fields.
func NewValidationError(err error) *APIError {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		msg := ""
		for i, fe := range verrs {
			if i > 0 {
				msg += ", "
			}
			msg += fe.Field() + " is " + fe.Tag()
		}
		return Validation(msg, err)
	}
	return Validation("invalid request body", err)
}

func InvalidID(message string, err error) *APIError {
	return newAPIError(http.StatusBadRequest, ErrInvalidID.Code, message, err)
}

func NotFound(message string, err error) *APIError {
	return newAPIError(http.StatusNotFound, ErrNotFound.Code, message, err)
}

func ConfirmationMismatch(message string) *APIError {
	return newAPIError(http.StatusBadRequest, ErrConfirmationMismatch.Code, message, nil)
}

func Storage(message string, err error) *APIError {
	return newAPIError(http.StatusInternalServerError, ErrStorage.Code, message, err)
}

func Dataset(message string, err error) *APIError {
	return newAPIError(http.StatusInternalServerError, ErrDataset.Code, message, err)
}

// Send keeps the upstream message so callers see what the mail API said.
func Send(err error) *APIError {
	msg := "send failed"
	if err != nil {
		msg = err.Error()
	}
	return newAPIError(http.StatusBadGateway, ErrSend.Code, msg, err)
}

func NoToken(message string) *APIError {
	return newAPIError(http.StatusBadRequest, ErrNoToken.Code, message, nil)
}

func RateLimited(message string) *APIError {
	return newAPIError(http.StatusTooManyRequests, ErrRateLimited.Code, message, nil)
}

func Internal(err error) *APIError {
	return newAPIError(http.StatusInternalServerError, ErrInternal.Code, "internal server error", err)
}
