package core

import (
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

// One text code per distinct recovery policy. Callers branch on these with
// the Is* predicates rather than matching messages.
const (
	ErrorTransportFailure     = "CLIENT_TRANSPORT_FAILURE"
	ErrorAuthFailed           = "CLIENT_AUTH_FAILED"
	ErrorNotInitialized       = "CLIENT_NOT_INITIALIZED"
	ErrorAlreadyInitialized   = "CLIENT_ALREADY_INITIALIZED"
	ErrorNotFound             = "CLIENT_NOT_FOUND"
	ErrorConflict             = "CLIENT_CONFLICT"
	ErrorValidationFailed     = "CLIENT_VALIDATION_FAILED"
	ErrorNotSupported         = "CLIENT_NOT_SUPPORTED"
	ErrorNotImplementedServer = "CLIENT_NOT_IMPLEMENTED_ON_SERVER"
	ErrorBadInput             = "CLIENT_BAD_INPUT"
	ErrorInternal             = "CLIENT_INTERNAL_ERROR"
)

func newError(message string, category goerrors.Category, code int, textCode string, metadata map[string]any) error {
	err := goerrors.New(message, category).
		WithCode(code).
		WithTextCode(textCode)
	if len(metadata) > 0 {
		err.WithMetadata(metadata)
	}
	return err
}

func wrapError(source error, category goerrors.Category, message string, code int, textCode string, metadata map[string]any) error {
	if source == nil {
		return newError(message, category, code, textCode, metadata)
	}
	err := goerrors.Wrap(source, category, message).
		WithCode(code).
		WithTextCode(textCode)
	if len(metadata) > 0 {
		err.WithMetadata(metadata)
	}
	return err
}

// TransportFailure covers socket/TLS errors and unclassified non-2xx
// statuses. Unrecoverable at library level.
func TransportFailure(message string, metadata map[string]any) error {
	return newError(message, goerrors.CategoryExternal, http.StatusBadGateway, ErrorTransportFailure, metadata)
}

func WrapTransportFailure(source error, message string, metadata map[string]any) error {
	return wrapError(source, goerrors.CategoryExternal, message, http.StatusBadGateway, ErrorTransportFailure, metadata)
}

// AuthFailed reports rejected credentials, or a request that stayed
// unauthenticated after the single re-auth retry.
func AuthFailed(message string, metadata map[string]any) error {
	return newError(message, goerrors.CategoryAuth, http.StatusUnauthorized, ErrorAuthFailed, metadata)
}

func NotInitialized(message string, metadata map[string]any) error {
	return newError(message, goerrors.CategoryOperation, http.StatusServiceUnavailable, ErrorNotInitialized, metadata)
}

func AlreadyInitialized(message string, metadata map[string]any) error {
	return newError(message, goerrors.CategoryConflict, http.StatusForbidden, ErrorAlreadyInitialized, metadata)
}

func NotFound(message string, metadata map[string]any) error {
	return newError(message, goerrors.CategoryNotFound, http.StatusNotFound, ErrorNotFound, metadata)
}

func Conflict(message string, metadata map[string]any) error {
	return newError(message, goerrors.CategoryConflict, http.StatusConflict, ErrorConflict, metadata)
}

// ValidationFailed carries the server's errorMessage plus structured field
// details from errorDetails.
func ValidationFailed(message string, fields []goerrors.FieldError, metadata map[string]any) error {
	if strings.TrimSpace(message) == "" {
		message = "core: validation failed"
	}
	err := goerrors.NewValidation(message, fields...).
		WithCode(http.StatusUnprocessableEntity).
		WithTextCode(ErrorValidationFailed)
	if len(metadata) > 0 {
		err.WithMetadata(metadata)
	}
	return err
}

// NotSupported reports an operation a collection does not permit, such as
// replace on an append-only collection.
func NotSupported(message string, metadata map[string]any) error {
	return newError(message, goerrors.CategoryOperation, http.StatusMethodNotAllowed, ErrorNotSupported, metadata)
}

func NotImplementedOnServer(message string, metadata map[string]any) error {
	return newError(message, goerrors.CategoryOperation, http.StatusTeapot, ErrorNotImplementedServer, metadata)
}

func BadInput(message string, metadata map[string]any) error {
	return newError(message, goerrors.CategoryBadInput, http.StatusBadRequest, ErrorBadInput, metadata)
}

func WrapBadInput(source error, message string, metadata map[string]any) error {
	return wrapError(source, goerrors.CategoryBadInput, message, http.StatusBadRequest, ErrorBadInput, metadata)
}

func Internal(message string, metadata map[string]any) error {
	return newError(message, goerrors.CategoryInternal, http.StatusInternalServerError, ErrorInternal, metadata)
}

func hasTextCode(err error, textCode string) bool {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return false
	}
	return richErr.TextCode == textCode
}

func IsTransportFailure(err error) bool { return hasTextCode(err, ErrorTransportFailure) }

func IsAuthFailed(err error) bool { return hasTextCode(err, ErrorAuthFailed) }

func IsNotInitialized(err error) bool { return hasTextCode(err, ErrorNotInitialized) }

func IsAlreadyInitialized(err error) bool { return hasTextCode(err, ErrorAlreadyInitialized) }

func IsNotFound(err error) bool { return hasTextCode(err, ErrorNotFound) }

func IsConflict(err error) bool { return hasTextCode(err, ErrorConflict) }

func IsValidationFailed(err error) bool { return hasTextCode(err, ErrorValidationFailed) }

func IsNotSupported(err error) bool { return hasTextCode(err, ErrorNotSupported) }

// IsBadInput reports whether err is a locally rejected request.
func IsBadInput(err error) bool { return hasTextCode(err, ErrorBadInput) }

func IsNotImplementedOnServer(err error) bool { return hasTextCode(err, ErrorNotImplementedServer) }

// ValidationFields returns the structured field errors attached to a
// validation failure, or nil.
func ValidationFields(err error) []goerrors.FieldError {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return nil
	}
	if richErr.TextCode != ErrorValidationFailed {
		return nil
	}
	return richErr.AllValidationErrors()
}
