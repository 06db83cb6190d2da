package transport

import (
	"encoding/json"
	"fmt"
	"net/http"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-insights/core"
)

type errorBody struct {
	ErrorMessage string            `json:"errorMessage"`
	ErrorDetails map[string]string `json:"errorDetails"`
}

// ClassifyStatus maps a non-2xx result to its typed failure. 401/440 are not
// handled here; the intercepting client resolves those before classification.
func ClassifyStatus(result core.TransportResult, method string, path string) error {
	if result.Success() {
		return nil
	}
	metadata := map[string]any{
		"status_code": result.StatusCode,
		"method":      method,
		"path":        path,
	}
	switch result.StatusCode {
	case http.StatusNotFound:
		return core.NotFound(fmt.Sprintf("transport: %s not found", path), metadata)
	case http.StatusConflict:
		return core.Conflict(fmt.Sprintf("transport: conflict on %s", path), metadata)
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		if message, fields, ok := decodeErrorBody(result.Body); ok {
			return core.ValidationFailed(message, fields, metadata)
		}
		return core.TransportFailure(fmt.Sprintf("transport: %s rejected with status %d", path, result.StatusCode), metadata)
	case http.StatusTeapot:
		return core.NotImplementedOnServer(fmt.Sprintf("transport: %s is not implemented by this server", path), metadata)
	default:
		return core.TransportFailure(fmt.Sprintf("transport: %s failed with status %d", path, result.StatusCode), metadata)
	}
}

func decodeErrorBody(body []byte) (string, []goerrors.FieldError, bool) {
	if len(body) == 0 {
		return "", nil, false
	}
	var decoded errorBody
	if err := json.Unmarshal(body, &decoded); err != nil {
		return "", nil, false
	}
	if decoded.ErrorMessage == "" {
		return "", nil, false
	}
	fields := make([]goerrors.FieldError, 0, len(decoded.ErrorDetails))
	for field, message := range decoded.ErrorDetails {
		fields = append(fields, goerrors.FieldError{Field: field, Message: message})
	}
	return decoded.ErrorMessage, fields, true
}
