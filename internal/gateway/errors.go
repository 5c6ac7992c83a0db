package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// ErrMalformedResponse indicates a successful status with an unusable body.
var ErrMalformedResponse = errors.New("malformed api response")

// APIError is a non-success response from the remote API. Fields mirror
// the server's error body.
type APIError struct {
	Status           int               `json:"status"`
	Code             string            `json:"error,omitempty"`
	Message          string            `json:"message"`
	Path             string            `json:"path,omitempty"`
	ValidationErrors map[string]string `json:"validationErrors,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api %d: %s", e.Status, e.Message)
}

// Unauthorized reports whether the server rejected the credentials or token.
func (e *APIError) Unauthorized() bool {
	return e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden
}

// AsAPIError unwraps err into an *APIError.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

func decodeAPIError(status int, path string, body []byte) *APIError {
	apiErr := &APIError{}
	if len(body) > 0 {
		// A body that is not the error DTO still yields a usable error.
		_ = json.Unmarshal(body, apiErr)
	}
	apiErr.Status = status
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(status)
	}
	if apiErr.Path == "" {
		apiErr.Path = path
	}
	return apiErr
}
