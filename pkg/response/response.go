package response

import (
	"errors"
	"net/http"

	"steamprofile-rest-api/pkg/apierror"

	"github.com/bytedance/sonic"
)

// Response represents a standard API response.
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
}

// JSON sends an enveloped JSON response with the given status code.
func JSON(w http.ResponseWriter, statusCode int, data interface{}) {
	Plain(w, statusCode, Response{
		Success: true,
		Data:    data,
	})
}

// Plain sends data as the whole JSON body, without the envelope.
func Plain(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	_ = sonic.ConfigStd.NewEncoder(w).Encode(data)
}

// Error sends an error response.
func Error(w http.ResponseWriter, err error) {
	var apiErr *apierror.Error
	if errors.As(err, &apiErr) {
		apiErr.Write(w)
		return
	}

	// Default to internal server error
	apierror.InternalError("an unexpected error occurred").Write(w)
}

// OK sends a 200 OK response.
func OK(w http.ResponseWriter, data interface{}) {
	JSON(w, http.StatusOK, data)
}
