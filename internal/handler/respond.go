package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/safestake/registry/internal/domain"
)

// Request bodies are tiny fixed shapes (a signature, two limits, an amount);
// anything larger is garbage.
const maxBodyBytes = 1 << 20

// errorEnvelope is the wire shape of every non-2xx response.
type errorEnvelope struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// RespondJSON writes data as JSON with the given status code.
func RespondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// RespondError maps domain errors onto the error envelope. Policy denials
// carry their own status and code; anything untyped is masked as a 500 so
// internal detail never reaches operators.
func RespondError(w http.ResponseWriter, err error) {
	var appErr *domain.AppError
	if errors.As(err, &appErr) {
		RespondJSON(w, appErr.Status, errorEnvelope{Code: appErr.Code, Message: appErr.Message})
		return
	}
	RespondJSON(w, http.StatusInternalServerError, errorEnvelope{
		Code:    "INTERNAL_ERROR",
		Message: "internal server error",
	})
}

// DecodeJSON decodes a size-capped JSON request body into dst.
func DecodeJSON(r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(nil, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(dst)
}
