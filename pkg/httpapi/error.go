package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/iota-uz/onboarding/pkg/constants"
)

// ErrorEnvelope standardizes JSON error responses for API namespaces.
type ErrorEnvelope struct {
	Message string            `json:"message"`
	Code    string            `json:"code"`
	Meta    map[string]string `json:"meta,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, payload any) error {
	if w == nil {
		return nil
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return nil
	}
	return json.NewEncoder(w).Encode(payload)
}

func WriteError(w http.ResponseWriter, status int, code, message string, meta map[string]string) error {
	return WriteJSON(w, status, &ErrorEnvelope{
		Code:    code,
		Message: message,
		Meta:    meta,
	})
}

// WriteRequestError is WriteError with the request id of r added to meta.
func WriteRequestError(w http.ResponseWriter, r *http.Request, status int, code, message string, meta map[string]string) error {
	if r != nil {
		if id, ok := r.Context().Value(constants.RequestIDKey).(string); ok && id != "" {
			if meta == nil {
				meta = map[string]string{}
			}
			meta["request_id"] = id
		}
	}
	return WriteError(w, status, code, message, meta)
}

// DecodeJSON decodes the request body into dst keeping numbers as json.Number.
func DecodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	return dec.Decode(dst)
}
