package api

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

// maxJSONBody caps credential request bodies.
const maxJSONBody = 64 << 10

type errorBody struct {
	Error string `json:"error"`
}

func jsonResponse(w http.ResponseWriter, status int, v any) {
	if v == nil {
		w.WriteHeader(status)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("writing response body", zap.Int("status", status), zap.Error(err))
	}
}

// jsonError writes {"error": message}, the shape the client's RemoteError
// reads back.
func jsonError(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, errorBody{Error: message})
}

// decodeJSON reads a single JSON object of at most maxJSONBody bytes.
// Unknown fields are rejected.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}
