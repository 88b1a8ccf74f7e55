// Package handler implements the JSON HTTP surface over the domain
// services. Handlers parse and validate input, call a service, and
// translate domain errors into HTTP status codes.
package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
)

// writeJSON encodes v as the response body with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// decodeJSON decodes the request body into v, rejecting unknown fields.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// pathID parses a positive int32 path segment registered with the given name.
func pathID(r *http.Request, name string) (int32, bool) {
	raw := r.PathValue(name)
	id, err := strconv.ParseInt(raw, 10, 32)
	if err != nil || id <= 0 {
		return 0, false
	}
	return int32(id), true
}
