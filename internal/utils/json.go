// Package utils holds the request decoding shared by every delivery
// handler.
package utils

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// DecodeJSONRequest decodes the request body into dst and closes it.
// Unknown fields are rejected so client typos surface as bad requests
// instead of silently zeroed fields.
func DecodeJSONRequest(r *http.Request, dst interface{}) error {
	defer r.Body.Close()

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}
