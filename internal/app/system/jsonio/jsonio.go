// Package jsonio carries JSON bodies in and out of API handlers.
package jsonio

import (
	"encoding/json"
	"errors"
	"net/http"
)

// maxBodyBytes bounds request bodies; none of the admin payloads come
// anywhere near 1 MB.
const maxBodyBytes = 1 << 20

// Decode reads the request body into dst, rejecting unknown fields and
// trailing garbage.
func Decode(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if dec.More() {
		return errors.New("unexpected data after JSON body")
	}
	return nil
}

// Write sends v as a JSON response with the given status code.
func Write(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
