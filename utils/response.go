package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

const maxBodyBytes = 1 << 20

type M map[string]interface{}

func RespondWithError(w http.ResponseWriter, code int, msg string) {
	RespondWithJSON(w, code, map[string]string{"error": msg})
}

// Sends a JSON response
func RespondWithJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// RespondWithBytes writes a binary payload such as a PDF or image.
func RespondWithBytes(w http.ResponseWriter, contentType, filename string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	if filename != "" {
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	}
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// DecodeJSON reads a size-limited JSON body into v. Fields v does not know
// are ignored, so generator output can be passed along unchanged.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	return decode(w, r, v, false)
}

// DecodeStrictJSON is DecodeJSON but rejects unknown fields.
func DecodeStrictJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	return decode(w, r, v, true)
}

func decode(w http.ResponseWriter, r *http.Request, v interface{}, strict bool) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if strict {
		dec.DisallowUnknownFields()
	}
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is empty")
		}
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}
