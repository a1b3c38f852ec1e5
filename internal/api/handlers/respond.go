package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
)

// maxBodyBytes caps request bodies
const maxBodyBytes = 1 << 20

// decodeOptional decodes a JSON body into dest. An empty body leaves dest untouched.
func decodeOptional(w http.ResponseWriter, r *http.Request, dest any) error {
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dest)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
