// Package handler implements the HTTP endpoints. Each constructor takes the
// narrow interface it needs and returns an http.HandlerFunc.
package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/kiranshivaraju/hindsight/internal/api/response"
	"github.com/kiranshivaraju/hindsight/internal/corpus"
)

const maxBodyBytes = 1 << 20

// SnapshotSource exposes the current corpus snapshot.
type SnapshotSource interface {
	Snapshot() *corpus.Snapshot
}

// decodeBody decodes a JSON request body into v. An empty body is accepted
// when allowEmpty is set. On failure it writes the 400 response and returns false.
func decodeBody(w http.ResponseWriter, r *http.Request, v any, allowEmpty bool) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil || (allowEmpty && errors.Is(err, io.EOF)) {
		return true
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		response.InvalidField(w, typeErr.Field, typeErr.Field+" has the wrong type")
		return false
	}
	response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
	return false
}

// uuidParam parses a UUID chi URL parameter, writing a 400 on failure.
func uuidParam(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		response.InvalidField(w, name, "Invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

func corpusUnavailable(w http.ResponseWriter) {
	response.Error(w, http.StatusServiceUnavailable, "CORPUS_UNAVAILABLE",
		"Pattern corpus is not loaded", nil)
}

func notFound(w http.ResponseWriter, what string) {
	response.Error(w, http.StatusNotFound, "NOT_FOUND", what+" not found", nil)
}

func internalError(w http.ResponseWriter) {
	response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred", nil)
}
