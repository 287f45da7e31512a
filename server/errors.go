package server

import (
	"encoding/json"
	"errors"
	"net/http"
)

// ErrNilEvaluator is returned by New when no evaluator is given.
var ErrNilEvaluator = errors.New("server: evaluator is nil")

// msgInvalidIndex is the body error for unparsable or negative indices.
const msgInvalidIndex = "Please provide a non-negative integer"

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, errorResponse{Error: msg})
}
