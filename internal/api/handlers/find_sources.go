package handlers

import (
	"net/http"
	"strings"

	"github.com/hoanghai1803/newsluhy/internal/pipeline"
)

// findSourcesRequest is the body of POST /api/find-sources. Input is left
// untyped so a non-string value reads as missing rather than as bad JSON.
type findSourcesRequest struct {
	Input any `json:"input"`
}

// FindSources handles POST /api/find-sources. It runs the pipeline
// synchronously and returns its result as {ok, sources} or {ok, error}.
func FindSources(p *pipeline.Pipeline, env pipeline.Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req findSourcesRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeJSON(w, http.StatusBadRequest, pipeline.APIResult{Error: "Invalid JSON"})
			return
		}

		input, _ := req.Input.(string)
		input = strings.TrimSpace(input)
		if input == "" {
			writeJSON(w, http.StatusBadRequest, pipeline.APIResult{Error: "Поле input обязательно"})
			return
		}

		writeJSON(w, http.StatusOK, p.RunAPI(r.Context(), input, env))
	}
}
