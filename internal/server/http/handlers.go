package httpserver

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/openlit/literature-acquisition-service/internal/domain"
)

// Validation bounds for request bodies.
const (
	minQueryLength     = 3
	maxQueryLength     = 1000
	maxAcquireRecords  = 100
	maxRequestBodySize = 1 << 20 // 1 MB limit for request bodies
)

// searchRequest is the JSON request body for a literature search.
type searchRequest struct {
	Query   string   `json:"query"`
	Limit   *int     `json:"limit,omitempty"`
	Sources []string `json:"sources,omitempty"`
}

// acquireRequest is the JSON request body for PDF acquisition.
type acquireRequest struct {
	Records []domain.SearchRecord `json:"records"`
}

// searchHandler handles POST /api/v1/search.
// It fans the query out to the selected providers and returns the
// merged per-source results. A failed source is reported alongside the
// others, not treated as fatal.
func (s *Server) searchHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req searchRequest
	if !decodeBody(w, r, &req) {
		return
	}

	req.Query = strings.TrimSpace(req.Query)
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}
	if len(req.Query) < minQueryLength {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("query must be at least %d characters", minQueryLength))
		return
	}
	if len(req.Query) > maxQueryLength {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("query must be at most %d characters", maxQueryLength))
		return
	}

	limit := s.defaultLimit
	if req.Limit != nil {
		if *req.Limit < 1 {
			writeError(w, http.StatusBadRequest, "limit must be positive")
			return
		}
		limit = *req.Limit
	}
	if limit > s.maxResults {
		limit = s.maxResults
	}

	var tags []domain.SourceType
	for _, raw := range req.Sources {
		tag := domain.SourceType(strings.ToLower(strings.TrimSpace(raw)))
		if !domain.IsKnownSourceType(tag) {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("unsupported source: %s", raw))
			return
		}
		tags = append(tags, tag)
	}

	results := s.registry.SearchAll(ctx, req.Query, limit, tags)

	resp := searchResponse{
		Query:   req.Query,
		Limit:   limit,
		Results: make([]sourceSearchResponse, 0, len(results)),
	}
	for _, res := range results {
		sr := sourceResultToResponse(res)
		resp.TotalRecords += len(sr.Records)
		resp.Results = append(resp.Results, sr)
	}

	writeJSON(w, http.StatusOK, resp)
}

// acquireHandler handles POST /api/v1/acquire.
// It runs PDF acquisition for the submitted records through the bounded
// worker pool and reports the per-record outcome.
func (s *Server) acquireHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req acquireRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if len(req.Records) == 0 {
		writeError(w, http.StatusBadRequest, "records is required")
		return
	}
	if len(req.Records) > maxAcquireRecords {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("records must have at most %d entries", maxAcquireRecords))
		return
	}
	for i := range req.Records {
		if strings.TrimSpace(req.Records[i].Title) == "" {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("records[%d]: title is required", i))
			return
		}
	}

	results := s.pool.AcquireAll(ctx, req.Records)

	resp := acquireResponse{
		Results: make([]acquireItemResponse, 0, len(results)),
	}
	for _, res := range results {
		item := acquireResultToResponse(res)
		if item.Error == "" {
			resp.Succeeded++
		} else {
			resp.Failed++
		}
		resp.Results = append(resp.Results, item)
	}

	writeJSON(w, http.StatusOK, resp)
}

// sourcesHandler handles GET /api/v1/sources.
// It returns the health snapshot of every registered provider.
func (s *Server) sourcesHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, sourcesResponse{
		Sources: s.registry.HealthSnapshots(),
	})
}

// decodeBody reads and unmarshals a JSON request body, writing a 400
// response on failure. Returns true when decoding succeeded.
func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	defer r.Body.Close()
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBodySize))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return false
	}
	if err := json.Unmarshal(body, v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON request body")
		return false
	}
	return true
}
