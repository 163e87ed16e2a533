package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/openlit/literature-acquisition-service/internal/domain"
	"github.com/openlit/literature-acquisition-service/internal/pdf"
	"github.com/openlit/literature-acquisition-service/internal/providers"
)

// Response types for JSON serialization.

type sourceSearchResponse struct {
	Source  string                `json:"source"`
	Records []domain.SearchRecord `json:"records"`
	Error   string                `json:"error,omitempty"`
}

type searchResponse struct {
	Query        string                 `json:"query"`
	Limit        int                    `json:"limit"`
	Results      []sourceSearchResponse `json:"results"`
	TotalRecords int                    `json:"total_records"`
}

type acquireItemResponse struct {
	CitationKey string   `json:"citation_key"`
	Title       string   `json:"title"`
	Path        string   `json:"path,omitempty"`
	Error       string   `json:"error,omitempty"`
	FailureKind string   `json:"failure_kind,omitempty"`
	TriedURLs   []string `json:"tried_urls,omitempty"`
}

type acquireResponse struct {
	Results   []acquireItemResponse `json:"results"`
	Succeeded int                   `json:"succeeded"`
	Failed    int                   `json:"failed"`
}

type sourcesResponse struct {
	Sources []providers.HealthStatus `json:"sources"`
}

func sourceResultToResponse(res providers.SourceResult) sourceSearchResponse {
	out := sourceSearchResponse{
		Source:  string(res.Source),
		Records: res.Records,
	}
	if out.Records == nil {
		out.Records = []domain.SearchRecord{}
	}
	if res.Err != nil {
		out.Error = res.Err.Error()
	}
	return out
}

func acquireResultToResponse(res pdf.Result) acquireItemResponse {
	item := acquireItemResponse{
		CitationKey: res.Record.CitationKey(),
		Title:       res.Record.Title,
		Path:        res.Path,
	}
	if res.Err != nil {
		item.Error = res.Err.Error()
		var dlErr *domain.DownloadError
		if errors.As(res.Err, &dlErr) {
			item.FailureKind = string(dlErr.Kind)
			item.TriedURLs = dlErr.AttemptedURLs
		}
	}
	return item
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Best-effort; headers already sent.
		_ = err
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{
		"error": message,
	})
}
