package api

import (
	"encoding/json"
	"net/http"

	"github.com/mekoros/sourcesheet-ocr-service/internal/models"
	"github.com/mekoros/sourcesheet-ocr-service/internal/resolver"
	"github.com/mekoros/sourcesheet-ocr-service/internal/sefaria"
)

// LookupReference resolves a reference string directly against the text
// database. Unknown or garbage refs return found:false, never an error.
func (h *Handler) LookupReference(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	ref := r.URL.Query().Get("ref")
	if ref == "" {
		h.sendError(w, http.StatusBadRequest, "ref query parameter is required")
		return
	}

	json.NewEncoder(w).Encode(h.sefaria.Lookup(r.Context(), ref))
}

// SearchRequest is the keyword search body.
type SearchRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit,omitempty"`
}

// SearchResponse carries ranked hits; failures degrade to an empty list.
type SearchResponse struct {
	Results []sefaria.SearchHit `json:"results"`
}

// SearchReferences runs a keyword search against the text database.
func (h *Handler) SearchReferences(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Query == "" {
		h.sendError(w, http.StatusBadRequest, "query is required")
		return
	}

	hits := h.sefaria.Search(r.Context(), req.Query, req.Limit)
	if hits == nil {
		hits = []sefaria.SearchHit{}
	}
	json.NewEncoder(w).Encode(SearchResponse{Results: hits})
}

// IdentifyResponse is the outcome of the identification strategy chain.
type IdentifyResponse struct {
	Success    bool                        `json:"success"`
	Candidates []models.ReferenceCandidate `json:"candidates"`
	RawText    string                      `json:"rawText,omitempty"`
	Origin     models.CandidateOrigin      `json:"origin"`
	Error      string                      `json:"error,omitempty"`
}

// IdentifySource tries to name the source shown in an uploaded excerpt.
// Model variants are tried first, then OCR plus text search; when everything
// comes up empty the response still carries the raw OCR text so the caller
// can offer manual identification.
func (h *Handler) IdentifySource(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	data, contentType, _, err := h.readUpload(w, r, "image", "file")
	if err != nil {
		h.sendError(w, http.StatusBadRequest, err.Error())
		return
	}

	outcome := h.chain.Resolve(r.Context(), resolver.Input{
		Image:     data,
		MediaType: contentType,
	})

	json.NewEncoder(w).Encode(IdentifyResponse{
		Success:    true,
		Candidates: outcome.Candidates,
		RawText:    outcome.RawText,
		Origin:     outcome.Origin,
	})
}
