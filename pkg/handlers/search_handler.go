package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/chvpa/aura-engine/pkg/apperrors"
	"github.com/chvpa/aura-engine/pkg/services"
)

// SearchRequest is the body of POST /api/search.
type SearchRequest struct {
	Query    string `json:"query"`
	UserID   string `json:"userId,omitempty"`
	Page     int    `json:"page,omitempty"`
	PageSize int    `json:"page_size,omitempty"`
}

// PopularSearchesResponse is the response for GET /api/search/popular.
type PopularSearchesResponse struct {
	Searches []string `json:"searches"`
}

// SearchHandler handles product search HTTP requests.
type SearchHandler struct {
	searchService services.SearchService
	logger        *zap.Logger
}

// NewSearchHandler creates a new search handler.
func NewSearchHandler(searchService services.SearchService, logger *zap.Logger) *SearchHandler {
	return &SearchHandler{
		searchService: searchService,
		logger:        logger,
	}
}

// RegisterRoutes registers the search handler's routes on the given mux.
func (h *SearchHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/search", h.Search)
	mux.HandleFunc("GET /api/search/popular", h.Popular)
}

// Search handles POST /api/search
// Interprets the free-text query and returns matching products together with
// the structured filters and a human-readable explanation.
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if req.UserID != "" {
		h.logger.Debug("Search request", zap.String("user_id", req.UserID), zap.String("query", req.Query))
	}

	response, err := h.searchService.Search(r.Context(), req.Query, req.Page, req.PageSize)
	if err != nil {
		if errors.Is(err, apperrors.ErrEmptyQuery) {
			if err := ErrorResponse(w, http.StatusBadRequest, "empty_query", "Query must not be empty"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
			return
		}
		h.logger.Error("Search failed", zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "search_failed", "Failed to execute search"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to encode search response", zap.Error(err))
	}
}

// Popular handles GET /api/search/popular
// Returns the most frequent search queries, descending by frequency.
func (h *SearchHandler) Popular(w http.ResponseWriter, r *http.Request) {
	searches, err := h.searchService.PopularSearches(r.Context())
	if err != nil {
		if err := ErrorResponse(w, http.StatusInternalServerError, "popular_failed", "Failed to list popular searches"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if searches == nil {
		searches = []string{}
	}

	if err := WriteJSON(w, http.StatusOK, PopularSearchesResponse{Searches: searches}); err != nil {
		h.logger.Error("Failed to encode popular searches response", zap.Error(err))
	}
}
