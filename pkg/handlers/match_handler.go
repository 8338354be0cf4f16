package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/chvpa/aura-engine/pkg/apperrors"
	"github.com/chvpa/aura-engine/pkg/auth"
	"github.com/chvpa/aura-engine/pkg/models"
	"github.com/chvpa/aura-engine/pkg/services"
)

// MatchRequest is the body of POST /api/match.
type MatchRequest struct {
	ProductID string `json:"productId"`
}

// MatchResponse is the response for POST /api/match.
type MatchResponse struct {
	MatchPercentage int      `json:"matchPercentage"`
	Reasons         []string `json:"reasons"`
}

// ProfileRequest is the body of PUT /api/profile.
type ProfileRequest struct {
	Families  []string          `json:"families"`
	Intensity *models.Intensity `json:"intensity,omitempty"`
	Occasions []models.Occasion `json:"occasions,omitempty"`
	Climates  []models.Climate  `json:"climates,omitempty"`
}

// MatchHandler handles match scoring and preference profile HTTP requests.
type MatchHandler struct {
	matchService services.MatchService
	logger       *zap.Logger
}

// NewMatchHandler creates a new match handler.
func NewMatchHandler(matchService services.MatchService, logger *zap.Logger) *MatchHandler {
	return &MatchHandler{
		matchService: matchService,
		logger:       logger,
	}
}

// RegisterRoutes registers the match handler's routes on the given mux.
// All routes require an authenticated user.
func (h *MatchHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	mux.HandleFunc("POST /api/match", authMiddleware.RequireAuth(h.Match))
	mux.HandleFunc("GET /api/profile", authMiddleware.RequireAuth(h.GetProfile))
	mux.HandleFunc("PUT /api/profile", authMiddleware.RequireAuth(h.UpdateProfile))
}

// Match handles POST /api/match
// Scores the given product against the authenticated user's scent profile.
func (h *MatchHandler) Match(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.RequireUserIDFromContext(r.Context())
	if err != nil {
		if err := ErrorResponse(w, http.StatusUnauthorized, "unauthorized", "Authentication required"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	var req MatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_product_id", "Invalid product ID format"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	result, err := h.matchService.Score(r.Context(), userID, productID)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrProfileIncomplete):
			if err := ErrorResponse(w, http.StatusConflict, "profile_incomplete", "Complete your scent profile before requesting a match"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
		case errors.Is(err, apperrors.ErrNotFound):
			if err := ErrorResponse(w, http.StatusNotFound, "product_not_found", "Product not found"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
		default:
			h.logger.Error("Match scoring failed", zap.Error(err))
			if err := ErrorResponse(w, http.StatusInternalServerError, "match_failed", "Failed to compute match"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
		}
		return
	}

	reasons := result.Reasons
	if reasons == nil {
		reasons = []string{}
	}

	if err := WriteJSON(w, http.StatusOK, MatchResponse{
		MatchPercentage: result.Percentage,
		Reasons:         reasons,
	}); err != nil {
		h.logger.Error("Failed to encode match response", zap.Error(err))
	}
}

// GetProfile handles GET /api/profile
// Returns the authenticated user's scent preference profile.
func (h *MatchHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.RequireUserIDFromContext(r.Context())
	if err != nil {
		if err := ErrorResponse(w, http.StatusUnauthorized, "unauthorized", "Authentication required"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	profile, err := h.matchService.GetProfile(r.Context(), userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			if err := ErrorResponse(w, http.StatusNotFound, "profile_not_found", "No scent profile for this user"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
			return
		}
		h.logger.Error("Failed to load profile", zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "profile_failed", "Failed to load profile"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, profile); err != nil {
		h.logger.Error("Failed to encode profile response", zap.Error(err))
	}
}

// UpdateProfile handles PUT /api/profile
// Upserts the authenticated user's scent preference profile and marks
// onboarding as completed. Cached match percentages for the user are
// invalidated by the service layer.
func (h *MatchHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.RequireUserIDFromContext(r.Context())
	if err != nil {
		if err := ErrorResponse(w, http.StatusUnauthorized, "unauthorized", "Authentication required"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	var req ProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if len(req.Families) == 0 {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_profile", "At least one olfactory family is required"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	now := time.Now()
	profile := &models.MatchProfile{
		UserID:      userID,
		Families:    req.Families,
		Intensity:   req.Intensity,
		Occasions:   req.Occasions,
		Climates:    req.Climates,
		CompletedAt: &now,
	}

	if err := h.matchService.UpdateProfile(r.Context(), profile); err != nil {
		h.logger.Error("Failed to update profile", zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "profile_failed", "Failed to update profile"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, profile); err != nil {
		h.logger.Error("Failed to encode profile response", zap.Error(err))
	}
}
