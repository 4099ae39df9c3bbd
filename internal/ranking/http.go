package ranking

import (
	"net/http"

	"github.com/rs/zerolog"

	httperrors "github.com/gokatarajesh/trabalho-quiz/pkg/http/errors"
)

// HTTPHandler exposes REST endpoints for ranking queries.
type HTTPHandler struct {
	svc    *Service
	logger zerolog.Logger
}

// NewHTTPHandler constructs a ranking HTTP handler.
func NewHTTPHandler(svc *Service, logger zerolog.Logger) *HTTPHandler {
	return &HTTPHandler{
		svc:    svc,
		logger: logger.With().Str("component", "ranking_http").Logger(),
	}
}

// HandleOverall responds with the overall ranking.
// Route: GET /api/ranking
func (h *HTTPHandler) HandleOverall(w http.ResponseWriter, r *http.Request) {
	entries, err := h.svc.Overall(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("overall ranking fetch failed")
		httperrors.RespondError(w, http.StatusInternalServerError, httperrors.ErrCodeRankingFetchFailed, "failed to fetch ranking")
		return
	}
	httperrors.WriteJSON(w, http.StatusOK, entries)
}

// HandleCategory responds with the ranking for one category.
// Route: GET /api/ranking/category/{categoryId}
func (h *HTTPHandler) HandleCategory(w http.ResponseWriter, r *http.Request) {
	categoryID := r.PathValue("categoryId")
	if categoryID == "" {
		httperrors.RespondValidationError(w, httperrors.ErrCodeMissingField, "categoryId is required", "categoryId")
		return
	}

	entries, err := h.svc.ByCategory(r.Context(), categoryID)
	if err != nil {
		h.logger.Error().Err(err).Str("category_id", categoryID).Msg("category ranking fetch failed")
		httperrors.RespondError(w, http.StatusInternalServerError, httperrors.ErrCodeRankingFetchFailed, "failed to fetch ranking")
		return
	}
	httperrors.WriteJSON(w, http.StatusOK, entries)
}

// HandleCategories responds with participation stats per category.
// Route: GET /api/ranking/categories
func (h *HTTPHandler) HandleCategories(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Categories(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("ranking categories fetch failed")
		httperrors.RespondError(w, http.StatusInternalServerError, httperrors.ErrCodeRankingFetchFailed, "failed to fetch ranking categories")
		return
	}
	httperrors.WriteJSON(w, http.StatusOK, stats)
}
