package results

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	httperrors "github.com/gokatarajesh/trabalho-quiz/pkg/http/errors"
)

// HTTPHandlers provides REST endpoints for quiz results.
type HTTPHandlers struct {
	svc    *Service
	logger zerolog.Logger
}

func NewHTTPHandlers(svc *Service, logger zerolog.Logger) *HTTPHandlers {
	return &HTTPHandlers{
		svc:    svc,
		logger: logger.With().Str("component", "results_http").Logger(),
	}
}

// Create handles POST /api/quiz-results
func (h *HTTPHandlers) Create(w http.ResponseWriter, r *http.Request) {
	var sub Submission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid JSON payload")
		return
	}

	rec, err := h.svc.Save(r.Context(), sub)
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			httperrors.RespondValidationError(w, httperrors.ErrCodeValidationFailed, verr.Message, verr.Field)
			return
		}
		h.logger.Error().Err(err).Int64("user_id", sub.UserID).Msg("quiz result save failed")
		httperrors.RespondError(w, http.StatusInternalServerError, httperrors.ErrCodeResultSaveFailed, "Failed to save quiz result")
		return
	}

	httperrors.WriteJSON(w, http.StatusCreated, rec)
}

// History handles GET /api/users/{userId}/history?limit=N
func (h *HTTPHandlers) History(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(r.PathValue("userId"), 10, 64)
	if err != nil || userID <= 0 {
		httperrors.RespondValidationError(w, httperrors.ErrCodeValidationFailed, "userId must be a positive integer", "userId")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}

	records, err := h.svc.History(r.Context(), userID, limit)
	if err != nil {
		h.logger.Error().Err(err).Int64("user_id", userID).Msg("history fetch failed")
		httperrors.RespondError(w, http.StatusInternalServerError, httperrors.ErrCodeHistoryFailed, "Failed to fetch history")
		return
	}
	httperrors.WriteJSON(w, http.StatusOK, records)
}
