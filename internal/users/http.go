package users

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	httperrors "github.com/gokatarajesh/trabalho-quiz/pkg/http/errors"
)

type registerRequest struct {
	Name      string `json:"name"`
	Matricula string `json:"matricula"`
}

type updateRequest struct {
	Name string `json:"name"`
}

type registerResponse struct {
	User
	Token   string `json:"token"`
	Updated bool   `json:"_updated,omitempty"`
}

// HTTPHandlers provides REST endpoints for users.
type HTTPHandlers struct {
	svc    *Service
	logger zerolog.Logger
}

func NewHTTPHandlers(svc *Service, logger zerolog.Logger) *HTTPHandlers {
	return &HTTPHandlers{
		svc:    svc,
		logger: logger.With().Str("component", "users_http").Logger(),
	}
}

// Register handles POST /api/users
func (h *HTTPHandlers) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid JSON payload")
		return
	}

	reg, err := h.svc.Register(r.Context(), req.Name, req.Matricula)
	if err != nil {
		if h.respondValidation(w, err) {
			return
		}
		h.logger.Error().Err(err).Msg("registration failed")
		httperrors.RespondError(w, http.StatusInternalServerError, httperrors.ErrCodeRegistrationFailed, "Failed to register user")
		return
	}

	status := http.StatusOK
	if reg.Created {
		status = http.StatusCreated
	}
	httperrors.WriteJSON(w, status, registerResponse{
		User:    reg.User,
		Token:   reg.Token,
		Updated: !reg.Created,
	})
}

// Get handles GET /api/users/{matricula}
func (h *HTTPHandlers) Get(w http.ResponseWriter, r *http.Request) {
	user, err := h.svc.Get(r.Context(), r.PathValue("matricula"))
	if err != nil {
		h.respondLookupError(w, err, "Failed to fetch user")
		return
	}
	httperrors.WriteJSON(w, http.StatusOK, user)
}

// Update handles PUT /api/users/{matricula}
func (h *HTTPHandlers) Update(w http.ResponseWriter, r *http.Request) {
	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid JSON payload")
		return
	}

	user, err := h.svc.Update(r.Context(), r.PathValue("matricula"), req.Name)
	if err != nil {
		h.respondLookupError(w, err, "Failed to update user")
		return
	}
	httperrors.WriteJSON(w, http.StatusOK, user)
}

func (h *HTTPHandlers) respondLookupError(w http.ResponseWriter, err error, message string) {
	if h.respondValidation(w, err) {
		return
	}
	if errors.Is(err, ErrNotFound) {
		httperrors.RespondNotFound(w, httperrors.ErrCodeUserNotFound, "User not found")
		return
	}
	h.logger.Error().Err(err).Msg(message)
	httperrors.RespondInternalError(w, message)
}

func (h *HTTPHandlers) respondValidation(w http.ResponseWriter, err error) bool {
	var verr *ValidationError
	if !errors.As(err, &verr) {
		return false
	}
	httperrors.RespondValidationError(w, httperrors.ErrCodeMissingField, verr.Message, verr.Field)
	return true
}
