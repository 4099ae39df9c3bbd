package play

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/trabalho-quiz/internal/auth/jwt"
	"github.com/gokatarajesh/trabalho-quiz/internal/catalog"
	"github.com/gokatarajesh/trabalho-quiz/internal/quiz"
	httperrors "github.com/gokatarajesh/trabalho-quiz/pkg/http/errors"
	ws "github.com/gokatarajesh/trabalho-quiz/pkg/http/ws"
)

// TokenValidator verifies play tokens. *jwt.Manager satisfies it.
type TokenValidator interface {
	Validate(token string) (*jwt.Claims, error)
}

// Deps holds the collaborators of a Handler.
type Deps struct {
	Catalog  *catalog.Catalog
	Hub      *ws.Hub
	Tokens   TokenValidator
	Saver    quiz.ResultSaver
	Upgrader websocket.Upgrader
	Session  quiz.Options
}

// Handler hosts one quiz session per WebSocket connection.
type Handler struct {
	deps   Deps
	logger zerolog.Logger
}

func NewHandler(deps Deps, logger zerolog.Logger) *Handler {
	return &Handler{
		deps:   deps,
		logger: logger.With().Str("component", "play").Logger(),
	}
}

// ServeWS upgrades GET /ws/quiz?token=... and binds a session to the connection.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeInvalidToken, "Missing token")
		return
	}

	claims, err := h.deps.Tokens.Validate(token)
	if err != nil {
		h.logger.Warn().Err(err).Msg("WebSocket token validation failed")
		if errors.Is(err, jwt.ErrExpiredToken) {
			httperrors.RespondUnauthorized(w, httperrors.ErrCodeTokenExpired, "Token expired")
			return
		}
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeInvalidToken, "Invalid token")
		return
	}

	raw, err := h.deps.Upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	h.serve(raw, claims.UserID)
}

func (h *Handler) serve(raw *websocket.Conn, userID int64) {
	conn := ws.NewConnection(raw, h.logger)
	logger := h.logger.With().Int64("user_id", userID).Str("conn_id", conn.ID().String()).Logger()

	opts := h.deps.Session
	opts.Listener = func(evt quiz.Event) {
		h.send(conn, logger, evt)
	}
	sess := quiz.NewSession(userID, h.deps.Saver, opts, logger)

	h.deps.Hub.Register(conn)
	go conn.WritePump()
	logger.Info().Msg("play session opened")

	h.send(conn, logger, quiz.Event{Type: quiz.EventState, State: sess.State()})

	conn.ReadPump(func(msg ws.Message) error {
		return h.dispatch(sess, conn, msg)
	})

	sess.Close()
	h.deps.Hub.Unregister(conn.ID())
	logger.Info().Msg("play session closed")
}

func (h *Handler) dispatch(sess *quiz.Session, conn *ws.Connection, msg ws.Message) error {
	var applied bool
	switch msg.Type {
	case ws.TypeSelectCategory:
		var p ws.SelectCategoryPayload
		if err := msg.Decode(&p); err != nil {
			return sendError(conn, httperrors.ErrCodeInvalidPayload, "Invalid select_category payload")
		}
		cat, ok := h.deps.Catalog.Category(p.CategoryID)
		if !ok {
			return sendError(conn, httperrors.ErrCodeUnknownCategory, fmt.Sprintf("Unknown category: %s", p.CategoryID))
		}
		applied = sess.SelectCategory(cat)
	case ws.TypeSelectAnswer:
		var p ws.SelectAnswerPayload
		if err := msg.Decode(&p); err != nil {
			return sendError(conn, httperrors.ErrCodeInvalidPayload, "Invalid select_answer payload")
		}
		applied = sess.SelectAnswer(p.Option)
	case ws.TypeAdvance:
		applied = sess.Advance()
	case ws.TypeAbandon:
		applied = sess.Abandon()
	case ws.TypeRetry:
		applied = sess.Retry()
	default:
		return sendError(conn, httperrors.ErrCodeUnknownMessageType, fmt.Sprintf("Unknown message type: %s", msg.Type))
	}

	if applied {
		return nil
	}
	out, err := ws.NewMessage(ws.TypeIgnored, ws.IgnoredPayload{
		Intent: msg.Type,
		Reason: fmt.Sprintf("%s not allowed in phase %s", msg.Type, sess.State().Phase),
	})
	if err != nil {
		return err
	}
	out.RequestID = msg.RequestID
	return conn.Send(out)
}

func (h *Handler) send(conn *ws.Connection, logger zerolog.Logger, evt quiz.Event) {
	msg, err := encodeEvent(evt)
	if err != nil {
		logger.Warn().Err(err).Str("event", string(evt.Type)).Msg("failed to encode session event")
		return
	}
	if err := conn.Send(msg); err != nil && !errors.Is(err, ws.ErrConnectionClosed) {
		logger.Warn().Err(err).Str("event", string(evt.Type)).Msg("failed to queue session event")
	}
}

func sendError(conn *ws.Connection, code, message string) error {
	msg, err := ws.NewMessage(ws.TypeError, ws.ErrorPayload{Code: code, Message: message})
	if err != nil {
		return err
	}
	return conn.Send(msg)
}
