package ws

import (
	"encoding/json"
	"fmt"
)

// MessageType constants for WebSocket protocol.
const (
	// Client -> Server
	TypeSelectCategory = "select_category"
	TypeSelectAnswer   = "select_answer"
	TypeAdvance        = "advance"
	TypeAbandon        = "abandon"
	TypeRetry          = "retry"

	// Server -> Client
	TypeState         = "state"
	TypeTick          = "tick"
	TypeFinished      = "finished"
	TypeRankingUpdate = "ranking_update"
	TypeIgnored       = "ignored"
	TypeError         = "error"
)

// Message wraps all WebSocket payloads with type and optional request ID.
type Message struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	RequestID string          `json:"request_id,omitempty"`
}

// NewMessage encodes payload into a typed message. A nil payload is omitted.
func NewMessage(msgType string, payload interface{}) (Message, error) {
	msg := Message{Type: msgType}
	if payload == nil {
		return msg, nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return Message{}, fmt.Errorf("encode %s payload: %w", msgType, err)
	}
	msg.Payload = raw
	return msg, nil
}

// Decode unmarshals the payload into v.
func (m Message) Decode(v interface{}) error {
	if len(m.Payload) == 0 {
		return fmt.Errorf("decode %s: empty payload", m.Type)
	}
	if err := json.Unmarshal(m.Payload, v); err != nil {
		return fmt.Errorf("decode %s: %w", m.Type, err)
	}
	return nil
}

// Client Messages (incoming)

type SelectCategoryPayload struct {
	CategoryID string `json:"category_id"`
}

type SelectAnswerPayload struct {
	Option int `json:"option"`
}

// Server Messages (outgoing)

type StatePayload struct {
	Phase          string           `json:"phase"`
	CategoryID     string           `json:"category_id,omitempty"`
	CategoryTitle  string           `json:"category_title,omitempty"`
	QuestionIndex  int              `json:"question_index"`
	TotalQuestions int              `json:"total_questions"`
	TimeRemaining  int              `json:"time_remaining"`
	Question       *QuestionView    `json:"question,omitempty"`
	Answer         AnswerView       `json:"answer"`
	Result         *FinishedPayload `json:"result,omitempty"`
}

// QuestionView hides the correct option until the slot is filled.
type QuestionView struct {
	ID            string   `json:"id"`
	Text          string   `json:"text"`
	Options       []string `json:"options"`
	CorrectOption *int     `json:"correct_option,omitempty"`
	Explanation   string   `json:"explanation,omitempty"`
}

type AnswerView struct {
	Kind   string `json:"kind"`
	Option *int   `json:"option,omitempty"`
}

type TickPayload struct {
	QuestionIndex int `json:"question_index"`
	Remaining     int `json:"remaining"`
}

type FinishedPayload struct {
	Score     int      `json:"score"`
	Total     int      `json:"total"`
	Outcomes  []string `json:"outcomes"`
	TimeSpent int      `json:"time_spent"`
}

type RankingUpdatePayload struct {
	CategoryID string          `json:"category_id,omitempty"`
	Top        json.RawMessage `json:"top"`
}

type IgnoredPayload struct {
	Intent string `json:"intent"`
	Reason string `json:"reason"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
