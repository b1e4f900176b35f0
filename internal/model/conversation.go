package model

import "time"

// ResponseType classifies an agent reply.
type ResponseType string

const (
	ResponseRecommendation ResponseType = "recommendation"
	ResponseConfirmation   ResponseType = "confirmation"
	ResponseAlert          ResponseType = "alert"
	ResponseQuestion       ResponseType = "question"
)

func (t ResponseType) Valid() bool {
	switch t {
	case ResponseRecommendation, ResponseConfirmation, ResponseAlert, ResponseQuestion:
		return true
	}
	return false
}

// ActionOutcome records how one planned action fared.
type ActionOutcome struct {
	Operation string `json:"operation"`
	Success   bool   `json:"success"`
	Error     string `json:"error,omitempty"`
}

// TurnResponse is the structured reply stored with a turn.
type TurnResponse struct {
	Type       ResponseType `json:"type"`
	Text       string       `json:"text"`
	Reasoning  string       `json:"reasoning,omitempty"`
	Confidence float64      `json:"confidence"`
}

// ConversationTurn is an immutable record of one exchange.
type ConversationTurn struct {
	ID              string          `json:"id"`
	UserID          string          `json:"userId"`
	Message         string          `json:"message"`
	Response        TurnResponse    `json:"response"`
	Actions         []ActionOutcome `json:"actions"`
	ClientTimestamp *time.Time      `json:"clientTimestamp,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
}

// MemoryText is the text embedded for semantic recall of this turn.
func (t ConversationTurn) MemoryText() string {
	return "User: " + t.Message + "\nAssistant: " + t.Response.Text
}
