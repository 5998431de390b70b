package chat

import "time"

// Exchange is one completed conversation turn: the user's input and the
// assistant's reply. Once recorded it is never mutated.
type Exchange struct {
	ID              string    `json:"id,omitempty"`
	SessionID       string    `json:"sessionId"`
	InputText       string    `json:"inputText"`
	OutputText      string    `json:"outputText"`
	PersonaID       string    `json:"personaId,omitempty"`
	UserID          string    `json:"userId,omitempty"`
	OriginAddress   string    `json:"originAddress,omitempty"`
	ClientSignature string    `json:"clientSignature,omitempty"`
	Timestamp       time.Time `json:"timestamp"`
}

// Origin tags which store a reconciled history entry came from.
type Origin string

const (
	OriginCache   Origin = "cache"
	OriginDurable Origin = "durable"
)

// HistoryEntry is one turn of the merged transcript returned to callers.
type HistoryEntry struct {
	InputText  string    `json:"inputText"`
	OutputText string    `json:"outputText"`
	Timestamp  time.Time `json:"timestamp"`
	Origin     Origin    `json:"origin"`
}
