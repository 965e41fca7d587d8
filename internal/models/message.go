package models

const (
	PatternCartUpdated  = "cart.updated"
	PatternSessionEnded = "session.ended"
)

// KafkaMessage is the envelope used on every topic the service touches.
type KafkaMessage[T any] struct {
	Pattern string `json:"pattern"`
	Data    T      `json:"data"`
}

type CartUpdatedData struct {
	SessionID string     `json:"session_id"`
	Lines     []CartLine `json:"lines"`
	Count     int        `json:"count"`
	Subtotal  string     `json:"subtotal"`
	UpdatedAt int64      `json:"updated_at"`
}

type SessionEndedData struct {
	SessionID string `json:"session_id" validate:"required"`
	EndedAt   int64  `json:"ended_at"`
}
