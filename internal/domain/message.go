package domain

import (
	"encoding/json"
	"time"
)

// Message types carried in the "type" field of every frame.
const (
	TypeOffer             = "offer"
	TypeAnswer            = "answer"
	TypeICECandidate      = "ice-candidate"
	TypeChatMessage       = "chat-message"
	TypeScreenShareStart  = "screen-share-start"
	TypeScreenShareStop   = "screen-share-stop"
	TypeConnectionQuality = "connection-quality"
	TypeUserConnected     = "user-connected"
	TypeUserDisconnected  = "user-disconnected"
)

// IsUnicast reports whether frames of type t are routed to a single targetId.
func IsUnicast(t string) bool {
	switch t {
	case TypeOffer, TypeAnswer, TypeICECandidate:
		return true
	}
	return false
}

// TimestampLayout is ISO-8601 in UTC with millisecond precision.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

func Timestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// PresenceEvent is sent to the room when a participant connects or leaves.
type PresenceEvent struct {
	Type      string `json:"type"`
	UserID    string `json:"userId"`
	Timestamp string `json:"timestamp"`
}

// ScreenShareEvent mirrors PresenceEvent for screen-share-start/stop.
type ScreenShareEvent struct {
	Type      string `json:"type"`
	UserID    string `json:"userId"`
	Timestamp string `json:"timestamp"`
}

// ChatMessage.Message is relayed as the client sent it.
type ChatMessage struct {
	Type      string          `json:"type"`
	SenderID  string          `json:"senderId"`
	Message   json.RawMessage `json:"message,omitempty"`
	Timestamp string          `json:"timestamp"`
}

// Envelope is the part of an inbound frame the router inspects. Everything
// else is kept raw so signaling payloads pass through untouched.
type Envelope struct {
	Type     string          `json:"type"`
	TargetID string          `json:"targetId,omitempty"`
	Message  json.RawMessage `json:"message,omitempty"`
	Quality  json.RawMessage `json:"quality,omitempty"`
}
