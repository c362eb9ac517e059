package domain

import "encoding/json"

// WebSocket frame events from client.
const (
	EventJoin  = "join"
	EventChat  = "chat"
	EventLeave = "leave"
	EventPing  = "ping"
)

// WebSocket frame events to client.
const (
	EventAuth  = "auth"
	EventError = "error"
	EventPong  = "pong"
)

// Error codes
const (
	ErrCodeBadRequest = "BAD_REQUEST"
)

// AuthAckMessage is the payload text of the auth acknowledgment sent once at
// connect time, after identity resolution finished (verified or fallback).
const AuthAckMessage = "authorization completed"

// Frame is the envelope for every message on the socket.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Client -> Server payloads

type JoinPayload struct {
	ChannelID string `json:"channelId"`
}

// Server -> Client payloads

type AuthAckPayload struct {
	Message string `json:"message"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// EncodeFrame builds the wire form of a frame with the given payload.
func EncodeFrame(event string, payload interface{}) ([]byte, error) {
	var data json.RawMessage
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		data = raw
	}
	return json.Marshal(Frame{Event: event, Data: data})
}

// NewChatFrame wraps already-serialized messages into a chat frame. A history
// batch on join carries many entries; a live publish carries exactly one.
func NewChatFrame(serialized []string) ([]byte, error) {
	return EncodeFrame(EventChat, serialized)
}

// NewAuthAckFrame builds the connect-time auth acknowledgment.
func NewAuthAckFrame() ([]byte, error) {
	return EncodeFrame(EventAuth, AuthAckPayload{Message: AuthAckMessage})
}

// NewErrorFrame builds an error frame for a malformed inbound frame.
func NewErrorFrame(code, message string) ([]byte, error) {
	return EncodeFrame(EventError, ErrorPayload{Code: code, Message: message})
}
