package domain

import (
	"encoding/json"
	"time"
)

// ChatMessage is one published chat line. Append-only: never mutated after
// creation, removed only by history compaction.
type ChatMessage struct {
	Content           string    `json:"content"`
	AuthorIdentityID  string    `json:"authorIdentityId"`
	AuthorDisplayName string    `json:"authorDisplayName"`
	Timestamp         time.Time `json:"timestamp"`
}

// Encode serializes the message to the form stored in the history log and
// carried inside chat frames.
func (m *ChatMessage) Encode() (string, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// DecodeChatMessage parses a serialized history entry.
func DecodeChatMessage(raw string) (*ChatMessage, error) {
	var m ChatMessage
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return nil, err
	}
	return &m, nil
}
