package models

import "github.com/google/uuid"

// WebSocket message types
type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

type ProgressEvent struct {
	Kind      string     `json:"kind"` // "chat" | "notes" | "quiz" | "mindmap" | "upload"
	Stage     string     `json:"stage"`
	SessionID *uuid.UUID `json:"session_id,omitempty"`
}

// API Error response
type APIError struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id"`
}

type ErrorResponse struct {
	Error APIError `json:"error"`
}
