package models

import (
	"time"

	"github.com/google/uuid"
)

type ChatSession struct {
	ID          uuid.UUID   `json:"id"`
	UserID      uuid.UUID   `json:"user_id"`
	Title       string      `json:"title"`
	DocumentIDs []uuid.UUID `json:"document_ids"`
	CreatedAt   time.Time   `json:"created_at"`
}

type ChatMessage struct {
	ID        uuid.UUID `json:"id"`
	SessionID uuid.UUID `json:"session_id"`
	Role      string    `json:"role"` // "user" or "assistant"
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type CreateSessionRequest struct {
	Title       string      `json:"title"`
	DocumentIDs []uuid.UUID `json:"document_ids"`
}

type ChatRequest struct {
	SessionID   *uuid.UUID  `json:"session_id"`
	DocumentIDs []uuid.UUID `json:"document_ids"`
	Question    string      `json:"question"`
}

type ChatResponse struct {
	SessionID uuid.UUID `json:"session_id"`
	Answer    string    `json:"answer"`
}
