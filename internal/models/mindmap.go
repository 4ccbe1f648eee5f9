package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type Mindmap struct {
	ID            uuid.UUID       `json:"id"`
	SessionID     uuid.UUID       `json:"session_id"`
	Title         string          `json:"title"`
	StructureJSON json.RawMessage `json:"structure"`
	CreatedAt     time.Time       `json:"created_at"`
}

// MindmapNode is the recursive node shape produced by generation.
type MindmapNode struct {
	ID       string        `json:"id"`
	Label    string        `json:"label"`
	Type     string        `json:"type"` // "root", "branch" or "leaf"
	Children []MindmapNode `json:"children"`
}

type MindmapStructure struct {
	Title string        `json:"title"`
	Nodes []MindmapNode `json:"nodes"`
}

type GenerateMindmapRequest struct {
	SessionID   uuid.UUID   `json:"session_id"`
	DocumentIDs []uuid.UUID `json:"document_ids"`
}

type GenerateNotesRequest struct {
	Topic       string      `json:"topic"`
	DocumentIDs []uuid.UUID `json:"document_ids"`
}

type NotesResponse struct {
	Topic string   `json:"topic"`
	Notes []string `json:"notes"`
}
