package models

import (
	"time"

	"github.com/google/uuid"
)

// Accepted document source types.
const (
	FileTypePDF  = "pdf"
	FileTypeDOCX = "docx"
	FileTypeTXT  = "txt"
	FileTypeURL  = "url"
)

type Document struct {
	ID         uuid.UUID `json:"id"`
	UserID     uuid.UUID `json:"user_id"`
	Filename   string    `json:"filename"`
	FileType   string    `json:"file_type"`
	Content    string    `json:"content,omitempty"`
	ChunkCount int       `json:"chunk_count"`
	UploadedAt time.Time `json:"uploaded_at"`
}

type Chunk struct {
	ID         uuid.UUID `json:"id"`
	DocumentID uuid.UUID `json:"document_id"`
	Index      int       `json:"index"`
	Content    string    `json:"content"`
	Embedding  []float32 `json:"-"`
}

type UploadURLRequest struct {
	URL string `json:"url"`
}

type UploadResponse struct {
	Document *Document `json:"document"`
	Chunks   int       `json:"chunks"`
}
