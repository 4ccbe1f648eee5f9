package services

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"aurenlm-backend/internal/llm"
	"aurenlm-backend/internal/models"
	"aurenlm-backend/internal/textprep"
	"aurenlm-backend/internal/vectorstore"
)

type documentStore interface {
	Create(ctx context.Context, d *models.Document) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Document, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Document, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// DocumentService owns the ingestion pipeline: extract, filter, chunk,
// embed, store.
type DocumentService struct {
	extract      *ExtractService
	urls         *URLService
	store        vectorstore.Store
	docs         documentStore
	embedder     llm.Embedder // nil disables semantic retrieval
	chunkSize    int
	chunkOverlap int
}

func NewDocumentService(
	extract *ExtractService,
	urls *URLService,
	store vectorstore.Store,
	docs documentStore,
	embedder llm.Embedder,
	chunkSize, chunkOverlap int,
) *DocumentService {
	if chunkSize <= 0 {
		chunkSize = textprep.DefaultChunkSize
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		chunkOverlap = textprep.DefaultChunkOverlap
	}
	return &DocumentService{
		extract:      extract,
		urls:         urls,
		store:        store,
		docs:         docs,
		embedder:     embedder,
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
	}
}

// Upload ingests an uploaded file held in memory.
func (s *DocumentService) Upload(ctx context.Context, userID uuid.UUID, filename string, data []byte) (*models.UploadResponse, error) {
	if len(data) == 0 {
		return nil, &ValidationError{Fields: map[string]string{"file": "File is empty"}}
	}

	text, fileType, err := s.extract.ExtractText(filename, data)
	if err != nil {
		if _, ok := err.(*ValidationError); ok {
			return nil, err
		}
		return nil, &ValidationError{Fields: map[string]string{"file": err.Error()}}
	}

	return s.ingest(ctx, userID, filename, fileType, text)
}

// UploadURL ingests a web source: YouTube transcripts or stripped page text.
func (s *DocumentService) UploadURL(ctx context.Context, userID uuid.UUID, rawURL string) (*models.UploadResponse, error) {
	if strings.TrimSpace(rawURL) == "" {
		return nil, &ValidationError{Fields: map[string]string{"url": "URL is required"}}
	}

	text, name, err := s.urls.ExtractFromURL(rawURL)
	if err != nil {
		return nil, err
	}

	return s.ingest(ctx, userID, name, models.FileTypeURL, text)
}

func (s *DocumentService) ingest(ctx context.Context, userID uuid.UUID, filename, fileType, text string) (*models.UploadResponse, error) {
	// The notes filter never fails; if it strips everything, degrade to the
	// unfiltered text.
	filtered := textprep.FilterNotes(text)
	if strings.TrimSpace(filtered) == "" {
		filtered = text
	}

	chunks := textprep.Chunk(filtered, s.chunkSize, s.chunkOverlap)
	if len(chunks) == 0 {
		return nil, &ValidationError{Fields: map[string]string{"file": "No extractable text found"}}
	}

	doc := &models.Document{
		UserID:   userID,
		Filename: filename,
		FileType: fileType,
		Content:  filtered,
	}
	if err := s.docs.Create(ctx, doc); err != nil {
		return nil, err
	}

	// Embeddings are best-effort: retrieval degrades to leading chunks when
	// they are missing.
	var vectors [][]float32
	if s.embedder != nil {
		if v, err := s.embedder.EmbedBatch(ctx, chunks); err == nil && len(v) == len(chunks) {
			vectors = v
		}
	}

	if err := s.store.Add(ctx, doc.ID, chunks, vectors); err != nil {
		return nil, err
	}

	doc.ChunkCount = len(chunks)
	return &models.UploadResponse{Document: doc, Chunks: len(chunks)}, nil
}

func (s *DocumentService) List(ctx context.Context, userID uuid.UUID) ([]*models.Document, error) {
	return s.docs.ListByUser(ctx, userID)
}

func (s *DocumentService) Get(ctx context.Context, userID, docID uuid.UUID) (*models.Document, error) {
	doc, err := s.docs.GetByID(ctx, docID)
	if err != nil {
		return nil, &NotFoundError{Message: "Document not found"}
	}
	if doc.UserID != userID {
		return nil, &ForbiddenError{Message: "You do not own this document"}
	}
	return doc, nil
}

func (s *DocumentService) Delete(ctx context.Context, userID, docID uuid.UUID) error {
	doc, err := s.docs.GetByID(ctx, docID)
	if err != nil {
		return &NotFoundError{Message: "Document not found"}
	}
	if doc.UserID != userID {
		return &ForbiddenError{Message: "You do not own this document"}
	}

	if err := s.store.Delete(ctx, docID); err != nil {
		return err
	}
	return s.docs.Delete(ctx, docID)
}
