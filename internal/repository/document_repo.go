package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"aurenlm-backend/internal/models"
)

type DocumentRepo struct {
	pool *pgxpool.Pool
}

func NewDocumentRepo(pool *pgxpool.Pool) *DocumentRepo {
	return &DocumentRepo{pool: pool}
}

func (r *DocumentRepo) Create(ctx context.Context, d *models.Document) error {
	query := `
		INSERT INTO documents (id, user_id, filename, file_type, content, uploaded_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	d.ID = uuid.New()
	d.UploadedAt = time.Now()

	_, err := r.pool.Exec(ctx, query,
		d.ID, d.UserID, d.Filename, d.FileType, d.Content, d.UploadedAt,
	)
	return err
}

func (r *DocumentRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Document, error) {
	d := &models.Document{}
	query := `SELECT d.id, d.user_id, d.filename, d.file_type, d.content, d.uploaded_at,
			(SELECT COUNT(*) FROM chunks c WHERE c.document_id = d.id)
		FROM documents d WHERE d.id = $1`

	err := r.pool.QueryRow(ctx, query, id).Scan(
		&d.ID, &d.UserID, &d.Filename, &d.FileType, &d.Content, &d.UploadedAt, &d.ChunkCount,
	)
	if err != nil {
		return nil, err
	}
	return d, nil
}

// ListByUser omits content: the list view only needs metadata.
func (r *DocumentRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Document, error) {
	query := `SELECT d.id, d.user_id, d.filename, d.file_type, d.uploaded_at,
			(SELECT COUNT(*) FROM chunks c WHERE c.document_id = d.id)
		FROM documents d WHERE d.user_id = $1 ORDER BY d.uploaded_at DESC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []*models.Document
	for rows.Next() {
		d := &models.Document{}
		err := rows.Scan(&d.ID, &d.UserID, &d.Filename, &d.FileType, &d.UploadedAt, &d.ChunkCount)
		if err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	return docs, nil
}

func (r *DocumentRepo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, "DELETE FROM documents WHERE id = $1", id)
	return err
}

// Chunks

func (r *DocumentRepo) CreateBatch(ctx context.Context, chunks []models.Chunk) error {
	for _, c := range chunks {
		_, err := r.pool.Exec(ctx,
			`INSERT INTO chunks (id, document_id, idx, content, embedding)
			VALUES ($1, $2, $3, $4, $5)`,
			c.ID, c.DocumentID, c.Index, c.Content, c.Embedding,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *DocumentRepo) ListByDocuments(ctx context.Context, documentIDs []uuid.UUID) ([]models.Chunk, error) {
	if len(documentIDs) == 0 {
		return nil, nil
	}
	query := `SELECT id, document_id, idx, content, embedding
		FROM chunks WHERE document_id = ANY($1) ORDER BY document_id, idx`

	rows, err := r.pool.Query(ctx, query, documentIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chunks []models.Chunk
	for rows.Next() {
		var c models.Chunk
		if err := rows.Scan(&c.ID, &c.DocumentID, &c.Index, &c.Content, &c.Embedding); err != nil {
			return nil, err
		}
		chunks = append(chunks, c)
	}
	return chunks, nil
}

func (r *DocumentRepo) DeleteByDocument(ctx context.Context, documentID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, "DELETE FROM chunks WHERE document_id = $1", documentID)
	return err
}
