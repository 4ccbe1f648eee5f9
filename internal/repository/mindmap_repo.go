package repository

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"aurenlm-backend/internal/models"
)

type MindmapRepo struct {
	pool *pgxpool.Pool
}

func NewMindmapRepo(pool *pgxpool.Pool) *MindmapRepo {
	return &MindmapRepo{pool: pool}
}

// Upsert keeps at most one mindmap per session. The conflict target is the
// UNIQUE(session_id) constraint, so concurrent regenerations collapse into a
// single conditional write.
func (r *MindmapRepo) Upsert(ctx context.Context, m *models.Mindmap) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	structure := m.StructureJSON
	if structure == nil {
		structure = json.RawMessage("{}")
	}

	query := `
		INSERT INTO mindmaps (id, session_id, title, structure_json)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (session_id) DO UPDATE
		SET title = EXCLUDED.title, structure_json = EXCLUDED.structure_json
		RETURNING id, created_at`

	return r.pool.QueryRow(ctx, query, m.ID, m.SessionID, m.Title, structure).
		Scan(&m.ID, &m.CreatedAt)
}

func (r *MindmapRepo) GetBySession(ctx context.Context, sessionID uuid.UUID) (*models.Mindmap, error) {
	m := &models.Mindmap{}
	query := `SELECT id, session_id, title, structure_json, created_at
		FROM mindmaps WHERE session_id = $1`

	err := r.pool.QueryRow(ctx, query, sessionID).Scan(
		&m.ID, &m.SessionID, &m.Title, &m.StructureJSON, &m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return m, nil
}
