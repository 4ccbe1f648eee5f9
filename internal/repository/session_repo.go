package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"aurenlm-backend/internal/models"
)

type SessionRepo struct {
	pool *pgxpool.Pool
}

func NewSessionRepo(pool *pgxpool.Pool) *SessionRepo {
	return &SessionRepo{pool: pool}
}

func (r *SessionRepo) Create(ctx context.Context, s *models.ChatSession) error {
	query := `
		INSERT INTO chat_sessions (id, user_id, title, document_ids, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	s.ID = uuid.New()
	s.CreatedAt = time.Now()

	_, err := r.pool.Exec(ctx, query, s.ID, s.UserID, s.Title, s.DocumentIDs, s.CreatedAt)
	return err
}

func (r *SessionRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.ChatSession, error) {
	s := &models.ChatSession{}
	query := `SELECT id, user_id, title, document_ids, created_at
		FROM chat_sessions WHERE id = $1`

	err := r.pool.QueryRow(ctx, query, id).Scan(
		&s.ID, &s.UserID, &s.Title, &s.DocumentIDs, &s.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (r *SessionRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.ChatSession, error) {
	query := `SELECT id, user_id, title, document_ids, created_at
		FROM chat_sessions WHERE user_id = $1 ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []*models.ChatSession
	for rows.Next() {
		s := &models.ChatSession{}
		err := rows.Scan(&s.ID, &s.UserID, &s.Title, &s.DocumentIDs, &s.CreatedAt)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, nil
}

func (r *SessionRepo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, "DELETE FROM chat_sessions WHERE id = $1", id)
	return err
}

// Messages

func (r *SessionRepo) CreateMessage(ctx context.Context, m *models.ChatMessage) error {
	query := `
		INSERT INTO chat_messages (id, session_id, role, content, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	m.ID = uuid.New()
	m.CreatedAt = time.Now()

	_, err := r.pool.Exec(ctx, query, m.ID, m.SessionID, m.Role, m.Content, m.CreatedAt)
	return err
}

// ListMessages returns the most recent messages newest-first; callers
// re-reverse before building prompts.
func (r *SessionRepo) ListMessages(ctx context.Context, sessionID uuid.UUID, limit int) ([]*models.ChatMessage, error) {
	query := `SELECT id, session_id, role, content, created_at
		FROM chat_messages WHERE session_id = $1 ORDER BY created_at DESC LIMIT $2`

	rows, err := r.pool.Query(ctx, query, sessionID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []*models.ChatMessage
	for rows.Next() {
		m := &models.ChatMessage{}
		err := rows.Scan(&m.ID, &m.SessionID, &m.Role, &m.Content, &m.CreatedAt)
		if err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, nil
}
