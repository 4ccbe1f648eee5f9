package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"aurenlm-backend/internal/middleware"
	"aurenlm-backend/internal/models"
)

// Consumer-side slices of the repositories the session endpoints need.

type sessionStore interface {
	Create(ctx context.Context, s *models.ChatSession) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.ChatSession, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.ChatSession, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ListMessages(ctx context.Context, sessionID uuid.UUID, limit int) ([]*models.ChatMessage, error)
}

type mindmapReader interface {
	GetBySession(ctx context.Context, sessionID uuid.UUID) (*models.Mindmap, error)
}

type SessionHandler struct {
	sessions sessionStore
	mindmaps mindmapReader
}

func NewSessionHandler(sessions sessionStore, mindmaps mindmapReader) *SessionHandler {
	return &SessionHandler{sessions: sessions, mindmaps: mindmaps}
}

func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req models.CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}
	if req.Title == "" {
		req.Title = "New session"
	}

	session := &models.ChatSession{
		UserID:      userID,
		Title:       req.Title,
		DocumentIDs: req.DocumentIDs,
	}
	if err := h.sessions.Create(r.Context(), session); err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, session)
}

func (h *SessionHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	sessions, err := h.sessions.ListByUser(r.Context(), userID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	if sessions == nil {
		sessions = []*models.ChatSession{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"sessions": sessions})
}

func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	session, ok := h.ownedSession(w, r, userID)
	if !ok {
		return
	}

	// Include the conversation, oldest first.
	messages, err := h.sessions.ListMessages(r.Context(), session.ID, 200)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	if messages == nil {
		messages = []*models.ChatMessage{}
	}

	// The session's mindmap, when one has been generated.
	var mindmap *models.Mindmap
	if m, err := h.mindmaps.GetBySession(r.Context(), session.ID); err == nil {
		mindmap = m
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"session":  session,
		"messages": messages,
		"mindmap":  mindmap,
	})
}

func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	session, ok := h.ownedSession(w, r, userID)
	if !ok {
		return
	}

	if err := h.sessions.Delete(r.Context(), session.ID); err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Session deleted"})
}

func (h *SessionHandler) ownedSession(w http.ResponseWriter, r *http.Request, userID uuid.UUID) (*models.ChatSession, bool) {
	sessionID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid session ID", r))
		return nil, false
	}

	session, err := h.sessions.GetByID(r.Context(), sessionID)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Chat session not found", r))
		return nil, false
	}
	if session.UserID != userID {
		writeJSON(w, http.StatusForbidden, errorResp("FORBIDDEN", "You do not own this session", r))
		return nil, false
	}
	return session, true
}
