package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"aurenlm-backend/internal/middleware"
	"aurenlm-backend/internal/models"
)

type fakeSessionStore struct {
	sessions map[uuid.UUID]*models.ChatSession
	messages []*models.ChatMessage
}

func (f *fakeSessionStore) Create(_ context.Context, s *models.ChatSession) error {
	s.ID = uuid.New()
	f.sessions[s.ID] = s
	return nil
}

func (f *fakeSessionStore) GetByID(_ context.Context, id uuid.UUID) (*models.ChatSession, error) {
	s, ok := f.sessions[id]
	if !ok {
		return nil, errors.New("no rows")
	}
	return s, nil
}

func (f *fakeSessionStore) ListByUser(_ context.Context, userID uuid.UUID) ([]*models.ChatSession, error) {
	var out []*models.ChatSession
	for _, s := range f.sessions {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeSessionStore) Delete(_ context.Context, id uuid.UUID) error {
	delete(f.sessions, id)
	return nil
}

func (f *fakeSessionStore) ListMessages(_ context.Context, sessionID uuid.UUID, limit int) ([]*models.ChatMessage, error) {
	// Newest first, like the repository.
	var out []*models.ChatMessage
	for i := len(f.messages) - 1; i >= 0 && len(out) < limit; i-- {
		if f.messages[i].SessionID == sessionID {
			out = append(out, f.messages[i])
		}
	}
	return out, nil
}

type fakeMindmapReader struct {
	bySession map[uuid.UUID]*models.Mindmap
}

func (f *fakeMindmapReader) GetBySession(_ context.Context, sessionID uuid.UUID) (*models.Mindmap, error) {
	m, ok := f.bySession[sessionID]
	if !ok {
		return nil, errors.New("no rows")
	}
	return m, nil
}

func sessionGetRequest(userID, sessionID uuid.UUID) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/sessions/"+sessionID.String(), nil)

	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", sessionID.String())
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
	ctx = context.WithValue(ctx, middleware.UserIDKey, userID)
	return req.WithContext(ctx)
}

func TestSessionGetIncludesMessagesAndMindmap(t *testing.T) {
	userID := uuid.New()
	store := &fakeSessionStore{sessions: make(map[uuid.UUID]*models.ChatSession)}
	session := &models.ChatSession{UserID: userID, Title: "Lecture 3"}
	store.Create(context.Background(), session)

	store.messages = []*models.ChatMessage{
		{SessionID: session.ID, Role: "user", Content: "first"},
		{SessionID: session.ID, Role: "assistant", Content: "second"},
	}

	mindmaps := &fakeMindmapReader{bySession: map[uuid.UUID]*models.Mindmap{
		session.ID: {ID: uuid.New(), SessionID: session.ID, Title: "Lecture 3 map", StructureJSON: json.RawMessage(`{"title":"Lecture 3 map","nodes":[]}`)},
	}}

	h := NewSessionHandler(store, mindmaps)
	rr := httptest.NewRecorder()
	h.Get(rr, sessionGetRequest(userID, session.ID))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	var body struct {
		Session  models.ChatSession   `json:"session"`
		Messages []models.ChatMessage `json:"messages"`
		Mindmap  *models.Mindmap      `json:"mindmap"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	if len(body.Messages) != 2 || body.Messages[0].Content != "first" {
		t.Errorf("messages must be oldest first, got %v", body.Messages)
	}
	if body.Mindmap == nil || body.Mindmap.Title != "Lecture 3 map" {
		t.Errorf("expected the session's mindmap in the response, got %v", body.Mindmap)
	}
}

func TestSessionGetWithoutMindmap(t *testing.T) {
	userID := uuid.New()
	store := &fakeSessionStore{sessions: make(map[uuid.UUID]*models.ChatSession)}
	session := &models.ChatSession{UserID: userID, Title: "No map yet"}
	store.Create(context.Background(), session)

	h := NewSessionHandler(store, &fakeMindmapReader{bySession: map[uuid.UUID]*models.Mindmap{}})
	rr := httptest.NewRecorder()
	h.Get(rr, sessionGetRequest(userID, session.ID))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	var body map[string]json.RawMessage
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if string(body["mindmap"]) != "null" {
		t.Errorf("mindmap must be null when none exists, got %s", body["mindmap"])
	}
}

func TestSessionGetRejectsForeignSession(t *testing.T) {
	store := &fakeSessionStore{sessions: make(map[uuid.UUID]*models.ChatSession)}
	session := &models.ChatSession{UserID: uuid.New(), Title: "Someone else's"}
	store.Create(context.Background(), session)

	h := NewSessionHandler(store, &fakeMindmapReader{bySession: map[uuid.UUID]*models.Mindmap{}})
	rr := httptest.NewRecorder()
	h.Get(rr, sessionGetRequest(uuid.New(), session.ID))

	if rr.Code != http.StatusForbidden {
		t.Errorf("expected 403 for foreign session, got %d", rr.Code)
	}
}
