package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"aurenlm-backend/internal/llm"
	"aurenlm-backend/internal/models"
	"aurenlm-backend/internal/vectorstore"
)

// Consumer-side slices of the repositories, so generation flows can be
// exercised against fakes.

type sessionStore interface {
	Create(ctx context.Context, s *models.ChatSession) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.ChatSession, error)
	CreateMessage(ctx context.Context, m *models.ChatMessage) error
	ListMessages(ctx context.Context, sessionID uuid.UUID, limit int) ([]*models.ChatMessage, error)
}

type mindmapStore interface {
	Upsert(ctx context.Context, m *models.Mindmap) error
}

type quizStore interface {
	Create(ctx context.Context, q *models.Quiz) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Quiz, error)
	CreateAttempt(ctx context.Context, a *models.QuizAttempt) error
	GetAttemptByID(ctx context.Context, id uuid.UUID) (*models.QuizAttempt, error)
	SubmitAttempt(ctx context.Context, attemptID uuid.UUID, score float64, correct int, answers json.RawMessage) error
}

type documentReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Document, error)
}

// Publisher pushes progress events toward the websocket hub. A nil-safe
// no-op implementation keeps tests quiet.
type Publisher interface {
	Publish(ctx context.Context, userID uuid.UUID, msg models.WSMessage)
}

type StudioService struct {
	completer llm.Completer
	embedder  llm.Embedder // nil when the active backend cannot embed
	limiter   *llm.Limiter
	store     vectorstore.Store
	docs      documentReader
	sessions  sessionStore
	mindmaps  mindmapStore
	quizzes   quizStore
	publisher Publisher
	truncate  llm.TruncateFunc
}

func NewStudioService(
	completer llm.Completer,
	embedder llm.Embedder,
	limiter *llm.Limiter,
	store vectorstore.Store,
	docs documentReader,
	sessions sessionStore,
	mindmaps mindmapStore,
	quizzes quizStore,
	publisher Publisher,
) *StudioService {
	return &StudioService{
		completer: completer,
		embedder:  embedder,
		limiter:   limiter,
		store:     store,
		docs:      docs,
		sessions:  sessions,
		mindmaps:  mindmaps,
		quizzes:   quizzes,
		publisher: publisher,
		truncate:  llm.TruncateChars,
	}
}

func (s *StudioService) publish(ctx context.Context, userID uuid.UUID, kind, stage string, sessionID *uuid.UUID) {
	if s.publisher == nil {
		return
	}
	s.publisher.Publish(ctx, userID, models.WSMessage{
		Type:    "progress",
		Payload: models.ProgressEvent{Kind: kind, Stage: stage, SessionID: sessionID},
	})
}

// ownedDocuments loads the documents and verifies they belong to userID.
func (s *StudioService) ownedDocuments(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) ([]*models.Document, error) {
	if len(ids) == 0 {
		return nil, &ValidationError{Fields: map[string]string{"document_ids": "At least one document is required"}}
	}
	docs := make([]*models.Document, 0, len(ids))
	for _, id := range ids {
		doc, err := s.docs.GetByID(ctx, id)
		if err != nil {
			return nil, &NotFoundError{Message: fmt.Sprintf("Document %s not found", id)}
		}
		if doc.UserID != userID {
			return nil, &ForbiddenError{Message: "You do not own this document"}
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// retrieve ranks stored chunks against the query. Without an embedder the
// store falls back to leading chunks, so this never fails the request.
func (s *StudioService) retrieve(ctx context.Context, query string, docIDs []uuid.UUID, k int) []string {
	var vector []float32
	if s.embedder != nil {
		if v, err := s.embedder.Embed(ctx, query); err == nil {
			vector = v
		}
	}
	scored, err := s.store.Query(ctx, vector, docIDs, k)
	if err != nil {
		return nil
	}
	out := make([]string, len(scored))
	for i, sc := range scored {
		out[i] = sc.Chunk.Content
	}
	return out
}

func (s *StudioService) complete(ctx context.Context, req llm.Request) (string, error) {
	if s.limiter != nil {
		if err := s.limiter.Acquire(ctx); err != nil {
			return "", err
		}
		defer s.limiter.Release()
	}
	return s.completer.Complete(ctx, req)
}

// Chat answers a question against the selected documents, carrying the
// session history. Messages are persisted only after the backend succeeds.
func (s *StudioService) Chat(ctx context.Context, userID uuid.UUID, req models.ChatRequest) (*models.ChatResponse, error) {
	question := strings.TrimSpace(req.Question)
	if question == "" {
		return nil, &ValidationError{Fields: map[string]string{"question": "Question is required"}}
	}
	if _, err := s.ownedDocuments(ctx, userID, req.DocumentIDs); err != nil {
		return nil, err
	}

	var session *models.ChatSession
	if req.SessionID != nil {
		var err error
		session, err = s.sessions.GetByID(ctx, *req.SessionID)
		if err != nil {
			return nil, &NotFoundError{Message: "Chat session not found"}
		}
		if session.UserID != userID {
			return nil, &ForbiddenError{Message: "You do not own this session"}
		}
	} else {
		session = &models.ChatSession{
			UserID:      userID,
			Title:       s.truncate(question, 80),
			DocumentIDs: req.DocumentIDs,
		}
		if err := s.sessions.Create(ctx, session); err != nil {
			return nil, err
		}
	}

	s.publish(ctx, userID, "chat", "retrieving", &session.ID)

	sources := s.retrieve(ctx, question, req.DocumentIDs, 5)
	contextBlock := ""
	if len(sources) > 0 {
		contextBlock = llm.BuildContext(s.truncate, sources, 0, llm.ChatContextBudget)
	}

	history := s.history(ctx, session.ID)

	s.publish(ctx, userID, "chat", "generating", &session.ID)

	answer, err := s.complete(ctx, llm.Request{
		System:   "You are a helpful study assistant. Answer using the provided document content. If the answer is not in the documents, say so.",
		Context:  contextBlock,
		History:  history,
		Question: question,
	})
	if err != nil {
		return nil, err
	}

	// Persist both turns only now that generation has succeeded.
	userMsg := &models.ChatMessage{SessionID: session.ID, Role: "user", Content: question}
	if err := s.sessions.CreateMessage(ctx, userMsg); err != nil {
		return nil, err
	}
	assistantMsg := &models.ChatMessage{SessionID: session.ID, Role: "assistant", Content: answer}
	if err := s.sessions.CreateMessage(ctx, assistantMsg); err != nil {
		return nil, err
	}

	return &models.ChatResponse{SessionID: session.ID, Answer: answer}, nil
}

func (s *StudioService) history(ctx context.Context, sessionID uuid.UUID) []llm.Turn {
	messages, err := s.sessions.ListMessages(ctx, sessionID, llm.HistoryWindowLength)
	if err != nil {
		return nil
	}
	newestFirst := make([]llm.Turn, len(messages))
	for i, m := range messages {
		newestFirst[i] = llm.Turn{Role: m.Role, Content: m.Content}
	}
	return llm.WindowHistory(newestFirst, llm.HistoryWindowLength)
}

// GenerateNotes produces study notes on a topic from the top matching
// chunks. The reply is normalized through the list heuristic, so the caller
// always gets a non-empty notes slice on success.
func (s *StudioService) GenerateNotes(ctx context.Context, userID uuid.UUID, req models.GenerateNotesRequest) (*models.NotesResponse, error) {
	topic := strings.TrimSpace(req.Topic)
	if topic == "" {
		return nil, &ValidationError{Fields: map[string]string{"topic": "Topic is required"}}
	}
	if _, err := s.ownedDocuments(ctx, userID, req.DocumentIDs); err != nil {
		return nil, err
	}

	s.publish(ctx, userID, "notes", "retrieving", nil)

	sources := s.retrieve(ctx, topic, req.DocumentIDs, 3)
	contextBlock := ""
	if len(sources) > 0 {
		contextBlock = llm.BuildContext(s.truncate, sources, 0, 0)
	}

	s.publish(ctx, userID, "notes", "generating", nil)

	raw, err := s.complete(ctx, llm.Request{
		System:   "You are a study assistant. Write concise bullet-point study notes on the requested topic using only the provided document content.",
		Context:  contextBlock,
		Question: fmt.Sprintf("Write study notes about: %s", topic),
	})
	if err != nil {
		return nil, err
	}

	return &models.NotesResponse{
		Topic: topic,
		Notes: llm.ParseList(raw),
	}, nil
}

const quizSystemPrompt = `You are a quiz generator. Reply with ONLY a JSON array of question objects, no prose. Each object has the keys "question", "options" (exactly 4 strings), "correct_answer" (0-based index into options) and "explanation".`

// GenerateQuiz builds a multiple-choice quiz from the documents and persists
// it. Each call creates a new quiz row; earlier quizzes and their attempts
// stay untouched.
func (s *StudioService) GenerateQuiz(ctx context.Context, userID uuid.UUID, req models.GenerateQuizRequest) (*models.Quiz, error) {
	docs, err := s.ownedDocuments(ctx, userID, req.DocumentIDs)
	if err != nil {
		return nil, err
	}
	if req.SessionID != nil {
		if err := s.checkSessionOwner(ctx, userID, *req.SessionID); err != nil {
			return nil, err
		}
	}

	numQuestions := req.NumQuestions
	if numQuestions <= 0 {
		numQuestions = 5
	}
	difficulty := req.Difficulty
	if difficulty == "" {
		difficulty = "medium"
	}

	sources := make([]string, len(docs))
	for i, d := range docs {
		sources[i] = d.Content
	}
	contextBlock := llm.BuildContext(s.truncate, sources, llm.QuizPerDocBudget, llm.QuizTotalBudget)

	s.publish(ctx, userID, "quiz", "generating", req.SessionID)

	raw, err := s.complete(ctx, llm.Request{
		System:   quizSystemPrompt,
		Context:  contextBlock,
		Question: fmt.Sprintf("Generate %d %s-difficulty multiple-choice questions about the document content.", numQuestions, difficulty),
		Grammar:  llm.JSONGrammar,
	})
	if err != nil {
		return nil, err
	}

	var questions []models.QuizQuestion
	if res := llm.DecodeJSON(raw, &questions); !res.OK {
		return nil, &llm.Error{Kind: llm.KindBadPayload, Message: "quiz reply is not valid JSON", Body: res.Raw}
	}
	questions = validQuestions(questions)
	if len(questions) == 0 {
		return nil, &llm.Error{Kind: llm.KindBadPayload, Message: "quiz reply contained no usable questions"}
	}

	questionsJSON, err := json.Marshal(questions)
	if err != nil {
		return nil, err
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = fmt.Sprintf("Quiz: %s", docs[0].Filename)
	}

	quiz := &models.Quiz{
		SessionID:     req.SessionID,
		UserID:        userID,
		Title:         title,
		Difficulty:    difficulty,
		QuestionsJSON: questionsJSON,
		QuestionCount: len(questions),
	}
	if err := s.quizzes.Create(ctx, quiz); err != nil {
		return nil, err
	}

	s.publish(ctx, userID, "quiz", "done", req.SessionID)
	return quiz, nil
}

// validQuestions keeps questions with exactly four options and an in-range
// answer index.
func validQuestions(questions []models.QuizQuestion) []models.QuizQuestion {
	out := questions[:0]
	for _, q := range questions {
		if strings.TrimSpace(q.Question) == "" {
			continue
		}
		if len(q.Options) != 4 {
			continue
		}
		if q.CorrectAnswer < 0 || q.CorrectAnswer >= len(q.Options) {
			continue
		}
		out = append(out, q)
	}
	return out
}

// StartAttempt opens a new attempt on a quiz the user owns.
func (s *StudioService) StartAttempt(ctx context.Context, userID, quizID uuid.UUID) (*models.QuizAttempt, error) {
	quiz, err := s.quizzes.GetByID(ctx, quizID)
	if err != nil {
		return nil, &NotFoundError{Message: "Quiz not found"}
	}
	if quiz.UserID != userID {
		return nil, &ForbiddenError{Message: "You do not own this quiz"}
	}

	attempt := &models.QuizAttempt{QuizID: quizID, UserID: userID}
	if err := s.quizzes.CreateAttempt(ctx, attempt); err != nil {
		return nil, err
	}
	return attempt, nil
}

// SubmitAttempt grades the answers against the stored correct indexes. The
// score is always recomputed server-side.
func (s *StudioService) SubmitAttempt(ctx context.Context, userID, attemptID uuid.UUID, req models.SubmitAttemptRequest) (*models.AttemptResult, error) {
	attempt, err := s.quizzes.GetAttemptByID(ctx, attemptID)
	if err != nil {
		return nil, &NotFoundError{Message: "Attempt not found"}
	}
	if attempt.UserID != userID {
		return nil, &ForbiddenError{Message: "You do not own this attempt"}
	}
	if attempt.CompletedAt != nil {
		return nil, &ConflictError{Message: "Attempt already submitted"}
	}

	quiz, err := s.quizzes.GetByID(ctx, attempt.QuizID)
	if err != nil {
		return nil, err
	}

	var questions []models.QuizQuestion
	if err := json.Unmarshal(quiz.QuestionsJSON, &questions); err != nil {
		return nil, fmt.Errorf("stored quiz questions are unreadable: %w", err)
	}

	correct := 0
	for _, a := range req.Answers {
		if a.QuestionIndex < 0 || a.QuestionIndex >= len(questions) {
			continue
		}
		if questions[a.QuestionIndex].CorrectAnswer == a.AnswerIndex {
			correct++
		}
	}

	total := len(questions)
	score := 0.0
	if total > 0 {
		score = float64(correct) / float64(total) * 100
	}

	answersJSON, err := json.Marshal(req.Answers)
	if err != nil {
		return nil, err
	}
	if err := s.quizzes.SubmitAttempt(ctx, attemptID, score, correct, answersJSON); err != nil {
		return nil, err
	}

	return &models.AttemptResult{
		AttemptID:    attemptID,
		ScorePercent: score,
		CorrectCount: correct,
		TotalCount:   total,
	}, nil
}

const mindmapSystemPrompt = `You are a mindmap generator. Reply with ONLY a JSON object, no prose. Shape: {"title": string, "nodes": [{"id": string, "label": string, "type": "root"|"branch"|"leaf", "children": [...]}]}.`

// GenerateMindmap builds a mindmap for a session. A session has at most one
// mindmap; regeneration replaces it through an atomic upsert.
func (s *StudioService) GenerateMindmap(ctx context.Context, userID uuid.UUID, req models.GenerateMindmapRequest) (*models.Mindmap, error) {
	docs, err := s.ownedDocuments(ctx, userID, req.DocumentIDs)
	if err != nil {
		return nil, err
	}
	if err := s.checkSessionOwner(ctx, userID, req.SessionID); err != nil {
		return nil, err
	}

	sources := make([]string, len(docs))
	for i, d := range docs {
		sources[i] = d.Content
	}
	contextBlock := llm.BuildContext(s.truncate, sources, llm.MindmapPerDocBudget, llm.MindmapTotalBudget)

	s.publish(ctx, userID, "mindmap", "generating", &req.SessionID)

	raw, err := s.complete(ctx, llm.Request{
		System:   mindmapSystemPrompt,
		Context:  contextBlock,
		Question: "Generate a mindmap of the key concepts in the document content.",
		Grammar:  llm.JSONGrammar,
	})
	if err != nil {
		return nil, err
	}

	structure := normalizeMindmap(raw, docs[0].Filename)
	structureJSON, err := json.Marshal(structure)
	if err != nil {
		return nil, err
	}

	mindmap := &models.Mindmap{
		SessionID:     req.SessionID,
		Title:         structure.Title,
		StructureJSON: structureJSON,
	}
	if err := s.mindmaps.Upsert(ctx, mindmap); err != nil {
		return nil, err
	}

	s.publish(ctx, userID, "mindmap", "done", &req.SessionID)
	return mindmap, nil
}

// normalizeMindmap parses the reply into the node structure. When the reply
// is not valid JSON, the list heuristic turns it into a flat map instead of
// failing the request.
func normalizeMindmap(raw, fallbackTitle string) models.MindmapStructure {
	var structure models.MindmapStructure
	if res := llm.DecodeJSON(raw, &structure); res.OK && len(structure.Nodes) > 0 {
		if structure.Title == "" {
			structure.Title = fallbackTitle
		}
		return structure
	}

	items := llm.ParseList(raw)
	children := make([]models.MindmapNode, len(items))
	for i, item := range items {
		children[i] = models.MindmapNode{
			ID:    fmt.Sprintf("n%d", i+1),
			Label: llm.TruncateChars(item, 120),
			Type:  "leaf",
		}
	}
	return models.MindmapStructure{
		Title: fallbackTitle,
		Nodes: []models.MindmapNode{{
			ID:       "root",
			Label:    fallbackTitle,
			Type:     "root",
			Children: children,
		}},
	}
}

func (s *StudioService) checkSessionOwner(ctx context.Context, userID, sessionID uuid.UUID) error {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return &NotFoundError{Message: "Chat session not found"}
	}
	if session.UserID != userID {
		return &ForbiddenError{Message: "You do not own this session"}
	}
	return nil
}
