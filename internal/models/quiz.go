package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type Quiz struct {
	ID            uuid.UUID       `json:"id"`
	SessionID     *uuid.UUID      `json:"session_id"`
	UserID        uuid.UUID       `json:"user_id"`
	Title         string          `json:"title"`
	Difficulty    string          `json:"difficulty"`
	QuestionsJSON json.RawMessage `json:"questions"`
	QuestionCount int             `json:"question_count"`
	CreatedAt     time.Time       `json:"created_at"`
}

type QuizAttempt struct {
	ID           uuid.UUID       `json:"id"`
	QuizID       uuid.UUID       `json:"quiz_id"`
	UserID       uuid.UUID       `json:"user_id"`
	AnswersJSON  json.RawMessage `json:"answers"`
	ScorePercent *float64        `json:"score_percent"`
	CorrectCount *int            `json:"correct_count"`
	StartedAt    time.Time       `json:"started_at"`
	CompletedAt  *time.Time      `json:"completed_at"`
}

type QuizQuestion struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correct_answer"`
	Explanation   string   `json:"explanation"`
}

type GenerateQuizRequest struct {
	SessionID    *uuid.UUID  `json:"session_id"`
	DocumentIDs  []uuid.UUID `json:"document_ids"`
	Title        string      `json:"title"`
	NumQuestions int         `json:"num_questions"`
	Difficulty   string      `json:"difficulty"`
}

// QuizAnswer pairs a question with the option the user picked.
type QuizAnswer struct {
	QuestionIndex int `json:"question_index"`
	AnswerIndex   int `json:"answer_index"`
}

type SubmitAttemptRequest struct {
	Answers []QuizAnswer `json:"answers"`
}

type AttemptResult struct {
	AttemptID    uuid.UUID `json:"attempt_id"`
	ScorePercent float64   `json:"score_percent"`
	CorrectCount int       `json:"correct_count"`
	TotalCount   int       `json:"total_count"`
}
