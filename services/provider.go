package services

import (
	"context"
	"errors"
)

type Task string

const (
	TaskSummarize      Task = "summarize"
	TaskMakeQuiz       Task = "make_quiz"
	TaskMakeFlashcards Task = "make_flashcards"
	TaskChat           Task = "chat"
)

const (
	StyleNormal  = "normal"
	StyleBullets = "bullet_points"
)

type ChatMode string

const (
	ChatNotes ChatMode = "notes"
	ChatQuiz  ChatMode = "quiz"
)

// QuizChatContext là ngữ cảnh câu hỏi khi người học hỏi trợ giảng về một câu trắc nghiệm
type QuizChatContext struct {
	QuizName      string              `json:"quiz_name,omitempty"`
	TopicName     string              `json:"topic_name,omitempty"`
	Question      string              `json:"question,omitempty"`
	Options       []string            `json:"options,omitempty"`
	CorrectAnswer string              `json:"correct_answer,omitempty"`
	UserAnswer    string              `json:"user_answer,omitempty"`
	Explanation   string              `json:"explanation,omitempty"`
	AllQuestions  []QuizQuestionBrief `json:"all_questions,omitempty"`
}

type QuizQuestionBrief struct {
	Question     string   `json:"question"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correct_index"`
}

// Payload là dữ liệu đầu vào chung cho mọi tác vụ
type Payload struct {
	Text    string
	Style   string
	Count   int
	Message string
	Mode    ChatMode
	Quiz    *QuizChatContext
}

// Provider là một tầng sinh nội dung (Groq, model cục bộ, Gemini, HuggingFace, heuristic)
type Provider interface {
	Name() string
	Configured() bool
	Generate(ctx context.Context, task Task, payload Payload) (string, error)
}

// ErrTaskUnsupported: tầng không hỗ trợ tác vụ này, cascade ghi nhận và chuyển tầng
var ErrTaskUnsupported = errors.New("provider không hỗ trợ tác vụ này")
