package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// ChatCompletionProvider gọi API dạng OpenAI chat completions (Groq, Ollama, vLLM...)
type ChatCompletionProvider struct {
	name       string
	baseURL    string
	apiKey     string
	model      string
	requireKey bool
	limiter    *rate.Limiter
	httpClient *http.Client
}

// NewGroqProvider tạo tầng Groq; rps <= 0 thì không giới hạn tốc độ
func NewGroqProvider(baseURL, apiKey, model string, rps float64) *ChatCompletionProvider {
	return &ChatCompletionProvider{
		name:       "groq",
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		model:      model,
		requireKey: true,
		limiter:    newLimiter(rps),
		httpClient: &http.Client{Timeout: 90 * time.Second},
	}
}

// NewLocalProvider tạo tầng model chạy cục bộ (ví dụ Ollama tại http://localhost:11434/v1)
func NewLocalProvider(baseURL, model string) *ChatCompletionProvider {
	return &ChatCompletionProvider{
		name:       "local",
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		httpClient: &http.Client{Timeout: 5 * time.Minute},
	}
}

func newLimiter(rps float64) *rate.Limiter {
	if rps <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(rps), 1)
}

func (p *ChatCompletionProvider) Name() string { return p.name }

func (p *ChatCompletionProvider) Configured() bool {
	if p.baseURL == "" || p.model == "" {
		return false
	}
	return !p.requireKey || p.apiKey != ""
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature"`
	TopP        float64       `json:"top_p,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (p *ChatCompletionProvider) Generate(ctx context.Context, task Task, payload Payload) (string, error) {
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return "", err
		}
	}

	system, user := BuildPrompt(task, payload)
	reqBody := chatRequest{
		Model: p.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		MaxTokens:   maxTokensFor(task),
		Temperature: temperatureFor(task),
		TopP:        0.9,
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%s: gọi API lỗi: %w", p.name, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", fmt.Errorf("%s: đọc phản hồi lỗi: %w", p.name, err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%s: API trả về %d: %s", p.name, resp.StatusCode, truncate(string(raw), 300))
	}

	var out chatResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("%s: phản hồi không đúng định dạng: %w", p.name, err)
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("%s: phản hồi không có choices", p.name)
	}
	text := strings.TrimSpace(out.Choices[0].Message.Content)
	if text == "" {
		return "", fmt.Errorf("%s: phản hồi rỗng", p.name)
	}
	return text, nil
}

func maxTokensFor(task Task) int {
	switch task {
	case TaskMakeQuiz, TaskMakeFlashcards:
		return 2048
	default:
		return 1000
	}
}

func temperatureFor(task Task) float64 {
	if task == TaskChat {
		return 0.7
	}
	return 0.3
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
