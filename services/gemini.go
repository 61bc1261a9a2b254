package services

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/generative-ai-go/genai"
	"golang.org/x/time/rate"
	"google.golang.org/api/option"
)

// GeminiProvider là tầng Gemini; client được tạo lười ở lần gọi đầu tiên
type GeminiProvider struct {
	apiKey  string
	model   string
	limiter *rate.Limiter

	mu     sync.Mutex
	client *genai.Client
}

func NewGeminiProvider(apiKey, model string, rps float64) *GeminiProvider {
	return &GeminiProvider{apiKey: apiKey, model: model, limiter: newLimiter(rps)}
}

func (p *GeminiProvider) Name() string { return "gemini" }

func (p *GeminiProvider) Configured() bool { return p.apiKey != "" && p.model != "" }

func (p *GeminiProvider) getClient(ctx context.Context) (*genai.Client, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.client != nil {
		return p.client, nil
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(p.apiKey))
	if err != nil {
		return nil, fmt.Errorf("không thể tạo Gemini client: %v", err)
	}
	p.client = client
	return client, nil
}

func (p *GeminiProvider) Generate(ctx context.Context, task Task, payload Payload) (string, error) {
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return "", err
		}
	}
	client, err := p.getClient(context.WithoutCancel(ctx))
	if err != nil {
		return "", err
	}

	system, user := BuildPrompt(task, payload)
	model := client.GenerativeModel(p.model)
	model.SystemInstruction = genai.NewUserContent(genai.Text(system))
	model.SetTemperature(float32(temperatureFor(task)))
	if task == TaskMakeQuiz || task == TaskMakeFlashcards {
		model.ResponseMIMEType = "application/json"
	}

	resp, err := model.GenerateContent(ctx, genai.Text(user))
	if err != nil {
		return "", fmt.Errorf("lỗi Gemini xử lý: %v", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini không trả kết quả hợp lệ")
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("gemini không trả kết quả hợp lệ")
	}
	return b.String(), nil
}

func (p *GeminiProvider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.client == nil {
		return nil
	}
	err := p.client.Close()
	p.client = nil
	return err
}
