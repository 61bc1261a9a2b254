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

const hfInferenceURL = "https://api-inference.huggingface.co/models/"

// HuggingFaceProvider dùng Inference API: model tóm tắt cho summarize, model sinh văn bản cho các tác vụ còn lại
type HuggingFaceProvider struct {
	apiKey       string
	summaryModel string
	textModel    string
	baseURL      string
	limiter      *rate.Limiter
	httpClient   *http.Client
}

func NewHuggingFaceProvider(apiKey, summaryModel, textModel string, rps float64) *HuggingFaceProvider {
	return &HuggingFaceProvider{
		apiKey:       apiKey,
		summaryModel: summaryModel,
		textModel:    textModel,
		baseURL:      hfInferenceURL,
		limiter:      newLimiter(rps),
		httpClient:   &http.Client{Timeout: 2 * time.Minute},
	}
}

func (p *HuggingFaceProvider) Name() string { return "huggingface" }

func (p *HuggingFaceProvider) Configured() bool { return p.apiKey != "" && p.summaryModel != "" }

func (p *HuggingFaceProvider) Generate(ctx context.Context, task Task, payload Payload) (string, error) {
	if task != TaskSummarize && p.textModel == "" {
		return "", ErrTaskUnsupported
	}
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return "", err
		}
	}

	if task == TaskSummarize {
		body := map[string]any{
			"inputs": payload.Text,
			"parameters": map[string]any{
				"max_length": 200,
				"min_length": 50,
				"do_sample":  false,
			},
		}
		var out []struct {
			SummaryText string `json:"summary_text"`
		}
		if err := p.post(ctx, p.summaryModel, body, &out); err != nil {
			return "", err
		}
		if len(out) == 0 || strings.TrimSpace(out[0].SummaryText) == "" {
			return "", fmt.Errorf("huggingface: không có summary_text")
		}
		return out[0].SummaryText, nil
	}

	system, user := BuildPrompt(task, payload)
	body := map[string]any{
		"inputs": system + "\n\n" + user,
		"parameters": map[string]any{
			"max_new_tokens":   maxTokensFor(task),
			"temperature":      temperatureFor(task),
			"return_full_text": false,
		},
	}
	var out []struct {
		GeneratedText string `json:"generated_text"`
	}
	if err := p.post(ctx, p.textModel, body, &out); err != nil {
		return "", err
	}
	if len(out) == 0 || strings.TrimSpace(out[0].GeneratedText) == "" {
		return "", fmt.Errorf("huggingface: không có generated_text")
	}
	return out[0].GeneratedText, nil
}

func (p *HuggingFaceProvider) post(ctx context.Context, model string, body any, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+model, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("huggingface: gọi API lỗi: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("huggingface: đọc phản hồi lỗi: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("huggingface: API trả về %d: %s", resp.StatusCode, truncate(string(raw), 300))
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("huggingface: phản hồi không đúng định dạng: %w", err)
	}
	return nil
}
