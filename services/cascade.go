package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hilman45/ai-exam-prep-tutor/config"
	"github.com/hilman45/ai-exam-prep-tutor/logger"
	"github.com/hilman45/ai-exam-prep-tutor/models"
)

// TierFailure ghi lại lý do một tầng bị bỏ qua hoặc thất bại
type TierFailure struct {
	Provider string `json:"provider"`
	Reason   string `json:"reason"`
}

// CascadeError: mọi tầng đều thất bại
type CascadeError struct {
	Task     Task
	Failures []TierFailure
}

func (e *CascadeError) Error() string {
	parts := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		parts = append(parts, f.Provider+": "+f.Reason)
	}
	return fmt.Sprintf("tất cả provider đều thất bại cho tác vụ %s (%s)", e.Task, strings.Join(parts, "; "))
}

// ProgressFunc được gọi mỗi khi xong một đoạn
type ProgressFunc func(done, total int)

type CascadeOptions struct {
	Timeout              time.Duration
	Parallelism          int
	ResummarizeThreshold int
}

type Cascade struct {
	providers   []Provider
	timeout     time.Duration
	parallelism int
	threshold   int
	log         *logger.Logger
}

func NewCascade(providers []Provider, opts CascadeOptions, log *logger.Logger) *Cascade {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.Parallelism < 1 {
		opts.Parallelism = 1
	}
	if opts.ResummarizeThreshold <= 0 {
		opts.ResummarizeThreshold = 1000
	}
	return &Cascade{
		providers:   providers,
		timeout:     opts.Timeout,
		parallelism: opts.Parallelism,
		threshold:   opts.ResummarizeThreshold,
		log:         log,
	}
}

// NewCascadeFromConfig dựng các tầng theo AI_PROVIDER_ORDER; heuristic luôn đứng cuối
func NewCascadeFromConfig(cfg config.AIConfig, log *logger.Logger) *Cascade {
	var providers []Provider
	hasHeuristic := false
	for _, name := range cfg.ProviderOrder {
		switch strings.ToLower(name) {
		case "groq":
			providers = append(providers, NewGroqProvider(cfg.GroqBaseURL, cfg.GroqAPIKey, cfg.GroqModel, cfg.GroqRPS))
		case "local":
			providers = append(providers, NewLocalProvider(cfg.LocalLLMURL, cfg.LocalLLMModel))
		case "gemini":
			providers = append(providers, NewGeminiProvider(cfg.GeminiAPIKey, cfg.GeminiModel, cfg.GeminiRPS))
		case "huggingface", "hf":
			providers = append(providers, NewHuggingFaceProvider(cfg.HFAPIKey, cfg.HFSummaryModel, cfg.HFTextModel, cfg.HFRPS))
		case "heuristic":
			hasHeuristic = true
		default:
			log.Warn("Bỏ qua provider không xác định", "provider", name)
		}
	}
	providers = append(providers, NewHeuristicProvider())
	if !hasHeuristic {
		log.Info("AI_PROVIDER_ORDER không có heuristic, tự thêm vào cuối")
	}
	return NewCascade(providers, CascadeOptions{
		Timeout:              cfg.Timeout,
		Parallelism:          cfg.Parallelism,
		ResummarizeThreshold: cfg.ResummarizeThreshold,
	}, log)
}

func (c *Cascade) Providers() []Provider { return c.providers }

// runTiers thử lần lượt từng tầng; lỗi gọi, quá thời gian hay đầu ra sai định dạng đều chuyển sang tầng kế
func runTiers[T any](ctx context.Context, c *Cascade, task Task, payload Payload, parse func(string) (T, error)) (T, string, error) {
	var zero T
	var failures []TierFailure
	for _, p := range c.providers {
		name := p.Name()
		if !p.Configured() {
			providerAttempts.WithLabelValues(name, string(task), outcomeSkipped).Inc()
			failures = append(failures, TierFailure{Provider: name, Reason: "not configured"})
			continue
		}

		tctx, cancel := context.WithTimeout(ctx, c.timeout)
		start := time.Now()
		raw, err := p.Generate(tctx, task, payload)
		timedOut := errors.Is(tctx.Err(), context.DeadlineExceeded)
		cancel()
		providerLatency.WithLabelValues(name, string(task)).Observe(time.Since(start).Seconds())

		if err != nil {
			outcome := outcomeError
			switch {
			case errors.Is(err, ErrTaskUnsupported):
				outcome = outcomeUnsupported
			case timedOut || errors.Is(err, context.DeadlineExceeded):
				outcome = outcomeTimeout
			}
			providerAttempts.WithLabelValues(name, string(task), outcome).Inc()
			failures = append(failures, TierFailure{Provider: name, Reason: outcome + ": " + err.Error()})
			if outcome != outcomeUnsupported {
				c.log.Warn("Provider thất bại, chuyển tầng", "provider", name, "task", task, "outcome", outcome, "error", err)
			}
			continue
		}

		v, err := parse(raw)
		if err != nil {
			providerAttempts.WithLabelValues(name, string(task), outcomeInvalid).Inc()
			failures = append(failures, TierFailure{Provider: name, Reason: string(KindValidationFailed) + ": " + err.Error()})
			c.log.Warn("Đầu ra không hợp lệ, chuyển tầng", "provider", name, "task", task, "error", err)
			continue
		}

		providerAttempts.WithLabelValues(name, string(task), outcomeSuccess).Inc()
		return v, name, nil
	}
	return zero, "", &CascadeError{Task: task, Failures: failures}
}

type SummaryResult struct {
	Text      string
	Providers []string
}

// Summarize tóm tắt từng đoạn qua toàn bộ chuỗi tầng, nối lại, và tóm tắt lại đúng một lần nếu quá dài
func (c *Cascade) Summarize(ctx context.Context, chunks []string, style string, progress ProgressFunc) (SummaryResult, error) {
	chunks = usableChunks(chunks)
	if len(chunks) == 0 {
		return SummaryResult{}, ErrUnprocessable("văn bản không đủ nội dung để tóm tắt")
	}

	summaries := make([]string, len(chunks))
	used := make([]string, len(chunks))
	if err := c.eachChunk(ctx, chunks, progress, func(ctx context.Context, i int, chunk string) error {
		s, name, err := runTiers(ctx, c, TaskSummarize, Payload{Text: chunk, Style: style}, ParseSummary)
		if err != nil {
			return err
		}
		summaries[i], used[i] = s, name
		return nil
	}); err != nil {
		return SummaryResult{}, err
	}

	combined := strings.Join(summaries, " ")
	if len(chunks) > 1 && len([]rune(combined)) > c.threshold {
		s, name, err := runTiers(ctx, c, TaskSummarize, Payload{Text: combined, Style: style}, ParseSummary)
		if err != nil {
			return SummaryResult{}, err
		}
		combined = s
		used = append(used, name)
	}

	return SummaryResult{Text: FormatSummary(combined, style), Providers: uniqueStrings(used)}, nil
}

// Quiz sinh count câu hỏi từ các đoạn chọn rải đều trong tài liệu
func (c *Cascade) Quiz(ctx context.Context, chunks []string, count int, progress ProgressFunc) ([]models.QuizQuestion, []string, error) {
	return generateItems(ctx, c, TaskMakeQuiz, chunks, count, ParseQuiz, func(q models.QuizQuestion) string { return q.Text }, progress)
}

func (c *Cascade) Flashcards(ctx context.Context, chunks []string, count int, progress ProgressFunc) ([]models.Flashcard, []string, error) {
	return generateItems(ctx, c, TaskMakeFlashcards, chunks, count, ParseFlashcards, func(f models.Flashcard) string { return f.Front }, progress)
}

// Chat trả lời câu hỏi của người học với ngữ cảnh ghi chú hoặc câu hỏi trắc nghiệm
func (c *Cascade) Chat(ctx context.Context, payload Payload) (string, string, error) {
	if strings.TrimSpace(payload.Message) == "" {
		return "", "", ErrInvalidInput("tin nhắn không được để trống")
	}
	return runTiers(ctx, c, TaskChat, payload, ParseChat)
}

func generateItems[T any](ctx context.Context, c *Cascade, task Task, chunks []string, count int,
	parse func(string) ([]T, error), key func(T) string, progress ProgressFunc) ([]T, []string, error) {

	count = ClampCount(count)
	chunks = usableChunks(chunks)
	if len(chunks) == 0 {
		return nil, nil, ErrUnprocessable("văn bản không đủ nội dung để tạo câu hỏi")
	}
	picked := pickEvenly(chunks, ceilDiv(count, MinValidItems))
	perChunk := ceilDiv(count, len(picked))
	if perChunk < MinValidItems {
		perChunk = MinValidItems
	}

	results := make([][]T, len(picked))
	used := make([]string, len(picked))
	if err := c.eachChunk(ctx, picked, progress, func(ctx context.Context, i int, chunk string) error {
		items, name, err := runTiers(ctx, c, task, Payload{Text: chunk, Count: perChunk}, parse)
		if err != nil {
			return err
		}
		results[i], used[i] = items, name
		return nil
	}); err != nil {
		return nil, nil, err
	}

	seen := map[string]bool{}
	var out []T
	for _, items := range results {
		for _, item := range items {
			k := strings.ToLower(strings.TrimSpace(key(item)))
			if seen[k] {
				continue
			}
			seen[k] = true
			out = append(out, item)
		}
	}
	if len(out) < MinValidItems {
		// trùng lặp giữa các đoạn làm hụt số lượng: dùng kết quả của đoạn nhiều phần tử nhất
		best := results[0]
		for _, items := range results[1:] {
			if len(items) > len(best) {
				best = items
			}
		}
		out = best
	}
	if len(out) > count {
		out = out[:count]
	}
	return out, uniqueStrings(used), nil
}

func (c *Cascade) eachChunk(ctx context.Context, chunks []string, progress ProgressFunc, fn func(context.Context, int, string) error) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.parallelism)
	var done atomic.Int32
	for i, chunk := range chunks {
		g.Go(func() error {
			if err := fn(gctx, i, chunk); err != nil {
				return err
			}
			if progress != nil {
				progress(int(done.Add(1)), len(chunks))
			}
			return nil
		})
	}
	return g.Wait()
}

// ClampCount: mặc định 10, giới hạn trong [3, 50]
func ClampCount(n int) int {
	switch {
	case n <= 0:
		return DefaultItemCount
	case n < MinValidItems:
		return MinValidItems
	case n > MaxItemCount:
		return MaxItemCount
	}
	return n
}

func usableChunks(chunks []string) []string {
	out := make([]string, 0, len(chunks))
	for _, ch := range chunks {
		if Usable(ch) {
			out = append(out, ch)
		}
	}
	return out
}

func pickEvenly(chunks []string, k int) []string {
	n := len(chunks)
	if k >= n {
		return chunks
	}
	if k < 1 {
		k = 1
	}
	out := make([]string, 0, k)
	for i := 0; i < k; i++ {
		out = append(out, chunks[i*n/k])
	}
	return out
}

func ceilDiv(a, b int) int {
	if b <= 0 {
		return a
	}
	return (a + b - 1) / b
}

func uniqueStrings(in []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, s := range in {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
