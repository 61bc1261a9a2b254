package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/hilman45/ai-exam-prep-tutor/logger"
)

func TestCascadeFallsThroughToHeuristic(t *testing.T) {
	groq, gemini := failing("groq"), failing("gemini")
	c := withHeuristic(groq, gemini)
	chunks := ChunkText(biologyText, 200)

	qs, providers, err := c.Quiz(context.Background(), chunks, 10, nil)
	if err != nil {
		t.Fatalf("Quiz: %v", err)
	}
	if len(qs) < MinValidItems || len(qs) > 10 {
		t.Fatalf("got %d questions", len(qs))
	}
	if strings.Join(providers, ",") != "heuristic" {
		t.Fatalf("providers = %v", providers)
	}
	if groq.calls.Load() == 0 || gemini.calls.Load() == 0 {
		t.Fatal("remote tiers should have been tried first")
	}

	cards, _, err := c.Flashcards(context.Background(), chunks, 5, nil)
	if err != nil || len(cards) < MinValidItems {
		t.Fatalf("Flashcards: %d, %v", len(cards), err)
	}

	sum, err := c.Summarize(context.Background(), chunks, StyleBullets, nil)
	if err != nil || !strings.HasPrefix(sum.Text, "• ") {
		t.Fatalf("Summarize: %q, %v", sum.Text, err)
	}
}

func TestCascadeAdvancesPastMalformedOutput(t *testing.T) {
	partial := newFake("groq", func(context.Context, Task, Payload) (string, error) {
		return `[{"question": "What produces ATP?", "options": ["a", "b", "c"], "answer_index": 0},
		         {"question": "What builds proteins?", "options": ["a", "b", "c"], "answer_index": 1},
		         {"question": "bad", "options": []}]`, nil
	})
	good := newFake("local", func(context.Context, Task, Payload) (string, error) {
		return threeQuestions, nil
	})
	c := withHeuristic(partial, good)

	qs, providers, err := c.Quiz(context.Background(), []string{biologyText}, 3, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(qs) != 3 || strings.Join(providers, ",") != "local" {
		t.Fatalf("got %d questions from %v", len(qs), providers)
	}
}

func TestCascadeSkipsUnconfiguredTier(t *testing.T) {
	off := newFake("gemini", func(context.Context, Task, Payload) (string, error) {
		return "should not be called", nil
	})
	off.configured = false
	c := withHeuristic(off)

	if _, _, err := c.Quiz(context.Background(), []string{biologyText}, 3, nil); err != nil {
		t.Fatal(err)
	}
	if off.calls.Load() != 0 {
		t.Fatal("unconfigured tier was called")
	}
}

func TestCascadeTierTimeout(t *testing.T) {
	slow := newFake("local", func(ctx context.Context, _ Task, _ Payload) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})
	c := NewCascade([]Provider{slow, NewHeuristicProvider()}, CascadeOptions{Timeout: 50 * time.Millisecond}, logger.Nop())

	start := time.Now()
	res, err := c.Summarize(context.Background(), []string{biologyText}, StyleNormal, nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.Text == "" || strings.Join(res.Providers, ",") != "heuristic" {
		t.Fatalf("got %+v", res)
	}
	if time.Since(start) > 5*time.Second {
		t.Fatal("timeout was not applied")
	}
}

func TestCascadeResummarizesOnce(t *testing.T) {
	long := strings.Repeat("Cells divide and grow. ", 30)
	sum := newFake("groq", func(_ context.Context, _ Task, p Payload) (string, error) {
		return long, nil
	})
	c := NewCascade([]Provider{sum, NewHeuristicProvider()}, CascadeOptions{
		Timeout:              time.Second,
		Parallelism:          3,
		ResummarizeThreshold: 1000,
	}, logger.Nop())

	chunks := []string{"Chunk one text.", "Chunk two text.", "Chunk three text."}
	res, err := c.Summarize(context.Background(), chunks, StyleNormal, func(done, total int) {
		if total != 3 {
			t.Errorf("total = %d", total)
		}
	})
	if err != nil {
		t.Fatal(err)
	}
	// 3 đoạn + đúng 1 lần tóm tắt lại
	if got := sum.calls.Load(); got != 4 {
		t.Fatalf("provider called %d times", got)
	}
	if res.Text != strings.TrimSpace(long) {
		t.Fatalf("unexpected summary %q", res.Text)
	}
}

func TestCascadeSingleChunkNoResummarize(t *testing.T) {
	long := strings.Repeat("Cells divide and grow. ", 100)
	sum := newFake("groq", func(context.Context, Task, Payload) (string, error) { return long, nil })
	c := withHeuristic(sum)
	if _, err := c.Summarize(context.Background(), []string{"only chunk here"}, StyleNormal, nil); err != nil {
		t.Fatal(err)
	}
	if sum.calls.Load() != 1 {
		t.Fatalf("provider called %d times", sum.calls.Load())
	}
}

func TestCascadeUnusableInput(t *testing.T) {
	c := withHeuristic()
	_, err := c.Summarize(context.Background(), []string{"  ", "!!"}, StyleNormal, nil)
	if KindOf(err) != KindUnprocessableContent {
		t.Fatalf("expected unprocessable_content, got %v", err)
	}
	_, _, err = c.Quiz(context.Background(), nil, 5, nil)
	if KindOf(err) != KindUnprocessableContent {
		t.Fatalf("expected unprocessable_content, got %v", err)
	}
}

func TestCascadeAllProvidersFailed(t *testing.T) {
	c := testCascade(failing("groq"), failing("gemini"))
	_, _, err := c.Flashcards(context.Background(), []string{biologyText}, 5, nil)
	var ce *CascadeError
	if !errors.As(err, &ce) {
		t.Fatalf("expected CascadeError, got %v", err)
	}
	if len(ce.Failures) != 2 || KindOf(err) != KindAllProvidersFailed {
		t.Fatalf("failures = %+v", ce.Failures)
	}
}

func TestCascadeDedupesAcrossChunks(t *testing.T) {
	// mọi đoạn trả cùng một bộ câu hỏi: sau khi loại trùng vẫn còn 3
	same := newFake("groq", func(context.Context, Task, Payload) (string, error) { return threeQuestions, nil })
	c := withHeuristic(same)
	chunks := []string{"chunk one", "chunk two", "chunk three", "chunk four"}

	qs, _, err := c.Quiz(context.Background(), chunks, 9, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(qs) != 3 {
		t.Fatalf("got %d questions", len(qs))
	}
	if same.calls.Load() != 3 {
		t.Fatalf("expected 3 chunks sampled, got %d calls", same.calls.Load())
	}
}

func TestCascadeChatRequiresMessage(t *testing.T) {
	c := withHeuristic()
	if _, _, err := c.Chat(context.Background(), Payload{Message: "  ", Mode: ChatNotes}); KindOf(err) != KindInvalidInput {
		t.Fatalf("expected invalid_input, got %v", err)
	}
	reply, provider, err := c.Chat(context.Background(), Payload{Message: "why is my answer wrong?", Mode: ChatQuiz,
		Quiz: &QuizChatContext{CorrectAnswer: "Mitochondria", UserAnswer: "Nucleus"}})
	if err != nil || provider != "heuristic" || !strings.Contains(reply, "Mitochondria") {
		t.Fatalf("got %q from %s, %v", reply, provider, err)
	}
}

func TestClampCount(t *testing.T) {
	for in, want := range map[int]int{-1: 10, 0: 10, 1: 3, 3: 3, 25: 25, 50: 50, 51: 50, 1000: 50} {
		if got := ClampCount(in); got != want {
			t.Fatalf("ClampCount(%d) = %d, want %d", in, got, want)
		}
	}
}

func ExampleClampCount() {
	fmt.Println(ClampCount(0), ClampCount(2), ClampCount(80))
	// Output: 10 3 50
}
