package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"unicode"
)

// HeuristicProvider là tầng cuối: trích xuất tất định từ chính văn bản, không gọi ra ngoài.
// Với văn bản dùng được, kết quả luôn qua được bộ kiểm tra.
type HeuristicProvider struct{}

func NewHeuristicProvider() *HeuristicProvider { return &HeuristicProvider{} }

func (HeuristicProvider) Name() string { return "heuristic" }

func (HeuristicProvider) Configured() bool { return true }

func (h HeuristicProvider) Generate(ctx context.Context, task Task, p Payload) (string, error) {
	if task == TaskChat {
		return chatFallback(p), nil
	}
	text := strings.TrimSpace(p.Text)
	if !Usable(text) {
		return "", fmt.Errorf("heuristic: văn bản không đủ nội dung")
	}
	switch task {
	case TaskSummarize:
		return extractiveSummary(text, 5), nil
	case TaskMakeQuiz:
		return clozeQuiz(text, heuristicCount(p.Count))
	case TaskMakeFlashcards:
		return termCards(text, heuristicCount(p.Count))
	}
	return "", ErrTaskUnsupported
}

// Usable: ít nhất 3 ký tự không phải khoảng trắng và có chữ hoặc số
func Usable(text string) bool {
	n := 0
	alnum := false
	for _, r := range text {
		if unicode.IsSpace(r) {
			continue
		}
		n++
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			alnum = true
		}
	}
	return n >= 3 && alnum
}

func heuristicCount(n int) int {
	if n < MinValidItems {
		return MinValidItems
	}
	if n > MaxItemCount {
		return MaxItemCount
	}
	return n
}

var stopwords = map[string]bool{
	"the": true, "and": true, "that": true, "this": true, "with": true, "from": true,
	"have": true, "were": true, "which": true, "their": true, "there": true, "these": true,
	"those": true, "been": true, "into": true, "also": true, "than": true, "then": true,
	"them": true, "they": true, "what": true, "when": true, "where": true, "will": true,
	"would": true, "could": true, "should": true, "about": true, "other": true, "such": true,
	"some": true, "more": true, "most": true, "only": true, "over": true, "very": true,
	"each": true, "because": true, "while": true, "being": true, "does": true, "your": true,
}

func splitSentences(text string) []string {
	var out []string
	var b strings.Builder
	runes := []rune(text)
	for i, r := range runes {
		if r == '\n' {
			if s := strings.TrimSpace(b.String()); s != "" {
				out = append(out, s)
			}
			b.Reset()
			continue
		}
		b.WriteRune(r)
		if isSentenceEnd(r) && (i+1 == len(runes) || unicode.IsSpace(runes[i+1])) {
			if s := strings.TrimSpace(b.String()); s != "" {
				out = append(out, s)
			}
			b.Reset()
		}
	}
	if s := strings.TrimSpace(b.String()); s != "" {
		out = append(out, s)
	}
	return out
}

func words(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-'
	})
}

// keyTerms xếp các từ theo tần suất giảm dần, hoà thì theo vị trí xuất hiện đầu tiên
func keyTerms(text string) []string {
	type term struct {
		word  string
		count int
		first int
	}
	seen := map[string]*term{}
	var order []*term
	collect := func(minLen int, skipStop bool) {
		for i, w := range words(text) {
			w = strings.Trim(w, "-")
			key := strings.ToLower(w)
			if len([]rune(w)) < minLen || (skipStop && stopwords[key]) {
				continue
			}
			if t, ok := seen[key]; ok {
				t.count++
				continue
			}
			t := &term{word: w, count: 1, first: i}
			seen[key] = t
			order = append(order, t)
		}
	}
	collect(4, true)
	if len(order) == 0 {
		collect(1, false)
	}
	sort.SliceStable(order, func(i, j int) bool {
		if order[i].count != order[j].count {
			return order[i].count > order[j].count
		}
		return order[i].first < order[j].first
	})
	out := make([]string, 0, len(order))
	for _, t := range order {
		out = append(out, t.word)
	}
	return out
}

func extractiveSummary(text string, limit int) string {
	sentences := splitSentences(text)
	if len(sentences) == 0 {
		return truncate(text, 300)
	}
	if len(sentences) <= limit {
		return strings.Join(sentences, " ")
	}

	freq := map[string]int{}
	for _, w := range words(text) {
		k := strings.ToLower(w)
		if len(k) >= 4 && !stopwords[k] {
			freq[k]++
		}
	}
	type scored struct {
		idx   int
		score float64
	}
	scores := make([]scored, len(sentences))
	for i, s := range sentences {
		ws := words(s)
		total := 0
		for _, w := range ws {
			total += freq[strings.ToLower(w)]
		}
		score := 0.0
		if len(ws) > 0 {
			score = float64(total) / float64(len(ws))
		}
		scores[i] = scored{idx: i, score: score}
	}
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].score > scores[j].score })
	picked := scores[:limit]
	sort.Slice(picked, func(i, j int) bool { return picked[i].idx < picked[j].idx })

	parts := make([]string, 0, limit)
	for _, s := range picked {
		parts = append(parts, sentences[s.idx])
	}
	return strings.Join(parts, " ")
}

func sentenceWith(sentences []string, term, fallback string) string {
	lower := strings.ToLower(term)
	for _, s := range sentences {
		if strings.Contains(strings.ToLower(s), lower) {
			return s
		}
	}
	return fallback
}

var fillerOptions = []string{"None of the above", "All of the above", "Not stated in the material"}

func clozeQuiz(text string, n int) (string, error) {
	sentences := splitSentences(text)
	terms := keyTerms(text)
	fallback := truncate(text, 300)

	type question struct {
		Question    string   `json:"question"`
		Options     []string `json:"options"`
		AnswerIndex int      `json:"answer_index"`
	}
	out := make([]question, 0, n)
	for i := 0; i < n; i++ {
		t := terms[i%len(terms)]
		s := sentenceWith(sentences, t, fallback)
		cloze := replaceFold(s, t, "_____")

		options := []string{t}
		for _, other := range terms {
			if len(options) == 4 {
				break
			}
			if !containsFold(options, other) {
				options = append(options, other)
			}
		}
		for _, f := range fillerOptions {
			if len(options) == 4 {
				break
			}
			if !containsFold(options, f) {
				options = append(options, f)
			}
		}
		correct := i % len(options)
		options[0], options[correct] = options[correct], options[0]

		out = append(out, question{
			Question:    fmt.Sprintf("Question %d: Which term completes the statement \"%s\"?", i+1, cloze),
			Options:     options,
			AnswerIndex: correct,
		})
	}
	data, err := json.Marshal(out)
	return string(data), err
}

func termCards(text string, n int) (string, error) {
	sentences := splitSentences(text)
	terms := keyTerms(text)
	fallback := truncate(text, 300)
	if len(sentences) == 0 {
		sentences = []string{fallback}
	}

	type card struct {
		Front string `json:"front"`
		Back  string `json:"back"`
	}
	out := make([]card, 0, n)
	for i := 0; i < n; i++ {
		if i < len(terms) {
			back := sentenceWith(sentences, terms[i], fallback)
			if len([]rune(strings.TrimSpace(back))) < 3 {
				back = fallback
			}
			out = append(out, card{
				Front: fmt.Sprintf("What does the material say about \"%s\"?", terms[i]),
				Back:  back,
			})
			continue
		}
		back := sentences[i%len(sentences)]
		if len([]rune(strings.TrimSpace(back))) < 3 {
			back = fallback
		}
		out = append(out, card{
			Front: fmt.Sprintf("Key point %d from the material", i+1),
			Back:  back,
		})
	}
	data, err := json.Marshal(out)
	return string(data), err
}

func replaceFold(s, old, repl string) string {
	idx := strings.Index(strings.ToLower(s), strings.ToLower(old))
	if idx < 0 || len(strings.ToLower(s)) != len(s) {
		return strings.Replace(s, old, repl, 1)
	}
	return s[:idx] + repl + s[idx+len(old):]
}

func containsFold(list []string, v string) bool {
	for _, item := range list {
		if strings.EqualFold(item, v) {
			return true
		}
	}
	return false
}

func chatFallback(p Payload) string {
	msg := strings.ToLower(p.Message)
	if p.Mode == ChatQuiz {
		correct, user := "", ""
		if p.Quiz != nil {
			correct, user = p.Quiz.CorrectAnswer, p.Quiz.UserAnswer
		}
		switch {
		case strings.Contains(msg, "why") && (strings.Contains(msg, "wrong") || strings.Contains(msg, "incorrect")):
			if user != "" && user != correct {
				return fmt.Sprintf("Your answer '%s' is incorrect. The correct answer is '%s'. I'd be happy to explain why in more detail, but I need an AI model configured. Please check your AI model configuration.", user, correct)
			}
			return "I can help explain why an answer is wrong! However, I need an AI model configured to provide detailed explanations. Please check your AI model configuration."
		case strings.Contains(msg, "explain") && strings.Contains(msg, "correct"):
			return fmt.Sprintf("The correct answer is '%s'. I'd be happy to explain why this is correct in more detail, but I need an AI model configured. Please check your AI model configuration.", correct)
		case strings.Contains(msg, "how") && strings.Contains(msg, "solve"):
			return "I can help you understand how to solve this type of question! However, I need an AI model configured to provide detailed explanations. Please check your AI model configuration."
		case strings.Contains(msg, "explain") && strings.Contains(msg, "concept"):
			return "I'd be happy to explain the concept! However, I need an AI model configured to provide detailed explanations. Please check your AI model configuration."
		}
		return fmt.Sprintf("I'm here to help with this quiz question! The correct answer is '%s'. However, I need an AI model configured to provide detailed responses. Please check your AI model configuration.", correct)
	}

	sentences := strings.Split(p.Text, ". ")
	switch {
	case strings.Contains(msg, "summarize") || strings.Contains(msg, "summary"):
		summary := strings.Join(sentences[:min(3, len(sentences))], ". ")
		if !strings.HasSuffix(summary, ".") {
			summary += "."
		}
		return fmt.Sprintf("Here's a brief summary of your notes:\n\n%s\n\nNote: For a more detailed AI-powered summary, please ensure your AI model is configured.", summary)
	case strings.Contains(msg, "explain") || strings.Contains(msg, "what is") || strings.Contains(msg, "what are"):
		return "I'd be happy to explain! However, I need an AI model configured to provide detailed explanations. Please check your AI model configuration."
	case strings.Contains(msg, "key points") || strings.Contains(msg, "main points"):
		points := strings.Join(sentences[:min(5, len(sentences))], "\n- ")
		return fmt.Sprintf("Here are some key points from your notes:\n\n- %s\n\nNote: For more comprehensive key points, please ensure your AI model is configured.", points)
	case strings.Contains(msg, "simplify") || strings.Contains(msg, "simpler"):
		return "I can help simplify your notes! However, I need an AI model configured to provide simplified explanations. Please check your AI model configuration."
	}
	return "I'm here to help with your notes! However, I need an AI model configured to provide detailed responses. Please check your AI model configuration."
}
