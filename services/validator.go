package services

import (
	"encoding/json"
	"strings"

	"github.com/hilman45/ai-exam-prep-tutor/models"
)

const (
	MinValidItems    = 3
	MaxItemCount     = 50
	DefaultItemCount = 10

	minQuestionLen = 5
	minCardSideLen = 3
	minOptions     = 3
)

// ParseQuiz trích danh sách câu hỏi hợp lệ từ đầu ra của model, loại bỏ phần tử sai
func ParseQuiz(raw string) ([]models.QuizQuestion, error) {
	for _, items := range candidateArrays(raw, "questions", "quiz", "items", "data") {
		var out []models.QuizQuestion
		for _, item := range items {
			if q, ok := decodeQuestion(item); ok {
				out = append(out, q)
			}
		}
		if len(out) >= MinValidItems {
			return out, nil
		}
	}
	return nil, errValidation("không đủ %d câu hỏi hợp lệ", MinValidItems)
}

// ParseFlashcards trích danh sách thẻ hợp lệ, yêu cầu tối thiểu MinValidItems thẻ
func ParseFlashcards(raw string) ([]models.Flashcard, error) {
	for _, items := range candidateArrays(raw, "flashcards", "cards", "items", "data") {
		var out []models.Flashcard
		for _, item := range items {
			if c, ok := decodeCard(item); ok {
				out = append(out, c)
			}
		}
		if len(out) >= MinValidItems {
			return out, nil
		}
	}
	return nil, errValidation("không đủ %d flashcard hợp lệ", MinValidItems)
}

// ParseSummary chấp nhận văn bản thuần hoặc JSON {"summary": "..."}
func ParseSummary(raw string) (string, error) {
	text := strings.TrimSpace(stripFences(raw))
	if strings.HasPrefix(text, "{") {
		var obj map[string]any
		if json.Unmarshal([]byte(text), &obj) == nil {
			text = strings.TrimSpace(firstString(obj, "summary", "summary_text", "text"))
		}
	}
	if text == "" {
		return "", errValidation("tóm tắt rỗng")
	}
	return text, nil
}

func ParseChat(raw string) (string, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return "", errValidation("phản hồi rỗng")
	}
	return text, nil
}

// candidateArrays sinh các mảng ứng viên theo thứ tự sửa lỗi:
// nguyên chuỗi, bỏ code fence, mảng [...] đầu tiên, object {...} đầu tiên
func candidateArrays(raw string, wrapperKeys ...string) [][]any {
	trimmed := strings.TrimSpace(raw)
	unfenced := strings.TrimSpace(stripFences(trimmed))
	sources := []string{trimmed, unfenced}
	if s := firstBalanced(unfenced, '[', ']'); s != "" {
		sources = append(sources, s)
	}
	if s := firstBalanced(unfenced, '{', '}'); s != "" {
		sources = append(sources, s)
	}

	var out [][]any
	seen := map[string]bool{}
	for _, src := range sources {
		if src == "" || seen[src] {
			continue
		}
		seen[src] = true

		var v any
		if err := json.Unmarshal([]byte(src), &v); err != nil {
			continue
		}
		switch t := v.(type) {
		case []any:
			out = append(out, t)
		case map[string]any:
			for _, k := range wrapperKeys {
				if arr, ok := t[k].([]any); ok {
					out = append(out, arr)
					break
				}
			}
		}
	}
	return out
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	start := strings.Index(s, "```")
	if start < 0 {
		return s
	}
	rest := s[start+3:]
	// bỏ nhãn ngôn ngữ sau ``` (json, JSON, ...)
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 && !strings.ContainsAny(rest[:nl], "[{") {
		rest = rest[nl+1:]
	}
	if end := strings.LastIndex(rest, "```"); end >= 0 {
		rest = rest[:end]
	}
	return strings.TrimSpace(rest)
}

// firstBalanced quét tìm khối open...close cân bằng đầu tiên, bỏ qua ký tự trong chuỗi JSON
func firstBalanced(s string, open, close byte) string {
	start := strings.IndexByte(s, open)
	for start >= 0 {
		depth := 0
		inString := false
		escaped := false
		for i := start; i < len(s); i++ {
			c := s[i]
			if inString {
				switch {
				case escaped:
					escaped = false
				case c == '\\':
					escaped = true
				case c == '"':
					inString = false
				}
				continue
			}
			switch c {
			case '"':
				inString = true
			case open:
				depth++
			case close:
				depth--
				if depth == 0 {
					return s[start : i+1]
				}
			}
		}
		next := strings.IndexByte(s[start+1:], open)
		if next < 0 {
			return ""
		}
		start += next + 1
	}
	return ""
}

func decodeQuestion(item any) (models.QuizQuestion, bool) {
	obj, ok := item.(map[string]any)
	if !ok {
		return models.QuizQuestion{}, false
	}
	text := strings.TrimSpace(firstString(obj, "question", "text", "prompt"))
	if len([]rune(text)) < minQuestionLen {
		return models.QuizQuestion{}, false
	}

	rawOptions, ok := obj["options"].([]any)
	if !ok {
		rawOptions, ok = obj["choices"].([]any)
	}
	if !ok || len(rawOptions) < minOptions {
		return models.QuizQuestion{}, false
	}

	options := make([]string, 0, len(rawOptions))
	flagged := -1
	for i, o := range rawOptions {
		var opt string
		switch v := o.(type) {
		case string:
			opt = v
		case map[string]any:
			opt = firstString(v, "text", "option_text", "option")
			if b, _ := v["is_correct"].(bool); b && flagged < 0 {
				flagged = i
			}
		}
		opt = strings.TrimSpace(opt)
		if opt == "" {
			return models.QuizQuestion{}, false
		}
		options = append(options, opt)
	}

	idx, found := answerIndex(obj, options)
	if !found {
		idx = flagged
	}
	if idx < 0 || idx >= len(options) {
		return models.QuizQuestion{}, false
	}
	return models.QuizQuestion{Text: text, Options: options, CorrectIndex: idx}, true
}

func answerIndex(obj map[string]any, options []string) (int, bool) {
	for _, key := range []string{"answer_index", "correct_index", "correctIndex", "answerIndex", "answer", "correct_answer"} {
		v, ok := obj[key]
		if !ok {
			continue
		}
		switch t := v.(type) {
		case float64:
			if t != float64(int(t)) {
				return -1, true
			}
			return int(t), true
		case string:
			s := strings.TrimSpace(t)
			if len(s) == 1 && s[0] >= 'A' && s[0] <= 'Z' {
				return int(s[0] - 'A'), true
			}
			if len(s) == 1 && s[0] >= 'a' && s[0] <= 'z' {
				return int(s[0] - 'a'), true
			}
			for i, opt := range options {
				if strings.EqualFold(opt, s) {
					return i, true
				}
			}
			return -1, true
		}
	}
	return -1, false
}

func decodeCard(item any) (models.Flashcard, bool) {
	obj, ok := item.(map[string]any)
	if !ok {
		return models.Flashcard{}, false
	}
	front := strings.TrimSpace(firstString(obj, "front", "question", "term"))
	back := strings.TrimSpace(firstString(obj, "back", "answer", "definition"))
	if len([]rune(front)) < minCardSideLen || len([]rune(back)) < minCardSideLen {
		return models.Flashcard{}, false
	}
	return models.Flashcard{Front: front, Back: back}, true
}

func firstString(obj map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := obj[k].(string); ok && strings.TrimSpace(s) != "" {
			return s
		}
	}
	return ""
}

// FormatSummary đưa tóm tắt về kiểu trình bày yêu cầu
func FormatSummary(text, style string) string {
	if style == StyleBullets {
		return FormatBullets(text)
	}
	return flattenBullets(text)
}

// FormatBullets tách theo ". ", giữ câu dài hơn 10 ký tự, mỗi câu một dòng "• "
func FormatBullets(text string) string {
	prose := flattenBullets(text)
	var points []string
	for _, s := range strings.Split(prose, ". ") {
		s = strings.TrimSpace(s)
		if len(s) <= 10 {
			continue
		}
		s = strings.TrimSuffix(s, ".")
		points = append(points, "• "+s)
	}
	if len(points) == 0 {
		return "• " + strings.TrimSuffix(strings.TrimSpace(prose), ".")
	}
	return strings.Join(points, "\n")
}

func flattenBullets(text string) string {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	if len(lines) == 1 {
		return strings.TrimSpace(lines[0])
	}
	parts := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		for _, marker := range []string{"• ", "- ", "* "} {
			line = strings.TrimPrefix(line, marker)
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if !strings.HasSuffix(line, ".") && !strings.HasSuffix(line, "!") && !strings.HasSuffix(line, "?") && !strings.HasSuffix(line, ":") {
			line += "."
		}
		parts = append(parts, line)
	}
	return strings.Join(parts, " ")
}

// ValidQuizQuestion áp dụng cùng luật với ParseQuiz cho câu hỏi đã có kiểu
func ValidQuizQuestion(q models.QuizQuestion) bool {
	if len([]rune(strings.TrimSpace(q.Text))) < minQuestionLen || len(q.Options) < minOptions {
		return false
	}
	for _, opt := range q.Options {
		if strings.TrimSpace(opt) == "" {
			return false
		}
	}
	return q.CorrectIndex >= 0 && q.CorrectIndex < len(q.Options)
}

func ValidFlashcard(c models.Flashcard) bool {
	return len([]rune(strings.TrimSpace(c.Front))) >= minCardSideLen &&
		len([]rune(strings.TrimSpace(c.Back))) >= minCardSideLen
}
