package services

import (
	"strings"
	"unicode"
)

// ChunkText chia văn bản thành các đoạn không quá maxLen ký tự, ưu tiên cắt ở cuối câu,
// sau đó ở ngắt đoạn, ngắt dòng; không tìm được ranh giới thì cắt cứng.
func ChunkText(text string, maxLen int) []string {
	return ChunkTextWindow(text, maxLen, 300)
}

// ChunkTextWindow giống ChunkText nhưng cho phép chỉnh độ rộng vùng tìm ranh giới
func ChunkTextWindow(text string, maxLen, window int) []string {
	if maxLen < 1 {
		maxLen = 1
	}
	if window < 0 {
		window = 0
	}
	runes := []rune(text)
	if len(runes) <= maxLen {
		if t := strings.TrimSpace(text); t != "" {
			return []string{t}
		}
		return nil
	}

	var chunks []string
	start := 0
	for start < len(runes) {
		end := start + maxLen
		if end >= len(runes) {
			end = len(runes)
		} else if cut := findBoundary(runes, start, end, window); cut > start {
			end = cut
		}
		if t := strings.TrimSpace(string(runes[start:end])); t != "" {
			chunks = append(chunks, t)
		}
		start = end
	}
	return chunks
}

// findBoundary tìm vị trí cắt trong [end-window, end], trả về -1 nếu không có
func findBoundary(runes []rune, start, end, window int) int {
	lo := end - window
	if lo <= start {
		lo = start + 1
	}

	// kết thúc câu: . ! ? theo sau bởi khoảng trắng
	for i := end - 1; i >= lo; i-- {
		if unicode.IsSpace(runes[i]) && i > start && isSentenceEnd(runes[i-1]) {
			return i + 1
		}
	}
	// ngắt đoạn
	for i := end - 1; i >= lo; i-- {
		if runes[i] == '\n' && runes[i-1] == '\n' {
			return i + 1
		}
	}
	// ngắt dòng
	for i := end - 1; i >= lo; i-- {
		if runes[i] == '\n' {
			return i + 1
		}
	}
	return -1
}

func isSentenceEnd(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}
