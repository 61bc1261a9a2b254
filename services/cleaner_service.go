package services

import (
	"regexp"
	"strings"
)

var (
	reTOC        = regexp.MustCompile(`(?im)^.*(mục lục|table of contents).*$`)
	rePageNumber = regexp.MustCompile(`(?im)^[ \t]*(trang|page)[ \t]*\d+([ \t]*(/|of)[ \t]*\d+)?[ \t]*$`)
	// "- 12 -", "12 / 40", "12 of 40"; số đứng một mình như 1945 hay 3.14 được giữ lại
	rePageMarker   = regexp.MustCompile(`(?im)^[ \t]*(?:[-\x{2013}\x{2014}][ \t]*\d{1,4}[ \t]*[-\x{2013}\x{2014}]|\d{1,4}[ \t]*(?:/|of)[ \t]*\d{1,4})[ \t]*$`)
	reDecoration   = regexp.MustCompile(`(?m)^[ \t]*[\p{P}\p{S}][ \t\p{P}\p{S}]*$`)
	reSpaces       = regexp.MustCompile(`[ \t]+`)
	reMultiNewLine = regexp.MustCompile(`\n{3,}`)
)

// PreCleanText xử lý thô văn bản trích xuất: bỏ dòng mục lục, số trang, dòng chỉ có ký hiệu trang trí,
// gộp khoảng trắng, giữ ngắt đoạn để chunker cắt đúng chỗ
func PreCleanText(text string) string {
	cleaned := strings.ReplaceAll(text, "\r\n", "\n")
	cleaned = reTOC.ReplaceAllString(cleaned, "")
	cleaned = rePageNumber.ReplaceAllString(cleaned, "")
	cleaned = rePageMarker.ReplaceAllString(cleaned, "")
	cleaned = reDecoration.ReplaceAllString(cleaned, "")
	cleaned = reSpaces.ReplaceAllString(cleaned, " ")
	cleaned = reMultiNewLine.ReplaceAllString(cleaned, "\n\n")
	return strings.TrimSpace(cleaned)
}
