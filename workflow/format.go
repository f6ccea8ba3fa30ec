package workflow

import (
	"fmt"
	"strings"
)

// formatAnswer appends the citation footer and, for low-confidence
// answers, a verification notice.
func formatAnswer(answer string, citations []string, confidence float64, requireCitations bool) string {
	formatted := answer
	if requireCitations && len(citations) > 0 {
		formatted = fmt.Sprintf("%s\n\n---\n**Nguồn tham khảo:** %s", answer, strings.Join(citations, ", "))
	}
	if confidence < 0.7 {
		formatted += fmt.Sprintf("\n\n*Lưu ý: Độ tin cậy của câu trả lời này là %.0f%%. Vui lòng kiểm tra lại hoặc hỏi cụ thể hơn.*", confidence*100)
	}
	return formatted
}
