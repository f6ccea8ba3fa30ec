package workflow

import (
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/CuongLam1206/Chatbot-for-Student-Queries-on-Haui-Training-Rules/message"
)

// Category is the coarse query class decided before any retrieval work.
type Category int

const (
	CategoryGreeting Category = iota
	CategoryMetaConversation
	CategoryChitchat
	CategoryOutOfDomain
	CategoryDocumentRelated
)

func (c Category) String() string {
	switch c {
	case CategoryGreeting:
		return "greeting"
	case CategoryMetaConversation:
		return "meta_conversation"
	case CategoryChitchat:
		return "chitchat"
	case CategoryOutOfDomain:
		return "out_of_domain"
	case CategoryDocumentRelated:
		return "document_related"
	default:
		return "unknown"
	}
}

var greetingPatterns = []string{
	"xin chào", "chào", "hello", "hi", "hey",
	"chào bạn", "chào bot", "buổi sáng", "buổi chiều", "buổi tối",
}

var metaPatterns = []string{
	"tôi vừa hỏi", "câu hỏi trước", "bạn vừa nói",
	"tôi hỏi gì", "tôi đã hỏi", "câu trước",
	"what did i ask", "previous question",
}

var chitchatPatterns = []string{
	"bạn là ai", "tên bạn là gì", "bạn làm được gì",
	"who are you", "what's your name", "how are you",
	"cảm ơn", "thank you", "thanks", "ok", "tạm biệt", "bye",
}

var outOfDomainPatterns = []string{
	// Toán học
	"phương trình", "đạo hàm", "tích phân", "hình học", "đại số",
	"logarit", "lượng giác", "ma trận", "vector", "tổ hợp",
	// Vật lý, hóa học
	"lực", "gia tốc", "năng lượng", "nguyên tử", "phản ứng hóa học",
	// Lịch sử, địa lý
	"chiến tranh", "vua", "triều đại", "lãnh thổ", "đất nước",
	// Thời tiết, ẩm thực
	"thời tiết", "nấu ăn", "món ăn", "công thức nấu",
	// Thể thao, giải trí
	"bóng đá", "ca sĩ", "phim", "âm nhạc",
	// Lập trình
	"code python", "lập trình java", "debug", "algorithm",
	// Y tế
	"bệnh", "thuốc", "triệu chứng", "điều trị",
}

// Regulation vocabulary. A hit here always wins over the out-of-domain
// list, so mixed queries still reach retrieval.
var domainKeywords = []string{
	"sinh viên", "học phần", "tín chỉ", "điểm", "thi", "tốt nghiệp",
	"đào tạo", "học kỳ", "chương trình", "quy chế", "điều", "chương",
	"đăng ký", "rút bớt", "nghỉ học", "bảo lưu", "kỷ luật",
	"gpa", "cpa", "haui", "đại học công nghiệp",
}

func containsAny(s string, patterns []string) bool {
	for _, p := range patterns {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}

// Classify buckets the normalized query. Checks run in priority order;
// a regulation keyword overrides an out-of-domain hit.
func Classify(query string) Category {
	lower := strings.ToLower(query)

	if containsAny(lower, greetingPatterns) && len(strings.Fields(query)) <= 5 {
		return CategoryGreeting
	}
	if containsAny(lower, metaPatterns) {
		return CategoryMetaConversation
	}
	if containsAny(lower, chitchatPatterns) {
		return CategoryChitchat
	}
	if containsAny(lower, outOfDomainPatterns) && !containsAny(lower, domainKeywords) {
		return CategoryOutOfDomain
	}
	return CategoryDocumentRelated
}

var greetingResponses = []string{
	"Xin chào! Tôi là trợ lý AI của Trường Đại học Công nghiệp Hà Nội. Tôi có thể giúp bạn tìm hiểu về quy chế đào tạo. Bạn có câu hỏi gì không?",
	"Chào bạn! Tôi sẵn sàng hỗ trợ bạn về các vấn đề liên quan đến quy định đào tạo tại HaUI. Hãy đặt câu hỏi nhé!",
	"Xin chào! Rất vui được hỗ trợ bạn. Tôi có thể trả lời các câu hỏi về quy chế đào tạo, điều kiện tốt nghiệp, và các quy định khác của trường. Bạn cần hỏi gì?",
}

func handleGreeting() string {
	return greetingResponses[rand.IntN(len(greetingResponses))]
}

func handleChitchat(query string) string {
	lower := strings.ToLower(query)
	switch {
	case strings.Contains(lower, "bạn là ai") || strings.Contains(lower, "tên bạn"):
		return "Tôi là trợ lý AI của Trường Đại học Công nghiệp Hà Nội, được thiết kế để hỗ trợ sinh viên và giảng viên về các quy định đào tạo. Tôi có thể giúp bạn tìm hiểu về quy chế đào tạo, điều kiện tốt nghiệp, và các quy định khác của trường."
	case strings.Contains(lower, "cảm ơn") || strings.Contains(lower, "thank"):
		return "Rất vui được giúp đỡ bạn! Nếu có câu hỏi gì khác về quy chế đào tạo, đừng ngần ngại hỏi nhé."
	case strings.Contains(lower, "tạm biệt") || strings.Contains(lower, "bye"):
		return "Tạm biệt! Chúc bạn học tập tốt. Hẹn gặp lại!"
	default:
		return "Tôi được thiết kế để trả lời các câu hỏi về quy chế đào tạo tại ĐH Công nghiệp Hà Nội. Bạn có câu hỏi gì về quy định đào tạo, điều kiện tốt nghiệp, hoặc các vấn đề học tập không?"
	}
}

const outOfDomainResponse = `Xin lỗi, câu hỏi của bạn không thuộc phạm vi chuyên môn của tôi.

Tôi là trợ lý AI chuyên về Quy chế Đào tạo của Đại học Công nghiệp Hà Nội. Tôi có thể giúp bạn với các vấn đề như:
- Quy định về học tập, thi cử, và tốt nghiệp
- Điều kiện, thủ tục liên quan đến đào tạo
- Các quy chế, quy định của trường
- Câu hỏi về học phần, tín chỉ, GPA/CPA

Bạn có câu hỏi nào liên quan đến đào tạo tại HaUI mà tôi có thể giúp không?`

var allQuestionsPatterns = []string{
	"tất cả", "all", "toàn bộ", "những câu", "các câu",
	"danh sách", "list", "lịch sử",
}

// handleMeta answers questions about the conversation itself from history
// alone, without touching the LLM or the vector store.
func handleMeta(query string, hist []*message.Message) string {
	var userMessages []*message.Message
	for _, msg := range hist {
		if msg.Role == message.RoleUser {
			userMessages = append(userMessages, msg)
		}
	}
	if len(userMessages) == 0 {
		return "Bạn chưa hỏi câu nào trước đó trong cuộc hội thoại này."
	}

	lower := strings.ToLower(query)
	if containsAny(lower, allQuestionsPatterns) && len(userMessages) > 1 {
		var b strings.Builder
		fmt.Fprintf(&b, "Bạn đã hỏi tổng cộng %d câu hỏi trong cuộc hội thoại này:\n\n", len(userMessages))
		for i, msg := range userMessages {
			question := msg.Content
			if runes := []rune(question); len(runes) > 80 {
				question = string(runes[:77]) + "..."
			}
			fmt.Fprintf(&b, "%d. %s\n", i+1, question)
		}
		b.WriteString("\nBạn muốn hỏi thêm về vấn đề nào không?")
		return b.String()
	}

	last := userMessages[len(userMessages)-1].Content
	return fmt.Sprintf("Câu hỏi trước đó của bạn là: %q\n\nBạn có muốn hỏi thêm về vấn đề này không?", last)
}
