package workflow

import (
	"fmt"
	"strings"
)

// systemRole frames every retrieval-backed completion. The assistant
// answers as an academic-affairs advisor for Hanoi University of Industry.
const systemRole = `Bạn là một chuyên gia tư vấn đào tạo tại Trường Đại học Công nghiệp Hà Nội.
Nhiệm vụ của bạn là trả lời các câu hỏi liên quan đến quy chế đào tạo đại học và cao đẳng hệ chính quy theo học chế tín chỉ.
Bạn cần:
1. Phân tích câu hỏi kỹ lưỡng
2. Tìm kiếm thông tin chính xác từ tài liệu
3. Suy luận logic để đưa ra câu trả lời đầy đủ
4. Trích dẫn nguồn cụ thể (Điều, Chương)
5. Thừa nhận nếu không tìm thấy thông tin`

func analysisPrompt(query string) string {
	return fmt.Sprintf(`Phân tích câu hỏi sau về quy chế đào tạo:

Câu hỏi: %s

Hãy trả về phân tích theo format JSON với các trường:
- intent: Loại câu hỏi (query: hỏi thông tin, definition: hỏi định nghĩa, procedure: hỏi quy trình, comparison: so sánh, calculation: tính toán)
- key_terms: List các từ khóa quan trọng
- entities: List các thực thể cụ thể (Điều số, Chương số, học phần, điểm số, etc.)
- complexity: simple/medium/complex
- sub_questions: Nếu câu hỏi phức tạp, chia thành các câu hỏi con (list)

Chỉ trả về JSON, không giải thích thêm.`, query)
}

func reformulationPrompt(query string, n int) string {
	return fmt.Sprintf(`Bạn là chuyên gia về quy chế đào tạo. Hãy tạo %d cách diễn đạt khác nhau cho câu hỏi sau để tìm kiếm thông tin hiệu quả hơn.

Câu hỏi gốc: %s

Yêu cầu:
1. Giữ nguyên ý nghĩa câu hỏi
2. Sử dụng từ khóa và thuật ngữ chính thức trong quy chế
3. Mỗi cách diễn đạt nên tập trung vào khía cạnh khác nhau của câu hỏi

Trả về %d câu hỏi, mỗi câu trên một dòng, không đánh số.`, n, query, n)
}

func expansionPrompt(query string) string {
	return fmt.Sprintf(`Hãy mở rộng câu hỏi sau bằng cách thêm các từ đồng nghĩa, thuật ngữ liên quan trong quy chế đào tạo:

Câu hỏi: %s

Trả về câu hỏi đã được mở rộng (chỉ 1 câu duy nhất).`, query)
}

func reasoningPrompt(query, context string) string {
	return fmt.Sprintf(`%s

Dựa vào các tài liệu sau, hãy trả lời câu hỏi một cách chính xác và đầy đủ.

TÀI LIỆU THAM KHẢO:
%s

CÂU HỎI: %s

YÊU CẦU:
1. Trả lời chính xác dựa trên tài liệu
2. Trích dẫn cụ thể (Điều số, Chương số)
3. Nếu có nhiều điều kiện, liệt kê rõ ràng
4. Nếu không chắc chắn, nói rõ

TRẢ LỜI:`, systemRole, context, query)
}

func synthesisPrompt(query string, subAnswers []string) string {
	return fmt.Sprintf(`Dựa vào các câu trả lời cho các câu hỏi con, hãy tổng hợp thành một câu trả lời hoàn chỉnh cho câu hỏi gốc.

CÂU HỎI GỐC: %s

CÁC CÂU TRẢ LỜI CON:
%s

Hãy tổng hợp thành câu trả lời mạch lạc, đầy đủ và dễ hiểu.`, query, strings.Join(subAnswers, "\n\n"))
}

func validationPrompt(query, answer, context string) string {
	return fmt.Sprintf(`Đánh giá chất lượng câu trả lời sau:

CÂU HỎI: %s

CÂU TRẢ LỜI: %s

TÀI LIỆU THAM KHẢO:
%s

Hãy đánh giá theo các tiêu chí:
1. Câu trả lời có trả lời đầy đủ câu hỏi không?
2. Thông tin có chính xác dựa trên tài liệu không?
3. Có thiếu thông tin quan trọng nào không?
4. Có thông tin sai lệch hoặc bịa đặt không?

Trả về JSON với format:
{
  "is_valid": true/false,
  "confidence": 0.0-1.0,
  "issues": ["vấn đề 1", "vấn đề 2"],
  "suggestions": ["gợi ý 1", "gợi ý 2"]
}

Chỉ trả về JSON, không giải thích.`, query, answer, context)
}
