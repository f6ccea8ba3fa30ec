// Package normalize rewrites student slang and abbreviations into the
// canonical vocabulary of the training regulations before classification
// and retrieval. Matching is whole-word, case-insensitive and
// longest-match-first.
package normalize

import (
	"regexp"
	"sort"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"
)

// Substitution records one applied rewrite for diagnostic surfacing.
type Substitution struct {
	Term      string // matched input term
	Canonical string // replacement
}

// Normalizer holds the slang/abbreviation table. It is safe for concurrent
/// use: Normalize/Explain take a read lock, AddTerm rebuilds the pattern
// under the write lock.
type Normalizer struct {
	mu      sync.RWMutex
	terms   map[string]string
	pattern *regexp.Regexp
}

// abbreviations maps common shorthand to official terminology.
var abbreviations = map[string]string{
	"sv":    "sinh viên",
	"gv":    "giảng viên",
	"cb":    "cán bộ",
	"hs":    "học sinh",
	"đktc":  "đăng ký tín chỉ",
	"đkhp":  "đăng ký học phần",
	"tc":    "tín chỉ",
	"hp":    "học phần",
	"hk":    "học kỳ",
	"ctđt":  "chương trình đào tạo",
	"tn":    "tốt nghiệp",
	"xltn":  "xét tốt nghiệp",
	"kltn":  "khóa luận tốt nghiệp",
	"đatn":  "đồ án tốt nghiệp",
	"dtb":   "điểm trung bình",
	"đtbhk": "điểm trung bình học kỳ",
	"đtbtl": "điểm trung bình tích lũy",
	"gpa":   "grade point average",
	"cpa":   "cumulative point average",
	"đk":    "đăng ký",
	"ktx":   "ký túc xá",
	"bhyt":  "bảo hiểm y tế",
	"qc":    "quy chế",
	"qđ":    "quyết định",
	"tb":    "thông báo",
}

// slangTerms maps informal student phrasing to regulation vocabulary.
var slangTerms = map[string]string{
	"rớt môn":        "điểm f",
	"trượt môn":      "điểm f",
	"trượt":          "không đạt",
	"đậu":            "đạt",
	"học lại":        "đăng ký học lại",
	"điểm khủng":     "điểm cao",
	"điểm giỏi":      "điểm a",
	"điểm khá":       "điểm b",
	"điểm yếu":       "điểm d",
	"điểm kém":       "điểm f",
	"bay màu":        "điểm f",
	"toang":          "điểm f",
	"đăng ký môn":    "đăng ký học phần",
	"đk môn":         "đăng ký học phần",
	"rút môn":        "rút bớt học phần",
	"bỏ môn":         "rút bớt học phần",
	"nghỉ học":       "bảo lưu",
	"nghỉ tạm":       "bảo lưu tạm thời",
	"xin nghỉ":       "đơn xin nghỉ học",
	"ra trường":      "tốt nghiệp",
	"nhận bằng":      "cấp bằng tốt nghiệp",
	"bảo vệ":         "bảo vệ khóa luận",
	"bv đồ án":       "bảo vệ đồ án tốt nghiệp",
	"thầy":           "giảng viên",
	"cô":             "giảng viên",
	"phòng đào tạo":  "phòng quản lý đào tạo",
	"văn phòng khoa": "phòng đào tạo",
}

// New builds a normalizer preloaded with the default abbreviation and
// slang tables.
func New() *Normalizer {
	n := &Normalizer{
		terms: make(map[string]string, len(abbreviations)+len(slangTerms)),
	}
	for k, v := range abbreviations {
		n.terms[strings.ToLower(k)] = v
	}
	for k, v := range slangTerms {
		n.terms[strings.ToLower(k)] = v
	}
	n.pattern = buildPattern(n.terms)
	return n
}

// buildPattern compiles one alternation over all terms, longest first so
// multi-word phrases are not pre-empted by their own substrings.
func buildPattern(terms map[string]string) *regexp.Regexp {
	if len(terms) == 0 {
		return nil
	}
	keys := make([]string, 0, len(terms))
	for k := range terms {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	quoted := make([]string, len(keys))
	for i, k := range keys {
		quoted[i] = regexp.QuoteMeta(k)
	}
	return regexp.MustCompile(`(?i)(` + strings.Join(quoted, "|") + `)`)
}

// Normalize rewrites every whole-word occurrence of a known term.
func (n *Normalizer) Normalize(query string) string {
	n.mu.RLock()
	defer n.mu.RUnlock()

	if n.pattern == nil || query == "" {
		return query
	}

	var b strings.Builder
	last := 0
	for _, loc := range n.pattern.FindAllStringIndex(query, -1) {
		start, end := loc[0], loc[1]
		if !wholeWord(query, start, end) {
			continue
		}
		canonical, ok := n.terms[strings.ToLower(query[start:end])]
		if !ok {
			continue
		}
		b.WriteString(query[last:start])
		b.WriteString(canonical)
		last = end
	}
	b.WriteString(query[last:])
	return b.String()
}

// Explain returns every substitution Normalize would apply, in order of
// appearance in the input.
func (n *Normalizer) Explain(query string) []Substitution {
	n.mu.RLock()
	defer n.mu.RUnlock()

	if n.pattern == nil || query == "" {
		return nil
	}

	var subs []Substitution
	for _, loc := range n.pattern.FindAllStringIndex(query, -1) {
		start, end := loc[0], loc[1]
		if !wholeWord(query, start, end) {
			continue
		}
		matched := query[start:end]
		if canonical, ok := n.terms[strings.ToLower(matched)]; ok {
			subs = append(subs, Substitution{Term: matched, Canonical: canonical})
		}
	}
	return subs
}

// AddTerm registers an extra slang/abbreviation mapping at runtime. The
// match pattern is rebuilt before the next Normalize call observes it.
func (n *Normalizer) AddTerm(slang, canonical string) {
	slang = strings.ToLower(strings.TrimSpace(slang))
	canonical = strings.TrimSpace(canonical)
	if slang == "" || canonical == "" {
		return
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	n.terms[slang] = canonical
	n.pattern = buildPattern(n.terms)
}

// Len returns the number of registered terms.
func (n *Normalizer) Len() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.terms)
}

// wholeWord reports whether query[start:end] is not embedded in a larger
// word. The regexp engine cannot express this for Vietnamese letters, so
// neighbouring runes are inspected directly.
func wholeWord(s string, start, end int) bool {
	if start > 0 {
		prev, _ := utf8.DecodeLastRuneInString(s[:start])
		if unicode.IsLetter(prev) || unicode.IsDigit(prev) {
			return false
		}
	}
	if end < len(s) {
		next, _ := utf8.DecodeRuneInString(s[end:])
		if unicode.IsLetter(next) || unicode.IsDigit(next) {
			return false
		}
	}
	return true
}
