package normalize

import (
	"strings"
	"testing"
)

func TestNormalizeAbbreviations(t *testing.T) {
	n := New()

	cases := []struct {
		in   string
		want string
	}{
		{"sv rớt môn phải làm gì", "sinh viên điểm f phải làm gì"},
		{"cách tính dtb của hk này", "cách tính điểm trung bình của học kỳ này"},
		{"đk môn thế nào", "đăng ký học phần thế nào"},
		{"SV cần bao nhiêu tc để tn", "sinh viên cần bao nhiêu tín chỉ để tốt nghiệp"},
	}

	for _, tc := range cases {
		if got := n.Normalize(tc.in); got != tc.want {
			t.Fatalf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNormalizeWholeWordOnly(t *testing.T) {
	n := New()

	// "sv" inside a larger word must not be rewritten.
	if got := n.Normalize("svtest không đổi"); got != "svtest không đổi" {
		t.Fatalf("embedded term rewritten: %q", got)
	}
	// "tc" inside "htcc" must survive.
	if got := n.Normalize("mã htcc giữ nguyên"); got != "mã htcc giữ nguyên" {
		t.Fatalf("embedded term rewritten: %q", got)
	}
}

func TestNormalizeLongestMatchFirst(t *testing.T) {
	n := New()

	// "đkhp" must win over the shorter "đk".
	if got := n.Normalize("đkhp ở đâu"); got != "đăng ký học phần ở đâu" {
		t.Fatalf("longest match lost: %q", got)
	}
	// The phrase "rớt môn" must win over any single-word entry.
	if got := n.Normalize("em bị rớt môn"); !strings.Contains(got, "điểm f") {
		t.Fatalf("phrase match lost: %q", got)
	}
}

func TestNormalizeCaseInsensitive(t *testing.T) {
	n := New()

	if got := n.Normalize("SV và GV"); got != "sinh viên và giảng viên" {
		t.Fatalf("case-insensitive match failed: %q", got)
	}
}

func TestNormalizeUnknownTextUnchanged(t *testing.T) {
	n := New()

	in := "điều kiện tốt nghiệp đại học chính quy"
	if got := n.Normalize(in); got != in {
		t.Fatalf("expected unchanged text, got %q", got)
	}
	if got := n.Normalize(""); got != "" {
		t.Fatalf("expected empty output, got %q", got)
	}
}

func TestExplainReportsSubstitutionsInOrder(t *testing.T) {
	n := New()

	subs := n.Explain("sv bị rớt môn ở hk này")

	if len(subs) != 3 {
		t.Fatalf("expected 3 substitutions, got %v", subs)
	}
	if subs[0].Term != "sv" || subs[0].Canonical != "sinh viên" {
		t.Fatalf("unexpected first substitution %+v", subs[0])
	}
	if subs[1].Term != "rớt môn" || subs[1].Canonical != "điểm f" {
		t.Fatalf("unexpected second substitution %+v", subs[1])
	}
	if subs[2].Term != "hk" || subs[2].Canonical != "học kỳ" {
		t.Fatalf("unexpected third substitution %+v", subs[2])
	}
}

func TestAddTermVisibleToNormalize(t *testing.T) {
	n := New()
	before := n.Len()

	n.AddTerm("qche", "quy chế")

	if n.Len() != before+1 {
		t.Fatalf("expected %d terms, got %d", before+1, n.Len())
	}
	if got := n.Normalize("qche thi cử"); got != "quy chế thi cử" {
		t.Fatalf("new term not applied: %q", got)
	}
}

func TestAddTermIgnoresEmpty(t *testing.T) {
	n := New()
	before := n.Len()

	n.AddTerm("", "quy chế")
	n.AddTerm("  ", "quy chế")
	n.AddTerm("abc", "")

	if n.Len() != before {
		t.Fatalf("expected no new terms, got %d (was %d)", n.Len(), before)
	}
}
