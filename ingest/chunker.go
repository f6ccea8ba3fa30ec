package ingest

import (
	"regexp"
	"strings"
)

// Chunk is one indexable passage of a regulation document.
type Chunk struct {
	Content string
	DocType string
	Source  string
}

// Chunker splits regulation text into overlapping passages. Article and
// chapter headings start a fresh chunk and label everything under them.
type Chunker struct {
	chunkSize int
	overlap   int
}

const (
	defaultChunkSize = 800
	defaultOverlap   = 100
)

// NewChunker creates a chunker with rune-based size and overlap. Zero or
// negative arguments fall back to the defaults.
func NewChunker(chunkSize, overlap int) *Chunker {
	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}
	if overlap < 0 || overlap >= chunkSize {
		overlap = defaultOverlap
		if overlap >= chunkSize {
			overlap = chunkSize / 4
		}
	}
	return &Chunker{chunkSize: chunkSize, overlap: overlap}
}

var (
	articleHeadingRe = regexp.MustCompile(`(?m)^\s*Điều\s+\d+\b[^\n]*`)
	chapterHeadingRe = regexp.MustCompile(`(?mi)^\s*Chương\s+[IVX]+\b[^\n]*`)
)

// Split chunks a document. Text is first divided at article headings so a
// chunk never straddles two articles; oversized sections are further cut
// into overlapping windows. The doc_type label is the nearest enclosing
// heading ("Điều 12", "Chương III") or "Unknown" before the first one.
func (c *Chunker) Split(doc Document) []Chunk {
	text := strings.TrimSpace(doc.Text)
	if text == "" {
		return nil
	}

	var chunks []Chunk
	for _, section := range splitSections(text) {
		label := section.label
		if label == "" {
			label = "Unknown"
		}
		for _, piece := range c.window(section.text) {
			chunks = append(chunks, Chunk{
				Content: piece,
				DocType: label,
				Source:  doc.Source,
			})
		}
	}
	return chunks
}

type section struct {
	label string
	text  string
}

func splitSections(text string) []section {
	type heading struct {
		start, end int
		label      string
	}

	var headings []heading
	for _, loc := range chapterHeadingRe.FindAllStringIndex(text, -1) {
		headings = append(headings, heading{loc[0], loc[1], headingLabel(text[loc[0]:loc[1]])})
	}
	for _, loc := range articleHeadingRe.FindAllStringIndex(text, -1) {
		headings = append(headings, heading{loc[0], loc[1], headingLabel(text[loc[0]:loc[1]])})
	}
	if len(headings) == 0 {
		return []section{{text: text}}
	}

	// Order by position; chapter and article scans each return sorted
	// spans, so one merge-style sort pass is enough.
	for i := 1; i < len(headings); i++ {
		for j := i; j > 0 && headings[j].start < headings[j-1].start; j-- {
			headings[j], headings[j-1] = headings[j-1], headings[j]
		}
	}

	var sections []section
	if headings[0].start > 0 {
		if lead := strings.TrimSpace(text[:headings[0].start]); lead != "" {
			sections = append(sections, section{text: lead})
		}
	}
	for i, h := range headings {
		end := len(text)
		if i+1 < len(headings) {
			end = headings[i+1].start
		}
		body := strings.TrimSpace(text[h.start:end])
		if body != "" {
			sections = append(sections, section{label: h.label, text: body})
		}
	}
	return sections
}

// headingLabel reduces a heading line to its reference, e.g.
// "Điều 12. Đăng ký học phần" becomes "Điều 12".
func headingLabel(line string) string {
	line = strings.TrimSpace(line)
	if m := regexp.MustCompile(`^Điều\s+\d+`).FindString(line); m != "" {
		return m
	}
	if m := regexp.MustCompile(`(?i)^Chương\s+[IVX]+`).FindString(line); m != "" {
		return m
	}
	return line
}

// window cuts text into rune windows of chunkSize with the configured
// overlap between consecutive windows.
func (c *Chunker) window(text string) []string {
	runes := []rune(text)
	if len(runes) <= c.chunkSize {
		return []string{text}
	}

	step := c.chunkSize - c.overlap
	var pieces []string
	for start := 0; start < len(runes); start += step {
		end := start + c.chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		pieces = append(pieces, strings.TrimSpace(string(runes[start:end])))
		if end == len(runes) {
			break
		}
	}
	return pieces
}
