package ingest

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Document is one loaded regulation source before chunking.
type Document struct {
	Source string
	Text   string
}

// LoadFile reads a regulation document from disk. HTML files are parsed
// and reduced to their visible text; everything else is treated as plain
// text.
func LoadFile(path string) (Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return Document{}, fmt.Errorf("open document: %w", err)
	}
	defer f.Close()

	source := filepath.Base(path)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		return loadHTML(f, source)
	default:
		return loadText(f, source)
	}
}

// LoadHTML extracts readable text from an HTML regulation page.
func LoadHTML(r io.Reader, source string) (Document, error) {
	return loadHTML(r, source)
}

func loadHTML(r io.Reader, source string) (Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return Document{}, fmt.Errorf("parse HTML: %w", err)
	}

	doc.Find("script, style, nav, header, footer").Remove()

	var b strings.Builder
	doc.Find("h1, h2, h3, h4, p, li, td").Each(func(_ int, sel *goquery.Selection) {
		text := strings.TrimSpace(sel.Text())
		if text == "" {
			return
		}
		b.WriteString(text)
		b.WriteString("\n")
	})

	text := strings.TrimSpace(b.String())
	if text == "" {
		// Page without the expected structure; fall back to the body text.
		text = strings.TrimSpace(doc.Find("body").Text())
	}
	if text == "" {
		return Document{}, fmt.Errorf("document %q contains no text", source)
	}
	return Document{Source: source, Text: text}, nil
}

func loadText(r io.Reader, source string) (Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Document{}, fmt.Errorf("read document: %w", err)
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return Document{}, fmt.Errorf("document %q contains no text", source)
	}
	return Document{Source: source, Text: text}, nil
}
