package extract

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

// ExtractionError marks a document payload the extractor could not read.
// The document gets no report entry; the rest of the bundle continues.
type ExtractionError struct {
	Name string
	Err  error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s: %v", e.Name, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// Extractor yields ordered paragraph text from raw payloads. Plain text and
// markdown are split on blank lines; HTML goes through goquery content
// selection. Binary formats such as DOCX are converted upstream by the
// external document reader and arrive here as plain text.
type Extractor struct{}

func New() *Extractor {
	return &Extractor{}
}

func (e *Extractor) Paragraphs(name string, data []byte) ([]string, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".html", ".htm":
		return e.htmlParagraphs(name, data)
	default:
		return e.textParagraphs(name, data)
	}
}

func (e *Extractor) textParagraphs(name string, data []byte) ([]string, error) {
	if !utf8.Valid(data) {
		return nil, &ExtractionError{Name: name, Err: fmt.Errorf("payload is not valid UTF-8 text")}
	}
	paragraphs := splitParagraphs(string(data))
	if len(paragraphs) == 0 {
		return nil, &ExtractionError{Name: name, Err: fmt.Errorf("no paragraph text found")}
	}
	return paragraphs, nil
}

func (e *Extractor) htmlParagraphs(name string, data []byte) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, &ExtractionError{Name: name, Err: err}
	}

	root := doc.Selection
	for _, selector := range []string{"main", "article", ".content", "#content"} {
		if selected := doc.Find(selector); selected.Length() > 0 {
			root = selected
			break
		}
	}

	var paragraphs []string
	root.Find("h1, h2, h3, h4, p, li").Each(func(_ int, sel *goquery.Selection) {
		if text := cleanText(sel.Text()); text != "" {
			paragraphs = append(paragraphs, text)
		}
	})

	// Pages without structural markup fall back to body text.
	if len(paragraphs) == 0 {
		paragraphs = splitParagraphs(doc.Find("body").Text())
	}
	if len(paragraphs) == 0 {
		return nil, &ExtractionError{Name: name, Err: fmt.Errorf("no paragraph text found")}
	}
	return paragraphs, nil
}

func splitParagraphs(text string) []string {
	var paragraphs []string
	for _, block := range strings.Split(text, "\n\n") {
		if cleaned := cleanText(block); cleaned != "" {
			paragraphs = append(paragraphs, cleaned)
		}
	}
	return paragraphs
}

func cleanText(text string) string {
	return strings.TrimSpace(strings.Join(strings.Fields(text), " "))
}
