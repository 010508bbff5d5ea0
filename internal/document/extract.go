// Package document turns uploaded files into bounded, overlapping passages
// ready for embedding.
package document

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/eluia/eluia-api/internal/model"
)

// Page is one unit of extracted text. For PDFs it maps to a physical page;
// for Word documents paragraphs are grouped into ~500-word synthetic pages.
type Page struct {
	Number int
	Text   string
}

const wordsPerSyntheticPage = 500

// Extract parses the raw file according to its extension and returns the
// non-empty pages. Exceeding maxPages fails before any text is returned.
func Extract(filename string, data []byte, maxPages int) ([]Page, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return extractPDF(data, maxPages)
	case ".docx", ".doc":
		return extractDOCX(data, maxPages)
	default:
		return nil, model.ErrUnsupportedFormat
	}
}

func extractPDF(data []byte, maxPages int) (pages []Page, err error) {
	// The pdf package panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			pages = nil
			err = fmt.Errorf("%w: %v", model.ErrParseFailure, r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrParseFailure, err)
	}

	total := reader.NumPage()
	if total > maxPages {
		return nil, model.ErrTooManyPages
	}

	for i := 1; i <= total; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		pages = append(pages, Page{Number: i, Text: text})
	}

	if len(pages) == 0 {
		return nil, fmt.Errorf("%w: no text could be extracted", model.ErrParseFailure)
	}

	return pages, nil
}

func extractDOCX(data []byte, maxPages int) ([]Page, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: not a valid Word document", model.ErrParseFailure)
	}

	paragraphs, err := extractParagraphs(reader)
	if err != nil {
		return nil, err
	}

	// Group paragraphs into synthetic pages of roughly 500 words each.
	var pages []Page
	var current []string
	words := 0
	pageNum := 1

	flush := func() {
		if len(current) == 0 {
			return
		}
		pages = append(pages, Page{Number: pageNum, Text: strings.Join(current, "\n")})
		current = nil
		words = 0
		pageNum++
	}

	for _, p := range paragraphs {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		current = append(current, p)
		words += len(strings.Fields(p))
		if words >= wordsPerSyntheticPage {
			flush()
		}
	}
	flush()

	if len(pages) == 0 {
		return nil, fmt.Errorf("%w: no text could be extracted", model.ErrParseFailure)
	}
	if len(pages) > maxPages {
		return nil, model.ErrTooManyPages
	}

	return pages, nil
}

// documentXML mirrors the structure of word/document.xml.
type documentXML struct {
	Body struct {
		Paragraphs []paragraph `xml:"p"`
	} `xml:"body"`
}

type paragraph struct {
	Runs []run `xml:"r"`
}

type run struct {
	Text []textElement `xml:"t"`
}

type textElement struct {
	Content string `xml:",chardata"`
}

func extractParagraphs(reader *zip.Reader) ([]string, error) {
	for _, file := range reader.File {
		if file.Name != "word/document.xml" {
			continue
		}

		rc, err := file.Open()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", model.ErrParseFailure, err)
		}

		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", model.ErrParseFailure, err)
		}

		var doc documentXML
		if err := xml.Unmarshal(content, &doc); err != nil {
			return nil, fmt.Errorf("%w: %v", model.ErrParseFailure, err)
		}

		paragraphs := make([]string, 0, len(doc.Body.Paragraphs))
		for _, para := range doc.Body.Paragraphs {
			var b strings.Builder
			for _, r := range para.Runs {
				for _, t := range r.Text {
					b.WriteString(t.Content)
				}
			}
			paragraphs = append(paragraphs, b.String())
		}
		return paragraphs, nil
	}

	return nil, fmt.Errorf("%w: missing word/document.xml", model.ErrParseFailure)
}
