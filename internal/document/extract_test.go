package document

import (
	"archive/zip"
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eluia/eluia-api/internal/model"
)

// buildDOCX assembles a minimal .docx archive in memory.
func buildDOCX(t *testing.T, paragraphs []string) []byte {
	t.Helper()

	var body strings.Builder
	for _, p := range paragraphs {
		fmt.Fprintf(&body, "<w:p><w:r><w:t>%s</w:t></w:r></w:p>", p)
	}

	document := `<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:body>` + body.String() + `</w:body>
</w:document>`

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	f, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = f.Write([]byte(document))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	return buf.Bytes()
}

func TestExtractUnsupportedFormat(t *testing.T) {
	_, err := Extract("program.txt", []byte("plain text"), 100)
	assert.ErrorIs(t, err, model.ErrUnsupportedFormat)
}

func TestExtractDOCX(t *testing.T) {
	data := buildDOCX(t, []string{
		"Notre programme pour le logement.",
		"Des investissements dans les transports publics.",
	})

	pages, err := Extract("programme.docx", data, 100)
	require.NoError(t, err)
	require.Len(t, pages, 1)
	assert.Equal(t, 1, pages[0].Number)
	assert.Contains(t, pages[0].Text, "logement")
	assert.Contains(t, pages[0].Text, "transports")
}

func TestExtractDOCXSyntheticPages(t *testing.T) {
	// Each paragraph carries enough words to close a synthetic page.
	para := strings.Repeat("mot ", wordsPerSyntheticPage)
	data := buildDOCX(t, []string{para, para, para})

	pages, err := Extract("programme.docx", data, 100)
	require.NoError(t, err)
	require.Len(t, pages, 3)
	for i, page := range pages {
		assert.Equal(t, i+1, page.Number)
	}
}

func TestExtractDOCXEmptyDocument(t *testing.T) {
	data := buildDOCX(t, []string{"", "   "})

	_, err := Extract("vide.docx", data, 100)
	assert.ErrorIs(t, err, model.ErrParseFailure)
}

func TestExtractDOCXTooManyPages(t *testing.T) {
	para := strings.Repeat("mot ", wordsPerSyntheticPage)
	data := buildDOCX(t, []string{para, para, para})

	_, err := Extract("programme.docx", data, 2)
	assert.ErrorIs(t, err, model.ErrTooManyPages)
}

func TestExtractDOCXCorruptArchive(t *testing.T) {
	_, err := Extract("programme.docx", []byte("definitely not a zip"), 100)
	assert.ErrorIs(t, err, model.ErrParseFailure)
}

func TestExtractPDFCorrupt(t *testing.T) {
	_, err := Extract("programme.pdf", []byte("not a pdf at all"), 100)
	assert.ErrorIs(t, err, model.ErrParseFailure)
}
