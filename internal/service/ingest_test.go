package service

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eluia/eluia-api/internal/document"
	"github.com/eluia/eluia-api/internal/index"
	"github.com/eluia/eluia-api/internal/model"
	"github.com/eluia/eluia-api/pkg/logger"
)

type ingestFixture struct {
	svc     *IngestService
	tenants *TenantService
	tenant  *model.Tenant
	idx     *index.Index
	cache   *AnswerCache
	dir     string
}

func newIngestFixture(t *testing.T, embedder *fakeEmbedder) *ingestFixture {
	t.Helper()
	log := logger.NewNop()
	dir := t.TempDir()

	f := &ingestFixture{
		tenants: NewTenantService(log),
		idx:     index.New(),
		cache:   NewAnswerCache(0),
		dir:     dir,
	}

	tenant, err := f.tenants.Register(context.Background(), &model.RegisterRequest{
		Email: "marie@example.com", Password: "motdepasse", Name: "Marie Dupont",
	})
	require.NoError(t, err)
	f.tenant = tenant

	chunker := document.NewChunker(document.WithChunkWords(50), document.WithOverlapWords(10))
	svc, err := NewIngestService(f.tenants, f.idx, embedder, f.cache, chunker, IngestConfig{
		UploadDir:     dir,
		MaxFileSizeMB: 1,
		MaxPages:      5,
	}, log)
	require.NoError(t, err)
	f.svc = svc
	return f
}

// reload fetches a fresh tenant snapshot; the service getters return copies,
// so the fixture's registration-time tenant never sees later document state.
func (f *ingestFixture) reload(t *testing.T) *model.Tenant {
	t.Helper()
	tenant, err := f.tenants.Get(context.Background(), f.tenant.ID)
	require.NoError(t, err)
	return tenant
}

// docxWith assembles a minimal .docx archive in memory.
func docxWith(t *testing.T, paragraphs ...string) []byte {
	t.Helper()

	var body strings.Builder
	for _, p := range paragraphs {
		fmt.Fprintf(&body, "<w:p><w:r><w:t>%s</w:t></w:r></w:p>", p)
	}
	doc := `<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:body>` + body.String() + `</w:body>
</w:document>`

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	fw, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = fw.Write([]byte(doc))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	return buf.Bytes()
}

func TestIngestSuccess(t *testing.T) {
	f := newIngestFixture(t, &fakeEmbedder{vector: []float32{1, 0}})

	data := docxWith(t, "Nous construirons cinq cents logements sociaux avant la fin du mandat.")
	result, err := f.svc.Ingest(context.Background(), f.tenant.ID, model.CategoryProgram, "programme.docx", data)
	require.NoError(t, err)

	assert.Equal(t, 1, result.TotalPages)
	assert.Equal(t, 1, result.TotalChunks)
	assert.Equal(t, 1, f.idx.ChunkCount(f.tenant.ID))

	tenant := f.reload(t)
	assert.True(t, tenant.HasReadyDocument())

	doc := tenant.Documents[model.CategoryProgram]
	require.NotNil(t, doc)
	assert.Equal(t, model.StatusReady, doc.Status)
	assert.Equal(t, 1, doc.PageCount)
	assert.NotNil(t, doc.ProcessedAt)

	// The raw upload was kept on disk.
	entries, err := os.ReadDir(f.dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, strings.HasSuffix(entries[0].Name(), "programme.docx"))
}

func TestIngestUnsupportedFormat(t *testing.T) {
	f := newIngestFixture(t, &fakeEmbedder{vector: []float32{1, 0}})

	_, err := f.svc.Ingest(context.Background(), f.tenant.ID, model.CategoryProgram, "programme.txt", []byte("texte"))
	assert.ErrorIs(t, err, model.ErrUnsupportedFormat)
	assert.False(t, f.reload(t).HasReadyDocument())
}

func TestIngestFileTooLarge(t *testing.T) {
	f := newIngestFixture(t, &fakeEmbedder{vector: []float32{1, 0}})

	big := make([]byte, 2*1024*1024)
	_, err := f.svc.Ingest(context.Background(), f.tenant.ID, model.CategoryProgram, "programme.pdf", big)
	assert.ErrorIs(t, err, model.ErrFileTooLarge)
}

func TestIngestParseFailureKeepsPreviousDocument(t *testing.T) {
	f := newIngestFixture(t, &fakeEmbedder{vector: []float32{1, 0}})
	ctx := context.Background()

	good := docxWith(t, "Un programme complet pour la ville.")
	_, err := f.svc.Ingest(ctx, f.tenant.ID, model.CategoryProgram, "programme.docx", good)
	require.NoError(t, err)

	_, err = f.svc.Ingest(ctx, f.tenant.ID, model.CategoryProgram, "corrompu.docx", []byte("pas un zip"))
	require.ErrorIs(t, err, model.ErrParseFailure)

	// The previous generation stays live and queryable.
	tenant := f.reload(t)
	assert.True(t, tenant.HasReadyDocument())
	assert.Equal(t, 1, f.idx.ChunkCount(f.tenant.ID))
	assert.Equal(t, model.StatusReady, tenant.Documents[model.CategoryProgram].Status)
}

func TestIngestEmbeddingFailure(t *testing.T) {
	f := newIngestFixture(t, &fakeEmbedder{err: errors.New("embedding service down")})

	data := docxWith(t, "Un programme complet pour la ville.")
	_, err := f.svc.Ingest(context.Background(), f.tenant.ID, model.CategoryProgram, "programme.docx", data)
	require.ErrorIs(t, err, model.ErrParseFailure)
	assert.Zero(t, f.idx.ChunkCount(f.tenant.ID))
	assert.False(t, f.reload(t).HasReadyDocument())
}

func TestIngestInvalidatesAnswerCache(t *testing.T) {
	f := newIngestFixture(t, &fakeEmbedder{vector: []float32{1, 0}})
	ctx := context.Background()

	f.cache.Store(f.tenant.ID, "quelle est votre politique", "ancienne réponse")

	data := docxWith(t, "Un programme mis à jour pour la ville.")
	_, err := f.svc.Ingest(ctx, f.tenant.ID, model.CategoryProgram, "programme.docx", data)
	require.NoError(t, err)

	_, found := f.cache.Lookup(f.tenant.ID, "quelle est votre politique")
	assert.False(t, found)
}

func TestIngestUnknownTenant(t *testing.T) {
	f := newIngestFixture(t, &fakeEmbedder{vector: []float32{1, 0}})

	data := docxWith(t, "Un programme complet pour la ville.")
	_, err := f.svc.Ingest(context.Background(), "ghost", model.CategoryProgram, "programme.docx", data)
	assert.ErrorIs(t, err, model.ErrTenantNotFound)
}

func TestSupportedExt(t *testing.T) {
	assert.True(t, supportedExt("programme.pdf"))
	assert.True(t, supportedExt("Programme.DOCX"))
	assert.True(t, supportedExt(filepath.Join("dossier", "programme.doc")))
	assert.False(t, supportedExt("programme.txt"))
	assert.False(t, supportedExt("programme"))
}
