package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/eluia/eluia-api/internal/document"
	"github.com/eluia/eluia-api/internal/index"
	"github.com/eluia/eluia-api/internal/llm"
	"github.com/eluia/eluia-api/internal/model"
	"github.com/eluia/eluia-api/pkg/logger"
	"github.com/eluia/eluia-api/pkg/metrics"
)

// embedBatchSize bounds how many chunk texts go into one embeddings call.
const embedBatchSize = 64

// IngestConfig tunes the ingestion pipeline.
type IngestConfig struct {
	UploadDir     string
	MaxFileSizeMB int64
	MaxPages      int
	LLMTimeout    time.Duration
}

func (c *IngestConfig) defaults() {
	if c.UploadDir == "" {
		c.UploadDir = "uploads"
	}
	if c.MaxFileSizeMB <= 0 {
		c.MaxFileSizeMB = 50
	}
	if c.MaxPages <= 0 {
		c.MaxPages = 100
	}
	if c.LLMTimeout <= 0 {
		c.LLMTimeout = 30 * time.Second
	}
}

// IngestService orchestrates parse, chunk, embed and index for one upload.
type IngestService struct {
	tenants  *TenantService
	idx      *index.Index
	embedder llm.Embedder
	cache    *AnswerCache
	chunker  *document.Chunker
	cfg      IngestConfig
	logger   *logger.Logger
}

// NewIngestService creates a new ingestion pipeline.
func NewIngestService(
	tenants *TenantService,
	idx *index.Index,
	embedder llm.Embedder,
	cache *AnswerCache,
	chunker *document.Chunker,
	cfg IngestConfig,
	log *logger.Logger,
) (*IngestService, error) {
	cfg.defaults()
	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}
	return &IngestService{
		tenants:  tenants,
		idx:      idx,
		embedder: embedder,
		cache:    cache,
		chunker:  chunker,
		cfg:      cfg,
		logger:   log,
	}, nil
}

// supportedExt reports whether the filename carries an accepted extension.
func supportedExt(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf", ".doc", ".docx":
		return true
	}
	return false
}

// Ingest processes one upload end to end. On success the tenant's category
// knowledge base is swapped to the new chunk set and the tenant's answer
// cache is invalidated. On failure the previous generation stays live and
// nothing is invalidated.
func (s *IngestService) Ingest(ctx context.Context, tenantID string, category model.Category, filename string, data []byte) (*model.IngestResult, error) {
	start := time.Now()
	log := s.logger.WithTenant(tenantID).With(
		zap.String("category", string(category)),
		zap.String("filename", filename),
	)

	// Input validation happens before any state mutation.
	if !supportedExt(filename) {
		return nil, model.ErrUnsupportedFormat
	}
	if int64(len(data)) > s.cfg.MaxFileSizeMB*1024*1024 {
		return nil, model.ErrFileTooLarge
	}

	pages, err := document.Extract(filename, data, s.cfg.MaxPages)
	if err != nil {
		if err == model.ErrTooManyPages || err == model.ErrUnsupportedFormat {
			return nil, err
		}
		// Parse failures are processing errors: record them, keep the
		// previous ready document intact.
		doc, derr := s.tenants.BeginProcessing(ctx, tenantID, category, filename, int64(len(data)))
		if derr != nil {
			return nil, derr
		}
		s.tenants.MarkFailed(ctx, tenantID, doc)
		metrics.IngestDuration.WithLabelValues(string(category), "failed").Observe(time.Since(start).Seconds())
		log.Error("document parse failed", zap.Error(err))
		return nil, err
	}

	doc, err := s.tenants.BeginProcessing(ctx, tenantID, category, filename, int64(len(data)))
	if err != nil {
		return nil, err
	}

	chunks := s.chunker.Chunk(tenantID, doc.ID, category, pages)
	if len(chunks) == 0 {
		s.tenants.MarkFailed(ctx, tenantID, doc)
		return nil, fmt.Errorf("%w: document produced no chunks", model.ErrParseFailure)
	}

	vectors, err := s.embedChunks(ctx, chunks)
	if err != nil {
		s.tenants.MarkFailed(ctx, tenantID, doc)
		metrics.IngestDuration.WithLabelValues(string(category), "failed").Observe(time.Since(start).Seconds())
		log.Error("chunk embedding failed", zap.Error(err))
		return nil, fmt.Errorf("%w: embedding failed", model.ErrParseFailure)
	}

	if err := s.persistRaw(tenantID, category, filename, data); err != nil {
		s.tenants.MarkFailed(ctx, tenantID, doc)
		log.Error("failed to persist raw upload", zap.Error(err))
		return nil, err
	}

	// Publish: swap the generation, then invalidate cached answers built on
	// the superseded grounding data, then flip the processed flag.
	if err := s.idx.Swap(tenantID, category, chunks, vectors); err != nil {
		s.tenants.MarkFailed(ctx, tenantID, doc)
		return nil, err
	}
	s.cache.InvalidateTenant(tenantID)
	if err := s.tenants.MarkReady(ctx, tenantID, doc, len(pages), len(chunks)); err != nil {
		return nil, err
	}

	metrics.IngestDuration.WithLabelValues(string(category), "ready").Observe(time.Since(start).Seconds())
	metrics.ChunksIndexed.WithLabelValues(tenantID, string(category)).Set(float64(len(chunks)))
	log.Info("document ingested",
		zap.Int("pages", len(pages)),
		zap.Int("chunks", len(chunks)),
		zap.Duration("duration", time.Since(start)),
	)

	return &model.IngestResult{TotalPages: len(pages), TotalChunks: len(chunks)}, nil
}

func (s *IngestService) embedChunks(ctx context.Context, chunks []model.Chunk) ([][]float32, error) {
	vectors := make([][]float32, 0, len(chunks))

	for i := 0; i < len(chunks); i += embedBatchSize {
		end := i + embedBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}

		texts := make([]string, 0, end-i)
		for _, c := range chunks[i:end] {
			texts = append(texts, c.Text)
		}

		batchCtx, cancel := context.WithTimeout(ctx, s.cfg.LLMTimeout)
		batch, err := embedWithRetry(batchCtx, s.embedder, texts)
		cancel()
		if err != nil {
			return nil, err
		}
		vectors = append(vectors, batch...)
	}

	return vectors, nil
}

func (s *IngestService) persistRaw(tenantID string, category model.Category, filename string, data []byte) error {
	name := fmt.Sprintf("%s_%s_%s", tenantID, category, filepath.Base(filename))
	return os.WriteFile(filepath.Join(s.cfg.UploadDir, name), data, 0o644)
}
