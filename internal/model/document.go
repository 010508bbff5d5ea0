package model

import (
	"time"
)

// Category identifies which knowledge-base slot a document fills.
type Category string

const (
	CategoryProgram       Category = "program"
	CategoryTalkingPoints Category = "talking_points"
	CategoryCompetitive   Category = "competitive"
)

// Categories lists every document category in retrieval order.
var Categories = []Category{CategoryProgram, CategoryTalkingPoints, CategoryCompetitive}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	switch c {
	case CategoryProgram, CategoryTalkingPoints, CategoryCompetitive:
		return true
	}
	return false
}

// DocumentStatus is the processing state of an uploaded document.
type DocumentStatus string

const (
	StatusPending    DocumentStatus = "pending"
	StatusProcessing DocumentStatus = "processing"
	StatusReady      DocumentStatus = "ready"
	StatusFailed     DocumentStatus = "failed"
)

// Document is one uploaded file for a (tenant, category) pair. A new upload
// for the same category supersedes the previous document and its chunks.
type Document struct {
	ID          string         `json:"id"`
	TenantID    string         `json:"tenant_id"`
	Category    Category       `json:"category"`
	Filename    string         `json:"filename"`
	SizeBytes   int64          `json:"size_bytes"`
	PageCount   int            `json:"page_count"`
	ChunkCount  int            `json:"chunk_count"`
	Status      DocumentStatus `json:"status"`
	UploadedAt  time.Time      `json:"uploaded_at"`
	ProcessedAt *time.Time     `json:"processed_at,omitempty"`
}

// Chunk is a bounded passage of a document, the unit of retrieval and
// embedding. Immutable once created.
type Chunk struct {
	ID         string   `json:"id"`
	DocumentID string   `json:"document_id"`
	TenantID   string   `json:"tenant_id"`
	Category   Category `json:"category"`
	Ordinal    int      `json:"ordinal"`
	Page       int      `json:"page"`
	Text       string   `json:"text"`
}

// IngestResult is returned once an upload has been fully indexed.
type IngestResult struct {
	TotalPages  int `json:"total_pages"`
	TotalChunks int `json:"total_chunks"`
}

// RetrievedChunk is a chunk scored against a question.
type RetrievedChunk struct {
	Chunk Chunk   `json:"chunk"`
	Score float64 `json:"score"`
}
