// Package index stores chunk embeddings partitioned by tenant and supports
// nearest-neighbor retrieval scoped to exactly one partition.
package index

import (
	"errors"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/eluia/eluia-api/internal/model"
)

// Index is an in-memory vector index. Each tenant owns one partition; a
// search can only ever touch the partition it is handed, so a mistake in the
// query layer cannot cross tenants.
type Index struct {
	mu         sync.RWMutex
	partitions map[string]*partition
}

// partition holds one tenant's chunk sets, keyed by document category.
type partition struct {
	mu          sync.RWMutex
	generations map[model.Category]*generation
}

// generation is one fully-formed chunk set produced by a single ingest.
// It is immutable after creation; ingests replace whole generations, so
// concurrent readers see either the old set or the new one, never a mix.
type generation struct {
	id        string
	createdAt time.Time
	chunks    []model.Chunk
	vectors   [][]float32
}

// New creates an empty index.
func New() *Index {
	return &Index{partitions: make(map[string]*partition)}
}

func (ix *Index) partitionFor(tenantID string, create bool) *partition {
	ix.mu.RLock()
	p := ix.partitions[tenantID]
	ix.mu.RUnlock()
	if p != nil || !create {
		return p
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()
	if p = ix.partitions[tenantID]; p == nil {
		p = &partition{generations: make(map[model.Category]*generation)}
		ix.partitions[tenantID] = p
	}
	return p
}

// Swap atomically replaces the tenant's chunk set for one category with a
// new generation. Vectors are L2-normalized on the way in so that searches
// reduce to dot products.
func (ix *Index) Swap(tenantID string, category model.Category, chunks []model.Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return errors.New("chunks and vectors length mismatch")
	}
	if len(chunks) == 0 {
		return errors.New("refusing to publish an empty generation")
	}

	dim := len(vectors[0])
	normalized := make([][]float32, len(vectors))
	for i, v := range vectors {
		if len(v) != dim {
			return errors.New("vector dimension mismatch")
		}
		normalized[i] = normalize(v)
	}

	gen := &generation{
		id:        uuid.New().String(),
		createdAt: time.Now().UTC(),
		chunks:    chunks,
		vectors:   normalized,
	}

	p := ix.partitionFor(tenantID, true)
	p.mu.Lock()
	p.generations[category] = gen
	p.mu.Unlock()

	return nil
}

// Drop removes the tenant's chunk set for one category.
func (ix *Index) Drop(tenantID string, category model.Category) {
	p := ix.partitionFor(tenantID, false)
	if p == nil {
		return
	}
	p.mu.Lock()
	delete(p.generations, category)
	p.mu.Unlock()
}

// ChunkCount returns the number of chunks currently live for a tenant
// across all categories.
func (ix *Index) ChunkCount(tenantID string) int {
	p := ix.partitionFor(tenantID, false)
	if p == nil {
		return 0
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	n := 0
	for _, g := range p.generations {
		n += len(g.chunks)
	}
	return n
}

type scored struct {
	chunk    model.Chunk
	score    float64
	genStamp time.Time
}

// Search ranks the tenant's chunks across all categories by cosine
// similarity to the query vector and returns the top k. Ties break by chunk
// recency (newer generation first) then ordinal position, so results are
// deterministic. Returns fewer than k results when the tenant has fewer
// chunks.
func (ix *Index) Search(tenantID string, query []float32, k int) []model.RetrievedChunk {
	if k <= 0 {
		return nil
	}

	p := ix.partitionFor(tenantID, false)
	if p == nil {
		return nil
	}

	q := normalize(query)

	p.mu.RLock()
	// Snapshot generation pointers so ranking runs without the lock.
	gens := make([]*generation, 0, len(p.generations))
	for _, g := range p.generations {
		gens = append(gens, g)
	}
	p.mu.RUnlock()

	var candidates []scored
	for _, g := range gens {
		for i := range g.chunks {
			candidates = append(candidates, scored{
				chunk:    g.chunks[i],
				score:    dot(g.vectors[i], q),
				genStamp: g.createdAt,
			})
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.score != b.score {
			return a.score > b.score
		}
		if !a.genStamp.Equal(b.genStamp) {
			return a.genStamp.After(b.genStamp)
		}
		return a.chunk.Ordinal < b.chunk.Ordinal
	})

	if k > len(candidates) {
		k = len(candidates)
	}

	results := make([]model.RetrievedChunk, 0, k)
	for _, c := range candidates[:k] {
		results = append(results, model.RetrievedChunk{Chunk: c.chunk, Score: c.score})
	}
	return results
}

func dot(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	sum := 0.0
	for i := 0; i < n; i++ {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

func normalize(v []float32) []float32 {
	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		return v
	}
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}
