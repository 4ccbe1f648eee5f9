// Package vectorstore ranks stored document chunks against a query vector.
// Chunks and their embeddings live in Postgres; similarity is computed in
// process over the candidate set.
package vectorstore

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/google/uuid"

	"aurenlm-backend/internal/models"
)

// Scored pairs a chunk with its similarity to the query.
type Scored struct {
	Chunk models.Chunk
	Score float64
}

// Store is the retrieval surface the services depend on. Query with a nil
// vector degrades to leading-chunk selection in document order, so callers
// without an embedder still get context.
type Store interface {
	Add(ctx context.Context, documentID uuid.UUID, chunks []string, vectors [][]float32) error
	Query(ctx context.Context, vector []float32, documentIDs []uuid.UUID, k int) ([]Scored, error)
	Delete(ctx context.Context, documentID uuid.UUID) error
}

// chunkSource is the slice of the chunk repository the store needs.
type chunkSource interface {
	CreateBatch(ctx context.Context, chunks []models.Chunk) error
	ListByDocuments(ctx context.Context, documentIDs []uuid.UUID) ([]models.Chunk, error)
	DeleteByDocument(ctx context.Context, documentID uuid.UUID) error
}

type PGStore struct {
	chunks chunkSource
}

func New(chunks chunkSource) *PGStore {
	return &PGStore{chunks: chunks}
}

func (s *PGStore) Add(ctx context.Context, documentID uuid.UUID, chunks []string, vectors [][]float32) error {
	if len(vectors) > 0 && len(vectors) != len(chunks) {
		return fmt.Errorf("vector count %d does not match chunk count %d", len(vectors), len(chunks))
	}
	records := make([]models.Chunk, len(chunks))
	for i, content := range chunks {
		records[i] = models.Chunk{
			ID:         uuid.New(),
			DocumentID: documentID,
			Index:      i,
			Content:    content,
		}
		if len(vectors) > 0 {
			records[i].Embedding = vectors[i]
		}
	}
	return s.chunks.CreateBatch(ctx, records)
}

func (s *PGStore) Query(ctx context.Context, vector []float32, documentIDs []uuid.UUID, k int) ([]Scored, error) {
	if k <= 0 {
		k = 5
	}
	candidates, err := s.chunks.ListByDocuments(ctx, documentIDs)
	if err != nil {
		return nil, err
	}

	if len(vector) == 0 {
		return leading(candidates, k), nil
	}

	scored := make([]Scored, 0, len(candidates))
	for _, c := range candidates {
		if len(c.Embedding) == 0 {
			continue
		}
		scored = append(scored, Scored{Chunk: c, Score: CosineSimilarity(vector, c.Embedding)})
	}
	if len(scored) == 0 {
		// Nothing was embedded; fall back to document order.
		return leading(candidates, k), nil
	}

	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	if len(scored) > k {
		scored = scored[:k]
	}
	return scored, nil
}

func (s *PGStore) Delete(ctx context.Context, documentID uuid.UUID) error {
	return s.chunks.DeleteByDocument(ctx, documentID)
}

// leading keeps the first k chunks per document order: a cheap stand-in for
// similarity when no vectors exist.
func leading(candidates []models.Chunk, k int) []Scored {
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].DocumentID != candidates[j].DocumentID {
			return candidates[i].DocumentID.String() < candidates[j].DocumentID.String()
		}
		return candidates[i].Index < candidates[j].Index
	})
	if len(candidates) > k {
		candidates = candidates[:k]
	}
	out := make([]Scored, len(candidates))
	for i, c := range candidates {
		out[i] = Scored{Chunk: c}
	}
	return out
}

// CosineSimilarity over float32 vectors. Mismatched lengths or zero vectors
// score 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
