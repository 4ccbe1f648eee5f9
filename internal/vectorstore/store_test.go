package vectorstore

import (
	"context"
	"math"
	"testing"

	"github.com/google/uuid"

	"aurenlm-backend/internal/models"
)

type fakeChunkSource struct {
	created []models.Chunk
	listed  []models.Chunk
	deleted []uuid.UUID
}

func (f *fakeChunkSource) CreateBatch(_ context.Context, chunks []models.Chunk) error {
	f.created = append(f.created, chunks...)
	return nil
}

func (f *fakeChunkSource) ListByDocuments(_ context.Context, _ []uuid.UUID) ([]models.Chunk, error) {
	return f.listed, nil
}

func (f *fakeChunkSource) DeleteByDocument(_ context.Context, id uuid.UUID) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 0}, []float32{1, 0}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"length mismatch", []float32{1, 0}, []float32{1}, 0},
		{"zero vector", []float32{0, 0}, []float32{1, 1}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CosineSimilarity(tt.a, tt.b)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("CosineSimilarity() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestQueryRanksBySimilarity(t *testing.T) {
	docID := uuid.New()
	src := &fakeChunkSource{
		listed: []models.Chunk{
			{DocumentID: docID, Index: 0, Content: "far", Embedding: []float32{0, 1}},
			{DocumentID: docID, Index: 1, Content: "near", Embedding: []float32{1, 0.01}},
			{DocumentID: docID, Index: 2, Content: "mid", Embedding: []float32{0.7, 0.7}},
		},
	}
	store := New(src)

	got, err := store.Query(context.Background(), []float32{1, 0}, []uuid.UUID{docID}, 2)
	if err != nil {
		t.Fatalf("Query() error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 results, got %d", len(got))
	}
	if got[0].Chunk.Content != "near" || got[1].Chunk.Content != "mid" {
		t.Errorf("wrong ranking: %q then %q", got[0].Chunk.Content, got[1].Chunk.Content)
	}
}

func TestQueryNilVectorFallsBackToLeading(t *testing.T) {
	docID := uuid.New()
	src := &fakeChunkSource{
		listed: []models.Chunk{
			{DocumentID: docID, Index: 2, Content: "third"},
			{DocumentID: docID, Index: 0, Content: "first"},
			{DocumentID: docID, Index: 1, Content: "second"},
		},
	}
	store := New(src)

	got, err := store.Query(context.Background(), nil, []uuid.UUID{docID}, 2)
	if err != nil {
		t.Fatalf("Query() error: %v", err)
	}
	if len(got) != 2 || got[0].Chunk.Content != "first" || got[1].Chunk.Content != "second" {
		t.Errorf("expected leading chunks in document order, got %v", got)
	}
}

func TestQueryUnembeddedCandidatesFallBack(t *testing.T) {
	docID := uuid.New()
	src := &fakeChunkSource{
		listed: []models.Chunk{
			{DocumentID: docID, Index: 0, Content: "a"},
			{DocumentID: docID, Index: 1, Content: "b"},
		},
	}
	store := New(src)

	// A vector query against chunks stored without embeddings must still
	// return context rather than nothing.
	got, err := store.Query(context.Background(), []float32{1, 0}, []uuid.UUID{docID}, 5)
	if err != nil {
		t.Fatalf("Query() error: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("expected fallback results, got %d", len(got))
	}
}

func TestAddAssignsIndexes(t *testing.T) {
	src := &fakeChunkSource{}
	store := New(src)
	docID := uuid.New()

	err := store.Add(context.Background(), docID, []string{"c0", "c1", "c2"}, nil)
	if err != nil {
		t.Fatalf("Add() error: %v", err)
	}
	if len(src.created) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(src.created))
	}
	for i, c := range src.created {
		if c.Index != i {
			t.Errorf("chunk %d has index %d", i, c.Index)
		}
		if c.DocumentID != docID {
			t.Errorf("chunk %d has wrong document id", i)
		}
	}
}

func TestAddVectorCountMismatch(t *testing.T) {
	store := New(&fakeChunkSource{})
	err := store.Add(context.Background(), uuid.New(), []string{"a", "b"}, [][]float32{{1}})
	if err == nil {
		t.Error("expected error on vector/chunk count mismatch")
	}
}
