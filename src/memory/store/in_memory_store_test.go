package store

import (
	"context"
	"testing"
)

func TestInMemoryStoreUpsertIdempotentByID(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()

	if err := s.Upsert(ctx, []QARecord{{ID: "a", Role: RoleQuestion, Text: "old", Embedding: []float32{1, 0}}}); err != nil {
		t.Fatalf("Upsert returned error: %v", err)
	}
	if err := s.Upsert(ctx, []QARecord{{ID: "a", Role: RoleQuestion, Text: "new", Embedding: []float32{1, 0}}}); err != nil {
		t.Fatalf("Upsert returned error: %v", err)
	}

	count, err := s.Count(ctx)
	if err != nil {
		t.Fatalf("Count returned error: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 record after re-upsert, got %d", count)
	}

	all, err := s.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll returned error: %v", err)
	}
	if all[0].Text != "new" {
		t.Fatalf("expected re-upsert to replace record, got %q", all[0].Text)
	}
}

func TestInMemoryStoreQueryRanksBySimilarity(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()

	err := s.Upsert(ctx, []QARecord{
		{ID: "far", Embedding: []float32{0, 1}},
		{ID: "near", Embedding: []float32{1, 0.1}},
	})
	if err != nil {
		t.Fatalf("Upsert returned error: %v", err)
	}

	got, err := s.Query(ctx, []float32{1, 0}, 1)
	if err != nil {
		t.Fatalf("Query returned error: %v", err)
	}
	if len(got) != 1 || got[0].ID != "near" {
		t.Fatalf("expected closest record first, got %#v", got)
	}
}

func TestInMemoryStoreQueryTopKBeyondAvailable(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()

	if err := s.Upsert(ctx, []QARecord{{ID: "only", Embedding: []float32{1}}}); err != nil {
		t.Fatalf("Upsert returned error: %v", err)
	}
	got, err := s.Query(ctx, []float32{1}, 5)
	if err != nil {
		t.Fatalf("Query returned error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected all available records, got %d", len(got))
	}
}

func TestInMemoryStoreEmpty(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()

	got, err := s.Query(ctx, []float32{1}, 5)
	if err != nil {
		t.Fatalf("Query returned error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no matches, got %d", len(got))
	}

	all, err := s.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll returned error: %v", err)
	}
	if len(all) != 0 {
		t.Fatalf("expected empty listing, got %d", len(all))
	}
}
