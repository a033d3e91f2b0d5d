package store

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
)

type chromaVector struct {
	embedding []float32
	metadata  map[string]any
}

// fakeChroma emulates the collection slice of Chroma's HTTP API.
type fakeChroma struct {
	mu          sync.Mutex
	collections map[string]string // name -> id
	vectors     map[string]chromaVector
}

func newFakeChroma(t *testing.T) (*fakeChroma, *httptest.Server) {
	t.Helper()
	f := &fakeChroma{
		collections: make(map[string]string),
		vectors:     make(map[string]chromaVector),
	}
	srv := httptest.NewServer(http.HandlerFunc(f.handle))
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakeChroma) handle(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/api/v1/collections":
		var req struct {
			Name        string `json:"name"`
			GetOrCreate bool   `json:"get_or_create"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		id, ok := f.collections[req.Name]
		if !ok {
			id = fmt.Sprintf("col-%d", len(f.collections)+1)
			f.collections[req.Name] = id
		}
		json.NewEncoder(w).Encode(chromaCollection{ID: id, Name: req.Name})
	case r.Method == http.MethodPost && r.URL.Path == "/api/v1/collections/col-1/upsert":
		var req struct {
			IDs        []string         `json:"ids"`
			Embeddings [][]float32      `json:"embeddings"`
			Metadatas  []map[string]any `json:"metadatas"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		for i, id := range req.IDs {
			f.vectors[id] = chromaVector{embedding: req.Embeddings[i], metadata: req.Metadatas[i]}
		}
		w.Write([]byte("true"))
	case r.Method == http.MethodPost && r.URL.Path == "/api/v1/collections/col-1/query":
		var req struct {
			QueryEmbeddings [][]float32 `json:"query_embeddings"`
			NResults        int         `json:"n_results"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		type scored struct {
			id       string
			distance float64
			metadata map[string]any
		}
		var hits []scored
		for id, v := range f.vectors {
			hits = append(hits, scored{
				id:       id,
				distance: 1 - CosineSimilarity(req.QueryEmbeddings[0], v.embedding),
				metadata: v.metadata,
			})
		}
		sort.Slice(hits, func(i, j int) bool { return hits[i].distance < hits[j].distance })
		if len(hits) > req.NResults {
			hits = hits[:req.NResults]
		}
		rsp := chromaQueryResponse{IDs: [][]string{{}}, Distances: [][]float64{{}}, Metadatas: [][]map[string]any{{}}}
		for _, h := range hits {
			rsp.IDs[0] = append(rsp.IDs[0], h.id)
			rsp.Distances[0] = append(rsp.Distances[0], h.distance)
			rsp.Metadatas[0] = append(rsp.Metadatas[0], h.metadata)
		}
		json.NewEncoder(w).Encode(rsp)
	case r.Method == http.MethodPost && r.URL.Path == "/api/v1/collections/col-1/get":
		var rsp chromaGetResponse
		for id, v := range f.vectors {
			rsp.IDs = append(rsp.IDs, id)
			rsp.Metadatas = append(rsp.Metadatas, v.metadata)
		}
		json.NewEncoder(w).Encode(rsp)
	case r.Method == http.MethodGet && r.URL.Path == "/api/v1/collections/col-1/count":
		fmt.Fprintf(w, "%d", len(f.vectors))
	default:
		http.Error(w, "unexpected call: "+r.Method+" "+r.URL.Path, http.StatusBadRequest)
	}
}

func TestChromaStoreGetOrCreateIsIdempotent(t *testing.T) {
	f, srv := newFakeChroma(t)
	ctx := context.Background()

	first, err := NewChromaStore(ctx, srv.URL, "gemini-qa")
	if err != nil {
		t.Fatalf("first init: %v", err)
	}
	second, err := NewChromaStore(ctx, srv.URL, "gemini-qa")
	if err != nil {
		t.Fatalf("second init: %v", err)
	}
	if len(f.collections) != 1 {
		t.Fatalf("expected one collection, got %d", len(f.collections))
	}
	if first.collectionID != second.collectionID {
		t.Fatalf("expected both inits to bind the same collection")
	}
}

func TestChromaStoreUpsertQueryGetCount(t *testing.T) {
	_, srv := newFakeChroma(t)
	ctx := context.Background()

	s, err := NewChromaStore(ctx, srv.URL, "gemini-qa")
	if err != nil {
		t.Fatalf("NewChromaStore returned error: %v", err)
	}

	err = s.Upsert(ctx, []QARecord{
		{ID: "q1", Role: RoleQuestion, Text: "What is AI?", UserID: "u1", Timestamp: "t1", Embedding: []float32{1, 0}},
		{ID: "a1", Role: RoleAnswer, Text: "AI is...", UserID: "u1", Timestamp: "t1", Embedding: []float32{0, 1}},
	})
	if err != nil {
		t.Fatalf("Upsert returned error: %v", err)
	}

	got, err := s.Query(ctx, []float32{1, 0}, 1)
	if err != nil {
		t.Fatalf("Query returned error: %v", err)
	}
	if len(got) != 1 || got[0].ID != "q1" {
		t.Fatalf("expected nearest record q1, got %#v", got)
	}
	if got[0].Score < 0.999 {
		t.Fatalf("expected similarity score near 1, got %f", got[0].Score)
	}

	all, err := s.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll returned error: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 records, got %d", len(all))
	}

	count, err := s.Count(ctx)
	if err != nil {
		t.Fatalf("Count returned error: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected count 2, got %d", count)
	}
}

func TestChromaStoreQueryTopKCap(t *testing.T) {
	_, srv := newFakeChroma(t)
	ctx := context.Background()

	s, err := NewChromaStore(ctx, srv.URL, "gemini-qa")
	if err != nil {
		t.Fatalf("NewChromaStore returned error: %v", err)
	}
	var records []QARecord
	for i := 0; i < 8; i++ {
		records = append(records, QARecord{
			ID:        fmt.Sprintf("r%d", i),
			Role:      RoleQuestion,
			Text:      "q",
			Timestamp: "t",
			Embedding: []float32{float32(i), 1},
		})
	}
	if err := s.Upsert(ctx, records); err != nil {
		t.Fatalf("Upsert returned error: %v", err)
	}

	got, err := s.Query(ctx, []float32{1, 1}, 5)
	if err != nil {
		t.Fatalf("Query returned error: %v", err)
	}
	if len(got) != 5 {
		t.Fatalf("expected 5 matches, got %d", len(got))
	}
}
