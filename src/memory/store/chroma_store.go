package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ChromaStore implements VectorStore against a Chroma server's HTTP API. The
// collection is resolved with get-or-create semantics; no dimension or metric
// is declared up front. Chroma is read via ListAll for history: it does not
// implement FilterQuerier.
type ChromaStore struct {
	baseURL      string
	collectionID string
	client       *http.Client
}

type chromaCollection struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type chromaQueryResponse struct {
	IDs       [][]string         `json:"ids"`
	Distances [][]float64        `json:"distances"`
	Metadatas [][]map[string]any `json:"metadatas"`
}

type chromaGetResponse struct {
	IDs       []string         `json:"ids"`
	Metadatas []map[string]any `json:"metadatas"`
}

func NewChromaStore(ctx context.Context, baseURL, collection string) (*ChromaStore, error) {
	if baseURL == "" {
		baseURL = "http://localhost:8000"
	}
	if collection == "" {
		return nil, errors.New("chroma collection name is required")
	}
	s := &ChromaStore{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 15 * time.Second},
	}

	req := map[string]any{
		"name":          collection,
		"get_or_create": true,
	}
	var col chromaCollection
	if err := s.do(ctx, http.MethodPost, "/api/v1/collections", req, &col); err != nil {
		return nil, fmt.Errorf("chroma get-or-create collection: %w", err)
	}
	if col.ID == "" {
		return nil, errors.New("chroma returned collection without id")
	}
	s.collectionID = col.ID
	return s, nil
}

func (s *ChromaStore) Upsert(ctx context.Context, records []QARecord) error {
	if len(records) == 0 {
		return nil
	}
	ids := make([]string, 0, len(records))
	embeddings := make([][]float32, 0, len(records))
	metadatas := make([]map[string]any, 0, len(records))
	documents := make([]string, 0, len(records))
	for _, rec := range records {
		ids = append(ids, rec.ID)
		embeddings = append(embeddings, rec.Embedding)
		metadatas = append(metadatas, rec.Metadata())
		documents = append(documents, rec.Text)
	}
	req := map[string]any{
		"ids":        ids,
		"embeddings": embeddings,
		"metadatas":  metadatas,
		"documents":  documents,
	}
	return s.do(ctx, http.MethodPost, s.collectionPath("upsert"), req, nil)
}

func (s *ChromaStore) Query(ctx context.Context, vector []float32, topK int) ([]QARecord, error) {
	if topK < 1 {
		return nil, nil
	}
	req := map[string]any{
		"query_embeddings": [][]float32{vector},
		"n_results":        topK,
		"include":          []string{"metadatas", "distances"},
	}
	var rsp chromaQueryResponse
	if err := s.do(ctx, http.MethodPost, s.collectionPath("query"), req, &rsp); err != nil {
		return nil, err
	}
	if len(rsp.IDs) == 0 {
		return nil, nil
	}

	results := make([]QARecord, 0, len(rsp.IDs[0]))
	for i, id := range rsp.IDs[0] {
		var md map[string]any
		if len(rsp.Metadatas) > 0 && i < len(rsp.Metadatas[0]) {
			md = rsp.Metadatas[0][i]
		}
		// Chroma reports cosine distance; flip to a similarity score.
		score := 0.0
		if len(rsp.Distances) > 0 && i < len(rsp.Distances[0]) {
			score = 1 - rsp.Distances[0][i]
		}
		results = append(results, RecordFromMetadata(id, md, score))
	}
	return results, nil
}

func (s *ChromaStore) ListAll(ctx context.Context) ([]QARecord, error) {
	req := map[string]any{
		"include": []string{"metadatas"},
	}
	var rsp chromaGetResponse
	if err := s.do(ctx, http.MethodPost, s.collectionPath("get"), req, &rsp); err != nil {
		return nil, err
	}
	records := make([]QARecord, 0, len(rsp.IDs))
	for i, id := range rsp.IDs {
		var md map[string]any
		if i < len(rsp.Metadatas) {
			md = rsp.Metadatas[i]
		}
		records = append(records, RecordFromMetadata(id, md, 0))
	}
	return records, nil
}

func (s *ChromaStore) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.do(ctx, http.MethodGet, s.collectionPath("count"), nil, &count); err != nil {
		return 0, err
	}
	return count, nil
}

func (s *ChromaStore) collectionPath(op string) string {
	return fmt.Sprintf("/api/v1/collections/%s/%s", url.PathEscape(s.collectionID), op)
}

func (s *ChromaStore) do(ctx context.Context, method, path string, req any, rsp any) error {
	var buf io.Reader
	if req != nil {
		data, err := json.Marshal(req)
		if err != nil {
			return err
		}
		buf = bytes.NewReader(data)
	}

	request, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, buf)
	if err != nil {
		return err
	}
	request.Header.Set("Content-Type", "application/json")

	response, err := s.client.Do(request)
	if err != nil {
		return err
	}
	defer response.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(response.Body, 1<<20))
	if err != nil {
		return err
	}

	if response.StatusCode >= 400 {
		return fmt.Errorf("chroma http %d: %s", response.StatusCode, strings.TrimSpace(string(payload)))
	}

	if rsp != nil && len(payload) > 0 {
		if err := json.Unmarshal(payload, rsp); err != nil {
			return err
		}
	}
	return nil
}

var _ VectorStore = (*ChromaStore)(nil)
