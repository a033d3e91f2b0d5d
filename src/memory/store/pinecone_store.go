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

// PineconeStore implements VectorStore against Pinecone's HTTP API. The index
// is provisioned once at construction time with a fixed dimension and metric;
// re-running the provisioning against an existing index is a no-op.
type PineconeStore struct {
	apiKey     string
	controlURL string
	dataURL    string
	index      string
	client     *http.Client
}

type PineconeConfig struct {
	APIKey     string
	Index      string
	Dimension  int
	Metric     string
	Cloud      string
	Region     string
	ControlURL string // defaults to https://api.pinecone.io
}

type pineconeIndexDescription struct {
	Name      string `json:"name"`
	Host      string `json:"host"`
	Dimension int    `json:"dimension"`
}

type pineconeMatch struct {
	ID       string         `json:"id"`
	Score    float64        `json:"score"`
	Values   []float32      `json:"values,omitempty"`
	Metadata map[string]any `json:"metadata"`
}

type pineconeQueryResponse struct {
	Matches []pineconeMatch `json:"matches"`
}

type pineconeListResponse struct {
	Vectors []struct {
		ID string `json:"id"`
	} `json:"vectors"`
	Pagination struct {
		Next string `json:"next"`
	} `json:"pagination"`
}

type pineconeFetchResponse struct {
	Vectors map[string]pineconeMatch `json:"vectors"`
}

type pineconeStatsResponse struct {
	TotalVectorCount int `json:"totalVectorCount"`
}

func NewPineconeStore(ctx context.Context, cfg PineconeConfig) (*PineconeStore, error) {
	if cfg.Index == "" {
		return nil, errors.New("pinecone index name is required")
	}
	if cfg.Dimension <= 0 {
		return nil, errors.New("pinecone index dimension is required")
	}
	if cfg.Metric == "" {
		cfg.Metric = "cosine"
	}
	if cfg.ControlURL == "" {
		cfg.ControlURL = "https://api.pinecone.io"
	}

	s := &PineconeStore{
		apiKey:     cfg.APIKey,
		controlURL: strings.TrimRight(cfg.ControlURL, "/"),
		index:      cfg.Index,
		client:     &http.Client{Timeout: 15 * time.Second},
	}

	if err := s.ensureIndex(ctx, cfg); err != nil {
		return nil, err
	}

	return s, nil
}

// ensureIndex describes the index and creates it when absent. Creation with a
// name that raced into existence is treated as success.
func (s *PineconeStore) ensureIndex(ctx context.Context, cfg PineconeConfig) error {
	desc, err := s.describeIndex(ctx)
	if err == nil {
		if desc.Dimension != 0 && desc.Dimension != cfg.Dimension {
			return fmt.Errorf("pinecone index %q has dimension %d, configured %d", cfg.Index, desc.Dimension, cfg.Dimension)
		}
		s.dataURL = hostURL(desc.Host)
		return nil
	}
	if !errors.Is(err, errIndexNotFound) {
		return err
	}

	req := map[string]any{
		"name":      cfg.Index,
		"dimension": cfg.Dimension,
		"metric":    cfg.Metric,
		"spec": map[string]any{
			"serverless": map[string]any{
				"cloud":  cfg.Cloud,
				"region": cfg.Region,
			},
		},
	}
	var created pineconeIndexDescription
	if err := s.do(ctx, http.MethodPost, s.controlURL+"/indexes", req, &created); err != nil {
		if !strings.Contains(strings.ToLower(err.Error()), "already exists") {
			return err
		}
	}

	if created.Host == "" {
		desc, err = s.describeIndex(ctx)
		if err != nil {
			return err
		}
		created = desc
	}
	s.dataURL = hostURL(created.Host)
	return nil
}

var errIndexNotFound = errors.New("pinecone index not found")

func (s *PineconeStore) describeIndex(ctx context.Context) (pineconeIndexDescription, error) {
	var desc pineconeIndexDescription
	u := fmt.Sprintf("%s/indexes/%s", s.controlURL, url.PathEscape(s.index))
	err := s.do(ctx, http.MethodGet, u, nil, &desc)
	if err != nil {
		if strings.Contains(err.Error(), "404") {
			return desc, errIndexNotFound
		}
		return desc, err
	}
	return desc, nil
}

func (s *PineconeStore) Upsert(ctx context.Context, records []QARecord) error {
	if len(records) == 0 {
		return nil
	}
	vectors := make([]map[string]any, 0, len(records))
	for _, rec := range records {
		vectors = append(vectors, map[string]any{
			"id":       rec.ID,
			"values":   rec.Embedding,
			"metadata": rec.Metadata(),
		})
	}
	req := map[string]any{"vectors": vectors}
	return s.do(ctx, http.MethodPost, s.dataURL+"/vectors/upsert", req, nil)
}

func (s *PineconeStore) Query(ctx context.Context, vector []float32, topK int) ([]QARecord, error) {
	return s.query(ctx, vector, topK, nil)
}

// QueryFiltered implements FilterQuerier with Pinecone's $eq metadata filter.
func (s *PineconeStore) QueryFiltered(ctx context.Context, vector []float32, topK int, filter map[string]string) ([]QARecord, error) {
	return s.query(ctx, vector, topK, filter)
}

func (s *PineconeStore) query(ctx context.Context, vector []float32, topK int, filter map[string]string) ([]QARecord, error) {
	if topK < 1 {
		return nil, nil
	}
	req := map[string]any{
		"vector":          vector,
		"topK":            topK,
		"includeMetadata": true,
	}
	if len(filter) > 0 {
		eq := make(map[string]any, len(filter))
		for key, value := range filter {
			eq[key] = map[string]any{"$eq": value}
		}
		req["filter"] = eq
	}

	var rsp pineconeQueryResponse
	if err := s.do(ctx, http.MethodPost, s.dataURL+"/query", req, &rsp); err != nil {
		return nil, err
	}

	results := make([]QARecord, 0, len(rsp.Matches))
	for _, match := range rsp.Matches {
		results = append(results, RecordFromMetadata(match.ID, match.Metadata, match.Score))
	}
	return results, nil
}

// ListAll pages through the index's id listing and fetches metadata in
// batches. Pinecone has server-side filtering, so the history path never
// calls this; it exists for the contract's full-dump capability.
func (s *PineconeStore) ListAll(ctx context.Context) ([]QARecord, error) {
	var all []QARecord
	token := ""
	for {
		u := s.dataURL + "/vectors/list?limit=100"
		if token != "" {
			u += "&paginationToken=" + url.QueryEscape(token)
		}
		var page pineconeListResponse
		if err := s.do(ctx, http.MethodGet, u, nil, &page); err != nil {
			return nil, err
		}
		if len(page.Vectors) == 0 {
			break
		}

		ids := make([]string, 0, len(page.Vectors))
		for _, v := range page.Vectors {
			ids = append(ids, v.ID)
		}
		fetched, err := s.fetch(ctx, ids)
		if err != nil {
			return nil, err
		}
		all = append(all, fetched...)

		token = page.Pagination.Next
		if token == "" {
			break
		}
	}
	return all, nil
}

func (s *PineconeStore) fetch(ctx context.Context, ids []string) ([]QARecord, error) {
	q := url.Values{}
	for _, id := range ids {
		q.Add("ids", id)
	}
	var rsp pineconeFetchResponse
	if err := s.do(ctx, http.MethodGet, s.dataURL+"/vectors/fetch?"+q.Encode(), nil, &rsp); err != nil {
		return nil, err
	}
	records := make([]QARecord, 0, len(rsp.Vectors))
	for id, vec := range rsp.Vectors {
		records = append(records, RecordFromMetadata(id, vec.Metadata, 0))
	}
	return records, nil
}

func (s *PineconeStore) Count(ctx context.Context) (int, error) {
	var rsp pineconeStatsResponse
	if err := s.do(ctx, http.MethodPost, s.dataURL+"/describe_index_stats", map[string]any{}, &rsp); err != nil {
		return 0, err
	}
	return rsp.TotalVectorCount, nil
}

func (s *PineconeStore) do(ctx context.Context, method, u string, req any, rsp any) error {
	var buf io.Reader
	if req != nil {
		data, err := json.Marshal(req)
		if err != nil {
			return err
		}
		buf = bytes.NewReader(data)
	}

	request, err := http.NewRequestWithContext(ctx, method, u, buf)
	if err != nil {
		return err
	}
	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("X-Pinecone-API-Version", "2025-01")
	if s.apiKey != "" {
		request.Header.Set("Api-Key", s.apiKey)
	}

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
		return fmt.Errorf("pinecone http %d: %s", response.StatusCode, strings.TrimSpace(string(payload)))
	}

	if rsp != nil && len(payload) > 0 {
		if err := json.Unmarshal(payload, rsp); err != nil {
			return err
		}
	}
	return nil
}

// hostURL normalizes the host reported by the control plane, which comes back
// without a scheme.
func hostURL(host string) string {
	if host == "" {
		return ""
	}
	if strings.Contains(host, "://") {
		return strings.TrimRight(host, "/")
	}
	return "https://" + strings.TrimRight(host, "/")
}

var _ VectorStore = (*PineconeStore)(nil)
var _ FilterQuerier = (*PineconeStore)(nil)
