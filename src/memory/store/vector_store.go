package store

import (
	"context"
	"math"
	"time"
)

const (
	RoleQuestion = "question"
	RoleAnswer   = "answer"
)

// TimestampLayout is zero-padded UTC so that lexicographic comparison of
// timestamps matches chronological order.
const TimestampLayout = "2006-01-02T15:04:05.000000000Z"

// Timestamp formats t for storage in record metadata.
func Timestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// QARecord is a persisted question or answer with its embedding. Records are
// immutable once written; a question and its answer share user id and
// timestamp but have distinct ids.
type QARecord struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Text      string    `json:"text"`
	UserID    string    `json:"user_id,omitempty"`
	Timestamp string    `json:"timestamp"`
	Embedding []float32 `json:"embedding,omitempty"`
	Score     float64   `json:"score,omitempty"`
}

// VectorStore is the contract every QA archive backend fulfills. Upsert is
// idempotent by record id. Constructors are responsible for one-time,
// idempotent provisioning of the backing collection or index.
type VectorStore interface {
	Upsert(ctx context.Context, records []QARecord) error
	Query(ctx context.Context, vector []float32, topK int) ([]QARecord, error)
	ListAll(ctx context.Context) ([]QARecord, error)
	Count(ctx context.Context) (int, error)
}

// FilterQuerier is implemented by backends that can filter on metadata
// server-side. Filter is an equality constraint over metadata fields.
// Backends without it are read via ListAll and filtered client-side.
type FilterQuerier interface {
	QueryFiltered(ctx context.Context, vector []float32, topK int, filter map[string]string) ([]QARecord, error)
}

// Metadata renders the record's wire metadata: {type, text, user_id, timestamp}.
func (r QARecord) Metadata() map[string]any {
	md := map[string]any{
		"type":      r.Role,
		"text":      r.Text,
		"timestamp": r.Timestamp,
	}
	if r.UserID != "" {
		md["user_id"] = r.UserID
	}
	return md
}

// RecordFromMetadata rebuilds a record from wire metadata.
func RecordFromMetadata(id string, md map[string]any, score float64) QARecord {
	return QARecord{
		ID:        id,
		Role:      stringFromAny(md["type"]),
		Text:      stringFromAny(md["text"]),
		UserID:    stringFromAny(md["user_id"]),
		Timestamp: stringFromAny(md["timestamp"]),
		Score:     score,
	}
}

// MatchesFilter reports whether the record's metadata satisfies every
// equality constraint in filter.
func (r QARecord) MatchesFilter(filter map[string]string) bool {
	md := r.Metadata()
	for key, want := range filter {
		if stringFromAny(md[key]) != want {
			return false
		}
	}
	return true
}

func stringFromAny(v any) string {
	s, _ := v.(string)
	return s
}

// CosineSimilarity computes the cosine similarity between two vectors.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	var dot, normA, normB float64
	length := len(a)
	if len(b) < length {
		length = len(b)
	}
	for i := 0; i < length; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
