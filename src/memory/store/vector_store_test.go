package store

import (
	"testing"
	"time"
)

func TestTimestampLexicographicOrder(t *testing.T) {
	early := Timestamp(time.Date(2024, 3, 1, 10, 0, 0, 5, time.UTC))
	late := Timestamp(time.Date(2024, 3, 1, 10, 0, 0, 40, time.UTC))
	if !(early < late) {
		t.Fatalf("expected %q < %q", early, late)
	}
	if len(early) != len(late) {
		t.Fatalf("expected fixed-width timestamps, got %q and %q", early, late)
	}
}

func TestRecordMetadataRoundTrip(t *testing.T) {
	rec := QARecord{
		ID:        "q1",
		Role:      RoleQuestion,
		Text:      "What is AI?",
		UserID:    "u1",
		Timestamp: Timestamp(time.Now()),
	}
	got := RecordFromMetadata(rec.ID, rec.Metadata(), 0.5)
	if got.Role != rec.Role || got.Text != rec.Text || got.UserID != rec.UserID || got.Timestamp != rec.Timestamp {
		t.Fatalf("round trip mismatch: %#v", got)
	}
	if got.Score != 0.5 {
		t.Fatalf("expected score carried through, got %f", got.Score)
	}
}

func TestAnonymousRecordOmitsUserID(t *testing.T) {
	rec := QARecord{ID: "q1", Role: RoleQuestion, Text: "hi", Timestamp: "t"}
	if _, ok := rec.Metadata()["user_id"]; ok {
		t.Fatalf("expected anonymous record to omit user_id")
	}
}

func TestMatchesFilter(t *testing.T) {
	rec := QARecord{Role: RoleQuestion, UserID: "u1"}
	if !rec.MatchesFilter(map[string]string{"user_id": "u1", "type": RoleQuestion}) {
		t.Fatalf("expected filter match")
	}
	if rec.MatchesFilter(map[string]string{"user_id": "u2"}) {
		t.Fatalf("expected filter mismatch on user_id")
	}
	if rec.MatchesFilter(map[string]string{"type": RoleAnswer}) {
		t.Fatalf("expected filter mismatch on role")
	}
}

func TestCosineSimilarity(t *testing.T) {
	if got := CosineSimilarity([]float32{1, 0}, []float32{1, 0}); got < 0.999 {
		t.Fatalf("expected identical vectors to score ~1, got %f", got)
	}
	if got := CosineSimilarity([]float32{1, 0}, []float32{0, 1}); got != 0 {
		t.Fatalf("expected orthogonal vectors to score 0, got %f", got)
	}
	if got := CosineSimilarity(nil, []float32{1}); got != 0 {
		t.Fatalf("expected empty vector to score 0, got %f", got)
	}
}
