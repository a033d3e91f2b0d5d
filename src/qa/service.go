package qa

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/recallstack/go-qa/src/concurrent"
	"github.com/recallstack/go-qa/src/memory/embed"
	"github.com/recallstack/go-qa/src/memory/store"
	"github.com/recallstack/go-qa/src/models"
)

const (
	historyPageSize = 100
	searchTopK      = 5
	archiveTimeout  = 30 * time.Second
)

// Service orchestrates the ask flow: generate an answer, hand it back, then
// archive the question/answer pair into both vector stores in the background.
// All collaborators are bound once at startup.
type Service struct {
	model     models.Agent
	embedder  embed.Embedder
	primary   store.VectorStore
	secondary store.VectorStore
	pool      *concurrent.WorkerPool
}

// Answer is what the caller gets back from Ask. Archival of the underlying
// records happens after this value is already on its way out.
type Answer struct {
	UserID    string
	Timestamp string
	Text      string
}

// HistoryEntry is one asked question in a user's history.
type HistoryEntry struct {
	ID        string `json:"id"`
	Question  string `json:"question"`
	Timestamp string `json:"timestamp"`
}

func NewService(model models.Agent, embedder embed.Embedder, primary, secondary store.VectorStore, pool *concurrent.WorkerPool) *Service {
	return &Service{
		model:     model,
		embedder:  embedder,
		primary:   primary,
		secondary: secondary,
		pool:      pool,
	}
}

// Ask sends the question to the model and returns the answer. On success the
// question/answer pair is scheduled for archival; the caller never waits on
// it, and a failed archive is never surfaced. A failed generation means
// nothing is archived.
func (s *Service) Ask(ctx context.Context, question, userID string) (Answer, error) {
	resp, err := s.model.Generate(ctx, question)
	if err != nil {
		return Answer{}, fmt.Errorf("generate answer: %w", err)
	}
	answer := models.ResponseText(resp)
	timestamp := store.Timestamp(time.Now().UTC())

	s.pool.Go(func() {
		s.archive(question, answer, userID, timestamp)
	})

	return Answer{UserID: userID, Timestamp: timestamp, Text: answer}, nil
}

// archive embeds both texts and dual-writes the pair. It runs detached from
// the originating request: its own context, its own deadline, so a client
// disconnect cannot cancel it. Store failures are logged and swallowed.
func (s *Service) archive(question, answer, userID, timestamp string) {
	ctx, cancel := context.WithTimeout(context.Background(), archiveTimeout)
	defer cancel()

	qVec, err := s.embedder.Embed(ctx, question)
	if err != nil {
		log.Printf("[qa] archive skipped, question embedding failed: %v", err)
		return
	}
	aVec, err := s.embedder.Embed(ctx, answer)
	if err != nil {
		log.Printf("[qa] archive skipped, answer embedding failed: %v", err)
		return
	}

	records := []store.QARecord{
		{
			ID:        uuid.NewString(),
			Role:      store.RoleQuestion,
			Text:      question,
			UserID:    userID,
			Timestamp: timestamp,
			Embedding: qVec,
		},
		{
			ID:        uuid.NewString(),
			Role:      store.RoleAnswer,
			Text:      answer,
			UserID:    userID,
			Timestamp: timestamp,
			Embedding: aVec,
		},
	}

	// The two writes are independent: one store failing does not stop or
	// roll back the other.
	type target struct {
		name string
		dst  store.VectorStore
	}
	targets := []target{
		{"primary", s.primary},
		{"secondary", s.secondary},
	}
	_ = concurrent.ParallelForEach(ctx, targets, func(t target) error {
		if err := t.dst.Upsert(ctx, records); err != nil {
			log.Printf("[qa] %s store write failed: %v", t.name, err)
		}
		return nil
	}, len(targets))
}

// History returns the questions a user has asked, newest first. When the
// primary store can filter server-side it is asked directly; otherwise the
// secondary store's full listing is filtered here.
func (s *Service) History(ctx context.Context, userID string) ([]HistoryEntry, error) {
	var records []store.QARecord
	var err error

	if fq, ok := s.primary.(store.FilterQuerier); ok {
		zero := make([]float32, s.dimension(ctx))
		records, err = fq.QueryFiltered(ctx, zero, historyPageSize, map[string]string{
			"user_id": userID,
			"type":    store.RoleQuestion,
		})
	} else {
		records, err = s.secondary.ListAll(ctx)
		if err == nil {
			kept := records[:0]
			for _, rec := range records {
				if rec.UserID == userID && rec.Role == store.RoleQuestion {
					kept = append(kept, rec)
				}
			}
			records = kept
		}
	}
	if err != nil {
		return nil, fmt.Errorf("fetch history: %w", err)
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].Timestamp > records[j].Timestamp
	})

	entries := make([]HistoryEntry, 0, len(records))
	for _, rec := range records {
		entries = append(entries, HistoryEntry{
			ID:        rec.ID,
			Question:  rec.Text,
			Timestamp: rec.Timestamp,
		})
	}
	return entries, nil
}

// SearchPrimary ranks the primary store's records against the query text.
func (s *Service) SearchPrimary(ctx context.Context, query string) ([]store.QARecord, error) {
	return s.search(ctx, s.primary, query)
}

// SearchSecondary ranks the secondary store's records against the query text.
func (s *Service) SearchSecondary(ctx context.Context, query string) ([]store.QARecord, error) {
	return s.search(ctx, s.secondary, query)
}

func (s *Service) search(ctx context.Context, target store.VectorStore, query string) ([]store.QARecord, error) {
	vec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	records, err := target.Query(ctx, vec, searchTopK)
	if err != nil {
		return nil, fmt.Errorf("search store: %w", err)
	}
	return records, nil
}

// Debug dumps the secondary store's contents for operational inspection.
func (s *Service) Debug(ctx context.Context) (int, []store.QARecord, error) {
	count, err := s.secondary.Count(ctx)
	if err != nil {
		return 0, nil, err
	}
	items, err := s.secondary.ListAll(ctx)
	if err != nil {
		return 0, nil, err
	}
	return count, items, nil
}

// Wait blocks until all scheduled archives have finished. Used on shutdown
// and by tests that need read-your-writes.
func (s *Service) Wait() {
	s.pool.Wait()
}

// dimension probes the embedder for the vector width, needed to build the
// zero vector for filtered history queries.
func (s *Service) dimension(ctx context.Context) int {
	vec, err := s.embedder.Embed(ctx, "")
	if err != nil {
		return 0
	}
	return len(vec)
}
