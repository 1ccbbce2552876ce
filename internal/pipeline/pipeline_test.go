package pipeline

import (
	"context"
	"fmt"
	"io"
	"sync"

	"garimpeiro/internal/contracts"
	"garimpeiro/pkg/logger"
)

// In-memory fakes shared by the coordinator and miner tests.

type fakeProductStore struct {
	mu      sync.Mutex
	nextID  int64
	byKey   map[string]*contracts.Product
	failIDs map[string]bool // external ids whose upsert should fail
}

func newFakeProductStore() *fakeProductStore {
	return &fakeProductStore{
		byKey:   make(map[string]*contracts.Product),
		failIDs: make(map[string]bool),
	}
}

func (s *fakeProductStore) Upsert(ctx context.Context, p contracts.EnrichedProduct) (*contracts.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failIDs[p.ExternalID] {
		return nil, contracts.NewPersistenceError("upsert product", p.ExternalID, fmt.Errorf("boom"))
	}

	key := p.Marketplace + "/" + p.ExternalID
	if existing, ok := s.byKey[key]; ok {
		existing.Title = p.Title
		existing.AffiliateLink = p.AffiliateLink
		existing.Niche = p.Niche
		existing.Rating = p.Rating
		return existing, nil
	}

	s.nextID++
	product := &contracts.Product{
		ID:            s.nextID,
		Marketplace:   p.Marketplace,
		ExternalID:    p.ExternalID,
		Title:         p.Title,
		ImageURL:      p.Thumbnail,
		URL:           p.Permalink,
		AffiliateLink: p.AffiliateLink,
		Niche:         p.Niche,
		Rating:        p.Rating,
	}
	s.byKey[key] = product
	return product, nil
}

func (s *fakeProductStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byKey)
}

type fakeHistoryStore struct {
	mu      sync.Mutex
	entries []contracts.PriceHistoryEntry
	failAll bool
}

func (s *fakeHistoryStore) Append(ctx context.Context, entry contracts.PriceHistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failAll {
		return contracts.NewPersistenceError("append price history", "any", fmt.Errorf("boom"))
	}
	s.entries = append(s.entries, entry)
	return nil
}

type fakeLinker struct{}

func (fakeLinker) Link(permalink string) string {
	return "aff:" + permalink
}

type fakeExporter struct {
	mu      sync.Mutex
	batches map[string][]contracts.ExportRow
	err     error
}

func newFakeExporter() *fakeExporter {
	return &fakeExporter{batches: make(map[string][]contracts.ExportRow)}
}

func (e *fakeExporter) Export(ctx context.Context, niche string, rows []contracts.ExportRow) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.err != nil {
		return e.err
	}
	e.batches[niche] = append(e.batches[niche], rows...)
	return nil
}

type fakeAdapter struct {
	name    string
	results map[string][]contracts.RawProduct // keyword -> products
	err     error
}

func (a *fakeAdapter) Marketplace() string { return a.name }

func (a *fakeAdapter) Search(ctx context.Context, keyword string) ([]contracts.RawProduct, error) {
	if a.err != nil {
		return nil, a.err
	}
	return a.results[keyword], nil
}

func testLogger() *logger.Logger {
	return logger.NewWithWriter(io.Discard, "error")
}
