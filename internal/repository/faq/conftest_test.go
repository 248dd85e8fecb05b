package faq

import (
	"context"
	"testing"

	"github.com/claimsdesk/claimsdesk/internal/db"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	searchTextFn   func(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error)
	searchKNNFn    func(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	searchHybridFn func(ctx context.Context, q *db.HybridQuery) (*db.SearchResult, error)
	hsetMultiFn    func(ctx context.Context, items []db.HashSetItem) error
	createIndexFn  func(ctx context.Context, def *db.IndexDefinition) error
	indexExistsFn  func(ctx context.Context, name string) (bool, error)
}

func (m *mockStore) SearchText(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error) {
	if m.searchTextFn != nil {
		return m.searchTextFn(ctx, q)
	}
	return &db.SearchResult{}, nil
}

func (m *mockStore) SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
	if m.searchKNNFn != nil {
		return m.searchKNNFn(ctx, q)
	}
	return &db.SearchResult{}, nil
}

func (m *mockStore) SearchHybrid(ctx context.Context, q *db.HybridQuery) (*db.SearchResult, error) {
	if m.searchHybridFn != nil {
		return m.searchHybridFn(ctx, q)
	}
	return &db.SearchResult{}, nil
}

func (m *mockStore) HSetMulti(ctx context.Context, items []db.HashSetItem) error {
	if m.hsetMultiFn != nil {
		return m.hsetMultiFn(ctx, items)
	}
	return nil
}

func (m *mockStore) CreateIndex(ctx context.Context, def *db.IndexDefinition) error {
	if m.createIndexFn != nil {
		return m.createIndexFn(ctx, def)
	}
	return nil
}

func (m *mockStore) IndexExists(ctx context.Context, name string) (bool, error) {
	if m.indexExistsFn != nil {
		return m.indexExistsFn(ctx, name)
	}
	return false, nil
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	return New(ms, "benefit-claims:idx", "benefit-claims:"), ms
}

func hitEntry(id, question, answer, category, section string) db.SearchEntry {
	return db.SearchEntry{
		Key:   "benefit-claims:" + id,
		Score: 1,
		Fields: map[string]string{
			"id":       id,
			"question": question,
			"answer":   answer,
			"category": category,
			"section":  section,
		},
	}
}
