package db

import (
	"context"
	"time"
)

// Store is the search-index facade. Consumers depend on the narrow
// sub-interfaces, not on Store itself (ISP).
type Store interface {
	Pinger
	HashStore
	IndexManager
	Searcher
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HashSetItem holds a single key+fields pair for pipelined HSET.
type HashSetItem struct {
	Key    string
	Fields map[string]string
}

// HashStore provides hash-based key-value operations.
type HashStore interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HSetMulti(ctx context.Context, items []HashSetItem) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	Del(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// IndexManager provides FT index lifecycle operations.
type IndexManager interface {
	CreateIndex(ctx context.Context, def *IndexDefinition) error
	DropIndex(ctx context.Context, name string) error
	IndexExists(ctx context.Context, name string) (bool, error)
}

// Searcher provides the three FT.SEARCH query shapes the retriever uses.
type Searcher interface {
	SearchText(ctx context.Context, q *TextQuery) (*SearchResult, error)
	SearchKNN(ctx context.Context, q *KNNQuery) (*SearchResult, error)
	SearchHybrid(ctx context.Context, q *HybridQuery) (*SearchResult, error)
}
