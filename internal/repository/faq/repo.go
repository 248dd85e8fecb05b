package faq

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"strings"

	"github.com/claimsdesk/claimsdesk/internal/db"
	"github.com/claimsdesk/claimsdesk/internal/domain"
)

// Index field names. The five return fields match what the answer prompt
// and the loader read/write.
const (
	fieldQuestion = "question"
	fieldAnswer   = "answer"
	fieldCategory = "category"
	fieldSection  = "section"
	fieldID       = "id"
	vectorField   = "question_answer_vector"
)

var (
	textFields   = []string{fieldQuestion, fieldAnswer, fieldCategory}
	returnFields = []string{fieldAnswer, fieldSection, fieldQuestion, fieldCategory, fieldID}
)

// store is the consumer interface for FAQ index operations (ISP).
type store interface {
	SearchText(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error)
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	SearchHybrid(ctx context.Context, q *db.HybridQuery) (*db.SearchResult, error)
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	IndexExists(ctx context.Context, name string) (bool, error)
}

// Repo gives the retriever its three query shapes over the FAQ index,
// and the loader its write path.
type Repo struct {
	store     store
	indexName string
	keyPrefix string
}

// New creates a FAQ repository.
func New(s store, indexName, keyPrefix string) *Repo {
	return &Repo{store: s, indexName: indexName, keyPrefix: keyPrefix}
}

// SearchText runs the lexical best-match query over question/answer/category.
func (r *Repo) SearchText(
	ctx context.Context, query, section string, topK int,
) ([]domain.FAQDocument, error) {
	sr, err := r.store.SearchText(ctx, &db.TextQuery{
		IndexName:    r.indexName,
		Query:        query,
		TextFields:   textFields,
		Section:      section,
		TopK:         topK,
		ReturnFields: returnFields,
	})
	if err != nil {
		return nil, fmt.Errorf("search text: %w", err)
	}
	return r.parseResults(sr), nil
}

// SearchKNN runs the ANN query over the precomputed question+answer vectors.
func (r *Repo) SearchKNN(
	ctx context.Context, vector []float32, section string, topK, numCandidates int,
) ([]domain.FAQDocument, error) {
	sr, err := r.store.SearchKNN(ctx, &db.KNNQuery{
		IndexName:     r.indexName,
		VectorField:   vectorField,
		Vector:        vector,
		Section:       section,
		K:             topK,
		NumCandidates: numCandidates,
		ReturnFields:  returnFields,
	})
	if err != nil {
		return nil, fmt.Errorf("search knn: %w", err)
	}
	return r.parseResults(sr), nil
}

// SearchHybrid runs the combined lexical+vector query; both must contribute.
func (r *Repo) SearchHybrid(
	ctx context.Context, query string, vector []float32, section string, topK, numCandidates int,
) ([]domain.FAQDocument, error) {
	sr, err := r.store.SearchHybrid(ctx, &db.HybridQuery{
		IndexName:     r.indexName,
		Query:         query,
		TextFields:    textFields,
		VectorField:   vectorField,
		Vector:        vector,
		Section:       section,
		K:             topK,
		NumCandidates: numCandidates,
		ReturnFields:  returnFields,
	})
	if err != nil {
		return nil, fmt.Errorf("search hybrid: %w", err)
	}
	return r.parseResults(sr), nil
}

// EnsureIndex creates the FT index if it does not exist yet.
func (r *Repo) EnsureIndex(ctx context.Context, vectorDim int) error {
	exists, err := r.store.IndexExists(ctx, r.indexName)
	if err != nil {
		return fmt.Errorf("index exists %s: %w", r.indexName, err)
	}
	if exists {
		return nil
	}

	def := &db.IndexDefinition{
		Name:     r.indexName,
		Prefixes: []string{r.keyPrefix},
		Fields: []db.IndexField{
			{Name: fieldQuestion, Type: db.IndexFieldText, TextWeight: 3},
			{Name: fieldAnswer, Type: db.IndexFieldText},
			{Name: fieldCategory, Type: db.IndexFieldText},
			{Name: fieldSection, Type: db.IndexFieldTag},
			{
				Name:           vectorField,
				Type:           db.IndexFieldVector,
				VectorAlgo:     db.VectorHNSW,
				VectorDim:      vectorDim,
				VectorDistance: db.DistanceCosine,
			},
		},
	}
	if err := r.store.CreateIndex(ctx, def); err != nil {
		return fmt.Errorf("create index %s: %w", r.indexName, err)
	}
	return nil
}

// UpsertBatch writes FAQ documents with their vectors in one pipelined round-trip.
func (r *Repo) UpsertBatch(ctx context.Context, docs []domain.FAQDocument, vectors [][]float32) error {
	if len(docs) != len(vectors) {
		return fmt.Errorf("docs/vectors length mismatch: %d != %d", len(docs), len(vectors))
	}

	items := make([]db.HashSetItem, len(docs))
	for i, doc := range docs {
		items[i] = db.HashSetItem{
			Key: r.keyPrefix + doc.ID,
			Fields: map[string]string{
				fieldID:       doc.ID,
				fieldQuestion: doc.Question,
				fieldAnswer:   doc.Answer,
				fieldCategory: doc.Category,
				fieldSection:  doc.Section,
				vectorField:   vectorToBytes(vectors[i]),
			},
		}
	}

	if err := r.store.HSetMulti(ctx, items); err != nil {
		return fmt.Errorf("upsert batch: %w", err)
	}
	return nil
}

// parseResults converts db entries into FAQ documents.
func (r *Repo) parseResults(sr *db.SearchResult) []domain.FAQDocument {
	if sr == nil || len(sr.Entries) == 0 {
		return nil
	}

	docs := make([]domain.FAQDocument, 0, len(sr.Entries))
	for _, entry := range sr.Entries {
		id := entry.Fields[fieldID]
		if id == "" {
			id = strings.TrimPrefix(entry.Key, r.keyPrefix)
		}
		docs = append(docs, domain.FAQDocument{
			ID:       id,
			Category: entry.Fields[fieldCategory],
			Question: entry.Fields[fieldQuestion],
			Answer:   entry.Fields[fieldAnswer],
			Section:  entry.Fields[fieldSection],
		})
	}
	return docs
}

func vectorToBytes(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}
