package db

// TextQuery is the input for lexical best-match search. Field weighting
// (e.g. question 3x) is fixed at index creation, not per query.
type TextQuery struct {
	IndexName    string
	Query        string
	TextFields   []string // searched TEXT fields
	Section      string   // exact-match TAG pre-filter, empty = no filter
	TopK         int
	ReturnFields []string
}

// KNNQuery is the input for vector similarity search.
type KNNQuery struct {
	IndexName     string
	VectorField   string
	Vector        []float32
	Section       string
	K             int
	NumCandidates int // HNSW EF_RUNTIME candidate pool, 0 = engine default
	ReturnFields  []string
}

// HybridQuery combines the lexical match and the KNN search in one query;
// the lexical part acts as the KNN pre-filter so both must contribute.
type HybridQuery struct {
	IndexName     string
	Query         string
	TextFields    []string
	VectorField   string
	Vector        []float32
	Section       string
	K             int
	NumCandidates int
	ReturnFields  []string
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single document hit from a search.
type SearchEntry struct {
	Key    string
	Score  float64
	Fields map[string]string
}
