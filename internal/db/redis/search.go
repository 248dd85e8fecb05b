package redis

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/redis/rueidis"

	"github.com/claimsdesk/claimsdesk/internal/db"
)

// sectionField is the TAG field used for section pre-filtering.
const sectionField = "section"

// vectorScoreField is the KNN distance alias requested via AS in the query.
const vectorScoreField = "vector_score"

// SearchText runs a lexical best-match search via FT.SEARCH with BM25 scoring.
func (s *Store) SearchText(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error) {
	if q.IndexName == "" {
		return nil, fmt.Errorf("index name is required")
	}
	if q.Query == "" {
		return nil, fmt.Errorf("query is required")
	}
	if q.TopK <= 0 {
		return nil, fmt.Errorf("topK must be positive")
	}

	queryStr := textPart(q.TextFields, q.Query)
	if filter := sectionFilter(q.Section); filter != "" {
		queryStr = filter + " " + queryStr
	}

	args := []string{q.IndexName, queryStr}
	args = appendReturnFields(args, q.ReturnFields)
	args = append(args,
		"WITHSCORES",
		"LIMIT", "0", strconv.Itoa(q.TopK),
		"DIALECT", "2",
	)

	cmd := s.b().Arbitrary("FT.SEARCH").Args(args...).Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}

	return parseScoredResult(raw)
}

// SearchKNN runs a KNN vector similarity search via FT.SEARCH.
func (s *Store) SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
	if err := validateKNN(q.IndexName, q.VectorField, q.Vector, q.K); err != nil {
		return nil, err
	}

	base := "*"
	if filter := sectionFilter(q.Section); filter != "" {
		base = "(" + filter + ")"
	}
	queryStr := base + "=>" + knnPart(q.K, q.VectorField, q.NumCandidates)

	return s.searchKNNQuery(ctx, q.IndexName, queryStr, q.Vector, q.K, q.ReturnFields)
}

// SearchHybrid runs the combined query: the lexical match is the KNN
// pre-filter, so a hit must satisfy both the keyword match and the
// vector similarity ranking.
func (s *Store) SearchHybrid(ctx context.Context, q *db.HybridQuery) (*db.SearchResult, error) {
	if err := validateKNN(q.IndexName, q.VectorField, q.Vector, q.K); err != nil {
		return nil, err
	}
	if q.Query == "" {
		return nil, fmt.Errorf("query is required")
	}

	parts := []string{}
	if filter := sectionFilter(q.Section); filter != "" {
		parts = append(parts, filter)
	}
	parts = append(parts, textPart(q.TextFields, q.Query))
	queryStr := "(" + strings.Join(parts, " ") + ")=>" + knnPart(q.K, q.VectorField, q.NumCandidates)

	return s.searchKNNQuery(ctx, q.IndexName, queryStr, q.Vector, q.K, q.ReturnFields)
}

func (s *Store) searchKNNQuery(
	ctx context.Context, index, queryStr string,
	vector []float32, k int, returnFields []string,
) (*db.SearchResult, error) {
	args := []string{index, queryStr}
	args = appendReturnFields(args, append(returnFields, vectorScoreField))
	args = append(args,
		"SORTBY", vectorScoreField,
		"LIMIT", "0", strconv.Itoa(k),
		"PARAMS", "2", "BLOB", vectorToBytes(vector),
		"DIALECT", "2",
	)

	cmd := s.b().Arbitrary("FT.SEARCH").Args(args...).Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}

	return parseKNNResult(raw)
}

func validateKNN(index, field string, vector []float32, k int) error {
	if index == "" {
		return fmt.Errorf("index name is required")
	}
	if field == "" {
		return fmt.Errorf("vector field is required")
	}
	if len(vector) == 0 {
		return fmt.Errorf("vector is required")
	}
	if k <= 0 {
		return fmt.Errorf("k must be positive")
	}
	return nil
}

// --- Query string building ---

func textPart(fields []string, query string) string {
	return fmt.Sprintf("@%s:(%s)", strings.Join(fields, "|"), escapeQuery(query))
}

func sectionFilter(section string) string {
	if section == "" {
		return ""
	}
	return fmt.Sprintf("@%s:{%s}", sectionField, escapeTag(section))
}

func knnPart(k int, field string, numCandidates int) string {
	part := fmt.Sprintf("[KNN %d @%s $BLOB", k, field)
	if numCandidates > 0 {
		part += fmt.Sprintf(" EF_RUNTIME %d", numCandidates)
	}
	return part + " AS " + vectorScoreField + "]"
}

func appendReturnFields(args, fields []string) []string {
	if len(fields) == 0 {
		return args
	}
	args = append(args, "RETURN", strconv.Itoa(len(fields)))
	return append(args, fields...)
}

// --- Result parsing ---

// parseKNNResult parses a 2-stride reply: [total, key1, fields1, ...].
// The KNN distance arrives as the vector_score field and is converted to
// a cosine similarity clamped to [0,1].
func parseKNNResult(raw []rueidis.RedisMessage) (*db.SearchResult, error) {
	if len(raw) == 0 {
		return &db.SearchResult{}, nil
	}

	total, err := raw[0].AsInt64()
	if err != nil {
		return nil, fmt.Errorf("parse total: %w", err)
	}
	if total == 0 {
		return &db.SearchResult{}, nil
	}

	entries := make([]db.SearchEntry, 0, total)
	for i := 1; i+1 < len(raw); i += 2 {
		key, err := raw[i].ToString()
		if err != nil {
			continue
		}

		fields, err := raw[i+1].ToArray()
		if err != nil {
			continue
		}

		entry := db.SearchEntry{
			Key:    key,
			Fields: parseFieldPairs(fields),
		}

		if distStr, ok := entry.Fields[vectorScoreField]; ok {
			if dist, err := strconv.ParseFloat(distStr, 64); err == nil {
				entry.Score = max(0, 1.0-dist)
			}
			delete(entry.Fields, vectorScoreField)
		}

		entries = append(entries, entry)
	}

	return &db.SearchResult{Total: int(total), Entries: entries}, nil
}

// parseScoredResult parses a 3-stride WITHSCORES reply:
// [total, key1, score1, fields1, ...].
func parseScoredResult(raw []rueidis.RedisMessage) (*db.SearchResult, error) {
	if len(raw) == 0 {
		return &db.SearchResult{}, nil
	}

	total, err := raw[0].AsInt64()
	if err != nil {
		return nil, fmt.Errorf("parse total: %w", err)
	}
	if total == 0 {
		return &db.SearchResult{}, nil
	}

	entries := make([]db.SearchEntry, 0, total)
	for i := 1; i+2 < len(raw); i += 3 {
		key, err := raw[i].ToString()
		if err != nil {
			continue
		}

		scoreStr, err := raw[i+1].ToString()
		if err != nil {
			continue
		}
		score, err := strconv.ParseFloat(scoreStr, 64)
		if err != nil {
			continue
		}

		fields, err := raw[i+2].ToArray()
		if err != nil {
			continue
		}

		entries = append(entries, db.SearchEntry{
			Key:    key,
			Score:  score,
			Fields: parseFieldPairs(fields),
		})
	}

	return &db.SearchResult{Total: int(total), Entries: entries}, nil
}

func parseFieldPairs(fields []rueidis.RedisMessage) map[string]string {
	m := make(map[string]string, len(fields)/2)
	for j := 0; j+1 < len(fields); j += 2 {
		name, err := fields[j].ToString()
		if err != nil {
			continue
		}
		value, err := fields[j+1].ToString()
		if err != nil {
			continue
		}
		m[name] = value
	}
	return m
}

// --- Escaping and vector serialization ---

func escapeQuery(s string) string {
	return queryEscaper.Replace(s)
}

var queryEscaper = strings.NewReplacer(
	`\`, `\\`,
	`'`, `\'`,
	`"`, `\"`,
	`@`, `\@`,
	`{`, `\{`,
	`}`, `\}`,
	`(`, `\(`,
	`)`, `\)`,
	`|`, `\|`,
	`-`, `\-`,
	`~`, `\~`,
	`*`, `\*`,
	`[`, `\[`,
	`]`, `\]`,
	`!`, `\!`,
	`%`, `\%`,
	`^`, `\^`,
	`$`, `\$`,
	`<`, `\<`,
	`>`, `\>`,
	`=`, `\=`,
	`:`, `\:`,
	`;`, `\;`,
	`,`, `\,`,
	`?`, `\?`,
	`&`, `\&`,
	`/`, `\/`,
)

// escapeTag escapes a TAG value for use inside {}; spaces are significant
// in tag values and must be backslash-escaped.
func escapeTag(s string) string {
	return tagEscaper.Replace(s)
}

var tagEscaper = strings.NewReplacer(
	`\`, `\\`,
	` `, `\ `,
	`{`, `\{`,
	`}`, `\}`,
	`|`, `\|`,
	`,`, `\,`,
)

func vectorToBytes(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}
