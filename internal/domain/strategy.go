package domain

import "fmt"

// Strategy selects how FAQ documents are retrieved for a question.
type Strategy string

const (
	// StrategyText is a lexical best-match query over question/answer/category.
	StrategyText Strategy = "text"
	// StrategyVector is an ANN search over precomputed question+answer vectors.
	StrategyVector Strategy = "vector"
	// StrategyHybrid combines the lexical match and the ANN search; both must contribute.
	StrategyHybrid Strategy = "hybrid"
)

// ParseStrategy converts a request string into a Strategy.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case StrategyText, StrategyVector, StrategyHybrid:
		return Strategy(s), nil
	case "":
		return StrategyHybrid, nil
	}
	return "", fmt.Errorf("unknown search strategy %q", s)
}
