package model

import (
	"strings"

	"github.com/gcbaptista/go-dictionary-lookup/internal/errors"
)

// Strategy selects the algorithm used to answer a query
type Strategy string

const (
	// StrategyLinear scans every entry and matches word or translation substrings
	StrategyLinear Strategy = "linear"
	// StrategyIndexed walks the word index for keys sharing the query prefix
	StrategyIndexed Strategy = "indexed"
)

// ParseStrategy converts a user supplied name into a Strategy (case-insensitive)
func ParseStrategy(name string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(name))) {
	case StrategyLinear:
		return StrategyLinear, nil
	case StrategyIndexed:
		return StrategyIndexed, nil
	default:
		return "", errors.NewUnknownStrategyError(name)
	}
}

// Valid reports whether s is one of the known strategies
func (s Strategy) Valid() bool {
	return s == StrategyLinear || s == StrategyIndexed
}

func (s Strategy) String() string {
	return string(s)
}
