package item

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Threshold is a number of days before expiration at which a reminder fires.
type Threshold int

const (
	ThresholdExpired  Threshold = 0 // Catch-all band for the daily expired sweep
	ThresholdOneDay   Threshold = 1
	ThresholdThreeDay Threshold = 3
	ThresholdWeek     Threshold = 7
)

// ThresholdSet is the sorted set of thresholds that already fired for an item.
type ThresholdSet []Threshold

// Has reports whether t is in the set.
func (s ThresholdSet) Has(t Threshold) bool {
	for _, v := range s {
		if v == t {
			return true
		}
	}
	return false
}

// With returns a copy of the set including t. Adding an existing member is a no-op.
func (s ThresholdSet) With(t Threshold) ThresholdSet {
	if s.Has(t) {
		return s
	}
	out := make(ThresholdSet, 0, len(s)+1)
	out = append(out, s...)
	out = append(out, t)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Int64s converts the set for storage in an integer array column.
func (s ThresholdSet) Int64s() []int64 {
	out := make([]int64, len(s))
	for i, t := range s {
		out[i] = int64(t)
	}
	return out
}

// ThresholdSetFromInt64s is the inverse of Int64s. Duplicates are dropped.
func ThresholdSetFromInt64s(values []int64) ThresholdSet {
	var s ThresholdSet
	for _, v := range values {
		s = s.With(Threshold(v))
	}
	return s
}

// ParseThresholds parses a comma separated list such as "1,3,7".
func ParseThresholds(raw string) ([]Threshold, error) {
	var out []Threshold
	seen := make(map[Threshold]bool)
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid threshold %q: %w", part, err)
		}
		if n < 0 {
			return nil, fmt.Errorf("threshold must not be negative, got %d", n)
		}
		if seen[Threshold(n)] {
			continue
		}
		seen[Threshold(n)] = true
		out = append(out, Threshold(n))
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no thresholds in %q", raw)
	}
	return out, nil
}
