package check

import "db-sanity/internal/schema"

// valueSet is a membership set over value keys.
type valueSet map[string]struct{}

func newValueSet(vals []schema.Value) valueSet {
	s := make(valueSet, len(vals))
	for _, v := range vals {
		if !v.IsNull() {
			s[v.Key()] = struct{}{}
		}
	}
	return s
}

func (s valueSet) has(v schema.Value) bool {
	_, ok := s[v.Key()]
	return ok
}

// distinct returns the non-null values of vals in order of first encounter.
func distinct(vals []schema.Value) []schema.Value {
	seen := make(map[string]bool, len(vals))
	var out []schema.Value
	for _, v := range vals {
		if v.IsNull() || seen[v.Key()] {
			continue
		}
		seen[v.Key()] = true
		out = append(out, v)
	}
	return out
}

// duplicates returns, in order of first encounter, each non-null value
// that occurs more than once.
func duplicates(vals []schema.Value) []schema.Value {
	counts := make(map[string]int, len(vals))
	for _, v := range vals {
		if !v.IsNull() {
			counts[v.Key()]++
		}
	}
	var out []schema.Value
	for _, v := range distinct(vals) {
		if counts[v.Key()] > 1 {
			out = append(out, v)
		}
	}
	return out
}

// capValues and capStrings never return nil, so an empty sample still
// encodes as [].
func capValues(vals []schema.Value, n int) []schema.Value {
	if vals == nil {
		return []schema.Value{}
	}
	if len(vals) > n {
		return vals[:n]
	}
	return vals
}

func capStrings(vals []string, n int) []string {
	if vals == nil {
		return []string{}
	}
	if len(vals) > n {
		return vals[:n]
	}
	return vals
}
