package hquery

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// similarityThreshold maps a fuzzy temperature in [0,100] to the minimum
// similarity ratio a term must reach to match (§4.3, P5): temp=0 requires
// ~0.9 similarity, temp=100 requires ~0.1.
func similarityThreshold(temp float64) float64 {
	if temp < 0 {
		temp = 0
	}
	if temp > 100 {
		temp = 100
	}
	return 0.9 - 0.8*(temp/100.0)
}

// charRatio computes the character-level sequence-similarity ratio
// between two strings, the same semantics as Python's
// difflib.SequenceMatcher.ratio() that the original engine used for
// fuzzy matching — ported here via github.com/pmezard/go-difflib, which
// operates on token slices, so each string is split into single-rune
// tokens first.
func charRatio(a, b string) float64 {
	matcher := difflib.NewMatcher(splitChars(a), splitChars(b))
	return matcher.Ratio()
}

func splitChars(s string) []string {
	runes := []rune(s)
	out := make([]string, len(runes))
	for i, r := range runes {
		out[i] = string(r)
	}
	return out
}

// targetsMatchTerm implements §4.3's term-matching contract: normalise
// the term and each target (trim + case-fold), then match by exact
// equality, substring containment, or fuzzy similarity depending on the
// fuzzy/exact flags.
func targetsMatchTerm(targets []Value, term string, fuzzy, exact bool, temp float64) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return false
	}

	normTargets := make([]string, 0, len(targets))
	for _, t := range targets {
		if t.IsNull() {
			continue
		}
		normTargets = append(normTargets, normStr(t))
	}
	if len(normTargets) == 0 {
		return false
	}

	if !fuzzy {
		if exact {
			for _, t := range normTargets {
				if term == t {
					return true
				}
			}
			return false
		}
		for _, t := range normTargets {
			if strings.Contains(t, term) {
				return true
			}
		}
		return false
	}

	threshold := similarityThreshold(temp)
	best := 0.0
	for _, t := range normTargets {
		if score := charRatio(term, t); score > best {
			best = score
		}
	}
	return best >= threshold
}

// targetsForValue turns a field's Value into the target list for term
// matching: a list's elements become the targets, a scalar becomes a
// single-element target list, and null becomes the empty list (§4.4).
func targetsForValue(v Value) []Value {
	if v.IsNull() {
		return nil
	}
	if items, ok := v.AsList(); ok {
		return items
	}
	return []Value{v}
}
