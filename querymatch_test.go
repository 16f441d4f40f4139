package hquery

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSimilarityThreshold(t *testing.T) {
	assert.InDelta(t, 0.9, similarityThreshold(0), 1e-9)
	assert.InDelta(t, 0.1, similarityThreshold(100), 1e-9)
	assert.InDelta(t, 0.5, similarityThreshold(50), 1e-9)
	// out-of-range temperatures clamp.
	assert.InDelta(t, 0.9, similarityThreshold(-10), 1e-9)
	assert.InDelta(t, 0.1, similarityThreshold(200), 1e-9)
}

func TestCharRatioIdentical(t *testing.T) {
	assert.Equal(t, 1.0, charRatio("hello", "hello"))
}

func TestCharRatioCompletelyDifferent(t *testing.T) {
	assert.Equal(t, 0.0, charRatio("abc", "xyz"))
}

func TestTargetsMatchTermExactVsSubstring(t *testing.T) {
	targets := []Value{Str("Principal Engineer")}
	assert.True(t, targetsMatchTerm(targets, "engineer", false, false, 0))
	assert.False(t, targetsMatchTerm(targets, "engineer", false, true, 0))
	assert.True(t, targetsMatchTerm(targets, "principal engineer", false, true, 0))
}

func TestTargetsForValueUnwrapsList(t *testing.T) {
	v := List(Str("go"), Str("rust"))
	targets := targetsForValue(v)
	assert.Len(t, targets, 2)

	scalar := targetsForValue(Str("go"))
	assert.Len(t, scalar, 1)

	assert.Empty(t, targetsForValue(Null()))
}
