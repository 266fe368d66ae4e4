package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSimilarity(t *testing.T) {
	t.Run("Empty input scores zero", func(t *testing.T) {
		assert.Equal(t, 0.0, Similarity("", "Regen Network"), "Expected empty left input to score 0")
		assert.Equal(t, 0.0, Similarity("Regen Network", ""), "Expected empty right input to score 0")
		assert.Equal(t, 0.0, Similarity("", ""), "Expected both empty to score 0")
	})

	t.Run("Normalized equality scores one", func(t *testing.T) {
		assert.Equal(t, 1.0, Similarity("Regen Network", "REGEN NETWORK"), "Expected case variants to score 1")
		assert.Equal(t, 1.0, Similarity("Regen Network Inc.", "Regen Network"), "Expected suffix variant to score 1")
	})

	t.Run("Identity scores one for non-empty input", func(t *testing.T) {
		for _, s := range []string{"a", "Acme", "Regen Network", "x-1"} {
			assert.Equal(t, 1.0, Similarity(s, s), "Expected Similarity(%q, %q) to be 1", s, s)
		}
	})

	t.Run("Is symmetric", func(t *testing.T) {
		pairs := [][2]string{
			{"Regen Network", "Regen Netwerk"},
			{"Acme", "Acme Labs"},
			{"a", "b"},
			{"ab", "ba"},
			{"Open Earth Foundation", "OpenEarth"},
		}
		for _, p := range pairs {
			assert.Equal(t, Similarity(p[0], p[1]), Similarity(p[1], p[0]), "Expected symmetry for %q vs %q", p[0], p[1])
		}
	})

	t.Run("Is bounded in [0,1]", func(t *testing.T) {
		pairs := [][2]string{
			{"Regen Network", "Regen Network Foundation"},
			{"abcd", "wxyz"},
			{"a", "ab"},
			{"Acme Corp", "Acme Corporation"},
		}
		for _, p := range pairs {
			s := Similarity(p[0], p[1])
			assert.GreaterOrEqual(t, s, 0.0, "Expected score >= 0 for %q vs %q", p[0], p[1])
			assert.LessOrEqual(t, s, 1.0, "Expected score <= 1 for %q vs %q", p[0], p[1])
		}
	})

	t.Run("Near-duplicate names score high", func(t *testing.T) {
		s := Similarity("Regen Network", "Regen Networks")
		assert.Greater(t, s, 0.85, "Expected near-duplicate names to exceed the default threshold")
	})

	t.Run("Unrelated names score low", func(t *testing.T) {
		s := Similarity("Regen Network", "Carbon Credits")
		assert.Less(t, s, 0.5, "Expected unrelated names to score low")
	})

	t.Run("Falls back to Jaccard for short strings", func(t *testing.T) {
		// Single characters produce no 2..4-grams, so the character-set
		// fallback applies.
		assert.Equal(t, 0.0, Similarity("a", "b"), "Expected disjoint single characters to score 0")
		assert.Equal(t, 1.0, Similarity("a", "A"), "Expected same character to score 1 via normalization")
	})
}

func TestSignature(t *testing.T) {
	t.Run("Is deterministic", func(t *testing.T) {
		a := Signature("Regen Network", 256)
		b := Signature("Regen Network", 256)
		assert.Equal(t, a, b, "Expected identical signatures for the same name")
	})

	t.Run("Has unit L2 norm for non-empty names", func(t *testing.T) {
		vec := Signature("Regen Network", 256)
		var norm float64
		for _, v := range vec {
			norm += float64(v) * float64(v)
		}
		assert.InDelta(t, 1.0, norm, 1e-5, "Expected L2-normalized signature")
	})

	t.Run("Empty name yields zero vector", func(t *testing.T) {
		vec := Signature("", 64)
		for _, v := range vec {
			assert.Zero(t, v, "Expected all-zero signature for empty name")
		}
	})

	t.Run("Defaults the dimension", func(t *testing.T) {
		vec := Signature("Acme", 0)
		assert.Len(t, vec, DefaultSignatureDimension, "Expected default dimension when dim <= 0")
	})
}
