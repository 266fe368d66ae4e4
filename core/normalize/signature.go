package normalize

import (
	"hash/fnv"
	"math"
)

// DefaultSignatureDimension is the hashed n-gram vector size used when the
// caller does not configure one.
const DefaultSignatureDimension = 256

// Signature builds a fixed-dimension, L2-normalized hashed character n-gram
// frequency vector for a name. Signatures are deterministic, so the same name
// always maps to the same vector; they back the database-side cosine
// prefilter for fuzzy candidate lookup.
func Signature(name string, dim int) []float32 {
	if dim <= 0 {
		dim = DefaultSignatureDimension
	}

	vec := make([]float32, dim)
	counts := ngramCounts(name, DefaultNGramMin, DefaultNGramMax)
	if len(counts) == 0 {
		return vec
	}

	for gram, count := range counts {
		h := fnv.New32a()
		h.Write([]byte(gram))
		vec[h.Sum32()%uint32(dim)] += float32(count)
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		return vec
	}

	scale := float32(1.0 / math.Sqrt(norm))
	for i := range vec {
		vec[i] *= scale
	}

	return vec
}
