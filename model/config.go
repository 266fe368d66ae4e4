package model

// ResolverConfig represents configuration for observation matching and merging
type ResolverConfig struct {
	// Matching parameters
	SimilarityThreshold float64 `json:"similarity_threshold"`
	NGramMin            int     `json:"ngram_min"`
	NGramMax            int     `json:"ngram_max"`

	// Property match scores
	IdentifierMatchScore float64 `json:"identifier_match_score"`
	ContactMatchScore    float64 `json:"contact_match_score"`

	// Name signature vectors (for the database-side candidate prefilter)
	SignatureDimension int `json:"signature_dimension"`

	// Provenance parameters
	Namespace        string `json:"namespace"`
	ExtractionMethod string `json:"extraction_method"`
}

// DefaultResolverConfig returns a sensible default configuration
func DefaultResolverConfig() ResolverConfig {
	return ResolverConfig{
		SimilarityThreshold:  0.85,
		NGramMin:             2,
		NGramMax:             4,
		IdentifierMatchScore: 1.0,
		ContactMatchScore:    0.95,
		SignatureDimension:   256,
		Namespace:            DefaultNamespace,
		ExtractionMethod:     "external",
	}
}
