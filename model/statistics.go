package model

// Statistics summarizes the state of the resolution registry and the
// engine's counters. Mint/merge counters cover conditions that never surface
// as errors, such as minting due to an empty name.
type Statistics struct {
	TotalObservations      int            `json:"total_observations"`
	TotalCanonicalEntities int            `json:"total_canonical_entities"`
	TotalResolutions       int            `json:"total_resolutions"`
	TotalAliases           int            `json:"total_aliases"`
	TotalSourceDocuments   int            `json:"total_source_documents"`
	AverageConfidence      float64        `json:"average_confidence"`
	TypeDistribution       map[string]int `json:"type_distribution"`
	DeduplicationRatio     float64        `json:"deduplication_ratio"`

	Merges         int `json:"merges"`
	Mints          int `json:"mints"`
	EmptyNameMints int `json:"empty_name_mints"`
}
