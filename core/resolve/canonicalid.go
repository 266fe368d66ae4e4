package resolve

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/siherrmann/resolver/core/normalize"
)

// CanonicalID derives the deterministic canonical identifier for an entity
// type and name. Re-processing the same raw entity against a fresh registry
// always yields the same identifier, which makes re-ingestion idempotent.
// Format: entity:<lowercased type>:<first 12 hex chars of sha256>.
func CanonicalID(entityType string, name string) string {
	normalized := normalize.Normalize(name)
	return hashedID(entityType, normalized)
}

// UniqueCanonicalID derives a canonical identifier for an observation with an
// empty name. Unnamed observations always mint, so the identifier is keyed by
// the observation id instead of the (empty) normalized name to keep distinct
// unnamed entities apart.
func UniqueCanonicalID(entityType string, observationID string) string {
	return hashedID(entityType, "\x00"+observationID)
}

func hashedID(entityType string, key string) string {
	sum := sha256.Sum256([]byte(entityType + ":" + key))
	entityType = strings.ToLower(entityType)
	if entityType == "" {
		entityType = "unknown"
	}
	return fmt.Sprintf("entity:%s:%s", entityType, hex.EncodeToString(sum[:])[:12])
}
