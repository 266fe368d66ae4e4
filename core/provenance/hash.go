// Package provenance keeps the content-addressed transformation ledger and
// builds audit reports from it. The ledger only ever appends; replaying it
// against the recorded observations reconstructs the canonical entity state.
package provenance

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/siherrmann/resolver/model"
)

// ContentHash computes the content identifier of a transformation record over
// its canonical serialization. The record's own ID and CID are not part of the
// hash, so two records describing the same event always collide.
func ContentHash(record *model.TransformationRecord) string {
	sum := sha256.Sum256([]byte(record.CanonicalString()))
	return "cid:sha256:" + hex.EncodeToString(sum[:])[:16]
}
