package model

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// DefaultNamespace is the resource identifier namespace used when the caller
// does not configure one.
const DefaultNamespace = "resolver"

// NewCID generates a content identifier for arbitrary bytes.
// Format: cid:sha256:<first 16 hex chars>.
func NewCID(content []byte) string {
	sum := sha256.Sum256(content)
	return "cid:sha256:" + hex.EncodeToString(sum[:])[:16]
}

// NewRID generates a resource identifier in the orn convention used by
// upstream and downstream collaborators: orn:<namespace>.<type>:<id>.
func NewRID(namespace string, resourceType string, identifier string) string {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	return fmt.Sprintf("orn:%s.%s:%s", namespace, strings.ToLower(resourceType), identifier)
}

// NewObservationID generates a unique observation identifier
func NewObservationID() string {
	return "obs:" + shortUUID()
}

// NewResolutionID generates a unique resolution identifier
func NewResolutionID() string {
	return "res:" + shortUUID()
}

func shortUUID() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")[:12]
}
