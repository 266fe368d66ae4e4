package resolve

import "errors"

// ErrConflictingMerge is returned when a batch coreference cluster links
// observations of different entity types. Type equality is a precondition for
// every similarity edge, so hitting this means a caller constructed an
// invalid candidate group.
var ErrConflictingMerge = errors.New("conflicting merge: cluster links observations of different types")

// ErrDuplicateObservation is returned when an observation id is recorded twice.
// Observations are immutable; re-recording is a caller bug, not an update.
var ErrDuplicateObservation = errors.New("observation already recorded")
