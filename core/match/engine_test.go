package match

import (
	"testing"

	"github.com/siherrmann/resolver/core/normalize"
	"github.com/siherrmann/resolver/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeIndex is an in-memory Index for matcher tests
type fakeIndex struct {
	canonicals []*model.CanonicalEntity
	obsCounts  map[string]int
}

func (f *fakeIndex) CanonicalsByNormalizedName(normalized string) []*model.CanonicalEntity {
	var out []*model.CanonicalEntity
	for _, c := range f.canonicals {
		if normalize.Normalize(c.Name) == normalized {
			out = append(out, c)
		}
	}
	return out
}

func (f *fakeIndex) CanonicalsByType(entityType string) []*model.CanonicalEntity {
	var out []*model.CanonicalEntity
	for _, c := range f.canonicals {
		if c.Type == entityType {
			out = append(out, c)
		}
	}
	return out
}

func (f *fakeIndex) ObservationCount(canonicalID string) int {
	return f.obsCounts[canonicalID]
}

func newObservation(entityType, name string, properties model.Properties) *model.Observation {
	return model.NewObservation(
		model.EntityRecord{Type: entityType, Name: name, Properties: properties},
		"doc1.md", "cid:sha256:abc", "test", nil,
	)
}

func TestFindCandidatesExact(t *testing.T) {
	index := &fakeIndex{
		canonicals: []*model.CanonicalEntity{
			{ID: "entity:agent:1", Name: "Regen Network", Type: "Agent"},
			{ID: "entity:asset:1", Name: "Regen Network", Type: "SemanticAsset"},
		},
		obsCounts: map[string]int{},
	}
	engine := NewEngine(index, nil)

	t.Run("Exact match on normalized name scores 1.0", func(t *testing.T) {
		candidates := engine.FindCandidates(newObservation("Agent", "REGEN NETWORK Inc.", nil))

		require.NotEmpty(t, candidates, "Expected at least one candidate")
		assert.Equal(t, "entity:agent:1", candidates[0].CanonicalID, "Expected the same-type canonical")
		assert.Equal(t, 1.0, candidates[0].Score, "Expected exact match score 1.0")
		assert.Equal(t, model.MethodExactMatch, candidates[0].Method, "Expected exact match method")
	})

	t.Run("Exact match is restricted to the same type", func(t *testing.T) {
		candidates := engine.FindCandidates(newObservation("EcologicalAsset", "Regen Network", nil))
		assert.Empty(t, candidates, "Expected no candidates for a type with no canonicals")
	})

	t.Run("Empty name produces no name candidates", func(t *testing.T) {
		candidates := engine.FindCandidates(newObservation("Agent", "", nil))
		assert.Empty(t, candidates, "Expected no candidates for empty name without properties")
	})
}

func TestFindCandidatesFuzzy(t *testing.T) {
	index := &fakeIndex{
		canonicals: []*model.CanonicalEntity{
			{ID: "entity:agent:1", Name: "Regen Network", Type: "Agent", Aliases: []string{"regen network"}},
			{ID: "entity:agent:2", Name: "Carbon Registry", Type: "Agent"},
		},
		obsCounts: map[string]int{},
	}
	engine := NewEngine(index, nil)

	t.Run("Near-duplicate name is proposed with its similarity score", func(t *testing.T) {
		candidates := engine.FindCandidates(newObservation("Agent", "Regen Networks", nil))

		require.NotEmpty(t, candidates, "Expected a fuzzy candidate")
		assert.Equal(t, "entity:agent:1", candidates[0].CanonicalID, "Expected the near-duplicate canonical")
		assert.GreaterOrEqual(t, candidates[0].Score, 0.85, "Expected score at or above threshold")
		assert.Equal(t, "similarity", candidates[0].Evidence["matched_on"], "Expected similarity evidence")
	})

	t.Run("Unrelated name is not proposed", func(t *testing.T) {
		candidates := engine.FindCandidates(newObservation("Agent", "Ocean Plastics Watch", nil))
		assert.Empty(t, candidates, "Expected no candidates below the threshold")
	})

	t.Run("Aliases participate in fuzzy matching", func(t *testing.T) {
		index := &fakeIndex{
			canonicals: []*model.CanonicalEntity{
				{ID: "entity:agent:3", Name: "RND", Type: "Agent", Aliases: []string{"regen network development"}},
			},
			obsCounts: map[string]int{},
		}
		engine := NewEngine(index, nil)

		candidates := engine.FindCandidates(newObservation("Agent", "Regen Network Developments", nil))
		require.NotEmpty(t, candidates, "Expected an alias-driven fuzzy candidate")
		assert.Equal(t, "entity:agent:3", candidates[0].CanonicalID, "Expected match via alias")
	})
}

func TestFindCandidatesProperty(t *testing.T) {
	index := &fakeIndex{
		canonicals: []*model.CanonicalEntity{
			{
				ID: "entity:agent:1", Name: "Regen Network", Type: "Agent",
				Properties: model.Properties{"email": "info@regen.network", "website": "https://regen.network"},
			},
			{
				ID: "entity:agent:2", Name: "Registry", Type: "Agent",
				Properties: model.Properties{"identifier": "did:regen:123"},
			},
		},
		obsCounts: map[string]int{},
	}
	engine := NewEngine(index, nil)

	t.Run("Identifier equality scores 1.0", func(t *testing.T) {
		obs := newObservation("Agent", "Completely Different Name", model.Properties{"identifier": "did:regen:123"})
		candidates := engine.FindCandidates(obs)

		require.NotEmpty(t, candidates, "Expected an identifier candidate")
		assert.Equal(t, "entity:agent:2", candidates[0].CanonicalID, "Expected the identifier-matched canonical")
		assert.Equal(t, 1.0, candidates[0].Score, "Expected identifier match score 1.0")
		assert.Equal(t, model.MethodPropertyMatch, candidates[0].Method, "Expected property match method")
	})

	t.Run("Email equality scores 0.95", func(t *testing.T) {
		obs := newObservation("Agent", "Some Org", model.Properties{"email": "info@regen.network"})
		candidates := engine.FindCandidates(obs)

		require.NotEmpty(t, candidates, "Expected an email candidate")
		assert.Equal(t, "entity:agent:1", candidates[0].CanonicalID, "Expected the email-matched canonical")
		assert.Equal(t, 0.95, candidates[0].Score, "Expected email match score 0.95")
	})

	t.Run("Property match is restricted to the same type", func(t *testing.T) {
		obs := newObservation("SemanticAsset", "Some Doc", model.Properties{"email": "info@regen.network"})
		candidates := engine.FindCandidates(obs)
		assert.Empty(t, candidates, "Expected no cross-type property candidates")
	})

	t.Run("Property match works for empty names", func(t *testing.T) {
		obs := newObservation("Agent", "", model.Properties{"website": "https://regen.network"})
		candidates := engine.FindCandidates(obs)

		require.NotEmpty(t, candidates, "Expected a property candidate despite the empty name")
		assert.Equal(t, "entity:agent:1", candidates[0].CanonicalID, "Expected the website-matched canonical")
	})
}

func TestFindCandidatesRanking(t *testing.T) {
	t.Run("Deduplicates by canonical id keeping the highest score", func(t *testing.T) {
		index := &fakeIndex{
			canonicals: []*model.CanonicalEntity{
				{
					ID: "entity:agent:1", Name: "Regen Network", Type: "Agent",
					Properties: model.Properties{"email": "info@regen.network"},
				},
			},
			obsCounts: map[string]int{},
		}
		engine := NewEngine(index, nil)

		// Hits exact (1.0), fuzzy (1.0 via normalize), and email (0.95).
		obs := newObservation("Agent", "Regen Network", model.Properties{"email": "info@regen.network"})
		candidates := engine.FindCandidates(obs)

		require.Len(t, candidates, 1, "Expected a single deduplicated candidate")
		assert.Equal(t, 1.0, candidates[0].Score, "Expected the highest score retained")
	})

	t.Run("Ties are broken by observation count then id", func(t *testing.T) {
		index := &fakeIndex{
			canonicals: []*model.CanonicalEntity{
				{ID: "entity:agent:b", Name: "Acme", Type: "Agent"},
				{ID: "entity:agent:a", Name: "Acme", Type: "Agent"},
				{ID: "entity:agent:c", Name: "Acme", Type: "Agent"},
			},
			obsCounts: map[string]int{"entity:agent:c": 5},
		}
		engine := NewEngine(index, nil)

		candidates := engine.FindCandidates(newObservation("Agent", "Acme Inc", nil))

		require.Len(t, candidates, 3, "Expected all tied candidates")
		assert.Equal(t, "entity:agent:c", candidates[0].CanonicalID, "Expected most-evidence canonical first")
		assert.Equal(t, "entity:agent:a", candidates[1].CanonicalID, "Expected lexicographic id tie-break")
		assert.Equal(t, "entity:agent:b", candidates[2].CanonicalID, "Expected lexicographic id tie-break")
	})

	t.Run("Candidates are sorted by descending score", func(t *testing.T) {
		index := &fakeIndex{
			canonicals: []*model.CanonicalEntity{
				{ID: "entity:agent:1", Name: "Regen Network", Type: "Agent"},
				{
					ID: "entity:agent:2", Name: "Unrelated Org", Type: "Agent",
					Properties: model.Properties{"email": "info@regen.network"},
				},
			},
			obsCounts: map[string]int{},
		}
		engine := NewEngine(index, nil)

		obs := newObservation("Agent", "Regen Network", model.Properties{"email": "info@regen.network"})
		candidates := engine.FindCandidates(obs)

		require.Len(t, candidates, 2, "Expected two candidates")
		assert.Equal(t, "entity:agent:1", candidates[0].CanonicalID, "Expected exact match first")
		assert.Equal(t, "entity:agent:2", candidates[1].CanonicalID, "Expected property match second")
		assert.Greater(t, candidates[0].Score, candidates[1].Score, "Expected descending scores")
	})
}
