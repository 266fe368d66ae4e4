package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPropertiesScan(t *testing.T) {
	t.Run("Scans JSON bytes", func(t *testing.T) {
		var p Properties
		err := p.Scan([]byte(`{"website":"regen.network","tags":["climate","ecology"]}`))

		require.NoError(t, err, "Expected scan to succeed")
		assert.Equal(t, "regen.network", p["website"], "Expected scalar value decoded")
		assert.Equal(t, []interface{}{"climate", "ecology"}, p["tags"], "Expected list value decoded")
	})

	t.Run("Scans nil to an empty bag", func(t *testing.T) {
		var p Properties
		err := p.Scan(nil)

		require.NoError(t, err, "Expected nil scan to succeed")
		assert.NotNil(t, p, "Expected an empty bag, not nil")
		assert.Empty(t, p, "Expected no keys")
	})

	t.Run("Rejects unsupported types", func(t *testing.T) {
		var p Properties
		err := p.Scan(42)
		assert.Error(t, err, "Expected a type assertion error")
	})
}

func TestPropertiesValue(t *testing.T) {
	p := Properties{"website": "regen.network"}
	v, err := p.Value()

	require.NoError(t, err, "Expected value to succeed")
	assert.JSONEq(t, `{"website":"regen.network"}`, string(v.([]byte)), "Expected JSON serialization")
}

func TestPropertiesCopy(t *testing.T) {
	t.Run("Copies lists independently", func(t *testing.T) {
		p := Properties{"tags": []interface{}{"climate"}}
		c := p.Copy()
		c["tags"].([]interface{})[0] = "tampered"

		assert.Equal(t, "climate", p["tags"].([]interface{})[0], "Expected the original list untouched")
	})

	t.Run("Copies nested maps independently", func(t *testing.T) {
		p := Properties{"meta": map[string]interface{}{"lang": "en"}}
		c := p.Copy()
		c["meta"].(map[string]interface{})["lang"] = "de"

		assert.Equal(t, "en", p["meta"].(map[string]interface{})["lang"], "Expected the original map untouched")
	})

	t.Run("Nil copies to nil", func(t *testing.T) {
		var p Properties
		assert.Nil(t, p.Copy(), "Expected nil to stay nil")
	})
}

func TestPropertiesStringValue(t *testing.T) {
	p := Properties{"website": "regen.network", "count": 3, "empty": ""}

	v, ok := p.StringValue("website")
	assert.True(t, ok, "Expected a string hit")
	assert.Equal(t, "regen.network", v, "Expected the stored value")

	_, ok = p.StringValue("count")
	assert.False(t, ok, "Expected non-string values rejected")

	_, ok = p.StringValue("empty")
	assert.False(t, ok, "Expected empty strings rejected")

	_, ok = p.StringValue("missing")
	assert.False(t, ok, "Expected missing keys rejected")
}

func TestIsEmptyValue(t *testing.T) {
	assert.True(t, IsEmptyValue(nil), "Expected nil empty")
	assert.True(t, IsEmptyValue(""), "Expected empty string empty")
	assert.True(t, IsEmptyValue([]interface{}{}), "Expected empty list empty")
	assert.True(t, IsEmptyValue(map[string]interface{}{}), "Expected empty map empty")
	assert.False(t, IsEmptyValue("x"), "Expected non-empty string kept")
	assert.False(t, IsEmptyValue(0), "Expected numeric zero kept")
	assert.False(t, IsEmptyValue(false), "Expected boolean false kept")
}

func TestNewObservationStripsReservedKeys(t *testing.T) {
	obs := NewObservation(EntityRecord{
		Type: "Agent",
		Name: "Regen Network",
		Properties: Properties{
			"@id":     "raw:1",
			"type":    "shadow",
			"name":    "shadow",
			"website": "regen.network",
		},
	}, "doc-1", "cid:sha256:abc", "external", nil)

	assert.NotContains(t, obs.Properties, "@id", "Expected reserved keys stripped")
	assert.NotContains(t, obs.Properties, "type", "Expected reserved keys stripped")
	assert.NotContains(t, obs.Properties, "name", "Expected reserved keys stripped")
	assert.Equal(t, "regen.network", obs.Properties["website"], "Expected ordinary keys kept")
	assert.Equal(t, 1.0, obs.Confidence, "Expected confidence to default to 1.0")
	assert.NotEmpty(t, obs.ID, "Expected a generated observation id")
}
