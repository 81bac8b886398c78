package content

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/areaelements/internal/annotation"
	"github.com/udisondev/areaelements/internal/areaelement"
)

func TestLoadFile(t *testing.T) {
	cat, err := LoadFile("testdata/content.yaml")
	require.NoError(t, err)

	assert.Equal(t, 4, cat.Definitions.Len())
	assert.Equal(t, areaelement.Token(3), cat.Definitions.Opposing(2))
	def, ok := cat.Definitions.Get(1)
	require.True(t, ok)
	assert.Equal(t, "fire", def.Icon)

	holy, ok := cat.Action("holy_ray")
	require.True(t, ok)
	assert.Equal(t, areaelement.Token(2), holy.Element)
	assert.Equal(t, 150, holy.Power)
	assert.Equal(t, []areaelement.Token{2, 2}, holy.Area.Requires)
	assert.Equal(t, []areaelement.Token{2}, holy.Area.Costs)

	calm, ok := cat.Action("calm_mind")
	require.True(t, ok)
	assert.True(t, calm.Area.NeedsEmpty)
	assert.True(t, calm.Area.SuppressTraits)

	ring, ok := cat.Trait("flame_ring")
	require.True(t, ok)
	assert.Equal(t, []areaelement.Token{1}, ring.Area.Add)

	eclipse, ok := cat.Action("eclipse")
	require.True(t, ok)
	assert.True(t, eclipse.Area.Versus)
	charm, ok := cat.Trait("twilight_charm")
	require.True(t, ok)
	assert.True(t, charm.Area.Versus)

	_, ok = cat.Action("missing")
	assert.False(t, ok)

	assert.Len(t, cat.Digest, 64)
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile("testdata/does-not-exist.yaml")
	assert.Error(t, err)
}

func TestLoad_SchemaRejects(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"empty document", ``},
		{"no elements", `actions: []`},
		{"zero element id", "elements:\n  - id: 0\n"},
		{"unknown field", "elements:\n  - id: 1\n    color: red\n"},
		{"integer token list", "elements:\n  - id: 1\nactions:\n  - id: a\n    area:\n      add: 1\n"},
		{"bad token list", "elements:\n  - id: 1\nactions:\n  - id: a\n    area:\n      add: \"1;2\"\n"},
		{"string flag", "elements:\n  - id: 1\nactions:\n  - id: a\n    area:\n      remove_all: \"yes\"\n"},
		{"negative power", "elements:\n  - id: 1\nactions:\n  - id: a\n    power: -5\n"},
		{"trait costs", "elements:\n  - id: 1\ntraits:\n  - id: t\n    area:\n      costs: \"1\"\n"},
		{"trait needs_empty", "elements:\n  - id: 1\ntraits:\n  - id: t\n    area:\n      needs_empty: true\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load([]byte(tt.doc))
			assert.Error(t, err)
		})
	}
}

func TestLoad_SemanticRejects(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"duplicate element", "elements:\n  - id: 1\n  - id: 1\n"},
		{"unknown opposing", "elements:\n  - id: 1\n    opposing: 7\n"},
		{"unknown action element", "elements:\n  - id: 1\nactions:\n  - id: a\n    element: 9\n"},
		{"unknown annotation token", "elements:\n  - id: 1\nactions:\n  - id: a\n    area:\n      costs: \"9\"\n"},
		{"zero annotation token", "elements:\n  - id: 1\nactions:\n  - id: a\n    area:\n      add: \"0\"\n"},
		{"exclusive requirement", "elements:\n  - id: 1\nactions:\n  - id: a\n    area:\n      needs_empty: true\n      requires: \"1\"\n"},
		{"needs_empty with costs", "elements:\n  - id: 1\nactions:\n  - id: a\n    area:\n      needs_empty: true\n      costs: \"1\"\n"},
		{"duplicate action", "elements:\n  - id: 1\nactions:\n  - id: a\n  - id: a\n"},
		{"duplicate trait", "elements:\n  - id: 1\ntraits:\n  - id: t\n  - id: t\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load([]byte(tt.doc))
			assert.Error(t, err)
		})
	}
}

func TestBuild_DigestIgnoresRowOrder(t *testing.T) {
	elems := []ElementRecord{{ID: 1}, {ID: 2}}
	acts := []ActionRecord{{ID: "a", Element: 1}, {ID: "b", Element: 2}}

	c1, err := Build(elems, acts, nil)
	require.NoError(t, err)
	c2, err := Build(
		[]ElementRecord{elems[1], elems[0]},
		[]ActionRecord{acts[1], acts[0]},
		nil,
	)
	require.NoError(t, err)
	assert.Equal(t, c1.Digest, c2.Digest)

	c3, err := Build(elems, []ActionRecord{{ID: "a", Element: 2}}, nil)
	require.NoError(t, err)
	assert.NotEqual(t, c1.Digest, c3.Digest)
}

func TestBuild_TraitGateRejected(t *testing.T) {
	_, err := Build(
		[]ElementRecord{{ID: 1}},
		nil,
		[]TraitRecord{{ID: "t", Area: annotation.Raw{Requires: "1"}}},
	)
	assert.ErrorIs(t, err, annotation.ErrTraitGate)
}
