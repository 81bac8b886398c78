package scenario

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/areaelements/internal/areaelement"
	"github.com/udisondev/areaelements/internal/battle"
	"github.com/udisondev/areaelements/internal/content"
)

func newTestRunner(t *testing.T) *Runner {
	t.Helper()
	cat, err := content.LoadFile("testdata/content.yaml")
	require.NoError(t, err)
	return NewRunner(cat, battle.Settings{
		MaxElements: 4,
		Policy:      areaelement.EvictOldest,
		RatePercent: 10,
	}, 2)
}

func TestRunner_BasicScript(t *testing.T) {
	script, err := ParseFile("testdata/basic.yaml")
	require.NoError(t, err)

	report, err := newTestRunner(t).Run(context.Background(), script)
	require.NoError(t, err)
	require.Len(t, report.Steps, len(script.Steps))

	rejected := report.Steps[5]
	assert.Equal(t, "use", rejected.Kind)
	assert.True(t, rejected.Rejected)
	assert.Nil(t, rejected.Outcome)

	purge := report.Steps[10].Outcome
	require.NotNil(t, purge)
	assert.Equal(t, 50, purge.BonusPercent)
	assert.Zero(t, purge.RatePercent)
	assert.Equal(t, []areaelement.Token{2}, report.Steps[10].Snapshot.Stable, "full remove keeps stable tokens")

	ignored := report.Steps[13]
	assert.Equal(t, "command", ignored.Kind)
	assert.False(t, ignored.Applied, "commands outside battle are ignored")
}

func TestRunner_ExpectationMismatch(t *testing.T) {
	script, err := Parse([]byte(`
steps:
  - battle_start: true
  - command: "AreaElement add 1"
  - expect: {transient: [4]}
`))
	require.NoError(t, err)

	report, err := newTestRunner(t).Run(context.Background(), script)
	assert.ErrorIs(t, err, ErrExpectation)
	assert.Len(t, report.Steps, 2)
}

func TestRunner_DamageMismatch(t *testing.T) {
	script, err := Parse([]byte(`
actors:
  - name: Harold
steps:
  - battle_start: true
  - use: {actor: Harold, action: attack, expect_damage: 1}
`))
	require.NoError(t, err)

	_, err = newTestRunner(t).Run(context.Background(), script)
	assert.ErrorIs(t, err, ErrExpectation)
}

func TestRunner_UnexpectedRejection(t *testing.T) {
	script, err := Parse([]byte(`
actors:
  - name: Harold
steps:
  - battle_start: true
  - use: {actor: Harold, action: holy_ray}
`))
	require.NoError(t, err)

	_, err = newTestRunner(t).Run(context.Background(), script)
	assert.ErrorIs(t, err, ErrExpectation)
}

func TestRunner_UseOutsideBattle(t *testing.T) {
	script, err := Parse([]byte(`
actors:
  - name: Harold
steps:
  - use: {actor: Harold, action: attack}
`))
	require.NoError(t, err)

	_, err = newTestRunner(t).Run(context.Background(), script)
	assert.ErrorIs(t, err, battle.ErrNotInBattle)
}

func TestRunner_UnknownReferences(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want error
	}{
		{"actor", "steps:\n  - battle_start: true\n  - use: {actor: Nobody, action: attack}\n", ErrUnknownActor},
		{"action", "actors:\n  - name: A\nsteps:\n  - battle_start: true\n  - use: {actor: A, action: meteor}\n", ErrUnknownAction},
		{"trait", "actors:\n  - name: A\n    traits: [halo]\nsteps: []\n", ErrUnknownAction},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			script, err := Parse([]byte(tt.doc))
			require.NoError(t, err)
			_, err = newTestRunner(t).Run(context.Background(), script)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestRunner_ChangeMapDropsStable(t *testing.T) {
	script, err := Parse([]byte(`
map: 1
steps:
  - battle_start: true
  - command: "StableAreaElement add 4"
  - battle_end: true
  - battle_start: true
  - expect: {stable: [4]}
  - change_map: 2
  - expect: {stable: []}
`))
	require.NoError(t, err)

	_, err = newTestRunner(t).Run(context.Background(), script)
	require.NoError(t, err)
}

func TestRunner_ContextCancelled(t *testing.T) {
	script, err := Parse([]byte("steps:\n  - battle_start: true\n"))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := newTestRunner(t).Run(ctx, script)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, report.Steps)
}

func TestParse_Rejects(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"unknown key", "steps:\n  - explode: true\n"},
		{"empty step", "steps:\n  - {}\n"},
		{"two events", "steps:\n  - battle_start: true\n    battle_end: true\n"},
		{"use without action", "steps:\n  - use: {actor: A}\n"},
		{"duplicate actor", "actors:\n  - name: A\n  - name: A\n"},
		{"empty actor", "actors:\n  - traits: []\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			assert.Error(t, err)
		})
	}
}
