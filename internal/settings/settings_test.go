package settings

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreDefaults(t *testing.T) {
	s := NewStore()

	assert.Equal(t, 1.0, s.Float(KeyBassSensitivity))
	assert.Equal(t, "linked-particles", s.String(KeyScene))
	assert.False(t, s.Bool(KeyShowStats))
	assert.Equal(t, 60.0, s.Float(GroupSpawn+"Intensity"))
}

func TestSnapshotApplyRoundTrip(t *testing.T) {
	src := NewStore()
	src.Set(KeyBassSensitivity, 2.0)
	src.Set(KeyScene, "flowing-points")
	src.Set(KeyShowStats, true)

	dst := NewStore()
	dst.Apply(src.Snapshot())

	got := dst.Snapshot()
	for key, want := range src.Snapshot() {
		assert.Equal(t, want, got[key], "key %s", key)
	}
}

func TestApplyIgnoresUnknownKeys(t *testing.T) {
	s := NewStore()
	before := s.Snapshot()

	s.Apply(map[string]any{
		"futureSetting": 42.0,
		"anotherOne":    "hello",
	})

	assert.Equal(t, before, s.Snapshot())
}

func TestApplyPartialSnapshot(t *testing.T) {
	s := NewStore()

	s.Apply(map[string]any{KeyBassSensitivity: 2.0})

	assert.Equal(t, 2.0, s.Float(KeyBassSensitivity))
	assert.Equal(t, 1.0, s.Float(KeyMidSensitivity))
}

func TestApplyIgnoresMismatchedTypes(t *testing.T) {
	s := NewStore()

	s.Apply(map[string]any{
		KeyBassSensitivity: "loud",
		KeyScene:           3.5,
		KeyShowStats:       "yes",
	})

	assert.Equal(t, 1.0, s.Float(KeyBassSensitivity))
	assert.Equal(t, "linked-particles", s.String(KeyScene))
	assert.False(t, s.Bool(KeyShowStats))
}

func TestApplyAcceptsJSONNumbers(t *testing.T) {
	s := NewStore()

	// Decoded JSON numbers arrive as float64, but a local caller may hand an int.
	s.Apply(map[string]any{KeyParticleCount: 500})

	assert.Equal(t, 500.0, s.Float(KeyParticleCount))
}

func TestAdjustClampsToBounds(t *testing.T) {
	s := NewStore()

	s.Adjust(KeyBassSensitivity, 100)
	assert.Equal(t, 5.0, s.Float(KeyBassSensitivity))

	s.Adjust(KeyBassSensitivity, -100)
	assert.Equal(t, 0.0, s.Float(KeyBassSensitivity))
}

func TestEntriesOrderedAndCopied(t *testing.T) {
	s := NewStore()

	entries := s.Entries()
	require.NotEmpty(t, entries)
	assert.Equal(t, KeyBassSensitivity, entries[0].Key)

	entries[0].Value = 99.0
	assert.Equal(t, 1.0, s.Float(KeyBassSensitivity))
}

func TestSceneOptionsMatchVariantIDs(t *testing.T) {
	s := NewStore()

	var sceneEntry *Entry
	for _, e := range s.Entries() {
		if e.Key == KeyScene {
			entry := e
			sceneEntry = &entry
			break
		}
	}

	require.NotNil(t, sceneEntry)
	assert.Equal(t, []string{"linked-particles", "flowing-points", "point-cloud"}, sceneEntry.Options)
}
