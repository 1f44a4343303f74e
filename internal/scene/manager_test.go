package scene

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cybre/aurora-visualizer/internal/dsp"
	"github.com/cybre/aurora-visualizer/internal/settings"
)

type fakeVariant struct {
	id      ID
	calls   *[]string
	initErr error
	buffers int
}

func (f *fakeVariant) ID() ID { return f.id }

func (f *fakeVariant) Init(ctx context.Context, env *Environment) error {
	*f.calls = append(*f.calls, "init:"+string(f.id))
	for i := 0; i < f.buffers; i++ {
		NewBuffer[float64](env.Resources, 16)
	}
	return f.initErr
}

func (f *fakeVariant) Update(delta float64, st *settings.Store, features dsp.Features) {
	*f.calls = append(*f.calls, "update:"+string(f.id))
}

func (f *fakeVariant) Frame() Frame { return Frame{} }

func (f *fakeVariant) Cleanup() {
	*f.calls = append(*f.calls, "cleanup:"+string(f.id))
}

func testEnv() *Environment {
	return &Environment{
		Width:     800,
		Height:    600,
		Rand:      rand.New(rand.NewSource(1)),
		Assets:    ProceduralAssets{},
		Resources: NewResourceSet(),
	}
}

func newFakeManager(t *testing.T, calls *[]string) *Manager {
	t.Helper()
	m := NewManager(testEnv())
	m.Register("a", func() Variant { return &fakeVariant{id: "a", calls: calls, buffers: 2} })
	m.Register("b", func() Variant { return &fakeVariant{id: "b", calls: calls, buffers: 1} })
	return m
}

func TestSwitchToUnknownVariant(t *testing.T) {
	var calls []string
	m := newFakeManager(t, &calls)
	require.NoError(t, m.SwitchTo(context.Background(), "a"))

	err := m.SwitchTo(context.Background(), "nope")

	assert.Error(t, err)
	assert.Equal(t, ID("a"), m.ActiveID())

	// The previously active variant still updates.
	m.Update(0.016, settings.NewStore(), dsp.Features{})
	assert.Contains(t, calls, "update:a")
}

func TestSwitchCleansUpBeforeInit(t *testing.T) {
	var calls []string
	m := newFakeManager(t, &calls)

	require.NoError(t, m.SwitchTo(context.Background(), "a"))
	require.NoError(t, m.SwitchTo(context.Background(), "b"))

	assert.Equal(t, []string{"init:a", "cleanup:a", "init:b"}, calls)
	assert.Equal(t, ID("b"), m.ActiveID())
}

func TestSwitchReleasesResources(t *testing.T) {
	var calls []string
	m := newFakeManager(t, &calls)
	env := testEnv()
	m.env = env

	require.NoError(t, m.SwitchTo(context.Background(), "a"))
	assert.Equal(t, 2, env.Resources.Len())

	require.NoError(t, m.SwitchTo(context.Background(), "b"))
	assert.Equal(t, 1, env.Resources.Len())

	m.Cleanup()
	assert.Equal(t, 0, env.Resources.Len())
}

func TestCleanupIdempotent(t *testing.T) {
	var calls []string
	m := newFakeManager(t, &calls)

	require.NoError(t, m.SwitchTo(context.Background(), "a"))
	m.Cleanup()
	m.Cleanup()

	cleanups := 0
	for _, c := range calls {
		if c == "cleanup:a" {
			cleanups++
		}
	}
	assert.Equal(t, 1, cleanups)
	assert.Equal(t, ID(""), m.ActiveID())
}

func TestCleanupOnEmptyManagerIsNoOp(t *testing.T) {
	var calls []string
	m := newFakeManager(t, &calls)

	m.Cleanup()

	assert.Empty(t, calls)
}

func TestInitFailureLeavesManagerEmpty(t *testing.T) {
	var calls []string
	env := testEnv()
	m := NewManager(env)
	m.Register("broken", func() Variant {
		return &fakeVariant{id: "broken", calls: &calls, initErr: assert.AnError, buffers: 3}
	})

	err := m.SwitchTo(context.Background(), "broken")

	assert.Error(t, err)
	assert.Equal(t, ID(""), m.ActiveID())
	assert.Equal(t, 0, env.Resources.Len(), "failed init must not leak resources")

	// Updates on an empty manager are a no-op.
	m.Update(0.016, settings.NewStore(), dsp.Features{})
	assert.NotContains(t, calls, "update:broken")
}

func TestInitFailureKeepsRegistryUsable(t *testing.T) {
	var calls []string
	m := newFakeManager(t, &calls)
	m.Register("broken", func() Variant {
		return &fakeVariant{id: "broken", calls: &calls, initErr: assert.AnError}
	})

	require.Error(t, m.SwitchTo(context.Background(), "broken"))
	require.NoError(t, m.SwitchTo(context.Background(), "a"))

	assert.Equal(t, ID("a"), m.ActiveID())
}

type reentrantVariant struct {
	fakeVariant
	m    *Manager
	next ID
}

func (r *reentrantVariant) Init(ctx context.Context, env *Environment) error {
	*r.calls = append(*r.calls, "init:"+string(r.id))
	// Request another switch while this one is still in flight.
	return r.m.SwitchTo(ctx, r.next)
}

func TestSwitchDuringSwitchCoalesces(t *testing.T) {
	var calls []string
	m := newFakeManager(t, &calls)
	m.Register("re", func() Variant {
		return &reentrantVariant{
			fakeVariant: fakeVariant{id: "re", calls: &calls},
			m:           m,
			next:        "b",
		}
	})

	require.NoError(t, m.SwitchTo(context.Background(), "re"))

	// The nested request is deferred until the in-flight switch completes,
	// then applied: "re" activates, is torn down, and "b" takes over.
	assert.Equal(t, []string{"init:re", "cleanup:re", "init:b"}, calls)
	assert.Equal(t, ID("b"), m.ActiveID())
}

func TestRegisterDefaults(t *testing.T) {
	m := NewManager(testEnv())
	m.RegisterDefaults()

	assert.Equal(t, []ID{LinkedParticles, FlowingPoints, PointCloud}, m.IDs())
}
