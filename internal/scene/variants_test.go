package scene

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cybre/aurora-visualizer/internal/dsp"
	"github.com/cybre/aurora-visualizer/internal/settings"
)

func loudFeatures() dsp.Features {
	return dsp.Features{Bass: 0.8, Mid: 0.6, High: 0.4, Overall: 0.6}
}

func settleVariant(v Variant, st *settings.Store, f dsp.Features, ticks int) {
	for i := 0; i < ticks; i++ {
		v.Update(1.0/60, st, f)
	}
}

func TestLinkedParticlesProducesPointsAndLinks(t *testing.T) {
	env := testEnv()
	v := NewLinkedParticles()
	require.NoError(t, v.Init(context.Background(), env))

	st := settings.NewStore()
	settleVariant(v, st, loudFeatures(), 30)

	frame := v.Frame()
	assert.NotEmpty(t, frame.Points)
	assert.NotEmpty(t, frame.Links)
	for _, p := range frame.Points {
		assert.GreaterOrEqual(t, p.X, float32(0))
		assert.Less(t, p.X, float32(env.Width))
		assert.GreaterOrEqual(t, p.Y, float32(0))
		assert.Less(t, p.Y, float32(env.Height))
	}
}

func TestLinkedParticlesZeroSpawnIntensityEmptiesFrame(t *testing.T) {
	env := testEnv()
	v := NewLinkedParticles()
	require.NoError(t, v.Init(context.Background(), env))

	st := settings.NewStore()
	st.Set(settings.GroupSpawn+"Intensity", 0.0)
	settleVariant(v, st, loudFeatures(), 120)

	assert.Empty(t, v.Frame().Points)
}

func TestFlowingPointsRespawnWithinBounds(t *testing.T) {
	env := testEnv()
	v := NewFlowingPoints()
	require.NoError(t, v.Init(context.Background(), env))

	st := settings.NewStore()
	settleVariant(v, st, loudFeatures(), 240)

	frame := v.Frame()
	assert.NotEmpty(t, frame.Points)
	for _, p := range frame.Points {
		assert.GreaterOrEqual(t, p.X, float32(0))
		assert.Less(t, p.X, float32(env.Width))
	}
}

func TestPointCloudInitLoadsAsset(t *testing.T) {
	env := testEnv()
	v := NewPointCloud()
	require.NoError(t, v.Init(context.Background(), env))

	st := settings.NewStore()
	v.Update(1.0/60, st, loudFeatures())

	assert.NotEmpty(t, v.Frame().Points)
	assert.Equal(t, 2, env.Resources.Len(), "model and deformed buffers tracked")
}

type failingAssets struct{}

func (failingAssets) LoadPointCloud(ctx context.Context, name string) ([]CloudPoint, error) {
	return nil, assert.AnError
}

func TestPointCloudInitFailurePropagates(t *testing.T) {
	env := testEnv()
	env.Assets = failingAssets{}
	m := NewManager(env)
	m.RegisterDefaults()

	err := m.SwitchTo(context.Background(), PointCloud)

	assert.Error(t, err)
	assert.Equal(t, ID(""), m.ActiveID())
	assert.Equal(t, 0, env.Resources.Len())
}

func TestProceduralAssetsUnknownName(t *testing.T) {
	_, err := ProceduralAssets{}.LoadPointCloud(context.Background(), "does-not-exist")

	assert.Error(t, err)
}

func TestVariantFramesClearAfterCleanup(t *testing.T) {
	env := testEnv()
	for _, ctor := range []func() Variant{NewLinkedParticles, NewFlowingPoints} {
		v := ctor()
		require.NoError(t, v.Init(context.Background(), env))
		settleVariant(v, settings.NewStore(), loudFeatures(), 10)
		v.Cleanup()
		assert.Empty(t, v.Frame().Points)
		env.Resources.ReleaseAll()
	}
}
