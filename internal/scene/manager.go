package scene

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/cybre/aurora-visualizer/internal/dsp"
	"github.com/cybre/aurora-visualizer/internal/settings"
)

// Manager is the per-window state machine Empty -> Active(variant) -> Empty.
// At most one variant's Update runs per tick, and switching always tears the
// previous variant down before the next one initializes.
type Manager struct {
	registry map[ID]func() Variant
	order    []ID
	env      *Environment

	active    Variant
	activeID  ID
	switching bool
	pending   *ID
}

// NewManager constructs a manager bound to env with an empty registry.
func NewManager(env *Environment) *Manager {
	return &Manager{
		registry: make(map[ID]func() Variant),
		env:      env,
	}
}

// Register adds a variant constructor under its id. Later registrations for
// the same id replace earlier ones.
func (m *Manager) Register(id ID, ctor func() Variant) {
	if _, exists := m.registry[id]; !exists {
		m.order = append(m.order, id)
	}
	m.registry[id] = ctor
}

// RegisterDefaults installs the built-in variant set.
func (m *Manager) RegisterDefaults() {
	m.Register(LinkedParticles, func() Variant { return NewLinkedParticles() })
	m.Register(FlowingPoints, func() Variant { return NewFlowingPoints() })
	m.Register(PointCloud, func() Variant { return NewPointCloud() })
}

// IDs lists the registered variant ids in registration order.
func (m *Manager) IDs() []ID {
	out := make([]ID, len(m.order))
	copy(out, m.order)
	return out
}

// ActiveID returns the id of the active variant, or "" while empty.
func (m *Manager) ActiveID() ID {
	return m.activeID
}

// SwitchTo tears down the active variant (if any) and activates a fresh
// instance of the requested one. An unrecognized id is an explicit error and
// leaves the currently active variant untouched. If init fails the manager
// stays empty, with no resources left over from the failed attempt. A switch
// requested while another is in flight is coalesced to the latest request and
// applied once the in-flight switch settles.
func (m *Manager) SwitchTo(ctx context.Context, id ID) error {
	ctor, ok := m.registry[id]
	if !ok {
		return eris.Errorf("unknown scene variant %q", id)
	}

	if m.switching {
		pending := id
		m.pending = &pending
		return nil
	}

	m.switching = true
	m.teardown()

	next := ctor()
	err := next.Init(ctx, m.env)
	m.switching = false
	if err != nil {
		// Drop anything the failed init managed to allocate, along with any
		// request queued behind the failed switch.
		m.env.Resources.ReleaseAll()
		m.pending = nil
		return eris.Wrapf(err, "initialize scene variant %q", id)
	}
	m.active = next
	m.activeID = id

	if m.pending != nil {
		queued := *m.pending
		m.pending = nil
		if queued != id {
			return m.SwitchTo(ctx, queued)
		}
	}

	return nil
}

// Update advances the active variant. A no-op while empty or mid-switch.
func (m *Manager) Update(delta float64, st *settings.Store, features dsp.Features) {
	if m.active == nil || m.switching {
		return
	}
	m.active.Update(delta, st, features)
}

// Frame returns the active variant's drawable state, or an empty frame.
func (m *Manager) Frame() Frame {
	if m.active == nil {
		return Frame{}
	}
	return m.active.Frame()
}

// Cleanup tears down the active variant. Idempotent: calling it on an empty
// manager is a no-op.
func (m *Manager) Cleanup() {
	m.teardown()
}

func (m *Manager) teardown() {
	if m.active == nil {
		return
	}
	m.active.Cleanup()
	m.env.Resources.ReleaseAll()
	m.active = nil
	m.activeID = ""
}
