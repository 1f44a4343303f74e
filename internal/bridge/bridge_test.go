package bridge

import (
	"context"
	"io"
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cybre/aurora-visualizer/internal/dsp"
	"github.com/cybre/aurora-visualizer/internal/settings"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func startBroadcaster(t *testing.T, snapshot func() map[string]any) (*Broadcaster, string, context.CancelFunc) {
	t.Helper()

	b := NewBroadcaster(testLogger(), snapshot)
	require.NoError(t, b.Listen("127.0.0.1:0"))

	ctx, cancel := context.WithCancel(context.Background())
	go b.Serve(ctx)

	t.Cleanup(func() {
		cancel()
		b.Close()
	})

	return b, b.listener.Addr().String(), cancel
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal(msg)
}

func TestPushWithoutReceiverIsNoOp(t *testing.T) {
	b := NewBroadcaster(testLogger(), func() map[string]any { return nil })

	assert.False(t, b.HasReceiver())
	b.PushAudio(dsp.Features{Bass: 1})
	b.PushScene("linked-particles")
	b.PushTime(1.5)
	b.PushSettings(map[string]any{"bassSensitivity": 2.0})
}

func TestSnapshotPushedOnConnect(t *testing.T) {
	st := settings.NewStore()
	st.Set(settings.KeyBassSensitivity, 2.0)

	_, addr, _ := startBroadcaster(t, st.Snapshot)

	receiver, err := Dial(addr, testLogger())
	require.NoError(t, err)

	local := settings.NewStore()
	got := make(chan struct{}, 1)
	receiver.OnSettings(func(snapshot map[string]any) {
		local.Apply(snapshot)
		select {
		case got <- struct{}{}:
		default:
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go receiver.Run(ctx)

	select {
	case <-got:
	case <-time.After(3 * time.Second):
		t.Fatal("no settings snapshot received on connect")
	}

	assert.Equal(t, 2.0, local.Float(settings.KeyBassSensitivity))
	assert.Equal(t, 1.0, local.Float(settings.KeyMidSensitivity), "other keys keep defaults")
}

func TestAudioAndScenePropagate(t *testing.T) {
	b, addr, _ := startBroadcaster(t, func() map[string]any { return map[string]any{} })

	receiver, err := Dial(addr, testLogger())
	require.NoError(t, err)

	var (
		gotAudio = make(chan dsp.Features, 8)
		gotScene = make(chan string, 8)
		gotTime  = make(chan float64, 8)
	)
	receiver.OnAudio(func(f dsp.Features) { gotAudio <- f })
	receiver.OnScene(func(id string) { gotScene <- id })
	receiver.OnTime(func(s float64) { gotTime <- s })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go receiver.Run(ctx)

	waitFor(t, b.HasReceiver, "receiver never attached")

	want := dsp.Features{Bass: 0.4, Mid: 0.2, High: 0.1, Overall: 0.2333}
	b.PushAudio(want)
	b.PushScene("point-cloud")
	b.PushTime(12.25)

	assert.Equal(t, want, <-gotAudio)
	assert.Equal(t, "point-cloud", <-gotScene)
	assert.Equal(t, 12.25, <-gotTime)
}

func TestBackChannelSceneRequestAndStatus(t *testing.T) {
	b, addr, _ := startBroadcaster(t, func() map[string]any { return map[string]any{} })

	gotRequest := make(chan string, 1)
	gotStatus := make(chan bool, 1)
	b.OnSceneRequest(func(id string) { gotRequest <- id })
	b.OnStatus(func(enabled bool) { gotStatus <- enabled })

	receiver, err := Dial(addr, testLogger())
	require.NoError(t, err)
	defer receiver.Close()

	waitFor(t, b.HasReceiver, "receiver never attached")

	require.NoError(t, receiver.SendSceneRequest("flowing-points"))
	assert.Equal(t, "flowing-points", <-gotRequest)

	require.NoError(t, receiver.SendStatus(false))
	assert.False(t, <-gotStatus)

	// A disabled receiver suppresses pushes.
	waitFor(t, func() bool { return !b.HasReceiver() }, "status change not applied")
}

func TestReceiverIgnoresUnknownType(t *testing.T) {
	client, server := net.Pipe()
	receiver := NewReceiver(client, testLogger())

	gotScene := make(chan string, 1)
	receiver.OnScene(func(id string) { gotScene <- id })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go receiver.Run(ctx)

	go func() {
		server.Write([]byte(`{"type":"hologram","payload":{"x":1}}` + "\n"))
		line, _ := Encode(TypeScene, ScenePayload{ID: "point-cloud"})
		server.Write(line)
	}()

	// The unknown envelope is skipped and the next message still dispatches.
	assert.Equal(t, "point-cloud", <-gotScene)
}

func TestLatestValueWinsOnSlowReceiver(t *testing.T) {
	b, addr, _ := startBroadcaster(t, func() map[string]any { return map[string]any{} })

	receiver, err := Dial(addr, testLogger())
	require.NoError(t, err)

	waitFor(t, b.HasReceiver, "receiver never attached")

	// Flood more messages than the outbox holds before the receiver reads.
	for i := 0; i < 500; i++ {
		b.PushTime(float64(i))
	}

	var last float64
	done := make(chan struct{})
	receiver.OnTime(func(s float64) {
		last = s
		if s == 499 {
			close(done)
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go receiver.Run(ctx)

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatalf("latest time message never arrived, last seen %v", last)
	}
}
