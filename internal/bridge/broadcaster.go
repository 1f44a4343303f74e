package bridge

import (
	"bufio"
	"context"
	"log/slog"
	"net"
	"sync"

	"github.com/rotisserie/eris"

	"github.com/cybre/aurora-visualizer/internal/dsp"
)

const outboxSize = 64

// Broadcaster is the primary window's side of the channel. It accepts
// secondary connections, pushes state to them fire-and-forget, and surfaces
// back-channel requests through callbacks. With no connected receiver every
// push is a silent no-op; a freshly accepted receiver gets a full settings
// snapshot immediately, since the channel has no catch-up capability.
type Broadcaster struct {
	logger   *slog.Logger
	listener net.Listener
	snapshot func() map[string]any

	mu       sync.Mutex
	outboxes map[net.Conn]chan []byte
	enabled  bool

	onSceneRequest func(string)
	onStatus       func(bool)
}

// NewBroadcaster constructs a broadcaster that calls snapshot for the full
// settings table pushed to each newly accepted receiver.
func NewBroadcaster(logger *slog.Logger, snapshot func() map[string]any) *Broadcaster {
	return &Broadcaster{
		logger:   logger,
		snapshot: snapshot,
		outboxes: make(map[net.Conn]chan []byte),
		enabled:  true,
	}
}

// OnSceneRequest registers the callback invoked when a secondary asks for a
// scene change. The callback runs on the connection's read goroutine.
func (b *Broadcaster) OnSceneRequest(fn func(id string)) {
	b.onSceneRequest = fn
}

// OnStatus registers the callback invoked when a secondary toggles whether
// it wants frames.
func (b *Broadcaster) OnStatus(fn func(enabled bool)) {
	b.onStatus = fn
}

// Listen binds the broadcast listener.
func (b *Broadcaster) Listen(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return eris.Wrap(err, "start broadcast listener")
	}
	b.listener = ln
	b.logger.Info("broadcast channel listening", slog.String("addr", ln.Addr().String()))
	return nil
}

// Serve accepts receiver connections until ctx is cancelled. Listen must
// have succeeded first.
func (b *Broadcaster) Serve(ctx context.Context) error {
	if b.listener == nil {
		return eris.New("broadcaster is not listening")
	}

	go func() {
		<-ctx.Done()
		b.listener.Close()
	}()

	for {
		conn, err := b.listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if eris.Is(err, net.ErrClosed) {
				return nil
			}
			return eris.Wrap(err, "accept receiver connection")
		}
		b.attach(conn)
	}
}

func (b *Broadcaster) attach(conn net.Conn) {
	b.logger.Info("receiver connected", slog.String("addr", conn.RemoteAddr().String()))

	outbox := make(chan []byte, outboxSize)
	b.mu.Lock()
	b.outboxes[conn] = outbox
	b.mu.Unlock()

	go b.writeLoop(conn, outbox)
	go b.readLoop(conn)

	// A reconnecting receiver starts from nothing, so hand it the complete
	// settings table up front.
	b.PushSettings(b.snapshot())
}

func (b *Broadcaster) detach(conn net.Conn) {
	b.mu.Lock()
	outbox, ok := b.outboxes[conn]
	if ok {
		delete(b.outboxes, conn)
		close(outbox)
	}
	b.mu.Unlock()

	if ok {
		conn.Close()
		b.logger.Info("receiver disconnected", slog.String("addr", conn.RemoteAddr().String()))
	}
}

func (b *Broadcaster) writeLoop(conn net.Conn, outbox <-chan []byte) {
	for line := range outbox {
		if _, err := conn.Write(line); err != nil {
			b.logger.Warn("failed to write to receiver",
				slog.String("addr", conn.RemoteAddr().String()),
				slog.Any("error", err),
			)
			b.detach(conn)
			return
		}
	}
}

func (b *Broadcaster) readLoop(conn net.Conn) {
	defer b.detach(conn)

	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		env, err := Decode(scanner.Bytes())
		if err != nil {
			b.logger.Warn("malformed message from receiver", slog.Any("error", err))
			continue
		}
		b.handleBackChannel(env)
	}
}

func (b *Broadcaster) handleBackChannel(env Envelope) {
	switch env.Type {
	case TypeSceneRequest:
		var payload ScenePayload
		if err := decodeInto(env.Payload, &payload); err != nil {
			b.logger.Warn("malformed scene request", slog.Any("error", err))
			return
		}
		if b.onSceneRequest != nil {
			b.onSceneRequest(payload.ID)
		}
	case TypeStatus:
		var payload StatusPayload
		if err := decodeInto(env.Payload, &payload); err != nil {
			b.logger.Warn("malformed status change", slog.Any("error", err))
			return
		}
		b.mu.Lock()
		b.enabled = payload.Enabled
		b.mu.Unlock()
		if b.onStatus != nil {
			b.onStatus(payload.Enabled)
		}
	default:
		// Unknown back-channel types are tolerated for forward compatibility.
	}
}

// HasReceiver reports whether at least one receiver is connected and wants
// frames.
func (b *Broadcaster) HasReceiver() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.outboxes) > 0 && b.enabled
}

// PushSettings sends a settings snapshot to every receiver.
func (b *Broadcaster) PushSettings(snapshot map[string]any) {
	b.push(TypeSettings, snapshot)
}

// PushAudio sends the current audio features to every receiver.
func (b *Broadcaster) PushAudio(features dsp.Features) {
	b.push(TypeAudio, features)
}

// PushScene announces the active scene variant to every receiver.
func (b *Broadcaster) PushScene(id string) {
	b.push(TypeScene, ScenePayload{ID: id})
}

// PushTime sends the primary's animation clock to every receiver.
func (b *Broadcaster) PushTime(seconds float64) {
	b.push(TypeTime, TimePayload{Seconds: seconds})
}

func (b *Broadcaster) push(msgType MessageType, payload any) {
	b.mu.Lock()
	if len(b.outboxes) == 0 || !b.enabled {
		b.mu.Unlock()
		return
	}
	line, err := Encode(msgType, payload)
	if err != nil {
		b.mu.Unlock()
		b.logger.Warn("failed to encode broadcast message",
			slog.String("type", string(msgType)),
			slog.Any("error", err),
		)
		return
	}
	for _, outbox := range b.outboxes {
		// Drop the oldest queued line when a slow receiver falls behind;
		// every message type is latest-value-wins.
		select {
		case outbox <- line:
		default:
			select {
			case <-outbox:
			default:
			}
			select {
			case outbox <- line:
			default:
			}
		}
	}
	b.mu.Unlock()
}

// Close shuts the listener and every receiver connection.
func (b *Broadcaster) Close() {
	if b.listener != nil {
		b.listener.Close()
	}
	b.mu.Lock()
	conns := make([]net.Conn, 0, len(b.outboxes))
	for conn := range b.outboxes {
		conns = append(conns, conn)
	}
	b.mu.Unlock()
	for _, conn := range conns {
		b.detach(conn)
	}
}
