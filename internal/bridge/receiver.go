package bridge

import (
	"bufio"
	"context"
	"encoding/json"
	"log/slog"
	"net"

	"github.com/rotisserie/eris"

	"github.com/cybre/aurora-visualizer/internal/dsp"
)

// Receiver is the secondary window's side of the channel. One handler is
// registered per message type; each invocation fully replaces the local state
// with the received value.
type Receiver struct {
	conn   net.Conn
	logger *slog.Logger

	onSettings func(map[string]any)
	onAudio    func(dsp.Features)
	onScene    func(id string)
	onTime     func(seconds float64)
}

// Dial connects to a primary's broadcast listener.
func Dial(addr string, logger *slog.Logger) (*Receiver, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, eris.Wrapf(err, "connect to broadcast channel at %s", addr)
	}
	return NewReceiver(conn, logger), nil
}

// NewReceiver wraps an established connection.
func NewReceiver(conn net.Conn, logger *slog.Logger) *Receiver {
	return &Receiver{conn: conn, logger: logger}
}

// OnSettings registers the settings snapshot handler.
func (r *Receiver) OnSettings(fn func(snapshot map[string]any)) { r.onSettings = fn }

// OnAudio registers the audio features handler.
func (r *Receiver) OnAudio(fn func(features dsp.Features)) { r.onAudio = fn }

// OnScene registers the scene selection handler.
func (r *Receiver) OnScene(fn func(id string)) { r.onScene = fn }

// OnTime registers the clock handler.
func (r *Receiver) OnTime(fn func(seconds float64)) { r.onTime = fn }

// Run reads messages until the connection closes or ctx is cancelled.
// Handlers run on this goroutine, in per-type send order.
func (r *Receiver) Run(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		r.conn.Close()
	}()

	scanner := bufio.NewScanner(r.conn)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		env, err := Decode(scanner.Bytes())
		if err != nil {
			r.logger.Warn("malformed broadcast message", slog.Any("error", err))
			continue
		}
		r.dispatch(env)
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	if err := scanner.Err(); err != nil && !eris.Is(err, net.ErrClosed) {
		return eris.Wrap(err, "read broadcast channel")
	}
	return nil
}

func (r *Receiver) dispatch(env Envelope) {
	switch env.Type {
	case TypeSettings:
		snapshot, err := DecodeSettings(env.Payload)
		if err != nil {
			r.logger.Warn("malformed settings snapshot", slog.Any("error", err))
			return
		}
		if r.onSettings != nil {
			r.onSettings(snapshot)
		}
	case TypeAudio:
		features, err := DecodeAudio(env.Payload)
		if err != nil {
			r.logger.Warn("malformed audio features", slog.Any("error", err))
			return
		}
		if r.onAudio != nil {
			r.onAudio(features)
		}
	case TypeScene:
		var payload ScenePayload
		if err := decodeInto(env.Payload, &payload); err != nil {
			r.logger.Warn("malformed scene selection", slog.Any("error", err))
			return
		}
		if r.onScene != nil {
			r.onScene(payload.ID)
		}
	case TypeTime:
		var payload TimePayload
		if err := decodeInto(env.Payload, &payload); err != nil {
			r.logger.Warn("malformed time message", slog.Any("error", err))
			return
		}
		if r.onTime != nil {
			r.onTime(payload.Seconds)
		}
	default:
		// Unknown types from a newer primary are ignored.
	}
}

// SendSceneRequest asks the primary to switch scenes.
func (r *Receiver) SendSceneRequest(id string) error {
	return r.send(TypeSceneRequest, ScenePayload{ID: id})
}

// SendStatus tells the primary whether this receiver wants frames.
func (r *Receiver) SendStatus(enabled bool) error {
	return r.send(TypeStatus, StatusPayload{Enabled: enabled})
}

func (r *Receiver) send(msgType MessageType, payload any) error {
	line, err := Encode(msgType, payload)
	if err != nil {
		return err
	}
	if _, err := r.conn.Write(line); err != nil {
		return eris.Wrapf(err, "send %s message", msgType)
	}
	return nil
}

// Close closes the underlying connection.
func (r *Receiver) Close() error {
	return r.conn.Close()
}

func decodeInto(payload json.RawMessage, dst any) error {
	if err := json.Unmarshal(payload, dst); err != nil {
		return eris.Wrap(err, "unmarshal payload")
	}
	return nil
}
