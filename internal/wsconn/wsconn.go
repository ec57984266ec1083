// wsconn.go — the websocket transport variant of spec.md §4.3/§6, used by
// drivebridge.Connect(url, options) to reach an already-running driver over
// the network instead of spawning a local subprocess. Carries the same
// JSON frames as internal/transport but with the length prefix omitted:
// framing comes from the websocket message boundary itself.
//
// Grounded on gorilla/websocket's read/write-pump idiom (one reader
// goroutine, writes serialized by a mutex) as used across the pack's
// websocket-carrying examples; internal/transport's chunked-read shape
// does not apply here since gorilla already delivers whole messages.
package wsconn

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/corvid-labs/drivebridge/internal/errs"
	"github.com/corvid-labs/drivebridge/internal/transport"
	"github.com/corvid-labs/drivebridge/internal/util"
)

// DialOptions configures a Connect (spec §6: "headers, slow_mo, timeout").
type DialOptions struct {
	Headers http.Header
	Timeout time.Duration
	// SlowMo delays every outbound Send by this duration, mirroring the
	// driver's own slow-motion debugging aid.
	SlowMo time.Duration
}

// Transport carries the same framed-JSON contract as
// internal/transport.Transport (and satisfies internal/rpc.FrameTransport)
// over a websocket connection rather than child-process pipes.
type Transport struct {
	conn    *websocket.Conn
	opts    DialOptions
	inbound chan *transport.Message
	done    chan struct{}
	onClose func(error)

	writeMu sync.Mutex
	closeOnce sync.Once
}

// Dial opens a websocket connection to url and wraps it as a Transport.
// onClose is invoked exactly once, with the error that ended the read loop
// (nil on a clean Close), mirroring internal/transport.New's contract.
func Dial(url string, opts DialOptions, onClose func(error)) (*Transport, error) {
	dialer := websocket.Dialer{HandshakeTimeout: opts.Timeout}
	if dialer.HandshakeTimeout == 0 {
		dialer.HandshakeTimeout = 30 * time.Second
	}

	conn, _, err := dialer.Dial(url, opts.Headers)
	if err != nil {
		return nil, errs.Wrap(errs.KindLaunchFailed, "dial driver websocket", err)
	}

	t := &Transport{
		conn:    conn,
		opts:    opts,
		inbound: make(chan *transport.Message, 256),
		done:    make(chan struct{}),
		onClose: onClose,
	}
	return t, nil
}

// Start launches the dedicated read-loop task, matching
// internal/transport.Transport's one-reader-goroutine contract.
func (t *Transport) Start() {
	util.SafeGo(t.readLoop)
}

func (t *Transport) readLoop() {
	var exitErr error
	defer func() {
		close(t.inbound)
		t.Close()
		if t.onClose != nil {
			t.onClose(exitErr)
		}
	}()

	for {
		_, payload, err := t.conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				exitErr = errs.Wrap(errs.KindTransportError, "read websocket message", err)
			}
			return
		}

		var msg transport.Message
		if err := json.Unmarshal(payload, &msg); err != nil {
			exitErr = errs.Wrap(errs.KindProtocolError, "parse websocket frame JSON", err)
			return
		}

		select {
		case t.inbound <- &msg:
		case <-t.done:
			return
		}
	}
}

// Inbound returns the channel the read loop publishes parsed Messages on.
func (t *Transport) Inbound() <-chan *transport.Message { return t.inbound }

// Send marshals value to JSON and writes it as one websocket text message;
// no length prefix, since the websocket layer already delimits messages
// (spec §6).
func (t *Transport) Send(value interface{}) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return errs.Wrap(errs.KindProtocolError, "marshal request", err)
	}

	if t.opts.SlowMo > 0 {
		time.Sleep(t.opts.SlowMo)
	}

	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	if err := t.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		return errs.Wrap(errs.KindTransportError, "write websocket frame", err)
	}
	return nil
}

// Close stops the read loop and closes the underlying connection. Safe to
// call more than once, and safe to call from the read loop's own exit path.
func (t *Transport) Close() {
	t.closeOnce.Do(func() {
		close(t.done)
		_ = t.conn.Close()
	})
}
