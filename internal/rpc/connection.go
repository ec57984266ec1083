// connection.go — the RPC engine of spec.md §4.3: request/response
// correlation, dispatch of __create__/__dispose__/__adopt__ and ordinary
// events, and the initialize handshake.
//
// Grounded on the teacher's Server struct (cmd/dev-console), which serializes
// state behind mutexes and logs every lifecycle transition through one sink;
// generalized here from an HTTP/MCP session table into a guid-keyed
// channel-owner forest driven by a framed stdio transport.
package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/corvid-labs/drivebridge/internal/channelowner"
	"github.com/corvid-labs/drivebridge/internal/errs"
	"github.com/corvid-labs/drivebridge/internal/telemetry"
	"github.com/corvid-labs/drivebridge/internal/transport"
	"github.com/corvid-labs/drivebridge/internal/util"
)

// createPayload is the params shape of a "__create__" event (spec §4.3).
type createPayload struct {
	Type        string          `json:"type"`
	GUID        string          `json:"guid"`
	Initializer json.RawMessage `json:"initializer"`
}

// adoptPayload is the params shape of an "__adopt__" event.
type adoptPayload struct {
	GUID string `json:"guid"`
}

// root is the transient, unregistered object the initialize handshake is
// sent through. It has the empty guid and satisfies channelowner.Owner so
// newly created top-level objects (the Playwright root and its children) can
// be parented under it during the handshake window.
type root struct {
	channelowner.Base
}

// FrameTransport is the minimal surface the Connection needs from a wire
// transport. Both internal/transport.Transport (framed stdio) and
// internal/wsconn.Transport (driver websocket variant, spec §6) implement
// it, so the RPC engine, dispatch logic, and object graph are entirely
// agnostic to which one a given driver process was launched with.
type FrameTransport interface {
	Inbound() <-chan *transport.Message
	Send(value interface{}) error
	Close()
}

// Connection owns one driver subprocess's RPC state: the transport, the
// pending-request table, the object registry, and the factory that turns
// __create__ events into concrete channel-owners.
type Connection struct {
	t       FrameTransport
	sink    *telemetry.Sink
	factory *channelowner.Factory

	nextID      uint32
	initialized uint32

	pendingMu sync.Mutex
	pending   map[uint32]chan rpcResult

	registry *channelowner.Registry
	root     *root

	closeOnce sync.Once
	closed    chan struct{}
}

type rpcResult struct {
	result json.RawMessage
	err    error
}

// New constructs a Connection over an already-started Transport. Start must
// be called to launch the dispatch loop.
func New(t FrameTransport, sink *telemetry.Sink, factory *channelowner.Factory) *Connection {
	c := &Connection{
		t:        t,
		sink:     sink,
		factory:  factory,
		nextID:   1,
		pending:  make(map[uint32]chan rpcResult),
		registry: channelowner.NewRegistry(),
		closed:   make(chan struct{}),
	}
	c.root = &root{Base: channelowner.NewBase(c, "", "Root", nil, nil)}
	return c
}

// Start launches the dispatch loop that drains the transport's inbound
// channel. Per spec §4.3, exactly one task owns this for the Connection's
// lifetime.
func (c *Connection) Start() {
	util.SafeGo(c.dispatchLoop)
}

// Send implements channelowner.Sender: allocate an id, register a
// completion slot, write the request frame, and block for the response
// (spec §4.3's Request API, steps 1-5).
func (c *Connection) Send(guid, method string, params interface{}) (json.RawMessage, error) {
	id := atomic.AddUint32(&c.nextID, 1) - 1
	slot := make(chan rpcResult, 1)

	c.pendingMu.Lock()
	c.pending[id] = slot
	c.pendingMu.Unlock()

	ctx, span := c.sink.RequestSpan(context.Background(), id, guid, method)

	req := transport.Request{ID: id, GUID: guid, Method: method, Params: params}
	if err := c.t.Send(req); err != nil {
		c.removePending(id)
		c.sink.EndRequestSpan(ctx, span, err)
		return nil, err
	}

	select {
	case res := <-slot:
		c.sink.EndRequestSpan(ctx, span, res.err)
		return res.result, res.err
	case <-c.closed:
		err := errs.Wrap(errs.KindTargetClosed, fmt.Sprintf("connection closed while awaiting %s", method), nil)
		c.sink.EndRequestSpan(ctx, span, err)
		return nil, err
	}
}

func (c *Connection) removePending(id uint32) {
	c.pendingMu.Lock()
	delete(c.pending, id)
	c.pendingMu.Unlock()
}

// dispatchLoop drains the transport's inbound channel until it closes,
// which signals driver termination (spec §4.2's "EOF or a read error closes
// the channel").
func (c *Connection) dispatchLoop() {
	for msg := range c.t.Inbound() {
		c.dispatch(msg)
	}
	c.shutdown()
}

func (c *Connection) dispatch(msg *transport.Message) {
	if msg.IsResponse() {
		c.dispatchResponse(msg)
		return
	}
	switch msg.Method {
	case "__create__":
		c.dispatchCreate(msg)
	case "__dispose__":
		c.dispatchDispose(msg)
	case "__adopt__":
		c.dispatchAdopt(msg)
	default:
		c.dispatchEvent(msg)
	}
}

func (c *Connection) dispatchResponse(msg *transport.Message) {
	c.pendingMu.Lock()
	slot, ok := c.pending[msg.ID]
	if ok {
		delete(c.pending, msg.ID)
	}
	c.pendingMu.Unlock()

	if !ok {
		c.sink.Warn("rpc.response.unknown_id", "dropped response for unknown request id", map[string]any{"id": msg.ID})
		return
	}

	if msg.Error != nil {
		slot <- rpcResult{err: errs.FromProtocolName(msg.Error.Name, msg.Error.Message)}
		return
	}
	slot <- rpcResult{result: msg.Result}
}

// dispatchCreate handles a "__create__" event: the event's GUID field is the
// parent guid (the Connection itself for root-level creations), and params
// carries {type, guid, initializer} for the new object (spec §4.3).
func (c *Connection) dispatchCreate(msg *transport.Message) {
	var payload createPayload
	if err := json.Unmarshal(msg.Params, &payload); err != nil {
		c.sink.Warn("rpc.create.malformed", "could not parse __create__ params", map[string]any{"error": err.Error()})
		return
	}

	var parent channelowner.Owner = c.root
	if msg.GUID != "" {
		if p, ok := c.registry.Get(msg.GUID); ok {
			parent = p
		} else {
			c.sink.Warn("rpc.create.unknown_parent", "__create__ named an unregistered parent guid", map[string]any{
				"parent_guid": msg.GUID,
				"child_guid":  payload.GUID,
				"type":        payload.Type,
			})
		}
	}

	owner := c.factory.Construct(c, payload.Type, payload.GUID, parent, payload.Initializer, func(typeName string) {
		c.sink.Warn("rpc.create.unknown_type", "unrecognized object type, registering opaque owner", map[string]any{"type": typeName})
	})
	c.registry.Put(owner)

	// A handful of owner types (Page's route/download/dialog/websocket event
	// resolution) need registry access the factory itself cannot provide
	// without an import cycle; they get it here, once, right after
	// registration.
	if attacher, ok := owner.(registryAttacher); ok {
		attacher.AttachRegistry(c.registry)
	}
}

type registryAttacher interface {
	AttachRegistry(*channelowner.Registry)
}

func (c *Connection) dispatchDispose(msg *transport.Message) {
	c.registry.Dispose(msg.GUID)
}

func (c *Connection) dispatchAdopt(msg *transport.Message) {
	var payload adoptPayload
	if err := json.Unmarshal(msg.Params, &payload); err != nil {
		c.sink.Warn("rpc.adopt.malformed", "could not parse __adopt__ params", map[string]any{"error": err.Error()})
		return
	}
	if !c.registry.Adopt(payload.GUID, msg.GUID) {
		c.sink.Warn("rpc.adopt.unknown_guid", "unknown source or destination guid in __adopt__", map[string]any{
			"child_guid":  payload.GUID,
			"parent_guid": msg.GUID,
		})
	}
}

func (c *Connection) dispatchEvent(msg *transport.Message) {
	owner, ok := c.registry.Get(msg.GUID)
	if !ok {
		c.sink.Warn("rpc.event.unknown_guid", "event for unregistered guid", map[string]any{
			"guid":   msg.GUID,
			"method": msg.Method,
		})
		return
	}
	// A handler may itself call Send re-entrantly (spec §4.3(iii)) — a route
	// handler's Abort/Continue/Fulfill is the canonical case. dispatchLoop is
	// the only goroutine that ever delivers a pending request's response
	// frame, so running OnEvent inline here would deadlock any such call
	// against its own response. Spawn it instead; the dispatch loop keeps
	// draining the transport while the handler runs.
	util.SafeGo(func() {
		owner.OnEvent(msg.Method, msg.Params)
	})
}

// shutdown fails every pending request with TargetClosed and disposes the
// object registry, per spec §4.3's shutdown contract.
func (c *Connection) shutdown() {
	c.closeOnce.Do(func() {
		close(c.closed)

		c.pendingMu.Lock()
		pending := c.pending
		c.pending = make(map[uint32]chan rpcResult)
		c.pendingMu.Unlock()

		for _, slot := range pending {
			slot <- rpcResult{err: errs.TargetClosed}
		}

		c.registry.Clear()
		c.sink.Lifecycle("rpc.connection.closed", nil)
	})
}

// Close tears down the transport, which in turn causes the dispatch loop to
// observe a closed inbound channel and run shutdown.
func (c *Connection) Close() {
	c.t.Close()
}

// Registry exposes the guid->Owner registry so callers resolving a
// response's referenced guid (e.g. BrowserType.Launch's returned browser)
// can look it up without this package knowing about internal/objects.
func (c *Connection) Registry() *channelowner.Registry {
	return c.registry
}
