package rpc

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/corvid-labs/drivebridge/internal/channelowner"
	"github.com/corvid-labs/drivebridge/internal/errs"
	"github.com/corvid-labs/drivebridge/internal/telemetry"
	"github.com/corvid-labs/drivebridge/internal/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubOwner is a minimal Owner used by tests in place of the real
// internal/objects types, avoiding a test-only import cycle.
type stubOwner struct {
	channelowner.Base
	events []string
}

func newStub(sender channelowner.Sender, guid, typeName string, parent channelowner.Owner, init json.RawMessage) channelowner.Owner {
	return &stubOwner{Base: channelowner.NewBase(sender, guid, typeName, parent, init)}
}

func (s *stubOwner) OnEvent(method string, _ json.RawMessage) {
	s.events = append(s.events, method)
}

func newTestConnection(t *testing.T) (*Connection, *io.PipeWriter, *bytes.Buffer) {
	t.Helper()
	pr, pw := io.Pipe()
	var out bytes.Buffer

	factory := channelowner.NewFactory()
	factory.Register("Playwright", newStub)
	factory.Register("BrowserType", newStub)

	sink := telemetry.New(io.Discard)
	tr := transport.New(&out, pr, nil)
	conn := New(tr, sink, factory)
	tr.Start()
	conn.Start()

	return conn, pw, &out
}

func writeFrame(t *testing.T, w io.Writer, v interface{}) {
	t.Helper()
	payload, err := json.Marshal(v)
	require.NoError(t, err)
	header := make([]byte, 4)
	binary.LittleEndian.PutUint32(header, uint32(len(payload)))
	_, err = w.Write(append(header, payload...))
	require.NoError(t, err)
}

func TestInitializeResolvesPlaywrightRoot(t *testing.T) {
	conn, pw, out := newTestConnection(t)
	defer conn.Close()

	done := make(chan struct{})
	var owner channelowner.Owner
	var initErr error
	go func() {
		owner, initErr = conn.Initialize("go")
		close(done)
	}()

	// Driver emits __create__ for the Playwright root, then the response
	// naming its guid (spec §4.3).
	time.Sleep(10 * time.Millisecond)
	writeFrame(t, pw, map[string]any{
		"guid":   "",
		"method": "__create__",
		"params": map[string]any{"type": "Playwright", "guid": "pw1", "initializer": map[string]any{}},
	})

	// Read back the outgoing initialize request to pull its id.
	var req transport.Request
	header := make([]byte, 4)
	_, err := io.ReadFull(out, header)
	require.NoError(t, err)
	length := binary.LittleEndian.Uint32(header)
	body := make([]byte, length)
	_, err = io.ReadFull(out, body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(body, &req))
	assert.Equal(t, "initialize", req.Method)

	writeFrame(t, pw, map[string]any{
		"id":     req.ID,
		"result": map[string]any{"playwright": map[string]any{"guid": "pw1"}},
	})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Initialize did not return")
	}
	require.NoError(t, initErr)
	assert.Equal(t, "pw1", owner.GUID())
	assert.Equal(t, "Playwright", owner.TypeName())
}

func TestInitializeTwiceIsRejected(t *testing.T) {
	conn, pw, out := newTestConnection(t)
	defer conn.Close()
	_ = pw
	_ = out
	conn.initialized = 1 // simulate a prior successful handshake

	_, err := conn.Initialize("go")
	require.Error(t, err)
	_, ok := errs.As(err, errs.KindInvalidArgument)
	assert.True(t, ok)
}

func TestDisposeRemovesChildrenBeforeParent(t *testing.T) {
	conn, pw, _ := newTestConnection(t)
	defer conn.Close()

	writeFrame(t, pw, map[string]any{
		"guid":   "",
		"method": "__create__",
		"params": map[string]any{"type": "Playwright", "guid": "pw1", "initializer": map[string]any{}},
	})
	time.Sleep(10 * time.Millisecond)
	writeFrame(t, pw, map[string]any{
		"guid":   "pw1",
		"method": "__create__",
		"params": map[string]any{"type": "BrowserType", "guid": "bt1", "initializer": map[string]any{}},
	})
	time.Sleep(10 * time.Millisecond)

	_, ok := conn.registry.Get("bt1")
	require.True(t, ok)

	writeFrame(t, pw, map[string]any{"guid": "pw1", "method": "__dispose__"})
	time.Sleep(10 * time.Millisecond)

	_, ok = conn.registry.Get("pw1")
	assert.False(t, ok)
	_, ok = conn.registry.Get("bt1")
	assert.False(t, ok)
}

func TestShutdownFailsPendingRequestsWithTargetClosed(t *testing.T) {
	conn, pw, _ := newTestConnection(t)

	resultCh := make(chan error, 1)
	go func() {
		_, err := conn.Send("g1", "someMethod", nil)
		resultCh <- err
	}()

	time.Sleep(10 * time.Millisecond)
	require.NoError(t, pw.Close()) // simulate driver exit: EOF on the read side

	select {
	case err := <-resultCh:
		require.Error(t, err)
		_, ok := errs.As(err, errs.KindTargetClosed)
		assert.True(t, ok)
	case <-time.After(time.Second):
		t.Fatal("Send did not unblock on shutdown")
	}
}

// registryAttachingStub stands in for objects.Page in this package's tests,
// which cannot import internal/objects without an import cycle.
type registryAttachingStub struct {
	stubOwner
	registry *channelowner.Registry
}

func newRegistryAttachingStub(sender channelowner.Sender, guid, typeName string, parent channelowner.Owner, init json.RawMessage) channelowner.Owner {
	return &registryAttachingStub{stubOwner: stubOwner{Base: channelowner.NewBase(sender, guid, typeName, parent, init)}}
}

func (s *registryAttachingStub) AttachRegistry(registry *channelowner.Registry) {
	s.registry = registry
}

func TestDispatchCreateAttachesRegistryToOwnersThatWantIt(t *testing.T) {
	pr, pw := io.Pipe()
	var out bytes.Buffer

	factory := channelowner.NewFactory()
	factory.Register("Playwright", newStub)
	factory.Register("Page", func(sender channelowner.Sender, guid string, parent channelowner.Owner, init json.RawMessage) channelowner.Owner {
		return newRegistryAttachingStub(sender, guid, "Page", parent, init)
	})

	sink := telemetry.New(io.Discard)
	tr := transport.New(&out, pr, nil)
	conn := New(tr, sink, factory)
	tr.Start()
	conn.Start()
	defer conn.Close()

	writeFrame(t, pw, map[string]any{
		"guid":   "",
		"method": "__create__",
		"params": map[string]any{"type": "Playwright", "guid": "pw1", "initializer": map[string]any{}},
	})
	time.Sleep(10 * time.Millisecond)
	writeFrame(t, pw, map[string]any{
		"guid":   "pw1",
		"method": "__create__",
		"params": map[string]any{"type": "Page", "guid": "page1", "initializer": map[string]any{}},
	})
	time.Sleep(10 * time.Millisecond)

	owner, ok := conn.registry.Get("page1")
	require.True(t, ok)
	page, ok := owner.(*registryAttachingStub)
	require.True(t, ok)
	assert.Same(t, conn.registry, page.registry)
}

// reentrantSendStub's OnEvent calls back into Send from the dispatch path,
// the shape a route handler's Abort/Continue/Fulfill takes in practice.
type reentrantSendStub struct {
	stubOwner
	sender channelowner.Sender
	done   chan error
}

func newReentrantSendStub(sender channelowner.Sender, guid, typeName string, parent channelowner.Owner, init json.RawMessage) channelowner.Owner {
	return &reentrantSendStub{
		stubOwner: stubOwner{Base: channelowner.NewBase(sender, guid, typeName, parent, init)},
		sender:    sender,
		done:      make(chan error, 1),
	}
}

func (s *reentrantSendStub) OnEvent(method string, _ json.RawMessage) {
	_, err := s.sender.Send(s.GUID(), "ping", nil)
	s.done <- err
}

func TestReentrantSendFromEventHandlerDoesNotDeadlock(t *testing.T) {
	pr, pw := io.Pipe()
	var out bytes.Buffer

	factory := channelowner.NewFactory()
	factory.Register("Playwright", newStub)
	factory.Register("Stub", newReentrantSendStub)

	sink := telemetry.New(io.Discard)
	tr := transport.New(&out, pr, nil)
	conn := New(tr, sink, factory)
	tr.Start()
	conn.Start()
	defer conn.Close()

	writeFrame(t, pw, map[string]any{
		"guid":   "",
		"method": "__create__",
		"params": map[string]any{"type": "Playwright", "guid": "pw1", "initializer": map[string]any{}},
	})
	time.Sleep(10 * time.Millisecond)
	writeFrame(t, pw, map[string]any{
		"guid":   "pw1",
		"method": "__create__",
		"params": map[string]any{"type": "Stub", "guid": "stub1", "initializer": map[string]any{}},
	})
	time.Sleep(10 * time.Millisecond)

	owner, ok := conn.registry.Get("stub1")
	require.True(t, ok)
	stub := owner.(*reentrantSendStub)

	// Deliver the event that triggers the re-entrant Send; if dispatchEvent
	// ran it inline on the dispatch loop, the loop would now be blocked
	// inside OnEvent and would never drain the __create__/response frames
	// below, so this whole test would hang instead of merely failing.
	writeFrame(t, pw, map[string]any{"guid": "stub1", "method": "someEvent", "params": map[string]any{}})
	time.Sleep(10 * time.Millisecond)

	var req transport.Request
	header := make([]byte, 4)
	_, err := io.ReadFull(out, header)
	require.NoError(t, err)
	length := binary.LittleEndian.Uint32(header)
	body := make([]byte, length)
	_, err = io.ReadFull(out, body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(body, &req))
	assert.Equal(t, "ping", req.Method)

	writeFrame(t, pw, map[string]any{"id": req.ID, "result": map[string]any{}})

	select {
	case err := <-stub.done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("re-entrant Send from OnEvent deadlocked")
	}
}

func TestUnknownEventGUIDIsDiscarded(t *testing.T) {
	conn, pw, _ := newTestConnection(t)
	defer conn.Close()

	// Should log and discard rather than panic.
	writeFrame(t, pw, map[string]any{"guid": "ghost", "method": "someEvent", "params": map[string]any{}})
	time.Sleep(10 * time.Millisecond)
}
