package objects

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corvid-labs/drivebridge/internal/channelowner"
)

// fakeSender records every outbound call and returns a canned response,
// standing in for a real rpc.Connection in these unit tests.
type fakeSender struct {
	calls    []call
	response json.RawMessage
	err      error
}

type call struct {
	guid   string
	method string
	params interface{}
}

func (f *fakeSender) Send(guid, method string, params interface{}) (json.RawMessage, error) {
	f.calls = append(f.calls, call{guid, method, params})
	return f.response, f.err
}

func TestBrowserTypeLaunchResolvesBrowserFromRegistry(t *testing.T) {
	sender := &fakeSender{response: json.RawMessage(`{"browser":{"guid":"browser@1"}}`)}
	bt := newBrowserType(sender, "bt@1", nil, json.RawMessage(`{"name":"chromium"}`)).(*BrowserType)

	registry := channelowner.NewRegistry()
	browser := newBrowser(sender, "browser@1", bt, nil).(*Browser)
	registry.Put(browser)

	got, err := bt.Launch(LaunchOptions{Headless: true}, registry)
	require.NoError(t, err)
	assert.Same(t, browser, got)
	require.Len(t, sender.calls, 1)
	assert.Equal(t, "launch", sender.calls[0].method)
}

func TestBrowserIsConnectedFlipsOnCloseEvent(t *testing.T) {
	sender := &fakeSender{}
	browser := newBrowser(sender, "browser@1", nil, nil).(*Browser)

	assert.True(t, browser.IsConnected())
	browser.OnEvent("close", nil)
	assert.False(t, browser.IsConnected())
}

func TestPageRouteRegistersPatternAndPushesUnion(t *testing.T) {
	sender := &fakeSender{response: json.RawMessage(`{}`)}
	page := newPage(sender, "page@1", nil, nil).(*Page)

	registry := channelowner.NewRegistry()
	registry.Put(page)
	route := newRoute(sender, "route@1", page, json.RawMessage(`{"request":{"guid":"req@1"}}`)).(*Route)
	registry.Put(route)
	page.AttachRegistry(registry)

	var handled *Route
	err := page.Route("**/api/*", func(route *Route) { handled = route })
	require.NoError(t, err)

	require.Len(t, sender.calls, 1)
	assert.Equal(t, "setNetworkInterceptionPatterns", sender.calls[0].method)

	page.OnEvent("route", json.RawMessage(`{"route":{"guid":"route@1"},"request":{"url":"https://x.com/api/users"}}`))
	require.NotNil(t, handled)
	assert.Equal(t, "req@1", handled.RequestGUID())
}

func TestNewFrameSelfAttachesAsPageMainFrame(t *testing.T) {
	sender := &fakeSender{}
	page := newPage(sender, "page@1", nil, json.RawMessage(`{"mainFrame":{"guid":"frame@1"}}`)).(*Page)
	frame := newFrame(sender, "frame@1", page, json.RawMessage(`{"url":"about:blank"}`)).(*Frame)
	channelowner.AdoptChild(page, frame)

	require.NotNil(t, page.MainFrame)
	assert.Equal(t, "frame@1", page.MainFrame.GUID())
}

func TestRouteFulfillEncodesBodyAsBase64(t *testing.T) {
	sender := &fakeSender{response: json.RawMessage(`{}`)}
	route := newRoute(sender, "route@1", nil, json.RawMessage(`{"request":{"guid":"req@1"}}`)).(*Route)

	err := route.Fulfill(FulfillResponse{Status: 200, ContentType: "text/plain", Body: []byte("hello")})
	require.NoError(t, err)
	require.Len(t, sender.calls, 1)
	assert.Equal(t, "fulfill", sender.calls[0].method)
	assert.Equal(t, "req@1", route.RequestGUID())

	encoded, err := json.Marshal(sender.calls[0].params)
	require.NoError(t, err)
	assert.Contains(t, string(encoded), `"body":"aGVsbG8="`)
	assert.Contains(t, string(encoded), `"isBase64":true`)
}

func TestWebSocketDispatchesFrameEvents(t *testing.T) {
	sender := &fakeSender{}
	ws := newWebSocket(sender, "ws@1", nil, json.RawMessage(`{"url":"wss://x"}`)).(*WebSocket)

	var got string
	ws.OnFrameReceived(func(payload string) { got = payload })
	ws.OnEvent("frameReceived", json.RawMessage(`{"payload":"ping"}`))
	assert.Equal(t, "ping", got)
}
