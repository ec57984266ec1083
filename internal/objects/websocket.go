// websocket.go — spec.md §4.4: WebSocket forwards the driver's frameSent/
// frameReceived/close events, and socket errors (the socketError event), to
// user-registered listeners. This is the in-page
// browser WebSocket object surfaced over the protocol, distinct from
// internal/wsconn's driver-transport websocket.
package objects

import (
	"encoding/json"

	"github.com/corvid-labs/drivebridge/internal/channelowner"
)

// WebSocket mirrors a page-level WebSocket connection's lifecycle.
type WebSocket struct {
	channelowner.Base

	URL string

	onFrameSent     func(payload string)
	onFrameReceived func(payload string)
	onClose         func()
	onError         func(message string)
}

type webSocketInitializer struct {
	URL string `json:"url"`
}

func newWebSocket(sender channelowner.Sender, guid string, parent channelowner.Owner, initializer json.RawMessage) channelowner.Owner {
	var init webSocketInitializer
	_ = json.Unmarshal(initializer, &init)
	return &WebSocket{
		Base: channelowner.NewBase(sender, guid, "WebSocket", parent, initializer),
		URL:  init.URL,
	}
}

// OnFrameSent registers a listener for outgoing frames.
func (w *WebSocket) OnFrameSent(fn func(payload string)) { w.onFrameSent = fn }

// OnFrameReceived registers a listener for incoming frames.
func (w *WebSocket) OnFrameReceived(fn func(payload string)) { w.onFrameReceived = fn }

// OnClose registers a listener for the socket closing.
func (w *WebSocket) OnClose(fn func()) { w.onClose = fn }

// OnError registers a listener for socket errors.
func (w *WebSocket) OnError(fn func(message string)) { w.onError = fn }

// OnEvent dispatches driver-emitted websocket lifecycle events to whichever
// listener is registered.
func (w *WebSocket) OnEvent(method string, params json.RawMessage) {
	var payload struct {
		Payload string `json:"payload"`
		Error   string `json:"error"`
	}
	_ = json.Unmarshal(params, &payload)

	switch method {
	case "frameSent":
		if w.onFrameSent != nil {
			w.onFrameSent(payload.Payload)
		}
	case "frameReceived":
		if w.onFrameReceived != nil {
			w.onFrameReceived(payload.Payload)
		}
	case "close":
		if w.onClose != nil {
			w.onClose()
		}
	case "socketError":
		if w.onError != nil {
			w.onError(payload.Error)
		}
	}
}
