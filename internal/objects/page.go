// page.go — spec.md §4.4: the richest channel-owner node. Navigation
// delegates to the guid directly; selector operations delegate to the main
// Frame; Keyboard/Mouse are lightweight non-channel-owner sub-objects that
// send through the Page's own guid; routing uses internal/routeintercept.
package objects

import (
	"encoding/base64"
	"encoding/json"

	"github.com/corvid-labs/drivebridge/internal/channelowner"
	"github.com/corvid-labs/drivebridge/internal/errs"
	"github.com/corvid-labs/drivebridge/internal/routeintercept"
)

// Page is one browser tab/window.
type Page struct {
	channelowner.Base

	MainFrame *Frame
	Keyboard  *Keyboard
	Mouse     *Mouse

	routes   *routeintercept.Dispatcher
	registry *channelowner.Registry

	onDownload  func(*Download)
	onDialog    func(*Dialog)
	onWebSocket func(*WebSocket)
}

func newPage(sender channelowner.Sender, guid string, parent channelowner.Owner, initializer json.RawMessage) channelowner.Owner {
	p := &Page{
		Base:   channelowner.NewBase(sender, guid, "Page", parent, initializer),
		routes: routeintercept.New(),
	}
	p.Keyboard = &Keyboard{send: p.Send}
	p.Mouse = &Mouse{send: p.Send}
	return p
}

// AttachRegistry is called once after construction so route dispatch can
// resolve a route event's guid to the registered Route object (the factory
// constructor itself has no registry access).
func (p *Page) AttachRegistry(registry *channelowner.Registry) {
	p.registry = registry
}

// mainFrameGUID reports the guid the page's own initializer names as its
// main frame, so a same-guid Frame child can self-attach as it is
// constructed (the driver creates that Frame as a separate __create__
// event addressed to this page — see newFrame).
func (p *Page) mainFrameGUID() string {
	var init struct {
		MainFrame struct {
			GUID string `json:"guid"`
		} `json:"mainFrame"`
	}
	_ = json.Unmarshal(p.Initializer, &init)
	return init.MainFrame.GUID
}

// OnDownload/OnDialog/OnWebSocket register the event hooks spec §4.4 calls
// for on Page.
func (p *Page) OnDownload(fn func(*Download))   { p.onDownload = fn }
func (p *Page) OnDialog(fn func(*Dialog))       { p.onDialog = fn }
func (p *Page) OnWebSocket(fn func(*WebSocket)) { p.onWebSocket = fn }

// OnEvent handles page-scoped events: route dispatch, and the
// download/dialog/websocket hooks.
func (p *Page) OnEvent(method string, params json.RawMessage) {
	switch method {
	case "route":
		p.handleRouteEvent(params)
	case "download":
		if p.onDownload == nil || p.registry == nil {
			return
		}
		var payload struct {
			Download struct{ GUID string } `json:"download"`
		}
		_ = json.Unmarshal(params, &payload)
		if owner, ok := p.registry.Get(payload.Download.GUID); ok {
			if d, ok := owner.(*Download); ok {
				p.onDownload(d)
			}
		}
	case "dialog":
		if p.onDialog == nil || p.registry == nil {
			return
		}
		var payload struct {
			Dialog struct{ GUID string } `json:"dialog"`
		}
		_ = json.Unmarshal(params, &payload)
		if owner, ok := p.registry.Get(payload.Dialog.GUID); ok {
			if d, ok := owner.(*Dialog); ok {
				p.onDialog(d)
			}
		}
	case "webSocket":
		if p.onWebSocket == nil || p.registry == nil {
			return
		}
		var payload struct {
			WebSocket struct{ GUID string } `json:"webSocket"`
		}
		_ = json.Unmarshal(params, &payload)
		if owner, ok := p.registry.Get(payload.WebSocket.GUID); ok {
			if ws, ok := owner.(*WebSocket); ok {
				p.onWebSocket(ws)
			}
		}
	}
}

func (p *Page) handleRouteEvent(params json.RawMessage) {
	var payload struct {
		Route struct {
			GUID string `json:"guid"`
		} `json:"route"`
		Request struct {
			URL string `json:"url"`
		} `json:"request"`
	}
	if err := json.Unmarshal(params, &payload); err != nil {
		return
	}
	// Spec §4.5: the handler must be awaited to completion before the page's
	// navigation proceeds. This runs on a per-event goroutine the
	// Connection spawns off its dispatch loop (see rpc.dispatchEvent), which
	// is what lets the handler call Route.Abort/Continue/Fulfill — a
	// re-entrant Send — without deadlocking against the very goroutine that
	// would otherwise need to deliver its response.
	p.routes.Dispatch(payload.Route.GUID, payload.Request.URL)
}

// RouteHandler receives a freshly resolved Route for each request matching
// the pattern it was registered under (spec §4.5 step 2: "passing a freshly
// resolved Route instance, looked up by guid from the event params").
type RouteHandler func(route *Route)

// Route registers a pattern/handler pair and pushes the updated pattern
// union to the driver (spec §4.5). The registered routeintercept.Handler
// resolves the event's route guid through the registry before invoking the
// caller's RouteHandler, mirroring how OnEvent resolves download/dialog/
// webSocket guids above.
func (p *Page) Route(pattern string, handler RouteHandler) error {
	p.routes.Register(pattern, func(routeGUID, _ string) {
		route := p.resolveRoute(routeGUID)
		if route == nil {
			return
		}
		handler(route)
	})
	return p.syncInterceptionPatterns()
}

func (p *Page) resolveRoute(guid string) *Route {
	if p.registry == nil {
		return nil
	}
	owner, ok := p.registry.Get(guid)
	if !ok {
		return nil
	}
	route, ok := owner.(*Route)
	if !ok {
		return nil
	}
	return route
}

// Unroute removes a pattern registration and pushes the updated union.
func (p *Page) Unroute(pattern string) error {
	p.routes.Unregister(pattern)
	return p.syncInterceptionPatterns()
}

func (p *Page) syncInterceptionPatterns() error {
	patterns := p.routes.Patterns()
	globs := make([]map[string]string, len(patterns))
	for i, pattern := range patterns {
		globs[i] = map[string]string{"glob": pattern}
	}
	_, err := p.Send("setNetworkInterceptionPatterns", struct {
		Patterns []map[string]string `json:"patterns"`
	}{Patterns: globs})
	return err
}

// Goto navigates the main frame to url.
func (p *Page) Goto(url string) error {
	if p.MainFrame == nil {
		return errs.New(errs.KindInvalidArgument, "page has no main frame yet")
	}
	return p.MainFrame.Goto(url)
}

// Reload reloads the current page.
func (p *Page) Reload() error {
	_, err := p.Send("reload", nil)
	return err
}

// GoBack navigates back in history.
func (p *Page) GoBack() error {
	_, err := p.Send("goBack", nil)
	return err
}

// GoForward navigates forward in history.
func (p *Page) GoForward() error {
	_, err := p.Send("goForward", nil)
	return err
}

// Title returns the page's document title via its main frame.
func (p *Page) Title() (string, error) {
	if p.MainFrame == nil {
		return "", errs.New(errs.KindInvalidArgument, "page has no main frame yet")
	}
	return p.MainFrame.Title()
}

// Content returns the page's full HTML via its main frame.
func (p *Page) Content() (string, error) {
	if p.MainFrame == nil {
		return "", errs.New(errs.KindInvalidArgument, "page has no main frame yet")
	}
	return p.MainFrame.Content()
}

// ScreenshotOptions configures a Screenshot call.
type ScreenshotOptions struct {
	FullPage bool   `json:"fullPage,omitempty"`
	Type     string `json:"type,omitempty"` // "png" or "jpeg"
}

type screenshotResult struct {
	Binary string `json:"binary"` // base64
}

// Screenshot captures the page and returns the decoded image bytes (spec
// §4.4: "server returns base64 which the client decodes").
func (p *Page) Screenshot(opts ScreenshotOptions) ([]byte, error) {
	raw, err := p.Send("screenshot", opts)
	if err != nil {
		return nil, err
	}
	var res screenshotResult
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, errs.Wrap(errs.KindProtocolError, "parse screenshot response", err)
	}
	return decodeBase64(res.Binary)
}

// Keyboard is a lightweight, non-channel-owner sub-object that sends
// through its owning Page's guid (spec §4.4).
type Keyboard struct {
	send func(method string, params interface{}) (json.RawMessage, error)
}

// Press sends a single key press.
func (k *Keyboard) Press(key string) error {
	_, err := k.send("keyboardPress", struct {
		Key string `json:"key"`
	}{Key: key})
	return err
}

// Type sends a sequence of characters as individual key events.
func (k *Keyboard) Type(text string) error {
	_, err := k.send("keyboardType", struct {
		Text string `json:"text"`
	}{Text: text})
	return err
}

// Mouse is a lightweight, non-channel-owner sub-object that sends through
// its owning Page's guid (spec §4.4).
type Mouse struct {
	send func(method string, params interface{}) (json.RawMessage, error)
}

// Click moves to (x, y) and clicks.
func (m *Mouse) Click(x, y float64) error {
	_, err := m.send("mouseClick", struct {
		X float64 `json:"x"`
		Y float64 `json:"y"`
	}{X: x, Y: y})
	return err
}

// Move moves the mouse to (x, y) without clicking.
func (m *Mouse) Move(x, y float64) error {
	_, err := m.send("mouseMove", struct {
		X float64 `json:"x"`
		Y float64 `json:"y"`
	}{X: x, Y: y})
	return err
}

// decodeBase64 decodes the standard base64 the driver uses for binary
// payloads (screenshots, response/route bodies).
func decodeBase64(s string) ([]byte, error) {
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, errs.Wrap(errs.KindProtocolError, "decode base64 payload", err)
	}
	return b, nil
}
