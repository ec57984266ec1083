// browser.go — spec.md §4.4: Browser.new_context/new_page/close/is_connected.
package objects

import (
	"encoding/json"
	"sync/atomic"

	"github.com/corvid-labs/drivebridge/internal/channelowner"
	"github.com/corvid-labs/drivebridge/internal/errs"
)

// Browser is a running browser engine instance.
type Browser struct {
	channelowner.Base
	connected int32 // 1 until a "close" event is observed
}

func newBrowser(sender channelowner.Sender, guid string, parent channelowner.Owner, initializer json.RawMessage) channelowner.Owner {
	return &Browser{
		Base:      channelowner.NewBase(sender, guid, "Browser", parent, initializer),
		connected: 1,
	}
}

// OnEvent maintains the local is_connected flag from the driver's "close"
// event (spec §4.4: "is_connected() reads a local flag maintained by a
// close event").
func (b *Browser) OnEvent(method string, params json.RawMessage) {
	if method == "close" {
		atomic.StoreInt32(&b.connected, 0)
	}
}

// IsConnected reports whether the browser process is still alive, per the
// last observed "close" event.
func (b *Browser) IsConnected() bool {
	return atomic.LoadInt32(&b.connected) == 1
}

// NewContextOptions mirrors the subset of context-creation parameters
// exposed here; unset fields take the driver's defaults.
type NewContextOptions struct {
	Viewport  *Viewport `json:"viewport,omitempty"`
	Locale    string    `json:"locale,omitempty"`
	UserAgent string    `json:"userAgent,omitempty"`
}

// Viewport is a context's initial window size.
type Viewport struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

type newContextResult struct {
	Context struct {
		GUID string `json:"guid"`
	} `json:"context"`
}

// NewContext creates an isolated BrowserContext (spec §4.4).
func (b *Browser) NewContext(opts NewContextOptions, registry *channelowner.Registry) (*BrowserContext, error) {
	raw, err := b.Send("newContext", opts)
	if err != nil {
		return nil, err
	}
	var res newContextResult
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, errs.Wrap(errs.KindProtocolError, "parse newContext response", err)
	}
	owner, ok := registry.Get(res.Context.GUID)
	if !ok {
		return nil, errs.New(errs.KindProtocolError, "newContext response named an unregistered context guid")
	}
	ctx, ok := owner.(*BrowserContext)
	if !ok {
		return nil, errs.New(errs.KindProtocolError, "newContext response guid did not resolve to a BrowserContext")
	}
	return ctx, nil
}

type newPageResult struct {
	Page struct {
		GUID string `json:"guid"`
	} `json:"page"`
}

// NewPage creates a default context under the hood and returns its single
// Page (spec §4.4).
func (b *Browser) NewPage(opts NewContextOptions, registry *channelowner.Registry) (*Page, error) {
	raw, err := b.Send("newPage", opts)
	if err != nil {
		return nil, err
	}
	var res newPageResult
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, errs.Wrap(errs.KindProtocolError, "parse newPage response", err)
	}
	owner, ok := registry.Get(res.Page.GUID)
	if !ok {
		return nil, errs.New(errs.KindProtocolError, "newPage response named an unregistered page guid")
	}
	page, ok := owner.(*Page)
	if !ok {
		return nil, errs.New(errs.KindProtocolError, "newPage response guid did not resolve to a Page")
	}
	return page, nil
}

// Close gracefully terminates the browser. Subsequent operations on it or
// its descendants fail with TargetClosed once the driver confirms exit.
func (b *Browser) Close() error {
	_, err := b.Send("close", nil)
	return err
}
