// playwright.go — the root object of spec.md §4.4: exposes the three named
// BrowserType children and tears down the Connection on Close.
package objects

import (
	"encoding/json"

	"github.com/corvid-labs/drivebridge/internal/channelowner"
)

// Playwright is the root channel-owner returned by the initialize handshake
// (spec §4.3). Its destructor (Close) triggers Connection shutdown, which
// closes the transport and ends the driver.
type Playwright struct {
	channelowner.Base

	Chromium *BrowserType
	Firefox  *BrowserType
	WebKit   *BrowserType

	closer func()
}

// newPlaywright is registered with the Object Factory under "Playwright".
// The three BrowserType children arrive as separate __create__ events
// addressed to this object's guid, after it is registered and before the
// initialize response (spec §4.3's handshake ordering guarantee); this
// constructor leaves the named slots empty, and AttachBrowserTypes below
// fills them from the registered children once the handshake completes.
func newPlaywright(sender channelowner.Sender, guid string, parent channelowner.Owner, initializer json.RawMessage) channelowner.Owner {
	return &Playwright{Base: channelowner.NewBase(sender, guid, "Playwright", parent, initializer)}
}

// AttachBrowserTypes resolves the chromium/firefox/webkit children from the
// object's already-populated child list, matching each by its initializer's
// declared type string. Called once after the handshake completes.
func (p *Playwright) AttachBrowserTypes() {
	for _, child := range channelowner.Children(p) {
		bt, ok := child.(*BrowserType)
		if !ok {
			continue
		}
		switch bt.Name {
		case "chromium":
			p.Chromium = bt
		case "firefox":
			p.Firefox = bt
		case "webkit":
			p.WebKit = bt
		}
	}
}

// SetCloser installs the callback Close invokes to shut down the owning
// Connection. Set by the public API layer that constructs the Connection,
// since Playwright itself has no handle on the Connection's lifecycle
// methods beyond Sender.
func (p *Playwright) SetCloser(closer func()) { p.closer = closer }

// Close ends the driver subprocess via the owning Connection.
func (p *Playwright) Close() {
	if p.closer != nil {
		p.closer()
	}
}
