// browsercontext.go — spec.md §4.4: BrowserContext.new_page/add_cookies/
// storage_state/add_init_script/pause/close.
package objects

import (
	"encoding/json"

	"github.com/corvid-labs/drivebridge/internal/channelowner"
	"github.com/corvid-labs/drivebridge/internal/errs"
)

// BrowserContext is an isolated browser session: its own cookie jar,
// storage, and set of pages. Holds context-wide configuration from its
// initializer (viewport, locale, emulation flags — spec §4.4).
type BrowserContext struct {
	channelowner.Base
}

func newBrowserContext(sender channelowner.Sender, guid string, parent channelowner.Owner, initializer json.RawMessage) channelowner.Owner {
	return &BrowserContext{Base: channelowner.NewBase(sender, guid, "BrowserContext", parent, initializer)}
}

// Cookie mirrors one entry of the context's cookie jar.
type Cookie struct {
	Name     string `json:"name"`
	Value    string `json:"value"`
	Domain   string `json:"domain,omitempty"`
	Path     string `json:"path,omitempty"`
	Expires  float64 `json:"expires,omitempty"`
	HTTPOnly bool   `json:"httpOnly,omitempty"`
	Secure   bool   `json:"secure,omitempty"`
}

// AddCookies installs cookies into the context's jar.
func (c *BrowserContext) AddCookies(cookies []Cookie) error {
	_, err := c.Send("addCookies", struct {
		Cookies []Cookie `json:"cookies"`
	}{Cookies: cookies})
	return err
}

// StorageState returns the context's serialized cookies and local storage.
func (c *BrowserContext) StorageState() (json.RawMessage, error) {
	return c.Send("storageState", nil)
}

// AddInitScript installs a script evaluated in every new document in the
// context, before any of the page's own scripts run.
func (c *BrowserContext) AddInitScript(source string) error {
	_, err := c.Send("addInitScript", struct {
		Source string `json:"source"`
	}{Source: source})
	return err
}

// Pause opens the driver's inspector and blocks until the user resumes.
func (c *BrowserContext) Pause() error {
	_, err := c.Send("pause", nil)
	return err
}

// Close tears down every page in the context.
func (c *BrowserContext) Close() error {
	_, err := c.Send("close", nil)
	return err
}

type newPageInContextResult struct {
	Page struct {
		GUID string `json:"guid"`
	} `json:"page"`
}

// NewPage opens a page within this context.
func (c *BrowserContext) NewPage(registry *channelowner.Registry) (*Page, error) {
	raw, err := c.Send("newPage", nil)
	if err != nil {
		return nil, err
	}
	var res newPageInContextResult
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
