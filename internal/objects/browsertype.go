// browsertype.go — spec.md §4.4: BrowserType.launch/connect/launch_persistent_context.
package objects

import (
	"encoding/json"

	"github.com/corvid-labs/drivebridge/internal/channelowner"
	"github.com/corvid-labs/drivebridge/internal/errs"
)

// BrowserType launches or connects to one browser engine (chromium, firefox,
// or webkit).
type BrowserType struct {
	channelowner.Base
	Name string
}

type browserTypeInitializer struct {
	Name string `json:"name"`
}

func newBrowserType(sender channelowner.Sender, guid string, parent channelowner.Owner, initializer json.RawMessage) channelowner.Owner {
	var init browserTypeInitializer
	_ = json.Unmarshal(initializer, &init)
	return &BrowserType{
		Base: channelowner.NewBase(sender, guid, "BrowserType", parent, initializer),
		Name: init.Name,
	}
}

// LaunchOptions mirrors the subset of browser-launch parameters a caller
// commonly overrides; unset fields take the driver's own defaults.
type LaunchOptions struct {
	Headless bool     `json:"headless"`
	Args     []string `json:"args,omitempty"`
	Timeout  float64  `json:"timeout,omitempty"`
}

type launchResult struct {
	Browser struct {
		GUID string `json:"guid"`
	} `json:"browser"`
}

// Launch starts a fresh browser instance (spec §4.4's BrowserType.launch).
func (bt *BrowserType) Launch(opts LaunchOptions, registry *channelowner.Registry) (*Browser, error) {
	raw, err := bt.Send("launch", opts)
	if err != nil {
		return nil, err
	}
	var res launchResult
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, errs.Wrap(errs.KindProtocolError, "parse launch response", err)
	}
	owner, ok := registry.Get(res.Browser.GUID)
	if !ok {
		return nil, errs.New(errs.KindProtocolError, "launch response named an unregistered browser guid")
	}
	browser, ok := owner.(*Browser)
	if !ok {
		return nil, errs.New(errs.KindProtocolError, "launch response guid did not resolve to a Browser")
	}
	return browser, nil
}

type launchPersistentContextResult struct {
	Context struct {
		GUID string `json:"guid"`
	} `json:"context"`
}

// LaunchPersistentContext launches a browser bound to a user-data directory,
// returning its default BrowserContext directly (spec §4.4).
func (bt *BrowserType) LaunchPersistentContext(userDataDir string, opts LaunchOptions, registry *channelowner.Registry) (*BrowserContext, error) {
	params := struct {
		LaunchOptions
		UserDataDir string `json:"userDataDir"`
	}{LaunchOptions: opts, UserDataDir: userDataDir}

	raw, err := bt.Send("launchPersistentContext", params)
	if err != nil {
		return nil, err
	}
	var res launchPersistentContextResult
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, errs.Wrap(errs.KindProtocolError, "parse launchPersistentContext response", err)
	}
	owner, ok := registry.Get(res.Context.GUID)
	if !ok {
		return nil, errs.New(errs.KindProtocolError, "launchPersistentContext response named an unregistered context guid")
	}
	ctx, ok := owner.(*BrowserContext)
	if !ok {
		return nil, errs.New(errs.KindProtocolError, "launchPersistentContext response guid did not resolve to a BrowserContext")
	}
	return ctx, nil
}
