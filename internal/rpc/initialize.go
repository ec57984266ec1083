// initialize.go — the startup handshake of spec.md §4.3/§6: a single
// "initialize" request through the guid-less transient root, whose response
// names the already-created Playwright root object.
package rpc

import (
	"encoding/json"
	"sync/atomic"

	"github.com/corvid-labs/drivebridge/internal/channelowner"
	"github.com/corvid-labs/drivebridge/internal/errs"
)

type initializeParams struct {
	SDKLanguage string `json:"sdkLanguage"`
}

type initializeResult struct {
	Playwright struct {
		GUID string `json:"guid"`
	} `json:"playwright"`
}

// Initialize sends the handshake request and returns the registered
// Playwright-root Owner named in the response. By the time the response
// arrives, the driver has already emitted __create__ events for the root
// and its children (spec §4.3), so no polling is required — the object is
// guaranteed present in the registry.
func (c *Connection) Initialize(sdkLanguage string) (channelowner.Owner, error) {
	if !atomic.CompareAndSwapUint32(&c.initialized, 0, 1) {
		return nil, errs.New(errs.KindInvalidArgument, "initialize called twice on one Connection")
	}

	result, err := c.Send("", "initialize", initializeParams{SDKLanguage: sdkLanguage})
	if err != nil {
		return nil, err
	}

	var parsed initializeResult
	if err := json.Unmarshal(result, &parsed); err != nil {
		return nil, errs.Wrap(errs.KindProtocolError, "parse initialize response", err)
	}

	owner, ok := c.registry.Get(parsed.Playwright.GUID)
	if !ok {
		return nil, errs.New(errs.KindProtocolError, "initialize response named an unregistered playwright guid")
	}
	return owner, nil
}
