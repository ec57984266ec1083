// dispatcher.go — the per-Page route interception dispatcher (spec.md §4.5).
//
// Decoupled from the concrete Route/Page types in internal/objects so it can
// be unit-tested without the full channel-owner graph: callers supply a
// Handler that receives the already-resolved route guid.
package routeintercept

import (
	"sync"

	"github.com/corvid-labs/drivebridge/internal/globmatch"
)

// Handler processes one intercepted request. It is awaited to completion
// before the caller acknowledges the route event — spec §4.5: "Awaiting the
// handler before acknowledging the event is essential: the browser is
// blocked until fulfill/continue/abort reaches the driver."
type Handler func(routeGUID, url string)

type entry struct {
	pattern *globmatch.Pattern
	handler Handler
}

// Dispatcher holds one Page's (pattern, handler) registrations and performs
// last-registered-wins matching.
type Dispatcher struct {
	mu      sync.Mutex
	entries []entry

	// runMu is held while a handler runs, so at most one of this page's
	// route handlers is in progress at a time.
	runMu sync.Mutex
}

// New constructs an empty Dispatcher.
func New() *Dispatcher {
	return &Dispatcher{}
}

// Register appends a (pattern, handler) entry (spec §4.5: "Registration via
// page.route(pattern, handler) appends").
func (d *Dispatcher) Register(pattern string, handler Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.entries = append(d.entries, entry{pattern: globmatch.Compile(pattern), handler: handler})
}

// Unregister removes every entry whose original pattern text equals pattern
// ("removal is by identity" in spec terms; pattern text stands in for
// identity here since Handler values aren't comparable).
func (d *Dispatcher) Unregister(pattern string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	kept := d.entries[:0]
	for _, e := range d.entries {
		if e.pattern.String() != pattern {
			kept = append(kept, e)
		}
	}
	d.entries = kept
}

// Patterns returns the current registration patterns in registration order,
// used to build the setNetworkInterceptionPatterns union call (spec §4.5).
func (d *Dispatcher) Patterns() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, len(d.entries))
	for i, e := range d.entries {
		out[i] = e.pattern.String()
	}
	return out
}

// Dispatch finds the last-registered entry matching url and invokes its
// handler synchronously, blocking the caller until the handler returns
// (spec §4.5 step 2-3). Handler runs are serialized per Dispatcher: a
// second matching Dispatch waits until the running handler returns. It
// reports whether any entry matched; an unmatched route is the caller's
// responsibility to auto-continue or ignore.
func (d *Dispatcher) Dispatch(routeGUID, url string) bool {
	d.mu.Lock()
	var matched *entry
	for i := len(d.entries) - 1; i >= 0; i-- {
		if d.entries[i].pattern.Match(url) {
			matched = &d.entries[i]
			break
		}
	}
	d.mu.Unlock()

	if matched == nil {
		return false
	}
	d.runMu.Lock()
	defer d.runMu.Unlock()
	matched.handler(routeGUID, url)
	return true
}
