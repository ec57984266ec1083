// channelowner.go — the base contract every protocol object implements
// (spec.md §4.4).
//
// Grounded on the teacher's Server/session ownership pattern
// (cmd/dev-console's Server struct holds child state behind a mutex and
// exposes typed accessors); generalized here into a parent/child forest
// keyed by server-assigned guid instead of a flat session map.
package channelowner

import (
	"encoding/json"
	"sync"
)

// Sender is the subset of the RPC engine a channel-owner needs to issue
// requests scoped to its own guid. Implemented by the Connection.
type Sender interface {
	Send(guid, method string, params interface{}) (json.RawMessage, error)
}

// Owner is the interface every concrete protocol object (Playwright,
// BrowserType, Browser, Page, ...) satisfies. The Connection's dispatch loop
// only knows objects through this interface; type-specific behavior lives
// in the concrete types under internal/objects.
type Owner interface {
	GUID() string
	TypeName() string
	Parent() Owner

	// OnEvent handles a non-lifecycle protocol event addressed to this
	// object's guid. The default Base implementation ignores unknown
	// events, per spec §4.4.
	OnEvent(method string, params json.RawMessage)

	// adoptChild/dropChild/children are used by the Connection's registry
	// to maintain the parent/child forest; unexported so only this package
	// and internal/objects (via Base) can mutate the tree.
	adoptChild(child Owner)
	dropChild(child Owner)
	children() []Owner
	setParent(parent Owner)
	markDisposed()
	IsDisposed() bool
}

// Base implements Owner's bookkeeping; concrete types embed it and override
// OnEvent where they need type-specific behavior.
type Base struct {
	mu         sync.Mutex
	guid       string
	typeName   string
	parent     Owner
	kids       []Owner
	disposed   bool
	sender     Sender
	Initializer json.RawMessage
}

// NewBase constructs the embeddable base for a concrete channel-owner.
func NewBase(sender Sender, guid, typeName string, parent Owner, initializer json.RawMessage) Base {
	return Base{
		sender:      sender,
		guid:        guid,
		typeName:    typeName,
		parent:      parent,
		Initializer: initializer,
	}
}

func (b *Base) GUID() string     { return b.guid }
func (b *Base) TypeName() string { return b.typeName }

func (b *Base) Parent() Owner {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.parent
}

// OnEvent is the default no-op handler; concrete types override it by
// shadowing the method (Go has no virtual dispatch, so the Connection must
// call through the Owner interface, not the embedded Base, for overrides to
// take effect).
func (b *Base) OnEvent(string, json.RawMessage) {}

// Send issues an RPC request scoped to this object's guid.
func (b *Base) Send(method string, params interface{}) (json.RawMessage, error) {
	return b.sender.Send(b.guid, method, params)
}

func (b *Base) adoptChild(child Owner) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.kids = append(b.kids, child)
}

func (b *Base) dropChild(child Owner) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, k := range b.kids {
		if k.GUID() == child.GUID() {
			b.kids = append(b.kids[:i], b.kids[i+1:]...)
			return
		}
	}
}

func (b *Base) children() []Owner {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Owner, len(b.kids))
	copy(out, b.kids)
	return out
}

func (b *Base) setParent(parent Owner) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.parent = parent
}

func (b *Base) markDisposed() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.disposed = true
}

func (b *Base) IsDisposed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.disposed
}

// AdoptChild, DropChild, Children, SetParent, MarkDisposed, Dispose are the
// exported façade the Connection's registry uses, since Owner's own
// lifecycle methods are unexported to keep them out of concrete types'
// public APIs.
func AdoptChild(parent, child Owner) { parent.adoptChild(child) }
func DropChild(parent, child Owner)  { parent.dropChild(child) }
func Children(o Owner) []Owner       { return o.children() }
func SetParent(o Owner, parent Owner) { o.setParent(parent) }
func MarkDisposed(o Owner)           { o.markDisposed() }

// DisposeTree recursively disposes o and its descendants, children first
// (post-order), per spec §4.3/§4.4's bottom-up disposal requirement. It
// sends no protocol messages — disposal is purely local bookkeeping.
func DisposeTree(o Owner) {
	for _, child := range o.children() {
		DisposeTree(child)
	}
	o.markDisposed()
}
