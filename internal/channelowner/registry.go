// registry.go — the guid → Owner registry the Connection maintains
// (spec.md §4.3's synchronous `objects` map).
package channelowner

import "sync"

// Registry is the Connection's synchronous guid→Owner map. Safe for
// concurrent use: the dispatch loop is the only writer, but Send-path code
// reading an object's parent/children may run on other goroutines.
type Registry struct {
	mu      sync.Mutex
	objects map[string]Owner
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{objects: make(map[string]Owner)}
}

// Put registers a newly created object and links it under its parent.
func (r *Registry) Put(o Owner) {
	r.mu.Lock()
	r.objects[o.GUID()] = o
	r.mu.Unlock()
	if parent := o.Parent(); parent != nil {
		AdoptChild(parent, o)
	}
}

// Get looks up an object by guid.
func (r *Registry) Get(guid string) (Owner, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.objects[guid]
	return o, ok
}

// Remove deletes a single guid from the map without touching its tree
// position. Used internally by Dispose, which removes the whole subtree.
func (r *Registry) remove(guid string) {
	r.mu.Lock()
	delete(r.objects, guid)
	r.mu.Unlock()
}

// Dispose removes guid and every descendant from the registry, disposing
// children before the node itself (spec §4.3's `__dispose__` handling).
// Sends no protocol messages.
func (r *Registry) Dispose(guid string) {
	o, ok := r.Get(guid)
	if !ok {
		return
	}
	r.disposeSubtree(o)
	if parent := o.Parent(); parent != nil {
		DropChild(parent, o)
	}
}

func (r *Registry) disposeSubtree(o Owner) {
	for _, child := range Children(o) {
		r.disposeSubtree(child)
		r.remove(child.GUID())
	}
	MarkDisposed(o)
	r.remove(o.GUID())
}

// Adopt reparents childGUID under newParentGUID (spec §4.3's `__adopt__`
// handling). Unknown guids are silently ignored; callers are expected to
// log the miss themselves since only they have a logging sink.
func (r *Registry) Adopt(childGUID, newParentGUID string) bool {
	child, ok := r.Get(childGUID)
	if !ok {
		return false
	}
	newParent, ok := r.Get(newParentGUID)
	if !ok {
		return false
	}
	if oldParent := child.Parent(); oldParent != nil {
		DropChild(oldParent, child)
	}
	SetParent(child, newParent)
	AdoptChild(newParent, child)
	return true
}

// Clear empties the registry and marks every object disposed, without
// sending protocol messages. Used on Connection shutdown (spec §4.3).
func (r *Registry) Clear() {
	r.mu.Lock()
	all := make([]Owner, 0, len(r.objects))
	for _, o := range r.objects {
		all = append(all, o)
	}
	r.objects = make(map[string]Owner)
	r.mu.Unlock()

	for _, o := range all {
		MarkDisposed(o)
	}
}
