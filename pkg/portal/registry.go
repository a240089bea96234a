package portal

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/portico-ui/portico/pkg/vdom"
)

// ContentProducer produces renderable output for a portal entry.
// Producers must be pure: they may close over application state but must not
// capture mutable registry state, because they are invoked outside the
// registry lock during render passes.
type ContentProducer func() *vdom.VNode

// Entry describes a registered root portal.
type Entry struct {
	ID       string
	Category Category
	Content  ContentProducer
}

// childEntry is one (childID, producer) pair in a scope's ordered list.
type childEntry struct {
	id      string
	content ContentProducer
}

// scope is the flat composition unit owned by a root entry. All visual
// descendants of a root, regardless of nesting depth, live in the same
// children list as siblings; nesting is preserved only through insertion
// order and whatever structure the content itself renders.
type scope struct {
	entry    Entry
	children []childEntry
	seq      uint64 // registration order, for stable root iteration
}

// Registry owns the authoritative set of portal scopes for one session.
//
// Mutations may arrive from any goroutine (timers, network callbacks)
// concurrently with the render loop. The registry lock guards the scope map
// and each scope's children list; it is held only across the structural edit
// itself, never across event emission or any awaited signal.
type Registry struct {
	mu     sync.RWMutex
	scopes map[string]*scope
	seq    uint64

	subsMu sync.RWMutex
	subs   map[Category][]chan struct{}

	waitMu  sync.Mutex
	waiters map[string][]chan struct{}

	logger  *slog.Logger
	metrics *Metrics
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithLogger sets the logger for registry lifecycle events.
func WithLogger(logger *slog.Logger) RegistryOption {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithMetrics attaches a metrics collector to the registry.
func WithMetrics(m *Metrics) RegistryOption {
	return func(r *Registry) {
		r.metrics = m
	}
}

// NewRegistry creates an empty Registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		scopes:  make(map[string]*scope),
		subs:    make(map[Category][]chan struct{}),
		waiters: make(map[string][]chan struct{}),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register creates a new root scope for id.
// Fails with ErrDuplicateID if id is still active as a root.
func (r *Registry) Register(id string, category Category, content ContentProducer) error {
	r.mu.Lock()
	if _, exists := r.scopes[id]; exists {
		r.mu.Unlock()
		return fmt.Errorf("register %q: %w", id, ErrDuplicateID)
	}
	r.seq++
	r.scopes[id] = &scope{
		entry: Entry{ID: id, Category: category, Content: content},
		seq:   r.seq,
	}
	r.mu.Unlock()

	r.logger.Debug("portal registered", "id", id, "category", category.String())
	r.metrics.recordRegister(category)
	r.notifyCategory(category)
	return nil
}

// Unregister destroys the scope for id, including all of its children.
// It is an idempotent no-op when id is absent, so teardown triggered from
// two independent paths never fails.
func (r *Registry) Unregister(id string) {
	r.mu.Lock()
	sc, exists := r.scopes[id]
	if !exists {
		r.mu.Unlock()
		return
	}
	delete(r.scopes, id)
	children := len(sc.children)
	category := sc.entry.Category
	r.mu.Unlock()

	// Wake any pending render waiters so a racing open sequence can proceed
	// to its own teardown instead of hanging on a signal that will never
	// arrive for an unregistered root.
	r.completeWaiters(id)

	r.logger.Debug("portal unregistered", "id", id, "children", children, "category", category.String())
	r.metrics.recordUnregister(category)
	r.notifyCategory(category)
}

// AppendChild appends (childID, content) to the end of parentID's ordered
// children list. Fails with ErrUnknownParent if parentID does not identify a
// currently-registered root scope (including when parentID names a child of
// some other scope) and with ErrDuplicateID if childID is already present in
// the scope.
func (r *Registry) AppendChild(parentID, childID string, content ContentProducer) error {
	r.mu.Lock()
	sc, exists := r.scopes[parentID]
	if !exists {
		r.mu.Unlock()
		return fmt.Errorf("append %q to %q: %w", childID, parentID, ErrUnknownParent)
	}
	for _, c := range sc.children {
		if c.id == childID {
			r.mu.Unlock()
			return fmt.Errorf("append %q to %q: %w", childID, parentID, ErrDuplicateID)
		}
	}
	sc.children = append(sc.children, childEntry{id: childID, content: content})
	category := sc.entry.Category
	r.mu.Unlock()

	r.metrics.recordAppend(category)
	r.notifyCategory(category)
	return nil
}

// RemoveChild removes childID from parentID's scope. It is an idempotent
// no-op when the parent or the specific child is absent. Removal never
// reorders survivors; a later re-append of the same childID lands at the
// current end of the list.
func (r *Registry) RemoveChild(parentID, childID string) {
	r.mu.Lock()
	sc, exists := r.scopes[parentID]
	if !exists {
		r.mu.Unlock()
		return
	}
	idx := -1
	for i, c := range sc.children {
		if c.id == childID {
			idx = i
			break
		}
	}
	if idx < 0 {
		r.mu.Unlock()
		return
	}
	sc.children = append(sc.children[:idx], sc.children[idx+1:]...)
	category := sc.entry.Category
	r.mu.Unlock()

	r.metrics.recordRemove(category)
	r.notifyCategory(category)
}

// GetComposite returns the composite content for a root id: root content
// followed by each child's content in insertion order. The composite is
// derived on demand, never stored. Returns false if id is not a registered
// root.
//
// Producers run outside the registry lock; a producer that turns around and
// mutates the registry must not deadlock a render pass.
func (r *Registry) GetComposite(id string) (*vdom.VNode, bool) {
	r.mu.RLock()
	sc, exists := r.scopes[id]
	if !exists {
		r.mu.RUnlock()
		return nil, false
	}
	producers := make([]ContentProducer, 0, len(sc.children)+1)
	producers = append(producers, sc.entry.Content)
	for _, c := range sc.children {
		producers = append(producers, c.content)
	}
	r.mu.RUnlock()

	parts := make([]*vdom.VNode, 0, len(producers))
	for _, produce := range producers {
		if produce == nil {
			continue
		}
		if node := produce(); node != nil {
			parts = append(parts, node)
		}
	}
	return vdom.Fragment(parts), true
}

// Roots returns the ids of all registered roots in the given category, in
// registration order.
func (r *Registry) Roots(category Category) []string {
	r.mu.RLock()
	type rootSeq struct {
		id  string
		seq uint64
	}
	roots := make([]rootSeq, 0, len(r.scopes))
	for id, sc := range r.scopes {
		if sc.entry.Category == category {
			roots = append(roots, rootSeq{id: id, seq: sc.seq})
		}
	}
	r.mu.RUnlock()

	sort.Slice(roots, func(i, j int) bool { return roots[i].seq < roots[j].seq })
	ids := make([]string, len(roots))
	for i, rt := range roots {
		ids[i] = rt.id
	}
	return ids
}

// HasRoot reports whether id is a currently-registered root.
func (r *Registry) HasRoot(id string) bool {
	r.mu.RLock()
	_, ok := r.scopes[id]
	r.mu.RUnlock()
	return ok
}

// ChildCount returns the number of children in the scope for id, or 0 when
// id is not a root.
func (r *Registry) ChildCount(id string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if sc, ok := r.scopes[id]; ok {
		return len(sc.children)
	}
	return 0
}

// Clear removes every scope without emitting change events. This is the
// explicit session teardown path; hosts are expected to be stopped first.
func (r *Registry) Clear() {
	r.mu.Lock()
	ids := make([]string, 0, len(r.scopes))
	for id := range r.scopes {
		ids = append(ids, id)
	}
	r.scopes = make(map[string]*scope)
	r.mu.Unlock()

	for _, id := range ids {
		r.completeWaiters(id)
	}
	r.logger.Debug("registry cleared", "scopes", len(ids))
}
