package portal

import "sync"

// SubscribeCategory returns a coalescing change signal for one category and
// an unsubscribe function. The channel has a buffer of one and notifications
// use a non-blocking send, so any number of back-to-back mutations collapse
// into a single pending signal: a slow host re-renders once with the latest
// state instead of queueing a pass per mutation.
//
// Events for other categories are never delivered on the returned channel.
func (r *Registry) SubscribeCategory(category Category) (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)

	r.subsMu.Lock()
	r.subs[category] = append(r.subs[category], ch)
	r.subsMu.Unlock()

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			r.subsMu.Lock()
			defer r.subsMu.Unlock()
			subs := r.subs[category]
			for i, c := range subs {
				if c == ch {
					r.subs[category] = append(subs[:i], subs[i+1:]...)
					return
				}
			}
		})
	}
	return ch, unsubscribe
}

// notifyCategory signals every subscriber of the category. Subscribers are
// copied before notification so no lock is held while sending (the same
// copy-before-notify discipline the rest of the registry follows).
func (r *Registry) notifyCategory(category Category) {
	r.subsMu.RLock()
	subs := make([]chan struct{}, len(r.subs[category]))
	copy(subs, r.subs[category])
	r.subsMu.RUnlock()

	r.metrics.recordCategoryEvent(category)
	for _, ch := range subs {
		select {
		case ch <- struct{}{}:
		default:
			// A signal is already pending; the next render pass picks up
			// this mutation too.
		}
	}
}

// AwaitRender returns a channel that is closed the next time a render pass
// completes for the given root id, plus a cancel function that removes the
// waiter immediately. Cancel is safe to call at any time and more than once;
// after cancel returns, the registry holds no reference to the waiter.
//
// RenderCompleted is only ever emitted for root ids. Waiting on a child id
// blocks until cancelled or until a fallback timeout elapses at the caller.
func (r *Registry) AwaitRender(id string) (<-chan struct{}, func()) {
	ch := make(chan struct{})

	r.waitMu.Lock()
	r.waiters[id] = append(r.waiters[id], ch)
	r.waitMu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			r.waitMu.Lock()
			defer r.waitMu.Unlock()
			waiters := r.waiters[id]
			for i, c := range waiters {
				if c == ch {
					waiters = append(waiters[:i], waiters[i+1:]...)
					break
				}
			}
			if len(waiters) == 0 {
				delete(r.waiters, id)
			} else {
				r.waiters[id] = waiters
			}
		})
	}
	return ch, cancel
}

// RenderCompleted reports that a render pass produced output for the root
// id. Hosts call this exactly once per root per pass, never for child ids;
// children render as a side effect of their root's pass and have no
// independent completion signal.
func (r *Registry) RenderCompleted(id string) {
	r.completeWaiters(id)
	r.metrics.recordRenderCompleted()
}

// completeWaiters closes and removes all pending waiters for id.
func (r *Registry) completeWaiters(id string) {
	r.waitMu.Lock()
	waiters := r.waiters[id]
	delete(r.waiters, id)
	r.waitMu.Unlock()

	for _, ch := range waiters {
		close(ch)
	}
}

// pendingWaiters reports the number of outstanding render waiters for id.
// Used by tests to assert no dangling subscription survives teardown.
func (r *Registry) pendingWaiters(id string) int {
	r.waitMu.Lock()
	defer r.waitMu.Unlock()
	return len(r.waiters[id])
}
