package portal

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/portico-ui/portico/pkg/render"
)

// RenderSink receives the rendered HTML for one root per render pass.
// Sinks run on the host goroutine; a sink that blocks stalls its own
// category only.
type RenderSink func(rootID, html string)

// Host drives rendering for a single category. It subscribes exclusively to
// its category's change signal, so mutations in other categories never cause
// a pass here.
type Host struct {
	category Category
	reg      *Registry
	renderer *render.Renderer
	sink     RenderSink
	logger   *slog.Logger

	changes <-chan struct{}
	unsub   func()
	done    chan struct{}
	closed  atomic.Bool
}

// HostOption configures a Host.
type HostOption func(*Host)

// WithHostLogger sets the host logger.
func WithHostLogger(logger *slog.Logger) HostOption {
	return func(h *Host) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithHostRenderer replaces the default renderer.
func WithHostRenderer(r *render.Renderer) HostOption {
	return func(h *Host) {
		if r != nil {
			h.renderer = r
		}
	}
}

// WithSink sets the destination for rendered output. Without a sink the
// host still renders and still emits render-completed signals; the output
// is discarded.
func WithSink(sink RenderSink) HostOption {
	return func(h *Host) {
		h.sink = sink
	}
}

// NewHost creates a Host for one category and subscribes it to the
// registry's change signal for that category.
func NewHost(reg *Registry, category Category, opts ...HostOption) *Host {
	h := &Host{
		category: category,
		reg:      reg,
		renderer: render.New(render.Config{}),
		logger:   slog.Default(),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.logger = h.logger.With("category", category.String())
	h.changes, h.unsub = reg.SubscribeCategory(category)
	return h
}

// Run processes change signals until ctx is cancelled or Close is called.
// It runs one initial pass so roots registered before the host started are
// rendered and signalled.
func (h *Host) Run(ctx context.Context) {
	defer h.Close()

	h.renderPass()

	for {
		select {
		case <-ctx.Done():
			return
		case <-h.done:
			return
		case <-h.changes:
			h.renderPass()
		}
	}
}

// Close unsubscribes the host and stops Run. Safe to call more than once.
func (h *Host) Close() {
	if h.closed.Swap(true) {
		return
	}
	h.unsub()
	close(h.done)
}

// RenderOnce runs a single synchronous render pass. Exposed for callers
// that drive rendering manually (tests, server-side rendering of the first
// frame) instead of through Run.
func (h *Host) RenderOnce() {
	h.renderPass()
}

// renderPass re-renders every currently-registered root in the host's
// category and then emits RenderCompleted once per rendered root. Children
// have no pass of their own: each root's composite already contains them in
// insertion order.
func (h *Host) renderPass() {
	roots := h.reg.Roots(h.category)
	rendered := make([]string, 0, len(roots))

	for _, id := range roots {
		node, ok := h.reg.GetComposite(id)
		if !ok {
			// Unregistered between listing and rendering.
			continue
		}
		html, err := h.renderer.ToString(node)
		if err != nil {
			h.logger.Error("render failed", "root", id, "error", err)
			continue
		}
		if h.sink != nil {
			h.sink(id, html)
		}
		rendered = append(rendered, id)
	}

	h.reg.metrics.recordRenderPass(h.category, len(rendered))

	// Completion signals fire only after the whole pass is done, exactly
	// once per root rendered in this pass.
	for _, id := range rendered {
		h.reg.RenderCompleted(id)
	}
}
