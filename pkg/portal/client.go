package portal

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/portico-ui/portico/pkg/anchor"
)

// ClientState is the portal client lifecycle state.
type ClientState uint8

const (
	StateClosed ClientState = iota
	StateRegistering
	StateAwaitingRenderSignal // root: waiting for its render-completed signal
	StateYieldingOnce         // child: single cooperative yield, never a timed wait
	StatePositioned
	StatePositionFailed // positioner error; the entry stays registered until Close
)

// String returns the string representation of the ClientState.
func (s ClientState) String() string {
	switch s {
	case StateClosed:
		return "Closed"
	case StateRegistering:
		return "Registering"
	case StateAwaitingRenderSignal:
		return "AwaitingRenderSignal"
	case StateYieldingOnce:
		return "YieldingOnce"
	case StatePositioned:
		return "Positioned"
	case StatePositionFailed:
		return "PositionFailed"
	default:
		return "Unknown"
	}
}

// Client runs the per-overlay-instance open/close protocol against a
// Registry and a positioning collaborator.
//
// A root client registers its own scope and suspends until the category
// host signals that the root's composite was rendered (bounded by
// ClientConfig.RenderWait). A child client appends into its nearest root
// ancestor's scope and performs a single cooperative scheduling yield
// instead: its content is already part of the parent's next pass, and a
// timed wait here would add a fixed delay while waiting on a
// render-completed signal that is never emitted for child ids.
type Client struct {
	id       string
	category Category
	content  ContentProducer
	reg      *Registry
	parent   *Client
	pos      anchor.Positioner
	floating anchor.Ref
	config   *ClientConfig
	logger   *slog.Logger

	mu           sync.Mutex
	state        ClientState
	open         bool
	closing      chan struct{}
	cancelWait   func()
	releaseTrack func()
	position     anchor.Position
	positioned   bool
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithParent makes the client a child of parent. The client's registry
// operations target the nearest root ancestor's scope, at any depth.
func WithParent(parent *Client) ClientOption {
	return func(c *Client) {
		c.parent = parent
	}
}

// WithPositioner sets the positioning collaborator.
func WithPositioner(p anchor.Positioner) ClientOption {
	return func(c *Client) {
		c.pos = p
	}
}

// WithFloating sets the reference for the client's own floating content.
func WithFloating(ref anchor.Ref) ClientOption {
	return func(c *Client) {
		c.floating = ref
	}
}

// WithClientConfig replaces the default client configuration.
func WithClientConfig(cfg *ClientConfig) ClientOption {
	return func(c *Client) {
		if cfg != nil {
			c.config = cfg.Clone()
		}
	}
}

// WithClientLogger sets the client logger.
func WithClientLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient creates a closed client for one overlay instance.
func NewClient(reg *Registry, id string, category Category, content ContentProducer, opts ...ClientOption) *Client {
	c := &Client{
		id:       id,
		category: category,
		content:  content,
		reg:      reg,
		config:   DefaultClientConfig(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("portal", id)
	return c
}

// ID returns the client's portal id.
func (c *Client) ID() string { return c.id }

// IsRoot reports whether this client owns its own scope.
func (c *Client) IsRoot() bool { return c.parent == nil }

// RootID resolves the nearest root ancestor's id. For a root client that is
// its own id. The resolution walks the parent chain all the way up: an
// intermediate child id is never a valid registry target, and handing one
// to AppendChild would fail with ErrUnknownParent rather than being papered
// over with a fresh scope.
func (c *Client) RootID() string {
	n := c
	for n.parent != nil {
		n = n.parent
	}
	return n.id
}

// State returns the current lifecycle state.
func (c *Client) State() ClientState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Position returns the last computed position and whether one exists.
func (c *Client) Position() (anchor.Position, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.position, c.positioned
}

// Open runs the open sequence: register or append, wait appropriately for
// render completion, then request positioning. Open is idempotent while the
// client is already open.
//
// A positioner failure is returned to the caller but does not tear the
// portal down: the entry stays registered until Close.
func (c *Client) Open(ctx context.Context, anchorRef anchor.Ref) error {
	c.mu.Lock()
	if c.open {
		c.mu.Unlock()
		return nil
	}
	c.open = true
	c.state = StateRegistering
	c.closing = make(chan struct{})
	closing := c.closing
	c.mu.Unlock()

	if c.parent == nil {
		if err := c.openRoot(ctx, closing); err != nil {
			return err
		}
	} else {
		if err := c.openChild(closing); err != nil {
			return err
		}
	}

	// Closed (or cancelled) while the open sequence was in flight: teardown
	// already ran or is running, skip positioning.
	select {
	case <-closing:
		return nil
	default:
	}

	return c.requestPositioning(anchorRef)
}

// openRoot registers the scope and awaits the render-completed signal,
// bounded by the configured fallback.
func (c *Client) openRoot(ctx context.Context, closing chan struct{}) error {
	// Subscribe before registering so the signal for the registration's own
	// render pass cannot be missed.
	wait, cancel := c.reg.AwaitRender(c.id)

	if err := c.reg.Register(c.id, c.category, c.content); err != nil {
		cancel()
		c.abortOpen()
		return err
	}

	c.mu.Lock()
	select {
	case <-closing:
		// Close ran to completion while the registration was still in
		// flight and found nothing to tear down. The teardown obligation
		// lands here, on the registration that just succeeded.
		c.mu.Unlock()
		cancel()
		c.reg.Unregister(c.id)
		return nil
	default:
	}
	c.state = StateAwaitingRenderSignal
	c.cancelWait = cancel
	c.mu.Unlock()

	timer := time.NewTimer(c.config.RenderWait)
	defer timer.Stop()

	select {
	case <-wait:
	case <-timer.C:
		c.logger.Warn("render signal timed out, positioning best-effort",
			"category", c.category.String(),
			"wait", c.config.RenderWait)
		c.reg.metrics.recordWaitTimeout()
	case <-closing:
		// Close cancelled the wait; teardown owns the rest.
	case <-ctx.Done():
		cancel()
		c.Close()
		return ctx.Err()
	}

	cancel()
	c.mu.Lock()
	c.cancelWait = nil
	c.mu.Unlock()
	return nil
}

// openChild appends into the nearest root ancestor's scope and yields once.
func (c *Client) openChild(closing chan struct{}) error {
	rootID := c.RootID()
	if err := c.reg.AppendChild(rootID, c.id, c.content); err != nil {
		c.abortOpen()
		return fmt.Errorf("open child portal: %w", err)
	}

	c.mu.Lock()
	select {
	case <-closing:
		// Close completed before the append landed; undo it here.
		c.mu.Unlock()
		c.reg.RemoveChild(rootID, c.id)
		return nil
	default:
	}
	c.state = StateYieldingOnce
	c.mu.Unlock()

	// The appended content is part of the root's next scheduled render
	// pass; one cooperative yield is all the sequencing a child needs.
	runtime.Gosched()
	return nil
}

// requestPositioning computes the position and optionally engages tracking.
func (c *Client) requestPositioning(anchorRef anchor.Ref) error {
	if c.pos == nil {
		c.mu.Lock()
		c.state = StatePositioned
		c.mu.Unlock()
		return nil
	}

	if c.config.AutoTrack {
		release, err := c.pos.AutoTrack(anchorRef, c.floating, c.config.Position, c.setPosition)
		if err != nil {
			c.markPositionFailed()
			return fmt.Errorf("position portal %q: %w", c.id, err)
		}
		c.mu.Lock()
		if !c.open {
			// Close raced the tracking setup; release immediately.
			c.mu.Unlock()
			release()
			return nil
		}
		c.state = StatePositioned
		c.releaseTrack = release
		c.mu.Unlock()
		return nil
	}

	pos, err := c.pos.ComputePosition(anchorRef, c.floating, c.config.Position)
	if err != nil {
		c.markPositionFailed()
		return fmt.Errorf("position portal %q: %w", c.id, err)
	}
	c.mu.Lock()
	c.state = StatePositioned
	c.position = pos
	c.positioned = true
	c.mu.Unlock()
	return nil
}

// markPositionFailed records a positioner error as the terminal open state.
// A Close that raced the positioning attempt wins; the state stays Closed.
func (c *Client) markPositionFailed() {
	c.mu.Lock()
	if c.open {
		c.state = StatePositionFailed
	}
	c.mu.Unlock()
}

// setPosition records a position update from the tracking callback.
func (c *Client) setPosition(pos anchor.Position) {
	c.mu.Lock()
	c.position = pos
	c.positioned = true
	c.mu.Unlock()
}

// abortOpen rolls the client back to Closed after a failed registry call.
func (c *Client) abortOpen() {
	c.mu.Lock()
	c.open = false
	c.state = StateClosed
	if c.closing != nil {
		select {
		case <-c.closing:
		default:
			close(c.closing)
		}
	}
	c.mu.Unlock()
}

// Close tears the portal down: it cancels a pending render wait
// immediately, releases position tracking, and removes the entry from the
// registry. Close is idempotent, and both registry teardown calls are
// themselves idempotent, so racing an explicit close against ambient
// disposal is safe.
func (c *Client) Close() {
	c.mu.Lock()
	if !c.open {
		c.mu.Unlock()
		return
	}
	c.open = false
	c.state = StateClosed
	c.positioned = false
	cancel := c.cancelWait
	release := c.releaseTrack
	c.cancelWait = nil
	c.releaseTrack = nil
	if c.closing != nil {
		select {
		case <-c.closing:
		default:
			close(c.closing)
		}
	}
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if release != nil {
		release()
	}

	if c.parent == nil {
		c.reg.Unregister(c.id)
	} else {
		c.reg.RemoveChild(c.RootID(), c.id)
	}
}
