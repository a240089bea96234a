package portal

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/portico-ui/portico/pkg/anchor"
)

func testRefs() (*anchor.StaticRef, *anchor.StaticRef) {
	a := anchor.NewStaticRef(anchor.Rect{X: 10, Y: 10, Width: 20, Height: 20})
	f := anchor.NewStaticRef(anchor.Rect{Width: 40, Height: 30})
	return a, f
}

// staticClientConfig disables tracking so tests observe a single computed
// position.
func staticClientConfig(wait time.Duration) *ClientConfig {
	cfg := DefaultClientConfig()
	cfg.RenderWait = wait
	cfg.AutoTrack = false
	return cfg
}

func TestRootOpenWaitsForRenderSignal(t *testing.T) {
	reg := NewRegistry()
	host := NewHost(reg, CategoryOverlay)
	ctx, cancelCtx := context.WithCancel(context.Background())
	defer cancelCtx()
	go host.Run(ctx)

	anchorRef, floating := testRefs()
	c := NewClient(reg, "menu", CategoryOverlay, textContent("m"),
		WithPositioner(&anchor.Offset{}),
		WithFloating(floating),
		WithClientConfig(staticClientConfig(5*time.Second)),
	)

	start := time.Now()
	if err := c.Open(ctx, anchorRef); err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer c.Close()

	// The running host signals promptly; the 5s fallback must not be what
	// let us through.
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("Open took %v, render signal apparently never arrived", elapsed)
	}
	if c.State() != StatePositioned {
		t.Errorf("state = %s, want Positioned", c.State())
	}
	if _, ok := c.Position(); !ok {
		t.Error("no position computed")
	}
}

func TestRootOpenTimeoutProceedsBestEffort(t *testing.T) {
	reg := NewRegistry() // no host: the signal can never arrive

	anchorRef, floating := testRefs()
	c := NewClient(reg, "menu", CategoryOverlay, textContent("m"),
		WithPositioner(&anchor.Offset{}),
		WithFloating(floating),
		WithClientConfig(staticClientConfig(10*time.Millisecond)),
	)

	if err := c.Open(context.Background(), anchorRef); err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer c.Close()

	// Degraded, not fatal: the portal is positioned and stays registered.
	if c.State() != StatePositioned {
		t.Errorf("state = %s, want Positioned", c.State())
	}
	if !reg.HasRoot("menu") {
		t.Error("root missing after degraded open")
	}
}

func TestChildOpenNeverWaitsOnRenderSignal(t *testing.T) {
	reg := NewRegistry() // no host: any timed wait on a signal would hang

	anchorRef, floating := testRefs()
	parent := NewClient(reg, "menu", CategoryOverlay, textContent("m"),
		WithClientConfig(staticClientConfig(10*time.Millisecond)),
	)
	if err := parent.Open(context.Background(), anchorRef); err != nil {
		t.Fatalf("parent Open: %v", err)
	}
	defer parent.Close()

	child := NewClient(reg, "submenu", CategoryOverlay, textContent("s"),
		WithParent(parent),
		WithPositioner(&anchor.Offset{}),
		WithFloating(floating),
		WithClientConfig(staticClientConfig(time.Hour)),
	)

	start := time.Now()
	if err := child.Open(context.Background(), anchorRef); err != nil {
		t.Fatalf("child Open: %v", err)
	}
	defer child.Close()

	// The child path is a single cooperative yield: with an hour-long
	// render wait configured, returning quickly proves no timed wait ran
	// and no render-completed signal was consulted for the child id.
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("child Open took %v, child path must not wait", elapsed)
	}
	if n := reg.pendingWaiters("submenu"); n != 0 {
		t.Errorf("child registered %d render waiters, want 0", n)
	}
	if child.State() != StatePositioned {
		t.Errorf("state = %s, want Positioned", child.State())
	}
}

func TestRootIDResolvesNearestRootAtAnyDepth(t *testing.T) {
	reg := NewRegistry()

	anchorRef, _ := testRefs()
	root := NewClient(reg, "menu", CategoryOverlay, textContent("m"),
		WithClientConfig(staticClientConfig(time.Millisecond)),
	)
	sub := NewClient(reg, "sub", CategoryOverlay, textContent("s"), WithParent(root))
	subsub := NewClient(reg, "subsub", CategoryOverlay, textContent("ss"), WithParent(sub))

	if got := subsub.RootID(); got != "menu" {
		t.Fatalf("RootID = %q, want menu (never an intermediate child)", got)
	}

	if err := root.Open(context.Background(), anchorRef); err != nil {
		t.Fatalf("root Open: %v", err)
	}
	defer root.Close()
	if err := sub.Open(context.Background(), anchorRef); err != nil {
		t.Fatalf("sub Open: %v", err)
	}
	if err := subsub.Open(context.Background(), anchorRef); err != nil {
		t.Fatalf("subsub Open: %v", err)
	}

	// Flat-by-design: both descendants append to the root scope as
	// siblings; the registry never grows a scope per nesting level.
	if n := reg.ChildCount("menu"); n != 2 {
		t.Errorf("root scope children = %d, want 2", n)
	}
	if reg.HasRoot("sub") || reg.HasRoot("subsub") {
		t.Error("descendant acquired its own scope")
	}
}

func TestOpenIdempotent(t *testing.T) {
	reg := NewRegistry()

	anchorRef, _ := testRefs()
	c := NewClient(reg, "menu", CategoryOverlay, textContent("m"),
		WithClientConfig(staticClientConfig(time.Millisecond)),
	)
	if err := c.Open(context.Background(), anchorRef); err != nil {
		t.Fatalf("first Open: %v", err)
	}
	defer c.Close()

	if err := c.Open(context.Background(), anchorRef); err != nil {
		t.Errorf("second Open: %v, want nil no-op", err)
	}
}

func TestCloseIdempotent(t *testing.T) {
	reg := NewRegistry()

	anchorRef, _ := testRefs()
	c := NewClient(reg, "menu", CategoryOverlay, textContent("m"),
		WithClientConfig(staticClientConfig(time.Millisecond)),
	)
	if err := c.Open(context.Background(), anchorRef); err != nil {
		t.Fatalf("Open: %v", err)
	}

	c.Close()
	c.Close()

	if reg.HasRoot("menu") {
		t.Error("root still registered after Close")
	}
	if c.State() != StateClosed {
		t.Errorf("state = %s, want Closed", c.State())
	}
}

func TestCloseCancelsPendingRenderWait(t *testing.T) {
	reg := NewRegistry() // no host, so the wait would otherwise run out the clock

	anchorRef, _ := testRefs()
	c := NewClient(reg, "menu", CategoryOverlay, textContent("m"),
		WithClientConfig(staticClientConfig(time.Hour)),
	)

	openDone := make(chan error, 1)
	go func() {
		openDone <- c.Open(context.Background(), anchorRef)
	}()

	// Wait until the open sequence is suspended on the render signal.
	deadline := time.Now().Add(2 * time.Second)
	for c.State() != StateAwaitingRenderSignal {
		if time.Now().After(deadline) {
			t.Fatal("client never reached AwaitingRenderSignal")
		}
		time.Sleep(time.Millisecond)
	}

	c.Close()

	select {
	case err := <-openDone:
		if err != nil {
			t.Errorf("Open after Close: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Open still blocked after Close; wait was not cancelled")
	}

	if reg.HasRoot("menu") {
		t.Error("root survived Close")
	}
	if n := reg.pendingWaiters("menu"); n != 0 {
		t.Errorf("dangling render waiters after Close: %d", n)
	}
}

func TestPositionerFailureKeepsPortalRegistered(t *testing.T) {
	reg := NewRegistry()

	anchorRef, floating := testRefs()
	anchorRef.Remove() // anchor no longer present

	c := NewClient(reg, "menu", CategoryOverlay, textContent("m"),
		WithPositioner(&anchor.Offset{}),
		WithFloating(floating),
		WithClientConfig(staticClientConfig(time.Millisecond)),
	)

	err := c.Open(context.Background(), anchorRef)
	if !errors.Is(err, anchor.ErrAnchorGone) {
		t.Fatalf("Open err = %v, want ErrAnchorGone", err)
	}

	// Positioning failures are reported, never destabilizing: the entry
	// stays registered until explicitly closed, and the client lands in the
	// dedicated PositionFailed state rather than a stale mid-open one.
	if !reg.HasRoot("menu") {
		t.Error("positioner failure unregistered the portal")
	}
	if c.State() != StatePositionFailed {
		t.Errorf("state = %s, want PositionFailed", c.State())
	}

	c.Close()
	if reg.HasRoot("menu") {
		t.Error("Close did not unregister the portal")
	}
}

func TestCloseDuringRootOpenNeverLeaksScope(t *testing.T) {
	reg := NewRegistry()

	anchorRef, _ := testRefs()
	c := NewClient(reg, "menu", CategoryOverlay, textContent("m"),
		WithClientConfig(staticClientConfig(time.Millisecond)),
	)

	// Hold the waiter lock so the open sequence stalls after flipping its
	// open flag but before the scope exists in the registry.
	reg.waitMu.Lock()

	openDone := make(chan error, 1)
	go func() {
		openDone <- c.Open(context.Background(), anchorRef)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for c.State() != StateRegistering {
		if time.Now().After(deadline) {
			reg.waitMu.Unlock()
			t.Fatal("client never entered Registering")
		}
		time.Sleep(time.Millisecond)
	}

	// Close finds nothing to tear down yet; the in-flight registration must
	// clean up after itself once it lands.
	c.Close()
	reg.waitMu.Unlock()

	select {
	case err := <-openDone:
		if err != nil {
			t.Fatalf("Open: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Open never returned")
	}

	if reg.HasRoot("menu") {
		t.Error("scope leaked: closed client left its root registered")
	}
	if c.State() != StateClosed {
		t.Errorf("state = %s, want Closed", c.State())
	}
	if n := reg.pendingWaiters("menu"); n != 0 {
		t.Errorf("dangling render waiters: %d", n)
	}
}

func TestCloseDuringChildOpenNeverLeaksEntry(t *testing.T) {
	reg := NewRegistry()

	anchorRef, _ := testRefs()
	root := NewClient(reg, "menu", CategoryOverlay, textContent("m"),
		WithClientConfig(staticClientConfig(time.Millisecond)),
	)
	if err := root.Open(context.Background(), anchorRef); err != nil {
		t.Fatalf("root Open: %v", err)
	}
	defer root.Close()

	child := NewClient(reg, "sub", CategoryOverlay, textContent("s"), WithParent(root))

	// Hold the registry lock so the append stalls while the child is
	// already marked open.
	reg.mu.Lock()

	openDone := make(chan error, 1)
	go func() {
		openDone <- child.Open(context.Background(), anchorRef)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for child.State() != StateRegistering {
		if time.Now().After(deadline) {
			reg.mu.Unlock()
			t.Fatal("child never entered Registering")
		}
		time.Sleep(time.Millisecond)
	}

	closeDone := make(chan struct{})
	go func() {
		child.Close()
		close(closeDone)
	}()
	// Wait until Close has committed the closed state; its registry removal
	// may land before or after the stalled append, both must converge.
	for child.State() != StateClosed {
		if time.Now().After(deadline) {
			reg.mu.Unlock()
			t.Fatal("child never reached Closed")
		}
		time.Sleep(time.Millisecond)
	}
	reg.mu.Unlock()

	select {
	case err := <-openDone:
		if err != nil {
			t.Fatalf("child Open: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("child Open never returned")
	}
	<-closeDone

	if n := reg.ChildCount("menu"); n != 0 {
		t.Errorf("children = %d after racing close, want 0", n)
	}
	if child.State() != StateClosed {
		t.Errorf("state = %s, want Closed", child.State())
	}
}

func TestOpenDuplicateIDFails(t *testing.T) {
	reg := NewRegistry()

	anchorRef, _ := testRefs()
	first := NewClient(reg, "menu", CategoryOverlay, textContent("1"),
		WithClientConfig(staticClientConfig(time.Millisecond)),
	)
	second := NewClient(reg, "menu", CategoryOverlay, textContent("2"),
		WithClientConfig(staticClientConfig(time.Millisecond)),
	)

	if err := first.Open(context.Background(), anchorRef); err != nil {
		t.Fatalf("first Open: %v", err)
	}
	defer first.Close()

	err := second.Open(context.Background(), anchorRef)
	if !errors.Is(err, ErrDuplicateID) {
		t.Fatalf("second Open err = %v, want ErrDuplicateID", err)
	}
	if second.State() != StateClosed {
		t.Errorf("failed open left state %s, want Closed", second.State())
	}

	// The loser's close must not tear down the winner's scope.
	second.Close()
	if !reg.HasRoot("menu") {
		t.Error("failed client tore down the active scope")
	}
}

func TestChildCloseRemovesOnlyItself(t *testing.T) {
	reg := NewRegistry()

	anchorRef, _ := testRefs()
	root := NewClient(reg, "menu", CategoryOverlay, textContent("m"),
		WithClientConfig(staticClientConfig(time.Millisecond)),
	)
	c1 := NewClient(reg, "c1", CategoryOverlay, textContent("1"), WithParent(root))
	c2 := NewClient(reg, "c2", CategoryOverlay, textContent("2"), WithParent(root))

	if err := root.Open(context.Background(), anchorRef); err != nil {
		t.Fatalf("root Open: %v", err)
	}
	if err := c1.Open(context.Background(), anchorRef); err != nil {
		t.Fatalf("c1 Open: %v", err)
	}
	if err := c2.Open(context.Background(), anchorRef); err != nil {
		t.Fatalf("c2 Open: %v", err)
	}

	c1.Close()

	if n := reg.ChildCount("menu"); n != 1 {
		t.Errorf("children = %d after closing c1, want 1", n)
	}

	root.Close()
	if reg.HasRoot("menu") {
		t.Error("scope survived root close")
	}
	// Cascaded: closing the already-gone child is a safe no-op.
	c2.Close()
}

func TestOpenContextCancelledDuringWait(t *testing.T) {
	reg := NewRegistry()

	anchorRef, _ := testRefs()
	c := NewClient(reg, "menu", CategoryOverlay, textContent("m"),
		WithClientConfig(staticClientConfig(time.Hour)),
	)

	ctx, cancel := context.WithCancel(context.Background())
	openDone := make(chan error, 1)
	go func() {
		openDone <- c.Open(ctx, anchorRef)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for c.State() != StateAwaitingRenderSignal {
		if time.Now().After(deadline) {
			t.Fatal("client never reached AwaitingRenderSignal")
		}
		time.Sleep(time.Millisecond)
	}
	cancel()

	select {
	case err := <-openDone:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Open err = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Open still blocked after context cancel")
	}

	if reg.HasRoot("menu") {
		t.Error("root survived cancelled open")
	}
}

func TestAutoTrackFollowsAnchor(t *testing.T) {
	reg := NewRegistry()

	anchorRef, floating := testRefs()
	cfg := DefaultClientConfig()
	cfg.RenderWait = time.Millisecond
	c := NewClient(reg, "tip", CategoryOverlay, textContent("t"),
		WithPositioner(&anchor.Offset{TrackInterval: 2 * time.Millisecond}),
		WithFloating(floating),
		WithClientConfig(cfg),
	)

	if err := c.Open(context.Background(), anchorRef); err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer c.Close()

	anchorRef.Move(anchor.Rect{X: 200, Y: 200, Width: 20, Height: 20})

	deadline := time.Now().Add(2 * time.Second)
	for {
		if pos, ok := c.Position(); ok && pos.Y == 220 {
			break
		}
		if time.Now().After(deadline) {
			pos, _ := c.Position()
			t.Fatalf("position never tracked the anchor move, last = %+v", pos)
		}
		time.Sleep(time.Millisecond)
	}
}
