package portal

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"
)

// collectSink records rendered output per root.
type collectSink struct {
	mu     sync.Mutex
	frames map[string][]string
}

func newCollectSink() *collectSink {
	return &collectSink{frames: make(map[string][]string)}
}

func (s *collectSink) sink(rootID, html string) {
	s.mu.Lock()
	s.frames[rootID] = append(s.frames[rootID], html)
	s.mu.Unlock()
}

func (s *collectSink) last(rootID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	frames := s.frames[rootID]
	if len(frames) == 0 {
		return "", false
	}
	return frames[len(frames)-1], true
}

func TestHostRendersCompositeAndSignals(t *testing.T) {
	reg := NewRegistry()
	sink := newCollectSink()
	host := NewHost(reg, CategoryOverlay, WithSink(sink.sink))
	defer host.Close()

	if err := reg.Register("menu", CategoryOverlay, textContent("root")); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := reg.AppendChild("menu", "sub", textContent("child")); err != nil {
		t.Fatalf("AppendChild: %v", err)
	}

	wait, cancel := reg.AwaitRender("menu")
	defer cancel()

	host.RenderOnce()

	select {
	case <-wait:
	case <-time.After(time.Second):
		t.Fatal("no render-completed signal after pass")
	}

	html, ok := sink.last("menu")
	if !ok {
		t.Fatal("no frame for menu")
	}
	if !strings.Contains(html, "root") || !strings.Contains(html, "child") {
		t.Errorf("frame missing content: %q", html)
	}
	if strings.Index(html, "root") > strings.Index(html, "child") {
		t.Errorf("root content must precede child content: %q", html)
	}
}

func TestHostNeverSignalsChildren(t *testing.T) {
	reg := NewRegistry()
	host := NewHost(reg, CategoryOverlay)
	defer host.Close()

	if err := reg.Register("menu", CategoryOverlay, textContent("r")); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := reg.AppendChild("menu", "sub", textContent("c")); err != nil {
		t.Fatalf("AppendChild: %v", err)
	}

	childWait, cancel := reg.AwaitRender("sub")
	defer cancel()

	host.RenderOnce()
	host.RenderOnce()

	// Children render as a side effect of their root's pass; they have no
	// completion signal of their own.
	select {
	case <-childWait:
		t.Fatal("RenderCompleted emitted for a child id")
	default:
	}
	if n := reg.pendingWaiters("sub"); n != 1 {
		t.Errorf("child waiter count = %d, want 1 (still pending)", n)
	}
}

func TestHostRunRendersOnChange(t *testing.T) {
	reg := NewRegistry()
	sink := newCollectSink()
	host := NewHost(reg, CategoryOverlay, WithSink(sink.sink))

	ctx, cancelCtx := context.WithCancel(context.Background())
	defer cancelCtx()
	go host.Run(ctx)

	wait, cancel := reg.AwaitRender("menu")
	defer cancel()

	if err := reg.Register("menu", CategoryOverlay, textContent("live")); err != nil {
		t.Fatalf("Register: %v", err)
	}

	select {
	case <-wait:
	case <-time.After(2 * time.Second):
		t.Fatal("running host never rendered the new root")
	}

	if html, ok := sink.last("menu"); !ok || !strings.Contains(html, "live") {
		t.Errorf("frame = %q, ok = %v", html, ok)
	}
}

func TestHostIgnoresOtherCategories(t *testing.T) {
	reg := NewRegistry()
	overlaySink := newCollectSink()
	containerSink := newCollectSink()

	overlayHost := NewHost(reg, CategoryOverlay, WithSink(overlaySink.sink))
	containerHost := NewHost(reg, CategoryContainer, WithSink(containerSink.sink))

	ctx, cancelCtx := context.WithCancel(context.Background())
	defer cancelCtx()
	go overlayHost.Run(ctx)
	go containerHost.Run(ctx)

	wait, cancel := reg.AwaitRender("menu")
	defer cancel()
	if err := reg.Register("menu", CategoryOverlay, textContent("m")); err != nil {
		t.Fatalf("Register: %v", err)
	}

	select {
	case <-wait:
	case <-time.After(2 * time.Second):
		t.Fatal("overlay host never rendered")
	}

	containerSink.mu.Lock()
	frames := len(containerSink.frames)
	containerSink.mu.Unlock()
	if frames != 0 {
		t.Errorf("container host rendered %d overlay roots, want 0", frames)
	}
}

func TestHostCloseIdempotent(t *testing.T) {
	reg := NewRegistry()
	host := NewHost(reg, CategoryOverlay)

	host.Close()
	host.Close()
}

func TestHostSkipsRootUnregisteredMidPass(t *testing.T) {
	reg := NewRegistry()
	sink := newCollectSink()
	host := NewHost(reg, CategoryOverlay, WithSink(sink.sink))
	defer host.Close()

	if err := reg.Register("gone", CategoryOverlay, textContent("g")); err != nil {
		t.Fatalf("Register: %v", err)
	}
	reg.Unregister("gone")

	host.RenderOnce()

	if _, ok := sink.last("gone"); ok {
		t.Error("unregistered root was rendered")
	}
}
