package portal

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/portico-ui/portico/pkg/render"
)

// Engine bundles one Registry with one Host per category. It is the
// constructed-once-per-session composition root: create it, Start it, hand
// its Registry to clients, Stop it when the session ends.
type Engine struct {
	reg    *Registry
	hosts  map[Category]*Host
	logger *slog.Logger

	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started atomic.Bool
	stopped atomic.Bool
}

// EngineOption configures an Engine.
type EngineOption func(*engineConfig)

type engineConfig struct {
	logger   *slog.Logger
	metrics  *Metrics
	sink     RenderSink
	renderer *render.Renderer
}

// WithEngineLogger sets the logger shared by the registry and hosts.
func WithEngineLogger(logger *slog.Logger) EngineOption {
	return func(c *engineConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithEngineMetrics attaches a metrics collector.
func WithEngineMetrics(m *Metrics) EngineOption {
	return func(c *engineConfig) {
		c.metrics = m
	}
}

// WithEngineSink sets the render output destination for all hosts.
func WithEngineSink(sink RenderSink) EngineOption {
	return func(c *engineConfig) {
		c.sink = sink
	}
}

// WithEngineRenderer sets the renderer shared by all hosts.
func WithEngineRenderer(r *render.Renderer) EngineOption {
	return func(c *engineConfig) {
		c.renderer = r
	}
}

// NewEngine creates a Registry and one Host per category.
func NewEngine(opts ...EngineOption) *Engine {
	cfg := engineConfig{
		logger:   slog.Default(),
		renderer: render.New(render.Config{}),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	reg := NewRegistry(WithLogger(cfg.logger), WithMetrics(cfg.metrics))

	hosts := make(map[Category]*Host, len(Categories()))
	for _, cat := range Categories() {
		hosts[cat] = NewHost(reg, cat,
			WithHostLogger(cfg.logger),
			WithHostRenderer(cfg.renderer),
			WithSink(cfg.sink),
		)
	}

	return &Engine{
		reg:    reg,
		hosts:  hosts,
		logger: cfg.logger,
	}
}

// Registry returns the engine's registry.
func (e *Engine) Registry() *Registry {
	return e.reg
}

// Host returns the host for a category.
func (e *Engine) Host(category Category) *Host {
	return e.hosts[category]
}

// Start launches one goroutine per category host. Calling Start more than
// once is a no-op.
func (e *Engine) Start(ctx context.Context) {
	if e.started.Swap(true) {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	e.cancel = cancel

	for _, h := range e.hosts {
		e.wg.Add(1)
		go func(h *Host) {
			defer e.wg.Done()
			h.Run(ctx)
		}(h)
	}
	e.logger.Debug("portal engine started", "hosts", len(e.hosts))
}

// Stop shuts the hosts down, waits for their goroutines, and clears every
// scope. Safe to call more than once and without a prior Start.
func (e *Engine) Stop() {
	if e.stopped.Swap(true) {
		return
	}
	if e.cancel != nil {
		e.cancel()
	}
	for _, h := range e.hosts {
		h.Close()
	}
	e.wg.Wait()
	e.reg.Clear()
	e.logger.Debug("portal engine stopped")
}
