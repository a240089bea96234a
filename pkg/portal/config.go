package portal

import (
	"time"

	"github.com/portico-ui/portico/pkg/anchor"
)

// ClientConfig holds configuration for a portal client's open protocol.
type ClientConfig struct {
	// RenderWait bounds how long a root client waits for its render signal
	// before proceeding to best-effort positioning. The bound guarantees
	// forward progress when the category has no running host. It does not
	// scale with render cost.
	// Default: 100ms.
	RenderWait time.Duration

	// AutoTrack keeps positioning updated while the portal stays open by
	// engaging the positioner's tracking mode after the initial computation.
	// Default: true.
	AutoTrack bool

	// Position configures the placement request passed to the positioner.
	Position anchor.Options
}

// DefaultClientConfig returns a ClientConfig with sensible defaults.
func DefaultClientConfig() *ClientConfig {
	return &ClientConfig{
		RenderWait: 100 * time.Millisecond,
		AutoTrack:  true,
	}
}

// Clone returns a copy of the ClientConfig.
func (c *ClientConfig) Clone() *ClientConfig {
	if c == nil {
		return nil
	}
	clone := *c
	return &clone
}
