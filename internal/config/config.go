package config

import (
	"encoding/json"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/portico-ui/portico/internal/errors"
	"github.com/portico-ui/portico/pkg/portal"
	"github.com/portico-ui/portico/pkg/server"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "portico.json"

	// DefaultAddress is the default server listen address.
	DefaultAddress = ":8080"
)

// Config represents the complete portico.json configuration.
type Config struct {
	// Name is the project name.
	Name string `json:"name,omitempty"`

	// Version is the project version.
	Version string `json:"version,omitempty"`

	// Server contains HTTP/WebSocket server configuration.
	Server ServerConfig `json:"server,omitempty"`

	// Portal contains portal engine configuration.
	Portal PortalConfig `json:"portal,omitempty"`

	// Log contains logging configuration.
	Log LogConfig `json:"log,omitempty"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// ServerConfig contains server settings.
type ServerConfig struct {
	// Address is the listen address (e.g. ":8080").
	Address string `json:"address,omitempty"`

	// MaxSessions is the maximum number of concurrent sessions.
	// 0 means no limit.
	MaxSessions int `json:"maxSessions,omitempty"`

	// ShutdownTimeout is the graceful shutdown window (e.g. "30s").
	ShutdownTimeout string `json:"shutdownTimeout,omitempty"`

	// HeartbeatInterval is the WebSocket ping interval (e.g. "30s").
	HeartbeatInterval string `json:"heartbeatInterval,omitempty"`
}

// PortalConfig contains portal engine settings.
type PortalConfig struct {
	// RenderWait bounds how long a root portal waits for its first render
	// signal before proceeding (e.g. "100ms").
	RenderWait string `json:"renderWait,omitempty"`

	// AutoTrack keeps anchored portals following their anchor.
	AutoTrack *bool `json:"autoTrack,omitempty"`

	// Pretty enables indented HTML output.
	Pretty bool `json:"pretty,omitempty"`

	// SendQueue is the per-session outbound frame buffer size.
	SendQueue int `json:"sendQueue,omitempty"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	// Level is the minimum log level: debug, info, warn or error.
	Level string `json:"level,omitempty"`

	// Format is "text" or "json".
	Format string `json:"format,omitempty"`
}

// New creates a Config with default values.
func New() *Config {
	return &Config{
		Version: "0.1.0",
		Server: ServerConfig{
			Address:           DefaultAddress,
			ShutdownTimeout:   "30s",
			HeartbeatInterval: "30s",
		},
		Portal: PortalConfig{
			RenderWait: "100ms",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads configuration from the specified directory. It looks for
// portico.json in the directory.
func Load(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, ConfigFileName))
}

// LoadFile reads configuration from the specified file path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("E100").
				WithDetail("No portico.json found in " + filepath.Dir(path)).
				WithSuggestion("Run 'portico init' to create one")
		}
		return nil, errors.New("E101").Wrap(err)
	}

	cfg := New()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.New("E101").
			WithDetail("Failed to parse portico.json: " + err.Error()).
			WithSuggestion("Check that portico.json is valid JSON")
	}

	cfg.configPath = path
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration to the file it was loaded from.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.Newf(errors.CategoryConfig, "no config path set")
	}
	return c.SaveTo(c.configPath)
}

// SaveTo writes the configuration to the specified path.
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.New("E103").Wrap(err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New("E103").Wrap(err)
	}

	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the directory containing the config file.
func (c *Config) Dir() string {
	if c.configPath == "" {
		return ""
	}
	return filepath.Dir(c.configPath)
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	if c.Server.Address == "" {
		c.Server.Address = DefaultAddress
	}
	if c.Server.ShutdownTimeout == "" {
		c.Server.ShutdownTimeout = "30s"
	}
	if c.Server.HeartbeatInterval == "" {
		c.Server.HeartbeatInterval = "30s"
	}
	if c.Portal.RenderWait == "" {
		c.Portal.RenderWait = "100ms"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if _, _, err := net.SplitHostPort(c.Server.Address); err != nil {
		return errors.New("E201").
			WithDetail("server.address is not a valid host:port: " + c.Server.Address).
			WithSuggestion(`Use host:port syntax, e.g. ":8080" or "localhost:3000"`)
	}
	for field, value := range map[string]string{
		"server.shutdownTimeout":   c.Server.ShutdownTimeout,
		"server.heartbeatInterval": c.Server.HeartbeatInterval,
		"portal.renderWait":        c.Portal.RenderWait,
	} {
		if _, err := time.ParseDuration(value); err != nil {
			return errors.New("E102").
				WithDetail(field + " is not a valid duration: " + value).
				WithSuggestion(`Use Go duration syntax, e.g. "30s" or "100ms"`)
		}
	}
	if c.Server.MaxSessions < 0 {
		return errors.New("E102").
			WithDetail("server.maxSessions must not be negative")
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return errors.New("E102").
			WithDetail("log.level must be one of debug, info, warn, error")
	}
	return nil
}

// ServerConfig converts the file configuration into the server package's
// runtime configuration. Call Validate first; invalid durations are ignored
// here.
func (c *Config) ServerConfig() *server.ServerConfig {
	sc := server.DefaultServerConfig()
	sc.Address = c.Server.Address
	sc.MaxSessions = c.Server.MaxSessions

	if d, err := time.ParseDuration(c.Server.ShutdownTimeout); err == nil {
		sc.ShutdownTimeout = d
	}
	if d, err := time.ParseDuration(c.Server.HeartbeatInterval); err == nil {
		sc.SessionConfig.HeartbeatInterval = d
	}
	if c.Portal.SendQueue > 0 {
		sc.SessionConfig.MaxSendQueue = c.Portal.SendQueue
	}
	sc.SessionConfig.Pretty = c.Portal.Pretty

	pc := portal.DefaultClientConfig()
	if d, err := time.ParseDuration(c.Portal.RenderWait); err == nil {
		pc.RenderWait = d
	}
	if c.Portal.AutoTrack != nil {
		pc.AutoTrack = *c.Portal.AutoTrack
	}
	sc.SessionConfig.Portal = pc

	return sc
}
