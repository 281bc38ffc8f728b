// Package ltcfg loads the console configuration file. Command line flags
// override individual fields after loading.
package ltcfg

import (
	"net/url"
	"os"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"
)

// Nodes holds the line source URL of each node. An empty source leaves the
// node's tab idle.
type Nodes struct {
	Remote string `yaml:"remote"`
	Relay  string `yaml:"relay"`
	Drone  string `yaml:"drone"`
}

// APIConfig configures the read-only HTTP API
type APIConfig struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen"`
}

// LogConfig configures the console's own logging
type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"maxSizeMB"`
	MaxBackups int    `yaml:"maxBackups"`
	MaxAgeDays int    `yaml:"maxAgeDays"`
	Compress   bool   `yaml:"compress"`
}

// Config is the complete console configuration
type Config struct {
	Nodes       Nodes         `yaml:"nodes"`
	Sink        string        `yaml:"sink"`
	LogCapacity int           `yaml:"logCapacity"`
	HistorySize int           `yaml:"historySize"`
	SendTimeout time.Duration `yaml:"sendTimeout"`
	Theme       string        `yaml:"theme"`
	API         APIConfig     `yaml:"api"`
	Log         LogConfig     `yaml:"log"`
}

// Themes accepted by the console
const (
	ThemeAuto  = "auto"
	ThemeDark  = "dark"
	ThemeLight = "light"
)

// Default returns the configuration used when no file is given
func Default() *Config {
	return &Config{
		Sink:        "log",
		LogCapacity: 1000,
		HistorySize: 200,
		SendTimeout: 2 * time.Second,
		Theme:       ThemeAuto,
		API: APIConfig{
			Listen: "127.0.0.1:8089",
		},
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}

// Load reads path over the defaults. Fields missing from the file keep their
// default values.
func Load(path string) (*Config, error) {
	cfg := Default()
	dat, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading config %s", path)
	}
	if err := yaml.UnmarshalStrict(dat, cfg); err != nil {
		return nil, errors.Wrapf(err, "parsing config %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrapf(err, "invalid config %s", path)
	}
	return cfg, nil
}

// Validate checks field ranges
func (c *Config) Validate() error {
	if c.LogCapacity <= 0 {
		return errors.Errorf("logCapacity must be positive, got %d", c.LogCapacity)
	}
	if c.HistorySize <= 0 {
		return errors.Errorf("historySize must be positive, got %d", c.HistorySize)
	}
	if c.SendTimeout <= 0 {
		return errors.Errorf("sendTimeout must be positive, got %s", c.SendTimeout)
	}
	switch c.Theme {
	case ThemeAuto, ThemeDark, ThemeLight:
	default:
		return errors.Errorf("theme must be %s, %s or %s, got %q", ThemeAuto, ThemeDark, ThemeLight, c.Theme)
	}
	if c.Sink == "" {
		return errors.New("sink must be set; use \"log\" for a dry run")
	}
	if err := c.checkSerialDevices(); err != nil {
		return err
	}
	if c.API.Enabled && c.API.Listen == "" {
		return errors.New("api.listen must be set when the API is enabled")
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return errors.Wrap(err, "log.level")
	}
	if c.Log.MaxSizeMB < 0 || c.Log.MaxBackups < 0 || c.Log.MaxAgeDays < 0 {
		return errors.New("log rotation limits must not be negative")
	}
	return nil
}

// checkSerialDevices rejects a serial device named by more than one node or
// by a node and the sink. Ports are opened for exclusive access.
func (c *Config) checkSerialDevices() error {
	users := make(map[string]string)
	for _, use := range []struct{ name, raw string }{
		{"nodes.remote", c.Nodes.Remote},
		{"nodes.relay", c.Nodes.Relay},
		{"nodes.drone", c.Nodes.Drone},
		{"sink", c.Sink},
	} {
		dev := serialDevice(use.raw)
		if dev == "" {
			continue
		}
		if other, ok := users[dev]; ok {
			return errors.Errorf("%s and %s both open serial device %s", other, use.name, dev)
		}
		users[dev] = use.name
	}
	return nil
}

func serialDevice(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme != "serial" {
		return ""
	}
	if u.Path != "" {
		return u.Path
	}
	return u.Opaque
}
