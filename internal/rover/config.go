package rover

import "time"

// Config holds robot endpoint settings from the [robot] section of rover-mcp.toml.
type Config struct {
	URL            string        `mapstructure:"url"`
	Path           string        `mapstructure:"path"`
	Timeout        time.Duration `mapstructure:"timeout"`
	MaxSpeed       float64       `mapstructure:"max_speed"`
	StopSendsDrive bool          `mapstructure:"stop_sends_drive"`
}

// Defaults for a rover running its own access point.
const (
	DefaultURL      = "http://192.168.4.1"
	DefaultPath     = "/js"
	DefaultTimeout  = 5 * time.Second
	DefaultMaxSpeed = 1.0
)
