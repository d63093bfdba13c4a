package cmd

import (
	"fmt"

	"github.com/nats-io/nats.go"

	mcpserver "github.com/sekia-ai/rover/internal/mcp"
)

var natsURL string

// connectBus dials the bus rover-mcp publishes to. --nats wins over the
// config; an embedded broker is reached on its configured host and port.
func connectBus(cfg mcpserver.Config) (*nats.Conn, error) {
	url := natsURL
	if url == "" {
		url = cfg.NATS.URL
	}
	if url == "" && cfg.NATS.Embedded && cfg.NATS.Host != "" {
		url = fmt.Sprintf("nats://%s:%d", cfg.NATS.Host, cfg.NATS.Port)
	}
	if url == "" {
		return nil, fmt.Errorf("no NATS server configured (set nats.url or --nats)")
	}

	var opts []nats.Option
	opts = append(opts, nats.Name("roverctl"))
	if cfg.NATS.Token != "" {
		opts = append(opts, nats.Token(cfg.NATS.Token))
	}
	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("cannot connect to NATS at %s: %w", url, err)
	}
	return nc, nil
}
