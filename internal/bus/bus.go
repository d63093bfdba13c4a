// Package bus publishes tool outcomes to NATS and accepts signed tool
// commands from it.
package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/sekia-ai/rover/internal/natsserver"
	"github.com/sekia-ai/rover/internal/rover"
	"github.com/sekia-ai/rover/pkg/protocol"
)

// Source identifies this bridge in published events.
const Source = "rover-mcp"

// commandTimeout bounds one bus-initiated tool call.
const commandTimeout = 30 * time.Second

// Config holds NATS settings from the [nats] section.
type Config struct {
	URL      string `mapstructure:"url"`
	Token    string `mapstructure:"token"`
	Embedded bool   `mapstructure:"embedded"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
}

// Enabled reports whether any bus is configured.
func (c Config) Enabled() bool {
	return c.Embedded || c.URL != ""
}

// Dispatcher runs a tool by name. Implemented by rover.Controller.
type Dispatcher interface {
	Call(ctx context.Context, tool string, speed float64) (rover.Outcome, error)
}

// Bus is a NATS connection used for rover events and commands.
type Bus struct {
	nc       *nats.Conn
	embedded *natsserver.Server
	secret   string
	logger   zerolog.Logger
	subs     []*nats.Subscription
}

// Connect dials the configured NATS server, or starts an embedded one.
func Connect(cfg Config, secret string, logger zerolog.Logger) (*Bus, error) {
	logger = logger.With().Str("component", "bus").Logger()

	if cfg.Embedded {
		ns, err := natsserver.New(natsserver.Config{
			Host:  cfg.Host,
			Port:  cfg.Port,
			Token: cfg.Token,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("start embedded nats: %w", err)
		}
		b := New(ns.Conn(), secret, logger)
		b.embedded = ns
		return b, nil
	}

	opts := []nats.Option{
		nats.Name(Source),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn().Err(err).Msg("NATS disconnected")
			}
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			logger.Info().Msg("NATS reconnected")
		}),
	}
	if cfg.Token != "" {
		opts = append(opts, nats.Token(cfg.Token))
	}
	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return New(nc, secret, logger), nil
}

// New wraps an existing connection.
func New(nc *nats.Conn, secret string, logger zerolog.Logger) *Bus {
	return &Bus{nc: nc, secret: secret, logger: logger}
}

// Conn returns the underlying NATS connection.
func (b *Bus) Conn() *nats.Conn { return b.nc }

// ClientURL returns the URL other processes can use to reach the bus.
func (b *Bus) ClientURL() string { return b.nc.ConnectedUrl() }

// PublishOutcome publishes out on rover.events.<tool>.
func (b *Bus) PublishOutcome(out rover.Outcome) error {
	ev := protocol.NewEvent("rover."+out.Tool, Source, out.Payload())
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := b.nc.Publish(protocol.SubjectEvents(out.Tool), data); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	return b.nc.Flush()
}

// ServeCommands subscribes to rover.commands and runs each verified command
// through d. Requests with a reply subject get the flattened result back.
func (b *Bus) ServeCommands(d Dispatcher) error {
	sub, err := b.nc.Subscribe(protocol.SubjectCommands, func(msg *nats.Msg) {
		b.handleCommand(d, msg)
	})
	if err != nil {
		return fmt.Errorf("subscribe commands: %w", err)
	}
	b.subs = append(b.subs, sub)
	b.logger.Info().Str("subject", protocol.SubjectCommands).Msg("accepting bus commands")
	return nil
}

func (b *Bus) handleCommand(d Dispatcher, msg *nats.Msg) {
	var cmd protocol.Command
	if err := json.Unmarshal(msg.Data, &cmd); err != nil {
		b.logger.Error().Err(err).Msg("unmarshal command")
		b.respond(msg, "invalid command: "+err.Error())
		return
	}

	if !protocol.VerifyCommand(&cmd, b.secret) {
		b.logger.Warn().
			Str("command", cmd.Command).
			Str("source", cmd.Source).
			Msg("rejected command: invalid or missing signature")
		b.respond(msg, "rejected: invalid or missing signature")
		return
	}

	speed, err := speedArg(cmd.Command, cmd.Payload)
	if err != nil {
		b.logger.Warn().Err(err).Str("command", cmd.Command).Msg("bad command payload")
		b.respond(msg, err.Error())
		return
	}

	b.logger.Info().
		Str("command", cmd.Command).
		Str("source", cmd.Source).
		Msg("received command")

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	out, err := d.Call(ctx, cmd.Command, speed)
	if err != nil {
		b.logger.Error().Err(err).Str("command", cmd.Command).Msg("command failed")
		b.respond(msg, err.Error())
		return
	}
	if err := b.PublishOutcome(out); err != nil {
		b.logger.Error().Err(err).Msg("publish outcome")
	}
	b.respond(msg, out.Text())
}

// speedArg extracts the numeric speed for motion tools.
func speedArg(tool string, payload map[string]any) (float64, error) {
	if tool == rover.ToolStop {
		return 0, nil
	}
	raw, ok := payload["speed"]
	if !ok {
		return 0, fmt.Errorf("missing required field: speed")
	}
	switch v := raw.(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	case json.Number:
		return v.Float64()
	default:
		return 0, fmt.Errorf("speed must be a number")
	}
}

func (b *Bus) respond(msg *nats.Msg, text string) {
	if msg.Reply == "" {
		return
	}
	if err := msg.Respond([]byte(text)); err != nil {
		b.logger.Error().Err(err).Msg("respond to command")
	}
}

// Close unsubscribes, drains, and stops the embedded broker if there is one.
func (b *Bus) Close() {
	for _, sub := range b.subs {
		sub.Unsubscribe()
	}
	if b.embedded != nil {
		b.embedded.Shutdown()
		return
	}
	b.nc.Drain()
}
