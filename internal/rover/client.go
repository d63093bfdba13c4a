package rover

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/sekia-ai/rover/pkg/protocol"
)

// Robot is what the Controller needs from a transport.
// Implemented by Client; tests can provide a fake.
type Robot interface {
	Send(ctx context.Context, cmd protocol.RobotCommand) Reply
	Telemetry(ctx context.Context) Reply
}

// Client sends wire commands to the rover's HTTP endpoint.
type Client struct {
	endpoint string
	timeout  time.Duration
	http     *http.Client
	logger   zerolog.Logger
}

// NewClient creates a Client for the endpoint in cfg.
func NewClient(cfg Config, logger zerolog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	path := cfg.Path
	if path == "" {
		path = DefaultPath
	}
	return &Client{
		endpoint: strings.TrimRight(cfg.URL, "/") + "/" + strings.TrimLeft(path, "/"),
		timeout:  timeout,
		http:     &http.Client{Timeout: timeout},
		logger:   logger.With().Str("component", "rover").Logger(),
	}
}

// Endpoint returns the URL commands are sent to, without the query.
func (c *Client) Endpoint() string { return c.endpoint }

// String describes the client for logs.
func (c *Client) String() string {
	return fmt.Sprintf("rover(%s, timeout=%s)", c.endpoint, c.timeout)
}

// CommandURL returns the full request URL for an encoded command.
func (c *Client) CommandURL(encoded string) string {
	return c.endpoint + "?" + url.Values{"json": {encoded}}.Encode()
}

// Send encodes cmd, issues a single GET and returns the robot's reply.
// It never fails: faults come back as degraded replies.
func (c *Client) Send(ctx context.Context, cmd protocol.RobotCommand) Reply {
	encoded, err := cmd.Encode()
	if err != nil {
		c.logger.Warn().Err(err).Int("tag", cmd.Tag).Msg("command not encodable")
		return Degrade(ReasonError, sentinelErrorPrefix+err.Error())
	}
	return c.SendRaw(ctx, encoded)
}

// SendRaw sends an already encoded command.
func (c *Client) SendRaw(ctx context.Context, encoded string) Reply {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	reply := c.roundTrip(ctx, encoded)
	reply.Latency = time.Since(start)

	ev := c.logger.Debug()
	if reply.Degraded {
		ev = c.logger.Warn()
	}
	ev.Str("command", encoded).
		Int("status", reply.Status).
		Dur("latency", reply.Latency).
		Str("reason", string(reply.Reason)).
		Msg("robot round trip")
	return reply
}

// Telemetry asks the robot for its IMU report.
func (c *Client) Telemetry(ctx context.Context) Reply {
	return c.Send(ctx, protocol.TelemetryRequest())
}

func (c *Client) roundTrip(ctx context.Context, encoded string) Reply {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.CommandURL(encoded), nil)
	if err != nil {
		return Degrade(ReasonError, sentinelErrorPrefix+err.Error())
	}

	resp, err := c.http.Do(req) // #nosec G107 -- URL is the configured robot endpoint
	if err != nil {
		if isTimeout(ctx, err) {
			return Degrade(ReasonTimeout, SentinelNotResponding)
		}
		return Degrade(ReasonError, sentinelErrorPrefix+err.Error())
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil || len(body) == 0 {
		r := Degrade(ReasonEmpty, SentinelNoResponse)
		r.Status = resp.StatusCode
		return r
	}

	r := Ok(string(body))
	r.Status = resp.StatusCode
	return r
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	if errors.Is(err, context.Canceled) {
		return true
	}
	var ne interface{ Timeout() bool }
	return errors.As(err, &ne) && ne.Timeout()
}
