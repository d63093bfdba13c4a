package mcp

import (
	"context"
	"fmt"
	"log"
	"os"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"

	"github.com/sekia-ai/rover/internal/bus"
	"github.com/sekia-ai/rover/internal/rover"
)

const (
	serverName    = "rover"
	serverVersion = "0.1.0"

	instructions = "This server drives a two-wheeled rover. move_forward and move_backward " +
		"set both wheel speeds and report the rover's reply followed by its IMU telemetry; " +
		"stop halts the wheels and reports telemetry. Robot faults are reported as text, " +
		"not as errors."
)

// Publisher receives every tool outcome. Implemented by *bus.Bus.
type Publisher interface {
	PublishOutcome(out rover.Outcome) error
}

// MCPServer exposes rover tools to AI assistants via MCP.
type MCPServer struct {
	cfg        Config
	robot      rover.Robot
	controller *rover.Controller
	publisher  Publisher
	logger     zerolog.Logger
}

// New creates an MCPServer backed by the robot endpoint in cfg.
// Call Run() to start serving on stdio.
func New(cfg Config, logger zerolog.Logger) *MCPServer {
	client := rover.NewClient(cfg.Robot, logger)
	return NewWithRobot(cfg, client, logger)
}

// NewWithRobot creates an MCPServer that talks to robot instead of an HTTP client.
func NewWithRobot(cfg Config, robot rover.Robot, logger zerolog.Logger) *MCPServer {
	return &MCPServer{
		cfg:        cfg,
		robot:      robot,
		controller: rover.NewController(robot, cfg.Robot, logger),
		logger:     logger.With().Str("component", "mcp").Logger(),
	}
}

// SetPublisher sets where tool outcomes are published. Must be called before Run().
func (s *MCPServer) SetPublisher(p Publisher) {
	s.publisher = p
}

// Run connects the optional event bus, registers the tools and serves on stdio.
// It blocks until stdin is closed or the context is cancelled.
func (s *MCPServer) Run(ctx context.Context) error {
	defer s.connectBus()()

	stdio := mcpserver.NewStdioServer(s.NewServer())
	stdio.SetErrorLogger(log.New(os.Stderr, "", log.LstdFlags))

	ev := s.logger.Info()
	if str, ok := s.robot.(fmt.Stringer); ok {
		ev = ev.Stringer("robot", str)
	}
	ev.Float64("max_speed", s.controller.MaxSpeed()).
		Bool("bus", s.publisher != nil).
		Msg("MCP server starting on stdio")
	return stdio.Listen(ctx, os.Stdin, os.Stdout)
}

// connectBus attaches the configured event bus as publisher and command
// source. The tools keep serving without it when the broker is unreachable.
// The returned func closes the bus.
func (s *MCPServer) connectBus() func() {
	if s.publisher != nil || !s.cfg.NATS.Enabled() {
		return func() {}
	}
	b, err := bus.Connect(s.cfg.NATS, s.cfg.Security.CommandSecret, s.logger)
	if err != nil {
		s.logger.Warn().Err(err).Msg("event bus unavailable, serving tools without it")
		return func() {}
	}
	if err := b.ServeCommands(s.controller); err != nil {
		s.logger.Warn().Err(err).Msg("bus command subscription failed, serving tools without it")
		b.Close()
		return func() {}
	}
	s.publisher = b
	s.logger.Info().Str("nats", b.ClientURL()).Msg("event bus connected")
	return b.Close
}

// NewServer builds the mcp-go server with the rover tools registered.
func (s *MCPServer) NewServer() *mcpserver.MCPServer {
	srv := mcpserver.NewMCPServer(
		serverName,
		serverVersion,
		mcpserver.WithToolCapabilities(false),
		mcpserver.WithInstructions(instructions),
		mcpserver.WithRecovery(),
	)
	s.registerTools(srv)
	return srv
}

func (s *MCPServer) registerTools(srv *mcpserver.MCPServer) {
	limit := s.controller.MaxSpeed()

	srv.AddTool(
		mcplib.NewTool(rover.ToolMoveForward,
			mcplib.WithDescription("Drive the rover forward: both wheels at the given speed, then report IMU telemetry"),
			mcplib.WithNumber("speed", mcplib.Required(),
				mcplib.Description("Wheel speed; positive is forward"),
				mcplib.Min(-limit), mcplib.Max(limit)),
			mcplib.WithDestructiveHintAnnotation(true),
			mcplib.WithOpenWorldHintAnnotation(true),
		),
		s.handleMoveForward,
	)

	srv.AddTool(
		mcplib.NewTool(rover.ToolMoveBackward,
			mcplib.WithDescription("Drive the rover backward: both wheels at the negated speed, then report IMU telemetry"),
			mcplib.WithNumber("speed", mcplib.Required(),
				mcplib.Description("Wheel speed magnitude; the rover moves at -speed"),
				mcplib.Min(-limit), mcplib.Max(limit)),
			mcplib.WithDestructiveHintAnnotation(true),
			mcplib.WithOpenWorldHintAnnotation(true),
		),
		s.handleMoveBackward,
	)

	srv.AddTool(
		mcplib.NewTool(rover.ToolStop,
			mcplib.WithDescription("Stop the rover and report IMU telemetry"),
			mcplib.WithIdempotentHintAnnotation(true),
			mcplib.WithDestructiveHintAnnotation(false),
			mcplib.WithOpenWorldHintAnnotation(true),
		),
		s.handleStop,
	)
}
