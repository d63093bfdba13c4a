package rover

import (
	"context"
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/sekia-ai/rover/pkg/protocol"
)

// Tool names exposed to callers.
const (
	ToolMoveForward  = "move_forward"
	ToolMoveBackward = "move_backward"
	ToolStop         = "stop"
)

// Outcome is the structured result of one tool call. Drive is nil when no
// drive command was sent.
type Outcome struct {
	CallID    string
	Tool      string
	Command   *protocol.RobotCommand
	Drive     *Reply
	Telemetry Reply
}

// Degraded reports whether any reply in the outcome is a sentinel.
func (o Outcome) Degraded() bool {
	return o.Telemetry.Degraded || (o.Drive != nil && o.Drive.Degraded)
}

// Text flattens the outcome for the tool caller. Motion tools report both
// replies; stop reports the telemetry reply alone.
func (o Outcome) Text() string {
	if o.Tool == ToolStop || o.Drive == nil {
		return o.Telemetry.Text
	}
	return fmt.Sprintf("Drive: %s\nTelemetry: %s", o.Drive.Text, o.Telemetry.Text)
}

// Payload renders the outcome as an event payload.
func (o Outcome) Payload() map[string]any {
	p := map[string]any{
		"call_id":   o.CallID,
		"tool":      o.Tool,
		"telemetry": o.Telemetry.Text,
		"degraded":  o.Degraded(),
	}
	if o.Command != nil {
		p["command"] = o.Command.String()
	}
	if o.Drive != nil {
		p["drive_reply"] = o.Drive.Text
	}
	return p
}

// Controller maps tool calls onto robot commands. It holds no state between
// calls and does not serialize concurrent callers.
type Controller struct {
	robot          Robot
	maxSpeed       float64
	stopSendsDrive bool
	logger         zerolog.Logger
}

// NewController creates a Controller that drives robot within cfg's limits.
func NewController(robot Robot, cfg Config, logger zerolog.Logger) *Controller {
	maxSpeed := cfg.MaxSpeed
	if maxSpeed <= 0 {
		maxSpeed = DefaultMaxSpeed
	}
	return &Controller{
		robot:          robot,
		maxSpeed:       maxSpeed,
		stopSendsDrive: cfg.StopSendsDrive,
		logger:         logger.With().Str("component", "controller").Logger(),
	}
}

// MaxSpeed returns the largest accepted speed magnitude.
func (c *Controller) MaxSpeed() float64 { return c.maxSpeed }

// ValidateSpeed rejects speeds that must not reach the robot.
func (c *Controller) ValidateSpeed(speed float64) error {
	if math.IsNaN(speed) || math.IsInf(speed, 0) {
		return fmt.Errorf("%w: got %v", ErrInvalidSpeed, speed)
	}
	if math.Abs(speed) > c.maxSpeed {
		return fmt.Errorf("%w: |%v| exceeds %v", ErrSpeedOutOfRange, speed, c.maxSpeed)
	}
	return nil
}

// MoveForward drives both wheels at speed, then reads telemetry.
func (c *Controller) MoveForward(ctx context.Context, speed float64) (Outcome, error) {
	if err := c.ValidateSpeed(speed); err != nil {
		return Outcome{}, err
	}
	return c.driveThenReport(ctx, ToolMoveForward, protocol.Drive(speed, speed)), nil
}

// MoveBackward drives both wheels at -speed, then reads telemetry.
func (c *Controller) MoveBackward(ctx context.Context, speed float64) (Outcome, error) {
	if err := c.ValidateSpeed(speed); err != nil {
		return Outcome{}, err
	}
	return c.driveThenReport(ctx, ToolMoveBackward, protocol.Drive(-speed, -speed)), nil
}

// Stop halts the wheels when configured to, then reads telemetry.
func (c *Controller) Stop(ctx context.Context) (Outcome, error) {
	if c.stopSendsDrive {
		return c.driveThenReport(ctx, ToolStop, protocol.Stop()), nil
	}
	out := Outcome{CallID: uuid.NewString(), Tool: ToolStop}
	out.Telemetry = c.robot.Telemetry(ctx)
	c.logOutcome(out)
	return out, nil
}

// Call dispatches by tool name. speed is ignored for stop.
func (c *Controller) Call(ctx context.Context, tool string, speed float64) (Outcome, error) {
	switch tool {
	case ToolMoveForward:
		return c.MoveForward(ctx, speed)
	case ToolMoveBackward:
		return c.MoveBackward(ctx, speed)
	case ToolStop:
		return c.Stop(ctx)
	default:
		return Outcome{}, fmt.Errorf("%w: %s", ErrUnknownTool, tool)
	}
}

// driveThenReport sends cmd and always follows with one telemetry request,
// whatever the drive reply was.
func (c *Controller) driveThenReport(ctx context.Context, tool string, cmd protocol.RobotCommand) Outcome {
	out := Outcome{CallID: uuid.NewString(), Tool: tool, Command: &cmd}
	drive := c.robot.Send(ctx, cmd)
	out.Drive = &drive
	out.Telemetry = c.robot.Telemetry(ctx)
	c.logOutcome(out)
	return out
}

func (c *Controller) logOutcome(out Outcome) {
	ev := c.logger.Info().
		Str("tool", out.Tool).
		Str("call_id", out.CallID).
		Bool("telemetry_degraded", out.Telemetry.Degraded)
	if out.Command != nil {
		ev = ev.Str("command", out.Command.String())
	}
	if out.Drive != nil {
		ev = ev.Bool("drive_degraded", out.Drive.Degraded)
	}
	ev.Msg("tool call completed")
}
