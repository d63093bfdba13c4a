package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

// Wire tags understood by the rover's onboard controller.
const (
	TagDrive     = 1
	TagTelemetry = 126
)

var (
	// ErrNonFinite is returned when a drive speed is NaN or infinite.
	ErrNonFinite = errors.New("speed must be a finite number")
	// ErrUnknownCommand is returned when decoding a tag this package does not model.
	ErrUnknownCommand = errors.New("unknown robot command")
)

// RobotCommand is one wire command for the rover. Tag selects the shape;
// Left and Right are only encoded for TagDrive.
type RobotCommand struct {
	Tag   int
	Left  float64
	Right float64
}

// driveWire and telemetryWire fix the field order and names on the wire.
type driveWire struct {
	T int     `json:"T"`
	L float64 `json:"L"`
	R float64 `json:"R"`
}

type telemetryWire struct {
	T int `json:"T"`
}

// Drive sets independent left/right wheel speeds.
func Drive(left, right float64) RobotCommand {
	return RobotCommand{Tag: TagDrive, Left: left, Right: right}
}

// Stop is a drive command with both speeds zero.
func Stop() RobotCommand {
	return Drive(0, 0)
}

// TelemetryRequest asks the rover to report its IMU readings.
func TelemetryRequest() RobotCommand {
	return RobotCommand{Tag: TagTelemetry}
}

// IsStop reports whether c is a drive command that halts both wheels.
func (c RobotCommand) IsStop() bool {
	return c.Tag == TagDrive && c.Left == 0 && c.Right == 0
}

// Encode returns the compact JSON form of the command.
func (c RobotCommand) Encode() (string, error) {
	var v any
	switch c.Tag {
	case TagDrive:
		if !finite(c.Left) || !finite(c.Right) {
			return "", ErrNonFinite
		}
		v = driveWire{T: c.Tag, L: c.Left, R: c.Right}
	case TagTelemetry:
		v = telemetryWire{T: c.Tag}
	default:
		return "", fmt.Errorf("%w: T=%d", ErrUnknownCommand, c.Tag)
	}
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// String returns the encoded form, or a placeholder if encoding fails.
func (c RobotCommand) String() string {
	s, err := c.Encode()
	if err != nil {
		return fmt.Sprintf("<invalid T=%d>", c.Tag)
	}
	return s
}

// DecodeRobotCommand parses the JSON form produced by Encode.
func DecodeRobotCommand(s string) (RobotCommand, error) {
	var raw struct {
		T *int     `json:"T"`
		L *float64 `json:"L"`
		R *float64 `json:"R"`
	}
	if err := json.Unmarshal([]byte(s), &raw); err != nil {
		return RobotCommand{}, fmt.Errorf("decode robot command: %w", err)
	}
	if raw.T == nil {
		return RobotCommand{}, fmt.Errorf("%w: missing T", ErrUnknownCommand)
	}
	switch *raw.T {
	case TagDrive:
		if raw.L == nil || raw.R == nil {
			return RobotCommand{}, fmt.Errorf("drive command requires L and R")
		}
		return Drive(*raw.L, *raw.R), nil
	case TagTelemetry:
		return TelemetryRequest(), nil
	default:
		return RobotCommand{}, fmt.Errorf("%w: T=%d", ErrUnknownCommand, *raw.T)
	}
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
