package rover

import (
	"context"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/sekia-ai/rover/pkg/protocol"
)

// fakeRobot records calls in order and returns canned replies.
type fakeRobot struct {
	mu        sync.Mutex
	calls     []protocol.RobotCommand
	drive     Reply
	telemetry Reply
}

func (f *fakeRobot) Send(_ context.Context, cmd protocol.RobotCommand) Reply {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, cmd)
	if cmd.Tag == protocol.TagTelemetry {
		return f.telemetry
	}
	return f.drive
}

func (f *fakeRobot) Telemetry(ctx context.Context) Reply {
	return f.Send(ctx, protocol.TelemetryRequest())
}

func newFake() *fakeRobot {
	return &fakeRobot{drive: Ok("OK"), telemetry: Ok("IMU:0,0,0")}
}

func testConfig() Config {
	return Config{MaxSpeed: 1.0, StopSendsDrive: true}
}

func TestMoveForwardEncodesSpeed(t *testing.T) {
	for _, s := range []float64{0, 0.25, -0.4, 1} {
		robot := newFake()
		c := NewController(robot, testConfig(), zerolog.Nop())

		out, err := c.MoveForward(context.Background(), s)
		if err != nil {
			t.Fatalf("MoveForward(%v): %v", s, err)
		}
		if len(robot.calls) != 2 {
			t.Fatalf("calls = %d, want 2", len(robot.calls))
		}
		if robot.calls[0] != protocol.Drive(s, s) {
			t.Errorf("drive = %+v, want L=R=%v", robot.calls[0], s)
		}
		if robot.calls[1] != protocol.TelemetryRequest() {
			t.Errorf("second call = %+v, want telemetry", robot.calls[1])
		}
		if out.Tool != ToolMoveForward || out.CallID == "" {
			t.Errorf("outcome = %+v", out)
		}
	}
}

func TestMoveBackwardNegatesSpeed(t *testing.T) {
	robot := newFake()
	c := NewController(robot, testConfig(), zerolog.Nop())

	if _, err := c.MoveBackward(context.Background(), 0.5); err != nil {
		t.Fatalf("MoveBackward: %v", err)
	}
	if robot.calls[0] != protocol.Drive(-0.5, -0.5) {
		t.Errorf("drive = %+v, want L=R=-0.5", robot.calls[0])
	}
}

func TestTelemetryFollowsFailedDrive(t *testing.T) {
	robot := newFake()
	robot.drive = Degrade(ReasonError, "Error: connection refused")
	c := NewController(robot, testConfig(), zerolog.Nop())

	out, err := c.MoveForward(context.Background(), 0.3)
	if err != nil {
		t.Fatalf("MoveForward: %v", err)
	}
	if len(robot.calls) != 2 || robot.calls[1].Tag != protocol.TagTelemetry {
		t.Fatalf("calls = %+v, want drive then telemetry", robot.calls)
	}
	if !out.Degraded() {
		t.Error("outcome should be degraded")
	}
	text := out.Text()
	if !strings.Contains(text, "Error: connection refused") || !strings.Contains(text, "IMU:0,0,0") {
		t.Errorf("text = %q", text)
	}
}

func TestOutcomeText(t *testing.T) {
	robot := newFake()
	c := NewController(robot, testConfig(), zerolog.Nop())

	out, _ := c.MoveForward(context.Background(), 0.25)
	if want := "Drive: OK\nTelemetry: IMU:0,0,0"; out.Text() != want {
		t.Errorf("Text = %q, want %q", out.Text(), want)
	}
}

func TestStopSendsZeroDrive(t *testing.T) {
	robot := newFake()
	c := NewController(robot, testConfig(), zerolog.Nop())

	out, err := c.Stop(context.Background())
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}
	for _, cmd := range robot.calls {
		if cmd.Tag == protocol.TagDrive && !cmd.IsStop() {
			t.Errorf("stop sent non-zero drive %+v", cmd)
		}
	}
	if len(robot.calls) != 2 || !robot.calls[0].IsStop() {
		t.Errorf("calls = %+v, want stop then telemetry", robot.calls)
	}
	if out.Text() != "IMU:0,0,0" {
		t.Errorf("Text = %q, want telemetry only", out.Text())
	}
}

func TestStopTelemetryOnly(t *testing.T) {
	robot := newFake()
	cfg := testConfig()
	cfg.StopSendsDrive = false
	c := NewController(robot, cfg, zerolog.Nop())

	out, _ := c.Stop(context.Background())
	if len(robot.calls) != 1 || robot.calls[0].Tag != protocol.TagTelemetry {
		t.Errorf("calls = %+v, want telemetry only", robot.calls)
	}
	if out.Drive != nil || out.Command != nil {
		t.Errorf("outcome = %+v, want no drive", out)
	}
	if out.Text() != "IMU:0,0,0" {
		t.Errorf("Text = %q", out.Text())
	}
}

func TestValidateSpeed(t *testing.T) {
	c := NewController(newFake(), testConfig(), zerolog.Nop())

	tests := []struct {
		speed float64
		want  error
	}{
		{0.5, nil},
		{-1, nil},
		{1.5, ErrSpeedOutOfRange},
		{-2, ErrSpeedOutOfRange},
		{math.NaN(), ErrInvalidSpeed},
		{math.Inf(1), ErrInvalidSpeed},
	}
	for _, tt := range tests {
		err := c.ValidateSpeed(tt.speed)
		if tt.want == nil && err != nil {
			t.Errorf("ValidateSpeed(%v) = %v, want nil", tt.speed, err)
		}
		if tt.want != nil && !errors.Is(err, tt.want) {
			t.Errorf("ValidateSpeed(%v) = %v, want %v", tt.speed, err, tt.want)
		}
	}
}

func TestInvalidSpeedNeverReachesRobot(t *testing.T) {
	robot := newFake()
	c := NewController(robot, testConfig(), zerolog.Nop())

	if _, err := c.MoveBackward(context.Background(), math.Inf(-1)); err == nil {
		t.Fatal("expected error")
	}
	if len(robot.calls) != 0 {
		t.Errorf("robot saw %d calls, want 0", len(robot.calls))
	}
}

func TestCallDispatch(t *testing.T) {
	robot := newFake()
	c := NewController(robot, testConfig(), zerolog.Nop())

	out, err := c.Call(context.Background(), ToolMoveBackward, 0.2)
	if err != nil || out.Tool != ToolMoveBackward {
		t.Fatalf("Call = %+v, %v", out, err)
	}
	if _, err := c.Call(context.Background(), "spin", 1); !errors.Is(err, ErrUnknownTool) {
		t.Errorf("err = %v, want ErrUnknownTool", err)
	}
}

func TestDefaultMaxSpeed(t *testing.T) {
	c := NewController(newFake(), Config{}, zerolog.Nop())
	if c.MaxSpeed() != DefaultMaxSpeed {
		t.Errorf("MaxSpeed = %v, want %v", c.MaxSpeed(), DefaultMaxSpeed)
	}
}

// TestForwardAgainstStub runs the whole path against an HTTP stub.
func TestForwardAgainstStub(t *testing.T) {
	stub := &stubRobot{answer: func(cmd string) string {
		if cmd == `{"T":126}` {
			return "IMU:0,0,0"
		}
		return "OK"
	}}
	srv := httptest.NewServer(stub)
	defer srv.Close()

	cfg := Config{URL: srv.URL, Path: "/js", Timeout: time.Second, MaxSpeed: 1}
	c := NewController(NewClient(cfg, zerolog.Nop()), cfg, zerolog.Nop())

	out, err := c.MoveForward(context.Background(), 0.25)
	if err != nil {
		t.Fatalf("MoveForward: %v", err)
	}
	seen := stub.seen()
	want := []string{`{"T":1,"L":0.25,"R":0.25}`, `{"T":126}`}
	if len(seen) != 2 || seen[0] != want[0] || seen[1] != want[1] {
		t.Errorf("commands = %v, want %v", seen, want)
	}
	if !strings.Contains(out.Text(), "OK") || !strings.Contains(out.Text(), "IMU:0,0,0") {
		t.Errorf("Text = %q", out.Text())
	}
}

func TestBackwardAgainstUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	cfg := Config{URL: url, Timeout: time.Second, MaxSpeed: 1}
	c := NewController(NewClient(cfg, zerolog.Nop()), cfg, zerolog.Nop())

	out, err := c.MoveBackward(context.Background(), 0.5)
	if err != nil {
		t.Fatalf("MoveBackward: %v", err)
	}
	if !out.Drive.Degraded || !out.Telemetry.Degraded {
		t.Fatalf("outcome = %+v, want both replies degraded", out)
	}
	text := out.Text()
	if !strings.Contains(text, "Drive: "+out.Drive.Text) || !strings.Contains(text, "Telemetry: "+out.Telemetry.Text) {
		t.Errorf("Text = %q", text)
	}
}
