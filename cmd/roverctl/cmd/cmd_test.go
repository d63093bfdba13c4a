package cmd

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/sekia-ai/rover/internal/rover"
	"github.com/sekia-ai/rover/pkg/protocol"
)

func TestFormatEvent(t *testing.T) {
	ev := protocol.Event{
		Type:      "rover.move_forward",
		Timestamp: 0,
		Payload: map[string]any{
			"command":     `{"T":1,"L":0.25,"R":0.25}`,
			"drive_reply": "OK",
			"telemetry":   "Robot not responding",
			"degraded":    true,
		},
	}
	line := formatEvent(ev)
	for _, want := range []string{"rover.move_forward", `cmd={"T":1`, `drive="OK"`, "DEGRADED"} {
		if !strings.Contains(line, want) {
			t.Errorf("line %q missing %q", line, want)
		}
	}
}

func TestPublishRejectsUnknownTool(t *testing.T) {
	root := NewRootCmd()
	root.SetArgs([]string{"publish", "spin"})
	err := root.Execute()
	if !errors.Is(err, rover.ErrUnknownTool) {
		t.Errorf("err = %v, want ErrUnknownTool", err)
	}
}

func TestForwardAgainstStub(t *testing.T) {
	var mu sync.Mutex
	var seen []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		seen = append(seen, r.URL.Query().Get("json"))
		mu.Unlock()
		w.Write([]byte("OK"))
	}))
	defer srv.Close()
	t.Setenv("ROVER_URL", srv.URL)

	root := NewRootCmd()
	root.SetArgs([]string{"forward", "--speed", "0.2"})
	if err := root.Execute(); err != nil {
		t.Fatalf("forward: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 2 || seen[0] != `{"T":1,"L":0.2,"R":0.2}` || seen[1] != `{"T":126}` {
		t.Errorf("robot saw %v", seen)
	}
}

func TestSendRejectsOverspeed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("robot should not be contacted")
	}))
	defer srv.Close()
	t.Setenv("ROVER_URL", srv.URL)

	root := NewRootCmd()
	root.SetArgs([]string{"send", "--raw", `{"T":1,"L":5,"R":5}`})
	if err := root.Execute(); !errors.Is(err, rover.ErrSpeedOutOfRange) {
		t.Errorf("err = %v, want ErrSpeedOutOfRange", err)
	}
}
