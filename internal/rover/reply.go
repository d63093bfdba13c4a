package rover

import "time"

// Reason classifies a degraded reply.
type Reason string

const (
	ReasonNone    Reason = ""
	ReasonError   Reason = "error"
	ReasonTimeout Reason = "timeout"
	ReasonEmpty   Reason = "empty"
)

// Sentinel texts substituted for a reply the robot could not give.
const (
	SentinelNotResponding = "Robot not responding"
	SentinelNoResponse    = "No response"
	sentinelErrorPrefix   = "Error: "
)

// Reply is the result of one round trip to the robot. Degraded replies
// carry a sentinel Text in place of the robot's answer.
type Reply struct {
	Text     string
	Degraded bool
	Reason   Reason
	Status   int
	Latency  time.Duration
}

// Ok wraps a body returned by the robot.
func Ok(text string) Reply {
	return Reply{Text: text, Reason: ReasonNone}
}

// Degrade builds a sentinel reply.
func Degrade(reason Reason, text string) Reply {
	return Reply{Text: text, Degraded: true, Reason: reason}
}

func (r Reply) String() string { return r.Text }
