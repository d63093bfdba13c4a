package protocol

import "fmt"

// NATS subjects used by the bridge.
const (
	SubjectCommands  = "rover.commands"
	SubjectAllEvents = "rover.events.>"
)

// SubjectEvents is the subject tool outcomes for the named tool are published on.
func SubjectEvents(tool string) string {
	return fmt.Sprintf("rover.events.%s", tool)
}
