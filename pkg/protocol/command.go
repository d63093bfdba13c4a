package protocol

// Command asks a bridge to run one of its tools. It travels on
// rover.commands as JSON; Payload carries tool arguments such as "speed".
type Command struct {
	Command   string         `json:"command"`
	Payload   map[string]any `json:"payload"`
	Source    string         `json:"source"`
	Signature string         `json:"signature,omitempty"`
}
