package cmd

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/sekia-ai/rover/internal/rover"
	"github.com/sekia-ai/rover/pkg/protocol"
)

func newPublishCmd() *cobra.Command {
	var (
		speed   float64
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "publish <tool>",
		Short: "Ask a running rover-mcp to run a tool over NATS",
		Long: `Publishes a signed command on rover.commands and waits for the result.
The command is signed with security.command_secret when one is configured.

Examples:
  roverctl publish move_forward --speed 0.3
  roverctl publish stop`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tool := args[0]
			switch tool {
			case rover.ToolMoveForward, rover.ToolMoveBackward, rover.ToolStop:
			default:
				return fmt.Errorf("%w: %s", rover.ErrUnknownTool, tool)
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			nc, err := connectBus(cfg)
			if err != nil {
				return err
			}
			defer nc.Close()

			payload := map[string]any{}
			if tool != rover.ToolStop {
				payload["speed"] = speed
			}
			busCmd := protocol.Command{
				Command: tool,
				Payload: payload,
				Source:  "roverctl",
			}
			if err := protocol.SignCommand(&busCmd, cfg.Security.CommandSecret); err != nil {
				return fmt.Errorf("sign command: %w", err)
			}
			data, err := json.Marshal(busCmd)
			if err != nil {
				return err
			}

			msg, err := nc.Request(protocol.SubjectCommands, data, timeout)
			if err != nil {
				return fmt.Errorf("no reply from rover-mcp: %w", err)
			}
			fmt.Println(string(msg.Data))
			return nil
		},
	}

	cmd.Flags().Float64Var(&speed, "speed", 0, "wheel speed for motion tools")
	cmd.Flags().DurationVar(&timeout, "timeout", 35*time.Second, "how long to wait for the result")
	cmd.Flags().StringVar(&natsURL, "nats", "", "NATS server URL")
	return cmd
}
