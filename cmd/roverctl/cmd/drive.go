package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sekia-ai/rover/internal/rover"
	"github.com/sekia-ai/rover/pkg/protocol"
)

func newController() (*rover.Controller, *rover.Client, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	logger := newLogger()
	client := rover.NewClient(cfg.Robot, logger)
	logger.Debug().Str("endpoint", client.Endpoint()).Msg("robot client ready")
	return rover.NewController(client, cfg.Robot, logger), client, nil
}

func newMoveCmd(direction, short string) *cobra.Command {
	var speed float64

	tool := rover.ToolMoveForward
	if direction == "backward" {
		tool = rover.ToolMoveBackward
	}

	cmd := &cobra.Command{
		Use:   direction,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, _, err := newController()
			if err != nil {
				return err
			}
			out, err := ctrl.Call(cmd.Context(), tool, speed)
			if err != nil {
				return err
			}
			fmt.Println(out.Text())
			return nil
		},
	}

	cmd.Flags().Float64Var(&speed, "speed", 0, "wheel speed")
	cmd.MarkFlagRequired("speed")
	return cmd
}

func newStopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the rover and print telemetry",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, _, err := newController()
			if err != nil {
				return err
			}
			out, err := ctrl.Stop(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Println(out.Text())
			return nil
		},
	}
}

func newTelemetryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "telemetry",
		Short: "Print the rover's IMU telemetry",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, client, err := newController()
			if err != nil {
				return err
			}
			fmt.Println(client.Telemetry(cmd.Context()).Text)
			return nil
		},
	}
}

func newSendCmd() *cobra.Command {
	var raw string

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Send a raw JSON command to the rover",
		Long: `Sends one wire command and prints the rover's reply. Drive speeds
are checked against robot.max_speed.

Examples:
  roverctl send --raw '{"T":126}'
  roverctl send --raw '{"T":1,"L":0.2,"R":-0.2}'`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, client, err := newController()
			if err != nil {
				return err
			}
			wire, err := protocol.DecodeRobotCommand(raw)
			if err != nil {
				return err
			}
			if wire.Tag == protocol.TagDrive {
				for _, v := range []float64{wire.Left, wire.Right} {
					if err := ctrl.ValidateSpeed(v); err != nil {
						return err
					}
				}
			}
			reply := client.Send(cmd.Context(), wire)
			fmt.Println(reply.Text)
			if reply.Degraded {
				return fmt.Errorf("robot reply degraded (%s)", reply.Reason)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&raw, "raw", "", "encoded command, e.g. {\"T\":126}")
	cmd.MarkFlagRequired("raw")
	return cmd
}
