package cmd

import (
	"encoding/json"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"

	"github.com/sekia-ai/rover/pkg/protocol"
)

func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print tool outcomes published by rover-mcp",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			nc, err := connectBus(cfg)
			if err != nil {
				return err
			}
			defer nc.Drain()

			sub, err := nc.Subscribe(protocol.SubjectAllEvents, func(msg *nats.Msg) {
				var ev protocol.Event
				if err := json.Unmarshal(msg.Data, &ev); err != nil {
					fmt.Printf("%s  (undecodable) %s\n", msg.Subject, msg.Data)
					return
				}
				fmt.Println(formatEvent(ev))
			})
			if err != nil {
				return err
			}
			defer sub.Unsubscribe()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			<-ctx.Done()
			return nil
		},
	}

	cmd.Flags().StringVar(&natsURL, "nats", "", "NATS server URL")
	return cmd
}

func formatEvent(ev protocol.Event) string {
	ts := time.Unix(ev.Timestamp, 0).Format("2006-01-02 15:04:05")
	line := fmt.Sprintf("%s  %-20s", ts, ev.Type)
	if c, ok := ev.Payload["command"]; ok {
		line += fmt.Sprintf("  cmd=%v", c)
	}
	if d, ok := ev.Payload["drive_reply"]; ok {
		line += fmt.Sprintf("  drive=%q", d)
	}
	line += fmt.Sprintf("  telemetry=%q", ev.Payload["telemetry"])
	if ev.Payload["degraded"] == true {
		line += "  DEGRADED"
	}
	return line
}
