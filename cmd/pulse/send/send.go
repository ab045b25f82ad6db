// Package sendcmder provides the send command for publishing an event
// to a running pulse hub.
package sendcmder

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/pulse/pkg/cliui"
	"github.com/papercomputeco/pulse/pkg/config"
	"github.com/papercomputeco/pulse/server"
)

type SendCommander struct {
	target    string
	id        string
	eventType string
}

const sendLongDesc string = `Publish an event to a running pulse hub.

The arguments are joined with spaces and sent as the event payload to
the hub's POST /events endpoint, which fans it out to every subscriber.

Examples:
  pulse send deploy finished
  pulse send --event deploy --id 42 "service v2 is live"`

const sendShortDesc string = "Publish an event to a running hub"

func NewSendCmd() *cobra.Command {
	cmder := &SendCommander{}

	cmd := &cobra.Command{
		Use:   "send [data...]",
		Short: sendShortDesc,
		Long:  sendLongDesc,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			v, err := config.InitViper(configDir)
			if err != nil {
				return fmt.Errorf("initializing config: %w", err)
			}

			config.BindRegisteredFlags(v, cmd, config.Flags, []string{config.FlagTarget})
			cmder.target = v.GetString("client.target")

			return cmder.run(strings.Join(args, " "))
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagTarget, &cmder.target)
	cmd.Flags().StringVar(&cmder.id, "id", "", "Event ID (generated when empty)")
	cmd.Flags().StringVar(&cmder.eventType, "event", "", "SSE event type")

	return cmd
}

func (c *SendCommander) run(data string) error {
	body, err := json.Marshal(server.PublishRequest{
		Data:  data,
		ID:    c.id,
		Event: c.eventType,
	})
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}

	client := &http.Client{Timeout: 10 * time.Second}

	resp, err := client.Post(
		strings.TrimSuffix(c.target, "/")+"/events",
		"application/json",
		bytes.NewReader(body),
	)
	if err != nil {
		return fmt.Errorf("publishing to %s: %w", c.target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("hub rejected event (%d): %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var stats server.StatsResponse
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}

	fmt.Printf("%s Sent to %d clients.\n", cliui.SuccessMark, stats.Clients)

	return nil
}
