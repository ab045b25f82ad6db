// Package tailcmder provides the tail command for following a running
// pulse hub's event stream from the terminal.
package tailcmder

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/pulse/pkg/cliui"
	"github.com/papercomputeco/pulse/pkg/config"
	"github.com/papercomputeco/pulse/pkg/sse"
)

type TailCommander struct {
	target string
}

const tailLongDesc string = `Follow a running pulse hub's event stream.

Subscribes to the hub's GET /events endpoint and prints each event as it
arrives, until interrupted or the hub disconnects. Heartbeat frames are
consumed silently.

Examples:
  pulse tail
  pulse tail --target http://hub.internal:8000`

const tailShortDesc string = "Follow a hub's event stream"

func NewTailCmd() *cobra.Command {
	cmder := &TailCommander{}

	cmd := &cobra.Command{
		Use:   "tail",
		Short: tailShortDesc,
		Long:  tailLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			v, err := config.InitViper(configDir)
			if err != nil {
				return fmt.Errorf("initializing config: %w", err)
			}

			config.BindRegisteredFlags(v, cmd, config.Flags, []string{config.FlagTarget})
			cmder.target = v.GetString("client.target")

			return cmder.run()
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagTarget, &cmder.target)

	return cmd
}

func (c *TailCommander) run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	url := strings.TrimSuffix(c.target, "/") + "/events"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")

	// No client timeout: the subscription is expected to stay open until
	// interrupted.
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("connecting to %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("hub returned status %d", resp.StatusCode)
	}

	fmt.Printf("%s\n\n", cliui.DimStyle.Render("Following "+url))

	reader := sse.NewReader(resp.Body)
	for {
		ev, err := reader.Next()
		if err != nil {
			// Interrupt closes the response body mid-read; that is a
			// clean exit, not a failure.
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return nil
			}
			return fmt.Errorf("reading stream: %w", err)
		}
		if ev == nil {
			fmt.Fprintln(os.Stderr, "Stream closed by hub.")
			return nil
		}

		printEvent(ev)
	}
}

func printEvent(ev *sse.Event) {
	eventType := ev.Type
	if eventType == "" {
		eventType = "message"
	}

	header := cliui.KeyStyle.Render(eventType)
	if ev.ID != "" {
		header += " " + cliui.DimStyle.Render("("+ev.ID+")")
	}

	fmt.Printf("%s %s\n", header, cliui.ValueStyle.Render(ev.Data))
}
