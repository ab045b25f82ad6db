// Package pulsecmder
package pulsecmder

import (
	"github.com/spf13/cobra"

	configcmder "github.com/papercomputeco/pulse/cmd/pulse/config"
	sendcmder "github.com/papercomputeco/pulse/cmd/pulse/send"
	servecmder "github.com/papercomputeco/pulse/cmd/pulse/serve"
	tailcmder "github.com/papercomputeco/pulse/cmd/pulse/tail"
	versioncmder "github.com/papercomputeco/pulse/cmd/version"
)

const pulseLongDesc string = `Pulse is a server-sent-events broadcast hub.

Run the hub with:
  pulse serve          Accept SSE subscribers and fan events out to them

Talk to a running hub with:
  pulse send           Publish an event to all subscribers
  pulse tail           Follow the hub's event stream from the terminal`

const pulseShortDesc string = "Pulse - SSE broadcast hub"

func NewPulseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pulse",
		Short: pulseShortDesc,
		Long:  pulseLongDesc,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override path to .pulse/ config directory")

	// Add subcommands
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(sendcmder.NewSendCmd())
	cmd.AddCommand(tailcmder.NewTailCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
