// Package configcmder provides the config command for managing persistent
// pulse configuration stored in the .pulse/ directory.
package configcmder

import (
	"github.com/spf13/cobra"
)

const configLongDesc string = `Manage persistent pulse configuration.

Configuration is stored as config.toml in the .pulse/ directory and provides
default values for command flags. CLI flags always take precedence over
config file values.

Keys use dotted notation matching the TOML section structure:
  server.listen, server.heartbeat,
  client.target,
  source.brokers, source.topic, source.group

Use subcommands to get, set, or list configuration values:
  pulse config set <key> <value>    Set a configuration value
  pulse config get <key>            Get a configuration value
  pulse config list                 List all configuration values

Examples:
  pulse config set server.listen :9000
  pulse config set source.topic deploys
  pulse config get client.target
  pulse config list`

const configShortDesc string = "Manage persistent pulse configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}
