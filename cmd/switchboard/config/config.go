// Package configcmder provides the config command for managing persistent
// switchboard configuration stored in the .switchboard/ directory.
package configcmder

import (
	"github.com/spf13/cobra"

	"github.com/papercomputeco/switchboard/pkg/config"
)

const configLongDesc string = `Manage persistent switchboard configuration.

Configuration is stored as config.toml in the .switchboard/ directory and
provides default values for command flags. CLI flags and environment
variables always take precedence over config file values.

Keys use dotted notation matching the TOML section structure:
  server.listen,
  provider.type, provider.endpoint, provider.api_key, provider.api_version,
  provider.deployment, provider.instructions, provider.assistant_name,
  provider.assistant_id, provider.vector_store_id,
  webhook.url, webhook.timeout,
  run.poll_interval, run.timeout, run.max_polls,
  eventstream.brokers, eventstream.topic,
  client.target

Use subcommands to get, set, or list configuration values:
  switchboard config set <key> <value>    Set a configuration value
  switchboard config get <key>            Get a configuration value
  switchboard config list                 List all configuration values

Examples:
  switchboard config set provider.endpoint https://myres.openai.azure.com
  switchboard config set run.timeout 90s
  switchboard config get provider.deployment
  switchboard config list`

const configShortDesc string = "Manage persistent switchboard configuration"

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

// display masks secret values for terminal output.
func display(key, value string) string {
	if value == "" || !config.IsSecretKey(key) {
		return value
	}
	if len(value) <= 4 {
		return "****"
	}
	return "****" + value[len(value)-4:]
}
