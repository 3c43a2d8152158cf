// Package switchboardcmder is the root switchboard command.
package switchboardcmder

import (
	"github.com/spf13/cobra"

	chatcmder "github.com/papercomputeco/switchboard/cmd/switchboard/chat"
	configcmder "github.com/papercomputeco/switchboard/cmd/switchboard/config"
	initcmder "github.com/papercomputeco/switchboard/cmd/switchboard/init"
	servecmder "github.com/papercomputeco/switchboard/cmd/switchboard/serve"
	versioncmder "github.com/papercomputeco/switchboard/cmd/version"
)

const switchboardLongDesc string = `Switchboard relays chat turns to an OpenAI or Azure OpenAI assistant.

Each turn is appended to a provider thread, run against the configured
assistant and answered with citations. When the assistant asks for a human,
the conversation is summarized and handed to a Teams channel.

Run the server and talk to it using:
  switchboard serve    Run the HTTP server
  switchboard chat     Chat with a running server`

const switchboardShortDesc string = "Switchboard - Assistant chat relay"

func NewSwitchboardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "switchboard",
		Short:         switchboardShortDesc,
		Long:          switchboardLongDesc,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "D", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override the .switchboard/ directory")

	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(chatcmder.NewChatCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(initcmder.NewInitCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
