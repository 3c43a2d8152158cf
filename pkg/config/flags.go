package config

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flag is the single source of truth for a CLI flag.
// Commands reference flags by registry key rather than hard-coding names,
// shorthands, defaults, and descriptions inline.
type Flag struct {
	// Name is the long flag name (e.g. "listen").
	Name string

	// Shorthand is the one-letter short flag (e.g. "l"). Empty for no shorthand.
	Shorthand string

	// ViperKey is the dotted config key this flag maps to (e.g. "server.listen").
	ViperKey string

	// Description is the help text shown in --help output.
	Description string
}

// FlagSet is a mapping of flag names to Flag structs that hold their name,
// shorthand, viper key, etc.
type FlagSet map[string]Flag

// Flag registry keys.
// Use these constants when calling AddStringFlag, AddIntFlag,
// and BindRegisteredFlags to avoid typos or drift from one command to another.
const (
	FlagListen        = "listen"
	FlagProvider      = "provider"
	FlagEndpoint      = "endpoint"
	FlagAPIVersion    = "api-version"
	FlagDeployment    = "deployment"
	FlagAssistantID   = "assistant-id"
	FlagVectorStoreID = "vector-store-id"
	FlagWebhookURL    = "webhook-url"
	FlagPollInterval  = "poll-interval"
	FlagRunTimeout    = "run-timeout"
	FlagMaxPolls      = "max-polls"
	FlagBrokers       = "brokers"
	FlagTopic         = "topic"
	FlagTarget        = "target"
)

// Registry is the FlagSet shared by every switchboard command.
var Registry = FlagSet{
	FlagListen: {
		Name:        "listen",
		Shorthand:   "l",
		ViperKey:    "server.listen",
		Description: "Address for the HTTP server to listen on",
	},
	FlagProvider: {
		Name:        "provider",
		Shorthand:   "p",
		ViperKey:    "provider.type",
		Description: "Assistant provider type (azure, openai)",
	},
	FlagEndpoint: {
		Name:        "endpoint",
		ViperKey:    "provider.endpoint",
		Description: "Assistant provider endpoint URL",
	},
	FlagAPIVersion: {
		Name:        "api-version",
		ViperKey:    "provider.api_version",
		Description: "Azure OpenAI API version",
	},
	FlagDeployment: {
		Name:        "deployment",
		Shorthand:   "d",
		ViperKey:    "provider.deployment",
		Description: "Model or Azure deployment used by the assistant",
	},
	FlagAssistantID: {
		Name:        "assistant-id",
		ViperKey:    "provider.assistant_id",
		Description: "Existing assistant ID (skips lookup by name)",
	},
	FlagVectorStoreID: {
		Name:        "vector-store-id",
		ViperKey:    "provider.vector_store_id",
		Description: "Vector store attached to the assistant for file search",
	},
	FlagWebhookURL: {
		Name:        "webhook-url",
		ViperKey:    "webhook.url",
		Description: "Teams incoming webhook URL for agent transfers",
	},
	FlagPollInterval: {
		Name:        "poll-interval",
		ViperKey:    "run.poll_interval",
		Description: "Wait between run status polls",
	},
	FlagRunTimeout: {
		Name:        "run-timeout",
		ViperKey:    "run.timeout",
		Description: "Maximum time a run may stay pending",
	},
	FlagMaxPolls: {
		Name:        "max-polls",
		ViperKey:    "run.max_polls",
		Description: "Maximum run status polls per turn (0 for no limit)",
	},
	FlagBrokers: {
		Name:        "brokers",
		ViperKey:    "eventstream.brokers",
		Description: "Comma separated Kafka brokers for turn events",
	},
	FlagTopic: {
		Name:        "topic",
		ViperKey:    "eventstream.topic",
		Description: "Kafka topic for turn events",
	},
	FlagTarget: {
		Name:        "target",
		Shorthand:   "t",
		ViperKey:    "client.target",
		Description: "Switchboard server URL",
	},
}

// AddStringFlag registers a string flag on cmd from the given FlagSet.
// The flag's name, shorthand, default, and description all come from the
// FlagSet entry so they cannot drift across commands.
func AddStringFlag(cmd *cobra.Command, fs FlagSet, key string, target *string) {
	def, ok := fs[key]
	if !ok {
		return
	}

	defaultVal := defaultString(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().StringVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().StringVar(target, def.Name, defaultVal, def.Description)
	}
}

// AddIntFlag registers an int flag on cmd from the given FlagSet.
func AddIntFlag(cmd *cobra.Command, fs FlagSet, registryKey string, target *int) {
	def, ok := fs[registryKey]
	if !ok {
		return
	}

	defaultVal := defaultInt(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().IntVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().IntVar(target, def.Name, defaultVal, def.Description)
	}
}

// BindRegisteredFlags binds already-registered flags to viper using definitions
// from the given FlagSet. Call this in PreRunE after InitViper to connect flags
// to the viper precedence chain (flag > env > config file > default).
func BindRegisteredFlags(v *viper.Viper, cmd *cobra.Command, fs FlagSet, registryKeys []string) {
	for _, registryKey := range registryKeys {
		def, ok := fs[registryKey]
		if !ok {
			continue
		}

		f := cmd.Flags().Lookup(def.Name)
		if f == nil {
			continue
		}

		_ = v.BindPFlag(def.ViperKey, f)
	}
}

// defaultString returns the default string value for a viper key from NewDefaultConfig.
func defaultString(viperKey string) string {
	v := viper.New()
	setViperDefaults(v)
	return v.GetString(viperKey)
}

// defaultInt returns the default int value for a viper key from NewDefaultConfig.
func defaultInt(viperKey string) int {
	v := viper.New()
	setViperDefaults(v)
	return v.GetInt(viperKey)
}
