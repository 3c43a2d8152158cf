package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/papercomputeco/switchboard/pkg/dotdir"
)

// envAliases are the legacy deployment variable names accepted alongside the
// SWITCHBOARD_ prefixed ones. The prefixed name wins when both are set.
var envAliases = map[string]string{
	"provider.endpoint":        "AZURE_OPENAI_ENDPOINT",
	"provider.api_key":         "AZURE_OPENAI_API_KEY",
	"provider.api_version":     "AZURE_OPENAI_API_VERSION",
	"provider.deployment":      "AZURE_OPENAI_DEPLOYMENT_ID",
	"provider.instructions":    "ROLE_PROMPT",
	"provider.vector_store_id": "VECTOR_STORE_ID",
	"webhook.url":              "TEAMS_WEBHOOK_URL",
}

// InitViper creates and returns a configured *viper.Viper.
// It sets defaults from NewDefaultConfig(), reads the config.toml file
// (if found via dotdir resolution), and binds environment variables
// with the SWITCHBOARD_ prefix.
//
// Config precedence (highest to lowest):
//  1. CLI flags (once bound via BindRegisteredFlags)
//  2. Environment variables (SWITCHBOARD_SERVER_LISTEN, AZURE_OPENAI_ENDPOINT, etc.)
//  3. config.toml file values
//  4. Defaults from NewDefaultConfig()
func InitViper(configDir string) (*viper.Viper, error) {
	v := viper.New()

	setViperDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("toml")

	ddm := dotdir.NewManager()
	target, err := ddm.Target(configDir)
	if err != nil {
		return nil, fmt.Errorf("resolving config dir: %w", err)
	}

	if target != "" {
		v.AddConfigPath(target)
	}

	if err := v.ReadInConfig(); err != nil {
		// Config file not found errors are fine, defaults will apply.
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	v.SetEnvPrefix("SWITCHBOARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, alias := range envAliases {
		prefixed := "SWITCHBOARD_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, alias); err != nil {
			return nil, fmt.Errorf("binding env for %s: %w", key, err)
		}
	}

	return v, nil
}

// Resolve builds a Config from every layer viper knows about.
func Resolve(v *viper.Viper) *Config {
	return &Config{
		Version: v.GetInt("version"),
		Server: ServerConfig{
			Listen: v.GetString("server.listen"),
		},
		Provider: ProviderConfig{
			Type:          v.GetString("provider.type"),
			Endpoint:      v.GetString("provider.endpoint"),
			APIKey:        v.GetString("provider.api_key"),
			APIVersion:    v.GetString("provider.api_version"),
			Deployment:    v.GetString("provider.deployment"),
			Instructions:  v.GetString("provider.instructions"),
			AssistantName: v.GetString("provider.assistant_name"),
			AssistantID:   v.GetString("provider.assistant_id"),
			VectorStoreID: v.GetString("provider.vector_store_id"),
		},
		Webhook: WebhookConfig{
			URL:     v.GetString("webhook.url"),
			Timeout: v.GetString("webhook.timeout"),
		},
		Run: RunConfig{
			PollInterval: v.GetString("run.poll_interval"),
			Timeout:      v.GetString("run.timeout"),
			MaxPolls:     v.GetInt("run.max_polls"),
		},
		EventStream: EventStreamConfig{
			Brokers: brokers(v),
			Topic:   v.GetString("eventstream.topic"),
		},
		Client: ClientConfig{
			Target: v.GetString("client.target"),
		},
	}
}

// brokers accepts both a TOML array and a comma separated env value.
func brokers(v *viper.Viper) []string {
	var out []string
	for _, b := range v.GetStringSlice("eventstream.brokers") {
		out = append(out, splitList(b)...)
	}
	return out
}

// setViperDefaults registers defaults from NewDefaultConfig() into viper
// using dotted-key notation. This keeps defaults.go as the single source of truth.
func setViperDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	v.SetDefault("version", d.Version)

	v.SetDefault("server.listen", d.Server.Listen)

	v.SetDefault("provider.type", d.Provider.Type)
	v.SetDefault("provider.endpoint", d.Provider.Endpoint)
	v.SetDefault("provider.api_key", d.Provider.APIKey)
	v.SetDefault("provider.api_version", d.Provider.APIVersion)
	v.SetDefault("provider.deployment", d.Provider.Deployment)
	v.SetDefault("provider.instructions", d.Provider.Instructions)
	v.SetDefault("provider.assistant_name", d.Provider.AssistantName)
	v.SetDefault("provider.assistant_id", d.Provider.AssistantID)
	v.SetDefault("provider.vector_store_id", d.Provider.VectorStoreID)

	v.SetDefault("webhook.url", d.Webhook.URL)
	v.SetDefault("webhook.timeout", d.Webhook.Timeout)

	v.SetDefault("run.poll_interval", d.Run.PollInterval)
	v.SetDefault("run.timeout", d.Run.Timeout)
	v.SetDefault("run.max_polls", d.Run.MaxPolls)

	v.SetDefault("eventstream.brokers", d.EventStream.Brokers)
	v.SetDefault("eventstream.topic", d.EventStream.Topic)

	v.SetDefault("client.target", d.Client.Target)
}
