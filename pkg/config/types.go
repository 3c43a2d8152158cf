package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Config represents the persistent switchboard configuration stored as
// config.toml in the .switchboard/ directory. The TOML layout uses sections
// for logical grouping.
type Config struct {
	Version     int               `toml:"version"`
	Server      ServerConfig      `toml:"server"`
	Provider    ProviderConfig    `toml:"provider"`
	Webhook     WebhookConfig     `toml:"webhook"`
	Run         RunConfig         `toml:"run"`
	EventStream EventStreamConfig `toml:"eventstream"`
	Client      ClientConfig      `toml:"client"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Listen string `toml:"listen,omitempty"`
}

// ProviderConfig holds the assistant provider connection and the assistant
// definition ensured at startup.
type ProviderConfig struct {
	// Type is "azure" or "openai".
	Type       string `toml:"type,omitempty"`
	Endpoint   string `toml:"endpoint,omitempty"`
	APIKey     string `toml:"api_key,omitempty"`
	APIVersion string `toml:"api_version,omitempty"`

	// Deployment is the model or Azure deployment used for runs and summaries.
	Deployment string `toml:"deployment,omitempty"`

	Instructions  string `toml:"instructions,omitempty"`
	AssistantName string `toml:"assistant_name,omitempty"`
	AssistantID   string `toml:"assistant_id,omitempty"`
	VectorStoreID string `toml:"vector_store_id,omitempty"`
}

// WebhookConfig holds the Teams incoming webhook settings.
type WebhookConfig struct {
	URL     string `toml:"url,omitempty"`
	Timeout string `toml:"timeout,omitempty"`
}

// RunConfig bounds run polling. Durations use time.ParseDuration syntax.
type RunConfig struct {
	PollInterval string `toml:"poll_interval,omitempty"`
	Timeout      string `toml:"timeout,omitempty"`
	MaxPolls     int    `toml:"max_polls,omitempty"`
}

// EventStreamConfig holds turn event publishing settings. No brokers means
// events are discarded.
type EventStreamConfig struct {
	Brokers []string `toml:"brokers,omitempty"`
	Topic   string   `toml:"topic,omitempty"`
}

// ClientConfig holds settings for CLI commands that connect to a running
// switchboard server (e.g. switchboard chat). Values are full URLs.
type ClientConfig struct {
	Target string `toml:"target,omitempty"`
}

// ParseDuration parses a config duration, returning zero for an empty value.
func ParseDuration(key, value string) (time.Duration, error) {
	if value == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %w", key, err)
	}
	return d, nil
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

func durationKey(key string, field func(c *Config) *string) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string { return *field(c) },
		set: func(c *Config, v string) error {
			if _, err := ParseDuration(key, v); err != nil {
				return err
			}
			*field(c) = v
			return nil
		},
	}
}

func stringKey(field func(c *Config) *string) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string { return *field(c) },
		set: func(c *Config, v string) error { *field(c) = v; return nil },
	}
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"server.listen": stringKey(func(c *Config) *string { return &c.Server.Listen }),

	"provider.type": {
		get: func(c *Config) string { return c.Provider.Type },
		set: func(c *Config, v string) error {
			switch v {
			case ProviderAzure, ProviderOpenAI:
				c.Provider.Type = v
				return nil
			default:
				return fmt.Errorf("invalid value for provider.type: %q (available: %s, %s)", v, ProviderAzure, ProviderOpenAI)
			}
		},
	},
	"provider.endpoint":        stringKey(func(c *Config) *string { return &c.Provider.Endpoint }),
	"provider.api_key":         stringKey(func(c *Config) *string { return &c.Provider.APIKey }),
	"provider.api_version":     stringKey(func(c *Config) *string { return &c.Provider.APIVersion }),
	"provider.deployment":      stringKey(func(c *Config) *string { return &c.Provider.Deployment }),
	"provider.instructions":    stringKey(func(c *Config) *string { return &c.Provider.Instructions }),
	"provider.assistant_name":  stringKey(func(c *Config) *string { return &c.Provider.AssistantName }),
	"provider.assistant_id":    stringKey(func(c *Config) *string { return &c.Provider.AssistantID }),
	"provider.vector_store_id": stringKey(func(c *Config) *string { return &c.Provider.VectorStoreID }),

	"webhook.url":     stringKey(func(c *Config) *string { return &c.Webhook.URL }),
	"webhook.timeout": durationKey("webhook.timeout", func(c *Config) *string { return &c.Webhook.Timeout }),

	"run.poll_interval": durationKey("run.poll_interval", func(c *Config) *string { return &c.Run.PollInterval }),
	"run.timeout":       durationKey("run.timeout", func(c *Config) *string { return &c.Run.Timeout }),
	"run.max_polls": {
		get: func(c *Config) string { return strconv.Itoa(c.Run.MaxPolls) },
		set: func(c *Config, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				return fmt.Errorf("invalid value for run.max_polls: %q", v)
			}
			c.Run.MaxPolls = n
			return nil
		},
	},

	"eventstream.brokers": {
		get: func(c *Config) string { return strings.Join(c.EventStream.Brokers, ",") },
		set: func(c *Config, v string) error {
			c.EventStream.Brokers = splitList(v)
			return nil
		},
	},
	"eventstream.topic": stringKey(func(c *Config) *string { return &c.EventStream.Topic }),

	"client.target": stringKey(func(c *Config) *string { return &c.Client.Target }),
}

// secretKeys are masked by "config list".
var secretKeys = map[string]bool{
	"provider.api_key": true,
}

// IsSecretKey reports whether the key holds a credential.
func IsSecretKey(key string) bool {
	return secretKeys[key]
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
