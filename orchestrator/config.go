package orchestrator

import "time"

const (
	defaultPollInterval = time.Second
	defaultRunTimeout   = 2 * time.Minute
)

// Config is the orchestrator configuration, built once at startup.
type Config struct {
	// AssistantID is the provider assistant every run is started with.
	AssistantID string

	// Provider names the provider type in turn events (e.g. "azure").
	Provider string

	// PollInterval is the wait between run status fetches (defaults to 1s).
	PollInterval time.Duration

	// Timeout bounds how long a run may stay pending (defaults to 2m).
	Timeout time.Duration

	// MaxPolls bounds the number of status fetches. Zero means no bound other
	// than Timeout.
	MaxPolls int
}

func (c Config) withDefaults() Config {
	if c.PollInterval <= 0 {
		c.PollInterval = defaultPollInterval
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultRunTimeout
	}
	if c.MaxPolls < 0 {
		c.MaxPolls = 0
	}
	return c
}
