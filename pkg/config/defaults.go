package config

const (
	// ProviderAzure selects Azure OpenAI.
	ProviderAzure = "azure"

	// ProviderOpenAI selects the public OpenAI API.
	ProviderOpenAI = "openai"

	defaultListen        = ":8080"
	defaultProvider      = ProviderAzure
	defaultAPIVersion    = "2024-05-01-preview"
	defaultAssistantName = "switchboard"
	defaultInstructions  = "You are a helpful assistant. Answer using the provided files. " +
		"When the user asks to talk to a human agent, call transfer_to_teams_agent."

	defaultWebhookTimeout = "10s"
	defaultPollInterval   = "1s"
	defaultRunTimeout     = "2m"

	defaultEventTopic = "switchboard.turns"

	defaultClientTarget = "http://localhost:8080"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Server: ServerConfig{
			Listen: defaultListen,
		},
		Provider: ProviderConfig{
			Type:          defaultProvider,
			APIVersion:    defaultAPIVersion,
			Instructions:  defaultInstructions,
			AssistantName: defaultAssistantName,
		},
		Webhook: WebhookConfig{
			Timeout: defaultWebhookTimeout,
		},
		Run: RunConfig{
			PollInterval: defaultPollInterval,
			Timeout:      defaultRunTimeout,
		},
		EventStream: EventStreamConfig{
			Topic: defaultEventTopic,
		},
		Client: ClientConfig{
			Target: defaultClientTarget,
		},
	}
}
