// Package servecmder provides the serve command that runs the switchboard
// HTTP server.
package servecmder

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/papercomputeco/switchboard/api"
	"github.com/papercomputeco/switchboard/api/mcp"
	"github.com/papercomputeco/switchboard/orchestrator"
	"github.com/papercomputeco/switchboard/orchestrator/tools"
	"github.com/papercomputeco/switchboard/orchestrator/worker"
	"github.com/papercomputeco/switchboard/pkg/assistant"
	"github.com/papercomputeco/switchboard/pkg/assistant/openai"
	"github.com/papercomputeco/switchboard/pkg/config"
	"github.com/papercomputeco/switchboard/pkg/eventstream"
	"github.com/papercomputeco/switchboard/pkg/eventstream/kafka"
	"github.com/papercomputeco/switchboard/pkg/eventstream/nop"
	"github.com/papercomputeco/switchboard/pkg/logger"
	"github.com/papercomputeco/switchboard/pkg/summary"
	"github.com/papercomputeco/switchboard/pkg/teams"
)

const startupTimeout = 30 * time.Second

type ServeCommander struct {
	flags struct {
		listen        string
		provider      string
		endpoint      string
		apiVersion    string
		deployment    string
		assistantID   string
		vectorStoreID string
		webhookURL    string
		pollInterval  string
		runTimeout    string
		maxPolls      int
		brokers       string
		topic         string
	}

	cfg    *config.Config
	debug  bool
	logger *zap.Logger
}

var serveFlags = []string{
	config.FlagListen,
	config.FlagProvider,
	config.FlagEndpoint,
	config.FlagAPIVersion,
	config.FlagDeployment,
	config.FlagAssistantID,
	config.FlagVectorStoreID,
	config.FlagWebhookURL,
	config.FlagPollInterval,
	config.FlagRunTimeout,
	config.FlagMaxPolls,
	config.FlagBrokers,
	config.FlagTopic,
}

const serveLongDesc string = `Run the switchboard HTTP server.

On startup the assistant is looked up by name on the provider and created,
or updated when its model or instructions drifted. The server then answers
chat turns on POST /api/chatbotapi and exposes /ping, /metrics and /mcp.

Settings come from flags, SWITCHBOARD_* environment variables, the
config.toml in the .switchboard/ directory, then defaults. The deployment
variables AZURE_OPENAI_ENDPOINT, AZURE_OPENAI_API_KEY,
AZURE_OPENAI_DEPLOYMENT_ID, ROLE_PROMPT, VECTOR_STORE_ID and
TEAMS_WEBHOOK_URL are also honored.

Examples:
  switchboard serve
  switchboard serve --endpoint https://myres.openai.azure.com --deployment gpt-4o
  switchboard serve --provider openai --brokers kafka:9092`

const serveShortDesc string = "Run the switchboard server"

func NewServeCmd() *cobra.Command {
	cmder := &ServeCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			v, err := config.InitViper(configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			config.BindRegisteredFlags(v, cmd, config.Registry, serveFlags)
			cmder.cfg = config.Resolve(v)
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}
			return cmder.run()
		},
	}

	config.AddStringFlag(cmd, config.Registry, config.FlagListen, &cmder.flags.listen)
	config.AddStringFlag(cmd, config.Registry, config.FlagProvider, &cmder.flags.provider)
	config.AddStringFlag(cmd, config.Registry, config.FlagEndpoint, &cmder.flags.endpoint)
	config.AddStringFlag(cmd, config.Registry, config.FlagAPIVersion, &cmder.flags.apiVersion)
	config.AddStringFlag(cmd, config.Registry, config.FlagDeployment, &cmder.flags.deployment)
	config.AddStringFlag(cmd, config.Registry, config.FlagAssistantID, &cmder.flags.assistantID)
	config.AddStringFlag(cmd, config.Registry, config.FlagVectorStoreID, &cmder.flags.vectorStoreID)
	config.AddStringFlag(cmd, config.Registry, config.FlagWebhookURL, &cmder.flags.webhookURL)
	config.AddStringFlag(cmd, config.Registry, config.FlagPollInterval, &cmder.flags.pollInterval)
	config.AddStringFlag(cmd, config.Registry, config.FlagRunTimeout, &cmder.flags.runTimeout)
	config.AddIntFlag(cmd, config.Registry, config.FlagMaxPolls, &cmder.flags.maxPolls)
	config.AddStringFlag(cmd, config.Registry, config.FlagBrokers, &cmder.flags.brokers)
	config.AddStringFlag(cmd, config.Registry, config.FlagTopic, &cmder.flags.topic)

	return cmd
}

// Settings are the parsed runtime values derived from a Config.
type Settings struct {
	Provider       openai.Config
	Assistant      assistant.Definition
	Orchestrator   orchestrator.Config
	WebhookURL     string
	WebhookTimeout time.Duration
	Listen         string
	Brokers        []string
	Topic          string
}

// NewSettings validates cfg and converts it into runtime settings.
func NewSettings(cfg *config.Config) (*Settings, error) {
	if cfg.Provider.Endpoint == "" {
		return nil, errors.New("provider endpoint is required (--endpoint or AZURE_OPENAI_ENDPOINT)")
	}
	if cfg.Provider.APIKey == "" {
		return nil, errors.New("provider API key is required (SWITCHBOARD_PROVIDER_API_KEY or AZURE_OPENAI_API_KEY)")
	}
	if cfg.Provider.Deployment == "" {
		return nil, errors.New("provider deployment is required (--deployment or AZURE_OPENAI_DEPLOYMENT_ID)")
	}
	if cfg.Run.MaxPolls < 0 {
		return nil, fmt.Errorf("invalid value for run.max_polls: %d", cfg.Run.MaxPolls)
	}

	pollInterval, err := config.ParseDuration("run.poll_interval", cfg.Run.PollInterval)
	if err != nil {
		return nil, err
	}
	runTimeout, err := config.ParseDuration("run.timeout", cfg.Run.Timeout)
	if err != nil {
		return nil, err
	}
	webhookTimeout, err := config.ParseDuration("webhook.timeout", cfg.Webhook.Timeout)
	if err != nil {
		return nil, err
	}

	return &Settings{
		Provider: openai.Config{
			Type:       cfg.Provider.Type,
			Endpoint:   cfg.Provider.Endpoint,
			APIKey:     cfg.Provider.APIKey,
			APIVersion: cfg.Provider.APIVersion,
			Deployment: cfg.Provider.Deployment,
		},
		Assistant: assistant.Definition{
			ID:            cfg.Provider.AssistantID,
			Name:          cfg.Provider.AssistantName,
			Model:         cfg.Provider.Deployment,
			Instructions:  cfg.Provider.Instructions,
			VectorStoreID: cfg.Provider.VectorStoreID,
			Functions:     []assistant.FunctionSpec{tools.TeamsTransferSpec()},
		},
		Orchestrator: orchestrator.Config{
			Provider:     cfg.Provider.Type,
			PollInterval: pollInterval,
			Timeout:      runTimeout,
			MaxPolls:     cfg.Run.MaxPolls,
		},
		WebhookURL:     cfg.Webhook.URL,
		WebhookTimeout: webhookTimeout,
		Listen:         cfg.Server.Listen,
		Brokers:        cfg.EventStream.Brokers,
		Topic:          cfg.EventStream.Topic,
	}, nil
}

// NewPublisher returns a Kafka publisher when brokers are configured and a
// discarding publisher otherwise.
func NewPublisher(s *Settings) (eventstream.Publisher, error) {
	if len(s.Brokers) == 0 {
		return nop.NewPublisher(), nil
	}
	p, err := kafka.NewPublisher(kafka.Config{
		Brokers: s.Brokers,
		Topic:   s.Topic,
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (c *ServeCommander) run() error {
	c.logger = logger.NewLogger(c.debug)
	defer func() { _ = c.logger.Sync() }()

	settings, err := NewSettings(c.cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := openai.New(settings.Provider)
	if err != nil {
		return fmt.Errorf("creating assistant client: %w", err)
	}

	startupCtx, cancel := context.WithTimeout(ctx, startupTimeout)
	assistantID, err := client.EnsureAssistant(startupCtx, settings.Assistant)
	cancel()
	if err != nil {
		return fmt.Errorf("ensuring assistant: %w", err)
	}
	settings.Orchestrator.AssistantID = assistantID

	c.logger.Info("assistant ready",
		zap.String("assistant_id", assistantID),
		zap.String("provider", settings.Provider.Type),
		zap.String("deployment", settings.Provider.Deployment),
	)

	notifier := teams.NewNotifier(teams.Config{
		URL:     settings.WebhookURL,
		Timeout: settings.WebhookTimeout,
		Logger:  c.logger,
	})
	if !notifier.Enabled() {
		c.logger.Warn("no Teams webhook configured, agent transfers will not be delivered")
	}

	registry := tools.NewRegistry()
	registry.Register(tools.NameTeamsTransfer, tools.NewTeamsTransfer(tools.TeamsTransferConfig{
		History:    client,
		Summarizer: summary.NewGenerator(client, summary.Config{Model: settings.Provider.Deployment}),
		Notifier:   notifier,
		Logger:     c.logger,
	}))

	publisher, err := NewPublisher(settings)
	if err != nil {
		return fmt.Errorf("creating event publisher: %w", err)
	}
	defer publisher.Close()

	if len(settings.Brokers) > 0 {
		c.logger.Info("publishing turn events",
			zap.Strings("brokers", settings.Brokers),
			zap.String("topic", settings.Topic),
		)
	}

	pool, err := worker.NewPool(&worker.Config{
		Publisher: publisher,
		Logger:    c.logger,
	})
	if err != nil {
		return fmt.Errorf("creating worker pool: %w", err)
	}
	defer pool.Close()

	orch, err := orchestrator.New(settings.Orchestrator, client, registry, pool, c.logger)
	if err != nil {
		return fmt.Errorf("creating orchestrator: %w", err)
	}

	mcpServer, err := mcp.NewServer(mcp.Config{
		Turns:  orch,
		Logger: c.logger,
	})
	if err != nil {
		return fmt.Errorf("creating MCP server: %w", err)
	}

	apiServer, err := api.NewServer(api.Config{
		ListenAddr: settings.Listen,
		MCPHandler: mcpServer.Handler(),
	}, orch, c.logger)
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}

	errChan := make(chan error, 1)
	go func() {
		if err := apiServer.Run(); err != nil {
			errChan <- fmt.Errorf("API server error: %w", err)
		}
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		c.logger.Info("received signal, shutting down")
		return apiServer.Shutdown()
	}
}
