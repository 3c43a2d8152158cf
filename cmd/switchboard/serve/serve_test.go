package servecmder_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	servecmder "github.com/papercomputeco/switchboard/cmd/switchboard/serve"
	"github.com/papercomputeco/switchboard/orchestrator/tools"
	"github.com/papercomputeco/switchboard/pkg/config"
	"github.com/papercomputeco/switchboard/pkg/eventstream/kafka"
	"github.com/papercomputeco/switchboard/pkg/eventstream/nop"
)

var _ = Describe("NewServeCmd", func() {
	It("creates a command with the correct use string", func() {
		cmd := servecmder.NewServeCmd()
		Expect(cmd.Use).To(Equal("serve"))
	})

	It("registers flags from the shared registry with config defaults", func() {
		cmd := servecmder.NewServeCmd()

		listen := cmd.Flags().Lookup("listen")
		Expect(listen).NotTo(BeNil())
		Expect(listen.Shorthand).To(Equal("l"))
		Expect(listen.DefValue).To(Equal(":8080"))

		Expect(cmd.Flags().Lookup("provider").DefValue).To(Equal("azure"))
		Expect(cmd.Flags().Lookup("run-timeout").DefValue).To(Equal("2m"))
		Expect(cmd.Flags().Lookup("max-polls").DefValue).To(Equal("0"))
		Expect(cmd.Flags().Lookup("webhook-url")).NotTo(BeNil())
		Expect(cmd.Flags().Lookup("brokers")).NotTo(BeNil())
	})

	It("rejects positional arguments", func() {
		cmd := servecmder.NewServeCmd()
		Expect(cmd.Args(cmd, []string{"extra"})).To(HaveOccurred())
	})
})

var _ = Describe("NewSettings", func() {
	var cfg *config.Config

	BeforeEach(func() {
		cfg = config.NewDefaultConfig()
		cfg.Provider.Endpoint = "https://myres.openai.azure.com"
		cfg.Provider.APIKey = "key"
		cfg.Provider.Deployment = "gpt-4o"
	})

	It("converts a complete config", func() {
		cfg.Provider.VectorStoreID = "vs_1"
		cfg.Run.MaxPolls = 5

		s, err := servecmder.NewSettings(cfg)
		Expect(err).NotTo(HaveOccurred())

		Expect(s.Provider.Type).To(Equal("azure"))
		Expect(s.Provider.Endpoint).To(Equal("https://myres.openai.azure.com"))
		Expect(s.Assistant.Model).To(Equal("gpt-4o"))
		Expect(s.Assistant.Name).To(Equal("switchboard"))
		Expect(s.Assistant.VectorStoreID).To(Equal("vs_1"))
		Expect(s.Assistant.Functions).To(HaveLen(1))
		Expect(s.Assistant.Functions[0].Name).To(Equal(tools.NameTeamsTransfer))
		Expect(s.Orchestrator.PollInterval).To(Equal(time.Second))
		Expect(s.Orchestrator.Timeout).To(Equal(2 * time.Minute))
		Expect(s.Orchestrator.MaxPolls).To(Equal(5))
		Expect(s.WebhookTimeout).To(Equal(10 * time.Second))
		Expect(s.Listen).To(Equal(":8080"))
	})

	It("requires an endpoint", func() {
		cfg.Provider.Endpoint = ""
		_, err := servecmder.NewSettings(cfg)
		Expect(err).To(MatchError(ContainSubstring("endpoint is required")))
	})

	It("requires an API key", func() {
		cfg.Provider.APIKey = ""
		_, err := servecmder.NewSettings(cfg)
		Expect(err).To(MatchError(ContainSubstring("API key is required")))
	})

	It("requires a deployment", func() {
		cfg.Provider.Deployment = ""
		_, err := servecmder.NewSettings(cfg)
		Expect(err).To(MatchError(ContainSubstring("deployment is required")))
	})

	It("rejects malformed durations", func() {
		cfg.Run.PollInterval = "often"
		_, err := servecmder.NewSettings(cfg)
		Expect(err).To(MatchError(ContainSubstring("run.poll_interval")))
	})
})

var _ = Describe("NewPublisher", func() {
	It("discards events when no brokers are configured", func() {
		p, err := servecmder.NewPublisher(&servecmder.Settings{})
		Expect(err).NotTo(HaveOccurred())
		Expect(p).To(BeAssignableToTypeOf(&nop.Publisher{}))
	})

	It("publishes to Kafka when brokers are configured", func() {
		p, err := servecmder.NewPublisher(&servecmder.Settings{
			Brokers: []string{"localhost:9092"},
			Topic:   "turns",
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(p).To(BeAssignableToTypeOf(&kafka.Publisher{}))
		Expect(p.Close()).To(Succeed())
	})
})
