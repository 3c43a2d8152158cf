package initcmder_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	initcmder "github.com/papercomputeco/switchboard/cmd/switchboard/init"
	"github.com/papercomputeco/switchboard/pkg/config"
)

var _ = Describe("NewInitCmd", func() {
	It("creates a command with the correct use string", func() {
		cmd := initcmder.NewInitCmd()
		Expect(cmd.Use).To(Equal("init"))
	})

	It("rejects any arguments", func() {
		cmd := initcmder.NewInitCmd()
		Expect(cmd.Args(cmd, []string{})).To(Succeed())
		Expect(cmd.Args(cmd, []string{"extra"})).To(HaveOccurred())
	})

	It("has a --preset flag", func() {
		cmd := initcmder.NewInitCmd()
		f := cmd.Flags().Lookup("preset")
		Expect(f).NotTo(BeNil())
		Expect(f.DefValue).To(Equal(""))
	})
})

var _ = Describe("Init command execution", func() {
	var (
		tmpDir  string
		origDir string
	)

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "switchboard-init-test-*")
		Expect(err).NotTo(HaveOccurred())

		origDir, err = os.Getwd()
		Expect(err).NotTo(HaveOccurred())
		Expect(os.Chdir(tmpDir)).To(Succeed())
	})

	AfterEach(func() {
		Expect(os.Chdir(origDir)).To(Succeed())
		os.RemoveAll(tmpDir)
	})

	execute := func(args ...string) error {
		cmd := initcmder.NewInitCmd()
		cmd.SetArgs(args)
		return cmd.Execute()
	}

	It("creates a .switchboard directory with a default config.toml", func() {
		Expect(execute()).To(Succeed())
		Expect(filepath.Join(tmpDir, ".switchboard")).To(BeADirectory())

		cfg := loadConfig(tmpDir)
		Expect(cfg.Version).To(Equal(config.CurrentV))
		Expect(cfg.Provider.Type).To(Equal("azure"))
		Expect(cfg.Server.Listen).To(Equal(":8080"))
		Expect(cfg.Run.Timeout).To(Equal("2m"))
	})

	It("does not overwrite existing contents when already initialized", func() {
		dir := filepath.Join(tmpDir, ".switchboard")
		Expect(os.MkdirAll(dir, 0o755)).To(Succeed())
		Expect(os.WriteFile(filepath.Join(dir, "config.toml"), []byte("[server]\nlisten = \":7000\"\n"), 0o600)).To(Succeed())
		Expect(os.WriteFile(filepath.Join(dir, "session.json"), []byte(`{"thread_id":"thread_1"}`), 0o600)).To(Succeed())

		Expect(execute()).To(Succeed())

		Expect(loadConfig(tmpDir).Server.Listen).To(Equal(":7000"))
		data, err := os.ReadFile(filepath.Join(dir, "session.json"))
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(Equal(`{"thread_id":"thread_1"}`))
	})

	Describe("--preset with provider presets", func() {
		It("creates config.toml with the openai preset", func() {
			Expect(execute("--preset", "openai")).To(Succeed())

			cfg := loadConfig(tmpDir)
			Expect(cfg.Provider.Type).To(Equal("openai"))
			Expect(cfg.Provider.Endpoint).To(Equal("https://api.openai.com/v1"))
		})

		It("overwrites the config when re-run with another preset", func() {
			Expect(execute("--preset", "openai")).To(Succeed())
			Expect(execute("--preset", "azure")).To(Succeed())
			Expect(loadConfig(tmpDir).Provider.Type).To(Equal("azure"))
		})

		It("rejects unknown preset names and creates nothing", func() {
			err := execute("--preset", "anthropic")
			Expect(err).To(MatchError(ContainSubstring("unknown preset")))
			Expect(filepath.Join(tmpDir, ".switchboard")).NotTo(BeADirectory())
		})
	})

	Describe("--preset with remote URL", func() {
		It("fetches and writes remote config.toml", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				fmt.Fprint(w, `version = 0

[provider]
type = "openai"
endpoint = "https://api.openai.com/v1"
deployment = "gpt-4o-mini"

[run]
timeout = "45s"
`)
			}))
			defer server.Close()

			Expect(execute("--preset", server.URL)).To(Succeed())

			cfg := loadConfig(tmpDir)
			Expect(cfg.Provider.Type).To(Equal("openai"))
			Expect(cfg.Provider.Deployment).To(Equal("gpt-4o-mini"))
			Expect(cfg.Run.Timeout).To(Equal("45s"))
		})

		It("returns error for non-200 HTTP response", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusNotFound)
			}))
			defer server.Close()

			Expect(execute("--preset", server.URL)).To(MatchError(ContainSubstring("HTTP 404")))
		})

		It("returns error for invalid TOML from URL", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				fmt.Fprint(w, "this is not valid toml [[[")
			}))
			defer server.Close()

			Expect(execute("--preset", server.URL)).To(MatchError(ContainSubstring("parsing")))
		})

		It("returns error for unreachable URL", func() {
			Expect(execute("--preset", "http://127.0.0.1:1")).To(MatchError(ContainSubstring("fetching remote config")))
		})
	})
})

// loadConfig reads and parses the config.toml from the .switchboard
// directory within the given base directory.
func loadConfig(baseDir string) *config.Config {
	data, err := os.ReadFile(filepath.Join(baseDir, ".switchboard", "config.toml"))
	ExpectWithOffset(1, err).NotTo(HaveOccurred())

	cfg := &config.Config{}
	ExpectWithOffset(1, toml.Unmarshal(data, cfg)).To(Succeed())
	return cfg
}
