// Package initcmder provides the init command for initializing a local
// .switchboard directory in the current working directory.
package initcmder

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/switchboard/pkg/config"
)

const (
	dirName = ".switchboard"

	fetchTimeout = 30 * time.Second
)

const initLongDesc string = `Initialize a new .switchboard/ directory in the current working directory.

Creates a local .switchboard/ directory that takes precedence over the default
~/.switchboard/ directory for configuration and chat session state, and
writes a config.toml.

Use --preset to seed the config for a provider ("azure" or "openai") or to
fetch a shared config.toml from an http(s) URL.

Examples:
  switchboard init
  switchboard init --preset openai
  switchboard init --preset https://config.example.com/switchboard.toml`

const initShortDesc string = "Initialize a local .switchboard/ directory"

type initCommander struct {
	preset string
}

func NewInitCmd() *cobra.Command {
	cmder := &initCommander{}

	cmd := &cobra.Command{
		Use:   "init",
		Short: initShortDesc,
		Long:  initLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.run(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&cmder.preset, "preset", "",
		fmt.Sprintf("Provider preset (%s) or URL of a config.toml", strings.Join(config.ValidPresetNames(), ", ")))

	return cmd
}

func (c *initCommander) run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	// Resolve the config before touching the filesystem so a bad preset
	// leaves nothing behind.
	cfg, err := c.resolveConfig(ctx)
	if err != nil {
		return err
	}

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	dir := filepath.Join(cwd, dirName)

	info, statErr := os.Stat(dir)
	exists := statErr == nil && info.IsDir()
	if !exists {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating .switchboard directory: %w", err)
		}
	}

	cfger, err := config.NewConfiger(dir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	configPath := cfger.GetTarget()
	_, configErr := os.Stat(configPath)
	if c.preset != "" || configErr != nil {
		if err := cfger.SaveConfig(cfg); err != nil {
			return err
		}
	}

	if exists {
		fmt.Printf("Already initialized: %s\n", dir)
	} else {
		fmt.Printf("Initialized .switchboard directory: %s\n", dir)
	}
	return nil
}

// resolveConfig returns the config to write: defaults, a named preset, or a
// remote config.toml.
func (c *initCommander) resolveConfig(ctx context.Context) (*config.Config, error) {
	switch {
	case c.preset == "":
		return config.NewDefaultConfig(), nil

	case strings.HasPrefix(c.preset, "http://") || strings.HasPrefix(c.preset, "https://"):
		return fetchConfig(ctx, c.preset)

	default:
		return config.PresetConfig(c.preset)
	}
}

func fetchConfig(ctx context.Context, url string) (*config.Config, error) {
	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("fetching remote config: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching remote config: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching remote config: HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading remote config: %w", err)
	}

	return config.ParseConfigTOML(data)
}
