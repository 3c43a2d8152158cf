// Package chatcmder provides the chat command for talking to a running
// switchboard server from the terminal.
package chatcmder

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"charm.land/lipgloss/v2"
	"github.com/spf13/cobra"

	"github.com/papercomputeco/switchboard/pkg/cliui"
	"github.com/papercomputeco/switchboard/pkg/config"
	"github.com/papercomputeco/switchboard/pkg/dotdir"
	"github.com/papercomputeco/switchboard/pkg/logger"
	"github.com/papercomputeco/switchboard/pkg/utils"
)

const chatPath = "/api/chatbotapi"

var (
	userPrompt      = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Bold(true).Render("you> ")
	assistantPrompt = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Render("assistant> ")
)

type chatCommander struct {
	target    string
	configDir string
	newThread bool
	logFile   string
	debug     bool

	in  io.Reader
	out io.Writer

	dotdir *dotdir.Manager
	client *http.Client
	logger *slog.Logger
}

// turnRequest is the body of POST /api/chatbotapi.
type turnRequest struct {
	Role     string `json:"role"`
	Content  string `json:"content"`
	ThreadID string `json:"threadId,omitempty"`
}

// turnResponse is the server's answer to a turn.
type turnResponse struct {
	ThreadID  string   `json:"threadId"`
	Answer    string   `json:"answer"`
	Citations []string `json:"citations"`
}

const chatLongDesc string = `Start an interactive chat session with a running switchboard server.

Each line you enter is sent as a user turn. The thread returned by the server
is remembered in the .switchboard/ directory so the next "switchboard chat"
continues the same conversation. Pass --new to start a fresh thread.

Examples:
  switchboard chat
  switchboard chat --target http://switchboard.internal:8080
  switchboard chat --new`

const chatShortDesc string = "Interactive chat with a switchboard server"

func NewChatCmd() *cobra.Command {
	cmder := &chatCommander{}

	cmd := &cobra.Command{
		Use:   "chat",
		Short: chatShortDesc,
		Long:  chatLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")
			v, err := config.InitViper(cmder.configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			config.BindRegisteredFlags(v, cmd, config.Registry, []string{config.FlagTarget})
			cmder.target = strings.TrimRight(v.GetString("client.target"), "/")
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmder.debug, _ = cmd.Flags().GetBool("debug")
			cmder.in = cmd.InOrStdin()
			cmder.out = cmd.OutOrStdout()
			return cmder.run(cmd.Context())
		},
	}

	config.AddStringFlag(cmd, config.Registry, config.FlagTarget, &cmder.target)
	cmd.Flags().BoolVar(&cmder.newThread, "new", false, "Start a new thread instead of resuming the last one")
	cmd.Flags().StringVar(&cmder.logFile, "log-file", "", "Also write JSON logs to this file")

	return cmd
}

func (c *chatCommander) run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	closeLog, err := c.initLogger()
	if err != nil {
		return err
	}
	defer closeLog()

	c.dotdir = dotdir.NewManager()
	c.client = &http.Client{
		// Runs are polled server side and can take a while.
		Timeout: 5 * time.Minute,
	}

	threadID, err := c.resumeThread()
	if err != nil {
		return err
	}

	fmt.Fprintln(c.out)
	if threadID != "" {
		fmt.Fprintf(c.out, "  %s Resuming thread %s\n",
			cliui.SuccessMark,
			cliui.NameStyle.Render(utils.Truncate(threadID, 24)),
		)
	} else {
		fmt.Fprintf(c.out, "  %s New conversation\n", cliui.DimStyle.Render("●"))
	}
	fmt.Fprintf(c.out, "  %s %s\n\n",
		cliui.KeyStyle.Render("Server:"),
		cliui.ValueStyle.Render(c.target),
	)
	fmt.Fprintf(c.out, "  %s\n\n", cliui.DimStyle.Render("Type your message and press Enter. /new starts a new thread, /exit or Ctrl+D quits."))

	scanner := bufio.NewScanner(c.in)
	for {
		fmt.Fprint(c.out, userPrompt)
		if !scanner.Scan() {
			break
		}

		input := strings.TrimSpace(scanner.Text())
		switch input {
		case "":
			continue
		case "/exit":
			fmt.Fprintln(c.out)
			return nil
		case "/new":
			threadID = ""
			if err := c.dotdir.ClearSession(c.configDir); err != nil {
				return fmt.Errorf("clearing session: %w", err)
			}
			fmt.Fprintf(c.out, "  %s New conversation\n\n", cliui.DimStyle.Render("●"))
			continue
		}

		var resp *turnResponse
		err := cliui.Step(c.out, "Waiting for the assistant", func() error {
			var sendErr error
			resp, sendErr = c.sendTurn(ctx, turnRequest{
				Role:     "user",
				Content:  input,
				ThreadID: threadID,
			})
			return sendErr
		})
		if err != nil {
			fmt.Fprintf(c.out, "  %s %v\n\n", cliui.FailMark, err)
			continue
		}

		threadID = resp.ThreadID
		if err := c.dotdir.SaveSession(&dotdir.SessionState{
			ThreadID:  threadID,
			Target:    c.target,
			UpdatedAt: time.Now().UTC(),
		}, c.configDir); err != nil {
			c.logger.Warn("failed to save session", "error", err)
		}

		c.printAnswer(resp)
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	fmt.Fprintln(c.out)
	return nil
}

// resumeThread returns the saved thread for this server, or "" when starting
// fresh.
func (c *chatCommander) resumeThread() (string, error) {
	if c.newThread {
		if err := c.dotdir.ClearSession(c.configDir); err != nil {
			return "", fmt.Errorf("clearing session: %w", err)
		}
		return "", nil
	}

	session, err := c.dotdir.LoadSession(c.configDir)
	if err != nil {
		return "", fmt.Errorf("loading session: %w", err)
	}
	if session == nil {
		return "", nil
	}
	if session.Target != "" && session.Target != c.target {
		c.logger.Debug("saved thread belongs to another server",
			"saved_target", session.Target,
			"target", c.target,
		)
		return "", nil
	}
	return session.ThreadID, nil
}

func (c *chatCommander) initLogger() (func(), error) {
	pretty := logger.New(
		logger.WithPretty(true),
		logger.WithDebug(c.debug),
		logger.WithWriter(os.Stderr),
	)

	if c.logFile == "" {
		c.logger = pretty
		return func() {}, nil
	}

	f, err := os.OpenFile(c.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}

	c.logger = logger.Multi(pretty, logger.New(
		logger.WithJSON(true),
		logger.WithDebug(true),
		logger.WithWriter(f),
	))
	return func() { _ = f.Close() }, nil
}

// sendTurn posts one turn and decodes the answer.
func (c *chatCommander) sendTurn(ctx context.Context, req turnRequest) (*turnResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	c.logger.Debug("sending turn",
		"target", c.target,
		"thread_id", req.ThreadID,
	)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.target+chatPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("sending turn: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("server returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	out := &turnResponse{}
	if err := json.Unmarshal(respBody, out); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	c.logger.Debug("turn answered",
		"thread_id", out.ThreadID,
		"citations", len(out.Citations),
	)
	return out, nil
}

func (c *chatCommander) printAnswer(resp *turnResponse) {
	fmt.Fprintln(c.out, assistantPrompt)

	rendered, err := cliui.RenderMarkdown(resp.Answer)
	if err != nil {
		c.logger.Debug("failed to render markdown", "error", err)
	}
	fmt.Fprint(c.out, rendered)

	if len(resp.Citations) > 0 {
		fmt.Fprintf(c.out, "  %s\n", cliui.KeyStyle.Render("Sources:"))
		for i, name := range resp.Citations {
			fmt.Fprintf(c.out, "  %s %s\n",
				cliui.DimStyle.Render(fmt.Sprintf("[%d]", i)),
				cliui.ValueStyle.Render(name),
			)
		}
	}
	fmt.Fprintln(c.out)
}
