// Package teams delivers adaptive card messages to a Microsoft Teams
// incoming webhook.
package teams

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/papercomputeco/switchboard/pkg/metrics"
)

// ContentTypeAdaptiveCard is the attachment content type Teams renders as a card.
const ContentTypeAdaptiveCard = "application/vnd.microsoft.card.adaptive"

const defaultTimeout = 10 * time.Second

// ErrNotConfigured is returned by Post when no webhook URL is set.
var ErrNotConfigured = errors.New("teams webhook URL is not configured")

// Policy decides what Deliver does with a failed Post.
type Policy int

const (
	// LogAndContinue logs delivery failures and reports success to the caller.
	LogAndContinue Policy = iota

	// Propagate returns delivery failures to the caller.
	Propagate
)

// StatusError is returned when the webhook answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("teams webhook returned status %d: %s", e.StatusCode, e.Body)
}

// Payload is the webhook request body.
type Payload struct {
	Attachments []Attachment `json:"attachments"`
}

// Attachment is a single card attachment.
type Attachment struct {
	ContentType string `json:"contentType"`
	Content     string `json:"content"`
}

// NewPayload wraps text in a single adaptive card attachment.
func NewPayload(text string) Payload {
	return Payload{
		Attachments: []Attachment{
			{ContentType: ContentTypeAdaptiveCard, Content: text},
		},
	}
}

// Config configures a Notifier.
type Config struct {
	// URL is the incoming webhook URL. Empty disables delivery.
	URL string

	// Timeout bounds each POST. Defaults to 10s.
	Timeout time.Duration

	// Policy defaults to LogAndContinue.
	Policy Policy

	Logger *zap.Logger
}

// Notifier posts cards to a Teams webhook.
type Notifier struct {
	config     Config
	httpClient *http.Client
	logger     *zap.Logger
}

// NewNotifier creates a new Notifier.
func NewNotifier(c Config) *Notifier {
	if c.Timeout == 0 {
		c.Timeout = defaultTimeout
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}

	return &Notifier{
		config: c,
		httpClient: &http.Client{
			Timeout: c.Timeout,
		},
		logger: c.Logger,
	}
}

// Enabled reports whether a webhook URL is configured.
func (n *Notifier) Enabled() bool {
	return n.config.URL != ""
}

// Post sends text as a card and returns any transport or status error.
func (n *Notifier) Post(ctx context.Context, text string) error {
	if !n.Enabled() {
		return ErrNotConfigured
	}

	body, err := json.Marshal(NewPayload(text))
	if err != nil {
		return fmt.Errorf("encoding teams payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.config.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating teams request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("posting to teams webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &StatusError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	return nil
}

// Deliver posts text and applies the configured Policy to failures.
func (n *Notifier) Deliver(ctx context.Context, text string) error {
	err := n.Post(ctx, text)
	if err == nil {
		metrics.WebhookDeliveriesTotal.WithLabelValues(metrics.DeliveryDelivered).Inc()
		n.logger.Info("message sent to teams")
		return nil
	}

	if errors.Is(err, ErrNotConfigured) {
		metrics.WebhookDeliveriesTotal.WithLabelValues(metrics.DeliverySkipped).Inc()
	} else {
		metrics.WebhookDeliveriesTotal.WithLabelValues(metrics.DeliveryFailed).Inc()
	}

	if n.config.Policy == Propagate {
		return err
	}

	n.logger.Error("failed to send message to teams", zap.Error(err))
	return nil
}
