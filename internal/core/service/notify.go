package service

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/mintworks/nftregistry-go/internal/core/domain"
)

// DefaultNotifyTimeout bounds a single webhook delivery.
const DefaultNotifyTimeout = 5 * time.Second

// NotifyConfig configures transfer-notification webhooks.
type NotifyConfig struct {
	// Endpoints maps a recipient identity to its webhook URL.
	Endpoints map[string]string `koanf:"endpoints"`

	// DefaultURL receives notifications for identities without a
	// dedicated endpoint. Empty disables the fallback.
	DefaultURL string `koanf:"default_url"`

	// Timeout bounds one delivery attempt.
	Timeout time.Duration `koanf:"timeout"`
}

// Notifier delivers fire-and-forget transfer notifications. Delivery
// happens strictly after the transfer has committed, the outcome is
// logged at debug level and otherwise discarded, and a failed
// delivery never affects the transfer result.
type Notifier struct {
	cfg     NotifyConfig
	client  *http.Client
	logger  *slog.Logger
	observe func(ok bool)
}

// SetObserver installs a delivery-outcome hook, used for metrics.
func (n *Notifier) SetObserver(fn func(ok bool)) {
	n.observe = fn
}

func (n *Notifier) observeOutcome(ok bool) {
	if n.observe != nil {
		n.observe(ok)
	}
}

// NewNotifier creates a notifier. A nil logger falls back to the
// default slog logger.
func NewNotifier(cfg NotifyConfig, logger *slog.Logger) *Notifier {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultNotifyTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

// notifyPayload is the webhook request body.
type notifyPayload struct {
	Caller  domain.Identity `json:"caller"`
	From    domain.Identity `json:"from"`
	TokenID uint64          `json:"token_id"`
	Data    []byte          `json:"data,omitempty"`
}

func (n *Notifier) endpointFor(to domain.Identity) string {
	if url, ok := n.cfg.Endpoints[string(to)]; ok {
		return url
	}
	return n.cfg.DefaultURL
}

// Notify delivers one notification synchronously. Callers dispatch it
// on a goroutine after commit.
func (n *Notifier) Notify(caller, from, to domain.Identity, tokenID uint64, data []byte) {
	url := n.endpointFor(to)
	if url == "" {
		n.logger.Debug("transfer notify skipped, no endpoint",
			"to", to.String(),
			"token_id", tokenID)
		return
	}

	body, err := json.Marshal(notifyPayload{
		Caller:  caller,
		From:    from,
		TokenID: tokenID,
		Data:    data,
	})
	if err != nil {
		n.logger.Debug("transfer notify encode failed", "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), n.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		n.logger.Debug("transfer notify request failed", "error", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		n.observeOutcome(false)
		n.logger.Debug("transfer notify delivery failed",
			"to", to.String(),
			"token_id", tokenID,
			"error", err)
		return
	}
	resp.Body.Close()

	n.observeOutcome(resp.StatusCode < 300)
	n.logger.Debug("transfer notify delivered",
		"to", to.String(),
		"token_id", tokenID,
		"status", resp.StatusCode)
}
