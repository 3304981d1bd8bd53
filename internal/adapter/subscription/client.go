package subscription

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/couchcryptid/flood-alert-dashboard/internal/domain"
)

// maxErrorBody bounds how much of a failed response is kept for logs.
const maxErrorBody = 4 << 10

// Client calls the Subscription Service.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
}

// NewClient creates a Subscription Service client. Every call is bounded by timeout.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
	}
}

// Subscribe posts the form and returns the identity record found under the
// response's "data" field. The returned record is the service's, not the form.
func (c *Client) Subscribe(ctx context.Context, form domain.SubscriptionForm) (domain.Identity, error) {
	body, err := json.Marshal(form)
	if err != nil {
		return domain.Identity{}, fmt.Errorf("encode subscription: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/subscribe", bytes.NewReader(body))
	if err != nil {
		return domain.Identity{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.Identity{}, fmt.Errorf("%w: subscribe request: %w", domain.ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return domain.Identity{}, &domain.StatusError{
			Service: "subscription service",
			Code:    resp.StatusCode,
			Body:    strings.TrimSpace(string(msg)),
		}
	}

	var envelope response
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return domain.Identity{}, fmt.Errorf("%w: decode response: %w", domain.ErrProtocol, err)
	}
	if envelope.Data == nil {
		return domain.Identity{}, fmt.Errorf("%w: response has no data field", domain.ErrProtocol)
	}
	if err := envelope.Data.Validate(); err != nil {
		return domain.Identity{}, fmt.Errorf("%w: %w", domain.ErrProtocol, err)
	}

	c.logger.Debug("subscription accepted", "mail", envelope.Data.Mail)
	return *envelope.Data, nil
}

// Subscription Service response types.

type response struct {
	Data *domain.Identity `json:"data"`
}
