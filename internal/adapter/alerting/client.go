package alerting

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

// maxErrorBody bounds how much of a failed response is surfaced as detail.
const maxErrorBody = 4 << 10

// Client calls the Alert Dispatch Service. It implements console.AlertService.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
}

// NewClient creates an Alert Dispatch Service client. Every call is bounded by timeout.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
	}
}

// AlertUsers posts the alert request. Any 2xx status is success and the body
// is ignored; otherwise the body text is returned inside a *domain.StatusError.
func (c *Client) AlertUsers(ctx context.Context, alert domain.AlertRequest) error {
	body, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("encode alert request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/alertUsers", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: alert request: %w", domain.ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &domain.StatusError{
			Service: "alert dispatch service",
			Code:    resp.StatusCode,
			Body:    strings.TrimSpace(string(msg)),
		}
	}

	// Drain so the connection can be reused.
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))

	c.logger.Debug("alert dispatched",
		"id", alert.ID,
		"segment_id", alert.SegmentID,
		"status", resp.StatusCode,
	)
	return nil
}
