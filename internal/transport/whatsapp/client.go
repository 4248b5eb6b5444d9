// Package whatsapp delivers messages over a Twilio-compatible WhatsApp/SMS
// REST API. One Deliver call maps to one provider request; failed sends are
// terminal for that invocation. Retries are a user action, not a client one.
package whatsapp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/marketpulse/campaignhub/internal/config"
)

// HTTPDoer is the minimal HTTP client surface, for test substitution.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client is a WhatsApp/SMS provider API client.
type Client struct {
	baseURL    string
	accountSID string
	authToken  string
	fromNumber string
	httpClient HTTPDoer
}

// NewClient creates a WhatsApp transport client from config.
func NewClient(cfg config.WhatsAppConfig) *Client {
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		accountSID: cfg.AccountSID,
		authToken:  cfg.AuthToken,
		fromNumber: cfg.FromNumber,
		httpClient: &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second},
	}
}

// SetHTTPClient replaces the underlying HTTP client. Test hook.
func (c *Client) SetHTTPClient(doer HTTPDoer) { c.httpClient = doer }

type messageResponse struct {
	SID          string `json:"sid"`
	Status       string `json:"status"`
	ErrorCode    *int   `json:"error_code"`
	ErrorMessage string `json:"error_message"`
	Message      string `json:"message"` // error envelope on non-2xx
}

// Deliver sends body to the given E.164 number over the WhatsApp channel and
// returns the provider message SID.
func (c *Client) Deliver(ctx context.Context, to, body string) (string, error) {
	form := url.Values{}
	form.Set("From", "whatsapp:"+c.fromNumber)
	form.Set("To", "whatsapp:"+to)
	form.Set("Body", body)

	endpoint := fmt.Sprintf("%s/Accounts/%s/Messages.json", c.baseURL, c.accountSID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.SetBasicAuth(c.accountSID, c.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}

	var mr messageResponse
	if err := json.Unmarshal(respBody, &mr); err != nil {
		return "", fmt.Errorf("decoding response (status %d): %w", resp.StatusCode, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := mr.Message
		if msg == "" {
			msg = strings.TrimSpace(string(respBody))
		}
		return "", fmt.Errorf("provider error (status %d): %s", resp.StatusCode, msg)
	}
	if mr.ErrorCode != nil {
		return "", fmt.Errorf("provider error %d: %s", *mr.ErrorCode, mr.ErrorMessage)
	}

	return mr.SID, nil
}
