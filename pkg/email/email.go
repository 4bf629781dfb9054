// Package email sends transactional email through the Resend HTTP API.
package email

import (
	"context"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/fairyhunter13/apparel-storefront/pkg/apiclient"
)

// DefaultBaseURL is the production Resend API.
const DefaultBaseURL = "https://api.resend.com"

// Message is a single outgoing email.
type Message struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	ReplyTo string   `json:"reply_to,omitempty"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

type sendResponse struct {
	ID string `json:"id"`
}

// Client sends email with an API key.
type Client struct {
	baseURL string
	apiKey  string
}

// NewClient creates a Client. An empty baseURL selects DefaultBaseURL.
func NewClient(baseURL, apiKey string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{baseURL: baseURL, apiKey: apiKey}
}

// Send delivers msg and returns the provider's message id.
func (c *Client) Send(ctx context.Context, msg Message) (string, error) {
	if len(msg.To) == 0 {
		return "", fmt.Errorf("send email: no recipients")
	}

	agent := fiber.Post(c.baseURL + "/emails")
	agent.Set(fiber.HeaderAuthorization, "Bearer "+c.apiKey)
	agent.JSON(msg)

	var resp sendResponse
	if err := apiclient.Do(ctx, "resend", agent, &resp); err != nil {
		return "", fmt.Errorf("send email: %w", err)
	}
	return resp.ID, nil
}
