// Package apiclient runs JSON requests against third-party HTTP APIs using fiber's client.
package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
)

// DefaultTimeout bounds a request when the context carries no earlier deadline.
const DefaultTimeout = 30 * time.Second

const maxErrorBody = 512

// StatusError is returned when an API answers with a non-2xx status.
type StatusError struct {
	Service string
	Status  int
	Body    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d: %s", e.Service, e.Status, e.Body)
}

// Do sends the request prepared in agent and decodes a JSON response into out.
// out may be nil. The agent must not be used after Do returns.
func Do(ctx context.Context, service string, agent *fiber.Agent, out any) error {
	timeout, err := timeoutFor(ctx)
	if err != nil {
		fiber.ReleaseAgent(agent)
		return fmt.Errorf("%s: %w", service, err)
	}

	code, body, errs := agent.Timeout(timeout).Bytes()
	if len(errs) > 0 {
		return fmt.Errorf("%s: %w", service, errors.Join(errs...))
	}
	if code < fiber.StatusOK || code >= fiber.StatusMultipleChoices {
		if len(body) > maxErrorBody {
			body = body[:maxErrorBody]
		}
		return &StatusError{Service: service, Status: code, Body: string(body)}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%s: decode response: %w", service, err)
	}
	return nil
}

func timeoutFor(ctx context.Context) (time.Duration, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if deadline, ok := ctx.Deadline(); ok {
		if d := time.Until(deadline); d < DefaultTimeout {
			return d, nil
		}
	}
	return DefaultTimeout, nil
}
