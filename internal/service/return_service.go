package service

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"time"

	"github.com/fairyhunter13/apparel-storefront/internal/model"
	"github.com/fairyhunter13/apparel-storefront/pkg/email"
)

// Mailer sends transactional email.
type Mailer interface {
	Send(ctx context.Context, msg email.Message) (string, error)
}

var returnRequestTemplate = template.Must(template.New("return_request").Parse(`<h2>New return request</h2>
<table>
  <tr><td><strong>Name</strong></td><td>{{.Name}}</td></tr>
  <tr><td><strong>Email</strong></td><td>{{.Email}}</td></tr>
  <tr><td><strong>Order number</strong></td><td>{{.OrderNumber}}</td></tr>
  <tr><td><strong>Submitted</strong></td><td>{{.Submitted}}</td></tr>
</table>
<h3>Reason</h3>
<p style="white-space: pre-wrap">{{.Reason}}</p>
`))

// ReturnService forwards customer return requests to the support inbox.
type ReturnService struct {
	mailer  Mailer
	limiter RateLimiter
	from    string
	support string
	now     func() time.Time
}

// NewReturnService creates a ReturnService sending from `from` to the support address.
func NewReturnService(mailer Mailer, limiter RateLimiter, from, support string) *ReturnService {
	return &ReturnService{
		mailer:  mailer,
		limiter: limiter,
		from:    from,
		support: support,
		now:     time.Now,
	}
}

// Submit sends a formatted return request email to the support address.
// Returns ErrRateLimited when ip exceeded its budget and ErrExternalService when the
// email API fails.
func (s *ReturnService) Submit(ctx context.Context, ip string, req *model.ReturnRequest) error {
	if req == nil {
		return ErrInvalidRequest
	}

	allowed, err := s.limiter.Allow(ctx, ip)
	if err != nil {
		return fmt.Errorf("rate limit: %w", err)
	}
	if !allowed {
		return ErrRateLimited
	}

	var body bytes.Buffer
	err = returnRequestTemplate.Execute(&body, struct {
		model.ReturnRequest
		Submitted string
	}{*req, s.now().UTC().Format(time.RFC1123)})
	if err != nil {
		return fmt.Errorf("render return request: %w", err)
	}

	_, err = s.mailer.Send(ctx, email.Message{
		From:    s.from,
		To:      []string{s.support},
		ReplyTo: req.Email,
		Subject: fmt.Sprintf("Return request for order %s", req.OrderNumber),
		HTML:    body.String(),
	})
	if err != nil {
		return fmt.Errorf("%w: send return request: %w", ErrExternalService, err)
	}
	return nil
}
