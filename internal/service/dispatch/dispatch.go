package dispatch

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/marketpulse/campaignhub/internal/domain"
	"github.com/marketpulse/campaignhub/internal/personalize"
	"github.com/marketpulse/campaignhub/internal/pkg/logger"
)

// Sentinel errors for the dispatcher.
var (
	ErrBadChannel  = errors.New("channel must be whatsapp or email")
	ErrNoTemplate  = errors.New("template is required")
	ErrNoAudience  = errors.New("no customers to send to")
	ErrNoTransport = errors.New("no transport configured for channel")
)

// WhatsAppTransport delivers one WhatsApp message and returns the
// provider's message id.
type WhatsAppTransport interface {
	Deliver(ctx context.Context, to, body string) (string, error)
}

// EmailTransport delivers one email and returns the provider's message id.
type EmailTransport interface {
	Send(ctx context.Context, to, subject, htmlBody string) (string, error)
}

// LogStore appends delivery log rows.
type LogStore interface {
	Append(ctx context.Context, l *domain.DeliveryLog) error
}

// CustomerSource resolves dispatch targets.
type CustomerSource interface {
	Get(ctx context.Context, userID, id string) (*domain.Customer, error)
	ListEligible(ctx context.Context, userID string, limit int) ([]domain.Customer, error)
}

// Service is the message dispatcher.
type Service struct {
	whatsapp      WhatsAppTransport
	email         EmailTransport
	logs          LogStore
	customers     CustomerSource
	audienceLimit int
	now           func() time.Time
}

// NewService creates a dispatcher. Either transport may be nil; sending
// on a channel without a transport fails with ErrNoTransport.
func NewService(wa WhatsAppTransport, em EmailTransport, logs LogStore, customers CustomerSource, audienceLimit int) *Service {
	if audienceLimit <= 0 {
		audienceLimit = 1000
	}
	return &Service{
		whatsapp:      wa,
		email:         em,
		logs:          logs,
		customers:     customers,
		audienceLimit: audienceLimit,
		now:           time.Now,
	}
}

// Input describes one dispatch run. If CustomerIDs is empty the whole
// eligible pool is targeted. CampaignID and Subject are optional;
// Subject only applies to email.
type Input struct {
	Channel     domain.Channel `json:"channel"`
	Template    string         `json:"template"`
	Subject     string         `json:"subject"`
	CustomerIDs []string       `json:"customer_ids"`
	CampaignID  *string        `json:"campaign_id"`
}

// Detail records the outcome for one customer in a run.
type Detail struct {
	CustomerID string                `json:"customer_id"`
	Recipient  string                `json:"recipient"`
	Status     domain.DeliveryStatus `json:"status"`
	Error      string                `json:"error,omitempty"`
	MessageID  string                `json:"message_id,omitempty"`
}

// Result is the aggregate tally of one dispatch run.
type Result struct {
	Total    int      `json:"total"`
	Sent     int      `json:"sent"`
	Failed   int      `json:"failed"`
	OptedOut int      `json:"opted_out"`
	Details  []Detail `json:"details"`
}

// Send runs one dispatch. Customers are processed sequentially; each
// attempt is logged, and a per-customer failure moves on to the next
// customer. There are no retries; a failed send is terminal for this run.
func (s *Service) Send(ctx context.Context, userID string, input Input) (*Result, error) {
	if !input.Channel.Valid() {
		return nil, ErrBadChannel
	}
	if input.Template == "" {
		return nil, ErrNoTemplate
	}

	targets, err := s.resolveTargets(ctx, userID, input.CustomerIDs)
	if err != nil {
		return nil, err
	}
	if len(targets) == 0 {
		return nil, ErrNoAudience
	}

	res := &Result{Total: len(targets)}
	for i := range targets {
		d := s.sendOne(ctx, userID, &targets[i], input)
		switch d.Status {
		case domain.DeliverySent:
			res.Sent++
		case domain.DeliveryOptOut:
			res.OptedOut++
		default:
			res.Failed++
		}
		res.Details = append(res.Details, d)
	}

	logger.Info("dispatch finished",
		"user_id", userID, "channel", string(input.Channel),
		"total", res.Total, "sent", res.Sent,
		"failed", res.Failed, "opted_out", res.OptedOut)
	return res, nil
}

func (s *Service) resolveTargets(ctx context.Context, userID string, ids []string) ([]domain.Customer, error) {
	if len(ids) == 0 {
		return s.customers.ListEligible(ctx, userID, s.audienceLimit)
	}
	out := make([]domain.Customer, 0, len(ids))
	for _, id := range ids {
		c, err := s.customers.Get(ctx, userID, id)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, nil
}

// sendOne personalizes, delivers, and logs one attempt. Opted-out
// customers are logged without touching the transport.
func (s *Service) sendOne(ctx context.Context, userID string, c *domain.Customer, input Input) Detail {
	recipient := s.recipient(c, input.Channel)
	d := Detail{CustomerID: c.ID, Recipient: recipient}

	if c.OptOut {
		d.Status = domain.DeliveryOptOut
		s.log(ctx, userID, c, input, d)
		return d
	}

	body := personalize.Render(input.Template, c) + personalize.Footer(input.Channel)

	var msgID string
	var err error
	switch input.Channel {
	case domain.ChannelWhatsApp:
		if s.whatsapp == nil {
			err = ErrNoTransport
		} else {
			msgID, err = s.whatsapp.Deliver(ctx, recipient, body)
		}
	case domain.ChannelEmail:
		if s.email == nil {
			err = ErrNoTransport
		} else {
			subject := input.Subject
			if subject == "" {
				subject = "A message from our team"
			}
			msgID, err = s.email.Send(ctx, recipient, subject, body)
		}
	}

	if err != nil {
		d.Status = domain.DeliveryFailed
		d.Error = err.Error()
		logger.Warn("delivery failed",
			"user_id", userID, "customer_id", c.ID,
			"channel", string(input.Channel), "error", err.Error())
	} else {
		d.Status = domain.DeliverySent
		d.MessageID = msgID
	}

	s.log(ctx, userID, c, input, d)
	return d
}

func (s *Service) recipient(c *domain.Customer, ch domain.Channel) string {
	if ch == domain.ChannelWhatsApp {
		return c.Phone
	}
	return c.Email
}

func (s *Service) log(ctx context.Context, userID string, c *domain.Customer, input Input, d Detail) {
	customerID := c.ID
	entry := &domain.DeliveryLog{
		ID:                uuid.New().String(),
		UserID:            userID,
		CampaignID:        input.CampaignID,
		CustomerID:        &customerID,
		Channel:           input.Channel,
		Recipient:         d.Recipient,
		Message:           personalize.Render(input.Template, c),
		Status:            d.Status,
		ErrorMessage:      d.Error,
		ProviderMessageID: d.MessageID,
		CreatedAt:         s.now(),
	}
	if err := s.logs.Append(ctx, entry); err != nil {
		// the log row is best-effort; the send outcome stands
		logger.Warn("delivery log append failed",
			"user_id", userID, "customer_id", c.ID, "error", err.Error())
	}
}
