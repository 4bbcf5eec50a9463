package mail

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/motivatem3/server/internal/util"
)

const (
	sendGridEndpoint = "/v3/mail/send"
	senderName       = "MotivateM3"
)

type SendGrid struct {
	client *sendgrid.Client
	from   string
}

func NewSendGrid(apiKey, from string) *SendGrid {
	return &SendGrid{
		client: sendgrid.NewSendClient(apiKey),
		from:   from,
	}
}

func newSendGridWithHost(apiKey, from, host string) *SendGrid {
	req := sendgrid.GetRequest(apiKey, sendGridEndpoint, host)
	req.Method = "POST"
	return &SendGrid{
		client: &sendgrid.Client{Request: req},
		from:   from,
	}
}

func (s *SendGrid) Send(ctx context.Context, msg Message) error {
	message := sgmail.NewSingleEmail(
		sgmail.NewEmail(senderName, s.from),
		msg.Subject,
		sgmail.NewEmail("", msg.To),
		msg.Text,
		msg.HTML,
	)

	resp, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("sendgrid send: %w", err)
	}
	if resp.StatusCode >= 400 {
		log.Error().
			Str("to", util.MaskEmail(msg.To)).
			Int("status", resp.StatusCode).
			Msg("sendgrid rejected message")
		return fmt.Errorf("sendgrid send: status %d", resp.StatusCode)
	}

	log.Info().
		Str("to", util.MaskEmail(msg.To)).
		Int("status", resp.StatusCode).
		Msg("email sent")
	return nil
}
