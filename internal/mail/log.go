package mail

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/motivatem3/server/internal/util"
)

// LogMailer writes messages to the log instead of delivering them.
type LogMailer struct {
	from string
}

func NewLogMailer(from string) *LogMailer {
	return &LogMailer{from: from}
}

func (m *LogMailer) Send(ctx context.Context, msg Message) error {
	log.Info().
		Str("from", m.from).
		Str("to", util.MaskEmail(msg.To)).
		Str("subject", msg.Subject).
		Msg("email not delivered (log mail provider)")

	log.Debug().
		Str("to", msg.To).
		Str("text", msg.Text).
		Msg("email body")
	return nil
}
