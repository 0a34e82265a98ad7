package transport

import (
	"context"

	"github.com/rs/zerolog"
)

// LogSender logs instead of sending. Default backend for channels without a
// configured provider (sms, whatsapp) in development.
type LogSender struct {
	Channel string
	Log     zerolog.Logger
}

func (s *LogSender) Send(_ context.Context, msg Message) error {
	s.Log.Info().
		Str("channel", s.Channel).
		Str("to", msg.Recipient).
		Str("body", msg.Body).
		Msg("mock delivery")
	return nil
}
