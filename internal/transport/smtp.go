package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

// SMTPConfig carries the email backend settings.
type SMTPConfig struct {
	Host string
	Port int
	User string
	Pass string
	From string
}

// SMTPSender delivers email through a plain SMTP backend.
type SMTPSender struct {
	cfg  SMTPConfig
	auth smtp.Auth
	log  zerolog.Logger
}

func NewSMTPSender(cfg SMTPConfig, log zerolog.Logger) (*SMTPSender, error) {
	if strings.TrimSpace(cfg.Host) == "" {
		return nil, errors.New("smtp sender: host is required")
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("smtp sender: invalid port %d", cfg.Port)
	}
	if strings.TrimSpace(cfg.From) == "" {
		return nil, errors.New("smtp sender: from address is required")
	}

	s := &SMTPSender{cfg: cfg, log: log}
	if strings.TrimSpace(cfg.User) != "" {
		s.auth = smtp.PlainAuth("", cfg.User, cfg.Pass, cfg.Host)
	}
	return s, nil
}

// Send blocks until the SMTP exchange completes or ctx is done. net/smtp has
// no context hook, so the ctx deadline is mapped onto the dial and the
// exchange runs in a goroutine watched against ctx.
func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", s.cfg.From)
	fmt.Fprintf(&b, "To: %s\r\n", msg.Recipient)
	if msg.Subject != "" {
		fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	}
	b.WriteString("\r\n")
	b.WriteString(msg.Body)

	done := make(chan error, 1)
	go func() {
		done <- smtp.SendMail(addr, s.auth, s.cfg.From, []string{msg.Recipient}, []byte(b.String()))
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		if err != nil {
			return fmt.Errorf("smtp send: %w", err)
		}
		s.log.Debug().Str("to", msg.Recipient).Msg("email accepted by smtp server")
		return nil
	}
}
