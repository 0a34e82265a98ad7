package transport

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/storeconnect/crm-messaging/internal/apperrors"
)

type captureSender struct {
	got []Message
}

func (s *captureSender) Send(_ context.Context, msg Message) error {
	s.got = append(s.got, msg)
	return nil
}

func TestMuxRoutesByChannel(t *testing.T) {
	email := &captureSender{}
	sms := &captureSender{}
	m := NewMux()
	m.Register("email", email)
	m.Register("sms", sms)

	if err := m.Send(context.Background(), "sms", Message{Recipient: "+254700000000", Body: "hi"}); err != nil {
		t.Fatal(err)
	}
	if len(sms.got) != 1 || len(email.got) != 0 {
		t.Errorf("expected the sms sender to receive the message, got sms=%d email=%d", len(sms.got), len(email.got))
	}
}

func TestMuxUnknownChannel(t *testing.T) {
	m := NewMux()
	err := m.Send(context.Background(), "pigeon", Message{})
	if !errors.Is(err, apperrors.ErrNotImplemented) {
		t.Errorf("expected ErrNotImplemented for unregistered channel, got %v", err)
	}
}

func TestMuxRegisterOverwrites(t *testing.T) {
	old := &captureSender{}
	m := NewMux()
	m.Register("email", old)
	m.Register("email", &LogSender{Channel: "email", Log: zerolog.Nop()})

	if err := m.Send(context.Background(), "email", Message{Recipient: "a@b.c"}); err != nil {
		t.Fatal(err)
	}
	if len(old.got) != 0 {
		t.Error("overwritten sender must not receive messages")
	}
}
