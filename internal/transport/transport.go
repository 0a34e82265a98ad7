// Package transport abstracts the per-channel delivery backends the
// dispatcher sends through.
package transport

import (
	"context"
	"fmt"
	"sync"

	"github.com/storeconnect/crm-messaging/internal/apperrors"
)

// Message is a rendered message ready for delivery.
type Message struct {
	Recipient string
	Subject   string
	Body      string
}

// Sender delivers a rendered message on one channel.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Mux routes a send to the Sender registered for the channel.
type Mux struct {
	mu      sync.RWMutex
	senders map[string]Sender
}

func NewMux() *Mux {
	return &Mux{senders: make(map[string]Sender)}
}

// Register binds a sender to a channel, overwriting any previous binding.
func (m *Mux) Register(channel string, s Sender) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.senders[channel] = s
}

// Send dispatches through the channel's sender.
func (m *Mux) Send(ctx context.Context, channel string, msg Message) error {
	m.mu.RLock()
	s, ok := m.senders[channel]
	m.mu.RUnlock()
	if !ok {
		return fmt.Errorf("transport: channel %q: %w", channel, apperrors.ErrNotImplemented)
	}
	return s.Send(ctx, msg)
}
