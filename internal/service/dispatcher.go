package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog"

	"github.com/storeconnect/crm-messaging/internal/events"
	"github.com/storeconnect/crm-messaging/internal/model"
	"github.com/storeconnect/crm-messaging/internal/repository"
	"github.com/storeconnect/crm-messaging/internal/transport"
)

// ErrDispatchRunning is returned when a cycle is started while the previous
// one is still draining.
var ErrDispatchRunning = errors.New("dispatch cycle already running")

// ChannelSender routes a rendered message to the channel's backend.
type ChannelSender interface {
	Send(ctx context.Context, channel string, msg transport.Message) error
}

// DispatchResult summarizes one ProcessQueue cycle.
type DispatchResult struct {
	Claimed int `json:"claimed"`
	Sent    int `json:"sent"`
	Retried int `json:"retried"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
}

// Dispatcher drains due queue items: consent gate, template resolution,
// delivery, status bookkeeping. Per-item errors never abort the batch.
type Dispatcher struct {
	Messages  repository.MessageRepositoryInterface
	Templates repository.TemplateRepositoryInterface
	Consents  repository.ConsentRepositoryInterface
	Transport ChannelSender
	Events    events.Publisher
	Log       zerolog.Logger

	BatchSize   int
	SendTimeout time.Duration

	running chan struct{}
}

func NewDispatcher(
	msgs repository.MessageRepositoryInterface,
	tmpls repository.TemplateRepositoryInterface,
	consents repository.ConsentRepositoryInterface,
	sender ChannelSender,
	pub events.Publisher,
	log zerolog.Logger,
) *Dispatcher {
	if pub == nil {
		pub = events.NoopPublisher{}
	}
	return &Dispatcher{
		Messages:    msgs,
		Templates:   tmpls,
		Consents:    consents,
		Transport:   sender,
		Events:      pub,
		Log:         log,
		BatchSize:   20,
		SendTimeout: 10 * time.Second,
		running:     make(chan struct{}, 1),
	}
}

// ProcessQueue runs one dispatch cycle. At most one cycle runs at a time per
// process; overlapping invocations get ErrDispatchRunning. Cancelling ctx
// stops between items, never mid-item.
func (d *Dispatcher) ProcessQueue(ctx context.Context) (DispatchResult, error) {
	select {
	case d.running <- struct{}{}:
		defer func() { <-d.running }()
	default:
		return DispatchResult{}, ErrDispatchRunning
	}

	var res DispatchResult

	batch, err := d.Messages.ClaimDue(d.BatchSize)
	if err != nil {
		return res, fmt.Errorf("claim due messages: %w", err)
	}
	res.Claimed = len(batch)

	for _, msg := range batch {
		if ctx.Err() != nil {
			// Shutdown: put the unprocessed remainder back in rotation.
			if mErr := d.Messages.MarkRetrying(msg.ID, time.Now()); mErr != nil {
				d.Log.Error().Err(mErr).Int64("message_id", msg.ID).Msg("release claimed message")
			}
			continue
		}
		d.processOne(ctx, msg, &res)
	}

	d.Log.Info().
		Int("claimed", res.Claimed).
		Int("sent", res.Sent).
		Int("retried", res.Retried).
		Int("failed", res.Failed).
		Int("skipped", res.Skipped).
		Msg("dispatch cycle complete")
	return res, ctx.Err()
}

func (d *Dispatcher) processOne(ctx context.Context, msg *model.OutboundMessage, res *DispatchResult) {
	defer func() {
		if r := recover(); r != nil {
			d.Log.Error().Int64("message_id", msg.ID).Any("panic", r).Msg("panic while dispatching message")
			d.recordFailure(msg, fmt.Sprintf("panic: %v", r), res)
		}
	}()

	// Consent gate. Messages without a contact (system/ad-hoc) bypass it.
	if msg.ContactID != nil {
		allowed, err := d.Consents.Allowed(*msg.ContactID, msg.Channel)
		if err != nil {
			d.recordFailure(msg, fmt.Sprintf("consent lookup: %v", err), res)
			return
		}
		if !allowed {
			// Policy skip, not a failure: terminal skipped state.
			if err := d.Messages.MarkSkipped(msg.ID, "consent denied"); err != nil {
				d.Log.Error().Err(err).Int64("message_id", msg.ID).Msg("mark skipped")
				return
			}
			res.Skipped++
			d.Log.Info().Int64("message_id", msg.ID).Str("channel", msg.Channel).Msg("skipped: consent denied")
			d.publish(msg, model.StatusSkipped, "consent denied")
			return
		}
	}

	rendered, err := d.render(msg)
	if err != nil {
		// Structural: retrying cannot fix a missing template or recipient.
		d.recordTerminalFailure(msg, err.Error(), res)
		return
	}

	sendCtx, cancel := context.WithTimeout(ctx, d.SendTimeout)
	err = d.Transport.Send(sendCtx, msg.Channel, rendered)
	cancel()
	if err != nil {
		d.recordFailure(msg, err.Error(), res)
		return
	}

	if err := d.Messages.MarkSent(msg.ID); err != nil {
		d.Log.Error().Err(err).Int64("message_id", msg.ID).Msg("mark sent")
		return
	}
	res.Sent++
	d.publish(msg, model.StatusSent, "")
}

func (d *Dispatcher) render(msg *model.OutboundMessage) (transport.Message, error) {
	recipient := msg.Payload["recipient"]
	if recipient == "" {
		return transport.Message{}, fmt.Errorf("no recipient in payload")
	}

	subject := msg.Payload["subject"]
	body := msg.Payload["body"]
	if msg.TemplateKey != nil {
		tmpl, err := d.Templates.GetByKey(*msg.TemplateKey)
		if err != nil {
			return transport.Message{}, fmt.Errorf("resolve template %q: %w", *msg.TemplateKey, err)
		}
		subject = tmpl.Subject
		body = tmpl.Body
	}
	if body == "" {
		return transport.Message{}, fmt.Errorf("message has neither template nor body")
	}

	return transport.Message{
		Recipient: recipient,
		Subject:   RenderTemplate(subject, msg.Payload),
		Body:      RenderTemplate(body, msg.Payload),
	}, nil
}

// recordFailure books a failed attempt and either schedules a retry with
// backoff or, when the budget is spent, fails the message for good.
func (d *Dispatcher) recordFailure(msg *model.OutboundMessage, errMsg string, res *DispatchResult) {
	updated, err := d.Messages.MarkFailed(msg.ID, errMsg)
	if err != nil {
		d.Log.Error().Err(err).Int64("message_id", msg.ID).Msg("mark failed")
		return
	}
	if updated.Exhausted() {
		if err := d.Messages.MarkTerminallyFailed(msg.ID); err != nil {
			d.Log.Error().Err(err).Int64("message_id", msg.ID).Msg("mark terminally failed")
			return
		}
		res.Failed++
		d.Log.Error().Int64("message_id", msg.ID).Str("error", errMsg).
			Int("attempts", updated.RetryCount).Msg("message permanently failed")
		d.publish(msg, model.StatusFailed, errMsg)
		return
	}

	next := time.Now().Add(retryDelay(updated.RetryCount))
	if err := d.Messages.MarkRetrying(msg.ID, next); err != nil {
		d.Log.Error().Err(err).Int64("message_id", msg.ID).Msg("mark retrying")
		return
	}
	res.Retried++
	d.Log.Warn().Int64("message_id", msg.ID).Str("error", errMsg).
		Int("attempts", updated.RetryCount).Time("next_attempt", next).Msg("delivery failed, will retry")
}

// recordTerminalFailure books the attempt and fails immediately, bypassing
// the retry budget. Used for structural errors that can never succeed.
func (d *Dispatcher) recordTerminalFailure(msg *model.OutboundMessage, errMsg string, res *DispatchResult) {
	if _, err := d.Messages.MarkFailed(msg.ID, errMsg); err != nil {
		d.Log.Error().Err(err).Int64("message_id", msg.ID).Msg("mark failed")
		return
	}
	if err := d.Messages.MarkTerminallyFailed(msg.ID); err != nil {
		d.Log.Error().Err(err).Int64("message_id", msg.ID).Msg("mark terminally failed")
		return
	}
	res.Failed++
	d.Log.Error().Int64("message_id", msg.ID).Str("error", errMsg).Msg("message structurally invalid")
	d.publish(msg, model.StatusFailed, errMsg)
}

func (d *Dispatcher) publish(msg *model.OutboundMessage, status, errMsg string) {
	ev := events.DeliveryEvent{
		MessageID: msg.ID,
		ContactID: msg.ContactID,
		Channel:   msg.Channel,
		Status:    status,
		Error:     errMsg,
		At:        time.Now(),
	}
	if err := d.Events.Publish(ev); err != nil {
		d.Log.Error().Err(err).Int64("message_id", msg.ID).Msg("publish delivery event")
	}
}

// retryDelay computes the backoff before attempt n+1: 500ms doubling, capped
// at 15 minutes.
func retryDelay(attempts int) time.Duration {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 500 * time.Millisecond
	bo.RandomizationFactor = 0
	bo.Multiplier = 2
	bo.MaxInterval = 15 * time.Minute

	delay := bo.NextBackOff()
	for i := 1; i < attempts; i++ {
		delay = bo.NextBackOff()
	}
	return delay
}
