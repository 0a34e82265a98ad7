package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/storeconnect/crm-messaging/internal/config"
	"github.com/storeconnect/crm-messaging/internal/db"
	"github.com/storeconnect/crm-messaging/internal/events"
	"github.com/storeconnect/crm-messaging/internal/logger"
	"github.com/storeconnect/crm-messaging/internal/model"
	"github.com/storeconnect/crm-messaging/internal/repository"
	"github.com/storeconnect/crm-messaging/internal/service"
	"github.com/storeconnect/crm-messaging/internal/transport"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}

	log, err := logger.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}

	conn, err := db.Open(cfg.DSN())
	if err != nil {
		log.Fatal().Err(err).Msg("connect to database")
	}
	defer conn.Close()

	messageRepo := &repository.MessageRepository{DB: conn}
	templateRepo := &repository.TemplateRepository{DB: conn}
	consentRepo := &repository.ConsentRepository{DB: conn}

	mux := transport.NewMux()
	if cfg.SMTP.Host != "" {
		emailSender, err := transport.NewSMTPSender(transport.SMTPConfig{
			Host: cfg.SMTP.Host,
			Port: cfg.SMTP.Port,
			User: cfg.SMTP.User,
			Pass: cfg.SMTP.Pass,
			From: cfg.SMTP.From,
		}, log)
		if err != nil {
			log.Fatal().Err(err).Msg("configure smtp sender")
		}
		mux.Register(model.ChannelEmail, emailSender)
	} else {
		mux.Register(model.ChannelEmail, &transport.LogSender{Channel: model.ChannelEmail, Log: log})
	}
	mux.Register(model.ChannelSMS, &transport.LogSender{Channel: model.ChannelSMS, Log: log})
	mux.Register(model.ChannelWhatsApp, &transport.LogSender{Channel: model.ChannelWhatsApp, Log: log})

	var publisher events.Publisher = events.NoopPublisher{}
	if cfg.AMQP.URL != "" {
		p, err := events.NewAMQPPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange)
		if err != nil {
			log.Fatal().Err(err).Msg("connect to broker")
		}
		defer p.Close()
		publisher = p
	}

	dispatcher := service.NewDispatcher(messageRepo, templateRepo, consentRepo, mux, publisher, log)
	dispatcher.BatchSize = cfg.Dispatch.BatchSize
	dispatcher.SendTimeout = cfg.Dispatch.SendTimeout

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().Dur("interval", cfg.Dispatch.Interval).Msg("dispatcher running")

	ticker := time.NewTicker(cfg.Dispatch.Interval)
	defer ticker.Stop()

	runCycle(ctx, dispatcher, messageRepo, cfg.Dispatch.StuckAfter, log)
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("dispatcher shutting down")
			return
		case <-ticker.C:
			runCycle(ctx, dispatcher, messageRepo, cfg.Dispatch.StuckAfter, log)
		}
	}
}

func runCycle(ctx context.Context, d *service.Dispatcher, repo *repository.MessageRepository, stuckAfter time.Duration, log zerolog.Logger) {
	if released, err := repo.ReleaseStuck(stuckAfter); err != nil {
		log.Error().Err(err).Msg("release stuck messages")
	} else if released > 0 {
		log.Warn().Int64("released", released).Msg("returned stuck messages to the queue")
	}

	if _, err := d.ProcessQueue(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("dispatch cycle failed")
	}
}
