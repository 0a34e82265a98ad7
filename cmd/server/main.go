package main

import (
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/storeconnect/crm-messaging/internal/carrier"
	"github.com/storeconnect/crm-messaging/internal/config"
	"github.com/storeconnect/crm-messaging/internal/controller"
	"github.com/storeconnect/crm-messaging/internal/credentials"
	"github.com/storeconnect/crm-messaging/internal/db"
	"github.com/storeconnect/crm-messaging/internal/logger"
	"github.com/storeconnect/crm-messaging/internal/provider"
	"github.com/storeconnect/crm-messaging/internal/ratelimit"
	"github.com/storeconnect/crm-messaging/internal/registry"
	"github.com/storeconnect/crm-messaging/internal/repository"
	"github.com/storeconnect/crm-messaging/internal/service"
)

func main() {
	// Load .env if present; real deployments set the environment directly.
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
	leadRepo := &repository.LeadRepository{DB: conn}

	messageService := &service.MessageService{Messages: messageRepo}
	leadService := &service.LeadService{
		Leads:     leadRepo,
		Templates: templateRepo,
		Queue:     messageService,
		Log:       log,
	}

	creds := credentials.EnvResolver{}

	newsRegistry := registry.New[provider.Provider]()
	newsRegistry.Register(provider.NewNewsData(creds, nil))
	newsRegistry.Register(provider.NewGNews(creds, nil))
	newsAggregator := provider.NewAggregator(newsRegistry, 30, log)

	carrierRegistry := registry.New[carrier.Carrier]()
	carrierRegistry.Register(carrier.NewFlatRate())
	carrierRegistry.Register(carrier.NewShipEngine(creds, nil))
	quoteAggregator := carrier.NewAggregator(carrierRegistry, 60, log)

	limiter := ratelimit.NewLimiter()

	messageController := &controller.MessageController{
		MessageService: messageService,
		Messages:       messageRepo,
	}
	leadController := &controller.LeadController{
		LeadService: leadService,
		Validate:    validator.New(),
	}
	templateController := &controller.TemplateController{Templates: templateRepo}
	consentController := &controller.ConsentController{Consents: consentRepo}
	shippingController := &controller.ShippingController{Quotes: quoteAggregator}
	newsController := &controller.NewsController{News: newsAggregator}

	r := chi.NewRouter()

	r.Route("/api", func(r chi.Router) {
		r.With(ratelimit.Middleware(limiter, "leads", cfg.RateLimit.LeadMax, cfg.RateLimit.LeadWindow)).
			Post("/leads", leadController.CreateLead)

		r.Post("/messages", messageController.EnqueueMessage)
		r.Get("/messages/{id}", messageController.GetMessage)
		r.Post("/messages/{id}/delivered", messageController.MarkDelivered)
		r.Get("/queue/stats", messageController.QueueStats)

		r.Put("/templates/{key}", templateController.SaveTemplate)
		r.Get("/templates/{key}", templateController.GetTemplate)
		r.Get("/templates", templateController.ListTemplates)
		r.Delete("/templates/{key}", templateController.DeleteTemplate)

		r.Put("/contacts/{id}/consents", consentController.SetConsent)

		r.Get("/shipping/quotes", shippingController.GetQuotes)
		r.Get("/news", newsController.GetNews)
	})

	log.Info().Str("addr", cfg.HTTPAddr).Msg("server listening")
	if err := http.ListenAndServe(cfg.HTTPAddr, r); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
