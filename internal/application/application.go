package application

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/suportia/helpdesk/internal/ai"
	"github.com/suportia/helpdesk/internal/config"
	"github.com/suportia/helpdesk/internal/database"
	"github.com/suportia/helpdesk/internal/glpi"
	"github.com/suportia/helpdesk/internal/handler"
	"github.com/suportia/helpdesk/internal/kafka"
	"github.com/suportia/helpdesk/internal/policy"
	"github.com/suportia/helpdesk/internal/router"
	"github.com/suportia/helpdesk/internal/searchindex"
	"github.com/suportia/helpdesk/internal/service"
)

// API is the application in api mode: migrations applied, dependencies
// wired, one HTTP server.
type API struct {
	cfg      *config.Config
	httpSrv  *http.Server
	glpi     *glpi.Client
	producer *kafka.Producer
}

func NewAPI(cfg *config.Config) (*API, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := database.MigrateUp(cfg.DatabaseURL()); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	db, err := database.Open(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}

	ticketSvc := service.NewTicketService(db)
	userSvc := service.NewUserService(db)
	articleSvc := service.NewArticleService(db)

	glpiClient := glpi.NewClient(glpi.Config{
		BaseURL:   cfg.GLPI.APIURL,
		AppToken:  cfg.GLPI.AppToken,
		UserToken: cfg.GLPI.UserToken,
	})
	if !glpiClient.IsConfigured() {
		log.Printf("[glpi] not configured (GLPI_API_URL, GLPI_APP_TOKEN, GLPI_AUTH_TOKEN); remote tickets disabled")
	}

	agg := service.NewAggregator(ticketSvc, userSvc, glpiClient)
	pol := policy.New(userSvc)
	advisor := ai.New(ai.Config{APIKey: cfg.AI.APIKey, BaseURL: cfg.AI.BaseURL, Model: cfg.AI.Model})
	producer := kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopicTickets)
	search := searchindex.NewClient(cfg.SearchServiceURL)

	production := cfg.Production()
	mux := router.New(router.Deps{
		SessionSecret: cfg.SessionSecret,
		SecureCookies: production,
		Auth:          handler.NewAuthHandler(userSvc, production),
		Profile:       handler.NewProfileHandler(userSvc, pol, production),
		Ticket:        handler.NewTicketHandler(agg, ticketSvc, pol, producer, search, production),
		AI:            handler.NewAIHandler(advisor, agg, pol, production),
		Technician:    handler.NewTechnicianHandler(userSvc, pol, production),
		Article:       handler.NewArticleHandler(articleSvc, production),
	})

	httpSrv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return &API{cfg: cfg, httpSrv: httpSrv, glpi: glpiClient, producer: producer}, nil
}

// Run starts the HTTP server and blocks until ctx is canceled.
func (a *API) Run(ctx context.Context) error {
	host := a.cfg.AppHost
	if host == "0.0.0.0" {
		host = "localhost"
	}
	base := "http://" + host + ":" + a.cfg.HTTPPort
	log.Printf("HTTP server listening on %s", a.httpSrv.Addr)
	log.Printf("  Swagger UI:    %s/swagger", base)
	log.Printf("  Health:        %s/health", base)
	log.Printf("  API:           %s/api/", base)

	errCh := make(chan error, 1)
	go func() {
		if err := a.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	a.glpi.KillSession(shutdownCtx)
	if err := a.producer.Close(); err != nil {
		log.Printf("kafka: close: %v", err)
	}
	if err := a.httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}
