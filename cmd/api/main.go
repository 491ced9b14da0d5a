package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ayurmed/hms-api/internal/config"
	"github.com/ayurmed/hms-api/internal/email"
	"github.com/ayurmed/hms-api/internal/genai"
	authhandler "github.com/ayurmed/hms-api/internal/handler/auth"
	healthhandler "github.com/ayurmed/hms-api/internal/handler/health"
	rxhandler "github.com/ayurmed/hms-api/internal/handler/prescription"
	riskhandler "github.com/ayurmed/hms-api/internal/handler/risk"
	userhandler "github.com/ayurmed/hms-api/internal/handler/user"
	"github.com/ayurmed/hms-api/internal/middleware"
	"github.com/ayurmed/hms-api/internal/repository"
	"github.com/ayurmed/hms-api/internal/repository/memory"
	"github.com/ayurmed/hms-api/internal/repository/postgres"
	"github.com/ayurmed/hms-api/internal/router"
	"github.com/ayurmed/hms-api/internal/service/auth"
	"github.com/ayurmed/hms-api/internal/service/event"
	"github.com/ayurmed/hms-api/internal/service/extraction"
	"github.com/ayurmed/hms-api/internal/service/prescription"
	"github.com/ayurmed/hms-api/internal/service/risk"
	"github.com/ayurmed/hms-api/internal/service/user"
	"github.com/ayurmed/hms-api/pkg/idgen"
	"github.com/ayurmed/hms-api/pkg/metrics"
)

type repositories struct {
	users         repository.UserRepository
	prescriptions repository.PrescriptionRepository
	labReports    repository.LabReportRepository
	outbox        repository.OutboxRepository
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	repos, err := buildRepositories(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize data store")
	}

	m := metrics.NewMetrics("ayurmed", "api")
	events := event.NewService(repos.outbox)
	mailer := email.NewSender(cfg.SMTP)
	ids := idgen.NewAllocator()

	genaiClient := genai.NewClient(cfg.GenAI).WithMetrics(m)
	extractionSvc := extraction.NewService(genaiClient)
	riskSvc := risk.NewService(genaiClient)

	userSvc := user.NewService(repos.users, repos.prescriptions, repos.labReports, ids, mailer, events)
	rxSvc := prescription.NewService(repos.prescriptions, repos.users, extractionSvc, events)
	authSvc, err := auth.NewService(repos.users, cfg.Session)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize sessions")
	}

	authMW := middleware.NewAuthMiddleware(authSvc)
	engine := router.New(cfg, router.Handlers{
		Health:       healthhandler.NewHandler(),
		Auth:         authhandler.NewHandler(authSvc),
		User:         userhandler.NewHandler(userSvc),
		Prescription: rxhandler.NewHandler(rxSvc),
		Risk:         riskhandler.NewHandler(riskSvc),
	}, authMW, m)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  time.Duration(cfg.Server.TimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.TimeoutSeconds) * time.Second,
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Str("backend", cfg.Store.Backend).Msg("starting api server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}
}

func buildRepositories(cfg *config.Config) (*repositories, error) {
	switch cfg.Store.Backend {
	case "postgres":
		db, err := postgres.NewDB(cfg.Database)
		if err != nil {
			return nil, err
		}
		return &repositories{
			users:         postgres.NewUserRepository(db),
			prescriptions: postgres.NewPrescriptionRepository(db),
			labReports:    postgres.NewLabReportRepository(db),
			outbox:        postgres.NewOutboxRepository(db),
		}, nil
	case "memory", "":
		store := memory.NewStore(time.Duration(cfg.Store.LatencyMS) * time.Millisecond)
		if cfg.Store.Seed {
			seeded := store.Seed()
			for role, u := range seeded {
				log.Info().Str("role", string(role)).Str("email", u.Email).Msg("seeded demo account")
			}
		}
		return &repositories{
			users:         memory.NewUserRepository(store),
			prescriptions: memory.NewPrescriptionRepository(store),
			labReports:    memory.NewLabReportRepository(store),
			outbox:        memory.NewOutboxRepository(store),
		}, nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}
