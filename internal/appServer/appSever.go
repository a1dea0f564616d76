package appServer

import (
	"context"
	"crypto/tls"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/ds124wfegd/ticket-booker/config"
	"github.com/ds124wfegd/ticket-booker/internal/clock"
	"github.com/ds124wfegd/ticket-booker/internal/service"
	"github.com/ds124wfegd/ticket-booker/internal/transport"
	"github.com/ds124wfegd/ticket-booker/internal/worker"
	"github.com/ds124wfegd/ticket-booker/pkg/scheduler"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type Server struct {
	httpServer *http.Server
}

func (s *Server) Run(cfg *config.Config, handler http.Handler) error {
	s.httpServer = &http.Server{
		Addr:              cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:           handler,
		MaxHeaderBytes:    1 << 20,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
		ReadHeaderTimeout: 3 * time.Second,
		TLSConfig:         &tls.Config{MinVersion: tls.VersionTLS12},
		ErrorLog:          log.New(logrus.StandardLogger().WriterLevel(logrus.ErrorLevel), "", 0),
	}
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func NewServer(cfg *config.Config) {
	setupLogging(&cfg.Logging)

	repos, storageHealth, closeStorage, err := newRepositories(cfg)
	if err != nil {
		logrus.Fatalf("Failed to initialize storage: %v", err)
	}
	defer closeStorage()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	publisher, notifierHealth, closePublisher, err := newPublisher(ctx, cfg)
	if err != nil {
		logrus.Fatalf("Failed to initialize notifier: %v", err)
	}
	defer closePublisher()

	clk := clock.NewSystem()
	retry := service.RetryPolicy{
		MaxRetries: cfg.Booking.MaxTxRetries,
		Backoff:    cfg.Booking.RetryBackoff,
	}

	notificationService := service.NewNotificationService(repos.Outbox, publisher, clk, cfg.Worker.BatchSize, cfg.Worker.Retention)
	accessService := service.NewAccessService(repos.Users)
	bookingService := service.NewBookingService(repos, accessService, notificationService, clk, retry)
	cancellationService := service.NewCancellationService(repos, retry)
	eventService := service.NewEventService(repos, notificationService, clk)
	ticketService := service.NewTicketService(repos)
	userService := service.NewUserService(repos.Users)

	var wg sync.WaitGroup
	outboxWorker := worker.NewOutboxWorker(notificationService, cfg.Worker.OutboxInterval)
	purgeScheduler := scheduler.NewScheduler(notificationService, cfg.Worker.PurgeInterval)
	wg.Add(2)
	go func() {
		defer wg.Done()
		outboxWorker.Start(ctx)
	}()
	go func() {
		defer wg.Done()
		purgeScheduler.Start(ctx)
	}()

	gin.SetMode(cfg.Server.Mode)
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := transport.InitRoutes(transport.Handlers{
		Events:   transport.NewEventHandler(eventService, ticketService),
		Tickets:  transport.NewTicketHandler(ticketService),
		Bookings: transport.NewBookingHandler(bookingService, cancellationService),
		Users:    transport.NewUserHandler(userService),
		Health:   healthChecks(storageHealth, notifierHealth),
	}, accessService, cfg.Server.RequestTimeout)

	srv := new(Server)
	go func() {
		if err := srv.Run(cfg, router); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatalf("error occured while running http server: %s", err.Error())
		}
	}()

	logrus.WithFields(logrus.Fields{
		"port":      cfg.Server.Port,
		"version":   cfg.Server.AppVersion,
		"storage":   cfg.Database.Driver,
		"transport": cfg.Notifier.Transport,
	}).Info("App Started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)
	<-quit

	logrus.Info("App Shutting Down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.Timeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.Errorf("error occured on server shutting down: %s", err.Error())
	}

	cancel()
	wg.Wait()
}

func healthChecks(storage, notifier transport.HealthCheck) map[string]transport.HealthCheck {
	checks := make(map[string]transport.HealthCheck)
	if storage != nil {
		checks["storage"] = storage
	}
	if notifier != nil {
		checks["notifier"] = notifier
	}
	return checks
}
