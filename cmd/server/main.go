package main // booking API entry point

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/sekoucamara/bus-reservation/internal/config"
	"github.com/sekoucamara/bus-reservation/internal/database"
	"github.com/sekoucamara/bus-reservation/internal/handler"
	"github.com/sekoucamara/bus-reservation/internal/queue"
	"github.com/sekoucamara/bus-reservation/internal/repository"
	"github.com/sekoucamara/bus-reservation/internal/router"
	"github.com/sekoucamara/bus-reservation/internal/service"
)

func main() {
	// .env is optional; real deployments set variables directly.
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName, cfg.DBMaxConns)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer func() { _ = db.Close() }()

	rdb := config.NewRedisClient() // nil when Redis is unreachable; middleware degrades

	settings := config.NewSettings(db)
	if err := settings.Reload(context.Background()); err != nil {
		log.Printf("settings: initial load failed, using defaults: %v", err)
	}

	reservationRepo := repository.NewReservationRepo(db)
	ticketRepo := repository.NewTicketRepo(db)
	tripRepo := repository.NewTripRepo(db)
	scheduleRepo := repository.NewScheduleRepo(db)
	paymentRepo := repository.NewPaymentRepo(db)
	userRepo := repository.NewUserRepo(db)

	var publisher service.Publisher = service.AMQPPublisher{}

	ledger := service.NewCapacityLedger(tripRepo, ticketRepo, reservationRepo)
	reservationSvc := service.NewReservationService(reservationRepo, ticketRepo, tripRepo, scheduleRepo, ledger, settings, publisher)
	boardingSvc := service.NewBoardingService(ticketRepo, tripRepo, publisher)
	tripSvc := service.NewTripService(tripRepo, scheduleRepo, ledger, boardingSvc.ProcessMissedTicketsForTrip)
	paymentSvc := service.NewPaymentService(paymentRepo, reservationSvc, reservationRepo, ticketRepo, scheduleRepo, publisher)

	// Background workers: the expiry sweeper reclaims seats from lapsed
	// PENDING bookings, the consumer drains notification events to disk.
	go reservationSvc.RunExpirySweeper(context.Background(), time.Duration(cfg.SweepSeconds)*time.Second)
	go func() {
		if err := queue.StartNotificationConsumer(); err != nil {
			log.Printf("notification consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.Logger())

	router.Register(e, router.Handlers{
		Auth:         handler.NewAuthHandler(userRepo, &cfg),
		Reservations: handler.NewReservationHandler(reservationSvc),
		Scans:        handler.NewScanHandler(boardingSvc),
		Payments:     handler.NewPaymentHandler(paymentSvc),
		Trips:        handler.NewTripHandler(tripSvc),
		Availability: handler.NewAvailabilityHandler(ledger, tripSvc),
		Settings:     handler.NewSettingsHandler(settings),
	}, &cfg, rdb)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
