// Command server runs the salon booking HTTP API.
package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/rmstudio/salon-booking/internal/booking"
	"github.com/rmstudio/salon-booking/internal/config"
	"github.com/rmstudio/salon-booking/internal/database"
	"github.com/rmstudio/salon-booking/internal/handler"
	"github.com/rmstudio/salon-booking/internal/mail"
	"github.com/rmstudio/salon-booking/internal/payment"
	"github.com/rmstudio/salon-booking/internal/queue"
	"github.com/rmstudio/salon-booking/internal/repository"
	"github.com/rmstudio/salon-booking/internal/router"
	queue_publisher "github.com/rmstudio/salon-booking/internal/service"
)

func main() {
	_ = godotenv.Load() // .env is optional; real deployments use the environment
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Redis is optional: a nil client disables caching and rate limiting.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable, cache and rate limiting disabled")
	}

	store := repository.NewStore(db)
	slots := repository.NewSlotRepo(db)
	appts := repository.NewAppointmentRepo(db)
	services := repository.NewServiceRepo(db)
	stylists := repository.NewStylistRepo(db)
	reports := repository.NewReportRepo(db)
	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)

	mailer := mail.New(mail.Config{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUser,
		Password: cfg.SMTPPass,
		From:     cfg.MailFrom,
		SiteURL:  cfg.SiteURL,
	})
	publisher := queue_publisher.New(cfg.RabbitURL)
	bookingSvc := booking.NewService(store, mailer, publisher)

	var provider payment.Client
	if cfg.MPAccessToken != "" {
		mp, err := payment.NewMercadoPago(cfg.MPAccessToken)
		if err != nil {
			log.Fatalf("mercadopago: %v", err)
		}
		provider = mp
	} else {
		log.Println("MP_ACCESS_TOKEN not set, checkout disabled")
	}

	// Background consumer appends confirmed appointments to the audit log.
	go func() {
		if err := queue.StartConfirmedConsumer(cfg.RabbitURL); err != nil {
			log.Printf("appointment consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	router.RegisterRoutes(e)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, users, tokens), cfg.JWTSecret)
	router.RegisterPublic(e,
		handler.NewBookingHandler(bookingSvc, slots, appts, services, stylists),
		handler.NewPaymentHandler(provider, bookingSvc, appts, cfg.SiteURL),
		rdb, config.LoadCacheConfig(), config.LoadRateLimitConfig())
	router.RegisterStaff(e, handler.NewStaffHandler(bookingSvc, appts), cfg.JWTSecret)
	router.RegisterAdmin(e,
		handler.NewScheduleHandler(store, slots, stylists),
		handler.NewCatalogHandler(services),
		handler.NewReportHandler(reports),
		cfg.JWTSecret)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
