package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/cinebooker/cinebooker/internal/booking"
	"github.com/cinebooker/cinebooker/internal/checkout"
	"github.com/cinebooker/cinebooker/internal/config"
	"github.com/cinebooker/cinebooker/internal/database"
	"github.com/cinebooker/cinebooker/internal/handler"
	"github.com/cinebooker/cinebooker/internal/middleware"
	"github.com/cinebooker/cinebooker/internal/queue"
	"github.com/cinebooker/cinebooker/internal/repository"
	"github.com/cinebooker/cinebooker/internal/router"
	"github.com/cinebooker/cinebooker/internal/seatgrid"
	queue_publisher "github.com/cinebooker/cinebooker/internal/service"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer func() { _ = db.Close() }()

	// Checkout sessions live in Redis, so unlike cache and rate
	// limiting this dependency is not optional.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Fatal("redis: connection failed, checkout sessions unavailable")
	}

	userRepo := repository.NewUserRepo(db)
	tokenRepo := repository.NewTokenRepo(db)
	movieRepo := repository.NewMovieRepo(db)
	theatreRepo := repository.NewTheatreRepo(db)
	showRepo := repository.NewShowRepo(db)
	seatRepo := repository.NewSeatRepo(db)
	bookingRepo := repository.NewBookingRepo(db)

	checkoutCfg := config.LoadCheckoutConfig()
	sessions := checkout.NewStore(rdb, checkoutCfg.Prefix, checkoutCfg.TTL)
	committer := booking.NewCommitter(db, showRepo, seatRepo, bookingRepo)

	authH := handler.NewAuthHandler(cfg, userRepo, tokenRepo)
	catalogH := handler.NewCatalogHandler(movieRepo, theatreRepo, showRepo, seatRepo, seatgrid.DefaultLayout())
	notifier := queue_publisher.NewBookingNotifier(showRepo)
	checkoutH := handler.NewCheckoutHandler(sessions, committer, showRepo, bookingRepo, notifier)

	e := echo.New()
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

	router.RegisterRoutes(e)
	router.RegisterAuth(e, authH, cfg.JWTSecret)
	router.RegisterCatalog(e, catalogH, cfg.JWTSecret,
		middleware.NewRedisCache(config.LoadCacheConfig(), rdb))
	router.RegisterCheckout(e, checkoutH, cfg.JWTSecret)

	// Ticket rendering and booking log consumer. Reconnects on its
	// own; a dead broker only delays notifications.
	go func() {
		if err := queue.StartBookingConsumer(); err != nil {
			log.Printf("consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
