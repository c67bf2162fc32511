package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/stratushq/tenant_go_server/config"
	"github.com/stratushq/tenant_go_server/internal/api"
	"github.com/stratushq/tenant_go_server/internal/api/handler"
	"github.com/stratushq/tenant_go_server/internal/database"
	"github.com/stratushq/tenant_go_server/internal/pkg/authevents"
	"github.com/stratushq/tenant_go_server/internal/pkg/cache"
	"github.com/stratushq/tenant_go_server/internal/pkg/email"
	"github.com/stratushq/tenant_go_server/internal/pkg/oss"
	"github.com/stratushq/tenant_go_server/internal/pkg/payment"
	"github.com/stratushq/tenant_go_server/internal/pkg/ws"
	"github.com/stratushq/tenant_go_server/internal/repository"
	"github.com/stratushq/tenant_go_server/internal/service"
	"github.com/stratushq/tenant_go_server/internal/tracker"
)

func main() {
	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.NewMySQL(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect database: %v", err)
	}
	log.Println("Database connected")

	rdb, err := database.NewRedis(&cfg.Redis)
	if err != nil {
		log.Fatalf("Failed to connect redis: %v", err)
	}
	log.Println("Redis connected")

	wsHub := ws.NewHub()

	ossClient, err := oss.NewClient(&cfg.OSS)
	if err != nil {
		log.Fatalf("Failed to init object storage: %v", err)
	}

	stripeClient := payment.NewClient(cfg.Stripe)
	emailService := email.NewService(&cfg.Email)
	authCache := cache.New(cfg.AuthCache.MaxEntries, time.Duration(cfg.AuthCache.TTLSeconds)*time.Second)
	authEvents := authevents.NewPublisher(rdb)

	// Repositories
	userRepo := repository.NewUserRepository(db)
	companyRepo := repository.NewCompanyRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	subscriptionRepo := repository.NewSubscriptionRepository(db)
	billingRepo := repository.NewBillingRepository(db)
	paymentMethodRepo := repository.NewPaymentMethodRepository(db)
	reportRepo := repository.NewReportRepository(db)
	webhookEventRepo := repository.NewWebhookEventRepository(db)

	// Services
	sessionService := service.NewSessionService(sessionRepo, authCache)
	authService := service.NewAuthService(userRepo, companyRepo, sessionService, rdb, emailService, authEvents, cfg)
	userService := service.NewUserService(userRepo, subscriptionRepo, ossClient)
	companyService := service.NewCompanyService(companyRepo, userRepo, subscriptionRepo)
	billingService := service.NewBillingService(companyRepo, subscriptionRepo, billingRepo, paymentMethodRepo, stripeClient, cfg)
	reportService := service.NewReportService(reportRepo)
	webhookService := service.NewWebhookService(
		subscriptionRepo, billingRepo, paymentMethodRepo,
		userRepo, companyRepo, webhookEventRepo,
		stripeClient, wsHub, emailService, cfg,
	)

	// Activity tracking, gated on auth-state events.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	trackerStore := tracker.NewRedisStore(rdb, time.Duration(cfg.Tracker.SnapshotTTLHours)*time.Hour)
	trackerManager := tracker.NewManager(trackerStore,
		tracker.WithInactivityTimeout(time.Duration(cfg.Tracker.InactivitySeconds)*time.Second),
		tracker.WithPointerSampleRate(cfg.Tracker.PointerSampleRate),
	)
	authSub, err := authevents.Subscribe(ctx, rdb)
	if err != nil {
		log.Fatalf("Failed to subscribe to auth events: %v", err)
	}
	go trackerManager.Run(ctx, authSub)
	log.Println("Activity tracking started")

	// Handlers
	authHandler := handler.NewAuthHandler(authService)
	userHandler := handler.NewUserHandler(userService)
	companyHandler := handler.NewCompanyHandler(companyService)
	sessionHandler := handler.NewSessionHandler(sessionService)
	trackHandler := handler.NewTrackHandler(trackerManager)
	billingHandler := handler.NewBillingHandler(billingService, userService)
	reportHandler := handler.NewReportHandler(reportService, userService)
	webhookHandler := handler.NewWebhookHandler(stripeClient, webhookService)
	websocketHandler := handler.NewWebSocketHandler(wsHub, cfg.JWT.Secret)

	router := api.NewRouter(
		authHandler,
		userHandler,
		companyHandler,
		sessionHandler,
		trackHandler,
		billingHandler,
		reportHandler,
		webhookHandler,
		websocketHandler,
		authCache,
		cfg,
	)
	engine := router.Setup()

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Printf("Server starting on %s", addr)
	if err := engine.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
