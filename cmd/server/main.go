package main

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/fishmapai/fishmap-server/internal/config"
	"github.com/fishmapai/fishmap-server/internal/database"
	"github.com/fishmapai/fishmap-server/internal/email"
	"github.com/fishmapai/fishmap-server/internal/handler"
	"github.com/fishmapai/fishmap-server/internal/middleware"
	"github.com/fishmapai/fishmap-server/internal/predict"
	"github.com/fishmapai/fishmap-server/internal/queue"
	"github.com/fishmapai/fishmap-server/internal/repository"
	"github.com/fishmapai/fishmap-server/internal/router"
	queue_publisher "github.com/fishmapai/fishmap-server/internal/service"
	"github.com/fishmapai/fishmap-server/internal/utils"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	rdb := config.NewRedisClient()

	issuer := &utils.Issuer{
		UserAccessSecret:   cfg.UserAccessSecret,
		UserRefreshSecret:  cfg.UserRefreshSecret,
		AdminAccessSecret:  cfg.AdminAccessSecret,
		AdminRefreshSecret: cfg.AdminRefreshSecret,
		UserAccessTTL:      time.Duration(cfg.AccessTTLMin) * time.Minute,
		AdminAccessTTL:     time.Duration(cfg.AdminAccessTTLHour) * time.Hour,
		RefreshTTL:         time.Duration(cfg.RefreshTTLDays) * 24 * time.Hour,
	}

	userRepo := repository.NewUserRepo(db)
	adminRepo := repository.NewAdminRepo(db)
	catchRepo := repository.NewCatchRepo(db)
	catalogRepo := repository.NewCatalogRepo(db)
	galleryRepo := repository.NewGalleryRepo(db)
	recipeRepo := repository.NewRecipeRepo(db)
	farmingRepo := repository.NewFarmingRepo(db)

	mailer := email.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.MailFrom)
	mailCfg := config.LoadEmailLimitConfig()
	limiter := email.NewLimiter(rdb, mailCfg.DailyLimit, mailCfg.HourlyLimit)

	authH := handler.NewAuthHandler(cfg, userRepo, issuer, mailer, limiter, queue_publisher.PublishUserVerified)
	userH := handler.NewUserHandler(cfg, userRepo)
	adminH := handler.NewAdminHandler(cfg, adminRepo, issuer)
	historyH := handler.NewHistoryHandler(catchRepo)
	catalogH := handler.NewCatalogHandler(catalogRepo, mailer, limiter)
	galleryH := handler.NewGalleryHandler(galleryRepo)
	recipeH := handler.NewRecipeHandler(recipeRepo)
	farmingH := handler.NewFarmingHandler(farmingRepo)
	emailH := handler.NewEmailHandler(limiter)
	predictH := handler.NewPredictHandler(predict.NewScriptPredictor("", cfg.PredictScript), cfg.UploadDir)

	// Welcome-mail consumer keeps retrying the broker in the background; a
	// broker outage never blocks startup.
	go func() {
		if err := queue.StartWelcomeConsumer(mailer, limiter); err != nil {
			log.Printf("queue: welcome consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	e.Use(echomw.Recover())
	e.Use(echomw.Logger())

	var rateLimit, cache echo.MiddlewareFunc
	if rdb != nil {
		rateLimit = middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
		cache = middleware.NewRedisCache(config.LoadCacheConfig(), rdb)
	}

	router.RegisterRoutes(e)
	router.RegisterAuth(e, authH, userH, issuer, rateLimit)
	router.RegisterHistory(e, historyH, issuer)
	router.RegisterCatalog(e, catalogH, issuer)
	router.RegisterPredict(e, predictH)
	router.RegisterPublic(e, galleryH, recipeH, farmingH, cache)
	router.RegisterAdmin(e, adminH, catalogH, galleryH, recipeH, farmingH, emailH, issuer, adminRepo, rateLimit)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
