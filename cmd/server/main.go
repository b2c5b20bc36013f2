package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/serverroom/inventory/internal/access"
	"github.com/serverroom/inventory/internal/config"
	"github.com/serverroom/inventory/internal/database"
	"github.com/serverroom/inventory/internal/handler"
	"github.com/serverroom/inventory/internal/middleware"
	"github.com/serverroom/inventory/internal/queue"
	"github.com/serverroom/inventory/internal/repository"
	"github.com/serverroom/inventory/internal/router"
)

func main() {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Redis is optional: a nil client disables response caching and
	// rate limiting instead of failing the boot.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Print("redis unavailable, cache and rate limiting disabled")
	}
	cacheCfg := config.LoadCacheConfig()
	rlCfg := config.LoadRateLimitConfig()

	userRepo := repository.NewUserRepo(db)
	tokenRepo := repository.NewTokenRepo(db)
	roomRepo := repository.NewRoomRepo(db)
	rackRepo := repository.NewRackRepo(db)
	equipmentRepo := repository.NewEquipmentRepo(db)
	grantRepo := repository.NewGrantRepo(db)

	filter := access.NewFilter(rackRepo, grantRepo)

	authHandler := handler.NewAuthHandler(cfg, userRepo, tokenRepo)
	roomHandler := handler.NewRoomHandler(roomRepo, rackRepo)
	rackHandler := handler.NewRackHandler(rackRepo, equipmentRepo, filter)
	equipmentHandler := handler.NewEquipmentHandler(equipmentRepo, rackRepo)
	userHandler := handler.NewUserHandler(cfg, userRepo, grantRepo)

	e := echo.New()

	// mounted per group after JWTAuth so user-keyed strategies see the
	// authenticated id; the pre-auth /v1/auth group buckets by ip
	limiter := middleware.NewTokenBucket(rlCfg, rdb)

	router.RegisterRoutes(e)
	router.RegisterAuth(e, authHandler, cfg.JWTSecret, limiter)
	router.RegisterInventory(e, rackHandler, cfg.JWTSecret, limiter)
	router.RegisterAdmin(e, roomHandler, rackHandler, equipmentHandler, userHandler,
		cfg.JWTSecret, cacheCfg, rdb, limiter)

	// audit consumer runs for the life of the process, reconnecting on
	// broker failures
	go func() {
		if err := queue.StartAuditConsumer(); err != nil {
			log.Printf("audit consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
