package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-redis/redis/v8"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"absensiku_backend/internals/configs"
	database "absensiku_backend/internals/databases"
	attendanceCtrl "absensiku_backend/internals/features/attendance/sessions/controller"
	attendanceRepo "absensiku_backend/internals/features/attendance/sessions/repository"
	attendanceScheduler "absensiku_backend/internals/features/attendance/sessions/scheduler"
	attendanceService "absensiku_backend/internals/features/attendance/sessions/service"
	helper "absensiku_backend/internals/helpers"
	appLogger "absensiku_backend/internals/helpers/logger"
	middlewares "absensiku_backend/internals/middlewares"
	routes "absensiku_backend/internals/route"
	"absensiku_backend/internals/seeds"
)

func main() {
	configs.LoadEnv()

	cfg, err := configs.Load()
	if err != nil {
		log.Fatalf("❌ config error: %v", err)
	}
	if configs.JWTSecret == "" {
		log.Fatal("❌ JWT_SECRET wajib diisi")
	}

	logger, err := appLogger.New(cfg.LogLevel, cfg.Environment)
	if err != nil {
		log.Fatalf("❌ logger error: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	app := fiber.New(fiber.Config{
		// 🚀 JSON super cepat
		JSONEncoder:             sonic.Marshal,
		JSONDecoder:             sonic.Unmarshal,
		DisableStartupMessage:   true,
		ErrorHandler:            helper.ErrorHandler(logger),
		ProxyHeader:             fiber.HeaderXForwardedFor,
		EnableTrustedProxyCheck: true,
		TrustedProxies:          []string{"0.0.0.0/0"}, // sesuaikan dengan CIDR load balancer
	})

	middlewares.SetupMiddlewares(app, logger, cfg.CORSOrigins)
	app.Use(middlewares.ETagMiddleware()) // 304 caching, export dilewati

	// HTTP timeout guard (selaras dengan statement_timeout di DB)
	app.Use(func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 10*time.Second)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	})

	// 🔌 store: postgres (default) atau in-memory
	var (
		db   *gorm.DB
		repo attendanceRepo.Repository
	)
	switch cfg.Store {
	case configs.StoreMemory:
		logger.Warn("[DB] ATTENDANCE_STORE=memory, data hilang saat restart")
		repo = attendanceRepo.NewMemoryRepository()
	default:
		db, err = database.ConnectDB(cfg.DatabaseDSN, logger)
		if err != nil {
			logger.Fatal("[DB] connect failed", zap.Error(err))
		}
		database.TunePool(db, logger)
		if cfg.DBAutoMigrate {
			if err := database.RunMigrations(db, logger); err != nil {
				logger.Fatal("[DB] migration failed", zap.Error(err))
			}
		}
		if cfg.DBSeed {
			if err := seeds.RunAllSeeds(db, logger, cfg.SeedUsersFile); err != nil {
				logger.Fatal("[DB] seed failed", zap.Error(err))
			}
		}
		database.WarmUpQueries(db, logger)
		repo = attendanceRepo.NewGormRepository(db)
	}

	// 🔒 lock sweep: redis kalau ada (multi instance), selain itu lokal
	var (
		rdb    *redis.Client
		locker attendanceScheduler.Locker
	)
	if cfg.RedisURL != "" {
		rdb, err = database.ConnectRedis(context.Background(), cfg.RedisURL)
		if err != nil {
			logger.Fatal("[REDIS] connect failed", zap.Error(err))
		}
		locker = attendanceScheduler.NewRedisLocker(rdb, attendanceScheduler.DefaultLockTTL)
		logger.Info("[REDIS] connected, sweep lock terdistribusi aktif")
	} else {
		locker = attendanceScheduler.NewLocalLocker()
	}

	loc := cfg.Policy.Location
	recorder := attendanceService.NewRecorder(repo, cfg.Policy, cfg.RecorderConfig, logger)
	query := attendanceService.NewQuery(repo, loc, logger)
	exporter := attendanceService.NewExporter(repo, loc, logger)
	sweeper := attendanceScheduler.New(repo, cfg.Policy, locker, cfg.SweepCron, logger)

	// ⏱ scheduler setelah store siap
	if cfg.SweepEnabled {
		if err := sweeper.Start(); err != nil {
			logger.Fatal("[AUTO-CHECKOUT] start failed", zap.Error(err))
		}
	}

	// ✅ Routes
	routes.SetupRoutes(app, routes.Deps{
		DB:          db,
		Attendance:  attendanceCtrl.NewAttendanceSessionController(recorder, query, exporter, sweeper, loc, logger),
		Environment: cfg.Environment,
		Log:         logger,
	})

	// 🔒 Keep-Alive & timeout koneksi server
	app.Server().ReadTimeout = 15 * time.Second
	app.Server().WriteTimeout = 5 * time.Minute // export bisa lama
	app.Server().IdleTimeout = 90 * time.Second

	// Start server non-blocking
	go func() {
		logger.Info("✅ Listening", zap.String("port", cfg.Port))
		if err := app.Listen("0.0.0.0:" + cfg.Port); err != nil {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	// graceful shutdown: stop cron → HTTP → tutup pool
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	sweeper.Stop(ctx)
	_ = app.ShutdownWithContext(ctx)

	if rdb != nil {
		_ = rdb.Close()
	}
	if db != nil {
		database.Close(db)
	}
}
