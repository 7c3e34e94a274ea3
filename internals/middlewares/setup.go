package middlewares

import (
	requestLogger "absensiku_backend/internals/middlewares/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"go.uber.org/zap"
)

// SetupMiddlewares: urutan penting (recover paling luar, lalu log & CORS).
func SetupMiddlewares(app *fiber.App, log *zap.Logger, origins []string) {
	app.Use(RecoveryMiddleware(log))
	app.Use(requestLogger.LoggerMiddleware(log))
	app.Use(CorsMiddleware(origins))
	app.Use(compress.New(compress.Config{Level: compress.LevelDefault})) // gzip
}
