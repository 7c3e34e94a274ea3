package helper

import (
	"absensiku_backend/internals/helpers/apperror"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// ErrorHandler untuk fiber.Config: semua error yang lolos dari handler
// (fiber.NewError, apperror, panic yang sudah di-recover) keluar dengan
// bentuk ErrorResponse yang sama.
func ErrorHandler(log *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		if apperror.KindOf(err) == "" {
			if _, ok := err.(*fiber.Error); !ok && log != nil {
				log.Error("[HTTP] unhandled error",
					zap.String("method", c.Method()),
					zap.String("path", c.Path()),
					zap.Error(err),
				)
			}
		}
		return JsonAppError(c, err)
	}
}
