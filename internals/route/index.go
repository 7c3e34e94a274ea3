// file: internals/route/index.go
package routes

import (
	"time"

	"absensiku_backend/internals/configs"
	attendanceCtrl "absensiku_backend/internals/features/attendance/sessions/controller"
	rateLimiter "absensiku_backend/internals/middlewares"
	authMiddleware "absensiku_backend/internals/middlewares/auth"
	routeDetails "absensiku_backend/internals/route/details"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var startTime time.Time

// Deps: semua yang dibutuhkan route; DB nil saat ATTENDANCE_STORE=memory.
type Deps struct {
	DB          *gorm.DB
	Attendance  *attendanceCtrl.AttendanceSessionController
	Environment string
	Log         *zap.Logger
}

func SetupRoutes(app *fiber.App, d Deps) {
	startTime = time.Now()
	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}

	BaseRoutes(app, d)

	auth := authMiddleware.AuthJWTOpts{
		Secret:              configs.JWTSecret,
		AllowCookieFallback: true,
	}
	if d.DB != nil {
		auth.UserActive = authMiddleware.UserActiveFromDB(d.DB)
	}

	// ===================== PRIVATE (USER) =====================
	log.Info("[INFO] Setting up PRIVATE group...")
	user := app.Group("/api/u",
		rateLimiter.GlobalRateLimiter(),
		authMiddleware.AuthJWT(auth),
	)

	// ===================== ADMIN =====================
	log.Info("[INFO] Setting up ADMIN group (Auth + RoleCheck di route)...")
	admin := app.Group("/api/a",
		rateLimiter.GlobalRateLimiter(),
		authMiddleware.AuthJWT(auth),
	)

	// ===================== MOUNT ROUTES =====================
	log.Info("[INFO] Mounting Attendance routes...")
	routeDetails.AttendanceUserRoutes(user, d.Attendance)
	routeDetails.AttendanceAdminRoutes(admin, d.Attendance)
}
