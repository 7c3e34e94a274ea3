package route

import (
	"fmt"

	"absensiku_backend/internals/constants"
	ctrl "absensiku_backend/internals/features/attendance/sessions/controller"
	authMiddleware "absensiku_backend/internals/middlewares/auth"

	"github.com/gofiber/fiber/v2"

	rateLimiter "absensiku_backend/internals/middlewares"
)

// /api/u/attendance/... (login biasa; scope query ditentukan role)
func AttendanceUserRoutes(r fiber.Router, h *ctrl.AttendanceSessionController) {
	g := r.Group("/attendance")

	g.Post("/check-in", rateLimiter.AttendanceWriteRateLimiter(), h.CheckIn)
	g.Post("/:id/check-out", rateLimiter.AttendanceWriteRateLimiter(), h.CheckOut)
	g.Get("/today", h.Today)
	g.Get("/history", h.History)
	g.Get("/export", rateLimiter.ExportRateLimiter(), h.Export)
}

// /api/a/attendance/... (ADMIN / PLATFORM_ADMIN)
func AttendanceAdminRoutes(r fiber.Router, h *ctrl.AttendanceSessionController) {
	g := r.Group("/attendance",
		authMiddleware.OnlyRoles(
			fmt.Sprintf(constants.ErrOnlyAdminsCanAccess, "rekap presensi"),
			constants.AdminRoles...,
		),
	)

	g.Get("/history", h.History)
	g.Get("/export", rateLimiter.ExportRateLimiter(), h.Export)
	g.Post("/sweep", h.Sweep)
}
