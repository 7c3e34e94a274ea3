package details

import (
	attendanceCtrl "absensiku_backend/internals/features/attendance/sessions/controller"
	attendanceRoute "absensiku_backend/internals/features/attendance/sessions/route"

	"github.com/gofiber/fiber/v2"
)

// /api/u/attendance/...
func AttendanceUserRoutes(user fiber.Router, h *attendanceCtrl.AttendanceSessionController) {
	attendanceRoute.AttendanceUserRoutes(user, h)
}

// /api/a/attendance/...
func AttendanceAdminRoutes(admin fiber.Router, h *attendanceCtrl.AttendanceSessionController) {
	attendanceRoute.AttendanceAdminRoutes(admin, h)
}
