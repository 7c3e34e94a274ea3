// file: internals/features/attendance/sessions/controller/attendance_session_controller.go
package controller

import (
	"bufio"
	"context"
	"fmt"
	"time"

	"absensiku_backend/internals/features/attendance/sessions/dto"
	"absensiku_backend/internals/features/attendance/sessions/scheduler"
	"absensiku_backend/internals/features/attendance/sessions/service"
	helper "absensiku_backend/internals/helpers"
	"absensiku_backend/internals/helpers/apperror"
	"absensiku_backend/internals/helpers/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const exportTimeout = 5 * time.Minute

// Sweeper = trigger manual auto-checkout (admin).
type Sweeper interface {
	RunOnce(ctx context.Context) (scheduler.Report, error)
}

type AttendanceSessionController struct {
	Recorder *service.Recorder
	Query    *service.Query
	Exporter *service.Exporter
	Sweeper  Sweeper
	Location *time.Location
	Log      *zap.Logger
}

func NewAttendanceSessionController(rec *service.Recorder, q *service.Query, exp *service.Exporter, sw Sweeper, loc *time.Location, log *zap.Logger) *AttendanceSessionController {
	return &AttendanceSessionController{
		Recorder: rec,
		Query:    q,
		Exporter: exp,
		Sweeper:  sw,
		Location: loc,
		Log:      logger.WithComponent(logger.OrNop(log), "attendance.http"),
	}
}

func requester(c *fiber.Ctx) (service.Requester, error) {
	id, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return service.Requester{}, err
	}
	return service.Requester{UserID: id, Role: helper.GetRoleFromToken(c)}, nil
}

func (ctrl *AttendanceSessionController) now() time.Time {
	if ctrl.Recorder != nil && ctrl.Recorder.Now != nil {
		return ctrl.Recorder.Now()
	}
	return time.Now()
}

/* ===================== CHECK-IN ===================== */
// POST /api/u/attendance/check-in
func (ctrl *AttendanceSessionController) CheckIn(c *fiber.Ctx) error {
	userID, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return helper.JsonAppError(c, err)
	}

	var req dto.CheckInRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Payload tidak valid")
	}
	if err := helper.Validate.Struct(req); err != nil {
		return helper.JsonValidationError(c, helper.ValidationErrors(err))
	}

	at := ctrl.now()
	if req.Time != nil {
		at = *req.Time
	}

	s, err := ctrl.Recorder.CheckIn(c.UserContext(), service.CheckInInput{
		UserID:          userID,
		Time:            at,
		WorkLocation:    req.WorkLocation,
		LocationAddress: req.LocationAddress,
		Notes:           req.Notes,
		LateReason:      req.LateReason,
	})
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	return helper.JsonCreated(c, "Check-in berhasil", dto.FromModel(*s, ctrl.Location))
}

/* ===================== CHECK-OUT ===================== */
// POST /api/u/attendance/:id/check-out
func (ctrl *AttendanceSessionController) CheckOut(c *fiber.Ctx) error {
	userID, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	sessionID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return helper.JsonAppError(c, apperror.Validation("ID sesi tidak valid"))
	}

	var req dto.CheckOutRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return helper.JsonError(c, fiber.StatusBadRequest, "Payload tidak valid")
		}
	}
	if err := helper.Validate.Struct(req); err != nil {
		return helper.JsonValidationError(c, helper.ValidationErrors(err))
	}

	at := ctrl.now()
	if req.Time != nil {
		at = *req.Time
	}

	s, err := ctrl.Recorder.CheckOut(c.UserContext(), service.CheckOutInput{
		SessionID:       sessionID,
		UserID:          userID,
		Time:            at,
		Notes:           req.Notes,
		LocationAddress: req.LocationAddress,
	})
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	return helper.JsonOK(c, "Check-out berhasil", dto.FromModel(*s, ctrl.Location))
}

/* ===================== TODAY ===================== */
// GET /api/u/attendance/today
func (ctrl *AttendanceSessionController) Today(c *fiber.Ctx) error {
	userID, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	s, err := ctrl.Recorder.Today(c.UserContext(), userID)
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	return helper.JsonOK(c, "ok", dto.FromModel(*s, ctrl.Location))
}

/* ===================== HISTORY ===================== */
// GET /api/u/attendance/history  (scope self)
// GET /api/a/attendance/history  (scope all, ?user_id= opsional)
func (ctrl *AttendanceSessionController) History(c *fiber.Ctx) error {
	req, err := requester(c)
	if err != nil {
		return helper.JsonAppError(c, err)
	}

	var q dto.HistoryQuery
	if err := c.QueryParser(&q); err != nil {
		return helper.JsonAppError(c, apperror.Validation("query tidak valid"))
	}
	page, limit := q.PageLimit()

	res, err := ctrl.Query.Search(c.UserContext(), req, q.Filter(), page, limit)
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	return helper.JsonList(c, "ok",
		dto.FromModels(res.Sessions, ctrl.Location),
		helper.BuildPaginationFromPage(res.Total, res.Page, res.Limit),
	)
}

/* ===================== EXPORT ===================== */
// GET /api/u/attendance/export?format=csv|xlsx
func (ctrl *AttendanceSessionController) Export(c *fiber.Ctx) error {
	req, err := requester(c)
	if err != nil {
		return helper.JsonAppError(c, err)
	}

	var q dto.HistoryQuery
	if err := c.QueryParser(&q); err != nil {
		return helper.JsonAppError(c, apperror.Validation("query tidak valid"))
	}

	// validasi dulu; setelah stream mulai status code tidak bisa diubah
	filter, format, err := ctrl.Exporter.Prepare(req, q.Filter(), c.Query("format"))
	if err != nil {
		return helper.JsonAppError(c, err)
	}

	filename := fmt.Sprintf("attendance-%s.%s", ctrl.now().In(ctrl.Location).Format("20060102-150405"), format)
	c.Set(fiber.HeaderContentType, service.ContentType(format))
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Set(fiber.HeaderCacheControl, "no-store")

	log := ctrl.Log.With(zap.String("requester", req.UserID.String()), zap.String("format", format))
	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		ctx, cancel := context.WithTimeout(context.Background(), exportTimeout)
		defer cancel()

		n, err := ctrl.Exporter.Stream(ctx, filter, format, w)
		if ferr := w.Flush(); ferr != nil && err == nil {
			err = ferr
		}
		if err != nil {
			// header sudah terkirim; file terpotong & tercatat di log
			log.Error("[EXPORT] stream aborted", zap.Int("rows", n), zap.Error(err))
		}
	})
	return nil
}

/* ===================== SWEEP (admin) ===================== */
// POST /api/a/attendance/sweep
func (ctrl *AttendanceSessionController) Sweep(c *fiber.Ctx) error {
	if ctrl.Sweeper == nil {
		return helper.JsonError(c, fiber.StatusServiceUnavailable, "Auto checkout tidak aktif")
	}
	rep, err := ctrl.Sweeper.RunOnce(c.UserContext())
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	return helper.JsonOK(c, "Sweep selesai", rep)
}
