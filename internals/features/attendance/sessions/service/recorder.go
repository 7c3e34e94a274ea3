// file: internals/features/attendance/sessions/service/recorder.go
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"absensiku_backend/internals/features/attendance/sessions/engine"
	"absensiku_backend/internals/features/attendance/sessions/model"
	"absensiku_backend/internals/features/attendance/sessions/repository"
	"absensiku_backend/internals/helpers/apperror"
	"absensiku_backend/internals/helpers/dbtime"
	"absensiku_backend/internals/helpers/logger"
	"absensiku_backend/internals/helpers/metrics"
	"absensiku_backend/internals/helpers/textsan"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

type RecorderConfig struct {
	MaxFutureSkew time.Duration // toleransi jam client di depan server
	MaxBackdate   time.Duration // seberapa jauh ke belakang waktu boleh dicatat
}

var DefaultRecorderConfig = RecorderConfig{
	MaxFutureSkew: 5 * time.Minute,
	MaxBackdate:   24 * time.Hour,
}

// Recorder menerapkan event check-in / check-out ke store.
// Tidak ada lock in-process; keunikan & race diselesaikan oleh
// insert/update kondisional di repository.
type Recorder struct {
	Repo   repository.Repository
	Policy engine.Policy
	Cfg    RecorderConfig
	Now    func() time.Time
	Log    *zap.Logger
}

func NewRecorder(repo repository.Repository, policy engine.Policy, cfg RecorderConfig, log *zap.Logger) *Recorder {
	return &Recorder{
		Repo:   repo,
		Policy: policy,
		Cfg:    cfg,
		Now:    time.Now,
		Log:    logger.WithComponent(logger.OrNop(log), "attendance.recorder"),
	}
}

type CheckInInput struct {
	UserID          uuid.UUID
	Time            time.Time
	WorkLocation    string
	LocationAddress *string
	Notes           *string
	LateReason      *string
}

type CheckOutInput struct {
	SessionID       uuid.UUID
	UserID          uuid.UUID // uuid.Nil = tanpa cek pemilik (admin/internal)
	Time            time.Time
	Notes           *string
	LocationAddress *string
}

/* ===================== CHECK-IN ===================== */

func (r *Recorder) CheckIn(ctx context.Context, in CheckInInput) (*model.AttendanceSessionModel, error) {
	if in.UserID == uuid.Nil {
		return nil, apperror.Unauthorized("identity is required")
	}
	wl, err := model.ParseWorkLocation(in.WorkLocation)
	if err != nil {
		metrics.CheckIns.WithLabelValues(metrics.ResultRejected).Inc()
		return nil, apperror.Validation("%s", err.Error())
	}
	if err := r.checkWindow(in.Time); err != nil {
		metrics.CheckIns.WithLabelValues(metrics.ResultRejected).Inc()
		return nil, err
	}

	date := dbtime.DayStart(in.Time, r.Policy.Location)
	res := engine.Evaluate(engine.Input{
		Date:         date,
		WorkLocation: wl,
		CheckInTime:  in.Time,
	}, r.Policy)
	expected := res.ExpectedCheckInTime

	s := &model.AttendanceSessionModel{
		ID:                     uuid.New(),
		UserID:                 in.UserID,
		Date:                   date,
		WorkLocation:           wl,
		CheckInTime:            in.Time,
		ExpectedCheckInTime:    &expected,
		Status:                 res.Status,
		Flags:                  model.FlagStrings(res.Flags),
		IsLate:                 res.IsLate,
		LateMinutes:            res.LateMinutes,
		LateReason:             textsan.Clean(in.LateReason, textsan.MaxLateReason),
		CheckInLocationAddress: textsan.Clean(in.LocationAddress, textsan.MaxAddress),
		CheckInNotes:           textsan.Clean(in.Notes, textsan.MaxNotes),
		PolicySnapshot:         datatypes.NewJSONType(r.Policy.Snapshot()),
	}

	created, err := r.Repo.CreateIfAbsent(ctx, s)
	if err != nil {
		metrics.CheckIns.WithLabelValues(metrics.ResultError).Inc()
		return nil, fmt.Errorf("create attendance session: %w", err)
	}
	if !created {
		metrics.CheckIns.WithLabelValues(metrics.ResultConflict).Inc()
		return nil, apperror.Conflict("attendance session for %s already exists", dbtime.FormatDay(date, r.Policy.Location))
	}

	metrics.CheckIns.WithLabelValues(metrics.ResultOK).Inc()
	r.Log.Info("[CHECK-IN] session opened",
		zap.String("session_id", s.ID.String()),
		zap.String("user_id", s.UserID.String()),
		zap.String("work_location", string(wl)),
		zap.Bool("is_late", s.IsLate),
		zap.Int("late_minutes", s.LateMinutes),
	)
	return s, nil
}

/* ===================== CHECK-OUT ===================== */

func (r *Recorder) CheckOut(ctx context.Context, in CheckOutInput) (*model.AttendanceSessionModel, error) {
	s, err := r.Repo.FindByID(ctx, in.SessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			metrics.CheckOuts.WithLabelValues(metrics.ResultRejected).Inc()
			return nil, apperror.NotFound("attendance session not found")
		}
		metrics.CheckOuts.WithLabelValues(metrics.ResultError).Inc()
		return nil, fmt.Errorf("load attendance session: %w", err)
	}
	// sesi milik orang lain diperlakukan seperti tidak ada
	if in.UserID != uuid.Nil && s.UserID != in.UserID {
		metrics.CheckOuts.WithLabelValues(metrics.ResultRejected).Inc()
		return nil, apperror.NotFound("attendance session not found")
	}
	if !s.Open() || s.Status.Terminal() {
		metrics.CheckOuts.WithLabelValues(metrics.ResultConflict).Inc()
		return nil, apperror.Conflict("attendance session is already closed")
	}
	if in.Time.Before(s.CheckInTime) {
		metrics.CheckOuts.WithLabelValues(metrics.ResultRejected).Inc()
		return nil, apperror.InvalidTime("check-out time is before check-in time")
	}
	if in.Time.After(r.Now().Add(r.Cfg.MaxFutureSkew)) {
		metrics.CheckOuts.WithLabelValues(metrics.ResultRejected).Inc()
		return nil, apperror.InvalidTime("check-out time is in the future")
	}

	patch := ClosurePatch(s, in.Time, false, r.Policy)
	patch.CheckOutNotes = textsan.Clean(in.Notes, textsan.MaxNotes)
	patch.CheckOutLocationAddress = textsan.Clean(in.LocationAddress, textsan.MaxAddress)

	updated, applied, err := r.Repo.ConditionalUpdate(ctx, s.ID, repository.ExpectOpen, patch)
	if err != nil {
		metrics.CheckOuts.WithLabelValues(metrics.ResultError).Inc()
		return nil, fmt.Errorf("close attendance session: %w", err)
	}
	if !applied {
		// kalah race (sweep / request lain sudah menutup duluan)
		metrics.CheckOuts.WithLabelValues(metrics.ResultConflict).Inc()
		return nil, apperror.Conflict("attendance session is already closed")
	}

	metrics.CheckOuts.WithLabelValues(metrics.ResultOK).Inc()
	r.Log.Info("[CHECK-OUT] session closed",
		zap.String("session_id", updated.ID.String()),
		zap.String("user_id", updated.UserID.String()),
		zap.Strings("flags", updated.Flags),
	)
	return updated, nil
}

/* ===================== TODAY ===================== */

// Today: sesi requester untuk hari bisnis saat ini.
func (r *Recorder) Today(ctx context.Context, userID uuid.UUID) (*model.AttendanceSessionModel, error) {
	if userID == uuid.Nil {
		return nil, apperror.Unauthorized("identity is required")
	}
	day := dbtime.DayStart(r.Now(), r.Policy.Location)
	s, err := r.Repo.FindByUserAndDate(ctx, userID, day)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperror.NotFound("no attendance session today")
		}
		return nil, fmt.Errorf("load today's session: %w", err)
	}
	return s, nil
}

func (r *Recorder) checkWindow(t time.Time) error {
	if t.IsZero() {
		return apperror.InvalidTime("time is required")
	}
	now := r.Now()
	if t.After(now.Add(r.Cfg.MaxFutureSkew)) {
		return apperror.InvalidTime("time %s is too far in the future", t.Format(time.RFC3339))
	}
	if r.Cfg.MaxBackdate > 0 && t.Before(now.Add(-r.Cfg.MaxBackdate)) {
		return apperror.InvalidTime("time %s is too far in the past", t.Format(time.RFC3339))
	}
	return nil
}

// ClosurePatch menghitung ulang field turunan untuk penutupan sesi,
// memakai policy yang tersimpan di sesi (fallback ke policy aktif).
func ClosurePatch(s *model.AttendanceSessionModel, at time.Time, auto bool, fallback engine.Policy) repository.ClosePatch {
	p := engine.FromSnapshot(s.PolicySnapshot.Data(), fallback)
	res := engine.Evaluate(engine.Input{
		Date:                s.Date,
		WorkLocation:        s.WorkLocation,
		CheckInTime:         s.CheckInTime,
		ExpectedCheckInTime: s.ExpectedCheckInTime,
		CheckOutTime:        &at,
		AutoCheckedOut:      auto,
	}, p)

	var hours float64
	if res.TotalHours != nil {
		hours = *res.TotalHours
	}
	return repository.ClosePatch{
		CheckOutTime:   at,
		AutoCheckedOut: auto,
		Status:         res.Status,
		Flags:          res.Flags,
		TotalHours:     hours,
		IsLate:         res.IsLate,
		LateMinutes:    res.LateMinutes,
	}
}
