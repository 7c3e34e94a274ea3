// file: internals/features/attendance/sessions/dto/attendance_session_dto.go
package dto

import (
	"time"

	m "absensiku_backend/internals/features/attendance/sessions/model"
	"absensiku_backend/internals/features/attendance/sessions/service"
	"absensiku_backend/internals/helpers/dbtime"

	"github.com/google/uuid"
)

/* =========================================================
 * REQUESTS
 * ========================================================= */

// POST /attendance/check-in
type CheckInRequest struct {
	WorkLocation string `json:"work_location" validate:"required,max=20"`

	// Opsional: default jam server
	Time *time.Time `json:"time" validate:"omitempty"`

	LocationAddress *string `json:"location_address" validate:"omitempty,max=255"`
	Notes           *string `json:"notes"            validate:"omitempty,max=1000"`
	LateReason      *string `json:"late_reason"      validate:"omitempty,max=500"`
}

// POST /attendance/:id/check-out
type CheckOutRequest struct {
	Time            *time.Time `json:"time"             validate:"omitempty"`
	LocationAddress *string    `json:"location_address" validate:"omitempty,max=255"`
	Notes           *string    `json:"notes"            validate:"omitempty,max=1000"`
}

// GET /attendance/history (query)
type HistoryQuery struct {
	UserID       string `query:"user_id"`
	DateFrom     string `query:"date_from"`
	DateTo       string `query:"date_to"`
	WorkLocation string `query:"work_location"`
	Status       string `query:"status"` // comma separated, OR

	// Pagination
	Page  *int `query:"page"`
	Limit *int `query:"limit"`
}

const (
	DefaultPage  = 1
	DefaultLimit = 20
)

func (q HistoryQuery) Filter() service.SearchFilter {
	return service.SearchFilter{
		UserID:       q.UserID,
		DateFrom:     q.DateFrom,
		DateTo:       q.DateTo,
		WorkLocation: q.WorkLocation,
		Status:       q.Status,
	}
}

// PageLimit: default 1/20; nilai di luar batas divalidasi di service.
func (q HistoryQuery) PageLimit() (int, int) {
	page, limit := DefaultPage, DefaultLimit
	if q.Page != nil {
		page = *q.Page
	}
	if q.Limit != nil {
		limit = *q.Limit
	}
	return page, limit
}

/* =========================================================
 * RESPONSE
 * ========================================================= */

type AttendanceSessionResponse struct {
	ID           uuid.UUID `json:"id"`
	UserID       uuid.UUID `json:"user_id"`
	Date         string    `json:"date"`
	WorkLocation string    `json:"work_location"`

	CheckInTime         time.Time  `json:"check_in_time"`
	ExpectedCheckInTime *time.Time `json:"expected_check_in_time,omitempty"`
	CheckOutTime        *time.Time `json:"check_out_time,omitempty"`
	TotalHours          *float64   `json:"total_hours,omitempty"`

	Status      string   `json:"status"`
	Flags       []string `json:"flags"`
	IsLate      bool     `json:"is_late"`
	LateMinutes int      `json:"late_minutes"`
	LateReason  *string  `json:"late_reason,omitempty"`

	CheckInLocationAddress  *string `json:"check_in_location_address,omitempty"`
	CheckOutLocationAddress *string `json:"check_out_location_address,omitempty"`
	CheckInNotes            *string `json:"check_in_notes,omitempty"`
	CheckOutNotes           *string `json:"check_out_notes,omitempty"`

	AutoCheckedOut bool      `json:"auto_checked_out"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

/* =========================================================
 * HELPERS
 * ========================================================= */

// FromModel: waktu dikirim di timezone bisnis supaya tanggal tidak bergeser di client.
func FromModel(s m.AttendanceSessionModel, loc *time.Location) AttendanceSessionResponse {
	inLoc := func(t *time.Time) *time.Time {
		if t == nil {
			return nil
		}
		v := t.In(loc)
		return &v
	}
	flags := []string(s.Flags)
	if flags == nil {
		flags = []string{}
	}
	return AttendanceSessionResponse{
		ID:                      s.ID,
		UserID:                  s.UserID,
		Date:                    dbtime.FormatDay(s.Date, loc),
		WorkLocation:            string(s.WorkLocation),
		CheckInTime:             s.CheckInTime.In(loc),
		ExpectedCheckInTime:     inLoc(s.ExpectedCheckInTime),
		CheckOutTime:            inLoc(s.CheckOutTime),
		TotalHours:              s.TotalHours,
		Status:                  string(s.Status),
		Flags:                   flags,
		IsLate:                  s.IsLate,
		LateMinutes:             s.LateMinutes,
		LateReason:              s.LateReason,
		CheckInLocationAddress:  s.CheckInLocationAddress,
		CheckOutLocationAddress: s.CheckOutLocationAddress,
		CheckInNotes:            s.CheckInNotes,
		CheckOutNotes:           s.CheckOutNotes,
		AutoCheckedOut:          s.AutoCheckedOut,
		CreatedAt:               s.CreatedAt,
		UpdatedAt:               s.UpdatedAt,
	}
}

func FromModels(list []m.AttendanceSessionModel, loc *time.Location) []AttendanceSessionResponse {
	out := make([]AttendanceSessionResponse, 0, len(list))
	for _, s := range list {
		out = append(out, FromModel(s, loc))
	}
	return out
}
