package service

import (
	"testing"
	"time"

	"absensiku_backend/internals/features/attendance/sessions/engine"
	"absensiku_backend/internals/features/attendance/sessions/model"
	"absensiku_backend/internals/helpers/dbtime"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

var jkt = func() *time.Location {
	loc, err := time.LoadLocation("Asia/Jakarta")
	if err != nil {
		panic(err)
	}
	return loc
}()

func testPolicy(t *testing.T) engine.Policy {
	t.Helper()
	p := engine.Policy{
		Location:        jkt,
		GraceMinutes:    10,
		ExpectedCheckIn: dbtime.MustParse("09:00"),
		MinFullDayHours: 8,
		OvertimeHours:   10,
		SweepCutoff:     dbtime.MustParse("23:59"),
	}
	require.NoError(t, p.Validate())
	return p
}

func jktTime(y int, m time.Month, d, hh, mm int) time.Time {
	return time.Date(y, m, d, hh, mm, 0, 0, jkt)
}

func ptr[T any](v T) *T { return &v }

// closedSession: sesi sudah checkout, untuk seed query/export.
func closedSession(user uuid.UUID, date time.Time, wl model.WorkLocation, st model.SessionStatus) model.AttendanceSessionModel {
	in := date.Add(9 * time.Hour)
	out := date.Add(17 * time.Hour)
	hours := 8.0
	return model.AttendanceSessionModel{
		ID:           uuid.New(),
		UserID:       user,
		Date:         date,
		WorkLocation: wl,
		CheckInTime:  in,
		CheckOutTime: &out,
		TotalHours:   &hours,
		Status:       st,
		Flags:        model.FlagStrings(nil),
	}
}
