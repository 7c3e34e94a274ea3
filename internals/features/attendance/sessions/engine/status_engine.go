// Package engine menurunkan status, flag, keterlambatan dan total jam sebuah
// sesi presensi. Murni: tidak baca jam sistem, tidak akses DB.
package engine

import (
	"errors"
	"math"
	"time"

	"absensiku_backend/internals/features/attendance/sessions/model"
	"absensiku_backend/internals/helpers/dbtime"
)

type Policy struct {
	Location            *time.Location
	GraceMinutes        int
	ExpectedCheckIn     dbtime.Tod
	MinFullDayHours     float64
	OvertimeHours       float64
	SweepCutoff         dbtime.Tod
	LateExemptLocations []model.WorkLocation
}

func (p Policy) Validate() error {
	switch {
	case p.Location == nil:
		return errors.New("policy: timezone is required")
	case p.GraceMinutes < 0:
		return errors.New("policy: grace minutes must not be negative")
	case p.MinFullDayHours <= 0:
		return errors.New("policy: min full day hours must be positive")
	case p.OvertimeHours <= 0:
		return errors.New("policy: overtime hours must be positive")
	case p.OvertimeHours < p.MinFullDayHours:
		return errors.New("policy: overtime hours must not be below min full day hours")
	}
	return nil
}

// CutoffOn: instant cutoff sweep pada hari bisnis `day`.
func (p Policy) CutoffOn(day time.Time) time.Time {
	return p.SweepCutoff.On(day, p.Location)
}

// ExpectedOn: jam masuk yang diharapkan pada hari bisnis `day`.
func (p Policy) ExpectedOn(day time.Time) time.Time {
	return p.ExpectedCheckIn.On(day, p.Location)
}

func (p Policy) lateExempt(loc model.WorkLocation) bool {
	for _, l := range p.LateExemptLocations {
		if l == loc {
			return true
		}
	}
	return false
}

// Snapshot untuk disimpan di sesi.
func (p Policy) Snapshot() model.PolicySnapshot {
	return model.PolicySnapshot{
		Timezone:            p.Location.String(),
		GraceMinutes:        p.GraceMinutes,
		ExpectedCheckIn:     p.ExpectedCheckIn,
		MinFullDayHours:     p.MinFullDayHours,
		OvertimeHours:       p.OvertimeHours,
		SweepCutoff:         p.SweepCutoff,
		LateExemptLocations: append([]model.WorkLocation(nil), p.LateExemptLocations...),
	}
}

// FromSnapshot membangun Policy dari snapshot sesi. Snapshot kosong
// (baris lama) → fallback ke policy aktif.
func FromSnapshot(s model.PolicySnapshot, fallback Policy) Policy {
	if s.Timezone == "" || s.MinFullDayHours <= 0 || s.OvertimeHours <= 0 {
		return fallback
	}
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return fallback
	}
	return Policy{
		Location:            loc,
		GraceMinutes:        s.GraceMinutes,
		ExpectedCheckIn:     s.ExpectedCheckIn,
		MinFullDayHours:     s.MinFullDayHours,
		OvertimeHours:       s.OvertimeHours,
		SweepCutoff:         s.SweepCutoff,
		LateExemptLocations: s.LateExemptLocations,
	}
}

type Input struct {
	Date                time.Time // awal hari bisnis; zero → diturunkan dari CheckInTime
	WorkLocation        model.WorkLocation
	CheckInTime         time.Time
	ExpectedCheckInTime *time.Time
	CheckOutTime        *time.Time
	AutoCheckedOut      bool
}

type Result struct {
	Status              model.SessionStatus
	Flags               []model.Flag
	IsLate              bool
	LateMinutes         int
	TotalHours          *float64
	ExpectedCheckInTime time.Time
}

// Evaluate menurunkan field turunan sesi. Input sama → output sama.
func Evaluate(in Input, p Policy) Result {
	day := in.Date
	if day.IsZero() {
		day = dbtime.DayStart(in.CheckInTime, p.Location)
	}

	expected := p.ExpectedOn(day)
	if in.ExpectedCheckInTime != nil {
		expected = *in.ExpectedCheckInTime
	}

	res := Result{ExpectedCheckInTime: expected}

	if !p.lateExempt(in.WorkLocation) {
		threshold := expected.Add(time.Duration(p.GraceMinutes) * time.Minute)
		if in.CheckInTime.After(threshold) {
			res.IsLate = true
			res.LateMinutes = int(in.CheckInTime.Sub(threshold) / time.Minute)
		}
	}
	if res.IsLate {
		res.Flags = append(res.Flags, model.FlagLate)
	}

	if in.CheckOutTime == nil {
		res.Status = model.StatusCheckedIn
		return res
	}

	hours := roundHours(in.CheckOutTime.Sub(in.CheckInTime))
	res.TotalHours = &hours

	if in.AutoCheckedOut {
		res.Status = model.StatusAutoCheckedOut
	} else {
		res.Status = model.StatusCheckedOut
	}

	if hours < p.MinFullDayHours && !in.AutoCheckedOut {
		res.Flags = append(res.Flags, model.FlagEarlyLeave)
	}
	if hours > p.OvertimeHours {
		res.Flags = append(res.Flags, model.FlagOvertime)
	}
	if in.AutoCheckedOut {
		res.Flags = append(res.Flags, model.FlagMissingCheckout)
	}
	return res
}

func roundHours(d time.Duration) float64 {
	if d < 0 {
		d = 0
	}
	return math.Round(d.Hours()*100) / 100
}
