package model

import (
	"fmt"
	"strings"
	"time"

	"absensiku_backend/internals/helpers/dbtime"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/datatypes"
)

/* ===================== ENUMS ===================== */

type WorkLocation string

const (
	WorkLocationOffice WorkLocation = "OFFICE"
	WorkLocationRemote WorkLocation = "REMOTE"
	WorkLocationField  WorkLocation = "FIELD"
	WorkLocationClient WorkLocation = "CLIENT_SITE"
)

var WorkLocations = []WorkLocation{WorkLocationOffice, WorkLocationRemote, WorkLocationField, WorkLocationClient}

func ParseWorkLocation(s string) (WorkLocation, error) {
	v := WorkLocation(strings.ToUpper(strings.TrimSpace(s)))
	for _, w := range WorkLocations {
		if v == w {
			return v, nil
		}
	}
	return "", fmt.Errorf("unknown work location %q", s)
}

type SessionStatus string

const (
	StatusCheckedIn      SessionStatus = "CHECKED_IN"
	StatusCheckedOut     SessionStatus = "CHECKED_OUT"
	StatusAutoCheckedOut SessionStatus = "AUTO_CHECKED_OUT"
)

var SessionStatuses = []SessionStatus{StatusCheckedIn, StatusCheckedOut, StatusAutoCheckedOut}

func ParseSessionStatus(s string) (SessionStatus, error) {
	v := SessionStatus(strings.ToUpper(strings.TrimSpace(s)))
	for _, st := range SessionStatuses {
		if v == st {
			return v, nil
		}
	}
	return "", fmt.Errorf("unknown status %q", s)
}

// Terminal: CHECKED_OUT / AUTO_CHECKED_OUT tidak boleh berubah lagi.
func (s SessionStatus) Terminal() bool {
	return s == StatusCheckedOut || s == StatusAutoCheckedOut
}

type Flag string

const (
	FlagLate            Flag = "LATE"
	FlagEarlyLeave      Flag = "EARLY_LEAVE"
	FlagOvertime        Flag = "OVERTIME"
	FlagMissingCheckout Flag = "MISSING_CHECKOUT"
)

/* ===================== POLICY SNAPSHOT ===================== */

// PolicySnapshot disimpan (jsonb) saat check-in supaya flag saat checkout
// dihitung dengan aturan yang sama walau config berubah di tengah hari.
type PolicySnapshot struct {
	Timezone            string         `json:"timezone"`
	GraceMinutes        int            `json:"grace_minutes"`
	ExpectedCheckIn     dbtime.Tod     `json:"expected_check_in"`
	MinFullDayHours     float64        `json:"min_full_day_hours"`
	OvertimeHours       float64        `json:"overtime_hours"`
	SweepCutoff         dbtime.Tod     `json:"sweep_cutoff"`
	LateExemptLocations []WorkLocation `json:"late_exempt_locations,omitempty"`
}

/* ===================== MODEL ===================== */

type AttendanceSessionModel struct {
	ID     uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey;column:id" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;not null;column:user_id;uniqueIndex:ux_attendance_sessions_user_date,priority:1" json:"user_id"`

	// awal hari bisnis (00:00 di timezone kantor), bukan tanggal UTC
	Date time.Time `gorm:"type:timestamptz;not null;column:date;uniqueIndex:ux_attendance_sessions_user_date,priority:2" json:"date"`

	WorkLocation WorkLocation `gorm:"type:varchar(20);not null;column:work_location" json:"work_location"`

	CheckInTime         time.Time  `gorm:"type:timestamptz;not null;column:check_in_time" json:"check_in_time"`
	ExpectedCheckInTime *time.Time `gorm:"type:timestamptz;column:expected_check_in_time" json:"expected_check_in_time,omitempty"`
	CheckOutTime        *time.Time `gorm:"type:timestamptz;column:check_out_time" json:"check_out_time,omitempty"`
	TotalHours          *float64   `gorm:"type:numeric(6,2);column:total_hours" json:"total_hours,omitempty"`

	Status SessionStatus  `gorm:"type:varchar(20);not null;column:status" json:"status"`
	Flags  pq.StringArray `gorm:"type:text[];not null;default:'{}';column:flags" json:"flags"`

	IsLate      bool    `gorm:"not null;default:false;column:is_late" json:"is_late"`
	LateMinutes int     `gorm:"not null;default:0;column:late_minutes" json:"late_minutes"`
	LateReason  *string `gorm:"type:varchar(500);column:late_reason" json:"late_reason,omitempty"`

	CheckInLocationAddress  *string `gorm:"type:varchar(255);column:check_in_location_address" json:"check_in_location_address,omitempty"`
	CheckOutLocationAddress *string `gorm:"type:varchar(255);column:check_out_location_address" json:"check_out_location_address,omitempty"`
	CheckInNotes            *string `gorm:"type:text;column:check_in_notes" json:"check_in_notes,omitempty"`
	CheckOutNotes           *string `gorm:"type:text;column:check_out_notes" json:"check_out_notes,omitempty"`

	AutoCheckedOut bool `gorm:"not null;default:false;column:auto_checked_out" json:"auto_checked_out"`

	PolicySnapshot datatypes.JSONType[PolicySnapshot] `gorm:"type:jsonb;column:policy_snapshot" json:"-"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (AttendanceSessionModel) TableName() string { return "attendance_sessions" }

// Open: belum checkout.
func (m *AttendanceSessionModel) Open() bool { return m.CheckOutTime == nil }

// HasFlag helper buat DTO & test.
func (m *AttendanceSessionModel) HasFlag(f Flag) bool {
	for _, v := range m.Flags {
		if v == string(f) {
			return true
		}
	}
	return false
}

// FlagStrings konversi []Flag → pq.StringArray.
func FlagStrings(flags []Flag) pq.StringArray {
	out := make(pq.StringArray, 0, len(flags))
	for _, f := range flags {
		out = append(out, string(f))
	}
	return out
}
