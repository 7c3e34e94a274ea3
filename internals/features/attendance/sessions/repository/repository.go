// file: internals/features/attendance/sessions/repository/repository.go
package repository

import (
	"context"
	"database/sql/driver"
	"errors"
	"strings"
	"time"

	"absensiku_backend/internals/features/attendance/sessions/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var ErrNotFound = errors.New("attendance session not found")

// ExpectedState = kondisi baris yang harus masih berlaku agar update jalan.
type ExpectedState int

const (
	// ExpectOpen: check_out_time masih NULL.
	ExpectOpen ExpectedState = iota + 1
)

// ClosePatch = perubahan saat sesi ditutup (manual atau sweep).
// Semua field turunan ikut ditulis dalam satu UPDATE.
type ClosePatch struct {
	CheckOutTime            time.Time
	AutoCheckedOut          bool
	Status                  model.SessionStatus
	Flags                   []model.Flag
	TotalHours              float64
	IsLate                  bool
	LateMinutes             int
	CheckOutNotes           *string
	CheckOutLocationAddress *string
}

// Filter sudah tervalidasi & ter-scope; From/To = batas instant hari bisnis.
type Filter struct {
	UserID       *uuid.UUID
	From         *time.Time
	To           *time.Time
	WorkLocation *model.WorkLocation
	Statuses     []model.SessionStatus
}

// Cursor keyset untuk export: (check_in_time DESC, id DESC).
type Cursor struct {
	CheckInTime time.Time
	ID          uuid.UUID
}

type ExportRow struct {
	model.AttendanceSessionModel `gorm:"embedded"`
	UserName                     string `gorm:"column:user_name"`
	UserEmail                    string `gorm:"column:user_email"`
}

func (r ExportRow) Cursor() Cursor {
	return Cursor{CheckInTime: r.CheckInTime, ID: r.ID}
}

// Reader = operasi baca yang boleh jalan di dalam satu snapshot.
type Reader interface {
	FindMany(ctx context.Context, f Filter, page, limit int) ([]model.AttendanceSessionModel, error)
	Count(ctx context.Context, f Filter) (int64, error)
}

type Repository interface {
	Reader

	// CreateIfAbsent insert kondisional per (user_id, date); false = sudah ada.
	CreateIfAbsent(ctx context.Context, s *model.AttendanceSessionModel) (bool, error)

	// ConditionalUpdate menutup sesi hanya jika expect masih berlaku.
	// applied=false (tanpa error) = 0 baris terpengaruh.
	ConditionalUpdate(ctx context.Context, id uuid.UUID, expect ExpectedState, patch ClosePatch) (*model.AttendanceSessionModel, bool, error)

	FindByID(ctx context.Context, id uuid.UUID) (*model.AttendanceSessionModel, error)
	FindByUserAndDate(ctx context.Context, userID uuid.UUID, date time.Time) (*model.AttendanceSessionModel, error)

	// ReadSnapshot menjalankan fn di atas satu snapshot baca (best-effort).
	ReadSnapshot(ctx context.Context, fn func(r Reader) error) error

	// ListOpen: sesi terbuka dengan date <= notAfter, urut id, keyset afterID.
	ListOpen(ctx context.Context, notAfter time.Time, afterID uuid.UUID, limit int) ([]model.AttendanceSessionModel, error)

	// ExportBatch: satu batch baris export setelah cursor (nil = dari awal).
	ExportBatch(ctx context.Context, f Filter, after *Cursor, limit int) ([]ExportRow, error)
}

/* ===================== ERROR CLASSIFICATION ===================== */

// IsUniqueViolation: 23505 dari Postgres (atau gorm.ErrDuplicatedKey).
func IsUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// IsTransient: error baca yang aman diulang (koneksi putus, serialization,
// deadlock, admin shutdown, timeout driver).
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case strings.HasPrefix(pgErr.Code, "08"),
			pgErr.Code == "40001",
			pgErr.Code == "40P01",
			pgErr.Code == "57P01",
			pgErr.Code == "57P03":
			return true
		}
		return false
	}
	return pgconn.Timeout(err) || errors.Is(err, driver.ErrBadConn)
}
