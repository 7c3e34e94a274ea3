// file: internals/features/attendance/sessions/repository/gorm_repository.go
package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"absensiku_backend/internals/features/attendance/sessions/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GormRepository struct {
	DB *gorm.DB
}

func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{DB: db}
}

var _ Repository = (*GormRepository)(nil)

func (r *GormRepository) CreateIfAbsent(ctx context.Context, s *model.AttendanceSessionModel) (bool, error) {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	// ON CONFLICT (user_id, date) DO NOTHING → 0 rows kalau sesi hari itu sudah ada
	res := r.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "date"}},
			DoNothing: true,
		}).
		Create(s)
	if res.Error != nil {
		if IsUniqueViolation(res.Error) {
			return false, nil
		}
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *GormRepository) ConditionalUpdate(ctx context.Context, id uuid.UUID, expect ExpectedState, p ClosePatch) (*model.AttendanceSessionModel, bool, error) {
	if expect != ExpectOpen {
		return nil, false, errors.New("unsupported expected state")
	}

	updates := map[string]any{
		"check_out_time":   p.CheckOutTime,
		"auto_checked_out": p.AutoCheckedOut,
		"status":           p.Status,
		"flags":            model.FlagStrings(p.Flags),
		"total_hours":      p.TotalHours,
		"is_late":          p.IsLate,
		"late_minutes":     p.LateMinutes,
		"updated_at":       time.Now(),
	}
	if p.CheckOutNotes != nil {
		updates["check_out_notes"] = *p.CheckOutNotes
	}
	if p.CheckOutLocationAddress != nil {
		updates["check_out_location_address"] = *p.CheckOutLocationAddress
	}

	// guard "check_out_time IS NULL" = optimistic concurrency (checkout vs sweep)
	var updated model.AttendanceSessionModel
	res := r.DB.WithContext(ctx).
		Model(&updated).
		Clauses(clause.Returning{}).
		Where("id = ? AND check_out_time IS NULL", id).
		Updates(updates)
	if res.Error != nil {
		return nil, false, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, false, nil
	}
	return &updated, true, nil
}

func (r *GormRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.AttendanceSessionModel, error) {
	var m model.AttendanceSessionModel
	if err := r.DB.WithContext(ctx).Where("id = ?", id).Take(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}

func (r *GormRepository) FindByUserAndDate(ctx context.Context, userID uuid.UUID, date time.Time) (*model.AttendanceSessionModel, error) {
	var m model.AttendanceSessionModel
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND date = ?", userID, date).
		Take(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}

func (r *GormRepository) FindMany(ctx context.Context, f Filter, page, limit int) ([]model.AttendanceSessionModel, error) {
	rows := make([]model.AttendanceSessionModel, 0, limit)
	err := applyFilter(r.DB.WithContext(ctx).Model(&model.AttendanceSessionModel{}), f, "").
		Order("check_in_time DESC").
		Order("id DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

func (r *GormRepository) Count(ctx context.Context, f Filter) (int64, error) {
	var n int64
	err := applyFilter(r.DB.WithContext(ctx).Model(&model.AttendanceSessionModel{}), f, "").
		Count(&n).Error
	return n, err
}

// ReadSnapshot: REPEATABLE READ + READ ONLY, jadi rows & total
// dihitung dari snapshot yang sama.
func (r *GormRepository) ReadSnapshot(ctx context.Context, fn func(Reader) error) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormRepository{DB: tx})
	}, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
}

func (r *GormRepository) ListOpen(ctx context.Context, notAfter time.Time, afterID uuid.UUID, limit int) ([]model.AttendanceSessionModel, error) {
	q := r.DB.WithContext(ctx).
		Where("check_out_time IS NULL AND date <= ?", notAfter)
	if afterID != uuid.Nil {
		q = q.Where("id > ?", afterID)
	}
	rows := make([]model.AttendanceSessionModel, 0, limit)
	err := q.Order("id ASC").Limit(limit).Find(&rows).Error
	return rows, err
}

func (r *GormRepository) ExportBatch(ctx context.Context, f Filter, after *Cursor, limit int) ([]ExportRow, error) {
	q := r.DB.WithContext(ctx).
		Table("attendance_sessions AS s").
		Select("s.*, COALESCE(u.user_name, '') AS user_name, COALESCE(u.email, '') AS user_email").
		Joins("LEFT JOIN users u ON u.id = s.user_id")
	q = applyFilter(q, f, "s.")
	if after != nil {
		q = q.Where("(s.check_in_time, s.id) < (?, ?)", after.CheckInTime, after.ID)
	}

	rows := make([]ExportRow, 0, limit)
	err := q.Order("s.check_in_time DESC").
		Order("s.id DESC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}

func applyFilter(q *gorm.DB, f Filter, prefix string) *gorm.DB {
	if f.UserID != nil {
		q = q.Where(prefix+"user_id = ?", *f.UserID)
	}
	if f.From != nil {
		q = q.Where(prefix+"date >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where(prefix+"date <= ?", *f.To)
	}
	if f.WorkLocation != nil {
		q = q.Where(prefix+"work_location = ?", *f.WorkLocation)
	}
	if len(f.Statuses) > 0 {
		q = q.Where(prefix+"status IN ?", f.Statuses)
	}
	return q
}
