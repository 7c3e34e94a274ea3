// file: internals/features/attendance/sessions/repository/memory_repository.go
package repository

import (
	"bytes"
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"absensiku_backend/internals/features/attendance/sessions/model"
	userModel "absensiku_backend/internals/features/users/user/model"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// MemoryRepository: store in-process untuk dev lokal (ATTENDANCE_STORE=memory)
// dan test. Kontraknya sama dengan GormRepository: insert kondisional per
// (user, date) dan update yang dijaga check_out_time IS NULL.
type MemoryRepository struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*model.AttendanceSessionModel
	byDay    map[dayKey]uuid.UUID
	users    map[uuid.UUID]userModel.UserModel

	now func() time.Time
}

type dayKey struct {
	user uuid.UUID
	date int64
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		sessions: map[uuid.UUID]*model.AttendanceSessionModel{},
		byDay:    map[dayKey]uuid.UUID{},
		users:    map[uuid.UUID]userModel.UserModel{},
		now:      time.Now,
	}
}

var _ Repository = (*MemoryRepository)(nil)

// PutUser mendaftarkan user untuk join nama/email saat export.
func (r *MemoryRepository) PutUser(u userModel.UserModel) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[u.ID] = u
}

// Put menyimpan sesi apa adanya (seed test). Menimpa sesi (user, date) lama.
func (r *MemoryRepository) Put(s model.AttendanceSessionModel) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	cp := clone(&s)
	r.sessions[cp.ID] = cp
	r.byDay[dayKey{user: cp.UserID, date: cp.Date.UnixNano()}] = cp.ID
}

// All: seluruh sesi (urut check-in naik), buat assertion invariant.
func (r *MemoryRepository) All() []model.AttendanceSessionModel {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]model.AttendanceSessionModel, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, *clone(s))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CheckInTime.Before(out[j].CheckInTime) })
	return out
}

func (r *MemoryRepository) CreateIfAbsent(ctx context.Context, s *model.AttendanceSessionModel) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	key := dayKey{user: s.UserID, date: s.Date.UnixNano()}
	if _, exists := r.byDay[key]; exists {
		return false, nil
	}
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	now := r.now()
	s.CreatedAt, s.UpdatedAt = now, now
	if s.Flags == nil {
		s.Flags = pq.StringArray{}
	}
	r.sessions[s.ID] = clone(s)
	r.byDay[key] = s.ID
	return true, nil
}

func (r *MemoryRepository) ConditionalUpdate(ctx context.Context, id uuid.UUID, expect ExpectedState, p ClosePatch) (*model.AttendanceSessionModel, bool, error) {
	if expect != ExpectOpen {
		return nil, false, errors.New("unsupported expected state")
	}
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok || s.CheckOutTime != nil {
		return nil, false, nil
	}

	out := p.CheckOutTime
	hours := p.TotalHours
	s.CheckOutTime = &out
	s.AutoCheckedOut = p.AutoCheckedOut
	s.Status = p.Status
	s.Flags = model.FlagStrings(p.Flags)
	s.TotalHours = &hours
	s.IsLate = p.IsLate
	s.LateMinutes = p.LateMinutes
	if p.CheckOutNotes != nil {
		s.CheckOutNotes = p.CheckOutNotes
	}
	if p.CheckOutLocationAddress != nil {
		s.CheckOutLocationAddress = p.CheckOutLocationAddress
	}
	s.UpdatedAt = r.now()
	return clone(s), true, nil
}

func (r *MemoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.AttendanceSessionModel, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(s), nil
}

func (r *MemoryRepository) FindByUserAndDate(ctx context.Context, userID uuid.UUID, date time.Time) (*model.AttendanceSessionModel, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byDay[dayKey{user: userID, date: date.UnixNano()}]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(r.sessions[id]), nil
}

func (r *MemoryRepository) FindMany(ctx context.Context, f Filter, page, limit int) ([]model.AttendanceSessionModel, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.findMany(f, page, limit), nil
}

func (r *MemoryRepository) Count(ctx context.Context, f Filter) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.match(f))), nil
}

// ReadSnapshot memegang read lock selama fn, jadi tidak ada write di tengah.
func (r *MemoryRepository) ReadSnapshot(ctx context.Context, fn func(Reader) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return fn(lockedReader{r: r})
}

func (r *MemoryRepository) ListOpen(ctx context.Context, notAfter time.Time, afterID uuid.UUID, limit int) ([]model.AttendanceSessionModel, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	open := make([]*model.AttendanceSessionModel, 0)
	for _, s := range r.sessions {
		if s.CheckOutTime != nil || s.Date.After(notAfter) {
			continue
		}
		if afterID != uuid.Nil && bytes.Compare(s.ID[:], afterID[:]) <= 0 {
			continue
		}
		open = append(open, s)
	}
	sort.Slice(open, func(i, j int) bool { return bytes.Compare(open[i].ID[:], open[j].ID[:]) < 0 })
	if len(open) > limit {
		open = open[:limit]
	}
	out := make([]model.AttendanceSessionModel, 0, len(open))
	for _, s := range open {
		out = append(out, *clone(s))
	}
	return out, nil
}

func (r *MemoryRepository) ExportBatch(ctx context.Context, f Filter, after *Cursor, limit int) ([]ExportRow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := r.match(f)
	start := 0
	if after != nil {
		// all urut DESC → before() false...true, cari posisi pertama setelah cursor
		start = sort.Search(len(all), func(i int) bool { return before(all[i], *after) })
	}

	out := make([]ExportRow, 0, limit)
	for _, s := range all[start:] {
		u := r.users[s.UserID]
		out = append(out, ExportRow{AttendanceSessionModel: *clone(s), UserName: u.UserName, UserEmail: u.Email})
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

/* ===================== internals ===================== */

type lockedReader struct{ r *MemoryRepository }

func (l lockedReader) FindMany(ctx context.Context, f Filter, page, limit int) ([]model.AttendanceSessionModel, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return l.r.findMany(f, page, limit), nil
}

func (l lockedReader) Count(ctx context.Context, f Filter) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return int64(len(l.r.match(f))), nil
}

func (r *MemoryRepository) findMany(f Filter, page, limit int) []model.AttendanceSessionModel {
	all := r.match(f)
	start := (page - 1) * limit
	if start >= len(all) {
		return []model.AttendanceSessionModel{}
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	out := make([]model.AttendanceSessionModel, 0, end-start)
	for _, s := range all[start:end] {
		out = append(out, *clone(s))
	}
	return out
}

// match: filter + urut check_in_time DESC, id DESC. Caller pegang lock.
func (r *MemoryRepository) match(f Filter) []*model.AttendanceSessionModel {
	out := make([]*model.AttendanceSessionModel, 0)
	for _, s := range r.sessions {
		if f.UserID != nil && s.UserID != *f.UserID {
			continue
		}
		if f.From != nil && s.Date.Before(*f.From) {
			continue
		}
		if f.To != nil && s.Date.After(*f.To) {
			continue
		}
		if f.WorkLocation != nil && s.WorkLocation != *f.WorkLocation {
			continue
		}
		if len(f.Statuses) > 0 && !hasStatus(f.Statuses, s.Status) {
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CheckInTime.Equal(out[j].CheckInTime) {
			return out[i].CheckInTime.After(out[j].CheckInTime)
		}
		return bytes.Compare(out[i].ID[:], out[j].ID[:]) > 0
	})
	return out
}

// before: (s.check_in_time, s.id) < cursor.
func before(s *model.AttendanceSessionModel, c Cursor) bool {
	if !s.CheckInTime.Equal(c.CheckInTime) {
		return s.CheckInTime.Before(c.CheckInTime)
	}
	return bytes.Compare(s.ID[:], c.ID[:]) < 0
}

func hasStatus(list []model.SessionStatus, s model.SessionStatus) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func clone(s *model.AttendanceSessionModel) *model.AttendanceSessionModel {
	cp := *s
	if s.Flags != nil {
		cp.Flags = append(pq.StringArray{}, s.Flags...)
	}
	if s.CheckOutTime != nil {
		v := *s.CheckOutTime
		cp.CheckOutTime = &v
	}
	if s.TotalHours != nil {
		v := *s.TotalHours
		cp.TotalHours = &v
	}
	if s.ExpectedCheckInTime != nil {
		v := *s.ExpectedCheckInTime
		cp.ExpectedCheckInTime = &v
	}
	return &cp
}
