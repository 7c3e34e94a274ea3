package service

import (
	"context"
	"testing"
	"time"

	"absensiku_backend/internals/constants"
	"absensiku_backend/internals/features/attendance/sessions/model"
	"absensiku_backend/internals/features/attendance/sessions/repository"
	"absensiku_backend/internals/helpers/apperror"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seedHistory: userA 45 hari berurutan mulai 1 Jan 2024 (OFFICE di Januari,
// REMOTE di Februari), userB 3 hari.
func seedHistory(t *testing.T) (*repository.MemoryRepository, uuid.UUID, uuid.UUID) {
	t.Helper()
	repo := repository.NewMemoryRepository()
	userA, userB := uuid.New(), uuid.New()

	start := jktTime(2024, 1, 1, 0, 0)
	for i := 0; i < 45; i++ {
		d := start.AddDate(0, 0, i)
		wl := model.WorkLocationOffice
		if d.Month() == time.February {
			wl = model.WorkLocationRemote
		}
		st := model.StatusCheckedOut
		if i%5 == 0 {
			st = model.StatusAutoCheckedOut
		}
		repo.Put(closedSession(userA, d, wl, st))
	}
	for i := 0; i < 3; i++ {
		repo.Put(closedSession(userB, start.AddDate(0, 0, i), model.WorkLocationField, model.StatusCheckedOut))
	}
	return repo, userA, userB
}

func TestSearch_PaginationOverFullHistory(t *testing.T) {
	repo, userA, _ := seedHistory(t)
	q := NewQuery(repo, jkt, nil)
	req := Requester{UserID: userA, Role: constants.RoleStaff}
	ctx := context.Background()

	var seen []uuid.UUID
	for page, want := range map[int]int{1: 20, 2: 20, 3: 5, 4: 0} {
		res, err := q.Search(ctx, req, SearchFilter{}, page, 20)
		require.NoError(t, err)
		assert.Equal(t, int64(45), res.Total, "page %d", page)
		assert.Len(t, res.Sessions, want, "page %d", page)
		for _, s := range res.Sessions {
			seen = append(seen, s.ID)
		}
	}
	assert.Len(t, seen, 45)

	first, err := q.Search(ctx, req, SearchFilter{}, 1, 20)
	require.NoError(t, err)
	for i := 1; i < len(first.Sessions); i++ {
		assert.True(t, first.Sessions[i-1].CheckInTime.After(first.Sessions[i].CheckInTime), "newest first")
	}
}

func TestSearch_StaffScopeCannotBeWidened(t *testing.T) {
	repo, userA, userB := seedHistory(t)
	q := NewQuery(repo, jkt, nil)

	res, err := q.Search(context.Background(),
		Requester{UserID: userA, Role: constants.RoleStaff},
		SearchFilter{UserID: userB.String()}, 1, 100)
	require.NoError(t, err)

	assert.Equal(t, int64(45), res.Total)
	for _, s := range res.Sessions {
		assert.Equal(t, userA, s.UserID)
	}
}

func TestSearch_AdminScope(t *testing.T) {
	repo, _, userB := seedHistory(t)
	q := NewQuery(repo, jkt, nil)
	admin := Requester{UserID: uuid.New(), Role: "admin"}

	all, err := q.Search(context.Background(), admin, SearchFilter{}, 1, 100)
	require.NoError(t, err)
	assert.Equal(t, int64(48), all.Total)

	onlyB, err := q.Search(context.Background(), admin, SearchFilter{UserID: userB.String()}, 1, 100)
	require.NoError(t, err)
	assert.Equal(t, int64(3), onlyB.Total)
}

func TestSearch_Filters(t *testing.T) {
	repo, userA, _ := seedHistory(t)
	q := NewQuery(repo, jkt, nil)
	req := Requester{UserID: userA, Role: constants.RoleStaff}
	ctx := context.Background()

	res, err := q.Search(ctx, req, SearchFilter{DateFrom: "2024-01-01", DateTo: "2024-01-31", WorkLocation: "OFFICE"}, 1, 100)
	require.NoError(t, err)
	assert.Equal(t, int64(31), res.Total)

	res, err = q.Search(ctx, req, SearchFilter{DateFrom: "2024-01-10", DateTo: "2024-01-10"}, 1, 100)
	require.NoError(t, err)
	require.Equal(t, int64(1), res.Total)
	assert.True(t, res.Sessions[0].Date.Equal(jktTime(2024, 1, 10, 0, 0)))

	res, err = q.Search(ctx, req, SearchFilter{Status: "AUTO_CHECKED_OUT"}, 1, 100)
	require.NoError(t, err)
	assert.Equal(t, int64(9), res.Total)

	res, err = q.Search(ctx, req, SearchFilter{Status: "AUTO_CHECKED_OUT, CHECKED_OUT"}, 1, 100)
	require.NoError(t, err)
	assert.Equal(t, int64(45), res.Total)

	res, err = q.Search(ctx, req, SearchFilter{WorkLocation: "REMOTE", DateFrom: "2024-02-01"}, 1, 100)
	require.NoError(t, err)
	assert.Equal(t, int64(14), res.Total)
}

func TestSearch_Rejections(t *testing.T) {
	repo, userA, _ := seedHistory(t)
	q := NewQuery(repo, jkt, nil)
	staff := Requester{UserID: userA, Role: constants.RoleStaff}

	cases := []struct {
		name  string
		req   Requester
		f     SearchFilter
		page  int
		limit int
		kind  apperror.Kind
	}{
		{"anonymous", Requester{Role: constants.RoleStaff}, SearchFilter{}, 1, 20, apperror.KindUnauthorized},
		{"unknown role", Requester{UserID: userA, Role: "GUEST"}, SearchFilter{}, 1, 20, apperror.KindForbidden},
		{"page zero", staff, SearchFilter{}, 0, 20, apperror.KindValidation},
		{"limit too big", staff, SearchFilter{}, 1, 101, apperror.KindValidation},
		{"limit zero", staff, SearchFilter{}, 1, 0, apperror.KindValidation},
		{"bad date", staff, SearchFilter{DateFrom: "2024-13-01"}, 1, 20, apperror.KindValidation},
		{"from after to", staff, SearchFilter{DateFrom: "2024-02-01", DateTo: "2024-01-01"}, 1, 20, apperror.KindValidation},
		{"bad location", staff, SearchFilter{WorkLocation: "MOON"}, 1, 20, apperror.KindValidation},
		{"bad status", staff, SearchFilter{Status: "CHECKED_OUT,SLEEPING"}, 1, 20, apperror.KindValidation},
		{"admin bad user id", Requester{UserID: userA, Role: constants.RoleAdmin}, SearchFilter{UserID: "nope"}, 1, 20, apperror.KindValidation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := q.Search(context.Background(), tc.req, tc.f, tc.page, tc.limit)
			assert.Equal(t, tc.kind, apperror.KindOf(err), "got %v", err)
		})
	}
}

func TestBuildFilter_DedupesStatuses(t *testing.T) {
	f, err := BuildFilter(Requester{UserID: uuid.New(), Role: constants.RoleAdmin},
		SearchFilter{Status: "CHECKED_OUT,checked_out,,AUTO_CHECKED_OUT"}, jkt)
	require.NoError(t, err)
	assert.Equal(t, []model.SessionStatus{model.StatusCheckedOut, model.StatusAutoCheckedOut}, f.Statuses)
	assert.Nil(t, f.UserID)
}

func TestBuildFilter_DayBoundsInBusinessTimezone(t *testing.T) {
	f, err := BuildFilter(Requester{UserID: uuid.New(), Role: constants.RoleStaff},
		SearchFilter{DateFrom: "2024-01-15", DateTo: "2024-01-15"}, jkt)
	require.NoError(t, err)
	require.NotNil(t, f.From)
	require.NotNil(t, f.To)
	assert.True(t, f.From.Equal(time.Date(2024, 1, 14, 17, 0, 0, 0, time.UTC)))
	assert.True(t, f.To.Before(time.Date(2024, 1, 15, 17, 0, 0, 0, time.UTC)))
	assert.True(t, f.To.After(time.Date(2024, 1, 15, 16, 59, 59, 0, time.UTC)))
}
