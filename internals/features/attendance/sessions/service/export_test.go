package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"

	"absensiku_backend/internals/constants"
	"absensiku_backend/internals/features/attendance/sessions/model"
	"absensiku_backend/internals/features/attendance/sessions/repository"
	userModel "absensiku_backend/internals/features/users/user/model"
	"absensiku_backend/internals/helpers/apperror"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

var wantHeader = []string{
	"id", "userName", "userEmail", "date", "workLocation", "status",
	"flags", "checkInTime", "checkOutTime", "totalHours", "isLate", "lateMinutes",
}

func seedExport(t *testing.T, n int) (*repository.MemoryRepository, uuid.UUID) {
	t.Helper()
	repo := repository.NewMemoryRepository()
	user := uuid.New()
	repo.PutUser(userModel.UserModel{ID: user, UserName: "=HYPERLINK(\"x\")", Email: "siti@example.com"})
	for i := 0; i < n; i++ {
		s := closedSession(user, jktTime(2024, 3, 1, 0, 0).AddDate(0, 0, i), model.WorkLocationOffice, model.StatusCheckedOut)
		s.Flags = model.FlagStrings([]model.Flag{model.FlagLate, model.FlagOvertime})
		s.LateReason = ptr("macet, ban bocor")
		repo.Put(s)
	}
	// user lain, tidak boleh ikut untuk staff
	repo.Put(closedSession(uuid.New(), jktTime(2024, 3, 1, 0, 0), model.WorkLocationRemote, model.StatusCheckedOut))
	return repo, user
}

func TestExport_CSVStreamsAllRowsAcrossBatches(t *testing.T) {
	repo, user := seedExport(t, 7)
	e := NewExporter(repo, jkt, nil)
	e.BatchSize = 3

	var buf bytes.Buffer
	n, err := e.Export(context.Background(), Requester{UserID: user, Role: constants.RoleStaff}, SearchFilter{}, "csv", &buf)
	require.NoError(t, err)
	assert.Equal(t, 7, n)

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 8)
	assert.Equal(t, wantHeader, records[0])

	ids := map[string]bool{}
	for _, rec := range records[1:] {
		require.Len(t, rec, 12)
		assert.NotContains(t, rec, "macet, ban bocor", "late reason is not part of the export")
		ids[rec[0]] = true
		assert.Equal(t, "'=HYPERLINK(\"x\")", rec[1], "formula must be neutralised")
		assert.Equal(t, "siti@example.com", rec[2])
		assert.Equal(t, "OFFICE", rec[4])
		assert.Equal(t, "CHECKED_OUT", rec[5])
		assert.Equal(t, "LATE|OVERTIME", rec[6])
		assert.Equal(t, "8.00", rec[9])
	}
	assert.Len(t, ids, 7, "no duplicates across batch boundaries")

	// terbaru dulu
	assert.Equal(t, "2024-03-07", records[1][3])
	assert.Equal(t, "2024-03-01", records[7][3])
	assert.Equal(t, "2024-03-07T09:00:00+07:00", records[1][7])
}

func TestExport_EmptyResultStillHasHeader(t *testing.T) {
	repo := repository.NewMemoryRepository()
	e := NewExporter(repo, jkt, nil)

	var buf bytes.Buffer
	n, err := e.Export(context.Background(), Requester{UserID: uuid.New(), Role: constants.RoleAdmin}, SearchFilter{}, "", &buf)
	require.NoError(t, err)
	assert.Zero(t, n)

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{wantHeader}, records)
}

func TestExport_XLSX(t *testing.T) {
	repo, user := seedExport(t, 4)
	e := NewExporter(repo, jkt, nil)

	var buf bytes.Buffer
	n, err := e.Export(context.Background(), Requester{UserID: uuid.New(), Role: constants.RoleAdmin},
		SearchFilter{UserID: user.String()}, "XLSX", &buf)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Attendance")
	require.NoError(t, err)
	require.Len(t, rows, 5)
	assert.Equal(t, wantHeader, rows[0])
	assert.Equal(t, "siti@example.com", rows[1][2])
}

func TestExport_RejectsBeforeWriting(t *testing.T) {
	repo, user := seedExport(t, 2)
	e := NewExporter(repo, jkt, nil)

	var buf bytes.Buffer
	_, err := e.Export(context.Background(), Requester{UserID: user, Role: constants.RoleStaff}, SearchFilter{}, "pdf", &buf)
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))
	assert.Zero(t, buf.Len())

	_, err = e.Export(context.Background(), Requester{UserID: user, Role: "INTERN"}, SearchFilter{}, "csv", &buf)
	assert.True(t, apperror.IsKind(err, apperror.KindForbidden))
	assert.Zero(t, buf.Len())
}

func TestEscapeFormula(t *testing.T) {
	assert.Equal(t, "'=1+1", escapeFormula("=1+1"))
	assert.Equal(t, "'-2", escapeFormula("-2"))
	assert.Equal(t, "'@SUM", escapeFormula("@SUM"))
	assert.Equal(t, "plain", escapeFormula("plain"))
	assert.Equal(t, "", escapeFormula(""))
}
