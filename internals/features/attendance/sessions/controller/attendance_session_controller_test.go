package controller_test

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"absensiku_backend/internals/constants"
	"absensiku_backend/internals/features/attendance/sessions/controller"
	"absensiku_backend/internals/features/attendance/sessions/engine"
	"absensiku_backend/internals/features/attendance/sessions/model"
	"absensiku_backend/internals/features/attendance/sessions/repository"
	"absensiku_backend/internals/features/attendance/sessions/route"
	"absensiku_backend/internals/features/attendance/sessions/scheduler"
	"absensiku_backend/internals/features/attendance/sessions/service"
	helper "absensiku_backend/internals/helpers"
	"absensiku_backend/internals/helpers/dbtime"
	"absensiku_backend/internals/middlewares"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var jkt = func() *time.Location {
	loc, err := time.LoadLocation("Asia/Jakarta")
	if err != nil {
		panic(err)
	}
	return loc
}()

type envelope struct {
	Success    bool                `json:"success"`
	Message    string              `json:"message"`
	ErrorCode  string              `json:"error_code"`
	Errors     map[string][]string `json:"errors"`
	Data       json.RawMessage     `json:"data"`
	Pagination *helper.Pagination  `json:"pagination"`
}

type sessionBody struct {
	ID          uuid.UUID `json:"id"`
	Date        string    `json:"date"`
	Status      string    `json:"status"`
	Flags       []string  `json:"flags"`
	IsLate      bool      `json:"is_late"`
	LateMinutes int       `json:"late_minutes"`
	TotalHours  *float64  `json:"total_hours"`
}

type harness struct {
	app  *fiber.App
	repo *repository.MemoryRepository
}

// identitas disuntik lewat header; verifikasi JWT dites di middleware auth.
func fakeAuth(c *fiber.Ctx) error {
	if id := c.Get("X-Test-User"); id != "" {
		c.Locals(helper.LocUserID, id)
		c.Locals(helper.LocRole, c.Get("X-Test-Role"))
	}
	return c.Next()
}

func newHarness(t *testing.T, now time.Time, mw ...fiber.Handler) *harness {
	t.Helper()
	policy := engine.Policy{
		Location:        jkt,
		GraceMinutes:    10,
		ExpectedCheckIn: dbtime.MustParse("09:00"),
		MinFullDayHours: 8,
		OvertimeHours:   10,
		SweepCutoff:     dbtime.MustParse("23:59"),
	}
	repo := repository.NewMemoryRepository()
	rec := service.NewRecorder(repo, policy, service.DefaultRecorderConfig, nil)
	rec.Now = func() time.Time { return now }
	sched := scheduler.New(repo, policy, nil, "", nil)
	sched.Now = rec.Now

	h := controller.NewAttendanceSessionController(rec,
		service.NewQuery(repo, jkt, nil),
		service.NewExporter(repo, jkt, nil),
		sched, jkt, nil)

	app := fiber.New(fiber.Config{ErrorHandler: helper.ErrorHandler(nil)})
	for _, m := range mw {
		app.Use(m)
	}
	route.AttendanceUserRoutes(app.Group("/api/u", fakeAuth), h)
	route.AttendanceAdminRoutes(app.Group("/api/a", fakeAuth), h)
	return &harness{app: app, repo: repo}
}

func (h *harness) do(t *testing.T, method, path string, user uuid.UUID, role string, body any) (*http.Response, []byte) {
	t.Helper()
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rdr = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rdr)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if user != uuid.Nil {
		req.Header.Set("X-Test-User", user.String())
		req.Header.Set("X-Test-Role", role)
	}
	resp, err := h.app.Test(req, -1)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, raw
}

func decode(t *testing.T, raw []byte) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(raw, &env), string(raw))
	return env
}

func TestHTTP_CheckInCheckOutFlow(t *testing.T) {
	h := newHarness(t, time.Date(2024, 1, 15, 18, 0, 0, 0, jkt))
	user := uuid.New()

	resp, raw := h.do(t, "POST", "/api/u/attendance/check-in", user, constants.RoleStaff, map[string]any{
		"work_location": "OFFICE",
		"time":          "2024-01-15T09:15:00+07:00",
		"late_reason":   "ban bocor",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode, string(raw))
	var in sessionBody
	require.NoError(t, json.Unmarshal(decode(t, raw).Data, &in))
	assert.Equal(t, "2024-01-15", in.Date)
	assert.Equal(t, "CHECKED_IN", in.Status)
	assert.True(t, in.IsLate)
	assert.Equal(t, 5, in.LateMinutes)
	assert.Equal(t, []string{"LATE"}, in.Flags)

	resp, raw = h.do(t, "POST", "/api/u/attendance/check-in", user, constants.RoleStaff, map[string]any{"work_location": "REMOTE"})
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
	assert.Equal(t, "CONFLICT", decode(t, raw).ErrorCode)

	resp, raw = h.do(t, "GET", "/api/u/attendance/today", user, constants.RoleStaff, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode, string(raw))

	resp, raw = h.do(t, "POST", "/api/u/attendance/"+in.ID.String()+"/check-out", user, constants.RoleStaff, map[string]any{
		"time": "2024-01-15T17:45:00+07:00",
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode, string(raw))
	var out sessionBody
	require.NoError(t, json.Unmarshal(decode(t, raw).Data, &out))
	assert.Equal(t, "CHECKED_OUT", out.Status)
	require.NotNil(t, out.TotalHours)
	assert.Equal(t, 8.5, *out.TotalHours)

	resp, raw = h.do(t, "POST", "/api/u/attendance/"+in.ID.String()+"/check-out", user, constants.RoleStaff, nil)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode, string(raw))
}

func TestHTTP_ErrorMapping(t *testing.T) {
	now := time.Date(2024, 1, 15, 12, 0, 0, 0, jkt)
	h := newHarness(t, now)
	user := uuid.New()

	cases := []struct {
		name   string
		method string
		path   string
		user   uuid.UUID
		role   string
		body   any
		status int
		code   string
	}{
		{"no identity", "POST", "/api/u/attendance/check-in", uuid.Nil, "", map[string]any{"work_location": "OFFICE"}, 401, "UNAUTHORIZED"},
		{"missing location", "POST", "/api/u/attendance/check-in", user, "STAFF", map[string]any{}, 422, "VALIDATION_ERROR"},
		{"unknown location", "POST", "/api/u/attendance/check-in", user, "STAFF", map[string]any{"work_location": "MARS"}, 422, "VALIDATION_ERROR"},
		{"future time", "POST", "/api/u/attendance/check-in", user, "STAFF", map[string]any{"work_location": "OFFICE", "time": now.Add(time.Hour).Format(time.RFC3339)}, 400, "INVALID_TIME"},
		{"bad session id", "POST", "/api/u/attendance/nope/check-out", user, "STAFF", nil, 422, "VALIDATION_ERROR"},
		{"unknown session", "POST", "/api/u/attendance/" + uuid.NewString() + "/check-out", user, "STAFF", nil, 404, "NOT_FOUND"},
		{"no session today", "GET", "/api/u/attendance/today", user, "STAFF", nil, 404, "NOT_FOUND"},
		{"unknown role", "GET", "/api/u/attendance/history", user, "GUEST", nil, 403, "FORBIDDEN"},
		{"limit too large", "GET", "/api/u/attendance/history?limit=500", user, "STAFF", nil, 422, "VALIDATION_ERROR"},
		{"page not a number", "GET", "/api/u/attendance/history?page=abc", user, "STAFF", nil, 422, "VALIDATION_ERROR"},
		{"staff on admin route", "GET", "/api/a/attendance/history", user, "STAFF", nil, 403, "FORBIDDEN"},
		{"bad export format", "GET", "/api/u/attendance/export?format=pdf", user, "STAFF", nil, 422, "VALIDATION_ERROR"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, raw := h.do(t, tc.method, tc.path, tc.user, tc.role, tc.body)
			assert.Equal(t, tc.status, resp.StatusCode, string(raw))
			env := decode(t, raw)
			assert.False(t, env.Success)
			assert.Equal(t, tc.code, env.ErrorCode)
		})
	}
}

func TestHTTP_HistoryPaginationAndScope(t *testing.T) {
	h := newHarness(t, time.Date(2024, 3, 1, 12, 0, 0, 0, jkt))
	staff, other := uuid.New(), uuid.New()

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, jkt)
	for i := 0; i < 45; i++ {
		d := start.AddDate(0, 0, i)
		out := d.Add(17 * time.Hour)
		h.repo.Put(model.AttendanceSessionModel{
			UserID: staff, Date: d, WorkLocation: model.WorkLocationOffice,
			CheckInTime: d.Add(9 * time.Hour), CheckOutTime: &out, Status: model.StatusCheckedOut,
		})
	}
	h.repo.Put(model.AttendanceSessionModel{
		UserID: other, Date: start, WorkLocation: model.WorkLocationRemote,
		CheckInTime: start.Add(9 * time.Hour), Status: model.StatusCheckedIn,
	})

	for page, want := range map[int]int{1: 20, 2: 20, 3: 5} {
		resp, raw := h.do(t, "GET", fmt.Sprintf("/api/u/attendance/history?page=%d&user_id=%s", page, other), staff, "STAFF", nil)
		require.Equal(t, fiber.StatusOK, resp.StatusCode, string(raw))
		env := decode(t, raw)
		var rows []sessionBody
		require.NoError(t, json.Unmarshal(env.Data, &rows))
		assert.Len(t, rows, want)
		require.NotNil(t, env.Pagination)
		assert.Equal(t, int64(45), env.Pagination.Total)
		assert.Equal(t, 3, env.Pagination.TotalPages)
		assert.Equal(t, page < 3, env.Pagination.HasNext)
	}

	resp, raw := h.do(t, "GET", "/api/a/attendance/history?user_id="+other.String(), uuid.New(), "ADMIN", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode, string(raw))
	assert.Equal(t, int64(1), decode(t, raw).Pagination.Total)

	resp, raw = h.do(t, "GET", "/api/a/attendance/history?status=CHECKED_IN,CHECKED_OUT&date_from=2024-01-01&date_to=2024-01-01", uuid.New(), "PLATFORM_ADMIN", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode, string(raw))
	assert.Equal(t, int64(2), decode(t, raw).Pagination.Total)
}

func TestHTTP_ExportCSV(t *testing.T) {
	h := newHarness(t, time.Date(2024, 1, 20, 12, 0, 0, 0, jkt))
	staff := uuid.New()
	for i := 0; i < 3; i++ {
		d := time.Date(2024, 1, 10+i, 0, 0, 0, 0, jkt)
		h.repo.Put(model.AttendanceSessionModel{
			UserID: staff, Date: d, WorkLocation: model.WorkLocationField,
			CheckInTime: d.Add(9 * time.Hour), Status: model.StatusCheckedIn,
		})
	}

	resp, raw := h.do(t, "GET", "/api/u/attendance/export", staff, "STAFF", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode, string(raw))
	assert.True(t, strings.HasPrefix(resp.Header.Get("Content-Type"), "text/csv"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "attendance-20240120-120000.csv")

	records, err := csv.NewReader(bytes.NewReader(raw)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)
	assert.Equal(t, []string{
		"id", "userName", "userEmail", "date", "workLocation", "status",
		"flags", "checkInTime", "checkOutTime", "totalHours", "isLate", "lateMinutes",
	}, records[0])
	for _, rec := range records[1:] {
		assert.Len(t, rec, 12)
	}
	assert.Equal(t, "2024-01-12", records[1][3])
}

func TestHTTP_ExportStaysStreamedBehindETag(t *testing.T) {
	var streamed, historyStreamed *bool
	spy := func(c *fiber.Ctx) error {
		err := c.Next()
		v := c.Response().IsBodyStream()
		if strings.HasSuffix(c.Path(), "/export") {
			streamed = &v
		} else {
			historyStreamed = &v
		}
		return err
	}
	h := newHarness(t, time.Date(2024, 1, 20, 12, 0, 0, 0, jkt), spy, middlewares.ETagMiddleware())
	staff := uuid.New()
	for i := 0; i < 3; i++ {
		d := time.Date(2024, 1, 10+i, 0, 0, 0, 0, jkt)
		h.repo.Put(model.AttendanceSessionModel{
			UserID: staff, Date: d, WorkLocation: model.WorkLocationOffice,
			CheckInTime: d.Add(9 * time.Hour), Status: model.StatusCheckedIn,
		})
	}

	resp, raw := h.do(t, "GET", "/api/u/attendance/export", staff, "STAFF", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode, string(raw))
	require.NotNil(t, streamed)
	assert.True(t, *streamed, "export body must stay a stream")
	assert.Empty(t, resp.Header.Get(fiber.HeaderETag))

	records, err := csv.NewReader(bytes.NewReader(raw)).ReadAll()
	require.NoError(t, err)
	assert.Len(t, records, 4)

	// JSON biasa tetap dapat ETag
	resp, raw = h.do(t, "GET", "/api/u/attendance/history", staff, "STAFF", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode, string(raw))
	require.NotNil(t, historyStreamed)
	assert.False(t, *historyStreamed)
	assert.NotEmpty(t, resp.Header.Get(fiber.HeaderETag))
}

func TestHTTP_AdminRoutesRejectStaff(t *testing.T) {
	h := newHarness(t, time.Date(2024, 1, 20, 12, 0, 0, 0, jkt))

	for _, path := range []string{"/api/a/attendance/history", "/api/a/attendance/export"} {
		resp, raw := h.do(t, "GET", path, uuid.New(), constants.RoleFinance, nil)
		require.Equal(t, fiber.StatusForbidden, resp.StatusCode, string(raw))
		env := decode(t, raw)
		assert.Equal(t, "FORBIDDEN", env.ErrorCode)
		assert.Equal(t, "Hanya admin yang boleh mengakses fitur rekap presensi.", env.Message)
	}
}

func TestHTTP_AdminSweep(t *testing.T) {
	h := newHarness(t, time.Date(2024, 1, 16, 8, 0, 0, 0, jkt))
	d := time.Date(2024, 1, 15, 0, 0, 0, 0, jkt)
	h.repo.Put(model.AttendanceSessionModel{
		UserID: uuid.New(), Date: d, WorkLocation: model.WorkLocationOffice,
		CheckInTime: d.Add(9 * time.Hour), Status: model.StatusCheckedIn,
	})

	resp, raw := h.do(t, "POST", "/api/a/attendance/sweep", uuid.New(), "ADMIN", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode, string(raw))
	var rep scheduler.Report
	require.NoError(t, json.Unmarshal(decode(t, raw).Data, &rep))
	assert.Equal(t, 1, rep.Closed)
	assert.Equal(t, model.StatusAutoCheckedOut, h.repo.All()[0].Status)
}
