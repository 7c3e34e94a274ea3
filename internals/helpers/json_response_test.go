package helper

import (
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"absensiku_backend/internals/helpers/apperror"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestKindStatus(t *testing.T) {
	cases := map[apperror.Kind]int{
		apperror.KindUnauthorized: 401,
		apperror.KindForbidden:    403,
		apperror.KindNotFound:     404,
		apperror.KindConflict:     409,
		apperror.KindInvalidTime:  400,
		apperror.KindValidation:   422,
		apperror.Kind("WHATEVER"): 500,
	}
	for kind, want := range cases {
		assert.Equal(t, want, KindStatus(kind), kind)
	}
}

func doErr(t *testing.T, err error) (int, ErrorResponse) {
	t.Helper()
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(zap.NewNop())})
	app.Get("/", func(c *fiber.Ctx) error { return err })

	resp, e := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, e)
	body, _ := io.ReadAll(resp.Body)

	var out ErrorResponse
	require.NoError(t, json.Unmarshal(body, &out), string(body))
	return resp.StatusCode, out
}

func TestErrorHandler_Envelope(t *testing.T) {
	status, out := doErr(t, apperror.Conflict("sudah check-in"))
	assert.Equal(t, 409, status)
	assert.False(t, out.Success)
	assert.Equal(t, "CONFLICT", out.ErrorCode)
	assert.Equal(t, "sudah check-in", out.Message)

	status, out = doErr(t, fiber.NewError(fiber.StatusTooManyRequests, "pelan-pelan"))
	assert.Equal(t, 429, status)
	assert.Equal(t, "RATE_LIMITED", out.ErrorCode)

	status, out = doErr(t, errors.New(`pq: relation "x" does not exist`))
	assert.Equal(t, 500, status)
	assert.Equal(t, "internal server error", out.Message)
	assert.NotContains(t, out.Message, "relation")
}

func TestBuildPaginationFromPage(t *testing.T) {
	p := BuildPaginationFromPage(45, 2, 20)
	assert.Equal(t, 3, p.TotalPages)
	assert.True(t, p.HasNext)
	assert.True(t, p.HasPrev)

	p = BuildPaginationFromPage(0, 1, 20)
	assert.Equal(t, 1, p.TotalPages)
	assert.False(t, p.HasNext)
	assert.False(t, p.HasPrev)
}
