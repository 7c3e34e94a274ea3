package dbtime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustLoc(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	require.NoError(t, err)
	return loc
}

func TestDayBoundsUseBusinessTimezone(t *testing.T) {
	jkt := mustLoc(t, "Asia/Jakarta")

	// 2024-01-31 20:30 UTC sudah 2024-02-01 03:30 di Jakarta.
	ts := time.Date(2024, 1, 31, 20, 30, 0, 0, time.UTC)

	start := DayStart(ts, jkt)
	end := DayEnd(ts, jkt)

	assert.Equal(t, "2024-02-01 00:00:00.000 +0700", start.Format("2006-01-02 15:04:05.000 -0700"))
	assert.Equal(t, "2024-02-01 23:59:59.999 +0700", end.Format("2006-01-02 15:04:05.000 -0700"))
	assert.Equal(t, "2024-02-01", FormatDay(ts, jkt))
}

func TestDayEndAcrossDSTTransition(t *testing.T) {
	ny := mustLoc(t, "America/New_York")

	// 2024-03-10: jam maju, hari hanya 23 jam.
	day := time.Date(2024, 3, 10, 12, 0, 0, 0, ny)
	start := DayStart(day, ny)
	end := DayEnd(day, ny)

	assert.Equal(t, 23*time.Hour-time.Millisecond, end.Sub(start))
	assert.Equal(t, 23, end.Hour())
	assert.Equal(t, 59, end.Minute())
}

func TestParseDay(t *testing.T) {
	jkt := mustLoc(t, "Asia/Jakarta")

	d, err := ParseDay("2024-01-01", jkt)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, jkt), d)

	_, err = ParseDay("01/01/2024", jkt)
	assert.Error(t, err)
}

func TestTodOn(t *testing.T) {
	jkt := mustLoc(t, "Asia/Jakarta")
	tod := MustParse("09:00")

	got := tod.On(time.Date(2024, 1, 15, 22, 0, 0, 0, time.UTC), jkt)
	// 22:00 UTC tanggal 15 = tanggal 16 di Jakarta.
	assert.Equal(t, time.Date(2024, 1, 16, 9, 0, 0, 0, jkt), got)
	assert.Equal(t, "09:00:00", tod.String())

	_, err := Parse("25:00")
	assert.Error(t, err)
}

func TestTodJSONRoundTrip(t *testing.T) {
	var tod Tod
	require.NoError(t, tod.UnmarshalJSON([]byte(`"23:59"`)))
	assert.Equal(t, Tod{Hour: 23, Minute: 59}, tod)

	b, err := tod.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `"23:59:00"`, string(b))
}
