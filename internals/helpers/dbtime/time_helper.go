// file: internals/helpers/dbtime/time_helper.go
package dbtime

import (
	"fmt"
	"strings"
	"time"
)

const DayLayout = "2006-01-02"

// DayStart: 00:00:00.000 hari kalender t di zona loc.
func DayStart(t time.Time, loc *time.Location) time.Time {
	d := t.In(loc)
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, loc)
}

// DayEnd: 23:59:59.999 hari kalender t di zona loc.
// Dihitung dari awal hari berikutnya supaya hari 23/25 jam (DST) tetap benar.
func DayEnd(t time.Time, loc *time.Location) time.Time {
	return NextDayStart(t, loc).Add(-time.Millisecond)
}

// NextDayStart: 00:00 hari berikutnya (pakai AddDate, bukan +24h).
func NextDayStart(t time.Time, loc *time.Location) time.Time {
	d := t.In(loc)
	return time.Date(d.Year(), d.Month(), d.Day()+1, 0, 0, 0, 0, loc)
}

// ParseDay: "YYYY-MM-DD" → awal hari di zona loc.
func ParseDay(s string, loc *time.Location) (time.Time, error) {
	d, err := time.ParseInLocation(DayLayout, strings.TrimSpace(s), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return d, nil
}

// FormatDay: tanggal kalender t di zona loc.
func FormatDay(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(DayLayout)
}
