// file: internals/helpers/dbtime/tod.go
package dbtime

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Tod = jam dinding (HH:mm:ss) tanpa tanggal & zona.
type Tod struct {
	Hour, Minute, Second int
}

// Parse: "HH:mm" atau "HH:mm:ss".
func Parse(s string) (Tod, error) {
	var tt Tod
	if err := tt.parse(s); err != nil {
		return Tod{}, err
	}
	return tt, nil
}

// MustParse dipakai untuk default konstan.
func MustParse(s string) Tod {
	t, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return t
}

func (t *Tod) parse(s string) error {
	s = strings.TrimSpace(s)
	if len(s) == 5 { // "HH:MM"
		s += ":00"
	}
	tt, err := time.Parse("15:04:05", s)
	if err != nil {
		return fmt.Errorf("tod: invalid time of day %q", s)
	}
	*t = Tod{Hour: tt.Hour(), Minute: tt.Minute(), Second: tt.Second()}
	return nil
}

// On: instant jam ini pada hari kalender `day` di zona loc.
// time.Date menormalkan jam yang tidak ada/ganda saat transisi DST.
func (t Tod) On(day time.Time, loc *time.Location) time.Time {
	d := day.In(loc)
	return time.Date(d.Year(), d.Month(), d.Day(), t.Hour, t.Minute, t.Second, 0, loc)
}

func (t Tod) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", t.Hour, t.Minute, t.Second)
}

func (t Tod) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *Tod) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	return t.parse(s)
}
