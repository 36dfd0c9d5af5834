package clock

import (
	"fmt"
	"time"
)

const (
	// DateLayout is the calendar-date layout used for day keys and file names.
	DateLayout = "2006-01-02"
)

// Clock stamps every "now" in one configured location.
type Clock struct {
	loc   *time.Location
	nowFn func() time.Time
}

// New returns a clock in loc. A nil nowFn uses time.Now.
func New(loc *time.Location, nowFn func() time.Time) *Clock {
	if loc == nil {
		loc = time.UTC
	}
	if nowFn == nil {
		nowFn = time.Now
	}
	return &Clock{loc: loc, nowFn: nowFn}
}

// Load resolves an IANA zone name and returns a clock for it.
func Load(zone string) (*Clock, error) {
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return nil, fmt.Errorf("clock: load location %q: %w", zone, err)
	}
	return New(loc, nil), nil
}

// Location returns the configured zone.
func (c *Clock) Location() *time.Location {
	return c.loc
}

// Now returns the current instant in the configured zone.
func (c *Clock) Now() time.Time {
	return c.nowFn().In(c.loc)
}

// Today returns the current calendar date (YYYY-MM-DD).
func (c *Clock) Today() string {
	return c.Now().Format(DateLayout)
}

// Timestamp returns the current instant as a zone-aware ISO-8601 string.
func (c *Clock) Timestamp() string {
	return c.Now().Format(time.RFC3339)
}

// Week returns the week id of the current instant.
func (c *Clock) Week() string {
	return WeekID(c.Now())
}

// WeekID formats t as YYYY-Www where ww is the Monday-based week of the year:
// days before the first Monday of January fall in week 00.
func WeekID(t time.Time) string {
	weekday := (int(t.Weekday()) + 6) % 7 // Monday=0
	week := (t.YearDay() - 1 + 7 - weekday) / 7
	return fmt.Sprintf("%d-W%02d", t.Year(), week)
}

// WeekStart returns the Monday that opens the given week id. Week 00 maps to
// January 1st.
func WeekStart(id string, loc *time.Location) (time.Time, error) {
	var year, week int
	if _, err := fmt.Sscanf(id, "%4d-W%2d", &year, &week); err != nil {
		return time.Time{}, fmt.Errorf("clock: parse week id %q: %w", id, err)
	}
	if week < 0 || week > 53 {
		return time.Time{}, fmt.Errorf("clock: week out of range in %q", id)
	}
	if loc == nil {
		loc = time.UTC
	}
	jan1 := time.Date(year, time.January, 1, 0, 0, 0, 0, loc)
	if week == 0 {
		return jan1, nil
	}
	offset := (7 - (int(jan1.Weekday())+6)%7) % 7 // days to the first Monday
	return jan1.AddDate(0, 0, offset+(week-1)*7), nil
}

// ParseTimestamp accepts RFC3339, a naive ISO datetime or a bare date. Naive
// values are interpreted in the clock's zone.
func (c *Clock) ParseTimestamp(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t.In(c.loc), nil
	}
	for _, layout := range []string{"2006-01-02T15:04:05.999999999", "2006-01-02 15:04:05", DateLayout} {
		if t, err := time.ParseInLocation(layout, raw, c.loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("clock: unrecognised timestamp %q", raw)
}
