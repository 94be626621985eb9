package week

import "time"

// DateLayout is the calendar-date form used everywhere: completion dates,
// week keys and snapshot keys. No time component, no zone.
const DateLayout = "2006-01-02"

// Start returns midnight of the first day of the week containing t.
// weekStartsOn follows time.Weekday numbering (0 = Sunday .. 6 = Saturday).
// The result keeps t's location so day boundaries follow local time.
func Start(t time.Time, weekStartsOn int) time.Time {
	weekStartsOn = ((weekStartsOn % 7) + 7) % 7
	back := (int(t.Weekday()) - weekStartsOn + 7) % 7
	y, m, d := t.AddDate(0, 0, -back).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// Key returns the canonical identifier of t's week: the ISO date of its start.
func Key(t time.Time, weekStartsOn int) string {
	return Start(t, weekStartsOn).Format(DateLayout)
}

// Dates returns the ordered ISO dates of the 7 days of the week starting at start.
func Dates(start time.Time) [7]string {
	var out [7]string
	for i := 0; i < 7; i++ {
		out[i] = start.AddDate(0, 0, i).Format(DateLayout)
	}
	return out
}

// DatesOf is Dates for the week containing t.
func DatesOf(t time.Time, weekStartsOn int) [7]string {
	return Dates(Start(t, weekStartsOn))
}

// ParseKey parses a week key back into its start date. Returns the zero
// time when the key is not a calendar date.
func ParseKey(key string) time.Time {
	t, err := time.Parse(DateLayout, key)
	if err != nil {
		return time.Time{}
	}
	return t
}

// ValidDate reports whether s is a well-formed calendar date.
func ValidDate(s string) bool {
	_, err := time.Parse(DateLayout, s)
	return err == nil
}
