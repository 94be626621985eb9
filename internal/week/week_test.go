package week

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStart_SundayConvention(t *testing.T) {
	// 2024-01-03 is a Wednesday; the Sunday-based week starts 2023-12-31.
	wed := time.Date(2024, 1, 3, 15, 30, 0, 0, time.UTC)
	assert.Equal(t, "2023-12-31", Start(wed, 0).Format(DateLayout))
}

func TestStart_MondayConvention(t *testing.T) {
	wed := time.Date(2024, 1, 3, 15, 30, 0, 0, time.UTC)
	assert.Equal(t, "2024-01-01", Start(wed, 1).Format(DateLayout))
}

func TestStart_OnBoundaryIsIdentity(t *testing.T) {
	sun := time.Date(2024, 1, 7, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, sun, Start(sun, 0))
}

func TestStart_TruncatesToMidnight(t *testing.T) {
	sun := time.Date(2024, 1, 7, 23, 59, 59, 0, time.UTC)
	got := Start(sun, 0)
	assert.Equal(t, 0, got.Hour())
	assert.Equal(t, "2024-01-07", got.Format(DateLayout))
}

func TestKey_MatchesStart(t *testing.T) {
	now := time.Date(2024, 6, 14, 9, 0, 0, 0, time.UTC) // Friday
	assert.Equal(t, "2024-06-09", Key(now, 0))
	assert.Equal(t, Start(now, 0).Format(DateLayout), Key(now, 0))
}

func TestDates_SevenOrderedDays(t *testing.T) {
	start := time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC)
	got := Dates(start)
	want := [7]string{
		"2023-12-31", "2024-01-01", "2024-01-02", "2024-01-03",
		"2024-01-04", "2024-01-05", "2024-01-06",
	}
	assert.Equal(t, want, got)
}

func TestDatesOf_ConsistentWithKey(t *testing.T) {
	now := time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC)
	dates := DatesOf(now, 0)
	assert.Equal(t, Key(now, 0), dates[0])
}

func TestStart_Deterministic(t *testing.T) {
	// Every instant of a week maps to the same start.
	base := time.Date(2024, 2, 4, 0, 0, 0, 0, time.UTC) // Sunday
	for h := 0; h < 7*24; h += 7 {
		assert.Equal(t, base, Start(base.Add(time.Duration(h)*time.Hour), 0))
	}
}

func TestValidDate(t *testing.T) {
	assert.True(t, ValidDate("2024-02-29"))
	assert.False(t, ValidDate("2023-02-29"))
	assert.False(t, ValidDate("2024-1-1"))
	assert.False(t, ValidDate("not a date"))
}

func TestParseKey_RoundTrip(t *testing.T) {
	assert.Equal(t, time.Date(2024, 1, 7, 0, 0, 0, 0, time.UTC), ParseKey("2024-01-07"))
	assert.True(t, ParseKey("garbage").IsZero())
}
