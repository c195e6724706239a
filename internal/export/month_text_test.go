package export_test

import (
	"strings"
	"testing"
	"time"

	"github.com/2beens/gymrank/internal/export"
	"github.com/2beens/gymrank/internal/records"

	"github.com/stretchr/testify/assert"
)

func strPtr(s string) *string {
	return &s
}

func fixture() *records.Snapshot {
	s := records.NewSnapshot(records.DefaultTables())
	s = s.SetAttendance(records.NewDate(2024, time.June, 10), strPtr("B"))
	s = s.SetAttendance(records.NewDate(2024, time.June, 3), strPtr("A"))
	s, _ = s.AddEntry(records.NewDate(2024, time.June, 3), 30, 1)
	s, _ = s.AddEntry(records.NewDate(2024, time.June, 5), 50, 2)
	s, _ = s.AddEntry(records.NewDate(2024, time.June, 7), 0, 3)
	s = s.SetAttendance(records.NewDate(2024, time.May, 20), strPtr("A"))
	s = s.SetAttendance(records.NewDate(2024, time.May, 21), strPtr("A"))
	return s
}

func TestMonthText_CurrentMonth(t *testing.T) {
	text := export.MonthText(fixture(), records.YearMonth{Year: 2024, Month: time.June}, records.NewDate(2024, time.June, 15))

	expected := "[Workout & activity log]\n" +
		"day1: 6/3(Mon) Menu A & Bodyweight squat(30reps)\n" +
		"day2: 6/5(Wed) Bodyweight squat(100reps)\n" +
		"day3: 6/10(Mon) Menu B\n" +
		"\n" +
		"Pace: 6.0 (Rank: B)\n" +
		"Activity total: 130reps\n"
	assert.Equal(t, expected, text)
}

func TestMonthText_PastMonthUsesFinalScore(t *testing.T) {
	text := export.MonthText(fixture(), records.YearMonth{Year: 2024, Month: time.May}, records.NewDate(2024, time.June, 15))

	assert.True(t, strings.HasPrefix(text, "[Workout & activity log]\nday1: 5/20(Mon) Menu A\nday2: 5/21(Tue) Menu A\n"))
	assert.Contains(t, text, "Pace: 2.0 (Rank: C)\n")
	assert.Contains(t, text, "Activity total: 0reps\n")
}

func TestMonthText_FutureMonth(t *testing.T) {
	text := export.MonthText(fixture(), records.YearMonth{Year: 2024, Month: time.July}, records.NewDate(2024, time.June, 15))

	assert.Equal(t, "[Workout & activity log]\n\nPace: 0.0 (Rank: unranked)\nActivity total: 0reps\n", text)
}

func TestMonthText_ActivityOnlyDays(t *testing.T) {
	s := records.NewSnapshot(records.DefaultTables())
	s, _ = s.AddEntry(records.NewDate(2024, time.June, 5), 20, 1)
	s, _ = s.AddEntry(records.NewDate(2024, time.June, 6), 0, 4)

	text := export.MonthText(s, records.YearMonth{Year: 2024, Month: time.June}, records.NewDate(2024, time.June, 15))

	assert.True(t, strings.HasPrefix(text, "[Workout & activity log]\nday1: 6/5(Wed) Bodyweight squat(20reps)\n\n"))
	assert.NotContains(t, text, "6/6")
	assert.NotContains(t, text, "day2")
}
