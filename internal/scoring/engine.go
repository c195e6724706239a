package scoring

import (
	"github.com/2beens/gymrank/internal/records"
)

// DailyActivityTotal is the sum of reps x sets over all activity entries on d.
func DailyActivityTotal(s *records.Snapshot, d records.Date) int {
	total := 0
	for _, e := range s.EntriesOn(d) {
		total += e.Total()
	}
	return total
}

// MonthlyActiveDays counts the days in ym with an attendance record.
// Activity-only days do not count. Records pointing to a menu that no
// longer exists still count.
func MonthlyActiveDays(s *records.Snapshot, ym records.YearMonth) int {
	days := 0
	for _, d := range s.AttendanceDates() {
		if ym.Contains(d) {
			days++
		}
	}
	return days
}

func MonthlyActivityTotal(s *records.Snapshot, ym records.YearMonth) int {
	total := 0
	for _, d := range s.ActivityDates() {
		if ym.Contains(d) {
			total += DailyActivityTotal(s, d)
		}
	}
	return total
}

func BonusPoints(s *records.Snapshot, ym records.YearMonth) int {
	return floorDiv(MonthlyActivityTotal(s, ym), s.Settings().Divisor())
}

// MonthlyScore is the composite score ranks are derived from:
// active days plus activity bonus points.
func MonthlyScore(s *records.Snapshot, ym records.YearMonth) int {
	return MonthlyActiveDays(s, ym) + BonusPoints(s, ym)
}

// PaceProjection extrapolates the month-end score from the score so far,
// taking ref as the last elapsed day of its month.
func PaceProjection(s *records.Snapshot, ref records.Date) float64 {
	return projection(MonthlyScore(s, ref.YearMonth()), ref)
}

func projection(score int, ref records.Date) float64 {
	elapsed := ref.Day
	if elapsed <= 0 {
		return 0
	}
	// multiply first, so a full month divides back to the exact score
	return float64(score) * float64(ref.YearMonth().DaysIn()) / float64(elapsed)
}

// LastMonthScore is the finalized score of the month before today's month.
func LastMonthScore(s *records.Snapshot, today records.Date) int {
	return MonthlyScore(s, today.YearMonth().Prev())
}

// ToNextBonus returns how many activity units are missing for the next bonus point.
func ToNextBonus(s *records.Snapshot, ym records.YearMonth) int {
	divisor := s.Settings().Divisor()
	total := MonthlyActivityTotal(s, ym)
	return (floorDiv(total, divisor)+1)*divisor - total
}

type DayValue struct {
	Date  records.Date `json:"date"`
	Value int          `json:"value"`
}

type Series struct {
	Month records.YearMonth `json:"month"`
	Days  []DayValue        `json:"days"`
	// Max is the largest daily value, never less than 1 so it can scale a chart.
	Max int `json:"max"`
}

// DailySeries returns the daily activity totals for every day of ym.
func DailySeries(s *records.Snapshot, ym records.YearMonth) Series {
	series := Series{
		Month: ym,
		Days:  make([]DayValue, 0, ym.DaysIn()),
		Max:   1,
	}
	for day := 1; day <= ym.DaysIn(); day++ {
		d := records.Date{Year: ym.Year, Month: ym.Month, Day: day}
		v := DailyActivityTotal(s, d)
		series.Days = append(series.Days, DayValue{Date: d, Value: v})
		if v > series.Max {
			series.Max = v
		}
	}
	return series
}

// floorDiv rounds toward negative infinity, unlike Go's integer division.
func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
