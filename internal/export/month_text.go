package export

import (
	"fmt"
	"strings"

	"github.com/2beens/gymrank/internal/records"
	"github.com/2beens/gymrank/internal/scoring"
)

const header = "[Workout & activity log]"

// MonthText renders the share text for ym: one line per recorded day in
// chronological order, followed by the pace projection, rank and the
// monthly activity total.
// A recorded day is any day with attendance or a positive activity total,
// so activity-only days get their own dayN line as well.
func MonthText(s *records.Snapshot, ym records.YearMonth, today records.Date) string {
	settings := s.Settings()

	var sb strings.Builder
	sb.WriteString(header)
	sb.WriteString("\n")

	dayCount := 1
	for _, d := range recordedDates(s, ym) {
		var labels []string
		if menuID, ok := s.AttendanceOn(d); ok {
			labels = append(labels, "Menu "+menuID)
		}
		if total := scoring.DailyActivityTotal(s, d); total > 0 {
			labels = append(labels, fmt.Sprintf("%s(%d%s)", settings.Name, total, settings.Unit))
		}
		if len(labels) == 0 {
			// entries summing to zero
			continue
		}

		fmt.Fprintf(&sb, "day%d: %d/%d(%s) %s\n",
			dayCount, int(d.Month), d.Day, d.Weekday().String()[:3], strings.Join(labels, " & "))
		dayCount++
	}

	pace := scoring.PaceProjection(s, paceReference(ym, today))
	fmt.Fprintf(&sb, "\nPace: %.1f (Rank: %s)\n", pace, scoring.RankOf(pace))
	fmt.Fprintf(&sb, "Activity total: %d%s\n", scoring.MonthlyActivityTotal(s, ym), settings.Unit)

	return sb.String()
}

// paceReference picks the day the projection is taken at: today for the
// running month, the last day for a past month (projection == score), and a
// zero day for a month that has not started yet.
func paceReference(ym records.YearMonth, today records.Date) records.Date {
	switch current := today.YearMonth(); {
	case ym == current:
		return today
	case ym.LastDay().Before(today):
		return ym.LastDay()
	default:
		return records.Date{Year: ym.Year, Month: ym.Month, Day: 0}
	}
}

func recordedDates(s *records.Snapshot, ym records.YearMonth) []records.Date {
	seen := make(map[records.Date]bool)
	var dates []records.Date
	for _, d := range append(s.AttendanceDates(), s.ActivityDates()...) {
		if ym.Contains(d) && !seen[d] {
			seen[d] = true
			dates = append(dates, d)
		}
	}
	records.SortDates(dates)
	return dates
}
