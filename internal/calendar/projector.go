package calendar

import (
	"github.com/2beens/gymrank/internal/records"
	"github.com/2beens/gymrank/internal/scoring"
)

// CellState is the categorical state of one calendar day. Attendance takes
// priority over a reservation; activity is an overlay tracked separately.
type CellState string

const (
	StateEmpty    CellState = "empty"
	StateReserved CellState = "reserved"
	StateAttended CellState = "attended"
)

type Cell struct {
	// Padding cells only align the grid and carry no date.
	Padding  bool             `json:"padding"`
	Date     records.Date     `json:"date,omitzero"`
	Day      int              `json:"day,omitempty"`
	State    CellState        `json:"state,omitempty"`
	MenuID   string           `json:"menuId,omitempty"`
	Category records.Category `json:"category,omitempty"`
	// MenuKnown is false when the attendance record points to a menu
	// that no longer exists; the day is then shown without a menu.
	MenuKnown         bool `json:"menuKnown"`
	Reserved          bool `json:"reserved"`
	ActivityTotal     int  `json:"activityTotal"`
	ActivityDone      bool `json:"activityDone"`
	DoubleAchievement bool `json:"doubleAchievement"`
	IsToday           bool `json:"isToday"`
}

type LegendEntry struct {
	MenuID   string           `json:"menuId"`
	Title    string           `json:"title"`
	Category records.Category `json:"category"`
}

type Month struct {
	Month records.YearMonth `json:"month"`
	// Cells starts with padding so the 1st lands on its weekday column (Sunday first).
	Cells  []Cell        `json:"cells"`
	Score  int           `json:"score"`
	Legend []LegendEntry `json:"legend"`
}

type scorer interface {
	MonthlyScore(s *records.Snapshot, ym records.YearMonth) int
}

type engineScorer struct{}

func (engineScorer) MonthlyScore(s *records.Snapshot, ym records.YearMonth) int {
	return scoring.MonthlyScore(s, ym)
}

type Projector struct {
	scorer scorer
}

// NewProjector returns a projector that scores months with the given scorer,
// or with the plain aggregation engine when scorer is nil.
func NewProjector(scorer scorer) *Projector {
	if scorer == nil {
		scorer = engineScorer{}
	}
	return &Projector{
		scorer: scorer,
	}
}

func (p *Projector) Project(s *records.Snapshot, ym records.YearMonth, today records.Date) Month {
	padding := int(ym.FirstDay().Weekday())
	month := Month{
		Month: ym,
		Cells: make([]Cell, 0, padding+ym.DaysIn()),
		Score: p.scorer.MonthlyScore(s, ym),
	}

	for i := 0; i < padding; i++ {
		month.Cells = append(month.Cells, Cell{Padding: true})
	}
	for day := 1; day <= ym.DaysIn(); day++ {
		d := records.Date{Year: ym.Year, Month: ym.Month, Day: day}
		month.Cells = append(month.Cells, projectCell(s, d, today))
	}

	for _, m := range s.ActiveMenus() {
		month.Legend = append(month.Legend, LegendEntry{
			MenuID:   m.ID,
			Title:    m.Title,
			Category: m.Category,
		})
	}

	return month
}

func projectCell(s *records.Snapshot, d, today records.Date) Cell {
	cell := Cell{
		Date:          d,
		Day:           d.Day,
		State:         StateEmpty,
		Category:      records.CategoryNone,
		Reserved:      s.IsReserved(d),
		ActivityTotal: scoring.DailyActivityTotal(s, d),
		IsToday:       d == today,
	}
	cell.ActivityDone = cell.ActivityTotal > 0

	if menuID, ok := s.AttendanceOn(d); ok {
		cell.State = StateAttended
		cell.MenuID = menuID
		if menu, known := s.Menu(menuID); known {
			cell.MenuKnown = true
			if menu.Category.IsValid() {
				cell.Category = menu.Category
			}
		}
	} else if cell.Reserved {
		cell.State = StateReserved
	}

	cell.DoubleAchievement = cell.State == StateAttended && cell.ActivityDone

	return cell
}
