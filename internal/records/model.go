package records

// Category is the visual tag of a menu, resolved to concrete styling by the presentation layer.
type Category string

const (
	CategoryNone   Category = "none"
	CategoryRed    Category = "red"
	CategoryBlue   Category = "blue"
	CategoryYellow Category = "yellow"
	CategoryOrange Category = "orange"
)

func (c Category) IsValid() bool {
	switch c {
	case CategoryNone,
		CategoryRed,
		CategoryBlue,
		CategoryYellow,
		CategoryOrange:
		return true
	default:
		return false
	}
}

type MenuItem struct {
	Name     string `json:"name"`
	Detail   string `json:"detail"`
	SetCount int    `json:"setCount"`
}

type MenuDefinition struct {
	ID       string     `json:"id"`
	Title    string     `json:"title"`
	Category Category   `json:"category"`
	Items    []MenuItem `json:"items"`
	Active   bool       `json:"active"`
}

// ActivityEntry is one logged round of the freeform activity (reps x sets).
type ActivityEntry struct {
	ID   int64 `json:"id"`
	Reps int   `json:"reps"`
	Sets int   `json:"sets"`
}

// Total is the entry's contribution to the daily activity total.
func (e ActivityEntry) Total() int {
	return e.Reps * e.Sets
}

type ActivitySettings struct {
	Name         string `json:"name"`
	DefaultReps  int    `json:"defaultReps"`
	DefaultSets  int    `json:"defaultSets"`
	Unit         string `json:"unit"`
	BonusDivisor int    `json:"bonusDivisor"`
}

const DefaultBonusDivisor = 100

// Divisor returns the bonus divisor, falling back to DefaultBonusDivisor
// when the stored one cannot be divided by.
func (s ActivitySettings) Divisor() int {
	if s.BonusDivisor <= 0 {
		return DefaultBonusDivisor
	}
	return s.BonusDivisor
}

func DefaultActivitySettings() ActivitySettings {
	return ActivitySettings{
		Name:         "Bodyweight squat",
		DefaultReps:  30,
		DefaultSets:  1,
		Unit:         "reps",
		BonusDivisor: DefaultBonusDivisor,
	}
}

func DefaultMenus() map[string]MenuDefinition {
	return map[string]MenuDefinition{
		"A": {
			ID:       "A",
			Title:    "Menu A",
			Category: CategoryRed,
			Items: []MenuItem{
				{Name: "Leg press", Detail: "60kg x 10", SetCount: 3},
				{Name: "Chest press", Detail: "35kg x 10", SetCount: 3},
				{Name: "Abduction", Detail: "35kg x 15", SetCount: 2},
				{Name: "Plank", Detail: "30s", SetCount: 2},
			},
			Active: true,
		},
		"B": {
			ID:       "B",
			Title:    "Menu B",
			Category: CategoryBlue,
			Items: []MenuItem{
				{Name: "Lat pulldown", Detail: "30kg x 12", SetCount: 3},
				{Name: "Adduction", Detail: "30kg x 15", SetCount: 2},
				{Name: "Shoulder press", Detail: "20kg x 10", SetCount: 3},
				{Name: "Crunches", Detail: "10", SetCount: 2},
			},
			Active: true,
		},
		"C": {
			ID:       "C",
			Title:    "Menu C",
			Category: CategoryYellow,
			Items: []MenuItem{
				{Name: "Bike", Detail: "15min", SetCount: 1},
				{Name: "Treadmill", Detail: "15min", SetCount: 1},
			},
			Active: false,
		},
		"D": {
			ID:       "D",
			Title:    "Menu D",
			Category: CategoryOrange,
			Items: []MenuItem{
				{Name: "Free menu", Detail: "anything goes", SetCount: 3},
			},
			Active: false,
		},
	}
}
