package records

import (
	"errors"
	"maps"
	"slices"
	"sort"
	"sync/atomic"
)

var ErrReservationInPast = errors.New("reservation not allowed for past date")

var versionSeq atomic.Uint64

// Tables is the persisted layout of the record store, one field per stored structure.
type Tables struct {
	Attendance       map[Date]string           `json:"attendance"`
	ActivityEntries  map[Date][]ActivityEntry  `json:"activityEntries"`
	Reservations     map[Date]bool             `json:"reservations"`
	Menus            map[string]MenuDefinition `json:"menus"`
	ActivitySettings ActivitySettings          `json:"activitySettings"`
}

// DefaultTables is what a fresh install starts from.
func DefaultTables() Tables {
	return Tables{
		Attendance:       map[Date]string{},
		ActivityEntries:  map[Date][]ActivityEntry{},
		Reservations:     map[Date]bool{},
		Menus:            DefaultMenus(),
		ActivitySettings: DefaultActivitySettings(),
	}
}

// Snapshot is an immutable view of the record store. Every mutation
// derives a new Snapshot with a new version and leaves the receiver untouched.
// Tables that a mutation does not touch are shared between snapshots.
type Snapshot struct {
	version      uint64
	attendance   map[Date]string
	activity     map[Date][]ActivityEntry
	reservations map[Date]struct{}
	menus        map[string]MenuDefinition
	settings     ActivitySettings
	nextEntryID  int64
}

func NewSnapshot(t Tables) *Snapshot {
	s := &Snapshot{
		version:      versionSeq.Add(1),
		attendance:   make(map[Date]string, len(t.Attendance)),
		activity:     make(map[Date][]ActivityEntry, len(t.ActivityEntries)),
		reservations: make(map[Date]struct{}, len(t.Reservations)),
		menus:        make(map[string]MenuDefinition, len(t.Menus)),
		settings:     t.ActivitySettings,
		nextEntryID:  1,
	}

	for d, menuID := range t.Attendance {
		if menuID != "" {
			s.attendance[d] = menuID
		}
	}
	for d, entries := range t.ActivityEntries {
		if len(entries) == 0 {
			continue
		}
		s.activity[d] = slices.Clone(entries)
		for _, e := range entries {
			if e.ID >= s.nextEntryID {
				s.nextEntryID = e.ID + 1
			}
		}
	}
	for d, reserved := range t.Reservations {
		if reserved {
			s.reservations[d] = struct{}{}
		}
	}
	for id, m := range t.Menus {
		m.Items = slices.Clone(m.Items)
		s.menus[id] = m
	}

	return s
}

func (s *Snapshot) derive() *Snapshot {
	next := *s
	next.version = versionSeq.Add(1)
	return &next
}

// Version is unique per snapshot, so it can key caches of derived values.
func (s *Snapshot) Version() uint64 {
	return s.version
}

// Tables returns a deep copy of the snapshot in its persisted layout.
func (s *Snapshot) Tables() Tables {
	t := Tables{
		Attendance:       maps.Clone(s.attendance),
		ActivityEntries:  make(map[Date][]ActivityEntry, len(s.activity)),
		Reservations:     make(map[Date]bool, len(s.reservations)),
		Menus:            s.Menus(),
		ActivitySettings: s.settings,
	}
	for d, entries := range s.activity {
		t.ActivityEntries[d] = slices.Clone(entries)
	}
	for d := range s.reservations {
		t.Reservations[d] = true
	}
	return t
}

func (s *Snapshot) AttendanceOn(d Date) (string, bool) {
	menuID, ok := s.attendance[d]
	return menuID, ok
}

// AttendanceDates returns all dates with an attendance record, in ascending order.
func (s *Snapshot) AttendanceDates() []Date {
	return sortedDates(s.attendance)
}

func (s *Snapshot) EntriesOn(d Date) []ActivityEntry {
	return slices.Clone(s.activity[d])
}

// ActivityDates returns all dates with at least one activity entry, in ascending order.
func (s *Snapshot) ActivityDates() []Date {
	return sortedDates(s.activity)
}

func (s *Snapshot) IsReserved(d Date) bool {
	_, ok := s.reservations[d]
	return ok
}

func (s *Snapshot) ReservedDates() []Date {
	return sortedDates(s.reservations)
}

func (s *Snapshot) Menu(id string) (MenuDefinition, bool) {
	m, ok := s.menus[id]
	if !ok {
		return MenuDefinition{}, false
	}
	m.Items = slices.Clone(m.Items)
	return m, true
}

func (s *Snapshot) Menus() map[string]MenuDefinition {
	menus := make(map[string]MenuDefinition, len(s.menus))
	for id := range s.menus {
		menus[id], _ = s.Menu(id)
	}
	return menus
}

// ActiveMenus returns the active menus ordered by id.
func (s *Snapshot) ActiveMenus() []MenuDefinition {
	var active []MenuDefinition
	for id := range s.menus {
		if m, _ := s.Menu(id); m.Active {
			active = append(active, m)
		}
	}
	sort.Slice(active, func(i, j int) bool {
		return active[i].ID < active[j].ID
	})
	return active
}

func (s *Snapshot) Settings() ActivitySettings {
	return s.settings
}

// AddEntry appends a new activity entry with a fresh id. Values are not validated;
// zero or negative values are kept as they are.
func (s *Snapshot) AddEntry(d Date, reps, sets int) (*Snapshot, ActivityEntry) {
	entry := ActivityEntry{
		ID:   s.nextEntryID,
		Reps: reps,
		Sets: sets,
	}

	next := s.derive()
	next.nextEntryID++
	next.activity = maps.Clone(s.activity)
	entries := make([]ActivityEntry, 0, len(s.activity[d])+1)
	entries = append(entries, s.activity[d]...)
	next.activity[d] = append(entries, entry)

	return next, entry
}

// RemoveEntry removes the entry with the given id. Removing a missing entry
// is not an error; the returned snapshot is then equal in content to s.
func (s *Snapshot) RemoveEntry(d Date, id int64) *Snapshot {
	entries := s.activity[d]
	idx := slices.IndexFunc(entries, func(e ActivityEntry) bool {
		return e.ID == id
	})
	if idx < 0 {
		return s.derive()
	}

	next := s.derive()
	next.activity = maps.Clone(s.activity)
	remaining := slices.Delete(slices.Clone(entries), idx, idx+1)
	if len(remaining) == 0 {
		delete(next.activity, d)
	} else {
		next.activity[d] = remaining
	}

	return next
}

// SetAttendance upserts the attendance record for d and clears any reservation on it.
// A nil menuID deletes the record.
func (s *Snapshot) SetAttendance(d Date, menuID *string) *Snapshot {
	next := s.derive()
	next.attendance = maps.Clone(s.attendance)

	if menuID == nil {
		delete(next.attendance, d)
		return next
	}

	next.attendance[d] = *menuID
	if s.IsReserved(d) {
		next.reservations = maps.Clone(s.reservations)
		delete(next.reservations, d)
	}

	return next
}

// ToggleReservation flips the reservation on d. Only today and future dates can be toggled.
func (s *Snapshot) ToggleReservation(d, today Date) (*Snapshot, error) {
	if d.Before(today) {
		return nil, ErrReservationInPast
	}

	next := s.derive()
	next.reservations = maps.Clone(s.reservations)
	if s.IsReserved(d) {
		delete(next.reservations, d)
	} else {
		next.reservations[d] = struct{}{}
	}

	return next, nil
}

// WithMenus replaces all menu definitions.
func (s *Snapshot) WithMenus(menus map[string]MenuDefinition) *Snapshot {
	next := s.derive()
	next.menus = make(map[string]MenuDefinition, len(menus))
	for id, m := range menus {
		m.ID = id
		m.Items = slices.Clone(m.Items)
		next.menus[id] = m
	}
	return next
}

func (s *Snapshot) WithSettings(settings ActivitySettings) *Snapshot {
	next := s.derive()
	next.settings = settings
	return next
}

func sortedDates[V any](m map[Date]V) []Date {
	dates := make([]Date, 0, len(m))
	for d := range m {
		dates = append(dates, d)
	}
	SortDates(dates)
	return dates
}

// SortDates sorts dates chronologically in place.
func SortDates(dates []Date) {
	sort.Slice(dates, func(i, j int) bool {
		return dates[i].Before(dates[j])
	})
}
