package session

import (
	"errors"
	"fmt"
	"sort"

	"github.com/2beens/gymrank/internal/records"
)

var (
	ErrMenuNotFound        = errors.New("menu not found")
	ErrMenuInactive        = errors.New("menu not active")
	ErrNoActiveSession     = errors.New("no active session")
	ErrInvalidSetReference = errors.New("invalid set reference")
	ErrIncompleteSession   = errors.New("incomplete session")
)

// SetRef points at one set of one menu item.
type SetRef struct {
	Item int `json:"item"`
	Set  int `json:"set"`
}

// Session is the workout state machine: Idle until Start, Active until a
// successful Finish. Only one workout can be active; starting again discards
// the previous check state.
type Session struct {
	menu    *records.MenuDefinition
	checked map[SetRef]struct{}
}

func New() *Session {
	return &Session{
		checked: make(map[SetRef]struct{}),
	}
}

// State is a read-only view of the session.
type State struct {
	Active      bool     `json:"active"`
	MenuID      string   `json:"menuId,omitempty"`
	CheckedSets []SetRef `json:"checkedSets"`
	Complete    bool     `json:"complete"`
}

func (s *Session) Start(menus map[string]records.MenuDefinition, menuID string) error {
	menu, ok := menus[menuID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrMenuNotFound, menuID)
	}
	if !menu.Active {
		return fmt.Errorf("%w: %s", ErrMenuInactive, menuID)
	}

	// the map key is the menu's identity
	menu.ID = menuID
	s.menu = &menu
	s.checked = make(map[SetRef]struct{})
	return nil
}

func (s *Session) IsActive() bool {
	return s.menu != nil
}

func (s *Session) MenuID() string {
	if s.menu == nil {
		return ""
	}
	return s.menu.ID
}

// ToggleSet flips the checked state of one set. Applying it twice restores the previous state.
func (s *Session) ToggleSet(item, set int) error {
	if s.menu == nil {
		return ErrNoActiveSession
	}
	if item < 0 || item >= len(s.menu.Items) || set < 0 || set >= s.menu.Items[item].SetCount {
		return fmt.Errorf("%w: item %d, set %d", ErrInvalidSetReference, item, set)
	}

	ref := SetRef{Item: item, Set: set}
	if _, ok := s.checked[ref]; ok {
		delete(s.checked, ref)
	} else {
		s.checked[ref] = struct{}{}
	}
	return nil
}

func (s *Session) IsChecked(item, set int) bool {
	_, ok := s.checked[SetRef{Item: item, Set: set}]
	return ok
}

// IsComplete reports whether every set of every item is checked.
// Items without sets are complete by definition.
func (s *Session) IsComplete() bool {
	if s.menu == nil {
		return false
	}
	for i, item := range s.menu.Items {
		for set := 0; set < item.SetCount; set++ {
			if !s.IsChecked(i, set) {
				return false
			}
		}
	}
	return true
}

// Finish records today's attendance for the active menu and returns the new snapshot.
// An incomplete session is left untouched and stays active.
func (s *Session) Finish(snapshot *records.Snapshot, today records.Date) (*records.Snapshot, error) {
	if s.menu == nil {
		return nil, ErrNoActiveSession
	}
	if !s.IsComplete() {
		return nil, ErrIncompleteSession
	}

	menuID := s.menu.ID
	next := snapshot.SetAttendance(today, &menuID)

	s.menu = nil
	s.checked = make(map[SetRef]struct{})

	return next, nil
}

func (s *Session) State() State {
	state := State{
		Active:      s.IsActive(),
		MenuID:      s.MenuID(),
		CheckedSets: make([]SetRef, 0, len(s.checked)),
		Complete:    s.IsComplete(),
	}
	for ref := range s.checked {
		state.CheckedSets = append(state.CheckedSets, ref)
	}
	sort.Slice(state.CheckedSets, func(i, j int) bool {
		a, b := state.CheckedSets[i], state.CheckedSets[j]
		if a.Item != b.Item {
			return a.Item < b.Item
		}
		return a.Set < b.Set
	})
	return state
}
