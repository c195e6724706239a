package records_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/2beens/gymrank/internal/records"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string {
	return &s
}

func TestDate_ParseAndFormat(t *testing.T) {
	d, err := records.ParseDate("2024-02-29")
	require.NoError(t, err)
	assert.Equal(t, records.NewDate(2024, time.February, 29), d)
	assert.Equal(t, "2024-02-29", d.String())
	assert.Equal(t, time.Thursday, d.Weekday())

	_, err = records.ParseDate("2024-2-29")
	assert.ErrorIs(t, err, records.ErrInvalidDate)
	_, err = records.ParseDate("2023-02-29")
	assert.ErrorIs(t, err, records.ErrInvalidDate)
}

func TestYearMonth(t *testing.T) {
	feb := records.YearMonth{Year: 2024, Month: time.February}
	assert.Equal(t, 29, feb.DaysIn())
	assert.Equal(t, 28, records.YearMonth{Year: 2023, Month: time.February}.DaysIn())
	assert.Equal(t, 31, records.YearMonth{Year: 2024, Month: time.December}.DaysIn())
	assert.Equal(t, records.YearMonth{Year: 2023, Month: time.December}, records.YearMonth{Year: 2024, Month: time.January}.Prev())
	assert.Equal(t, records.YearMonth{Year: 2025, Month: time.January}, records.YearMonth{Year: 2024, Month: time.December}.Next())
	assert.Equal(t, "2024-02", feb.String())
	assert.True(t, feb.Contains(records.NewDate(2024, time.February, 1)))
	assert.False(t, feb.Contains(records.NewDate(2023, time.February, 1)))

	ym, err := records.ParseYearMonth("2024-11")
	require.NoError(t, err)
	assert.Equal(t, records.YearMonth{Year: 2024, Month: time.November}, ym)
}

func TestSnapshot_AddAndRemoveEntry(t *testing.T) {
	s0 := records.NewSnapshot(records.DefaultTables())
	d := records.NewDate(2024, time.May, 3)

	s1, e1 := s0.AddEntry(d, 30, 2)
	s2, e2 := s1.AddEntry(d, 10, 1)

	assert.NotEqual(t, e1.ID, e2.ID)
	assert.Greater(t, e2.ID, e1.ID)
	assert.Empty(t, s0.EntriesOn(d), "original snapshot must stay untouched")
	assert.Len(t, s1.EntriesOn(d), 1)
	assert.Len(t, s2.EntriesOn(d), 2)
	assert.NotEqual(t, s1.Version(), s2.Version())

	s3 := s2.RemoveEntry(d, e1.ID)
	require.Len(t, s3.EntriesOn(d), 1)
	assert.Equal(t, e2, s3.EntriesOn(d)[0])
	assert.Len(t, s2.EntriesOn(d), 2)

	// removing a missing entry is a no-op
	s4 := s3.RemoveEntry(d, 12345)
	assert.Equal(t, s3.Tables(), s4.Tables())

	// the last removal drops the date key entirely
	s5 := s4.RemoveEntry(d, e2.ID)
	assert.Empty(t, s5.ActivityDates())
	_, hasKey := s5.Tables().ActivityEntries[d]
	assert.False(t, hasKey)
}

func TestSnapshot_EntryIDsContinueAfterLoad(t *testing.T) {
	d := records.NewDate(2024, time.May, 3)
	tables := records.DefaultTables()
	tables.ActivityEntries[d] = []records.ActivityEntry{{ID: 41, Reps: 1, Sets: 1}}

	_, e := records.NewSnapshot(tables).AddEntry(d, 1, 1)
	assert.Equal(t, int64(42), e.ID)
}

func TestSnapshot_SetAttendance(t *testing.T) {
	today := records.NewDate(2024, time.May, 3)
	s0 := records.NewSnapshot(records.DefaultTables())

	s1, err := s0.ToggleReservation(today, today)
	require.NoError(t, err)
	assert.True(t, s1.IsReserved(today))

	s2 := s1.SetAttendance(today, strPtr("A"))
	menuID, ok := s2.AttendanceOn(today)
	require.True(t, ok)
	assert.Equal(t, "A", menuID)
	assert.False(t, s2.IsReserved(today), "attendance clears reservation")
	assert.True(t, s1.IsReserved(today))

	s3 := s2.SetAttendance(today, strPtr("B"))
	menuID, _ = s3.AttendanceOn(today)
	assert.Equal(t, "B", menuID, "last write wins")

	s4 := s3.SetAttendance(today, nil)
	_, ok = s4.AttendanceOn(today)
	assert.False(t, ok)
}

func TestSnapshot_ToggleReservation(t *testing.T) {
	today := records.NewDate(2024, time.May, 3)
	s0 := records.NewSnapshot(records.DefaultTables())

	s1, err := s0.ToggleReservation(today.AddDays(7), today)
	require.NoError(t, err)
	assert.Equal(t, []records.Date{today.AddDays(7)}, s1.ReservedDates())

	s2, err := s1.ToggleReservation(today.AddDays(7), today)
	require.NoError(t, err)
	assert.Empty(t, s2.ReservedDates())

	s3, err := s2.ToggleReservation(today.AddDays(-1), today)
	assert.ErrorIs(t, err, records.ErrReservationInPast)
	assert.Nil(t, s3)
}

func TestSnapshot_ActiveMenus(t *testing.T) {
	s := records.NewSnapshot(records.DefaultTables())
	active := s.ActiveMenus()
	require.Len(t, active, 2)
	assert.Equal(t, "A", active[0].ID)
	assert.Equal(t, "B", active[1].ID)

	menus := s.Menus()
	c := menus["C"]
	c.Active = true
	menus["C"] = c
	s2 := s.WithMenus(menus)
	assert.Len(t, s2.ActiveMenus(), 3)
	assert.Len(t, s.ActiveMenus(), 2)
}

func TestSnapshot_MenuIsCopied(t *testing.T) {
	s := records.NewSnapshot(records.DefaultTables())
	m, ok := s.Menu("A")
	require.True(t, ok)
	m.Items[0].SetCount = 99

	again, _ := s.Menu("A")
	assert.Equal(t, 3, again.Items[0].SetCount)
}

func TestTables_JSONLayout(t *testing.T) {
	d := records.NewDate(2024, time.May, 3)
	s := records.NewSnapshot(records.DefaultTables()).SetAttendance(d, strPtr("A"))
	s, _ = s.AddEntry(d, 30, 2)

	tables := s.Tables()
	attendanceJSON, err := json.Marshal(tables.Attendance)
	require.NoError(t, err)
	assert.JSONEq(t, `{"2024-05-03":"A"}`, string(attendanceJSON))

	entriesJSON, err := json.Marshal(tables.ActivityEntries)
	require.NoError(t, err)
	assert.JSONEq(t, `{"2024-05-03":[{"id":1,"reps":30,"sets":2}]}`, string(entriesJSON))
}

func TestActivitySettings_Divisor(t *testing.T) {
	assert.Equal(t, 100, records.ActivitySettings{}.Divisor())
	assert.Equal(t, 100, records.ActivitySettings{BonusDivisor: -5}.Divisor())
	assert.Equal(t, 50, records.ActivitySettings{BonusDivisor: 50}.Divisor())
}
