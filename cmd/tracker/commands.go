package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/2beens/gymrank/internal/calendar"
	"github.com/2beens/gymrank/internal/records"
	"github.com/2beens/gymrank/internal/tracker"
)

var errUsage = errors.New("invalid usage")

func runCommand(ctx context.Context, service *tracker.Service, out io.Writer, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	cmd, args := args[0], args[1:]

	switch cmd {
	case "summary":
		printSummary(out, service.Summary(ctx))
		return nil

	case "calendar":
		ym, err := monthArg(service, args)
		if err != nil {
			return err
		}
		printCalendar(out, service.Calendar(ym))
		return nil

	case "export":
		ym, err := monthArg(service, args)
		if err != nil {
			return err
		}
		_, err = io.WriteString(out, service.Export(ym))
		return err

	case "add":
		if len(args) < 1 || len(args) > 3 {
			return fmt.Errorf("%w: add <date> [reps] [sets]", errUsage)
		}
		d, err := parseDate(service, args[0])
		if err != nil {
			return err
		}
		var reps, sets *int
		if len(args) > 1 {
			if reps, err = intArg("reps", args[1]); err != nil {
				return err
			}
		}
		if len(args) > 2 {
			if sets, err = intArg("sets", args[2]); err != nil {
				return err
			}
		}
		entry, err := service.AddEntry(ctx, d, reps, sets)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "added entry %d on %s: %d x %d = %d\n", entry.ID, d, entry.Reps, entry.Sets, entry.Total())
		return nil

	case "remove":
		if len(args) != 2 {
			return fmt.Errorf("%w: remove <date> <id>", errUsage)
		}
		d, err := parseDate(service, args[0])
		if err != nil {
			return err
		}
		id, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("%w: entry id %q", errUsage, args[1])
		}
		service.RemoveEntry(ctx, d, id)
		fmt.Fprintf(out, "removed entry %d on %s\n", id, d)
		return nil

	case "attend":
		if len(args) != 2 {
			return fmt.Errorf("%w: attend <date> <menu>", errUsage)
		}
		d, err := parseDate(service, args[0])
		if err != nil {
			return err
		}
		if err := service.SetAttendance(ctx, d, args[1]); err != nil {
			return err
		}
		fmt.Fprintf(out, "attended %s: Menu %s\n", d, args[1])
		return nil

	case "clear":
		if len(args) != 1 {
			return fmt.Errorf("%w: clear <date>", errUsage)
		}
		d, err := parseDate(service, args[0])
		if err != nil {
			return err
		}
		service.ClearAttendance(ctx, d)
		fmt.Fprintf(out, "cleared %s\n", d)
		return nil

	case "reserve":
		if len(args) != 1 {
			return fmt.Errorf("%w: reserve <date>", errUsage)
		}
		d, err := parseDate(service, args[0])
		if err != nil {
			return err
		}
		reserved, err := service.ToggleReservation(ctx, d)
		if err != nil {
			return err
		}
		if reserved {
			fmt.Fprintf(out, "reserved %s\n", d)
		} else {
			fmt.Fprintf(out, "reservation on %s removed\n", d)
		}
		return nil

	case "workout":
		if len(args) != 1 {
			return fmt.Errorf("%w: workout <menu>", errUsage)
		}
		return workout(ctx, service, out, args[0])

	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
	}
}

// workout runs a whole session in one go: every set of the menu gets checked.
func workout(ctx context.Context, service *tracker.Service, out io.Writer, menuID string) error {
	if _, err := service.StartSession(menuID); err != nil {
		return err
	}
	menu := service.Menus()[menuID]
	for i, item := range menu.Items {
		for set := 0; set < item.SetCount; set++ {
			if _, err := service.ToggleSet(i, set); err != nil {
				return err
			}
		}
		fmt.Fprintf(out, "  %s x%d\n", item.Name, item.SetCount)
	}
	if _, err := service.FinishSession(ctx); err != nil {
		return err
	}
	fmt.Fprintf(out, "workout finished: Menu %s on %s\n", menuID, service.Today())
	return nil
}

func parseDate(service *tracker.Service, s string) (records.Date, error) {
	switch strings.ToLower(s) {
	case "today":
		return service.Today(), nil
	case "yesterday":
		return service.Today().AddDays(-1), nil
	}
	d, err := records.ParseDate(s)
	if err != nil {
		return records.Date{}, fmt.Errorf("%w: date %q", errUsage, s)
	}
	return d, nil
}

func monthArg(service *tracker.Service, args []string) (records.YearMonth, error) {
	switch len(args) {
	case 0:
		return service.Today().YearMonth(), nil
	case 1:
		ym, err := records.ParseYearMonth(args[0])
		if err != nil {
			return records.YearMonth{}, fmt.Errorf("%w: month %q", errUsage, args[0])
		}
		return ym, nil
	default:
		return records.YearMonth{}, fmt.Errorf("%w: too many arguments", errUsage)
	}
}

func intArg(name, s string) (*int, error) {
	v, err := strconv.Atoi(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %q", errUsage, name, s)
	}
	return &v, nil
}

func printSummary(out io.Writer, s tracker.Summary) {
	fmt.Fprintf(out, "today:          %s", s.Today)
	if s.TodayMenuID != "" {
		fmt.Fprintf(out, " (Menu %s)", s.TodayMenuID)
	} else if s.TodayReserved {
		fmt.Fprint(out, " (reserved)")
	}
	fmt.Fprintln(out)
	fmt.Fprintf(out, "pace:           %.1f (Rank: %s)\n", s.Pace, s.Rank)
	fmt.Fprintf(out, "score:          %d (%d days + %d bonus)\n", s.MonthlyScore, s.MonthlyActiveDays, s.BonusPoints)
	fmt.Fprintf(out, "last month:     %d\n", s.LastMonthScore)
	fmt.Fprintf(out, "activity today: %d%s\n", s.TodayActivityTotal, s.Settings.Unit)
	fmt.Fprintf(out, "activity month: %d%s, %d%s to next bonus\n",
		s.MonthlyActivityTotal, s.Settings.Unit, s.ToNextBonus, s.Settings.Unit)
	if s.Session.Active {
		fmt.Fprintf(out, "workout:        Menu %s in progress\n", s.Session.MenuID)
	}
}

// printCalendar marks days with: * attended, + activity, # both, r reserved.
func printCalendar(out io.Writer, m calendar.Month) {
	fmt.Fprintf(out, "%s %d    score %d\n", m.Month.Month, m.Month.Year, m.Score)
	fmt.Fprintln(out, " Su  Mo  Tu  We  Th  Fr  Sa")
	for i, c := range m.Cells {
		if c.Padding {
			fmt.Fprint(out, "    ")
		} else {
			fmt.Fprintf(out, "%3d%s", c.Day, cellMark(c))
		}
		if i%7 == 6 {
			fmt.Fprintln(out)
		}
	}
	if len(m.Cells)%7 != 0 {
		fmt.Fprintln(out)
	}
	for _, l := range m.Legend {
		fmt.Fprintf(out, "Menu %s: %s (%s)\n", l.MenuID, l.Title, l.Category)
	}
}

func cellMark(c calendar.Cell) string {
	switch {
	case c.DoubleAchievement:
		return "#"
	case c.State == calendar.StateAttended:
		return "*"
	case c.State == calendar.StateReserved:
		return "r"
	case c.ActivityDone:
		return "+"
	default:
		return " "
	}
}
