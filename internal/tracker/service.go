package tracker

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/2beens/gymrank/internal/calendar"
	"github.com/2beens/gymrank/internal/export"
	"github.com/2beens/gymrank/internal/records"
	"github.com/2beens/gymrank/internal/scoring"
	"github.com/2beens/gymrank/internal/session"
	"github.com/2beens/gymrank/internal/telemetry/metrics"
	"github.com/2beens/gymrank/internal/telemetry/tracing"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

var (
	ErrInvalidEntry    = errors.New("invalid activity entry")
	ErrInvalidMenus    = errors.New("invalid menus")
	ErrInvalidSettings = errors.New("invalid activity settings")
)

//go:generate mockgen -source=$GOFILE -destination=service_mocks_test.go -package=tracker_test

type snapshotSaver interface {
	Save(ctx context.Context, s *records.Snapshot) error
}

// Service is the application state container. It owns the current snapshot and
// the workout session, runs one operation at a time and persists the snapshot
// after every mutation.
type Service struct {
	mutex     sync.Mutex
	snapshot  *records.Snapshot
	session   *session.Session
	memo      *scoring.Memo
	projector *calendar.Projector
	saver     snapshotSaver
	metrics   *metrics.Manager
	location  *time.Location
	now       func() time.Time
}

type NewServiceParams struct {
	Snapshot *records.Snapshot
	Saver    snapshotSaver
	Metrics  *metrics.Manager
	// Location decides which calendar day "today" is; defaults to time.Local.
	Location *time.Location
	// Now defaults to time.Now.
	Now func() time.Time
}

func NewService(params NewServiceParams) *Service {
	memo := scoring.NewMemo(scoring.DefaultMemoSize)
	s := &Service{
		snapshot:  params.Snapshot,
		session:   session.New(),
		memo:      memo,
		projector: calendar.NewProjector(memo),
		saver:     params.Saver,
		metrics:   params.Metrics,
		location:  params.Location,
		now:       params.Now,
	}
	if s.snapshot == nil {
		s.snapshot = records.NewSnapshot(records.DefaultTables())
	}
	if s.metrics == nil {
		s.metrics = metrics.NewTestManager()
	}
	if s.location == nil {
		s.location = time.Local
	}
	if s.now == nil {
		s.now = time.Now
	}

	s.metrics.GaugeMonthlyScore.Set(float64(s.memo.MonthlyScore(s.snapshot, s.today().YearMonth())))
	return s
}

// Today is the current calendar day in the service's location.
func (s *Service) Today() records.Date {
	return s.today()
}

func (s *Service) today() records.Date {
	return records.DateOf(s.now().In(s.location))
}

// commit swaps in the new snapshot and persists it. A failed save is logged
// and counted; the in-memory state is kept.
func (s *Service) commit(ctx context.Context, next *records.Snapshot) {
	s.snapshot = next
	s.metrics.GaugeMonthlyScore.Set(float64(s.memo.MonthlyScore(next, s.today().YearMonth())))

	if s.saver == nil {
		return
	}

	start := time.Now()
	err := s.saver.Save(ctx, next)
	s.metrics.HistStoreSaveDuration.Observe(time.Since(start).Seconds())
	s.metrics.CounterStoreSaves.Inc()
	if err != nil {
		s.metrics.CounterStoreSaveFailures.Inc()
		log.Errorf("save snapshot %d: %s", next.Version(), err)
	}
}

type Summary struct {
	Today                records.Date             `json:"today"`
	TodayMenuID          string                   `json:"todayMenuId,omitempty"`
	TodayReserved        bool                     `json:"todayReserved"`
	TodayActivityTotal   int                      `json:"todayActivityTotal"`
	Pace                 float64                  `json:"pace"`
	Rank                 scoring.Rank             `json:"rank"`
	MonthlyScore         int                      `json:"monthlyScore"`
	MonthlyActiveDays    int                      `json:"monthlyActiveDays"`
	MonthlyActivityTotal int                      `json:"monthlyActivityTotal"`
	BonusPoints          int                      `json:"bonusPoints"`
	LastMonthScore       int                      `json:"lastMonthScore"`
	ToNextBonus          int                      `json:"toNextBonus"`
	Settings             records.ActivitySettings `json:"settings"`
	Menus                []records.MenuDefinition `json:"menus"`
	Session              session.State            `json:"session"`
}

// Summary is the home screen view of today and the running month.
func (s *Service) Summary(ctx context.Context) Summary {
	_, span := tracing.GlobalTracer.Start(ctx, "tracker.summary")
	defer span.End()

	s.mutex.Lock()
	defer s.mutex.Unlock()

	snap := s.snapshot
	today := s.today()
	ym := today.YearMonth()
	pace := s.memo.PaceProjection(snap, today)

	summary := Summary{
		Today:                today,
		TodayActivityTotal:   scoring.DailyActivityTotal(snap, today),
		TodayReserved:        snap.IsReserved(today),
		Pace:                 math.Round(pace*10) / 10,
		Rank:                 scoring.RankOf(pace),
		MonthlyScore:         s.memo.MonthlyScore(snap, ym),
		MonthlyActiveDays:    scoring.MonthlyActiveDays(snap, ym),
		MonthlyActivityTotal: scoring.MonthlyActivityTotal(snap, ym),
		BonusPoints:          scoring.BonusPoints(snap, ym),
		LastMonthScore:       s.memo.LastMonthScore(snap, today),
		ToNextBonus:          scoring.ToNextBonus(snap, ym),
		Settings:             snap.Settings(),
		Menus:                snap.ActiveMenus(),
		Session:              s.session.State(),
	}
	if menuID, ok := snap.AttendanceOn(today); ok {
		summary.TodayMenuID = menuID
	}

	span.SetAttributes(attribute.Int("score", summary.MonthlyScore))
	log.Tracef("memo hit rate: %.2f", s.memo.HitRate())
	return summary
}

func (s *Service) Calendar(ym records.YearMonth) calendar.Month {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.projector.Project(s.snapshot, ym, s.today())
}

func (s *Service) Series(ym records.YearMonth) scoring.Series {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return scoring.DailySeries(s.snapshot, ym)
}

func (s *Service) Export(ym records.YearMonth) string {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return export.MonthText(s.snapshot, ym, s.today())
}

func (s *Service) Menus() map[string]records.MenuDefinition {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.snapshot.Menus()
}

// PutMenus replaces all menu definitions. Attendance pointing to a removed
// menu is kept and still counts. A running session keeps its own copy of the menu.
func (s *Service) PutMenus(ctx context.Context, menus map[string]records.MenuDefinition) error {
	for id, m := range menus {
		if id == "" {
			return fmt.Errorf("%w: empty menu id", ErrInvalidMenus)
		}
		if m.ID == "" {
			m.ID = id
		}
		if m.ID != id {
			return fmt.Errorf("%w: menu [%s] under key [%s]", ErrInvalidMenus, m.ID, id)
		}
		if m.Category == "" {
			m.Category = records.CategoryNone
		}
		if !m.Category.IsValid() {
			return fmt.Errorf("%w: menu [%s] category [%s]", ErrInvalidMenus, id, m.Category)
		}
		for _, item := range m.Items {
			if item.SetCount < 0 {
				return fmt.Errorf("%w: menu [%s] item [%s] set count %d", ErrInvalidMenus, id, item.Name, item.SetCount)
			}
		}
		menus[id] = m
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.commit(ctx, s.snapshot.WithMenus(menus))
	return nil
}

func (s *Service) Settings() records.ActivitySettings {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.snapshot.Settings()
}

func (s *Service) PutSettings(ctx context.Context, settings records.ActivitySettings) error {
	if settings.DefaultReps < 0 || settings.DefaultSets < 0 {
		return fmt.Errorf("%w: negative defaults", ErrInvalidSettings)
	}
	if settings.BonusDivisor <= 0 {
		return fmt.Errorf("%w: bonus divisor must be positive", ErrInvalidSettings)
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.commit(ctx, s.snapshot.WithSettings(settings))
	return nil
}

func (s *Service) StartSession(menuID string) (session.State, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if err := s.session.Start(s.snapshot.Menus(), menuID); err != nil {
		return session.State{}, err
	}
	log.Debugf("workout session started: %s", menuID)
	return s.session.State(), nil
}

func (s *Service) ToggleSet(item, set int) (session.State, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if err := s.session.ToggleSet(item, set); err != nil {
		return session.State{}, err
	}
	return s.session.State(), nil
}

func (s *Service) SessionState() session.State {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.session.State()
}

// FinishSession records today's attendance for the completed workout.
func (s *Service) FinishSession(ctx context.Context) (_ string, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "tracker.finishSession")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	s.mutex.Lock()
	defer s.mutex.Unlock()

	menuID := s.session.MenuID()
	next, err := s.session.Finish(s.snapshot, s.today())
	if err != nil {
		return "", err
	}

	s.commit(ctx, next)
	s.metrics.CounterWorkoutsFinished.Inc()
	log.Infof("workout finished: menu %s", menuID)
	return menuID, nil
}

// AddEntry logs an activity entry on d. Missing reps or sets fall back to
// the defaults from the activity settings.
func (s *Service) AddEntry(ctx context.Context, d records.Date, reps, sets *int) (records.ActivityEntry, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	settings := s.snapshot.Settings()
	r, st := settings.DefaultReps, settings.DefaultSets
	if reps != nil {
		r = *reps
	}
	if sets != nil {
		st = *sets
	}
	if r < 0 || st < 0 {
		return records.ActivityEntry{}, fmt.Errorf("%w: reps %d, sets %d", ErrInvalidEntry, r, st)
	}

	next, entry := s.snapshot.AddEntry(d, r, st)
	s.commit(ctx, next)
	s.metrics.CounterActivityEntries.WithLabelValues("added").Inc()
	return entry, nil
}

// RemoveEntry is a no-op for unknown entries.
func (s *Service) RemoveEntry(ctx context.Context, d records.Date, id int64) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.commit(ctx, s.snapshot.RemoveEntry(d, id))
	s.metrics.CounterActivityEntries.WithLabelValues("removed").Inc()
}

// SetAttendance records a manual attendance edit. The menu must exist.
func (s *Service) SetAttendance(ctx context.Context, d records.Date, menuID string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, ok := s.snapshot.Menu(menuID); !ok {
		return fmt.Errorf("%w: %s", session.ErrMenuNotFound, menuID)
	}
	s.commit(ctx, s.snapshot.SetAttendance(d, &menuID))
	return nil
}

func (s *Service) ClearAttendance(ctx context.Context, d records.Date) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.commit(ctx, s.snapshot.SetAttendance(d, nil))
}

// ToggleReservation flips the reservation of d and reports whether d is reserved now.
func (s *Service) ToggleReservation(ctx context.Context, d records.Date) (bool, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	next, err := s.snapshot.ToggleReservation(d, s.today())
	if err != nil {
		return false, err
	}
	s.commit(ctx, next)
	return next.IsReserved(d), nil
}

// Snapshot returns the current snapshot, for read-only use.
func (s *Service) Snapshot() *records.Snapshot {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.snapshot
}
