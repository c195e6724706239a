package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/2beens/gymrank/internal/records"
	"github.com/2beens/gymrank/internal/telemetry/tracing"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/multierr"
)

type Repo struct {
	kv KV
}

func NewRepo(kv KV) *Repo {
	return &Repo{
		kv: kv,
	}
}

// Load reads all structures from the store. A structure that is missing,
// unreadable or fails to decode is replaced by its default; Load never fails.
func (r *Repo) Load(ctx context.Context) *records.Snapshot {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.load")
	defer span.End()

	// decode into nil maps: json.Unmarshal merges into a non-nil map
	tables := records.Tables{
		ActivitySettings: records.DefaultActivitySettings(),
	}

	r.loadInto(ctx, KeyAttendance, &tables.Attendance, func() {
		tables.Attendance = nil
	})
	r.loadInto(ctx, KeyActivityEntries, &tables.ActivityEntries, func() {
		tables.ActivityEntries = nil
	})
	r.loadInto(ctx, KeyReservations, &tables.Reservations, func() {
		tables.Reservations = nil
	})
	r.loadInto(ctx, KeyMenus, &tables.Menus, func() {
		tables.Menus = nil
	})
	// fields absent from the stored settings keep their defaults
	r.loadInto(ctx, KeyActivitySettings, &tables.ActivitySettings, func() {
		tables.ActivitySettings = records.DefaultActivitySettings()
	})

	if tables.Menus == nil {
		tables.Menus = records.DefaultMenus()
	}
	if err := validateMenus(tables.Menus); err != nil {
		log.Warnf("stored menus invalid, using defaults: %s", err)
		tables.Menus = records.DefaultMenus()
	}
	fillMenuIDs(tables.Menus)

	s := records.NewSnapshot(tables)
	span.SetAttributes(attribute.Int("attendance.days", len(s.AttendanceDates())))
	return s
}

func (r *Repo) loadInto(ctx context.Context, key string, dst any, reset func()) {
	raw, err := r.kv.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		log.Debugf("[%s] not stored yet, using default", key)
		reset()
		return
	}
	if err != nil {
		log.Warnf("read [%s], using default: %s", key, err)
		reset()
		return
	}

	if err := json.Unmarshal(raw, dst); err != nil {
		log.Warnf("decode [%s], using default: %s", key, err)
		reset()
	}
}

// Save writes every structure of s. All structures are attempted even when
// one of them fails; the failures are combined in the returned error.
func (r *Repo) Save(ctx context.Context, s *records.Snapshot) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.save")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	tables := s.Tables()
	values := map[string]any{
		KeyAttendance:       tables.Attendance,
		KeyActivityEntries:  tables.ActivityEntries,
		KeyReservations:     tables.Reservations,
		KeyMenus:            tables.Menus,
		KeyActivitySettings: tables.ActivitySettings,
	}

	for _, key := range AllKeys {
		raw, marshalErr := json.Marshal(values[key])
		if marshalErr != nil {
			err = multierr.Append(err, fmt.Errorf("marshal [%s]: %w", key, marshalErr))
			continue
		}
		if putErr := r.kv.Put(ctx, key, raw); putErr != nil {
			err = multierr.Append(err, fmt.Errorf("put [%s]: %w", key, putErr))
		}
	}

	return err
}

func validateMenus(menus map[string]records.MenuDefinition) error {
	for id, m := range menus {
		if m.ID != "" && m.ID != id {
			return fmt.Errorf("menu [%s] stored under key [%s]", m.ID, id)
		}
		for _, item := range m.Items {
			if item.SetCount < 0 {
				return fmt.Errorf("menu [%s] item [%s] has negative set count", id, item.Name)
			}
		}
	}
	return nil
}

func fillMenuIDs(menus map[string]records.MenuDefinition) {
	for id, m := range menus {
		if m.ID == "" {
			m.ID = id
			menus[id] = m
		}
	}
}
