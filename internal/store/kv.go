package store

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("key not found")

// Keys of the independently persisted structures.
const (
	KeyAttendance       = "attendance"
	KeyActivityEntries  = "activityEntries"
	KeyReservations     = "reservations"
	KeyMenus            = "menus"
	KeyActivitySettings = "activitySettings"
)

var AllKeys = []string{
	KeyAttendance,
	KeyActivityEntries,
	KeyReservations,
	KeyMenus,
	KeyActivitySettings,
}

//go:generate mockgen -source=$GOFILE -destination=kv_mocks_test.go -package=store_test

// KV is an opaque key-value store holding one JSON document per key.
// Get returns ErrNotFound for keys that were never written.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
}
