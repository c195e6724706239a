package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/2beens/gymrank/internal/telemetry/tracing"
	"github.com/2beens/gymrank/pkg"

	"go.opentelemetry.io/otel/attribute"
)

// DiskStore keeps every key in its own JSON file under rootPath.
type DiskStore struct {
	rootPath string
	mutex    sync.RWMutex
}

func NewDiskStore(rootPath string) (*DiskStore, error) {
	if rootPath == "" {
		return nil, errors.New("root path cannot be empty")
	}
	if err := pkg.EnsureDir(rootPath); err != nil {
		return nil, fmt.Errorf("create root dir: %w", err)
	}
	return &DiskStore{
		rootPath: rootPath,
	}, nil
}

func (ds *DiskStore) path(key string) string {
	return filepath.Join(ds.rootPath, key+".json")
}

func (ds *DiskStore) Get(ctx context.Context, key string) (_ []byte, err error) {
	_, span := tracing.GlobalTracer.Start(ctx, "diskStore.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("key", key))

	ds.mutex.RLock()
	defer ds.mutex.RUnlock()

	raw, err := os.ReadFile(ds.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read [%s]: %w", key, err)
	}
	return raw, nil
}

// Put replaces the file through a rename, so a crash mid-write never leaves a
// truncated document behind.
func (ds *DiskStore) Put(ctx context.Context, key string, value []byte) (err error) {
	_, span := tracing.GlobalTracer.Start(ctx, "diskStore.put")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("key", key))
	span.SetAttributes(attribute.Int("value.size", len(value)))

	ds.mutex.Lock()
	defer ds.mutex.Unlock()

	tmp, err := os.CreateTemp(ds.rootPath, key+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(value); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write [%s]: %w", key, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close [%s]: %w", key, err)
	}
	if err = os.Rename(tmp.Name(), ds.path(key)); err != nil {
		return fmt.Errorf("rename [%s]: %w", key, err)
	}

	return nil
}
