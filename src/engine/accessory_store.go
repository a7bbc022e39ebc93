package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"shopfront/src/models"
	"shopfront/src/settings"

	"go.uber.org/zap"
)

var (
	ErrAccessoryNotFound = errors.New("accessory not found")
	ErrDataDirLocked     = errors.New("data directory is locked by another process")
	ErrStoreClosed       = errors.New("store is closed")
)

// AccessoryStore persists accessories. Ids are assigned by the store as
// one more than the largest id present, and List returns ascending ids.
type AccessoryStore interface {
	List(ctx context.Context) ([]models.Accessory, error)
	Get(ctx context.Context, id int) (*models.Accessory, error)
	Create(ctx context.Context, in models.AccessoryInput) (*models.Accessory, error)
	Update(ctx context.Context, id int, in models.AccessoryInput) (*models.Accessory, error)
	Delete(ctx context.Context, id int) error
	Count(ctx context.Context) (int, error)
	Close() error
}

// NewAccessoryStore opens the storage engine selected in config and wraps it
// in the read cache when a cache TTL is configured.
func NewAccessoryStore(config *settings.Arguments, logger *zap.SugaredLogger) (AccessoryStore, error) {
	var core AccessoryStore
	var err error

	switch config.StorageEngine {
	case settings.StorageEngineBSON, "":
		core, err = NewBundleStore(config.DataDir, logger)
	case settings.StorageEngineSQLite:
		core, err = NewSQLiteStore(config.DataDir, logger)
	default:
		return nil, fmt.Errorf("unknown storage engine %q", config.StorageEngine)
	}
	if err != nil {
		return nil, err
	}

	ttl := time.Duration(config.CacheTTLSeconds) * time.Second
	return NewCachedAccessoryStore(core, ttl, logger), nil
}

func cloneAccessory(a models.Accessory) models.Accessory {
	a.InStock = models.CopyBool(a.InStock)
	return a
}

func cloneAccessories(in []models.Accessory) []models.Accessory {
	out := make([]models.Accessory, len(in))
	for i, a := range in {
		out[i] = cloneAccessory(a)
	}
	return out
}
