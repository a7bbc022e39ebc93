package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"shopfront/src/helpers"
	"shopfront/src/models"

	"go.uber.org/zap"
	"golang.org/x/sys/unix"
)

const accessoryBundleName = "accessories"

// bundleFile is the on-disk BSON document holding the whole collection.
type bundleFile struct {
	Name        string             `bson:"name"`
	Accessories []models.Accessory `bson:"accessories"`
	UpdatedAt   time.Time          `bson:"updated_at"`
}

// BundleStorageEngine keeps the accessory bundle in memory and rewrites
// the bundle file on every mutation.
type BundleStorageEngine struct {
	DataDirectory string
	logger        *zap.SugaredLogger

	mu          sync.RWMutex
	accessories []models.Accessory
	lock        *dataDirLock
	closed      bool
}

func NewBundleStore(dataDir string, logger *zap.SugaredLogger) (*BundleStorageEngine, error) {
	store := &BundleStorageEngine{
		DataDirectory: dataDir,
		logger:        logger,
	}

	// Ensure the data directory exists
	if err := os.MkdirAll(store.DataDirectory, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory %s: %w", store.DataDirectory, err)
	}

	lock, err := acquireDataDirLock(dataDir, accessoryBundleName)
	if err != nil {
		return nil, err
	}
	store.lock = lock

	accessories, err := store.loadBundleIntoMemory()
	if err != nil {
		lock.release()
		return nil, err
	}
	store.accessories = accessories

	logger.Infow("Loaded accessory bundle", "file", store.bundlePath(), "accessories", len(accessories))
	return store, nil
}

func (b *BundleStorageEngine) bundlePath() string {
	return filepath.Join(b.DataDirectory, accessoryBundleName+".bnd")
}

func (b *BundleStorageEngine) loadBundleIntoMemory() ([]models.Accessory, error) {
	filePath := b.bundlePath()
	if !helpers.FileExists(filePath, b.logger) {
		return []models.Accessory{}, nil
	}

	bundleFileHandle, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("error opening bundle file %s: %w", filePath, err)
	}
	defer bundleFileHandle.Close()

	stat, err := bundleFileHandle.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to get file stats for %s: %w", filePath, err)
	}
	fileSize := int(stat.Size())
	if fileSize == 0 {
		return []models.Accessory{}, nil
	}

	data, err := unix.Mmap(int(bundleFileHandle.Fd()), 0, fileSize, unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("failed to memory map %s: %w", filePath, err)
	}
	defer unix.Munmap(data)

	var bundle bundleFile
	if err := helpers.DecodeBSON(data, &bundle); err != nil {
		return nil, fmt.Errorf("error decoding bundle file %s: %w", filePath, err)
	}

	accessories := bundle.Accessories
	if accessories == nil {
		accessories = []models.Accessory{}
	}
	sort.SliceStable(accessories, func(i, j int) bool {
		return accessories[i].ID < accessories[j].ID
	})
	return accessories, nil
}

// writeBundleFile must be called with mu held.
func (b *BundleStorageEngine) writeBundleFile(accessories []models.Accessory) error {
	encodedBundle, err := helpers.EncodeBSON(bundleFile{
		Name:        accessoryBundleName,
		Accessories: accessories,
		UpdatedAt:   time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("error encoding bundle data: %w", err)
	}

	if err := helpers.WriteFileAtomic(b.bundlePath(), encodedBundle, 0644); err != nil {
		return fmt.Errorf("error writing bundle file %s: %w", b.bundlePath(), err)
	}
	return nil
}

func (b *BundleStorageEngine) indexOf(id int) int {
	i := sort.Search(len(b.accessories), func(i int) bool {
		return b.accessories[i].ID >= id
	})
	if i < len(b.accessories) && b.accessories[i].ID == id {
		return i
	}
	return -1
}

func (b *BundleStorageEngine) List(ctx context.Context) ([]models.Accessory, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return nil, ErrStoreClosed
	}
	return cloneAccessories(b.accessories), nil
}

func (b *BundleStorageEngine) Get(ctx context.Context, id int) (*models.Accessory, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return nil, ErrStoreClosed
	}

	i := b.indexOf(id)
	if i < 0 {
		return nil, ErrAccessoryNotFound
	}
	acc := cloneAccessory(b.accessories[i])
	return &acc, nil
}

func (b *BundleStorageEngine) Create(ctx context.Context, in models.AccessoryInput) (*models.Accessory, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, ErrStoreClosed
	}

	nextID := 1
	if n := len(b.accessories); n > 0 {
		nextID = b.accessories[n-1].ID + 1
	}
	acc := in.ToAccessory(nextID)

	updated := append(cloneAccessories(b.accessories), acc)
	if err := b.writeBundleFile(updated); err != nil {
		return nil, err
	}
	b.accessories = updated

	out := cloneAccessory(acc)
	return &out, nil
}

func (b *BundleStorageEngine) Update(ctx context.Context, id int, in models.AccessoryInput) (*models.Accessory, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, ErrStoreClosed
	}

	i := b.indexOf(id)
	if i < 0 {
		return nil, ErrAccessoryNotFound
	}

	updated := cloneAccessories(b.accessories)
	updated[i] = in.ToAccessory(id)
	if err := b.writeBundleFile(updated); err != nil {
		return nil, err
	}
	b.accessories = updated

	out := cloneAccessory(updated[i])
	return &out, nil
}

func (b *BundleStorageEngine) Delete(ctx context.Context, id int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrStoreClosed
	}

	i := b.indexOf(id)
	if i < 0 {
		return ErrAccessoryNotFound
	}

	updated := make([]models.Accessory, 0, len(b.accessories)-1)
	updated = append(updated, b.accessories[:i]...)
	updated = append(updated, b.accessories[i+1:]...)
	if err := b.writeBundleFile(updated); err != nil {
		return err
	}
	b.accessories = updated
	return nil
}

func (b *BundleStorageEngine) Count(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return 0, ErrStoreClosed
	}
	return len(b.accessories), nil
}

// Close releases the data directory lock. Data is already on disk.
func (b *BundleStorageEngine) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	return b.lock.release()
}
