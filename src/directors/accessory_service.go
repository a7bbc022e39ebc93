package directors

import (
	"context"
	"fmt"

	"shopfront/src/engine"
	"shopfront/src/helpers"
	"shopfront/src/models"
	"shopfront/src/settings"

	"go.uber.org/zap"
)

// AccessoryFilter narrows ListAccessories. Zero value matches everything.
type AccessoryFilter struct {
	// Name is matched as a substring, ignoring case and accents.
	Name string

	// InStock matches the exact flag; accessories with unknown stock never match.
	InStock *bool
}

func (f AccessoryFilter) matches(acc models.Accessory) bool {
	if f.InStock != nil && (acc.InStock == nil || *acc.InStock != *f.InStock) {
		return false
	}
	return helpers.ContainsFold(acc.Name, f.Name)
}

// DefaultAccessories is the catalog inserted into an empty store.
func DefaultAccessories() []models.AccessoryInput {
	return []models.AccessoryInput{
		{Name: "Coque iPhone 14", Color: "Noir", InStock: models.Bool(true)},
		{Name: "Chargeur Samsung", Color: "Blanc", InStock: models.Bool(false)},
		{Name: "Écouteurs Bluetooth", Color: "Bleu", InStock: models.Bool(true)},
	}
}

// AccessoryService manages operations on accessories
type AccessoryService struct {
	store    engine.AccessoryStore
	journal  *engine.Journal
	settings *settings.Arguments
	logger   *zap.SugaredLogger
}

// NewAccessoryService creates a new AccessoryService. journal may be nil.
func NewAccessoryService(store engine.AccessoryStore, journal *engine.Journal,
	settings *settings.Arguments,
	logger *zap.SugaredLogger) *AccessoryService {
	return &AccessoryService{
		store:    store,
		journal:  journal,
		settings: settings,
		logger:   logger,
	}
}

// SeedDefaults inserts DefaultAccessories when the store is empty and
// returns how many were inserted.
func (s *AccessoryService) SeedDefaults(ctx context.Context) (int, error) {
	n, err := s.store.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count accessories: %w", err)
	}
	if n > 0 {
		return 0, nil
	}

	inserted := 0
	for _, in := range DefaultAccessories() {
		if _, err := s.AddAccessory(ctx, in); err != nil {
			return inserted, fmt.Errorf("failed to seed accessory %q: %w", in.Name, err)
		}
		inserted++
	}

	s.logger.Infof("Seeded %d default accessories", inserted)
	return inserted, nil
}

func (s *AccessoryService) ListAccessories(ctx context.Context, filter AccessoryFilter) ([]models.Accessory, error) {
	all, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list accessories: %w", err)
	}

	if filter.Name == "" && filter.InStock == nil {
		return all, nil
	}

	matched := make([]models.Accessory, 0, len(all))
	for _, acc := range all {
		if filter.matches(acc) {
			matched = append(matched, acc)
		}
	}
	return matched, nil
}

// GetAccessory returns engine.ErrAccessoryNotFound (possibly wrapped) for unknown ids.
func (s *AccessoryService) GetAccessory(ctx context.Context, id int) (*models.Accessory, error) {
	return s.store.Get(ctx, id)
}

func (s *AccessoryService) AddAccessory(ctx context.Context, in models.AccessoryInput) (*models.Accessory, error) {
	acc, err := s.store.Create(ctx, in)
	if err != nil {
		return nil, err
	}

	if s.settings.Verbose {
		s.logger.Infow("Added accessory", "id", acc.ID, "name", acc.Name)
	}
	s.record("create", acc.ID, acc)
	return acc, nil
}

func (s *AccessoryService) UpdateAccessory(ctx context.Context, id int, in models.AccessoryInput) (*models.Accessory, error) {
	acc, err := s.store.Update(ctx, id, in)
	if err != nil {
		return nil, err
	}

	if s.settings.Verbose {
		s.logger.Infow("Updated accessory", "id", acc.ID, "name", acc.Name)
	}
	s.record("update", acc.ID, acc)
	return acc, nil
}

func (s *AccessoryService) DeleteAccessory(ctx context.Context, id int) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}

	if s.settings.Verbose {
		s.logger.Infow("Deleted accessory", "id", id)
	}
	s.record("delete", id, nil)
	return nil
}

func (s *AccessoryService) CountAccessories(ctx context.Context) (int, error) {
	return s.store.Count(ctx)
}

// record writes to the journal. The store is the source of truth, so a
// journal failure is logged and the mutation still succeeds.
func (s *AccessoryService) record(command string, id int, details interface{}) {
	if s.journal == nil {
		return
	}
	if err := s.journal.AddEntry(command, "accessories", id, details); err != nil {
		s.logger.Warnw("Failed to write journal entry", "command", command, "id", id, "error", err)
	}
}

// Close closes the journal and the store.
func (s *AccessoryService) Close() error {
	var firstErr error
	if s.journal != nil {
		firstErr = s.journal.Close()
	}
	if err := s.store.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
