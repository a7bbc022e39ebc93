package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"shopfront/src/models"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

const accessorySchema = `
CREATE TABLE IF NOT EXISTS accessories (
	id INTEGER PRIMARY KEY,
	name TEXT NOT NULL,
	color TEXT NOT NULL,
	in_stock INTEGER,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_accessories_name ON accessories(name);
`

// SQLiteStorageEngine stores accessories in a single SQLite table.
// INTEGER PRIMARY KEY without AUTOINCREMENT gives max(id)+1 allocation.
type SQLiteStorageEngine struct {
	db     *sql.DB
	path   string
	lock   *dataDirLock
	logger *zap.SugaredLogger
}

func NewSQLiteStore(dataDir string, logger *zap.SugaredLogger) (*SQLiteStorageEngine, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory %s: %w", dataDir, err)
	}

	lock, err := acquireDataDirLock(dataDir, accessoryBundleName)
	if err != nil {
		return nil, err
	}

	path := filepath.Join(dataDir, accessoryBundleName+".db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		lock.release()
		return nil, fmt.Errorf("error opening %s: %w", path, err)
	}
	// One connection keeps the pragmas below in force for every statement.
	db.SetMaxOpenConns(1)

	store := &SQLiteStorageEngine{db: db, path: path, lock: lock, logger: logger}
	if err := store.init(); err != nil {
		db.Close()
		lock.release()
		return nil, err
	}

	logger.Infow("Opened sqlite accessory store", "file", path)
	return store, nil
}

func (s *SQLiteStorageEngine) init() error {
	if err := s.db.Ping(); err != nil {
		return fmt.Errorf("error connecting to %s: %w", s.path, err)
	}

	for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA busy_timeout=5000"} {
		if _, err := s.db.Exec(pragma); err != nil {
			return fmt.Errorf("error applying %q: %w", pragma, err)
		}
	}

	for _, stmt := range strings.Split(accessorySchema, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("error creating schema: %w", err)
		}
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAccessory(row rowScanner) (models.Accessory, error) {
	var acc models.Accessory
	var inStock sql.NullBool
	if err := row.Scan(&acc.ID, &acc.Name, &acc.Color, &inStock); err != nil {
		return acc, err
	}
	if inStock.Valid {
		acc.InStock = models.Bool(inStock.Bool)
	}
	return acc, nil
}

func nullableBool(b *bool) interface{} {
	if b == nil {
		return nil
	}
	return *b
}

func (s *SQLiteStorageEngine) List(ctx context.Context) ([]models.Accessory, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, name, color, in_stock FROM accessories ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("error listing accessories: %w", err)
	}
	defer rows.Close()

	accessories := []models.Accessory{}
	for rows.Next() {
		acc, err := scanAccessory(rows)
		if err != nil {
			return nil, fmt.Errorf("error reading accessory row: %w", err)
		}
		accessories = append(accessories, acc)
	}
	return accessories, rows.Err()
}

func (s *SQLiteStorageEngine) Get(ctx context.Context, id int) (*models.Accessory, error) {
	row := s.db.QueryRowContext(ctx, "SELECT id, name, color, in_stock FROM accessories WHERE id = ?", id)
	acc, err := scanAccessory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAccessoryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error reading accessory %d: %w", id, err)
	}
	return &acc, nil
}

func (s *SQLiteStorageEngine) Create(ctx context.Context, in models.AccessoryInput) (*models.Accessory, error) {
	result, err := s.db.ExecContext(ctx,
		"INSERT INTO accessories (name, color, in_stock) VALUES (?, ?, ?)",
		in.Name, in.Color, nullableBool(in.InStock),
	)
	if err != nil {
		return nil, fmt.Errorf("error inserting accessory: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("error reading new accessory id: %w", err)
	}

	acc := in.ToAccessory(int(id))
	return &acc, nil
}

func (s *SQLiteStorageEngine) Update(ctx context.Context, id int, in models.AccessoryInput) (*models.Accessory, error) {
	result, err := s.db.ExecContext(ctx,
		"UPDATE accessories SET name = ?, color = ?, in_stock = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
		in.Name, in.Color, nullableBool(in.InStock), id,
	)
	if err != nil {
		return nil, fmt.Errorf("error updating accessory %d: %w", id, err)
	}

	if n, err := result.RowsAffected(); err != nil {
		return nil, fmt.Errorf("error updating accessory %d: %w", id, err)
	} else if n == 0 {
		return nil, ErrAccessoryNotFound
	}

	acc := in.ToAccessory(id)
	return &acc, nil
}

func (s *SQLiteStorageEngine) Delete(ctx context.Context, id int) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM accessories WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("error deleting accessory %d: %w", id, err)
	}

	if n, err := result.RowsAffected(); err != nil {
		return fmt.Errorf("error deleting accessory %d: %w", id, err)
	} else if n == 0 {
		return ErrAccessoryNotFound
	}
	return nil
}

func (s *SQLiteStorageEngine) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM accessories").Scan(&n); err != nil {
		return 0, fmt.Errorf("error counting accessories: %w", err)
	}
	return n, nil
}

func (s *SQLiteStorageEngine) Close() error {
	err := s.db.Close()
	if lerr := s.lock.release(); err == nil {
		err = lerr
	}
	return err
}
