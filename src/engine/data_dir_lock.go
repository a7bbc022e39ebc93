package engine

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// dataDirLock is an exclusive advisory lock held for the life of a store.
type dataDirLock struct {
	file *os.File
}

func acquireDataDirLock(dataDir, name string) (*dataDirLock, error) {
	path := filepath.Join(dataDir, name+".lock")
	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("error opening lock file %s: %w", path, err)
	}

	if err := unix.Flock(int(file.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		file.Close()
		if errors.Is(err, unix.EWOULDBLOCK) {
			return nil, fmt.Errorf("%w: %s", ErrDataDirLocked, dataDir)
		}
		return nil, fmt.Errorf("error locking %s: %w", path, err)
	}

	return &dataDirLock{file: file}, nil
}

func (l *dataDirLock) release() error {
	if l == nil || l.file == nil {
		return nil
	}
	unix.Flock(int(l.file.Fd()), unix.LOCK_UN)
	err := l.file.Close()
	l.file = nil
	return err
}
