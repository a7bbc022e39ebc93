package settings

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/ghodss/yaml.v1"
)

// LoadConfigFile overlays the YAML (or JSON) file at path onto args.
// Keys absent from the file leave the current values untouched.
func LoadConfigFile(path string, args *Arguments) error {
	rawData, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("could not read config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(rawData, args); err != nil {
		return fmt.Errorf("could not parse config file %s: %w", path, err)
	}

	args.ConfigFile = path
	return nil
}

// ValidateArguments validates the arguments and returns an error if invalid
func ValidateArguments(args *Arguments) error {
	// Check if data directory exists and is accessible
	dirInfo, err := os.Stat(args.DataDir)
	if err != nil {
		if os.IsNotExist(err) {
			if err := os.MkdirAll(args.DataDir, 0755); err != nil {
				return fmt.Errorf("could not create data directory: %w", err)
			}
		} else {
			return fmt.Errorf("error accessing data directory: %w", err)
		}
	} else if !dirInfo.IsDir() {
		return fmt.Errorf("data directory path exists but is not a directory: %s", args.DataDir)
	}

	if args.LogDir != "" {
		if err := os.MkdirAll(args.LogDir, 0755); err != nil {
			return fmt.Errorf("could not create log directory: %w", err)
		}
		probe, err := os.CreateTemp(args.LogDir, "probe-*.tmp")
		if err != nil {
			return fmt.Errorf("log directory is not writable: %w", err)
		}
		probe.Close()
		os.Remove(probe.Name())
	}

	// Validate port range
	if args.Port < 1 || args.Port > 65535 {
		return fmt.Errorf("invalid port number: %d (must be between 1 and 65535)", args.Port)
	}

	if args.ConfigFile != "" {
		if _, err := os.Stat(args.ConfigFile); err != nil {
			return fmt.Errorf("could not access config file: %w", err)
		}
	}

	validEngines := map[string]bool{StorageEngineBSON: true, StorageEngineSQLite: true}
	if !validEngines[args.StorageEngine] {
		return fmt.Errorf("invalid storage engine: %s (must be '%s' or '%s')",
			args.StorageEngine, StorageEngineBSON, StorageEngineSQLite)
	}

	if args.MaxJournalFileSize <= 0 {
		return fmt.Errorf("invalid max journal file size: %d", args.MaxJournalFileSize)
	}

	if args.UserStoreFile != "" && args.EncryptionKey == "" {
		return fmt.Errorf("user store file %s requires an encryption key", filepath.Base(args.UserStoreFile))
	}

	for i, u := range args.Users {
		if u.Username == "" || u.Password == "" {
			return fmt.Errorf("user entry %d needs both username and password", i)
		}
	}

	return nil
}
