package settings

import "sync"

// Storage engines understood by the server.
const (
	StorageEngineBSON   = "bson"
	StorageEngineSQLite = "sqlite"
)

// UserCredential is a bootstrap user declared in the config file.
type UserCredential struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type Arguments struct {
	// The file path to the datafiles
	DataDir string `json:"datadir"`

	// Directory for the server log file. Empty means stdout only.
	LogDir string `json:"logdir"`

	ConfigFile string `json:"-"`

	// the host name or IP address to listen on
	Host string `json:"host"`

	// the port number to listen on
	Port int `json:"port"`

	// Strongly verbose logging
	Verbose bool `json:"verbose"`

	Debug         bool `json:"debug"`
	PrintToScreen bool `json:"print"`

	AuthEnabled bool `json:"auth"` // Enable authentication on write endpoints

	// bson or sqlite
	StorageEngine string `json:"storage_engine"`

	// Read cache TTL. 0 disables the cache, negative never expires.
	CacheTTLSeconds int `json:"cache_ttl_seconds"`

	// Insert the default accessories when the store starts empty
	SeedData bool `json:"seed"`

	JournalEnabled     bool  `json:"journal"`
	MaxJournalFileSize int64 `json:"max_journal_file_size"`

	ShutdownTimeoutSeconds int `json:"shutdown_timeout_seconds"`

	// Encrypted user store. Users live in memory only when empty.
	UserStoreFile string `json:"user_store_file"`
	EncryptionKey string `json:"encryption_key"`

	Users []UserCredential `json:"users"`
}

var (
	instance *Arguments
	once     sync.Once
)

// GetSettings returns the process wide settings instance.
func GetSettings() *Arguments {
	once.Do(func() {
		instance = Defaults()
	})
	return instance
}

// Defaults returns the settings used when neither flags nor a config file override them.
func Defaults() *Arguments {
	return &Arguments{
		DataDir:                "./datafiles",
		Host:                   "127.0.0.1",
		Port:                   8000,
		PrintToScreen:          true,
		StorageEngine:          StorageEngineBSON,
		CacheTTLSeconds:        30,
		SeedData:               true,
		MaxJournalFileSize:     1000000,
		ShutdownTimeoutSeconds: 10,
	}
}
