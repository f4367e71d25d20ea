package config

import (
	"os"
	"path/filepath"
	"time"
)

// Config is the root configuration for the pathmark CLI.
type Config struct {
	// DataDir holds the settings database.
	DataDir string `koanf:"data_dir"`

	Log   LogSection   `koanf:"log"`
	Store StoreSection `koanf:"store"`
	Scope ScopeSection `koanf:"scope"`
	Trash TrashSection `koanf:"trash"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// StoreSection configures the settings store backing the bookmark
// collection.
type StoreSection struct {
	// Passphrase seals stored values at rest when non-empty.
	Passphrase string `koanf:"passphrase"`

	// SyncWrites forces an fsync per write.
	SyncWrites bool `koanf:"sync_writes"`

	// GCInterval is the Badger value-log GC cadence.
	GCInterval time.Duration `koanf:"gc_interval"`
}

// ScopeSection bounds which entries can be bookmarked and how far
// relocation scans reach.
type ScopeSection struct {
	// Roots restricts bookmarks to these directory trees. Empty
	// permits any path.
	Roots []string `koanf:"roots"`

	// ScanRoot is where relocation scans start. Defaults to the
	// user's home directory.
	ScanRoot string `koanf:"scan_root"`

	// ScanDepth bounds how many levels below ScanRoot are searched.
	ScanDepth int `koanf:"scan_depth"`
}

// TrashSection configures the trash directory.
type TrashSection struct {
	Dir string `koanf:"dir"`
}

// Default configuration values.
const (
	DefaultLogLevel   = "info"
	DefaultLogFormat  = "json"
	DefaultScanDepth  = 4
	DefaultGCInterval = 10 * time.Minute
)

// DefaultDataDir returns the per-user data directory.
func DefaultDataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "pathmark")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "pathmark")
	}
	return filepath.Join(home, ".local", "share", "pathmark")
}

// Default returns the default configuration.
func Default() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		DataDir: DefaultDataDir(),
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
		Store: StoreSection{
			SyncWrites: true,
			GCInterval: DefaultGCInterval,
		},
		Scope: ScopeSection{
			ScanRoot:  home,
			ScanDepth: DefaultScanDepth,
		},
	}
}
