package config

import (
	"os"
	"path/filepath"
)

const defaultBaseDir = ".warmline"

// Paths holds resolved filesystem paths for warmline data.
type Paths struct {
	Base   string // ~/.warmline
	Config string // ~/.warmline/config.yaml
	Data   string // ~/.warmline/data
}

// ResolvePaths computes all standard paths from the home directory.
// If WARMLINE_HOME is set, it overrides the default base directory.
func ResolvePaths() (Paths, error) {
	base := os.Getenv("WARMLINE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return Paths{}, err
		}
		base = filepath.Join(home, defaultBaseDir)
	}

	return Paths{
		Base:   base,
		Config: filepath.Join(base, "config.yaml"),
		Data:   filepath.Join(base, "data"),
	}, nil
}

// EnsureDirs creates the base and data directories if they don't exist.
func (p Paths) EnsureDirs() error {
	for _, d := range []string{p.Base, p.Data} {
		if err := os.MkdirAll(d, 0o700); err != nil {
			return err
		}
	}
	return nil
}

// JournalPath returns the configured journal database, defaulting to the
// data directory.
func (p Paths) JournalPath(cfg Config) string {
	if cfg.Journal.Path != "" {
		return cfg.Journal.Path
	}
	return filepath.Join(p.Data, "warmline.db")
}
