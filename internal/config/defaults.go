package config

import (
	"os"
	"path/filepath"
	"strings"
)

const (
	defaultBackupsDir            = "/backups"
	defaultBind                  = "127.0.0.1:8037"
	defaultBackupIntervalMinutes = 60
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:    defaultDataDir(),
			BackupsDir: defaultBackupsDir,
		},
		Server: Server{
			Bind: defaultBind,
		},
		Backup: Backup{
			IntervalMinutes: defaultBackupIntervalMinutes,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}

func defaultDataDir() string {
	if base, ok := os.LookupEnv("XDG_DATA_HOME"); ok && strings.TrimSpace(base) != "" {
		return filepath.Join(base, "nightwatch")
	}
	return "~/.local/share/nightwatch"
}
