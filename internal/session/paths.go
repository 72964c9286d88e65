package session

import (
	"os"
	"path/filepath"
)

// EnvHome relocates the yovo base directory (default ~/.yovo).
const EnvHome = "YOVO_HOME"

// BaseDir returns $YOVO_HOME, or ~/.yovo when unset.
func BaseDir() string {
	if v := os.Getenv(EnvHome); v != "" {
		return v
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".yovo")
}

// Dir returns the session-specific directory.
func Dir(name string) string {
	return filepath.Join(BaseDir(), "sessions", name)
}

// SocketPath returns the UDS socket the daemon serves gRPC on.
func SocketPath(name string) string {
	return filepath.Join(Dir(name), "yovod.sock")
}

// LockPath returns the lock file path for a session.
func LockPath(name string) string {
	return filepath.Join(Dir(name), "LOCK")
}

// AppDBPath returns the session database holding the outbox and preferences.
func AppDBPath(name string) string {
	return filepath.Join(Dir(name), "yovo.db")
}

// LogDir returns the log directory for a session.
func LogDir(name string) string {
	return filepath.Join(Dir(name), "logs")
}

// LogPath returns the daemon log file path.
func LogPath(name string) string {
	return filepath.Join(LogDir(name), "yovod.log")
}

// ConfigPath returns the global config file path.
func ConfigPath() string {
	return filepath.Join(BaseDir(), "config.toml")
}

// EnsureDir creates the session directory tree with proper permissions.
func EnsureDir(name string) error {
	for _, d := range []string{Dir(name), LogDir(name)} {
		if err := os.MkdirAll(d, 0700); err != nil {
			return err
		}
	}
	return nil
}

// List returns the names of sessions that have a directory under BaseDir.
func List() ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(BaseDir(), "sessions"))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() && ValidateName(e.Name()) == nil {
			names = append(names, e.Name())
		}
	}
	return names, nil
}
