package platform

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

const (
	// DefaultAppName names the per-user directories when no app name is given.
	DefaultAppName = "kanboard"
	// HomeEnv pins every kanboard file under one directory when set.
	HomeEnv = "KANBOARD_HOME"

	configFile = "config.toml"
	dbFile     = "board.db"
	devProfile = "dev"
)

// ErrInvalidAppName reports an app name that cannot be used as a directory name.
var ErrInvalidAppName = errors.New("invalid app name")

// Layout holds the files one kanboard profile reads and writes.
type Layout struct {
	ConfigPath string
	DataDir    string
	DBPath     string
	LogPath    string
}

// Options selects the profile and, for tests, the host environment.
type Options struct {
	AppName string
	DevMode bool

	// GOOS, Getenv, and HomeDir default to the running host.
	GOOS    string
	Getenv  func(string) string
	HomeDir string
}

// Resolve computes the layout for opts.
//
// KANBOARD_HOME places everything flat in one directory. Otherwise config,
// data, and logs follow the host conventions: XDG config/data/state dirs on
// unix, Application Support and Library/Logs on darwin, APPDATA and
// LOCALAPPDATA on windows. Dev mode keeps a separate "dev" profile beneath
// each app directory so it never touches the real board.
func Resolve(opts Options) (Layout, error) {
	appName := strings.TrimSpace(opts.AppName)
	if appName == "" {
		appName = DefaultAppName
	}
	if appName == "." || appName == ".." || strings.ContainsAny(appName, `/\`) {
		return Layout{}, fmt.Errorf("%w: %q", ErrInvalidAppName, appName)
	}
	goos := opts.GOOS
	if goos == "" {
		goos = runtime.GOOS
	}
	getenv := opts.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	env := func(key string) string {
		return strings.TrimSpace(getenv(key))
	}

	if root := env(HomeEnv); root != "" {
		if opts.DevMode {
			root = filepath.Join(root, devProfile)
		}
		return Layout{
			ConfigPath: filepath.Join(root, configFile),
			DataDir:    root,
			DBPath:     filepath.Join(root, dbFile),
			LogPath:    filepath.Join(root, appName+".log"),
		}, nil
	}

	home := strings.TrimSpace(opts.HomeDir)
	if home == "" {
		dir, err := os.UserHomeDir()
		if err != nil {
			return Layout{}, fmt.Errorf("user home dir: %w", err)
		}
		home = dir
	}

	var configBase, dataBase, logDir string
	switch goos {
	case "windows":
		configBase = firstSet(env("APPDATA"), filepath.Join(home, "AppData", "Roaming"))
		dataBase = firstSet(env("LOCALAPPDATA"), filepath.Join(home, "AppData", "Local"))
		logDir = filepath.Join(dataBase, appName, "logs")
	case "darwin":
		configBase = filepath.Join(home, "Library", "Application Support")
		dataBase = configBase
		logDir = filepath.Join(home, "Library", "Logs", appName)
	default:
		configBase = firstSet(env("XDG_CONFIG_HOME"), filepath.Join(home, ".config"))
		dataBase = firstSet(env("XDG_DATA_HOME"), filepath.Join(home, ".local", "share"))
		logDir = filepath.Join(firstSet(env("XDG_STATE_HOME"), filepath.Join(home, ".local", "state")), appName)
	}

	configDir := filepath.Join(configBase, appName)
	dataDir := filepath.Join(dataBase, appName)
	if opts.DevMode {
		configDir = filepath.Join(configDir, devProfile)
		dataDir = filepath.Join(dataDir, devProfile)
		logDir = filepath.Join(logDir, devProfile)
	}
	return Layout{
		ConfigPath: filepath.Join(configDir, configFile),
		DataDir:    dataDir,
		DBPath:     filepath.Join(dataDir, dbFile),
		LogPath:    filepath.Join(logDir, appName+".log"),
	}, nil
}

func firstSet(value, fallback string) string {
	if value != "" {
		return value
	}
	return fallback
}
