package utils

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/charmbracelet/log"
)

// AppDirName names the per-user config directory.
const AppDirName = "mentionserve"

const logDirName = "logs"

// PathResolver resolves where mentionserve keeps its config and logs.
type PathResolver struct {
	executableDir string
	homeDir       string
	configDir     string
}

// NewPathResolver finds the executable, home and config directories.
func NewPathResolver() (*PathResolver, error) {
	execPath, err := os.Executable()
	if err != nil {
		return nil, err
	}

	execPath, err = filepath.EvalSymlinks(execPath)
	if err != nil {
		return nil, err
	}

	execDir := filepath.Dir(execPath)

	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Warnf("Could not determine home directory: %v", err)
		homeDir = "/tmp" // fallback
	}

	configDir := getConfigDir(homeDir)

	pr := &PathResolver{
		executableDir: execDir,
		homeDir:       homeDir,
		configDir:     configDir,
	}

	log.Debugf("PathResolver initialized: exec=%s, execDir=%s, configDir=%s",
		execPath, execDir, configDir)

	return pr, nil
}

// getConfigDir returns the per-user config directory for the platform.
func getConfigDir(homeDir string) string {
	switch runtime.GOOS {
	case "darwin": // macOS
		return filepath.Join(homeDir, ".config", AppDirName)
	case "linux":
		if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
			return filepath.Join(configHome, AppDirName)
		}
		return filepath.Join(homeDir, ".config", AppDirName)
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, AppDirName)
		}
		return filepath.Join(homeDir, "AppData", "Roaming", AppDirName)
	default:
		return filepath.Join(homeDir, "."+AppDirName)
	}
}

// GetConfigPath returns the full path for a config file, falling back to
// other writable directories when the config directory is not.
func (pr *PathResolver) GetConfigPath(filename string) (string, error) {
	return pr.writablePath("", filename)
}

// GetLogPath returns where the log file filename goes: a logs directory next
// to the config, with the same fallbacks.
func (pr *PathResolver) GetLogPath(filename string) (string, error) {
	return pr.writablePath(logDirName, filename)
}

// writablePath joins sub and filename onto the first directory that can be
// written, trying the config directory first.
func (pr *PathResolver) writablePath(sub, filename string) (string, error) {
	dirs := []string{
		pr.configDir,
		filepath.Join(pr.homeDir, "."+AppDirName), // ~/.mentionserve/
		filepath.Join(os.TempDir(), AppDirName),   // /tmp/mentionserve/
		pr.executableDir,
	}
	for i, dir := range dirs {
		dir = filepath.Join(dir, sub)
		if !pr.ensureWritable(dir) {
			continue
		}
		path := filepath.Join(dir, filename)
		if i > 0 {
			log.Warnf("Using fallback location: %s", path)
		}
		return path, nil
	}

	tempPath := filepath.Join(os.TempDir(), filename)
	log.Warnf("Using temporary file: %s", tempPath)
	return tempPath, nil
}

// ensureWritable creates dir if needed and checks that files can be made in it.
func (pr *PathResolver) ensureWritable(dir string) bool {
	if err := EnsureDir(dir); err != nil {
		log.Debugf("Cannot create directory %s: %v", dir, err)
		return false
	}
	f, err := os.CreateTemp(dir, ".write_test")
	if err != nil {
		log.Debugf("Directory %s is not writable: %v", dir, err)
		return false
	}
	f.Close()
	os.Remove(f.Name())
	return true
}
