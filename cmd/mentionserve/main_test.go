package main

import (
	"bytes"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/bastiangx/mentionserve/internal/logger"
	"github.com/charmbracelet/log"
)

func TestCliLoggingKeepsStartupLogger(t *testing.T) {
	prev := log.Default()
	t.Cleanup(func() { log.SetDefault(prev) })

	var buf bytes.Buffer
	log.SetDefault(logger.NewWithConfig(&buf, "", log.InfoLevel, false, false, log.TextFormatter))

	startup, closer := cliLogging(false)
	defer closer.Close()

	log.Error("drawn over by the screen")
	startup.Error("Failed to open terminal")

	out := buf.String()
	if strings.Contains(out, "drawn over") {
		t.Errorf("default logger still writes to the terminal: %q", out)
	}
	if !strings.Contains(out, "Failed to open terminal") {
		t.Errorf("startup logger lost: %q", out)
	}
}

func TestCliLoggingDebugWritesFile(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("XDG_CONFIG_HOME only applies on linux")
	}
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)

	prev := log.Default()
	t.Cleanup(func() { log.SetDefault(prev) })

	_, closer := cliLogging(true)
	log.Debug("engine ready", "columns", 60)
	if err := closer.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(xdg, "mentionserve", "logs", "cli.log"))
	if err != nil {
		t.Fatalf("reading cli.log: %v", err)
	}
	if !strings.Contains(string(data), "columns=60") {
		t.Errorf("cli.log = %q", data)
	}
}
