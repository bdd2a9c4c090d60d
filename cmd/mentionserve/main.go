/*
Package main runs the mention engine as an IPC server or as an interactive
CLI [DBG] application.

MentionServe watches editable text for trigger tokens such as "@", "#" or
"[[", shows the candidates registered for the trigger that match what was
typed after it, and rewrites the text when one is chosen. Every host field
gets its own engine; the host only forwards text, caret and key events and
draws the popup where it is told to.

# Usage

Start the server with the config at the default location:

	mentionserve

Use a custom config file and enable debug logging:

	mentionserve -config ./mentions.toml -d

Run the CLI to try triggers by hand:

	mentionserve -c

# Configuration

Triggers, their candidate lists and engine options live in a TOML file that
is created with defaults if it doesn't exist. For example:

	[engine]
	min_chars = 0
	max_visible = 6
	spacer = " "
	space_removers = ",.!?"

	[[trigger]]
	token = "@"
	candidates_file = "people.txt"

Relative candidates_file paths are resolved against the config file's
directory. Broken values are skipped and the rest of the file still applies.

# IPC Protocol

The server reads MessagePack requests from stdin and writes responses to
stdout. Field requests carry a field id "f"; the first text event for an id
opens a session:

	{"id": "1", "op": "text", "f": "note", "text": "hi @b"}
	{"id": "2", "op": "key", "f": "note", "key": "down"}
	{"id": "3", "op": "key", "f": "note", "key": "enter"}

Responses describe the popup and, after a commit, the rewritten text:

	{"id": "3", "f": "note", "visible": false, "handled": true, "rw": {"text": "hi @bill ", "caret": 9}}

See package server for the full set of operations.

# Command Line Flags

	-config string
	    Path to a custom config file
	-d  Enable debug mode with detailed logging
	-c  Run CLI mode instead of server mode
	-rebuild-config
	    Overwrite the default config file with defaults and exit
	-version
	    Show current version

Logs go to stderr in server mode. The CLI owns the terminal, so with -d its
logs are appended to logs/cli.log in the config directory and are dropped
otherwise.
*/
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/bastiangx/mentionserve/internal/cli"
	"github.com/bastiangx/mentionserve/internal/logger"
	"github.com/bastiangx/mentionserve/internal/utils"
	"github.com/bastiangx/mentionserve/pkg/config"
	"github.com/bastiangx/mentionserve/pkg/server"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"golang.org/x/term"
)

const (
	Version = "0.3.0-beta"
	AppName = "mentionserve"
	gh      = "https://github.com/bastiangx/mentionserve"
)

// sigHandler is a simple handler for OS signals to exit normally.
func sigHandler() {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		fmt.Fprintf(os.Stderr, "\nExiting...\n")
		os.Exit(0)
	}()
}

// main only wires config, candidates and the chosen front end together.
func main() {
	showVersion := flag.Bool("version", false, "Show current version")
	debugMode := flag.Bool("d", false, "Toggle debug mode")
	cliMode := flag.Bool("c", false, "Run CLI -- useful for testing and debugging")
	configFile := flag.String("config", "", "Path to custom config file")
	rebuildConfig := flag.Bool("rebuild-config", false, "Overwrite the default config file with defaults and exit")

	flag.Parse()

	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	if *rebuildConfig {
		if err := config.RebuildConfigFile(); err != nil {
			log.Fatalf("Failed to rebuild config: %v", err)
		}
		fmt.Fprintln(os.Stderr, "Config rebuilt at", config.GetActiveConfigPath(""))
		os.Exit(0)
	}

	if *debugMode {
		log.SetLevel(log.DebugLevel)
		log.SetReportTimestamp(true)
	} else {
		log.SetLevel(log.WarnLevel)
	}
	log.SetDefault(logger.New(""))

	if *cliMode {
		if !term.IsTerminal(int(os.Stdin.Fd())) {
			log.Fatal("CLI mode needs an interactive terminal")
		}
	} else {
		sigHandler()
	}

	appConfig, configPath, err := config.LoadConfigWithPriority(*configFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	log.Debugf("Using config file: (%s)", configPath)

	baseDir := ""
	if configPath != "" {
		baseDir = filepath.Dir(configPath)
	}
	loader := appConfig.CandidateLoader(baseDir)

	// CLI would be mainly used for testing and dbg purposes.
	if *cliMode {
		startup, closer := cliLogging(*debugMode)
		screen, err := cli.NewScreen()
		if err != nil {
			closer.Close()
			startup.Fatalf("Failed to open terminal: %v", err)
		}
		inputHandler := cli.NewInputHandler(screen, loader.Store(), appConfig.EngineOptions(), appConfig.CLI.Columns)
		err = inputHandler.Start()
		closer.Close()
		if err != nil {
			startup.Fatalf("CLI error: %v", err)
		}
		return
	}

	log.Debug("spawning IPC")
	srv := server.NewServer(appConfig, configPath, loader)

	showStartupInfo(configPath, loader.Store().Stats())

	if err := srv.Start(); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// cliLogging moves logging off the terminal: into cli.log when debugging,
// nowhere otherwise. It returns the logger it replaced, which still writes
// to stderr and is kept for fatal errors.
func cliLogging(debug bool) (*log.Logger, io.Closer) {
	startup := log.Default()
	if !debug {
		log.SetDefault(logger.Discard())
		return startup, io.NopCloser(nil)
	}
	pr, err := utils.NewPathResolver()
	if err != nil {
		log.Fatalf("Failed to initialize path resolver: %v", err)
	}
	path, err := pr.GetLogPath("cli.log")
	if err != nil {
		log.Fatalf("Failed to determine log path: %v", err)
	}
	l, closer, err := logger.NewFile(path, "cli", log.DebugLevel)
	if err != nil {
		log.Fatalf("Failed to open log file: %v", err)
	}
	log.SetDefault(l)
	return startup, closer
}

func printVersion() {
	banner := log.NewWithOptions(os.Stderr, log.Options{
		ReportCaller:    false,
		ReportTimestamp: false,
		Prefix:          "",
	})

	styles := log.DefaultStyles()
	styles.Values["version"] = lipgloss.NewStyle().Bold(true).
		Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"}).
		Background(lipgloss.AdaptiveColor{Light: "#f2e9e1", Dark: "#26233a"})
	styles.Values["gh"] = lipgloss.NewStyle().Italic(true).
		Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"})
	banner.SetStyles(styles)

	banner.Print("")
	banner.Print("[ MentionServe ] Trigger-based mentions for any text field")
	banner.Print("", "version", Version)
	banner.Print("")
	banner.Print("use -h or --help to see available options")
	banner.Print("Github Repo", "gh", gh)
}

// showStartupInfo displays some basic info about the init process on stderr.
func showStartupInfo(configPath string, stats map[string]int) {
	currentLevel := log.GetLevel()
	log.SetLevel(log.InfoLevel)
	defer log.SetLevel(currentLevel)

	if configPath == "" {
		configPath = "builtin defaults"
	} else {
		configPath = config.GetActiveConfigPath(configPath)
	}
	fmt.Fprintln(os.Stderr, "===============")
	fmt.Fprintln(os.Stderr, " MentionServe ")
	fmt.Fprintln(os.Stderr, "===============")
	log.Infof("Version: %s", Version)
	log.Infof("Process ID: [ %d ]", os.Getpid())
	log.Infof("config: ( %s )", configPath)
	log.Info("candidates loaded", "triggers", stats["triggers"], "candidates", stats["candidates"])
	log.Info("status: ready")
	fmt.Fprintln(os.Stderr, "Press Ctrl+C to exit")
}
