package config

import (
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/bastiangx/mentionserve/pkg/trigger"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestInitConfigCreatesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	cfg, err := InitConfig(path)
	if err != nil {
		t.Fatalf("InitConfig() error: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config file not written: %v", err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}
	if loaded.Engine != cfg.Engine || loaded.Server != cfg.Server || loaded.CLI != cfg.CLI {
		t.Errorf("reloaded config differs:\n got %+v\nwant %+v", loaded, cfg)
	}
	if len(loaded.Triggers) != 1 || loaded.Triggers[0].Token != "@" {
		t.Errorf("Triggers = %+v", loaded.Triggers)
	}
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
[engine]
min_chars = 1
max_visible = 3
spacer = " "
tie_break = "first"

[[trigger]]
token = "@"
candidates = ["bob", "bill"]

[[trigger]]
token = "#"
whole_word = true
candidates_file = "tags.txt"

[server]
max_fields = 8
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}

	if cfg.Engine.MinChars != 1 || cfg.Engine.MaxVisible != 3 || cfg.Engine.Spacer != " " {
		t.Errorf("Engine = %+v", cfg.Engine)
	}
	if cfg.Engine.SpaceRemovers != ",.!?" {
		t.Errorf("unset space_removers = %q, want default", cfg.Engine.SpaceRemovers)
	}
	if cfg.Server.MaxFields != 8 || cfg.Server.MaxText != 65536 {
		t.Errorf("Server = %+v", cfg.Server)
	}

	want := []trigger.Spec{{Token: "@"}, {Token: "#", WholeWord: true}}
	if got := cfg.TriggerSpecs(); !slices.Equal(got, want) {
		t.Errorf("TriggerSpecs() = %+v, want %+v", got, want)
	}

	opts := cfg.EngineOptions()
	if opts.TieBreak != trigger.FirstTrigger || opts.MaxVisible != 3 || opts.Spacer != " " {
		t.Errorf("EngineOptions() = %+v", opts)
	}
}

func TestLoadConfigPartialRecovery(t *testing.T) {
	path := writeConfig(t, `
[engine]
max_visible = "six"
min_chars = 2

[[trigger]]
token = "#"
candidates = ["go", 3, "rust"]

[[trigger]]
whole_word = true

[cli]
columns = 40
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}
	if cfg.Engine.MaxVisible != 6 || cfg.Engine.MinChars != 2 {
		t.Errorf("Engine = %+v", cfg.Engine)
	}
	if len(cfg.Triggers) != 1 || cfg.Triggers[0].Token != "#" {
		t.Fatalf("Triggers = %+v", cfg.Triggers)
	}
	if got := cfg.Triggers[0].Candidates; !slices.Equal(got, []string{"go", "rust"}) {
		t.Errorf("Candidates = %q", got)
	}
	if cfg.CLI.Columns != 40 {
		t.Errorf("CLI.Columns = %d, want 40", cfg.CLI.Columns)
	}
}

func TestLoadConfigUnparsable(t *testing.T) {
	path := writeConfig(t, "[engine\nmin_chars = ")
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}
	if cfg.Engine != DefaultConfig().Engine {
		t.Errorf("Engine = %+v, want defaults", cfg.Engine)
	}
}

func TestLoadConfigWithPriority(t *testing.T) {
	path := writeConfig(t, "[cli]\ncolumns = 72\n")
	cfg, used, err := LoadConfigWithPriority(path)
	if err != nil {
		t.Fatal(err)
	}
	if used != path || cfg.CLI.Columns != 72 {
		t.Errorf("LoadConfigWithPriority() = %+v, %q", cfg.CLI, used)
	}
}

func TestUpdate(t *testing.T) {
	path := writeConfig(t, "")
	cfg := DefaultConfig()
	limit, spacer := 2, " "
	if err := cfg.Update(path, EngineUpdate{MaxVisible: &limit, Spacer: &spacer}); err != nil {
		t.Fatalf("Update() error: %v", err)
	}
	if cfg.Engine.MaxVisible != 2 || cfg.Engine.Spacer != " " || cfg.Engine.MinChars != 0 {
		t.Errorf("Engine = %+v", cfg.Engine)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Engine != cfg.Engine {
		t.Errorf("saved Engine = %+v, want %+v", loaded.Engine, cfg.Engine)
	}
}

func TestCandidateLoader(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "tags.txt"), []byte("go\ngolang\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := DefaultConfig()
	cfg.Triggers = []TriggerConfig{
		{Token: "@", Candidates: []string{"bob"}},
		{Token: "#", CandidatesFile: "tags.txt"},
		{Token: "!", CandidatesFile: "missing.txt"},
	}

	store := cfg.CandidateLoader(dir).Store()
	tests := []struct {
		token string
		want  []string
	}{
		{"@", []string{"bob"}},
		{"#", []string{"go", "golang"}},
		{"!", nil},
	}
	for _, tt := range tests {
		got, ok := store.Candidates(tt.token)
		if !ok || !slices.Equal(got, tt.want) {
			t.Errorf("Candidates(%q) = %q, %v; want %q", tt.token, got, ok, tt.want)
		}
	}
}
