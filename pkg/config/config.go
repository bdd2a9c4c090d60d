/*
Package config manages TOML config for mentionserve.
*/
package config

import (
	"os"
	"path/filepath"

	"github.com/bastiangx/mentionserve/internal/utils"
	"github.com/bastiangx/mentionserve/pkg/caret"
	"github.com/bastiangx/mentionserve/pkg/dictionary"
	"github.com/bastiangx/mentionserve/pkg/mention"
	"github.com/bastiangx/mentionserve/pkg/suggest"
	"github.com/bastiangx/mentionserve/pkg/trigger"
	"github.com/charmbracelet/log"
)

// Config holds the entire config structure
type Config struct {
	Engine   EngineConfig    `toml:"engine"`
	Triggers []TriggerConfig `toml:"trigger"`
	Server   ServerConfig    `toml:"server"`
	CLI      CliConfig       `toml:"cli"`
}

// EngineConfig holds the suggestion engine options.
type EngineConfig struct {
	Pattern                string `toml:"pattern"`
	MinChars               int    `toml:"min_chars"`
	MaxVisible             int    `toml:"max_visible"`
	Spacer                 string `toml:"spacer"`
	SpaceRemovers          string `toml:"space_removers"`
	PassThroughEnter       bool   `toml:"pass_through_enter"`
	PassThroughTab         bool   `toml:"pass_through_tab"`
	MatchAny               bool   `toml:"match_any"`
	RequestOnlyIfNoOptions bool   `toml:"request_only_if_no_options"`
	TieBreak               string `toml:"tie_break"`
}

// TriggerConfig is one [[trigger]] table.
type TriggerConfig struct {
	Token           string   `toml:"token"`
	CaseInsensitive bool     `toml:"case_insensitive"`
	WholeWord       bool     `toml:"whole_word"`
	Candidates      []string `toml:"candidates"`
	CandidatesFile  string   `toml:"candidates_file"`
}

// ServerConfig has server related options.
type ServerConfig struct {
	MaxFields int          `toml:"max_fields"`
	MaxText   int          `toml:"max_text"`
	Layout    caret.Layout `toml:"layout"`
}

// CliConfig holds cli interface options.
type CliConfig struct {
	Columns int `toml:"columns"`
}

// GetDefaultConfigPath returns the default path for config.toml
func GetDefaultConfigPath() (string, error) {
	pr, err := utils.NewPathResolver()
	if err != nil {
		return "", err
	}
	return pr.GetConfigPath("config.toml")
}

// LoadConfigWithPriority loads config with priority:
// 1. Custom path from --config flag
// 2. Default path: [UserConfigDir]/mentionserve/config.toml
// 3. Builtin defaults
func LoadConfigWithPriority(customConfigPath string) (*Config, string, error) {
	if customConfigPath != "" {
		if _, statErr := os.Stat(customConfigPath); statErr == nil {
			config, err := LoadConfig(customConfigPath)
			if err != nil {
				log.Warnf("Failed to load custom config from %s: %v. Trying default path...", customConfigPath, err)
			} else {
				log.Debugf("Loaded config from custom path: %s", customConfigPath)
				return config, customConfigPath, nil
			}
		} else {
			log.Warnf("Custom config file not found at %s: %v. Trying default path...", customConfigPath, statErr)
		}
	}
	defaultPath, err := GetDefaultConfigPath()
	if err != nil {
		log.Warnf("Failed to determine default config path: %v. Using built-in defaults...", err)
		return DefaultConfig(), "", nil
	}

	config, err := InitConfig(defaultPath)
	if err != nil {
		log.Warnf("Failed to load/create config at default path %s: %v. Using builtin defaults...", defaultPath, err)
		return DefaultConfig(), "", nil
	}
	log.Debugf("Loaded config from default path: %s", defaultPath)
	return config, defaultPath, nil
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Engine: EngineConfig{
			Pattern:                trigger.DefaultPattern,
			MinChars:               0,
			MaxVisible:             6,
			Spacer:                 "",
			SpaceRemovers:          ",.!?",
			RequestOnlyIfNoOptions: true,
			TieBreak:               trigger.LastTrigger.String(),
		},
		Triggers: []TriggerConfig{
			{Token: "@", Candidates: []string{}},
		},
		Server: ServerConfig{
			MaxFields: 64,
			MaxText:   65536,
			Layout: caret.Layout{
				Columns:    80,
				CellWidth:  8,
				CellHeight: 16,
				TabWidth:   8,
				Wrap:       true,
			},
		},
		CLI: CliConfig{
			Columns: 60,
		},
	}
}

// InitConfig loads config from file or creates default if missing
func InitConfig(configPath string) (*Config, error) {
	configDir := filepath.Dir(configPath)

	if err := utils.EnsureDir(configDir); err != nil {
		log.Warnf("Failed to create config directory %s: %v. Using built-in defaults...", configDir, err)
		return DefaultConfig(), nil
	}

	if !utils.FileExists(configPath) {
		config := DefaultConfig()
		if err := SaveConfig(config, configPath); err != nil {
			log.Warnf("Failed to create default config file at %s: %v. Using built-in defaults...", configPath, err)
			return DefaultConfig(), nil
		}
		log.Debugf("Created default config file at: %s", configPath)
		return config, nil
	}

	config, err := LoadConfig(configPath)
	if err != nil {
		log.Warnf("Failed to load config from %s: %v. Using built-in defaults...", configPath, err)
		return DefaultConfig(), nil
	}
	return config, nil
}

// LoadConfig loads from a TOML file
func LoadConfig(configPath string) (*Config, error) {
	config := DefaultConfig()
	config.Triggers = nil

	if err := utils.LoadTOMLFile(configPath, config); err != nil {
		log.Debugf("Strict parse of %s failed: %v", configPath, err)
		return tryPartialParse(configPath)
	}
	if len(config.Triggers) == 0 {
		config.Triggers = DefaultConfig().Triggers
	}
	return config, nil
}

// tryPartialParse salvages whatever sections of a broken file still parse
func tryPartialParse(configPath string) (*Config, error) {
	config := DefaultConfig()

	tempConfig, err := utils.ParseTOMLWithRecovery(configPath)
	if err != nil {
		log.Warnf("Could not parse any valid configuration from %s: %v. Using all defaults.", configPath, err)
		return config, nil
	}

	if engineSection, ok := utils.ExtractSection(tempConfig, "engine"); ok {
		extractEngineConfig(engineSection, &config.Engine)
	}
	if tables, ok := utils.ExtractTableArray(tempConfig, "trigger"); ok && len(tables) > 0 {
		config.Triggers = extractTriggers(tables)
	}
	if serverSection, ok := utils.ExtractSection(tempConfig, "server"); ok {
		extractServerConfig(serverSection, &config.Server)
	}
	if cliSection, ok := utils.ExtractSection(tempConfig, "cli"); ok {
		extractCliConfig(cliSection, &config.CLI)
	}
	return config, nil
}

// extractEngineConfig extracts engine configuration from a map
func extractEngineConfig(data map[string]any, engine *EngineConfig) {
	if val, ok := utils.ExtractString(data, "pattern"); ok {
		engine.Pattern = val
	}
	if val, ok := utils.ExtractInt64(data, "min_chars"); ok {
		engine.MinChars = val
	}
	if val, ok := utils.ExtractInt64(data, "max_visible"); ok {
		engine.MaxVisible = val
	}
	if val, ok := utils.ExtractString(data, "spacer"); ok {
		engine.Spacer = val
	}
	if val, ok := utils.ExtractString(data, "space_removers"); ok {
		engine.SpaceRemovers = val
	}
	if val, ok := utils.ExtractBool(data, "pass_through_enter"); ok {
		engine.PassThroughEnter = val
	}
	if val, ok := utils.ExtractBool(data, "pass_through_tab"); ok {
		engine.PassThroughTab = val
	}
	if val, ok := utils.ExtractBool(data, "match_any"); ok {
		engine.MatchAny = val
	}
	if val, ok := utils.ExtractBool(data, "request_only_if_no_options"); ok {
		engine.RequestOnlyIfNoOptions = val
	}
	if val, ok := utils.ExtractString(data, "tie_break"); ok {
		engine.TieBreak = val
	}
}

// extractTriggers keeps every [[trigger]] table that names a token
func extractTriggers(tables []map[string]any) []TriggerConfig {
	var triggers []TriggerConfig
	for _, t := range tables {
		token, ok := utils.ExtractString(t, "token")
		if !ok {
			log.Warnf("Skipping [[trigger]] without a token")
			continue
		}
		tc := TriggerConfig{Token: token}
		if val, ok := utils.ExtractBool(t, "case_insensitive"); ok {
			tc.CaseInsensitive = val
		}
		if val, ok := utils.ExtractBool(t, "whole_word"); ok {
			tc.WholeWord = val
		}
		if val, ok := utils.ExtractStringSlice(t, "candidates"); ok {
			tc.Candidates = val
		}
		if val, ok := utils.ExtractString(t, "candidates_file"); ok {
			tc.CandidatesFile = val
		}
		triggers = append(triggers, tc)
	}
	return triggers
}

// extractServerConfig extracts server configuration from a map
func extractServerConfig(data map[string]any, server *ServerConfig) {
	if val, ok := utils.ExtractInt64(data, "max_fields"); ok {
		server.MaxFields = val
	}
	if val, ok := utils.ExtractInt64(data, "max_text"); ok {
		server.MaxText = val
	}
	if layout, ok := utils.ExtractSection(data, "layout"); ok {
		if val, ok := utils.ExtractInt64(layout, "columns"); ok {
			server.Layout.Columns = val
		}
		if val, ok := utils.ExtractFloat(layout, "cell_width"); ok {
			server.Layout.CellWidth = val
		}
		if val, ok := utils.ExtractFloat(layout, "cell_height"); ok {
			server.Layout.CellHeight = val
		}
		if val, ok := utils.ExtractFloat(layout, "padding_top"); ok {
			server.Layout.PaddingTop = val
		}
		if val, ok := utils.ExtractFloat(layout, "padding_left"); ok {
			server.Layout.PaddingLeft = val
		}
		if val, ok := utils.ExtractInt64(layout, "tab_width"); ok {
			server.Layout.TabWidth = val
		}
		if val, ok := utils.ExtractBool(layout, "wrap"); ok {
			server.Layout.Wrap = val
		}
	}
}

// extractCliConfig extracts CLI config from a map
func extractCliConfig(data map[string]any, cli *CliConfig) {
	if val, ok := utils.ExtractInt64(data, "columns"); ok {
		cli.Columns = val
	}
}

// RebuildConfigFile force creates a new config.toml at default
func RebuildConfigFile() error {
	defaultPath, err := GetDefaultConfigPath()
	if err != nil {
		return err
	}
	if err := utils.EnsureDir(filepath.Dir(defaultPath)); err != nil {
		return err
	}
	return utils.SaveTOMLFile(DefaultConfig(), defaultPath)
}

// GetActiveConfigPath returns the absolute path of loaded config file
func GetActiveConfigPath(configPath string) string {
	if configPath == "" {
		if defaultPath, err := GetDefaultConfigPath(); err == nil {
			return defaultPath
		}
		return "unknown"
	}
	return utils.GetAbsolutePath(configPath)
}

// SaveConfig saves into a TOML file
func SaveConfig(config *Config, configPath string) error {
	return utils.SaveTOMLFile(config, configPath)
}

// EngineUpdate carries the engine options a client may change at runtime.
// Nil fields are left alone.
type EngineUpdate struct {
	MinChars   *int    `msgpack:"min_chars,omitempty"`
	MaxVisible *int    `msgpack:"max_visible,omitempty"`
	Spacer     *string `msgpack:"spacer,omitempty"`
	MatchAny   *bool   `msgpack:"match_any,omitempty"`
}

// Update changes the engine values and saves to file when configPath is set
func (c *Config) Update(configPath string, u EngineUpdate) error {
	engine := &c.Engine
	if u.MinChars != nil {
		engine.MinChars = *u.MinChars
	}
	if u.MaxVisible != nil {
		engine.MaxVisible = *u.MaxVisible
	}
	if u.Spacer != nil {
		engine.Spacer = *u.Spacer
	}
	if u.MatchAny != nil {
		engine.MatchAny = *u.MatchAny
	}
	if configPath == "" {
		return nil
	}
	return SaveConfig(c, configPath)
}

// TriggerSpecs returns the matcher specs of every configured trigger.
func (c *Config) TriggerSpecs() []trigger.Spec {
	specs := make([]trigger.Spec, 0, len(c.Triggers))
	for _, t := range c.Triggers {
		specs = append(specs, trigger.Spec{
			Token:           t.Token,
			CaseInsensitive: t.CaseInsensitive,
			WholeWord:       t.WholeWord,
		})
	}
	return specs
}

// EngineOptions turns the config into engine options. Callbacks are left
// for the caller to set.
func (c *Config) EngineOptions() mention.Options {
	tieBreak, err := trigger.ParseTieBreak(c.Engine.TieBreak)
	if err != nil {
		log.Warnf("%v. Using %s.", err, tieBreak)
	}

	opts := mention.DefaultOptions()
	opts.Triggers = c.TriggerSpecs()
	opts.Pattern = c.Engine.Pattern
	opts.MinChars = c.Engine.MinChars
	opts.MaxVisible = c.Engine.MaxVisible
	opts.Spacer = c.Engine.Spacer
	opts.SpaceRemovers = c.Engine.SpaceRemovers
	opts.PassThroughEnter = c.Engine.PassThroughEnter
	opts.PassThroughTab = c.Engine.PassThroughTab
	opts.MatchAnyPosition = c.Engine.MatchAny
	opts.RequestOnlyIfNoOptions = c.Engine.RequestOnlyIfNoOptions
	opts.TieBreak = tieBreak
	return opts
}

// CandidateLoader registers every trigger's inline candidates and list file
// with a new loader. Relative candidates_file paths resolve against baseDir.
// Files that fail to load are logged and skipped.
func (c *Config) CandidateLoader(baseDir string) *dictionary.Loader {
	loader := dictionary.NewLoader(baseDir, suggest.NewStore())
	for _, t := range c.Triggers {
		if err := loader.Register(t.Token, t.Candidates, t.CandidatesFile); err != nil {
			log.Debugf("Trigger %q registered without its list file: %v", t.Token, err)
		}
	}
	return loader
}
