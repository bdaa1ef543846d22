package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Provider  string                 `mapstructure:"provider" yaml:"provider,omitempty"`
	Ask       AskConfig              `mapstructure:"ask" yaml:"ask,omitempty"`
	Anthropic AnthropicConfig        `mapstructure:"anthropic" yaml:"anthropic,omitempty"`
	OpenAI    OpenAIConfig           `mapstructure:"openai" yaml:"openai,omitempty"`
	Gemini    GeminiConfig           `mapstructure:"gemini" yaml:"gemini,omitempty"`
	Render    RenderConfig           `mapstructure:"render" yaml:"render,omitempty"`
	Theme     ThemeConfig            `mapstructure:"theme" yaml:"theme,omitempty"`
	Stream    StreamConfig           `mapstructure:"stream" yaml:"stream,omitempty"`
	Styles    map[string]StyleConfig `mapstructure:"styles" yaml:"styles,omitempty"`
	Record    RecordConfig           `mapstructure:"record" yaml:"record,omitempty"`
	Log       LogConfig              `mapstructure:"log" yaml:"log,omitempty"`
}

type AskConfig struct {
	Instructions string `mapstructure:"instructions" yaml:"instructions,omitempty"` // Custom system prompt for ask
}

type AnthropicConfig struct {
	APIKey    string `mapstructure:"api_key" yaml:"api_key,omitempty"`
	Model     string `mapstructure:"model" yaml:"model,omitempty"`
	MaxTokens int    `mapstructure:"max_tokens" yaml:"max_tokens,omitempty"`
}

type OpenAIConfig struct {
	APIKey  string `mapstructure:"api_key" yaml:"api_key,omitempty"`
	Model   string `mapstructure:"model" yaml:"model,omitempty"`
	BaseURL string `mapstructure:"base_url" yaml:"base_url,omitempty"` // Optional, for OpenAI-compatible servers
}

type GeminiConfig struct {
	APIKey string `mapstructure:"api_key" yaml:"api_key,omitempty"`
	Model  string `mapstructure:"model" yaml:"model,omitempty"`
}

// RenderConfig controls the terminal renderer
type RenderConfig struct {
	Width          int    `mapstructure:"width" yaml:"width,omitempty"`                     // 0 = terminal width
	Preset         string `mapstructure:"preset" yaml:"preset,omitempty"`                   // theme preset, see "mdstream styles --presets"
	Color          string `mapstructure:"color" yaml:"color,omitempty"`                     // auto, none, ansi, ansi256, truecolor
	HighlightStyle string `mapstructure:"highlight_style" yaml:"highlight_style,omitempty"` // chroma style name
	HoldUnstable   bool   `mapstructure:"hold_unstable" yaml:"hold_unstable,omitempty"`     // hold back lines with open ** or backticks
}

// ThemeConfig allows customization of UI colors
// Colors can be ANSI color numbers (0-255) or hex codes (#RRGGBB)
type ThemeConfig struct {
	Primary   string `mapstructure:"primary" yaml:"primary,omitempty"`     // bold, code
	Secondary string `mapstructure:"secondary" yaml:"secondary,omitempty"` // headers, links, borders
	Success   string `mapstructure:"success" yaml:"success,omitempty"`     // diff additions
	Error     string `mapstructure:"error" yaml:"error,omitempty"`         // diff removals
	Warning   string `mapstructure:"warning" yaml:"warning,omitempty"`     // quotes
	Muted     string `mapstructure:"muted" yaml:"muted,omitempty"`         // dimmed text
	Text      string `mapstructure:"text" yaml:"text,omitempty"`           // primary text
	Spinner   string `mapstructure:"spinner" yaml:"spinner,omitempty"`     // loading spinner
	CodeBg    string `mapstructure:"code_bg" yaml:"code_bg,omitempty"`     // code block background
}

// StreamConfig controls how replayed files are chunked
type StreamConfig struct {
	ChunkSize int           `mapstructure:"chunk_size" yaml:"chunk_size,omitempty"` // runes per chunk
	Delay     time.Duration `mapstructure:"delay" yaml:"delay,omitempty"`           // pause between chunks
}

// StyleConfig overrides one named style. Unset fields keep the preset value.
type StyleConfig struct {
	Bold      *bool    `mapstructure:"bold" yaml:"bold,omitempty"`
	Italic    *bool    `mapstructure:"italic" yaml:"italic,omitempty"`
	Underline *bool    `mapstructure:"underline" yaml:"underline,omitempty"`
	Size      *float64 `mapstructure:"size" yaml:"size,omitempty"`
	Fg        *string  `mapstructure:"fg" yaml:"fg,omitempty"`
	Bg        *string  `mapstructure:"bg" yaml:"bg,omitempty"`
}

// RecordConfig controls stream recordings used by "mdstream sessions"
type RecordConfig struct {
	Enabled   bool          `mapstructure:"enabled" yaml:"enabled,omitempty"`     // record every ask
	Dir       string        `mapstructure:"dir" yaml:"dir,omitempty"`             // default $XDG_STATE_HOME/mdstream/streams
	Retention time.Duration `mapstructure:"retention" yaml:"retention,omitempty"` // older recordings are removed
}

type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level,omitempty"` // debug, info, warn, error
}

// Load reads config.yaml from the config directory or the working
// directory. A missing file is not an error.
func Load() (*Config, error) {
	configPath, err := GetConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get config dir: %w", err)
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configPath)
	viper.AddConfigPath(".")

	return load(viper.GetViper())
}

// LoadFile reads the config at path. Unlike Load, the file must exist.
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	return load(v)
}

func load(v *viper.Viper) (*Config, error) {
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	resolveCredentials(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("provider", "anthropic")
	v.SetDefault("anthropic.model", "claude-sonnet-4-5")
	v.SetDefault("anthropic.max_tokens", 4096)
	v.SetDefault("openai.model", "gpt-5.2")
	v.SetDefault("gemini.model", "gemini-3-flash-preview")
	v.SetDefault("render.preset", "gruvbox")
	v.SetDefault("render.color", "auto")
	v.SetDefault("render.highlight_style", "monokai")
	v.SetDefault("stream.chunk_size", 4)
	v.SetDefault("stream.delay", 15*time.Millisecond)
	v.SetDefault("record.retention", 7*24*time.Hour)
	v.SetDefault("log.level", "warn")
}

// Validate reports settings that cannot be used.
func (c *Config) Validate() error {
	if c.Render.Width < 0 {
		return fmt.Errorf("render.width must not be negative, got %d", c.Render.Width)
	}
	if c.Stream.ChunkSize < 0 {
		return fmt.Errorf("stream.chunk_size must not be negative, got %d", c.Stream.ChunkSize)
	}
	if c.Record.Retention < 0 {
		return fmt.Errorf("record.retention must not be negative, got %s", c.Record.Retention)
	}
	if c.Stream.Delay < 0 {
		return fmt.Errorf("stream.delay must not be negative, got %s", c.Stream.Delay)
	}
	switch strings.ToLower(c.Render.Color) {
	case "", "auto", "none", "ascii", "ansi", "ansi256", "truecolor":
	default:
		return fmt.Errorf("render.color: unknown value %q", c.Render.Color)
	}
	if _, err := c.LogLevel(); err != nil {
		return err
	}
	return nil
}

// LogLevel parses log.level. Empty means warn.
func (c *Config) LogLevel() (slog.Level, error) {
	if c.Log.Level == "" {
		return slog.LevelWarn, nil
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}

// ApplyOverrides applies provider and model overrides to the config.
// If provider is non-empty, it overrides the global provider.
// If model is non-empty, it overrides the model for the active provider.
func (c *Config) ApplyOverrides(provider, model string) {
	if provider != "" {
		c.Provider = provider
	}
	if model != "" {
		switch c.Provider {
		case "anthropic":
			c.Anthropic.Model = model
		case "openai":
			c.OpenAI.Model = model
		case "gemini":
			c.Gemini.Model = model
		}
	}
}

// ActiveModel returns the model configured for the active provider.
func (c *Config) ActiveModel() string {
	switch c.Provider {
	case "anthropic":
		return c.Anthropic.Model
	case "openai":
		return c.OpenAI.Model
	case "gemini":
		return c.Gemini.Model
	}
	return ""
}

// resolveCredentials expands API keys and falls back to the provider's
// environment variable
func resolveCredentials(cfg *Config) {
	cfg.Anthropic.APIKey = resolveKey(cfg.Anthropic.APIKey, "ANTHROPIC_API_KEY")
	cfg.OpenAI.APIKey = resolveKey(cfg.OpenAI.APIKey, "OPENAI_API_KEY")
	cfg.OpenAI.BaseURL = expandEnv(cfg.OpenAI.BaseURL)
	cfg.Gemini.APIKey = resolveKey(cfg.Gemini.APIKey, "GEMINI_API_KEY")
}

func resolveKey(value, envVar string) string {
	value = expandEnv(value)
	if value == "" {
		value = os.Getenv(envVar)
	}
	return value
}

// expandEnv expands ${VAR} or $VAR in a string
func expandEnv(s string) string {
	if strings.HasPrefix(s, "${") && strings.HasSuffix(s, "}") {
		varName := s[2 : len(s)-1]
		return os.Getenv(varName)
	}
	if strings.HasPrefix(s, "$") {
		return os.Getenv(s[1:])
	}
	return s
}

// GetConfigDir returns the XDG config directory for mdstream.
// Uses $XDG_CONFIG_HOME if set, otherwise ~/.config
func GetConfigDir() (string, error) {
	if xdgHome := os.Getenv("XDG_CONFIG_HOME"); xdgHome != "" {
		return filepath.Join(xdgHome, "mdstream"), nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".config", "mdstream"), nil
}

// RecordDir returns where stream recordings are kept. Uses record.dir,
// then $XDG_STATE_HOME, then ~/.local/state.
func (c *Config) RecordDir() (string, error) {
	if c.Record.Dir != "" {
		return expandHome(expandEnv(c.Record.Dir))
	}
	if stateHome := os.Getenv("XDG_STATE_HOME"); stateHome != "" {
		return filepath.Join(stateHome, "mdstream", "streams"), nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".local", "state", "mdstream", "streams"), nil
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, path[1:]), nil
}

// GetConfigPath returns the path where the config file should be located
func GetConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.yaml"), nil
}

// Exists returns true if a config file exists
func Exists() bool {
	path, err := GetConfigPath()
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}

// Save writes a commented starter config to disk
func Save(cfg *Config) error {
	path, err := GetConfigPath()
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	content := fmt.Sprintf(`provider: %s

ask:
  # Custom system prompt for the ask command
  # instructions: |
  #   Answer in markdown.

anthropic:
  model: %s
  # api_key: ${ANTHROPIC_API_KEY}

openai:
  model: %s

gemini:
  model: %s

render:
  preset: %s
  color: %s
  highlight_style: %s
  # width: 100

stream:
  chunk_size: %d
  delay: %s

record:
  # Keep every ask stream for "mdstream sessions"
  enabled: false
  retention: %s

# Per-style overrides, e.g.
# styles:
#   h1:
#     fg: "#ff8700"
#     underline: true

log:
  level: %s
`, cfg.Provider, cfg.Anthropic.Model, cfg.OpenAI.Model, cfg.Gemini.Model,
		cfg.Render.Preset, cfg.Render.Color, cfg.Render.HighlightStyle,
		cfg.Stream.ChunkSize, cfg.Stream.Delay, cfg.Record.Retention, cfg.Log.Level)

	return os.WriteFile(path, []byte(content), 0600)
}

// Defaults returns a config holding only default values.
func Defaults() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	// defaults are plain values, decoding cannot fail
	_ = v.Unmarshal(&cfg)
	return &cfg
}
