// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/jeranaias/agentroom/internal/model"
	"github.com/jeranaias/agentroom/internal/util"
)

// CurrentVersion is the config schema version written by Save.
const CurrentVersion = "1"

// ErrUnknownKey is returned by Get and Set for keys that do not exist.
var ErrUnknownKey = errors.New("unknown config key")

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete agentroom configuration.
type Config struct {
	Version string `toml:"version" json:"version"`

	Backend      BackendConfig      `toml:"backend" json:"backend"`
	Stream       StreamConfig       `toml:"stream" json:"stream"`
	Conversation ConversationConfig `toml:"conversation" json:"conversation"`
	UI           UIConfig           `toml:"ui" json:"ui"`
	Features     FeaturesConfig     `toml:"features" json:"features"`
	Server       ServerConfig       `toml:"server" json:"server"`
	Scenarios    ScenariosConfig    `toml:"scenarios" json:"scenarios"`
}

// BackendConfig points the client at the conversation backend.
type BackendConfig struct {
	// BaseURL prefixes every endpoint path (e.g. http://127.0.0.1:5001).
	BaseURL string `toml:"base_url" json:"base_url"`

	TimeoutSecs      int   `toml:"timeout_secs" json:"timeout_secs"`
	MaxResponseBytes int64 `toml:"max_response_bytes" json:"max_response_bytes"`
}

// StreamConfig controls the thought stream consumer.
type StreamConfig struct {
	Path              string  `toml:"path" json:"path"`
	InitialBackoffMs  int     `toml:"initial_backoff_ms" json:"initial_backoff_ms"`
	MaxBackoffMs      int     `toml:"max_backoff_ms" json:"max_backoff_ms"`
	BackoffMultiplier float64 `toml:"backoff_multiplier" json:"backoff_multiplier"`

	// MaxRetries is the number of consecutive failed attempts before the
	// stream gives up and reports offline.
	MaxRetries int `toml:"max_retries" json:"max_retries"`

	// LogCapacity bounds the visible thought log.
	LogCapacity int `toml:"log_capacity" json:"log_capacity"`
}

// ConversationConfig holds the per-session conversation policy.
type ConversationConfig struct {
	MaxExchanges int `toml:"max_exchanges" json:"max_exchanges"`

	// Precedence lists classifier intents that are checked first, in order.
	// Unlisted intents keep their default relative order. Empty means the
	// default order.
	Precedence []string `toml:"precedence" json:"precedence"`

	LogCapacity int `toml:"log_capacity" json:"log_capacity"`
}

// UIConfig contains TUI settings.
type UIConfig struct {
	DefaultTab           string `toml:"default_tab" json:"default_tab"`
	RenderMarkdown       bool   `toml:"render_markdown" json:"render_markdown"`
	ShowTimestamps       bool   `toml:"show_timestamps" json:"show_timestamps"`
	PersonalityPreview   int    `toml:"personality_preview" json:"personality_preview"`
	AgentThoughtCapacity int    `toml:"agent_thought_capacity" json:"agent_thought_capacity"`
}

// FeaturesConfig is the capability flag set. Each flag enables one demo
// surface of the single controller.
type FeaturesConfig struct {
	Agents           bool `toml:"agents" json:"agents"`
	Health           bool `toml:"health" json:"health"`
	Neural           bool `toml:"neural" json:"neural"`
	Video            bool `toml:"video" json:"video"`
	ThoughtStream    bool `toml:"thought_stream" json:"thought_stream"`
	FullConversation bool `toml:"full_conversation" json:"full_conversation"`
	LearningStats    bool `toml:"learning_stats" json:"learning_stats"`
}

// ServerConfig configures `agentroom serve`, the demo backend.
type ServerConfig struct {
	Host            string   `toml:"host" json:"host"`
	Port            int      `toml:"port" json:"port"`
	RateLimitRPS    float64  `toml:"rate_limit_rps" json:"rate_limit_rps"`
	RateLimitBurst  int      `toml:"rate_limit_burst" json:"rate_limit_burst"`
	CORSOrigins     []string `toml:"cors_origins" json:"cors_origins"`
	ThoughtCapacity int      `toml:"thought_capacity" json:"thought_capacity"`
	MaxExchanges    int      `toml:"max_exchanges" json:"max_exchanges"`
	SimulateLatency bool     `toml:"simulate_latency" json:"simulate_latency"`
}

// ScenariosConfig points at an optional YAML file of demo scenarios.
type ScenariosConfig struct {
	File string `toml:"file" json:"file"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

// Default returns a Config populated with built-in defaults.
func Default() *Config {
	return &Config{
		Version: CurrentVersion,
		Backend: BackendConfig{
			BaseURL:          "http://127.0.0.1:5001",
			TimeoutSecs:      30,
			MaxResponseBytes: 10 * 1024 * 1024,
		},
		Stream: StreamConfig{
			Path:              "/api/thoughts/stream",
			InitialBackoffMs:  1000,
			MaxBackoffMs:      30000,
			BackoffMultiplier: 2.0,
			MaxRetries:        6,
			LogCapacity:       200,
		},
		Conversation: ConversationConfig{
			MaxExchanges: 4,
			LogCapacity:  500,
		},
		UI: UIConfig{
			DefaultTab:           "agents",
			RenderMarkdown:       true,
			ShowTimestamps:       true,
			PersonalityPreview:   100,
			AgentThoughtCapacity: 8,
		},
		Features: FeaturesConfig{
			Agents:           true,
			Health:           true,
			Neural:           true,
			Video:            true,
			ThoughtStream:    true,
			FullConversation: true,
			LearningStats:    true,
		},
		Server: ServerConfig{
			Host:            "127.0.0.1",
			Port:            5001,
			RateLimitRPS:    20,
			RateLimitBurst:  40,
			CORSOrigins:     []string{"*"},
			ThoughtCapacity: 100,
			MaxExchanges:    6,
			SimulateLatency: true,
		},
	}
}

// Timeout returns the backend request timeout as a duration.
func (b BackendConfig) Timeout() time.Duration {
	return time.Duration(b.TimeoutSecs) * time.Second
}

// InitialBackoff returns the first reconnect delay.
func (s StreamConfig) InitialBackoff() time.Duration {
	return time.Duration(s.InitialBackoffMs) * time.Millisecond
}

// MaxBackoff returns the reconnect delay ceiling.
func (s StreamConfig) MaxBackoff() time.Duration {
	return time.Duration(s.MaxBackoffMs) * time.Millisecond
}

// Capabilities converts the feature flags to a capability set.
func (f FeaturesConfig) Capabilities() model.Capabilities {
	var caps model.Capabilities
	set := func(on bool, c model.Capabilities) {
		if on {
			caps = caps.With(c)
		}
	}
	set(f.Agents, model.CapAgents)
	set(f.Health, model.CapHealth)
	set(f.Neural, model.CapNeural)
	set(f.Video, model.CapVideo)
	set(f.ThoughtStream, model.CapThoughtStream)
	set(f.FullConversation, model.CapFullConversation)
	set(f.LearningStats, model.CapLearningStats)
	return caps
}

// SetCapabilities replaces the feature flags with the given set.
func (f *FeaturesConfig) SetCapabilities(caps model.Capabilities) {
	f.Agents = caps.Has(model.CapAgents)
	f.Health = caps.Has(model.CapHealth)
	f.Neural = caps.Has(model.CapNeural)
	f.Video = caps.Has(model.CapVideo)
	f.ThoughtStream = caps.Has(model.CapThoughtStream)
	f.FullConversation = caps.Has(model.CapFullConversation)
	f.LearningStats = caps.Has(model.CapLearningStats)
}

// ListenAddr returns host:port for the demo backend.
func (s ServerConfig) ListenAddr() string {
	return s.Host + ":" + strconv.Itoa(s.Port)
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the agentroom configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".agentroom"), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ConfigPathJSON returns the path to the JSON config file.
func ConfigPathJSON() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0700)
}

// ActivePath returns the config file Load would read: the TOML file if it
// exists, else the JSON file if it exists, else the TOML path.
func ActivePath() (string, error) {
	tomlPath, err := ConfigPathTOML()
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(tomlPath); err == nil {
		return tomlPath, nil
	}
	jsonPath, err := ConfigPathJSON()
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(jsonPath); err == nil {
		return jsonPath, nil
	}
	return tomlPath, nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from the config directory.
// Tries TOML first, then JSON, and falls back to defaults. A file that fails
// to decode is reported alongside the defaults rather than aborting startup.
func Load() (*Config, error) {
	var loadErr error

	for _, pathFn := range []func() (string, error){ConfigPathTOML, ConfigPathJSON} {
		path, err := pathFn()
		if err != nil {
			continue
		}
		if _, statErr := os.Stat(path); statErr != nil {
			continue
		}
		cfg, err := LoadFromPath(path)
		if err == nil {
			return cfg, nil
		}
		var verrs ValidateErrors
		if errors.As(err, &verrs) {
			return nil, err
		}
		loadErr = err
		break
	}

	cfg := Default()
	if err := cfg.finish(); err != nil {
		return nil, err
	}
	return cfg, loadErr
}

// LoadFromPath loads configuration from a specific file. Files ending in
// .json are decoded as JSON, anything else as TOML.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	if strings.HasSuffix(strings.ToLower(path), ".json") {
		if err := LoadJSON(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load JSON config from %s: %w", path, err)
		}
	} else {
		if err := LoadTOML(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load TOML config from %s: %w", path, err)
		}
	}

	if err := cfg.finish(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadTOML decodes a TOML file over cfg. Keys missing from the file keep
// their current values.
func LoadTOML(cfg *Config, path string) error {
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	return nil
}

// LoadJSON decodes a JSON file over cfg.
func LoadJSON(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read JSON file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode JSON file: %w", err)
	}
	return nil
}

// finish runs the post-load pipeline shared by every load path.
func (c *Config) finish() error {
	c.ApplyEnvOverrides()
	if err := c.Migrate(); err != nil {
		return fmt.Errorf("config migration failed: %w", err)
	}
	c.SetDefaults()
	if err := c.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save saves the configuration to the default TOML file.
func Save(cfg *Config) error {
	path, err := ConfigPathTOML()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML writes the configuration as TOML with 0600 permissions.
func SaveTOML(cfg *Config, path string) error {
	var b strings.Builder
	b.WriteString("# agentroom configuration file\n")
	b.WriteString("# Environment variables (AGENTROOM_*) override these values.\n\n")

	if err := toml.NewEncoder(&b).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, []byte(b.String()), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// SaveJSON writes the configuration as indented JSON with 0600 permissions.
func SaveJSON(cfg *Config, path string) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate checks the configuration and returns ValidateErrors describing
// every problem found, or nil.
func (c *Config) Validate() error {
	var errs ValidateErrors
	add := func(field, msg string) {
		errs = append(errs, ValidationError{Field: field, Message: msg})
	}

	if u, err := url.Parse(c.Backend.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		add("backend.base_url", fmt.Sprintf("must be an absolute URL, got %q", c.Backend.BaseURL))
	} else if u.Scheme != "http" && u.Scheme != "https" {
		add("backend.base_url", "scheme must be http or https")
	}
	if c.Backend.TimeoutSecs < 1 || c.Backend.TimeoutSecs > 600 {
		add("backend.timeout_secs", "must be between 1 and 600")
	}
	if c.Backend.MaxResponseBytes < 1024 {
		add("backend.max_response_bytes", "must be at least 1024")
	}

	if !strings.HasPrefix(c.Stream.Path, "/") {
		add("stream.path", "must start with /")
	}
	if c.Stream.InitialBackoffMs < 10 {
		add("stream.initial_backoff_ms", "must be at least 10")
	}
	if c.Stream.MaxBackoffMs < c.Stream.InitialBackoffMs {
		add("stream.max_backoff_ms", "must not be less than initial_backoff_ms")
	}
	if c.Stream.BackoffMultiplier < 1 {
		add("stream.backoff_multiplier", "must be at least 1.0")
	}
	if c.Stream.MaxRetries < 1 {
		add("stream.max_retries", "must be at least 1")
	}
	if c.Stream.LogCapacity < 1 {
		add("stream.log_capacity", "must be positive")
	}

	if c.Conversation.MaxExchanges < 1 || c.Conversation.MaxExchanges > 100 {
		add("conversation.max_exchanges", "must be between 1 and 100")
	}
	seen := make(map[string]bool, len(c.Conversation.Precedence))
	for _, p := range c.Conversation.Precedence {
		if strings.TrimSpace(p) == "" {
			add("conversation.precedence", "entries must not be empty")
			continue
		}
		if seen[p] {
			add("conversation.precedence", fmt.Sprintf("duplicate entry %q", p))
		}
		seen[p] = true
	}
	if c.Conversation.LogCapacity < 1 {
		add("conversation.log_capacity", "must be positive")
	}

	if c.UI.PersonalityPreview < 10 {
		add("ui.personality_preview", "must be at least 10")
	}
	if c.UI.AgentThoughtCapacity < 1 {
		add("ui.agent_thought_capacity", "must be positive")
	}
	if c.Features.Capabilities() == 0 {
		add("features", "at least one feature must be enabled")
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		add("server.port", "must be between 1 and 65535")
	}
	if c.Server.RateLimitRPS <= 0 {
		add("server.rate_limit_rps", "must be positive")
	}
	if c.Server.RateLimitBurst < 1 {
		add("server.rate_limit_burst", "must be at least 1")
	}
	if c.Server.ThoughtCapacity < 1 {
		add("server.thought_capacity", "must be positive")
	}
	if c.Server.MaxExchanges < 1 {
		add("server.max_exchanges", "must be positive")
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// SetDefaults fills zero values with defaults. Booleans are left alone
// because false is a meaningful setting.
func (c *Config) SetDefaults() {
	d := Default()

	if c.Version == "" {
		c.Version = d.Version
	}
	c.Backend.BaseURL = strings.TrimSuffix(c.Backend.BaseURL, "/")
	if c.Backend.BaseURL == "" {
		c.Backend.BaseURL = d.Backend.BaseURL
	}
	if c.Backend.TimeoutSecs == 0 {
		c.Backend.TimeoutSecs = d.Backend.TimeoutSecs
	}
	if c.Backend.MaxResponseBytes == 0 {
		c.Backend.MaxResponseBytes = d.Backend.MaxResponseBytes
	}

	if c.Stream.Path == "" {
		c.Stream.Path = d.Stream.Path
	}
	if c.Stream.InitialBackoffMs == 0 {
		c.Stream.InitialBackoffMs = d.Stream.InitialBackoffMs
	}
	if c.Stream.MaxBackoffMs == 0 {
		c.Stream.MaxBackoffMs = d.Stream.MaxBackoffMs
	}
	if c.Stream.BackoffMultiplier == 0 {
		c.Stream.BackoffMultiplier = d.Stream.BackoffMultiplier
	}
	if c.Stream.MaxRetries == 0 {
		c.Stream.MaxRetries = d.Stream.MaxRetries
	}
	if c.Stream.LogCapacity == 0 {
		c.Stream.LogCapacity = d.Stream.LogCapacity
	}

	if c.Conversation.MaxExchanges == 0 {
		c.Conversation.MaxExchanges = d.Conversation.MaxExchanges
	}
	if c.Conversation.LogCapacity == 0 {
		c.Conversation.LogCapacity = d.Conversation.LogCapacity
	}

	if c.UI.DefaultTab == "" {
		c.UI.DefaultTab = d.UI.DefaultTab
	}
	if c.UI.PersonalityPreview == 0 {
		c.UI.PersonalityPreview = d.UI.PersonalityPreview
	}
	if c.UI.AgentThoughtCapacity == 0 {
		c.UI.AgentThoughtCapacity = d.UI.AgentThoughtCapacity
	}

	if c.Server.Host == "" {
		c.Server.Host = d.Server.Host
	}
	if c.Server.Port == 0 {
		c.Server.Port = d.Server.Port
	}
	if c.Server.RateLimitRPS == 0 {
		c.Server.RateLimitRPS = d.Server.RateLimitRPS
	}
	if c.Server.RateLimitBurst == 0 {
		c.Server.RateLimitBurst = d.Server.RateLimitBurst
	}
	if len(c.Server.CORSOrigins) == 0 {
		c.Server.CORSOrigins = d.Server.CORSOrigins
	}
	if c.Server.ThoughtCapacity == 0 {
		c.Server.ThoughtCapacity = d.Server.ThoughtCapacity
	}
	if c.Server.MaxExchanges == 0 {
		c.Server.MaxExchanges = d.Server.MaxExchanges
	}
}

// Migrate upgrades older config files. Unversioned files are treated as
// version 1.
func (c *Config) Migrate() error {
	switch c.Version {
	case "", CurrentVersion:
		c.Version = CurrentVersion
		return nil
	default:
		return fmt.Errorf("unsupported config version %q", c.Version)
	}
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - AGENTROOM_BACKEND_URL: overrides backend.base_url
//   - AGENTROOM_TIMEOUT: overrides backend.timeout_secs
//   - AGENTROOM_MAX_EXCHANGES: overrides conversation.max_exchanges
//   - AGENTROOM_STREAM: "1"/"true" enables the thought stream, anything else disables it
//   - AGENTROOM_FEATURES: comma separated capability list, replaces [features]
//   - AGENTROOM_PRECEDENCE: comma separated intent list
//   - AGENTROOM_PORT: overrides server.port
//   - AGENTROOM_SCENARIOS: overrides scenarios.file
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("AGENTROOM_BACKEND_URL"); v != "" {
		c.Backend.BaseURL = v
	}
	if v := os.Getenv("AGENTROOM_TIMEOUT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Backend.TimeoutSecs = n
		}
	}
	if v := os.Getenv("AGENTROOM_MAX_EXCHANGES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Conversation.MaxExchanges = n
		}
	}
	if v := os.Getenv("AGENTROOM_FEATURES"); v != "" {
		if caps, err := model.ParseCapabilities(v); err == nil {
			c.Features.SetCapabilities(caps)
		}
	}
	if v := os.Getenv("AGENTROOM_STREAM"); v != "" {
		c.Features.ThoughtStream = v == "1" || strings.ToLower(v) == "true"
	}
	if v := os.Getenv("AGENTROOM_PRECEDENCE"); v != "" {
		c.Conversation.Precedence = splitList(v)
	}
	if v := os.Getenv("AGENTROOM_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Server.Port = n
		}
	}
	if v := os.Getenv("AGENTROOM_SCENARIOS"); v != "" {
		c.Scenarios.File = v
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// =============================================================================
// GET/SET HELPERS (DOT NOTATION)
// =============================================================================

// Get retrieves a value by its dotted TOML key, e.g. "stream.max_retries".
func (c *Config) Get(key string) (interface{}, error) {
	field, err := c.lookup(key)
	if err != nil {
		return nil, err
	}
	return field.Interface(), nil
}

// Set assigns a value by its dotted TOML key. String input is converted to
// the field's type; list fields take a comma separated string.
func (c *Config) Set(key string, value string) error {
	field, err := c.lookup(key)
	if err != nil {
		return err
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Int, reflect.Int64:
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmt.Errorf("%s: invalid integer %q", key, value)
		}
		field.SetInt(n)
	case reflect.Float64:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("%s: invalid number %q", key, value)
		}
		field.SetFloat(f)
	case reflect.Bool:
		v := strings.ToLower(value)
		field.SetBool(v == "1" || v == "true" || v == "yes")
	case reflect.Slice:
		field.Set(reflect.ValueOf(splitList(value)))
	default:
		return fmt.Errorf("%s: unsupported field type %s", key, field.Type())
	}
	return nil
}

// lookup walks the struct by toml tag names.
func (c *Config) lookup(key string) (reflect.Value, error) {
	parts := strings.Split(key, ".")
	v := reflect.ValueOf(c).Elem()
	for i, part := range parts {
		if v.Kind() != reflect.Struct {
			return reflect.Value{}, fmt.Errorf("%w: %s", ErrUnknownKey, strings.Join(parts[:i+1], "."))
		}
		found := false
		t := v.Type()
		for j := 0; j < t.NumField(); j++ {
			if tagName(t.Field(j)) == part {
				v = v.Field(j)
				found = true
				break
			}
		}
		if !found {
			return reflect.Value{}, fmt.Errorf("%w: %s", ErrUnknownKey, strings.Join(parts[:i+1], "."))
		}
	}
	if v.Kind() == reflect.Struct {
		return reflect.Value{}, fmt.Errorf("%w: %s is a section", ErrUnknownKey, key)
	}
	return v, nil
}

func tagName(f reflect.StructField) string {
	tag := f.Tag.Get("toml")
	if idx := strings.Index(tag, ","); idx >= 0 {
		tag = tag[:idx]
	}
	return tag
}

// Keys returns every settable dotted key.
func Keys() []string {
	var keys []string
	var walk func(t reflect.Type, prefix string)
	walk = func(t reflect.Type, prefix string) {
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			name := prefix + tagName(f)
			if f.Type.Kind() == reflect.Struct {
				walk(f.Type, name+".")
				continue
			}
			keys = append(keys, name)
		}
	}
	walk(reflect.TypeOf(Config{}), "")
	return keys
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	clone.Conversation.Precedence = append([]string(nil), c.Conversation.Precedence...)
	clone.Server.CORSOrigins = append([]string(nil), c.Server.CORSOrigins...)
	return &clone
}

// String renders the configuration as TOML.
func (c *Config) String() string {
	var b strings.Builder
	if err := toml.NewEncoder(&b).Encode(c); err != nil {
		return fmt.Sprintf("<config: %v>", err)
	}
	return b.String()
}

// =============================================================================
// SINGLETON PATTERN (THREAD-SAFE)
// =============================================================================

var (
	globalConfig     *Config
	globalConfigOnce sync.Once
	globalConfigMu   sync.RWMutex
)

// Global returns the process-wide configuration, loading it on first use.
func Global() *Config {
	globalConfigOnce.Do(func() {
		cfg, err := Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
		}
		if cfg == nil {
			cfg = Default()
			_ = cfg.finish()
		}
		globalConfigMu.Lock()
		if globalConfig == nil {
			globalConfig = cfg
		}
		globalConfigMu.Unlock()
	})

	globalConfigMu.RLock()
	defer globalConfigMu.RUnlock()
	return globalConfig
}

// ReloadGlobal reloads the global configuration from disk.
func ReloadGlobal() error {
	cfg, err := Load()
	if err != nil {
		return err
	}
	SetGlobal(cfg)
	return nil
}

// SetGlobal replaces the global configuration.
func SetGlobal(cfg *Config) {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
}

// ResetGlobalForTesting clears global state between tests.
func ResetGlobalForTesting() {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = nil
	globalConfigOnce = sync.Once{}
}
