// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/jeranaias/agentroom/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// DEFAULTS AND VALIDATION
// =============================================================================

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 4, cfg.Conversation.MaxExchanges)
	assert.Equal(t, "agents", cfg.UI.DefaultTab)
	assert.Equal(t, model.AllCapabilities, cfg.Features.Capabilities())
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := Default()
	cfg.Backend.BaseURL = "not a url"
	cfg.Stream.MaxRetries = 0
	cfg.Conversation.MaxExchanges = 0
	cfg.Conversation.Precedence = []string{"request-exchange", "request-exchange"}

	err := cfg.Validate()
	require.Error(t, err)

	var verrs ValidateErrors
	require.True(t, errors.As(err, &verrs))

	fields := make(map[string]bool)
	for _, v := range verrs {
		fields[v.Field] = true
	}
	assert.True(t, fields["backend.base_url"])
	assert.True(t, fields["stream.max_retries"])
	assert.True(t, fields["conversation.max_exchanges"])
	assert.True(t, fields["conversation.precedence"])
}

func TestValidate_RejectsNoFeatures(t *testing.T) {
	cfg := Default()
	cfg.Features.SetCapabilities(0)
	assert.Error(t, cfg.Validate())
}

func TestSetDefaults_TrimsBaseURL(t *testing.T) {
	cfg := &Config{Backend: BackendConfig{BaseURL: "http://example.com:8080/"}}
	cfg.SetDefaults()
	assert.Equal(t, "http://example.com:8080", cfg.Backend.BaseURL)
	assert.Equal(t, 30, cfg.Backend.TimeoutSecs)
	assert.Equal(t, 6, cfg.Stream.MaxRetries)
}

func TestMigrate(t *testing.T) {
	cfg := &Config{}
	require.NoError(t, cfg.Migrate())
	assert.Equal(t, CurrentVersion, cfg.Version)

	cfg.Version = "99"
	assert.Error(t, cfg.Migrate())
}

// =============================================================================
// LOAD / SAVE
// =============================================================================

func TestLoadFromPath_TOMLKeepsUnsetDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	data := `
[backend]
base_url = "http://10.0.0.5:9000"

[conversation]
max_exchanges = 8
precedence = ["request-full-conversation", "request-exchange"]

[features]
video = false
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0600))

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)

	assert.Equal(t, "http://10.0.0.5:9000", cfg.Backend.BaseURL)
	assert.Equal(t, 8, cfg.Conversation.MaxExchanges)
	assert.Equal(t, []string{"request-full-conversation", "request-exchange"}, cfg.Conversation.Precedence)
	assert.False(t, cfg.Features.Video)
	assert.True(t, cfg.Features.Health, "unset booleans keep their defaults")
	assert.Equal(t, 30000, cfg.Stream.MaxBackoffMs)
}

func TestLoadFromPath_JSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"stream":{"max_retries":3}}`), 0600))

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Stream.MaxRetries)
}

func TestLoadFromPath_InvalidTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[backend\nbase_url ="), 0600))

	_, err := LoadFromPath(path)
	assert.Error(t, err)
}

func TestSaveTOML_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	cfg := Default()
	cfg.Conversation.MaxExchanges = 7
	cfg.UI.RenderMarkdown = false

	require.NoError(t, SaveTOML(cfg, path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, 7, loaded.Conversation.MaxExchanges)
	assert.False(t, loaded.UI.RenderMarkdown)
}

func TestSaveJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, SaveJSON(Default(), path))

	loaded, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, Default().Backend.BaseURL, loaded.Backend.BaseURL)
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("AGENTROOM_BACKEND_URL", "http://override:1234")
	t.Setenv("AGENTROOM_MAX_EXCHANGES", "9")
	t.Setenv("AGENTROOM_FEATURES", "agents,thought_stream")
	t.Setenv("AGENTROOM_STREAM", "false")
	t.Setenv("AGENTROOM_PRECEDENCE", " request-exchange , request-help ")
	t.Setenv("AGENTROOM_PORT", "not-a-number")

	cfg := Default()
	cfg.ApplyEnvOverrides()

	assert.Equal(t, "http://override:1234", cfg.Backend.BaseURL)
	assert.Equal(t, 9, cfg.Conversation.MaxExchanges)
	assert.True(t, cfg.Features.Agents)
	assert.False(t, cfg.Features.Health)
	assert.False(t, cfg.Features.ThoughtStream, "AGENTROOM_STREAM applies after AGENTROOM_FEATURES")
	assert.Equal(t, []string{"request-exchange", "request-help"}, cfg.Conversation.Precedence)
	assert.Equal(t, 5001, cfg.Server.Port, "unparsable values are ignored")
}

// =============================================================================
// DOT NOTATION
// =============================================================================

func TestGetSet(t *testing.T) {
	cfg := Default()

	v, err := cfg.Get("stream.max_retries")
	require.NoError(t, err)
	assert.Equal(t, 6, v)

	require.NoError(t, cfg.Set("stream.max_retries", "10"))
	require.NoError(t, cfg.Set("ui.render_markdown", "false"))
	require.NoError(t, cfg.Set("conversation.precedence", "request-help,request-status"))
	require.NoError(t, cfg.Set("stream.backoff_multiplier", "1.5"))

	assert.Equal(t, 10, cfg.Stream.MaxRetries)
	assert.False(t, cfg.UI.RenderMarkdown)
	assert.Equal(t, []string{"request-help", "request-status"}, cfg.Conversation.Precedence)
	assert.Equal(t, 1.5, cfg.Stream.BackoffMultiplier)

	_, err = cfg.Get("stream.nope")
	assert.ErrorIs(t, err, ErrUnknownKey)
	_, err = cfg.Get("stream")
	assert.ErrorIs(t, err, ErrUnknownKey)
	assert.Error(t, cfg.Set("stream.max_retries", "many"))
}

func TestKeys(t *testing.T) {
	keys := Keys()
	assert.Contains(t, keys, "backend.base_url")
	assert.Contains(t, keys, "features.thought_stream")
	assert.Contains(t, keys, "version")
	assert.NotContains(t, keys, "backend")
}

func TestClone_IsDeep(t *testing.T) {
	cfg := Default()
	cfg.Conversation.Precedence = []string{"request-help"}
	clone := cfg.Clone()
	clone.Conversation.Precedence[0] = "changed"
	clone.Server.CORSOrigins[0] = "http://x"

	assert.Equal(t, "request-help", cfg.Conversation.Precedence[0])
	assert.Equal(t, "*", cfg.Server.CORSOrigins[0])
}

// =============================================================================
// GLOBAL SINGLETON
// =============================================================================

// TestConfig_ConcurrentAccess tests that Global and SetGlobal can be called
// concurrently. Run with: go test -race ./internal/config/
func TestConfig_ConcurrentAccess(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	ResetGlobalForTesting()
	defer ResetGlobalForTesting()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			SetGlobal(Default())
		}()
		go func() {
			defer wg.Done()
			if Global() == nil {
				t.Error("Global() returned nil")
			}
		}()
	}
	wg.Wait()
}

// =============================================================================
// WATCHER
// =============================================================================

func TestWatcher_ReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, SaveTOML(Default(), path))

	reloaded := make(chan *Config, 4)
	w, err := NewWatcher(path, 20*time.Millisecond, func(cfg *Config, err error) {
		if err == nil {
			reloaded <- cfg
		}
	})
	require.NoError(t, err)
	require.NoError(t, w.Start(t.Context()))
	defer w.Close()

	cfg := Default()
	cfg.Conversation.MaxExchanges = 12
	require.NoError(t, SaveTOML(cfg, path))

	select {
	case got := <-reloaded:
		assert.Equal(t, 12, got.Conversation.MaxExchanges)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for reload")
	}
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, SaveTOML(Default(), path))

	reloaded := make(chan struct{}, 1)
	w, err := NewWatcher(path, 10*time.Millisecond, func(*Config, error) {
		reloaded <- struct{}{}
	})
	require.NoError(t, err)
	require.NoError(t, w.Start(t.Context()))
	defer w.Close()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "chat_history"), []byte("x"), 0600))

	select {
	case <-reloaded:
		t.Fatal("unexpected reload for unrelated file")
	case <-time.After(200 * time.Millisecond):
	}
}
