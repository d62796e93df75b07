package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("ASHBY_API_KEY", "")

	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, DefaultServerPort, cfg.Server.Port)
	assert.Equal(t, DefaultServerLogLevel, cfg.Server.LogLevel)
	assert.Equal(t, DefaultModelName, cfg.Model.Name)
	assert.Equal(t, DefaultAgentMaxTurns, cfg.Agent.MaxTurns)
	assert.Equal(t, DefaultAgentResultCharLimit, cfg.Agent.ResultCharLimit)
	assert.Equal(t, DefaultSafetyMode, cfg.Safety.Mode)
	assert.Equal(t, DefaultSessionsConfirmationTTL, cfg.Sessions.ConfirmationTTL)
	assert.Equal(t, DefaultSessionsSweepSchedule, cfg.Sessions.SweepSchedule)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("STAGEHAND_SERVER_PORT", "8088")
	t.Setenv("STAGEHAND_SAFETY_MODE", "confirm_all")

	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, 8088, cfg.Server.Port)
	assert.Equal(t, "confirm_all", cfg.Safety.Mode)
}

func TestLoadConfigFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	dir := filepath.Join(home, ".stagehand")
	require.NoError(t, os.MkdirAll(dir, 0755))
	yaml := "server:\n  port: 9100\nsessions:\n  triage_ttl: 45m\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, "45m", cfg.Sessions.TriageTTL)
	// Untouched keys keep their defaults.
	assert.Equal(t, DefaultSessionsWorkflowTTL, cfg.Sessions.WorkflowTTL)
}

func TestStandardEnvFallbacks(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant-test")
	t.Setenv("ASHBY_API_KEY", "ashby-test")
	t.Setenv("SLACK_BOT_TOKEN", "xoxb-test")
	t.Setenv("SLACK_SIGNING_SECRET", "sig-test")

	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, "sk-ant-test", cfg.Model.APIKey)
	assert.Equal(t, "ashby-test", cfg.Ashby.APIKey)
	assert.Equal(t, "xoxb-test", cfg.Slack.BotToken)
	assert.Equal(t, "sig-test", cfg.Slack.SigningSecret)
}

func TestDurationOrDefault(t *testing.T) {
	d, err := DurationOrDefault("15m", "10m")
	require.NoError(t, err)
	assert.Equal(t, 15*time.Minute, d)

	d, err = DurationOrDefault("", "10m")
	require.NoError(t, err)
	assert.Equal(t, 10*time.Minute, d)

	_, err = DurationOrDefault("not-a-duration", "10m")
	assert.Error(t, err)
}
