package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/stagehandhq/stagehand/internal/config"
)

func TestConfigInitCmd(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)

	cmd := &cobra.Command{}
	if err := configInitCmd.RunE(cmd, nil); err != nil {
		t.Errorf("Config init failed: %v", err)
	}

	configPath := filepath.Join(tmpDir, ".stagehand", "config.yaml")
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Errorf("Config file not created at %s", configPath)
	}

	// Second init leaves the existing file alone.
	if err := configInitCmd.RunE(&cobra.Command{}, nil); err != nil {
		t.Errorf("Config init should succeed when config exists: %v", err)
	}
}

func TestRedactConfigSecrets(t *testing.T) {
	original := &config.Config{
		Model: config.ModelConfig{APIKey: "sk-ant-secret-123456"},
		Ashby: config.AshbyConfig{APIKey: "ashby-key-7890"},
		Slack: config.SlackConfig{
			SigningSecret: "slack-signing-secret",
			BotToken:      "xoxb-token",
		},
	}

	redacted := redactConfigSecrets(original)

	if redacted == nil {
		t.Fatal("redacted config should not be nil")
	}
	for name, got := range map[string]string{
		"model api key":  redacted.Model.APIKey,
		"ashby api key":  redacted.Ashby.APIKey,
		"signing secret": redacted.Slack.SigningSecret,
		"bot token":      redacted.Slack.BotToken,
	} {
		if !strings.Contains(got, "*") {
			t.Errorf("%s not redacted: %q", name, got)
		}
	}
	if original.Model.APIKey != "sk-ant-secret-123456" {
		t.Error("original config was mutated")
	}
}

func TestMaskSecret(t *testing.T) {
	if got := maskSecret(""); got != "" {
		t.Errorf("empty secret: got %q", got)
	}
	if got := maskSecret("abcd"); got != "****" {
		t.Errorf("short secret: got %q", got)
	}
	got := maskSecret("sk-ant-abc123")
	if !strings.HasPrefix(got, "sk") || !strings.HasSuffix(got, "23") {
		t.Errorf("long secret should keep edges: got %q", got)
	}
	if strings.Contains(got, "ant-abc1") {
		t.Errorf("long secret middle should be masked: got %q", got)
	}
}
