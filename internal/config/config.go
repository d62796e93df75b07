package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/cobra"
)

type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Slack    SlackConfig    `koanf:"slack"`
	Ashby    AshbyConfig    `koanf:"ashby"`
	Model    ModelConfig    `koanf:"model"`
	Agent    AgentConfig    `koanf:"agent"`
	Safety   SafetyConfig   `koanf:"safety"`
	Sessions SessionsConfig `koanf:"sessions"`
	Audit    AuditConfig    `koanf:"audit"`
}

type ServerConfig struct {
	Port            int    `koanf:"port"`
	LogLevel        string `koanf:"log_level"`
	ShutdownTimeout string `koanf:"shutdown_timeout"`
	LockPath        string `koanf:"lock_path"`
}

type SlackConfig struct {
	SigningSecret   string   `koanf:"signing_secret"`
	BotToken        string   `koanf:"bot_token"`
	AllowedChannels []string `koanf:"allowed_channels"`
}

type AshbyConfig struct {
	BaseURL        string `koanf:"base_url"`
	APIKey         string `koanf:"api_key"`
	RequestTimeout string `koanf:"request_timeout"`
	MaxPages       int    `koanf:"max_pages"`
}

type ModelConfig struct {
	Name      string `koanf:"name"`
	APIKey    string `koanf:"api_key"`
	MaxTokens int    `koanf:"max_tokens"`
}

type AgentConfig struct {
	MaxTurns          int `koanf:"max_turns"`
	ResultCharLimit   int `koanf:"result_char_limit"`
	ResultArrayPrefix int `koanf:"result_array_prefix"`
}

// SafetyConfig governs the write gate. Mode is "confirm_writes" (gate only
// write tools) or "confirm_all" (gate every mutating path including batch
// members individually).
type SafetyConfig struct {
	Mode       string `koanf:"mode"`
	BatchLimit int    `koanf:"batch_limit"`
}

type SessionsConfig struct {
	ConfirmationTTL string `koanf:"confirmation_ttl"`
	TriageTTL       string `koanf:"triage_ttl"`
	WorkflowTTL     string `koanf:"workflow_ttl"`
	SweepSchedule   string `koanf:"sweep_schedule"`
}

type AuditConfig struct {
	Path string `koanf:"path"`
}

const (
	DefaultServerPort              = 3000
	DefaultServerLogLevel          = "info"
	DefaultServerShutdownTimeout   = "5s"
	DefaultAshbyBaseURL            = "https://api.ashbyhq.com"
	DefaultAshbyRequestTimeout     = "30s"
	DefaultAshbyMaxPages           = 50
	DefaultModelName               = "claude-sonnet-4-20250514"
	DefaultModelMaxTokens          = 4096
	DefaultAgentMaxTurns           = 12
	DefaultAgentResultCharLimit    = 100_000
	DefaultAgentResultArrayPrefix  = 20
	DefaultSafetyMode              = "confirm_writes"
	DefaultSafetyBatchLimit        = 5
	DefaultSessionsConfirmationTTL = "10m"
	DefaultSessionsTriageTTL       = "30m"
	DefaultSessionsWorkflowTTL     = "30m"
	DefaultSessionsSweepSchedule   = "@every 1m"
)

func Load(cmd *cobra.Command) (*Config, error) {
	k := koanf.New(".")

	defaults := map[string]interface{}{
		"server.port":               DefaultServerPort,
		"server.log_level":          DefaultServerLogLevel,
		"server.shutdown_timeout":   DefaultServerShutdownTimeout,
		"server.lock_path":          filepath.Join(os.TempDir(), "stagehand.lock"),
		"ashby.base_url":            DefaultAshbyBaseURL,
		"ashby.request_timeout":     DefaultAshbyRequestTimeout,
		"ashby.max_pages":           DefaultAshbyMaxPages,
		"model.name":                DefaultModelName,
		"model.max_tokens":          DefaultModelMaxTokens,
		"agent.max_turns":           DefaultAgentMaxTurns,
		"agent.result_char_limit":   DefaultAgentResultCharLimit,
		"agent.result_array_prefix": DefaultAgentResultArrayPrefix,
		"safety.mode":               DefaultSafetyMode,
		"safety.batch_limit":        DefaultSafetyBatchLimit,
		"sessions.confirmation_ttl": DefaultSessionsConfirmationTTL,
		"sessions.triage_ttl":       DefaultSessionsTriageTTL,
		"sessions.workflow_ttl":     DefaultSessionsWorkflowTTL,
		"sessions.sweep_schedule":   DefaultSessionsSweepSchedule,
		"audit.path":                filepath.Join(os.Getenv("HOME"), ".stagehand", "audit.json"),
	}
	for key, value := range defaults {
		k.Set(key, value)
	}

	configPath := ""
	if cmd != nil {
		if flag := cmd.Flags().Lookup("config"); flag != nil {
			configPath = strings.TrimSpace(flag.Value.String())
		}
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, err
		}
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			globalPath := filepath.Join(home, ".stagehand", "config.yaml")
			if err := k.Load(file.Provider(globalPath), yaml.Parser()); err != nil {
				slog.Debug("Global config not found or invalid", "path", globalPath, "error", err)
			}
		}
	}

	k.Load(env.Provider("STAGEHAND_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, "STAGEHAND_")), "_", ".", -1)
	}), nil)

	if cmd != nil {
		k.Load(posflag.Provider(cmd.Flags(), ".", k), nil)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}

	// Standard env vars win over empty config fields.
	if cfg.Model.APIKey == "" {
		cfg.Model.APIKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if cfg.Ashby.APIKey == "" {
		cfg.Ashby.APIKey = os.Getenv("ASHBY_API_KEY")
	}
	if cfg.Slack.BotToken == "" {
		cfg.Slack.BotToken = os.Getenv("SLACK_BOT_TOKEN")
	}
	if cfg.Slack.SigningSecret == "" {
		cfg.Slack.SigningSecret = os.Getenv("SLACK_SIGNING_SECRET")
	}

	return &cfg, nil
}
