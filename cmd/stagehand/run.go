package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"github.com/stagehandhq/stagehand/internal/agent"
	"github.com/stagehandhq/stagehand/internal/ats"
	"github.com/stagehandhq/stagehand/internal/audit"
	"github.com/stagehandhq/stagehand/internal/bot"
	"github.com/stagehandhq/stagehand/internal/chat"
	"github.com/stagehandhq/stagehand/internal/config"
	"github.com/stagehandhq/stagehand/internal/confirm"
	"github.com/stagehandhq/stagehand/internal/session"
	"github.com/stagehandhq/stagehand/internal/tool"
	"github.com/stagehandhq/stagehand/internal/triage"
	"github.com/stagehandhq/stagehand/internal/workflow"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the Slack events daemon",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDaemon(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runDaemon(ctx context.Context) error {
	if cfg.Model.APIKey == "" {
		return fmt.Errorf("model API key is required (ANTHROPIC_API_KEY or model.api_key)")
	}
	if cfg.Ashby.APIKey == "" {
		return fmt.Errorf("ATS API key is required (ASHBY_API_KEY or ashby.api_key)")
	}
	if cfg.Slack.BotToken == "" || cfg.Slack.SigningSecret == "" {
		return fmt.Errorf("Slack bot token and signing secret are required")
	}

	// One daemon per host: two instances would double-post and race the
	// session registries.
	lock := flock.New(cfg.Server.LockPath)
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire run lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("another stagehand instance holds %s", cfg.Server.LockPath)
	}
	defer lock.Unlock()

	requestTimeout, err := config.DurationOrDefault(cfg.Ashby.RequestTimeout, config.DefaultAshbyRequestTimeout)
	if err != nil {
		return err
	}
	confirmationTTL, err := config.DurationOrDefault(cfg.Sessions.ConfirmationTTL, config.DefaultSessionsConfirmationTTL)
	if err != nil {
		return err
	}
	triageTTL, err := config.DurationOrDefault(cfg.Sessions.TriageTTL, config.DefaultSessionsTriageTTL)
	if err != nil {
		return err
	}
	workflowTTL, err := config.DurationOrDefault(cfg.Sessions.WorkflowTTL, config.DefaultSessionsWorkflowTTL)
	if err != nil {
		return err
	}

	client := ats.NewClient(cfg.Ashby.BaseURL, cfg.Ashby.APIKey, requestTimeout, cfg.Ashby.MaxPages)
	guard := tool.NewGuard(cfg.Safety.Mode, cfg.Safety.BatchLimit)
	executor := tool.NewExecutor(client, guard)
	truncator := tool.Truncator{Limit: cfg.Agent.ResultCharLimit, ArrayPrefix: cfg.Agent.ResultArrayPrefix}

	llm := agent.NewAnthropicLLM(cfg.Model.APIKey, cfg.Model.Name, cfg.Model.MaxTokens)
	conversationAgent := agent.New(llm, executor, truncator, agent.SystemPrompt(cfg.Safety.BatchLimit), cfg.Agent.MaxTurns)

	auditLog, err := audit.Open(cfg.Audit.Path)
	if err != nil {
		return fmt.Errorf("open audit log: %w", err)
	}

	clock := session.RealClock()
	b := bot.New(bot.Params{
		Agent:     conversationAgent,
		Executor:  executor,
		Guard:     guard,
		ATS:       client,
		Confirms:  confirm.NewRegistry(confirmationTTL, clock),
		Triage:    triage.NewManager(triageTTL, clock),
		Workflows: workflow.NewManager(workflowTTL, clock),
		Audit:     auditLog,
		Clock:     clock,
	})

	gateway := chat.NewSlackGateway(cfg.Server.Port, cfg.Slack.SigningSecret, cfg.Slack.BotToken, cfg.Slack.AllowedChannels, b)
	b.SetGateway(gateway)

	if err := b.StartSweeper(cfg.Sessions.SweepSchedule); err != nil {
		return err
	}
	defer b.StopSweeper()

	slog.Info("Stagehand starting",
		"port", cfg.Server.Port,
		"model", cfg.Model.Name,
		"safety_mode", cfg.Safety.Mode)

	runCtx, stop := signalContext(ctx)
	defer stop()
	return gateway.Start(runCtx)
}
