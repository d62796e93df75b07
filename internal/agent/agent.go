package agent

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/stagehandhq/stagehand/internal/tool"
)

// ToolCall is one action the model proposed.
type ToolCall struct {
	ID    string
	Name  string
	Input map[string]any
}

// Turn is one entry of the running conversation. Assistant turns may carry
// tool calls; tool turns carry the result for one call.
type Turn struct {
	Role       string // "user", "assistant", "tool"
	Content    string
	ToolCalls  []ToolCall
	ToolCallID string
	IsError    bool
}

// Completion is one model response: either a final answer or a batch of tool
// calls to execute before continuing.
type Completion struct {
	Text      string
	ToolCalls []ToolCall
}

// LLM is the model behind the loop. Tests script it.
type LLM interface {
	Complete(ctx context.Context, system string, turns []Turn, tools []tool.Tool) (*Completion, error)
}

// Output of one processed user message.
type Output struct {
	Text    string
	Pending []tool.PendingOp
}

const confirmationToolResult = "This action needs human confirmation before it can run. " +
	"The requester has been asked to approve or decline with a reaction; do not assume it succeeded."

// Agent owns the tool-use loop: send history to the model, run whatever it
// proposes, fold results back in, repeat until the model answers in plain
// text. Gated writes never execute here; they surface as pending
// confirmations for the caller to park.
type Agent struct {
	llm      LLM
	exec     *tool.Executor
	trunc    tool.Truncator
	system   string
	maxTurns int
}

func New(llm LLM, exec *tool.Executor, trunc tool.Truncator, system string, maxTurns int) *Agent {
	return &Agent{
		llm:      llm,
		exec:     exec,
		trunc:    trunc,
		system:   system,
		maxTurns: maxTurns,
	}
}

// Process runs one user message through the loop. It returns the final text,
// any confirmations collected along the way, and the full turn history so the
// caller can thread follow-ups.
func (a *Agent) Process(ctx context.Context, userMessage, requester string, prior []Turn) (Output, []Turn, error) {
	turns := append(append([]Turn(nil), prior...), Turn{Role: "user", Content: userMessage})
	var pending []tool.PendingOp

	for i := 0; i < a.maxTurns; i++ {
		comp, err := a.llm.Complete(ctx, a.system, turns, tool.Catalog())
		if err != nil {
			return Output{}, turns, fmt.Errorf("model call failed: %w", err)
		}

		if len(comp.ToolCalls) == 0 {
			turns = append(turns, Turn{Role: "assistant", Content: comp.Text})
			return Output{Text: comp.Text, Pending: pending}, turns, nil
		}

		turns = append(turns, Turn{Role: "assistant", Content: comp.Text, ToolCalls: comp.ToolCalls})
		for _, call := range comp.ToolCalls {
			turns = append(turns, a.runTool(ctx, call, requester, &pending))
		}
	}

	slog.Warn("Tool loop hit the turn cap", "max_turns", a.maxTurns)
	out := Output{
		Text:    "I got stuck in an unexpected state while working on that and had to stop. Nothing further was changed; please try a narrower request.",
		Pending: pending,
	}
	return out, turns, nil
}

// runTool executes one proposed call and shapes its outcome as the tool turn
// the model sees next. Failures are relayed as recoverable tool errors, never
// as a crashed conversation.
func (a *Agent) runTool(ctx context.Context, call ToolCall, requester string, pending *[]tool.PendingOp) Turn {
	res := a.exec.Execute(ctx, call.Name, call.Input, requester)

	switch {
	case res.RequiresConfirmation:
		*pending = append(*pending, *res.Pending)
		return Turn{Role: "tool", ToolCallID: call.ID, Content: confirmationToolResult}

	case res.Success:
		// Contact and compensation fields never reach the model.
		data, err := tool.Redact(res.Data)
		if err != nil {
			return Turn{Role: "tool", ToolCallID: call.ID, Content: "result could not be serialized: " + err.Error(), IsError: true}
		}
		body, err := a.trunc.Truncate(data)
		if err != nil {
			return Turn{Role: "tool", ToolCallID: call.ID, Content: "result could not be serialized: " + err.Error(), IsError: true}
		}
		return Turn{Role: "tool", ToolCallID: call.ID, Content: body}

	default:
		return Turn{Role: "tool", ToolCallID: call.ID, Content: res.Error, IsError: true}
	}
}
