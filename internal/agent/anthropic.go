package agent

import (
	"context"
	"encoding/json"
	"fmt"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/stagehandhq/stagehand/internal/tool"
)

// AnthropicLLM drives the Anthropic messages API with tool use.
type AnthropicLLM struct {
	client    anthropic.Client
	model     string
	maxTokens int64
}

func NewAnthropicLLM(apiKey, model string, maxTokens int) *AnthropicLLM {
	return &AnthropicLLM{
		client:    anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:     model,
		maxTokens: int64(maxTokens),
	}
}

func (p *AnthropicLLM) Complete(ctx context.Context, system string, turns []Turn, tools []tool.Tool) (*Completion, error) {
	var messages []anthropic.MessageParam
	for _, t := range turns {
		switch t.Role {
		case "assistant":
			var blocks []anthropic.ContentBlockParamUnion
			if t.Content != "" {
				blocks = append(blocks, anthropic.NewTextBlock(t.Content))
			}
			for _, call := range t.ToolCalls {
				blocks = append(blocks, anthropic.NewToolUseBlock(call.ID, call.Input, call.Name))
			}
			messages = append(messages, anthropic.NewAssistantMessage(blocks...))
		case "tool":
			messages = append(messages, anthropic.NewUserMessage(
				anthropic.NewToolResultBlock(t.ToolCallID, t.Content, t.IsError)))
		default:
			messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(t.Content)))
		}
	}

	var toolParams []anthropic.ToolUnionParam
	for _, t := range tools {
		param := anthropic.ToolParam{
			Name:        t.Name,
			Description: anthropic.String(t.Description),
			InputSchema: anthropic.ToolInputSchemaParam{Properties: map[string]any{}},
		}
		if props, ok := t.InputSchema["properties"].(map[string]any); ok {
			param.InputSchema = anthropic.ToolInputSchemaParam{Properties: props}
		}
		toolParams = append(toolParams, anthropic.ToolUnionParam{OfTool: &param})
	}

	msg, err := p.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		MaxTokens: p.maxTokens,
		System:    []anthropic.TextBlockParam{{Text: system}},
		Messages:  messages,
		Tools:     toolParams,
	})
	if err != nil {
		return nil, fmt.Errorf("anthropic request failed: %w", err)
	}

	comp := &Completion{}
	for _, block := range msg.Content {
		switch b := block.AsAny().(type) {
		case anthropic.TextBlock:
			comp.Text += b.Text
		case anthropic.ToolUseBlock:
			var input map[string]any
			if err := json.Unmarshal(b.Input, &input); err != nil {
				input = map[string]any{}
			}
			comp.ToolCalls = append(comp.ToolCalls, ToolCall{ID: b.ID, Name: b.Name, Input: input})
		}
	}
	return comp, nil
}
