package agent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stagehandhq/stagehand/internal/ats"
	"github.com/stagehandhq/stagehand/internal/ats/atstest"
	"github.com/stagehandhq/stagehand/internal/tool"
)

// scriptedLLM plays back a fixed sequence of completions and records what it
// was shown.
type scriptedLLM struct {
	script []Completion
	calls  int
	seen   [][]Turn
}

func (s *scriptedLLM) Complete(_ context.Context, _ string, turns []Turn, _ []tool.Tool) (*Completion, error) {
	s.seen = append(s.seen, append([]Turn(nil), turns...))
	if s.calls >= len(s.script) {
		return &Completion{Text: "done"}, nil
	}
	c := s.script[s.calls]
	s.calls++
	return &c, nil
}

func testAgent(llm LLM, mode string) (*Agent, *atstest.Fake) {
	f := atstest.New()
	f.Applications = []ats.Application{{
		ID:                    "app-1",
		Status:                "Active",
		Candidate:             ats.Candidate{ID: "cand-1", Name: "Ada Lovelace", PrimaryEmailAddress: ats.EmailValue{Value: "ada@example.com"}},
		Job:                   ats.Job{ID: "job-1", Title: "Backend Engineer"},
		CurrentInterviewStage: ats.Stage{ID: "stage-1", Title: "Phone Screen"},
	}}
	f.Stages = []ats.Stage{{ID: "stage-2", Title: "Onsite"}}
	exec := tool.NewExecutor(f, tool.NewGuard(mode, 5))
	trunc := tool.Truncator{Limit: 100_000, ArrayPrefix: 20}
	return New(llm, exec, trunc, SystemPrompt(5), 12), f
}

func TestPlainAnswerEndsLoop(t *testing.T) {
	llm := &scriptedLLM{script: []Completion{{Text: "Hello! Ask me about the pipeline."}}}
	a, _ := testAgent(llm, tool.ModeConfirmWrites)

	out, turns, err := a.Process(context.Background(), "hi", "U1", nil)
	require.NoError(t, err)
	assert.Equal(t, "Hello! Ask me about the pipeline.", out.Text)
	assert.Empty(t, out.Pending)
	assert.Equal(t, 1, llm.calls)
	require.Len(t, turns, 2)
	assert.Equal(t, "assistant", turns[1].Role)
}

func TestToolResultsFedBack(t *testing.T) {
	llm := &scriptedLLM{script: []Completion{
		{ToolCalls: []ToolCall{{ID: "t1", Name: "search_candidates", Input: map[string]any{"query": "ada"}}}},
		{Text: "Found Ada Lovelace."},
	}}
	a, _ := testAgent(llm, tool.ModeConfirmWrites)

	out, _, err := a.Process(context.Background(), "find ada", "U1", nil)
	require.NoError(t, err)
	assert.Equal(t, "Found Ada Lovelace.", out.Text)

	// The second model call saw the tool result.
	second := llm.seen[1]
	last := second[len(second)-1]
	assert.Equal(t, "tool", last.Role)
	assert.Equal(t, "t1", last.ToolCallID)
	assert.False(t, last.IsError)
	assert.Contains(t, last.Content, "Ada Lovelace")
}

func TestContactFieldsRedactedFromModel(t *testing.T) {
	llm := &scriptedLLM{script: []Completion{
		{ToolCalls: []ToolCall{{ID: "t1", Name: "search_candidates", Input: map[string]any{"query": "ada"}}}},
		{Text: "Found her."},
	}}
	a, _ := testAgent(llm, tool.ModeConfirmWrites)

	_, _, err := a.Process(context.Background(), "find ada", "U1", nil)
	require.NoError(t, err)

	second := llm.seen[1]
	last := second[len(second)-1]
	assert.NotContains(t, last.Content, "ada@example.com", "contact details never reach the model")
	assert.Contains(t, last.Content, "Ada Lovelace")
}

func TestConfirmationInterception(t *testing.T) {
	llm := &scriptedLLM{script: []Completion{
		{ToolCalls: []ToolCall{{ID: "t1", Name: "move_candidate_stage", Input: map[string]any{
			"candidate_name": "Ada",
			"target_stage":   "Onsite",
		}}}},
		{Text: "I've asked for confirmation to move Ada to Onsite."},
	}}
	a, f := testAgent(llm, tool.ModeConfirmWrites)

	out, _, err := a.Process(context.Background(), "move ada to onsite", "U1", nil)
	require.NoError(t, err)

	require.Len(t, out.Pending, 1)
	assert.Equal(t, "move_candidate_stage", out.Pending[0].Action)
	assert.Empty(t, f.WriteCalls(), "gated write must not execute during the loop")

	// The model was told the action is pending, not done.
	second := llm.seen[1]
	last := second[len(second)-1]
	assert.Contains(t, last.Content, "human confirmation")
	assert.False(t, last.IsError)
}

func TestToolFailureIsRecoverable(t *testing.T) {
	llm := &scriptedLLM{script: []Completion{
		{ToolCalls: []ToolCall{{ID: "t1", Name: "move_candidate_stage", Input: map[string]any{
			"candidate_name": "Nobody Atall",
			"target_stage":   "Onsite",
		}}}},
		{Text: "I couldn't find that candidate. Who did you mean?"},
	}}
	a, _ := testAgent(llm, tool.ModeConfirmWrites)

	out, _, err := a.Process(context.Background(), "move them", "U1", nil)
	require.NoError(t, err, "tool failures never abort the conversation")
	assert.Contains(t, out.Text, "couldn't find")

	second := llm.seen[1]
	last := second[len(second)-1]
	assert.True(t, last.IsError)
	assert.Contains(t, last.Content, "identify candidate")
}

func TestTurnCapIsTerminal(t *testing.T) {
	// A model that never stops calling tools.
	script := make([]Completion, 20)
	for i := range script {
		script[i] = Completion{ToolCalls: []ToolCall{{ID: "t", Name: "get_open_jobs", Input: map[string]any{}}}}
	}
	llm := &scriptedLLM{script: script}
	a, _ := testAgent(llm, tool.ModeConfirmWrites)

	out, _, err := a.Process(context.Background(), "loop forever", "U1", nil)
	require.NoError(t, err)
	assert.Equal(t, 12, llm.calls)
	assert.Contains(t, out.Text, "unexpected state")
}

func TestPriorTurnsAreThreaded(t *testing.T) {
	llm := &scriptedLLM{script: []Completion{{Text: "As I said, three candidates."}}}
	a, _ := testAgent(llm, tool.ModeConfirmWrites)

	prior := []Turn{
		{Role: "user", Content: "how many candidates?"},
		{Role: "assistant", Content: "Three."},
	}
	_, turns, err := a.Process(context.Background(), "say that again", "U1", prior)
	require.NoError(t, err)

	require.Len(t, turns, 4)
	assert.Equal(t, "how many candidates?", turns[0].Content)
	assert.Equal(t, "say that again", turns[2].Content)
}
