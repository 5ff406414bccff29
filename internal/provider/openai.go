package provider

import (
	"context"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/petasbytes/giftscout/internal/remote"
	"github.com/petasbytes/giftscout/tools"
)

// listPageSize is the largest page the messages endpoint returns.
const listPageSize = 100

// OpenAI is a remote.Service backed by the OpenAI Assistants API.
type OpenAI struct {
	client *openai.Client
}

var _ remote.Service = (*OpenAI)(nil)

func NewOpenAI(client *openai.Client) *OpenAI {
	return &OpenAI{client: client}
}

func openAITools(defs []tools.ToolDefinition) []openai.AssistantTool {
	out := make([]openai.AssistantTool, 0, len(defs))
	for _, d := range defs {
		out = append(out, openai.AssistantTool{
			Type: openai.AssistantToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        d.Name,
				Description: d.Description,
				Parameters:  d.InputSchema,
			},
		})
	}
	return out
}

func (o *OpenAI) CreateAssistant(ctx context.Context, spec remote.AssistantSpec) (remote.Assistant, error) {
	name, instructions := spec.Name, spec.Instructions
	a, err := o.client.CreateAssistant(ctx, openai.AssistantRequest{
		Model:        spec.Model,
		Name:         &name,
		Instructions: &instructions,
		Tools:        openAITools(spec.Tools),
	})
	if err != nil {
		return remote.Assistant{}, fmt.Errorf("openai: create assistant: %w", err)
	}
	return remote.Assistant{
		ID:           a.ID,
		Name:         spec.Name,
		Instructions: spec.Instructions,
		Model:        a.Model,
		Tools:        spec.Tools,
	}, nil
}

func (o *OpenAI) CreateThread(ctx context.Context) (remote.Thread, error) {
	th, err := o.client.CreateThread(ctx, openai.ThreadRequest{})
	if err != nil {
		return remote.Thread{}, fmt.Errorf("openai: create thread: %w", err)
	}
	return remote.Thread{ID: th.ID}, nil
}

func (o *OpenAI) AppendMessage(ctx context.Context, threadID, content string) (remote.Message, error) {
	m, err := o.client.CreateMessage(ctx, threadID, openai.MessageRequest{
		Role:    "user",
		Content: content,
	})
	if err != nil {
		return remote.Message{}, fmt.Errorf("openai: append message: %w", err)
	}
	return toMessage(m), nil
}

func (o *OpenAI) CreateRun(ctx context.Context, threadID, assistantID string) (remote.Run, error) {
	r, err := o.client.CreateRun(ctx, threadID, openai.RunRequest{AssistantID: assistantID})
	if err != nil {
		return remote.Run{}, fmt.Errorf("openai: create run: %w", err)
	}
	return toRun(r), nil
}

func (o *OpenAI) GetRun(ctx context.Context, threadID, runID string) (remote.Run, error) {
	r, err := o.client.RetrieveRun(ctx, threadID, runID)
	if err != nil {
		return remote.Run{}, fmt.Errorf("openai: retrieve run %s: %w", runID, err)
	}
	return toRun(r), nil
}

// ListMessages pages through the thread in ascending order. When runID is set
// only that run's messages are requested.
func (o *OpenAI) ListMessages(ctx context.Context, threadID, runID string) ([]remote.Message, error) {
	limit := listPageSize
	order := "asc"
	var after *string
	var run *string
	if runID != "" {
		run = &runID
	}

	var out []remote.Message
	for {
		page, err := o.client.ListMessage(ctx, threadID, &limit, &order, after, nil, run)
		if err != nil {
			return nil, fmt.Errorf("openai: list messages: %w", err)
		}
		for _, m := range page.Messages {
			out = append(out, toMessage(m))
		}
		if !page.HasMore || page.LastID == nil || len(page.Messages) == 0 {
			return out, nil
		}
		after = page.LastID
	}
}

func (o *OpenAI) SubmitToolOutputs(ctx context.Context, threadID, runID string, outputs []remote.ToolOutput) (remote.Run, error) {
	req := openai.SubmitToolOutputsRequest{ToolOutputs: make([]openai.ToolOutput, 0, len(outputs))}
	for _, out := range outputs {
		req.ToolOutputs = append(req.ToolOutputs, openai.ToolOutput{ToolCallID: out.CallID, Output: out.Output})
	}
	r, err := o.client.SubmitToolOutputs(ctx, threadID, runID, req)
	if err != nil {
		return remote.Run{}, fmt.Errorf("openai: submit tool outputs: %w", err)
	}
	return toRun(r), nil
}

func (o *OpenAI) CancelRun(ctx context.Context, threadID, runID string) (remote.Run, error) {
	r, err := o.client.CancelRun(ctx, threadID, runID)
	if err != nil {
		return remote.Run{}, fmt.Errorf("openai: cancel run %s: %w", runID, err)
	}
	return toRun(r), nil
}

func toRun(r openai.Run) remote.Run {
	status, ok := remote.ParseRunStatus(string(r.Status))
	out := remote.Run{
		ID:          r.ID,
		ThreadID:    r.ThreadID,
		AssistantID: r.AssistantID,
		Status:      status,
	}
	switch {
	case !ok:
		out.LastError = fmt.Sprintf("unrecognized run status %q", r.Status)
	case r.LastError != nil:
		out.LastError = r.LastError.Message
	}
	if r.RequiredAction != nil && r.RequiredAction.SubmitToolOutputs != nil {
		for _, tc := range r.RequiredAction.SubmitToolOutputs.ToolCalls {
			out.ToolCalls = append(out.ToolCalls, remote.ToolCall{
				ID:        tc.ID,
				Name:      tc.Function.Name,
				Arguments: tc.Function.Arguments,
			})
		}
	}
	return out
}

// toMessage keeps the text parts of m; image and file parts are dropped.
func toMessage(m openai.Message) remote.Message {
	var parts []string
	for _, c := range m.Content {
		if c.Text != nil {
			parts = append(parts, c.Text.Value)
		}
	}
	out := remote.Message{
		ID:      m.ID,
		Role:    remote.Role(m.Role),
		Content: strings.Join(parts, "\n"),
	}
	if m.RunID != nil {
		out.RunID = *m.RunID
	}
	return out
}
