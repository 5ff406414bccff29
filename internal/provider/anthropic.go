package provider

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/google/uuid"

	"github.com/petasbytes/giftscout/internal/remote"
	"github.com/petasbytes/giftscout/internal/telemetry"
	"github.com/petasbytes/giftscout/internal/windowing"
	"github.com/petasbytes/giftscout/tools"
)

const DefaultAnthropicModel = anthropic.ModelClaude3_7SonnetLatest

const (
	anthropicMaxTokens  = 1024
	defaultWindowBudget = 24000
)

// AnthropicThreads emulates assistants, threads and runs on top of the
// Messages API. Each run executes in its own goroutine: one Messages call per
// step, pausing in requires_action whenever the model asks for tools.
//
// Invariant:
//   - every tool_use in the stored conversation is followed by a user message
//     carrying its tool_result, including runs cancelled while waiting on tools.
type AnthropicThreads struct {
	// WindowBudget caps the estimated size of the conversation sent per step.
	WindowBudget int

	client *anthropic.Client
	runTTL time.Duration

	mu         sync.Mutex
	assistants map[string]remote.Assistant
	threads    map[string]*localThread
	runs       map[string]*localRun
}

type localThread struct {
	messages  []remote.Message
	conv      []anthropic.MessageParam
	activeRun string
}

type localRun struct {
	run    remote.Run
	ctx    context.Context
	cancel context.CancelFunc
}

var _ remote.Service = (*AnthropicThreads)(nil)

// NewAnthropicThreads returns an empty backend. Runs not finished within runTTL expire.
func NewAnthropicThreads(client *anthropic.Client, runTTL time.Duration) *AnthropicThreads {
	return &AnthropicThreads{
		WindowBudget: defaultWindowBudget,
		client:       client,
		runTTL:       runTTLOrDefault(runTTL),
		assistants:   map[string]remote.Assistant{},
		threads:      map[string]*localThread{},
		runs:         map[string]*localRun{},
	}
}

func newID(prefix string) string {
	return prefix + "_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

func anthropicTools(defs []tools.ToolDefinition) []anthropic.ToolUnionParam {
	out := make([]anthropic.ToolUnionParam, 0, len(defs))
	for _, t := range defs {
		out = append(out, anthropic.ToolUnionParam{OfTool: &anthropic.ToolParam{
			Name:        t.Name,
			Description: anthropic.String(t.Description),
			InputSchema: anthropic.ToolInputSchemaParam{
				Properties: t.InputSchema.Properties,
				Required:   t.InputSchema.Required,
			},
		}})
	}
	return out
}

func (a *AnthropicThreads) CreateAssistant(_ context.Context, spec remote.AssistantSpec) (remote.Assistant, error) {
	asst := remote.Assistant{
		ID:           newID("asst"),
		Name:         spec.Name,
		Instructions: spec.Instructions,
		Model:        spec.Model,
		Tools:        spec.Tools,
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.assistants[asst.ID] = asst
	return asst, nil
}

func (a *AnthropicThreads) CreateThread(_ context.Context) (remote.Thread, error) {
	id := newID("thread")
	a.mu.Lock()
	defer a.mu.Unlock()
	a.threads[id] = &localThread{}
	return remote.Thread{ID: id}, nil
}

func (a *AnthropicThreads) AppendMessage(_ context.Context, threadID, content string) (remote.Message, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	th, ok := a.threads[threadID]
	if !ok {
		return remote.Message{}, fmt.Errorf("thread %s: %w", threadID, ErrNotFound)
	}
	if a.activeLocked(th) {
		return remote.Message{}, fmt.Errorf("thread %s: %w", threadID, ErrRunActive)
	}
	m := remote.Message{ID: newID("msg"), Role: remote.RoleUser, Content: content}
	th.messages = append(th.messages, m)
	th.conv = append(th.conv, anthropic.NewUserMessage(anthropic.NewTextBlock(content)))
	return m, nil
}

func (a *AnthropicThreads) CreateRun(_ context.Context, threadID, assistantID string) (remote.Run, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	th, ok := a.threads[threadID]
	if !ok {
		return remote.Run{}, fmt.Errorf("thread %s: %w", threadID, ErrNotFound)
	}
	if _, ok := a.assistants[assistantID]; !ok {
		return remote.Run{}, fmt.Errorf("assistant %s: %w", assistantID, ErrNotFound)
	}
	if a.activeLocked(th) {
		return remote.Run{}, fmt.Errorf("thread %s: %w", threadID, ErrRunActive)
	}

	ctx, cancel := context.WithTimeout(context.Background(), a.runTTL)
	lr := &localRun{
		run: remote.Run{
			ID:          newID("run"),
			ThreadID:    threadID,
			AssistantID: assistantID,
			Status:      remote.RunStatusQueued,
		},
		ctx:    ctx,
		cancel: cancel,
	}
	a.runs[lr.run.ID] = lr
	th.activeRun = lr.run.ID

	go a.step(lr.ctx, lr.run.ID)
	return copyRun(lr.run), nil
}

func (a *AnthropicThreads) GetRun(_ context.Context, threadID, runID string) (remote.Run, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	lr, err := a.runLocked(threadID, runID)
	if err != nil {
		return remote.Run{}, err
	}
	// A run parked in requires_action has no goroutine watching its deadline.
	if !lr.run.Status.Terminal() && errors.Is(lr.ctx.Err(), context.DeadlineExceeded) {
		a.closeToolUsesLocked(lr, "run expired")
		a.endLocked(lr, remote.RunStatusExpired, "run expired before completion")
	}
	return copyRun(lr.run), nil
}

func (a *AnthropicThreads) ListMessages(_ context.Context, threadID, runID string) ([]remote.Message, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	th, ok := a.threads[threadID]
	if !ok {
		return nil, fmt.Errorf("thread %s: %w", threadID, ErrNotFound)
	}
	out := make([]remote.Message, 0, len(th.messages))
	for _, m := range th.messages {
		if runID == "" || m.RunID == runID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (a *AnthropicThreads) SubmitToolOutputs(_ context.Context, threadID, runID string, outputs []remote.ToolOutput) (remote.Run, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	lr, err := a.runLocked(threadID, runID)
	if err != nil {
		return remote.Run{}, err
	}
	if lr.run.Status != remote.RunStatusRequiresAction {
		return remote.Run{}, fmt.Errorf("run %s is %s, not %s", runID, lr.run.Status, remote.RunStatusRequiresAction)
	}

	byID := make(map[string]string, len(outputs))
	for _, o := range outputs {
		byID[o.CallID] = o.Output
	}
	blocks := make([]anthropic.ContentBlockParamUnion, 0, len(lr.run.ToolCalls))
	for _, tc := range lr.run.ToolCalls {
		out, ok := byID[tc.ID]
		if !ok {
			return remote.Run{}, fmt.Errorf("run %s: missing output for tool call %s", runID, tc.ID)
		}
		blocks = append(blocks, anthropic.NewToolResultBlock(tc.ID, out, false))
	}

	th := a.threads[threadID]
	th.conv = append(th.conv, anthropic.NewUserMessage(blocks...))
	lr.run.Status = remote.RunStatusQueued
	lr.run.ToolCalls = nil

	go a.step(lr.ctx, runID)
	return copyRun(lr.run), nil
}

func (a *AnthropicThreads) CancelRun(_ context.Context, threadID, runID string) (remote.Run, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	lr, err := a.runLocked(threadID, runID)
	if err != nil {
		return remote.Run{}, err
	}
	if lr.run.Status.Terminal() {
		return remote.Run{}, fmt.Errorf("cannot cancel run %s with status %s", runID, lr.run.Status)
	}
	a.closeToolUsesLocked(lr, "run cancelled")
	a.endLocked(lr, remote.RunStatusCancelled, "")
	return copyRun(lr.run), nil
}

// step executes one Messages call for a queued run.
func (a *AnthropicThreads) step(ctx context.Context, runID string) {
	params, ok := a.begin(runID)
	if !ok {
		return
	}
	msg, err := a.client.Messages.New(ctx, params)
	a.finish(ctx, runID, msg, err)
}

func (a *AnthropicThreads) begin(runID string) (anthropic.MessageNewParams, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	lr, ok := a.runs[runID]
	if !ok || lr.run.Status != remote.RunStatusQueued {
		return anthropic.MessageNewParams{}, false
	}
	lr.run.Status = remote.RunStatusInProgress

	th := a.threads[lr.run.ThreadID]
	window, stats := windowing.Window(th.conv, a.WindowBudget, windowing.RuneCounter{})
	telemetry.Emit("window_prepared", map[string]any{
		"run_id":      runID,
		"budget":      stats.Budget,
		"total":       stats.Total,
		"included":    stats.Included,
		"dropped":     stats.Dropped,
		"over_budget": stats.OverBudget,
	})
	if stats.OverBudget {
		a.endLocked(lr, remote.RunStatusFailed, fmt.Sprintf("latest messages exceed the window budget of %d", stats.Budget))
		return anthropic.MessageNewParams{}, false
	}

	asst := a.assistants[lr.run.AssistantID]
	return anthropic.MessageNewParams{
		Model:     anthropic.Model(asst.Model),
		MaxTokens: int64(anthropicMaxTokens),
		System:    []anthropic.TextBlockParam{{Text: asst.Instructions}},
		Messages:  append([]anthropic.MessageParam(nil), window...),
		Tools:     anthropicTools(asst.Tools),
	}, true
}

func (a *AnthropicThreads) finish(ctx context.Context, runID string, msg *anthropic.Message, err error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	lr, ok := a.runs[runID]
	if !ok || lr.run.Status != remote.RunStatusInProgress {
		// Cancelled or expired while the request was in flight.
		return
	}
	if err != nil {
		switch {
		case errors.Is(ctx.Err(), context.DeadlineExceeded):
			a.endLocked(lr, remote.RunStatusExpired, "run expired before completion")
		case errors.Is(ctx.Err(), context.Canceled):
			a.endLocked(lr, remote.RunStatusCancelled, "")
		default:
			a.endLocked(lr, remote.RunStatusFailed, err.Error())
		}
		return
	}

	th := a.threads[lr.run.ThreadID]
	th.conv = append(th.conv, msg.ToParam())

	var texts []string
	var calls []remote.ToolCall
	for _, block := range msg.Content {
		switch v := block.AsAny().(type) {
		case anthropic.TextBlock:
			if v.Text != "" {
				texts = append(texts, v.Text)
			}
		case anthropic.ToolUseBlock:
			calls = append(calls, remote.ToolCall{ID: v.ID, Name: v.Name, Arguments: v.JSON.Input.Raw()})
		}
	}
	if len(texts) > 0 {
		th.messages = append(th.messages, remote.Message{
			ID:      newID("msg"),
			Role:    remote.RoleAssistant,
			Content: strings.Join(texts, "\n"),
			RunID:   runID,
		})
	}
	if len(calls) > 0 {
		lr.run.Status = remote.RunStatusRequiresAction
		lr.run.ToolCalls = calls
		return
	}
	a.endLocked(lr, remote.RunStatusCompleted, "")
}

// closeToolUsesLocked answers pending tool calls with an error result so the
// stored conversation stays valid for the next run.
func (a *AnthropicThreads) closeToolUsesLocked(lr *localRun, reason string) {
	if lr.run.Status != remote.RunStatusRequiresAction || len(lr.run.ToolCalls) == 0 {
		return
	}
	blocks := make([]anthropic.ContentBlockParamUnion, 0, len(lr.run.ToolCalls))
	for _, tc := range lr.run.ToolCalls {
		blocks = append(blocks, anthropic.NewToolResultBlock(tc.ID, reason, true))
	}
	th := a.threads[lr.run.ThreadID]
	th.conv = append(th.conv, anthropic.NewUserMessage(blocks...))
}

func (a *AnthropicThreads) endLocked(lr *localRun, status remote.RunStatus, lastErr string) {
	lr.run.Status = status
	lr.run.LastError = lastErr
	lr.run.ToolCalls = nil
	lr.cancel()
	if th, ok := a.threads[lr.run.ThreadID]; ok && th.activeRun == lr.run.ID {
		th.activeRun = ""
	}
}

func (a *AnthropicThreads) activeLocked(th *localThread) bool {
	if th.activeRun == "" {
		return false
	}
	lr, ok := a.runs[th.activeRun]
	return ok && !lr.run.Status.Terminal()
}

func (a *AnthropicThreads) runLocked(threadID, runID string) (*localRun, error) {
	lr, ok := a.runs[runID]
	if !ok || lr.run.ThreadID != threadID {
		return nil, fmt.Errorf("run %s: %w", runID, ErrNotFound)
	}
	return lr, nil
}

func copyRun(r remote.Run) remote.Run {
	r.ToolCalls = append([]remote.ToolCall(nil), r.ToolCalls...)
	return r
}
