// Package remotetest provides a scripted in-memory remote.Service for tests.
package remotetest

import (
	"context"
	"fmt"
	"sync"

	"github.com/petasbytes/giftscout/internal/remote"
)

// Step is one scripted GetRun result. A non-nil Err is returned instead of the run.
type Step struct {
	Status remote.RunStatus
	Err    error
}

// Service replays Script on GetRun for every run it creates; the last step
// repeats once the script is exhausted. When a run is first
// observed completed, Replies are added to the thread as assistant messages
// tagged with that run. ToolCalls are attached while a run requires action and
// AfterSubmit replaces the script once tool outputs are submitted.
type Service struct {
	CreateAssistantErr error
	CreateThreadErr    error
	AppendErr          error
	CreateRunErr       error
	ListErr            error
	CancelErr          error

	Script      []Step
	AfterSubmit []Step
	ToolCalls   []remote.ToolCall
	Replies     []string

	mu        sync.Mutex
	calls     []string
	spec      remote.AssistantSpec
	messages  []remote.Message
	runs      map[string]*fakeRun
	runSeq    int
	msgSeq    int
	submitted []remote.ToolOutput
	cancelled []string
}

type fakeRun struct {
	run     remote.Run
	script  []Step
	replied bool
}

var _ remote.Service = (*Service)(nil)

func (s *Service) record(call string) {
	s.calls = append(s.calls, call)
}

func (s *Service) CreateAssistant(_ context.Context, spec remote.AssistantSpec) (remote.Assistant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("CreateAssistant")
	if s.CreateAssistantErr != nil {
		return remote.Assistant{}, s.CreateAssistantErr
	}
	s.spec = spec
	return remote.Assistant{
		ID:           "asst_1",
		Name:         spec.Name,
		Instructions: spec.Instructions,
		Model:        spec.Model,
		Tools:        spec.Tools,
	}, nil
}

func (s *Service) CreateThread(_ context.Context) (remote.Thread, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("CreateThread")
	if s.CreateThreadErr != nil {
		return remote.Thread{}, s.CreateThreadErr
	}
	return remote.Thread{ID: "thread_1"}, nil
}

func (s *Service) AppendMessage(_ context.Context, threadID, content string) (remote.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("AppendMessage")
	if s.AppendErr != nil {
		return remote.Message{}, s.AppendErr
	}
	return s.addMessageLocked(remote.RoleUser, content, ""), nil
}

func (s *Service) addMessageLocked(role remote.Role, content, runID string) remote.Message {
	s.msgSeq++
	m := remote.Message{ID: fmt.Sprintf("msg_%d", s.msgSeq), Role: role, Content: content, RunID: runID}
	s.messages = append(s.messages, m)
	return m
}

func (s *Service) CreateRun(_ context.Context, threadID, assistantID string) (remote.Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("CreateRun")
	if s.CreateRunErr != nil {
		return remote.Run{}, s.CreateRunErr
	}
	if s.runs == nil {
		s.runs = map[string]*fakeRun{}
	}
	s.runSeq++
	r := remote.Run{
		ID:          fmt.Sprintf("run_%d", s.runSeq),
		ThreadID:    threadID,
		AssistantID: assistantID,
		Status:      remote.RunStatusQueued,
	}
	s.runs[r.ID] = &fakeRun{run: r, script: append([]Step(nil), s.Script...)}
	return r, nil
}

func (s *Service) GetRun(_ context.Context, _ string, runID string) (remote.Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("GetRun")
	fr, ok := s.runs[runID]
	if !ok {
		return remote.Run{}, fmt.Errorf("run %s not found", runID)
	}
	if len(fr.script) > 0 {
		step := fr.script[0]
		if len(fr.script) > 1 {
			fr.script = fr.script[1:]
		}
		if step.Err != nil {
			return remote.Run{}, step.Err
		}
		fr.run.Status = step.Status
	}
	fr.run.ToolCalls = nil
	if fr.run.Status == remote.RunStatusRequiresAction {
		fr.run.ToolCalls = append([]remote.ToolCall(nil), s.ToolCalls...)
	}
	if fr.run.Status == remote.RunStatusCompleted && !fr.replied {
		fr.replied = true
		for _, text := range s.Replies {
			s.addMessageLocked(remote.RoleAssistant, text, runID)
		}
	}
	return fr.run, nil
}

func (s *Service) ListMessages(_ context.Context, _ string, _ string) ([]remote.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("ListMessages")
	if s.ListErr != nil {
		return nil, s.ListErr
	}
	return append([]remote.Message(nil), s.messages...), nil
}

func (s *Service) SubmitToolOutputs(_ context.Context, _ string, runID string, outputs []remote.ToolOutput) (remote.Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("SubmitToolOutputs")
	fr, ok := s.runs[runID]
	if !ok {
		return remote.Run{}, fmt.Errorf("run %s not found", runID)
	}
	s.submitted = append(s.submitted, outputs...)
	fr.script = append([]Step(nil), s.AfterSubmit...)
	fr.run.Status = remote.RunStatusQueued
	fr.run.ToolCalls = nil
	return fr.run, nil
}

func (s *Service) CancelRun(_ context.Context, _ string, runID string) (remote.Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("CancelRun")
	if s.CancelErr != nil {
		return remote.Run{}, s.CancelErr
	}
	fr, ok := s.runs[runID]
	if !ok {
		return remote.Run{}, fmt.Errorf("run %s not found", runID)
	}
	s.cancelled = append(s.cancelled, runID)
	fr.script = nil
	fr.run.Status = remote.RunStatusCancelled
	fr.run.ToolCalls = nil
	return fr.run, nil
}

// AddMessage appends a message to the thread directly, bypassing any run.
func (s *Service) AddMessage(role remote.Role, content, runID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.addMessageLocked(role, content, runID)
}

// Calls returns the operations invoked so far, in order.
func (s *Service) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

// Count returns how many times op was invoked.
func (s *Service) Count(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		if c == op {
			n++
		}
	}
	return n
}

// Spec returns the spec the assistant was created with.
func (s *Service) Spec() remote.AssistantSpec {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.spec
}

// Messages returns the thread contents.
func (s *Service) Messages() []remote.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]remote.Message(nil), s.messages...)
}

// Submitted returns all tool outputs submitted so far.
func (s *Service) Submitted() []remote.ToolOutput {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]remote.ToolOutput(nil), s.submitted...)
}

// Cancelled returns the ids of cancelled runs.
func (s *Service) Cancelled() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.cancelled...)
}
