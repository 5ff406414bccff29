package remote

import (
	"github.com/petasbytes/giftscout/tools"
)

// AssistantSpec is the static configuration an assistant is created from.
type AssistantSpec struct {
	Name         string
	Instructions string
	Model        string
	Tools        []tools.ToolDefinition
}

// Assistant is the remote persona. It is never mutated after creation.
type Assistant struct {
	ID           string
	Name         string
	Instructions string
	Model        string
	Tools        []tools.ToolDefinition
}

// Thread is the remote conversation context.
type Thread struct {
	ID string
}

// Role identifies who authored a thread message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one thread message as listed by the remote service.
// Content is the concatenation of the message's text parts.
type Message struct {
	ID      string
	Role    Role
	Content string
	RunID   string
}

// RunStatus is the state of a run.
type RunStatus string

const (
	RunStatusQueued         RunStatus = "queued"
	RunStatusInProgress     RunStatus = "in_progress"
	RunStatusRequiresAction RunStatus = "requires_action"
	RunStatusCancelling     RunStatus = "cancelling"
	RunStatusCompleted      RunStatus = "completed"
	RunStatusFailed         RunStatus = "failed"
	RunStatusCancelled      RunStatus = "cancelled"
	RunStatusExpired        RunStatus = "expired"
)

// Terminal reports whether no further transitions follow s.
func (s RunStatus) Terminal() bool {
	switch s {
	case RunStatusCompleted, RunStatusFailed, RunStatusCancelled, RunStatusExpired:
		return true
	}
	return false
}

// ParseRunStatus maps a wire status onto the known set. Unknown values map to
// RunStatusFailed with ok=false so callers can record why.
func ParseRunStatus(s string) (status RunStatus, ok bool) {
	switch rs := RunStatus(s); rs {
	case RunStatusQueued, RunStatusInProgress, RunStatusRequiresAction, RunStatusCancelling,
		RunStatusCompleted, RunStatusFailed, RunStatusCancelled, RunStatusExpired:
		return rs, true
	}
	return RunStatusFailed, false
}

// ToolCall is a function invocation requested by a run in requires_action.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string
}

// ToolOutput answers one ToolCall.
type ToolOutput struct {
	CallID string
	Output string
}

// Run is one asynchronous execution of an assistant against a thread.
type Run struct {
	ID          string
	ThreadID    string
	AssistantID string
	Status      RunStatus
	ToolCalls   []ToolCall
	LastError   string
}
