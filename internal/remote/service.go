package remote

import "context"

// Service is the set of remote operations the session consumes.
type Service interface {
	CreateAssistant(ctx context.Context, spec AssistantSpec) (Assistant, error)
	CreateThread(ctx context.Context) (Thread, error)

	// AppendMessage commits a user-authored message to the thread.
	AppendMessage(ctx context.Context, threadID, content string) (Message, error)

	CreateRun(ctx context.Context, threadID, assistantID string) (Run, error)
	GetRun(ctx context.Context, threadID, runID string) (Run, error)

	// ListMessages returns thread messages in ascending creation order.
	// A non-empty runID lets backends that support it narrow the listing.
	ListMessages(ctx context.Context, threadID, runID string) ([]Message, error)

	SubmitToolOutputs(ctx context.Context, threadID, runID string, outputs []ToolOutput) (Run, error)
	CancelRun(ctx context.Context, threadID, runID string) (Run, error)
}
