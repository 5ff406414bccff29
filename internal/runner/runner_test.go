package runner_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petasbytes/giftscout/internal/persona"
	"github.com/petasbytes/giftscout/internal/remote"
	"github.com/petasbytes/giftscout/internal/remote/remotetest"
	"github.com/petasbytes/giftscout/internal/runner"
	"github.com/petasbytes/giftscout/internal/session"
	"github.com/petasbytes/giftscout/memory"
	"github.com/petasbytes/giftscout/tools"
)

const (
	motherInput = "Meine Mutter kocht gerne"
	motherReply = "Magst du mir sagen, ob deine Mutter lieber mit Kochgeräten oder Lebensmitteln arbeitet?"
)

func steps(statuses ...remote.RunStatus) []remotetest.Step {
	out := make([]remotetest.Step, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, remotetest.Step{Status: s})
	}
	return out
}

func newRunner(svc remote.Service) *runner.Runner {
	r := runner.New(svc, tools.Registry())
	r.PollInterval = time.Millisecond
	r.PollTimeout = 2 * time.Second
	return r
}

func start(t *testing.T, svc remote.Service) *session.Session {
	t.Helper()
	s, err := session.Start(context.Background(), svc, persona.Default(persona.DefaultModel))
	require.NoError(t, err)
	return s
}

func TestSubmit_CompletedRunAppendsReply(t *testing.T) {
	svc := &remotetest.Service{
		Script:  steps(remote.RunStatusQueued, remote.RunStatusInProgress, remote.RunStatusCompleted),
		Replies: []string{motherReply},
	}
	s := start(t, svc)

	out, err := newRunner(svc).Submit(context.Background(), s, motherInput)
	require.NoError(t, err)

	require.NotNil(t, out.Reply)
	assert.Nil(t, out.Search)
	assert.Equal(t, motherReply, out.Reply.Content)
	assert.Equal(t, "run_1", out.Reply.RunID)
	assert.Equal(t, remote.RunStatusCompleted, out.Run.Status)
	assert.Equal(t, 3, out.Polls)

	turns := s.Transcript.Turns()
	require.Len(t, turns, 3)
	assert.Equal(t, persona.Greeting, turns[0].Content)
	assert.Equal(t, memory.OriginUser, turns[1].Origin)
	assert.Equal(t, motherInput, turns[1].Content)
	assert.Equal(t, memory.OriginAssistant, turns[2].Origin)
	assert.Equal(t, motherReply, turns[2].Content)
	assert.False(t, s.Transcript.Waiting())
	assert.False(t, s.Busy())

	assert.Equal(t, []string{
		"CreateAssistant", "CreateThread",
		"AppendMessage", "CreateRun",
		"GetRun", "GetRun", "GetRun",
		"ListMessages",
	}, svc.Calls())
}

func TestSubmit_TrimsInputBeforeCommit(t *testing.T) {
	svc := &remotetest.Service{Script: steps(remote.RunStatusCompleted), Replies: []string{"ok"}}
	s := start(t, svc)

	_, err := newRunner(svc).Submit(context.Background(), s, "  "+motherInput+"\n")
	require.NoError(t, err)

	msgs := svc.Messages()
	require.NotEmpty(t, msgs)
	assert.Equal(t, motherInput, msgs[0].Content)
	assert.Equal(t, motherInput, s.Transcript.Turns()[1].Content)
}

func TestSubmit_ExpiredRunAppendsNoReply(t *testing.T) {
	svc := &remotetest.Service{
		Script:  steps(remote.RunStatusQueued, remote.RunStatusInProgress, remote.RunStatusExpired),
		Replies: []string{motherReply},
	}
	s := start(t, svc)

	out, err := newRunner(svc).Submit(context.Background(), s, motherInput)
	require.Error(t, err)
	assert.ErrorIs(t, err, runner.ErrRunFailed)

	var runErr *runner.RunError
	require.ErrorAs(t, err, &runErr)
	assert.Equal(t, "run_1", runErr.RunID)
	assert.Equal(t, remote.RunStatusExpired, runErr.Status)

	assert.Nil(t, out.Reply)
	assert.Equal(t, 2, s.Transcript.Len())
	last, _ := s.Transcript.Last()
	assert.Equal(t, motherInput, last.Content)
	assert.False(t, s.Transcript.Waiting())
	assert.Zero(t, svc.Count("ListMessages"))
}

func TestSubmit_NonCompletedTerminalStatuses(t *testing.T) {
	for _, status := range []remote.RunStatus{remote.RunStatusFailed, remote.RunStatusCancelled, remote.RunStatusExpired} {
		t.Run(string(status), func(t *testing.T) {
			svc := &remotetest.Service{Script: steps(remote.RunStatusInProgress, status), Replies: []string{"nope"}}
			s := start(t, svc)

			_, err := newRunner(svc).Submit(context.Background(), s, "Hallo")
			require.ErrorIs(t, err, runner.ErrRunFailed)
			assert.Equal(t, 2, s.Transcript.Len())
			assert.False(t, s.Transcript.Waiting())
			assert.False(t, s.Busy())
		})
	}
}

func TestSubmit_TranscriptAlternatesAcrossSubmissions(t *testing.T) {
	svc := &remotetest.Service{
		Script:  steps(remote.RunStatusQueued, remote.RunStatusCompleted),
		Replies: []string{"Erzähl mir mehr."},
	}
	s := start(t, svc)
	r := newRunner(svc)

	const n = 4
	for i := 0; i < n; i++ {
		_, err := r.Submit(context.Background(), s, "Nachricht")
		require.NoError(t, err, "submission %d", i)
	}

	turns := s.Transcript.Turns()
	require.Len(t, turns, 1+2*n)
	assert.Equal(t, memory.OriginAssistant, turns[0].Origin)
	for i := 1; i < len(turns); i++ {
		want := memory.OriginUser
		if i%2 == 0 {
			want = memory.OriginAssistant
		}
		assert.Equal(t, want, turns[i].Origin, "turn %d", i)
	}
	// Each reply comes from its own run.
	assert.Equal(t, "run_1", turns[2].RunID)
	assert.Equal(t, "run_4", turns[8].RunID)
}

// waitingProbe records the transcript's waiting flag as seen by each remote call.
type waitingProbe struct {
	*remotetest.Service
	sess *session.Session

	mu   sync.Mutex
	seen map[string][]bool
}

func (w *waitingProbe) observe(op string) {
	if w.sess == nil {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.seen == nil {
		w.seen = map[string][]bool{}
	}
	w.seen[op] = append(w.seen[op], w.sess.Transcript.Waiting())
}

func (w *waitingProbe) AppendMessage(ctx context.Context, threadID, content string) (remote.Message, error) {
	w.observe("AppendMessage")
	return w.Service.AppendMessage(ctx, threadID, content)
}

func (w *waitingProbe) CreateRun(ctx context.Context, threadID, assistantID string) (remote.Run, error) {
	w.observe("CreateRun")
	return w.Service.CreateRun(ctx, threadID, assistantID)
}

func (w *waitingProbe) GetRun(ctx context.Context, threadID, runID string) (remote.Run, error) {
	w.observe("GetRun")
	return w.Service.GetRun(ctx, threadID, runID)
}

func (w *waitingProbe) CancelRun(ctx context.Context, threadID, runID string) (remote.Run, error) {
	w.observe("CancelRun")
	return w.Service.CancelRun(ctx, threadID, runID)
}

func TestSubmit_WaitingOnlyWhileRunActive(t *testing.T) {
	probe := &waitingProbe{Service: &remotetest.Service{
		Script:  steps(remote.RunStatusQueued, remote.RunStatusInProgress, remote.RunStatusCompleted),
		Replies: []string{motherReply},
	}}
	s := start(t, probe)
	probe.sess = s
	assert.False(t, s.Transcript.Waiting(), "no run before the first submission")

	_, err := newRunner(probe).Submit(context.Background(), s, motherInput)
	require.NoError(t, err)

	assert.Equal(t, []bool{false}, probe.seen["AppendMessage"])
	assert.Equal(t, []bool{false}, probe.seen["CreateRun"])
	assert.Equal(t, []bool{true, true, true}, probe.seen["GetRun"])
	assert.False(t, s.Transcript.Waiting())
}

func TestSubmit_NotWaitingWhileCancelling(t *testing.T) {
	probe := &waitingProbe{Service: &remotetest.Service{Script: steps(remote.RunStatusInProgress)}}
	s := start(t, probe)
	probe.sess = s
	r := newRunner(probe)
	r.PollTimeout = 20 * time.Millisecond

	_, err := r.Submit(context.Background(), s, motherInput)
	require.ErrorIs(t, err, runner.ErrPollTimeout)
	assert.Equal(t, []bool{false}, probe.seen["CancelRun"])
}

// blockingService parks the first GetRun until release is closed.
type blockingService struct {
	*remotetest.Service
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (b *blockingService) GetRun(ctx context.Context, threadID, runID string) (remote.Run, error) {
	b.once.Do(func() { close(b.entered) })
	<-b.release
	return b.Service.GetRun(ctx, threadID, runID)
}

func TestSubmit_RejectsResubmissionWhileInFlight(t *testing.T) {
	svc := &blockingService{
		Service: &remotetest.Service{
			Script:  steps(remote.RunStatusCompleted),
			Replies: []string{motherReply},
		},
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	s := start(t, svc)
	r := newRunner(svc)

	done := make(chan error, 1)
	go func() {
		_, err := r.Submit(context.Background(), s, motherInput)
		done <- err
	}()
	<-svc.entered

	assert.True(t, s.Transcript.Waiting())
	_, err := r.Submit(context.Background(), s, "Noch etwas")
	require.ErrorIs(t, err, runner.ErrBusy)

	close(svc.release)
	require.NoError(t, <-done)

	assert.Equal(t, 1, svc.Count("CreateRun"), "no second run may be created")
	assert.Equal(t, 1, svc.Count("AppendMessage"))
	assert.Equal(t, 3, s.Transcript.Len())
}

func TestSubmit_EmptyInputRejectedBeforeRemote(t *testing.T) {
	svc := &remotetest.Service{Script: steps(remote.RunStatusCompleted)}
	s := start(t, svc)

	for _, in := range []string{"", "   ", "\n\t "} {
		_, err := newRunner(svc).Submit(context.Background(), s, in)
		require.ErrorIs(t, err, runner.ErrEmptyInput)
	}
	assert.Equal(t, []string{"CreateAssistant", "CreateThread"}, svc.Calls())
	assert.Equal(t, 1, s.Transcript.Len())
	assert.False(t, s.Busy())
}

func TestSubmit_CommitFailureLeavesTranscriptUntouched(t *testing.T) {
	cause := errors.New("thread locked")
	svc := &remotetest.Service{AppendErr: cause}
	s := start(t, svc)

	_, err := newRunner(svc).Submit(context.Background(), s, motherInput)
	require.ErrorIs(t, err, runner.ErrCommit)
	assert.ErrorIs(t, err, cause)

	assert.Equal(t, 1, s.Transcript.Len())
	assert.Zero(t, svc.Count("CreateRun"))
	assert.False(t, s.Transcript.Waiting())
	assert.False(t, s.Busy(), "the user can retry")
}

func TestSubmit_RunStartFailureKeepsCommittedTurn(t *testing.T) {
	svc := &remotetest.Service{CreateRunErr: errors.New("rate limited")}
	s := start(t, svc)

	_, err := newRunner(svc).Submit(context.Background(), s, motherInput)
	require.ErrorIs(t, err, runner.ErrRunStart)

	assert.Equal(t, 2, s.Transcript.Len())
	assert.False(t, s.Transcript.Waiting())
	assert.Zero(t, svc.Count("GetRun"))
}

func TestSubmit_MissingReply(t *testing.T) {
	svc := &remotetest.Service{Script: steps(remote.RunStatusCompleted)}
	s := start(t, svc)
	// A reply from an unrelated run must not be picked up.
	svc.AddMessage(remote.RoleAssistant, "alte Antwort", "run_0")

	_, err := newRunner(svc).Submit(context.Background(), s, motherInput)
	require.ErrorIs(t, err, runner.ErrMissingReply)
	assert.ErrorIs(t, err, runner.ErrRunFailed)
	assert.Equal(t, 2, s.Transcript.Len())
	assert.False(t, s.Transcript.Waiting())
}

func TestSubmit_ListFailure(t *testing.T) {
	svc := &remotetest.Service{Script: steps(remote.RunStatusCompleted), ListErr: errors.New("502")}
	s := start(t, svc)

	_, err := newRunner(svc).Submit(context.Background(), s, motherInput)
	require.Error(t, err)
	assert.Equal(t, 2, s.Transcript.Len())
}

func TestSubmit_PollTimeoutCancelsRun(t *testing.T) {
	svc := &remotetest.Service{Script: steps(remote.RunStatusInProgress)}
	s := start(t, svc)
	r := newRunner(svc)
	r.PollTimeout = 30 * time.Millisecond

	out, err := r.Submit(context.Background(), s, motherInput)
	require.ErrorIs(t, err, runner.ErrPollTimeout)
	assert.NotErrorIs(t, err, runner.ErrRunFailed)

	assert.Equal(t, []string{"run_1"}, svc.Cancelled())
	assert.Equal(t, remote.RunStatusCancelled, out.Run.Status)
	assert.Greater(t, out.Polls, 1)
	assert.Equal(t, 2, s.Transcript.Len())
	assert.False(t, s.Transcript.Waiting())
}

func TestSubmit_CancelFailureStillReturnsTimeout(t *testing.T) {
	svc := &remotetest.Service{Script: steps(remote.RunStatusQueued), CancelErr: errors.New("gone")}
	s := start(t, svc)
	r := newRunner(svc)
	r.PollTimeout = 20 * time.Millisecond

	out, err := r.Submit(context.Background(), s, motherInput)
	require.ErrorIs(t, err, runner.ErrPollTimeout)
	assert.Equal(t, remote.RunStatusQueued, out.Run.Status)
}

func TestSubmit_ExponentialBackoffStillCompletes(t *testing.T) {
	svc := &remotetest.Service{
		Script:  steps(remote.RunStatusQueued, remote.RunStatusInProgress, remote.RunStatusInProgress, remote.RunStatusCompleted),
		Replies: []string{motherReply},
	}
	s := start(t, svc)
	r := newRunner(svc)
	r.PollMaxInterval = 4 * time.Millisecond

	out, err := r.Submit(context.Background(), s, motherInput)
	require.NoError(t, err)
	assert.Equal(t, 4, out.Polls)
}

func TestSubmit_ContextCancellationIsNotRetried(t *testing.T) {
	svc := &remotetest.Service{Script: steps(remote.RunStatusInProgress)}
	s := start(t, svc)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := newRunner(svc).Submit(ctx, s, motherInput)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.NotErrorIs(t, err, runner.ErrPollTimeout)
	assert.False(t, s.Transcript.Waiting())
	assert.False(t, s.Busy())
}

func TestSubmit_TransientPollErrorsWithinBudget(t *testing.T) {
	flaky := errors.New("connection reset")
	svc := &remotetest.Service{
		Script: []remotetest.Step{
			{Err: flaky},
			{Err: flaky},
			{Status: remote.RunStatusInProgress},
			{Err: flaky},
			{Status: remote.RunStatusCompleted},
		},
		Replies: []string{motherReply},
	}
	s := start(t, svc)
	r := newRunner(svc)
	r.MaxPollErrors = 2

	out, err := r.Submit(context.Background(), s, motherInput)
	require.NoError(t, err)
	assert.Equal(t, 5, out.Polls)
	require.NotNil(t, out.Reply)
}

func TestSubmit_TooManyPollErrors(t *testing.T) {
	flaky := errors.New("connection reset")
	svc := &remotetest.Service{Script: []remotetest.Step{{Err: flaky}}}
	s := start(t, svc)
	r := newRunner(svc)
	r.MaxPollErrors = 2

	out, err := r.Submit(context.Background(), s, motherInput)
	require.ErrorIs(t, err, flaky)
	assert.ErrorIs(t, err, runner.ErrPollTimeout)
	assert.Equal(t, []string{"run_1"}, svc.Cancelled(), "the run must not keep the thread busy")
	assert.Equal(t, remote.RunStatusCancelled, out.Run.Status)
	assert.Equal(t, 3, svc.Count("GetRun"))
	assert.Equal(t, 2, s.Transcript.Len())
	assert.False(t, s.Transcript.Waiting())
}

func TestSubmit_NextSubmissionAfterPollErrorsCommits(t *testing.T) {
	svc := &remotetest.Service{Script: []remotetest.Step{{Err: errors.New("connection reset")}}}
	s := start(t, svc)
	r := newRunner(svc)
	r.MaxPollErrors = 1

	_, err := r.Submit(context.Background(), s, motherInput)
	require.ErrorIs(t, err, runner.ErrPollTimeout)

	svc.Script = steps(remote.RunStatusCompleted)
	svc.Replies = []string{motherReply}
	out, err := r.Submit(context.Background(), s, "Sie kocht am liebsten Pasta")
	require.NoError(t, err)
	require.NotNil(t, out.Reply)
	assert.Equal(t, "run_2", out.Reply.RunID)
}

func searchToolCall(args string) []remote.ToolCall {
	return []remote.ToolCall{{ID: "call_1", Name: tools.SearchToolName, Arguments: args}}
}

func TestSubmit_SearchCallWithoutHandlerIsHandedBack(t *testing.T) {
	svc := &remotetest.Service{
		Script:    steps(remote.RunStatusQueued, remote.RunStatusRequiresAction),
		ToolCalls: searchToolCall(`{"keywords":"Lego Technik Auto"}`),
	}
	s := start(t, svc)

	out, err := newRunner(svc).Submit(context.Background(), s, "Er liebt Lego Technik und Autos")
	require.NoError(t, err)

	require.NotNil(t, out.Search)
	assert.Nil(t, out.Reply)
	assert.Equal(t, "call_1", out.Search.CallID)
	assert.Equal(t, "Lego Technik Auto", out.Search.Query)
	assert.Equal(t, []string{"Lego", "Technik", "Auto"}, out.Search.Keywords)

	assert.Equal(t, []string{"run_1"}, svc.Cancelled(), "the thread must accept the next message")
	assert.Equal(t, remote.RunStatusCancelled, out.Run.Status)
	assert.Empty(t, svc.Submitted())
	assert.Equal(t, 2, s.Transcript.Len())
	assert.False(t, s.Transcript.Waiting())
}

func TestSubmit_SearchCallWithHandlerSubmitsOutputs(t *testing.T) {
	svc := &remotetest.Service{
		Script:      steps(remote.RunStatusRequiresAction),
		AfterSubmit: steps(remote.RunStatusInProgress, remote.RunStatusCompleted),
		ToolCalls:   searchToolCall(`{"keywords":"Lego Technik Auto"}`),
		Replies:     []string{"Ich habe drei passende Sets gefunden."},
	}
	s := start(t, svc)

	var gotInput json.RawMessage
	search := tools.SearchDefinition
	search.Function = func(input json.RawMessage) (string, error) {
		gotInput = input
		return "3 Treffer", nil
	}
	r := newRunner(svc)
	r.Tools = []tools.ToolDefinition{search}

	out, err := r.Submit(context.Background(), s, "Er liebt Lego Technik und Autos")
	require.NoError(t, err)

	assert.JSONEq(t, `{"keywords":"Lego Technik Auto"}`, string(gotInput))
	assert.Equal(t, []remote.ToolOutput{{CallID: "call_1", Output: "3 Treffer"}}, svc.Submitted())
	assert.Empty(t, svc.Cancelled())
	require.NotNil(t, out.Reply)
	assert.Equal(t, "Ich habe drei passende Sets gefunden.", out.Reply.Content)
	assert.Equal(t, 3, out.Polls)
	assert.Equal(t, 3, s.Transcript.Len())
}

func TestSubmit_HandlerErrorIsReportedToRun(t *testing.T) {
	svc := &remotetest.Service{
		Script:      steps(remote.RunStatusRequiresAction),
		AfterSubmit: steps(remote.RunStatusCompleted),
		ToolCalls:   searchToolCall(`{"keywords":"Kochbuch"}`),
		Replies:     []string{"Die Suche ist gerade nicht verfügbar."},
	}
	s := start(t, svc)

	search := tools.SearchDefinition
	search.Function = func(json.RawMessage) (string, error) { return "", errors.New("shop offline") }
	r := newRunner(svc)
	r.Tools = []tools.ToolDefinition{search}

	_, err := r.Submit(context.Background(), s, "Ein Kochbuch vielleicht")
	require.NoError(t, err)
	require.Len(t, svc.Submitted(), 1)
	assert.Equal(t, "error: shop offline", svc.Submitted()[0].Output)
}

func TestSubmit_InvalidToolCallFailsRun(t *testing.T) {
	cases := map[string][]remote.ToolCall{
		"unknown tool":     {{ID: "call_1", Name: "delete_everything", Arguments: `{}`}},
		"missing keywords": searchToolCall(`{}`),
		"malformed json":   searchToolCall(`{"keywords":`),
		"no calls":         nil,
	}
	for name, calls := range cases {
		t.Run(name, func(t *testing.T) {
			svc := &remotetest.Service{Script: steps(remote.RunStatusRequiresAction), ToolCalls: calls}
			s := start(t, svc)

			out, err := newRunner(svc).Submit(context.Background(), s, "Hallo")
			require.ErrorIs(t, err, runner.ErrRunFailed)
			assert.ErrorIs(t, err, tools.ErrInvalidToolCall)
			assert.Nil(t, out.Search)
			assert.Equal(t, []string{"run_1"}, svc.Cancelled())
			assert.Equal(t, 2, s.Transcript.Len())
		})
	}
}

type priceInput struct {
	Product string `json:"product"`
}

func priceTool(fn func(json.RawMessage) (string, error)) tools.ToolDefinition {
	return tools.ToolDefinition{
		Name:        "lookup_price",
		Description: "Look up the current price of a product",
		InputSchema: tools.GenerateSchema[priceInput](),
		Function:    fn,
	}
}

func TestSubmit_OtherToolWithHandlerSubmitsOutputs(t *testing.T) {
	svc := &remotetest.Service{
		Script:      steps(remote.RunStatusRequiresAction),
		AfterSubmit: steps(remote.RunStatusCompleted),
		ToolCalls:   []remote.ToolCall{{ID: "call_7", Name: "lookup_price", Arguments: `{"product":"Lego 42143"}`}},
		Replies:     []string{"Das Set kostet gerade 449 Euro."},
	}
	s := start(t, svc)

	r := newRunner(svc)
	r.Tools = append(tools.Registry(), priceTool(func(json.RawMessage) (string, error) { return "449 EUR", nil }))

	out, err := r.Submit(context.Background(), s, "Was kostet das Set?")
	require.NoError(t, err)
	assert.Equal(t, []remote.ToolOutput{{CallID: "call_7", Output: "449 EUR"}}, svc.Submitted())
	assert.Empty(t, svc.Cancelled())
	require.NotNil(t, out.Reply)
	assert.Nil(t, out.Search)
}

func TestSubmit_OtherToolCallsAreValidated(t *testing.T) {
	cases := map[string]struct {
		def  tools.ToolDefinition
		args string
	}{
		"schema mismatch": {priceTool(func(json.RawMessage) (string, error) { return "", nil }), `{"product":7}`},
		"no handler":      {priceTool(nil), `{"product":"Lego 42143"}`},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			svc := &remotetest.Service{
				Script:    steps(remote.RunStatusRequiresAction),
				ToolCalls: []remote.ToolCall{{ID: "call_7", Name: "lookup_price", Arguments: tc.args}},
			}
			s := start(t, svc)
			r := newRunner(svc)
			r.Tools = append(tools.Registry(), tc.def)

			_, err := r.Submit(context.Background(), s, "Was kostet das Set?")
			require.ErrorIs(t, err, runner.ErrRunFailed)
			assert.ErrorIs(t, err, tools.ErrInvalidToolCall)
			assert.Empty(t, svc.Submitted())
			assert.Equal(t, []string{"run_1"}, svc.Cancelled())
		})
	}
}

func TestRunError_MatchesRunFailed(t *testing.T) {
	err := &runner.RunError{RunID: "run_9", Status: remote.RunStatusFailed, Reason: "server_error"}
	assert.ErrorIs(t, err, runner.ErrRunFailed)
	assert.Equal(t, "run run_9 ended failed: server_error", err.Error())
	assert.Equal(t, "run run_9 ended cancelled", (&runner.RunError{RunID: "run_9", Status: remote.RunStatusCancelled}).Error())
}
