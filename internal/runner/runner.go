package runner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/petasbytes/giftscout/internal/metrics"
	"github.com/petasbytes/giftscout/internal/remote"
	"github.com/petasbytes/giftscout/internal/session"
	"github.com/petasbytes/giftscout/internal/telemetry"
	"github.com/petasbytes/giftscout/memory"
	"github.com/petasbytes/giftscout/tools"
)

const (
	defaultPollInterval  = 5 * time.Second
	defaultPollTimeout   = 3 * time.Minute
	defaultMaxPollErrors = 3

	// cancelTimeout bounds the best-effort cancel, including waiting for the
	// run to leave cancelling.
	cancelTimeout = 30 * time.Second
)

// errNotSettled marks a poll that found the run still active. go-retry hands
// it back once the poll budget is spent.
var errNotSettled = errors.New("run still active")

// Outcome is what one submission produced. On success exactly one of Reply and
// Search is set.
type Outcome struct {
	Reply  *memory.Turn
	Search *tools.SearchCall
	Run    remote.Run
	Polls  int
}

type Runner struct {
	Service remote.Service
	Tools   []tools.ToolDefinition
	Logger  *slog.Logger

	PollInterval time.Duration
	// PollMaxInterval above PollInterval switches polling to exponential
	// backoff capped at this value.
	PollMaxInterval time.Duration
	PollTimeout     time.Duration
	// MaxPollErrors is the number of consecutive failed polls tolerated.
	MaxPollErrors int
}

func New(svc remote.Service, toolDefs []tools.ToolDefinition) *Runner {
	return &Runner{
		Service:       svc,
		Tools:         toolDefs,
		Logger:        slog.New(slog.DiscardHandler),
		PollInterval:  defaultPollInterval,
		PollTimeout:   defaultPollTimeout,
		MaxPollErrors: defaultMaxPollErrors,
	}
}

func (r *Runner) logger() *slog.Logger {
	if r.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return r.Logger
}

func (r *Runner) interval() time.Duration {
	if r.PollInterval <= 0 {
		return defaultPollInterval
	}
	return r.PollInterval
}

func (r *Runner) timeout() time.Duration {
	if r.PollTimeout <= 0 {
		return defaultPollTimeout
	}
	return r.PollTimeout
}

// Submit sends text as the next user turn and waits for the assistant's answer.
//
// The user turn reaches the transcript only once the thread accepted it. A
// completed run appends its reply as an assistant turn; every other ending
// leaves the transcript at the user turn. The session's gate and the
// transcript's waiting flag are released on every path.
func (r *Runner) Submit(ctx context.Context, s *session.Session, text string) (Outcome, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Outcome{}, ErrEmptyInput
	}
	if !s.TryAcquire() {
		return Outcome{}, ErrBusy
	}
	defer s.Release()

	ctx, turnID := telemetry.EnsureTurnID(ctx)
	log := r.logger().With("turn_id", turnID, "thread_id", s.Thread.ID)

	if _, err := r.Service.AppendMessage(ctx, s.Thread.ID, text); err != nil {
		log.Warn("commit failed", "err", err)
		return Outcome{}, fmt.Errorf("%w: %w", ErrCommit, err)
	}
	if _, err := s.Transcript.AppendUser(text); err != nil {
		return Outcome{}, err
	}
	telemetry.Emit("turn_committed", map[string]any{
		"turn_id":   turnID,
		"thread_id": s.Thread.ID,
	})
	telemetry.EmitTextFeatures(ctx, string(memory.OriginUser), text)

	run, err := r.Service.CreateRun(ctx, s.Thread.ID, s.Assistant.ID)
	if err != nil {
		log.Warn("run start failed", "err", err)
		return Outcome{}, fmt.Errorf("%w: %w", ErrRunStart, err)
	}
	s.Transcript.SetWaiting(true)
	defer s.Transcript.SetWaiting(false)

	log = log.With("run_id", run.ID)
	log.Debug("run started", "status", run.Status)
	telemetry.Emit("run_started", map[string]any{
		"turn_id":      turnID,
		"thread_id":    s.Thread.ID,
		"run_id":       run.ID,
		"assistant_id": s.Assistant.ID,
		"status":       string(run.Status),
	})

	stats := metrics.StartPoll(time.Now())
	out, err := r.drive(ctx, log, s, run, &stats)
	stats.Finish(time.Now())
	out.Polls = stats.Polls
	telemetry.EmitPollStats(ctx, run.ID, outcomeLabel(out, err), stats)

	if err != nil {
		log.Warn("submission failed", "err", err, "status", out.Run.Status, "polls", stats.Polls)
		return out, err
	}
	log.Info("run finished", "status", out.Run.Status, "polls", stats.Polls, "elapsed", stats.Elapsed())
	return out, nil
}

// drive polls run to its end, answering tool calls that have a local handler.
// Tool submissions continue under the deadline of the first poll.
func (r *Runner) drive(ctx context.Context, log *slog.Logger, s *session.Session, run remote.Run, stats *metrics.PollStats) (Outcome, error) {
	deadline := time.Now().Add(r.timeout())
	for {
		polled, err := r.poll(ctx, log, s.Thread.ID, run, deadline, stats)
		if err != nil {
			if ctx.Err() == nil {
				polled = r.abandon(ctx, log, s, polled)
			}
			return Outcome{Run: polled}, err
		}
		run = polled
		if run.Status != remote.RunStatusRequiresAction {
			break
		}

		outputs, search, err := r.callTools(ctx, log, run)
		if err != nil {
			run = r.abandon(ctx, log, s, run)
			return Outcome{Run: run}, fmt.Errorf("run %s: %w: %w", run.ID, ErrRunFailed, err)
		}
		if search != nil {
			// Nothing here can answer the call; free the thread and hand the
			// search to the caller.
			run = r.abandon(ctx, log, s, run)
			log.Info("search requested", "query", search.Query)
			return Outcome{Run: run, Search: search}, nil
		}

		submitted, err := r.Service.SubmitToolOutputs(ctx, s.Thread.ID, run.ID, outputs)
		if err != nil {
			run = r.abandon(ctx, log, s, run)
			return Outcome{Run: run}, fmt.Errorf("%w: submit tool outputs for run %s: %w", ErrRunFailed, run.ID, err)
		}
		run = submitted
	}
	return r.finish(ctx, s, run)
}

// finish turns a terminal run into the submission's result.
func (r *Runner) finish(ctx context.Context, s *session.Session, run remote.Run) (Outcome, error) {
	out := Outcome{Run: run}
	if run.Status != remote.RunStatusCompleted {
		return out, &RunError{RunID: run.ID, Status: run.Status, Reason: run.LastError}
	}

	msgs, err := r.Service.ListMessages(ctx, s.Thread.ID, run.ID)
	if err != nil {
		return out, fmt.Errorf("list messages for run %s: %w", run.ID, err)
	}
	reply, ok := selectReply(msgs, run.ID)
	if !ok {
		return out, fmt.Errorf("run %s: %w", run.ID, ErrMissingReply)
	}
	turn, err := s.Transcript.AppendAssistant(reply.Content, run.ID)
	if err != nil {
		return out, err
	}
	telemetry.EmitTextFeatures(ctx, string(memory.OriginAssistant), reply.Content)
	out.Reply = &turn
	return out, nil
}

// selectReply picks the reply for runID from msgs, which are in ascending
// creation order: the last assistant message tagged with runID. Messages with
// no text are skipped.
func selectReply(msgs []remote.Message, runID string) (remote.Message, bool) {
	for i := len(msgs) - 1; i >= 0; i-- {
		m := msgs[i]
		if m.Role == remote.RoleAssistant && m.RunID == runID && strings.TrimSpace(m.Content) != "" {
			return m, true
		}
	}
	return remote.Message{}, false
}

func (r *Runner) backoff(budget time.Duration) retry.Backoff {
	var b retry.Backoff
	if r.PollMaxInterval > r.interval() {
		b = retry.WithCappedDuration(r.PollMaxInterval, retry.NewExponential(r.interval()))
	} else {
		b = retry.NewConstant(r.interval())
	}
	return retry.WithMaxDuration(budget, b)
}

// poll reads run until it is terminal or requires action. It returns the last
// run observed together with any error.
func (r *Runner) poll(ctx context.Context, log *slog.Logger, threadID string, run remote.Run, deadline time.Time, stats *metrics.PollStats) (remote.Run, error) {
	remaining := time.Until(deadline)
	if remaining <= 0 {
		return run, fmt.Errorf("run %s: %w", run.ID, ErrPollTimeout)
	}
	turnID, _ := telemetry.TurnIDFromContext(ctx)

	latest := run
	failures := 0
	got, err := retry.DoValue(ctx, r.backoff(remaining), func(ctx context.Context) (remote.Run, error) {
		cur, err := r.Service.GetRun(ctx, threadID, run.ID)
		if err != nil {
			if ctx.Err() != nil {
				return remote.Run{}, ctx.Err()
			}
			stats.ObserveError()
			failures++
			if failures > r.MaxPollErrors {
				return remote.Run{}, fmt.Errorf("poll run %s: %d consecutive errors: %w: %w", run.ID, failures, ErrPollTimeout, err)
			}
			log.Debug("poll failed", "err", err, "consecutive", failures)
			return remote.Run{}, retry.RetryableError(fmt.Errorf("%w: %w", errNotSettled, err))
		}

		failures = 0
		stats.Observe(string(cur.Status))
		latest = cur
		telemetry.Emit("run_polled", map[string]any{
			"turn_id": turnID,
			"run_id":  run.ID,
			"status":  string(cur.Status),
			"poll":    stats.Polls,
		})
		if cur.Status.Terminal() || cur.Status == remote.RunStatusRequiresAction {
			return cur, nil
		}
		return remote.Run{}, retry.RetryableError(errNotSettled)
	})

	switch {
	case err == nil:
		return got, nil
	case errors.Is(err, errNotSettled):
		return latest, fmt.Errorf("run %s still %s after %s: %w", run.ID, latest.Status, r.timeout(), ErrPollTimeout)
	case ctx.Err() != nil:
		return latest, fmt.Errorf("poll run %s: %w", run.ID, ctx.Err())
	}
	return latest, err
}

// abandon stops waiting on run and cancels it, so the transcript is no longer
// marked as waiting while the remote settles.
func (r *Runner) abandon(ctx context.Context, log *slog.Logger, s *session.Session, run remote.Run) remote.Run {
	s.Transcript.SetWaiting(false)
	return r.cancel(ctx, log, s.Thread.ID, run)
}

// cancel asks the remote to cancel run and waits for it to leave cancelling so
// the thread accepts new messages. Failures are logged and the best known run
// state is returned.
func (r *Runner) cancel(ctx context.Context, log *slog.Logger, threadID string, run remote.Run) remote.Run {
	if run.Status.Terminal() {
		return run
	}
	ctx, stop := context.WithTimeout(context.WithoutCancel(ctx), cancelTimeout)
	defer stop()

	cur, err := r.Service.CancelRun(ctx, threadID, run.ID)
	if err != nil {
		log.Warn("cancel run failed", "err", err)
		return run
	}
	if cur.Status.Terminal() {
		return cur
	}

	b := retry.WithMaxDuration(cancelTimeout, retry.NewConstant(r.interval()))
	settled, err := retry.DoValue(ctx, b, func(ctx context.Context) (remote.Run, error) {
		got, err := r.Service.GetRun(ctx, threadID, run.ID)
		if err != nil {
			return remote.Run{}, retry.RetryableError(err)
		}
		if !got.Status.Terminal() {
			return remote.Run{}, retry.RetryableError(errNotSettled)
		}
		return got, nil
	})
	if err != nil {
		log.Warn("run did not settle after cancel", "err", err)
		return cur
	}
	return settled
}

// callTools validates the calls of a run in requires_action against their
// declared schemas. Calls whose tool has a Function are executed and their
// outputs returned. A search call without a handler is returned instead and
// nothing is executed.
func (r *Runner) callTools(ctx context.Context, log *slog.Logger, run remote.Run) ([]remote.ToolOutput, *tools.SearchCall, error) {
	if len(run.ToolCalls) == 0 {
		return nil, nil, fmt.Errorf("%w: run requires action without tool calls", tools.ErrInvalidToolCall)
	}

	type pending struct {
		call remote.ToolCall
		def  tools.ToolDefinition
	}
	var runnable []pending
	var search *tools.SearchCall
	for _, tc := range run.ToolCalls {
		def, ok := tools.Lookup(r.Tools, tc.Name)
		if tc.Name == tools.SearchToolName {
			call, err := tools.ParseSearchCall(tc.ID, tc.Name, tc.Arguments)
			if err != nil {
				return nil, nil, err
			}
			if !ok || def.Function == nil {
				if search == nil {
					search = &call
				}
				continue
			}
		} else {
			if !ok {
				return nil, nil, fmt.Errorf("%w: unexpected tool %q", tools.ErrInvalidToolCall, tc.Name)
			}
			if def.Function == nil {
				return nil, nil, fmt.Errorf("%w: no handler for tool %q", tools.ErrInvalidToolCall, tc.Name)
			}
			if err := tools.ValidateInput(def, tc.Arguments); err != nil {
				return nil, nil, err
			}
		}
		runnable = append(runnable, pending{call: tc, def: def})
	}
	if search != nil {
		return nil, search, nil
	}

	turnID, _ := telemetry.TurnIDFromContext(ctx)
	outputs := make([]remote.ToolOutput, 0, len(runnable))
	for _, p := range runnable {
		start := time.Now()
		res, err := p.def.Function(json.RawMessage(p.call.Arguments))
		var errField any
		if err != nil {
			// Assistants tool outputs carry no error flag; the model reads it from the text.
			res = "error: " + err.Error()
			errField = "tool error"
			log.Warn("tool failed", "tool", p.call.Name, "call_id", p.call.ID, "err", err)
		}
		telemetry.Emit("tool_exec", map[string]any{
			"turn_id":     turnID,
			"run_id":      run.ID,
			"tool_name":   p.call.Name,
			"duration_ms": time.Since(start).Milliseconds(),
			"input_size":  len(p.call.Arguments),
			"output_size": len(res),
			"error":       errField,
		})
		outputs = append(outputs, remote.ToolOutput{CallID: p.call.ID, Output: res})
	}
	return outputs, nil, nil
}

func outcomeLabel(out Outcome, err error) string {
	switch {
	case errors.Is(err, ErrPollTimeout):
		return "timeout"
	case errors.Is(err, ErrRunFailed):
		return "failed"
	case err != nil:
		return "error"
	case out.Search != nil:
		return "search"
	}
	return "reply"
}
