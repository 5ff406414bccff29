// Package runner drives one submission through the remote thread/run protocol
// and keeps the local transcript in step with it.
//
// Invariant:
//   - a user turn is appended only after the remote thread accepted it, and an
//     assistant turn only for a completed run that produced a reply.
//   - at most one submission is in flight per session; the transcript's
//     waiting flag is set while the run is being polled and cleared before
//     an abandoned run is cancelled.
//   - a run the runner gives up on is cancelled, so the thread accepts the
//     next message.
//
// Flow:
//
//	commit(user) -> run(queued) -> poll -> [requires_action -> tool outputs -> poll] -> completed -> reply(assistant)
package runner
