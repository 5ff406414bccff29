// Package memory holds the session transcript.
//
// Model:
//   - Turns are append-only and immutable; order is display order and mirrors
//     the order turns were committed to the remote thread.
//   - The greeting is local only and seeds an empty transcript.
//   - The waiting flag is set while a run is in flight and gates new input.
//   - Nothing is persisted; the transcript lives as long as its session.
package memory
