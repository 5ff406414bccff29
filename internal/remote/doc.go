// Package remote defines the typed view of the assistant service the session
// talks to: assistants, threads, runs and thread messages, plus the Service
// interface concrete backends implement.
//
// Invariant:
//   - a run is terminal once it reports completed, failed, cancelled or expired;
//     requires_action and cancelling are wire states of an active run.
//
// Lifecycle:
//
//	CreateAssistant -> CreateThread -> (AppendMessage -> CreateRun -> GetRun* -> ListMessages)*
package remote
