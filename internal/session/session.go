// Package session creates the assistant and thread a conversation runs against
// and holds them, together with the transcript, in an explicit Session value.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/petasbytes/giftscout/internal/persona"
	"github.com/petasbytes/giftscout/internal/remote"
	"github.com/petasbytes/giftscout/memory"
)

// ErrInitialization wraps any failure to create the assistant or the thread.
var ErrInitialization = errors.New("session initialization failed")

// Session is one conversation: a single assistant, a single thread and the
// local transcript. At most one submission may be in flight at a time.
type Session struct {
	Assistant  remote.Assistant
	Thread     remote.Thread
	Transcript *memory.Transcript

	inFlight atomic.Bool
}

// Initialize creates the assistant, then the thread. Both succeed or neither
// identity is returned.
func Initialize(ctx context.Context, svc remote.Service, spec remote.AssistantSpec) (remote.Assistant, remote.Thread, error) {
	asst, err := svc.CreateAssistant(ctx, spec)
	if err != nil {
		return remote.Assistant{}, remote.Thread{}, fmt.Errorf("%w: create assistant: %w", ErrInitialization, err)
	}
	if asst.ID == "" {
		return remote.Assistant{}, remote.Thread{}, fmt.Errorf("%w: create assistant: empty id", ErrInitialization)
	}
	thread, err := svc.CreateThread(ctx)
	if err != nil {
		return remote.Assistant{}, remote.Thread{}, fmt.Errorf("%w: create thread: %w", ErrInitialization, err)
	}
	if thread.ID == "" {
		return remote.Assistant{}, remote.Thread{}, fmt.Errorf("%w: create thread: empty id", ErrInitialization)
	}
	return asst, thread, nil
}

// Start initializes remote identities for p and seeds a fresh transcript with
// its greeting. A failed Start leaves nothing behind locally and may be retried.
func Start(ctx context.Context, svc remote.Service, p persona.Persona) (*Session, error) {
	asst, thread, err := Initialize(ctx, svc, p.Spec)
	if err != nil {
		return nil, err
	}
	tr := memory.NewTranscript()
	if _, err := tr.Seed(p.Greeting); err != nil {
		return nil, fmt.Errorf("%w: seed transcript: %w", ErrInitialization, err)
	}
	return &Session{Assistant: asst, Thread: thread, Transcript: tr}, nil
}

// TryAcquire claims the session for one submission. It returns false when
// another submission is already in flight.
func (s *Session) TryAcquire() bool {
	return s.inFlight.CompareAndSwap(false, true)
}

// Release ends the submission claimed by TryAcquire.
func (s *Session) Release() {
	s.inFlight.Store(false)
}

// Busy reports whether a submission is in flight.
func (s *Session) Busy() bool {
	return s.inFlight.Load()
}
