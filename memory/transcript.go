package memory

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrEmptyTurn is returned when a turn would carry no visible text.
	ErrEmptyTurn = errors.New("turn content is empty")
	// ErrAlreadySeeded is returned when Seed is called on a non-empty transcript.
	ErrAlreadySeeded = errors.New("transcript already seeded")
)

// Origin identifies who authored a turn.
type Origin string

const (
	OriginUser      Origin = "user"
	OriginAssistant Origin = "assistant"
)

// Turn is one transcript entry. RunID is set on assistant turns extracted from a run.
type Turn struct {
	ID        uuid.UUID
	Origin    Origin
	Content   string
	RunID     string
	CreatedAt time.Time
}

// IsUser reports whether the turn was authored by the user.
func (t Turn) IsUser() bool { return t.Origin == OriginUser }

// Transcript is an ordered, append-only sequence of turns plus the waiting flag.
// It is safe for a renderer to read while a submission appends.
type Transcript struct {
	mu      sync.RWMutex
	turns   []Turn
	waiting bool
	now     func() time.Time
}

func NewTranscript() *Transcript {
	return &Transcript{now: time.Now}
}

// Seed appends the assistant greeting. It is only valid on an empty transcript.
func (t *Transcript) Seed(greeting string) (Turn, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.turns) > 0 {
		return Turn{}, ErrAlreadySeeded
	}
	return t.appendLocked(OriginAssistant, greeting, "")
}

// AppendUser appends a user turn. Text must contain non-whitespace content.
func (t *Transcript) AppendUser(text string) (Turn, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.appendLocked(OriginUser, text, "")
}

// AppendAssistant appends the reply extracted for runID.
func (t *Transcript) AppendAssistant(text, runID string) (Turn, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.appendLocked(OriginAssistant, text, runID)
}

func (t *Transcript) appendLocked(origin Origin, text, runID string) (Turn, error) {
	if strings.TrimSpace(text) == "" {
		return Turn{}, ErrEmptyTurn
	}
	turn := Turn{
		ID:        uuid.New(),
		Origin:    origin,
		Content:   text,
		RunID:     runID,
		CreatedAt: t.now(),
	}
	t.turns = append(t.turns, turn)
	return turn, nil
}

func (t *Transcript) SetWaiting(waiting bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.waiting = waiting
}

func (t *Transcript) Waiting() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.waiting
}

// Turns returns a copy of the transcript in display order.
func (t *Transcript) Turns() []Turn {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Turn, len(t.turns))
	copy(out, t.turns)
	return out
}

func (t *Transcript) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.turns)
}

// Last returns the most recent turn, if any.
func (t *Transcript) Last() (Turn, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if len(t.turns) == 0 {
		return Turn{}, false
	}
	return t.turns[len(t.turns)-1], true
}
