// Package telemetry writes opt-in JSONL events describing each submission.
// Events carry sizes, statuses and ids; conversation text is never written.
package telemetry

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

// Emit appends a single JSON line to <EventsDir>/events.jsonl when
// GIFTSCOUT_OBSERVE_JSON=1. The line carries fields plus "time" (RFC3339Nano)
// and "event"; same-named entries in fields are dropped.
func Emit(name string, fields map[string]any) {
	if !ObserveEnabled() {
		return
	}

	dir := EventsDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "telemetry: mkdir %s: %v\n", dir, err)
		return
	}

	path := filepath.Join(dir, "events.jsonl")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "telemetry: open %s: %v\n", path, err)
		return
	}
	defer f.Close()

	zl := zerolog.New(f)
	zl.Log().
		Fields(withoutReserved(fields)).
		Str("time", time.Now().UTC().Format(time.RFC3339Nano)).
		Str("event", name).
		Send()
}

// withoutReserved copies fields minus the keys Emit writes itself.
func withoutReserved(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		if k == "time" || k == "event" {
			continue
		}
		out[k] = v
	}
	return out
}
