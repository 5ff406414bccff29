package telemetry

import (
	"os"
)

const defaultEventsDir = ".giftscout"

var observeEnabled bool

func init() {
	// Read once at process start. Mid-run environment changes have no effect,
	// except the explicit opt-in honoured by ObserveEnabled.
	observeEnabled = os.Getenv("GIFTSCOUT_OBSERVE_JSON") == "1"
}

// ObserveEnabled reports whether JSONL emission is on.
func ObserveEnabled() bool {
	// Allow tests to enable mid-run via env override.
	if os.Getenv("GIFTSCOUT_OBSERVE_JSON") == "1" {
		return true
	}
	return observeEnabled
}

// EventsDir is the directory events.jsonl is written to.
func EventsDir() string {
	if dir := os.Getenv("GIFTSCOUT_EVENTS_DIR"); dir != "" {
		return dir
	}
	return defaultEventsDir
}
