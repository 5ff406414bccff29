package telemetry

import (
	"context"

	"github.com/petasbytes/giftscout/internal/metrics"
)

// EmitTextFeatures records size features of one turn's text under origin
// ("user" or "assistant"). The text itself is not written.
func EmitTextFeatures(ctx context.Context, origin, text string) {
	if !ObserveEnabled() {
		return
	}
	turnID, _ := TurnIDFromContext(ctx)
	f := metrics.CountFeatures(text)
	Emit("local_features", map[string]any{
		"turn_id":          turnID,
		"origin":           origin,
		"features_version": "1",
		"text": map[string]any{
			"bytes": f.Bytes,
			"runes": f.Runes,
			"words": f.Words,
			"lines": f.Lines,
		},
	})
}

// EmitPollStats records the outcome of polling one run.
func EmitPollStats(ctx context.Context, runID, outcome string, s metrics.PollStats) {
	turnID, _ := TurnIDFromContext(ctx)
	Emit("run_finished", map[string]any{
		"turn_id":      turnID,
		"run_id":       runID,
		"outcome":      outcome,
		"final_status": s.LastStatus,
		"polls":        s.Polls,
		"poll_errors":  s.Errors,
		"duration_ms":  s.Elapsed().Milliseconds(),
	})
}
