package windowing

import (
	"encoding/json"
	"unicode/utf8"

	"github.com/anthropics/anthropic-sdk-go"
)

// Counter estimates the input cost of one message.
type Counter interface {
	Count(m anthropic.MessageParam) int
}

// RuneCounter is a deterministic estimate: runes of text, of tool_result text
// and of the JSON-encoded tool_use input, plus blockOverhead per block.
type RuneCounter struct{}

const blockOverhead = 4

func (RuneCounter) Count(m anthropic.MessageParam) int {
	total := 0
	for _, blk := range m.Content {
		total += blockOverhead
		switch {
		case blk.OfText != nil:
			total += utf8.RuneCountInString(blk.OfText.Text)
		case blk.OfToolResult != nil:
			for _, c := range blk.OfToolResult.Content {
				if c.OfText != nil {
					total += utf8.RuneCountInString(c.OfText.Text)
				}
			}
		case blk.OfToolUse != nil:
			if raw, err := json.Marshal(blk.OfToolUse.Input); err == nil {
				total += utf8.RuneCount(raw)
			}
		}
	}
	return total
}

func countGroup(c Counter, g Group, conv []anthropic.MessageParam) int {
	total := 0
	for i := g.Start; i < g.End; i++ {
		total += c.Count(conv[i])
	}
	return total
}
