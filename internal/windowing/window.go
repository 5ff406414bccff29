package windowing

import "github.com/anthropics/anthropic-sdk-go"

// Stats describes a prepared window.
type Stats struct {
	Budget   int
	Total    int
	Included int // groups sent
	Dropped  int // older groups left out
	// OverBudget is set when no window fits, leaving nothing to send.
	OverBudget bool
}

// Window returns the longest suffix of conv that fits budget, never splits a
// group and opens with a user message carrying no tool results, as the
// Messages API requires.
func Window(conv []anthropic.MessageParam, budget int, c Counter) ([]anthropic.MessageParam, Stats) {
	if len(conv) == 0 {
		return nil, Stats{Budget: budget}
	}
	groups := Groups(conv)

	total := 0
	start, startTotal := -1, 0
	for gi := len(groups) - 1; gi >= 0; gi-- {
		cost := countGroup(c, groups[gi], conv)
		if total+cost > budget {
			break
		}
		total += cost
		if opensWindow(conv[groups[gi].Start]) {
			start, startTotal = gi, total
		}
	}

	if start < 0 {
		return nil, Stats{Budget: budget, Dropped: len(groups), OverBudget: true}
	}
	return conv[groups[start].Start:], Stats{
		Budget:   budget,
		Total:    startTotal,
		Included: len(groups) - start,
		Dropped:  start,
	}
}

func opensWindow(m anthropic.MessageParam) bool {
	return m.Role == anthropic.MessageParamRoleUser && !hasToolResult(m)
}
