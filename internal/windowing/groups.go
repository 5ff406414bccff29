// Package windowing chooses which part of a stored conversation is sent on a
// Messages call, so long threads stay within an input budget without ever
// separating a tool_use from its tool_result.
package windowing

import "github.com/anthropics/anthropic-sdk-go"

// GroupKind denotes the atomic unit a window includes or drops.
type GroupKind int

const (
	GroupSingleton GroupKind = iota
	GroupPair
)

// Group is the span conv[Start:End].
type Group struct {
	Kind  GroupKind
	Start int
	End   int
}

// Groups splits conv into atomic units, oldest first.
//
// A pair is an assistant message with tool_use blocks followed directly by a
// user message whose leading tool_result blocks answer exactly those ids. Text
// may follow the results. Every other message is a singleton.
func Groups(conv []anthropic.MessageParam) []Group {
	groups := make([]Group, 0, len(conv))
	for i := 0; i < len(conv); {
		if i+1 < len(conv) && isPair(conv[i], conv[i+1]) {
			groups = append(groups, Group{Kind: GroupPair, Start: i, End: i + 2})
			i += 2
			continue
		}
		groups = append(groups, Group{Kind: GroupSingleton, Start: i, End: i + 1})
		i++
	}
	return groups
}

func isPair(asst, user anthropic.MessageParam) bool {
	if asst.Role != anthropic.MessageParamRoleAssistant || user.Role != anthropic.MessageParamRoleUser {
		return false
	}
	uses := toolUseIDs(asst)
	if len(uses) == 0 {
		return false
	}
	results, ok := leadingResultIDs(user)
	return ok && sameIDs(uses, results)
}

func toolUseIDs(m anthropic.MessageParam) map[string]struct{} {
	ids := map[string]struct{}{}
	for _, blk := range m.Content {
		if tu := blk.OfToolUse; tu != nil && tu.ID != "" {
			ids[tu.ID] = struct{}{}
		}
	}
	return ids
}

// leadingResultIDs collects the tool_result ids at the head of m. It reports
// false when a tool_result appears after any other block.
func leadingResultIDs(m anthropic.MessageParam) (map[string]struct{}, bool) {
	ids := map[string]struct{}{}
	inHead := true
	for _, blk := range m.Content {
		tr := blk.OfToolResult
		if tr == nil {
			inHead = false
			continue
		}
		if !inHead {
			return nil, false
		}
		if tr.ToolUseID != "" {
			ids[tr.ToolUseID] = struct{}{}
		}
	}
	return ids, true
}

func sameIDs(a, b map[string]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for id := range a {
		if _, ok := b[id]; !ok {
			return false
		}
	}
	return true
}

// hasToolResult reports whether m carries any tool_result block.
func hasToolResult(m anthropic.MessageParam) bool {
	for _, blk := range m.Content {
		if blk.OfToolResult != nil {
			return true
		}
	}
	return false
}
