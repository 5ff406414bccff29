package windowing_test

import (
	"github.com/anthropics/anthropic-sdk-go"
)

func text(s string) anthropic.ContentBlockParamUnion {
	return anthropic.NewTextBlock(s)
}

func toolUse(id string, input any) anthropic.ContentBlockParamUnion {
	return anthropic.ContentBlockParamUnion{OfToolUse: &anthropic.ToolUseBlockParam{ID: id, Name: "make_search_call", Input: input}}
}

func toolResult(id, s string) anthropic.ContentBlockParamUnion {
	return anthropic.NewToolResultBlock(id, s, false)
}

func asst(blocks ...anthropic.ContentBlockParamUnion) anthropic.MessageParam {
	return anthropic.MessageParam{Role: anthropic.MessageParamRoleAssistant, Content: blocks}
}

func user(blocks ...anthropic.ContentBlockParamUnion) anthropic.MessageParam {
	return anthropic.MessageParam{Role: anthropic.MessageParamRoleUser, Content: blocks}
}

// fixedCounter charges every message the same cost.
type fixedCounter int

func (c fixedCounter) Count(anthropic.MessageParam) int { return int(c) }
