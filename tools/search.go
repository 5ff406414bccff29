package tools

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// SearchToolName is the function name the assistant invokes to start a product search.
const SearchToolName = "make_search_call"

type SearchInput struct {
	Keywords string `json:"keywords" jsonschema_description:"Three to five keywords to find the selected gift"`
}

var SearchDefinition = ToolDefinition{
	Name:        SearchToolName,
	Description: "Take in short keywords to find the selected gift",
	InputSchema: SearchInputSchema,
}

var SearchInputSchema = GenerateSchema[SearchInput]()

// SearchCall is a validated make_search_call invocation.
type SearchCall struct {
	CallID   string
	Query    string
	Keywords []string
}

// ParseSearchCall validates a tool call against the make_search_call schema and
// extracts its keywords. The query is the trimmed keywords argument; Keywords
// splits it on whitespace.
func ParseSearchCall(callID, name, arguments string) (SearchCall, error) {
	if name != SearchToolName {
		return SearchCall{}, fmt.Errorf("%w: unexpected tool %q", ErrInvalidToolCall, name)
	}
	if err := ValidateInput(SearchDefinition, arguments); err != nil {
		return SearchCall{}, err
	}
	query := strings.TrimSpace(gjson.Get(arguments, "keywords").String())
	if query == "" {
		return SearchCall{}, fmt.Errorf("%w: %s: keywords must not be empty", ErrInvalidToolCall, name)
	}
	return SearchCall{
		CallID:   callID,
		Query:    query,
		Keywords: strings.Fields(query),
	}, nil
}
