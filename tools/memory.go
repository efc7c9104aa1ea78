package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/becomeliminal/acc-agent/core"
	"github.com/becomeliminal/acc-agent/oracle"
)

const (
	// SearchMemoryName is the only capability exposed to the response oracle.
	SearchMemoryName = "search_memory"

	// SearchMemoryResults is how many recall results one search joins.
	SearchMemoryResults = 3

	// NoMemoryFound is returned when recall yields nothing.
	NoMemoryFound = "No relevant information found in memory."
)

// Recaller is the part of the artifact store the capability needs.
type Recaller interface {
	Recall(ctx context.Context, query string, k int) []string
}

// SearchMemoryDefinition declares the search_memory capability.
func SearchMemoryDefinition() oracle.Tool {
	return oracle.Tool{
		Name: SearchMemoryName,
		Description: "Search long-term memory for facts, past conversations and stored artifacts. " +
			"Use this when the current cognitive state does not contain the information needed to answer.",
		InputSchema: BuildSchemaWithThought(map[string]interface{}{
			"query": StringProperty("Free-text description of what to look for"),
		}, false, "query"),
	}
}

// SearchMemory executes search_memory calls against a Recaller.
type SearchMemory struct {
	store Recaller
}

// NewSearchMemory creates the capability.
func NewSearchMemory(store Recaller) *SearchMemory {
	return &SearchMemory{store: store}
}

// Execute runs one call. The returned string is the capability result shown
// to the oracle; malformed input is reported as an error.
func (s *SearchMemory) Execute(ctx context.Context, args json.RawMessage) (string, core.SearchMemoryInput, error) {
	var input core.SearchMemoryInput
	if err := json.Unmarshal(args, &input); err != nil {
		return "", input, fmt.Errorf("invalid search_memory input: %w", err)
	}
	if strings.TrimSpace(input.Query) == "" {
		return "", input, fmt.Errorf("search_memory requires a query")
	}
	return s.Search(ctx, input.Query), input, nil
}

// Search recalls up to SearchMemoryResults artifacts and joins them.
func (s *SearchMemory) Search(ctx context.Context, query string) string {
	results := s.store.Recall(ctx, query, SearchMemoryResults)
	if len(results) == 0 {
		return NoMemoryFound
	}
	return strings.Join(results, "\n\n")
}
