package extraction

import (
	"encoding/json"
	"strings"

	"github.com/docugraph/docugraph/pkg/types"
	"github.com/kaptinlin/jsonrepair"
)

// ParseResponse extracts the single embedded JSON object from the model's
// free-form message content. Parsing is best-effort: the first '{' through
// the last '}' is taken as the candidate span, repaired, and decoded. On any
// decode failure, or when no span exists at all, an empty result is returned
// rather than an error; one bad chunk degrades to no contribution, not a
// pipeline failure.
func ParseResponse(content string) types.ChunkResult {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start == -1 || end <= start {
		return emptyResult()
	}

	repaired, err := jsonrepair.JSONRepair(content[start : end+1])
	if err != nil {
		return emptyResult()
	}

	var result types.ChunkResult
	if err := json.Unmarshal([]byte(repaired), &result); err != nil {
		return emptyResult()
	}

	if result.Entities == nil {
		result.Entities = []types.Entity{}
	}
	if result.Relations == nil {
		result.Relations = []types.Relation{}
	}
	for i := range result.Relations {
		result.Relations[i].Confidence = clamp01(result.Relations[i].Confidence)
	}
	return result
}

func emptyResult() types.ChunkResult {
	return types.ChunkResult{
		Entities:  []types.Entity{},
		Relations: []types.Relation{},
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
