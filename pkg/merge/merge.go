// Package merge combines per-chunk extraction results into one consistent,
// deduplicated document graph. It is a pure function of its inputs: no
// network, no store, no clocks, so it can be tested against fixed fixtures
// and re-run deterministically.
package merge

import (
	"fmt"
	"strings"

	"github.com/docugraph/docugraph/pkg/types"
)

// DefaultTitle is used when no chunk produced a title.
const DefaultTitle = "graph"

// NormalizeKey computes the deduplication identity of an extracted entity:
// the canonical text, falling back to surface text and then the local id,
// lower-cased and whitespace-trimmed. Two entities with the same normalized
// key are the same real-world entity regardless of originating chunk or
// casing.
func NormalizeKey(e types.Entity) string {
	key := e.Canonical
	if key == "" {
		key = e.Text
	}
	if key == "" {
		key = e.ID
	}
	return strings.ToLower(strings.TrimSpace(key))
}

// Merge folds the ordered chunk results into one global entity set and one
// global relation set. Chunk order matters only for title choice and for
// which occurrence's attributes win; the deduplicated set itself is order
// independent. Relations whose endpoints do not resolve within their own
// chunk are dropped silently.
func Merge(results []types.ChunkResult) *types.MergedGraph {
	graph := &types.MergedGraph{
		Title:     DefaultTitle,
		Entities:  []*types.GlobalEntity{},
		Relations: []*types.GlobalRelation{},
	}

	// Arena of global entities plus an index from normalized key to arena
	// slot; global ids are derived from (chunk index, local id) at first
	// sight, so they can never collide across chunks.
	index := make(map[string]*types.GlobalEntity)
	titleSet := false

	for chunkIdx, result := range results {
		if !titleSet && strings.TrimSpace(result.Title) != "" {
			graph.Title = result.Title
			titleSet = true
		}

		// Local-to-global map for this chunk only. Later duplicates of a
		// local id within one response keep the first binding.
		local := make(map[string]*types.GlobalEntity, len(result.Entities))
		for _, entity := range result.Entities {
			key := NormalizeKey(entity)
			if key == "" {
				continue
			}
			global, seen := index[key]
			if !seen {
				global = &types.GlobalEntity{
					GlobalID:  fmt.Sprintf("c%d:%s", chunkIdx, entity.ID),
					Type:      entity.Type,
					Text:      entity.Text,
					Canonical: canonicalOf(entity),
				}
				index[key] = global
				graph.Entities = append(graph.Entities, global)
			}
			if _, bound := local[entity.ID]; !bound {
				local[entity.ID] = global
			}
		}

		for _, relation := range result.Relations {
			from, okFrom := local[relation.From]
			to, okTo := local[relation.To]
			if !okFrom || !okTo {
				// Unresolved endpoint: the chunk's extraction was
				// inconsistent. Drop, never fail.
				continue
			}
			graph.Relations = append(graph.Relations, &types.GlobalRelation{
				FromID:        from.GlobalID,
				ToID:          to.GlobalID,
				FromCanonical: from.Canonical,
				ToCanonical:   to.Canonical,
				Type:          relation.Type,
				Confidence:    relation.Confidence,
				EvidenceSpan:  relation.EvidenceSpan,
			})
		}
	}

	return graph
}

// canonicalOf picks the stored canonical text for a first-seen entity,
// applying the same fallback chain as the dedup key but preserving the
// original casing.
func canonicalOf(e types.Entity) string {
	if e.Canonical != "" {
		return e.Canonical
	}
	if e.Text != "" {
		return e.Text
	}
	return e.ID
}
