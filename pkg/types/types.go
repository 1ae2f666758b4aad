// Package types defines the shared data model for the docugraph pipeline:
// the wire-level records returned by the extraction service for one chunk,
// the document-global records produced by the merge engine, and the node/link
// view served for visualization.
package types

// Entity is one entity as extracted from a single chunk. ID is unique only
// within the chunk's response and carries no meaning outside it.
type Entity struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	Text      string `json:"text"`
	Canonical string `json:"canonical"`
}

// Relation is one relation as extracted from a single chunk. From and To
// reference Entity.ID values from the same chunk's response.
type Relation struct {
	From         string  `json:"from"`
	To           string  `json:"to"`
	Type         string  `json:"type"`
	Confidence   float64 `json:"confidence"`
	EvidenceSpan string  `json:"evidence_span"`
}

// ChunkResult is the parsed response of the extraction service for one chunk.
// A chunk that could not be parsed degrades to an empty ChunkResult.
type ChunkResult struct {
	Title     string     `json:"title,omitempty"`
	Entities  []Entity   `json:"entities"`
	Relations []Relation `json:"relations"`
}

// Empty reports whether the chunk contributed nothing.
func (r *ChunkResult) Empty() bool {
	return r == nil || (r.Title == "" && len(r.Entities) == 0 && len(r.Relations) == 0)
}

// GlobalEntity is an entity after merging, unique per normalized canonical
// key across the whole document. GlobalID is stable for one merge operation.
type GlobalEntity struct {
	GlobalID  string `json:"global_id"`
	Type      string `json:"type"`
	Text      string `json:"text"`
	Canonical string `json:"canonical"`
}

// GlobalRelation is a relation re-keyed onto global entity identities. The
// merge engine resolves both canonical endpoints up front so that storage
// layers do not need an entity lookup of their own.
type GlobalRelation struct {
	FromID        string  `json:"from_id"`
	ToID          string  `json:"to_id"`
	FromCanonical string  `json:"from_canonical"`
	ToCanonical   string  `json:"to_canonical"`
	Type          string  `json:"type"`
	Confidence    float64 `json:"confidence"`
	EvidenceSpan  string  `json:"evidence_span"`
}

// MergedGraph is the deduplicated result of merging all chunk results of one
// document, in first-seen order.
type MergedGraph struct {
	Title     string            `json:"title"`
	Entities  []*GlobalEntity   `json:"entities"`
	Relations []*GlobalRelation `json:"relations"`
}

// GraphNode is one node of the visualization view. ID is assigned
// sequentially per retrieval call and is not persisted.
type GraphNode struct {
	ID    int    `json:"id"`
	Label string `json:"label"`
}

// GraphLink is one edge of the visualization view, endpoints referenced by
// canonical value.
type GraphLink struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Label  string `json:"label"`
}

// GraphView is the node/link shape consumed by the force-graph frontend.
type GraphView struct {
	Nodes []GraphNode `json:"nodes"`
	Links []GraphLink `json:"links"`
}
