// Package driver adapts graph database backends to the pipeline's storage
// contract: provision an isolated namespace per document, ingest merged
// entities and relations idempotently, and answer read-back queries for
// visualization.
package driver

import (
	"context"
	"errors"

	"github.com/docugraph/docugraph/pkg/types"
)

// ErrNamespaceNotFound is returned by reads against a namespace that was
// never provisioned.
var ErrNamespaceNotFound = errors.New("driver: namespace not found")

// GraphDriver is the storage contract of the pipeline.
//
// Ingestion is merge-if-absent: entity upserts are keyed by canonical text
// and never overwrite attributes on repeat ingestion; relation upserts are
// keyed by the (from, to, type) triple and keep first-seen confidence and
// evidence. Re-ingesting the same merged graph leaves counts unchanged,
// which is what makes failed runs safe to re-run.
type GraphDriver interface {
	// Provision creates the namespace if absent. Safe to call when it
	// already exists.
	Provision(ctx context.Context, namespace string) error

	// UpsertEntities ingests entities keyed by canonical text.
	UpsertEntities(ctx context.Context, namespace string, entities []*types.GlobalEntity) error

	// UpsertRelations ingests relations keyed by (from, to, type). Both
	// endpoints must already exist as entities in the namespace.
	UpsertRelations(ctx context.Context, namespace string, relations []*types.GlobalRelation) error

	// RetrieveGraph returns the node/link view of a namespace: one node per
	// distinct canonical value referenced by any stored relation, with ids
	// assigned sequentially per call.
	RetrieveGraph(ctx context.Context, namespace string) (*types.GraphView, error)

	// ListNamespaces returns all namespaces except the system-reserved and
	// default ones.
	ListNamespaces(ctx context.Context) ([]string, error)

	// ClearNamespace removes all content of the namespace, keeping the
	// namespace itself.
	ClearNamespace(ctx context.Context, namespace string) error

	// DefaultNamespace is the shared namespace runs fall back to when
	// provisioning an isolated one fails.
	DefaultNamespace() string

	// Close releases the underlying connections.
	Close(ctx context.Context) error
}
