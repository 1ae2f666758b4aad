package driver

import (
	"context"
	"sort"
	"sync"

	"github.com/docugraph/docugraph/pkg/types"
)

type memNamespace struct {
	entities      map[string]*types.GlobalEntity // keyed by canonical
	relations     map[string]*types.GlobalRelation
	relationOrder []string
}

func newMemNamespace() *memNamespace {
	return &memNamespace{
		entities:  make(map[string]*types.GlobalEntity),
		relations: make(map[string]*types.GlobalRelation),
	}
}

// MemoryDriver implements GraphDriver in process memory, with the same
// merge-if-absent semantics as the Neo4j driver. It backs tests and the
// driverless development mode.
type MemoryDriver struct {
	mu         sync.RWMutex
	namespaces map[string]*memNamespace
	defaultNS  string
}

// NewMemoryDriver creates an empty in-memory store. defaultNS falls back to
// "neo4j" to mirror the server default.
func NewMemoryDriver(defaultNS string) *MemoryDriver {
	if defaultNS == "" {
		defaultNS = "neo4j"
	}
	d := &MemoryDriver{
		namespaces: make(map[string]*memNamespace),
		defaultNS:  defaultNS,
	}
	d.namespaces[defaultNS] = newMemNamespace()
	return d
}

func (d *MemoryDriver) resolve(namespace string) string {
	if namespace == "" {
		return d.defaultNS
	}
	return namespace
}

func (d *MemoryDriver) Provision(ctx context.Context, namespace string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	name := d.resolve(namespace)
	if _, ok := d.namespaces[name]; !ok {
		d.namespaces[name] = newMemNamespace()
	}
	return nil
}

func (d *MemoryDriver) UpsertEntities(ctx context.Context, namespace string, entities []*types.GlobalEntity) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	ns, ok := d.namespaces[d.resolve(namespace)]
	if !ok {
		return ErrNamespaceNotFound
	}
	for _, entity := range entities {
		if _, exists := ns.entities[entity.Canonical]; exists {
			continue // merge-if-absent: first-seen attributes win
		}
		clone := *entity
		ns.entities[entity.Canonical] = &clone
	}
	return nil
}

func relationKey(r *types.GlobalRelation) string {
	return r.FromCanonical + "\x00" + r.ToCanonical + "\x00" + r.Type
}

func (d *MemoryDriver) UpsertRelations(ctx context.Context, namespace string, relations []*types.GlobalRelation) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	ns, ok := d.namespaces[d.resolve(namespace)]
	if !ok {
		return ErrNamespaceNotFound
	}
	for _, relation := range relations {
		if _, hasFrom := ns.entities[relation.FromCanonical]; !hasFrom {
			continue
		}
		if _, hasTo := ns.entities[relation.ToCanonical]; !hasTo {
			continue
		}
		key := relationKey(relation)
		if _, exists := ns.relations[key]; exists {
			continue
		}
		clone := *relation
		ns.relations[key] = &clone
		ns.relationOrder = append(ns.relationOrder, key)
	}
	return nil
}

func (d *MemoryDriver) RetrieveGraph(ctx context.Context, namespace string) (*types.GraphView, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	ns, ok := d.namespaces[d.resolve(namespace)]
	if !ok {
		return nil, ErrNamespaceNotFound
	}

	view := &types.GraphView{Nodes: []types.GraphNode{}, Links: []types.GraphLink{}}
	seen := make(map[string]int)
	for _, key := range ns.relationOrder {
		relation := ns.relations[key]
		for _, canonical := range []string{relation.FromCanonical, relation.ToCanonical} {
			if _, ok := seen[canonical]; !ok {
				seen[canonical] = len(seen)
				view.Nodes = append(view.Nodes, types.GraphNode{ID: seen[canonical], Label: canonical})
			}
		}
		view.Links = append(view.Links, types.GraphLink{
			Source: relation.FromCanonical,
			Target: relation.ToCanonical,
			Label:  relation.Type,
		})
	}
	return view, nil
}

func (d *MemoryDriver) ListNamespaces(ctx context.Context) ([]string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	var names []string
	for name := range d.namespaces {
		if name == "system" || name == d.defaultNS {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (d *MemoryDriver) ClearNamespace(ctx context.Context, namespace string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	name := d.resolve(namespace)
	if _, ok := d.namespaces[name]; !ok {
		return ErrNamespaceNotFound
	}
	d.namespaces[name] = newMemNamespace()
	return nil
}

func (d *MemoryDriver) DefaultNamespace() string {
	return d.defaultNS
}

func (d *MemoryDriver) Close(ctx context.Context) error {
	return nil
}

// Stats reports entity and relation counts for a namespace. Tests use it to
// assert ingestion idempotence.
func (d *MemoryDriver) Stats(namespace string) (entityCount, relationCount int) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	ns, ok := d.namespaces[d.resolve(namespace)]
	if !ok {
		return 0, 0
	}
	return len(ns.entities), len(ns.relations)
}
