package driver

import (
	"context"
	"fmt"

	"github.com/docugraph/docugraph/pkg/types"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// systemDatabase hosts Neo4j's administration commands.
const systemDatabase = "system"

// Neo4jDriver implements GraphDriver on a Neo4j server, mapping namespaces
// to Neo4j databases.
type Neo4jDriver struct {
	client    neo4j.DriverWithContext
	defaultDB string
}

// NewNeo4jDriver connects to a Neo4j server. defaultDB is the fallback
// database ("neo4j" when empty).
func NewNeo4jDriver(uri, username, password, defaultDB string) (*Neo4jDriver, error) {
	client, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, fmt.Errorf("failed to create neo4j driver: %w", err)
	}
	if defaultDB == "" {
		defaultDB = "neo4j"
	}
	return &Neo4jDriver{
		client:    client,
		defaultDB: defaultDB,
	}, nil
}

func (d *Neo4jDriver) database(namespace string) string {
	if namespace == "" {
		return d.defaultDB
	}
	return namespace
}

// Provision creates the database if absent. Administration commands must run
// in auto-commit transactions against the system database, so this bypasses
// the managed-transaction API.
func (d *Neo4jDriver) Provision(ctx context.Context, namespace string) error {
	session := d.client.NewSession(ctx, neo4j.SessionConfig{DatabaseName: systemDatabase})
	defer session.Close(ctx)

	query := fmt.Sprintf("CREATE DATABASE `%s` IF NOT EXISTS WAIT", d.database(namespace))
	result, err := session.Run(ctx, query, nil)
	if err != nil {
		return fmt.Errorf("failed to provision namespace %q: %w", namespace, err)
	}
	if _, err := result.Consume(ctx); err != nil {
		return fmt.Errorf("failed to provision namespace %q: %w", namespace, err)
	}
	return nil
}

// UpsertEntities merges entities by canonical text. Attributes are set only
// on creation; repeat ingestion never overwrites them.
func (d *Neo4jDriver) UpsertEntities(ctx context.Context, namespace string, entities []*types.GlobalEntity) error {
	session := d.client.NewSession(ctx, neo4j.SessionConfig{DatabaseName: d.database(namespace)})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		query := `
			MERGE (ent:Entity {canonical: $canonical})
			ON CREATE SET ent.type = $type, ent.text = $text
		`
		for _, entity := range entities {
			if _, err := tx.Run(ctx, query, map[string]any{
				"canonical": entity.Canonical,
				"type":      entity.Type,
				"text":      entity.Text,
			}); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("failed to upsert entities in %q: %w", namespace, err)
	}
	return nil
}

// UpsertRelations merges relations by the (from, to, type) triple.
// First-seen confidence and evidence win.
func (d *Neo4jDriver) UpsertRelations(ctx context.Context, namespace string, relations []*types.GlobalRelation) error {
	session := d.client.NewSession(ctx, neo4j.SessionConfig{DatabaseName: d.database(namespace)})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		query := `
			MATCH (a:Entity {canonical: $from_canonical})
			MATCH (b:Entity {canonical: $to_canonical})
			MERGE (a)-[rel:RELATION {type: $type}]->(b)
			ON CREATE SET rel.confidence = $confidence, rel.evidence = $evidence
		`
		for _, relation := range relations {
			if _, err := tx.Run(ctx, query, map[string]any{
				"from_canonical": relation.FromCanonical,
				"to_canonical":   relation.ToCanonical,
				"type":           relation.Type,
				"confidence":     relation.Confidence,
				"evidence":       relation.EvidenceSpan,
			}); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("failed to upsert relations in %q: %w", namespace, err)
	}
	return nil
}

// RetrieveGraph builds the node/link view from the stored relations.
func (d *Neo4jDriver) RetrieveGraph(ctx context.Context, namespace string) (*types.GraphView, error) {
	session := d.client.NewSession(ctx, neo4j.SessionConfig{DatabaseName: d.database(namespace)})
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		query := `
			MATCH (a:Entity)-[r:RELATION]->(b:Entity)
			RETURN a.canonical AS from, r.type AS type, b.canonical AS to
		`
		res, err := tx.Run(ctx, query, nil)
		if err != nil {
			return nil, err
		}

		view := &types.GraphView{Nodes: []types.GraphNode{}, Links: []types.GraphLink{}}
		seen := make(map[string]int)
		for res.Next(ctx) {
			record := res.Record()
			from, _ := record.Get("from")
			to, _ := record.Get("to")
			relType, _ := record.Get("type")

			fromS, fromOK := from.(string)
			toS, toOK := to.(string)
			typeS, _ := relType.(string)
			if !fromOK || !toOK {
				continue
			}
			for _, canonical := range []string{fromS, toS} {
				if _, ok := seen[canonical]; !ok {
					seen[canonical] = len(seen)
					view.Nodes = append(view.Nodes, types.GraphNode{ID: seen[canonical], Label: canonical})
				}
			}
			view.Links = append(view.Links, types.GraphLink{Source: fromS, Target: toS, Label: typeS})
		}
		return view, res.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve graph %q: %w", namespace, err)
	}
	return result.(*types.GraphView), nil
}

// ListNamespaces returns all databases except system and the default one.
func (d *Neo4jDriver) ListNamespaces(ctx context.Context) ([]string, error) {
	session := d.client.NewSession(ctx, neo4j.SessionConfig{DatabaseName: systemDatabase})
	defer session.Close(ctx)

	result, err := session.Run(ctx, "SHOW DATABASES YIELD name RETURN name", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list namespaces: %w", err)
	}

	var names []string
	for result.Next(ctx) {
		value, found := result.Record().Get("name")
		if !found {
			continue
		}
		name, ok := value.(string)
		if !ok || name == systemDatabase || name == d.defaultDB {
			continue
		}
		names = append(names, name)
	}
	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("failed to list namespaces: %w", err)
	}
	return names, nil
}

// ClearNamespace removes every node and relationship of the namespace.
func (d *Neo4jDriver) ClearNamespace(ctx context.Context, namespace string) error {
	session := d.client.NewSession(ctx, neo4j.SessionConfig{DatabaseName: d.database(namespace)})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return tx.Run(ctx, "MATCH (n) DETACH DELETE n", nil)
	})
	if err != nil {
		return fmt.Errorf("failed to clear namespace %q: %w", namespace, err)
	}
	return nil
}

// DefaultNamespace returns the fallback database name.
func (d *Neo4jDriver) DefaultNamespace() string {
	return d.defaultDB
}

// Close releases the underlying connection pool.
func (d *Neo4jDriver) Close(ctx context.Context) error {
	return d.client.Close(ctx)
}
