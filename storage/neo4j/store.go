// Copyright 2026 StrataDB
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package neo4j implements storage.GraphStore on a Neo4j server.
//
// Every node carries an Entity label plus id and namespace properties;
// relations use the single RELATED type. Namespace isolation is enforced in
// every query, so independent layers can share one Neo4j database.
package neo4j

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/stratadb/strata/core"
	"github.com/stratadb/strata/storage"
)

// Store is a GraphStore backed by a Neo4j driver. Construction performs no
// I/O; Initialize dials the server and verifies connectivity.
type Store struct {
	namespace string
	uri       string
	username  string
	password  string
	database  string
	logger    *slog.Logger

	mu     sync.Mutex
	driver neo4j.DriverWithContext
}

var _ storage.GraphStore = (*Store)(nil)

// New constructs a Store for the given namespace. It matches the
// storage.GraphFactory signature.
func New(namespace string, cfg storage.Config) (storage.GraphStore, error) {
	if ok, problems := storage.ValidateConfig(storage.KindGraph, cfg); !ok {
		return nil, fmt.Errorf("%w: %v", storage.ErrInvalidConfig, problems)
	}

	database := cfg.Database
	if database == "" {
		database = "neo4j"
	}

	return &Store{
		namespace: namespace,
		uri:       cfg.URI,
		username:  cfg.Username,
		password:  cfg.Password,
		database:  database,
		logger:    slog.Default().With("component", "neo4j-store", "namespace", namespace),
	}, nil
}

// Initialize dials the server and verifies connectivity.
func (s *Store) Initialize(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.driver != nil {
		return nil
	}

	driver, err := neo4j.NewDriverWithContext(s.uri, neo4j.BasicAuth(s.username, s.password, ""))
	if err != nil {
		return fmt.Errorf("creating neo4j driver: %w", err)
	}

	if err := driver.VerifyConnectivity(ctx); err != nil {
		driver.Close(ctx)
		return fmt.Errorf("connecting to neo4j: %w", err)
	}

	s.driver = driver
	return nil
}

// Finalize closes the driver and all pooled connections.
func (s *Store) Finalize(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.driver == nil {
		return nil
	}
	err := s.driver.Close(ctx)
	s.driver = nil
	return err
}

// Ping verifies server connectivity.
func (s *Store) Ping(ctx context.Context) error {
	driver, err := s.handle()
	if err != nil {
		return err
	}
	return driver.VerifyConnectivity(ctx)
}

func (s *Store) handle() (neo4j.DriverWithContext, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.driver == nil {
		return nil, storage.ErrStorageClosed
	}
	return s.driver, nil
}

func (s *Store) session(ctx context.Context, driver neo4j.DriverWithContext) neo4j.SessionWithContext {
	return driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: s.database})
}

// read runs a single-query read transaction.
func (s *Store) read(ctx context.Context, query string, params map[string]any) ([]*neo4j.Record, error) {
	driver, err := s.handle()
	if err != nil {
		return nil, err
	}
	session := s.session(ctx, driver)
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, query, params)
		if err != nil {
			return nil, err
		}
		return res.Collect(ctx)
	})
	if err != nil {
		return nil, err
	}
	return result.([]*neo4j.Record), nil
}

// write runs a single-query write transaction.
func (s *Store) write(ctx context.Context, query string, params map[string]any) error {
	driver, err := s.handle()
	if err != nil {
		return err
	}
	session := s.session(ctx, driver)
	defer session.Close(ctx)

	_, err = session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return tx.Run(ctx, query, params)
	})
	return err
}

// HasNode reports whether a node with the given ID exists.
func (s *Store) HasNode(ctx context.Context, id string) (bool, error) {
	records, err := s.read(ctx,
		`MATCH (n:Entity {id: $id, namespace: $ns}) RETURN count(n) AS c`,
		map[string]any{"id": id, "ns": s.namespace})
	if err != nil {
		return false, err
	}
	return recordCount(records) > 0, nil
}

// HasEdge reports whether an edge from src to dst exists.
func (s *Store) HasEdge(ctx context.Context, src, dst string) (bool, error) {
	records, err := s.read(ctx,
		`MATCH (:Entity {id: $src, namespace: $ns})-[r:RELATED]->(:Entity {id: $dst, namespace: $ns})
		 RETURN count(r) AS c`,
		map[string]any{"src": src, "dst": dst, "ns": s.namespace})
	if err != nil {
		return false, err
	}
	return recordCount(records) > 0, nil
}

// GetNode retrieves a node's properties.
func (s *Store) GetNode(ctx context.Context, id string) (map[string]string, error) {
	records, err := s.read(ctx,
		`MATCH (n:Entity {id: $id, namespace: $ns}) RETURN properties(n) AS props`,
		map[string]any{"id": id, "ns": s.namespace})
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: node %s", storage.ErrNotFound, id)
	}
	return recordProps(records[0], "props"), nil
}

// GetEdge retrieves an edge's properties.
func (s *Store) GetEdge(ctx context.Context, src, dst string) (map[string]string, error) {
	records, err := s.read(ctx,
		`MATCH (:Entity {id: $src, namespace: $ns})-[r:RELATED]->(:Entity {id: $dst, namespace: $ns})
		 RETURN properties(r) AS props`,
		map[string]any{"src": src, "dst": dst, "ns": s.namespace})
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: edge %s->%s", storage.ErrNotFound, src, dst)
	}
	return recordProps(records[0], "props"), nil
}

// NodeDegree returns the number of edges attached to a node.
// A missing node has degree zero.
func (s *Store) NodeDegree(ctx context.Context, id string) (int, error) {
	records, err := s.read(ctx,
		`MATCH (n:Entity {id: $id, namespace: $ns})
		 OPTIONAL MATCH (n)-[r:RELATED]-()
		 RETURN count(r) AS c`,
		map[string]any{"id": id, "ns": s.namespace})
	if err != nil {
		return 0, err
	}
	return recordCount(records), nil
}

// UpsertNode creates a node or merges properties into an existing one.
func (s *Store) UpsertNode(ctx context.Context, id string, props map[string]string) error {
	return s.write(ctx,
		`MERGE (n:Entity {id: $id, namespace: $ns}) SET n += $props`,
		map[string]any{"id": id, "ns": s.namespace, "props": toAnyMap(props)})
}

// UpsertEdge creates an edge or merges properties into an existing one.
// Both endpoints are created if absent.
func (s *Store) UpsertEdge(ctx context.Context, src, dst string, props map[string]string) error {
	return s.write(ctx,
		`MERGE (a:Entity {id: $src, namespace: $ns})
		 MERGE (b:Entity {id: $dst, namespace: $ns})
		 MERGE (a)-[r:RELATED]->(b)
		 SET r += $props`,
		map[string]any{"src": src, "dst": dst, "ns": s.namespace, "props": toAnyMap(props)})
}

// DeleteNode removes a node and all edges attached to it.
func (s *Store) DeleteNode(ctx context.Context, id string) error {
	return s.write(ctx,
		`MATCH (n:Entity {id: $id, namespace: $ns}) DETACH DELETE n`,
		map[string]any{"id": id, "ns": s.namespace})
}

// GetNodes retrieves properties for multiple nodes in one round trip.
func (s *Store) GetNodes(ctx context.Context, ids []string) (map[string]map[string]string, error) {
	records, err := s.read(ctx,
		`UNWIND $ids AS id
		 MATCH (n:Entity {id: id, namespace: $ns})
		 RETURN id, properties(n) AS props`,
		map[string]any{"ids": ids, "ns": s.namespace})
	if err != nil {
		return nil, err
	}

	nodes := make(map[string]map[string]string, len(records))
	for _, record := range records {
		id, _ := record.Get("id")
		nodes[fmt.Sprint(id)] = recordProps(record, "props")
	}
	return nodes, nil
}

// NodeDegrees returns degrees for multiple nodes in one round trip.
func (s *Store) NodeDegrees(ctx context.Context, ids []string) (map[string]int, error) {
	records, err := s.read(ctx,
		`UNWIND $ids AS id
		 MATCH (n:Entity {id: id, namespace: $ns})
		 OPTIONAL MATCH (n)-[r:RELATED]-()
		 RETURN id, count(r) AS c`,
		map[string]any{"ids": ids, "ns": s.namespace})
	if err != nil {
		return nil, err
	}

	degrees := make(map[string]int, len(records))
	for _, record := range records {
		id, _ := record.Get("id")
		c, _ := record.Get("c")
		count, _ := c.(int64)
		degrees[fmt.Sprint(id)] = int(count)
	}
	return degrees, nil
}

// GetEdges retrieves properties for multiple (src, dst) pairs in one round
// trip.
func (s *Store) GetEdges(ctx context.Context, pairs [][2]string) (map[[2]string]map[string]string, error) {
	plist := make([][]string, len(pairs))
	for i, p := range pairs {
		plist[i] = []string{p[0], p[1]}
	}

	records, err := s.read(ctx,
		`UNWIND $pairs AS p
		 MATCH (:Entity {id: p[0], namespace: $ns})-[r:RELATED]->(:Entity {id: p[1], namespace: $ns})
		 RETURN p[0] AS src, p[1] AS dst, properties(r) AS props`,
		map[string]any{"pairs": plist, "ns": s.namespace})
	if err != nil {
		return nil, err
	}

	edges := make(map[[2]string]map[string]string, len(records))
	for _, record := range records {
		src, _ := record.Get("src")
		dst, _ := record.Get("dst")
		edges[[2]string{fmt.Sprint(src), fmt.Sprint(dst)}] = recordProps(record, "props")
	}
	return edges, nil
}

// Neighborhood returns the subgraph reachable from the start node within
// maxDepth hops, capped at maxNodes. An empty start samples the whole
// namespace.
func (s *Store) Neighborhood(ctx context.Context, start string, maxDepth, maxNodes int) (*core.Subgraph, error) {
	if maxDepth < 1 {
		maxDepth = 1
	}
	if maxNodes < 1 {
		maxNodes = 100
	}

	var (
		records []*neo4j.Record
		err     error
	)
	if start == "" {
		records, err = s.read(ctx,
			`MATCH (n:Entity {namespace: $ns})
			 WITH n LIMIT $max
			 OPTIONAL MATCH (n)-[r:RELATED]->(m:Entity {namespace: $ns})
			 RETURN n.id AS src, properties(n) AS srcProps, m.id AS dst, properties(r) AS edgeProps`,
			map[string]any{"ns": s.namespace, "max": maxNodes})
	} else {
		// Variable-length bounds cannot be parameterized in Cypher.
		query := fmt.Sprintf(
			`MATCH (s:Entity {id: $start, namespace: $ns})
			 CALL {
			     WITH s
			     MATCH (s)-[*0..%d]-(n:Entity {namespace: $ns})
			     RETURN DISTINCT n LIMIT $max
			 }
			 OPTIONAL MATCH (n)-[r:RELATED]->(m:Entity {namespace: $ns})
			 RETURN n.id AS src, properties(n) AS srcProps, m.id AS dst, properties(r) AS edgeProps`,
			maxDepth)
		records, err = s.read(ctx, query,
			map[string]any{"start": start, "ns": s.namespace, "max": maxNodes})
	}
	if err != nil {
		return nil, err
	}

	sub := &core.Subgraph{}
	seen := make(map[string]bool)
	for _, record := range records {
		src, _ := record.Get("src")
		srcID := fmt.Sprint(src)
		if !seen[srcID] {
			seen[srcID] = true
			sub.Nodes = append(sub.Nodes, core.GraphNode{
				ID:         srcID,
				Properties: recordProps(record, "srcProps"),
			})
		}

		dst, _ := record.Get("dst")
		if dst == nil {
			continue
		}
		sub.Edges = append(sub.Edges, core.GraphEdge{
			Source:     srcID,
			Target:     fmt.Sprint(dst),
			Properties: recordProps(record, "edgeProps"),
		})
	}
	return sub, nil
}

// Drop removes every node and edge in the namespace.
func (s *Store) Drop(ctx context.Context) error {
	return s.write(ctx,
		`MATCH (n:Entity {namespace: $ns}) DETACH DELETE n`,
		map[string]any{"ns": s.namespace})
}

// recordCount extracts the integer "c" column from a count query.
func recordCount(records []*neo4j.Record) int {
	if len(records) == 0 {
		return 0
	}
	c, ok := records[0].Get("c")
	if !ok {
		return 0
	}
	count, _ := c.(int64)
	return int(count)
}

// recordProps extracts a property-map column, dropping the bookkeeping
// id/namespace keys and stringifying the rest.
func recordProps(record *neo4j.Record, column string) map[string]string {
	value, ok := record.Get(column)
	if !ok || value == nil {
		return map[string]string{}
	}
	raw, ok := value.(map[string]any)
	if !ok {
		return map[string]string{}
	}

	props := make(map[string]string, len(raw))
	for k, v := range raw {
		if k == "id" || k == "namespace" {
			continue
		}
		props[k] = fmt.Sprint(v)
	}
	return props
}

func toAnyMap(props map[string]string) map[string]any {
	out := make(map[string]any, len(props))
	for k, v := range props {
		out[k] = v
	}
	return out
}
