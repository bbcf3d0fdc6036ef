//go:build cgo

package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	kuzu "github.com/kuzudb/go-kuzu"
)

// KuzuStore implements the Store interface using KuzuDB as the graph backend.
// It requires CGO because the go-kuzu driver wraps KuzuDB's C library.
//
// Relations between two stored entities become RELATES edges. Relations with
// a missing endpoint are kept in the Dangling node table so that ReadGraph
// returns exactly what was written.
type KuzuStore struct {
	db   *kuzu.Database
	conn *kuzu.Connection

	mu  sync.Mutex
	seq int64 // insertion counter shared by entities and relations
}

// Compile-time check that KuzuStore satisfies Store.
var _ Store = (*KuzuStore)(nil)

// NewKuzuStore creates a KuzuStore backed by an in-memory KuzuDB instance.
func NewKuzuStore() (*KuzuStore, error) {
	cfg := kuzu.DefaultSystemConfig()
	db, err := kuzu.OpenDatabase(":memory:", cfg)
	if err != nil {
		return nil, fmt.Errorf("kuzu: open database: %w", err)
	}
	conn, err := kuzu.OpenConnection(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("kuzu: open connection: %w", err)
	}
	return &KuzuStore{db: db, conn: conn}, nil
}

// NewKuzuFileStore creates a KuzuStore backed by a file-based KuzuDB at the
// given directory path. KuzuDB creates the directory itself for new databases.
// This is how a reference corpus is persisted for use as an external index.
func NewKuzuFileStore(dbPath string) (*KuzuStore, error) {
	// Ensure parent directory exists (KuzuDB creates the leaf directory).
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("kuzu: create parent directory: %w", err)
	}
	cfg := kuzu.DefaultSystemConfig()
	db, err := kuzu.OpenDatabase(dbPath, cfg)
	if err != nil {
		return nil, fmt.Errorf("kuzu: open file database: %w", err)
	}
	conn, err := kuzu.OpenConnection(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("kuzu: open connection: %w", err)
	}
	return &KuzuStore{db: db, conn: conn}, nil
}

// Close releases the KuzuDB connection and database.
func (s *KuzuStore) Close() error {
	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
	}
	if s.db != nil {
		s.db.Close()
		s.db = nil
	}
	return nil
}

// ---------- Schema setup ----------

// ddlStatements defines the Cypher DDL executed by InitSchema.
// Order matters: node tables must precede relationship tables.
var ddlStatements = []string{
	`CREATE NODE TABLE IF NOT EXISTS Entity(
		name STRING,
		entity_type STRING,
		observations STRING,
		seq INT64,
		PRIMARY KEY(name)
	)`,
	`CREATE NODE TABLE IF NOT EXISTS Dangling(
		seq INT64,
		from_name STRING,
		to_name STRING,
		relation_type STRING,
		qualification STRING,
		PRIMARY KEY(seq)
	)`,
	`CREATE REL TABLE IF NOT EXISTS RELATES(
		FROM Entity TO Entity,
		relation_type STRING,
		qualification STRING,
		seq INT64
	)`,
}

// InitSchema creates all tables if they do not exist and resumes the
// insertion counter of an existing database.
func (s *KuzuStore) InitSchema(_ context.Context) error {
	for _, stmt := range ddlStatements {
		res, err := s.conn.Query(stmt)
		if err != nil {
			return fmt.Errorf("kuzu: init schema: %w", err)
		}
		res.Close()
	}

	var maxSeq int64
	for _, cypher := range []string{
		"MATCH (e:Entity) RETURN max(e.seq)",
		"MATCH (d:Dangling) RETURN max(d.seq)",
		"MATCH ()-[r:RELATES]->() RETURN max(r.seq)",
	} {
		rows, err := s.query(cypher, nil)
		if err != nil {
			return err
		}
		if len(rows) > 0 && len(rows[0]) > 0 && rows[0][0] != nil {
			if v := int64(toInt(rows[0][0])); v > maxSeq {
				maxSeq = v
			}
		}
	}
	s.mu.Lock()
	s.seq = maxSeq
	s.mu.Unlock()
	return nil
}

// ---------- Write operations ----------

func (s *KuzuStore) nextSeq() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	return s.seq
}

// AddEntity upserts an Entity node. An existing entity keeps its position.
func (s *KuzuStore) AddEntity(_ context.Context, entity Entity) error {
	obs, err := json.Marshal(entity.Observations)
	if err != nil {
		return fmt.Errorf("kuzu: encode observations: %w", err)
	}
	return s.exec(
		`MERGE (e:Entity {name: $name})
		 ON CREATE SET e.entity_type = $type, e.observations = $obs, e.seq = $seq
		 ON MATCH SET e.entity_type = $type, e.observations = $obs`,
		map[string]any{
			"name": entity.Name,
			"type": entity.EntityType,
			"obs":  string(obs),
			"seq":  s.nextSeq(),
		},
	)
}

// AddRelation inserts a RELATES edge, or a Dangling row when either
// endpoint is not a stored entity.
func (s *KuzuStore) AddRelation(_ context.Context, rel Relation) error {
	rows, err := s.query(
		"MATCH (e:Entity) WHERE e.name = $from OR e.name = $to RETURN count(e)",
		map[string]any{"from": rel.From, "to": rel.To},
	)
	if err != nil {
		return err
	}
	want := 2
	if rel.From == rel.To {
		want = 1
	}
	params := map[string]any{
		"src":  rel.From,
		"dst":  rel.To,
		"type": rel.RelationType,
		"qual": rel.Qualification,
		"seq":  s.nextSeq(),
	}
	if len(rows) > 0 && toInt(rows[0][0]) == want {
		return s.exec(
			`MATCH (a:Entity {name: $src}), (b:Entity {name: $dst})
			 CREATE (a)-[:RELATES {relation_type: $type, qualification: $qual, seq: $seq}]->(b)`,
			params,
		)
	}
	return s.exec(
		`CREATE (:Dangling {seq: $seq, from_name: $src, to_name: $dst, relation_type: $type, qualification: $qual})`,
		params,
	)
}

// ---------- Read operations ----------

// ReadGraph returns every entity and relation in insertion order.
func (s *KuzuStore) ReadGraph(_ context.Context) (*KnowledgeGraph, error) {
	rows, err := s.query(
		"MATCH (e:Entity) RETURN e.name, e.entity_type, e.observations ORDER BY e.seq",
		nil,
	)
	if err != nil {
		return nil, err
	}
	kg := &KnowledgeGraph{
		Entities:  make([]Entity, 0, len(rows)),
		Relations: []Relation{},
	}
	for _, r := range rows {
		e := Entity{Name: toString(r[0]), EntityType: toString(r[1])}
		if raw := toString(r[2]); raw != "" {
			if err := json.Unmarshal([]byte(raw), &e.Observations); err != nil {
				return nil, fmt.Errorf("kuzu: decode observations of %q: %w", e.Name, err)
			}
		}
		if e.Observations == nil {
			e.Observations = []string{}
		}
		kg.Entities = append(kg.Entities, e)
	}

	type seqRelation struct {
		seq int64
		rel Relation
	}
	var rels []seqRelation
	for _, cypher := range []string{
		`MATCH (a:Entity)-[r:RELATES]->(b:Entity)
		 RETURN a.name, b.name, r.relation_type, r.qualification, r.seq`,
		`MATCH (d:Dangling)
		 RETURN d.from_name, d.to_name, d.relation_type, d.qualification, d.seq`,
	} {
		rows, err := s.query(cypher, nil)
		if err != nil {
			return nil, err
		}
		for _, r := range rows {
			rels = append(rels, seqRelation{
				seq: int64(toInt(r[4])),
				rel: Relation{
					From:          toString(r[0]),
					To:            toString(r[1]),
					RelationType:  toString(r[2]),
					Qualification: toString(r[3]),
				},
			})
		}
	}
	sort.Slice(rels, func(i, j int) bool { return rels[i].seq < rels[j].seq })
	for _, sr := range rels {
		kg.Relations = append(kg.Relations, sr.rel)
	}
	return kg, nil
}

// ---------- Stats ----------

// Stats returns entity and relation counts.
func (s *KuzuStore) Stats(_ context.Context) (*GraphStats, error) {
	entities, err := s.count("MATCH (e:Entity) RETURN count(e)")
	if err != nil {
		return nil, err
	}
	linked, err := s.count("MATCH ()-[r:RELATES]->() RETURN count(r)")
	if err != nil {
		return nil, err
	}
	dangling, err := s.count("MATCH (d:Dangling) RETURN count(d)")
	if err != nil {
		return nil, err
	}
	return &GraphStats{
		EntityCount:   entities,
		RelationCount: linked + dangling,
	}, nil
}

// ---------- Internal helpers ----------

// exec runs a parameterized Cypher statement that produces no result rows.
func (s *KuzuStore) exec(cypher string, params map[string]any) error {
	stmt, err := s.conn.Prepare(cypher)
	if err != nil {
		return fmt.Errorf("kuzu: prepare: %w", err)
	}
	defer stmt.Close()

	res, err := s.conn.Execute(stmt, params)
	if err != nil {
		return fmt.Errorf("kuzu: execute: %w", err)
	}
	res.Close()
	return nil
}

// query runs a parameterized Cypher statement and collects all result rows.
// Each row is a []any slice with values in column order.
func (s *KuzuStore) query(cypher string, params map[string]any) ([][]any, error) {
	var res *kuzu.QueryResult
	var err error

	if len(params) == 0 {
		res, err = s.conn.Query(cypher)
	} else {
		var stmt *kuzu.PreparedStatement
		stmt, err = s.conn.Prepare(cypher)
		if err != nil {
			return nil, fmt.Errorf("kuzu: prepare: %w", err)
		}
		defer stmt.Close()
		res, err = s.conn.Execute(stmt, params)
	}
	if err != nil {
		return nil, fmt.Errorf("kuzu: query: %w", err)
	}
	defer res.Close()

	var rows [][]any
	for res.HasNext() {
		tuple, err := res.Next()
		if err != nil {
			return nil, fmt.Errorf("kuzu: next: %w", err)
		}
		vals, err := tuple.GetAsSlice()
		if err != nil {
			return nil, fmt.Errorf("kuzu: row values: %w", err)
		}
		rows = append(rows, vals)
	}
	return rows, nil
}

// count runs a single-value count query.
func (s *KuzuStore) count(cypher string) (int, error) {
	rows, err := s.query(cypher, nil)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return 0, nil
	}
	return toInt(rows[0][0]), nil
}

// ---------- Type coercion helpers ----------
// KuzuDB returns typed Go values (int64, float64, bool, string).

func toString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", v)
	}
}

func toInt(v any) int {
	switch n := v.(type) {
	case int64:
		return int(n)
	case int:
		return n
	case int32:
		return int(n)
	case uint64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}
