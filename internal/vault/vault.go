// Package vault reads and writes entity records stored as Markdown files.
//
// Each entity lives in its own *.md file directly under the vault directory:
//
//	---
//	name: Coffee
//	entityType: drink
//	relations:
//	  - to: Sleep
//	    relationType: influences
//	    qualification: decreases
//	---
//	- bitter
//	- best before noon
//
// The front matter name defaults to the file's base name. Observations are the
// body lines that start with "- ". Relations always originate at the entity
// that declares them.
package vault

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/dusk-indust/vaultgraph/internal/graph"
	"gopkg.in/yaml.v3"
)

// Ext is the file extension of entity files.
const Ext = ".md"

var (
	// ErrNoName is returned when writing a record whose entity has no name.
	ErrNoName = errors.New("vault: entity name is required")
	// ErrNotEntityFile is returned by ReadFile for paths without the entity extension.
	ErrNotEntityFile = errors.New("vault: not an entity file")
)

// Record is one entity file: the entity, the relations it declares, and the
// file it was read from (empty for records not yet written).
type Record struct {
	Entity    graph.Entity
	Relations []graph.Relation
	Path      string
}

type frontMatter struct {
	Name       string         `yaml:"name,omitempty"`
	EntityType string         `yaml:"entityType,omitempty"`
	Relations  []relationYAML `yaml:"relations,omitempty"`
}

type relationYAML struct {
	To            string `yaml:"to"`
	RelationType  string `yaml:"relationType"`
	Qualification string `yaml:"qualification,omitempty"`
}

// Vault is a directory of entity files.
type Vault struct {
	dir string
}

// Compile-time assertion: *Vault can feed the analytics engine.
var _ graph.Reader = (*Vault)(nil)

// New returns a Vault rooted at dir. The directory does not need to exist.
func New(dir string) *Vault {
	return &Vault{dir: dir}
}

// Dir returns the vault directory.
func (v *Vault) Dir() string {
	return v.dir
}

// Scan reads every entity file directly under the vault directory, in
// lexical file order. A missing directory yields no records and no error;
// any other failure to read the directory or a file is returned.
func (v *Vault) Scan(ctx context.Context) ([]Record, error) {
	entries, err := os.ReadDir(v.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("vault: read dir %s: %w", v.dir, err)
	}

	var records []Record
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if entry.IsDir() || !IsEntityFile(entry.Name()) {
			continue
		}
		rec, err := ReadFile(filepath.Join(v.dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// ReadGraph scans the vault and flattens it into a snapshot.
func (v *Vault) ReadGraph(ctx context.Context) (*graph.KnowledgeGraph, error) {
	records, err := v.Scan(ctx)
	if err != nil {
		return nil, err
	}
	kg := &graph.KnowledgeGraph{
		Entities:  make([]graph.Entity, 0, len(records)),
		Relations: []graph.Relation{},
	}
	for _, rec := range records {
		kg.Entities = append(kg.Entities, rec.Entity)
		kg.Relations = append(kg.Relations, rec.Relations...)
	}
	return kg, nil
}

// Write stores the record as <FileName(name)>.md, replacing any file at
// rec.Path first when the name changed. It returns the path written.
func (v *Vault) Write(_ context.Context, rec Record) (string, error) {
	if rec.Entity.Name == "" {
		return "", ErrNoName
	}
	data, err := Marshal(rec)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(v.dir, 0o755); err != nil {
		return "", fmt.Errorf("vault: create dir: %w", err)
	}

	path := filepath.Join(v.dir, FileName(rec.Entity.Name))
	tmp, err := os.CreateTemp(v.dir, ".entity-*")
	if err != nil {
		return "", fmt.Errorf("vault: create temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("vault: write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("vault: close %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("vault: rename %s: %w", path, err)
	}

	if rec.Path != "" && filepath.Clean(rec.Path) != filepath.Clean(path) {
		if err := os.Remove(rec.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return path, fmt.Errorf("vault: remove old file %s: %w", rec.Path, err)
		}
	}
	return path, nil
}

// Remove deletes an entity file. Removing a missing file is not an error.
func (v *Vault) Remove(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("vault: remove %s: %w", path, err)
	}
	return nil
}

// FileName maps an entity name to its file name. Path separators are
// replaced so every entity lands directly in the vault directory.
func FileName(name string) string {
	r := strings.NewReplacer("/", "-", "\\", "-", string(os.PathSeparator), "-")
	return r.Replace(name) + Ext
}

// IsEntityFile reports whether path names an entity file. Hidden files,
// including the temp files Write creates, are not entity files.
func IsEntityFile(path string) bool {
	base := filepath.Base(path)
	return !strings.HasPrefix(base, ".") && strings.EqualFold(filepath.Ext(base), Ext)
}

// ReadFile reads and parses one entity file.
func ReadFile(path string) (Record, error) {
	if !IsEntityFile(path) {
		return Record{}, fmt.Errorf("%w: %s", ErrNotEntityFile, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Record{}, fmt.Errorf("vault: read %s: %w", path, err)
	}
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	rec, err := Parse(base, data)
	if err != nil {
		return Record{}, fmt.Errorf("vault: parse %s: %w", path, err)
	}
	rec.Path = path
	return rec, nil
}

// Parse decodes entity file contents. defaultName is used when the front
// matter does not set a name.
func Parse(defaultName string, data []byte) (Record, error) {
	text := strings.ReplaceAll(string(data), "\r\n", "\n")

	var fm frontMatter
	body := text
	if rest, ok := strings.CutPrefix(text, "---\n"); ok {
		block := "\n" + rest
		end := strings.Index(block, "\n---")
		if end < 0 {
			return Record{}, errors.New("unterminated front matter")
		}
		if err := yaml.Unmarshal([]byte(block[:end]), &fm); err != nil {
			return Record{}, fmt.Errorf("front matter: %w", err)
		}
		body = block[end+len("\n---"):]
	}

	name := fm.Name
	if name == "" {
		name = defaultName
	}
	rec := Record{
		Entity: graph.Entity{
			Name:         name,
			EntityType:   fm.EntityType,
			Observations: []string{},
		},
		Relations: make([]graph.Relation, 0, len(fm.Relations)),
	}
	for _, r := range fm.Relations {
		rec.Relations = append(rec.Relations, graph.Relation{
			From:          name,
			To:            r.To,
			RelationType:  r.RelationType,
			Qualification: r.Qualification,
		})
	}
	for _, line := range strings.Split(body, "\n") {
		if obs, ok := strings.CutPrefix(strings.TrimSpace(line), "- "); ok {
			if obs = strings.TrimSpace(obs); obs != "" {
				rec.Entity.Observations = append(rec.Entity.Observations, obs)
			}
		}
	}
	return rec, nil
}

// Marshal renders a record in the entity file format. Relations whose From
// is not the entity are dropped: a file can only declare outgoing relations.
func Marshal(rec Record) ([]byte, error) {
	fm := frontMatter{
		Name:       rec.Entity.Name,
		EntityType: rec.Entity.EntityType,
	}
	for _, r := range rec.Relations {
		if r.From != rec.Entity.Name {
			continue
		}
		fm.Relations = append(fm.Relations, relationYAML{
			To:            r.To,
			RelationType:  r.RelationType,
			Qualification: r.Qualification,
		})
	}
	head, err := yaml.Marshal(&fm)
	if err != nil {
		return nil, fmt.Errorf("vault: encode front matter: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString("---\n")
	buf.Write(head)
	buf.WriteString("---\n")
	for _, obs := range rec.Entity.Observations {
		buf.WriteString("- ")
		buf.WriteString(strings.ReplaceAll(obs, "\n", " "))
		buf.WriteString("\n")
	}
	return buf.Bytes(), nil
}
