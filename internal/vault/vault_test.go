package vault

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/dusk-indust/vaultgraph/internal/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeFile creates a file under dir with the given contents.
func writeFile(t *testing.T, dir, name, contents string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

const coffeeFile = `---
name: Coffee
entityType: drink
relations:
  - to: Sleep
    relationType: influences
    qualification: decreases
  - to: Morning
    relationType: belongs_to
---
Some prose that is not an observation.

- bitter
-   best before noon
`

func TestParse_FrontMatterAndObservations(t *testing.T) {
	rec, err := Parse("coffee", []byte(coffeeFile))
	require.NoError(t, err)

	assert.Equal(t, graph.Entity{
		Name:         "Coffee",
		EntityType:   "drink",
		Observations: []string{"bitter", "best before noon"},
	}, rec.Entity)
	assert.Equal(t, []graph.Relation{
		{From: "Coffee", To: "Sleep", RelationType: "influences", Qualification: "decreases"},
		{From: "Coffee", To: "Morning", RelationType: "belongs_to"},
	}, rec.Relations)
}

func TestParse_NameDefaultsToFileName(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"no front matter", "- just a note\n"},
		{"front matter without name", "---\nentityType: idea\n---\n- just a note\n"},
		{"empty front matter", "---\n---\n- just a note\n"},
		{"crlf line endings", "---\r\nentityType: idea\r\n---\r\n- just a note\r\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := Parse("Untitled", []byte(tt.data))
			require.NoError(t, err)
			assert.Equal(t, "Untitled", rec.Entity.Name)
			assert.Equal(t, []string{"just a note"}, rec.Entity.Observations)
			assert.Empty(t, rec.Relations)
		})
	}
}

func TestParse_Errors(t *testing.T) {
	_, err := Parse("x", []byte("---\nname: X\n- never closed\n"))
	assert.Error(t, err, "unterminated front matter")

	_, err = Parse("x", []byte("---\nname: [unclosed\n---\n"))
	assert.Error(t, err, "invalid yaml")
}

func TestMarshal_RoundTrip(t *testing.T) {
	rec := Record{
		Entity: graph.Entity{Name: "Coffee", EntityType: "drink", Observations: []string{"bitter", "two\nlines"}},
		Relations: []graph.Relation{
			{From: "Coffee", To: "Sleep", RelationType: "influences", Qualification: "decreases"},
			{From: "Tea", To: "Sleep", RelationType: "influences"},
		},
	}

	data, err := Marshal(rec)
	require.NoError(t, err)

	back, err := Parse("ignored", data)
	require.NoError(t, err)
	assert.Equal(t, "Coffee", back.Entity.Name)
	assert.Equal(t, "drink", back.Entity.EntityType)
	assert.Equal(t, []string{"bitter", "two lines"}, back.Entity.Observations)
	assert.Equal(t, rec.Relations[:1], back.Relations, "foreign relations are not written")
}

func TestVault_ReadGraph(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b-coffee.md", coffeeFile)
	writeFile(t, dir, "a-sleep.md", "---\nname: Sleep\nentityType: state\n---\n")
	writeFile(t, dir, "notes.txt", "- not an entity\n")
	writeFile(t, dir, ".hidden.md", "- not an entity\n")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.md"), 0o755))

	kg, err := New(dir).ReadGraph(context.Background())
	require.NoError(t, err)

	require.Len(t, kg.Entities, 2)
	assert.Equal(t, "Sleep", kg.Entities[0].Name, "files are read in lexical order")
	assert.Equal(t, "Coffee", kg.Entities[1].Name)
	assert.Len(t, kg.Relations, 2)
}

func TestVault_MissingDirIsEmpty(t *testing.T) {
	v := New(filepath.Join(t.TempDir(), "does-not-exist"))

	records, err := v.Scan(context.Background())
	require.NoError(t, err)
	assert.Empty(t, records)

	kg, err := v.ReadGraph(context.Background())
	require.NoError(t, err)
	assert.Empty(t, kg.Entities)
	assert.NotNil(t, kg.Relations)
}

func TestVault_PathIsFileIsError(t *testing.T) {
	path := writeFile(t, t.TempDir(), "plain", "not a directory")

	_, err := New(path).Scan(context.Background())
	assert.Error(t, err)
}

func TestVault_UnreadableDirIsError(t *testing.T) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced")
	}
	dir := filepath.Join(t.TempDir(), "locked")
	require.NoError(t, os.Mkdir(dir, 0o000))
	t.Cleanup(func() { _ = os.Chmod(dir, 0o755) })

	_, err := New(dir).Scan(context.Background())
	assert.Error(t, err)
}

func TestVault_ScanHonorsContext(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.md", "- a\n")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(dir).Scan(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestVault_WriteAndRemove(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "vault")
	v := New(dir)
	ctx := context.Background()

	path, err := v.Write(ctx, Record{Entity: graph.Entity{Name: "Work/Deep Focus", Observations: []string{"mornings"}}})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "Work-Deep Focus.md"), path)

	rec, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Work/Deep Focus", rec.Entity.Name, "front matter keeps the original name")
	assert.Equal(t, path, rec.Path)

	// Renaming moves the file.
	rec.Entity.Name = "Focus"
	newPath, err := v.Write(ctx, rec)
	require.NoError(t, err)
	assert.NoFileExists(t, path)
	assert.FileExists(t, newPath)

	require.NoError(t, v.Remove(newPath))
	assert.NoFileExists(t, newPath)
	assert.NoError(t, v.Remove(newPath), "removing twice is not an error")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "no temp files left behind")
}

func TestVault_WriteRequiresName(t *testing.T) {
	_, err := New(t.TempDir()).Write(context.Background(), Record{})
	assert.ErrorIs(t, err, ErrNoName)
}

func TestReadFile_RejectsNonEntityFiles(t *testing.T) {
	path := writeFile(t, t.TempDir(), "notes.txt", "- x\n")

	_, err := ReadFile(path)
	assert.ErrorIs(t, err, ErrNotEntityFile)
	assert.False(t, IsEntityFile(".entity-123"))
	assert.True(t, IsEntityFile("/tmp/Coffee.MD"))
}
