package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alucardeht/prosaic/internal/config"
	"github.com/alucardeht/prosaic/internal/poem"
)

const prose = "The river ran slowly under the bridge. " +
	"Children were laughing somewhere in the distance, and the old man watched it go. " +
	"Night came down over the quiet town."

// run executes the CLI against an isolated data directory.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	a := &app{}
	defer a.close()

	root := newRootCmd(a)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func setupHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv(config.HomeEnv, home)
	return home
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "prosaic "))
}

func TestTemplates(t *testing.T) {
	home := setupHome(t)
	writeFile(t, filepath.Join(home, "templates"), "mine.yaml", "- syllables: 4\n- blank: true\n")

	out, err := run(t, "templates")
	require.NoError(t, err)
	assert.Contains(t, out, "haiku")
	assert.Contains(t, out, "mine")

	out, err = run(t, "templates", "--show", "mine")
	require.NoError(t, err)
	assert.Contains(t, out, `"syllables": 4`)
}

func TestCorpusWorkflow(t *testing.T) {
	home := setupHome(t)
	books := filepath.Join(home, "books")
	writeFile(t, books, "river.txt", prose)
	writeFile(t, books, "skip.bin", "not text at all, but long enough to segment.")

	_, err := run(t, "corpus", "create", "river", "-d", "a test corpus")
	require.NoError(t, err)

	_, err = run(t, "corpus", "create", "river")
	assert.Error(t, err)

	out, err := run(t, "ingest", "river", books)
	require.NoError(t, err)
	assert.Contains(t, out, "river.txt")
	assert.NotContains(t, out, "skip.bin")

	out, err = run(t, "corpus", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "a test corpus")

	out, err = run(t, "corpus", "stats", "river")
	require.NoError(t, err)
	assert.Contains(t, out, "phrases:")

	tmpl := writeFile(t, home, "river.json", `[{"keyword": "river"}]`)
	out, err = run(t, "generate", "--corpus", "river", "--template", tmpl, "--seed", "3", "--json")
	require.NoError(t, err)

	var results []*poem.Result
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.Len(t, results, 1)
	seed := uint64(3)
	assert.Equal(t, &seed, results[0].Seed)
	assert.Contains(t, results[0].Text(), "river")

	_, err = run(t, "corpus", "delete", "river")
	require.NoError(t, err)
	_, err = run(t, "corpus", "stats", "river")
	assert.ErrorIs(t, err, poem.ErrCorpusNotFound)
}

func TestIngestCreate(t *testing.T) {
	home := setupHome(t)
	path := writeFile(t, home, "river.txt", prose)

	_, err := run(t, "ingest", "fresh", path)
	assert.Error(t, err)

	out, err := run(t, "ingest", "--create", "fresh", path)
	require.NoError(t, err)
	assert.Contains(t, out, "phrases")
}

func TestGenerateFromText(t *testing.T) {
	home := setupHome(t)
	path := writeFile(t, home, "river.txt", prose)
	tmpl := writeFile(t, home, "river.json", `[{"keyword": "river"}, {"blank": true}, {"keyword": "night"}]`)

	out, err := run(t, "generate", "--text", path, "--template", tmpl, "--seed", "1", "--count", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "The river ran slowly under the bridge")
	assert.Contains(t, out, "Night came down over the quiet town")
	assert.Contains(t, out, "2 poems")
}

func TestGenerateFlags(t *testing.T) {
	setupHome(t)

	_, err := run(t, "generate", "--template", "haiku")
	assert.Error(t, err)

	_, err = run(t, "generate", "--corpus", "x", "--text", "y")
	assert.Error(t, err)

	_, err = run(t, "generate", "--corpus", "x", "--template", "haikoo")
	assert.ErrorIs(t, err, poem.ErrTemplateNotFound)
}

func TestWatchRoots(t *testing.T) {
	a := &app{cfg: config.Default()}
	a.cfg.Watcher.Enabled = true
	a.cfg.Watcher.Roots = map[string]string{"/a": "one"}

	roots, err := a.watchRoots([]string{"/b=two"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"/a": "one", "/b": "two"}, roots)

	_, err = a.watchRoots([]string{"/c"})
	assert.Error(t, err)
}
