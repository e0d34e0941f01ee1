package poem

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeTemplate(t *testing.T) {
	tmpl, err := DecodeTemplate([]byte(`[
		{"syllables": 5, "rhyme": "A"},
		{"blank": true},
		{"keyword": "night", "alliteration": true},
		{"fuzzy": "sea"},
		{}
	]`))
	require.NoError(t, err)

	want := Template{
		{Syllables: 5, Rhyme: "A"},
		{Blank: true},
		{Keyword: "night", Alliteration: true},
		{Fuzzy: "sea"},
		{},
	}
	assert.Equal(t, want, tmpl)
}

func TestDecodeTemplate_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
		line int
	}{
		{name: "not an array", data: `{"syllables": 5}`, line: 0},
		{name: "not json", data: `syllables: 5`, line: 0},
		{name: "unknown key", data: `[{"syllables": 5}, {"meter": "iambic"}]`, line: 2},
		{name: "zero syllables", data: `[{"syllables": 0}]`, line: 1},
		{name: "wrong type", data: `[{"syllables": "five"}]`, line: 1},
		{name: "empty keyword", data: `[{"keyword": ""}]`, line: 1},
		{name: "empty rhyme label", data: `[{"rhyme": ""}]`, line: 1},
		{name: "blank with syllables", data: `[{"blank": true, "syllables": 3}]`, line: 1},
		{name: "phrase as keyword", data: `[{"keyword": "dark night"}]`, line: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeTemplate([]byte(tt.data))
			require.ErrorIs(t, err, ErrMalformedTemplate)

			var te *TemplateError
			require.True(t, errors.As(err, &te))
			assert.Equal(t, tt.line, te.Line)
		})
	}
}

func TestDecodeTemplateLenient_IgnoresUnknownKeys(t *testing.T) {
	tmpl, err := DecodeTemplateLenient([]byte(`[{"syllables": 5, "meter": "iambic"}]`))
	require.NoError(t, err)
	assert.Equal(t, Template{{Syllables: 5}}, tmpl)

	_, err = DecodeTemplateLenient([]byte(`[{"syllables": -2}]`))
	assert.ErrorIs(t, err, ErrMalformedTemplate)
}

func TestDecodeTemplateYAML(t *testing.T) {
	tmpl, err := DecodeTemplateYAML([]byte(`
- syllables: 5
  rhyme: A
- blank: true
- keyword: light
`))
	require.NoError(t, err)
	assert.Equal(t, Template{{Syllables: 5, Rhyme: "A"}, {Blank: true}, {Keyword: "light"}}, tmpl)

	_, err = DecodeTemplateYAML([]byte("- meter: iambic\n"))
	assert.ErrorIs(t, err, ErrMalformedTemplate)

	empty, err := DecodeTemplateYAML([]byte(""))
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestTemplateValidate_EmptyTemplate(t *testing.T) {
	assert.NoError(t, Template{}.Validate())
}

func TestBuiltinLibrary(t *testing.T) {
	lib := Builtin()

	names := lib.Names()
	for _, name := range []string{"haiku", "tanka", "couplet", "quatrain", "limerick", "sonnet", "ballad", "elegy"} {
		assert.Contains(t, names, name)
	}

	sonnet, err := lib.Get("sonnet")
	require.NoError(t, err)
	assert.Len(t, sonnet, 14)

	haiku, err := lib.Get("haiku")
	require.NoError(t, err)
	assert.Equal(t, Template{{Syllables: 5}, {Syllables: 7}, {Syllables: 5}}, haiku)
}

func TestLibraryGet_Suggests(t *testing.T) {
	lib := Builtin()

	_, err := lib.Get("haik")
	require.ErrorIs(t, err, ErrTemplateNotFound)
	assert.Contains(t, err.Error(), "did you mean haiku")

	_, err = lib.Get("zzzz")
	require.ErrorIs(t, err, ErrTemplateNotFound)
	assert.NotContains(t, err.Error(), "did you mean")
}

func TestLibraryLoadDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "nested"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "mono.json"), []byte(`[{"syllables": 4}]`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "nested", "pair.yaml"), []byte("- rhyme: A\n- rhyme: A\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	lib := NewLibrary()
	n, err := lib.LoadDir(dir)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"mono", "pair"}, lib.Names())

	n, err = lib.LoadDir(filepath.Join(dir, "missing"))
	require.NoError(t, err)
	assert.Zero(t, n)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.json"), []byte(`[{"syllables": 0}]`), 0o644))
	_, err = lib.LoadDir(dir)
	assert.ErrorIs(t, err, ErrMalformedTemplate)
}

func TestLibraryResolve(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.yml")
	require.NoError(t, os.WriteFile(path, []byte("- syllables: 3\n"), 0o644))

	lib := Builtin()
	tmpl, err := lib.Resolve(path)
	require.NoError(t, err)
	assert.Equal(t, Template{{Syllables: 3}}, tmpl)

	tmpl, err = lib.Resolve("couplet")
	require.NoError(t, err)
	assert.Len(t, tmpl, 2)
}

func TestRhymeGroups(t *testing.T) {
	g := NewRhymeGroups()

	_, fixed := g.ObserveOrFetch("A")
	assert.False(t, fixed)

	g.Commit("A", "ai", "day")
	g.Commit("A", "ight", "night")

	key, fixed := g.ObserveOrFetch("A")
	assert.True(t, fixed)
	assert.Equal(t, "ai", key)
	assert.Equal(t, []string{"day", "night"}, g.EndWords("A"))
	assert.Equal(t, 1, g.Labels())
}
