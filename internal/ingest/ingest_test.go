package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"

	"github.com/alucardeht/prosaic/internal/store"
)

const prose = "It was the best of times, it was the worst of times. " +
	"The river ran down to the sea without end; and the old man watched it go."

func openStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "prosaic.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	_, err = s.CreateCorpus(context.Background(), "c", "")
	require.NoError(t, err)
	return s
}

func TestDetectEncoding(t *testing.T) {
	latin1, err := charmap.ISO8859_1.NewEncoder().String("café au lait, crème brûlée")
	require.NoError(t, err)
	cp1252, err := charmap.Windows1252.NewEncoder().String("“quoted” — dash")
	require.NoError(t, err)
	cyrillic, err := charmap.Windows1251.NewEncoder().String("мороз и солнце день чудесный")
	require.NoError(t, err)
	utf16, err := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewEncoder().String("plain words here")
	require.NoError(t, err)

	tests := []struct {
		name string
		data []byte
		want string
		bom  bool
		text string
	}{
		{name: "empty", data: nil, want: "utf-8", text: ""},
		{name: "utf-8", data: []byte("naïve café"), want: "utf-8", text: "naïve café"},
		{name: "utf-8 bom", data: append([]byte{0xEF, 0xBB, 0xBF}, "hello"...), want: "utf-8", bom: true, text: "hello"},
		{name: "utf-16le bom", data: append([]byte{0xFF, 0xFE}, utf16...), want: "utf-16le", bom: true, text: "plain words here"},
		{name: "utf-16le no bom", data: []byte(utf16), want: "utf-16le", text: "plain words here"},
		{name: "latin-1", data: []byte(latin1), want: "iso-8859-1", text: "café au lait, crème brûlée"},
		{name: "windows-1252", data: []byte(cp1252), want: "windows-1252", text: "“quoted” — dash"},
		{name: "windows-1251", data: []byte(cyrillic), want: "windows-1251", text: "мороз и солнце день чудесный"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DetectEncoding(tt.data)
			assert.Equal(t, tt.want, got.Encoding)
			assert.Equal(t, tt.bom, got.HasBOM)
			assert.Equal(t, tt.text, NormalizeToUTF8(tt.data, got))
		})
	}
}

func TestDecodeAs(t *testing.T) {
	data, err := charmap.KOI8R.NewEncoder().String("привет")
	require.NoError(t, err)

	got, err := DecodeAs([]byte(data), "koi8-r")
	require.NoError(t, err)
	assert.Equal(t, "привет", got)

	_, err = DecodeAs([]byte(data), "klingon")
	assert.Error(t, err)
}

func TestIngestText(t *testing.T) {
	s := openStore(t)
	in := NewIngester(s, 0)
	ctx := context.Background()

	res, err := in.IngestText(ctx, "c", "dickens", prose)
	require.NoError(t, err)
	assert.False(t, res.Linked)
	assert.Equal(t, 4, res.Phrases)

	_, err = s.CreateCorpus(ctx, "d", "")
	require.NoError(t, err)
	again, err := in.IngestText(ctx, "d", "dickens copy", prose)
	require.NoError(t, err)
	assert.True(t, again.Linked)
	assert.Equal(t, res.SourceID, again.SourceID)

	stats, err := s.CorpusStats(ctx, "d")
	require.NoError(t, err)
	assert.Equal(t, 4, stats.Phrases)

	_, err = in.IngestText(ctx, "missing", "x", "a completely different text of some length.")
	assert.Error(t, err)
}

func TestIngestFile(t *testing.T) {
	s := openStore(t)
	dir := t.TempDir()

	encoded, err := charmap.ISO8859_1.NewEncoder().String("Le café était plein de monde ce soir-là, et la pluie tombait doucement.")
	require.NoError(t, err)
	path := filepath.Join(dir, "cafe.txt")
	require.NoError(t, os.WriteFile(path, []byte(encoded), 0o644))

	in := NewIngester(s, 1024)
	res, err := in.IngestFile(context.Background(), "c", path)
	require.NoError(t, err)
	assert.Equal(t, "iso-8859-1", res.Encoding)
	assert.Equal(t, "cafe", res.Name)
	assert.Equal(t, 2, res.Phrases)

	phrases, err := s.Phrases(context.Background(), "c", 10)
	require.NoError(t, err)
	require.NotEmpty(t, phrases)
	assert.Equal(t, "Le café était plein de monde ce soir-là", phrases[0].Raw)

	small := NewIngester(s, 10)
	_, err = small.IngestFile(context.Background(), "c", path)
	assert.ErrorIs(t, err, ErrFileTooLarge)

	_, err = in.IngestFile(context.Background(), "c", dir)
	assert.Error(t, err)
}

func TestMatches(t *testing.T) {
	include := []string{"**/*.txt", "**/*.md"}
	exclude := []string{"**/.git/**", "drafts/**"}

	tests := []struct {
		path string
		root string
		want bool
	}{
		{path: "/books/moby.txt", want: true},
		{path: "/books/notes.md", want: true},
		{path: "/books/cover.png", want: false},
		{path: "/books/.git/HEAD.txt", want: false},
		{path: "/lib/drafts/a.txt", root: "/lib", want: false},
		{path: "/lib/final/a.txt", root: "/lib", want: true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Matches(tt.path, tt.root, include, exclude), tt.path)
	}

	assert.True(t, Matches("/any/file.bin", "", nil, nil))
}

func TestWorker(t *testing.T) {
	defer goleak.VerifyNone(t)

	s := openStore(t)
	defer s.Close()
	dir := t.TempDir()
	paths := []string{
		filepath.Join(dir, "one.txt"),
		filepath.Join(dir, "two.txt"),
		filepath.Join(dir, "dup.txt"),
	}
	require.NoError(t, os.WriteFile(paths[0], []byte(prose), 0o644))
	require.NoError(t, os.WriteFile(paths[1], []byte("A second text that is long enough to count as a phrase."), 0o644))
	require.NoError(t, os.WriteFile(paths[2], []byte(prose), 0o644))

	cfg := DefaultWorkerConfig()
	cfg.RateLimit = 0
	cfg.WorkerCount = 1
	w := NewWorker(NewIngester(s, 1<<20), cfg)
	w.Start()

	assert.True(t, w.Enqueue(Job{Corpus: "c", Path: paths[0], Priority: PriorityHigh}))
	assert.Equal(t, 2, w.EnqueueBatch("c", paths[1:], PriorityLow))
	assert.False(t, w.Enqueue(Job{Corpus: "c", Path: filepath.Join(dir, "image.png")}))
	assert.True(t, w.Enqueue(Job{Corpus: "c", Path: filepath.Join(dir, "missing.txt")}))

	require.Eventually(t, func() bool {
		st := w.Stats()
		return st.Ingested+st.Linked+st.Failed == 4
	}, 5*time.Second, 10*time.Millisecond)

	w.Stop()

	st := w.Stats()
	assert.Equal(t, int64(2), st.Ingested)
	assert.Equal(t, int64(1), st.Linked)
	assert.Equal(t, int64(1), st.Failed)
	assert.Equal(t, int64(1), st.Skipped)
	assert.Equal(t, int64(0), st.InQueue)
	assert.False(t, st.IsRunning)
}
