package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/alucardeht/prosaic/internal/logger"
	"github.com/alucardeht/prosaic/internal/poem"
	"github.com/alucardeht/prosaic/internal/types"
)

var log = logger.ForComponent("store")

var ErrCorpusExists = errors.New("corpus already exists")

// Store keeps corpora, sources and annotated phrases in SQLite. It
// implements poem.PhraseStore and poem.AnchorIndex.
type Store struct {
	db *sqlx.DB
	mu sync.RWMutex
}

const dsnPragmas = "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"

func Open(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}

	db, err := sqlx.Open("sqlite", dbPath+dsnPragmas)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("open store: %w", err)
	}

	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, err
	}

	log.Debug("store opened", "path", dbPath)
	return s, nil
}

func (s *Store) initSchema() error {
	lines := strings.Split(GetSchema(), "\n")
	var cleanLines []string
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, "--") && trimmed != "" {
			cleanLines = append(cleanLines, line)
		}
	}

	if _, err := s.db.Exec(strings.Join(cleanLines, "\n")); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	_, _ = s.db.Exec(`INSERT OR IGNORE INTO schema_version (version) VALUES (?)`, GetSchemaVersion())
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

type corpusRow struct {
	ID          string `db:"id"`
	Name        string `db:"name"`
	Description string `db:"description"`
	CreatedAt   int64  `db:"created_at"`
}

func (r corpusRow) corpus() types.Corpus {
	return types.Corpus{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		CreatedAt:   time.Unix(r.CreatedAt, 0).UTC(),
	}
}

type sourceRow struct {
	ID          int64  `db:"id"`
	Name        string `db:"name"`
	Path        string `db:"path"`
	ContentHash string `db:"content_hash"`
	CreatedAt   int64  `db:"created_at"`
}

func (r sourceRow) source() *types.Source {
	return &types.Source{
		ID:          r.ID,
		Name:        r.Name,
		Path:        r.Path,
		ContentHash: r.ContentHash,
		CreatedAt:   time.Unix(r.CreatedAt, 0).UTC(),
	}
}

type phraseRow struct {
	ID           int64  `db:"id"`
	SourceID     int64  `db:"source_id"`
	LineNo       int    `db:"line_no"`
	Raw          string `db:"raw"`
	Syllables    int    `db:"syllables"`
	RhymeKey     string `db:"rhyme_key"`
	Alliteration bool   `db:"alliteration"`
	EndWord      string `db:"end_word"`
	Tokens       string `db:"tokens"`
}

func (r phraseRow) phrase() types.Phrase {
	return types.Phrase{
		ID:           r.ID,
		SourceID:     r.SourceID,
		LineNo:       r.LineNo,
		Raw:          r.Raw,
		Syllables:    r.Syllables,
		RhymeKey:     r.RhymeKey,
		Alliteration: r.Alliteration,
		EndWord:      r.EndWord,
		Tokens:       strings.Fields(r.Tokens),
	}
}

// CreateCorpus registers an empty corpus under a unique name.
func (s *Store) CreateCorpus(ctx context.Context, name, description string) (*types.Corpus, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("create corpus: name must not be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var exists int
	if err := s.db.GetContext(ctx, &exists, `SELECT COUNT(*) FROM corpora WHERE name = ?`, name); err != nil {
		return nil, fmt.Errorf("create corpus: %w", err)
	}
	if exists > 0 {
		return nil, fmt.Errorf("%w: %s", ErrCorpusExists, name)
	}

	row := corpusRow{
		ID:          uuid.NewString(),
		Name:        name,
		Description: description,
		CreatedAt:   time.Now().Unix(),
	}
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO corpora (id, name, description, created_at)
		VALUES (:id, :name, :description, :created_at)
	`, row)
	if err != nil {
		return nil, fmt.Errorf("create corpus: %w", err)
	}

	c := row.corpus()
	log.Info("corpus created", "corpus", name, "id", c.ID)
	return &c, nil
}

// GetCorpus finds a corpus by name or id.
func (s *Store) GetCorpus(ctx context.Context, ref string) (*types.Corpus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getCorpus(ctx, s.db, ref)
}

func (s *Store) getCorpus(ctx context.Context, q sqlx.QueryerContext, ref string) (*types.Corpus, error) {
	var row corpusRow
	err := sqlx.GetContext(ctx, q, &row, `
		SELECT id, name, description, created_at FROM corpora WHERE name = ? OR id = ?
	`, ref, ref)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", poem.ErrCorpusNotFound, ref)
	}
	if err != nil {
		return nil, fmt.Errorf("get corpus: %w", err)
	}
	c := row.corpus()
	return &c, nil
}

func (s *Store) ListCorpora(ctx context.Context) ([]types.Corpus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var rows []corpusRow
	if err := s.db.SelectContext(ctx, &rows, `
		SELECT id, name, description, created_at FROM corpora ORDER BY name
	`); err != nil {
		return nil, fmt.Errorf("list corpora: %w", err)
	}

	corpora := make([]types.Corpus, 0, len(rows))
	for _, r := range rows {
		corpora = append(corpora, r.corpus())
	}
	return corpora, nil
}

// DeleteCorpus removes the corpus and every source no other corpus links.
func (s *Store) DeleteCorpus(ctx context.Context, ref string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("delete corpus: %w", err)
	}
	defer tx.Rollback()

	c, err := s.getCorpus(ctx, tx, ref)
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM corpus_sources WHERE corpus_id = ?`, c.ID); err != nil {
		return fmt.Errorf("unlink sources: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM corpora WHERE id = ?`, c.ID); err != nil {
		return fmt.Errorf("delete corpus: %w", err)
	}
	res, err := tx.ExecContext(ctx, `
		DELETE FROM sources WHERE id NOT IN (SELECT source_id FROM corpus_sources)
	`)
	if err != nil {
		return fmt.Errorf("delete orphan sources: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("delete corpus: %w", err)
	}

	orphans, _ := res.RowsAffected()
	log.Info("corpus deleted", "corpus", c.Name, "sources_removed", orphans)
	return nil
}

// SourceByHash returns nil when no source has the hash.
func (s *Store) SourceByHash(ctx context.Context, hash string) (*types.Source, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var row sourceRow
	err := s.db.GetContext(ctx, &row, `
		SELECT id, name, path, content_hash, created_at FROM sources WHERE content_hash = ?
	`, hash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get source: %w", err)
	}
	return row.source(), nil
}

// AddSource stores src and its phrases and links it to the corpus, in one
// transaction. src.ID and the phrase ids are filled in.
func (s *Store) AddSource(ctx context.Context, corpusRef string, src *types.Source, phrases []types.Phrase) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("add source: %w", err)
	}
	defer tx.Rollback()

	c, err := s.getCorpus(ctx, tx, corpusRef)
	if err != nil {
		return err
	}

	if src.CreatedAt.IsZero() {
		src.CreatedAt = time.Now().UTC()
	}
	res, err := tx.ExecContext(ctx, `
		INSERT INTO sources (name, path, content_hash, created_at) VALUES (?, ?, ?, ?)
	`, src.Name, src.Path, src.ContentHash, src.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("insert source: %w", err)
	}
	if src.ID, err = res.LastInsertId(); err != nil {
		return fmt.Errorf("get source id: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO corpus_sources (corpus_id, source_id) VALUES (?, ?)
	`, c.ID, src.ID); err != nil {
		return fmt.Errorf("link source: %w", err)
	}

	phraseStmt, err := tx.PreparexContext(ctx, `
		INSERT INTO phrases (source_id, line_no, raw, syllables, rhyme_key, alliteration, end_word, tokens)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare phrases: %w", err)
	}
	defer phraseStmt.Close()

	tokenStmt, err := tx.PreparexContext(ctx, `
		INSERT OR IGNORE INTO phrase_tokens (phrase_id, token) VALUES (?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare tokens: %w", err)
	}
	defer tokenStmt.Close()

	for i := range phrases {
		p := &phrases[i]
		p.SourceID = src.ID
		res, err := phraseStmt.ExecContext(ctx,
			p.SourceID, p.LineNo, p.Raw, p.Syllables, p.RhymeKey, p.Alliteration, p.EndWord, p.TokenString())
		if err != nil {
			return fmt.Errorf("insert phrase: %w", err)
		}
		if p.ID, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("get phrase id: %w", err)
		}
		for _, tok := range p.Tokens {
			if _, err := tokenStmt.ExecContext(ctx, p.ID, tok); err != nil {
				return fmt.Errorf("insert token: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("add source: %w", err)
	}

	log.Debug("source stored", "corpus", c.Name, "source", src.Name, "phrases", len(phrases))
	return nil
}

// LinkSource adds an already stored source to a corpus. Linking twice is a
// no-op.
func (s *Store) LinkSource(ctx context.Context, corpusRef string, sourceID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.getCorpus(ctx, s.db, corpusRef)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO corpus_sources (corpus_id, source_id) VALUES (?, ?)
	`, c.ID, sourceID); err != nil {
		return fmt.Errorf("link source: %w", err)
	}
	return nil
}

func (s *Store) CorpusStats(ctx context.Context, ref string) (*types.CorpusStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, err := s.getCorpus(ctx, s.db, ref)
	if err != nil {
		return nil, err
	}

	stats := &types.CorpusStats{Corpus: c.Name, BySyllables: make(map[int]int)}

	if err := s.db.GetContext(ctx, &stats.Sources, `
		SELECT COUNT(*) FROM corpus_sources WHERE corpus_id = ?
	`, c.ID); err != nil {
		return nil, fmt.Errorf("count sources: %w", err)
	}

	var counts struct {
		Phrases   int `db:"phrases"`
		RhymeKeys int `db:"rhyme_keys"`
	}
	if err := s.db.GetContext(ctx, &counts, `
		SELECT COUNT(*) AS phrases,
		       COUNT(DISTINCT NULLIF(p.rhyme_key, '')) AS rhyme_keys
		FROM phrases p
		JOIN corpus_sources cs ON cs.source_id = p.source_id
		WHERE cs.corpus_id = ?
	`, c.ID); err != nil {
		return nil, fmt.Errorf("count phrases: %w", err)
	}
	stats.Phrases = counts.Phrases
	stats.RhymeKeys = counts.RhymeKeys

	var buckets []struct {
		Syllables int `db:"syllables"`
		N         int `db:"n"`
	}
	if err := s.db.SelectContext(ctx, &buckets, `
		SELECT p.syllables AS syllables, COUNT(*) AS n
		FROM phrases p
		JOIN corpus_sources cs ON cs.source_id = p.source_id
		WHERE cs.corpus_id = ?
		GROUP BY p.syllables
	`, c.ID); err != nil {
		return nil, fmt.Errorf("count syllables: %w", err)
	}
	for _, b := range buckets {
		stats.BySyllables[b.Syllables] = b.N
	}

	return stats, nil
}

// Phrases lists up to limit phrases of a corpus in document order.
func (s *Store) Phrases(ctx context.Context, corpusRef string, limit int) ([]types.Phrase, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, err := s.getCorpus(ctx, s.db, corpusRef)
	if err != nil {
		return nil, err
	}

	var rows []phraseRow
	if err := s.db.SelectContext(ctx, &rows, `
		SELECT p.id, p.source_id, p.line_no, p.raw, p.syllables, p.rhyme_key, p.alliteration, p.end_word, p.tokens
		FROM phrases p
		JOIN corpus_sources cs ON cs.source_id = p.source_id
		WHERE cs.corpus_id = ?
		ORDER BY p.source_id, p.line_no
		LIMIT ?
	`, c.ID, limit); err != nil {
		return nil, fmt.Errorf("list phrases: %w", err)
	}

	phrases := make([]types.Phrase, 0, len(rows))
	for _, r := range rows {
		phrases = append(phrases, r.phrase())
	}
	return phrases, nil
}
