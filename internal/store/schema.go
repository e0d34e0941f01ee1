package store

const SchemaVersion = 1

const schemaSQL = `
-- Schema version tracking
CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY
);

CREATE TABLE IF NOT EXISTS corpora (
    id TEXT PRIMARY KEY,
    name TEXT UNIQUE NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    created_at INTEGER NOT NULL
);

-- One row per distinct text, shared by every corpus that links it
CREATE TABLE IF NOT EXISTS sources (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL,
    path TEXT NOT NULL DEFAULT '',
    content_hash TEXT UNIQUE NOT NULL,
    created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS corpus_sources (
    corpus_id TEXT NOT NULL REFERENCES corpora(id) ON DELETE CASCADE,
    source_id INTEGER NOT NULL REFERENCES sources(id) ON DELETE CASCADE,
    PRIMARY KEY (corpus_id, source_id)
);

CREATE INDEX IF NOT EXISTS idx_corpus_sources_source ON corpus_sources(source_id);

CREATE TABLE IF NOT EXISTS phrases (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    source_id INTEGER NOT NULL REFERENCES sources(id) ON DELETE CASCADE,
    line_no INTEGER NOT NULL,
    raw TEXT NOT NULL,
    syllables INTEGER NOT NULL,
    rhyme_key TEXT NOT NULL DEFAULT '',
    alliteration INTEGER NOT NULL DEFAULT 0,
    end_word TEXT NOT NULL DEFAULT '',
    tokens TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_phrases_source_line ON phrases(source_id, line_no);
CREATE INDEX IF NOT EXISTS idx_phrases_syllables ON phrases(syllables);
CREATE INDEX IF NOT EXISTS idx_phrases_rhyme_key ON phrases(rhyme_key);

-- Folded tokens for keyword and proximity lookups
CREATE TABLE IF NOT EXISTS phrase_tokens (
    phrase_id INTEGER NOT NULL REFERENCES phrases(id) ON DELETE CASCADE,
    token TEXT NOT NULL,
    PRIMARY KEY (phrase_id, token)
);

CREATE INDEX IF NOT EXISTS idx_phrase_tokens_token ON phrase_tokens(token);
`

func GetSchema() string {
	return schemaSQL
}

func GetSchemaVersion() int {
	return SchemaVersion
}
