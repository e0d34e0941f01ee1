package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	humanize "github.com/dustin/go-humanize"

	"github.com/alucardeht/prosaic/internal/logger"
	"github.com/alucardeht/prosaic/internal/nlp"
	"github.com/alucardeht/prosaic/internal/types"
)

var log = logger.ForComponent("ingest")

var ErrFileTooLarge = errors.New("file too large")

// Sink is the part of the store ingestion writes to.
type Sink interface {
	SourceByHash(ctx context.Context, hash string) (*types.Source, error)
	AddSource(ctx context.Context, corpus string, src *types.Source, phrases []types.Phrase) error
	LinkSource(ctx context.Context, corpus string, sourceID int64) error
}

// Result describes one ingested text. Linked is true when identical content
// was already stored and was only linked to the corpus.
type Result struct {
	Corpus   string `json:"corpus"`
	SourceID int64  `json:"source_id"`
	Name     string `json:"name"`
	Phrases  int    `json:"phrases"`
	Encoding string `json:"encoding,omitempty"`
	Linked   bool   `json:"linked"`
}

type Ingester struct {
	sink        Sink
	maxFileSize int64
}

func NewIngester(sink Sink, maxFileSize int64) *Ingester {
	return &Ingester{sink: sink, maxFileSize: maxFileSize}
}

// IngestFile reads path in whatever charset it is in, segments it into
// phrases and adds it to corpus.
func (in *Ingester) IngestFile(ctx context.Context, corpus, path string) (*Result, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}
	if in.maxFileSize > 0 && info.Size() > in.maxFileSize {
		return nil, fmt.Errorf("%w: %s is %s, limit %s", ErrFileTooLarge, path,
			humanize.IBytes(uint64(info.Size())), humanize.IBytes(uint64(in.maxFileSize)))
	}

	content, detected, err := ReadFileAsUTF8(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	src := &types.Source{
		Name: strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		Path: abs,
	}
	res, err := in.ingest(ctx, corpus, src, content)
	if err != nil {
		return nil, err
	}
	res.Encoding = detected.Encoding
	return res, nil
}

// IngestText adds inline text to corpus under name.
func (in *Ingester) IngestText(ctx context.Context, corpus, name, text string) (*Result, error) {
	return in.ingest(ctx, corpus, &types.Source{Name: name}, text)
}

func (in *Ingester) ingest(ctx context.Context, corpus string, src *types.Source, content string) (*Result, error) {
	hash := sha256.Sum256([]byte(content))
	src.ContentHash = hex.EncodeToString(hash[:])

	existing, err := in.sink.SourceByHash(ctx, src.ContentHash)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if err := in.sink.LinkSource(ctx, corpus, existing.ID); err != nil {
			return nil, err
		}
		log.Debug("content already stored, linked", "corpus", corpus, "source", existing.Name)
		return &Result{Corpus: corpus, SourceID: existing.ID, Name: existing.Name, Linked: true}, nil
	}

	phrases := nlp.AnnotateText(content)
	if len(phrases) == 0 {
		log.Warn("no phrases found", "corpus", corpus, "source", src.Name)
	}

	if err := in.sink.AddSource(ctx, corpus, src, phrases); err != nil {
		// Another ingestion may have stored the same content meanwhile.
		if existing, lookupErr := in.sink.SourceByHash(ctx, src.ContentHash); lookupErr == nil && existing != nil {
			if err := in.sink.LinkSource(ctx, corpus, existing.ID); err != nil {
				return nil, err
			}
			return &Result{Corpus: corpus, SourceID: existing.ID, Name: existing.Name, Linked: true}, nil
		}
		return nil, err
	}

	log.Info("source ingested", "corpus", corpus, "source", src.Name, "phrases", len(phrases))
	return &Result{Corpus: corpus, SourceID: src.ID, Name: src.Name, Phrases: len(phrases)}, nil
}
