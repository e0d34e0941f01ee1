package main

import (
	"fmt"

	"github.com/alucardeht/prosaic/internal/config"
	"github.com/alucardeht/prosaic/internal/ingest"
	"github.com/alucardeht/prosaic/internal/logger"
	"github.com/alucardeht/prosaic/internal/poem"
	"github.com/alucardeht/prosaic/internal/store"
	"github.com/alucardeht/prosaic/internal/tools"
	"github.com/alucardeht/prosaic/internal/tools/poetry"
)

// app holds what the commands share: configuration and the lazily opened
// store.
type app struct {
	configPath string
	verbose    bool

	cfg   *config.Config
	store *store.Store
}

func (a *app) load() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg
	logger.Init(cfg.LoggerConfig(a.verbose))
	return nil
}

func (a *app) openStore() (*store.Store, error) {
	if a.store != nil {
		return a.store, nil
	}
	if err := a.cfg.EnsureDirectories(); err != nil {
		return nil, err
	}
	s, err := store.Open(a.cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	a.store = s
	return s, nil
}

// library is the bundled templates plus those in the templates directory.
func (a *app) library() (*poem.Library, error) {
	lib := poem.Builtin()
	n, err := lib.LoadDir(a.cfg.Templates.Dir)
	if err != nil {
		return nil, err
	}
	if n > 0 {
		logger.Debug("user templates loaded", "dir", a.cfg.Templates.Dir, "count", n)
	}
	return lib, nil
}

func (a *app) generator(ps poem.PhraseStore) (*poem.Generator, error) {
	opts, err := a.cfg.PoemOptions()
	if err != nil {
		return nil, err
	}
	return poem.NewGenerator(ps, opts)
}

func (a *app) ingester(s *store.Store) *ingest.Ingester {
	return ingest.NewIngester(s, a.cfg.Ingest.MaxFileSize)
}

// registry wires every tool against the store.
func (a *app) registry() (*tools.Registry, error) {
	s, err := a.openStore()
	if err != nil {
		return nil, err
	}
	lib, err := a.library()
	if err != nil {
		return nil, err
	}
	gen, err := a.generator(s)
	if err != nil {
		return nil, err
	}

	r := tools.NewRegistry()
	if err := r.Register(tools.NewHealthTool(r)); err != nil {
		return nil, err
	}
	if err := r.RegisterAll(poetry.GetTools(poetry.Deps{
		Store:     s,
		Generator: gen,
		Library:   lib,
		Ingester:  a.ingester(s),
	})...); err != nil {
		return nil, fmt.Errorf("poetry tools: %w", err)
	}
	return r, nil
}

func (a *app) close() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			logger.Warn("failed to close store", "error", err)
		}
		a.store = nil
	}
}
