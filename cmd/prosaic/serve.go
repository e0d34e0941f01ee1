package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/alucardeht/prosaic/internal/daemon"
	"github.com/alucardeht/prosaic/internal/ingest"
	"github.com/alucardeht/prosaic/internal/logger"
	"github.com/alucardeht/prosaic/internal/store"
	"github.com/alucardeht/prosaic/internal/watcher"
)

func newServeCmd(a *app) *cobra.Command {
	var watch []string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the daemon on the unix socket",
		Long: `Run the tool daemon on the configured unix socket. With --watch (or
watcher.enabled and watcher.roots in the config) directories are watched
and new or changed text files are ingested into their corpus.`,
		Example: `  prosaic serve
  prosaic serve --watch ~/books=novels --watch ./notes=notes`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			roots, err := a.watchRoots(watch)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := a.cfg.EnsureDirectories(); err != nil {
				return err
			}
			lc := daemon.NewLifecycle(a.cfg.DataDir, a.cfg.SocketPath)
			if err := lc.Acquire(); err != nil {
				return err
			}
			defer lc.Release()

			registry, err := a.registry()
			if err != nil {
				return err
			}

			if len(roots) > 0 {
				stopWatching, err := a.startWatching(ctx, a.store, roots)
				if err != nil {
					return err
				}
				defer stopWatching()
			}

			d := daemon.NewDaemon(a.cfg.SocketPath, registry)
			if err := d.Start(ctx); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "listening on %s\n", d.SocketPath())

			d.Wait()
			return nil
		},
	}

	cmd.Flags().StringArrayVarP(&watch, "watch", "w", nil, "watch DIR=CORPUS (repeatable)")
	return cmd
}

// watchRoots merges the configured roots with DIR=CORPUS flags.
func (a *app) watchRoots(flags []string) (map[string]string, error) {
	roots := make(map[string]string)
	if a.cfg.Watcher.Enabled {
		for dir, corpus := range a.cfg.Watcher.Roots {
			roots[dir] = corpus
		}
	}
	for _, f := range flags {
		dir, corpus, ok := strings.Cut(f, "=")
		if !ok || dir == "" || corpus == "" {
			return nil, fmt.Errorf("invalid --watch %q, want DIR=CORPUS", f)
		}
		roots[dir] = corpus
	}
	return roots, nil
}

func (a *app) startWatching(ctx context.Context, s *store.Store, roots map[string]string) (func(), error) {
	for _, corpus := range roots {
		if _, err := s.GetCorpus(ctx, corpus); err != nil {
			if _, err := s.CreateCorpus(ctx, corpus, "watched directory"); err != nil {
				return nil, err
			}
		}
	}

	worker := ingest.NewWorker(a.ingester(s), a.cfg.WorkerOptions())
	worker.Start()

	w, err := watcher.New(a.cfg.WatcherOptions(), worker)
	if err != nil {
		worker.Stop()
		return nil, err
	}
	for dir, corpus := range roots {
		if err := w.AddRoot(dir, corpus); err != nil {
			w.Stop()
			worker.Stop()
			return nil, err
		}
	}
	if err := w.Start(ctx); err != nil {
		w.Stop()
		worker.Stop()
		return nil, err
	}

	return func() {
		if err := w.Stop(); err != nil {
			logger.Warn("failed to stop watcher", "error", err)
		}
		worker.Stop()
		st := worker.Stats()
		logger.Info("ingest worker stopped",
			"ingested", st.Ingested,
			"linked", st.Linked,
			"failed", st.Failed,
			"skipped", st.Skipped)
	}, nil
}
