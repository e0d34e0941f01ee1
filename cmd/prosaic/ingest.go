package main

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/alucardeht/prosaic/internal/ingest"
)

func newIngestCmd(a *app) *cobra.Command {
	var create bool

	cmd := &cobra.Command{
		Use:   "ingest CORPUS PATH...",
		Short: "Add text files to a corpus",
		Long: `Segment text files into phrases and add them to a corpus. Directories are
walked; files are filtered by ingest.include_patterns and
ingest.exclude_patterns.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			corpus := args[0]

			if create {
				if _, err := s.GetCorpus(ctx, corpus); err != nil {
					if _, err := s.CreateCorpus(ctx, corpus, ""); err != nil {
						return err
					}
				}
			}

			files, err := a.collectFiles(args[1:])
			if err != nil {
				return err
			}

			in := a.ingester(s)
			out := cmd.OutOrStdout()
			var failed int
			for _, path := range files {
				res, err := in.IngestFile(ctx, corpus, path)
				if err != nil {
					failed++
					fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", path, err)
					continue
				}
				if res.Linked {
					fmt.Fprintf(out, "%s: already stored, linked\n", path)
					continue
				}
				fmt.Fprintf(out, "%s: %d phrases (%s)\n", path, res.Phrases, res.Encoding)
			}

			if failed > 0 {
				return fmt.Errorf("%d of %d files failed", failed, len(files))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&create, "create", false, "create the corpus when missing")
	return cmd
}

// collectFiles expands directories to the files the ingest patterns accept.
// Files named explicitly are always kept.
func (a *app) collectFiles(paths []string) ([]string, error) {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}

		root := p
		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil || d.IsDir() {
				return err
			}
			if ingest.Matches(path, root, a.cfg.Ingest.IncludePatterns, a.cfg.Ingest.ExcludePatterns) {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return files, nil
}
