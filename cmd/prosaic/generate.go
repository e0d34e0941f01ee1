package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alucardeht/prosaic/internal/ingest"
	"github.com/alucardeht/prosaic/internal/nlp"
	"github.com/alucardeht/prosaic/internal/poem"
	"github.com/alucardeht/prosaic/internal/render"
	"github.com/alucardeht/prosaic/internal/store"
)

// textCorpus names the throwaway corpus built from --text.
const textCorpus = "text"

type generateFlags struct {
	template string
	corpus   string
	text     string
	seed     uint64
	count    int
	json     bool
	annotate bool
}

func newGenerateCmd(a *app) *cobra.Command {
	var f generateFlags

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Compose poems from a corpus",
		Long: `Compose poems by filling a template with phrases from a corpus.

The template is a library name (see "prosaic templates") or a path to a
JSON or YAML template file. With --text the phrases come from a text file
read into memory instead of the store.`,
		Example: `  prosaic generate --corpus dickens --template haiku
  prosaic generate --text novel.txt --template sonnet --seed 7
  prosaic generate --corpus dickens --template ./mine.yaml --count 3 --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if (f.corpus == "") == (f.text == "") {
				return errors.New("exactly one of --corpus or --text is required")
			}
			if f.count < 1 {
				return errors.New("--count must be at least 1")
			}

			lib, err := a.library()
			if err != nil {
				return err
			}
			tmpl, err := lib.Resolve(f.template)
			if err != nil {
				return err
			}

			var (
				ps     poem.PhraseStore
				corpus = f.corpus
			)
			if f.text != "" {
				mem, err := memoryFromFile(f.text)
				if err != nil {
					return err
				}
				ps, corpus = mem, textCorpus
			} else {
				s, err := a.openStore()
				if err != nil {
					return err
				}
				ps = s
			}

			gen, err := a.generator(ps)
			if err != nil {
				return err
			}

			seed := f.seed
			if !cmd.Flags().Changed("seed") {
				seed = poem.RandomSeed()
			}

			results, err := gen.GenerateBatch(cmd.Context(), tmpl, corpus, f.count, seed)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if f.json {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(results)
			}

			opts := render.Options{Styles: render.DefaultStyles(), Annotate: f.annotate, Header: true}
			for i, res := range results {
				if i > 0 {
					fmt.Fprintln(out)
				}
				fmt.Fprintln(out, render.Poem(res, opts))
			}
			if f.count > 1 {
				fmt.Fprintln(out)
				fmt.Fprintln(out, render.Summary(results, opts.Styles))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&f.template, "template", "t", "haiku", "template name or file")
	cmd.Flags().StringVarP(&f.corpus, "corpus", "c", "", "corpus name or id")
	cmd.Flags().StringVar(&f.text, "text", "", "generate from a text file instead of a corpus")
	cmd.Flags().Uint64VarP(&f.seed, "seed", "s", 0, "random seed (default random)")
	cmd.Flags().IntVarP(&f.count, "count", "n", 1, "number of poems")
	cmd.Flags().BoolVar(&f.json, "json", false, "print results as JSON")
	cmd.Flags().BoolVarP(&f.annotate, "annotate", "a", false, "show syllables, rhyme keys and relaxed rules")
	return cmd
}

func memoryFromFile(path string) (*store.Memory, error) {
	content, _, err := ingest.ReadFileAsUTF8(path)
	if err != nil {
		return nil, err
	}
	phrases := nlp.AnnotateText(content)
	if len(phrases) == 0 {
		return nil, fmt.Errorf("%s: no phrases found", path)
	}
	mem := store.NewMemory()
	mem.AddSource(textCorpus, phrases)
	return mem, nil
}
