// Package render formats poems and corpus listings for the terminal.
package render

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	humanize "github.com/dustin/go-humanize"

	"github.com/alucardeht/prosaic/internal/poem"
	"github.com/alucardeht/prosaic/internal/types"
)

var (
	Accent  = lipgloss.Color("#8BC34A")
	Muted   = lipgloss.Color("#6b7280")
	Warning = lipgloss.Color("#e57373")
)

type Styles struct {
	Title      lipgloss.Style
	Line       lipgloss.Style
	Failure    lipgloss.Style
	Annotation lipgloss.Style
	Label      lipgloss.Style
}

func DefaultStyles() Styles {
	return Styles{
		Title:      lipgloss.NewStyle().Bold(true).Foreground(Accent),
		Line:       lipgloss.NewStyle(),
		Failure:    lipgloss.NewStyle().Italic(true).Foreground(Warning),
		Annotation: lipgloss.NewStyle().Foreground(Muted),
		Label:      lipgloss.NewStyle().Bold(true),
	}
}

// PlainStyles renders without any escape sequences.
func PlainStyles() Styles {
	plain := lipgloss.NewStyle()
	return Styles{Title: plain, Line: plain, Failure: plain, Annotation: plain, Label: plain}
}

type Options struct {
	Styles Styles
	// Annotate appends syllables, rhyme key and relaxed rules to each line.
	Annotate bool
	// Header prints the corpus and seed above the poem.
	Header bool
}

func DefaultOptions() Options {
	return Options{Styles: DefaultStyles()}
}

func FailureMarker(line int) string {
	return fmt.Sprintf("· no match (line %d)", line)
}

func Poem(res *poem.Result, opts Options) string {
	st := opts.Styles
	var b strings.Builder

	if opts.Header {
		b.WriteString(st.Title.Render(res.Corpus))
		if res.Seed != nil {
			b.WriteString(st.Annotation.Render(fmt.Sprintf("  seed %d", *res.Seed)))
		}
		b.WriteString("\n\n")
	}

	for i, l := range res.Lines {
		if i > 0 {
			b.WriteString("\n")
		}
		switch l.Kind {
		case poem.OutcomeBlank:
		case poem.OutcomeFailed:
			b.WriteString(st.Failure.Render(FailureMarker(l.Index + 1)))
			if opts.Annotate && len(l.Relaxed) > 0 {
				b.WriteString(st.Annotation.Render("  " + annotation(l)))
			}
		case poem.OutcomePhrase:
			b.WriteString(st.Line.Render(l.Phrase.Raw))
			if opts.Annotate {
				b.WriteString(st.Annotation.Render("  " + annotation(l)))
			}
		}
	}
	return b.String()
}

func annotation(l poem.LineOutcome) string {
	var parts []string
	if l.Phrase != nil {
		parts = append(parts, fmt.Sprintf("%d syl", l.Phrase.Syllables))
		if l.Phrase.RhymeKey != "" {
			key := l.Phrase.RhymeKey
			if l.RhymeLabel != "" {
				key = l.RhymeLabel + "=" + key
			}
			parts = append(parts, key)
		}
	}
	if len(l.Relaxed) > 0 {
		relaxed := make([]string, len(l.Relaxed))
		for i, k := range l.Relaxed {
			relaxed[i] = string(k)
		}
		parts = append(parts, "relaxed "+strings.Join(relaxed, ","))
	}
	return "[" + strings.Join(parts, " · ") + "]"
}

// Summary is the one-line footer under a batch of poems.
func Summary(results []*poem.Result, st Styles) string {
	lines, failed := 0, 0
	for _, r := range results {
		lines += len(r.Lines)
		failed += r.Failures()
	}
	return st.Annotation.Render(fmt.Sprintf("%s, %s, %d unmatched",
		plural(len(results), "poem"), plural(lines, "line"), failed))
}

func Stats(s *types.CorpusStats, st Styles) string {
	var b strings.Builder
	b.WriteString(st.Title.Render(s.Corpus))
	b.WriteString("\n")
	fmt.Fprintf(&b, "%s %s\n", st.Label.Render("sources:   "), humanize.Comma(int64(s.Sources)))
	fmt.Fprintf(&b, "%s %s\n", st.Label.Render("phrases:   "), humanize.Comma(int64(s.Phrases)))
	fmt.Fprintf(&b, "%s %s\n", st.Label.Render("rhyme keys:"), humanize.Comma(int64(s.RhymeKeys)))

	if len(s.BySyllables) == 0 {
		return b.String()
	}

	counts := make([]int, 0, len(s.BySyllables))
	for n := range s.BySyllables {
		counts = append(counts, n)
	}
	sort.Ints(counts)

	b.WriteString(st.Label.Render("syllables:"))
	b.WriteString("\n")
	for _, n := range counts {
		fmt.Fprintf(&b, "  %2d  %s\n", n, humanize.Comma(int64(s.BySyllables[n])))
	}
	return b.String()
}

func Corpora(corpora []types.Corpus, st Styles) string {
	if len(corpora) == 0 {
		return st.Annotation.Render("no corpora") + "\n"
	}

	width := 0
	for _, c := range corpora {
		if w := lipgloss.Width(c.Name); w > width {
			width = w
		}
	}

	var b strings.Builder
	name := st.Label.Width(width + 2)
	for _, c := range corpora {
		b.WriteString(name.Render(c.Name))
		b.WriteString(st.Annotation.Render(humanize.Time(c.CreatedAt)))
		if c.Description != "" {
			b.WriteString("  ")
			b.WriteString(c.Description)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return humanize.Comma(int64(n)) + " " + noun + "s"
}
