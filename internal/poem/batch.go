package poem

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// GenerateBatch runs count independent generations of tmpl concurrently,
// bounded by Options.Parallelism. Run i uses seed+i, so the whole batch is
// reproducible. Results keep run order.
func (g *Generator) GenerateBatch(ctx context.Context, tmpl Template, corpus string, count int, seed uint64) ([]*Result, error) {
	if err := tmpl.Validate(); err != nil {
		return nil, err
	}
	if count <= 0 {
		return nil, nil
	}

	results := make([]*Result, count)
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(g.opts.Parallelism)

	for i := 0; i < count; i++ {
		eg.Go(func() error {
			res, err := g.GenerateSeeded(ctx, tmpl, corpus, seed+uint64(i))
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
