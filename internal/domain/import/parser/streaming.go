package parser

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// extractPagesOrdered runs fn over every page with at most workers pages
// in flight and returns the results indexed like pages, so the output
// order never depends on scheduling. With one worker it runs inline.
func extractPagesOrdered(ctx context.Context, pages []Page, workers int, fn func(Page) pageResult) ([]pageResult, error) {
	results := make([]pageResult, len(pages))
	if workers <= 1 || len(pages) <= 1 {
		for i, p := range pages {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			results[i] = fn(p)
		}
		return results, nil
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, p := range pages {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = fn(p)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
