package useful

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/usefulapp/useful/internal/calendar"
	"github.com/usefulapp/useful/internal/lifestyle"
)

const maxConcurrentEventFiles = 4

func loadEventFiles(ctx context.Context, paths []string) ([]calendar.Event, error) {
	results := make([][]calendar.Event, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentEventFiles)

	for i := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			file, err := os.Open(paths[i])
			if err != nil {
				return fmt.Errorf("opening event file: %w", err)
			}
			defer file.Close()

			events, err := calendar.ParseEvents(file)
			if err != nil {
				return fmt.Errorf("event file %s: %w", paths[i], err)
			}

			results[i] = events
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	var events []calendar.Event
	for i := range results {
		events = append(events, results[i]...)
	}

	return events, nil
}

func loadItemsFile(path string) ([]lifestyle.Item, error) {
	if path == "" {
		return nil, nil
	}

	return lifestyle.LoadItemsFile(path)
}
