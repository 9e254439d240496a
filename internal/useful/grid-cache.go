package useful

import (
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/usefulapp/useful/internal/calendar"
)

// Grids never go stale, the limit only bounds memory for clients walking
// through many months.
const maxCachedGrids = 240

type cachedGrid struct {
	grid   *calendar.Grid
	events [calendar.GridSize]int
}

type gridCache struct {
	builder *calendar.Builder
	events  []calendar.Event

	group  singleflight.Group
	mu     sync.RWMutex
	grids  map[string]*cachedGrid
	builds int
}

func newGridCache(builder *calendar.Builder, events []calendar.Event) *gridCache {
	return &gridCache{
		builder: builder,
		events:  events,
		grids:   make(map[string]*cachedGrid),
	}
}

func (c *gridCache) key(reference time.Time) string {
	year, month, _ := reference.In(c.builder.Location()).Date()
	return fmt.Sprintf("%04d-%02d", year, month)
}

func (c *gridCache) get(reference time.Time) *cachedGrid {
	key := c.key(reference)

	c.mu.RLock()
	cached, ok := c.grids[key]
	c.mu.RUnlock()

	if ok {
		return cached
	}

	v, _, _ := c.group.Do(key, func() (any, error) {
		c.mu.RLock()
		cached, ok := c.grids[key]
		c.mu.RUnlock()

		if ok {
			return cached, nil
		}

		grid := c.builder.Build(reference)
		cached = &cachedGrid{
			grid:   grid,
			events: grid.EventsPerCell(c.events),
		}

		c.mu.Lock()
		defer c.mu.Unlock()

		if len(c.grids) >= maxCachedGrids {
			clear(c.grids)
		}

		c.grids[key] = cached
		c.builds++

		return cached, nil
	})

	return v.(*cachedGrid)
}

func (c *gridCache) buildCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.builds
}
