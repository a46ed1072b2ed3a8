package invalidate

import "context"

// PatternClearer is the slice of a cache store the engine needs: pattern
// clearing and key enumeration. cache.MemoryStore satisfies it; so does
// anything else with the same shape.
type PatternClearer interface {
	ClearPattern(ctx context.Context, pat string) int
	Keys(ctx context.Context) []string
}

// storeBoundary adapts a PatternClearer into the engine's Invalidator and
// KeyEnumerator, keeping this package free of a store dependency.
type storeBoundary struct {
	store PatternClearer
}

// NewStoreBoundary wraps a cache store as an invalidation boundary.
func NewStoreBoundary(store PatternClearer) (Invalidator, error) {
	if store == nil {
		return nil, ErrNilStore
	}
	return &storeBoundary{store: store}, nil
}

func (b *storeBoundary) InvalidatePattern(ctx context.Context, pat string) error {
	b.store.ClearPattern(ctx, pat)
	return ctx.Err()
}

func (b *storeBoundary) Keys(ctx context.Context) []string {
	return b.store.Keys(ctx)
}

var (
	_ Invalidator   = (*storeBoundary)(nil)
	_ KeyEnumerator = (*storeBoundary)(nil)
)
