package cache

// Stats is a point-in-time snapshot of store activity. All counters are
// cumulative for the life of the store; TotalSize is the live entry count.
type Stats struct {
	Hits      int64
	Misses    int64
	Evictions int64
	Sets      int64
	Deletes   int64
	TotalSize int
	HitRate   float64
}

// counters holds the cumulative stats. It is guarded by the owning store's
// mutex; it has no locking of its own.
type counters struct {
	hits      int64
	misses    int64
	evictions int64
	sets      int64
	deletes   int64
}

// snapshot derives a Stats from the counters and the live size.
func (c *counters) snapshot(size int) Stats {
	s := Stats{
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
		Sets:      c.sets,
		Deletes:   c.deletes,
		TotalSize: size,
	}
	if lookups := c.hits + c.misses; lookups > 0 {
		s.HitRate = float64(c.hits) / float64(lookups)
	}
	return s
}
