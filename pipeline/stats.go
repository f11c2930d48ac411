package pipeline

import (
	"sort"
	"sync"
	"time"
)

// StatsBoard keeps the latest stats snapshot of every pipeline stage.
type StatsBoard struct {
	mu    sync.RWMutex
	stats map[string]interface{}
}

func NewStatsBoard() *StatsBoard {
	return &StatsBoard{
		stats: map[string]interface{}{},
	}
}

func (b *StatsBoard) Update(name string, stats interface{}) {
	if b == nil {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.stats[name] = stats
}

func (b *StatsBoard) Get(name string) (interface{}, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	s, ok := b.stats[name]
	return s, ok
}

func (b *StatsBoard) Snapshot() map[string]interface{} {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make(map[string]interface{}, len(b.stats))
	for k, v := range b.stats {
		out[k] = v
	}
	return out
}

func (b *StatsBoard) Names() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	names := make([]string, 0, len(b.stats))
	for k := range b.stats {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func fps(frames int, start time.Time) int {
	elapsed := time.Since(start).Seconds()
	if elapsed < 1 {
		return frames
	}
	return int(float64(frames) / elapsed)
}
