package numerator

import (
	"context"
	"sync"
	"time"
)

// Memory is an in-process Generator used by tests and the seed command.
// Numbers are sequential per key and reset when the process restarts.
type Memory struct {
	mu       sync.Mutex
	counters map[string]int64
}

// NewMemory creates an in-memory generator.
func NewMemory() *Memory {
	return &Memory{counters: make(map[string]int64)}
}

var _ Generator = (*Memory)(nil)

// GetNextNumber implements Generator.
func (m *Memory) GetNextNumber(_ context.Context, cfg Config, _ *Options, period time.Time) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := buildKey(cfg, period)
	m.counters[key]++
	return formatNumber(cfg, period, m.counters[key]), nil
}

// SetNextNumber implements Generator.
func (m *Memory) SetNextNumber(_ context.Context, cfg Config, period time.Time, value int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.counters[buildKey(cfg, period)] = value
	return nil
}
