package audit

import (
	"context"
	"sync"
)

// MemoryRepo keeps the most recent runs in a fixed-size ring and is safe for concurrent use.
type MemoryRepo struct {
	mu   sync.RWMutex
	runs []Run
	next int
	full bool
}

// NewMemoryRepo constructs a MemoryRepo holding up to capacity runs.
func NewMemoryRepo(capacity int) *MemoryRepo {
	if capacity <= 0 {
		capacity = MaxRecent
	}
	return &MemoryRepo{runs: make([]Run, capacity)}
}

// Record stores the run, evicting the oldest when full.
func (r *MemoryRepo) Record(ctx context.Context, run Run) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs[r.next] = run
	r.next = (r.next + 1) % len(r.runs)
	if r.next == 0 {
		r.full = true
	}
	return nil
}

// Recent returns up to limit runs, newest first.
func (r *MemoryRepo) Recent(ctx context.Context, limit int) ([]Run, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	limit = clampLimit(limit)
	r.mu.RLock()
	defer r.mu.RUnlock()

	size := r.next
	if r.full {
		size = len(r.runs)
	}
	if limit > size {
		limit = size
	}
	out := make([]Run, 0, limit)
	for i := 1; i <= limit; i++ {
		idx := (r.next - i + len(r.runs)) % len(r.runs)
		out = append(out, r.runs[idx])
	}
	return out, nil
}
