package memory

import (
	"context"
	"sync"
)

// snapshotter is implemented by the map-backed repositories that can
// save and restore their full state.
type snapshotter interface {
	snapshot() any
	restore(saved any)
}

// TxRunner gives the in-memory repositories the same all-or-nothing
// write semantics a database transaction gives the postgres ones. It
// snapshots every enlisted repository before fn runs and restores the
// snapshots when fn fails. Writers outside InTx are not excluded, so
// every write belonging to one logical unit must go through it.
type TxRunner struct {
	mu    sync.Mutex
	repos []snapshotter
}

func NewTxRunner(repos ...snapshotter) *TxRunner {
	return &TxRunner{repos: repos}
}

func (r *TxRunner) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	saved := make([]any, len(r.repos))
	for i, repo := range r.repos {
		saved[i] = repo.snapshot()
	}

	if err := fn(ctx); err != nil {
		for i, repo := range r.repos {
			repo.restore(saved[i])
		}
		return err
	}
	return nil
}
