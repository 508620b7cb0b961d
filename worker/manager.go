package worker

import (
	"context"
	"log/slog"
	"sync"
)

// Worker is a long-running task started by the serve command. Start blocks
// until ctx is cancelled or the worker fails.
type Worker interface {
	Name() string
	Start(ctx context.Context) error
}

// Manager starts and supervises a set of workers.
type Manager struct {
	workers []Worker
}

func NewManager(ws ...Worker) *Manager {
	return &Manager{workers: ws}
}

// Start runs every worker until ctx is done. The first worker error cancels
// the others and is returned.
func (m *Manager) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	errs := make(chan error, len(m.workers))
	for _, w := range m.workers {
		wg.Add(1)
		go func(w Worker) {
			defer wg.Done()
			slog.Info("worker: started", "name", w.Name())
			if err := w.Start(ctx); err != nil {
				slog.Error("worker: stopped with error", "name", w.Name(), "err", err)
				errs <- err
				cancel()
				return
			}
			slog.Info("worker: stopped", "name", w.Name())
		}(w)
	}
	<-ctx.Done()
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
