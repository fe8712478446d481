package iconconfig

import (
	"context"
	"errors"
	"sync"
)

// ErrWriterClosed is returned for submissions after Close.
var ErrWriterClosed = errors.New("icon config writer closed")

// WriteClient is the subset of Client the Writer needs.
type WriteClient interface {
	Save(ctx context.Context, cfg IconConfig) (SaveResult, error)
	Delete(ctx context.Context, id string, deleteFile bool) (DeleteResult, error)
}

type job struct {
	run  func(ctx context.Context) error
	done chan error
}

// Writer serialises write-through operations per icon id, so an older save
// can never land after a newer one. Different ids proceed concurrently.
type Writer struct {
	client WriteClient
	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	queues map[string][]job
	closed bool
	wg     sync.WaitGroup
}

// NewWriter returns a Writer that sends through client.
func NewWriter(client WriteClient) *Writer {
	ctx, cancel := context.WithCancel(context.Background())
	return &Writer{
		client: client,
		ctx:    ctx,
		cancel: cancel,
		queues: make(map[string][]job),
	}
}

// Save queues an upsert of cfg behind any pending operation on cfg.ID.
func (w *Writer) Save(cfg IconConfig) <-chan error {
	return w.submit(cfg.ID, func(ctx context.Context) error {
		_, err := w.client.Save(ctx, cfg)
		return err
	})
}

// Delete queues a delete of id behind any pending operation on id.
func (w *Writer) Delete(id string, deleteFile bool) <-chan error {
	return w.submit(id, func(ctx context.Context) error {
		_, err := w.client.Delete(ctx, id, deleteFile)
		return err
	})
}

// Pending returns the number of queued or running operations for id.
func (w *Writer) Pending(id string) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.queues[id])
}

// Close waits for queued operations to finish and rejects new ones.
func (w *Writer) Close() {
	w.mu.Lock()
	w.closed = true
	w.mu.Unlock()

	w.wg.Wait()
	w.cancel()
}

func (w *Writer) submit(id string, run func(ctx context.Context) error) <-chan error {
	done := make(chan error, 1)

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		done <- ErrWriterClosed
		return done
	}

	q, running := w.queues[id]
	w.queues[id] = append(q, job{run: run, done: done})
	if !running {
		w.wg.Add(1)
		go w.drain(id)
	}
	return done
}

// drain runs the queue for id until it is empty, then forgets it. The head
// job stays in the queue while it runs so Pending and submit see it.
func (w *Writer) drain(id string) {
	defer w.wg.Done()
	for {
		w.mu.Lock()
		q := w.queues[id]
		if len(q) == 0 {
			delete(w.queues, id)
			w.mu.Unlock()
			return
		}
		j := q[0]
		w.mu.Unlock()

		err := j.run(w.ctx)
		j.done <- err

		w.mu.Lock()
		w.queues[id] = w.queues[id][1:]
		w.mu.Unlock()
	}
}
