package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	defaultPersistTimeout = 3 * time.Second
	defaultRetryInterval  = time.Second
)

// Persister is the asynchronous half of write-through: mutators enqueue the
// encoded collection and return; a single worker writes it to the KV store.
// Only the latest blob per key is kept. A failed write goes back into the
// queue unless a newer blob for its key arrived meanwhile, and is retried, so
// once writes quiesce the persisted state matches memory.
type Persister struct {
	kv         KV
	log        *zap.Logger
	metrics    *Metrics
	timeout    time.Duration
	retryEvery time.Duration

	mu      sync.Mutex
	pending map[string]string

	wake    chan struct{}
	flush   chan chan struct{}
	stopped chan struct{}
}

func NewPersister(kv KV, log *zap.Logger, metrics *Metrics, timeout time.Duration) *Persister {
	if log == nil {
		log = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = defaultPersistTimeout
	}
	return &Persister{
		kv:         kv,
		log:        log,
		metrics:    metrics,
		timeout:    timeout,
		retryEvery: defaultRetryInterval,
		pending:    map[string]string{},
		wake:       make(chan struct{}, 1),
		flush:      make(chan chan struct{}),
		stopped:    make(chan struct{}),
	}
}

// Enqueue never blocks on I/O.
func (p *Persister) Enqueue(key, blob string) {
	p.mu.Lock()
	p.pending[key] = blob
	p.mu.Unlock()

	select {
	case p.wake <- struct{}{}:
	default:
	}
}

// Run writes pending blobs until ctx is cancelled, then drains once more
// under a fresh timeout.
func (p *Persister) Run(ctx context.Context) {
	defer close(p.stopped)

	var retry <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			dctx, cancel := context.WithTimeout(context.Background(), p.timeout)
			p.drain(dctx)
			cancel()
			return
		case <-p.wake:
			p.drain(ctx)
		case <-retry:
			p.drain(ctx)
		case done := <-p.flush:
			p.drain(ctx)
			close(done)
		}

		retry = nil
		if p.Pending() > 0 {
			retry = time.After(p.retryEvery)
		}
	}
}

// Flush returns once every blob enqueued before the call has been attempted.
// After Run has returned, Flush drains in the caller's goroutine.
func (p *Persister) Flush(ctx context.Context) error {
	done := make(chan struct{})
	select {
	case p.flush <- done:
	case <-p.stopped:
		p.drain(ctx)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Pending reports how many keys are waiting to be written.
func (p *Persister) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pending)
}

type pendingWrite struct {
	key  string
	blob string
}

func (p *Persister) take() []pendingWrite {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.pending) == 0 {
		return nil
	}
	out := make([]pendingWrite, 0, len(p.pending))
	for k, v := range p.pending {
		out = append(out, pendingWrite{key: k, blob: v})
	}
	p.pending = map[string]string{}

	sort.Slice(out, func(i, j int) bool { return out[i].key < out[j].key })
	return out
}

// requeue puts failed blobs back unless a newer one is already pending.
func (p *Persister) requeue(failed map[string]string) {
	if len(failed) == 0 {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	for k, v := range failed {
		if _, ok := p.pending[k]; !ok {
			p.pending[k] = v
		}
	}
}

// drain writes until nothing new is pending. Each blob is attempted at most
// once per drain; failures are requeued at the end.
func (p *Persister) drain(ctx context.Context) {
	failed := map[string]string{}
	for {
		batch := p.take()
		if len(batch) == 0 {
			break
		}
		for _, w := range batch {
			if err := p.write(ctx, w); err != nil {
				failed[w.key] = w.blob
				continue
			}
			delete(failed, w.key)
		}
	}
	p.requeue(failed)
}

func (p *Persister) write(parent context.Context, w pendingWrite) error {
	ctx, cancel := context.WithTimeout(parent, p.timeout)
	defer cancel()

	start := time.Now()
	err := p.kv.Set(ctx, w.key, w.blob)
	p.metrics.persisted(w.key, err, time.Since(start))

	if err != nil {
		p.log.Error("persist failed",
			zap.String("key", w.key),
			zap.Int("bytes", len(w.blob)),
			zap.Error(err),
		)
		return err
	}
	p.log.Debug("persisted", zap.String("key", w.key), zap.Int("bytes", len(w.blob)))
	return nil
}
