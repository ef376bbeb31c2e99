// Package queue backends del Dispatcher de auditoría: pool en proceso y lista Redis.
package queue

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"

	"github.com/jhoicas/concesionaria-api/internal/application/audit"
	"github.com/jhoicas/concesionaria-api/internal/infrastructure/metrics"
)

var (
	ErrQueueFull   = errors.New("cola de auditoría llena")
	ErrQueueClosed = errors.New("cola de auditoría cerrada")
)

const jobTimeout = 10 * time.Second

var _ audit.Dispatcher = (*Pool)(nil)

// Pool workers en proceso sobre un canal con buffer. Dispatch nunca bloquea: con el
// buffer lleno el job se descarta y se cuenta.
type Pool struct {
	handler audit.JobHandler
	jobs    chan audit.Job
	log     zerolog.Logger
	metrics *metrics.Metrics
	backoff time.Duration
	retries uint64

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// PoolOption configura el Pool.
type PoolOption func(*Pool)

// WithRetries reintentos por job y espera entre intentos.
func WithRetries(n uint64, backoff time.Duration) PoolOption {
	return func(p *Pool) { p.retries, p.backoff = n, backoff }
}

// NewPool arranca workers goroutines que consumen hasta Close.
func NewPool(h audit.JobHandler, workers, buffer int, log zerolog.Logger, m *metrics.Metrics, opts ...PoolOption) *Pool {
	if workers <= 0 {
		workers = 1
	}
	if buffer < 0 {
		buffer = 0
	}
	p := &Pool{
		handler: h,
		jobs:    make(chan audit.Job, buffer),
		log:     log,
		metrics: m,
		backoff: 100 * time.Millisecond,
		retries: 2,
	}
	for _, o := range opts {
		o(p)
	}
	if p.backoff <= 0 {
		p.backoff = time.Millisecond
	}
	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.run()
	}
	p.log.Info().Int("workers", workers).Int("buffer", buffer).Msg("pool de auditoría iniciado")
	return p
}

func (p *Pool) Dispatch(_ context.Context, job audit.Job) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		p.metrics.JobRejected()
		return ErrQueueClosed
	}
	select {
	case p.jobs <- job:
		p.metrics.JobEnqueued(job.Type)
		return nil
	default:
		p.metrics.JobRejected()
		return ErrQueueFull
	}
}

func (p *Pool) run() {
	defer p.wg.Done()
	for job := range p.jobs {
		p.process(job)
	}
}

func (p *Pool) process(job audit.Job) {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	attempt := 0
	b := retry.WithMaxRetries(p.retries, retry.NewConstant(p.backoff))
	err := retry.Do(ctx, b, func(ctx context.Context) error {
		attempt++
		if err := p.handler.Handle(ctx, job); err != nil {
			if attempt <= int(p.retries) {
				p.metrics.JobDone(job.Type, metrics.ResultRetry)
			}
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		p.metrics.JobDone(job.Type, metrics.ResultError)
		p.log.Error().Err(err).Str("tipo", job.Type).Int("intentos", attempt).Msg("job de auditoría descartado")
		return
	}
	p.metrics.JobDone(job.Type, metrics.ResultOK)
}

// Close deja de aceptar jobs y espera a que se vacíe la cola o venza ctx.
func (p *Pool) Close(ctx context.Context) error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.jobs)
	}
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
