package queue

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/concesionaria-api/internal/application/audit"
	"github.com/jhoicas/concesionaria-api/internal/infrastructure/metrics"
)

// handlerFunc adapta una función a audit.JobHandler.
type handlerFunc func(ctx context.Context, job audit.Job) error

func (f handlerFunc) Handle(ctx context.Context, job audit.Job) error { return f(ctx, job) }

func TestPool_ProcesaYDrenaAlCerrar(t *testing.T) {
	var mu sync.Mutex
	var seen []string
	h := handlerFunc(func(_ context.Context, job audit.Job) error {
		time.Sleep(time.Millisecond)
		mu.Lock()
		seen = append(seen, job.Type)
		mu.Unlock()
		return nil
	})
	p := NewPool(h, 2, 100, zerolog.Nop(), nil)

	for i := 0; i < 50; i++ {
		require.NoError(t, p.Dispatch(context.Background(), audit.Job{Type: audit.JobAudit}))
	}
	require.NoError(t, p.Close(context.Background()))

	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, seen, 50)
}

func TestPool_CerradoRechaza(t *testing.T) {
	p := NewPool(handlerFunc(func(context.Context, audit.Job) error { return nil }), 1, 1, zerolog.Nop(), nil)
	require.NoError(t, p.Close(context.Background()))
	require.NoError(t, p.Close(context.Background()))

	assert.ErrorIs(t, p.Dispatch(context.Background(), audit.Job{}), ErrQueueClosed)
}

func TestPool_LlenaNoBloquea(t *testing.T) {
	release := make(chan struct{})
	h := handlerFunc(func(context.Context, audit.Job) error {
		<-release
		return nil
	})
	m := metrics.New()
	p := NewPool(h, 1, 1, zerolog.Nop(), m)

	var rejected int
	for i := 0; i < 5; i++ {
		if errors.Is(p.Dispatch(context.Background(), audit.Job{Type: audit.JobAlert}), ErrQueueFull) {
			rejected++
		}
	}
	close(release)
	require.NoError(t, p.Close(context.Background()))

	assert.GreaterOrEqual(t, rejected, 3)
	assert.Equal(t, float64(rejected), counter(t, m, "concesionaria_jobs_rechazados_total"))
}

// counter suma todas las series de un contador del registro.
func counter(t *testing.T, m *metrics.Metrics, name string) float64 {
	t.Helper()
	mfs, err := m.Registry().Gather()
	require.NoError(t, err)
	var sum float64
	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
		for _, s := range mf.GetMetric() {
			sum += s.GetCounter().GetValue()
		}
	}
	return sum
}

func TestPool_ReintentaYDescarta(t *testing.T) {
	var calls atomic.Int32
	h := handlerFunc(func(context.Context, audit.Job) error {
		calls.Add(1)
		return errors.New("store caído")
	})
	p := NewPool(h, 1, 1, zerolog.Nop(), nil, WithRetries(2, time.Millisecond))

	require.NoError(t, p.Dispatch(context.Background(), audit.Job{Type: audit.JobNavigation}))
	require.NoError(t, p.Close(context.Background()))

	assert.Equal(t, int32(3), calls.Load())
}

func TestPool_ReintentoExitoso(t *testing.T) {
	var calls atomic.Int32
	h := handlerFunc(func(context.Context, audit.Job) error {
		if calls.Add(1) == 1 {
			return errors.New("timeout")
		}
		return nil
	})
	p := NewPool(h, 1, 1, zerolog.Nop(), nil, WithRetries(2, time.Millisecond))

	require.NoError(t, p.Dispatch(context.Background(), audit.Job{Type: audit.JobAudit}))
	require.NoError(t, p.Close(context.Background()))

	assert.Equal(t, int32(2), calls.Load())
}

func TestPool_CloseRespetaDeadline(t *testing.T) {
	block := make(chan struct{})
	defer close(block)
	p := NewPool(handlerFunc(func(context.Context, audit.Job) error {
		<-block
		return nil
	}), 1, 1, zerolog.Nop(), nil)
	require.NoError(t, p.Dispatch(context.Background(), audit.Job{}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, p.Close(ctx), context.DeadlineExceeded)
}
