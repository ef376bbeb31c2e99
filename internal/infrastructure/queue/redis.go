package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/jhoicas/concesionaria-api/internal/application/audit"
	"github.com/jhoicas/concesionaria-api/internal/infrastructure/metrics"
)

// DLQPrefix lista de jobs agotados: dlq:{cola}.
const DLQPrefix = "dlq:"

// NewRedisClient parsea la URL y valida la conexión.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

// envelope job más el contador de intentos que viaja con él.
type envelope struct {
	Job      audit.Job `json:"job"`
	Attempts int       `json:"attempts"`
}

// DLQEntry job que superó el máximo de intentos.
type DLQEntry struct {
	Queue    string          `json:"original_queue"`
	Type     string          `json:"job_type"`
	Payload  json.RawMessage `json:"payload"`
	Reason   string          `json:"reason"`
	FailedAt time.Time       `json:"failed_at"`
	Attempts int             `json:"attempts"`
}

var _ audit.Dispatcher = (*RedisQueue)(nil)

// RedisQueue LPUSH para encolar, BRPOP para consumir. Un job que falla vuelve a la cola
// hasta maxAttempts y después pasa a la DLQ.
type RedisQueue struct {
	rdb         *redis.Client
	queue       string
	maxAttempts int
	block       time.Duration
	handler     audit.JobHandler
	log         zerolog.Logger
	metrics     *metrics.Metrics
	wg          sync.WaitGroup
}

func NewRedisQueue(rdb *redis.Client, queue string, maxAttempts int, h audit.JobHandler, log zerolog.Logger, m *metrics.Metrics) *RedisQueue {
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	return &RedisQueue{
		rdb: rdb, queue: queue, maxAttempts: maxAttempts, block: 5 * time.Second,
		handler: h, log: log, metrics: m,
	}
}

func (q *RedisQueue) Dispatch(ctx context.Context, job audit.Job) error {
	data, err := json.Marshal(envelope{Job: job})
	if err != nil {
		return err
	}
	if err := q.rdb.LPush(ctx, q.queue, data).Err(); err != nil {
		q.metrics.JobRejected()
		return fmt.Errorf("redis lpush: %w", err)
	}
	q.metrics.JobEnqueued(job.Type)
	return nil
}

// Start lanza workers que consumen hasta que ctx se cancele; Wait espera su salida.
func (q *RedisQueue) Start(ctx context.Context, workers int) {
	if workers <= 0 {
		workers = 1
	}
	q.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func(id int) {
			defer q.wg.Done()
			for ctx.Err() == nil {
				if _, err := q.ProcessNext(ctx); err != nil && ctx.Err() == nil {
					q.log.Warn().Err(err).Int("worker", id).Msg("cola redis")
					time.Sleep(time.Second)
				}
			}
		}(i)
	}
	q.log.Info().Int("workers", workers).Str("cola", q.queue).Msg("consumidores redis iniciados")
}

func (q *RedisQueue) Wait() { q.wg.Wait() }

// ProcessNext consume un job; false si el BRPOP venció sin datos.
func (q *RedisQueue) ProcessNext(ctx context.Context) (bool, error) {
	res, err := q.rdb.BRPop(ctx, q.block, q.queue).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if len(res) < 2 {
		return false, nil
	}

	var env envelope
	if err := json.Unmarshal([]byte(res[1]), &env); err != nil {
		q.toDLQ(ctx, envelope{Job: audit.Job{Type: "desconocido", Payload: json.RawMessage(res[1])}}, err)
		return true, nil
	}

	jctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), jobTimeout)
	err = q.handler.Handle(jctx, env.Job)
	cancel()
	env.Attempts++
	switch {
	case err == nil:
		q.metrics.JobDone(env.Job.Type, metrics.ResultOK)
	case env.Attempts >= q.maxAttempts:
		q.toDLQ(ctx, env, err)
	default:
		q.metrics.JobDone(env.Job.Type, metrics.ResultRetry)
		data, _ := json.Marshal(env)
		if perr := q.rdb.LPush(context.WithoutCancel(ctx), q.queue, data).Err(); perr != nil {
			q.log.Error().Err(perr).Str("tipo", env.Job.Type).Msg("no se pudo reencolar el job")
		}
	}
	return true, nil
}

func (q *RedisQueue) toDLQ(ctx context.Context, env envelope, cause error) {
	q.metrics.JobDone(env.Job.Type, metrics.ResultDLQ)
	data, err := json.Marshal(DLQEntry{
		Queue: q.queue, Type: env.Job.Type, Payload: env.Job.Payload,
		Reason: cause.Error(), FailedAt: time.Now().UTC(), Attempts: env.Attempts,
	})
	if err != nil {
		q.log.Error().Err(err).Msg("dlq: no se pudo serializar")
		return
	}
	if err := q.rdb.LPush(context.WithoutCancel(ctx), DLQPrefix+q.queue, data).Err(); err != nil {
		q.log.Error().Err(err).Str("dlq", DLQPrefix+q.queue).Msg("dlq: no se pudo encolar")
		return
	}
	q.log.Warn().Str("tipo", env.Job.Type).Str("motivo", cause.Error()).Int("intentos", env.Attempts).
		Msg("dlq: job movido a la cola de descartes")
}

// DLQLength cantidad de jobs descartados.
func (q *RedisQueue) DLQLength(ctx context.Context) (int64, error) {
	return q.rdb.LLen(ctx, DLQPrefix+q.queue).Result()
}
