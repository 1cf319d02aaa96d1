package queue

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/valkey-io/valkey-go"
)

type jobEnvelope struct {
	Name    string         `json:"name"`
	Payload map[string]any `json:"payload"`
}

// ValkeyQueue persists jobs in a Valkey list and delivers them to a handler.
type ValkeyQueue struct {
	client      valkey.Client
	queueKey    string
	handler     Handler
	logger      *slog.Logger
	pollTimeout time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewValkeyQueue constructs a Valkey-backed queue.
func NewValkeyQueue(client valkey.Client, queueKey string, logger *slog.Logger) *ValkeyQueue {
	if queueKey == "" {
		queueKey = "flowdash:jobs"
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &ValkeyQueue{
		client:      client,
		queueKey:    queueKey,
		logger:      logger.With("component", "queue.valkey"),
		pollTimeout: 5 * time.Second,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// SetHandler starts the worker loop that pops jobs and invokes the handler.
// It must be called at most once.
func (q *ValkeyQueue) SetHandler(handler Handler) {
	q.handler = handler
	if handler == nil {
		return
	}
	q.wg.Add(1)
	go q.consume()
}

// Enqueue pushes a job onto the queue.
func (q *ValkeyQueue) Enqueue(ctx context.Context, name string, payload map[string]any) error {
	if payload == nil {
		payload = map[string]any{}
	}
	encoded, err := json.Marshal(jobEnvelope{Name: name, Payload: payload})
	if err != nil {
		return err
	}
	cmd := q.client.B().Lpush().Key(q.queueKey).Element(string(encoded)).Build()
	return q.client.Do(ctx, cmd).Error()
}

// Close stops the worker and waits for the job in flight.
func (q *ValkeyQueue) Close() error {
	q.cancel()
	q.wg.Wait()
	return nil
}

func (q *ValkeyQueue) consume() {
	defer q.wg.Done()
	for {
		if q.ctx.Err() != nil {
			return
		}
		resp := q.client.Do(q.ctx, q.client.B().Brpop().Key(q.queueKey).Timeout(q.pollTimeout.Seconds()).Build())
		values, err := resp.ToArray()
		if err != nil {
			if q.ctx.Err() != nil {
				return
			}
			if !valkey.IsValkeyNil(err) {
				q.logger.Warn("valkey queue pop failed", "error", err)
				time.Sleep(time.Second)
			}
			continue
		}
		if len(values) < 2 {
			continue
		}
		raw, err := values[1].ToString()
		if err != nil {
			q.logger.Warn("valkey queue payload decode failed", "error", err)
			continue
		}
		var job jobEnvelope
		if err := json.Unmarshal([]byte(raw), &job); err != nil {
			q.logger.Warn("valkey queue unmarshal failed", "error", err)
			continue
		}
		// A job in flight finishes even when Close is called.
		q.handler(context.WithoutCancel(q.ctx), job.Name, job.Payload)
	}
}

var _ HandlerQueue = (*ValkeyQueue)(nil)
