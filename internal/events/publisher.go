// Package events publishes job lifecycle events to Redis pub/sub so that
// other processes (notification fan-out, the frontend's live updates) can
// react without polling.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Event types. Each is also the Redis channel it is published on.
const (
	TypeInterestExpressed = "EVENT_JOB_INTEREST_EXPRESSED"
	TypeInterestWithdrawn = "EVENT_JOB_INTEREST_WITHDRAWN"
	TypeWorkerAssigned    = "EVENT_JOB_WORKER_ASSIGNED"
	TypeWorkerUnassigned  = "EVENT_JOB_WORKER_UNASSIGNED"
	TypeJobFilled         = "EVENT_JOB_FILLED"
	TypeJobFilledUndone   = "EVENT_JOB_FILLED_UNDONE"
	TypeJobDeleted        = "EVENT_JOB_DELETED"
)

// Event is the JSON payload published for every lifecycle change.
type Event struct {
	Type     string    `json:"type"`
	JobID    int64     `json:"jobId"`
	ActorID  int64     `json:"actorId"`
	UserID   int64     `json:"userId,omitempty"`
	Status   string    `json:"status,omitempty"`
	Occurred time.Time `json:"occurredAt"`
}

// Publisher sends events somewhere.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// RedisPublisher publishes events on the channel named by Event.Type.
type RedisPublisher struct {
	rdb *redis.Client
}

// NewRedisPublisher returns a publisher backed by rdb.
func NewRedisPublisher(rdb *redis.Client) *RedisPublisher {
	return &RedisPublisher{rdb: rdb}
}

func (p *RedisPublisher) Publish(ctx context.Context, ev Event) error {
	if ev.Occurred.IsZero() {
		ev.Occurred = time.Now().UTC()
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", ev.Type, err)
	}
	if err := p.rdb.Publish(ctx, ev.Type, payload).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", ev.Type, err)
	}
	return nil
}

// Nop discards events. Used when REDIS_URL is not configured.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
