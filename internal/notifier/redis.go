package notifier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/OCAP2/gaze/pkg/core"
)

const (
	defaultPublishTimeout = 250 * time.Millisecond
	defaultRedisBuffer    = 16
)

// ErrRedisBacklog is returned by Redis.Notify when the publish buffer is full.
var ErrRedisBacklog = errors.New("redis publish backlog full")

// RedisConfig configures the pub/sub publisher.
type RedisConfig struct {
	Address        string
	Password       string
	DB             int
	Channel        string
	PublishTimeout time.Duration // bound on a single publish, default 250ms
	Buffer         int           // messages waiting to be published, default 16
	Logger         *slog.Logger
}

// Redis publishes each message on a pub/sub channel, for consumers that are
// not on the local host. Publishing happens on a background goroutine in
// send order; Notify never waits on the server.
type Redis struct {
	client  *redis.Client
	channel string
	timeout time.Duration
	logger  *slog.Logger

	pending chan core.Message
	done    chan struct{}
	once    sync.Once
	mu      sync.RWMutex
	closed  bool
}

// NewRedis creates a publisher. The connection is established lazily.
func NewRedis(cfg RedisConfig) *Redis {
	timeout := cfg.PublishTimeout
	if timeout <= 0 {
		timeout = defaultPublishTimeout
	}
	buffer := cfg.Buffer
	if buffer <= 0 {
		buffer = defaultRedisBuffer
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  timeout,
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
		MaxRetries:   -1,
	})
	r := &Redis{
		client:  client,
		channel: cfg.Channel,
		timeout: timeout,
		logger:  logger.With("component", "redis-notifier", "channel", cfg.Channel),
		pending: make(chan core.Message, buffer),
		done:    make(chan struct{}),
	}
	go r.run()
	return r
}

// Ping checks the server is reachable.
func (r *Redis) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

// Notify queues the payload for publishing.
func (r *Redis) Notify(_ context.Context, msg core.Message) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return fmt.Errorf("redis publish to %s: notifier closed", r.channel)
	}
	select {
	case r.pending <- msg:
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrRedisBacklog, r.channel)
	}
}

func (r *Redis) run() {
	defer close(r.done)
	for msg := range r.pending {
		if err := r.publish(msg); err != nil {
			r.logger.Debug("publish failed", "message", msg, "error", err)
		}
	}
}

func (r *Redis) publish(msg core.Message) error {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()
	if err := r.client.Publish(ctx, r.channel, string(msg)).Err(); err != nil {
		return fmt.Errorf("redis publish to %s: %w", r.channel, err)
	}
	return nil
}

// Close publishes what is still queued, then closes the client.
func (r *Redis) Close() error {
	r.once.Do(func() {
		r.mu.Lock()
		r.closed = true
		close(r.pending)
		r.mu.Unlock()
	})
	<-r.done
	return r.client.Close()
}
