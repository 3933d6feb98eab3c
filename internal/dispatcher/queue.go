package dispatcher

import (
	"fmt"
	"sync/atomic"
)

// QueueStats counts what happened to the events of one buffered command.
type QueueStats struct {
	Pending   int    `json:"pending"`
	Processed uint64 `json:"processed"`
	Dropped   uint64 `json:"dropped"`
	Failed    uint64 `json:"failed"`
}

type queue struct {
	events    chan Event
	processed atomic.Uint64
	dropped   atomic.Uint64
	failed    atomic.Uint64
}

func (q *queue) stats() QueueStats {
	return QueueStats{
		Pending:   len(q.events),
		Processed: q.processed.Load(),
		Dropped:   q.dropped.Load(),
		Failed:    q.failed.Load(),
	}
}

func (d *Dispatcher) withQueue(command string, size int, blocking bool, h HandlerFunc) HandlerFunc {
	q := &queue{events: make(chan Event, size)}

	d.mu.Lock()
	d.queues[command] = q
	d.mu.Unlock()

	d.workers.Add(1)
	go d.drain(command, q, h)

	return func(e Event) (any, error) {
		d.mu.RLock()
		defer d.mu.RUnlock()
		if d.closed {
			return nil, ErrClosed
		}
		if blocking {
			q.events <- e
			return "queued", nil
		}
		select {
		case q.events <- e:
			return "queued", nil
		default:
			q.dropped.Add(1)
			d.metrics.dropped(command)
			return nil, fmt.Errorf("%w: %s", ErrQueueFull, command)
		}
	}
}

// drain runs h for every queued event until the queue is closed. Handler
// errors are logged and counted since there is no caller to return them to.
func (d *Dispatcher) drain(command string, q *queue, h HandlerFunc) {
	defer d.workers.Done()
	for e := range q.events {
		if _, err := h(e); err != nil {
			q.failed.Add(1)
			d.metrics.failed(command)
			d.logger.Error("buffered handler failed", "command", command, "error", err)
		}
		q.processed.Add(1)
		d.metrics.processed(command)
	}
}
