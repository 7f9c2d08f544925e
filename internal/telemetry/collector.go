// Package telemetry publishes per-query timing events to Kafka and
// aggregates them into percentile latency statistics, adapted from the
// teacher's internal/analytics collector/aggregator pair for the
// retrieval core's query/fusion evaluation events instead of HTTP
// search/index events.
package telemetry

import (
	"context"
	"log/slog"

	"github.com/salvocorp/rankcore/pkg/kafka"
	"github.com/salvocorp/rankcore/pkg/resilience"
)

// Collector buffers QueryEvents in a channel and publishes them to Kafka
// asynchronously, dropping events if the buffer is full rather than
// blocking the evaluation path.
type Collector struct {
	producer *kafka.Producer
	eventCh  chan QueryEvent
	logger   *slog.Logger
	done     chan struct{}
}

// NewCollector creates a Collector backed by producer with the given
// channel buffer size (defaults to 10000 if non-positive).
func NewCollector(producer *kafka.Producer, bufferSize int) *Collector {
	if bufferSize <= 0 {
		bufferSize = 10000
	}
	return &Collector{
		producer: producer,
		eventCh:  make(chan QueryEvent, bufferSize),
		logger:   slog.Default().With("component", "telemetry-collector"),
		done:     make(chan struct{}),
	}
}

// Start launches the background publish loop. It returns immediately;
// the loop runs until ctx is cancelled, then drains the buffer best-effort.
func (c *Collector) Start(ctx context.Context) {
	go func() {
		defer close(c.done)
		for {
			select {
			case event, ok := <-c.eventCh:
				if !ok {
					return
				}
				c.publish(ctx, event)
			case <-ctx.Done():
				c.drainRemaining()
				return
			}
		}
	}()
	c.logger.Info("telemetry collector started", "buffer_size", cap(c.eventCh))
}

func (c *Collector) publish(ctx context.Context, event QueryEvent) {
	err := resilience.Retry(ctx, "telemetry-publish", resilience.RetryConfig{MaxAttempts: 3}, func() error {
		return c.producer.Publish(ctx, kafka.Event{Key: event.QueryId, Value: event})
	})
	if err != nil {
		c.logger.Error("failed to publish telemetry event", "query_id", event.QueryId, "error", err)
	}
}

// Track enqueues event for publication. Non-blocking: the event is
// dropped with a warning if the buffer is full.
func (c *Collector) Track(event QueryEvent) {
	select {
	case c.eventCh <- event:
	default:
		c.logger.Warn("telemetry event dropped (buffer full)", "query_id", event.QueryId)
	}
}

// Close stops accepting new events and waits for the publish loop to exit.
func (c *Collector) Close() {
	close(c.eventCh)
	<-c.done
}

func (c *Collector) drainRemaining() {
	for {
		select {
		case event, ok := <-c.eventCh:
			if !ok {
				return
			}
			c.publish(context.Background(), event)
		default:
			return
		}
	}
}
