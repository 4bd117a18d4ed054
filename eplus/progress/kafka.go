package progress

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

// KafkaConfig configures a KafkaSink.
type KafkaConfig struct {
	// Brokers is the list of Kafka broker addresses (host:port).
	Brokers []string `yaml:"brokers"`

	// Topic receives one message per progress event, keyed by run ID so a
	// run's events stay ordered within one partition.
	Topic string `yaml:"topic"`

	// MaxAttempts defaults to 3 if <= 0.
	MaxAttempts int `yaml:"max_attempts"`

	// WriteTimeout is the per-attempt timeout. Defaults to 5s if zero.
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// QueueSize bounds the events waiting to be published. Defaults to 1024
	// if <= 0.
	QueueSize int `yaml:"queue_size"`

	// CloseTimeout bounds how long Close keeps publishing queued events.
	// Defaults to 10s if zero.
	CloseTimeout time.Duration `yaml:"close_timeout"`
}

// Enabled reports whether enough is configured to build a sink.
func (c KafkaConfig) Enabled() bool {
	return len(c.Brokers) > 0 && c.Topic != ""
}

// messageWriter is the subset of *kafka.Writer used by KafkaSink.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSink publishes progress events as JSON to a Kafka topic. Delivery is
// best effort: a failed publish is logged and never fails the run.
//
// Emit only enqueues; a background goroutine publishes. When the queue is
// full the event is dropped and counted, so a slow broker never stalls the
// tool whose output is being streamed.
type KafkaSink struct {
	writer       messageWriter
	maxAttempts  int
	writeTimeout time.Duration
	closeTimeout time.Duration

	ctx     context.Context
	cancel  context.CancelFunc
	mu      sync.RWMutex
	closed  bool
	queue   chan Event
	done    chan struct{}
	dropped atomic.Int64
}

// NewKafkaSink constructs a KafkaSink backed by a kafka-go Writer.
func NewKafkaSink(cfg KafkaConfig) (*KafkaSink, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka: at least one broker required")
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("kafka: topic required")
	}
	w := kafka.NewWriter(kafka.WriterConfig{
		Brokers:      cfg.Brokers,
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: cfg.WriteTimeout,
	})
	return newKafkaSink(w, cfg), nil
}

func newKafkaSink(w messageWriter, cfg KafkaConfig) *KafkaSink {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 5 * time.Second
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 1024
	}
	if cfg.CloseTimeout == 0 {
		cfg.CloseTimeout = 10 * time.Second
	}
	ctx, cancel := context.WithCancel(context.Background())
	k := &KafkaSink{
		writer:       w,
		maxAttempts:  cfg.MaxAttempts,
		writeTimeout: cfg.WriteTimeout,
		closeTimeout: cfg.CloseTimeout,
		ctx:          ctx,
		cancel:       cancel,
		queue:        make(chan Event, cfg.QueueSize),
		done:         make(chan struct{}),
	}
	go k.drain()
	return k
}

// Emit enqueues ev without waiting for the broker. Events emitted after
// Close, or while the queue is full, are dropped.
func (k *KafkaSink) Emit(ev Event) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	if k.closed {
		k.dropped.Add(1)
		return
	}
	select {
	case k.queue <- ev:
	default:
		k.dropped.Add(1)
	}
}

// Dropped returns the number of events discarded because the queue was full,
// the sink was closed, or Close gave up on them.
func (k *KafkaSink) Dropped() int64 { return k.dropped.Load() }

func (k *KafkaSink) drain() {
	defer close(k.done)
	for ev := range k.queue {
		k.publish(ev)
	}
}

func (k *KafkaSink) publish(ev Event) {
	if k.ctx.Err() != nil {
		k.dropped.Add(1)
		return
	}
	value, err := json.Marshal(ev)
	if err != nil {
		logrus.Warnf("progress: marshal event: %v", err)
		return
	}
	msg := kafka.Message{Key: []byte(ev.RunID), Value: value, Time: time.Now().UTC()}

	var lastErr error
	backoff := 50 * time.Millisecond
	for attempt := 1; attempt <= k.maxAttempts; attempt++ {
		ctx, cancel := context.WithTimeout(k.ctx, k.writeTimeout)
		lastErr = k.writer.WriteMessages(ctx, msg)
		cancel()
		if lastErr == nil {
			return
		}
		if attempt < k.maxAttempts {
			select {
			case <-time.After(backoff):
			case <-k.ctx.Done():
				k.dropped.Add(1)
				return
			}
			backoff *= 2
		}
	}
	if k.ctx.Err() != nil {
		k.dropped.Add(1)
		return
	}
	logrus.WithField("run", shortID(ev.RunID)).
		Warnf("progress: kafka publish failed after %d attempts: %v", k.maxAttempts, lastErr)
}

// Close publishes what is still queued, for at most CloseTimeout, then
// closes the underlying writer.
func (k *KafkaSink) Close() error {
	if k == nil || k.writer == nil {
		return nil
	}
	k.mu.Lock()
	if k.closed {
		k.mu.Unlock()
		return nil
	}
	k.closed = true
	close(k.queue)
	k.mu.Unlock()

	select {
	case <-k.done:
	case <-time.After(k.closeTimeout):
		k.cancel()
		<-k.done
	}
	k.cancel()
	if n := k.dropped.Load(); n > 0 {
		logrus.Warnf("progress: %d kafka events dropped", n)
	}
	return k.writer.Close()
}
