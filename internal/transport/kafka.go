package transport

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
	"go.uber.org/zap"
)

// Endpoint addresses one channel: a broker host:port list plus the
// topic carrying that direction's traffic.
type Endpoint struct {
	Brokers []string
	Topic   string
}

// KafkaSender publishes outbound messages to the venue's order topic.
type KafkaSender struct {
	client *kgo.Client
	topic  string
	key    []byte
	logger *zap.Logger

	produceCount int64
	errorCount   int64
}

// NewKafkaSender creates the outbound channel. key partitions all of
// one client's traffic together so the venue sees it in send order.
func NewKafkaSender(ep Endpoint, key string, logger *zap.Logger) (*KafkaSender, error) {
	opts := []kgo.Opt{
		kgo.SeedBrokers(ep.Brokers...),
		kgo.RequiredAcks(kgo.AllISRAcks()),
	}

	client, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka client: %w", err)
	}

	logger.Info("outbound channel ready",
		zap.Strings("brokers", ep.Brokers),
		zap.String("topic", ep.Topic),
	)

	return &KafkaSender{
		client: client,
		topic:  ep.Topic,
		key:    []byte(key),
		logger: logger,
	}, nil
}

// Send publishes one message synchronously.
func (s *KafkaSender) Send(ctx context.Context, payload []byte) error {
	record := &kgo.Record{
		Topic: s.topic,
		Key:   s.key,
		Value: payload,
	}

	produceCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	result := s.client.ProduceSync(produceCtx, record)
	if result.FirstErr() != nil {
		atomic.AddInt64(&s.errorCount, 1)
		return fmt.Errorf("failed to produce message: %w", result.FirstErr())
	}

	atomic.AddInt64(&s.produceCount, 1)
	return nil
}

// Close closes the outbound channel.
func (s *KafkaSender) Close() error {
	s.logger.Info("outbound channel closing",
		zap.Int64("produced", atomic.LoadInt64(&s.produceCount)),
		zap.Int64("errors", atomic.LoadInt64(&s.errorCount)),
	)
	s.client.Close()
	return nil
}

// KafkaReceiver consumes inbound messages from the venue's event
// topic.
type KafkaReceiver struct {
	client *kgo.Client
	topic  string
	logger *zap.Logger

	// records fetched but not yet handed to the caller
	pending [][]byte

	pollCount int64
}

// NewKafkaReceiver creates the inbound channel. group isolates this
// client's consumption from other clients on the same topic.
func NewKafkaReceiver(ep Endpoint, group string, logger *zap.Logger) (*KafkaReceiver, error) {
	opts := []kgo.Opt{
		kgo.SeedBrokers(ep.Brokers...),
		kgo.ConsumerGroup(group),
		kgo.ConsumeTopics(ep.Topic),
	}

	client, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka client: %w", err)
	}

	logger.Info("inbound channel ready",
		zap.Strings("brokers", ep.Brokers),
		zap.String("topic", ep.Topic),
		zap.String("group", group),
	)

	return &KafkaReceiver{client: client, topic: ep.Topic, logger: logger}, nil
}

// Poll returns the next message, waiting at most the given interval.
// One fetch may carry several records; extras are buffered and
// returned by subsequent calls without touching the network.
func (r *KafkaReceiver) Poll(ctx context.Context, wait time.Duration) ([]byte, bool, error) {
	if len(r.pending) > 0 {
		payload := r.pending[0]
		r.pending = r.pending[1:]
		return payload, true, nil
	}

	pollCtx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()

	fetches := r.client.PollFetches(pollCtx)
	if fetches.IsClientClosed() {
		return nil, false, ErrClosed
	}
	for _, fetchErr := range fetches.Errors() {
		// An expired poll interval is a normal no-op iteration.
		if errors.Is(fetchErr.Err, context.DeadlineExceeded) || errors.Is(fetchErr.Err, context.Canceled) {
			continue
		}
		return nil, false, fmt.Errorf("fetch failed on %s: %w", fetchErr.Topic, fetchErr.Err)
	}

	iter := fetches.RecordIter()
	for !iter.Done() {
		record := iter.Next()
		r.pending = append(r.pending, record.Value)
		atomic.AddInt64(&r.pollCount, 1)
	}

	if len(r.pending) == 0 {
		return nil, false, nil
	}
	payload := r.pending[0]
	r.pending = r.pending[1:]
	return payload, true, nil
}

// Close closes the inbound channel.
func (r *KafkaReceiver) Close() error {
	r.logger.Info("inbound channel closing",
		zap.Int64("received", atomic.LoadInt64(&r.pollCount)),
	)
	r.client.Close()
	return nil
}
