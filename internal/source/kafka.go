package source

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/yanun0323/errors"

	"main/internal/model"
	"main/pkg/exception"
)

// KafkaConfig describes the change-log topic to consume.
type KafkaConfig struct {
	Brokers []string
	Topic   string
	GroupID string
}

// KafkaReader consumes change records from a Kafka topic. Records are
// keyed by symbol upstream, so per-symbol order holds within a topic
// partition, and consumer-group offsets give replay after restart.
type KafkaReader struct {
	reader      *kafka.Reader
	uncommitted []kafka.Message
}

// NewKafkaReader opens a consumer-group reader on the change-log topic.
func NewKafkaReader(cfg KafkaConfig) (*KafkaReader, error) {
	if len(cfg.Brokers) == 0 || cfg.Topic == "" {
		return nil, exception.ErrInvalidArgument
	}
	return &KafkaReader{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:  cfg.Brokers,
			Topic:    cfg.Topic,
			GroupID:  cfg.GroupID,
			MinBytes: 1,
			MaxBytes: 10 << 20,
		}),
	}, nil
}

// Fetch blocks for the next change record without committing its offset.
func (r *KafkaReader) Fetch(ctx context.Context) (model.ChangeRecord, error) {
	if r == nil || r.reader == nil {
		return model.ChangeRecord{}, exception.ErrSourceClosed
	}
	msg, err := r.reader.FetchMessage(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return model.ChangeRecord{}, ctx.Err()
		}
		return model.ChangeRecord{}, errors.Wrap(exception.ErrSourceUnavailable, err.Error())
	}
	r.uncommitted = append(r.uncommitted, msg)
	return decodeEnvelope(msg.Value, msg.Offset), nil
}

// Commit acknowledges every record fetched since the last commit.
func (r *KafkaReader) Commit(ctx context.Context) error {
	if r == nil || r.reader == nil {
		return exception.ErrSourceClosed
	}
	if len(r.uncommitted) == 0 {
		return exception.ErrNothingToCommit
	}
	if err := r.reader.CommitMessages(ctx, r.uncommitted...); err != nil {
		return errors.Wrap(err, "commit offsets")
	}
	r.uncommitted = r.uncommitted[:0]
	return nil
}

// Close releases the underlying consumer.
func (r *KafkaReader) Close() error {
	if r == nil || r.reader == nil {
		return nil
	}
	return r.reader.Close()
}

// KafkaWriter publishes change records to the log, hashing the symbol
// key so one symbol always lands on one topic partition in order.
type KafkaWriter struct {
	writer *kafka.Writer
}

// NewKafkaWriter opens a producer on the change-log topic.
func NewKafkaWriter(cfg KafkaConfig) (*KafkaWriter, error) {
	if len(cfg.Brokers) == 0 || cfg.Topic == "" {
		return nil, exception.ErrInvalidArgument
	}
	return &KafkaWriter{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        cfg.Topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
			BatchTimeout: 10 * time.Millisecond,
		},
	}, nil
}

// WriteInsert publishes one trade as an insert change record.
func (w *KafkaWriter) WriteInsert(ctx context.Context, ev model.TradeEvent) error {
	value, err := EncodeInsert(ev)
	if err != nil {
		return err
	}
	return w.WriteRaw(ctx, ev.Symbol, value)
}

// WriteRaw publishes an already-encoded change envelope under a symbol key.
func (w *KafkaWriter) WriteRaw(ctx context.Context, symbol string, value []byte) error {
	if w == nil || w.writer == nil {
		return exception.ErrSourceClosed
	}
	err := w.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(symbol),
		Value: value,
	})
	if err != nil {
		return errors.Wrap(err, "write change record")
	}
	return nil
}

// Close flushes and releases the producer.
func (w *KafkaWriter) Close() error {
	if w == nil || w.writer == nil {
		return nil
	}
	return w.writer.Close()
}
