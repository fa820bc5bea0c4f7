package audit

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// KafkaPublisher streams events to a topic keyed by registration, so all
// events for one vehicle land on the same partition.
type KafkaPublisher struct {
	w     messageWriter
	topic string
	close func() error
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
	}
	p := newPublisherWithWriter(w, topic)
	p.close = w.Close
	return p
}

func newPublisherWithWriter(w messageWriter, topic string) *KafkaPublisher {
	return &KafkaPublisher{w: w, topic: topic}
}

func (p *KafkaPublisher) Record(ctx context.Context, ev Event) error {
	value, err := json.Marshal(ev)
	if err != nil {
		return errors.Wrap(err, "encode event")
	}

	if err := p.w.WriteMessages(ctx, kafka.Message{
		Topic: p.topic,
		Key:   []byte(ev.Vehicle),
		Value: value,
		Time:  ev.Time,
	}); err != nil {
		return errors.Wrap(err, "kafka publish")
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	if p.close == nil {
		return nil
	}
	return p.close()
}
