package events

import (
	"context"
	"strconv"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/mangesh-sakordekar/Neighborhood-Library/library/internal/model"
	"github.com/mangesh-sakordekar/Neighborhood-Library/pkg/circuit_breaker"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type Type string

const (
	TypeBookBorrowed Type = "BOOK_BORROWED"
	TypeBookReturned Type = "BOOK_RETURNED"
)

type Event struct {
	ID          uuid.UUID `json:"id"`
	Type        Type      `json:"type"`
	BorrowingID int64     `json:"borrowing_id"`
	BookID      int64     `json:"book_id"`
	MemberID    int64     `json:"member_id"`
	Timestamp   time.Time `json:"timestamp"`
}

func Borrowed(b model.Borrowing) Event {
	return newEvent(TypeBookBorrowed, b, b.BorrowedAt)
}

func Returned(b model.Borrowing) Event {
	at := time.Now().UTC()
	if b.ReturnedAt != nil {
		at = *b.ReturnedAt
	}
	return newEvent(TypeBookReturned, b, at)
}

func newEvent(t Type, b model.Borrowing, at time.Time) Event {
	return Event{
		ID:          uuid.New(),
		Type:        t,
		BorrowingID: b.ID,
		BookID:      b.BookID,
		MemberID:    b.MemberID,
		Timestamp:   at,
	}
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

type Noop struct{}

func (Noop) Publish(context.Context, Event) error { return nil }

type KafkaPublisher struct {
	producer sarama.SyncProducer
	topic    string
	cb       circuit_breaker.CircuitBreaker
	log      *zap.Logger
}

func NewKafkaPublisher(producer sarama.SyncProducer, topic string, cb circuit_breaker.CircuitBreaker, log *zap.Logger) *KafkaPublisher {
	return &KafkaPublisher{
		producer: producer,
		topic:    topic,
		cb:       cb,
		log:      log.Named("publisher"),
	}
}

// Publish keys messages by book so events of one book stay ordered.
func (p *KafkaPublisher) Publish(ctx context.Context, e Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	payload, err := json.Marshal(e)
	if err != nil {
		return errors.Wrap(err, "marshal event")
	}
	msg := &sarama.ProducerMessage{
		Topic:     p.topic,
		Key:       sarama.StringEncoder(strconv.FormatInt(e.BookID, 10)),
		Value:     sarama.ByteEncoder(payload),
		Timestamp: e.Timestamp,
	}
	return p.cb.Call(func() error {
		partition, offset, err := p.producer.SendMessage(msg)
		if err != nil {
			return errors.Wrap(err, "producer.SendMessage")
		}
		p.log.Debug("event published",
			zap.String("type", string(e.Type)),
			zap.Int32("partition", partition),
			zap.Int64("offset", offset))
		return nil
	})
}

func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}
