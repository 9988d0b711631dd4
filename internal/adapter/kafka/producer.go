package kafka

import (
	"context"
	"log/slog"
	"time"

	"github.com/niksmo/shopcart/internal/core/domain"
	"github.com/niksmo/shopcart/internal/core/port"
	"github.com/niksmo/shopcart/pkg/schema"
	"github.com/twmb/franz-go/pkg/kgo"
)

var _ port.CartEventsProducer = (*CartSnapshotProducer)(nil)

// A producer is used for composition.
//
// Producing records to kafka broker and closing underlying [kgo.Client].
type producer struct {
	opPrefix string
	cl       ProducerClient
}

func (p producer) close() {
	const op = "close"
	log := slog.With("op", makeOp(p.opPrefix, op))
	log.Info("closing producer...")
	p.cl.Close()
	log.Info("producer is closed")
}

func (p producer) produce(
	ctx context.Context, rs ...*kgo.Record,
) error {
	const op = "produce"
	res := p.cl.ProduceSync(ctx, rs...)
	if err := res.FirstErr(); err != nil {
		return opErr(err, p.opPrefix, op)
	}
	return nil
}

// A CartSnapshotProducer publishes the whole cart of a device
// keyed by the device ID, so snapshots of one device stay ordered.
type CartSnapshotProducer struct {
	producer producer
	encoder  Encoder
	opPrefix string
	now      func() time.Time
}

func NewCartSnapshotProducer(
	opts ...ProducerOpt,
) (CartSnapshotProducer, error) {
	const op = "NewCartSnapshotProducer"

	if len(opts) != 2 {
		panic(opErr(ErrTooFewOpts, op)) // develop mistake
	}

	var options producerOpts
	for _, opt := range opts {
		if err := opt(&options); err != nil {
			return CartSnapshotProducer{}, opErr(err, op)
		}
	}

	opPrefix := "CartSnapshotProducer"
	return CartSnapshotProducer{
		producer: producer{opPrefix: opPrefix, cl: options.cl},
		encoder:  options.encoder,
		opPrefix: opPrefix,
		now:      time.Now,
	}, nil
}

func (p CartSnapshotProducer) Close() {
	p.producer.close()
}

func (p CartSnapshotProducer) ProduceCartSnapshot(
	ctx context.Context, deviceID string, user *domain.User, cart domain.Cart,
) error {
	const op = "ProduceCartSnapshot"

	if err := ctx.Err(); err != nil {
		return opErr(err, p.opPrefix, op)
	}

	s := cartToSchemaV1(deviceID, user, cart, p.now())
	b, err := p.encoder.Encode(s)
	if err != nil {
		return opErr(err, p.opPrefix, op)
	}

	r := &kgo.Record{Key: []byte(deviceID), Value: b}
	if err := p.producer.produce(ctx, r); err != nil {
		return opErr(err, p.opPrefix, op)
	}
	return nil
}

func cartToSchemaV1(
	deviceID string, user *domain.User, cart domain.Cart, at time.Time,
) (s schema.CartSnapshotV1) {
	s.DeviceID = deviceID
	if user != nil {
		s.UserID = user.ID
	}
	s.Items = make([]schema.CartItemV1, len(cart.Items))
	for i, item := range cart.Items {
		s.Items[i].ProductID = item.ID
		s.Items[i].Name = item.Name
		s.Items[i].Price = item.Price.Current.String()
		s.Items[i].Quantity = item.Quantity
	}
	s.Total = cart.Total().String()
	s.ItemCount = cart.ItemCount()
	s.UpdatedAt = at.UnixMilli()
	return
}
