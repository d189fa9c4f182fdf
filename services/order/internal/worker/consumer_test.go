package worker

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkravets/shop-system/pkg/contracts"
	"github.com/mkravets/shop-system/services/order/internal/models"
	"github.com/mkravets/shop-system/services/order/internal/service"
)

type fakeBiller struct {
	created []contracts.OrderDetails
	err     error
}

func (f *fakeBiller) CreateFromOrderDetails(_ context.Context, details contracts.OrderDetails) (*models.Bill, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.created = append(f.created, details)
	return &models.Bill{ID: uint(len(f.created)), Username: details.User, OrderNumber: details.OrderNumber}, nil
}

type fakeFinisher struct {
	finished []uint
	err      error
}

func (f *fakeFinisher) Finish(_ context.Context, orderNumber uint) error {
	if f.err != nil {
		return f.err
	}
	f.finished = append(f.finished, orderNumber)
	return nil
}

type fakeAcknowledger struct {
	acks  int
	nacks int
	// requeue flag of the last Nack
	requeued bool
}

func (f *fakeAcknowledger) Ack(_ uint64, _ bool) error { f.acks++; return nil }

func (f *fakeAcknowledger) Nack(_ uint64, _ bool, requeue bool) error {
	f.nacks++
	f.requeued = requeue
	return nil
}

func (f *fakeAcknowledger) Reject(_ uint64, requeue bool) error {
	f.nacks++
	f.requeued = requeue
	return nil
}

func newTestConsumer() (*Consumer, *fakeBiller, *fakeFinisher) {
	bills := &fakeBiller{}
	shop := &fakeFinisher{}
	c := &Consumer{
		Log:   slog.Default(),
		Bills: bills,
		Shop:  shop,
	}
	return c, bills, shop
}

func delivery(t *testing.T, details contracts.OrderDetails, ack *fakeAcknowledger) amqp.Delivery {
	t.Helper()

	body, err := json.Marshal(details)
	require.NoError(t, err)
	return amqp.Delivery{Acknowledger: ack, Body: body}
}

func TestConsumer_BillsAndFinishesOrder(t *testing.T) {
	t.Parallel()

	c, bills, shop := newTestConsumer()
	ack := &fakeAcknowledger{}

	details := contracts.OrderDetails{
		User:    "alice",
		Address: "Main St 1",
		Products: []contracts.ProductEntry{
			{Name: "beer", Price: 4.50},
		},
		OrderNumber: 42,
	}
	c.handle(context.Background(), delivery(t, details, ack))

	require.Len(t, bills.created, 1)
	assert.Equal(t, details, bills.created[0])
	assert.Equal(t, []uint{42}, shop.finished)
	assert.Equal(t, 1, ack.acks)
	assert.Equal(t, 0, ack.nacks)
}

func TestConsumer_DropsMalformedMessages(t *testing.T) {
	t.Parallel()

	c, bills, shop := newTestConsumer()

	ack := &fakeAcknowledger{}
	c.handle(context.Background(), amqp.Delivery{Acknowledger: ack, Body: []byte("not json")})
	assert.Equal(t, 1, ack.acks, "undecodable message is acked away")

	ack = &fakeAcknowledger{}
	c.handle(context.Background(), delivery(t, contracts.OrderDetails{User: "alice"}, ack))
	assert.Equal(t, 1, ack.acks, "message without order number is acked away")

	assert.Empty(t, bills.created)
	assert.Empty(t, shop.finished)
}

func TestConsumer_AcksDuplicateDelivery(t *testing.T) {
	t.Parallel()

	c, bills, shop := newTestConsumer()
	bills.err = service.ErrDuplicate
	ack := &fakeAcknowledger{}

	c.handle(context.Background(), delivery(t, contracts.OrderDetails{User: "alice", OrderNumber: 7}, ack))

	assert.Equal(t, 1, ack.acks)
	assert.Equal(t, 0, ack.nacks)
	assert.Empty(t, shop.finished, "duplicate does not trigger a second finish")
}

func TestConsumer_RequeuesOnceOnPersistenceError(t *testing.T) {
	t.Parallel()

	c, bills, _ := newTestConsumer()
	bills.err = errors.New("db down")
	details := contracts.OrderDetails{User: "alice", OrderNumber: 7}

	ack := &fakeAcknowledger{}
	c.handle(context.Background(), delivery(t, details, ack))
	assert.Equal(t, 1, ack.nacks)
	assert.True(t, ack.requeued, "first failure goes back to the queue")

	ack = &fakeAcknowledger{}
	d := delivery(t, details, ack)
	d.Redelivered = true
	c.handle(context.Background(), d)
	assert.Equal(t, 1, ack.nacks)
	assert.False(t, ack.requeued, "second failure drops the message")
}

func TestConsumer_FinishFailureStillAcks(t *testing.T) {
	t.Parallel()

	c, bills, shop := newTestConsumer()
	shop.err = errors.New("shop unreachable")
	ack := &fakeAcknowledger{}

	c.handle(context.Background(), delivery(t, contracts.OrderDetails{User: "alice", OrderNumber: 9}, ack))

	require.Len(t, bills.created, 1)
	assert.Equal(t, 1, ack.acks, "the bill exists, the message is done")
}
