package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wildcafe-pos/internal/events"
	"wildcafe-pos/internal/logger"
	"wildcafe-pos/internal/models"
)

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

type fakeReader struct {
	msgs []kafka.Message
}

func (r *fakeReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	if len(r.msgs) == 0 {
		return kafka.Message{}, context.Canceled
	}
	m := r.msgs[0]
	r.msgs = r.msgs[1:]
	return m, nil
}

func (r *fakeReader) Close() error { return nil }

func TestProducerPublishesEvents(t *testing.T) {
	w := &fakeWriter{}
	p := &Producer{Writer: w, Logger: logger.New(nil)}

	p.Publish(context.Background(), events.ForOrder(events.OrdersUpdated, 12))
	p.Publish(context.Background(), events.New(events.MenuUpdated))

	require.Len(t, w.msgs, 2)
	assert.Equal(t, "12", string(w.msgs[0].Key))
	assert.Equal(t, "menu-updated", string(w.msgs[1].Key))
	assert.Equal(t, TypeEvent, headerValue(w.msgs[0], HeaderType))

	var ev events.Event
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &ev))
	assert.Equal(t, events.OrdersUpdated, ev.Topic)
}

func TestProducerSwallowsBrokerErrors(t *testing.T) {
	p := &Producer{Writer: &fakeWriter{err: errors.New("broker down")}, Logger: logger.New(nil)}
	assert.NotPanics(t, func() {
		p.Publish(context.Background(), events.New(events.SettingsUpdated))
		p.RecordSale(context.Background(), models.SaleRecord{OrderID: 1})
	})
}

func TestConsumerRoundTrip(t *testing.T) {
	w := &fakeWriter{}
	p := &Producer{Writer: w, Logger: logger.New(nil)}
	p.Publish(context.Background(), events.New(events.TablesAdded))
	p.RecordSale(context.Background(), models.SaleRecord{
		OrderID: 5, Total: 945, PaymentMode: "Card", PaidAt: time.Now(),
	})
	garbage := kafka.Message{Value: []byte("{")}

	c := &Consumer{Reader: &fakeReader{msgs: append(w.msgs, garbage)}, Logger: logger.New(nil)}

	var gotEvents []events.Event
	var gotSales []models.SaleRecord
	err := c.Start(context.Background(), func(ev *events.Event, sale *models.SaleRecord) {
		if ev != nil {
			gotEvents = append(gotEvents, *ev)
		}
		if sale != nil {
			gotSales = append(gotSales, *sale)
		}
	})
	require.NoError(t, err)

	require.Len(t, gotEvents, 1)
	assert.Equal(t, events.TablesAdded, gotEvents[0].Topic)
	require.Len(t, gotSales, 1)
	assert.Equal(t, int64(5), gotSales[0].OrderID)
	assert.Equal(t, "Card", gotSales[0].PaymentMode)
}
