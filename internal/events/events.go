package events

import (
	"context"
	"fmt"
	"strings"
	"time"
)

type Topic string

const (
	OrdersUpdated     Topic = "orders-updated"
	MenuUpdated       Topic = "menu-updated"
	TablesAdded       Topic = "tables-added"
	TablesUpdated     Topic = "tables-updated"
	CategoriesUpdated Topic = "categories-updated"
	SettingsUpdated   Topic = "settings-updated"
	DatabaseCleared   Topic = "database-cleared"
)

var AllTopics = []Topic{
	OrdersUpdated,
	MenuUpdated,
	TablesAdded,
	TablesUpdated,
	CategoriesUpdated,
	SettingsUpdated,
	DatabaseCleared,
}

// Event is a change notification. Subscribers re-fetch what they display.
type Event struct {
	Topic   Topic     `json:"topic"`
	OrderID *int64    `json:"order_id,omitempty"`
	At      time.Time `json:"at"`
}

func New(topic Topic) Event {
	return Event{Topic: topic, At: time.Now()}
}

func ForOrder(topic Topic, orderID int64) Event {
	ev := New(topic)
	ev.OrderID = &orderID
	return ev
}

// Publisher delivers events on a best effort basis; it never fails the caller.
type Publisher interface {
	Publish(ctx context.Context, ev Event)
}

// Fanout publishes every event to each of its publishers in order.
type Fanout []Publisher

func (f Fanout) Publish(ctx context.Context, ev Event) {
	for _, p := range f {
		if p != nil {
			p.Publish(ctx, ev)
		}
	}
}

// ParseTopics parses a comma separated topic list. Empty input means all topics.
func ParseTopics(raw string) ([]Topic, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return AllTopics, nil
	}
	var topics []Topic
	for _, part := range strings.Split(raw, ",") {
		t := Topic(strings.TrimSpace(part))
		if t == "" {
			continue
		}
		if !t.Valid() {
			return nil, fmt.Errorf("unknown topic %q", t)
		}
		topics = append(topics, t)
	}
	if len(topics) == 0 {
		return AllTopics, nil
	}
	return topics, nil
}

func (t Topic) Valid() bool {
	for _, known := range AllTopics {
		if t == known {
			return true
		}
	}
	return false
}
