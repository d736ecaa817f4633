// Package alerts fans plan and flood events out to subscribed webhook
// endpoints, with signed payloads and retrying delivery.
package alerts

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"evacnav/internal/store"
)

const (
	EventPlanCompleted = "plan.completed"
	EventFloodAlert    = "flood.alert"
)

type Publisher struct {
	Store store.Store
}

func NewPublisher(s store.Store) *Publisher {
	return &Publisher{Store: s}
}

// Emit enqueues an event for every matching subscription. Delivery happens
// asynchronously in the worker; emit errors are swallowed so callers never
// block on alerting.
func (p *Publisher) Emit(ctx context.Context, event string, data any) {
	subs, err := p.Store.GetSubscriptionsForEvent(ctx, event)
	if err != nil || len(subs) == 0 {
		return
	}
	payload := map[string]any{
		"id":   fmt.Sprintf("evt_%d", time.Now().UnixNano()),
		"type": event,
		"ts":   time.Now().UTC().Format(time.RFC3339),
		"data": data,
	}
	body, _ := json.Marshal(payload)
	for _, s := range subs {
		_, _ = p.Store.EnqueueAlert(ctx, s.ID, event, body)
	}
}
