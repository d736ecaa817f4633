package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"evacnav/internal/model"
)

// Memory is a simple in-memory store used when no DATABASE_URL is set.
type Memory struct {
	mu         sync.Mutex
	plans      map[string]model.Plan
	planOrder  []string // ids, insertion order
	subs       map[string]model.AlertSubscription
	subOrder   []string
	deliveries map[string]*memDelivery
	delOrder   []string
}

func NewMemory() *Memory {
	return &Memory{
		plans:      map[string]model.Plan{},
		subs:       map[string]model.AlertSubscription{},
		deliveries: map[string]*memDelivery{},
	}
}

type memDelivery struct {
	model.AlertDelivery
	URL    string
	Secret string
}

func (m *Memory) SavePlan(ctx context.Context, plan model.Plan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.plans[plan.ID]; !ok {
		m.planOrder = append(m.planOrder, plan.ID)
	}
	m.plans[plan.ID] = plan
	return nil
}

func (m *Memory) GetPlan(ctx context.Context, id string) (model.Plan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.plans[id]
	if !ok {
		return model.Plan{}, ErrNotFound
	}
	return p, nil
}

func (m *Memory) ListPlans(ctx context.Context, region, cursor string, limit int) ([]model.Plan, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if limit <= 0 {
		limit = 50
	}
	start := 0
	if cursor != "" {
		for i, id := range m.planOrder {
			if id == cursor {
				start = i + 1
				break
			}
		}
	}
	out := []model.Plan{}
	var next string
	for i := start; i < len(m.planOrder) && len(out) < limit; i++ {
		p := m.plans[m.planOrder[i]]
		if region == "" || p.Region == region {
			out = append(out, p)
		}
		next = m.planOrder[i]
	}
	if len(out) < limit {
		next = ""
	}
	return out, next, nil
}

func (m *Memory) CreateSubscription(ctx context.Context, sub model.AlertSubscription) (model.AlertSubscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if sub.ID == "" {
		sub.ID = uuid.New().String()
	}
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = time.Now().UTC()
	}
	sub.Active = true
	if _, ok := m.subs[sub.ID]; !ok {
		m.subOrder = append(m.subOrder, sub.ID)
	}
	m.subs[sub.ID] = sub
	return sub, nil
}

func (m *Memory) ListSubscriptions(ctx context.Context, cursor string, limit int) ([]model.AlertSubscription, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if limit <= 0 {
		limit = 50
	}
	start := 0
	if cursor != "" {
		for i, id := range m.subOrder {
			if id == cursor {
				start = i + 1
				break
			}
		}
	}
	out := []model.AlertSubscription{}
	var next string
	for i := start; i < len(m.subOrder) && len(out) < limit; i++ {
		out = append(out, m.subs[m.subOrder[i]])
		next = m.subOrder[i]
	}
	if len(out) < limit {
		next = ""
	}
	return out, next, nil
}

func (m *Memory) GetSubscriptionsForEvent(ctx context.Context, event string) ([]model.AlertSubscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.AlertSubscription{}
	for _, id := range m.subOrder {
		sub := m.subs[id]
		if !sub.Active {
			continue
		}
		for _, ev := range sub.Events {
			if ev == event || ev == "*" {
				out = append(out, sub)
				break
			}
		}
	}
	return out, nil
}

func (m *Memory) DeleteSubscription(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.subs[id]; !ok {
		return ErrNotFound
	}
	delete(m.subs, id)
	for i, sid := range m.subOrder {
		if sid == id {
			m.subOrder = append(m.subOrder[:i], m.subOrder[i+1:]...)
			break
		}
	}
	return nil
}

func (m *Memory) EnqueueAlert(ctx context.Context, subscriptionID, event string, payload []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sub, ok := m.subs[subscriptionID]
	if !ok {
		return "", ErrNotFound
	}
	id := uuid.New().String()
	m.deliveries[id] = &memDelivery{
		AlertDelivery: model.AlertDelivery{
			ID:             id,
			SubscriptionID: subscriptionID,
			Event:          event,
			Payload:        payload,
			Status:         model.DeliveryPending,
			NextAttemptAt:  time.Now().UTC(),
		},
		URL:    sub.URL,
		Secret: sub.Secret,
	}
	m.delOrder = append(m.delOrder, id)
	return id, nil
}

func (m *Memory) FetchDueAlerts(ctx context.Context, limit int) ([]AlertJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if limit <= 0 {
		limit = 20
	}
	now := time.Now().UTC()
	out := []AlertJob{}
	for _, id := range m.delOrder {
		d := m.deliveries[id]
		if d.Status != model.DeliveryPending || d.NextAttemptAt.After(now) {
			continue
		}
		out = append(out, AlertJob{
			ID:             d.ID,
			SubscriptionID: d.SubscriptionID,
			Event:          d.Event,
			URL:            d.URL,
			Secret:         d.Secret,
			Payload:        d.Payload,
			Attempts:       d.Attempts,
		})
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (m *Memory) MarkAlert(ctx context.Context, id string, success bool, nextAttemptAt *time.Time, lastError string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.deliveries[id]
	if !ok {
		return ErrNotFound
	}
	d.Attempts++
	d.LastError = lastError
	if success {
		now := time.Now().UTC()
		d.Status = model.DeliveryDelivered
		d.DeliveredAt = &now
		return nil
	}
	if nextAttemptAt != nil {
		d.NextAttemptAt = *nextAttemptAt
	}
	return nil
}

func (m *Memory) FailAlert(ctx context.Context, id, lastError string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.deliveries[id]
	if !ok {
		return ErrNotFound
	}
	d.Status = model.DeliveryFailed
	d.LastError = lastError
	return nil
}
