package store

import (
	"context"
	"errors"
	"time"

	"evacnav/internal/model"
)

// Store is the persistence interface used by the API server.
type Store interface {
	// Plans
	SavePlan(ctx context.Context, plan model.Plan) error
	GetPlan(ctx context.Context, id string) (model.Plan, error)
	ListPlans(ctx context.Context, region, cursor string, limit int) ([]model.Plan, string, error)

	// Alert subscriptions
	CreateSubscription(ctx context.Context, sub model.AlertSubscription) (model.AlertSubscription, error)
	ListSubscriptions(ctx context.Context, cursor string, limit int) ([]model.AlertSubscription, string, error)
	GetSubscriptionsForEvent(ctx context.Context, event string) ([]model.AlertSubscription, error)
	DeleteSubscription(ctx context.Context, id string) error

	// Alert delivery queue
	EnqueueAlert(ctx context.Context, subscriptionID, event string, payload []byte) (string, error)
	FetchDueAlerts(ctx context.Context, limit int) ([]AlertJob, error)
	MarkAlert(ctx context.Context, id string, success bool, nextAttemptAt *time.Time, lastError string) error
	FailAlert(ctx context.Context, id, lastError string) error
}

// AlertJob is one due delivery with the subscription fields the worker needs.
type AlertJob struct {
	ID             string
	SubscriptionID string
	Event          string
	URL            string
	Secret         string
	Payload        []byte
	Attempts       int
}

var ErrNotFound = errors.New("not found")
