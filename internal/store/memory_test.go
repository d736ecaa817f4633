package store

import (
	"context"
	"testing"
	"time"

	"evacnav/internal/model"
)

func TestMemoryPlans(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	for _, id := range []string{"p1", "p2", "p3"} {
		region := "hebbal"
		if id == "p2" {
			region = "sarjapura"
		}
		if err := m.SavePlan(ctx, model.Plan{ID: id, Region: region, CreatedAt: time.Now()}); err != nil {
			t.Fatalf("SavePlan %s: %v", id, err)
		}
	}
	got, err := m.GetPlan(ctx, "p2")
	if err != nil {
		t.Fatalf("GetPlan: %v", err)
	}
	if got.Region != "sarjapura" {
		t.Errorf("region = %q", got.Region)
	}
	if _, err := m.GetPlan(ctx, "missing"); err != ErrNotFound {
		t.Errorf("missing plan err = %v", err)
	}
	plans, _, err := m.ListPlans(ctx, "hebbal", "", 10)
	if err != nil {
		t.Fatalf("ListPlans: %v", err)
	}
	if len(plans) != 2 || plans[0].ID != "p1" || plans[1].ID != "p3" {
		t.Errorf("filtered plans = %+v", plans)
	}
}

func TestMemoryListPlansCursor(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	for _, id := range []string{"a", "b", "c"} {
		_ = m.SavePlan(ctx, model.Plan{ID: id, Region: "r"})
	}
	page, next, err := m.ListPlans(ctx, "", "", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(page) != 2 || next != "b" {
		t.Fatalf("page = %v next = %q", page, next)
	}
	page, next, err = m.ListPlans(ctx, "", next, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(page) != 1 || page[0].ID != "c" || next != "" {
		t.Fatalf("second page = %v next = %q", page, next)
	}
}

func TestMemorySubscriptionsAndEventMatch(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	flood, err := m.CreateSubscription(ctx, model.AlertSubscription{URL: "http://a", Events: []string{"flood.alert"}})
	if err != nil {
		t.Fatal(err)
	}
	all, err := m.CreateSubscription(ctx, model.AlertSubscription{URL: "http://b", Events: []string{"*"}})
	if err != nil {
		t.Fatal(err)
	}
	if flood.ID == "" || !flood.Active {
		t.Fatalf("subscription not initialized: %+v", flood)
	}
	subs, err := m.GetSubscriptionsForEvent(ctx, "plan.completed")
	if err != nil {
		t.Fatal(err)
	}
	if len(subs) != 1 || subs[0].ID != all.ID {
		t.Fatalf("wildcard match = %+v", subs)
	}
	subs, _ = m.GetSubscriptionsForEvent(ctx, "flood.alert")
	if len(subs) != 2 {
		t.Fatalf("flood.alert matches = %d", len(subs))
	}
	if err := m.DeleteSubscription(ctx, flood.ID); err != nil {
		t.Fatalf("DeleteSubscription: %v", err)
	}
	if err := m.DeleteSubscription(ctx, flood.ID); err != ErrNotFound {
		t.Errorf("second delete err = %v", err)
	}
}

func TestMemoryAlertQueue(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	sub, _ := m.CreateSubscription(ctx, model.AlertSubscription{URL: "http://x", Secret: "s", Events: []string{"*"}})
	id, err := m.EnqueueAlert(ctx, sub.ID, "plan.completed", []byte(`{"planId":"p1"}`))
	if err != nil {
		t.Fatalf("EnqueueAlert: %v", err)
	}
	due, err := m.FetchDueAlerts(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(due) != 1 || due[0].ID != id || due[0].URL != "http://x" || due[0].Secret != "s" {
		t.Fatalf("due = %+v", due)
	}

	// Retry pushes the next attempt into the future; delivery stops being due.
	later := time.Now().Add(time.Hour)
	if err := m.MarkAlert(ctx, id, false, &later, "boom"); err != nil {
		t.Fatal(err)
	}
	due, _ = m.FetchDueAlerts(ctx, 10)
	if len(due) != 0 {
		t.Fatalf("retried delivery still due: %+v", due)
	}

	if err := m.MarkAlert(ctx, id, true, nil, ""); err != nil {
		t.Fatal(err)
	}
	due, _ = m.FetchDueAlerts(ctx, 10)
	if len(due) != 0 {
		t.Fatalf("delivered delivery still due: %+v", due)
	}

	if _, err := m.EnqueueAlert(ctx, "missing-sub", "x", nil); err != ErrNotFound {
		t.Errorf("enqueue for missing sub err = %v", err)
	}
}
