package alerts

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"evacnav/internal/model"
	"evacnav/internal/store"
)

type recordStore struct {
	*store.Memory
	mu    sync.Mutex
	marks []markRec
	fails []string
}

type markRec struct {
	ID      string
	Success bool
	LastErr string
}

func (r *recordStore) MarkAlert(ctx context.Context, id string, success bool, nextAttemptAt *time.Time, lastError string) error {
	r.mu.Lock()
	r.marks = append(r.marks, markRec{ID: id, Success: success, LastErr: lastError})
	r.mu.Unlock()
	return r.Memory.MarkAlert(ctx, id, success, nextAttemptAt, lastError)
}

func (r *recordStore) FailAlert(ctx context.Context, id, lastError string) error {
	r.mu.Lock()
	r.fails = append(r.fails, id)
	r.mu.Unlock()
	return r.Memory.FailAlert(ctx, id, lastError)
}

func enqueue(t *testing.T, rs *recordStore, url, secret string, body []byte) string {
	t.Helper()
	sub, err := rs.Memory.CreateSubscription(context.Background(), model.AlertSubscription{URL: url, Secret: secret, Events: []string{"*"}})
	if err != nil {
		t.Fatalf("CreateSubscription: %v", err)
	}
	id, err := rs.Memory.EnqueueAlert(context.Background(), sub.ID, EventPlanCompleted, body)
	if err != nil {
		t.Fatalf("EnqueueAlert: %v", err)
	}
	return id
}

func TestWorkerProcessOnce_SuccessAndSignature(t *testing.T) {
	var gotSig, gotType string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSig = r.Header.Get("X-Signature")
		gotType = r.Header.Get("X-Event-Type")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(200)
	}))
	defer srv.Close()

	rs := &recordStore{Memory: store.NewMemory()}
	w := &Worker{Store: rs, HTTP: srv.Client(), Stop: make(chan struct{}), MaxAttempts: 3}
	body := []byte(`{"id":"evt1"}`)
	enqueue(t, rs, srv.URL, "secret", body)

	w.processOnce()

	if gotType != EventPlanCompleted {
		t.Fatalf("event type header = %q", gotType)
	}
	if !VerifyHMAC("secret", gotBody, gotSig) {
		t.Fatalf("signature did not verify: %q", gotSig)
	}
	if len(rs.marks) == 0 || !rs.marks[0].Success {
		t.Fatalf("expected mark success, got: %+v", rs.marks)
	}
}

func TestWorkerProcessOnce_FailAfterMaxAttempts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(500) }))
	defer srv.Close()
	rs := &recordStore{Memory: store.NewMemory()}
	w := &Worker{Store: rs, HTTP: srv.Client(), Stop: make(chan struct{}), MaxAttempts: 1}
	enqueue(t, rs, srv.URL, "", []byte(`{}`))
	w.processOnce()
	if len(rs.fails) != 1 {
		t.Fatalf("expected fail recorded, got marks=%+v fails=%+v", rs.marks, rs.fails)
	}
}

func TestWorkerProcessOnce_RetrySchedulesBackoff(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(500) }))
	defer srv.Close()
	rs := &recordStore{Memory: store.NewMemory()}
	w := &Worker{Store: rs, HTTP: srv.Client(), Stop: make(chan struct{}), MaxAttempts: 5}
	enqueue(t, rs, srv.URL, "", []byte(`{}`))
	w.processOnce()
	if len(rs.marks) != 1 || rs.marks[0].Success {
		t.Fatalf("expected non-success mark, got %+v", rs.marks)
	}
	due, err := rs.Memory.FetchDueAlerts(context.Background(), 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(due) != 0 {
		t.Fatalf("delivery should be backed off, still due: %+v", due)
	}
}

func TestNextBackoffCapsAtOneHour(t *testing.T) {
	if nextBackoff(0) != time.Second {
		t.Errorf("first backoff = %v", nextBackoff(0))
	}
	if nextBackoff(3) != 8*time.Second {
		t.Errorf("fourth backoff = %v", nextBackoff(3))
	}
	if nextBackoff(30) != time.Hour {
		t.Errorf("capped backoff = %v", nextBackoff(30))
	}
}

func TestSignVerifyRoundTrip(t *testing.T) {
	body := []byte(`{"x":1}`)
	sig := SignHMAC("k", body)
	if !VerifyHMAC("k", body, sig) {
		t.Fatal("valid signature rejected")
	}
	if VerifyHMAC("other", body, sig) {
		t.Fatal("wrong key accepted")
	}
	if VerifyHMAC("k", body, "zz") {
		t.Fatal("non-hex accepted")
	}
}
