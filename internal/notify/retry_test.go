package notify

import (
	"context"
	"errors"
	"testing"
	"time"
)

// fake pager you can control
type flakyPager struct {
	fails int
	calls int
}

func (f *flakyPager) Page(ctx context.Context, phone, message string) error {
	f.calls++
	if f.calls <= f.fails {
		return errors.New("carrier busy")
	}
	return nil
}

func TestRetry_SucceedsAfterRetry(t *testing.T) {
	f := &flakyPager{fails: 1}
	r := &Retry{Inner: f, Attempts: 3, Backoff: time.Millisecond}
	if err := r.Page(context.Background(), "5551234567", "hi"); err != nil {
		t.Fatalf("expected success after retry, got %v", err)
	}
	if f.calls != 2 {
		t.Fatalf("expected 2 calls, got %d", f.calls)
	}
}

func TestRetry_GivesUp(t *testing.T) {
	f := &flakyPager{fails: 10}
	r := &Retry{Inner: f, Attempts: 2, Backoff: time.Millisecond}
	err := r.Page(context.Background(), "5551234567", "hi")
	if err == nil {
		t.Fatal("expected error")
	}
	if f.calls != 2 {
		t.Fatalf("expected 2 calls, got %d", f.calls)
	}
}

func TestRetry_ZeroAttemptsStillTriesOnce(t *testing.T) {
	f := &flakyPager{}
	r := &Retry{Inner: f}
	if err := r.Page(context.Background(), "5551234567", "hi"); err != nil {
		t.Fatal(err)
	}
	if f.calls != 1 {
		t.Fatalf("expected 1 call, got %d", f.calls)
	}
}

func TestRetry_StopsOnCancel(t *testing.T) {
	f := &flakyPager{fails: 10}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := &Retry{Inner: f, Attempts: 5, Backoff: time.Hour}
	if err := r.Page(ctx, "5551234567", "hi"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if f.calls != 1 {
		t.Fatalf("expected 1 call before cancel, got %d", f.calls)
	}
}
