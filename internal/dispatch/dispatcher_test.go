package dispatch

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/hamed0406/oncallpager/internal/domain"
)

type dir []domain.Contact

func (d dir) Len() int                { return len(d) }
func (d dir) At(i int) domain.Contact { return d[i%len(d)] }

var contacts = dir{
	{Phone: "5551234000", Email: "a@x"},
	{Phone: "5552345000", Email: "b@x"},
	{Phone: "5553456000", Email: "c@x"},
}

type memPager struct {
	phones []string
	err    error
}

func (m *memPager) Page(ctx context.Context, phone, message string) error {
	m.phones = append(m.phones, phone)
	return m.err
}

// Monday 2026-10-19: primary index 0 for a three-person rotation.
func monday() time.Time { return time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC) }

func newDispatcher(p *memPager, cfg Config) (*Dispatcher, *bytes.Buffer) {
	var out bytes.Buffer
	cfg.Location = time.UTC
	d := New(nil, &out, contacts, p, cfg).WithClock(monday)
	return d, &out
}

func TestDispatcher_PagesResolvedContact(t *testing.T) {
	p := &memPager{}
	d, out := newDispatcher(p, Config{})

	if err := d.SendAlert(context.Background(), "wake up", 1); err != nil {
		t.Fatalf("SendAlert: %v", err)
	}
	if len(p.phones) != 1 || p.phones[0] != "5552345000" {
		t.Fatalf("want backup paged, got %v", p.phones)
	}
	if !strings.Contains(out.String(), "Paging b@x with message: wake up") {
		t.Fatalf("resolution not printed: %q", out.String())
	}
	if !d.Sent() {
		t.Fatalf("Sent should be true")
	}
}

func TestDispatcher_OnePagePerProcess(t *testing.T) {
	p := &memPager{}
	d, out := newDispatcher(p, Config{})

	_ = d.SendAlert(context.Background(), "first", 0)
	_ = d.SendAlert(context.Background(), "second", 1)
	_ = d.SendAlert(context.Background(), "third", 2)

	if len(p.phones) != 1 || p.phones[0] != "5551234000" {
		t.Fatalf("only the first target may be paged, got %v", p.phones)
	}
	if n := strings.Count(out.String(), "Paging "); n != 3 {
		t.Fatalf("every resolution should be printed, got %d", n)
	}
}

func TestDispatcher_DryRunAndMute(t *testing.T) {
	p := &memPager{}
	d, _ := newDispatcher(p, Config{DryRun: true})
	_ = d.SendAlert(context.Background(), "x", 0)
	if len(p.phones) != 0 {
		t.Fatalf("dry run must not page")
	}

	p2 := &memPager{}
	d2, _ := newDispatcher(p2, Config{})
	d2.Mute()
	_ = d2.SendAlert(context.Background(), "x", 0)
	if len(p2.phones) != 0 || d2.Sent() {
		t.Fatalf("muted dispatcher must not page")
	}
}

func TestDispatcher_FailureSurfaces(t *testing.T) {
	p := &memPager{err: errors.New("carrier down")}
	d, _ := newDispatcher(p, Config{})

	err := d.SendAlert(context.Background(), "x", 0)
	if err == nil || !strings.Contains(err.Error(), "carrier down") {
		t.Fatalf("want wrapped pager error, got %v", err)
	}
	if d.Sent() {
		t.Fatalf("failed page must not count as sent")
	}
	if len(p.phones) != 1 {
		t.Fatalf("no retry expected, got %d attempts", len(p.phones))
	}
}

func TestDispatcher_EmptyDirectory(t *testing.T) {
	d := New(nil, nil, dir{}, &memPager{}, Config{})
	if err := d.SendAlert(context.Background(), "x", 0); err == nil {
		t.Fatalf("expected configuration error")
	}
}
