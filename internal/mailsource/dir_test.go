package mailsource

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestDir_FetchAndAcknowledge(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	write := func(name, body string) {
		if err := os.WriteFile(filepath.Join(root, name), []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	write("002.eml", "Message-ID: <b>\nSubject: Re: ALARM\nIn-Reply-To: <a>\n\nack\n")
	write("001.eml", "Message-ID: <a>\nSubject: ALARM\n\nboom\n")
	write("notes.txt", "ignored")

	src := NewDir(root)
	evs, err := src.FetchNew(ctx)
	if err != nil {
		t.Fatalf("FetchNew: %v", err)
	}
	if len(evs) != 2 || evs[0].MessageID != "<a>" || evs[1].InReplyTo != "<a>" {
		t.Fatalf("unexpected events: %+v", evs)
	}

	for _, ev := range evs {
		if err := src.Acknowledge(ctx, ev); err != nil {
			t.Fatalf("Acknowledge: %v", err)
		}
	}
	again, _ := src.FetchNew(ctx)
	if len(again) != 0 {
		t.Fatalf("acknowledged mail should be gone, got %d", len(again))
	}
	if err := src.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestNewPOP3_Validates(t *testing.T) {
	if _, err := NewPOP3(POP3Config{}, nil); err == nil {
		t.Fatalf("expected error without host")
	}
	p, err := NewPOP3(POP3Config{Host: "pop.example.com", Username: "u"}, nil)
	if err != nil {
		t.Fatalf("NewPOP3: %v", err)
	}
	if p.cfg.Port != 995 {
		t.Fatalf("default port want 995, got %d", p.cfg.Port)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("Close without session: %v", err)
	}
}
