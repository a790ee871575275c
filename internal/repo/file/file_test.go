package file

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hamed0406/oncallpager/internal/domain"
)

func newStore(t *testing.T) (*Store, string) {
	t.Helper()
	p := filepath.Join(t.TempDir(), "pager", "pager_status.json")
	s, err := New(p, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s, p
}

func TestFileStore_MissingAndEmptyFile(t *testing.T) {
	ctx := context.Background()
	s, p := newStore(t)

	m, err := s.Load(ctx)
	if err != nil || len(m) != 0 {
		t.Fatalf("missing file: want empty map, got %v err=%v", m, err)
	}

	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, []byte("\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	m, err = s.Load(ctx)
	if err != nil || len(m) != 0 {
		t.Fatalf("empty file: want empty map, got %v err=%v", m, err)
	}
}

func TestFileStore_PersistAcrossRuns(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t)

	in := domain.StatusMap{
		"<m1@mail>": {Status: domain.StatusNew, Date: "d", Subject: "ALARM cpu", Body: "b"},
	}
	if err := s.Save(ctx, in, false); err != nil {
		t.Fatalf("Save: %v", err)
	}

	raw, err := s.Peek(ctx)
	if err != nil {
		t.Fatalf("Peek: %v", err)
	}
	if raw["<m1@mail>"].Status != domain.StatusNew {
		t.Fatalf("Peek should not promote: %v", raw["<m1@mail>"].Status)
	}

	reopened, _ := New(s.Path(), nil)
	got, err := reopened.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	r := got["<m1@mail>"]
	if r == nil || r.Status != domain.StatusOld || r.Subject != "ALARM cpu" {
		t.Fatalf("want promoted record, got %+v", r)
	}
}

func TestFileStore_SuppressWritesEmptyDocument(t *testing.T) {
	ctx := context.Background()
	s, p := newStore(t)
	_ = s.Save(ctx, domain.StatusMap{"m1": {Status: domain.StatusNew}}, false)

	if err := s.Save(ctx, domain.StatusMap{"m1": {Status: domain.StatusNew}}, true); err != nil {
		t.Fatalf("Save: %v", err)
	}
	data, err := os.ReadFile(p)
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(string(data)) != "{}" {
		t.Fatalf("want empty document, got %q", data)
	}
}

func TestFileStore_CorruptFileFallsBackAndBacksUp(t *testing.T) {
	ctx := context.Background()
	s, p := newStore(t)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, []byte(`{"m1": {"status": "bogus"}}`), 0o644); err != nil {
		t.Fatal(err)
	}

	m, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("corrupt file must not be fatal: %v", err)
	}
	if len(m) != 0 {
		t.Fatalf("want empty map, got %v", m.Keys())
	}

	entries, _ := os.ReadDir(filepath.Dir(p))
	found := false
	for _, e := range entries {
		if strings.Contains(e.Name(), ".corrupt-") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a corrupt backup next to %s", p)
	}
}

func TestFileStore_NullRecordIsCorrupt(t *testing.T) {
	ctx := context.Background()
	s, p := newStore(t)
	_ = os.MkdirAll(filepath.Dir(p), 0o755)
	_ = os.WriteFile(p, []byte(`{"m1": null}`), 0o644)

	m, err := s.Load(ctx)
	if err != nil || len(m) != 0 {
		t.Fatalf("want empty map and no error, got %v err=%v", m, err)
	}
}

func TestNew_RejectsEmptyPath(t *testing.T) {
	if _, err := New("  ", nil); err == nil {
		t.Fatalf("expected error for empty path")
	}
}

func TestFileStore_PeekLeavesCorruptFileAlone(t *testing.T) {
	ctx := context.Background()
	s, p := newStore(t)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, []byte("not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 5; i++ {
		m, err := s.Peek(ctx)
		if err != nil || len(m) != 0 {
			t.Fatalf("peek %d: want empty map, got %v err=%v", i, m, err)
		}
	}

	entries, err := os.ReadDir(filepath.Dir(p))
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.Contains(e.Name(), ".corrupt-") {
			t.Fatalf("Peek wrote %s", e.Name())
		}
	}
	if raw, _ := os.ReadFile(p); string(raw) != "not json" {
		t.Fatalf("Peek changed the status file: %q", raw)
	}
}
