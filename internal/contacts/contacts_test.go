package contacts

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParse_SkipsCommentsAndNormalizes(t *testing.T) {
	in := "# rotation\n555-123-4000\ta@x.com\n\n5552345000\tb.c@x.org\n"
	d, err := Parse(strings.NewReader(in))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if d.Len() != 2 {
		t.Fatalf("want 2 contacts, got %d", d.Len())
	}
	if c := d.At(0); c.Phone != "5551234000" || c.Email != "a@x.com" {
		t.Fatalf("first contact wrong: %+v", c)
	}
	if c := d.At(1); c.Phone != "5552345000" || c.Email != "b.c@x.org" {
		t.Fatalf("second contact wrong: %+v", c)
	}
	if c := d.At(3); c.Email != "b.c@x.org" {
		t.Fatalf("At should wrap: %+v", c)
	}
}

func TestParse_MalformedLineIsFatal(t *testing.T) {
	in := "5551234000\ta@x.com\n555123\tb@x.com\n"
	_, err := Parse(strings.NewReader(in))
	if err == nil {
		t.Fatalf("expected error on malformed line")
	}
	if !strings.Contains(err.Error(), "line 2") {
		t.Fatalf("error should name the line: %v", err)
	}
}

func TestParse_EmptyIsError(t *testing.T) {
	_, err := Parse(strings.NewReader("# nobody\n"))
	if !errors.Is(err, ErrEmpty) {
		t.Fatalf("want ErrEmpty, got %v", err)
	}
}

func TestLoad_File(t *testing.T) {
	p := filepath.Join(t.TempDir(), "pager_config.txt")
	if err := os.WriteFile(p, []byte("5551234000\ta@x\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	d, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	all := d.All()
	all[0].Email = "mutated"
	if d.At(0).Email != "a@x" {
		t.Fatalf("All must return a copy")
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.txt")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
