package mailsource

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/hamed0406/oncallpager/internal/domain"
)

// Dir reads *.eml files from a directory, oldest name first, and deletes
// them on acknowledgement. It stands in for a mailbox on machines without one.
type Dir struct {
	path string
}

func NewDir(path string) *Dir { return &Dir{path: path} }

func (d *Dir) FetchNew(ctx context.Context) ([]domain.MailEvent, error) {
	matches, err := filepath.Glob(filepath.Join(d.path, "*.eml"))
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)
	out := make([]domain.MailEvent, 0, len(matches))
	for i, p := range matches {
		raw, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", p, err)
		}
		ev := ParseMessage(raw)
		ev.Seq = i + 1
		ev.Ref = p
		out = append(out, ev)
	}
	return out, nil
}

func (d *Dir) Acknowledge(ctx context.Context, ev domain.MailEvent) error {
	if ev.Ref == "" {
		return nil
	}
	if err := os.Remove(ev.Ref); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove %s: %w", ev.Ref, err)
	}
	return nil
}

func (d *Dir) Close() error { return nil }
