package file

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/oncallpager/internal/domain"
)

// Store keeps alert status in a single JSON document:
//
//	{"<message-id>": {"status": "new", "date": "...", "subject": "...", "body": "..."}}
//
// A missing or empty file means nothing is tracked. A file that cannot be
// decoded is copied aside and treated the same way, so a broken status file
// never stops a page from going out.
type Store struct {
	path string
	log  *zap.Logger
	now  func() time.Time
}

func New(path string, log *zap.Logger) (*Store, error) {
	cleaned := strings.TrimSpace(path)
	if cleaned == "" {
		return nil, errors.New("status file path is empty")
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{path: cleaned, log: log, now: time.Now}, nil
}

func (s *Store) Path() string { return s.path }

func (s *Store) Load(ctx context.Context) (domain.StatusMap, error) {
	m, err := s.read(true)
	if err != nil {
		return nil, err
	}
	if n := m.Age(); n > 0 {
		s.log.Info("status_promoted", zap.Int("count", n))
	}
	return m, nil
}

// Peek never writes: a corrupt file reads as empty and is left for the next
// Load to back up.
func (s *Store) Peek(ctx context.Context) (domain.StatusMap, error) {
	return s.read(false)
}

func (s *Store) Save(ctx context.Context, m domain.StatusMap, suppress bool) error {
	if suppress || m == nil {
		m = domain.StatusMap{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(m); err != nil {
		return fmt.Errorf("encode status: %w", err)
	}
	if err := writeFileAtomic(s.path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write status file: %w", err)
	}
	s.log.Info("status_saved",
		zap.String("path", s.path),
		zap.Int("tracked", len(m)),
		zap.Bool("suppressed", suppress),
	)
	return nil
}

func (s *Store) read(backup bool) (domain.StatusMap, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return domain.StatusMap{}, nil
		}
		return nil, fmt.Errorf("read status file: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return domain.StatusMap{}, nil
	}
	var m domain.StatusMap
	if err := json.Unmarshal(data, &m); err != nil {
		return s.fallbackFromCorrupt(data, err, backup), nil
	}
	for id, r := range m {
		if r == nil {
			return s.fallbackFromCorrupt(data, fmt.Errorf("record %q is null", id), backup), nil
		}
	}
	if m == nil {
		m = domain.StatusMap{}
	}
	return m, nil
}

func (s *Store) fallbackFromCorrupt(raw []byte, parseErr error, keep bool) domain.StatusMap {
	if !keep {
		s.log.Warn("status_peek_corrupt", zap.String("path", s.path), zap.Error(parseErr))
		return domain.StatusMap{}
	}
	backup := fmt.Sprintf("%s.corrupt-%s.bak", s.path, s.now().UTC().Format("20060102T150405.000000000Z"))
	if err := writeFileAtomic(backup, raw, 0o644); err != nil {
		s.log.Error("status_backup_failed", zap.String("path", s.path), zap.Error(err))
	}
	s.log.Warn("status_load_corrupt",
		zap.String("path", s.path),
		zap.String("backup", backup),
		zap.Error(parseErr),
	)
	return domain.StatusMap{}
}

func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	tmp, err := os.CreateTemp(dir, "pager-status-*.tmp")
	if err != nil {
		return err
	}
	defer func() {
		_ = os.Remove(tmp.Name())
	}()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
