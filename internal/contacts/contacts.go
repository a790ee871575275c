package contacts

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/hamed0406/oncallpager/internal/domain"
)

var ErrEmpty = errors.New("contacts: rotation list is empty")

// A data line is "<phone><TAB><email>". The phone may carry the dashes used
// by older rotation files (555-123-4000).
var lineRE = regexp.MustCompile(`^(\d{3}-?\d{3}-?\d{4})\t+([\w.+-]+@[\w.-]+)$`)

// Directory is the ordered, read-only rotation list.
type Directory struct {
	list []domain.Contact
}

func New(list []domain.Contact) (*Directory, error) {
	if len(list) == 0 {
		return nil, ErrEmpty
	}
	return &Directory{list: append([]domain.Contact(nil), list...)}, nil
}

// Load reads and parses the rotation file at path.
func Load(path string) (*Directory, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open contacts: %w", err)
	}
	defer f.Close()
	d, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return d, nil
}

// Parse reads a rotation list. Lines starting with # and blank lines are
// skipped; any other line that does not match fails the whole parse so a
// contact is never silently dropped from the rotation.
func Parse(r io.Reader) (*Directory, error) {
	var list []domain.Contact
	sc := bufio.NewScanner(r)
	n := 0
	for sc.Scan() {
		n++
		raw := sc.Text()
		if strings.HasPrefix(raw, "#") {
			continue
		}
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		m := lineRE.FindStringSubmatch(line)
		if m == nil {
			return nil, fmt.Errorf("contacts line %d: malformed entry %q", n, line)
		}
		list = append(list, domain.Contact{Phone: NormalizePhone(m[1]), Email: m[2]})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read contacts: %w", err)
	}
	return New(list)
}

// NormalizePhone strips everything but digits.
func NormalizePhone(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func (d *Directory) Len() int { return len(d.list) }

// At returns the contact at i modulo the directory size.
func (d *Directory) At(i int) domain.Contact {
	n := len(d.list)
	return d.list[((i%n)+n)%n]
}

func (d *Directory) All() []domain.Contact {
	return append([]domain.Contact(nil), d.list...)
}
