package rotation

import (
	"errors"
	"time"

	"github.com/hamed0406/oncallpager/internal/domain"
)

var ErrNoContacts = errors.New("rotation: no contacts configured")

// 1970-01-01 was a Thursday; shifting by 3 days makes day%7 == 0 on Mondays,
// so the rotation flips at Monday 00:00 local time.
const mondayShift = 3

var epoch = time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)

// PrimaryIndex returns the position of the primary contact at now, shifted by
// offsetDays. It depends only on now's wall-clock date in now's location.
func PrimaryIndex(now time.Time, offsetDays, count int) (int, error) {
	if count <= 0 {
		return 0, ErrNoContacts
	}
	days := daysSinceEpoch(now) + mondayShift + offsetDays
	return floorMod(floorDiv(days, 7), count), nil
}

// Index returns the k-th backup (k=0 is the primary).
func Index(now time.Time, offsetDays, k, count int) (int, error) {
	p, err := PrimaryIndex(now, offsetDays, count)
	if err != nil {
		return 0, err
	}
	return floorMod(p+k, count), nil
}

func daysSinceEpoch(now time.Time) int {
	wall := time.Date(now.Year(), now.Month(), now.Day(),
		now.Hour(), now.Minute(), now.Second(), now.Nanosecond(), time.UTC)
	return floorDiv64(int64(wall.Sub(epoch)), int64(24*time.Hour))
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func floorDiv64(a, b int64) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return int(q)
}

func floorMod(a, b int) int {
	return ((a % b) + b) % b
}

// Shift is the primary/backup pair on duty at a given instant.
type Shift struct {
	PrimaryIndex int
	BackupIndex  int
	Primary      domain.Contact
	Backup       domain.Contact
}

// Directory is the subset of contacts.Directory the calculator needs.
type Directory interface {
	Len() int
	At(i int) domain.Contact
}

// Resolve computes the shift on duty at now+offsetDays.
func Resolve(dir Directory, now time.Time, offsetDays int) (Shift, error) {
	n := dir.Len()
	p, err := PrimaryIndex(now, offsetDays, n)
	if err != nil {
		return Shift{}, err
	}
	b := (p + 1) % n
	return Shift{
		PrimaryIndex: p,
		BackupIndex:  b,
		Primary:      dir.At(p),
		Backup:       dir.At(b),
	}, nil
}
