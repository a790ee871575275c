package domain

import (
	"fmt"
	"sort"
	"strings"
)

// Contact is one entry of the on-call rotation. Phone holds digits only.
type Contact struct {
	Phone string `json:"phone"`
	Email string `json:"email"`
}

func (c Contact) String() string {
	return "('" + c.Phone + "', '" + c.Email + "')"
}

// AlertStatus is the lifecycle state of a tracked alert thread.
type AlertStatus int

const (
	StatusNew AlertStatus = iota + 1
	StatusOld
	StatusReplied
)

func (s AlertStatus) String() string {
	switch s {
	case StatusNew:
		return "new"
	case StatusOld:
		return "old"
	case StatusReplied:
		return "replied"
	}
	return fmt.Sprintf("AlertStatus(%d)", int(s))
}

func (s AlertStatus) MarshalText() ([]byte, error) {
	switch s {
	case StatusNew, StatusOld, StatusReplied:
		return []byte(s.String()), nil
	}
	return nil, fmt.Errorf("invalid alert status %d", int(s))
}

func (s *AlertStatus) UnmarshalText(b []byte) error {
	switch strings.ToLower(string(b)) {
	case "new":
		*s = StatusNew
	case "old":
		*s = StatusOld
	case "replied":
		*s = StatusReplied
	default:
		return fmt.Errorf("unknown alert status %q", string(b))
	}
	return nil
}

// AlertRecord is kept per alert thread. Date, Subject and Body are copied from
// the originating mail for display only.
type AlertRecord struct {
	Status  AlertStatus `json:"status"`
	Date    string      `json:"date"`
	Subject string      `json:"subject"`
	Body    string      `json:"body"`
}

// StatusMap maps a thread identity (the alert's Message-ID) to its record.
type StatusMap map[string]*AlertRecord

// Age promotes every NEW record to OLD: the record survived one run unreplied.
func (m StatusMap) Age() int {
	n := 0
	for _, r := range m {
		if r.Status == StatusNew {
			r.Status = StatusOld
			n++
		}
	}
	return n
}

// Purge deletes the records matching pred and reports how many went.
func (m StatusMap) Purge(pred func(id string, r *AlertRecord) bool) int {
	n := 0
	for id, r := range m {
		if pred(id, r) {
			delete(m, id)
			n++
		}
	}
	return n
}

// PurgeSettled drops records that already escalated to backup or got a reply.
func (m StatusMap) PurgeSettled() int {
	return m.Purge(func(_ string, r *AlertRecord) bool {
		return r.Status == StatusOld || r.Status == StatusReplied
	})
}

// Keys returns the identities in sorted order.
func (m StatusMap) Keys() []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Clone returns a deep copy.
func (m StatusMap) Clone() StatusMap {
	out := make(StatusMap, len(m))
	for k, r := range m {
		rr := *r
		out[k] = &rr
	}
	return out
}
