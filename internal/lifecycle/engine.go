package lifecycle

import (
	"fmt"
	"regexp"

	"go.uber.org/zap"

	"github.com/hamed0406/oncallpager/internal/domain"
)

const (
	DefaultAlertPattern = `ALARM`
	DefaultReplyPattern = `^R[eE]:.*ALARM`
)

// Patterns are unanchored Go regular expressions matched against the subject.
type Patterns struct {
	Alert string
	Reply string
}

// Transition describes what a single event did to the tracked state.
type Transition int

const (
	Ignored Transition = iota
	Created
	Replied
	Duplicate
)

func (t Transition) String() string {
	switch t {
	case Created:
		return "created"
	case Replied:
		return "replied"
	case Duplicate:
		return "duplicate"
	}
	return "ignored"
}

// Decision asks the dispatcher to page the contact Offset steps after the
// current primary (0 primary, 1 backup).
type Decision struct {
	ID     string
	Record domain.AlertRecord
	Offset int
}

// Engine applies mail events to the tracked alert state for one run.
type Engine struct {
	log        *zap.Logger
	alertRE    *regexp.Regexp
	replyRE    *regexp.Regexp
	records    domain.StatusMap
	suppressed bool
}

// NewEngine wraps records, which the engine mutates in place.
func NewEngine(records domain.StatusMap, p Patterns, log *zap.Logger) (*Engine, error) {
	if p.Alert == "" {
		p.Alert = DefaultAlertPattern
	}
	if p.Reply == "" {
		p.Reply = DefaultReplyPattern
	}
	alertRE, err := regexp.Compile(p.Alert)
	if err != nil {
		return nil, fmt.Errorf("alert pattern: %w", err)
	}
	replyRE, err := regexp.Compile(p.Reply)
	if err != nil {
		return nil, fmt.Errorf("reply pattern: %w", err)
	}
	if records == nil {
		records = domain.StatusMap{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{log: log, alertRE: alertRE, replyRE: replyRE, records: records}, nil
}

// Process applies one mail event.
//
// A reply is matched to its alert by In-Reply-To only. A new alert is tracked
// when its subject matches the alert pattern and its Message-ID is unknown.
// Independently, any subject matching the reply pattern mutes paging for the
// rest of the run.
func (e *Engine) Process(ev domain.MailEvent) Transition {
	tr := e.apply(ev)
	if e.replyRE.MatchString(ev.Subject) {
		if !e.suppressed {
			e.log.Info("reply_detected_muting", zap.String("subject", ev.Subject))
		}
		e.suppressed = true
	}
	if tr != Ignored {
		e.log.Debug("mail_processed",
			zap.String("message_id", ev.MessageID),
			zap.String("in_reply_to", ev.InReplyTo),
			zap.Stringer("transition", tr),
		)
	}
	return tr
}

func (e *Engine) apply(ev domain.MailEvent) Transition {
	if ev.InReplyTo != "" {
		if rec, ok := e.records[ev.InReplyTo]; ok {
			if rec.Status == domain.StatusReplied {
				return Duplicate
			}
			rec.Status = domain.StatusReplied
			return Replied
		}
	}
	if !e.alertRE.MatchString(ev.Subject) {
		return Ignored
	}
	id := Identity(ev)
	if _, ok := e.records[id]; ok {
		return Duplicate
	}
	e.records[id] = &domain.AlertRecord{
		Status:  domain.StatusNew,
		Date:    ev.Date,
		Subject: ev.Subject,
		Body:    ev.Body,
	}
	return Created
}

// Identity is the key an alert is tracked under. Mails without a Message-ID
// cannot be replied to by reference but still page; they are keyed by date and
// subject so a replay does not page twice.
func Identity(ev domain.MailEvent) string {
	if ev.MessageID != "" {
		return ev.MessageID
	}
	return "no-message-id:" + ev.Date + "|" + ev.Subject
}

// Decide lists the pages owed this run: NEW alerts go to the primary, OLD
// alerts (unreplied for a full run) go to the backup.
func (e *Engine) Decide() []Decision {
	var out []Decision
	for _, id := range e.records.Keys() {
		r := e.records[id]
		switch r.Status {
		case domain.StatusNew:
			out = append(out, Decision{ID: id, Record: *r, Offset: 0})
		case domain.StatusOld:
			out = append(out, Decision{ID: id, Record: *r, Offset: 1})
		}
	}
	return out
}

// Purge forgets alerts that were escalated to backup or answered.
func (e *Engine) Purge() int {
	return e.records.PurgeSettled()
}

// Suppressed reports whether a reply muted paging for this run.
func (e *Engine) Suppressed() bool { return e.suppressed }

// Records returns the live state the engine mutates.
func (e *Engine) Records() domain.StatusMap { return e.records }
