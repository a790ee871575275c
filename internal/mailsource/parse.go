package mailsource

import (
	"bufio"
	"bytes"
	"strings"

	"github.com/hamed0406/oncallpager/internal/domain"
)

// ParseMessage extracts the fields the pager cares about from a raw RFC 5322
// message. Header names match case-insensitively as "Name: value"; a later
// occurrence wins. Everything after the first empty line is the body. Missing
// headers are left empty.
func ParseMessage(raw []byte) domain.MailEvent {
	var ev domain.MailEvent
	var body strings.Builder
	inBody := false

	r := bufio.NewReader(bytes.NewReader(raw))
	for {
		chunk, err := r.ReadString('\n')
		if chunk == "" && err != nil {
			break
		}
		line := strings.TrimRight(chunk, "\r\n")
		if inBody {
			body.WriteString(line)
			body.WriteByte('\n')
			continue
		}
		if line == "" {
			inBody = true
			continue
		}
		name, value, ok := headerField(line)
		if !ok {
			continue
		}
		switch name {
		case "message-id":
			ev.MessageID = value
		case "in-reply-to":
			ev.InReplyTo = value
		case "subject":
			ev.Subject = value
		case "date":
			ev.Date = value
		case "from":
			ev.Sender = value
		}
	}
	ev.Body = body.String()
	return ev
}

func headerField(line string) (name, value string, ok bool) {
	if line[0] == ' ' || line[0] == '\t' {
		return "", "", false // folded continuation
	}
	i := strings.IndexByte(line, ':')
	if i <= 0 {
		return "", "", false
	}
	return strings.ToLower(line[:i]), strings.TrimSpace(line[i+1:]), true
}
