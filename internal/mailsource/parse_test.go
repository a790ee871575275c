package mailsource

import (
	"strings"
	"testing"
)

func TestParseMessage_Headers(t *testing.T) {
	raw := "Return-Path: <mon@x>\r\n" +
		"message-id: <m1@mon>\r\n" +
		"IN-REPLY-TO: <m0@mon>\r\n" +
		"Subject: [prod] ALARM disk full\r\n" +
		"Date: Mon, 19 Oct 2026 10:00:00 +0000\r\n" +
		"From: Monitor <mon@x>\r\n" +
		"\r\n" +
		"disk /var at 99%\r\n" +
		"Subject: not a header\r\n"

	ev := ParseMessage([]byte(raw))
	if ev.MessageID != "<m1@mon>" || ev.InReplyTo != "<m0@mon>" {
		t.Fatalf("ids wrong: %+v", ev)
	}
	if ev.Subject != "[prod] ALARM disk full" {
		t.Fatalf("subject wrong: %q", ev.Subject)
	}
	if ev.Date != "Mon, 19 Oct 2026 10:00:00 +0000" || ev.Sender != "Monitor <mon@x>" {
		t.Fatalf("date/sender wrong: %+v", ev)
	}
	if ev.Body != "disk /var at 99%\nSubject: not a header\n" {
		t.Fatalf("body wrong: %q", ev.Body)
	}
}

func TestParseMessage_MissingFieldsDefaultEmpty(t *testing.T) {
	ev := ParseMessage([]byte("X-Junk: 1\n  folded: line\nnot a header\n"))
	if ev.MessageID != "" || ev.Subject != "" || ev.Date != "" || ev.Sender != "" || ev.Body != "" {
		t.Fatalf("want empty fields, got %+v", ev)
	}
}

func TestParseMessage_VeryLongLinesDoNotTruncate(t *testing.T) {
	long := strings.Repeat("x", 5*1024*1024)
	raw := "X-Trace: " + long + "\r\n" +
		"Subject: ALARM after a long header\r\n" +
		"\r\n" +
		long + "\r\n" +
		"tail line"

	ev := ParseMessage([]byte(raw))
	if ev.Subject != "ALARM after a long header" {
		t.Fatalf("header after a long line lost: %q", ev.Subject)
	}
	if !strings.HasSuffix(ev.Body, "\ntail line\n") {
		t.Fatalf("body truncated, %d bytes", len(ev.Body))
	}
	if len(ev.Body) != len(long)+len("\ntail line\n") {
		t.Fatalf("body length %d", len(ev.Body))
	}
}
