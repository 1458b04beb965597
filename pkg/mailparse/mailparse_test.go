package mailparse

import (
	"strings"
	"testing"
)

const simpleMessage = "From: Alice Smith <alice@example.com>\r\n" +
	"To: review@example.com\r\n" +
	"Subject: Invoice due Friday\r\n" +
	"Date: Mon, 02 Jan 2006 15:04:05 -0700\r\n" +
	"Content-Type: text/plain; charset=utf-8\r\n" +
	"\r\n" +
	"Please pay invoice #42 by Friday.\r\n"

func TestParse_Simple(t *testing.T) {
	parsed, err := Parse([]byte(simpleMessage))
	if err != nil {
		t.Fatal(err)
	}
	if parsed.Subject != "Invoice due Friday" {
		t.Fatalf("expected subject %q, got %q", "Invoice due Friday", parsed.Subject)
	}
	if parsed.Sender != "alice@example.com" {
		t.Fatalf("expected sender %q, got %q", "alice@example.com", parsed.Sender)
	}
	if !strings.Contains(parsed.Body, "invoice #42") {
		t.Fatalf("body not extracted, got %q", parsed.Body)
	}
	if parsed.ReceivedAt.Year() != 2006 {
		t.Fatalf("date not parsed, got %v", parsed.ReceivedAt)
	}
}

const multipartMessage = "From: bob@example.com\r\n" +
	"Subject: Swim schedule\r\n" +
	"MIME-Version: 1.0\r\n" +
	"Content-Type: multipart/alternative; boundary=frontier\r\n" +
	"\r\n" +
	"--frontier\r\n" +
	"Content-Type: text/html\r\n" +
	"\r\n" +
	"<p>Practice moved to 6pm</p>\r\n" +
	"--frontier\r\n" +
	"Content-Type: text/plain\r\n" +
	"\r\n" +
	"Practice moved to 6pm\r\n" +
	"--frontier--\r\n"

func TestParse_MultipartPrefersPlainText(t *testing.T) {
	parsed, err := Parse([]byte(multipartMessage))
	if err != nil {
		t.Fatal(err)
	}
	if parsed.Body != "Practice moved to 6pm" {
		t.Fatalf("expected plain text part, got %q", parsed.Body)
	}
	if parsed.Sender != "bob@example.com" {
		t.Fatalf("expected sender bob@example.com, got %q", parsed.Sender)
	}
}

func TestParse_Garbage(t *testing.T) {
	if _, err := Parse([]byte("\r\n\r\n")); err == nil {
		t.Fatal("expected error for empty message")
	}
}
