package mailparse

import (
	"errors"
	"io"
	"strings"
	"time"

	_ "github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/mail"
)

// ParsedEmail holds the fields extracted from a raw RFC 822 message
type ParsedEmail struct {
	Subject    string
	Sender     string
	Body       string
	ReceivedAt time.Time
}

// Parse extracts subject, sender address and the text body from a raw message.
// The first text/plain part wins; an HTML-only message falls back to the first
// inline part so the body is never silently empty.
func Parse(raw []byte) (*ParsedEmail, error) {
	r, err := mail.CreateReader(strings.NewReader(string(raw)))
	if err != nil {
		return nil, err
	}

	parsed := &ParsedEmail{}

	if subject, err := r.Header.Subject(); err == nil {
		parsed.Subject = subject
	}
	if from, err := r.Header.AddressList("From"); err == nil && len(from) > 0 {
		parsed.Sender = from[0].Address
	}
	if date, err := r.Header.Date(); err == nil {
		parsed.ReceivedAt = date
	} else {
		parsed.ReceivedAt = time.Now()
	}

	var fallback string
	for {
		part, err := r.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		header, ok := part.Header.(*mail.InlineHeader)
		if !ok {
			continue
		}

		contentType, _, err := header.ContentType()
		if err != nil {
			continue
		}

		body, err := io.ReadAll(part.Body)
		if err != nil {
			continue
		}

		if contentType == "text/plain" {
			parsed.Body = strings.TrimSpace(string(body))
			break
		}
		if fallback == "" {
			fallback = strings.TrimSpace(string(body))
		}
	}

	if parsed.Body == "" {
		parsed.Body = fallback
	}

	if parsed.Subject == "" && parsed.Sender == "" && parsed.Body == "" {
		return nil, errors.New("message has no parseable content")
	}

	return parsed, nil
}
