package sysutil

import (
	"regexp"
	"strings"
)

// botTokenRE matches Telegram bot tokens ("<bot id>:<secret>"), which the
// Bot API client embeds in request URLs and therefore in transport errors.
var botTokenRE = regexp.MustCompile(`\d{5,}:[A-Za-z0-9_-]{30,}`)

const redacted = "[REDACTED]"

// Redactor scrubs known secrets and anything shaped like a bot token from
// text before it is logged.
type Redactor struct {
	secrets []string
}

// NewRedactor returns a Redactor for the given secrets. Empty values are
// ignored.
func NewRedactor(secrets ...string) *Redactor {
	r := &Redactor{}
	for _, s := range secrets {
		if s = strings.TrimSpace(s); s != "" {
			r.secrets = append(r.secrets, s)
		}
	}
	return r
}

// String returns s with every secret replaced. A nil Redactor still masks
// token-shaped substrings.
func (r *Redactor) String(s string) string {
	if s == "" {
		return s
	}
	if r != nil {
		for _, secret := range r.secrets {
			s = strings.ReplaceAll(s, secret, redacted)
		}
	}
	return botTokenRE.ReplaceAllString(s, redacted)
}

// Error wraps err so its message is scrubbed. errors.Is and errors.As still
// see the original chain.
func (r *Redactor) Error(err error) error {
	if err == nil {
		return nil
	}
	msg := r.String(err.Error())
	if msg == err.Error() {
		return err
	}
	return &redactedError{msg: msg, err: err}
}

type redactedError struct {
	msg string
	err error
}

func (e *redactedError) Error() string { return e.msg }
func (e *redactedError) Unwrap() error { return e.err }
