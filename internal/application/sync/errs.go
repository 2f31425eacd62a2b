package sync

import (
	"regexp"
	"strings"
)

// Raw driver and platform error text is pattern-matched and collapsed to
// short, stable phrases before it reaches the sync ledger. A raw stack trace
// or SQL fragment must never be stored as a sync error message.

var (
	duplicateKeyPattern = regexp.MustCompile(`(?i)duplicate (?:key|entry)|unique constraint|UNIQUE violation|SQLSTATE 23505`)
	duplicateKeyDetail  = regexp.MustCompile(`Key \(([^)]+)\)=`)
	foreignKeyPattern   = regexp.MustCompile(`(?i)foreign key constraint|SQLSTATE 23503`)
	notNullPattern      = regexp.MustCompile(`(?i)null value in column "([^"]+)"|cannot be null`)
	timeoutPattern      = regexp.MustCompile(`(?i)context deadline exceeded|timeout|timed out`)
	connRefusedPattern  = regexp.MustCompile(`(?i)connection refused|no such host|connection reset`)
	authPattern         = regexp.MustCompile(`(?i)401|unauthorized|invalid signature|authentication failed`)
	rateLimitPattern    = regexp.MustCompile(`(?i)429|too many requests|rate limit`)
)

const maxSanitizedLength = 200

// SanitizeErrorMessage collapses a raw error into a short, human-readable
// phrase suitable for the sync ledger and batch reports.
func SanitizeErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	raw := err.Error()

	switch {
	case duplicateKeyPattern.MatchString(raw):
		if m := duplicateKeyDetail.FindStringSubmatch(raw); m != nil {
			return "Duplicate entry: " + m[1]
		}
		return "Duplicate entry: a record with this value already exists"
	case foreignKeyPattern.MatchString(raw):
		return "Referenced record does not exist"
	case notNullPattern.MatchString(raw):
		if m := notNullPattern.FindStringSubmatch(raw); len(m) > 1 && m[1] != "" {
			return "Missing required value: " + m[1]
		}
		return "Missing required value"
	case timeoutPattern.MatchString(raw):
		return "External platform timed out"
	case connRefusedPattern.MatchString(raw):
		return "External platform is unreachable"
	case authPattern.MatchString(raw):
		return "External platform rejected the credentials"
	case rateLimitPattern.MatchString(raw):
		return "External platform rate limit exceeded"
	}

	msg := strings.TrimSpace(raw)
	if idx := strings.IndexAny(msg, "\n"); idx > 0 {
		msg = msg[:idx]
	}
	if len(msg) > maxSanitizedLength {
		msg = msg[:maxSanitizedLength]
	}
	return msg
}
