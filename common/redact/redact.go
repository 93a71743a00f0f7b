// Package redact provides helpers for stripping sensitive values from log
// output before it leaves the process boundary.
//
// The Telegram bot token is embedded in every Bot API request URL, so any
// transport error formatted by net/http carries it verbatim. Completion and
// image API keys can likewise leak through wrapped errors. Redaction is
// best-effort: it operates on string representations and relies on callers to
// pass the right set of sensitive terms.
package redact

import "strings"

const placeholder = "[REDACTED]"

// String replaces every occurrence of each sensitive value in s with
// [REDACTED].  Values shorter than 4 characters are skipped to avoid
// spurious redaction of common substrings.
//
// Example:
//
//	slog.Warn("send failed", "err", redact.String(err.Error(), botToken))
func String(s string, sensitiveValues ...string) string {
	for _, v := range sensitiveValues {
		if len(v) < 4 {
			continue
		}
		s = strings.ReplaceAll(s, v, placeholder)
	}
	return s
}

// Error is a convenience wrapper around String for error values. A nil error
// yields the empty string.
func Error(err error, sensitiveValues ...string) string {
	if err == nil {
		return ""
	}
	return String(err.Error(), sensitiveValues...)
}
