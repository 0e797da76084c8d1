// Package sentry wraps the Sentry SDK for crash and failure reporting.
// Events are scrubbed before sending so database credentials and SMTP
// passwords never leave the machine.
package sentry

import (
	"strings"
	"sync"
	"time"

	"github.com/getsentry/sentry-go"
	uuid "github.com/satori/go.uuid"
)

var (
	initialized bool
	initMu      sync.RWMutex
)

// Keys whose values must never appear in an event.
var sensitiveKeywords = []string{
	"password", "passwd", "secret", "token", "key", "auth",
	"credential", "dsn", "smtp", "sender_password", "postgres_password",
}

// Init initializes the Sentry SDK. An empty dsn disables reporting.
func Init(dsn, environment, release string) error {
	if dsn == "" {
		return nil
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              dsn,
		Environment:      environment,
		Release:          release,
		AttachStacktrace: true,
		BeforeSend:       beforeSendHook,
		SampleRate:       1.0,
	})
	if err != nil {
		return err
	}

	// Anonymous per-process id; enough to correlate events from one run.
	runID := strings.ReplaceAll(uuid.Must(uuid.NewV4()).String(), "-", "")
	sentry.ConfigureScope(func(scope *sentry.Scope) {
		scope.SetUser(sentry.User{ID: runID})
	})

	initMu.Lock()
	initialized = true
	initMu.Unlock()
	return nil
}

// IsInitialized reports whether Init completed with a DSN.
func IsInitialized() bool {
	initMu.RLock()
	defer initMu.RUnlock()
	return initialized
}

// Flush drains pending events; call before the process exits.
func Flush(timeout time.Duration) {
	if !IsInitialized() {
		return
	}
	sentry.Flush(timeout)
}

// Recover reports a panic to Sentry without re-panicking.
// recover() must run before the initialization check or the panic escapes.
func Recover() {
	err := recover()
	if err == nil {
		return
	}
	if IsInitialized() {
		if hub := sentry.CurrentHub(); hub != nil {
			hub.Recover(err)
		}
	}
}

// CaptureException reports an error if reporting is enabled.
func CaptureException(err error) {
	if !IsInitialized() || err == nil {
		return
	}
	sentry.CaptureException(err)
}

func beforeSendHook(event *sentry.Event, hint *sentry.EventHint) *sentry.Event {
	if event.Message != "" {
		event.Message = sanitizeString(event.Message)
	}
	for i := range event.Exception {
		if event.Exception[i].Value != "" {
			event.Exception[i].Value = sanitizeString(event.Exception[i].Value)
		}
	}
	event.Extra = sanitizeMap(event.Extra)
	for key, tag := range event.Tags {
		if isSensitiveKey(key) {
			event.Tags[key] = "[REDACTED]"
		} else {
			event.Tags[key] = sanitizeString(tag)
		}
	}
	return event
}

func isSensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	for _, keyword := range sensitiveKeywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}

// sanitizeString redacts values that follow a sensitive key in "key=value"
// shaped text, the form connection strings and exec command lines take.
func sanitizeString(s string) string {
	fields := strings.Fields(s)
	changed := false
	for i, field := range fields {
		eq := strings.IndexByte(field, '=')
		if eq <= 0 {
			continue
		}
		if isSensitiveKey(field[:eq]) {
			fields[i] = field[:eq+1] + "[REDACTED]"
			changed = true
		}
	}
	if !changed {
		return s
	}
	return strings.Join(fields, " ")
}

func sanitizeMap(m map[string]interface{}) map[string]interface{} {
	if m == nil {
		return nil
	}
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		if isSensitiveKey(k) {
			out[k] = "[REDACTED]"
			continue
		}
		if s, ok := v.(string); ok {
			out[k] = sanitizeString(s)
		} else {
			out[k] = v
		}
	}
	return out
}
