package sentry

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsSensitiveKey(t *testing.T) {
	assert.True(t, isSensitiveKey("POSTGRES_PASSWORD"))
	assert.True(t, isSensitiveKey("smtpHost"))
	assert.True(t, isSensitiveKey("sentry_dsn"))
	assert.False(t, isSensitiveKey("service"))
	assert.False(t, isSensitiveKey("revision"))
}

func TestSanitizeString(t *testing.T) {
	in := "host=db port=5432 password=hunter2 dbname=sashaktdb"
	out := sanitizeString(in)
	assert.Contains(t, out, "password=[REDACTED]")
	assert.Contains(t, out, "dbname=sashaktdb")
	assert.NotContains(t, out, "hunter2")

	// Strings without key=value pairs come back untouched.
	plain := "alembic revision failed"
	assert.Equal(t, plain, sanitizeString(plain))
}

func TestSanitizeMap(t *testing.T) {
	m := map[string]interface{}{
		"sender_password": "secret",
		"operation":       "migrations.create",
		"dsn":             "postgres://u:p@db/x",
	}
	out := sanitizeMap(m)
	assert.Equal(t, "[REDACTED]", out["sender_password"])
	assert.Equal(t, "[REDACTED]", out["dsn"])
	assert.Equal(t, "migrations.create", out["operation"])
}
