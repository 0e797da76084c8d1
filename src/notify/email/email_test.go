package email

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomail "gopkg.in/gomail.v2"

	"github.com/sashakt-platform/sashakt-ops/src/configs"
)

func testEmailConfig() *configs.Email {
	return &configs.Email{
		Enable:         true,
		SMTPHost:       "localhost",
		SMTPPort:       1025,
		SenderEmail:    "ops@example.com",
		RecipientEmail: "team@example.com",
	}
}

func TestSendEmailDisabledIsNoop(t *testing.T) {
	called := false
	orig := dial
	dial = func(d *gomail.Dialer, m *gomail.Message) error {
		called = true
		return nil
	}
	defer func() { dial = orig }()

	assert.NoError(t, SendEmail(nil, "s", "b"))
	assert.NoError(t, SendEmail(&configs.Email{Enable: false}, "s", "b"))
	assert.False(t, called)
}

func TestSendEmailHeaders(t *testing.T) {
	var sent *gomail.Message
	orig := dial
	dial = func(d *gomail.Dialer, m *gomail.Message) error {
		sent = m
		return nil
	}
	defer func() { dial = orig }()

	require.NoError(t, SendEmail(testEmailConfig(), "reset done", "all clear"))
	require.NotNil(t, sent)
	assert.Equal(t, []string{"ops@example.com"}, sent.GetHeader("From"))
	assert.Equal(t, []string{"team@example.com"}, sent.GetHeader("To"))
	assert.Equal(t, []string{"reset done"}, sent.GetHeader("Subject"))
}

func TestSendEmailFailure(t *testing.T) {
	orig := dial
	dial = func(d *gomail.Dialer, m *gomail.Message) error {
		return errors.New("connection refused")
	}
	defer func() { dial = orig }()

	err := SendEmail(testEmailConfig(), "s", "b")
	assert.Error(t, err)
}
