package notify

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/sashakt-platform/sashakt-ops/src/configs"
	"github.com/sashakt-platform/sashakt-ops/src/notify/email"
)

// SendRunReport notifies about the outcome of a destructive or long-running
// operation. Delivery is best effort: a failed notification is logged and
// never fails the operation it reports on.
func SendRunReport(cfg *configs.Config, operation string, success bool, detail string) {
	if cfg == nil || !cfg.Notify.Email.Enable {
		return
	}

	outcome := "succeeded"
	if !success {
		outcome = "failed"
	}
	subject := fmt.Sprintf("[sashaktctl] %s %s", operation, outcome)
	body := fmt.Sprintf("Operation: %s\nOutcome: %s\n\n%s", operation, outcome, detail)

	if err := email.SendEmail(&cfg.Notify.Email, subject, body); err != nil {
		logrus.WithError(err).WithField("operation", operation).Error("failed to send notification email")
	}
}
