package mailer

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/Anas-Rajpoot/Bx-Buy-Sell-marketplace-sub003/pkg/helpers"
)

// EmailJob is the JSON payload put on the RabbitMQ queue for the OTP worker.
type EmailJob struct {
	To      string `json:"to"`
	Subject string `json:"subject,omitempty"`
	Code    string `json:"code"`
	Purpose string `json:"purpose"` // "verify" or "reset"
}

// Notifier delivers one-time codes. Delivery is best-effort: callers log a
// failed SendOTP and continue.
type Notifier interface {
	SendOTP(ctx context.Context, email, code, purpose string) error
}

// QueueNotifier publishes OTP jobs to RabbitMQ for the otp_worker to send.
type QueueNotifier struct {
	Pub     *helpers.RabbitPublisher
	Enabled bool
}

func NewQueueNotifier(pub *helpers.RabbitPublisher, enabled bool) *QueueNotifier {
	return &QueueNotifier{Pub: pub, Enabled: enabled}
}

func (n *QueueNotifier) SendOTP(ctx context.Context, email, code, purpose string) error {
	if !n.Enabled || n.Pub == nil {
		return nil
	}
	return n.Pub.PublishJSON(ctx, EmailJob{To: email, Code: code, Purpose: purpose})
}

// NopNotifier discards codes; used in tests and when mail is disabled.
type NopNotifier struct{}

func (NopNotifier) SendOTP(ctx context.Context, email, code, purpose string) error { return nil }

var _ Notifier = (*QueueNotifier)(nil)
var _ Notifier = NopNotifier{}

// SubjectFor maps a job purpose to a mail subject line.
func SubjectFor(purpose string) string {
	switch purpose {
	case "reset":
		return "Reset your password"
	default:
		return "Your verification code"
	}
}

// LogSendFailure records a dropped OTP mail without surfacing the error.
func LogSendFailure(logger *logrus.Logger, email string, err error) {
	if logger == nil || err == nil {
		return
	}
	logger.WithError(err).WithField("email", email).Warn("otp dispatch failed")
}
