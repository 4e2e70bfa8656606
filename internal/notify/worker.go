package notify

import (
	"encoding/json"

	"github.com/osadchyi/contacts-api/internal/platform/mailer"
	"github.com/osadchyi/contacts-api/pkg/events"
	"github.com/osadchyi/contacts-api/pkg/logger"
)

const queueGroup = "notify-workers"

// Worker consumes account events and turns them into outbound mail.
// Delivery is best effort: failures are logged and the event is dropped.
type Worker struct {
	bus    events.EventBus
	mailer mailer.Service
}

func NewWorker(bus events.EventBus, mailSvc mailer.Service) *Worker {
	return &Worker{bus: bus, mailer: mailSvc}
}

func (w *Worker) Start() error {
	if err := w.bus.QueueSubscribe(events.UserRegistered, queueGroup, w.handleUserRegistered); err != nil {
		return err
	}
	if err := w.bus.QueueSubscribe(events.PasswordResetRequested, queueGroup, w.handlePasswordReset); err != nil {
		return err
	}
	logger.Info("Notification worker started", "queue", queueGroup)
	return nil
}

func (w *Worker) handleUserRegistered(msg *events.Message) {
	var event events.UserRegisteredEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		logger.Error("Failed to decode registration event", "error", err)
		return
	}

	if err := w.mailer.SendVerificationEmail(event.Email, event.VerifyURL, event.VerifyToken); err != nil {
		logger.Error("Failed to send verification email",
			"error", err,
			"user_id", event.UserID,
		)
		return
	}

	logger.Info("Verification email sent", "user_id", event.UserID)
}

func (w *Worker) handlePasswordReset(msg *events.Message) {
	var event events.PasswordResetRequestedEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		logger.Error("Failed to decode password reset event", "error", err)
		return
	}

	if err := w.mailer.SendPasswordResetEmail(event.Email, event.ResetToken); err != nil {
		logger.Error("Failed to send password reset email",
			"error", err,
			"user_id", event.UserID,
		)
		return
	}

	logger.Info("Password reset email sent", "user_id", event.UserID)
}
