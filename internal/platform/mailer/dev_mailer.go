package mailer

import (
	"github.com/osadchyi/contacts-api/pkg/logger"
)

// DevMailer logs emails instead of sending them.
type DevMailer struct{}

func NewDevMailer() *DevMailer {
	return &DevMailer{}
}

func (d *DevMailer) SendVerificationEmail(toEmail, verifyURL, token string) error {
	logger.Info("[DEV MAIL] Verification Email",
		"to", toEmail,
		"verify_url", verifyURL,
		"token", token,
	)
	return nil
}

func (d *DevMailer) SendPasswordResetEmail(toEmail, token string) error {
	logger.Info("[DEV MAIL] Password Reset Email",
		"to", toEmail,
		"token", token,
	)
	return nil
}
