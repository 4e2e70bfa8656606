package mailer

type Service interface {
	SendVerificationEmail(toEmail, verifyURL, token string) error
	SendPasswordResetEmail(toEmail, token string) error
}
