// Package mail holds the outbound email templates and the SMTP notifier.
package mail

import "fmt"

// VerificationEmail renders the account-verification message. The link is
// valid for 24 hours.
func VerificationEmail(name, link string) (subject, body string) {
	subject = "Verify Your Email Address"
	body = fmt.Sprintf(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2 style="color: #333;">Email Verification</h2>
  <p>Hello %s,</p>
  <p>Thank you for registering! Please click the button below to verify your email address:</p>
  <div style="text-align: center; margin: 30px 0;">
    <a href="%s" style="background-color: #007bff; color: white; padding: 12px 30px; text-decoration: none; border-radius: 5px;">Verify Email</a>
  </div>
  <p>If the button doesn't work, copy and paste this link into your browser:</p>
  <p style="word-break: break-all;">%s</p>
  <p>This link will expire in 24 hours.</p>
</div>`, name, link, link)
	return subject, body
}

// PasswordResetEmail renders the reset message. The link is valid for 1 hour.
func PasswordResetEmail(name, link string) (subject, body string) {
	subject = "Password Reset Request"
	body = fmt.Sprintf(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2 style="color: #333;">Password Reset Request</h2>
  <p>Hello %s,</p>
  <p>We received a request to reset your password. Click the button below to reset it:</p>
  <div style="text-align: center; margin: 30px 0;">
    <a href="%s" style="background-color: #dc3545; color: white; padding: 12px 30px; text-decoration: none; border-radius: 5px;">Reset Password</a>
  </div>
  <p>If the button doesn't work, copy and paste this link into your browser:</p>
  <p style="word-break: break-all;">%s</p>
  <p>This link will expire in 1 hour.</p>
  <p>If you didn't request a password reset, please ignore this email.</p>
</div>`, name, link, link)
	return subject, body
}

// WelcomeEmail renders the post-verification welcome message.
func WelcomeEmail(name, dashboardLink string) (subject, body string) {
	subject = "Welcome to Our Platform!"
	body = fmt.Sprintf(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2 style="color: #28a745;">Welcome to Our Platform!</h2>
  <p>Hello %s,</p>
  <p>Your account has been successfully verified! Welcome to our platform.</p>
  <p>You can now access all features of your dashboard.</p>
  <div style="text-align: center; margin: 30px 0;">
    <a href="%s" style="background-color: #28a745; color: white; padding: 12px 30px; text-decoration: none; border-radius: 5px;">Go to Dashboard</a>
  </div>
</div>`, name, dashboardLink)
	return subject, body
}
