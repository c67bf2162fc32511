package email

import (
	"fmt"
	"net/smtp"
	"strings"

	"github.com/stratushq/tenant_go_server/config"
)

type Service struct {
	cfg *config.EmailConfig
}

func NewService(cfg *config.EmailConfig) *Service {
	return &Service{cfg: cfg}
}

// SendOTP mails a one-time sign-in code.
func (s *Service) SendOTP(to, code string, expireMinutes int) error {
	subject := "Your verification code"
	body := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
</head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
    <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
        <h2 style="color: #2563eb;">Verification code</h2>
        <p>Hello,</p>
        <p>Use the following code to continue signing in:</p>
        <div style="background-color: #f3f4f6; padding: 15px; text-align: center; font-size: 24px; font-weight: bold; letter-spacing: 5px; margin: 20px 0;">
            %s
        </div>
        <p>The code expires in %d minutes.</p>
        <p>If you did not request it, you can ignore this email.</p>
        <hr style="border: none; border-top: 1px solid #e5e7eb; margin: 20px 0;">
        <p style="color: #6b7280; font-size: 12px;">This is an automated message, please do not reply.</p>
    </div>
</body>
</html>
`, code, expireMinutes)

	return s.sendHTML(to, subject, body)
}

// SendDeactivationNotice informs a company admin that their workspace users
// were deactivated after a subscription ended.
func (s *Service) SendDeactivationNotice(to, companyName string) error {
	subject := "Your subscription has ended"
	body := fmt.Sprintf(
		"The subscription for %s has ended and member access has been suspended.\r\n"+
			"Renew from the billing page to restore access.\r\n", companyName)

	return s.sendPlain(to, subject, body)
}

func (s *Service) sendHTML(to, subject, body string) error {
	return s.send(to, subject, body, "text/html; charset=UTF-8")
}

func (s *Service) sendPlain(to, subject, body string) error {
	return s.send(to, subject, body, "text/plain; charset=UTF-8")
}

func (s *Service) send(to, subject, body, contentType string) error {
	headers := make(map[string]string)
	headers["From"] = s.cfg.From
	headers["To"] = to
	headers["Subject"] = subject
	headers["MIME-Version"] = "1.0"
	headers["Content-Type"] = contentType

	var msg strings.Builder
	for k, v := range headers {
		msg.WriteString(fmt.Sprintf("%s: %s\r\n", k, v))
	}
	msg.WriteString("\r\n")
	msg.WriteString(body)

	auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.SMTPHost)
	addr := fmt.Sprintf("%s:%d", s.cfg.SMTPHost, s.cfg.SMTPPort)

	return smtp.SendMail(addr, auth, s.cfg.From, []string{to}, []byte(msg.String()))
}
