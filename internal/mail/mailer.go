// Package mail delivers verification codes. Delivery is a collaborator
// of the auth service, injected as an interface so tests (and dev
// environments without an SMTP relay) can substitute it.
package mail

import (
	"context"
	"fmt"
	"log"
	"net/smtp"
)

// Sender delivers a verification code to an address. A returned error
// is recoverable: the caller decides whether the failure is fatal to
// the surrounding operation.
type Sender interface {
	SendVerificationCode(ctx context.Context, to, code string) error
}

// SMTPSender sends mail through a plain SMTP relay.
type SMTPSender struct {
	Host string
	Port string
	User string
	Pass string
	From string
}

// SendVerificationCode sends a short plain-text message carrying the
// code. The ctx is accepted for interface symmetry; net/smtp has no
// native cancellation.
func (s *SMTPSender) SendVerificationCode(_ context.Context, to, code string) error {
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: Your Tourly Verification Code\r\n\r\n"+
		"Your verification code is %s. It expires in 15 minutes.\r\n", s.From, to, code)
	addr := s.Host + ":" + s.Port
	var auth smtp.Auth
	if s.User != "" {
		auth = smtp.PlainAuth("", s.User, s.Pass, s.Host)
	}
	if err := smtp.SendMail(addr, auth, s.From, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("smtp send to %s: %w", to, err)
	}
	return nil
}

// LogSender writes codes to the application log instead of sending
// mail. Used when no SMTP host is configured.
type LogSender struct{}

func (LogSender) SendVerificationCode(_ context.Context, to, code string) error {
	log.Printf("mail: verification code for %s: %s", to, code)
	return nil
}
