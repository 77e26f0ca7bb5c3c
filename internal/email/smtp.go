package email

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	gomail "github.com/wneessen/go-mail"
)

// SMTPSender implements the Sender interface using a direct SMTP connection via go-mail.
type SMTPSender struct {
	host      string
	port      int
	username  string
	password  string
	fromName  string
	fromEmail string
}

// NewSMTPSender creates a new SMTPSender with the given SMTP credentials.
func NewSMTPSender(host string, port int, username, password, fromEmail, fromName string) *SMTPSender {
	return &SMTPSender{
		host:      host,
		port:      port,
		username:  username,
		password:  password,
		fromName:  fromName,
		fromEmail: fromEmail,
	}
}

// SendOutreachEmail delivers a generated campaign email as plain text.
func (s *SMTPSender) SendOutreachEmail(ctx context.Context, outMsg OutreachMessage) error {
	fromName := outMsg.FromName
	if fromName == "" {
		fromName = s.fromName
	}
	fromEmail := outMsg.FromEmail
	if fromEmail == "" {
		fromEmail = s.fromEmail
	}

	msg := gomail.NewMsg()
	if err := msg.FromFormat(fromName, fromEmail); err != nil {
		return fmt.Errorf("smtp from: %w", err)
	}
	if outMsg.ToName != "" {
		if err := msg.AddToFormat(outMsg.ToName, outMsg.ToEmail); err != nil {
			return fmt.Errorf("smtp to: %w", err)
		}
	} else if err := msg.To(outMsg.ToEmail); err != nil {
		return fmt.Errorf("smtp to: %w", err)
	}
	msg.Subject(outMsg.Subject)
	msg.SetBodyString(gomail.TypeTextPlain, strings.TrimSpace(outMsg.Body))

	client, err := gomail.NewClient(s.host,
		gomail.WithPort(s.port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(s.username),
		gomail.WithPassword(s.password),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
		gomail.WithTimeout(15*time.Second),
		gomail.WithDialContextFunc(func(dctx context.Context, _ string, addr string) (net.Conn, error) {
			return (&net.Dialer{}).DialContext(dctx, "tcp4", addr)
		}),
	)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}

	return nil
}
