package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/wneessen/go-mail"
)

const emailTimeout = 10 * time.Second

// SMTPConfig параметры почтового сервера
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPSender отправляет письма через SMTP с обязательным STARTTLS
type SMTPSender struct {
	cfg     SMTPConfig
	timeout time.Duration
}

func NewSMTPSender(cfg SMTPConfig) *SMTPSender {
	if cfg.From == "" {
		cfg.From = cfg.Username
	}
	return &SMTPSender{cfg: cfg, timeout: emailTimeout}
}

func (s *SMTPSender) Name() string { return "smtp" }

func (s *SMTPSender) SendEmail(ctx context.Context, address, subject, body string) error {
	msg, err := s.message(address, subject, body)
	if err != nil {
		return err
	}

	opts := []mail.Option{
		mail.WithPort(s.cfg.Port),
		mail.WithTLSPolicy(mail.TLSMandatory),
		mail.WithTimeout(s.timeout),
	}
	if s.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.cfg.Username),
			mail.WithPassword(s.cfg.Password),
		)
	}

	client, err := mail.NewClient(s.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("create smtp client: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	return nil
}

func (s *SMTPSender) message(address, subject, body string) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(s.cfg.From); err != nil {
		return nil, fmt.Errorf("set from address: %w", err)
	}
	if err := msg.To(address); err != nil {
		return nil, fmt.Errorf("set recipient %q: %w", address, ErrInvalidDestination)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)
	return msg, nil
}
