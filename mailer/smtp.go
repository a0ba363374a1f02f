package mailer

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	gomail "github.com/wneessen/go-mail"
	"go.uber.org/atomic"

	"github.com/letterbox/mailbox-data-api/log"
	"github.com/letterbox/mailbox-data-api/schema"
	"github.com/letterbox/mailbox-data-api/types"
)

const (
	DefaultPort    = 25
	DefaultTimeout = 15 * time.Second

	TLSOpportunistic = "opportunistic"
	TLSMandatory     = "mandatory"
	TLSNone          = "none"
)

// SMTPConfig describes the relay letters are handed to
type SMTPConfig struct {
	Host string
	Port int
	// Domain of the generated message ids, the host when empty
	Domain   string
	Username string
	Password string
	TLS      string
	Timeout  time.Duration
}

type sendFn func(ctx context.Context, msg *gomail.Msg) error

// SMTPSender delivers letters through a relay. Only the letter entity can be sent.
type SMTPSender struct {
	domain   string
	send     sendFn
	now      func() time.Time
	sequence *atomic.Uint64
	logger   log.Logger
}

func NewSMTPSender(cfg SMTPConfig, logger log.Logger) (*SMTPSender, error) {
	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Domain == "" {
		cfg.Domain = cfg.Host
	}

	policy, err := tlsPolicy(cfg.TLS)
	if err != nil {
		return nil, err
	}

	options := []gomail.Option{
		gomail.WithPort(cfg.Port),
		gomail.WithTimeout(cfg.Timeout),
		gomail.WithTLSPolicy(policy),
	}
	if cfg.Username != "" {
		options = append(options,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(cfg.Username),
			gomail.WithPassword(cfg.Password))
	}

	client, err := gomail.NewClient(cfg.Host, options...)
	if err != nil {
		return nil, fmt.Errorf("invalid smtp settings: %w", err)
	}

	return &SMTPSender{
		domain:   strings.TrimPrefix(cfg.Domain, "@"),
		send:     func(ctx context.Context, msg *gomail.Msg) error { return client.DialAndSendWithContext(ctx, msg) },
		now:      time.Now,
		sequence: atomic.NewUint64(0),
		logger:   logger,
	}, nil
}

func tlsPolicy(value string) (gomail.TLSPolicy, error) {
	switch strings.ToLower(value) {
	case "", TLSOpportunistic:
		return gomail.TLSOpportunistic, nil
	case TLSMandatory:
		return gomail.TLSMandatory, nil
	case TLSNone:
		return gomail.NoTLS, nil
	}
	return gomail.NoTLS, fmt.Errorf("unsupported smtp tls policy '%s'", value)
}

func (s *SMTPSender) Send(ctx context.Context, entity string, record types.Record) error {
	if entity != schema.TableLetter {
		return fmt.Errorf("can not send a record of '%s'", entity)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	msg, err := s.message(record)
	if err != nil {
		return err
	}
	if err := s.send(ctx, msg); err != nil {
		return fmt.Errorf("smtp delivery failed: %w", err)
	}
	s.logger.Info("letter sent", "id", record["id"])
	return nil
}

func (s *SMTPSender) message(record types.Record) (*gomail.Msg, error) {
	from, err := mail.ParseAddress(field(record, "sender"))
	if err != nil {
		return nil, fmt.Errorf("invalid sender: %w", err)
	}
	to, err := mail.ParseAddressList(field(record, "to"))
	if err != nil {
		return nil, fmt.Errorf("invalid recipients: %w", err)
	}

	msg := gomail.NewMsg()
	if err := msg.From(from.String()); err != nil {
		return nil, fmt.Errorf("invalid sender: %w", err)
	}
	recipients := make([]string, len(to))
	for i, address := range to {
		recipients[i] = address.String()
	}
	if err := msg.To(recipients...); err != nil {
		return nil, fmt.Errorf("invalid recipients: %w", err)
	}

	now := s.now()
	msg.SetMessageIDWithValue(fmt.Sprintf("%d.%d@%s", now.UnixNano(), s.sequence.Inc(), s.domain))
	msg.SetDateWithValue(now)
	if subject := strings.TrimSpace(field(record, "subject")); subject != "" {
		msg.Subject(subject)
	}
	msg.SetBodyString(gomail.TypeTextPlain, strings.TrimSpace(field(record, "body")))
	return msg, nil
}

func field(record types.Record, column string) string {
	if value, ok := record[column].(string); ok {
		return value
	}
	return ""
}
