package mailer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomail "github.com/wneessen/go-mail"

	"github.com/letterbox/mailbox-data-api/internal/testutil"
	"github.com/letterbox/mailbox-data-api/types"
)

func newTestSender(t *testing.T, sent *[]*gomail.Msg, err error) *SMTPSender {
	sender, cfgErr := NewSMTPSender(SMTPConfig{Host: "relay.local", Domain: "@letterbox.test"}, testutil.TestLogger())
	require.NoError(t, cfgErr)
	sender.now = func() time.Time {
		return time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	}
	sender.send = func(ctx context.Context, msg *gomail.Msg) error {
		*sent = append(*sent, msg)
		return err
	}
	return sender
}

func TestSend(t *testing.T) {
	var sent []*gomail.Msg
	sender := newTestSender(t, &sent, nil)

	err := sender.Send(context.Background(), "letter", types.Record{
		"id":      int64(1),
		"sender":  "Alice <alice@letterbox.test>",
		"to":      "bob@b.c, Carol <carol@c.d>",
		"subject": "Café",
		"body":    "hello\nworld",
	})
	require.NoError(t, err)
	require.Len(t, sent, 1)

	msg := sent[0]
	from, err := msg.GetSender(false)
	require.NoError(t, err)
	assert.Equal(t, "alice@letterbox.test", from)

	recipients, err := msg.GetRecipients()
	require.NoError(t, err)
	assert.Equal(t, []string{"bob@b.c", "carol@c.d"}, recipients)

	assert.Equal(t, []string{"<1704103200000000000.1@letterbox.test>"}, msg.GetGenHeader(gomail.HeaderMessageID))
	assert.Equal(t, []string{"Mon, 01 Jan 2024 10:00:00 +0000"}, msg.GetGenHeader(gomail.HeaderDate))
	assert.Equal(t, []string{"Café"}, msg.GetGenHeader(gomail.HeaderSubject))

	parts := msg.GetParts()
	require.Len(t, parts, 1)
	body, err := parts[0].GetContent()
	require.NoError(t, err)
	assert.Equal(t, "hello\nworld", string(body))
}

func TestSendWithoutSubject(t *testing.T) {
	var sent []*gomail.Msg
	sender := newTestSender(t, &sent, nil)

	require.NoError(t, sender.Send(context.Background(), "letter", types.Record{
		"sender": "alice@letterbox.test", "to": "bob@b.c", "subject": nil, "body": " ",
	}))
	require.Len(t, sent, 1)
	assert.Empty(t, sent[0].GetGenHeader(gomail.HeaderSubject))
}

func TestSendErrors(t *testing.T) {
	var sent []*gomail.Msg
	sender := newTestSender(t, &sent, errors.New("550 mailbox unavailable"))

	valid := types.Record{"sender": "alice@letterbox.test", "to": "bob@b.c"}

	assert.EqualError(t, sender.Send(context.Background(), "user", valid), "can not send a record of 'user'")
	assert.Error(t, sender.Send(context.Background(), "letter", types.Record{"sender": "alice", "to": "bob@b.c"}))
	assert.Error(t, sender.Send(context.Background(), "letter", types.Record{"sender": "alice@letterbox.test", "to": " "}))
	assert.Empty(t, sent)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Equal(t, context.Canceled, sender.Send(ctx, "letter", valid))

	err := sender.Send(context.Background(), "letter", valid)
	assert.EqualError(t, err, "smtp delivery failed: 550 mailbox unavailable")
	assert.Len(t, sent, 1)
}

func TestNewSMTPSender(t *testing.T) {
	items := []struct {
		name string
		cfg  SMTPConfig
		ok   bool
	}{
		{"defaults", SMTPConfig{Host: "relay.local"}, true},
		{"mandatory tls with auth", SMTPConfig{Host: "relay.local", Port: 587, TLS: "MANDATORY", Username: "u", Password: "p"}, true},
		{"no tls", SMTPConfig{Host: "relay.local", TLS: TLSNone}, true},
		{"unknown tls", SMTPConfig{Host: "relay.local", TLS: "sometimes"}, false},
		{"missing host", SMTPConfig{}, false},
	}

	for _, item := range items {
		sender, err := NewSMTPSender(item.cfg, testutil.TestLogger())
		if item.ok {
			assert.NoError(t, err, item.name)
			assert.NotNil(t, sender, item.name)
		} else {
			assert.Error(t, err, item.name)
		}
	}
}
