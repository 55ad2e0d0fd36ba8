package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"

	"github.com/civicdesk/helpdesk/internal/events"
)

type fakeSender struct {
	err  error
	sent []*gomail.Message
}

func (f *fakeSender) DialAndSend(m ...*gomail.Message) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, m...)
	return nil
}

func TestSMTPMailer_Send(t *testing.T) {
	sender := &fakeSender{}
	mailer := NewSMTPMailerWithSender("noreply@example.com", sender, nil)

	err := mailer.Send(context.Background(), Message{To: "cit@example.com", Subject: "hi", Body: "body"})
	require.NoError(t, err)
	require.Len(t, sender.sent, 1)
	assert.Equal(t, []string{"cit@example.com"}, sender.sent[0].GetHeader("To"))
	assert.Equal(t, []string{"noreply@example.com"}, sender.sent[0].GetHeader("From"))
}

func TestSMTPMailer_RequiresRecipient(t *testing.T) {
	mailer := NewSMTPMailerWithSender("noreply@example.com", &fakeSender{}, nil)
	assert.Error(t, mailer.Send(context.Background(), Message{Subject: "hi"}))
}

func TestSMTPMailer_BreakerOpensAfterFailures(t *testing.T) {
	sender := &fakeSender{err: errors.New("connection refused")}
	mailer := NewSMTPMailerWithSender("noreply@example.com", sender, nil)
	msg := Message{To: "cit@example.com", Subject: "hi"}

	for i := 0; i < 3; i++ {
		require.Error(t, mailer.Send(context.Background(), msg))
	}
	err := mailer.Send(context.Background(), msg)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
}

type fakeChannel struct {
	key  string
	msgs []amqp.Publishing
}

func (f *fakeChannel) PublishWithContext(_ context.Context, _, key string, _, _ bool, msg amqp.Publishing) error {
	f.key = key
	f.msgs = append(f.msgs, msg)
	return nil
}

func (f *fakeChannel) Close() error { return nil }

func TestAMQPPublisher_Publish(t *testing.T) {
	ch := &fakeChannel{}
	pub := NewAMQPPublisherWithChannel(ch, "ticket-events", nil)

	event := events.Event{ID: "evt-1", Type: events.EventTicketCreated, TicketRef: "TKT000001"}
	require.NoError(t, pub.Publish(context.Background(), event))

	require.Len(t, ch.msgs, 1)
	assert.Equal(t, "ticket-events", ch.key)
	assert.Equal(t, "evt-1", ch.msgs[0].MessageId)
	assert.Equal(t, uint8(amqp.Persistent), ch.msgs[0].DeliveryMode)

	var decoded events.Event
	require.NoError(t, json.Unmarshal(ch.msgs[0].Body, &decoded))
	assert.Equal(t, "TKT000001", decoded.TicketRef)
	require.NoError(t, pub.Close())
}
