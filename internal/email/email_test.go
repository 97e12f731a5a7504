package email

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"

	"github.com/Urdemonlord/atlasproject/internal/config"
	"github.com/Urdemonlord/atlasproject/internal/logging"
)

type captureDialer struct {
	sent []*gomail.Message
	err  error
}

func (d *captureDialer) DialAndSend(m ...*gomail.Message) error {
	d.sent = append(d.sent, m...)
	return d.err
}

type MockSender struct {
	mock.Mock
}

func (m *MockSender) Send(ctx context.Context, msg Message) error {
	return m.Called(ctx, msg).Error(0)
}

type mapSetter struct {
	data map[string]string
	ttl  map[string]time.Duration
}

func (s *mapSetter) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	s.data[key] = string(value.([]byte))
	s.ttl[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

var bookingMessage = Message{
	To:      []string{"owner1@example.com"},
	Subject: "Booking baru",
	Body:    "Ada booking baru untuk kos Anda.",
	Tag:     "booking_created",
}

func TestNewSMTPSender_FallsBackToLogging(t *testing.T) {
	s := NewSMTPSender(&config.Config{}, logging.Discard())
	_, ok := s.(*LoggingSender)
	assert.True(t, ok)
	assert.NoError(t, s.Send(context.Background(), bookingMessage))

	s = NewSMTPSender(&config.Config{SmtpHost: "smtp.example.com", SmtpPort: 587}, logging.Discard())
	_, ok = s.(*SMTPSender)
	assert.True(t, ok)
}

func TestSMTPSender_BuildsMessage(t *testing.T) {
	d := &captureDialer{}
	s := &SMTPSender{from: "noreply@kos.example.com", dialer: d, log: logging.Discard()}

	require.NoError(t, s.Send(context.Background(), bookingMessage))
	require.Len(t, d.sent, 1)
	assert.Equal(t, []string{"noreply@kos.example.com"}, d.sent[0].GetHeader("From"))
	assert.Equal(t, []string{"owner1@example.com"}, d.sent[0].GetHeader("To"))
	assert.Equal(t, []string{"Booking baru"}, d.sent[0].GetHeader("Subject"))

	d.err = errors.New("relay down")
	assert.ErrorContains(t, s.Send(context.Background(), bookingMessage), "relay down")
	assert.Error(t, s.Send(context.Background(), Message{Subject: "nobody"}))
}

func TestRedisSender_StoresPerRecipient(t *testing.T) {
	store := &mapSetter{data: map[string]string{}, ttl: map[string]time.Duration{}}
	s := NewRedisSender(store, "noreply@kos.example.com", logging.Discard())

	msg := bookingMessage
	msg.To = []string{"Owner1@example.com", "john@example.com"}
	require.NoError(t, s.Send(context.Background(), msg))

	raw, ok := store.data[MockEmailKey("owner1@example.com", "booking_created")]
	require.True(t, ok)
	assert.Equal(t, MockEmailTTL, store.ttl[MockEmailKey("john@example.com", "booking_created")])

	var stored StoredEmail
	require.NoError(t, json.Unmarshal([]byte(raw), &stored))
	assert.Equal(t, "Booking baru", stored.Subject)
	assert.Equal(t, "booking_created", stored.Tag)
	assert.Equal(t, "noreply@kos.example.com", stored.From)
}

func TestCompositeSender(t *testing.T) {
	ctx := context.Background()
	ok := new(MockSender)
	failing := new(MockSender)
	ok.On("Send", ctx, bookingMessage).Return(nil)
	failing.On("Send", ctx, bookingMessage).Return(errors.New("boom"))

	cs := NewCompositeSender(ok, nil)
	require.NoError(t, cs.Send(ctx, bookingMessage))

	cs.AddSender(failing)
	err := cs.Send(ctx, bookingMessage)
	assert.ErrorContains(t, err, "boom")
	ok.AssertNumberOfCalls(t, "Send", 2)
	failing.AssertExpectations(t)

	assert.Error(t, NewCompositeSender().Send(ctx, bookingMessage))
}
