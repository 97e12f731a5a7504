package email

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// MockEmailTTL is how long a mock email stays readable through the service API.
const MockEmailTTL = 5 * time.Minute

// MockEmailKey is the Redis key a mock email for recipient and tag is stored under.
func MockEmailKey(to, tag string) string {
	return fmt.Sprintf("mockemail:%s:%s", strings.ToLower(to), tag)
}

// StoredEmail is the JSON document RedisSender writes.
type StoredEmail struct {
	To      string `json:"to"`
	From    string `json:"from"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
	Tag     string `json:"tag"`
	SentAt  string `json:"sent_at"`
}

type redisSetter interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// RedisSender stores messages in Redis so tests and tooling can read them
// back instead of receiving real mail.
type RedisSender struct {
	client redisSetter
	from   string
	log    logrus.FieldLogger
}

func NewRedisSender(client redisSetter, from string, log logrus.FieldLogger) *RedisSender {
	return &RedisSender{client: client, from: from, log: log}
}

func (s *RedisSender) Send(ctx context.Context, msg Message) error {
	if len(msg.To) == 0 {
		return fmt.Errorf("email %q has no recipients", msg.Subject)
	}
	tag := msg.Tag
	if tag == "" {
		tag = "unknown"
	}

	data, err := json.Marshal(StoredEmail{
		To:      strings.Join(msg.To, ", "),
		From:    s.from,
		Subject: msg.Subject,
		Body:    msg.Body,
		Tag:     tag,
		SentAt:  time.Now().UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal email data: %w", err)
	}

	// One copy per recipient so each can be looked up by address.
	for _, to := range msg.To {
		key := MockEmailKey(to, tag)
		if err := s.client.Set(ctx, key, data, MockEmailTTL).Err(); err != nil {
			return fmt.Errorf("failed to store email in Redis key '%s': %w", key, err)
		}
		s.log.WithFields(logrus.Fields{"key": key, "subject": msg.Subject}).Debug("mock email stored")
	}
	return nil
}
