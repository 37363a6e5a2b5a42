package kafka

import (
	"context"
	"io"
	"log/slog"
	"testing"

	kafkago "github.com/segmentio/kafka-go"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func noopHandler(context.Context, Message) error { return nil }

func TestNewConsumer(t *testing.T) {
	tests := []struct {
		name       string
		cfg        Config
		topic      string
		wantErr    bool
		wantCommit bool
	}{
		{name: "group commits", cfg: Config{Brokers: []string{"localhost:9092"}, ConsumerGroup: "strokerisk-tail"}, topic: "strokerisk.events", wantCommit: true},
		{name: "no group", cfg: Config{Brokers: []string{"localhost:9092"}}, topic: "strokerisk.events"},
		{name: "no brokers", cfg: Config{}, topic: "strokerisk.events", wantErr: true},
		{name: "no topic", cfg: Config{Brokers: []string{"localhost:9092"}}, wantErr: true},
		{name: "bad sasl", cfg: Config{Brokers: []string{"localhost:9092"}, SASLEnabled: true, SASLMechanism: "GSSAPI", SASLUsername: "svc"}, topic: "t", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewConsumer(tt.cfg, tt.topic, noopHandler, discardLogger())
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			defer c.Close()

			if c.commit != tt.wantCommit {
				t.Errorf("commit = %v, want %v", c.commit, tt.wantCommit)
			}
			if got := c.reader.Config().Topic; got != tt.topic {
				t.Errorf("topic = %q, want %q", got, tt.topic)
			}
		})
	}
}

func TestNewConsumerSecurity(t *testing.T) {
	c, err := NewConsumer(Config{
		Brokers:       []string{"kafka:9093"},
		TLS:           true,
		SASLEnabled:   true,
		SASLMechanism: SASLScramSHA256,
		SASLUsername:  "svc",
		SASLPassword:  "secret",
	}, "strokerisk.events", noopHandler, discardLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer c.Close()

	dialer := c.reader.Config().Dialer
	if dialer == nil || dialer.TLS == nil {
		t.Fatal("expected a TLS dialer")
	}
	if got := dialer.SASLMechanism.Name(); got != SASLScramSHA256 {
		t.Errorf("expected mechanism %s, got %s", SASLScramSHA256, got)
	}
}

func TestFromKafkaMessage(t *testing.T) {
	msg := fromKafkaMessage(kafkago.Message{
		Key:   []byte("key"),
		Value: []byte(`{"event_type":"x"}`),
		Headers: []kafkago.Header{
			{Key: "event_type", Value: []byte("strokerisk.assessment.completed")},
			{Key: "event_id", Value: []byte("abc")},
		},
	})

	if string(msg.Key) != "key" {
		t.Errorf("key = %q", msg.Key)
	}
	if msg.Headers["event_type"] != "strokerisk.assessment.completed" || msg.Headers["event_id"] != "abc" {
		t.Errorf("headers = %v", msg.Headers)
	}
}

func TestConsumerStopsOnCanceledContext(t *testing.T) {
	c, err := NewConsumer(Config{Brokers: []string{"localhost:1"}}, "strokerisk.events", noopHandler, discardLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer c.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := c.Start(ctx); err != nil {
		t.Errorf("Start() on a canceled context = %v, want nil", err)
	}
}
