package watermillutil

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	nc "github.com/nats-io/nats.go"
	"github.com/nats-io/nkeys"
)

// NatsPublisher implements the Watermill Publisher interface on core NATS.
// Message metadata travels as NATS headers.
type NatsPublisher struct {
	conn   *nc.Conn
	config nats.PublisherConfig
	logger watermill.LoggerAdapter
}

// publisherConfig publishes on plain subjects with header-based marshaling.
func publisherConfig() nats.PublisherConfig {
	return nats.PublisherConfig{
		Marshaler:         &nats.NATSMarshaler{},
		JetStream:         nats.JetStreamConfig{Disabled: true},
		SubjectCalculator: nats.DefaultSubjectCalculator,
	}
}

// NewPublisher connects to natsURL and returns a publisher that reconnects forever.
func NewPublisher(natsURL string, logger watermill.LoggerAdapter, opts ...nc.Option) (*NatsPublisher, error) {
	logger.Info("Connecting to NATS for publisher", watermill.LogFields{"url": natsURL})

	reconnectOpts := []nc.Option{
		nc.Name("comp-rounds-publisher"),
		nc.MaxReconnects(-1),
		nc.ReconnectWait(2 * time.Second),
	}
	reconnectOpts = append(reconnectOpts, opts...)

	conn, err := nc.Connect(natsURL, reconnectOpts...)
	if err != nil {
		logger.Error("Failed to connect to NATS", err, nil)
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	logger.Info("Connected to NATS for publisher", nil)

	return &NatsPublisher{conn: conn, config: publisherConfig(), logger: logger}, nil
}

// NKeyOption authenticates the connection with the user nkey seed.
func NKeyOption(seed string) (nc.Option, error) {
	kp, err := nkeys.FromSeed([]byte(seed))
	if err != nil {
		return nil, fmt.Errorf("invalid nkey seed: %w", err)
	}
	pub, err := kp.PublicKey()
	if err != nil {
		return nil, fmt.Errorf("failed to derive nkey public key: %w", err)
	}
	return nc.Nkey(pub, func(nonce []byte) ([]byte, error) {
		return kp.Sign(nonce)
	}), nil
}

// Publish implements the message.Publisher interface.
func (p *NatsPublisher) Publish(topic string, messages ...*message.Message) error {
	return p.publish(context.Background(), topic, messages...)
}

func (p *NatsPublisher) publish(ctx context.Context, topic string, messages ...*message.Message) error {
	subject := p.config.SubjectCalculator("", topic).Primary
	for _, msg := range messages {
		msg.SetContext(ctx)

		natsMsg, err := p.config.Marshaler.Marshal(subject, msg)
		if err != nil {
			return fmt.Errorf("failed to marshal message %s: %w", msg.UUID, err)
		}
		if err := p.conn.PublishMsg(natsMsg); err != nil {
			return fmt.Errorf("failed to publish message to NATS: %w", err)
		}
		p.logger.Debug("Published message", watermill.LogFields{"topic": topic, "uuid": msg.UUID})
	}
	return p.conn.FlushTimeout(5 * time.Second)
}

// Close drains and closes the publisher connection.
func (p *NatsPublisher) Close() error {
	p.logger.Info("Closing NATS publisher connection", nil)
	if err := p.conn.Drain(); err != nil {
		p.conn.Close()
		return fmt.Errorf("failed to drain NATS connection: %w", err)
	}
	return nil
}

var _ message.Publisher = (*NatsPublisher)(nil)
