package publishers

import (
	"context"
	"fmt"

	"cloud.google.com/go/pubsub"
	"google.golang.org/api/option"

	"github.com/samvad-hq/samvad-catalog-client/internal/logger"
)

// pubsubPublisher publishes fetch events to a Pub/Sub topic and waits for the server ack.
type pubsubPublisher struct {
	id      string
	client  *pubsub.Client
	topic   *pubsub.Topic
	ordered bool
	log     logger.Logger
}

func newPubSubPublisher(ctx context.Context, cfg Config, log logger.Logger) (Publisher, error) {
	var opts []option.ClientOption
	if cfg.PubSub.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.PubSub.CredentialsFile))
	}

	client, err := pubsub.NewClient(ctx, cfg.PubSub.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("pubsub client for project %s: %w", cfg.PubSub.ProjectID, err)
	}
	topic := client.Topic(cfg.PubSub.Topic)
	topic.EnableMessageOrdering = cfg.PubSub.OrderByEndpoint

	return &pubsubPublisher{
		id:      cfg.ID,
		client:  client,
		topic:   topic,
		ordered: cfg.PubSub.OrderByEndpoint,
		log:     logger.Ensure(log),
	}, nil
}

func (p *pubsubPublisher) ID() string   { return p.id }
func (p *pubsubPublisher) Type() string { return TypePubSub }

// Close flushes pending messages before releasing the client.
func (p *pubsubPublisher) Close() error {
	p.topic.Stop()
	return p.client.Close()
}

func (p *pubsubPublisher) Publish(ctx context.Context, evt Event) error {
	env, err := evt.envelope()
	if err != nil {
		return err
	}

	msg := &pubsub.Message{Data: env.body, Attributes: env.attrs}
	if p.ordered {
		msg.OrderingKey = env.groupKey
	}
	serverID, err := p.topic.Publish(ctx, msg).Get(ctx)
	if err != nil {
		if p.ordered {
			// A failed ordered publish pauses the key until resumed.
			p.topic.ResumePublish(env.groupKey)
		}
		return fmt.Errorf("pubsub publish to %s: %w", p.topic.ID(), err)
	}
	p.log.DebugObj("fetch event published", "pubsub_delivery", map[string]any{
		"publisher_id": p.id,
		"endpoint_id":  evt.EndpointID,
		"message_id":   serverID,
	})
	return nil
}
