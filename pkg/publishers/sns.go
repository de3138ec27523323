package publishers

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"

	"github.com/samvad-hq/samvad-catalog-client/internal/logger"
)

type snsAPI interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// snsPublisher publishes fetch events to a topic. Attributes mirror the event so
// subscriptions can filter on endpoint_id or outcome.
type snsPublisher struct {
	id       string
	topicARN string
	fifo     bool
	api      snsAPI
	log      logger.Logger
}

func newSNSPublisher(ctx context.Context, cfg Config, log logger.Logger) (Publisher, error) {
	awsCfg, err := awsConfig(ctx, cfg.SNS.Region, cfg.SNS.AWSCredentials)
	if err != nil {
		return nil, err
	}
	return &snsPublisher{
		id:       cfg.ID,
		topicARN: cfg.SNS.TopicARN,
		fifo:     fifo(cfg.SNS.TopicARN),
		api:      sns.NewFromConfig(awsCfg),
		log:      logger.Ensure(log),
	}, nil
}

func (s *snsPublisher) ID() string   { return s.id }
func (s *snsPublisher) Type() string { return TypeSNS }
func (s *snsPublisher) Close() error { return nil }

func (s *snsPublisher) Publish(ctx context.Context, evt Event) error {
	env, err := evt.envelope()
	if err != nil {
		return err
	}

	attrs := make(map[string]types.MessageAttributeValue, len(env.attrs))
	for k, v := range env.attrs {
		attrs[k] = types.MessageAttributeValue{DataType: aws.String(awsStringType), StringValue: aws.String(v)}
	}
	input := &sns.PublishInput{
		TopicArn:          aws.String(s.topicARN),
		Message:           aws.String(string(env.body)),
		Subject:           aws.String(fmt.Sprintf("%s fetch %s", evt.EndpointID, evt.Outcome())),
		MessageAttributes: attrs,
	}
	if s.fifo {
		input.MessageGroupId = aws.String(env.groupKey)
		input.MessageDeduplicationId = aws.String(env.dedupKey)
	}

	out, err := s.api.Publish(ctx, input)
	if err != nil {
		return fmt.Errorf("sns publish to %s: %w", s.topicARN, err)
	}
	s.log.DebugObj("fetch event announced", "sns_delivery", map[string]any{
		"publisher_id": s.id,
		"endpoint_id":  evt.EndpointID,
		"revision":     evt.Revision,
		"message_id":   aws.ToString(out.MessageId),
	})
	return nil
}
