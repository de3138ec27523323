package publishers

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"github.com/samvad-hq/samvad-catalog-client/internal/logger"
)

type sqsAPI interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// sqsPublisher sends one message per fetch event. On FIFO queues events of an
// endpoint share a message group, so consumers see them in revision order.
type sqsPublisher struct {
	id       string
	queueURL string
	fifo     bool
	api      sqsAPI
	log      logger.Logger
}

func newSQSPublisher(ctx context.Context, cfg Config, log logger.Logger) (Publisher, error) {
	awsCfg, err := awsConfig(ctx, cfg.SQS.Region, cfg.SQS.AWSCredentials)
	if err != nil {
		return nil, err
	}
	return &sqsPublisher{
		id:       cfg.ID,
		queueURL: cfg.SQS.QueueURL,
		fifo:     fifo(cfg.SQS.QueueURL),
		api:      sqs.NewFromConfig(awsCfg),
		log:      logger.Ensure(log),
	}, nil
}

func (s *sqsPublisher) ID() string   { return s.id }
func (s *sqsPublisher) Type() string { return TypeSQS }
func (s *sqsPublisher) Close() error { return nil }

func (s *sqsPublisher) Publish(ctx context.Context, evt Event) error {
	env, err := evt.envelope()
	if err != nil {
		return err
	}

	attrs := make(map[string]types.MessageAttributeValue, len(env.attrs))
	for k, v := range env.attrs {
		attrs[k] = types.MessageAttributeValue{DataType: aws.String(awsStringType), StringValue: aws.String(v)}
	}
	input := &sqs.SendMessageInput{
		QueueUrl:          aws.String(s.queueURL),
		MessageBody:       aws.String(string(env.body)),
		MessageAttributes: attrs,
	}
	if s.fifo {
		input.MessageGroupId = aws.String(env.groupKey)
		input.MessageDeduplicationId = aws.String(env.dedupKey)
	}

	out, err := s.api.SendMessage(ctx, input)
	if err != nil {
		return fmt.Errorf("sqs send to %s: %w", s.queueURL, err)
	}
	s.log.DebugObj("fetch event queued", "sqs_delivery", map[string]any{
		"publisher_id": s.id,
		"endpoint_id":  evt.EndpointID,
		"revision":     evt.Revision,
		"message_id":   aws.ToString(out.MessageId),
	})
	return nil
}
