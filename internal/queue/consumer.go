package queue

import (
	"context"
	"errors"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/google/uuid"

	"github.com/kolade-a/labreports-tracker/internal/common"
	"github.com/kolade-a/labreports-tracker/internal/entity"
)

// SQSAPI is the subset of the SQS client the consumer uses.
type SQSAPI interface {
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

// UploadHandler reacts to one metadata-sidecar upload.
type UploadHandler interface {
	HandleUpload(ctx context.Context, event entity.UploadEvent) error
}

// CompletionHandler reacts to one terminal OCR notification.
type CompletionHandler interface {
	HandleCompletion(ctx context.Context, n entity.CompletionNotification) error
}

// Consumer long-polls the queue and routes each message to the dispatcher or
// the processor.
//
// Delete policy: a message is deleted when handling succeeds or fails
// terminally. Transient failures leave the message in flight so the queue
// redelivers it after the visibility timeout.
type Consumer struct {
	client     SQSAPI
	queueURL   string
	uploads    UploadHandler
	completion CompletionHandler
	logger     *slog.Logger
}

func NewConsumer(client SQSAPI, queueURL string, uploads UploadHandler, completion CompletionHandler, logger *slog.Logger) *Consumer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Consumer{
		client:     client,
		queueURL:   queueURL,
		uploads:    uploads,
		completion: completion,
		logger:     logger,
	}
}

// Run polls until ctx is cancelled. Receive errors are logged and polling
// continues; an unreachable queue must not crash the service.
func (c *Consumer) Run(ctx context.Context) error {
	c.logger.Info("queue consumer started", "queue_url", c.queueURL)
	for {
		select {
		case <-ctx.Done():
			c.logger.Info("queue consumer stopping")
			return ctx.Err()
		default:
		}

		out, err := c.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
			QueueUrl:            aws.String(c.queueURL),
			MaxNumberOfMessages: 10,
			WaitTimeSeconds:     20,
		})
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.logger.Error("receive failed", "error", err)
			continue
		}

		for _, msg := range out.Messages {
			c.handleMessage(ctx, msg)
		}
	}
}

func (c *Consumer) handleMessage(ctx context.Context, msg types.Message) {
	logger := c.logger.With("trace_id", uuid.NewString())
	err := c.route(ctx, aws.ToString(msg.Body))
	switch {
	case err == nil:
	case common.IsTerminal(err) || errors.Is(err, common.ErrInvalidInput):
		// Redelivery cannot fix a terminal failure; keeping the message
		// only burns receives until the DLQ threshold.
		logger.Error("dropping message after terminal failure", "error", err)
	default:
		logger.Warn("leaving message for redelivery", "error", err)
		return
	}

	if _, err := c.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(c.queueURL),
		ReceiptHandle: msg.ReceiptHandle,
	}); err != nil {
		c.logger.Error("failed to delete message", "error", err)
	}
}

func (c *Consumer) route(ctx context.Context, body string) error {
	decoded, err := Decode(body)
	if err != nil {
		return err
	}
	if decoded.Completion != nil {
		return c.completion.HandleCompletion(ctx, *decoded.Completion)
	}
	var firstErr error
	for _, event := range decoded.Uploads {
		if err := c.uploads.HandleUpload(ctx, event); err != nil {
			c.logger.Error("upload handling failed", "key", event.Key, "error", err)
			if firstErr == nil || (common.IsTerminal(firstErr) && !common.IsTerminal(err)) {
				firstErr = err
			}
		}
	}
	return firstErr
}
