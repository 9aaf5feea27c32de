package queue

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"github.com/kolade-a/labreports-tracker/internal/common"
	"github.com/kolade-a/labreports-tracker/internal/entity"
)

// fakeSQS serves its messages once, then cancels the consumer's context so
// Run exits after a single poll.
type fakeSQS struct {
	mu       sync.Mutex
	messages []types.Message
	deleted  []string
	received bool
	stop     context.CancelFunc
}

func (f *fakeSQS) ReceiveMessage(ctx context.Context, _ *sqs.ReceiveMessageInput, _ ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.received {
		return &sqs.ReceiveMessageOutput{}, nil
	}
	f.received = true
	f.stop()
	return &sqs.ReceiveMessageOutput{Messages: f.messages}, nil
}

func (f *fakeSQS) DeleteMessage(_ context.Context, in *sqs.DeleteMessageInput, _ ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, aws.ToString(in.ReceiptHandle))
	return &sqs.DeleteMessageOutput{}, nil
}

type fakeHandlers struct {
	uploads     []entity.UploadEvent
	completions []entity.CompletionNotification
	uploadErr   error
	completeErr error
}

func (f *fakeHandlers) HandleUpload(_ context.Context, e entity.UploadEvent) error {
	f.uploads = append(f.uploads, e)
	return f.uploadErr
}

func (f *fakeHandlers) HandleCompletion(_ context.Context, n entity.CompletionNotification) error {
	f.completions = append(f.completions, n)
	return f.completeErr
}

func message(handle, body string) types.Message {
	return types.Message{ReceiptHandle: aws.String(handle), Body: aws.String(body)}
}

const (
	uploadBody     = `{"Records":[{"s3":{"bucket":{"name":"clinical-reports"},"object":{"key":"metadata/uploads/owner-1/id1/report_1.jpg.json"}}}]}`
	completionBody = `{"JobId":"job-1","Status":"SUCCEEDED","MetadataKey":"metadata/uploads/owner-1/id1/report_1.jpg.json"}`
)

func runConsumer(t *testing.T, client *fakeSQS, handlers *fakeHandlers) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	client.stop = cancel

	c := NewConsumer(client, "https://queue/test", handlers, handlers, nil)
	if err := c.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("Run returned %v, want context.Canceled", err)
	}
}

func TestConsumer_RoutesAndDeletes(t *testing.T) {
	client := &fakeSQS{messages: []types.Message{
		message("h1", uploadBody),
		message("h2", completionBody),
	}}
	handlers := &fakeHandlers{}

	runConsumer(t, client, handlers)

	if len(handlers.uploads) != 1 || handlers.uploads[0].Key != "metadata/uploads/owner-1/id1/report_1.jpg.json" {
		t.Errorf("uploads = %+v", handlers.uploads)
	}
	if len(handlers.completions) != 1 || handlers.completions[0].JobID != "job-1" {
		t.Errorf("completions = %+v", handlers.completions)
	}
	if len(client.deleted) != 2 {
		t.Errorf("deleted %d messages, want 2", len(client.deleted))
	}
}

func TestConsumer_DeletesOnTerminalFailure(t *testing.T) {
	client := &fakeSQS{messages: []types.Message{message("h1", completionBody)}}
	handlers := &fakeHandlers{
		completeErr: common.WrapError(common.ErrMetadataMissing, "sidecar gone"),
	}

	runConsumer(t, client, handlers)

	if len(client.deleted) != 1 {
		t.Errorf("deleted %d messages, want 1 (terminal failure)", len(client.deleted))
	}
}

func TestConsumer_LeavesMessageOnTransientFailure(t *testing.T) {
	client := &fakeSQS{messages: []types.Message{message("h1", completionBody)}}
	handlers := &fakeHandlers{
		completeErr: common.External(errors.New("throttled"), "get blocks"),
	}

	runConsumer(t, client, handlers)

	if len(client.deleted) != 0 {
		t.Errorf("deleted %d messages, want 0 (transient failure)", len(client.deleted))
	}
}

func TestConsumer_DeletesUnrecognizedMessage(t *testing.T) {
	client := &fakeSQS{messages: []types.Message{message("h1", "garbage")}}
	handlers := &fakeHandlers{}

	runConsumer(t, client, handlers)

	if len(handlers.uploads)+len(handlers.completions) != 0 {
		t.Error("garbage message reached a handler")
	}
	if len(client.deleted) != 1 {
		t.Errorf("deleted %d messages, want 1", len(client.deleted))
	}
}
