package moderation

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/ikk-contest/backend/subm"
	"github.com/klauspost/compress/zstd"
)

type sqsAPI interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

// SQSQueue moves scoring jobs from the API to the moderator worker.
type SQSQueue struct {
	client   sqsAPI
	queueURL string

	// receiveBackoff is the pause after a failed receive.
	receiveBackoff time.Duration
	logger         *slog.Logger
}

func NewSQSQueue(client *sqs.Client, queueURL string) *SQSQueue {
	return newSQSQueue(client, queueURL)
}

func newSQSQueue(client sqsAPI, queueURL string) *SQSQueue {
	return &SQSQueue{
		client:         client,
		queueURL:       queueURL,
		receiveBackoff: time.Second,
		logger:         slog.Default().With("module", "moderation", "queue", queueURL),
	}
}

// Schedule enqueues the job as zstd compressed, base64 encoded JSON.
func (q *SQSQueue) Schedule(ctx context.Context, job subm.ScoreJob) error {
	body, err := encodeJob(job)
	if err != nil {
		return err
	}
	_, err = q.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(q.queueURL),
		MessageBody: aws.String(body),
	})
	if err != nil {
		return fmt.Errorf("failed to send message to moderation queue: %w", err)
	}
	return nil
}

// Run receives jobs until ctx is cancelled. Every message is deleted once
// handled, whether or not handling succeeded; jobs are not retried.
func (q *SQSQueue) Run(ctx context.Context, handle func(ctx context.Context, job subm.ScoreJob) error) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		output, err := q.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
			QueueUrl:            aws.String(q.queueURL),
			MaxNumberOfMessages: 10,
			WaitTimeSeconds:     20,
		})
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				return nil
			}
			q.logger.Error("failed to receive messages", "error", err)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(q.receiveBackoff):
			}
			continue
		}

		for _, msg := range output.Messages {
			q.process(ctx, msg.Body, handle)
			if msg.ReceiptHandle == nil {
				continue
			}
			_, err := q.client.DeleteMessage(context.WithoutCancel(ctx), &sqs.DeleteMessageInput{
				QueueUrl:      aws.String(q.queueURL),
				ReceiptHandle: msg.ReceiptHandle,
			})
			if err != nil {
				q.logger.Error("failed to delete message", "error", err)
			}
		}
	}
}

func (q *SQSQueue) process(ctx context.Context, body *string, handle func(ctx context.Context, job subm.ScoreJob) error) {
	if body == nil {
		q.logger.Error("message body is nil")
		return
	}
	job, err := decodeJob(*body)
	if err != nil {
		q.logger.Error("failed to decode message", "error", err)
		return
	}
	if err := handle(ctx, job); err != nil {
		q.logger.Error("scoring job failed", "key", job.Key, "error", err)
	}
}

func encodeJob(job subm.ScoreJob) (string, error) {
	jsonReq, err := json.Marshal(job)
	if err != nil {
		return "", fmt.Errorf("failed to marshal score job: %w", err)
	}

	zstdEncoder, err := zstd.NewWriter(nil)
	if err != nil {
		return "", fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	defer zstdEncoder.Close()

	compressed := zstdEncoder.EncodeAll(jsonReq, make([]byte, 0, len(jsonReq)))
	return base64.StdEncoding.EncodeToString(compressed), nil
}

func decodeJob(body string) (subm.ScoreJob, error) {
	compressed, err := base64.StdEncoding.DecodeString(body)
	if err != nil {
		return subm.ScoreJob{}, fmt.Errorf("failed to decode base64: %w", err)
	}

	zstdDecoder, err := zstd.NewReader(nil)
	if err != nil {
		return subm.ScoreJob{}, fmt.Errorf("failed to create zstd decoder: %w", err)
	}
	defer zstdDecoder.Close()

	jsonReq, err := zstdDecoder.DecodeAll(compressed, nil)
	if err != nil {
		return subm.ScoreJob{}, fmt.Errorf("failed to decompress: %w", err)
	}

	var job subm.ScoreJob
	if err := json.Unmarshal(jsonReq, &job); err != nil {
		return subm.ScoreJob{}, fmt.Errorf("failed to unmarshal score job: %w", err)
	}
	if job.Key == "" || job.FilePath == "" {
		return subm.ScoreJob{}, fmt.Errorf("score job is incomplete: %+v", job)
	}
	return job, nil
}
