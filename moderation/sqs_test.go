package moderation

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/ikk-contest/backend/subm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSQS hands out every sent message once, then blocks until ctx ends.
type fakeSQS struct {
	mu      sync.Mutex
	pending []types.Message
	deleted []string
	sent    []string
}

func (f *fakeSQS) SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, *params.MessageBody)
	handle := "rh-" + string(rune('a'+len(f.sent)-1))
	f.pending = append(f.pending, types.Message{Body: params.MessageBody, ReceiptHandle: aws.String(handle)})
	return &sqs.SendMessageOutput{}, nil
}

func (f *fakeSQS) ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error) {
	f.mu.Lock()
	msgs := f.pending
	f.pending = nil
	f.mu.Unlock()
	if len(msgs) > 0 {
		return &sqs.ReceiveMessageOutput{Messages: msgs}, nil
	}
	<-ctx.Done()
	return nil, ctx.Err()
}

func (f *fakeSQS) DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, *params.ReceiptHandle)
	return &sqs.DeleteMessageOutput{}, nil
}

func TestJobCodec(t *testing.T) {
	job := subm.ScoreJob{Key: "subm_yılmaz_ayşe_1", FilePath: "submissions/u/IKK-AAAA0000_a.png", FileType: "image/png"}
	body, err := encodeJob(job)
	require.NoError(t, err)

	back, err := decodeJob(body)
	require.NoError(t, err)
	assert.Equal(t, job, back)

	_, err = decodeJob("not base64!")
	assert.Error(t, err)
	_, err = decodeJob("aGVsbG8=")
	assert.Error(t, err)
}

func TestQueueDeletesEveryMessage(t *testing.T) {
	fake := &fakeSQS{}
	q := newSQSQueue(fake, "https://sqs.example/moderation")
	ctx, cancel := context.WithCancel(context.Background())

	ok := subm.ScoreJob{Key: "subm_a_b_1", FilePath: "submissions/u/IKK-AAAA0001_a.png", FileType: "image/png"}
	failing := subm.ScoreJob{Key: "subm_c_d_2", FilePath: "submissions/u/IKK-AAAA0002_b.png", FileType: "image/png"}
	require.NoError(t, q.Schedule(ctx, ok))
	require.NoError(t, q.Schedule(ctx, failing))
	fake.pending = append(fake.pending, types.Message{Body: aws.String("corrupt"), ReceiptHandle: aws.String("rh-corrupt")})

	var handled []string
	done := make(chan error, 1)
	go func() {
		done <- q.Run(ctx, func(ctx context.Context, job subm.ScoreJob) error {
			handled = append(handled, job.Key)
			if len(handled) == 2 {
				cancel()
			}
			if job.Key == failing.Key {
				return errors.New("model unavailable")
			}
			return nil
		})
	}()
	require.NoError(t, <-done)

	assert.Equal(t, []string{ok.Key, failing.Key}, handled)
	assert.Equal(t, []string{"rh-a", "rh-b", "rh-corrupt"}, fake.deleted)
}

type failingSQS struct {
	fakeSQS
	receives atomic.Int32
}

func (f *failingSQS) ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error) {
	f.receives.Add(1)
	return nil, errors.New("AccessDenied")
}

func TestQueueWaitsAfterReceiveError(t *testing.T) {
	fake := &failingSQS{}
	q := newSQSQueue(fake, "https://sqs.example/moderation")
	q.receiveBackoff = 50 * time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 220*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := q.Run(ctx, func(ctx context.Context, job subm.ScoreJob) error {
		t.Fatal("no job should be handled")
		return nil
	})
	require.NoError(t, err)
	assert.Less(t, time.Since(start), time.Second)

	n := fake.receives.Load()
	assert.GreaterOrEqual(t, n, int32(2))
	assert.LessOrEqual(t, n, int32(6))
}
