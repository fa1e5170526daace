package notifier

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shoplio/review-backend/internal/queue"
)

type fakeSender struct {
	sent []Message
	err  error
}

func (f *fakeSender) Send(ctx context.Context, msg Message) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSendNewReviewNotification(t *testing.T) {
	sender := &fakeSender{}
	svc := NewService(sender, "admin@example.com", testLogger())

	err := svc.SendNewReviewNotification(context.Background(), ReviewData{
		CustomerName: "Dana",
		ProductTitle: "Travel Mug",
		Rating:       5,
		Content:      "Great",
	})
	require.NoError(t, err)

	require.Len(t, sender.sent, 1)
	msg := sender.sent[0]
	assert.Equal(t, "admin@example.com", msg.To)
	assert.Equal(t, "New review notification - Travel Mug", msg.Subject)
	assert.Contains(t, msg.HTML, "Dana")
	assert.Contains(t, msg.Text, "Customer: Dana")
}

func TestSendNewReviewNotificationNoAdminEmail(t *testing.T) {
	sender := &fakeSender{}
	svc := NewService(sender, "", testLogger())

	err := svc.SendNewReviewNotification(context.Background(), ReviewData{ProductTitle: "Mug"})
	require.NoError(t, err)
	assert.Empty(t, sender.sent)
}

func TestSendNewReviewNotificationDeliveryFailure(t *testing.T) {
	transport := errors.New("connection refused")
	svc := NewService(&fakeSender{err: transport}, "admin@example.com", testLogger())

	err := svc.SendNewReviewNotification(context.Background(), ReviewData{ProductTitle: "Mug"})
	require.Error(t, err)

	var dErr *DeliveryError
	require.ErrorAs(t, err, &dErr)
	assert.Equal(t, "admin@example.com", dErr.Recipient)
	assert.ErrorIs(t, err, transport)
	assert.False(t, queue.IsPermanent(err))
}

func TestProcessReviewNotification(t *testing.T) {
	sender := &fakeSender{}
	svc := NewService(sender, "admin@example.com", testLogger())

	job := &queue.Job{Payload: []byte(`{"customerName":"Dana","productTitle":"Mug","rating":4,"content":"Nice","reviewId":"r1"}`)}
	require.NoError(t, svc.ProcessReviewNotification(context.Background(), job))
	require.Len(t, sender.sent, 1)
	assert.Contains(t, sender.sent[0].HTML, "(4/5)")
}

func TestProcessReviewNotificationBadPayload(t *testing.T) {
	svc := NewService(&fakeSender{}, "admin@example.com", testLogger())

	job := &queue.Job{Payload: []byte(`not json`)}
	err := svc.ProcessReviewNotification(context.Background(), job)
	require.Error(t, err)
	assert.True(t, queue.IsPermanent(err))
}

func TestProcessEmail(t *testing.T) {
	sender := &fakeSender{}
	svc := NewService(sender, "admin@example.com", testLogger())

	job := &queue.Job{Payload: []byte(`{"type":"review-notification","data":{"customerName":"Dana","productTitle":"Mug","rating":2,"content":"Meh"}}`)}
	require.NoError(t, svc.ProcessEmail(context.Background(), job))
	require.Len(t, sender.sent, 1)
}

func TestProcessEmailWelcomeIsNoOp(t *testing.T) {
	sender := &fakeSender{}
	svc := NewService(sender, "admin@example.com", testLogger())

	job := &queue.Job{Payload: []byte(`{"type":"welcome"}`)}
	require.NoError(t, svc.ProcessEmail(context.Background(), job))
	assert.Empty(t, sender.sent)
}

func TestProcessEmailUnknownType(t *testing.T) {
	svc := NewService(&fakeSender{}, "admin@example.com", testLogger())

	job := &queue.Job{Payload: []byte(`{"type":"password-reset"}`)}
	err := svc.ProcessEmail(context.Background(), job)
	require.Error(t, err)
	assert.True(t, queue.IsPermanent(err))
	assert.Contains(t, err.Error(), "password-reset")
}
