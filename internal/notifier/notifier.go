package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/shoplio/review-backend/internal/queue"
)

// ReviewData is the review content a notification is rendered from
type ReviewData struct {
	CustomerName string
	ProductTitle string
	Rating       int
	Title        string
	Content      string
	MediaURLs    []string
}

// Message is a rendered email ready for delivery
type Message struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

// Sender delivers one message. Delivery is attempted once per call; retries
// belong to the enqueuing job's attempt policy.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// DeliveryError wraps a transport failure during email submission
type DeliveryError struct {
	Recipient string
	Err       error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("failed to deliver email to %s: %v", e.Recipient, e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

// Service renders and delivers review notification emails
type Service struct {
	sender     Sender
	adminEmail string
	logger     *slog.Logger
}

// NewService creates a notifier. adminEmail may be empty, in which case
// notifications are silently skipped.
func NewService(sender Sender, adminEmail string, logger *slog.Logger) *Service {
	return &Service{
		sender:     sender,
		adminEmail: adminEmail,
		logger:     logger,
	}
}

// SendNewReviewNotification renders and delivers a new-review email to the
// administrator recipient. A missing recipient is a logged no-op, not a
// failure.
func (s *Service) SendNewReviewNotification(ctx context.Context, data ReviewData) error {
	if s.adminEmail == "" {
		s.logger.Warn("No admin email configured, skipping review notification",
			slog.String("product", data.ProductTitle),
		)
		return nil
	}

	msg := Message{
		To:      s.adminEmail,
		Subject: renderSubject(data.ProductTitle),
		HTML:    renderHTML(data),
		Text:    renderText(data),
	}

	if err := s.sender.Send(ctx, msg); err != nil {
		return &DeliveryError{Recipient: s.adminEmail, Err: err}
	}

	s.logger.Info("Review notification email sent",
		slog.String("to", s.adminEmail),
		slog.String("product", data.ProductTitle),
	)
	return nil
}

// genericEmailPayload is the envelope carried by email-processing jobs
type genericEmailPayload struct {
	Type string                          `json:"type"`
	Data queue.ReviewNotificationPayload `json:"data"`
}

// ProcessReviewNotification handles jobs from the review-notifications queue
func (s *Service) ProcessReviewNotification(ctx context.Context, job *queue.Job) error {
	var payload queue.ReviewNotificationPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return queue.Permanent(fmt.Errorf("invalid review notification payload: %w", err))
	}

	return s.SendNewReviewNotification(ctx, reviewDataFrom(payload))
}

// ProcessEmail handles jobs from the generic email-processing queue
func (s *Service) ProcessEmail(ctx context.Context, job *queue.Job) error {
	var payload genericEmailPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return queue.Permanent(fmt.Errorf("invalid email payload: %w", err))
	}

	switch payload.Type {
	case "review-notification":
		return s.SendNewReviewNotification(ctx, reviewDataFrom(payload.Data))
	case "welcome":
		// Accepted but not implemented yet. Consuming it keeps the queue
		// from filling its failed history with known job types.
		s.logger.Info("Skipping unhandled email type",
			slog.String("email_type", payload.Type),
			slog.String("job_id", job.ID),
		)
		return nil
	default:
		return queue.Permanent(fmt.Errorf("unknown email type: %s", payload.Type))
	}
}

func reviewDataFrom(p queue.ReviewNotificationPayload) ReviewData {
	return ReviewData{
		CustomerName: p.CustomerName,
		ProductTitle: p.ProductTitle,
		Rating:       p.Rating,
		Title:        p.Title,
		Content:      p.Content,
		MediaURLs:    p.MediaURLs,
	}
}
