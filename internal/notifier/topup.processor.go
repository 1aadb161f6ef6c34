package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nimasrn/canteen-gateway/internal/mailer"
	"github.com/nimasrn/canteen-gateway/internal/model"
	"github.com/nimasrn/canteen-gateway/internal/queue"
	"github.com/nimasrn/canteen-gateway/pkg/logger"
	"github.com/nimasrn/canteen-gateway/pkg/prom"
)

type NotificationLogRepository interface {
	Create(ctx context.Context, n *model.NotificationLog) (*model.NotificationLog, error)
}

// TopUpProcessor turns top-up decision events into parent emails.
type TopUpProcessor struct {
	client      *mailer.Client
	logRepo     NotificationLogRepository
	idempotency *IdempotencyService
}

func NewTopUpProcessor(client *mailer.Client, logRepo NotificationLogRepository, idempotency *IdempotencyService) *TopUpProcessor {
	return &TopUpProcessor{
		client:      client,
		logRepo:     logRepo,
		idempotency: idempotency,
	}
}

func (p *TopUpProcessor) GetType() string {
	return "topup"
}

// jobID keys idempotency per decision, so an approve and a later reject of
// different top-ups never collide.
func jobID(ev *model.TopUpEvent) string {
	return fmt.Sprintf("topup:%d:%s", ev.TopUpID, ev.Event)
}

func composeMail(ev *model.TopUpEvent) (subject, body string) {
	switch ev.Event {
	case model.TopUpEventApproved:
		subject = fmt.Sprintf("Top-up for %s approved", ev.StudentName)
		body = fmt.Sprintf("Your top-up of %d for %s has been approved and credited to the balance.", ev.Amount, ev.StudentName)
	case model.TopUpEventRejected:
		subject = fmt.Sprintf("Top-up for %s rejected", ev.StudentName)
		body = fmt.Sprintf("Your top-up of %d for %s has been rejected.", ev.Amount, ev.StudentName)
		if ev.Reason != "" {
			body += " Reason: " + ev.Reason
		}
	default:
		subject = fmt.Sprintf("Top-up update for %s", ev.StudentName)
		body = fmt.Sprintf("There is an update on the top-up of %d for %s.", ev.Amount, ev.StudentName)
	}
	return subject, body
}

// Process sends the email for one decision event with idempotency
// guarantees.
func (p *TopUpProcessor) Process(ctx context.Context, queueMessage *queue.Message) error {
	// Step 1: Parse event
	var ev model.TopUpEvent
	err := json.Unmarshal(queueMessage.Data, &ev)
	if err != nil {
		logger.Error("Failed to unmarshal top-up event", "error", err)
		return err // Return error to trigger DLQ move
	}

	id := jobID(&ev)
	subject, body := composeMail(&ev)

	// Step 2: Acquire processing lock and check idempotency
	procCtx, err := p.idempotency.AcquireProcessingLock(ctx, id)
	if err != nil {
		if errors.Is(err, ErrAlreadyProcessed) {
			// Decision already notified - ACK to remove from queue
			logger.Info("Event already processed, skipping", "job_id", id)
			return nil
		}
		if errors.Is(err, ErrMaxRetriesExceeded) {
			// Max retries exceeded - record terminal failure and ACK
			logger.Error("Max retries exceeded", "job_id", id)
			p.recordLog(ctx, &ev, subject, model.NotificationStatusFailed, nil)
			return nil // ACK to move to DLQ
		}
		if errors.Is(err, ErrLockAcquireFailed) {
			// Another consumer is processing - NACK to retry later
			logger.Info("Lock held by another consumer, will retry", "job_id", id)
			return errors.New("lock held by another consumer")
		}
		// Unexpected error - NACK to retry
		logger.Error("Failed to acquire lock", "job_id", id, "error", err)
		return err
	}

	// Ensure lock is released on exit (if not already marked success/failure)
	defer func() {
		if procCtx.lockAcquired {
			p.idempotency.ReleaseLock(ctx, procCtx)
		}
	}()

	logger.Info("Processing top-up event",
		"job_id", id,
		"recipient", ev.ParentEmail,
		"retry_count", procCtx.RetryCount,
		"is_retry", procCtx.IsRetry)

	// Step 3: Send the email
	req := &mailer.SendRequest{
		NotificationID: id,
		To:             ev.ParentEmail,
		Subject:        subject,
		Body:           body,
	}

	res, err := p.client.SendMail(ctx, req)
	if err != nil {
		// Step 4a: Sending failed - mark failure and retry
		logger.Error("Failed to send mail", "job_id", id, "error", err)
		if markErr := p.idempotency.MarkFailure(ctx, procCtx, err); markErr != nil {
			logger.Error("Failed to mark failure", "job_id", id, "error", markErr)
		}
		return err // NACK to retry from queue
	}

	if res.Status == mailer.StatusSent {
		prom.AddNotificationDeliveryDuration(
			time.Since(ev.OccurredAt).Seconds(),
			string(ev.Event),
		)

		sentAt := time.Now()
		if res.SentAt != nil {
			sentAt = *res.SentAt
		}
		p.recordLog(ctx, &ev, subject, model.NotificationStatusSent, &sentAt)

		// Mark as successfully processed (sets 24-hour processed marker)
		if markErr := p.idempotency.MarkSuccess(ctx, procCtx); markErr != nil {
			logger.Error("Failed to mark success", "job_id", id, "error", markErr)
			// Continue - mail was sent
		}

		logger.Info("Notification sent",
			"job_id", id,
			"recipient", ev.ParentEmail,
			"retry_count", procCtx.RetryCount)
		return nil // ACK message
	}

	// Provider returned non-sent status - treat as failure
	logger.Warn("Mail not sent", "job_id", id, "status", res.Status)
	if markErr := p.idempotency.MarkFailure(ctx, procCtx, errors.New("provider returned non-sent status")); markErr != nil {
		logger.Error("Failed to mark failure", "job_id", id, "error", markErr)
	}
	return errors.New("failed to send notification")
}

// recordLog persists the audit row; a logging failure never triggers a
// resend.
func (p *TopUpProcessor) recordLog(ctx context.Context, ev *model.TopUpEvent, subject string, status model.NotificationStatus, sentAt *time.Time) {
	log := &model.NotificationLog{
		TopUpID:   ev.TopUpID,
		Recipient: ev.ParentEmail,
		Subject:   subject,
		Status:    status,
		SentAt:    sentAt,
	}
	if _, err := p.logRepo.Create(ctx, log); err != nil {
		logger.Error("Failed to save notification log", "topup_id", ev.TopUpID, "error", err)
	}
}
