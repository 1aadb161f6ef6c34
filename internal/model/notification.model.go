package model

import "time"

type TopUpEventType string

const (
	TopUpEventApproved TopUpEventType = "topup_approved"
	TopUpEventRejected TopUpEventType = "topup_rejected"
)

// TopUpEvent is the queue payload published when an admin decides a top-up.
// The notifier turns it into a parent-facing email.
type TopUpEvent struct {
	TopUpID     int64          `json:"topup_id"`
	Event       TopUpEventType `json:"event"`
	StudentName string         `json:"student_name"`
	ParentEmail string         `json:"parent_email"`
	Amount      uint           `json:"amount"`
	Reason      string         `json:"reason,omitempty"`
	OccurredAt  time.Time      `json:"occurred_at"`
}

type NotificationStatus string

const (
	NotificationStatusSent   NotificationStatus = "sent"
	NotificationStatusFailed NotificationStatus = "failed"
)

type NotificationLog struct {
	ID        int64              `json:"id"`
	TopUpID   int64              `json:"topup_id"`
	Recipient string             `json:"recipient"`
	Subject   string             `json:"subject"`
	Status    NotificationStatus `json:"status"`
	SentAt    *time.Time         `json:"sent_at"`
}

func (NotificationLog) TableName() string { return "notification_logs" }
