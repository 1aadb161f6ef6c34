package repository

import (
	"time"

	"github.com/nimasrn/canteen-gateway/internal/model"
)

type NotificationLogEntity struct {
	ID        int64      `db:"id"        gorm:"primaryKey;autoIncrement;column:id"`
	TopUpID   int64      `db:"topup_id"  gorm:"column:topup_id;not null;index"`
	Recipient string     `db:"recipient" gorm:"column:recipient;not null"`
	Subject   string     `db:"subject"   gorm:"column:subject"`
	Status    string     `db:"status"    gorm:"column:status;not null;index"`
	SentAt    *time.Time `db:"sent_at"   gorm:"column:sent_at"` // nullable
}

func (NotificationLogEntity) TableName() string {
	return "notification_logs"
}

func toNotificationLogEntity(m *model.NotificationLog) *NotificationLogEntity {
	if m == nil {
		return nil
	}
	return &NotificationLogEntity{
		ID:        m.ID,
		TopUpID:   m.TopUpID,
		Recipient: m.Recipient,
		Subject:   m.Subject,
		Status:    string(m.Status),
		SentAt:    m.SentAt,
	}
}

func toNotificationLogModel(e *NotificationLogEntity) *model.NotificationLog {
	if e == nil {
		return nil
	}
	return &model.NotificationLog{
		ID:        e.ID,
		TopUpID:   e.TopUpID,
		Recipient: e.Recipient,
		Subject:   e.Subject,
		Status:    model.NotificationStatus(e.Status),
		SentAt:    e.SentAt,
	}
}
