package model

import (
	"errors"
	"time"
)

type TopUpStatus string

const (
	TopUpStatusPending  TopUpStatus = "PENDING"
	TopUpStatusApproved TopUpStatus = "APPROVED"
	TopUpStatusRejected TopUpStatus = "REJECTED"
	// TopUpStatusCompleted marks the instant top-up path that bypasses
	// the approval workflow entirely.
	TopUpStatusCompleted TopUpStatus = "COMPLETED"
)

type TopUp struct {
	ID         int64       `json:"id"`
	StudentID  int64       `json:"student_id"`
	ParentID   *int64      `json:"parent_id"`
	Amount     uint        `json:"amount"`
	Method     string      `json:"method"`
	Status     TopUpStatus `json:"status"`
	ApprovedBy *int64      `json:"approved_by"`
	ApprovedAt *time.Time  `json:"approved_at"`
	ProofImage string      `json:"proof_image"`
	Notes      string      `json:"notes"`
	CreatedAt  time.Time   `json:"created_at"`
}

func (TopUp) TableName() string { return "topups" }

type TopUpCreateRequest struct {
	StudentID  int64
	ParentID   *int64
	Amount     uint
	Method     string
	ProofImage string
	Notes      string
}

func (p TopUpCreateRequest) Validate() error {
	if p.StudentID == 0 {
		return errors.New("student_id is required")
	}
	if p.Amount == 0 {
		return errors.New("amount must be positive")
	}
	if p.Method == "" {
		return errors.New("method is required")
	}
	return nil
}

type TopUpFilter struct {
	StudentID *int64
	ParentID  *int64
	Status    *TopUpStatus
	Limit     int
	Offset    int
	Desc      bool
}
