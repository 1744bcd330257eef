package types

import (
	"time"

	"github.com/shopspring/decimal"
)

type ApprovalStatus string

const (
	StatusPending  ApprovalStatus = "pending"
	StatusApproved ApprovalStatus = "approved"
	StatusRejected ApprovalStatus = "rejected"
)

type SigningBonus struct {
	ID         string          `json:"id"`
	EmployeeID string          `json:"employeeId"`
	Amount     decimal.Decimal `json:"amount"`
	Status     ApprovalStatus  `json:"status"`
	CreatedAt  time.Time       `json:"createdAt"`
	ApprovedAt *time.Time      `json:"approvedAt,omitempty"`
}

const (
	TerminationTypeResignation = "resignation"
	TerminationTypeTermination = "termination"
)

type TerminationRequest struct {
	ID            string          `json:"id"`
	EmployeeID    string          `json:"employeeId"`
	Type          string          `json:"type"`
	Reason        string          `json:"reason"`
	BenefitAmount decimal.Decimal `json:"benefitAmount"`
	Status        ApprovalStatus  `json:"status"`
	CreatedAt     time.Time       `json:"createdAt"`
	ApprovedAt    *time.Time      `json:"approvedAt,omitempty"`
}
