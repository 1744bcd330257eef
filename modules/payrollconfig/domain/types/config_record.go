package types

import (
	"strings"
	"time"

	"github.com/jacksonlee411/peopleops/pkg/httperr"
	"github.com/shopspring/decimal"
)

type Kind string

const (
	KindPayGrade         Kind = "pay_grade"
	KindAllowance        Kind = "allowance"
	KindTaxRule          Kind = "tax_rule"
	KindInsuranceBracket Kind = "insurance_bracket"
)

// ParseKind accepts the URL form of a kind, with dashes or underscores.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_"))
	switch k {
	case KindPayGrade, KindAllowance, KindTaxRule, KindInsuranceBracket:
		return k, nil
	default:
		return "", httperr.NewBadRequest("unknown configuration kind: " + s)
	}
}

type Status string

const (
	StatusDraft    Status = "draft"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	switch st {
	case "", StatusDraft, StatusApproved, StatusRejected:
		return st, nil
	default:
		return "", httperr.NewBadRequest("invalid status: " + s)
	}
}

// Record is one payroll configuration entry. Which amount fields matter
// depends on Kind: pay grades use Amount (base) and GrossAmount, allowances
// use Amount, tax rules and insurance brackets use RatePercent over
// [MinAmount, MaxAmount].
type Record struct {
	ID          string           `json:"id"`
	Kind        Kind             `json:"kind"`
	Name        string           `json:"name"`
	Amount      decimal.Decimal  `json:"amount"`
	GrossAmount decimal.Decimal  `json:"grossAmount"`
	RatePercent decimal.Decimal  `json:"ratePercent"`
	MinAmount   decimal.Decimal  `json:"minAmount"`
	MaxAmount   *decimal.Decimal `json:"maxAmount,omitempty"`
	Status      Status           `json:"status"`
	CreatedBy   string           `json:"createdBy"`
	ApprovedBy  string           `json:"approvedBy,omitempty"`
	CreatedAt   time.Time        `json:"createdAt"`
	UpdatedAt   time.Time        `json:"updatedAt"`
}

// RecordInput carries a create or patch payload; nil fields are left as is.
type RecordInput struct {
	Name        *string
	Amount      *decimal.Decimal
	GrossAmount *decimal.Decimal
	RatePercent *decimal.Decimal
	MinAmount   *decimal.Decimal
	MaxAmount   *decimal.Decimal
}

// Actor is the caller performing a configuration change.
type Actor struct {
	ID    string
	Roles []string
}

const (
	ActionUpdate  = "update"
	ActionApprove = "approve"
	ActionReject  = "reject"
)
