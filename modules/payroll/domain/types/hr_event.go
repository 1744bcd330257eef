package types

import (
	"time"

	"github.com/shopspring/decimal"
)

type HREvent string

const (
	HREventNewHire    HREvent = "NEW_HIRE"
	HREventProbation  HREvent = "PROBATION" // never inferred from records
	HREventResigned   HREvent = "RESIGNED"
	HREventTerminated HREvent = "TERMINATED"
)

func HasEvent(events []HREvent, e HREvent) bool {
	for _, v := range events {
		if v == e {
			return true
		}
	}
	return false
}

type SigningBonusRecord struct {
	ID        string
	Amount    decimal.Decimal
	CreatedAt time.Time
}

type TerminationRecord struct {
	ID            string
	Type          string
	Reason        string
	BenefitAmount decimal.Decimal
	CreatedAt     time.Time
}

// Inference is the per-period result of HR event inference, with the
// amounts that fed it.
type Inference struct {
	Events             []HREvent
	SigningBonus       decimal.Decimal
	TerminationBenefit decimal.Decimal
}
