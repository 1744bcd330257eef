package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jacksonlee411/peopleops/modules/payroll/domain/ports"
	"github.com/jacksonlee411/peopleops/modules/payroll/domain/types"
	"github.com/shopspring/decimal"
)

type HREventInference struct {
	Records ports.HRRecordSource
}

// MonthRange returns the first and last instant (millisecond precision) of
// the UTC month containing period.
func MonthRange(period time.Time) (time.Time, time.Time) {
	p := period.UTC()
	from := time.Date(p.Year(), p.Month(), 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0).Add(-time.Millisecond)
	return from, to
}

func (h HREventInference) Infer(ctx context.Context, employeeID string, period time.Time) ([]types.HREvent, error) {
	inf, err := h.InferDetailed(ctx, employeeID, period)
	if err != nil {
		return nil, err
	}
	return inf.Events, nil
}

// InferDetailed derives NEW_HIRE from approved signing bonuses and
// RESIGNED/TERMINATED from approved termination records created in the
// period's month. NEW_HIRE always comes first.
func (h HREventInference) InferDetailed(ctx context.Context, employeeID string, period time.Time) (types.Inference, error) {
	from, to := MonthRange(period)
	out := types.Inference{Events: []types.HREvent{}, SigningBonus: decimal.Zero, TerminationBenefit: decimal.Zero}

	bonuses, err := h.Records.ApprovedSigningBonuses(ctx, employeeID, from, to)
	if err != nil {
		return types.Inference{}, fmt.Errorf("signing bonuses: %w", err)
	}
	if len(bonuses) > 0 {
		out.Events = append(out.Events, types.HREventNewHire)
		for _, b := range bonuses {
			out.SigningBonus = out.SigningBonus.Add(b.Amount)
		}
	}

	terms, err := h.Records.ApprovedTerminations(ctx, employeeID, from, to)
	if err != nil {
		return types.Inference{}, fmt.Errorf("terminations: %w", err)
	}
	if len(terms) > 0 {
		out.Events = append(out.Events, terminationEvent(terms[0]))
		for _, t := range terms {
			out.TerminationBenefit = out.TerminationBenefit.Add(t.BenefitAmount)
		}
	}
	return out, nil
}

func terminationEvent(r types.TerminationRecord) types.HREvent {
	if strings.Contains(strings.ToLower(r.Type), "resign") || strings.Contains(strings.ToLower(r.Reason), "resign") {
		return types.HREventResigned
	}
	return types.HREventTerminated
}
