package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jacksonlee411/peopleops/modules/lifecycle/domain/ports"
	"github.com/jacksonlee411/peopleops/modules/lifecycle/domain/types"
	notifports "github.com/jacksonlee411/peopleops/modules/notification/domain/ports"
	notiftypes "github.com/jacksonlee411/peopleops/modules/notification/domain/types"
	"github.com/jacksonlee411/peopleops/pkg/httperr"
	"github.com/jacksonlee411/peopleops/pkg/objectid"
	"github.com/shopspring/decimal"
)

const rolePayrollSpecialist = "payroll-specialist"

// LifecycleService records the signing bonuses and termination requests
// that payroll reads when inferring HR events.
type LifecycleService struct {
	Bonuses      ports.SigningBonusStore
	Terminations ports.TerminationStore
	Sink         notifports.NotificationSink
	NewID        func() string
	NowUTC       func() time.Time
}

func (s *LifecycleService) newID() string {
	if s.NewID != nil {
		return s.NewID()
	}
	return objectid.New()
}

func (s *LifecycleService) now() time.Time {
	if s.NowUTC != nil {
		return s.NowUTC()
	}
	return time.Now().UTC()
}

func (s *LifecycleService) CreateSigningBonus(ctx context.Context, employeeID string, amount decimal.Decimal) (types.SigningBonus, error) {
	if err := objectid.Require("employeeId", employeeID); err != nil {
		return types.SigningBonus{}, err
	}
	if !amount.IsPositive() {
		return types.SigningBonus{}, httperr.NewBadRequest("amount must be positive")
	}
	b := types.SigningBonus{
		ID:         s.newID(),
		EmployeeID: employeeID,
		Amount:     amount.Round(2),
		Status:     types.StatusPending,
		CreatedAt:  s.now(),
	}
	if err := s.Bonuses.InsertBonus(ctx, b); err != nil {
		return types.SigningBonus{}, err
	}
	return b, nil
}

func (s *LifecycleService) ListSigningBonuses(ctx context.Context, employeeID string) ([]types.SigningBonus, error) {
	if employeeID != "" {
		if err := objectid.Require("employeeId", employeeID); err != nil {
			return nil, err
		}
	}
	out, err := s.Bonuses.ListBonuses(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []types.SigningBonus{}
	}
	return out, nil
}

func (s *LifecycleService) ApproveSigningBonus(ctx context.Context, id string) (types.SigningBonus, error) {
	if err := objectid.Require("bonusId", id); err != nil {
		return types.SigningBonus{}, err
	}
	b, err := s.Bonuses.ApproveBonus(ctx, id, s.now())
	if err != nil {
		return types.SigningBonus{}, err
	}
	s.notify(ctx, notiftypes.Message{
		Type:  notiftypes.TypeSigningBonusApproved,
		Title: "Signing bonus approved",
		Body:  fmt.Sprintf("A signing bonus of %s for employee %s was approved and will be paid with the next payroll run.", b.Amount.StringFixed(2), b.EmployeeID),
	})
	return b, nil
}

func (s *LifecycleService) CreateTermination(ctx context.Context, employeeID string, typ string, reason string, benefit decimal.Decimal) (types.TerminationRequest, error) {
	if err := objectid.Require("employeeId", employeeID); err != nil {
		return types.TerminationRequest{}, err
	}
	typ = strings.ToLower(strings.TrimSpace(typ))
	if typ != types.TerminationTypeResignation && typ != types.TerminationTypeTermination {
		return types.TerminationRequest{}, httperr.NewBadRequest("type must be resignation or termination")
	}
	if benefit.IsNegative() {
		return types.TerminationRequest{}, httperr.NewBadRequest("benefitAmount must be non-negative")
	}
	t := types.TerminationRequest{
		ID:            s.newID(),
		EmployeeID:    employeeID,
		Type:          typ,
		Reason:        strings.TrimSpace(reason),
		BenefitAmount: benefit.Round(2),
		Status:        types.StatusPending,
		CreatedAt:     s.now(),
	}
	if err := s.Terminations.InsertTermination(ctx, t); err != nil {
		return types.TerminationRequest{}, err
	}
	return t, nil
}

func (s *LifecycleService) ListTerminations(ctx context.Context, employeeID string) ([]types.TerminationRequest, error) {
	if employeeID != "" {
		if err := objectid.Require("employeeId", employeeID); err != nil {
			return nil, err
		}
	}
	out, err := s.Terminations.ListTerminations(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []types.TerminationRequest{}
	}
	return out, nil
}

// ApproveTermination approves the request and tells payroll specialists to
// expect a final settlement. The notification never fails the approval.
func (s *LifecycleService) ApproveTermination(ctx context.Context, id string) (types.TerminationRequest, error) {
	if err := objectid.Require("terminationId", id); err != nil {
		return types.TerminationRequest{}, err
	}
	t, err := s.Terminations.ApproveTermination(ctx, id, s.now())
	if err != nil {
		return types.TerminationRequest{}, err
	}
	s.notify(ctx, notiftypes.Message{
		Type:  notiftypes.TypeTerminationApproved,
		Title: "Termination approved",
		Body:  fmt.Sprintf("The %s of employee %s was approved; include the final settlement of %s in the next payroll run.", t.Type, t.EmployeeID, t.BenefitAmount.StringFixed(2)),
	})
	return t, nil
}

func (s *LifecycleService) notify(ctx context.Context, msg notiftypes.Message) {
	if s.Sink == nil {
		return
	}
	s.Sink.Notify(ctx, notiftypes.Target{Roles: []string{rolePayrollSpecialist}}, msg)
}
