package services

import (
	"context"
	"strings"
	"time"

	payrolltypes "github.com/jacksonlee411/peopleops/modules/payroll/domain/types"
	"github.com/jacksonlee411/peopleops/modules/payrollconfig/domain/ports"
	"github.com/jacksonlee411/peopleops/modules/payrollconfig/domain/types"
	"github.com/jacksonlee411/peopleops/pkg/httperr"
	"github.com/jacksonlee411/peopleops/pkg/objectid"
	"github.com/jacksonlee411/peopleops/pkg/payroll/brackets"
	"github.com/shopspring/decimal"
)

type ConfigService struct {
	store  ports.RecordStore
	guard  ports.EditGuard
	NewID  func() string
	NowUTC func() time.Time
}

func NewConfigService(store ports.RecordStore, guard ports.EditGuard) *ConfigService {
	return &ConfigService{store: store, guard: guard}
}

func (s *ConfigService) newID() string {
	if s.NewID != nil {
		return s.NewID()
	}
	return objectid.New()
}

func (s *ConfigService) now() time.Time {
	if s.NowUTC != nil {
		return s.NowUTC()
	}
	return time.Now().UTC()
}

func (s *ConfigService) Create(ctx context.Context, kind types.Kind, in types.RecordInput, actor types.Actor) (types.Record, error) {
	now := s.now()
	rec := types.Record{
		ID:        s.newID(),
		Kind:      kind,
		Status:    types.StatusDraft,
		CreatedBy: actor.ID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	applyInput(&rec, in)
	if err := validateRecord(rec); err != nil {
		return types.Record{}, err
	}
	if err := s.store.Insert(ctx, rec); err != nil {
		return types.Record{}, err
	}
	return rec, nil
}

func (s *ConfigService) List(ctx context.Context, kind types.Kind, status types.Status) ([]types.Record, error) {
	out, err := s.store.List(ctx, kind, status)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []types.Record{}
	}
	return out, nil
}

// Get returns the record only when it belongs to kind.
func (s *ConfigService) Get(ctx context.Context, kind types.Kind, id string) (types.Record, error) {
	if err := objectid.Require("id", id); err != nil {
		return types.Record{}, err
	}
	rec, err := s.store.Get(ctx, id)
	if err != nil {
		return types.Record{}, err
	}
	if rec.Kind != kind {
		return types.Record{}, httperr.NewNotFound("configuration record not found")
	}
	return rec, nil
}

func (s *ConfigService) Update(ctx context.Context, kind types.Kind, id string, in types.RecordInput, actor types.Actor) (types.Record, error) {
	rec, err := s.Get(ctx, kind, id)
	if err != nil {
		return types.Record{}, err
	}
	if err := s.authorize(ctx, types.ActionUpdate, rec, actor); err != nil {
		return types.Record{}, err
	}
	applyInput(&rec, in)
	rec.UpdatedAt = s.now()
	if err := validateRecord(rec); err != nil {
		return types.Record{}, err
	}
	return s.store.Update(ctx, rec)
}

func (s *ConfigService) Approve(ctx context.Context, kind types.Kind, id string, actor types.Actor) (types.Record, error) {
	return s.decide(ctx, kind, id, actor, types.ActionApprove, types.StatusApproved)
}

func (s *ConfigService) Reject(ctx context.Context, kind types.Kind, id string, actor types.Actor) (types.Record, error) {
	return s.decide(ctx, kind, id, actor, types.ActionReject, types.StatusRejected)
}

func (s *ConfigService) decide(ctx context.Context, kind types.Kind, id string, actor types.Actor, action string, to types.Status) (types.Record, error) {
	rec, err := s.Get(ctx, kind, id)
	if err != nil {
		return types.Record{}, err
	}
	if err := s.authorize(ctx, action, rec, actor); err != nil {
		return types.Record{}, err
	}
	return s.store.SetStatus(ctx, rec.ID, types.StatusDraft, to, actor.ID)
}

func (s *ConfigService) authorize(ctx context.Context, action string, rec types.Record, actor types.Actor) error {
	ok, err := s.guard.Allow(ctx, action, rec, actor.Roles)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	if rec.Status != types.StatusDraft {
		return httperr.NewForbidden("configuration record is " + string(rec.Status) + "; only draft records can be changed")
	}
	return httperr.NewForbidden("role not permitted to " + action + " configuration records")
}

// Snapshot collects the approved allowances, tax rules and insurance
// brackets for one payroll run.
func (s *ConfigService) Snapshot(ctx context.Context) (payrolltypes.ConfigSnapshot, error) {
	var snap payrolltypes.ConfigSnapshot

	allowances, err := s.store.List(ctx, types.KindAllowance, types.StatusApproved)
	if err != nil {
		return snap, err
	}
	for _, r := range allowances {
		snap.Allowances = append(snap.Allowances, payrolltypes.Allowance{Name: r.Name, Amount: r.Amount})
	}

	taxRules, err := s.store.List(ctx, types.KindTaxRule, types.StatusApproved)
	if err != nil {
		return snap, err
	}
	snap.TaxRules = toBrackets(taxRules)

	insurance, err := s.store.List(ctx, types.KindInsuranceBracket, types.StatusApproved)
	if err != nil {
		return snap, err
	}
	snap.InsuranceBrackets = toBrackets(insurance)
	return snap, nil
}

func toBrackets(in []types.Record) []brackets.Bracket {
	out := make([]brackets.Bracket, 0, len(in))
	for _, r := range in {
		out = append(out, bracketOf(r))
	}
	return out
}

func bracketOf(r types.Record) brackets.Bracket {
	return brackets.Bracket{Name: r.Name, Min: r.MinAmount, Max: r.MaxAmount, RatePercent: r.RatePercent}
}

func applyInput(rec *types.Record, in types.RecordInput) {
	if in.Name != nil {
		rec.Name = strings.TrimSpace(*in.Name)
	}
	if in.Amount != nil {
		rec.Amount = *in.Amount
	}
	if in.GrossAmount != nil {
		rec.GrossAmount = *in.GrossAmount
	}
	if in.RatePercent != nil {
		rec.RatePercent = *in.RatePercent
	}
	if in.MinAmount != nil {
		rec.MinAmount = *in.MinAmount
	}
	if in.MaxAmount != nil {
		v := *in.MaxAmount
		rec.MaxAmount = &v
	}
}

func validateRecord(rec types.Record) error {
	if rec.Name == "" {
		return httperr.NewBadRequest("name is required")
	}
	switch rec.Kind {
	case types.KindPayGrade:
		if rec.Amount.IsNegative() || rec.GrossAmount.IsNegative() {
			return httperr.NewBadRequest("pay grade amounts must be non-negative")
		}
		if rec.Amount.IsZero() && rec.GrossAmount.IsZero() {
			return httperr.NewBadRequest("pay grade needs a base or gross amount")
		}
	case types.KindAllowance:
		if !rec.Amount.GreaterThan(decimal.Zero) {
			return httperr.NewBadRequest("allowance amount must be positive")
		}
	case types.KindTaxRule, types.KindInsuranceBracket:
		if err := bracketOf(rec).Validate(); err != nil {
			return httperr.NewBadRequest(err.Error())
		}
	default:
		return httperr.NewBadRequest("unknown configuration kind: " + string(rec.Kind))
	}
	return nil
}
