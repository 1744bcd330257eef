package services

import (
	"fmt"

	"github.com/jacksonlee411/peopleops/modules/payroll/domain/types"
	"github.com/jacksonlee411/peopleops/pkg/payroll/brackets"
	"github.com/shopspring/decimal"
)

type SalaryCalculator struct{}

// Calculate builds the breakdown for one employee and period. Base is the
// pay grade's base salary, falling back to its gross; an employee without a
// pay grade gets zero base.
func (SalaryCalculator) Calculate(emp types.EligibleEmployee, inf types.Inference, cfg types.ConfigSnapshot) (types.SalaryBreakdown, error) {
	base := decimal.Zero
	if g := emp.PayGrade; g != nil {
		if g.BaseSalary.IsNegative() || g.GrossSalary.IsNegative() {
			return types.SalaryBreakdown{}, fmt.Errorf("pay grade %s has negative amounts", g.ID)
		}
		base = g.BaseSalary
		if base.IsZero() {
			base = g.GrossSalary
		}
	}

	allowances := decimal.Zero
	for _, a := range cfg.Allowances {
		allowances = allowances.Add(a.Amount)
	}

	bonus := decimal.Zero
	if types.HasEvent(inf.Events, types.HREventNewHire) {
		bonus = inf.SigningBonus
	}
	benefit := decimal.Zero
	if types.HasEvent(inf.Events, types.HREventResigned) || types.HasEvent(inf.Events, types.HREventTerminated) {
		benefit = inf.TerminationBenefit
	}

	gross := brackets.Round2(base.Add(allowances).Add(bonus).Add(benefit))
	tax := brackets.Apply(cfg.TaxRules, gross)
	insurance := brackets.Apply(cfg.InsuranceBrackets, gross)
	deductions := tax.Add(insurance)
	net := gross.Sub(deductions)

	return types.SalaryBreakdown{
		BaseSalary:  brackets.Round2(base),
		Allowances:  brackets.Round2(allowances),
		Bonus:       brackets.Round2(bonus),
		Benefit:     brackets.Round2(benefit),
		GrossSalary: gross,
		Tax:         tax,
		Insurance:   insurance,
		Deductions:  deductions,
		NetSalary:   net,
		NetPay:      net,
	}, nil
}
