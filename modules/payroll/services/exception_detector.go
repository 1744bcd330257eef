package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/cel-go/cel"
	"github.com/jacksonlee411/peopleops/modules/payroll/domain/types"
	"github.com/shopspring/decimal"
)

type DetectionInput struct {
	GrossSalary    decimal.Decimal
	NetSalary      decimal.Decimal
	NetPay         decimal.Decimal
	Deductions     decimal.Decimal
	Bonus          decimal.Decimal
	Benefit        decimal.Decimal
	PreviousNetPay decimal.Decimal
	HasPrevious    bool
	HasPayGrade    bool
	BankStatus     types.BankStatus
	HREvents       []types.HREvent
}

type ExceptionDetector interface {
	Detect(ctx context.Context, in DetectionInput) ([]string, error)
}

type exceptionRule struct {
	name     string
	expr     string
	describe func(in DetectionInput) string
}

func fixed(s string) func(DetectionInput) string {
	return func(DetectionInput) string { return s }
}

var defaultExceptionRules = []exceptionRule{
	{name: "missing_bank", expr: `bank_status != "valid"`, describe: fixed("Missing bank details")},
	{name: "negative_pay", expr: `net_pay < 0.0`, describe: fixed("Negative net pay")},
	{name: "deductions_exceed_gross", expr: `deductions > gross`, describe: fixed("Deduction amount exceeds gross salary")},
	{name: "missing_pay_grade", expr: `!has_pay_grade`, describe: fixed("Missing pay grade")},
	{name: "bonus_exceeds_net", expr: `net_salary > 0.0 && extras > net_salary`, describe: fixed("Bonus and benefit exceeds net salary")},
	{name: "new_hire", expr: `"NEW_HIRE" in events`, describe: fixed("New hire: verify prorated salary and signing bonus")},
	{name: "offboarding", expr: `"RESIGNED" in events || "TERMINATED" in events`, describe: fixed("Offboarding: verify final settlement")},
	{
		name:     "salary_spike",
		expr:     `has_previous && previous_net_pay > 0.0 && net_pay > previous_net_pay * spike_ratio`,
		describe: func(in DetectionInput) string {
			return fmt.Sprintf("Salary spike: net pay %s vs previous %s", in.NetPay.StringFixed(2), in.PreviousNetPay.StringFixed(2))
		},
	},
}

var newExceptionRulesCELEnv = func() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("bank_status", cel.StringType),
		cel.Variable("gross", cel.DoubleType),
		cel.Variable("net_salary", cel.DoubleType),
		cel.Variable("net_pay", cel.DoubleType),
		cel.Variable("deductions", cel.DoubleType),
		cel.Variable("extras", cel.DoubleType),
		cel.Variable("previous_net_pay", cel.DoubleType),
		cel.Variable("has_previous", cel.BoolType),
		cel.Variable("has_pay_grade", cel.BoolType),
		cel.Variable("events", cel.ListType(cel.StringType)),
		cel.Variable("spike_ratio", cel.DoubleType),
	)
}

var exceptionRuleProgramCache sync.Map

type compiledRule struct {
	rule    exceptionRule
	program cel.Program
}

// RuleExceptionDetector evaluates the exception rules in declaration order.
type RuleExceptionDetector struct {
	rules      []compiledRule
	spikeRatio float64
}

func NewRuleExceptionDetector(spikeRatio float64) (*RuleExceptionDetector, error) {
	if spikeRatio <= 1 {
		return nil, fmt.Errorf("payroll: salary spike ratio must be > 1, got %v", spikeRatio)
	}
	d := &RuleExceptionDetector{spikeRatio: spikeRatio}
	for _, r := range defaultExceptionRules {
		p, err := loadOrCompileExceptionRule(r.expr)
		if err != nil {
			return nil, fmt.Errorf("payroll: rule %s: %w", r.name, err)
		}
		d.rules = append(d.rules, compiledRule{rule: r, program: p})
	}
	return d, nil
}

func (d *RuleExceptionDetector) Detect(ctx context.Context, in DetectionInput) ([]string, error) {
	events := make([]string, 0, len(in.HREvents))
	for _, e := range in.HREvents {
		events = append(events, string(e))
	}
	activation := map[string]any{
		"bank_status":      string(in.BankStatus),
		"gross":            in.GrossSalary.InexactFloat64(),
		"net_salary":       in.NetSalary.InexactFloat64(),
		"net_pay":          in.NetPay.InexactFloat64(),
		"deductions":       in.Deductions.InexactFloat64(),
		"extras":           in.Bonus.Add(in.Benefit).InexactFloat64(),
		"previous_net_pay": in.PreviousNetPay.InexactFloat64(),
		"has_previous":     in.HasPrevious,
		"has_pay_grade":    in.HasPayGrade,
		"events":           events,
		"spike_ratio":      d.spikeRatio,
	}

	out := []string{}
	for _, r := range d.rules {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		val, _, err := r.program.Eval(activation)
		if err != nil {
			return nil, fmt.Errorf("rule %s: %w", r.rule.name, err)
		}
		hit, ok := val.Value().(bool)
		if !ok {
			return nil, fmt.Errorf("rule %s: non-bool result", r.rule.name)
		}
		if hit {
			out = append(out, r.rule.describe(in))
		}
	}
	return out, nil
}

func loadOrCompileExceptionRule(expr string) (cel.Program, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, errors.New("expression required")
	}
	if cached, ok := exceptionRuleProgramCache.Load(expr); ok {
		return cached.(cel.Program), nil
	}
	env, err := newExceptionRulesCELEnv()
	if err != nil {
		return nil, err
	}
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, issues.Err()
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, errors.New("expression output type mismatch")
	}
	program, err := env.Program(ast)
	if err != nil {
		return nil, err
	}
	exceptionRuleProgramCache.Store(expr, program)
	return program, nil
}
