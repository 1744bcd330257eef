package types

import (
	"time"

	"github.com/jacksonlee411/peopleops/pkg/payroll/brackets"
	"github.com/shopspring/decimal"
)

type PayGrade struct {
	ID          string
	Name        string
	BaseSalary  decimal.Decimal
	GrossSalary decimal.Decimal
}

type EligibleEmployee struct {
	ID           string
	FirstName    string
	LastName     string
	DepartmentID string
	BankStatus   BankStatus
	PayGrade     *PayGrade
}

type Allowance struct {
	Name   string
	Amount decimal.Decimal
}

// ConfigSnapshot is the approved payroll configuration read once per run.
type ConfigSnapshot struct {
	Allowances        []Allowance
	TaxRules          []brackets.Bracket
	InsuranceBrackets []brackets.Bracket
}

type SalaryBreakdown struct {
	BaseSalary  decimal.Decimal
	Allowances  decimal.Decimal
	Bonus       decimal.Decimal
	Benefit     decimal.Decimal
	GrossSalary decimal.Decimal
	Tax         decimal.Decimal
	Insurance   decimal.Decimal
	Deductions  decimal.Decimal
	NetSalary   decimal.Decimal
	NetPay      decimal.Decimal
}

type DraftRequest struct {
	Period      time.Time
	Entity      string
	EmployeeIDs []string
	CreatedBy   string
}

type DraftStatus string

const (
	DraftStatusCreated     DraftStatus = "CREATED"
	DraftStatusNoEmployees DraftStatus = "NO_EMPLOYEES"
)

type EmployeeOutcome struct {
	EmployeeID string          `json:"employeeId"`
	Name       string          `json:"name"`
	HREvents   []HREvent       `json:"hrEvents"`
	NetPay     decimal.Decimal `json:"netPay"`
	Exceptions []string        `json:"exceptions"`
}

type EmployeeFailure struct {
	EmployeeID string `json:"employeeId"`
	Step       string `json:"step"`
	Error      string `json:"error"`
}

type DraftResult struct {
	Status    DraftStatus       `json:"status"`
	Message   string            `json:"message,omitempty"`
	Run       *PayrollRun       `json:"run,omitempty"`
	Employees []EmployeeOutcome `json:"employees"`
	Failures  []EmployeeFailure `json:"failures"`
	Totals    DraftTotals       `json:"totals"`
}

type DraftTotals struct {
	Employees   int             `json:"employees"`
	Exceptions  int             `json:"exceptions"`
	TotalNetPay decimal.Decimal `json:"totalNetPay"`
}
