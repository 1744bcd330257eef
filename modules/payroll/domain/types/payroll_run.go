package types

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type RunStatus string

const (
	RunStatusDraft     RunStatus = "DRAFT"
	RunStatusPublished RunStatus = "PUBLISHED"
)

type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "PENDING"
	PaymentStatusPaid    PaymentStatus = "PAID"
)

type BankStatus string

const (
	BankStatusValid   BankStatus = "valid"
	BankStatusMissing BankStatus = "missing"
	BankStatusInvalid BankStatus = "invalid"
)

// PayrollRun carries the aggregate counters for one generation request.
// Detail rows reference it by RunID; the run holds no collection of them.
type PayrollRun struct {
	RunID         string          `json:"runId"`
	Period        time.Time       `json:"payrollPeriod"`
	Entity        string          `json:"entity"`
	Status        RunStatus       `json:"status"`
	Employees     int             `json:"employees"`
	Exceptions    int             `json:"exceptions"`
	TotalNetPay   decimal.Decimal `json:"totalNetPay"`
	PaymentStatus PaymentStatus   `json:"paymentStatus"`
	CreatedBy     string          `json:"createdBy,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
}

type EmployeePayrollDetail struct {
	ID          string             `json:"id"`
	RunID       string             `json:"payrollRunId"`
	EmployeeID  string             `json:"employeeId"`
	BaseSalary  decimal.Decimal    `json:"baseSalary"`
	Allowances  decimal.Decimal    `json:"allowances"`
	Deductions  decimal.Decimal    `json:"deductions"`
	Tax         decimal.Decimal    `json:"tax"`
	Insurance   decimal.Decimal    `json:"insurance"`
	Bonus       decimal.Decimal    `json:"bonus"`
	Benefit     decimal.Decimal    `json:"benefit"`
	GrossSalary decimal.Decimal    `json:"grossSalary"`
	NetSalary   decimal.Decimal    `json:"netSalary"`
	NetPay      decimal.Decimal    `json:"netPay"`
	BankStatus  BankStatus         `json:"bankStatus"`
	HREvents    []HREvent          `json:"hrEvents"`
	Exceptions  []PayrollException `json:"exceptionRecords"`
}

// ExceptionsText joins the exception descriptions the way clients that read
// the flat field expect.
func (d EmployeePayrollDetail) ExceptionsText() string {
	parts := make([]string, 0, len(d.Exceptions))
	for _, e := range d.Exceptions {
		parts = append(parts, e.Description)
	}
	return strings.Join(parts, "; ")
}

func (d EmployeePayrollDetail) MarshalJSON() ([]byte, error) {
	type alias EmployeePayrollDetail
	return json.Marshal(struct {
		alias
		ExceptionsText string `json:"exceptions"`
	}{alias: alias(d), ExceptionsText: d.ExceptionsText()})
}
