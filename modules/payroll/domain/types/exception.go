package types

type ExceptionSeverity string

const (
	SeverityHigh   ExceptionSeverity = "high"
	SeverityMedium ExceptionSeverity = "medium"
	SeverityLow    ExceptionSeverity = "low"
)

type ExceptionType string

const (
	ExceptionMissingBank      ExceptionType = "missing-bank"
	ExceptionNegativePay      ExceptionType = "negative-pay"
	ExceptionSalarySpike      ExceptionType = "salary-spike"
	ExceptionCalculationError ExceptionType = "calculation-error"
)

const ExceptionStatusOpen = "open"

type PayrollException struct {
	ID           string            `json:"id"`
	PayrollRunID string            `json:"payrollRunId"`
	EmployeeID   string            `json:"employeeId"`
	Type         ExceptionType     `json:"type"`
	Severity     ExceptionSeverity `json:"severity"`
	Description  string            `json:"description"`
	Status       string            `json:"status"`
}
