package types

import "time"

// Target names recipients by role, by department, or directly by employee id.
type Target struct {
	Roles         []string `json:"roles,omitempty"`
	DepartmentIDs []string `json:"departmentIds,omitempty"`
	EmployeeIDs   []string `json:"employeeIds,omitempty"`
}

func (t Target) Empty() bool {
	return len(t.Roles) == 0 && len(t.DepartmentIDs) == 0 && len(t.EmployeeIDs) == 0
}

type Message struct {
	Type  string `json:"type"`
	Title string `json:"title"`
	Body  string `json:"message"`
}

const (
	TypePayrollRunPublished      = "payroll_run_published"
	TypePerformanceReviewWarning = "performance_review_warning"
	TypeAppraisalDisputeRaised   = "appraisal_dispute_raised"
	TypeAppraisalDisputeResolved = "appraisal_dispute_resolved"
	TypeTerminationApproved      = "termination_approved"
	TypeSigningBonusApproved     = "signing_bonus_approved"
	TypeBroadcast                = "broadcast"
)

type Notification struct {
	ID          string     `json:"id"`
	RecipientID string     `json:"recipientId"`
	Type        string     `json:"type"`
	Title       string     `json:"title"`
	Message     string     `json:"message"`
	ReadAt      *time.Time `json:"readAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}
