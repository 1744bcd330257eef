package types

import "time"

// CategoryGoals ratings are excluded from the minimum-score rule.
const CategoryGoals = "GOALS"

type Criterion struct {
	Key      string `json:"key"`
	Category string `json:"category"`
}

type Template struct {
	ID             string      `json:"id"`
	Name           string      `json:"name"`
	RatingScaleMin int         `json:"ratingScaleMin"`
	RatingScaleMax int         `json:"ratingScaleMax"`
	Criteria       []Criterion `json:"criteria"`
	CreatedAt      time.Time   `json:"createdAt"`
}

func (t Template) Criterion(key string) (Criterion, bool) {
	for _, c := range t.Criteria {
		if c.Key == key {
			return c, true
		}
	}
	return Criterion{}, false
}

type Rating struct {
	CriterionKey string `json:"criterionKey"`
	Category     string `json:"category"`
	Score        int    `json:"score"`
}

type RecordStatus string

const (
	RecordStatusDraft            RecordStatus = "DRAFT"
	RecordStatusManagerSubmitted RecordStatus = "MANAGER_SUBMITTED"
	RecordStatusHRPublished      RecordStatus = "HR_PUBLISHED"
)

type AppraisalRecord struct {
	ID           string       `json:"id"`
	EmployeeID   string       `json:"employeeId"`
	TemplateID   string       `json:"templateId"`
	ManagerID    string       `json:"managerId"`
	Ratings      []Rating     `json:"ratings"`
	MinimumScore bool         `json:"minimumScore"`
	Status       RecordStatus `json:"status"`
	PublishedAt  *time.Time   `json:"publishedAt,omitempty"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
}

type DisputeStatus string

const (
	DisputeStatusOpen     DisputeStatus = "OPEN"
	DisputeStatusAdjusted DisputeStatus = "ADJUSTED"
	DisputeStatusRejected DisputeStatus = "REJECTED"
)

type Dispute struct {
	ID             string        `json:"id"`
	RecordID       string        `json:"recordId"`
	EmployeeID     string        `json:"employeeId"`
	Reason         string        `json:"reason"`
	Status         DisputeStatus `json:"status"`
	ResolutionNote string        `json:"resolutionNote,omitempty"`
	CreatedAt      time.Time     `json:"createdAt"`
	ResolvedAt     *time.Time    `json:"resolvedAt,omitempty"`
}

// MinimumScoreOutcome describes a record after it was published or had its
// ratings adjusted. MinimumCount is the employee's number of published
// minimum-score records including this one.
type MinimumScoreOutcome struct {
	Record       AppraisalRecord
	WasMinimum   bool
	MinimumCount int
	Suspended    bool
}

// RatingAdjustment replaces a published record's ratings when a dispute is
// resolved as ADJUSTED.
type RatingAdjustment struct {
	Ratings      []Rating
	MinimumScore bool
}

type PublishResult struct {
	Record        AppraisalRecord `json:"record"`
	MinimumCount  int             `json:"minimumScoreCount"`
	WarningIssued bool            `json:"warningIssued"`
}

type ResolveResult struct {
	Dispute       Dispute          `json:"dispute"`
	Record        *AppraisalRecord `json:"record,omitempty"`
	WarningIssued bool             `json:"warningIssued"`
}
