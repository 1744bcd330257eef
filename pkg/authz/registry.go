package authz

import (
	"slices"
	"strings"
)

const (
	RoleAnonymous = "anonymous"

	RoleDepartmentEmployee = "department-employee"
	RoleDepartmentHead     = "department-head"
	RoleHREmployee         = "hr-employee"
	RoleHRManager          = "hr-manager"
	RoleHRAdmin            = "hr-admin"
	RolePayrollSpecialist  = "payroll-specialist"
	RolePayrollManager     = "payroll-manager"
	RoleFinanceStaff       = "finance-staff"
	RoleRecruiter          = "recruiter"
	RoleJobCandidate       = "job-candidate"
	RoleSystemAdmin        = "system-admin"
)

var knownRoles = map[string]struct{}{
	RoleDepartmentEmployee: {},
	RoleDepartmentHead:     {},
	RoleHREmployee:         {},
	RoleHRManager:          {},
	RoleHRAdmin:            {},
	RolePayrollSpecialist:  {},
	RolePayrollManager:     {},
	RoleFinanceStaff:       {},
	RoleRecruiter:          {},
	RoleJobCandidate:       {},
	RoleSystemAdmin:        {},
}

// KnownRoles lists every assignable role, sorted.
func KnownRoles() []string {
	out := make([]string, 0, len(knownRoles))
	for r := range knownRoles {
		out = append(out, r)
	}
	slices.Sort(out)
	return out
}

func IsKnownRole(role string) bool {
	_, ok := knownRoles[strings.TrimSpace(strings.ToLower(role))]
	return ok
}

const (
	ActionRead    = "read"
	ActionWrite   = "write"
	ActionApprove = "approve"
	ActionPublish = "publish"
	ActionSubmit  = "submit"
	ActionRun     = "run"
)

const (
	ObjectPayrollRuns          = "payroll.runs"
	ObjectPayrollExceptions    = "payroll.exceptions"
	ObjectPayrollConfig        = "payroll.config"
	ObjectPerformanceTemplates = "performance.templates"
	ObjectPerformanceRecords   = "performance.records"
	ObjectPerformanceDisputes  = "performance.disputes"
	ObjectRecruitmentBonuses   = "recruitment.signing-bonuses"
	ObjectOffboarding          = "offboarding.terminations"
	ObjectNotifications        = "notifications"
	ObjectIAMRoleAssignments   = "iam.role-assignments"
	ObjectOpsBackups           = "ops.backups"
)
