package types

import "time"

// Identity is the verified caller attached to a request. EmployeeID is empty
// for actors that are not employees, such as job candidates.
type Identity struct {
	Subject     string `json:"sub"`
	EmployeeID  string `json:"employeeId,omitempty"`
	Role        string `json:"role,omitempty"`
	Email       string `json:"email,omitempty"`
	CandidateID string `json:"candidateId,omitempty"`

	// Roles are the effective roles resolved by the role guard.
	Roles []string `json:"roles,omitempty"`
}

// EffectiveRoles returns the guard-resolved roles, else the token role.
func (i Identity) EffectiveRoles() []string {
	if len(i.Roles) > 0 {
		return i.Roles
	}
	if i.Role == "" {
		return nil
	}
	return []string{i.Role}
}

// HasAnyRole reports whether the identity holds one of roles.
func (i Identity) HasAnyRole(roles ...string) bool {
	for _, have := range i.EffectiveRoles() {
		for _, want := range roles {
			if have == want {
				return true
			}
		}
	}
	return false
}

type RoleAssignment struct {
	EmployeeID string    `json:"employeeId"`
	Roles      []string  `json:"roles"`
	IsActive   bool      `json:"isActive"`
	UpdatedAt  time.Time `json:"updatedAt"`
}
