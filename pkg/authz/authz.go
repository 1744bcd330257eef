package authz

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
)

type Mode string

const (
	ModeEnforce  Mode = "enforce"
	ModeShadow   Mode = "shadow"
	ModeDisabled Mode = "disabled"
)

func ModeFromEnv() (Mode, error) {
	return ParseMode(os.Getenv("AUTHZ_MODE"))
}

func ParseMode(raw string) (Mode, error) {
	raw = strings.TrimSpace(strings.ToLower(raw))
	if raw == "" {
		return ModeEnforce, nil
	}
	switch Mode(raw) {
	case ModeEnforce, ModeShadow:
		return Mode(raw), nil
	case ModeDisabled:
		if os.Getenv("AUTHZ_UNSAFE_ALLOW_DISABLED") != "1" {
			return "", errors.New("authz: AUTHZ_MODE=disabled requires AUTHZ_UNSAFE_ALLOW_DISABLED=1")
		}
		return ModeDisabled, nil
	default:
		return "", errors.New("authz: invalid AUTHZ_MODE (expected enforce|shadow|disabled)")
	}
}

// Access says whether a route needs a role at all. Open is a deliberate state,
// not the absence of configuration.
type Access string

const (
	AccessOpen           Access = "open"
	AccessRoleRestricted Access = "role_restricted"
)

func ParseAccess(raw string) (Access, error) {
	switch Access(strings.TrimSpace(strings.ToLower(raw))) {
	case AccessOpen:
		return AccessOpen, nil
	case AccessRoleRestricted:
		return AccessRoleRestricted, nil
	default:
		return "", fmt.Errorf("authz: invalid access %q (expected open|role_restricted)", raw)
	}
}

type Requirement struct {
	Object string
	Action string
	Access Access
	Roles  []string
}

func (r Requirement) Validate() error {
	switch r.Access {
	case AccessOpen:
		if len(r.Roles) > 0 {
			return fmt.Errorf("authz: open requirement %s:%s must not declare roles", r.Object, r.Action)
		}
		return nil
	case AccessRoleRestricted:
		if strings.TrimSpace(r.Object) == "" || strings.TrimSpace(r.Action) == "" {
			return errors.New("authz: role_restricted requirement needs object and action")
		}
		if len(r.Roles) == 0 {
			return fmt.Errorf("authz: role_restricted requirement %s:%s declares no roles", r.Object, r.Action)
		}
		for _, role := range r.Roles {
			if !IsKnownRole(role) {
				return fmt.Errorf("authz: unknown role %q on %s:%s", role, r.Object, r.Action)
			}
		}
		return nil
	default:
		return fmt.Errorf("authz: invalid access %q", r.Access)
	}
}

const modelText = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = r.sub == p.sub && r.obj == p.obj && r.act == p.act
`

type Authorizer struct {
	enforcer *casbin.Enforcer
	mode     Mode
}

// NewAuthorizer builds an in-memory policy with one line per declared role
// of every role_restricted requirement.
func NewAuthorizer(reqs []Requirement, mode Mode) (*Authorizer, error) {
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, err
	}
	enforcer, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, err
	}

	var rules [][]string
	seen := make(map[string]struct{})
	declared := make(map[string]string)
	for _, req := range reqs {
		if err := req.Validate(); err != nil {
			return nil, err
		}
		if req.Access != AccessRoleRestricted {
			continue
		}
		// Rows sharing object:action share one policy; their role sets must match.
		key := req.Object + ":" + req.Action
		set := roleSetKey(req.Roles)
		if prev, ok := declared[key]; ok && prev != set {
			return nil, fmt.Errorf("authz: %s declared with roles [%s] and [%s]", key, prev, set)
		}
		declared[key] = set
		for _, role := range req.Roles {
			rule := []string{SubjectFromRoleSlug(role), req.Object, req.Action}
			ruleKey := strings.Join(rule, "|")
			if _, ok := seen[ruleKey]; ok {
				continue
			}
			seen[ruleKey] = struct{}{}
			rules = append(rules, rule)
		}
	}
	if len(rules) > 0 {
		if _, err := enforcer.AddPolicies(rules); err != nil {
			return nil, err
		}
	}
	return &Authorizer{enforcer: enforcer, mode: mode}, nil
}

func roleSetKey(roles []string) string {
	out := make([]string, 0, len(roles))
	for _, r := range roles {
		out = append(out, strings.TrimSpace(strings.ToLower(r)))
	}
	slices.Sort(out)
	return strings.Join(slices.Compact(out), ",")
}

func SubjectFromRoleSlug(roleSlug string) string {
	roleSlug = strings.TrimSpace(strings.ToLower(roleSlug))
	if roleSlug == "" {
		roleSlug = RoleAnonymous
	}
	return "role:" + roleSlug
}

// Authorize allows the call when any of roles holds object:action.
func (a *Authorizer) Authorize(roles []string, object string, action string) (allowed bool, enforced bool, err error) {
	switch a.mode {
	case ModeDisabled:
		return true, false, nil
	case ModeShadow:
		ok, err := a.anyAllowed(roles, object, action)
		if err != nil {
			return false, false, err
		}
		return ok, false, nil
	case ModeEnforce:
		ok, err := a.anyAllowed(roles, object, action)
		if err != nil {
			return false, true, err
		}
		return ok, true, nil
	default:
		return false, false, errors.New("authz: unknown mode")
	}
}

func (a *Authorizer) anyAllowed(roles []string, object string, action string) (bool, error) {
	if len(roles) == 0 {
		roles = []string{RoleAnonymous}
	}
	for _, role := range roles {
		ok, err := a.enforcer.Enforce(SubjectFromRoleSlug(role), object, action)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}
