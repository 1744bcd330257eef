package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/jacksonlee411/peopleops/modules/notification/domain/ports"
	"github.com/jacksonlee411/peopleops/modules/notification/domain/types"
)

type FanOut struct {
	Directory ports.RecipientDirectory
}

// Resolve expands a target into concrete employee ids: role holders first,
// then department members, then explicit ids. Duplicates keep their first
// position.
func (f FanOut) Resolve(ctx context.Context, target types.Target) ([]string, error) {
	var out []string
	seen := make(map[string]struct{})
	add := func(ids []string) {
		for _, id := range ids {
			id = strings.TrimSpace(id)
			if id == "" {
				continue
			}
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}

	if roles := normalizeRoles(target.Roles); len(roles) > 0 {
		ids, err := f.Directory.EmployeesWithRoles(ctx, roles)
		if err != nil {
			return nil, fmt.Errorf("notification: resolve roles: %w", err)
		}
		add(ids)
	}
	if len(target.DepartmentIDs) > 0 {
		ids, err := f.Directory.EmployeesInDepartments(ctx, target.DepartmentIDs)
		if err != nil {
			return nil, fmt.Errorf("notification: resolve departments: %w", err)
		}
		add(ids)
	}
	add(target.EmployeeIDs)
	return out, nil
}

func normalizeRoles(in []string) []string {
	out := make([]string, 0, len(in))
	for _, r := range in {
		r = strings.ToLower(strings.TrimSpace(r))
		if r != "" {
			out = append(out, r)
		}
	}
	return out
}
