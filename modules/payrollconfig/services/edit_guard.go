package services

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/jacksonlee411/peopleops/modules/payrollconfig/domain/ports"
	"github.com/jacksonlee411/peopleops/modules/payrollconfig/domain/types"
	"github.com/open-policy-agent/opa/v1/rego"
)

//go:embed edit_guard.rego
var editGuardPolicy string

const editGuardQuery = "data.peopleops.payrollconfig.allow"

type RegoEditGuard struct {
	query rego.PreparedEvalQuery
}

var _ ports.EditGuard = (*RegoEditGuard)(nil)

// NewRegoEditGuard compiles the embedded policy once; evaluation reuses the
// prepared query.
func NewRegoEditGuard(ctx context.Context) (*RegoEditGuard, error) {
	pq, err := rego.New(
		rego.Query(editGuardQuery),
		rego.Module("edit_guard.rego", editGuardPolicy),
	).PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("payrollconfig: prepare edit guard: %w", err)
	}
	return &RegoEditGuard{query: pq}, nil
}

func (g *RegoEditGuard) Allow(ctx context.Context, action string, rec types.Record, roles []string) (bool, error) {
	roleValues := make([]any, 0, len(roles))
	for _, r := range roles {
		roleValues = append(roleValues, r)
	}
	input := map[string]any{
		"action": action,
		"roles":  roleValues,
		"record": map[string]any{
			"kind":   string(rec.Kind),
			"status": string(rec.Status),
		},
	}
	rs, err := g.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return false, fmt.Errorf("payrollconfig: evaluate edit guard: %w", err)
	}
	return rs.Allowed(), nil
}
