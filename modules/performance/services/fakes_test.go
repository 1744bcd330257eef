package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	notiftypes "github.com/jacksonlee411/peopleops/modules/notification/domain/types"
	"github.com/jacksonlee411/peopleops/modules/performance/domain/ports"
	"github.com/jacksonlee411/peopleops/modules/performance/domain/types"
	"github.com/jacksonlee411/peopleops/pkg/httperr"
)

type memPerformance struct {
	templates map[string]types.Template
	records   map[string]types.AppraisalRecord
	disputes  map[string]types.Dispute
	suspended map[string]int
}

func newMemPerformance() *memPerformance {
	return &memPerformance{
		templates: map[string]types.Template{},
		records:   map[string]types.AppraisalRecord{},
		disputes:  map[string]types.Dispute{},
		suspended: map[string]int{},
	}
}

func (m *memPerformance) InsertTemplate(_ context.Context, t types.Template) error {
	m.templates[t.ID] = t
	return nil
}

func (m *memPerformance) GetTemplate(_ context.Context, id string) (types.Template, error) {
	t, ok := m.templates[id]
	if !ok {
		return types.Template{}, httperr.NewNotFound("appraisal template not found")
	}
	return t, nil
}

func (m *memPerformance) ListTemplates(context.Context) ([]types.Template, error) {
	var out []types.Template
	for _, t := range m.templates {
		out = append(out, t)
	}
	return out, nil
}

func (m *memPerformance) InsertRecord(_ context.Context, rec types.AppraisalRecord) error {
	m.records[rec.ID] = rec
	return nil
}

func (m *memPerformance) GetRecord(_ context.Context, id string) (types.AppraisalRecord, error) {
	rec, ok := m.records[id]
	if !ok {
		return types.AppraisalRecord{}, httperr.NewNotFound("appraisal record not found")
	}
	return rec, nil
}

func (m *memPerformance) ListRecords(_ context.Context, employeeID string) ([]types.AppraisalRecord, error) {
	var out []types.AppraisalRecord
	for _, rec := range m.records {
		if employeeID == "" || rec.EmployeeID == employeeID {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memPerformance) Transition(_ context.Context, id string, from types.RecordStatus, to types.RecordStatus) (types.AppraisalRecord, error) {
	rec, ok := m.records[id]
	if !ok {
		return types.AppraisalRecord{}, httperr.NewNotFound("appraisal record not found")
	}
	if rec.Status != from {
		return types.AppraisalRecord{}, httperr.NewForbidden("wrong status")
	}
	rec.Status = to
	m.records[id] = rec
	return rec, nil
}

func (m *memPerformance) settle(rec types.AppraisalRecord, wasMinimum bool, decide ports.SuspendDecision) types.MinimumScoreOutcome {
	out := types.MinimumScoreOutcome{Record: rec, WasMinimum: wasMinimum}
	for _, r := range m.records {
		if r.EmployeeID == rec.EmployeeID && r.Status == types.RecordStatusHRPublished && r.MinimumScore {
			out.MinimumCount++
		}
	}
	if decide != nil && decide(out) {
		m.suspended[rec.EmployeeID]++
		out.Suspended = true
	}
	return out
}

func (m *memPerformance) Publish(_ context.Context, id string, minimumScore bool, at time.Time, decide ports.SuspendDecision) (types.MinimumScoreOutcome, error) {
	rec, ok := m.records[id]
	if !ok {
		return types.MinimumScoreOutcome{}, httperr.NewNotFound("appraisal record not found")
	}
	if rec.Status != types.RecordStatusManagerSubmitted {
		return types.MinimumScoreOutcome{}, httperr.NewForbidden("wrong status")
	}
	rec.Status = types.RecordStatusHRPublished
	rec.MinimumScore = minimumScore
	rec.PublishedAt = &at
	m.records[id] = rec
	return m.settle(rec, false, decide), nil
}

func (m *memPerformance) InsertDispute(_ context.Context, d types.Dispute) error {
	for _, cur := range m.disputes {
		if cur.RecordID == d.RecordID && cur.Status == types.DisputeStatusOpen {
			return httperr.NewConflict("appraisal record already has an open dispute")
		}
	}
	m.disputes[d.ID] = d
	return nil
}

func (m *memPerformance) GetDispute(_ context.Context, id string) (types.Dispute, error) {
	d, ok := m.disputes[id]
	if !ok {
		return types.Dispute{}, httperr.NewNotFound("dispute not found")
	}
	return d, nil
}

func (m *memPerformance) ListDisputes(_ context.Context, status types.DisputeStatus) ([]types.Dispute, error) {
	var out []types.Dispute
	for _, d := range m.disputes {
		if status == "" || d.Status == status {
			out = append(out, d)
		}
	}
	return out, nil
}

func (m *memPerformance) Resolve(_ context.Context, id string, to types.DisputeStatus, note string, at time.Time, adj *types.RatingAdjustment, decide ports.SuspendDecision) (types.Dispute, *types.MinimumScoreOutcome, error) {
	d, ok := m.disputes[id]
	if !ok {
		return types.Dispute{}, nil, httperr.NewNotFound("dispute not found")
	}
	if d.Status != types.DisputeStatusOpen {
		return types.Dispute{}, nil, httperr.NewConflict("dispute is already " + string(d.Status))
	}
	d.Status = to
	d.ResolutionNote = note
	d.ResolvedAt = &at
	m.disputes[id] = d

	if adj == nil {
		return d, nil, nil
	}
	rec := m.records[d.RecordID]
	was := rec.MinimumScore
	rec.Ratings = adj.Ratings
	rec.MinimumScore = adj.MinimumScore
	m.records[rec.ID] = rec
	out := m.settle(rec, was, decide)
	return d, &out, nil
}

type sentNotification struct {
	target notiftypes.Target
	msg    notiftypes.Message
}

type recordingSink struct {
	sent []sentNotification
}

func (s *recordingSink) Notify(_ context.Context, target notiftypes.Target, msg notiftypes.Message) {
	s.sent = append(s.sent, sentNotification{target: target, msg: msg})
}

func (s *recordingSink) ofType(typ string) []sentNotification {
	var out []sentNotification
	for _, n := range s.sent {
		if n.msg.Type == typ {
			out = append(out, n)
		}
	}
	return out
}

func idSeq() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("65f1c0a2b3d4e5f6%08d", n)
	}
}
