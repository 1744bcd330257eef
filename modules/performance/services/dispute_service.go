package services

import (
	"context"
	"strings"

	notifports "github.com/jacksonlee411/peopleops/modules/notification/domain/ports"
	notiftypes "github.com/jacksonlee411/peopleops/modules/notification/domain/types"
	"github.com/jacksonlee411/peopleops/modules/performance/domain/ports"
	"github.com/jacksonlee411/peopleops/modules/performance/domain/types"
	"github.com/jacksonlee411/peopleops/pkg/httperr"
	"github.com/jacksonlee411/peopleops/pkg/objectid"
)

const roleHRManager = "hr-manager"

type DisputeService struct {
	Appraisals *AppraisalService
	Disputes   ports.DisputeStore
	Sink       notifports.NotificationSink
}

// Raise opens a dispute on a published record. Only the appraised employee
// may raise it, and a record carries at most one open dispute.
func (s *DisputeService) Raise(ctx context.Context, recordID string, employeeID string, reason string) (types.Dispute, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return types.Dispute{}, httperr.NewBadRequest("reason is required")
	}
	rec, err := s.Appraisals.GetRecord(ctx, recordID)
	if err != nil {
		return types.Dispute{}, err
	}
	if rec.Status != types.RecordStatusHRPublished {
		return types.Dispute{}, httperr.NewForbidden("only HR_PUBLISHED records can be disputed")
	}
	if rec.EmployeeID != employeeID {
		return types.Dispute{}, httperr.NewForbidden("only the appraised employee can dispute this record")
	}

	d := types.Dispute{
		ID:         s.Appraisals.newID(),
		RecordID:   rec.ID,
		EmployeeID: rec.EmployeeID,
		Reason:     reason,
		Status:     types.DisputeStatusOpen,
		CreatedAt:  s.Appraisals.now(),
	}
	if err := s.Disputes.InsertDispute(ctx, d); err != nil {
		return types.Dispute{}, err
	}

	s.notify(ctx, notiftypes.Target{Roles: []string{roleHRManager}}, notiftypes.Message{
		Type:  notiftypes.TypeAppraisalDisputeRaised,
		Title: "Appraisal dispute raised",
		Body:  "An employee disputed appraisal record " + rec.ID + ": " + reason,
	})
	return d, nil
}

func (s *DisputeService) List(ctx context.Context, status types.DisputeStatus) ([]types.Dispute, error) {
	switch status {
	case "", types.DisputeStatusOpen, types.DisputeStatusAdjusted, types.DisputeStatusRejected:
	default:
		return nil, httperr.NewBadRequest("invalid status: " + string(status))
	}
	out, err := s.Disputes.ListDisputes(ctx, status)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []types.Dispute{}
	}
	return out, nil
}

// Resolve closes an open dispute. ADJUSTED replaces the record's ratings and
// re-runs the minimum-score warning rule against the new ratings.
func (s *DisputeService) Resolve(ctx context.Context, disputeID string, decision types.DisputeStatus, ratings []types.Rating, note string) (types.ResolveResult, error) {
	if err := objectid.Require("disputeId", disputeID); err != nil {
		return types.ResolveResult{}, err
	}
	if decision != types.DisputeStatusAdjusted && decision != types.DisputeStatusRejected {
		return types.ResolveResult{}, httperr.NewBadRequest("decision must be ADJUSTED or REJECTED")
	}
	d, err := s.Disputes.GetDispute(ctx, disputeID)
	if err != nil {
		return types.ResolveResult{}, err
	}
	if d.Status != types.DisputeStatusOpen {
		return types.ResolveResult{}, httperr.NewConflict("dispute is already " + string(d.Status))
	}

	var adj *types.RatingAdjustment
	if decision == types.DisputeStatusAdjusted {
		rec, err := s.Appraisals.GetRecord(ctx, d.RecordID)
		if err != nil {
			return types.ResolveResult{}, err
		}
		t, err := s.Appraisals.Templates.GetTemplate(ctx, rec.TemplateID)
		if err != nil {
			return types.ResolveResult{}, err
		}
		checked, err := checkRatings(t, ratings)
		if err != nil {
			return types.ResolveResult{}, err
		}
		adj = &types.RatingAdjustment{Ratings: checked, MinimumScore: IsMinimumScore(t, checked)}
	}

	threshold := s.Appraisals.threshold()
	resolved, out, err := s.Disputes.Resolve(ctx, d.ID, decision, strings.TrimSpace(note), s.Appraisals.now(), adj, func(o types.MinimumScoreOutcome) bool {
		return crossesThreshold(o, threshold)
	})
	if err != nil {
		return types.ResolveResult{}, err
	}

	res := types.ResolveResult{Dispute: resolved}
	if out != nil {
		rec := out.Record
		res.Record = &rec
		if out.Suspended {
			s.Appraisals.warn(ctx, *out)
			res.WarningIssued = true
		}
	}

	s.notify(ctx, notiftypes.Target{EmployeeIDs: []string{d.EmployeeID}}, notiftypes.Message{
		Type:  notiftypes.TypeAppraisalDisputeResolved,
		Title: "Appraisal dispute " + strings.ToLower(string(decision)),
		Body:  resolutionBody(decision, resolved.ResolutionNote),
	})
	return res, nil
}

func resolutionBody(decision types.DisputeStatus, note string) string {
	msg := "Your appraisal dispute was rejected."
	if decision == types.DisputeStatusAdjusted {
		msg = "Your appraisal dispute was accepted and the ratings were adjusted."
	}
	if note != "" {
		msg += " Note: " + note
	}
	return msg
}

func (s *DisputeService) notify(ctx context.Context, target notiftypes.Target, msg notiftypes.Message) {
	if s.Sink == nil {
		return
	}
	s.Sink.Notify(ctx, target, msg)
}
