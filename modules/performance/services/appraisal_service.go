package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	notifports "github.com/jacksonlee411/peopleops/modules/notification/domain/ports"
	notiftypes "github.com/jacksonlee411/peopleops/modules/notification/domain/types"
	"github.com/jacksonlee411/peopleops/modules/performance/domain/ports"
	"github.com/jacksonlee411/peopleops/modules/performance/domain/types"
	"github.com/jacksonlee411/peopleops/pkg/httperr"
	"github.com/jacksonlee411/peopleops/pkg/objectid"
)

type AppraisalService struct {
	Templates ports.TemplateStore
	Records   ports.RecordStore
	Sink      notifports.NotificationSink

	// WarningThreshold is the published minimum-score count that triggers
	// the warning; zero means DefaultWarningThreshold.
	WarningThreshold int
	NewID            func() string
	NowUTC           func() time.Time
}

func (s *AppraisalService) newID() string {
	if s.NewID != nil {
		return s.NewID()
	}
	return objectid.New()
}

func (s *AppraisalService) now() time.Time {
	if s.NowUTC != nil {
		return s.NowUTC()
	}
	return time.Now().UTC()
}

func (s *AppraisalService) threshold() int {
	if s.WarningThreshold > 0 {
		return s.WarningThreshold
	}
	return DefaultWarningThreshold
}

func (s *AppraisalService) CreateTemplate(ctx context.Context, name string, scaleMin int, scaleMax int, criteria []types.Criterion) (types.Template, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return types.Template{}, httperr.NewBadRequest("name is required")
	}
	if scaleMin >= scaleMax {
		return types.Template{}, httperr.NewBadRequest("ratingScaleMin must be below ratingScaleMax")
	}
	if len(criteria) == 0 {
		return types.Template{}, httperr.NewBadRequest("criteria are required")
	}
	seen := make(map[string]struct{}, len(criteria))
	norm := make([]types.Criterion, 0, len(criteria))
	for _, c := range criteria {
		key := strings.TrimSpace(c.Key)
		cat := strings.ToUpper(strings.TrimSpace(c.Category))
		if key == "" || cat == "" {
			return types.Template{}, httperr.NewBadRequest("criterion key and category are required")
		}
		if _, dup := seen[key]; dup {
			return types.Template{}, httperr.NewBadRequest("duplicate criterion key: " + key)
		}
		seen[key] = struct{}{}
		norm = append(norm, types.Criterion{Key: key, Category: cat})
	}

	t := types.Template{
		ID:             s.newID(),
		Name:           name,
		RatingScaleMin: scaleMin,
		RatingScaleMax: scaleMax,
		Criteria:       norm,
		CreatedAt:      s.now(),
	}
	if err := s.Templates.InsertTemplate(ctx, t); err != nil {
		return types.Template{}, err
	}
	return t, nil
}

func (s *AppraisalService) GetTemplate(ctx context.Context, id string) (types.Template, error) {
	if err := objectid.Require("templateId", id); err != nil {
		return types.Template{}, err
	}
	return s.Templates.GetTemplate(ctx, id)
}

func (s *AppraisalService) ListTemplates(ctx context.Context) ([]types.Template, error) {
	out, err := s.Templates.ListTemplates(ctx)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []types.Template{}
	}
	return out, nil
}

// checkRatings validates ratings against the template and copies each
// criterion's category onto its rating.
func checkRatings(t types.Template, ratings []types.Rating) ([]types.Rating, error) {
	if len(ratings) == 0 {
		return nil, httperr.NewBadRequest("ratings are required")
	}
	seen := make(map[string]struct{}, len(ratings))
	out := make([]types.Rating, 0, len(ratings))
	for _, r := range ratings {
		c, ok := t.Criterion(strings.TrimSpace(r.CriterionKey))
		if !ok {
			return nil, httperr.NewBadRequest("unknown criterion: " + r.CriterionKey)
		}
		if _, dup := seen[c.Key]; dup {
			return nil, httperr.NewBadRequest("duplicate rating for criterion: " + c.Key)
		}
		seen[c.Key] = struct{}{}
		if r.Score < t.RatingScaleMin || r.Score > t.RatingScaleMax {
			return nil, httperr.NewBadRequest(fmt.Sprintf("score for %s must be within %d..%d", c.Key, t.RatingScaleMin, t.RatingScaleMax))
		}
		out = append(out, types.Rating{CriterionKey: c.Key, Category: c.Category, Score: r.Score})
	}
	return out, nil
}

func (s *AppraisalService) CreateRecord(ctx context.Context, employeeID string, templateID string, managerID string, ratings []types.Rating) (types.AppraisalRecord, error) {
	if err := objectid.Require("employeeId", employeeID); err != nil {
		return types.AppraisalRecord{}, err
	}
	t, err := s.GetTemplate(ctx, templateID)
	if err != nil {
		return types.AppraisalRecord{}, err
	}
	checked, err := checkRatings(t, ratings)
	if err != nil {
		return types.AppraisalRecord{}, err
	}

	now := s.now()
	rec := types.AppraisalRecord{
		ID:           s.newID(),
		EmployeeID:   employeeID,
		TemplateID:   t.ID,
		ManagerID:    managerID,
		Ratings:      checked,
		MinimumScore: IsMinimumScore(t, checked),
		Status:       types.RecordStatusDraft,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.Records.InsertRecord(ctx, rec); err != nil {
		return types.AppraisalRecord{}, err
	}
	return rec, nil
}

func (s *AppraisalService) GetRecord(ctx context.Context, id string) (types.AppraisalRecord, error) {
	if err := objectid.Require("recordId", id); err != nil {
		return types.AppraisalRecord{}, err
	}
	return s.Records.GetRecord(ctx, id)
}

func (s *AppraisalService) ListRecords(ctx context.Context, employeeID string) ([]types.AppraisalRecord, error) {
	if employeeID != "" {
		if err := objectid.Require("employeeId", employeeID); err != nil {
			return nil, err
		}
	}
	out, err := s.Records.ListRecords(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []types.AppraisalRecord{}
	}
	return out, nil
}

func (s *AppraisalService) Submit(ctx context.Context, id string) (types.AppraisalRecord, error) {
	if err := objectid.Require("recordId", id); err != nil {
		return types.AppraisalRecord{}, err
	}
	return s.Records.Transition(ctx, id, types.RecordStatusDraft, types.RecordStatusManagerSubmitted)
}

// Publish releases a submitted record. The record that brings the employee
// to exactly the warning threshold of published minimum-score records
// suspends the employee and sends one warning notification.
func (s *AppraisalService) Publish(ctx context.Context, id string) (types.PublishResult, error) {
	rec, err := s.GetRecord(ctx, id)
	if err != nil {
		return types.PublishResult{}, err
	}
	if rec.Status != types.RecordStatusManagerSubmitted {
		return types.PublishResult{}, httperr.NewForbidden("appraisal record is " + string(rec.Status) + "; only MANAGER_SUBMITTED records can be published")
	}
	t, err := s.Templates.GetTemplate(ctx, rec.TemplateID)
	if err != nil {
		return types.PublishResult{}, err
	}

	threshold := s.threshold()
	out, err := s.Records.Publish(ctx, rec.ID, IsMinimumScore(t, rec.Ratings), s.now(), func(o types.MinimumScoreOutcome) bool {
		return crossesThreshold(o, threshold)
	})
	if err != nil {
		return types.PublishResult{}, err
	}

	res := types.PublishResult{Record: out.Record, MinimumCount: out.MinimumCount}
	if out.Suspended {
		s.warn(ctx, out)
		res.WarningIssued = true
	}
	return res, nil
}

func (s *AppraisalService) warn(ctx context.Context, out types.MinimumScoreOutcome) {
	if s.Sink == nil {
		return
	}
	s.Sink.Notify(ctx, notiftypes.Target{EmployeeIDs: []string{out.Record.EmployeeID}}, notiftypes.Message{
		Type:  notiftypes.TypePerformanceReviewWarning,
		Title: "Performance Review Warning",
		Body:  fmt.Sprintf("You have received %d appraisals at the minimum score. Your employment status is now SUSPENDED pending HR review.", out.MinimumCount),
	})
}
