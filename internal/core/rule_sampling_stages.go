package core

import (
	"context"
	"fmt"

	"github.com/indofiz/qcms-data-structure-sub000/pkg/domain"
)

// SamplingStagesRule enforces the preparation -> reactor -> transfer ->
// analysis ordering on sampling aggregates and keeps the aggregate status
// consistent with its analysis entries.
func SamplingStagesRule() domain.Rule {
	return samplingStagesRule{}
}

type samplingStagesRule struct{}

func (samplingStagesRule) Name() string { return "sampling_stages" }

func (samplingStagesRule) Evaluate(_ context.Context, view domain.RuleView, _ []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, s := range view.ListSamplings() {
		reactorRecords := len(s.ReactorOne) + len(s.ReactorTwo)
		if len(s.Transfers) > 0 && reactorRecords == 0 {
			res.Violations = append(res.Violations, samplingViolation(s.ID,
				fmt.Sprintf("sampling %d has transfer processes but no reactor records", s.ID)))
		}
		if len(s.Analyses) > 0 && len(s.Transfers) == 0 {
			res.Violations = append(res.Violations, samplingViolation(s.ID,
				fmt.Sprintf("sampling %d has analysis entries but no transfer process", s.ID)))
		}
		if want := domain.DerivedSamplingStatus(s.Analyses); s.Status != want {
			res.Violations = append(res.Violations, samplingViolation(s.ID,
				fmt.Sprintf("sampling %d status %s disagrees with derived status %s", s.ID, s.Status, want)))
		}
	}
	return res, nil
}

func samplingViolation(id int64, message string) domain.Violation {
	return domain.Violation{
		Rule:     "sampling_stages",
		Severity: domain.SeverityBlock,
		Message:  message,
		Entity:   domain.EntityDmtSampling,
		EntityID: fmt.Sprintf("%d", id),
	}
}
