package core

import (
	"context"
	"strings"

	"github.com/indofiz/qcms-data-structure-sub000/internal/infra/persistence/memory"
	"github.com/indofiz/qcms-data-structure-sub000/pkg/domain"
)

// CreatePreparationSampling opens a new sampling aggregate in the waiting
// state. Reactor, transfer, and analysis records are attached afterwards in
// stage order.
func (s *Service) CreatePreparationSampling(ctx context.Context, sampling domain.DmtSampling) (domain.DmtSampling, domain.Result, error) {
	if strings.TrimSpace(sampling.LineNumber) == "" {
		return domain.DmtSampling{}, domain.Result{}, domain.NewError(domain.ErrValidation, domain.EntityDmtSampling, "", "line number is required")
	}
	if strings.TrimSpace(sampling.LotNumber) == "" {
		return domain.DmtSampling{}, domain.Result{}, domain.NewError(domain.ErrValidation, domain.EntityDmtSampling, "", "lot number is required")
	}
	user, err := s.actor(ctx)
	if err != nil {
		return domain.DmtSampling{}, domain.Result{}, err
	}
	sampling.Status = domain.SamplingWaiting
	sampling.ReactorOne = nil
	sampling.ReactorTwo = nil
	sampling.Transfers = nil
	sampling.Analyses = nil
	sampling.CreatedBy = user.ID
	if sampling.PreparationBy == "" {
		sampling.PreparationBy = user.Name
	}

	var created domain.DmtSampling
	res, err := s.run(ctx, "create_preparation_sampling", func(tx domain.Transaction) error {
		var err error
		created, err = tx.CreateSampling(sampling)
		return err
	})
	return created, res, err
}

// AddReactorRecord appends a production reading to one of the reactors.
func (s *Service) AddReactorRecord(ctx context.Context, samplingID int64, expected int64, record domain.ReactorRecord) (domain.DmtSampling, domain.Result, error) {
	if record.Reactor != domain.ReactorOne && record.Reactor != domain.ReactorTwo {
		return domain.DmtSampling{}, domain.Result{}, domain.NewError(domain.ErrValidation, domain.EntityDmtSampling, formatSamplingKey(samplingID), "unknown reactor %s", record.Reactor)
	}
	if record.ID == "" {
		record.ID = memory.NewID()
	}
	if record.RecordedAt.IsZero() {
		record.RecordedAt = s.clock.Now()
	}
	var updated domain.DmtSampling
	res, err := s.run(ctx, "add_reactor_record", func(tx domain.Transaction) error {
		var err error
		updated, err = tx.UpdateSampling(samplingID, expected, func(smp *domain.DmtSampling) error {
			switch record.Reactor {
			case domain.ReactorOne:
				smp.ReactorOne = append(smp.ReactorOne, record)
			case domain.ReactorTwo:
				smp.ReactorTwo = append(smp.ReactorTwo, record)
			}
			return nil
		})
		if domain.IsKind(err, domain.ErrNotFound) {
			return domain.NewError(domain.ErrPreparationMissing, domain.EntityDmtSampling, formatSamplingKey(samplingID), "preparation record not found")
		}
		return err
	})
	return updated, res, err
}

// AddTransferProcess appends a transfer once at least one reactor record
// exists.
func (s *Service) AddTransferProcess(ctx context.Context, samplingID int64, expected int64, transfer domain.TransferProcess) (domain.DmtSampling, domain.Result, error) {
	if transfer.ID == "" {
		transfer.ID = memory.NewID()
	}
	if transfer.StartedAt.IsZero() {
		transfer.StartedAt = s.clock.Now()
	}
	var updated domain.DmtSampling
	res, err := s.run(ctx, "add_transfer_process", func(tx domain.Transaction) error {
		var err error
		updated, err = tx.UpdateSampling(samplingID, expected, func(smp *domain.DmtSampling) error {
			if len(smp.ReactorOne)+len(smp.ReactorTwo) == 0 {
				return domain.NewError(domain.ErrNoReactorRecords, domain.EntityDmtSampling, formatSamplingKey(samplingID), "no reactor records recorded yet")
			}
			smp.Transfers = append(smp.Transfers, transfer)
			return nil
		})
		if domain.IsKind(err, domain.ErrNotFound) {
			return domain.NewError(domain.ErrPreparationMissing, domain.EntityDmtSampling, formatSamplingKey(samplingID), "preparation record not found")
		}
		return err
	})
	return updated, res, err
}

// AddAnalysisSampling appends an analysis entry once a transfer exists. The
// entry always starts pending and moves the aggregate to processing.
func (s *Service) AddAnalysisSampling(ctx context.Context, samplingID int64, expected int64, analysis domain.AnalysisSampling) (domain.DmtSampling, domain.Result, error) {
	if analysis.ID == "" {
		analysis.ID = memory.NewID()
	}
	if analysis.SampledAt.IsZero() {
		analysis.SampledAt = s.clock.Now()
	}
	analysis.Outcome = domain.AnalysisPending
	var updated domain.DmtSampling
	res, err := s.run(ctx, "add_analysis_sampling", func(tx domain.Transaction) error {
		view := tx.Snapshot()
		for _, v := range analysis.Values {
			if _, ok := view.FindParameter(v.ParameterCode); !ok {
				return domain.NewError(domain.ErrValidation, domain.EntityDmtSampling, formatSamplingKey(samplingID), "unknown parameter %s", v.ParameterCode)
			}
		}
		var err error
		updated, err = tx.UpdateSampling(samplingID, expected, func(smp *domain.DmtSampling) error {
			if len(smp.Transfers) == 0 {
				return domain.NewError(domain.ErrNoTransferProcess, domain.EntityDmtSampling, formatSamplingKey(samplingID), "no transfer process recorded yet")
			}
			smp.Analyses = append(smp.Analyses, analysis)
			smp.Status = domain.DerivedSamplingStatus(smp.Analyses)
			return nil
		})
		if domain.IsKind(err, domain.ErrNotFound) {
			return domain.NewError(domain.ErrPreparationMissing, domain.EntityDmtSampling, formatSamplingKey(samplingID), "preparation record not found")
		}
		return err
	})
	return updated, res, err
}

// ResolveAnalysisSample moves one analysis entry to its terminal outcome
// and recomputes the aggregate status.
func (s *Service) ResolveAnalysisSample(ctx context.Context, samplingID int64, expected int64, analysisID string, outcome domain.AnalysisOutcome) (domain.DmtSampling, domain.Result, error) {
	var updated domain.DmtSampling
	res, err := s.run(ctx, "resolve_analysis_sample", func(tx domain.Transaction) error {
		var err error
		updated, err = tx.UpdateSampling(samplingID, expected, func(smp *domain.DmtSampling) error {
			idx := -1
			for i, a := range smp.Analyses {
				if a.ID == analysisID {
					idx = i
					break
				}
			}
			if idx < 0 {
				return domain.NewError(domain.ErrNotFound, domain.EntityDmtSampling, formatSamplingKey(samplingID), "analysis entry %s not found", analysisID)
			}
			next, err := s.engine.Apply(domain.KindAnalysisSample, domain.EntityDmtSampling, formatSamplingKey(samplingID), domain.Status(smp.Analyses[idx].Outcome), domain.Status(outcome))
			if err != nil {
				return err
			}
			smp.Analyses[idx].Outcome = domain.AnalysisOutcome(next)
			smp.Status = domain.DerivedSamplingStatus(smp.Analyses)
			return nil
		})
		return err
	})
	return updated, res, err
}

// UpdateTakingSampleInformation edits the free-form taking-sample note.
// Allowed in every aggregate state.
func (s *Service) UpdateTakingSampleInformation(ctx context.Context, samplingID int64, expected int64, takingSample string) (domain.DmtSampling, domain.Result, error) {
	var updated domain.DmtSampling
	res, err := s.run(ctx, "update_taking_sample", func(tx domain.Transaction) error {
		var err error
		updated, err = tx.UpdateSampling(samplingID, expected, func(smp *domain.DmtSampling) error {
			smp.TakingSample = takingSample
			return nil
		})
		return err
	})
	return updated, res, err
}

// GetSampling fetches one sampling aggregate by ID.
func (s *Service) GetSampling(ctx context.Context, samplingID int64) (domain.DmtSampling, error) {
	smp, ok := s.store.GetSampling(samplingID)
	if !ok {
		return domain.DmtSampling{}, domain.NewError(domain.ErrNotFound, domain.EntityDmtSampling, formatSamplingKey(samplingID), "sampling not found")
	}
	return smp, nil
}

// QuerySamplings lists sampling aggregates matching the filter.
func (s *Service) QuerySamplings(ctx context.Context, filter domain.SamplingFilter) []domain.DmtSampling {
	return s.store.QuerySamplings(filter)
}
