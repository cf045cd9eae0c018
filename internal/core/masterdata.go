package core

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/indofiz/qcms-data-structure-sub000/internal/blob"
	"github.com/indofiz/qcms-data-structure-sub000/internal/infra/persistence/memory"
	"github.com/indofiz/qcms-data-structure-sub000/pkg/domain"
)

// CreateSupplier registers a supplier master record.
func (s *Service) CreateSupplier(ctx context.Context, sup domain.Supplier) (domain.Supplier, domain.Result, error) {
	if strings.TrimSpace(sup.Code) == "" || strings.TrimSpace(sup.Name) == "" {
		return domain.Supplier{}, domain.Result{}, domain.NewError(domain.ErrValidation, domain.EntitySupplier, sup.Code, "code and name are required")
	}
	user, err := s.actor(ctx)
	if err != nil {
		return domain.Supplier{}, domain.Result{}, err
	}
	sup.CreatedBy = user.ID
	var created domain.Supplier
	res, err := s.run(ctx, "create_supplier", func(tx domain.Transaction) error {
		var err error
		created, err = tx.CreateSupplier(sup)
		return err
	})
	return created, res, err
}

// DeleteSupplier removes a supplier that nothing references.
func (s *Service) DeleteSupplier(ctx context.Context, code string) (domain.Result, error) {
	return s.run(ctx, "delete_supplier", func(tx domain.Transaction) error {
		if err := s.validator.CheckSupplierDeletable(tx.Snapshot(), code); err != nil {
			return err
		}
		return tx.DeleteSupplier(code)
	})
}

// ListSuppliers returns all supplier records.
func (s *Service) ListSuppliers(ctx context.Context) []domain.Supplier {
	return s.store.ListSuppliers()
}

// CreateMaterial registers a material master record. A supplier reference,
// when present, must resolve.
func (s *Service) CreateMaterial(ctx context.Context, m domain.Material) (domain.Material, domain.Result, error) {
	if strings.TrimSpace(m.Code) == "" || strings.TrimSpace(m.Name) == "" {
		return domain.Material{}, domain.Result{}, domain.NewError(domain.ErrValidation, domain.EntityMaterial, m.Code, "code and name are required")
	}
	user, err := s.actor(ctx)
	if err != nil {
		return domain.Material{}, domain.Result{}, err
	}
	m.CreatedBy = user.ID
	var created domain.Material
	res, err := s.run(ctx, "create_material", func(tx domain.Transaction) error {
		if m.SupplierCode != "" {
			if _, ok := tx.Snapshot().FindSupplier(m.SupplierCode); !ok {
				return domain.NewError(domain.ErrValidation, domain.EntityMaterial, m.Code, "unknown supplier %s", m.SupplierCode)
			}
		}
		var err error
		created, err = tx.CreateMaterial(m)
		return err
	})
	return created, res, err
}

// DeleteMaterial removes a material that nothing references.
func (s *Service) DeleteMaterial(ctx context.Context, code string) (domain.Result, error) {
	return s.run(ctx, "delete_material", func(tx domain.Transaction) error {
		if err := s.validator.CheckMaterialDeletable(tx.Snapshot(), code); err != nil {
			return err
		}
		return tx.DeleteMaterial(code)
	})
}

// ListMaterials returns all material records.
func (s *Service) ListMaterials(ctx context.Context) []domain.Material {
	return s.store.ListMaterials()
}

// CreateParameter registers an analysis parameter definition.
func (s *Service) CreateParameter(ctx context.Context, p domain.Parameter) (domain.Parameter, domain.Result, error) {
	if strings.TrimSpace(p.Code) == "" || strings.TrimSpace(p.Name) == "" {
		return domain.Parameter{}, domain.Result{}, domain.NewError(domain.ErrValidation, domain.EntityParameter, p.Code, "code and name are required")
	}
	if p.MaxValue < p.MinValue {
		return domain.Parameter{}, domain.Result{}, domain.NewError(domain.ErrValidation, domain.EntityParameter, p.Code, "max value below min value")
	}
	user, err := s.actor(ctx)
	if err != nil {
		return domain.Parameter{}, domain.Result{}, err
	}
	p.CreatedBy = user.ID
	var created domain.Parameter
	res, err := s.run(ctx, "create_parameter", func(tx domain.Transaction) error {
		var err error
		created, err = tx.CreateParameter(p)
		return err
	})
	return created, res, err
}

// DeleteParameter removes a parameter that no analysis references.
func (s *Service) DeleteParameter(ctx context.Context, code string) (domain.Result, error) {
	return s.run(ctx, "delete_parameter", func(tx domain.Transaction) error {
		if err := s.validator.CheckParameterDeletable(tx.Snapshot(), code); err != nil {
			return err
		}
		return tx.DeleteParameter(code)
	})
}

// ListParameters returns all parameter definitions.
func (s *Service) ListParameters(ctx context.Context) []domain.Parameter {
	return s.store.ListParameters()
}

// CreateIncomingCheck records a goods-receipt inspection. When a COA photo
// is supplied it is stored through the blob port first; a failed commit
// removes the stored photo again.
func (s *Service) CreateIncomingCheck(ctx context.Context, check domain.IncomingCheck, photo io.Reader, photoContentType string) (domain.IncomingCheck, domain.Result, error) {
	if strings.TrimSpace(check.SupplierCode) == "" || strings.TrimSpace(check.MaterialCode) == "" {
		return domain.IncomingCheck{}, domain.Result{}, domain.NewError(domain.ErrValidation, domain.EntityIncomingCheck, check.ID, "supplier and material are required")
	}
	user, err := s.actor(ctx)
	if err != nil {
		return domain.IncomingCheck{}, domain.Result{}, err
	}
	if check.ID == "" {
		check.ID = memory.NewID()
	}
	if check.CheckedBy == "" {
		check.CheckedBy = user.Name
	}
	check.CreatedBy = user.ID

	var putKey string
	if photo != nil {
		if s.blobs == nil {
			return domain.IncomingCheck{}, domain.Result{}, domain.NewError(domain.ErrValidation, domain.EntityIncomingCheck, check.ID, "no attachment store configured")
		}
		putKey = fmt.Sprintf("incoming/%s/coa", check.ID)
		if _, err := s.blobs.Put(ctx, putKey, photo, blob.PutOptions{ContentType: photoContentType}); err != nil {
			return domain.IncomingCheck{}, domain.Result{}, domain.WrapStorage(domain.EntityIncomingCheck, check.ID, err)
		}
		check.COAPhotoKey = putKey
	}

	var created domain.IncomingCheck
	res, err := s.run(ctx, "create_incoming_check", func(tx domain.Transaction) error {
		view := tx.Snapshot()
		if _, ok := view.FindSupplier(check.SupplierCode); !ok {
			return domain.NewError(domain.ErrValidation, domain.EntityIncomingCheck, check.ID, "unknown supplier %s", check.SupplierCode)
		}
		if _, ok := view.FindMaterial(check.MaterialCode); !ok {
			return domain.NewError(domain.ErrValidation, domain.EntityIncomingCheck, check.ID, "unknown material %s", check.MaterialCode)
		}
		var err error
		created, err = tx.CreateIncomingCheck(check)
		return err
	})
	// Clean up only the photo this call wrote; pre-set keys stay untouched.
	if err != nil && putKey != "" {
		if _, delErr := s.blobs.Delete(ctx, putKey); delErr != nil {
			s.logger.Warn("orphaned coa photo", "key", putKey, "error", delErr)
		}
	}
	return created, res, err
}

// ListIncomingChecks returns all recorded inspections.
func (s *Service) ListIncomingChecks(ctx context.Context) []domain.IncomingCheck {
	return s.store.ListIncomingChecks()
}

// COAPhotoURL produces a time-limited URL for an inspection's COA photo.
func (s *Service) COAPhotoURL(ctx context.Context, check domain.IncomingCheck) (string, error) {
	if check.COAPhotoKey == "" {
		return "", domain.NewError(domain.ErrNotFound, domain.EntityIncomingCheck, check.ID, "no coa photo attached")
	}
	if s.blobs == nil {
		return "", domain.NewError(domain.ErrValidation, domain.EntityIncomingCheck, check.ID, "no attachment store configured")
	}
	url, err := s.blobs.PresignURL(ctx, check.COAPhotoKey, blob.SignedURLOptions{Method: "GET"})
	if err != nil {
		return "", domain.WrapStorage(domain.EntityIncomingCheck, check.ID, err)
	}
	return url, nil
}

// CreateProductionRequest opens a production request in the waiting state.
func (s *Service) CreateProductionRequest(ctx context.Context, pr domain.ProductionRequest) (domain.ProductionRequest, domain.Result, error) {
	if strings.TrimSpace(pr.PRNumber) == "" {
		return domain.ProductionRequest{}, domain.Result{}, domain.NewError(domain.ErrValidation, domain.EntityProductionRequest, "", "pr number is required")
	}
	user, err := s.actor(ctx)
	if err != nil {
		return domain.ProductionRequest{}, domain.Result{}, err
	}
	pr.Status = domain.ProductionRequestWaiting
	pr.CreatedBy = user.ID
	var created domain.ProductionRequest
	res, err := s.run(ctx, "create_production_request", func(tx domain.Transaction) error {
		if pr.MaterialCode != "" {
			if _, ok := tx.Snapshot().FindMaterial(pr.MaterialCode); !ok {
				return domain.NewError(domain.ErrValidation, domain.EntityProductionRequest, pr.PRNumber, "unknown material %s", pr.MaterialCode)
			}
		}
		var err error
		created, err = tx.CreateProductionRequest(pr)
		return err
	})
	return created, res, err
}

// UpdateProductionRequestStatus moves a production request forward.
func (s *Service) UpdateProductionRequestStatus(ctx context.Context, prNumber string, expected int64, requested domain.ProductionRequestStatus) (domain.ProductionRequest, domain.Result, error) {
	var updated domain.ProductionRequest
	res, err := s.run(ctx, "update_production_request_status", func(tx domain.Transaction) error {
		var err error
		updated, err = tx.UpdateProductionRequest(prNumber, expected, func(pr *domain.ProductionRequest) error {
			next, err := s.engine.Apply(domain.KindProductionRequest, domain.EntityProductionRequest, prNumber, domain.Status(pr.Status), domain.Status(requested))
			if err != nil {
				return err
			}
			pr.Status = domain.ProductionRequestStatus(next)
			return nil
		})
		return err
	})
	return updated, res, err
}

// GetProductionRequest fetches one production request by number.
func (s *Service) GetProductionRequest(ctx context.Context, prNumber string) (domain.ProductionRequest, error) {
	pr, ok := s.store.GetProductionRequest(prNumber)
	if !ok {
		return domain.ProductionRequest{}, domain.NewError(domain.ErrNotFound, domain.EntityProductionRequest, prNumber, "production request not found")
	}
	return pr, nil
}
