package core

import (
	"context"
	"strings"

	"github.com/indofiz/qcms-data-structure-sub000/pkg/domain"
)

// CreatePackingList registers a new packing list in the open state with
// packing progress pending. Every good must reference a known material.
// Restricted to warehouse and admin actors.
func (s *Service) CreatePackingList(ctx context.Context, pl domain.PackingList) (domain.PackingList, domain.Result, error) {
	if strings.TrimSpace(pl.PLNumber) == "" {
		return domain.PackingList{}, domain.Result{}, domain.NewError(domain.ErrValidation, domain.EntityPackingList, "", "pl number is required")
	}
	if strings.TrimSpace(pl.Destination) == "" {
		return domain.PackingList{}, domain.Result{}, domain.NewError(domain.ErrValidation, domain.EntityPackingList, pl.PLNumber, "destination is required")
	}
	user, err := s.actor(ctx)
	if err != nil {
		return domain.PackingList{}, domain.Result{}, err
	}
	if user.Role != domain.RoleWarehouse && user.Role != domain.RoleAdmin {
		return domain.PackingList{}, domain.Result{}, domain.NewError(domain.ErrForbidden, domain.EntityPackingList, pl.PLNumber, "role %s may not create packing lists", user.Role)
	}
	pl.Status = domain.PackingListOpen
	pl.StatusPL = domain.PackingPending
	pl.SignedBy = nil
	pl.CreatedBy = user.ID

	var created domain.PackingList
	res, err := s.run(ctx, "create_packing_list", func(tx domain.Transaction) error {
		view := tx.Snapshot()
		for _, g := range pl.Goods {
			if _, ok := view.FindMaterial(g.MaterialCode); !ok {
				return domain.NewError(domain.ErrValidation, domain.EntityPackingList, pl.PLNumber, "unknown material %s", g.MaterialCode)
			}
		}
		var err error
		created, err = tx.CreatePackingList(pl)
		return err
	})
	return created, res, err
}

// UpdatePackingListStatus moves the packing list along its workflow table.
func (s *Service) UpdatePackingListStatus(ctx context.Context, plNumber string, expected int64, requested domain.PackingListStatus) (domain.PackingList, domain.Result, error) {
	var updated domain.PackingList
	res, err := s.run(ctx, "update_packing_list_status", func(tx domain.Transaction) error {
		var err error
		updated, err = tx.UpdatePackingList(plNumber, expected, func(pl *domain.PackingList) error {
			if requested == domain.PackingListCancelled {
				if err := s.validator.CheckPackingListCancellable(tx.Snapshot(), plNumber); err != nil {
					return err
				}
			}
			next, err := s.engine.Apply(domain.KindPackingList, domain.EntityPackingList, plNumber, domain.Status(pl.Status), domain.Status(requested))
			if err != nil {
				return err
			}
			pl.Status = domain.PackingListStatus(next)
			return nil
		})
		return err
	})
	return updated, res, err
}

// UpdatePackingProgress advances the packing-specific status axis.
func (s *Service) UpdatePackingProgress(ctx context.Context, plNumber string, expected int64, requested domain.PackingProgress) (domain.PackingList, domain.Result, error) {
	var updated domain.PackingList
	res, err := s.run(ctx, "update_packing_progress", func(tx domain.Transaction) error {
		var err error
		updated, err = tx.UpdatePackingList(plNumber, expected, func(pl *domain.PackingList) error {
			next, err := s.engine.Apply(domain.KindPackingProgress, domain.EntityPackingList, plNumber, domain.Status(pl.StatusPL), domain.Status(requested))
			if err != nil {
				return err
			}
			pl.StatusPL = domain.PackingProgress(next)
			return nil
		})
		return err
	})
	return updated, res, err
}

// SignPackingList records the supervisor sign-off on a packing list.
// Signing twice by the same user is a no-op; a different user fails.
func (s *Service) SignPackingList(ctx context.Context, plNumber string, expected int64) (domain.PackingList, domain.Result, error) {
	user, err := s.actor(ctx)
	if err != nil {
		return domain.PackingList{}, domain.Result{}, err
	}
	if user.Role != domain.RoleSupervisor && user.Role != domain.RoleAdmin {
		return domain.PackingList{}, domain.Result{}, domain.NewError(domain.ErrForbidden, domain.EntityPackingList, plNumber, "role %s may not sign packing lists", user.Role)
	}
	var updated domain.PackingList
	res, err := s.run(ctx, "sign_packing_list", func(tx domain.Transaction) error {
		var err error
		updated, err = tx.UpdatePackingList(plNumber, expected, func(pl *domain.PackingList) error {
			if pl.SignedBy != nil {
				if pl.SignedBy.UserID == user.ID {
					return nil
				}
				return domain.NewError(domain.ErrAlreadySigned, domain.EntityPackingList, plNumber, "already signed by %s", pl.SignedBy.UserID)
			}
			pl.SignedBy = &domain.Signoff{UserID: user.ID, Role: user.Role, SignedAt: s.clock.Now()}
			return nil
		})
		return err
	})
	return updated, res, err
}

// DeletePackingList removes a packing list that no release order references.
func (s *Service) DeletePackingList(ctx context.Context, plNumber string) (domain.Result, error) {
	return s.run(ctx, "delete_packing_list", func(tx domain.Transaction) error {
		if err := s.validator.CheckPackingListDeletable(tx.Snapshot(), plNumber); err != nil {
			return err
		}
		return tx.DeletePackingList(plNumber)
	})
}

// GetPackingList fetches one packing list by number.
func (s *Service) GetPackingList(ctx context.Context, plNumber string) (domain.PackingList, error) {
	pl, ok := s.store.GetPackingList(plNumber)
	if !ok {
		return domain.PackingList{}, domain.NewError(domain.ErrNotFound, domain.EntityPackingList, plNumber, "packing list not found")
	}
	return pl, nil
}

// QueryPackingLists lists packing lists matching the filter.
func (s *Service) QueryPackingLists(ctx context.Context, filter domain.PackingListFilter) []domain.PackingList {
	return s.store.QueryPackingLists(filter)
}

// CreateReleaseOrder registers a release order under a packing list. The
// parent must exist and must not be shipped or cancelled.
func (s *Service) CreateReleaseOrder(ctx context.Context, ro domain.ReleaseOrder) (domain.ReleaseOrder, domain.Result, error) {
	if strings.TrimSpace(ro.RONumber) == "" {
		return domain.ReleaseOrder{}, domain.Result{}, domain.NewError(domain.ErrValidation, domain.EntityReleaseOrder, "", "ro number is required")
	}
	if strings.TrimSpace(ro.PLNumber) == "" {
		return domain.ReleaseOrder{}, domain.Result{}, domain.NewError(domain.ErrValidation, domain.EntityReleaseOrder, ro.RONumber, "pl number is required")
	}
	user, err := s.actor(ctx)
	if err != nil {
		return domain.ReleaseOrder{}, domain.Result{}, err
	}
	ro.Status = domain.ReleaseOrderWaiting
	ro.WhSigned = nil
	ro.QcSigned = nil
	ro.CreatedBy = user.ID

	var created domain.ReleaseOrder
	res, err := s.run(ctx, "create_release_order", func(tx domain.Transaction) error {
		if err := s.validator.CheckParentForReleaseOrder(tx.Snapshot(), ro.PLNumber); err != nil {
			return err
		}
		var err error
		created, err = tx.CreateReleaseOrder(ro)
		return err
	})
	return created, res, err
}

// UpdateReleaseOrderChecklist updates the checklist note and status in one
// atomic step. An empty requested status keeps the current one.
func (s *Service) UpdateReleaseOrderChecklist(ctx context.Context, roNumber string, expected int64, note string, requested domain.ReleaseOrderStatus) (domain.ReleaseOrder, domain.Result, error) {
	var updated domain.ReleaseOrder
	res, err := s.run(ctx, "update_release_order_checklist", func(tx domain.Transaction) error {
		var err error
		updated, err = tx.UpdateReleaseOrder(roNumber, expected, func(ro *domain.ReleaseOrder) error {
			if requested != "" && requested != ro.Status {
				next, err := s.engine.Apply(domain.KindReleaseOrder, domain.EntityReleaseOrder, roNumber, domain.Status(ro.Status), domain.Status(requested))
				if err != nil {
					return err
				}
				ro.Status = domain.ReleaseOrderStatus(next)
			}
			ro.Note = note
			return nil
		})
		return err
	})
	return updated, res, err
}

// SignReleaseOrder records the acting user's sign-off in the slot matching
// their role: warehouse fills the warehouse slot, qc fills the qc slot.
// Re-signing by the same user is a no-op; a different user fails.
func (s *Service) SignReleaseOrder(ctx context.Context, roNumber string, expected int64) (domain.ReleaseOrder, domain.Result, error) {
	user, err := s.actor(ctx)
	if err != nil {
		return domain.ReleaseOrder{}, domain.Result{}, err
	}
	var slot func(*domain.ReleaseOrder) **domain.Signoff
	switch user.Role {
	case domain.RoleWarehouse:
		slot = func(ro *domain.ReleaseOrder) **domain.Signoff { return &ro.WhSigned }
	case domain.RoleQC:
		slot = func(ro *domain.ReleaseOrder) **domain.Signoff { return &ro.QcSigned }
	default:
		return domain.ReleaseOrder{}, domain.Result{}, domain.NewError(domain.ErrForbidden, domain.EntityReleaseOrder, roNumber, "role %s may not sign release orders", user.Role)
	}
	var updated domain.ReleaseOrder
	res, err := s.run(ctx, "sign_release_order", func(tx domain.Transaction) error {
		var err error
		updated, err = tx.UpdateReleaseOrder(roNumber, expected, func(ro *domain.ReleaseOrder) error {
			target := slot(ro)
			if existing := *target; existing != nil {
				if existing.UserID == user.ID {
					return nil
				}
				return domain.NewError(domain.ErrAlreadySigned, domain.EntityReleaseOrder, roNumber, "already signed by %s", existing.UserID)
			}
			*target = &domain.Signoff{UserID: user.ID, Role: user.Role, SignedAt: s.clock.Now()}
			return nil
		})
		return err
	})
	return updated, res, err
}

// DeleteReleaseOrder removes a release order that no delivery order
// references.
func (s *Service) DeleteReleaseOrder(ctx context.Context, roNumber string) (domain.Result, error) {
	return s.run(ctx, "delete_release_order", func(tx domain.Transaction) error {
		if err := s.validator.CheckReleaseOrderDeletable(tx.Snapshot(), roNumber); err != nil {
			return err
		}
		return tx.DeleteReleaseOrder(roNumber)
	})
}

// GetReleaseOrder fetches one release order by number.
func (s *Service) GetReleaseOrder(ctx context.Context, roNumber string) (domain.ReleaseOrder, error) {
	ro, ok := s.store.GetReleaseOrder(roNumber)
	if !ok {
		return domain.ReleaseOrder{}, domain.NewError(domain.ErrNotFound, domain.EntityReleaseOrder, roNumber, "release order not found")
	}
	return ro, nil
}

// QueryReleaseOrders lists release orders matching the filter.
func (s *Service) QueryReleaseOrders(ctx context.Context, filter domain.ReleaseOrderFilter) []domain.ReleaseOrder {
	return s.store.QueryReleaseOrders(filter)
}

// CreateDeliveryOrder registers a delivery order under a fully signed-off,
// non-cancelled release order.
func (s *Service) CreateDeliveryOrder(ctx context.Context, do domain.DeliveryOrder) (domain.DeliveryOrder, domain.Result, error) {
	if strings.TrimSpace(do.DONumber) == "" {
		return domain.DeliveryOrder{}, domain.Result{}, domain.NewError(domain.ErrValidation, domain.EntityDeliveryOrder, "", "do number is required")
	}
	if strings.TrimSpace(do.RONumber) == "" {
		return domain.DeliveryOrder{}, domain.Result{}, domain.NewError(domain.ErrValidation, domain.EntityDeliveryOrder, do.DONumber, "ro number is required")
	}
	if strings.TrimSpace(do.Partner) == "" {
		return domain.DeliveryOrder{}, domain.Result{}, domain.NewError(domain.ErrValidation, domain.EntityDeliveryOrder, do.DONumber, "partner is required")
	}
	user, err := s.actor(ctx)
	if err != nil {
		return domain.DeliveryOrder{}, domain.Result{}, err
	}
	do.Status = domain.DeliveryOrderWaiting
	do.CreatedBy = user.ID

	var created domain.DeliveryOrder
	res, err := s.run(ctx, "create_delivery_order", func(tx domain.Transaction) error {
		if err := s.validator.CheckParentForDeliveryOrder(tx.Snapshot(), do.RONumber); err != nil {
			return err
		}
		var err error
		created, err = tx.CreateDeliveryOrder(do)
		return err
	})
	return created, res, err
}

// UpdateDeliveryOrderStatus moves the delivery order along its workflow
// table.
func (s *Service) UpdateDeliveryOrderStatus(ctx context.Context, doNumber string, expected int64, requested domain.DeliveryOrderStatus) (domain.DeliveryOrder, domain.Result, error) {
	var updated domain.DeliveryOrder
	res, err := s.run(ctx, "update_delivery_order_status", func(tx domain.Transaction) error {
		var err error
		updated, err = tx.UpdateDeliveryOrder(doNumber, expected, func(do *domain.DeliveryOrder) error {
			next, err := s.engine.Apply(domain.KindDeliveryOrder, domain.EntityDeliveryOrder, doNumber, domain.Status(do.Status), domain.Status(requested))
			if err != nil {
				return err
			}
			do.Status = domain.DeliveryOrderStatus(next)
			return nil
		})
		return err
	})
	return updated, res, err
}

// DeleteDeliveryOrder removes a delivery order.
func (s *Service) DeleteDeliveryOrder(ctx context.Context, doNumber string) (domain.Result, error) {
	return s.run(ctx, "delete_delivery_order", func(tx domain.Transaction) error {
		return tx.DeleteDeliveryOrder(doNumber)
	})
}

// GetDeliveryOrder fetches one delivery order by number.
func (s *Service) GetDeliveryOrder(ctx context.Context, doNumber string) (domain.DeliveryOrder, error) {
	do, ok := s.store.GetDeliveryOrder(doNumber)
	if !ok {
		return domain.DeliveryOrder{}, domain.NewError(domain.ErrNotFound, domain.EntityDeliveryOrder, doNumber, "delivery order not found")
	}
	return do, nil
}

// QueryDeliveryOrders lists delivery orders matching the filter.
func (s *Service) QueryDeliveryOrders(ctx context.Context, filter domain.DeliveryOrderFilter) []domain.DeliveryOrder {
	return s.store.QueryDeliveryOrders(filter)
}
