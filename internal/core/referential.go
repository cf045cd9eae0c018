package core

import (
	"github.com/indofiz/qcms-data-structure-sub000/pkg/domain"
)

// roBlockedParentStatuses are packing list statuses that refuse new release
// orders.
var roBlockedParentStatuses = map[domain.PackingListStatus]struct{}{
	domain.PackingListShipped:   {},
	domain.PackingListCancelled: {},
}

// doBlockedParentStatuses are release order statuses that refuse new
// delivery orders.
var doBlockedParentStatuses = map[domain.ReleaseOrderStatus]struct{}{
	domain.ReleaseOrderCancelled: {},
}

// ReferentialValidator centralizes parent/child admission and deletion
// checks for the document chain and master data. The same checks run as
// command preconditions and, through the chain integrity rule, as a commit
// safety net.
type ReferentialValidator struct{}

// NewReferentialValidator constructs the validator.
func NewReferentialValidator() *ReferentialValidator { return &ReferentialValidator{} }

// CheckParentForReleaseOrder verifies the packing list exists and admits
// new release orders.
func (v *ReferentialValidator) CheckParentForReleaseOrder(view domain.RuleView, plNumber string) error {
	pl, ok := view.FindPackingList(plNumber)
	if !ok {
		return domain.NewError(domain.ErrParentNotFound, domain.EntityPackingList, plNumber, "packing list not found")
	}
	if _, blocked := roBlockedParentStatuses[pl.Status]; blocked {
		return domain.NewError(domain.ErrParentBlocked, domain.EntityPackingList, plNumber, "packing list status %s does not admit release orders", pl.Status)
	}
	return nil
}

// CheckParentForDeliveryOrder verifies the release order exists, is not
// cancelled, and carries both sign-offs.
func (v *ReferentialValidator) CheckParentForDeliveryOrder(view domain.RuleView, roNumber string) error {
	ro, ok := view.FindReleaseOrder(roNumber)
	if !ok {
		return domain.NewError(domain.ErrParentNotFound, domain.EntityReleaseOrder, roNumber, "release order not found")
	}
	if _, blocked := doBlockedParentStatuses[ro.Status]; blocked {
		return domain.NewError(domain.ErrParentBlocked, domain.EntityReleaseOrder, roNumber, "release order status %s does not admit delivery orders", ro.Status)
	}
	if ro.WhSigned == nil || ro.QcSigned == nil {
		return domain.NewError(domain.ErrIncompleteSignoff, domain.EntityReleaseOrder, roNumber, "warehouse and qc sign-offs required before delivery")
	}
	return nil
}

// CheckPackingListDeletable rejects deletion while release orders still
// reference the packing list.
func (v *ReferentialValidator) CheckPackingListDeletable(view domain.RuleView, plNumber string) error {
	for _, ro := range view.ListReleaseOrders() {
		if ro.PLNumber == plNumber {
			return domain.NewError(domain.ErrValidation, domain.EntityPackingList, plNumber, "release order %s still references this packing list", ro.RONumber)
		}
	}
	return nil
}

// CheckReleaseOrderDeletable rejects deletion while delivery orders still
// reference the release order.
func (v *ReferentialValidator) CheckReleaseOrderDeletable(view domain.RuleView, roNumber string) error {
	for _, do := range view.ListDeliveryOrders() {
		if do.RONumber == roNumber {
			return domain.NewError(domain.ErrValidation, domain.EntityReleaseOrder, roNumber, "delivery order %s still references this release order", do.DONumber)
		}
	}
	return nil
}

// CheckPackingListCancellable rejects cancellation while active (non
// terminal) release orders reference the packing list.
func (v *ReferentialValidator) CheckPackingListCancellable(view domain.RuleView, plNumber string) error {
	for _, ro := range view.ListReleaseOrders() {
		if ro.PLNumber != plNumber {
			continue
		}
		if ro.Status != domain.ReleaseOrderFinished && ro.Status != domain.ReleaseOrderCancelled {
			return domain.NewError(domain.ErrValidation, domain.EntityPackingList, plNumber, "release order %s is still active", ro.RONumber)
		}
	}
	return nil
}

// CheckSupplierDeletable rejects deletion while materials or incoming
// checks reference the supplier.
func (v *ReferentialValidator) CheckSupplierDeletable(view domain.RuleView, code string) error {
	for _, m := range view.ListMaterials() {
		if m.SupplierCode == code {
			return domain.NewError(domain.ErrValidation, domain.EntitySupplier, code, "material %s still references this supplier", m.Code)
		}
	}
	for _, c := range view.ListIncomingChecks() {
		if c.SupplierCode == code {
			return domain.NewError(domain.ErrValidation, domain.EntitySupplier, code, "incoming check %s still references this supplier", c.ID)
		}
	}
	return nil
}

// CheckMaterialDeletable rejects deletion while documents reference the
// material.
func (v *ReferentialValidator) CheckMaterialDeletable(view domain.RuleView, code string) error {
	for _, pl := range view.ListPackingLists() {
		for _, g := range pl.Goods {
			if g.MaterialCode == code {
				return domain.NewError(domain.ErrValidation, domain.EntityMaterial, code, "packing list %s still references this material", pl.PLNumber)
			}
		}
	}
	for _, pr := range view.ListProductionRequests() {
		if pr.MaterialCode == code {
			return domain.NewError(domain.ErrValidation, domain.EntityMaterial, code, "production request %s still references this material", pr.PRNumber)
		}
	}
	for _, c := range view.ListIncomingChecks() {
		if c.MaterialCode == code {
			return domain.NewError(domain.ErrValidation, domain.EntityMaterial, code, "incoming check %s still references this material", c.ID)
		}
	}
	return nil
}

// CheckParameterDeletable rejects deletion while analysis entries reference
// the parameter.
func (v *ReferentialValidator) CheckParameterDeletable(view domain.RuleView, code string) error {
	for _, s := range view.ListSamplings() {
		for _, a := range s.Analyses {
			for _, val := range a.Values {
				if val.ParameterCode == code {
					return domain.NewError(domain.ErrValidation, domain.EntityParameter, code, "sampling %d analysis %s still references this parameter", s.ID, a.ID)
				}
			}
		}
	}
	return nil
}
