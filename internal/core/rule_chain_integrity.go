package core

import (
	"context"
	"fmt"

	"github.com/indofiz/qcms-data-structure-sub000/pkg/domain"
)

// ChainIntegrityRule enforces the packing list -> release order -> delivery
// order reference chain on the final transaction state.
func ChainIntegrityRule() domain.Rule {
	return chainIntegrityRule{}
}

type chainIntegrityRule struct{}

func (chainIntegrityRule) Name() string { return "chain_integrity" }

func (chainIntegrityRule) Evaluate(_ context.Context, view domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}

	for _, ro := range view.ListReleaseOrders() {
		if _, ok := view.FindPackingList(ro.PLNumber); !ok {
			res.Violations = append(res.Violations, chainViolation(domain.EntityReleaseOrder, ro.RONumber,
				fmt.Sprintf("release order %s references missing packing list %s", ro.RONumber, ro.PLNumber)))
		}
	}

	for _, do := range view.ListDeliveryOrders() {
		ro, ok := view.FindReleaseOrder(do.RONumber)
		if !ok {
			res.Violations = append(res.Violations, chainViolation(domain.EntityDeliveryOrder, do.DONumber,
				fmt.Sprintf("delivery order %s references missing release order %s", do.DONumber, do.RONumber)))
			continue
		}
		// Sign-offs may not regress once a delivery order exists.
		if ro.WhSigned == nil || ro.QcSigned == nil {
			res.Violations = append(res.Violations, chainViolation(domain.EntityDeliveryOrder, do.DONumber,
				fmt.Sprintf("delivery order %s exists but release order %s is missing sign-offs", do.DONumber, do.RONumber)))
		}
	}

	// A packing list may only reach cancelled while none of its release
	// orders remains active.
	for _, change := range changes {
		if change.Entity != domain.EntityPackingList || change.Action != domain.ActionUpdate {
			continue
		}
		before, okB := change.Before.(domain.PackingList)
		after, okA := change.After.(domain.PackingList)
		if !okB || !okA {
			continue
		}
		if before.Status == domain.PackingListCancelled || after.Status != domain.PackingListCancelled {
			continue
		}
		for _, ro := range view.ListReleaseOrders() {
			if ro.PLNumber != after.PLNumber {
				continue
			}
			if ro.Status != domain.ReleaseOrderFinished && ro.Status != domain.ReleaseOrderCancelled {
				res.Violations = append(res.Violations, chainViolation(domain.EntityPackingList, after.PLNumber,
					fmt.Sprintf("packing list %s cancelled while release order %s is still active", after.PLNumber, ro.RONumber)))
			}
		}
	}

	return res, nil
}

func chainViolation(entity domain.EntityType, entityID, message string) domain.Violation {
	return domain.Violation{
		Rule:     "chain_integrity",
		Severity: domain.SeverityBlock,
		Message:  message,
		Entity:   entity,
		EntityID: entityID,
	}
}
