package core

import (
	"context"
	"fmt"

	"github.com/indofiz/qcms-data-structure-sub000/pkg/domain"
)

// StatusTransitionRule blocks illegal status edges on stateful documents.
// Commands already route transitions through the engine; the rule catches
// mutators that bypass it.
func StatusTransitionRule() domain.Rule {
	return statusTransitionRule{engine: domain.NewTransitionEngine()}
}

type statusTransitionRule struct {
	engine *domain.TransitionEngine
}

type statusAxis struct {
	kind      domain.DocumentKind
	label     string
	extractor func(payload any) (id string, status domain.Status, ok bool)
}

var statusAxes = map[domain.EntityType][]statusAxis{
	domain.EntityPackingList: {
		{
			kind:  domain.KindPackingList,
			label: "packing list",
			extractor: func(payload any) (string, domain.Status, bool) {
				pl, ok := payload.(domain.PackingList)
				if !ok {
					return "", "", false
				}
				return pl.PLNumber, domain.Status(pl.Status), true
			},
		},
		{
			kind:  domain.KindPackingProgress,
			label: "packing progress",
			extractor: func(payload any) (string, domain.Status, bool) {
				pl, ok := payload.(domain.PackingList)
				if !ok {
					return "", "", false
				}
				return pl.PLNumber, domain.Status(pl.StatusPL), true
			},
		},
	},
	domain.EntityReleaseOrder: {
		{
			kind:  domain.KindReleaseOrder,
			label: "release order",
			extractor: func(payload any) (string, domain.Status, bool) {
				ro, ok := payload.(domain.ReleaseOrder)
				if !ok {
					return "", "", false
				}
				return ro.RONumber, domain.Status(ro.Status), true
			},
		},
	},
	domain.EntityDeliveryOrder: {
		{
			kind:  domain.KindDeliveryOrder,
			label: "delivery order",
			extractor: func(payload any) (string, domain.Status, bool) {
				do, ok := payload.(domain.DeliveryOrder)
				if !ok {
					return "", "", false
				}
				return do.DONumber, domain.Status(do.Status), true
			},
		},
	},
	domain.EntityProductionRequest: {
		{
			kind:  domain.KindProductionRequest,
			label: "production request",
			extractor: func(payload any) (string, domain.Status, bool) {
				pr, ok := payload.(domain.ProductionRequest)
				if !ok {
					return "", "", false
				}
				return pr.PRNumber, domain.Status(pr.Status), true
			},
		},
	},
}

func (statusTransitionRule) Name() string { return "status_transition" }

func (r statusTransitionRule) Evaluate(_ context.Context, _ domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, change := range changes {
		axes, ok := statusAxes[change.Entity]
		if !ok {
			continue
		}
		for _, axis := range axes {
			afterID, afterStatus, ok := axis.extractor(change.After)
			if ok && !r.engine.Known(axis.kind, afterStatus) {
				res.Violations = append(res.Violations, statusViolation(change.Entity, afterID,
					fmt.Sprintf("%s %s is set to unknown status %s", axis.label, afterID, afterStatus)))
				continue
			}
			if change.Action != domain.ActionUpdate {
				continue
			}
			beforeID, beforeStatus, ok := axis.extractor(change.Before)
			if !ok || beforeStatus == afterStatus {
				continue
			}
			if r.engine.IsTerminal(axis.kind, beforeStatus) {
				res.Violations = append(res.Violations, statusViolation(change.Entity, beforeID,
					fmt.Sprintf("cannot move %s %s from terminal status %s to %s", axis.label, beforeID, beforeStatus, afterStatus)))
				continue
			}
			if !r.engine.CanTransition(axis.kind, beforeStatus, afterStatus) {
				res.Violations = append(res.Violations, statusViolation(change.Entity, beforeID,
					fmt.Sprintf("%s %s cannot move from %s to %s", axis.label, beforeID, beforeStatus, afterStatus)))
			}
		}
	}
	return res, nil
}

func statusViolation(entity domain.EntityType, entityID, message string) domain.Violation {
	return domain.Violation{
		Rule:     "status_transition",
		Severity: domain.SeverityBlock,
		Message:  message,
		Entity:   entity,
		EntityID: entityID,
	}
}
