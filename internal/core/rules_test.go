package core

import (
	"context"
	"strings"
	"testing"

	"github.com/indofiz/qcms-data-structure-sub000/pkg/domain"
)

// stubView is a fixed-content RuleView for exercising rules directly.
type stubView struct {
	packingLists   []domain.PackingList
	releaseOrders  []domain.ReleaseOrder
	deliveryOrders []domain.DeliveryOrder
	samplings      []domain.DmtSampling
}

func (v stubView) ListPackingLists() []domain.PackingList {
	return v.packingLists
}

func (v stubView) ListReleaseOrders() []domain.ReleaseOrder {
	return v.releaseOrders
}

func (v stubView) ListDeliveryOrders() []domain.DeliveryOrder {
	return v.deliveryOrders
}

func (v stubView) ListProductionRequests() []domain.ProductionRequest {
	return nil
}

func (v stubView) ListSamplings() []domain.DmtSampling {
	return v.samplings
}

func (v stubView) ListSuppliers() []domain.Supplier {
	return nil
}

func (v stubView) ListMaterials() []domain.Material {
	return nil
}

func (v stubView) ListParameters() []domain.Parameter {
	return nil
}

func (v stubView) ListIncomingChecks() []domain.IncomingCheck {
	return nil
}

func (v stubView) FindPackingList(plNumber string) (domain.PackingList, bool) {
	for _, pl := range v.packingLists {
		if pl.PLNumber == plNumber {
			return pl, true
		}
	}
	return domain.PackingList{}, false
}

func (v stubView) FindReleaseOrder(roNumber string) (domain.ReleaseOrder, bool) {
	for _, ro := range v.releaseOrders {
		if ro.RONumber == roNumber {
			return ro, true
		}
	}
	return domain.ReleaseOrder{}, false
}

func (v stubView) FindDeliveryOrder(doNumber string) (domain.DeliveryOrder, bool) {
	for _, do := range v.deliveryOrders {
		if do.DONumber == doNumber {
			return do, true
		}
	}
	return domain.DeliveryOrder{}, false
}

func (v stubView) FindProductionRequest(string) (domain.ProductionRequest, bool) {
	return domain.ProductionRequest{}, false
}

func (v stubView) FindSampling(id int64) (domain.DmtSampling, bool) {
	for _, s := range v.samplings {
		if s.ID == id {
			return s, true
		}
	}
	return domain.DmtSampling{}, false
}

func (v stubView) FindSupplier(string) (domain.Supplier, bool) {
	return domain.Supplier{}, false
}

func (v stubView) FindMaterial(string) (domain.Material, bool) {
	return domain.Material{}, false
}

func (v stubView) FindParameter(string) (domain.Parameter, bool) {
	return domain.Parameter{}, false
}

func blockingMessages(t *testing.T, res domain.Result) []string {
	t.Helper()
	var msgs []string
	for _, v := range res.Violations {
		if v.Severity == domain.SeverityBlock {
			msgs = append(msgs, v.Message)
		}
	}
	return msgs
}

func requireViolationContaining(t *testing.T, res domain.Result, fragment string) {
	t.Helper()
	for _, msg := range blockingMessages(t, res) {
		if strings.Contains(msg, fragment) {
			return
		}
	}
	t.Fatalf("no blocking violation containing %q in %+v", fragment, res.Violations)
}

func TestChainIntegrityRuleFlagsDanglingReferences(t *testing.T) {
	view := stubView{
		releaseOrders:  []domain.ReleaseOrder{{RONumber: "RO-1", PLNumber: "PL-missing", Status: domain.ReleaseOrderWaiting}},
		deliveryOrders: []domain.DeliveryOrder{{DONumber: "DO-1", RONumber: "RO-missing"}},
	}
	res, err := ChainIntegrityRule().Evaluate(context.Background(), view, nil)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	requireViolationContaining(t, res, "missing packing list PL-missing")
	requireViolationContaining(t, res, "missing release order RO-missing")
}

func TestChainIntegrityRuleFlagsSignoffRegression(t *testing.T) {
	signed := &domain.Signoff{UserID: "wh-1", Role: domain.RoleWarehouse}
	view := stubView{
		packingLists: []domain.PackingList{{PLNumber: "PL-1", Status: domain.PackingListOpen}},
		releaseOrders: []domain.ReleaseOrder{
			// Warehouse slot cleared while DO-1 still references the order.
			{RONumber: "RO-1", PLNumber: "PL-1", Status: domain.ReleaseOrderProcessing, WhSigned: nil, QcSigned: signed},
		},
		deliveryOrders: []domain.DeliveryOrder{{DONumber: "DO-1", RONumber: "RO-1", Status: domain.DeliveryOrderWaiting}},
	}
	res, err := ChainIntegrityRule().Evaluate(context.Background(), view, nil)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	requireViolationContaining(t, res, "missing sign-offs")
	if !res.HasBlocking() {
		t.Fatal("sign-off regression must block the commit")
	}
}

func TestChainIntegrityRuleFlagsCancelUnderActiveReleaseOrder(t *testing.T) {
	before := domain.PackingList{PLNumber: "PL-1", Status: domain.PackingListOpen}
	after := domain.PackingList{PLNumber: "PL-1", Status: domain.PackingListCancelled}
	view := stubView{
		packingLists:  []domain.PackingList{after},
		releaseOrders: []domain.ReleaseOrder{{RONumber: "RO-1", PLNumber: "PL-1", Status: domain.ReleaseOrderProcessing}},
	}
	changes := []domain.Change{{Entity: domain.EntityPackingList, Action: domain.ActionUpdate, Before: before, After: after}}

	res, err := ChainIntegrityRule().Evaluate(context.Background(), view, changes)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	requireViolationContaining(t, res, "still active")

	// A finished release order does not pin the packing list.
	view.releaseOrders[0].Status = domain.ReleaseOrderFinished
	res, err = ChainIntegrityRule().Evaluate(context.Background(), view, changes)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if res.HasBlocking() {
		t.Fatalf("finished release order must not block the cancel: %+v", res.Violations)
	}
}

func TestStatusTransitionRuleCatchesBypassedEdges(t *testing.T) {
	rule := StatusTransitionRule()
	ctx := context.Background()

	// A mutator that skips the engine and jumps open -> shipped.
	res, err := rule.Evaluate(ctx, stubView{}, []domain.Change{{
		Entity: domain.EntityPackingList,
		Action: domain.ActionUpdate,
		Before: domain.PackingList{PLNumber: "PL-1", Status: domain.PackingListOpen, StatusPL: domain.PackingPending},
		After:  domain.PackingList{PLNumber: "PL-1", Status: domain.PackingListShipped, StatusPL: domain.PackingPending},
	}})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	requireViolationContaining(t, res, "cannot move from open to shipped")

	// Leaving a terminal status.
	res, err = rule.Evaluate(ctx, stubView{}, []domain.Change{{
		Entity: domain.EntityDeliveryOrder,
		Action: domain.ActionUpdate,
		Before: domain.DeliveryOrder{DONumber: "DO-1", Status: domain.DeliveryOrderDelivered},
		After:  domain.DeliveryOrder{DONumber: "DO-1", Status: domain.DeliveryOrderWaiting},
	}})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	requireViolationContaining(t, res, "terminal status delivered")

	// Creating an entity with a status outside its table.
	res, err = rule.Evaluate(ctx, stubView{}, []domain.Change{{
		Entity: domain.EntityReleaseOrder,
		Action: domain.ActionCreate,
		After:  domain.ReleaseOrder{RONumber: "RO-1", Status: "teleported"},
	}})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	requireViolationContaining(t, res, "unknown status teleported")

	// The progress axis is checked independently of the workflow axis.
	res, err = rule.Evaluate(ctx, stubView{}, []domain.Change{{
		Entity: domain.EntityPackingList,
		Action: domain.ActionUpdate,
		Before: domain.PackingList{PLNumber: "PL-1", Status: domain.PackingListOpen, StatusPL: domain.PackingPending},
		After:  domain.PackingList{PLNumber: "PL-1", Status: domain.PackingListOpen, StatusPL: domain.PackingDone},
	}})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	requireViolationContaining(t, res, "cannot move from pending to done")

	// A legal edge passes clean.
	res, err = rule.Evaluate(ctx, stubView{}, []domain.Change{{
		Entity: domain.EntityPackingList,
		Action: domain.ActionUpdate,
		Before: domain.PackingList{PLNumber: "PL-1", Status: domain.PackingListOpen, StatusPL: domain.PackingPending},
		After:  domain.PackingList{PLNumber: "PL-1", Status: domain.PackingListPacked, StatusPL: domain.PackingPending},
	}})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if res.HasBlocking() {
		t.Fatalf("legal edge flagged: %+v", res.Violations)
	}
}

func TestSamplingStagesRuleFlagsInconsistentAggregates(t *testing.T) {
	ctx := context.Background()
	rule := SamplingStagesRule()

	res, err := rule.Evaluate(ctx, stubView{samplings: []domain.DmtSampling{{
		ID:        1,
		Status:    domain.SamplingWaiting,
		Transfers: []domain.TransferProcess{{ID: "t1", Reactor: domain.ReactorOne}},
	}}}, nil)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	requireViolationContaining(t, res, "no reactor records")

	res, err = rule.Evaluate(ctx, stubView{samplings: []domain.DmtSampling{{
		ID:         2,
		Status:     domain.SamplingProcessing,
		ReactorOne: []domain.ReactorRecord{{ID: "r1", Reactor: domain.ReactorOne}},
		Analyses:   []domain.AnalysisSampling{{ID: "a1", Outcome: domain.AnalysisPending}},
	}}}, nil)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	requireViolationContaining(t, res, "no transfer process")

	// Aggregate status must match the derived one.
	res, err = rule.Evaluate(ctx, stubView{samplings: []domain.DmtSampling{{
		ID:         3,
		Status:     domain.SamplingFinished,
		ReactorOne: []domain.ReactorRecord{{ID: "r1", Reactor: domain.ReactorOne}},
		Transfers:  []domain.TransferProcess{{ID: "t1", Reactor: domain.ReactorOne}},
		Analyses:   []domain.AnalysisSampling{{ID: "a1", Outcome: domain.AnalysisPending}},
	}}}, nil)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	requireViolationContaining(t, res, "disagrees with derived status")

	// A consistent aggregate passes clean.
	res, err = rule.Evaluate(ctx, stubView{samplings: []domain.DmtSampling{{
		ID:         4,
		Status:     domain.SamplingProcessing,
		ReactorOne: []domain.ReactorRecord{{ID: "r1", Reactor: domain.ReactorOne}},
		Transfers:  []domain.TransferProcess{{ID: "t1", Reactor: domain.ReactorOne}},
		Analyses:   []domain.AnalysisSampling{{ID: "a1", Outcome: domain.AnalysisPending}},
	}}}, nil)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if res.HasBlocking() {
		t.Fatalf("consistent aggregate flagged: %+v", res.Violations)
	}
}
