package memory

import (
	"sort"
	"strconv"

	"github.com/indofiz/qcms-data-structure-sub000/pkg/domain"
)

func formatSamplingID(id int64) string {
	return strconv.FormatInt(id, 10)
}

// ListPackingLists returns all packing lists in the snapshot, ordered by key.
func (v transactionView) ListPackingLists() []domain.PackingList {
	out := make([]domain.PackingList, 0, len(v.state.packingLists))
	for _, pl := range v.state.packingLists {
		out = append(out, clonePackingList(pl))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PLNumber < out[j].PLNumber })
	return out
}

// ListReleaseOrders returns all release orders, ordered by key.
func (v transactionView) ListReleaseOrders() []domain.ReleaseOrder {
	out := make([]domain.ReleaseOrder, 0, len(v.state.releaseOrders))
	for _, ro := range v.state.releaseOrders {
		out = append(out, cloneReleaseOrder(ro))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RONumber < out[j].RONumber })
	return out
}

// ListDeliveryOrders returns all delivery orders, ordered by key.
func (v transactionView) ListDeliveryOrders() []domain.DeliveryOrder {
	out := make([]domain.DeliveryOrder, 0, len(v.state.deliveryOrders))
	for _, do := range v.state.deliveryOrders {
		out = append(out, do)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DONumber < out[j].DONumber })
	return out
}

// ListProductionRequests returns all production requests, ordered by key.
func (v transactionView) ListProductionRequests() []domain.ProductionRequest {
	out := make([]domain.ProductionRequest, 0, len(v.state.productionRequests))
	for _, pr := range v.state.productionRequests {
		out = append(out, pr)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PRNumber < out[j].PRNumber })
	return out
}

// ListSamplings returns all sampling aggregates, ordered by id.
func (v transactionView) ListSamplings() []domain.DmtSampling {
	out := make([]domain.DmtSampling, 0, len(v.state.samplings))
	for _, s := range v.state.samplings {
		out = append(out, cloneSampling(s))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ListSuppliers returns all suppliers, ordered by code.
func (v transactionView) ListSuppliers() []domain.Supplier {
	out := make([]domain.Supplier, 0, len(v.state.suppliers))
	for _, s := range v.state.suppliers {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// ListMaterials returns all materials, ordered by code.
func (v transactionView) ListMaterials() []domain.Material {
	out := make([]domain.Material, 0, len(v.state.materials))
	for _, m := range v.state.materials {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// ListParameters returns all parameter definitions, ordered by code.
func (v transactionView) ListParameters() []domain.Parameter {
	out := make([]domain.Parameter, 0, len(v.state.parameters))
	for _, p := range v.state.parameters {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// ListIncomingChecks returns all incoming checks, ordered by id.
func (v transactionView) ListIncomingChecks() []domain.IncomingCheck {
	out := make([]domain.IncomingCheck, 0, len(v.state.incomingChecks))
	for _, c := range v.state.incomingChecks {
		out = append(out, cloneIncomingCheck(c))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// FindPackingList retrieves a packing list from the snapshot.
func (v transactionView) FindPackingList(plNumber string) (domain.PackingList, bool) {
	pl, ok := v.state.packingLists[plNumber]
	if !ok {
		return domain.PackingList{}, false
	}
	return clonePackingList(pl), true
}

// FindReleaseOrder retrieves a release order from the snapshot.
func (v transactionView) FindReleaseOrder(roNumber string) (domain.ReleaseOrder, bool) {
	ro, ok := v.state.releaseOrders[roNumber]
	if !ok {
		return domain.ReleaseOrder{}, false
	}
	return cloneReleaseOrder(ro), true
}

// FindDeliveryOrder retrieves a delivery order from the snapshot.
func (v transactionView) FindDeliveryOrder(doNumber string) (domain.DeliveryOrder, bool) {
	do, ok := v.state.deliveryOrders[doNumber]
	return do, ok
}

// FindProductionRequest retrieves a production request from the snapshot.
func (v transactionView) FindProductionRequest(prNumber string) (domain.ProductionRequest, bool) {
	pr, ok := v.state.productionRequests[prNumber]
	return pr, ok
}

// FindSampling retrieves a sampling aggregate from the snapshot.
func (v transactionView) FindSampling(id int64) (domain.DmtSampling, bool) {
	s, ok := v.state.samplings[id]
	if !ok {
		return domain.DmtSampling{}, false
	}
	return cloneSampling(s), true
}

// FindSupplier retrieves a supplier from the snapshot.
func (v transactionView) FindSupplier(code string) (domain.Supplier, bool) {
	s, ok := v.state.suppliers[code]
	return s, ok
}

// FindMaterial retrieves a material from the snapshot.
func (v transactionView) FindMaterial(code string) (domain.Material, bool) {
	m, ok := v.state.materials[code]
	return m, ok
}

// FindParameter retrieves a parameter definition from the snapshot.
func (v transactionView) FindParameter(code string) (domain.Parameter, bool) {
	p, ok := v.state.parameters[code]
	return p, ok
}
