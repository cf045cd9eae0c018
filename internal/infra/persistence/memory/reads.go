package memory

import (
	"github.com/indofiz/qcms-data-structure-sub000/pkg/domain"
)

// GetPackingList retrieves a packing list from committed state.
func (s *Store) GetPackingList(plNumber string) (domain.PackingList, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pl, ok := s.state.packingLists[plNumber]
	if !ok {
		return domain.PackingList{}, false
	}
	return clonePackingList(pl), true
}

// GetReleaseOrder retrieves a release order from committed state.
func (s *Store) GetReleaseOrder(roNumber string) (domain.ReleaseOrder, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ro, ok := s.state.releaseOrders[roNumber]
	if !ok {
		return domain.ReleaseOrder{}, false
	}
	return cloneReleaseOrder(ro), true
}

// GetDeliveryOrder retrieves a delivery order from committed state.
func (s *Store) GetDeliveryOrder(doNumber string) (domain.DeliveryOrder, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	do, ok := s.state.deliveryOrders[doNumber]
	return do, ok
}

// GetProductionRequest retrieves a production request from committed state.
func (s *Store) GetProductionRequest(prNumber string) (domain.ProductionRequest, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pr, ok := s.state.productionRequests[prNumber]
	return pr, ok
}

// GetSampling retrieves a sampling aggregate from committed state.
func (s *Store) GetSampling(id int64) (domain.DmtSampling, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sm, ok := s.state.samplings[id]
	if !ok {
		return domain.DmtSampling{}, false
	}
	return cloneSampling(sm), true
}

// GetSupplier retrieves a supplier from committed state.
func (s *Store) GetSupplier(code string) (domain.Supplier, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sup, ok := s.state.suppliers[code]
	return sup, ok
}

// GetMaterial retrieves a material from committed state.
func (s *Store) GetMaterial(code string) (domain.Material, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.state.materials[code]
	return m, ok
}

// GetParameter retrieves a parameter definition from committed state.
func (s *Store) GetParameter(code string) (domain.Parameter, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.state.parameters[code]
	return p, ok
}

func paginate[T any](in []T, page domain.Page) []T {
	if page.Offset > 0 {
		if page.Offset >= len(in) {
			return nil
		}
		in = in[page.Offset:]
	}
	if page.Limit > 0 && page.Limit < len(in) {
		in = in[:page.Limit]
	}
	return in
}

// QueryPackingLists returns packing lists matching the filter, ordered by key.
func (s *Store) QueryPackingLists(filter domain.PackingListFilter) []domain.PackingList {
	s.mu.RLock()
	snapshot := s.state.clone()
	s.mu.RUnlock()
	all := transactionView{state: &snapshot}.ListPackingLists()
	out := all[:0]
	for _, pl := range all {
		if filter.Status != "" && pl.Status != filter.Status {
			continue
		}
		if filter.StatusPL != "" && pl.StatusPL != filter.StatusPL {
			continue
		}
		out = append(out, pl)
	}
	return paginate(out, filter.Page)
}

// QueryReleaseOrders returns release orders matching the filter, ordered by key.
func (s *Store) QueryReleaseOrders(filter domain.ReleaseOrderFilter) []domain.ReleaseOrder {
	s.mu.RLock()
	snapshot := s.state.clone()
	s.mu.RUnlock()
	all := transactionView{state: &snapshot}.ListReleaseOrders()
	out := all[:0]
	for _, ro := range all {
		if filter.PLNumber != "" && ro.PLNumber != filter.PLNumber {
			continue
		}
		if filter.Status != "" && ro.Status != filter.Status {
			continue
		}
		out = append(out, ro)
	}
	return paginate(out, filter.Page)
}

// QueryDeliveryOrders returns delivery orders matching the filter, ordered by key.
func (s *Store) QueryDeliveryOrders(filter domain.DeliveryOrderFilter) []domain.DeliveryOrder {
	s.mu.RLock()
	snapshot := s.state.clone()
	s.mu.RUnlock()
	all := transactionView{state: &snapshot}.ListDeliveryOrders()
	out := all[:0]
	for _, do := range all {
		if filter.RONumber != "" && do.RONumber != filter.RONumber {
			continue
		}
		if filter.Status != "" && do.Status != filter.Status {
			continue
		}
		out = append(out, do)
	}
	return paginate(out, filter.Page)
}

// QuerySamplings returns sampling aggregates matching the filter, ordered by id.
func (s *Store) QuerySamplings(filter domain.SamplingFilter) []domain.DmtSampling {
	s.mu.RLock()
	snapshot := s.state.clone()
	s.mu.RUnlock()
	all := transactionView{state: &snapshot}.ListSamplings()
	out := all[:0]
	for _, sm := range all {
		if filter.LineNumber != "" && sm.LineNumber != filter.LineNumber {
			continue
		}
		if filter.Status != "" && sm.Status != filter.Status {
			continue
		}
		out = append(out, sm)
	}
	return paginate(out, filter.Page)
}

// ListSuppliers returns all suppliers from committed state.
func (s *Store) ListSuppliers() []domain.Supplier {
	s.mu.RLock()
	snapshot := s.state.clone()
	s.mu.RUnlock()
	return transactionView{state: &snapshot}.ListSuppliers()
}

// ListMaterials returns all materials from committed state.
func (s *Store) ListMaterials() []domain.Material {
	s.mu.RLock()
	snapshot := s.state.clone()
	s.mu.RUnlock()
	return transactionView{state: &snapshot}.ListMaterials()
}

// ListParameters returns all parameter definitions from committed state.
func (s *Store) ListParameters() []domain.Parameter {
	s.mu.RLock()
	snapshot := s.state.clone()
	s.mu.RUnlock()
	return transactionView{state: &snapshot}.ListParameters()
}

// ListIncomingChecks returns all incoming checks from committed state.
func (s *Store) ListIncomingChecks() []domain.IncomingCheck {
	s.mu.RLock()
	snapshot := s.state.clone()
	s.mu.RUnlock()
	return transactionView{state: &snapshot}.ListIncomingChecks()
}

// ExportState returns a snapshot of the committed state for durable drivers.
func (s *Store) ExportState() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state := s.state.clone()
	return Snapshot{
		PackingLists:       state.packingLists,
		ReleaseOrders:      state.releaseOrders,
		DeliveryOrders:     state.deliveryOrders,
		ProductionRequests: state.productionRequests,
		Samplings:          state.samplings,
		Suppliers:          state.suppliers,
		Materials:          state.materials,
		Parameters:         state.parameters,
		IncomingChecks:     state.incomingChecks,
		SamplingSeq:        state.samplingSeq,
	}
}

// ImportState replaces the committed state with the snapshot contents.
func (s *Store) ImportState(snapshot Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state := newMemoryState()
	for k, v := range snapshot.PackingLists {
		state.packingLists[k] = clonePackingList(v)
	}
	for k, v := range snapshot.ReleaseOrders {
		state.releaseOrders[k] = cloneReleaseOrder(v)
	}
	for k, v := range snapshot.DeliveryOrders {
		state.deliveryOrders[k] = v
	}
	for k, v := range snapshot.ProductionRequests {
		state.productionRequests[k] = v
	}
	for k, v := range snapshot.Samplings {
		state.samplings[k] = cloneSampling(v)
		if k > state.samplingSeq {
			state.samplingSeq = k
		}
	}
	for k, v := range snapshot.Suppliers {
		state.suppliers[k] = v
	}
	for k, v := range snapshot.Materials {
		state.materials[k] = v
	}
	for k, v := range snapshot.Parameters {
		state.parameters[k] = v
	}
	for k, v := range snapshot.IncomingChecks {
		state.incomingChecks[k] = cloneIncomingCheck(v)
	}
	if snapshot.SamplingSeq > state.samplingSeq {
		state.samplingSeq = snapshot.SamplingSeq
	}
	s.state = state
}
