// Package memory provides the in-memory implementation of the core
// persistence store used for tests and ephemeral environments. The durable
// drivers wrap it and snapshot its state after every successful commit.
package memory

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"

	"github.com/indofiz/qcms-data-structure-sub000/pkg/domain"
)

// Compile-time contract assertion ensuring memory.Store adheres to the
// domain persistence port.
var _ domain.PersistentStore = (*Store)(nil)

type memoryState struct {
	packingLists       map[string]domain.PackingList
	releaseOrders      map[string]domain.ReleaseOrder
	deliveryOrders     map[string]domain.DeliveryOrder
	productionRequests map[string]domain.ProductionRequest
	samplings          map[int64]domain.DmtSampling
	suppliers          map[string]domain.Supplier
	materials          map[string]domain.Material
	parameters         map[string]domain.Parameter
	incomingChecks     map[string]domain.IncomingCheck
	samplingSeq        int64
}

// Snapshot captures a point-in-time clone of the store state. The durable
// drivers marshal it to JSON buckets.
type Snapshot struct {
	PackingLists       map[string]domain.PackingList       `json:"packing_lists"`
	ReleaseOrders      map[string]domain.ReleaseOrder      `json:"release_orders"`
	DeliveryOrders     map[string]domain.DeliveryOrder     `json:"delivery_orders"`
	ProductionRequests map[string]domain.ProductionRequest `json:"production_requests"`
	Samplings          map[int64]domain.DmtSampling        `json:"samplings"`
	Suppliers          map[string]domain.Supplier          `json:"suppliers"`
	Materials          map[string]domain.Material          `json:"materials"`
	Parameters         map[string]domain.Parameter         `json:"parameters"`
	IncomingChecks     map[string]domain.IncomingCheck     `json:"incoming_checks"`
	SamplingSeq        int64                               `json:"sampling_seq"`
}

func newMemoryState() memoryState {
	return memoryState{
		packingLists:       make(map[string]domain.PackingList),
		releaseOrders:      make(map[string]domain.ReleaseOrder),
		deliveryOrders:     make(map[string]domain.DeliveryOrder),
		productionRequests: make(map[string]domain.ProductionRequest),
		samplings:          make(map[int64]domain.DmtSampling),
		suppliers:          make(map[string]domain.Supplier),
		materials:          make(map[string]domain.Material),
		parameters:         make(map[string]domain.Parameter),
		incomingChecks:     make(map[string]domain.IncomingCheck),
	}
}

func (s memoryState) clone() memoryState {
	cloned := newMemoryState()
	cloned.samplingSeq = s.samplingSeq
	for k, v := range s.packingLists {
		cloned.packingLists[k] = clonePackingList(v)
	}
	for k, v := range s.releaseOrders {
		cloned.releaseOrders[k] = cloneReleaseOrder(v)
	}
	for k, v := range s.deliveryOrders {
		cloned.deliveryOrders[k] = v
	}
	for k, v := range s.productionRequests {
		cloned.productionRequests[k] = v
	}
	for k, v := range s.samplings {
		cloned.samplings[k] = cloneSampling(v)
	}
	for k, v := range s.suppliers {
		cloned.suppliers[k] = v
	}
	for k, v := range s.materials {
		cloned.materials[k] = v
	}
	for k, v := range s.parameters {
		cloned.parameters[k] = v
	}
	for k, v := range s.incomingChecks {
		cloned.incomingChecks[k] = cloneIncomingCheck(v)
	}
	return cloned
}

func clonePackingList(pl domain.PackingList) domain.PackingList {
	cp := pl
	cp.Goods = append([]domain.OrderingGood(nil), pl.Goods...)
	cp.SignedBy = cloneSignoff(pl.SignedBy)
	return cp
}

func cloneReleaseOrder(ro domain.ReleaseOrder) domain.ReleaseOrder {
	cp := ro
	cp.WhSigned = cloneSignoff(ro.WhSigned)
	cp.QcSigned = cloneSignoff(ro.QcSigned)
	return cp
}

func cloneSignoff(s *domain.Signoff) *domain.Signoff {
	if s == nil {
		return nil
	}
	cp := *s
	return &cp
}

func cloneSampling(s domain.DmtSampling) domain.DmtSampling {
	cp := s
	cp.ReactorOne = append([]domain.ReactorRecord(nil), s.ReactorOne...)
	cp.ReactorTwo = append([]domain.ReactorRecord(nil), s.ReactorTwo...)
	cp.Transfers = make([]domain.TransferProcess, len(s.Transfers))
	for i, t := range s.Transfers {
		cp.Transfers[i] = t
		if t.FinishedAt != nil {
			finished := *t.FinishedAt
			cp.Transfers[i].FinishedAt = &finished
		}
	}
	cp.Analyses = make([]domain.AnalysisSampling, len(s.Analyses))
	for i, a := range s.Analyses {
		cp.Analyses[i] = a
		cp.Analyses[i].Values = append([]domain.ParameterValue(nil), a.Values...)
	}
	return cp
}

func cloneIncomingCheck(c domain.IncomingCheck) domain.IncomingCheck {
	cp := c
	if c.Notes != nil {
		notes := *c.Notes
		cp.Notes = &notes
	}
	return cp
}

// Store provides an in-memory transactional store for the core domain.
type Store struct {
	mu     sync.RWMutex
	state  memoryState
	engine *domain.RulesEngine
	nowFn  func() time.Time
}

// NewStore constructs an in-memory store backed by the provided rules
// engine. A nil engine disables rule evaluation.
func NewStore(engine *domain.RulesEngine) *Store {
	if engine == nil {
		engine = domain.NewRulesEngine()
	}
	return &Store{
		state:  newMemoryState(),
		engine: engine,
		nowFn:  func() time.Time { return time.Now().UTC() },
	}
}

// SetClock overrides the transaction timestamp source; used by tests.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nowFn = now
}

func newID() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(err)
	}
	return hex.EncodeToString(b[:])
}

// NewID returns a random identifier for sub-records.
func NewID() string { return newID() }

// Transaction is a mutation set applied to a cloned copy of the state.
type Transaction struct {
	state   memoryState
	changes []domain.Change
	now     time.Time
}

var _ domain.Transaction = (*Transaction)(nil)

// transactionView exposes a read-only snapshot of transactional state.
type transactionView struct {
	state *memoryState
}

var _ domain.TransactionView = transactionView{}

// RunInTransaction executes fn within a transactional copy of the store
// state. The copy replaces the live state only if fn succeeds and no rule
// blocks the commit.
func (s *Store) RunInTransaction(ctx context.Context, fn func(domain.Transaction) error) (domain.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &Transaction{
		state: s.state.clone(),
		now:   s.nowFn(),
	}

	if err := fn(tx); err != nil {
		return domain.Result{}, err
	}
	if err := ctx.Err(); err != nil {
		return domain.Result{}, err
	}

	var result domain.Result
	if s.engine != nil {
		view := transactionView{state: &tx.state}
		res, err := s.engine.Evaluate(ctx, view, tx.changes)
		if err != nil {
			return domain.Result{}, err
		}
		result = res
		if res.HasBlocking() {
			return res, domain.RuleViolationError{Result: res}
		}
	}

	s.state = tx.state
	return result, nil
}

// View executes fn against a read-only snapshot of the store state.
func (s *Store) View(_ context.Context, fn func(domain.TransactionView) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := s.state.clone()
	return fn(transactionView{state: &snapshot})
}

// Snapshot returns a read-only view of the transactional state.
func (tx *Transaction) Snapshot() domain.TransactionView {
	return transactionView{state: &tx.state}
}

func (tx *Transaction) recordChange(change domain.Change) {
	tx.changes = append(tx.changes, change)
}

// Changes returns the mutations captured so far; used by tests.
func (tx *Transaction) Changes() []domain.Change {
	return append([]domain.Change(nil), tx.changes...)
}

func checkVersion(entity domain.EntityType, key string, expected, current int64) error {
	if expected > 0 && expected != current {
		return domain.NewError(domain.ErrConflict, entity, key, "version %d does not match current %d", expected, current)
	}
	return nil
}

// CreatePackingList stores a new packing list within the transaction.
func (tx *Transaction) CreatePackingList(pl domain.PackingList) (domain.PackingList, error) {
	if pl.PLNumber == "" {
		return domain.PackingList{}, domain.NewError(domain.ErrValidation, domain.EntityPackingList, "", "pl_number is required")
	}
	if _, exists := tx.state.packingLists[pl.PLNumber]; exists {
		return domain.PackingList{}, domain.NewError(domain.ErrValidation, domain.EntityPackingList, pl.PLNumber, "already exists")
	}
	pl.CreatedAt = tx.now
	pl.UpdatedAt = tx.now
	pl.Version = 1
	tx.state.packingLists[pl.PLNumber] = clonePackingList(pl)
	tx.recordChange(domain.Change{Entity: domain.EntityPackingList, Action: domain.ActionCreate, After: clonePackingList(pl)})
	return clonePackingList(pl), nil
}

// UpdatePackingList mutates a packing list under the version precondition.
func (tx *Transaction) UpdatePackingList(plNumber string, expected int64, mutator func(*domain.PackingList) error) (domain.PackingList, error) {
	current, ok := tx.state.packingLists[plNumber]
	if !ok {
		return domain.PackingList{}, domain.NewError(domain.ErrNotFound, domain.EntityPackingList, plNumber, "not found")
	}
	if err := checkVersion(domain.EntityPackingList, plNumber, expected, current.Version); err != nil {
		return domain.PackingList{}, err
	}
	before := clonePackingList(current)
	if err := mutator(&current); err != nil {
		return domain.PackingList{}, err
	}
	current.PLNumber = plNumber
	current.UpdatedAt = tx.now
	current.Version = before.Version + 1
	tx.state.packingLists[plNumber] = clonePackingList(current)
	tx.recordChange(domain.Change{Entity: domain.EntityPackingList, Action: domain.ActionUpdate, Before: before, After: clonePackingList(current)})
	return clonePackingList(current), nil
}

// DeletePackingList removes a packing list from the transaction state.
func (tx *Transaction) DeletePackingList(plNumber string) error {
	current, ok := tx.state.packingLists[plNumber]
	if !ok {
		return domain.NewError(domain.ErrNotFound, domain.EntityPackingList, plNumber, "not found")
	}
	delete(tx.state.packingLists, plNumber)
	tx.recordChange(domain.Change{Entity: domain.EntityPackingList, Action: domain.ActionDelete, Before: clonePackingList(current)})
	return nil
}

// CreateReleaseOrder stores a new release order.
func (tx *Transaction) CreateReleaseOrder(ro domain.ReleaseOrder) (domain.ReleaseOrder, error) {
	if ro.RONumber == "" {
		return domain.ReleaseOrder{}, domain.NewError(domain.ErrValidation, domain.EntityReleaseOrder, "", "ro_number is required")
	}
	if _, exists := tx.state.releaseOrders[ro.RONumber]; exists {
		return domain.ReleaseOrder{}, domain.NewError(domain.ErrValidation, domain.EntityReleaseOrder, ro.RONumber, "already exists")
	}
	ro.CreatedAt = tx.now
	ro.UpdatedAt = tx.now
	ro.Version = 1
	tx.state.releaseOrders[ro.RONumber] = cloneReleaseOrder(ro)
	tx.recordChange(domain.Change{Entity: domain.EntityReleaseOrder, Action: domain.ActionCreate, After: cloneReleaseOrder(ro)})
	return cloneReleaseOrder(ro), nil
}

// UpdateReleaseOrder mutates a release order under the version precondition.
func (tx *Transaction) UpdateReleaseOrder(roNumber string, expected int64, mutator func(*domain.ReleaseOrder) error) (domain.ReleaseOrder, error) {
	current, ok := tx.state.releaseOrders[roNumber]
	if !ok {
		return domain.ReleaseOrder{}, domain.NewError(domain.ErrNotFound, domain.EntityReleaseOrder, roNumber, "not found")
	}
	if err := checkVersion(domain.EntityReleaseOrder, roNumber, expected, current.Version); err != nil {
		return domain.ReleaseOrder{}, err
	}
	before := cloneReleaseOrder(current)
	if err := mutator(&current); err != nil {
		return domain.ReleaseOrder{}, err
	}
	current.RONumber = roNumber
	current.UpdatedAt = tx.now
	current.Version = before.Version + 1
	tx.state.releaseOrders[roNumber] = cloneReleaseOrder(current)
	tx.recordChange(domain.Change{Entity: domain.EntityReleaseOrder, Action: domain.ActionUpdate, Before: before, After: cloneReleaseOrder(current)})
	return cloneReleaseOrder(current), nil
}

// DeleteReleaseOrder removes a release order.
func (tx *Transaction) DeleteReleaseOrder(roNumber string) error {
	current, ok := tx.state.releaseOrders[roNumber]
	if !ok {
		return domain.NewError(domain.ErrNotFound, domain.EntityReleaseOrder, roNumber, "not found")
	}
	delete(tx.state.releaseOrders, roNumber)
	tx.recordChange(domain.Change{Entity: domain.EntityReleaseOrder, Action: domain.ActionDelete, Before: cloneReleaseOrder(current)})
	return nil
}

// CreateDeliveryOrder stores a new delivery order.
func (tx *Transaction) CreateDeliveryOrder(do domain.DeliveryOrder) (domain.DeliveryOrder, error) {
	if do.DONumber == "" {
		return domain.DeliveryOrder{}, domain.NewError(domain.ErrValidation, domain.EntityDeliveryOrder, "", "do_number is required")
	}
	if _, exists := tx.state.deliveryOrders[do.DONumber]; exists {
		return domain.DeliveryOrder{}, domain.NewError(domain.ErrValidation, domain.EntityDeliveryOrder, do.DONumber, "already exists")
	}
	do.CreatedAt = tx.now
	do.UpdatedAt = tx.now
	do.Version = 1
	tx.state.deliveryOrders[do.DONumber] = do
	tx.recordChange(domain.Change{Entity: domain.EntityDeliveryOrder, Action: domain.ActionCreate, After: do})
	return do, nil
}

// UpdateDeliveryOrder mutates a delivery order under the version precondition.
func (tx *Transaction) UpdateDeliveryOrder(doNumber string, expected int64, mutator func(*domain.DeliveryOrder) error) (domain.DeliveryOrder, error) {
	current, ok := tx.state.deliveryOrders[doNumber]
	if !ok {
		return domain.DeliveryOrder{}, domain.NewError(domain.ErrNotFound, domain.EntityDeliveryOrder, doNumber, "not found")
	}
	if err := checkVersion(domain.EntityDeliveryOrder, doNumber, expected, current.Version); err != nil {
		return domain.DeliveryOrder{}, err
	}
	before := current
	if err := mutator(&current); err != nil {
		return domain.DeliveryOrder{}, err
	}
	current.DONumber = doNumber
	current.UpdatedAt = tx.now
	current.Version = before.Version + 1
	tx.state.deliveryOrders[doNumber] = current
	tx.recordChange(domain.Change{Entity: domain.EntityDeliveryOrder, Action: domain.ActionUpdate, Before: before, After: current})
	return current, nil
}

// DeleteDeliveryOrder removes a delivery order.
func (tx *Transaction) DeleteDeliveryOrder(doNumber string) error {
	current, ok := tx.state.deliveryOrders[doNumber]
	if !ok {
		return domain.NewError(domain.ErrNotFound, domain.EntityDeliveryOrder, doNumber, "not found")
	}
	delete(tx.state.deliveryOrders, doNumber)
	tx.recordChange(domain.Change{Entity: domain.EntityDeliveryOrder, Action: domain.ActionDelete, Before: current})
	return nil
}

// CreateProductionRequest stores a new production request.
func (tx *Transaction) CreateProductionRequest(pr domain.ProductionRequest) (domain.ProductionRequest, error) {
	if pr.PRNumber == "" {
		return domain.ProductionRequest{}, domain.NewError(domain.ErrValidation, domain.EntityProductionRequest, "", "pr_number is required")
	}
	if _, exists := tx.state.productionRequests[pr.PRNumber]; exists {
		return domain.ProductionRequest{}, domain.NewError(domain.ErrValidation, domain.EntityProductionRequest, pr.PRNumber, "already exists")
	}
	pr.CreatedAt = tx.now
	pr.UpdatedAt = tx.now
	pr.Version = 1
	tx.state.productionRequests[pr.PRNumber] = pr
	tx.recordChange(domain.Change{Entity: domain.EntityProductionRequest, Action: domain.ActionCreate, After: pr})
	return pr, nil
}

// UpdateProductionRequest mutates a production request.
func (tx *Transaction) UpdateProductionRequest(prNumber string, expected int64, mutator func(*domain.ProductionRequest) error) (domain.ProductionRequest, error) {
	current, ok := tx.state.productionRequests[prNumber]
	if !ok {
		return domain.ProductionRequest{}, domain.NewError(domain.ErrNotFound, domain.EntityProductionRequest, prNumber, "not found")
	}
	if err := checkVersion(domain.EntityProductionRequest, prNumber, expected, current.Version); err != nil {
		return domain.ProductionRequest{}, err
	}
	before := current
	if err := mutator(&current); err != nil {
		return domain.ProductionRequest{}, err
	}
	current.PRNumber = prNumber
	current.UpdatedAt = tx.now
	current.Version = before.Version + 1
	tx.state.productionRequests[prNumber] = current
	tx.recordChange(domain.Change{Entity: domain.EntityProductionRequest, Action: domain.ActionUpdate, Before: before, After: current})
	return current, nil
}

// CreateSampling stores a new sampling aggregate, assigning the next
// sequence id when none is supplied.
func (tx *Transaction) CreateSampling(s domain.DmtSampling) (domain.DmtSampling, error) {
	if s.ID == 0 {
		tx.state.samplingSeq++
		s.ID = tx.state.samplingSeq
	} else if s.ID > tx.state.samplingSeq {
		tx.state.samplingSeq = s.ID
	}
	if _, exists := tx.state.samplings[s.ID]; exists {
		return domain.DmtSampling{}, domain.NewError(domain.ErrValidation, domain.EntityDmtSampling, formatSamplingID(s.ID), "already exists")
	}
	s.CreatedAt = tx.now
	s.UpdatedAt = tx.now
	s.Version = 1
	tx.state.samplings[s.ID] = cloneSampling(s)
	tx.recordChange(domain.Change{Entity: domain.EntityDmtSampling, Action: domain.ActionCreate, After: cloneSampling(s)})
	return cloneSampling(s), nil
}

// UpdateSampling mutates a sampling aggregate under the version precondition.
func (tx *Transaction) UpdateSampling(id int64, expected int64, mutator func(*domain.DmtSampling) error) (domain.DmtSampling, error) {
	current, ok := tx.state.samplings[id]
	if !ok {
		return domain.DmtSampling{}, domain.NewError(domain.ErrNotFound, domain.EntityDmtSampling, formatSamplingID(id), "not found")
	}
	if err := checkVersion(domain.EntityDmtSampling, formatSamplingID(id), expected, current.Version); err != nil {
		return domain.DmtSampling{}, err
	}
	before := cloneSampling(current)
	if err := mutator(&current); err != nil {
		return domain.DmtSampling{}, err
	}
	current.ID = id
	current.UpdatedAt = tx.now
	current.Version = before.Version + 1
	tx.state.samplings[id] = cloneSampling(current)
	tx.recordChange(domain.Change{Entity: domain.EntityDmtSampling, Action: domain.ActionUpdate, Before: before, After: cloneSampling(current)})
	return cloneSampling(current), nil
}

// CreateSupplier stores a supplier master record.
func (tx *Transaction) CreateSupplier(sup domain.Supplier) (domain.Supplier, error) {
	if sup.Code == "" {
		return domain.Supplier{}, domain.NewError(domain.ErrValidation, domain.EntitySupplier, "", "code is required")
	}
	if _, exists := tx.state.suppliers[sup.Code]; exists {
		return domain.Supplier{}, domain.NewError(domain.ErrValidation, domain.EntitySupplier, sup.Code, "already exists")
	}
	sup.CreatedAt = tx.now
	sup.UpdatedAt = tx.now
	sup.Version = 1
	tx.state.suppliers[sup.Code] = sup
	tx.recordChange(domain.Change{Entity: domain.EntitySupplier, Action: domain.ActionCreate, After: sup})
	return sup, nil
}

// DeleteSupplier removes a supplier master record.
func (tx *Transaction) DeleteSupplier(code string) error {
	current, ok := tx.state.suppliers[code]
	if !ok {
		return domain.NewError(domain.ErrNotFound, domain.EntitySupplier, code, "not found")
	}
	delete(tx.state.suppliers, code)
	tx.recordChange(domain.Change{Entity: domain.EntitySupplier, Action: domain.ActionDelete, Before: current})
	return nil
}

// CreateMaterial stores a material master record.
func (tx *Transaction) CreateMaterial(m domain.Material) (domain.Material, error) {
	if m.Code == "" {
		return domain.Material{}, domain.NewError(domain.ErrValidation, domain.EntityMaterial, "", "code is required")
	}
	if _, exists := tx.state.materials[m.Code]; exists {
		return domain.Material{}, domain.NewError(domain.ErrValidation, domain.EntityMaterial, m.Code, "already exists")
	}
	m.CreatedAt = tx.now
	m.UpdatedAt = tx.now
	m.Version = 1
	tx.state.materials[m.Code] = m
	tx.recordChange(domain.Change{Entity: domain.EntityMaterial, Action: domain.ActionCreate, After: m})
	return m, nil
}

// DeleteMaterial removes a material master record.
func (tx *Transaction) DeleteMaterial(code string) error {
	current, ok := tx.state.materials[code]
	if !ok {
		return domain.NewError(domain.ErrNotFound, domain.EntityMaterial, code, "not found")
	}
	delete(tx.state.materials, code)
	tx.recordChange(domain.Change{Entity: domain.EntityMaterial, Action: domain.ActionDelete, Before: current})
	return nil
}

// CreateParameter stores an analysis parameter definition.
func (tx *Transaction) CreateParameter(p domain.Parameter) (domain.Parameter, error) {
	if p.Code == "" {
		return domain.Parameter{}, domain.NewError(domain.ErrValidation, domain.EntityParameter, "", "code is required")
	}
	if _, exists := tx.state.parameters[p.Code]; exists {
		return domain.Parameter{}, domain.NewError(domain.ErrValidation, domain.EntityParameter, p.Code, "already exists")
	}
	p.CreatedAt = tx.now
	p.UpdatedAt = tx.now
	p.Version = 1
	tx.state.parameters[p.Code] = p
	tx.recordChange(domain.Change{Entity: domain.EntityParameter, Action: domain.ActionCreate, After: p})
	return p, nil
}

// DeleteParameter removes a parameter definition.
func (tx *Transaction) DeleteParameter(code string) error {
	current, ok := tx.state.parameters[code]
	if !ok {
		return domain.NewError(domain.ErrNotFound, domain.EntityParameter, code, "not found")
	}
	delete(tx.state.parameters, code)
	tx.recordChange(domain.Change{Entity: domain.EntityParameter, Action: domain.ActionDelete, Before: current})
	return nil
}

// CreateIncomingCheck stores a goods-receipt check record.
func (tx *Transaction) CreateIncomingCheck(c domain.IncomingCheck) (domain.IncomingCheck, error) {
	if c.ID == "" {
		c.ID = newID()
	}
	if _, exists := tx.state.incomingChecks[c.ID]; exists {
		return domain.IncomingCheck{}, domain.NewError(domain.ErrValidation, domain.EntityIncomingCheck, c.ID, "already exists")
	}
	c.CreatedAt = tx.now
	c.UpdatedAt = tx.now
	c.Version = 1
	tx.state.incomingChecks[c.ID] = cloneIncomingCheck(c)
	tx.recordChange(domain.Change{Entity: domain.EntityIncomingCheck, Action: domain.ActionCreate, After: cloneIncomingCheck(c)})
	return cloneIncomingCheck(c), nil
}
