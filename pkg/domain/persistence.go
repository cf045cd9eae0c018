package domain

import "context"

// Page bounds a list query. A zero Limit means no limit.
type Page struct {
	Offset int
	Limit  int
}

// PackingListFilter narrows packing list queries. Zero values match all.
type PackingListFilter struct {
	Status   PackingListStatus
	StatusPL PackingProgress
	Page     Page
}

// ReleaseOrderFilter narrows release order queries.
type ReleaseOrderFilter struct {
	PLNumber string
	Status   ReleaseOrderStatus
	Page     Page
}

// DeliveryOrderFilter narrows delivery order queries.
type DeliveryOrderFilter struct {
	RONumber string
	Status   DeliveryOrderStatus
	Page     Page
}

// SamplingFilter narrows sampling queries.
type SamplingFilter struct {
	LineNumber string
	Status     SamplingStatus
	Page       Page
}

// Transaction exposes the domain mutations a persistence implementation
// must support within an atomic scope. Update operations take the expected
// version of the record; a non-positive value skips the check, a mismatch
// fails with a Conflict error and nothing is applied.
type Transaction interface {
	Snapshot() TransactionView

	CreatePackingList(PackingList) (PackingList, error)
	UpdatePackingList(plNumber string, expected int64, mutator func(*PackingList) error) (PackingList, error)
	DeletePackingList(plNumber string) error

	CreateReleaseOrder(ReleaseOrder) (ReleaseOrder, error)
	UpdateReleaseOrder(roNumber string, expected int64, mutator func(*ReleaseOrder) error) (ReleaseOrder, error)
	DeleteReleaseOrder(roNumber string) error

	CreateDeliveryOrder(DeliveryOrder) (DeliveryOrder, error)
	UpdateDeliveryOrder(doNumber string, expected int64, mutator func(*DeliveryOrder) error) (DeliveryOrder, error)
	DeleteDeliveryOrder(doNumber string) error

	CreateProductionRequest(ProductionRequest) (ProductionRequest, error)
	UpdateProductionRequest(prNumber string, expected int64, mutator func(*ProductionRequest) error) (ProductionRequest, error)

	CreateSampling(DmtSampling) (DmtSampling, error)
	UpdateSampling(id int64, expected int64, mutator func(*DmtSampling) error) (DmtSampling, error)

	CreateSupplier(Supplier) (Supplier, error)
	DeleteSupplier(code string) error
	CreateMaterial(Material) (Material, error)
	DeleteMaterial(code string) error
	CreateParameter(Parameter) (Parameter, error)
	DeleteParameter(code string) error
	CreateIncomingCheck(IncomingCheck) (IncomingCheck, error)
}

// TransactionView provides read-only access to snapshot data for rules and
// precondition checks.
type TransactionView interface {
	RuleView
}

// PersistentStore is the persistence port consumed by the managers. A
// transaction is all-or-nothing: on any error nothing is applied, and
// blocking rule violations abort the commit.
type PersistentStore interface {
	RunInTransaction(ctx context.Context, fn func(Transaction) error) (Result, error)
	View(ctx context.Context, fn func(TransactionView) error) error

	GetPackingList(plNumber string) (PackingList, bool)
	GetReleaseOrder(roNumber string) (ReleaseOrder, bool)
	GetDeliveryOrder(doNumber string) (DeliveryOrder, bool)
	GetProductionRequest(prNumber string) (ProductionRequest, bool)
	GetSampling(id int64) (DmtSampling, bool)
	GetSupplier(code string) (Supplier, bool)
	GetMaterial(code string) (Material, bool)
	GetParameter(code string) (Parameter, bool)

	QueryPackingLists(filter PackingListFilter) []PackingList
	QueryReleaseOrders(filter ReleaseOrderFilter) []ReleaseOrder
	QueryDeliveryOrders(filter DeliveryOrderFilter) []DeliveryOrder
	QuerySamplings(filter SamplingFilter) []DmtSampling
	ListSuppliers() []Supplier
	ListMaterials() []Material
	ListParameters() []Parameter
	ListIncomingChecks() []IncomingCheck
}
