// Package domain defines the persistent entities, status machinery, and
// rule evaluation primitives shared by the qcms core.
package domain

import "time"

// EntityType identifies the type of record stored in the core domain.
type EntityType string

// Supported entity type identifiers used in Change records and persistence buckets.
const (
	// EntityPackingList identifies a packing list document.
	EntityPackingList EntityType = "packing_list"
	// EntityReleaseOrder identifies a release order document.
	EntityReleaseOrder EntityType = "release_order"
	// EntityDeliveryOrder identifies a delivery order document.
	EntityDeliveryOrder EntityType = "delivery_order"
	// EntityProductionRequest identifies a production request order.
	EntityProductionRequest EntityType = "production_request"
	// EntityDmtSampling identifies a DMT sampling aggregate.
	EntityDmtSampling EntityType = "dmt_sampling"
	// EntitySupplier identifies a supplier master record.
	EntitySupplier EntityType = "supplier"
	// EntityMaterial identifies a material master record.
	EntityMaterial EntityType = "material"
	// EntityParameter identifies an analysis parameter definition.
	EntityParameter EntityType = "parameter"
	// EntityIncomingCheck identifies a goods-receipt check record.
	EntityIncomingCheck EntityType = "incoming_check"
)

// PackingListStatus enumerates the overall packing list workflow states.
type PackingListStatus string

// Canonical packing list statuses. Shipped and cancelled are terminal.
const (
	PackingListOpen      PackingListStatus = "open"
	PackingListPacked    PackingListStatus = "packed"
	PackingListShipped   PackingListStatus = "shipped"
	PackingListCancelled PackingListStatus = "cancelled"
)

// PackingProgress enumerates the packing-specific status axis (status_pl).
type PackingProgress string

// Packing progress states for the second packing list axis.
const (
	PackingPending    PackingProgress = "pending"
	PackingOnProgress PackingProgress = "on_progress"
	PackingDone       PackingProgress = "done"
)

// ReleaseOrderStatus enumerates release order workflow states.
type ReleaseOrderStatus string

// Canonical release order statuses used by the checklist workflow.
const (
	ReleaseOrderWaiting    ReleaseOrderStatus = "waiting"
	ReleaseOrderProcessing ReleaseOrderStatus = "processing"
	ReleaseOrderFinished   ReleaseOrderStatus = "finished"
	ReleaseOrderCancelled  ReleaseOrderStatus = "cancelled"
)

// DeliveryOrderStatus enumerates delivery order workflow states.
type DeliveryOrderStatus string

// Canonical delivery order statuses.
const (
	DeliveryOrderWaiting    DeliveryOrderStatus = "waiting"
	DeliveryOrderOnDelivery DeliveryOrderStatus = "on_delivery"
	DeliveryOrderDelivered  DeliveryOrderStatus = "delivered"
	DeliveryOrderCancelled  DeliveryOrderStatus = "cancelled"
)

// ProductionRequestStatus enumerates production request states.
type ProductionRequestStatus string

// Production request statuses move strictly forward.
const (
	ProductionRequestWaiting    ProductionRequestStatus = "waiting"
	ProductionRequestProcessing ProductionRequestStatus = "processing"
	ProductionRequestFinished   ProductionRequestStatus = "finished"
)

// SamplingStatus enumerates aggregate DMT sampling states. The value is
// derived from the analysis entries and never commanded directly.
type SamplingStatus string

// Aggregate sampling statuses.
const (
	SamplingWaiting    SamplingStatus = "waiting"
	SamplingProcessing SamplingStatus = "processing"
	SamplingFinished   SamplingStatus = "finished"
)

// AnalysisOutcome enumerates per-sample analysis outcomes.
type AnalysisOutcome string

// Analysis outcomes; passed and not_passed are terminal.
const (
	AnalysisPending   AnalysisOutcome = "pending"
	AnalysisPassed    AnalysisOutcome = "passed"
	AnalysisNotPassed AnalysisOutcome = "not_passed"
)

// ReactorTag distinguishes the two production reactors.
type ReactorTag string

// Reactor tags for production records.
const (
	ReactorOne ReactorTag = "reactor_one"
	ReactorTwo ReactorTag = "reactor_two"
)

// Severity captures rule outcomes.
type Severity string

// Rule evaluation severities determine commit behavior and logging.
const (
	// SeverityBlock blocks transaction commit.
	SeverityBlock Severity = "block"
	// SeverityWarn logs a warning but allows commit.
	SeverityWarn Severity = "warn"
	SeverityLog  Severity = "log"
)

// Base contains common bookkeeping fields for all mutable records. Version
// is the optimistic-concurrency token bumped on every committed update.
type Base struct {
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	CreatedBy string    `json:"created_by,omitempty"`
	Version   int64     `json:"version"`
}

// Signoff records which user approved a stage and when.
type Signoff struct {
	UserID   string    `json:"user_id"`
	Role     Role      `json:"role"`
	SignedAt time.Time `json:"signed_at"`
}

// OrderingGood is one line item on a packing list.
type OrderingGood struct {
	ID           string  `json:"id"`
	MaterialCode string  `json:"material_code"`
	LotNumber    string  `json:"lot_number"`
	Quantity     float64 `json:"quantity"`
	Unit         string  `json:"unit"`
}

// PackingList is a shipment manifest document, parent of release orders.
// It carries two independent status axes: the overall workflow status and
// the packing-specific progress.
type PackingList struct {
	Base
	PLNumber    string            `json:"pl_number"`
	Destination string            `json:"destination"`
	Status      PackingListStatus `json:"status"`
	StatusPL    PackingProgress   `json:"status_pl"`
	SignedBy    *Signoff          `json:"signed_by,omitempty"`
	Goods       []OrderingGood    `json:"goods"`
}

// ReleaseOrder authorizes releasing goods against a packing list and is the
// parent of delivery orders. Both sign-offs gate delivery order creation.
type ReleaseOrder struct {
	Base
	RONumber string             `json:"ro_number"`
	PLNumber string             `json:"pl_number"`
	Status   ReleaseOrderStatus `json:"status"`
	Note     string             `json:"note,omitempty"`
	WhSigned *Signoff           `json:"wh_signed,omitempty"`
	QcSigned *Signoff           `json:"qc_signed,omitempty"`
}

// DeliveryOrder is the delivery instruction tied to a release order.
type DeliveryOrder struct {
	Base
	DONumber      string              `json:"do_number"`
	RONumber      string              `json:"ro_number"`
	Status        DeliveryOrderStatus `json:"status"`
	Partner       string              `json:"partner"`
	VehicleNumber string              `json:"vehicle_number,omitempty"`
}

// ProductionRequest asks production to manufacture a quantity of material.
type ProductionRequest struct {
	Base
	PRNumber     string                  `json:"pr_number"`
	MaterialCode string                  `json:"material_code"`
	Quantity     float64                 `json:"quantity"`
	Unit         string                  `json:"unit"`
	Status       ProductionRequestStatus `json:"status"`
}

// ReactorRecord captures one production reading on a reactor.
type ReactorRecord struct {
	ID          string     `json:"id"`
	Reactor     ReactorTag `json:"reactor"`
	Temperature float64    `json:"temperature"`
	Pressure    float64    `json:"pressure"`
	Operator    string     `json:"operator"`
	RecordedAt  time.Time  `json:"recorded_at"`
}

// TransferProcess captures the transfer of product out of a reactor.
type TransferProcess struct {
	ID         string     `json:"id"`
	Reactor    ReactorTag `json:"reactor"`
	Operator   string     `json:"operator"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// ParameterValue is one measured value inside an analysis entry.
type ParameterValue struct {
	ParameterCode string  `json:"parameter_code"`
	Value         float64 `json:"value"`
}

// AnalysisSampling is a single analysis entry under a sampling aggregate,
// carrying its own terminal outcome.
type AnalysisSampling struct {
	ID        string           `json:"id"`
	Outcome   AnalysisOutcome  `json:"outcome"`
	Values    []ParameterValue `json:"values,omitempty"`
	Analyst   string           `json:"analyst,omitempty"`
	SampledAt time.Time        `json:"sampled_at"`
}

// DmtSampling is the production sampling aggregate: preparation data plus
// the ordered reactor, transfer, and analysis sub-records. The lists are
// append-only except for the per-entry outcome on analysis entries.
type DmtSampling struct {
	Base
	ID             int64              `json:"id"`
	LineNumber     string             `json:"line_number"`
	LotNumber      string             `json:"lot_number"`
	Status         SamplingStatus     `json:"status"`
	TakingSample   string             `json:"taking_sample,omitempty"`
	ReactorOne     []ReactorRecord    `json:"production_on_reactor_one"`
	ReactorTwo     []ReactorRecord    `json:"production_on_reactor_two"`
	Transfers      []TransferProcess  `json:"transfer_processes"`
	Analyses       []AnalysisSampling `json:"analysis_samplings"`
	PreparationBy  string             `json:"preparation_by,omitempty"`
	PreparationCat string             `json:"preparation_category,omitempty"`
}

// Supplier is a master-data record for material suppliers.
type Supplier struct {
	Base
	Code    string `json:"code"`
	Name    string `json:"name"`
	Address string `json:"address,omitempty"`
	Contact string `json:"contact,omitempty"`
}

// Material is a master-data record referenced by ordering goods and
// production requests.
type Material struct {
	Base
	Code         string `json:"code"`
	Name         string `json:"name"`
	Unit         string `json:"unit"`
	SupplierCode string `json:"supplier_code,omitempty"`
}

// Parameter defines an analysis parameter and its acceptable range.
type Parameter struct {
	Base
	Code     string  `json:"code"`
	Name     string  `json:"name"`
	Unit     string  `json:"unit"`
	MinValue float64 `json:"min_value"`
	MaxValue float64 `json:"max_value"`
}

// IncomingCheck records a goods-receipt inspection, including the key of
// the COA photo stored through the blob port.
type IncomingCheck struct {
	Base
	ID           string  `json:"id"`
	SupplierCode string  `json:"supplier_code"`
	MaterialCode string  `json:"material_code"`
	LotNumber    string  `json:"lot_number"`
	COAPhotoKey  string  `json:"coa_photo_key,omitempty"`
	CheckedBy    string  `json:"checked_by"`
	Passed       bool    `json:"passed"`
	Notes        *string `json:"notes,omitempty"`
}

// Change describes a mutation applied to an entity during a transaction.
type Change struct {
	Entity EntityType
	Action Action
	Before any
	After  any
}

// Action indicates the type of modification performed.
type Action string

// Change actions enumerate supported operations captured for rule evaluation.
const (
	// ActionCreate indicates an entity was created.
	ActionCreate Action = "create"
	// ActionUpdate indicates an entity was updated.
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Violation reports a failed rule evaluation.
type Violation struct {
	Rule     string
	Severity Severity
	Message  string
	Entity   EntityType
	EntityID string
}

// Result aggregates violations from the rules engine.
type Result struct {
	Violations []Violation
}

// Merge appends violations from another result.
func (r *Result) Merge(other Result) {
	if len(other.Violations) == 0 {
		return
	}
	r.Violations = append(r.Violations, other.Violations...)
}

// HasBlocking returns true if the result contains blocking violations.
func (r Result) HasBlocking() bool {
	for _, v := range r.Violations {
		if v.Severity == SeverityBlock {
			return true
		}
	}
	return false
}

// RuleViolationError is returned when blocking violations are present.
type RuleViolationError struct {
	Result Result
}

func (e RuleViolationError) Error() string {
	return "transaction blocked by rules"
}

// DerivedSamplingStatus computes the aggregate status from the analysis
// entries: waiting before any entry exists, processing while any entry is
// pending, finished once every entry reached a terminal outcome.
func DerivedSamplingStatus(analyses []AnalysisSampling) SamplingStatus {
	if len(analyses) == 0 {
		return SamplingWaiting
	}
	for _, a := range analyses {
		if a.Outcome == AnalysisPending {
			return SamplingProcessing
		}
	}
	return SamplingFinished
}
