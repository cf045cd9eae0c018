package domain

// DocumentKind tags a transition table owned by the status engine. Every
// stateful document declares its legal edges under one of these kinds.
type DocumentKind string

// Document kinds known to the transition engine.
const (
	KindPackingList       DocumentKind = "packing_list"
	KindPackingProgress   DocumentKind = "packing_progress"
	KindReleaseOrder      DocumentKind = "release_order"
	KindDeliveryOrder     DocumentKind = "delivery_order"
	KindProductionRequest DocumentKind = "production_request"
	KindAnalysisSample    DocumentKind = "analysis_sample"
	KindDmtSampling       DocumentKind = "dmt_sampling"
)

// Status is a document status value routed through the transition engine.
type Status string

// TransitionTable maps each status to the statuses reachable from it.
// A status absent from the outgoing sets but present as a key with no
// edges is terminal.
type TransitionTable map[Status][]Status

// DefaultTransitionTables returns the built-in transition tables for every
// document kind. The tables are data; the engine carries no per-kind logic.
func DefaultTransitionTables() map[DocumentKind]TransitionTable {
	return map[DocumentKind]TransitionTable{
		KindPackingList: {
			Status(PackingListOpen):      {Status(PackingListPacked), Status(PackingListCancelled)},
			Status(PackingListPacked):    {Status(PackingListShipped), Status(PackingListCancelled)},
			Status(PackingListShipped):   {},
			Status(PackingListCancelled): {},
		},
		KindPackingProgress: {
			Status(PackingPending):    {Status(PackingOnProgress)},
			Status(PackingOnProgress): {Status(PackingDone)},
			Status(PackingDone):       {},
		},
		KindReleaseOrder: {
			Status(ReleaseOrderWaiting):    {Status(ReleaseOrderProcessing), Status(ReleaseOrderCancelled)},
			Status(ReleaseOrderProcessing): {Status(ReleaseOrderFinished), Status(ReleaseOrderCancelled)},
			Status(ReleaseOrderFinished):   {},
			Status(ReleaseOrderCancelled):  {},
		},
		KindDeliveryOrder: {
			Status(DeliveryOrderWaiting):    {Status(DeliveryOrderOnDelivery), Status(DeliveryOrderCancelled)},
			Status(DeliveryOrderOnDelivery): {Status(DeliveryOrderDelivered)},
			Status(DeliveryOrderDelivered):  {},
			Status(DeliveryOrderCancelled):  {},
		},
		KindProductionRequest: {
			Status(ProductionRequestWaiting):    {Status(ProductionRequestProcessing)},
			Status(ProductionRequestProcessing): {Status(ProductionRequestFinished)},
			Status(ProductionRequestFinished):   {},
		},
		KindAnalysisSample: {
			Status(AnalysisPending):   {Status(AnalysisPassed), Status(AnalysisNotPassed)},
			Status(AnalysisPassed):    {},
			Status(AnalysisNotPassed): {},
		},
		KindDmtSampling: {
			Status(SamplingWaiting):    {Status(SamplingProcessing)},
			Status(SamplingProcessing): {Status(SamplingFinished)},
			Status(SamplingFinished):   {},
		},
	}
}

// TransitionEngine evaluates status changes against per-kind transition
// tables. It is a pure function over the tables: callers persist results.
type TransitionEngine struct {
	tables map[DocumentKind]TransitionTable
}

// NewTransitionEngine constructs an engine over the built-in tables.
func NewTransitionEngine() *TransitionEngine {
	return &TransitionEngine{tables: DefaultTransitionTables()}
}

// NewTransitionEngineWithTables constructs an engine over custom tables.
func NewTransitionEngineWithTables(tables map[DocumentKind]TransitionTable) *TransitionEngine {
	return &TransitionEngine{tables: tables}
}

// Known reports whether status is declared anywhere in kind's table.
func (e *TransitionEngine) Known(kind DocumentKind, status Status) bool {
	table, ok := e.tables[kind]
	if !ok {
		return false
	}
	_, ok = table[status]
	return ok
}

// IsTerminal reports whether status has no outgoing edges for kind.
func (e *TransitionEngine) IsTerminal(kind DocumentKind, status Status) bool {
	table, ok := e.tables[kind]
	if !ok {
		return false
	}
	next, ok := table[status]
	return ok && len(next) == 0
}

// CanTransition reports whether the edge from->to exists in kind's table.
func (e *TransitionEngine) CanTransition(kind DocumentKind, from, to Status) bool {
	table, ok := e.tables[kind]
	if !ok {
		return false
	}
	for _, next := range table[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Apply validates the requested transition and returns the new status.
// It fails with AlreadyTerminal when current has no outgoing edges and
// with IllegalTransition when the requested edge is not in the table.
func (e *TransitionEngine) Apply(kind DocumentKind, entity EntityType, key string, current, requested Status) (Status, error) {
	table, ok := e.tables[kind]
	if !ok {
		return "", NewError(ErrValidation, entity, key, "unknown document kind %s", kind)
	}
	if _, ok := table[current]; !ok {
		return "", NewError(ErrValidation, entity, key, "unknown %s status %s", kind, current)
	}
	if _, ok := table[requested]; !ok {
		return "", NewError(ErrValidation, entity, key, "unknown %s status %s", kind, requested)
	}
	if e.IsTerminal(kind, current) {
		return "", NewError(ErrAlreadyTerminal, entity, key, "status %s is terminal", current)
	}
	if !e.CanTransition(kind, current, requested) {
		return "", NewError(ErrIllegalTransition, entity, key, "cannot move from %s to %s", current, requested)
	}
	return requested, nil
}

// Statuses returns all statuses declared for kind, in unspecified order.
func (e *TransitionEngine) Statuses(kind DocumentKind) []Status {
	table, ok := e.tables[kind]
	if !ok {
		return nil
	}
	out := make([]Status, 0, len(table))
	for s := range table {
		out = append(out, s)
	}
	return out
}
