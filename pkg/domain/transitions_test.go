package domain

import "testing"

// TestTransitionTablesAreClosed verifies every reachable status is itself
// declared as a key in its table, so the engine can always classify it.
func TestTransitionTablesAreClosed(t *testing.T) {
	for kind, table := range DefaultTransitionTables() {
		for from, targets := range table {
			for _, to := range targets {
				if _, ok := table[to]; !ok {
					t.Errorf("kind %s: %s -> %s leads outside the table", kind, from, to)
				}
			}
		}
	}
}

func TestApplyLegalTransition(t *testing.T) {
	engine := NewTransitionEngine()
	next, err := engine.Apply(KindPackingList, EntityPackingList, "PL-1", Status(PackingListOpen), Status(PackingListPacked))
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if next != Status(PackingListPacked) {
		t.Fatalf("expected packed, got %s", next)
	}
}

func TestApplyRejectsIllegalEdge(t *testing.T) {
	engine := NewTransitionEngine()
	_, err := engine.Apply(KindPackingList, EntityPackingList, "PL-1", Status(PackingListOpen), Status(PackingListShipped))
	if !IsKind(err, ErrIllegalTransition) {
		t.Fatalf("expected illegal transition, got %v", err)
	}
}

func TestApplyRejectsTerminalStatus(t *testing.T) {
	engine := NewTransitionEngine()
	_, err := engine.Apply(KindDeliveryOrder, EntityDeliveryOrder, "DO-1", Status(DeliveryOrderDelivered), Status(DeliveryOrderCancelled))
	if !IsKind(err, ErrAlreadyTerminal) {
		t.Fatalf("expected already terminal, got %v", err)
	}
}

func TestApplyRejectsUnknownStatus(t *testing.T) {
	engine := NewTransitionEngine()
	if _, err := engine.Apply(KindReleaseOrder, EntityReleaseOrder, "RO-1", Status("bogus"), Status(ReleaseOrderFinished)); !IsKind(err, ErrValidation) {
		t.Fatalf("expected validation error for unknown current, got %v", err)
	}
	if _, err := engine.Apply(KindReleaseOrder, EntityReleaseOrder, "RO-1", Status(ReleaseOrderWaiting), Status("bogus")); !IsKind(err, ErrValidation) {
		t.Fatalf("expected validation error for unknown requested, got %v", err)
	}
	if _, err := engine.Apply(DocumentKind("bogus"), EntityReleaseOrder, "RO-1", Status(ReleaseOrderWaiting), Status(ReleaseOrderProcessing)); !IsKind(err, ErrValidation) {
		t.Fatalf("expected validation error for unknown kind, got %v", err)
	}
}

func TestIsTerminal(t *testing.T) {
	engine := NewTransitionEngine()
	cases := []struct {
		kind   DocumentKind
		status Status
		want   bool
	}{
		{KindPackingList, Status(PackingListShipped), true},
		{KindPackingList, Status(PackingListOpen), false},
		{KindPackingProgress, Status(PackingDone), true},
		{KindAnalysisSample, Status(AnalysisPassed), true},
		{KindAnalysisSample, Status(AnalysisPending), false},
		{KindDmtSampling, Status(SamplingFinished), true},
	}
	for _, c := range cases {
		if got := engine.IsTerminal(c.kind, c.status); got != c.want {
			t.Errorf("IsTerminal(%s, %s) = %v, want %v", c.kind, c.status, got, c.want)
		}
	}
}

func TestCustomTables(t *testing.T) {
	tables := map[DocumentKind]TransitionTable{
		KindPackingList: {
			Status("a"): {Status("b")},
			Status("b"): {},
		},
	}
	engine := NewTransitionEngineWithTables(tables)
	if !engine.CanTransition(KindPackingList, Status("a"), Status("b")) {
		t.Fatal("expected custom edge a -> b")
	}
	if engine.Known(KindPackingList, Status(PackingListOpen)) {
		t.Fatal("builtin statuses should be unknown to custom tables")
	}
	if got := len(engine.Statuses(KindPackingList)); got != 2 {
		t.Fatalf("expected 2 statuses, got %d", got)
	}
}
