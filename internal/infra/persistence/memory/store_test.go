package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/indofiz/qcms-data-structure-sub000/pkg/domain"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestCreateAndGetPackingList(t *testing.T) {
	store := NewStore(nil)
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	store.SetClock(fixedClock(now))

	_, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, err := tx.CreatePackingList(domain.PackingList{PLNumber: "PL-1", Destination: "Harbor", Status: domain.PackingListOpen, StatusPL: domain.PackingPending})
		return err
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	pl, ok := store.GetPackingList("PL-1")
	if !ok {
		t.Fatal("packing list not found after commit")
	}
	if pl.Version != 1 {
		t.Fatalf("expected version 1, got %d", pl.Version)
	}
	if !pl.CreatedAt.Equal(now) || !pl.UpdatedAt.Equal(now) {
		t.Fatalf("timestamps not stamped from clock: %v %v", pl.CreatedAt, pl.UpdatedAt)
	}
}

func TestCreateDuplicateFails(t *testing.T) {
	store := NewStore(nil)
	ctx := context.Background()
	mustCreatePL(t, store, "PL-1")

	_, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		_, err := tx.CreatePackingList(domain.PackingList{PLNumber: "PL-1", Destination: "Elsewhere"})
		return err
	})
	if !domain.IsKind(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestTransactionRollsBackOnError(t *testing.T) {
	store := NewStore(nil)
	ctx := context.Background()

	sentinel := errors.New("boom")
	_, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		if _, err := tx.CreatePackingList(domain.PackingList{PLNumber: "PL-1", Destination: "Harbor"}); err != nil {
			return err
		}
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected sentinel error, got %v", err)
	}
	if _, ok := store.GetPackingList("PL-1"); ok {
		t.Fatal("failed transaction must not leave state behind")
	}
}

func TestUpdateVersionConflict(t *testing.T) {
	store := NewStore(nil)
	ctx := context.Background()
	mustCreatePL(t, store, "PL-1")

	// A stale expected version is rejected and nothing changes.
	_, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		_, err := tx.UpdatePackingList("PL-1", 99, func(pl *domain.PackingList) error {
			pl.Destination = "Changed"
			return nil
		})
		return err
	})
	if !domain.IsKind(err, domain.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	pl, _ := store.GetPackingList("PL-1")
	if pl.Destination == "Changed" {
		t.Fatal("conflicting update must not apply")
	}

	// The matching version applies and bumps.
	_, err = store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		_, err := tx.UpdatePackingList("PL-1", pl.Version, func(pl *domain.PackingList) error {
			pl.Destination = "Changed"
			return nil
		})
		return err
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	pl, _ = store.GetPackingList("PL-1")
	if pl.Destination != "Changed" || pl.Version != 2 {
		t.Fatalf("expected applied update at version 2, got %q v%d", pl.Destination, pl.Version)
	}

	// Zero expected skips the check entirely.
	if _, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		_, err := tx.UpdatePackingList("PL-1", 0, func(pl *domain.PackingList) error { return nil })
		return err
	}); err != nil {
		t.Fatalf("unchecked update: %v", err)
	}
}

type blockEverything struct{}

func (blockEverything) Name() string { return "block_everything" }

func (blockEverything) Evaluate(_ context.Context, _ domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, c := range changes {
		res.Violations = append(res.Violations, domain.Violation{Rule: "block_everything", Severity: domain.SeverityBlock, Entity: c.Entity})
	}
	return res, nil
}

func TestBlockingRuleAbortsCommit(t *testing.T) {
	engine := domain.NewRulesEngine()
	engine.Register(blockEverything{})
	store := NewStore(engine)

	_, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, err := tx.CreateSupplier(domain.Supplier{Code: "SUP-1", Name: "S"})
		return err
	})
	var rve domain.RuleViolationError
	if !errors.As(err, &rve) {
		t.Fatalf("expected rule violation error, got %v", err)
	}
	if len(store.ListSuppliers()) != 0 {
		t.Fatal("blocked transaction must not commit")
	}
}

func TestSamplingSequenceAssignment(t *testing.T) {
	store := NewStore(nil)
	ctx := context.Background()

	var first, second domain.DmtSampling
	if _, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		var err error
		first, err = tx.CreateSampling(domain.DmtSampling{LineNumber: "L1", LotNumber: "LOT-1", Status: domain.SamplingWaiting})
		if err != nil {
			return err
		}
		second, err = tx.CreateSampling(domain.DmtSampling{LineNumber: "L2", LotNumber: "LOT-2", Status: domain.SamplingWaiting})
		return err
	}); err != nil {
		t.Fatalf("create samplings: %v", err)
	}
	if first.ID != 1 || second.ID != 2 {
		t.Fatalf("expected sequential ids 1,2, got %d,%d", first.ID, second.ID)
	}

	// Explicit IDs advance the sequence past themselves.
	if _, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		if _, err := tx.CreateSampling(domain.DmtSampling{ID: 10, LineNumber: "L3", LotNumber: "LOT-3", Status: domain.SamplingWaiting}); err != nil {
			return err
		}
		next, err := tx.CreateSampling(domain.DmtSampling{LineNumber: "L4", LotNumber: "LOT-4", Status: domain.SamplingWaiting})
		if err != nil {
			return err
		}
		if next.ID != 11 {
			t.Errorf("expected id 11 after explicit 10, got %d", next.ID)
		}
		return nil
	}); err != nil {
		t.Fatalf("create with explicit id: %v", err)
	}
}

func TestQueryFiltersAndPagination(t *testing.T) {
	store := NewStore(nil)
	ctx := context.Background()
	for _, pl := range []domain.PackingList{
		{PLNumber: "PL-1", Destination: "A", Status: domain.PackingListOpen, StatusPL: domain.PackingPending},
		{PLNumber: "PL-2", Destination: "B", Status: domain.PackingListPacked, StatusPL: domain.PackingDone},
		{PLNumber: "PL-3", Destination: "C", Status: domain.PackingListOpen, StatusPL: domain.PackingPending},
	} {
		pl := pl
		if _, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
			_, err := tx.CreatePackingList(pl)
			return err
		}); err != nil {
			t.Fatalf("create %s: %v", pl.PLNumber, err)
		}
	}

	open := store.QueryPackingLists(domain.PackingListFilter{Status: domain.PackingListOpen})
	if len(open) != 2 {
		t.Fatalf("expected 2 open, got %d", len(open))
	}
	paged := store.QueryPackingLists(domain.PackingListFilter{Page: domain.Page{Offset: 1, Limit: 1}})
	if len(paged) != 1 || paged[0].PLNumber != "PL-2" {
		t.Fatalf("unexpected page result: %+v", paged)
	}
	beyond := store.QueryPackingLists(domain.PackingListFilter{Page: domain.Page{Offset: 10}})
	if len(beyond) != 0 {
		t.Fatalf("expected empty page past end, got %d", len(beyond))
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	store := NewStore(nil)
	ctx := context.Background()
	mustCreatePL(t, store, "PL-1")
	if _, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		_, err := tx.CreateSampling(domain.DmtSampling{LineNumber: "L1", LotNumber: "LOT-1", Status: domain.SamplingWaiting})
		return err
	}); err != nil {
		t.Fatalf("create sampling: %v", err)
	}

	snapshot := store.ExportState()
	restored := NewStore(nil)
	restored.ImportState(snapshot)

	if _, ok := restored.GetPackingList("PL-1"); !ok {
		t.Fatal("packing list lost in round trip")
	}
	if _, ok := restored.GetSampling(1); !ok {
		t.Fatal("sampling lost in round trip")
	}
	// Sequence continues from the imported state.
	if _, err := restored.RunInTransaction(ctx, func(tx domain.Transaction) error {
		next, err := tx.CreateSampling(domain.DmtSampling{LineNumber: "L2", LotNumber: "LOT-2", Status: domain.SamplingWaiting})
		if err != nil {
			return err
		}
		if next.ID != 2 {
			t.Errorf("expected id 2 after import, got %d", next.ID)
		}
		return nil
	}); err != nil {
		t.Fatalf("create after import: %v", err)
	}
}

func TestViewIsIsolatedFromLiveState(t *testing.T) {
	store := NewStore(nil)
	mustCreatePL(t, store, "PL-1")

	var fromView domain.PackingList
	if err := store.View(context.Background(), func(view domain.TransactionView) error {
		pl, ok := view.FindPackingList("PL-1")
		if !ok {
			t.Fatal("view missing packing list")
		}
		fromView = pl
		return nil
	}); err != nil {
		t.Fatalf("view: %v", err)
	}
	fromView.Destination = "Mutated"
	pl, _ := store.GetPackingList("PL-1")
	if pl.Destination == "Mutated" {
		t.Fatal("view result must be a copy")
	}
}

func mustCreatePL(t *testing.T, store *Store, plNumber string) {
	t.Helper()
	if _, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, err := tx.CreatePackingList(domain.PackingList{PLNumber: plNumber, Destination: "Harbor", Status: domain.PackingListOpen, StatusPL: domain.PackingPending})
		return err
	}); err != nil {
		t.Fatalf("create %s: %v", plNumber, err)
	}
}
