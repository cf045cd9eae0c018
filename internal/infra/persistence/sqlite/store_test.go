package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/indofiz/qcms-data-structure-sub000/pkg/domain"
)

func TestStateSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "qcms.db")

	s, err := NewStore(path, nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	_, err = s.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		if _, err := tx.CreateSupplier(domain.Supplier{Code: "SUP-1", Name: "Acme"}); err != nil {
			return err
		}
		_, err := tx.CreatePackingList(domain.PackingList{PLNumber: "PL-1", Destination: "plant", Status: domain.PackingListOpen, StatusPL: domain.PackingPending})
		return err
	})
	if err != nil {
		t.Fatalf("transaction: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := NewStore(path, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	pl, ok := reopened.GetPackingList("PL-1")
	if !ok {
		t.Fatal("packing list lost across reopen")
	}
	if pl.Destination != "plant" || pl.Version != 1 {
		t.Fatalf("unexpected hydrated record: %+v", pl)
	}
	if sups := reopened.ListSuppliers(); len(sups) != 1 || sups[0].Code != "SUP-1" {
		t.Fatalf("unexpected suppliers after reopen: %+v", sups)
	}
}

func TestSequencesSurviveReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "qcms.db")

	s, err := NewStore(path, nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	var first domain.DmtSampling
	_, err = s.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		var err error
		first, err = tx.CreateSampling(domain.DmtSampling{LineNumber: "L1", LotNumber: "LOT-1", Status: domain.SamplingWaiting})
		return err
	})
	if err != nil {
		t.Fatalf("transaction: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := NewStore(path, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	var second domain.DmtSampling
	_, err = reopened.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		var err error
		second, err = tx.CreateSampling(domain.DmtSampling{LineNumber: "L1", LotNumber: "LOT-2", Status: domain.SamplingWaiting})
		return err
	})
	if err != nil {
		t.Fatalf("second transaction: %v", err)
	}
	if second.ID != first.ID+1 {
		t.Fatalf("sequence must continue across reopen: first=%d second=%d", first.ID, second.ID)
	}
}

func TestFailedTransactionDoesNotPersist(t *testing.T) {
	path := filepath.Join(t.TempDir(), "qcms.db")

	s, err := NewStore(path, nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	_, err = s.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		if _, err := tx.CreatePackingList(domain.PackingList{PLNumber: "PL-X", Destination: "plant", Status: domain.PackingListOpen, StatusPL: domain.PackingPending}); err != nil {
			return err
		}
		return domain.NewError(domain.ErrValidation, domain.EntityPackingList, "PL-X", "abort")
	})
	if err == nil {
		t.Fatal("expected aborted transaction to error")
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := NewStore(path, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	if _, ok := reopened.GetPackingList("PL-X"); ok {
		t.Fatal("aborted record must not be persisted")
	}
}
