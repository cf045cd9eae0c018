// Command qcms wires configuration, storage, and the attachment store into
// the quality core and runs a document-chain smoke pass.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/indofiz/qcms-data-structure-sub000/internal/blob"
	"github.com/indofiz/qcms-data-structure-sub000/internal/config"
	"github.com/indofiz/qcms-data-structure-sub000/internal/core"
	"github.com/indofiz/qcms-data-structure-sub000/pkg/domain"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx := context.Background()

	cfg, err := config.Load(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		return 1
	}

	logger, err := buildLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		return 1
	}
	defer func() { _ = logger.Sync() }()

	store, err := core.OpenPersistentStore(cfg.Storage, core.NewDefaultRulesEngine())
	if err != nil {
		logger.Error("open store", zap.Error(err))
		return 1
	}

	blobs, err := blob.Open(ctx, blob.Options{
		Driver:      blob.Driver(cfg.Blob.Driver),
		FsRoot:      cfg.Blob.FsRoot,
		S3Bucket:    cfg.Blob.S3Bucket,
		S3Region:    cfg.Blob.S3Region,
		S3Endpoint:  cfg.Blob.S3Endpoint,
		S3PathStyle: cfg.Blob.S3PathStyle,
	})
	if err != nil {
		logger.Error("open blob store", zap.Error(err))
		return 1
	}

	svc := core.NewService(store,
		core.WithLogger(core.NewZapLogger(logger)),
		core.WithMetrics(core.NewExpvarMetricsRecorder("qcms_service")),
		core.WithTracer(core.NewJSONTracer(os.Stderr)),
		core.WithBlobStore(blobs),
		core.WithIdentity(domain.StaticIdentity{User: domain.User{ID: "cli", Name: "cli", Role: domain.RoleAdmin}}),
	)

	if err := smoke(ctx, svc); err != nil {
		logger.Error("smoke pass failed", zap.Error(err))
		return 1
	}
	logger.Info("smoke pass complete")
	return 0
}

func buildLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}

// smoke runs a minimal end-to-end chain against a fresh store: master data,
// a packing list, release order sign-offs, and a delivery.
func smoke(ctx context.Context, svc *core.Service) error {
	suffix := time.Now().UTC().Format("20060102150405")
	plNumber := "PL-" + suffix
	roNumber := "RO-" + suffix
	doNumber := "DO-" + suffix

	if _, _, err := svc.CreateSupplier(ctx, domain.Supplier{Code: "SUP-" + suffix, Name: "Smoke Supplier"}); err != nil {
		return fmt.Errorf("create supplier: %w", err)
	}
	if _, _, err := svc.CreateMaterial(ctx, domain.Material{Code: "MAT-" + suffix, Name: "Smoke Material", Unit: "kg"}); err != nil {
		return fmt.Errorf("create material: %w", err)
	}
	pl, _, err := svc.CreatePackingList(ctx, domain.PackingList{
		PLNumber:    plNumber,
		Destination: "Smoke Harbor",
		Goods:       []domain.OrderingGood{{ID: "g1", MaterialCode: "MAT-" + suffix, LotNumber: "LOT-1", Quantity: 1, Unit: "kg"}},
	})
	if err != nil {
		return fmt.Errorf("create packing list: %w", err)
	}
	ro, _, err := svc.CreateReleaseOrder(ctx, domain.ReleaseOrder{RONumber: roNumber, PLNumber: pl.PLNumber})
	if err != nil {
		return fmt.Errorf("create release order: %w", err)
	}

	// The chain demands warehouse and qc sign-offs before delivery.
	whSvc := core.NewService(svc.Store(), core.WithIdentity(domain.StaticIdentity{User: domain.User{ID: "wh-1", Name: "warehouse", Role: domain.RoleWarehouse}}))
	qcSvc := core.NewService(svc.Store(), core.WithIdentity(domain.StaticIdentity{User: domain.User{ID: "qc-1", Name: "qc", Role: domain.RoleQC}}))
	ro, _, err = whSvc.SignReleaseOrder(ctx, ro.RONumber, ro.Version)
	if err != nil {
		return fmt.Errorf("warehouse sign: %w", err)
	}
	if _, _, err = qcSvc.SignReleaseOrder(ctx, ro.RONumber, ro.Version); err != nil {
		return fmt.Errorf("qc sign: %w", err)
	}
	do, _, err := svc.CreateDeliveryOrder(ctx, domain.DeliveryOrder{DONumber: doNumber, RONumber: ro.RONumber, Partner: "Smoke Logistics"})
	if err != nil {
		return fmt.Errorf("create delivery order: %w", err)
	}
	if _, _, err := svc.UpdateDeliveryOrderStatus(ctx, do.DONumber, do.Version, domain.DeliveryOrderOnDelivery); err != nil {
		return fmt.Errorf("dispatch delivery order: %w", err)
	}
	return nil
}
