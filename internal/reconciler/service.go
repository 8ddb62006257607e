package reconciler

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"photobook-order-bot/internal/file"
	"photobook-order-bot/internal/order"
	"photobook-order-bot/internal/pkg/config"
)

type Service interface {
	Start(ctx context.Context)
	Stop(ctx context.Context) error
	Reconcile(ctx context.Context) int
}

// ActiveFolders reports folders owned by receipts that are still open.
type ActiveFolders interface {
	ActiveFolders() []string
}

// DefaultService deletes storage folders that no order and no open receipt
// claims once they are older than MinAge.
type DefaultService struct {
	orderService order.Service
	fileService  file.Service
	active       ActiveFolders
	cfg          *config.ReconcilerCfg
	now          func() time.Time
	wg           *sync.WaitGroup
}

func NewDefaultService(orderService order.Service, fileService file.Service, active ActiveFolders, cfg *config.ReconcilerCfg) *DefaultService {
	return &DefaultService{
		orderService: orderService,
		fileService:  fileService,
		active:       active,
		cfg:          cfg,
		now:          time.Now,
		wg:           &sync.WaitGroup{},
	}
}

func (d *DefaultService) Start(ctx context.Context) {
	d.startReconciliationLoop(ctx)
	slog.Info("Started reconciler service", "interval", d.cfg.Interval, "minAge", d.cfg.MinAge)
}

func (d *DefaultService) Stop(ctx context.Context) error {
	stop := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(stop)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-stop:
		return nil
	}
}

func (d *DefaultService) startReconciliationLoop(ctx context.Context) {
	ticker := time.NewTicker(d.cfg.Interval)

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				d.Reconcile(ctx)
			}
		}
	}()
}

// Reconcile runs a single sweep and returns the number of deleted folders.
func (d *DefaultService) Reconcile(ctx context.Context) int {
	live, err := d.orderService.GetLiveFolders(ctx)
	if err != nil {
		// Without the order list every folder would look orphaned.
		slog.Error("Failed to get live order folders", "error", err)
		return 0
	}
	if d.active != nil {
		live = append(live, d.active.ActiveFolders()...)
	}

	folders, err := d.fileService.ListFolders()
	if err != nil {
		slog.Error("Failed to list order folders", "error", err)
		return 0
	}

	deleted := 0
	cutoff := d.now().Add(-d.cfg.MinAge)
	for _, folder := range folders {
		if slices.Contains(live, folder.Name) || folder.ModTime.After(cutoff) {
			continue
		}
		if err := d.fileService.DeleteFolder(folder.Name); err != nil {
			slog.Error("Failed to delete orphaned folder", "error", err, "folder", folder.Name)
			continue
		}
		slog.Info("Deleted orphaned folder", "folder", folder.Name)
		deleted++
	}
	return deleted
}
