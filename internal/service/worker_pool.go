package service

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"

	"github.com/pix-disbursement-service/internal/domain/installment"
	"github.com/pix-disbursement-service/internal/domain/shared"
)

// Syncer is the single-installment sync surface the batch fans out over
type Syncer interface {
	Sync(ctx context.Context, id uuid.UUID) (*SyncResult, error)
}

// BatchSyncService fans status polls for pending installments out over a
// bounded worker pool. Each installment syncs independently; one failing
// poll never aborts the batch.
type BatchSyncService struct {
	base            Syncer
	installmentRepo installmentLister
	pool            *ants.Pool
	logger          *slog.Logger
}

type installmentLister interface {
	ListByStatus(ctx context.Context, companyID uuid.UUID, status shared.PixStatus, limit int) ([]*installment.Installment, error)
}

// BatchItemResult is the per-installment outcome of a batch sync
type BatchItemResult struct {
	InstallmentID uuid.UUID   `json:"installment_id"`
	Result        *SyncResult `json:"result,omitempty"`
	Error         string      `json:"error,omitempty"`
}

// NewBatchSyncService creates the batch syncer with a pool of the given size
func NewBatchSyncService(base Syncer, lister installmentLister, poolSize int, logger *slog.Logger) (*BatchSyncService, error) {
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}
	return &BatchSyncService{
		base:            base,
		installmentRepo: lister,
		pool:            pool,
		logger:          logger,
	}, nil
}

// SyncPending polls every pending installment of the company, up to limit,
// in parallel across the worker pool and returns the per-item outcomes
func (s *BatchSyncService) SyncPending(ctx context.Context, companyID uuid.UUID, limit int) ([]BatchItemResult, error) {
	pending, err := s.installmentRepo.ListByStatus(ctx, companyID, shared.PixStatusPending, limit)
	if err != nil {
		return nil, err
	}

	results := make([]BatchItemResult, len(pending))
	var wg sync.WaitGroup

	for i, inst := range pending {
		i, id := i, inst.ID
		wg.Add(1)
		err := s.pool.Submit(func() {
			defer wg.Done()
			result, syncErr := s.base.Sync(ctx, id)
			item := BatchItemResult{InstallmentID: id, Result: result}
			if syncErr != nil {
				item.Error = syncErr.Error()
				s.logger.Error("batch sync item failed", "installment_id", id, "error", syncErr)
			}
			results[i] = item
		})
		if err != nil {
			wg.Done()
			results[i] = BatchItemResult{InstallmentID: id, Error: err.Error()}
			s.logger.Error("failed to submit sync to worker pool", "installment_id", id, "error", err)
		}
	}

	wg.Wait()
	s.logger.Info("batch sync completed", "company_id", companyID, "count", len(pending))
	return results, nil
}

// Shutdown releases the worker pool
func (s *BatchSyncService) Shutdown() {
	s.logger.Info("Shutting down batch sync worker pool", "running_workers", s.pool.Running())
	s.pool.Release()
}
