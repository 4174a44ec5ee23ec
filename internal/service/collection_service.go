package service

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kapatiran/lending-engine/internal/domain"
	"github.com/kapatiran/lending-engine/internal/penalty"
	"github.com/kapatiran/lending-engine/internal/reconcile"
	"github.com/kapatiran/lending-engine/internal/repository"
	customError "github.com/kapatiran/lending-engine/pkg/errors"
)

// CollectionService runs a center's collection sheet end to end: take the
// per-center lock, snapshot the live installments, reconcile, and apply the
// result in one transaction. The reconciler itself is pure; this service
// owns all the I/O around it.
type CollectionService struct {
	InstallmentRepo repository.InstallmentRepository
	CollectionRepo  repository.CollectionRepository
	redis           redis.Cmdable
	policy          penalty.Policy
	lockTTL         time.Duration
}

func NewCollectionService(
	installmentRepo repository.InstallmentRepository,
	collectionRepo repository.CollectionRepository,
	redisClient redis.Cmdable,
	policy penalty.Policy,
	lockTTL time.Duration,
) *CollectionService {
	return &CollectionService{
		InstallmentRepo: installmentRepo,
		CollectionRepo:  collectionRepo,
		redis:           redisClient,
		policy:          policy,
		lockTTL:         lockTTL,
	}
}

// ReconcileCollection reconciles and applies one batch. Two batches for the
// same center are mutually exclusive: the second caller gets a lock error
// instead of reconciling against a snapshot the first is about to mutate.
func (s *CollectionService) ReconcileCollection(ctx context.Context, batch domain.CollectionBatch) (*domain.ReconciliationResult, error) {
	lockKey := "reconcile:center:" + batch.CenterID

	acquired, err := s.redis.SetNX(ctx, lockKey, "1", s.lockTTL).Result()
	if err != nil {
		return nil, customError.WrapPersistence(err)
	}
	if !acquired {
		return nil, customError.WrapLockHeld(batch.CenterID)
	}
	defer s.redis.Del(ctx, lockKey)

	live, err := s.InstallmentRepo.GetLiveByCenter(ctx, batch.CenterID)
	if err != nil {
		return nil, customError.WrapPersistence(err)
	}

	result, err := reconcile.Reconcile(batch, live, s.policy)
	if err != nil {
		return nil, err
	}

	// Loan settlements ride in the same transaction as the installment
	// flips, so active -> fully_paid lands exactly when the final
	// installment does.
	if err := s.CollectionRepo.ApplyResult(ctx, result); err != nil {
		return nil, customError.WrapPersistence(err)
	}

	return result, nil
}
