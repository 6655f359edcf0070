package sheetsync

import (
	"context"
	"sync"
	"time"

	"field_visits/internal/domain"

	"go.uber.org/zap"
)

// Syncer переносит в Google Sheet визиты RealFincorp, которые еще не выгружены.
type Syncer struct {
	logger       *zap.Logger
	SheetService domain.SheetService
	VisitRepo    domain.VisitRepo

	interval      time.Duration
	forceUpdateCh chan struct{}
	mu            sync.Mutex
}

func NewSyncer(sheetService domain.SheetService, visitRepo domain.VisitRepo, logger *zap.Logger, interval time.Duration) *Syncer {
	return &Syncer{
		logger:        logger,
		SheetService:  sheetService,
		VisitRepo:     visitRepo,
		interval:      interval,
		forceUpdateCh: make(chan struct{}, 1),
	}
}

// Run синхронизирует по таймеру и по ForceUpdate до отмены ctx.
func (s *Syncer) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.SyncOnce(ctx)
	for {
		select {
		case <-ticker.C:
			s.SyncOnce(ctx)
		case <-s.forceUpdateCh:
			s.SyncOnce(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// SyncOnce один проход. Ошибка по одной записи не останавливает остальные.
func (s *Syncer) SyncOnce(ctx context.Context) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	customers, err := s.VisitRepo.GetUnsyncedCustomers(ctx)
	if err != nil {
		s.logger.Error("error getting unsynced customers", zap.Error(err))
		return 0
	}

	synced := 0
	for _, customer := range customers {
		if ctx.Err() != nil {
			return synced
		}
		if err := s.SheetService.AppendCustomer(ctx, customer); err != nil {
			s.logger.Error("error appending customer to sheet", zap.Error(err), zap.Uint("id", customer.ID))
			continue
		}
		if err := s.VisitRepo.MarkCustomerSynced(ctx, customer); err != nil {
			s.logger.Error("error marking customer synced", zap.Error(err), zap.Uint("id", customer.ID))
			continue
		}
		synced++
	}
	if synced > 0 {
		s.logger.Info("customers synced to sheet", zap.Int("count", synced))
	}
	return synced
}

// ForceUpdate немедленно запускает синхронизацию. Повторные вызовы до прохода схлопываются.
func (s *Syncer) ForceUpdate() {
	select {
	case s.forceUpdateCh <- struct{}{}:
	default:
	}
}
