package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mmeshcher/hotel-reservation-system/internal/model"
)

// Reconcile сравнивает счётчик лояльности пользователя с числом его оплаченных бронирований.
// Только читает данные; расхождения исправляются вне протокола.
func (s *ReservationService) Reconcile(ctx context.Context, username string) (*model.ReconciliationReport, error) {
	if username == "" {
		return nil, validationError("username is required")
	}

	paid, err := s.store.CountPaidReservations(ctx, username)
	if err != nil {
		return nil, err
	}

	account, err := s.loyalty.GetLoyalty(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("get loyalty: %w", err)
	}

	return &model.ReconciliationReport{
		Username:         username,
		LoyaltyCount:     account.ReservationCount,
		PaidReservations: paid,
		Drift:            account.ReservationCount - paid,
	}, nil
}

// StartReconciliation запускает фоновую проверку расхождений с заданным интервалом.
// Найденные расхождения только логируются.
func (s *ReservationService) StartReconciliation(ctx context.Context, interval time.Duration, logger *zap.Logger) {
	if interval <= 0 || s.loyalty == nil {
		return
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.reconcileAll(ctx, logger)
			}
		}
	}()
}

func (s *ReservationService) reconcileAll(ctx context.Context, logger *zap.Logger) {
	users, err := s.store.ListReservationUsers(ctx)
	if err != nil {
		logger.Error("list reservation users error", zap.Error(err))
		return
	}

	for _, u := range users {
		if ctx.Err() != nil {
			return
		}

		report, err := s.Reconcile(ctx, u)
		if err != nil {
			logger.Warn("reconcile user error", zap.String("username", u), zap.Error(err))
			continue
		}

		if report.Drift != 0 {
			logger.Warn("loyalty count drift",
				zap.String("username", u),
				zap.Int("loyalty_count", report.LoyaltyCount),
				zap.Int("paid_reservations", report.PaidReservations),
				zap.Int("drift", report.Drift),
			)
		}
	}
}
