// Package screentime обменивает искры на минуты экранного времени (1 искра = 1 минута).
// Разблокировка не требует одобрения родителя: трата сразу попадает в журнал.
package screentime

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"stepbank.ru/sparks-bot/internal/balance"
	"stepbank.ru/sparks-bot/internal/common"
	"stepbank.ru/sparks-bot/internal/features/economy"
)

// MaxUnlockMinutes — сколько минут можно открыть за один раз.
const MaxUnlockMinutes = 24 * 60

// Ledger — журнал трат (реализуется economy.Service).
type Ledger interface {
	Snapshot(ctx context.Context, userID int64) (*balance.Snapshot, error)
	Spend(ctx context.Context, sp economy.Spend) (*economy.SpendRequest, error)
}

// Service — экранное время.
type Service struct {
	ledger Ledger
}

// NewService создаёт сервис экранного времени.
func NewService(ledger Ledger) *Service {
	return &Service{ledger: ledger}
}

// AvailableMinutes — сколько минут можно открыть сейчас (с учётом резервов под покупки).
func (s *Service) AvailableMinutes(ctx context.Context, userID int64) (int64, error) {
	snap, err := s.ledger.Snapshot(ctx, userID)
	if err != nil {
		return 0, err
	}
	return balance.MinutesFor(snap.Affordable()), nil
}

// Unlock списывает искры за minutes минут и возвращает запись журнала.
func (s *Service) Unlock(ctx context.Context, userID, minutes int64) (*economy.SpendRequest, error) {
	if minutes <= 0 || minutes > MaxUnlockMinutes {
		return nil, fmt.Errorf("%w: от 1 до %d минут", common.ErrInvalidAmount, MaxUnlockMinutes)
	}
	req, err := s.ledger.Spend(ctx, economy.Spend{
		UserID:   userID,
		Kind:     balance.KindScreenTime,
		ItemName: common.FormatMinutes(minutes),
		Amount:   balance.SparksForMinutes(minutes),
	})
	if err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{"user_id": userID, "minutes": minutes}).Info("Экранное время открыто")
	return req, nil
}
