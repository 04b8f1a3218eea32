// Package economy — service.go: баланс, резервы и решения по заявкам.
package economy

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"stepbank.ru/sparks-bot/internal/balance"
	"stepbank.ru/sparks-bot/internal/common"
)

// Store — журнал трат (реализуется Repository).
type Store interface {
	Create(ctx context.Context, req *SpendRequest) error
	ListByUser(ctx context.Context, userID int64, limit int) ([]*SpendRequest, error)
	ListPending(ctx context.Context) ([]*SpendRequest, error)
	Decide(ctx context.Context, id uuid.UUID, status balance.LedgerStatus, decidedBy int64) (*SpendRequest, error)
}

// BalanceReader считает баланс по активности и журналу (реализуется balance.Aggregator).
type BalanceReader interface {
	Snapshot(ctx context.Context, userID int64) (*balance.Snapshot, error)
}

// Service управляет тратами искр.
type Service struct {
	store    Store
	balances BalanceReader
	locks    *userLocks
}

// NewService создаёт сервис экономики.
func NewService(store Store, balances BalanceReader) *Service {
	return &Service{store: store, balances: balances, locks: newUserLocks()}
}

// Snapshot возвращает согласованный срез баланса пользователя.
func (s *Service) Snapshot(ctx context.Context, userID int64) (*balance.Snapshot, error) {
	return s.balances.Snapshot(ctx, userID)
}

// Balance возвращает баланс в указанном режиме.
func (s *Service) Balance(ctx context.Context, userID int64, mode balance.Mode) (int64, error) {
	snap, err := s.balances.Snapshot(ctx, userID)
	if err != nil {
		return 0, err
	}
	return snap.Available(mode), nil
}

// Hold резервирует искры под заявку, ждущую решения родителя.
func (s *Service) Hold(ctx context.Context, sp Spend) (*SpendRequest, error) {
	return s.record(ctx, sp, balance.StatusPending)
}

// Spend сразу списывает искры (без одобрения).
func (s *Service) Spend(ctx context.Context, sp Spend) (*SpendRequest, error) {
	return s.record(ctx, sp, balance.StatusApproved)
}

// record проверяет доступный баланс с учётом резервов и пишет трату в журнал.
func (s *Service) record(ctx context.Context, sp Spend, status balance.LedgerStatus) (*SpendRequest, error) {
	if sp.Amount <= 0 {
		return nil, common.ErrInvalidAmount
	}

	unlock := s.locks.lock(sp.UserID)
	defer unlock()

	snap, err := s.balances.Snapshot(ctx, sp.UserID)
	if err != nil {
		return nil, err
	}
	available := snap.Affordable()
	if !balance.CanAfford(available, sp.Amount) {
		return nil, fmt.Errorf("%w: нужно %d, доступно %d", common.ErrInsufficientSparks, sp.Amount, available)
	}

	req := &SpendRequest{
		ID:       uuid.New(),
		UserID:   sp.UserID,
		Kind:     sp.Kind,
		ItemID:   sp.ItemID,
		ItemName: sp.ItemName,
		Amount:   sp.Amount,
		Status:   status,
	}
	if err := s.store.Create(ctx, req); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"user_id":   sp.UserID,
		"kind":      sp.Kind,
		"item":      sp.ItemName,
		"amount":    sp.Amount,
		"status":    status,
		"available": available - sp.Amount,
	}).Info("Трата записана")
	return req, nil
}

// Approve одобряет заявку: резерв становится тратой.
// Баланс повторно не проверяется, искры уже зарезервированы.
func (s *Service) Approve(ctx context.Context, id uuid.UUID, parentID int64) (*SpendRequest, error) {
	return s.decide(ctx, id, balance.StatusApproved, parentID)
}

// Reject отклоняет заявку: резерв снимается.
func (s *Service) Reject(ctx context.Context, id uuid.UUID, parentID int64) (*SpendRequest, error) {
	return s.decide(ctx, id, balance.StatusRejected, parentID)
}

func (s *Service) decide(ctx context.Context, id uuid.UUID, status balance.LedgerStatus, parentID int64) (*SpendRequest, error) {
	req, err := s.store.Decide(ctx, id, status, parentID)
	if err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{
		"request_id": id,
		"user_id":    req.UserID,
		"status":     status,
		"parent_id":  parentID,
	}).Info("Решение по заявке принято")
	return req, nil
}

// Pending возвращает заявки всей семьи, ждущие решения.
func (s *Service) Pending(ctx context.Context) ([]*SpendRequest, error) {
	return s.store.ListPending(ctx)
}

// History возвращает последние траты пользователя.
func (s *Service) History(ctx context.Context, userID int64, limit int) ([]*SpendRequest, error) {
	if limit <= 0 {
		limit = 10
	}
	return s.store.ListByUser(ctx, userID, limit)
}
