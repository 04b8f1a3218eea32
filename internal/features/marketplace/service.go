// Package marketplace — service.go: товары и заявки на покупку.
package marketplace

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"stepbank.ru/sparks-bot/internal/balance"
	"stepbank.ru/sparks-bot/internal/common"
	"stepbank.ru/sparks-bot/internal/features/economy"
)

// ProductStore — хранилище товаров (реализуется Repository).
type ProductStore interface {
	ListActive(ctx context.Context) ([]*Product, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Product, error)
	Create(ctx context.Context, p *Product) error
	Deactivate(ctx context.Context, id uuid.UUID) error
}

// Ledger — журнал трат (реализуется economy.Service).
type Ledger interface {
	Hold(ctx context.Context, sp economy.Spend) (*economy.SpendRequest, error)
	Approve(ctx context.Context, id uuid.UUID, parentID int64) (*economy.SpendRequest, error)
	Reject(ctx context.Context, id uuid.UUID, parentID int64) (*economy.SpendRequest, error)
	Pending(ctx context.Context) ([]*economy.SpendRequest, error)
}

// ParentChecker проверяет роль родителя (реализуется members.Service).
type ParentChecker interface {
	IsParent(ctx context.Context, userID int64) (bool, error)
}

// Service — магазин.
type Service struct {
	products ProductStore
	ledger   Ledger
	parents  ParentChecker
}

// NewService создаёт сервис магазина.
func NewService(products ProductStore, ledger Ledger, parents ParentChecker) *Service {
	return &Service{products: products, ledger: ledger, parents: parents}
}

// ListProducts возвращает товары в продаже.
func (s *Service) ListProducts(ctx context.Context) ([]*Product, error) {
	return s.products.ListActive(ctx)
}

// AddProduct добавляет товар. Только для родителей. Цена округляется вверх до цента.
func (s *Service) AddProduct(ctx context.Context, parentID int64, name string, dollarValue float64) (*Product, error) {
	if err := s.requireParent(ctx, parentID); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" || math.IsNaN(dollarValue) || dollarValue <= 0 || dollarValue > MaxDollarValue {
		return nil, common.ErrInvalidProduct
	}

	p := &Product{
		ID:          uuid.New(),
		Name:        name,
		DollarValue: RoundPrice(dollarValue),
		CreatedBy:   &parentID,
	}
	if err := s.products.Create(ctx, p); err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{"product": p.Name, "cost": p.Cost(), "parent_id": parentID}).Info("Товар добавлен")
	return p, nil
}

// RemoveProduct снимает товар с продажи. Только для родителей.
func (s *Service) RemoveProduct(ctx context.Context, parentID int64, productID uuid.UUID) error {
	if err := s.requireParent(ctx, parentID); err != nil {
		return err
	}
	return s.products.Deactivate(ctx, productID)
}

// RequestPurchase резервирует искры под покупку и ставит заявку в очередь родителям.
// Повторная заявка на товар, пока первая ждёт решения, — common.ErrAlreadyPending.
func (s *Service) RequestPurchase(ctx context.Context, userID int64, productID uuid.UUID) (*economy.SpendRequest, *Product, error) {
	p, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, nil, err
	}
	req, err := s.ledger.Hold(ctx, economy.Spend{
		UserID:   userID,
		Kind:     balance.KindPurchase,
		ItemID:   p.ID.String(),
		ItemName: p.Name,
		Amount:   p.Cost(),
	})
	if err != nil {
		return nil, p, err
	}
	return req, p, nil
}

// Pending возвращает заявки, ждущие решения. Только для родителей.
func (s *Service) Pending(ctx context.Context, parentID int64) ([]*economy.SpendRequest, error) {
	if err := s.requireParent(ctx, parentID); err != nil {
		return nil, err
	}
	return s.ledger.Pending(ctx)
}

// Approve одобряет заявку. Только для родителей.
func (s *Service) Approve(ctx context.Context, parentID int64, requestID uuid.UUID) (*economy.SpendRequest, error) {
	if err := s.requireParent(ctx, parentID); err != nil {
		return nil, err
	}
	return s.ledger.Approve(ctx, requestID, parentID)
}

// Reject отклоняет заявку и снимает резерв. Только для родителей.
func (s *Service) Reject(ctx context.Context, parentID int64, requestID uuid.UUID) (*economy.SpendRequest, error) {
	if err := s.requireParent(ctx, parentID); err != nil {
		return nil, err
	}
	return s.ledger.Reject(ctx, requestID, parentID)
}

func (s *Service) requireParent(ctx context.Context, userID int64) error {
	ok, err := s.parents.IsParent(ctx, userID)
	if err != nil {
		return fmt.Errorf("проверка роли: %w", err)
	}
	if !ok {
		return common.ErrNotParent
	}
	return nil
}
